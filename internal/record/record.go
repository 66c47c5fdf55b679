// Package record turns one day's Locator report text into the on-disk daily
// orbit file.
//
// The Locator returns a fixed-layout report for the query the locator package
// submits, so the file is cut from it at constant line offsets:
//
//	raw[HeaderLine]               column header
//	raw[UnitsLine]                units row
//	raw[LegendStart:LegendEnd]    legend block
//	FormatLine                    IDL read format for the data columns
//	raw[DataStart:]               data rows
//
// DataStart is one less than LegendEnd, so raw[39] is written twice. Files
// produced earlier have this duplicate line and downstream readers expect it.
package record

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"windorbit/internal/daterange"
	apperrors "windorbit/internal/errors"
)

// Line offsets into the Locator report.
const (
	HeaderLine  = 8
	UnitsLine   = 9
	LegendStart = 34
	LegendEnd   = 40
	DataStart   = 39

	// MinLines is the shortest report Extract accepts.
	MinLines = LegendEnd
)

// FormatLine is inserted between the legend and the data rows.
const FormatLine = "FORMAT='(a17,3f16.3,2f7.2,3f16.3,2f7.2,2f7.1)'"

const (
	filenamePrefix = "wind_"
	filenameSuffix = "_XYZ-GSE-GSM_Lat-Long-GSE_L-Value_Invar-Lat.txt"
	filenameDate   = "01-02-2006"
)

// RawFormResult is the report text for one window, split into lines.
type RawFormResult []string

// SplitLines splits report text on newlines. A trailing carriage return on
// each line is kept as is.
func SplitLines(text string) RawFormResult {
	return strings.Split(text, "\n")
}

// DailyRecord is the file written for one window.
type DailyRecord struct {
	Filename string
	Lines    []string
}

// Bytes renders the record with every line newline-terminated.
func (r DailyRecord) Bytes() []byte {
	var buf bytes.Buffer
	for _, line := range r.Lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Filename returns the daily file name for w, dated by w.Start.
func Filename(w daterange.Window) string {
	return filenamePrefix + w.Start.Format(filenameDate) + filenameSuffix
}

// ParseFilename returns the day encoded in a daily file name.
func ParseFilename(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filenamePrefix) || !strings.HasSuffix(name, filenameSuffix) {
		return time.Time{}, false
	}
	datePart := strings.TrimSuffix(strings.TrimPrefix(name, filenamePrefix), filenameSuffix)
	day, err := time.Parse(filenameDate, datePart)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// Extract selects the daily record lines from raw. raw is not modified.
func Extract(w daterange.Window, raw RawFormResult) (DailyRecord, error) {
	if len(raw) < MinLines {
		return DailyRecord{}, apperrors.NewCollaboratorError(
			fmt.Sprintf("report has %d lines, need at least %d", len(raw), MinLines), nil).
			WithContext("day", w.Start.Format("2006-01-02")).
			WithContext("lines", len(raw))
	}

	lines := make([]string, 0, 2+(LegendEnd-LegendStart)+1+(len(raw)-DataStart))
	lines = append(lines, raw[HeaderLine], raw[UnitsLine])
	lines = append(lines, raw[LegendStart:LegendEnd]...)
	lines = append(lines, FormatLine)
	lines = append(lines, raw[DataStart:]...)

	return DailyRecord{Filename: Filename(w), Lines: lines}, nil
}
