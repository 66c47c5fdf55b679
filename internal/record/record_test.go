package record

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windorbit/internal/daterange"
	apperrors "windorbit/internal/errors"
)

func window(y int, m time.Month, d int) daterange.Window {
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return daterange.Window{Start: start, End: start.Add(24 * time.Hour)}
}

func numbered(n int) RawFormResult {
	raw := make(RawFormResult, n)
	for i := range raw {
		raw[i] = fmt.Sprintf("line %02d", i)
	}
	return raw
}

func TestExtract_ExactlyMinLines(t *testing.T) {
	rec, err := Extract(window(2024, 3, 5), numbered(40))
	require.NoError(t, err)

	expected := []string{
		"line 08", "line 09",
		"line 34", "line 35", "line 36", "line 37", "line 38", "line 39",
		FormatLine,
		"line 39",
	}
	assert.Equal(t, expected, rec.Lines)
}

func TestExtract_DataRowsFollowFormatLine(t *testing.T) {
	raw := numbered(45)
	rec, err := Extract(window(2024, 3, 5), raw)
	require.NoError(t, err)

	require.Len(t, rec.Lines, 2+6+1+6)
	assert.Equal(t, FormatLine, rec.Lines[8])
	assert.Equal(t, []string(raw[39:]), rec.Lines[9:])
	assert.Equal(t, "line 44", rec.Lines[len(rec.Lines)-1])
}

func TestExtract_BoundaryLineAppearsTwice(t *testing.T) {
	rec, err := Extract(window(2024, 3, 5), numbered(60))
	require.NoError(t, err)

	count := 0
	for _, l := range rec.Lines {
		if l == "line 39" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestExtract_ShortReport(t *testing.T) {
	for _, n := range []int{0, 1, 10, 39} {
		t.Run(fmt.Sprintf("%d lines", n), func(t *testing.T) {
			_, err := Extract(window(2024, 3, 5), numbered(n))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeCollaborator))
		})
	}
}

func TestExtract_DoesNotMutateInput(t *testing.T) {
	raw := numbered(50)
	snapshot := append(RawFormResult(nil), raw...)

	rec, err := Extract(window(2024, 3, 5), raw)
	require.NoError(t, err)
	assert.Equal(t, snapshot, raw)

	// output must not alias the input
	rec.Lines[9] = "changed"
	assert.Equal(t, snapshot, raw)
}

func TestExtract_Deterministic(t *testing.T) {
	raw := numbered(52)
	w := window(2024, 3, 5)

	first, err := Extract(w, raw)
	require.NoError(t, err)
	second, err := Extract(w, raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name     string
		window   daterange.Window
		expected string
	}{
		{
			name:     "march fifth",
			window:   window(2024, 3, 5),
			expected: "wind_03-05-2024_XYZ-GSE-GSM_Lat-Long-GSE_L-Value_Invar-Lat.txt",
		},
		{
			name:     "new years eve",
			window:   window(1999, 12, 31),
			expected: "wind_12-31-1999_XYZ-GSE-GSM_Lat-Long-GSE_L-Value_Invar-Lat.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Filename(tt.window))
		})
	}
}

func TestExtract_Filename(t *testing.T) {
	rec, err := Extract(window(2024, 3, 5), numbered(40))
	require.NoError(t, err)
	assert.Equal(t, "wind_03-05-2024_XYZ-GSE-GSM_Lat-Long-GSE_L-Value_Invar-Lat.txt", rec.Filename)
}

func TestDailyRecord_Bytes(t *testing.T) {
	rec := DailyRecord{Lines: []string{"a", "", "c"}}
	assert.Equal(t, "a\n\nc\n", string(rec.Bytes()))
	assert.Empty(t, DailyRecord{}.Bytes())
}

func TestSplitLines(t *testing.T) {
	raw := SplitLines("one\ntwo\n\nfour")
	assert.Equal(t, RawFormResult{"one", "two", "", "four"}, raw)

	text := strings.Join([]string(numbered(41)), "\n")
	assert.Len(t, SplitLines(text), 41)
}

func TestParseFilename(t *testing.T) {
	day, ok := ParseFilename(Filename(window(2024, 3, 5)))
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), day)

	for _, name := range []string{
		"wind_2024-03-05_XYZ-GSE-GSM_Lat-Long-GSE_L-Value_Invar-Lat.txt",
		"wind_03-05-2024.txt",
		"notes.txt",
		"wind_13-05-2024_XYZ-GSE-GSM_Lat-Long-GSE_L-Value_Invar-Lat.txt",
	} {
		_, ok := ParseFilename(name)
		assert.False(t, ok, name)
	}
}
