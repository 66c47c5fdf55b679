// Package prompt collects the run inputs interactively for values not given
// on the command line.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	apperrors "windorbit/internal/errors"
)

// Inputs are the three user-supplied strings of a run
type Inputs struct {
	StartDate string
	EndDate   string
	Dir       string
}

// Complete reports whether every input is set
func (in Inputs) Complete() bool {
	return in.StartDate != "" && in.EndDate != "" && in.Dir != ""
}

// Prompter asks for inputs on Out and reads answers from In, one per line
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Prompter
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Collect fills the empty fields of given by asking for them in order.
func (p *Prompter) Collect(given Inputs) (Inputs, error) {
	questions := []struct {
		field  *string
		name   string
		prompt string
	}{
		{&given.StartDate, "start date", "Enter desired start date (dd/mm/YYYY): "},
		{&given.EndDate, "end date", "Enter desired end date (inclusive, dd/mm/YYYY): "},
		{&given.Dir, "save directory", "Enter desired directory to store data: "},
	}

	for _, q := range questions {
		if *q.field != "" {
			continue
		}
		answer, err := p.ask(q.prompt)
		if err != nil {
			return given, apperrors.NewValidationError("no "+q.name+" provided", err)
		}
		if answer == "" {
			return given, apperrors.NewValidationError("no "+q.name+" provided", nil)
		}
		*q.field = answer
	}

	return given, nil
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
