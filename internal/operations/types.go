package operations

import (
	"time"

	"github.com/go-playground/validator/v10"

	"windorbit/internal/daterange"
	apperrors "windorbit/internal/errors"
)

// FailurePolicy decides what a failed day does to the rest of the run
type FailurePolicy string

const (
	PolicyAbort FailurePolicy = "abort"
	PolicySkip  FailurePolicy = "skip"
)

// RetryConfig holds per-day query retry settings
type RetryConfig struct {
	MaxAttempts  int           `validate:"gte=1,lte=11"`
	InitialDelay time.Duration `validate:"gte=0"`
	MaxDelay     time.Duration `validate:"gte=0"`
	Multiplier   float64       `validate:"gte=1"`
}

// NewRetryConfig returns a retry configuration making a single attempt
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  1,
		InitialDelay: 5 * time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2,
	}
}

// RunConfig is everything one fetch needs
type RunConfig struct {
	Start         time.Time     `validate:"required"`
	End           time.Time     `validate:"required"`
	Dir           string        `validate:"required"`
	FailurePolicy FailurePolicy `validate:"oneof=abort skip"`
	Retry         RetryConfig
	SkipExisting  bool
}

// Validate checks the run configuration
func (c RunConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewValidationError("invalid run configuration", err)
	}
	return nil
}

// Windows returns the number of days the run covers
func (c RunConfig) Windows() int {
	return daterange.Count(c.Start, c.End)
}

// DayFailure records a day that could not be fetched
type DayFailure struct {
	Day  time.Time
	Type apperrors.ErrorType
	Err  error
}

func newDayFailure(day time.Time, err error) DayFailure {
	return DayFailure{Day: day, Type: apperrors.TypeOf(err), Err: err}
}

// Summary reports what a run did
type Summary struct {
	Expected int
	Written  int
	Skipped  int
	Failed   int
	Files    []string
	Failures []DayFailure
	Duration time.Duration
}

// Processed returns how many days were handled, whatever the outcome
func (s *Summary) Processed() int {
	return s.Written + s.Skipped + s.Failed
}
