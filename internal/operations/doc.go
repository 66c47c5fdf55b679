// Package operations runs a fetch: it walks the requested days in order and,
// for each one, queries the Locator, cuts the daily record from the report
// and writes it to the output directory.
//
// Days are processed strictly one after another. What happens when a day's
// query fails is set by RunConfig.FailurePolicy:
//
//	PolicyAbort  stop at the first failed day and return its error
//	PolicySkip   log the failure, count it in the Summary and continue
//
// A failed write always stops the run, since every later day would fail on
// the same directory.
package operations
