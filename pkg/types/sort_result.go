package types

import "fmt"

// SortResult holds the counters accumulated over one sort run.
type SortResult struct {
	Total     int `json:"total"`     // files discovered
	Processed int `json:"processed"` // copied or moved successfully
	Skipped   int `json:"skipped"`   // excluded by extension
	Errors    int `json:"errors"`    // failed during copy/move
}

// Done reports how many files have been accounted for so far.
// This is the running total handed to progress callbacks.
func (r SortResult) Done() int {
	return r.Processed + r.Skipped + r.Errors
}

// String returns a one-line summary suitable for a completion message.
func (r SortResult) String() string {
	return fmt.Sprintf("%d processed, %d skipped, %d errors (%d total)",
		r.Processed, r.Skipped, r.Errors, r.Total)
}
