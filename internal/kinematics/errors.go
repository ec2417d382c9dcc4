package kinematics

import "fmt"

// Error taxonomy for the processing chain. Malformed input and degenerate
// signals abort processing only for the affected joint or region; a failed
// cutoff search is recoverable and triggers a flagged fallback instead.

// MalformedInputError reports a schema or shape violation in the skeleton,
// region table, or sample table (missing joints, non-monotonic time, parent
// index out of range).
type MalformedInputError struct {
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s: %s", e.Field, e.Reason)
}

// DegenerateSignalError reports a zero-variance or fully missing channel
// that blocks filtering or classification for one joint or region.
type DegenerateSignalError struct {
	Subject string // joint or region name
	Reason  string
}

func (e *DegenerateSignalError) Error() string {
	return fmt.Sprintf("degenerate signal for %s: %s", e.Subject, e.Reason)
}

// CutoffNotFoundError reports that the residual knee search failed for a
// region. It is recoverable: the caller falls back to the region's
// documented default cutoff and records the reason.
type CutoffNotFoundError struct {
	Region string
	Reason string
}

func (e *CutoffNotFoundError) Error() string {
	return fmt.Sprintf("cutoff not found for region %s: %s", e.Region, e.Reason)
}
