package lifecycle

import (
	"errors"
	"fmt"
)

// ErrReportNotFound is returned by a Gateway when an identifier does not
// reference an existing report.
var ErrReportNotFound = errors.New("report not found")

// ValidationError is a client-side input deficiency. It never reaches the
// persistence gateway: no store or media call happens once validation fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid report: %s %s", e.Field, e.Reason)
}

// SubmissionError wraps a store or media round-trip failure during intake.
// The insert is one-shot, so no partial record is left behind.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("report submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// QueryError wraps a store failure while reading a view. The caller is
// expected to surface it and re-invoke; there is no retry here.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("report query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// TransitionError is a failed moderation transition: unknown report,
// malformed status, a denied table entry, or a store rejection.
type TransitionError struct {
	ID  int64
	Err error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("status transition for report %d failed: %v", e.ID, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// PermissionError signals a denied capability at a collaborator boundary,
// e.g. media storage refusing a write.
type PermissionError struct {
	Capability string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Capability)
}
