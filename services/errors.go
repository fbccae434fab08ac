package services

import "fmt"

// InvalidRangeError reports a malformed or negative volume range. It is
// raised before any mutation touches storage.
type InvalidRangeError struct {
	Start int
	End   int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid volume range [%d, %d]: end must be >= start and both >= 0", e.Start, e.End)
}

// NotFoundError reports a missing plan, group or other referenced row.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// PartialBatchError reports a multi-step commit that stopped at a failing
// step. CompletedCount counts the steps that ran before the failure; when the
// steps were wrapped in a storage transaction their effects have been rolled
// back, otherwise they remain applied and the caller must re-fetch state.
type PartialBatchError struct {
	Op             string
	FailedStep     string
	CompletedCount int
	TotalCount     int
	Err            error
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("%s: step %q failed after %d/%d steps: %v",
		e.Op, e.FailedStep, e.CompletedCount, e.TotalCount, e.Err)
}

func (e *PartialBatchError) Unwrap() error {
	return e.Err
}
