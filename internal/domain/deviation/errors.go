package deviation

import "errors"

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrAccessDenied      = errors.New("access denied for event")
	ErrApprovalForbidden = errors.New("role may not approve or reject")
	ErrNothingToSubmit   = errors.New("no staged changes for event")
	ErrStoreUnavailable  = errors.New("list store unavailable")
)

// ValidationError carries the per-row business-rule violations that refused
// a submission.
type ValidationError struct {
	Lines []string
}

func (e *ValidationError) Error() string {
	return "validation failed for event submission"
}
