package guardrail

import (
	stderrors "errors"
	"fmt"

	apperrors "github.com/goliatone/go-errors"
)

const (
	ErrCodeInvalidTransition = "GUARD_INVALID_TRANSITION"
	ErrCodeApprovalRequired  = "GUARD_APPROVAL_REQUIRED"
	ErrCodeValidation        = "GUARD_VALIDATION"
)

var (
	// ErrInvalidTransition marks attempts to move an action out of a
	// state that does not permit the transition, e.g. approving an
	// already decided action.
	ErrInvalidTransition = apperrors.New("invalid transition", apperrors.CategoryConflict).
				WithTextCode(ErrCodeInvalidTransition)

	// ErrApprovalRequired marks execute attempts on actions that have
	// not been approved.
	ErrApprovalRequired = apperrors.New("action must be approved before execution", apperrors.CategoryConflict).
				WithTextCode(ErrCodeApprovalRequired)

	// ErrValidation marks proposals with missing or malformed metadata.
	ErrValidation = apperrors.New("validation error", apperrors.CategoryValidation).
			WithTextCode(ErrCodeValidation)
)

// NewInvalidTransition builds an invalid-transition error naming the
// operation attempted and the action's current status, so callers can
// render "already decided" instead of a crash.
func NewInvalidTransition(op string, id string, current Status) *apperrors.Error {
	err := ErrInvalidTransition.Clone()
	err.Message = fmt.Sprintf("cannot %s action in status %q", op, current)
	return err.WithMetadata(map[string]any{
		"action_id": id,
		"status":    string(current),
		"operation": op,
	})
}

// NewApprovalRequired builds the execute-before-approve error. The
// message makes explicit that approval is required first.
func NewApprovalRequired(id string, current Status) *apperrors.Error {
	err := ErrApprovalRequired.Clone()
	err.Message = fmt.Sprintf("action must be approved before execution, current status is %q", current)
	return err.WithMetadata(map[string]any{
		"action_id": id,
		"status":    string(current),
	})
}

func newValidationError(message string) *apperrors.Error {
	err := ErrValidation.Clone()
	err.Message = message
	return err
}

// ErrorCode extracts the guardrail text code from err, or "".
func ErrorCode(err error) string {
	var ge *apperrors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}

// IsInvalidTransition reports whether err marks a state machine violation.
func IsInvalidTransition(err error) bool {
	code := ErrorCode(err)
	return code == ErrCodeInvalidTransition || code == ErrCodeApprovalRequired
}

// IsValidation reports whether err marks a rejected proposal input.
func IsValidation(err error) bool {
	return ErrorCode(err) == ErrCodeValidation
}
