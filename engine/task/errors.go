package task

import "fmt"

// Error codes
const (
	ErrCodeActionExclusive   = "ACTION_EXCLUSIVE"
	ErrCodeConflictingAction = "CONFLICTING_ACTION"
	ErrCodeNoAction          = "NO_ACTION"
	ErrCodeUnexpectedType    = "UNEXPECTED_PARAMETER_TYPE"
	ErrCodeTokenize          = "TOKENIZE_ERROR"
)

// MalformedTaskError reports a task declaration that cannot be reduced to a
// canonical (operation, params, delegate_to) triple. Record carries the
// offending declaration for diagnostics only.
type MalformedTaskError struct {
	Code    string
	Message string
	Record  Record
}

func (e *MalformedTaskError) Error() string {
	return e.Message
}

// NewMalformedTaskError creates a MalformedTaskError with the given code and message
func NewMalformedTaskError(code, message string, record Record) *MalformedTaskError {
	return &MalformedTaskError{
		Code:    code,
		Message: message,
		Record:  record,
	}
}

func newActionExclusiveError(record Record) *MalformedTaskError {
	return NewMalformedTaskError(ErrCodeActionExclusive, "action and local_action are mutually exclusive", record)
}

func newConflictingActionError(record Record) *MalformedTaskError {
	return NewMalformedTaskError(ErrCodeConflictingAction, "conflicting action statements", record)
}

func newNoActionError(record Record) *MalformedTaskError {
	return NewMalformedTaskError(ErrCodeNoAction, "no action detected in task", record)
}

func newUnexpectedTypeError(record Record, raw any) *MalformedTaskError {
	return NewMalformedTaskError(
		ErrCodeUnexpectedType,
		fmt.Sprintf("unexpected parameter type in action: %T", raw),
		record,
	)
}

func newTokenizeError(record Record, err error) *MalformedTaskError {
	return NewMalformedTaskError(
		ErrCodeTokenize,
		fmt.Sprintf("failed to tokenize arguments: %s", err.Error()),
		record,
	)
}
