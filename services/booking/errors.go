package booking

import (
	"errors"
	"fmt"

	"courtbook/models"
)

// FlowError is a handled error: the conversation stays usable and Notice is
// shown to the user as a short failure message.
type FlowError struct {
	Notice string
	Err    error
}

func (e *FlowError) Error() string {
	if e.Err == nil {
		return e.Notice
	}
	return fmt.Sprintf("%s: %v", e.Notice, e.Err)
}

func (e *FlowError) Unwrap() error { return e.Err }

// structuralError wraps a malformed or inconsistent selection.
func structuralError(notice string, cause error) *FlowError {
	if cause == nil {
		cause = models.ErrStructural
	} else if !errors.Is(cause, models.ErrStructural) {
		cause = fmt.Errorf("%w: %v", models.ErrStructural, cause)
	}
	return &FlowError{Notice: notice, Err: cause}
}

// UserNotice extracts the short failure message for the transport to show.
func UserNotice(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Notice
	}
	return "Something went wrong. Please try again."
}
