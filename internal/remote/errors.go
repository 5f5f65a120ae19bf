package remote

import (
	"fmt"

	domainerrors "github.com/moodtrail/moodtrail/internal/errors"
)

// Error is a failed call to the remote store. It unwraps to the domain error
// named by the response code, so errors.Is and UserMessage see through it.
type Error struct {
	Status  int
	Code    domainerrors.Code
	Message string
	Details any
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote store: %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return &domainerrors.Error{Code: e.Code, Message: e.Message, Details: e.Details}
}
