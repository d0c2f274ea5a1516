package operation

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a request rejected before any outbound call was made.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func badRequest(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func notImplemented(operation string) *Error {
	return &Error{
		Status:  http.StatusNotAcceptable,
		Message: fmt.Sprintf("operation %s is not implemented for AWS-CoioteDM integration", operation),
	}
}

// AsError returns err as an *Error, treating any other error as a bad request.
func AsError(err error) *Error {
	var opErr *Error
	if errors.As(err, &opErr) {
		return opErr
	}
	return &Error{Status: http.StatusBadRequest, Message: err.Error()}
}
