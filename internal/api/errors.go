package api

import (
	"errors"
	"fmt"

	"github.com/pennywise-app/pennywise/internal/model"
)

// ErrResponseTooLarge is returned when a response body exceeds the client's
// size cap. It is not a TransportError: the server answered, and falling back
// to cached data would hide the problem.
var ErrResponseTooLarge = fmt.Errorf("response larger than %d MB", maxBodySize>>20)

// RemoteError means the backend answered but refused the request, either with
// success:false or a non-2xx status.
type RemoteError struct {
	Op      string
	Status  int
	Message string
}

// Error returns the server's message verbatim when it sent one.
func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api: %s: HTTP %d", e.Op, e.Status)
}

// TransportError means the backend could not be reached or sent an
// unreadable response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("api: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Message turns err into text suitable for showing to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Error()
	}
	var te *TransportError
	if errors.As(err, &te) {
		return fmt.Sprintf("Could not reach the server (%v). Please try again.", te.Err)
	}
	return err.Error()
}
