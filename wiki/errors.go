package wiki

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound = errors.New("page not found")
	ErrConflict = errors.New("page already exists")
)

// RequestError is the one failure kind the editor distinguishes. A transport
// failure has StatusCode 0 and Status "error".
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s %s: %s (%d)", e.Method, e.URL, e.Status, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() []error {
	var errs []error
	switch e.StatusCode {
	case http.StatusNotFound:
		errs = append(errs, ErrNotFound)
	case http.StatusConflict:
		errs = append(errs, ErrConflict)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// AsRequestError reports the RequestError inside err, if any.
func AsRequestError(err error) (*RequestError, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
