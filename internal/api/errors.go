package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoActiveSession is returned when the backend reports no open session.
var ErrNoActiveSession = errors.New("no active session")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (err *StatusError) Error() string {
	if err.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", err.Method, err.Path, err.Code, http.StatusText(err.Code))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", err.Method, err.Path, err.Code, http.StatusText(err.Code), err.Body)
}

// IsClientError reports whether err is a 4xx response. These are never retried.
func IsClientError(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.Code >= 400 && statusErr.Code < 500
}
