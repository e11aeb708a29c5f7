package flickr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// UpstreamError is the only failure the client reports. Network failures
// carry a synthetic 5xx code; non-200 responses carry the response code when it is 4xx or 5xx and 502
// otherwise.
type UpstreamError struct {
	StatusCode int
	Method     string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flickr %s: upstream status %d: %v", e.Method, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("flickr %s: upstream status %d", e.Method, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status an error should surface as.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.StatusCode > 0 {
		return ue.StatusCode
	}
	return http.StatusInternalServerError
}

// networkError maps a transport failure to a synthetic status.
func networkError(method string, err error) *UpstreamError {
	code := http.StatusBadGateway
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		code = http.StatusGatewayTimeout
	}
	return &UpstreamError{StatusCode: code, Method: method, Err: err}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// APIError is a Flickr application failure reported in a 200 body as
// {"stat":"fail","code":N,"message":"..."}.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("flickr api error %d: %s", e.Code, e.Message)
}
