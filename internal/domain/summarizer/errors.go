package summarizer

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/yanqian/echo-chat/pkg/errors"
)

// Error codes attached to failures returned by the service.
const (
	CodeTransport      = "transport_error"
	CodeStatus         = "status_error"
	CodeMalformed      = "malformed_response"
	CodeRetryExhausted = "retry_exhausted"
)

// StatusError reports a non-2xx answer from the remote endpoint.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api request failed with status %d", e.StatusCode)
}

func newStatusError(code int) error {
	return apperrors.Wrap(CodeStatus, "summarize endpoint rejected request", &StatusError{StatusCode: code})
}

// transient reports whether err is worth another attempt when only transient failures are retried.
func transient(err error) bool {
	if apperrors.IsCode(err, CodeTransport) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError || statusErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
