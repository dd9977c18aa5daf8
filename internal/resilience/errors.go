package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// TransientError marks a source failure that may clear on its own: a
// timeout, a dropped connection, or a 5xx that survived the retry
// budget. The fallback chain logs these quietly; permanent rejections
// (unexpected 4xx, unparseable payloads) are logged louder.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP
// status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient reports whether the error (or any error in its chain) is
// a TransientError, or matches common transient transport failures
// (timeouts, connection resets, DNS hiccups). The free-tier hosts the
// sources run on produce all of these routinely while waking up.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Wrapped client errors that defeat errors.As.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// RetryableStatus reports whether an HTTP status earns another attempt
// against the same source. Only server errors qualify: 404 is a
// definitive answer, and any other 4xx means the request itself is
// wrong and will not improve on retry.
func RetryableStatus(statusCode int) bool {
	return statusCode >= 500 && statusCode <= 599
}
