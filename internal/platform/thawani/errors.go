package thawani

import "fmt"

// GatewayError is a transport or HTTP-level failure talking to the
// gateway. It carries the status and body for logging; callers treat
// it as retryable.
type GatewayError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("thawani %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("thawani %s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
