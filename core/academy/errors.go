package academy

import "fmt"

// APIError is a backend response whose envelope code reports a failure.
// The backend was reachable; it explicitly refused the request.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("academy backend: %d %s", e.Code, e.Message)
}
