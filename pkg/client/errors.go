package client

import "fmt"

// HTTPRequestError is the terminal error of a fetch. Status is set for
// upstream HTTP failures and zero for transport-level ones (timeout, DNS,
// connection reset) and parse failures.
type HTTPRequestError struct {
	URL    string
	Status int
	Err    error
}

func (e *HTTPRequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request to %s failed with status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *HTTPRequestError) Unwrap() error {
	return e.Err
}
