package feed

import "fmt"

// FetchError records a failed page fetch. The sequence is left as it was and
// nothing retries automatically.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
