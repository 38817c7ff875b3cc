package vault

import "fmt"

// ValidationError reports bad caller input. Where a safe default exists
// (unknown observation type) the store recovers and logs instead of
// returning one of these.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// BackendError wraps a failure of the embedder or the vector index. It is
// fatal for the current operation and surfaced verbatim; the store never
// degrades it to an empty result set, which would be indistinguishable from
// "no matches".
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func backendErr(op string, err error) error {
	return &BackendError{Op: op, Err: err}
}
