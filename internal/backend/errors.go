package backend

import "fmt"

// UnknownBackendError reports a backend id that is not registered.
type UnknownBackendError struct {
	ID string
}

func (e *UnknownBackendError) Error() string {
	if e.ID == "" {
		return "no backend selected"
	}
	return fmt.Sprintf("unknown backend %q", e.ID)
}

// BackendExecutionError reports a registered backend that failed while
// running. No partial result accompanies it.
type BackendExecutionError struct {
	ID  string
	Err error
}

func (e *BackendExecutionError) Error() string {
	return fmt.Sprintf("backend %q failed: %v", e.ID, e.Err)
}

func (e *BackendExecutionError) Unwrap() error {
	return e.Err
}
