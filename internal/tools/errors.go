package tools

import "fmt"

// ValidationError reports a bad or missing tool argument. It is raised
// before any network call and returned to the assistant as a tool result.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// RemoteError carries the retrieval service's own error message for a
// failed operation.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// UnknownToolError reports a tool name absent from the registry. It is
// returned to the assistant as a tool result so the run can recover; it is
// never a hard failure of the whole run.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown function %s", e.Name)
}
