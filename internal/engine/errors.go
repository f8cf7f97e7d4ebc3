package engine

import "fmt"

// ValidationError reports malformed, missing or contradictory input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// LookupError reports a reference data key that does not exist.
type LookupError struct {
	Message string
	Err     error
}

func (e *LookupError) Error() string { return e.Message }

func (e *LookupError) Unwrap() error { return e.Err }

// UnsupportedCategoryError reports an activity type outside the fixed set.
type UnsupportedCategoryError struct {
	Value string
}

func (e *UnsupportedCategoryError) Error() string {
	return fmt.Sprintf("unsupported activity type %q", e.Value)
}

// UpstreamError reports a failed call to an external service. Status is the
// HTTP status returned by the service, or 0 when no response was received.
type UpstreamError struct {
	Service string
	Status  int
	Detail  string
	Err     error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status != 0 && e.Detail != "":
		return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Detail)
	case e.Status != 0:
		return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
	default:
		return fmt.Sprintf("%s unavailable: %s", e.Service, e.Detail)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
