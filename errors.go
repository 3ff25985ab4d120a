package selectfield

import "fmt"

// ConfigError reports an invalid field configuration. These are raised at
// construction time so misconfigured fields fail fast instead of degrading
// once a user interacts with them.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("selectfield: invalid configuration: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("selectfield: invalid configuration: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// SearchError reports a failed remote search. It is recovered locally: the
// previous candidate list stays on screen next to an error indicator and the
// next keystroke retries.
type SearchError struct {
	Query string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("selectfield: search %q: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}
