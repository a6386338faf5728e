package safarixcode

import "fmt"

// ConfigurationError reports a missing or invalid Config field. It is
// returned before any file is read.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// ScaffoldNotFoundError reports that an expected directory or file of the
// converter output does not exist.
type ScaffoldNotFoundError struct {
	Path string
	What string // e.g. "project directory", "build configuration"
}

func (e *ScaffoldNotFoundError) Error() string {
	return fmt.Sprintf("scaffold not found: %s missing at %s", e.What, e.Path)
}

// ParseError reports content that does not match the expected dialect.
// Line is 1-based and zero when unknown.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	path := e.Path
	if path == "" {
		path = "<input>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse %s:%d: %v", path, e.Line, e.Err)
	}
	return fmt.Sprintf("failed to parse %s: %v", path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TargetNotFoundError reports a native target missing from the build
// configuration.
type TargetNotFoundError struct {
	Path   string
	Target string
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("target %q not found in %s", e.Target, e.Path)
}

// IOError wraps a read, write or stat failure on a scaffold file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// withPath fills in the path of a ParseError or TargetNotFoundError
// produced by the pure document functions.
func withPath(err error, path string) error {
	switch e := err.(type) {
	case *ParseError:
		if e.Path == "" {
			e.Path = path
		}
	case *TargetNotFoundError:
		if e.Path == "" {
			e.Path = path
		}
	}
	return err
}
