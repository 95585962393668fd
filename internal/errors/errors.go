package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/questlog/internal/logger"
)

// Exit codes returned by Fatal.
const (
	ExitFailure = 1
	// ExitRefused marks an expected refusal such as a shop gate or
	// validation failure.
	ExitRefused = 2
)

// codedError attaches a process exit code to an error
type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

// Refused marks err as an expected, user-facing refusal.
func Refused(err error) error {
	if err == nil {
		return nil
	}
	return &codedError{err: err, code: ExitRefused}
}

// ExitCode returns the exit code Fatal would use for err.
func ExitCode(err error) int {
	var ce *codedError
	if stderrors.As(err, &ce) {
		return ce.code
	}
	return ExitFailure
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits with ExitCode(err). Refusals are logged
// at debug level.
func Fatal(err error) {
	if err == nil {
		return
	}
	code := ExitCode(err)
	if code == ExitRefused {
		logger.Debug("Command refused", "error", err)
	} else {
		logger.Error("Command execution failed", "error", err)
	}
	fmt.Fprintf(os.Stderr, "%s\n", Format(err))
	os.Exit(code)
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(ExitFailure)
}
