package domain

import (
	"errors"
	"fmt"
	"time"
)

// ProcessResult is the outcome of a helper process that exited on its own.
// Exit code semantics are left to the caller.
type ProcessResult struct {
	Stdout   string
	Stderr   string
	ExitCode int32
}

var (
	// ErrTimedOut matches any TimedOutError via errors.Is.
	ErrTimedOut = errors.New("process timed out")
	// ErrLaunchFailed matches any LaunchFailedError via errors.Is.
	ErrLaunchFailed = errors.New("process launch failed")
)

// ProcessFailure is the closed set of runner failures. The only
// implementations are *TimedOutError and *LaunchFailedError.
type ProcessFailure interface {
	error
	processFailure()
}

// TimedOutError reports a process that was terminated at its deadline.
// Output produced before termination is discarded.
type TimedOutError struct {
	Timeout time.Duration
}

func (e *TimedOutError) Error() string {
	return fmt.Sprintf("process timed out after %s", e.Timeout)
}

func (e *TimedOutError) Is(target error) bool { return target == ErrTimedOut }

func (*TimedOutError) processFailure() {}

// LaunchFailedError reports a process that could not be started.
type LaunchFailedError struct {
	Message string
	Err     error
}

func (e *LaunchFailedError) Error() string {
	return "launch failed: " + e.Message
}

func (e *LaunchFailedError) Unwrap() error { return e.Err }

func (e *LaunchFailedError) Is(target error) bool { return target == ErrLaunchFailed }

func (*LaunchFailedError) processFailure() {}

// ScriptError is returned by the scripting primitive when a script exits
// non-zero and writes to stderr.
type ScriptError struct {
	ExitCode int32
	Stderr   string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script exited with code %d: %s", e.ExitCode, e.Stderr)
}

// Err returns a ScriptError when the process exited non-zero and wrote to
// stderr, the conventional failure signal for automation scripts.
func (r ProcessResult) Err() error {
	if r.ExitCode != 0 && r.Stderr != "" {
		return &ScriptError{ExitCode: r.ExitCode, Stderr: r.Stderr}
	}
	return nil
}
