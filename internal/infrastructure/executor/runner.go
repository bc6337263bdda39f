package executor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/shai-copilot/internal/domain"
	"github.com/doeshing/shai-copilot/internal/ports"
)

// ProcessRunner runs one helper process per call under a wall-clock deadline.
type ProcessRunner struct {
	gracePeriod time.Duration
	drainPeriod time.Duration
	logger      ports.Logger
}

// NewProcessRunner builds a runner. On timeout the process group gets
// SIGTERM, then SIGKILL after the grace period.
func NewProcessRunner(logger ports.Logger) *ProcessRunner {
	return &ProcessRunner{
		gracePeriod: domain.DefaultKillGracePeriod,
		drainPeriod: domain.DefaultOutputDrainPeriod,
		logger:      logger,
	}
}

// WithGracePeriod overrides the wait between SIGTERM and SIGKILL.
func (r *ProcessRunner) WithGracePeriod(d time.Duration) *ProcessRunner {
	if d >= 0 {
		r.gracePeriod = d
	}
	return r
}

// WithDrainPeriod overrides how long output is read after the helper exits.
func (r *ProcessRunner) WithDrainPeriod(d time.Duration) *ProcessRunner {
	if d >= 0 {
		r.drainPeriod = d
	}
	return r
}

// Run implements ports.ScriptRunner. The process exit and the deadline race;
// whichever loses is cancelled. Cancelling ctx is treated as an earlier
// deadline. The call returns within timeout plus the grace and drain periods
// even when a descendant outlives the helper and holds its output open.
func (r *ProcessRunner) Run(ctx context.Context, name string, args []string, stdin string, timeout time.Duration) (domain.ProcessResult, error) {
	if timeout <= 0 {
		timeout = domain.DefaultScriptTimeout
	}

	cmd := exec.Command(name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	// bounds the stdin copy when a descendant inherits stdin and never reads it
	cmd.WaitDelay = r.drainPeriod
	setProcessGroup(cmd)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return domain.ProcessResult{}, &domain.LaunchFailedError{Message: err.Error(), Err: err}
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return domain.ProcessResult{}, &domain.LaunchFailedError{Message: err.Error(), Err: err}
	}
	defer closeAll(stdoutR, stderrR)
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	start := time.Now()
	err = cmd.Start()
	// the child holds its own copies of the write ends
	closeAll(stdoutW, stderrW)
	if err != nil {
		r.logger.Warn("helper launch failed", map[string]interface{}{"name": name, "error": err.Error()})
		return domain.ProcessResult{}, &domain.LaunchFailedError{Message: err.Error(), Err: err}
	}

	var stdout, stderr bytes.Buffer
	var streams errgroup.Group
	streams.Go(func() error { return drain(&stdout, stdoutR) })
	streams.Go(func() error { return drain(&stderr, stderrR) })
	drained := make(chan error, 1)
	go func() { drained <- streams.Wait() }()

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case waitErr := <-exited:
		if drainErr := r.finishOutput(drained, stdoutR, stderrR); waitErr == nil {
			waitErr = drainErr
		}
		return r.result(name, cmd, waitErr, &stdout, &stderr, start)
	case <-deadline.C:
	case <-ctx.Done():
	}

	r.terminate(cmd, exited)
	closeAll(stdoutR, stderrR)
	<-drained
	r.logger.Warn("helper timed out", map[string]interface{}{
		"name":       name,
		"timeout_ms": timeout.Milliseconds(),
	})
	return domain.ProcessResult{}, &domain.TimedOutError{Timeout: timeout}
}

// finishOutput waits for the readers to hit EOF. Output still open after the
// drain period belongs to a descendant; the read ends are closed and whatever
// was read so far is kept.
func (r *ProcessRunner) finishOutput(drained <-chan error, readers ...*os.File) error {
	timer := time.NewTimer(r.drainPeriod)
	defer timer.Stop()
	select {
	case err := <-drained:
		return err
	case <-timer.C:
	}
	r.logger.Debug("helper output held open by a descendant", nil)
	closeAll(readers...)
	<-drained
	return nil
}

func (r *ProcessRunner) result(name string, cmd *exec.Cmd, waitErr error, stdout, stderr *bytes.Buffer, start time.Time) (domain.ProcessResult, error) {
	if cmd.ProcessState == nil {
		if waitErr == nil {
			waitErr = errors.New("process state unavailable")
		}
		return domain.ProcessResult{}, &domain.LaunchFailedError{Message: waitErr.Error(), Err: waitErr}
	}

	result := domain.ProcessResult{
		Stdout:   decodeOutput(stdout.Bytes()),
		Stderr:   decodeOutput(stderr.Bytes()),
		ExitCode: int32(cmd.ProcessState.ExitCode()),
	}
	r.logger.Debug("helper finished", map[string]interface{}{
		"name":        name,
		"exit_code":   result.ExitCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return result, nil
}

// terminate signals the process group and waits until the helper is reaped.
// Wait does not depend on the output pipes, so the final wait is bounded by
// the kill.
func (r *ProcessRunner) terminate(cmd *exec.Cmd, exited <-chan error) {
	interruptProcess(cmd)
	grace := time.NewTimer(r.gracePeriod)
	defer grace.Stop()
	select {
	case <-exited:
		return
	case <-grace.C:
	}
	killProcess(cmd)
	<-exited
}

func drain(dst *bytes.Buffer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func decodeOutput(b []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(b), "�"))
}

var _ ports.ScriptRunner = (*ProcessRunner)(nil)
