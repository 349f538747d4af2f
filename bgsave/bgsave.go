// Package bgsave runs a save in a child process so the parent datastore
// never blocks on it. Go has no fork(); the child is instead obtained by
// re-executing the current binary with a hidden flag via
// os/exec.Command(os.Args[0], ...), relaunching it as a subordinate
// process.
package bgsave

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/emberkv/rdbsnap/errs"
)

// Kind distinguishes what the child is saving for: a file on disk or a
// socket transfer to a replica.
type Kind int

const (
	KindDisk Kind = iota
	KindSocket
)

func (k Kind) String() string {
	if k == KindSocket {
		return "socket"
	}

	return "disk"
}

// ReExecFlag is the hidden flag this process's own argv0 is invoked with
// to run as a background-save child instead of the normal entrypoint.
// cmd/rdbsnap-cli's main checks for it before running cobra's root
// command.
const ReExecFlag = "--rdbsnap-bgsave-child"

// Status is a point-in-time snapshot of the most recent background save.
type Status struct {
	Kind      Kind
	StartedAt time.Time
	Running   bool
	LastOK    bool
	LastErr   error
}

// Registry enforces "only one child may be active at a
// time" rule and tracks the single active child's lifecycle.
type Registry struct {
	mu         sync.Mutex
	active     *os.Process
	kind       Kind
	start      time.Time
	status     Status
	logger     *zap.Logger
	killSignal os.Signal
}

// NewRegistry creates an idle registry. killSignal is the signal Abort
// sends to an active child and the one wait() treats as "killed without
// error" rather than a failure; a nil killSignal defaults to SIGUSR1,
// matching config.New's default.
func NewRegistry(logger *zap.Logger, killSignal os.Signal) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if killSignal == nil {
		killSignal = syscall.SIGUSR1
	}

	return &Registry{logger: logger, killSignal: killSignal}
}

// Spawn re-execs the current binary with ReExecFlag and childArgs,
// returning errs.ErrChildAlreadyRunning if a child is already active or
// errs.ErrForkFailed if the process could not be started at all.
// childArgs is opaque to this package; cmd/rdbsnap-cli decides what they
// mean (target path, database count, etc.) and the re-exec'd process
// parses them itself.
func (r *Registry) Spawn(kind Kind, childArgs ...string) (*os.Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return nil, errs.ErrChildAlreadyRunning
	}

	args := append([]string{ReExecFlag, kind.String()}, childArgs...)
	cmd := exec.Command(os.Args[0], args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("bgsave: %w: %w", errs.ErrForkFailed, err)
	}

	r.active = cmd.Process
	r.kind = kind
	r.start = time.Now()
	r.status = Status{Kind: kind, StartedAt: r.start, Running: true}

	r.logger.Info("background save started",
		zap.Int("pid", cmd.Process.Pid),
		zap.String("kind", kind.String()),
	)

	go r.wait(cmd)

	return cmd.Process, nil
}

func (r *Registry) wait(cmd *exec.Cmd) {
	err := cmd.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.active = nil
	r.status.Running = false

	switch {
	case err == nil:
		r.status.LastOK = true
		r.status.LastErr = nil
		r.logger.Info("background save completed", zap.String("kind", r.kind.String()))
	case isKillWithoutError(err, r.killSignal):
		r.status.LastOK = false
		r.status.LastErr = nil
		r.logger.Info("background save killed without error", zap.String("kind", r.kind.String()))
	default:
		r.status.LastOK = false
		r.status.LastErr = fmt.Errorf("%w: %w", errs.ErrChildFailed, err)
		r.logger.Error("background save failed", zap.Error(err), zap.String("kind", r.kind.String()))
	}
}

// isKillWithoutError reports whether err reflects the child having been
// terminated by exactly killSignal. Any other signal (a crash, an OOM
// kill, an operator-sent SIGTERM) is a real failure and falls through to
// errs.ErrChildFailed even though the process also "exited via signal".
func isKillWithoutError(err error, killSignal os.Signal) bool {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}

	ws, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return false
	}

	sig, ok := killSignal.(syscall.Signal)

	return ok && ws.Signal() == sig
}

// Abort sends the registry's configured kill signal to the active child,
// if any, so the parent can cancel a save without it being recorded as a
// failure.
func (r *Registry) Abort() error {
	r.mu.Lock()
	proc := r.active
	sig := r.killSignal
	r.mu.Unlock()

	if proc == nil {
		return nil
	}

	if err := proc.Signal(sig); err != nil {
		return fmt.Errorf("bgsave: signal child: %w", err)
	}

	return nil
}

// Status returns the most recently observed status.
func (r *Registry) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status
}

// Active reports whether a child is currently running.
func (r *Registry) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active != nil
}
