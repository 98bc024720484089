package kernel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/conda-bootstrap/internal/logger"
)

// Controller requests a restart of the host notebook kernel. The request is
// one-way: implementations never wait for or confirm the restart, because
// the calling process is itself about to be torn down by it.
type Controller interface {
	RequestRestart(ctx context.Context) error
}

// errKernelProcessNotFound indicates no process matched the kernel executable name.
var errKernelProcessNotFound = errors.New("kernel process not found")

// ProcessController signals the host kernel process so the host's own
// supervision logic relaunches the interpreter. The relaunch goes through
// the shim once the rebinder has installed it.
type ProcessController struct {
	// ProcessName is the executable name of the kernel process to signal.
	ProcessName string
	// Signal is the signal delivered to the kernel process.
	Signal os.Signal
}

// NewProcessController creates a controller that terminates processes with
// the provided executable name using SIGTERM.
func NewProcessController(processName string) *ProcessController {
	return &ProcessController{
		ProcessName: processName,
		Signal:      syscall.SIGTERM,
	}
}

// RequestRestart finds every process with the configured executable name,
// excluding the current one, and delivers the restart signal. It returns an
// error when no such process exists; signal delivery itself is
// fire-and-forget.
func (c *ProcessController) RequestRestart(ctx context.Context) error {
	processList, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	thisProcessID := os.Getpid()
	signaled := 0

	for _, process := range processList {
		processID := process.Pid()
		if processID == thisProcessID {
			continue
		}

		if process.Executable() != c.ProcessName {
			continue
		}

		runningProcess, err := os.FindProcess(processID)
		if err != nil {
			return fmt.Errorf("find process %d: %w", processID, err)
		}

		if err = runningProcess.Signal(c.Signal); err != nil {
			logger.WarnKV(ctx, "Could not signal kernel process",
				"pid", processID, "error", err)
			continue
		}

		logger.InfoKV(ctx, "Requested kernel restart",
			"pid", processID, "process", c.ProcessName)

		signaled++
	}

	if signaled == 0 {
		return fmt.Errorf("%s: %w", c.ProcessName, errKernelProcessNotFound)
	}

	return nil
}

// NopController ignores restart requests. It is used when the restart is
// managed outside this process and in tests.
type NopController struct {
	// Requests counts how many restarts were asked for.
	Requests int
}

// RequestRestart records the request and does nothing.
func (c *NopController) RequestRestart(_ context.Context) error {
	c.Requests++
	return nil
}
