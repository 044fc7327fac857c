package worker

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
)

// ProcessControl probes and terminates processes by PID.
type ProcessControl interface {
	// Probe reports whether pid is alive. Probe errors count as not alive.
	Probe(ctx context.Context, pid int) bool
	Terminate(ctx context.Context, pid int) error
}

// OSProcessControl shells out to ps/kill, or tasklist/taskkill on Windows.
type OSProcessControl struct {
	windows bool
}

func NewOSProcessControl() OSProcessControl {
	return OSProcessControl{windows: runtime.GOOS == "windows"}
}

func (c OSProcessControl) Probe(ctx context.Context, pid int) bool {
	if pid <= 0 {
		return false
	}
	id := strconv.Itoa(pid)
	if c.windows {
		out, err := exec.CommandContext(ctx, "tasklist", "/FI", "PID eq "+id).Output()
		if err != nil {
			return false
		}
		return bytes.Contains(out, []byte(" "+id+" "))
	}
	return exec.CommandContext(ctx, "ps", "-p", id).Run() == nil
}

func (c OSProcessControl) Terminate(ctx context.Context, pid int) error {
	if pid <= 0 {
		return fmt.Errorf("refusing to signal pid %d", pid)
	}
	id := strconv.Itoa(pid)
	if c.windows {
		return exec.CommandContext(ctx, "taskkill", "/F", "/PID", id).Run()
	}
	return exec.CommandContext(ctx, "kill", id).Run()
}
