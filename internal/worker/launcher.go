package worker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type Command struct {
	Path    string
	Args    []string
	LogPath string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}

type Process interface {
	PID() int
	// Running reports whether the process has not exited yet.
	Running() bool
}

type Launcher interface {
	Launch(ctx context.Context, cmd Command) (Process, error)
}

// ExecLauncher spawns the worker with os/exec. The child is detached from ctx
// so it outlives the command that started it.
type ExecLauncher struct{}

func (ExecLauncher) Launch(_ context.Context, c Command) (Process, error) {
	cmd := exec.Command(c.Path, c.Args...)

	var logFile *os.File
	if c.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open worker log: %w", err)
		}
		logFile = f
		cmd.Stdout = f
		cmd.Stderr = f
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, err
	}

	p := &execProcess{pid: cmd.Process.Pid, exited: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		if logFile != nil {
			_ = logFile.Close()
		}
		close(p.exited)
	}()
	return p, nil
}

type execProcess struct {
	pid    int
	exited chan struct{}
}

func (p *execProcess) PID() int { return p.pid }

func (p *execProcess) Running() bool {
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}
