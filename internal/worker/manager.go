// Package worker owns the lifecycle of the external classification process.
package worker

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"lorentzian-trading-bot/internal/logger"
)

type State string

const (
	StateAbsent   State = "absent"
	StateRecorded State = "recorded"
	StateLive     State = "live"
	StateStale    State = "stale"
)

// Handle describes the worker as seen through its PID record.
type Handle struct {
	State           State  `json:"state"`
	PID             int    `json:"pid,omitempty"`
	ResultStorePath string `json:"result_store_path"`
	LogPath         string `json:"log_path"`
}

type StartResult struct {
	Status          string `json:"status"`
	PID             int    `json:"pid"`
	ResultStorePath string `json:"result_store_path"`
	LogPath         string `json:"log_path"`
}

type StopResult struct {
	Status string `json:"status"`
	PID    int    `json:"pid,omitempty"`
}

type StatusResult struct {
	Status string `json:"status"`
	PID    int    `json:"pid,omitempty"`
}

const (
	StatusAlreadyRunning = "already_running"
	StatusStarted        = "started"
	StatusNotRunning     = "not_running"
	StatusStopped        = "stopped"
	StatusRunning        = "running"
)

// StartError reports a worker that could not be launched or died on launch.
type StartError struct {
	Command string
	Err     error
}

func (e *StartError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to start worker %q", e.Command)
	}
	return fmt.Sprintf("failed to start worker %q: %v", e.Command, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

type Config struct {
	Python          string
	Script          string
	Args            []string // placeholders: {symbol} {interval} {limit} {result_store}
	DataDir         string
	PIDFile         string
	ResultStorePath string
	LogPath         string
}

type Manager struct {
	cfg      Config
	launcher Launcher
	control  ProcessControl
	pids     PIDStore

	mu sync.Mutex
}

type Option func(*Manager)

func WithLauncher(l Launcher) Option             { return func(m *Manager) { m.launcher = l } }
func WithProcessControl(c ProcessControl) Option { return func(m *Manager) { m.control = c } }
func WithPIDStore(s PIDStore) Option             { return func(m *Manager) { m.pids = s } }

func NewManager(cfg Config, opts ...Option) *Manager {
	m := &Manager{cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}
	if m.launcher == nil {
		m.launcher = ExecLauncher{}
	}
	if m.control == nil {
		m.control = NewOSProcessControl()
	}
	if m.pids == nil {
		m.pids = NewFilePIDStore(cfg.PIDFile)
	}
	return m
}

func (m *Manager) ResultStorePath() string { return m.cfg.ResultStorePath }
func (m *Manager) LogPath() string         { return m.cfg.LogPath }

// Start launches the worker unless a live one is already recorded.
func (m *Manager) Start(ctx context.Context, symbol, interval string, limit int) (StartResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h := m.inspect(ctx); h.State == StateLive {
		logger.Info(ctx, "Worker already running", "pid", h.PID)
		return StartResult{
			Status:          StatusAlreadyRunning,
			PID:             h.PID,
			ResultStorePath: m.cfg.ResultStorePath,
			LogPath:         m.cfg.LogPath,
		}, nil
	}

	if m.cfg.DataDir != "" {
		if err := os.MkdirAll(m.cfg.DataDir, 0o755); err != nil {
			return StartResult{}, fmt.Errorf("create worker data dir: %w", err)
		}
	}

	cmd := Command{
		Path:    m.cfg.Python,
		Args:    append([]string{m.cfg.Script}, m.expandArgs(symbol, interval, limit)...),
		LogPath: m.cfg.LogPath,
	}
	proc, err := m.launcher.Launch(ctx, cmd)
	if err != nil {
		return StartResult{}, &StartError{Command: cmd.String(), Err: err}
	}
	if !proc.Running() {
		return StartResult{}, &StartError{Command: cmd.String(), Err: fmt.Errorf("process %d exited immediately", proc.PID())}
	}

	if err := m.pids.Save(proc.PID()); err != nil {
		if terr := m.control.Terminate(ctx, proc.PID()); terr != nil {
			logger.Warn(ctx, "Failed to terminate unrecorded worker", "pid", proc.PID(), "error", terr)
		}
		return StartResult{}, fmt.Errorf("record worker pid: %w", err)
	}

	logger.Info(ctx, "Worker started",
		"pid", proc.PID(),
		"symbol", symbol,
		"interval", interval,
		"limit", limit,
		"result_store", m.cfg.ResultStorePath,
	)
	return StartResult{
		Status:          StatusStarted,
		PID:             proc.PID(),
		ResultStorePath: m.cfg.ResultStorePath,
		LogPath:         m.cfg.LogPath,
	}, nil
}

// Stop terminates the recorded worker. The record is removed even if the
// termination command fails. A non-positive pid is never signalled.
func (m *Manager) Stop(ctx context.Context) (StopResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.record(ctx)
	if h.State == StateAbsent {
		return StopResult{Status: StatusNotRunning}, nil
	}

	if h.PID > 0 {
		if err := m.control.Terminate(ctx, h.PID); err != nil {
			logger.Warn(ctx, "Worker termination failed", "pid", h.PID, "error", err)
		}
	} else {
		logger.Warn(ctx, "Discarding invalid worker pid record", "pid", h.PID)
	}
	if err := m.pids.Delete(); err != nil {
		return StopResult{}, fmt.Errorf("remove worker pid record: %w", err)
	}

	logger.Info(ctx, "Worker stopped", "pid", h.PID)
	return StopResult{Status: StatusStopped, PID: h.PID}, nil
}

func (m *Manager) Status(ctx context.Context) StatusResult {
	h := m.Inspect(ctx)
	if h.State == StateLive {
		return StatusResult{Status: StatusRunning, PID: h.PID}
	}
	return StatusResult{Status: StatusStopped}
}

func (m *Manager) IsRunning(ctx context.Context) bool {
	return m.Inspect(ctx).State == StateLive
}

// Inspect probes the recorded PID. A record that fails the probe is deleted
// and reported as stale.
func (m *Manager) Inspect(ctx context.Context) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inspect(ctx)
}

// Record reports the PID record without probing the process.
func (m *Manager) Record(ctx context.Context) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record(ctx)
}

func (m *Manager) record(ctx context.Context) Handle {
	h := Handle{State: StateAbsent, ResultStorePath: m.cfg.ResultStorePath, LogPath: m.cfg.LogPath}
	pid, ok, err := m.pids.Load()
	if err != nil {
		logger.Warn(ctx, "Failed to read worker pid record", "error", err)
		return h
	}
	if !ok {
		return h
	}
	h.State = StateRecorded
	h.PID = pid
	return h
}

func (m *Manager) inspect(ctx context.Context) Handle {
	h := m.record(ctx)
	if h.State != StateRecorded {
		return h
	}
	if h.PID > 0 && m.control.Probe(ctx, h.PID) {
		h.State = StateLive
		return h
	}

	h.State = StateStale
	if err := m.pids.Delete(); err != nil {
		logger.Warn(ctx, "Failed to remove stale worker pid record", "pid", h.PID, "error", err)
	} else {
		logger.Info(ctx, "Removed stale worker pid record", "pid", h.PID)
	}
	return h
}

func (m *Manager) expandArgs(symbol, interval string, limit int) []string {
	r := strings.NewReplacer(
		"{symbol}", symbol,
		"{interval}", interval,
		"{limit}", strconv.Itoa(limit),
		"{result_store}", m.cfg.ResultStorePath,
	)
	out := make([]string, len(m.cfg.Args))
	for i, a := range m.cfg.Args {
		out[i] = r.Replace(a)
	}
	return out
}
