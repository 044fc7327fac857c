package worker

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type PIDStore interface {
	// Load returns ok=false when no record exists. An unparsable record loads as pid 0.
	Load() (pid int, ok bool, err error)
	Save(pid int) error
	Delete() error
}

type FilePIDStore struct {
	path string
}

func NewFilePIDStore(path string) *FilePIDStore {
	return &FilePIDStore{path: path}
}

func (s *FilePIDStore) Load() (int, bool, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, true, nil
	}
	return pid, true, nil
}

func (s *FilePIDStore) Save(pid int) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(strconv.Itoa(pid)), 0o644)
}

func (s *FilePIDStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
