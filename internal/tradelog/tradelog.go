// Package tradelog is the append-only daily journal of bracket attempts.
package tradelog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	dayLayout  = "2006-01-02"
	ext        = ".jsonl"
)

var (
	mu  sync.Mutex
	dir atomic.Value
)

// Entry is one bracket attempt. Outcome is executed or failed.
type Entry struct {
	Time       string   `json:"time"`
	Symbol     string   `json:"symbol"`
	Side       string   `json:"side"`
	Amount     float64  `json:"amount"`
	EntryPrice float64  `json:"entry_price"`
	TakeProfit float64  `json:"take_profit"`
	StopLoss   float64  `json:"stop_loss"`
	Outcome    string   `json:"outcome"`
	BracketID  string   `json:"bracket_id,omitempty"`
	OrderIDs   []string `json:"order_ids,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

// SetDir overrides the journal directory. TRADER_LOG_DIR still wins when set.
func SetDir(d string) {
	dir.Store(d)
}

// Dir returns the journal directory.
func Dir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	if v, _ := dir.Load().(string); v != "" {
		return v
	}
	return "logs"
}

// DailyPath is the journal file for the UTC day containing t.
func DailyPath(t time.Time) string {
	return filepath.Join(Dir(), t.UTC().Format(dayLayout)+ext)
}

func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UTC()
	if e.Time == "" {
		e.Time = now.Format(timeLayout)
	}
	p := DailyPath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// ReadDay returns the entries journaled on the UTC day containing t. A missing
// file yields no entries; malformed lines are skipped.
func ReadDay(t time.Time) ([]Entry, error) {
	f, err := os.Open(DailyPath(t))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// CompressOlder gzips journal files last modified more than retentionDays ago.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(Dir(), func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ext {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		// already compressed by an interrupted run
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			_ = os.Remove(gz)
			return nil
		}
		_ = os.Remove(p)
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
