// Package runlog appends finished runs to daily JSONL files and gzips the
// files that fall out of the retention window.
package runlog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sector-insights/internal/interfaces"
	"sector-insights/internal/types"
)

// Files are dated in Jakarta time, the exchange's trading day.
var wib = time.FixedZone("WIB", 7*3600)

// Entry is one line of the run log
type Entry struct {
	Time     string       `json:"time"`
	RunID    string       `json:"run_id"`
	Symbol   string       `json:"symbol"`
	Duration int64        `json:"duration_ms"`
	Failed   int          `json:"failed_panels"`
	Panels   []PanelEntry `json:"panels"`
	Err      string       `json:"error,omitempty"`
}

// PanelEntry records one panel without its rendered output
type PanelEntry struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Duration int64  `json:"duration_ms"`
	Err      string `json:"error,omitempty"`
}

// Log writes entries under dir
type Log struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

var _ interfaces.RunRecorder = (*Log)(nil)

// New creates a run log rooted at dir
func New(dir string) *Log {
	if dir == "" {
		dir = "logs"
	}
	return &Log{dir: dir, now: time.Now}
}

// Dir returns the directory the log writes to
func (l *Log) Dir() string {
	return l.dir
}

func (l *Log) dailyFilepath(t time.Time) string {
	return filepath.Join(l.dir, t.In(wib).Format("2006-01-02")+".jsonl")
}

// Record appends report to today's file
func (l *Log) Record(ctx context.Context, report *types.RunReport) error {
	e := Entry{
		RunID:    report.RunID,
		Symbol:   report.Symbol,
		Duration: report.EndedAt.Sub(report.StartedAt).Milliseconds(),
		Failed:   report.FailedPanels(),
		Err:      report.Err,
	}
	for _, p := range report.Panels {
		status := "ok"
		if p.Failed() {
			status = "failed"
		}
		e.Panels = append(e.Panels, PanelEntry{Name: p.Name, Status: status, Duration: p.Duration, Err: p.Err})
	}
	return l.Append(e)
}

// Append writes e as one JSON line, stamping its time
func (l *Log) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().In(wib)
	e.Time = now.Format("2006-01-02 15:04:05")
	p := l.dailyFilepath(now)
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

// CompressOlder gzips log files last modified more than retentionDays ago
// and removes the originals. It returns the number of files compressed.
func (l *Log) CompressOlder(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().AddDate(0, 0, -retentionDays)
	compressed := 0
	err := filepath.WalkDir(l.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".jsonl") {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			return os.Remove(p)
		}
		if err := gzipFile(p, gz); err != nil {
			return fmt.Errorf("failed to compress %s: %w", p, err)
		}
		compressed++
		return os.Remove(p)
	})
	return compressed, err
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
		gw.Close()
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
