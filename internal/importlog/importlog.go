package importlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mt4-journal/internal/mt4time"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Entry is one import attempt.
type Entry struct {
	Time, Status, FileName, Source string
	Account                        string `json:"account,omitempty"`
	StatementID                    uint64 `json:"statement_id,omitempty"`
	Trades, Created, Updated       int
	Warnings                       int    `json:"warnings,omitempty"`
	Error                          string `json:"error,omitempty"`
}

// Log appends JSON lines to one file per observer-zone day.
type Log struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

func New(dir string) *Log {
	return &Log{dir: dir, now: time.Now}
}

func (l *Log) dailyFilepath(t time.Time) string {
	d := t.In(mt4time.ObserverZone).Format("2006-01-02")
	return filepath.Join(l.dir, d+".txt")
}

func (l *Log) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now().In(mt4time.ObserverZone)
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
	b, _ := json.Marshal(e)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips day files last written before the retention window.
func (l *Log) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(l.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := d.Info()
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		// already compressed by an earlier run
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}
		return compress(p, gz)
	})
}

var createArchive = func(name string) (io.WriteCloser, error) {
	return os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

// compress writes src to dst as gzip and removes src only once dst is complete.
func compress(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return nil
	}
	defer in.Close()

	out, err := createArchive(dst)
	if err != nil {
		return nil
	}
	err = gzipTo(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("compress %s: %w", filepath.Base(src), err)
	}
	in.Close()
	return os.Remove(src)
}

func gzipTo(w io.Writer, r io.Reader) error {
	gw := gzip.NewWriter(w)
	if _, err := io.Copy(gw, r); err != nil {
		_ = gw.Close()
		return err
	}
	return gw.Close()
}
