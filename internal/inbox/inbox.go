// Package inbox imports statement files dropped into a directory.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"mt4-journal/internal/importer"
	"mt4-journal/internal/interfaces"
	"mt4-journal/internal/logger"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// ScanResult counts the files handled by one scan.
type ScanResult struct {
	Processed int
	Failed    int
}

type Watcher struct {
	dir      string
	importer interfaces.Importer
	mu       sync.Mutex
	now      func() time.Time
}

func New(dir string, imp interfaces.Importer) *Watcher {
	return &Watcher{dir: dir, importer: imp, now: time.Now}
}

// ScanOnce imports every .htm/.html file directly in the inbox, oldest name first,
// moving each into processed/ or failed/. Concurrent scans are serialized.
func (w *Watcher) ScanOnce(ctx context.Context) (ScanResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var res ScanResult
	for _, sub := range []string{"", ProcessedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(w.dir, sub), 0o755); err != nil {
			return res, err
		}
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return res, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isStatement(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	ctx = importer.WithSource(ctx, "inbox")
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		dest := ProcessedDir
		if err := w.importFile(ctx, name); err != nil {
			logger.ErrorWithErr(ctx, "Inbox import failed", err, "file_name", name)
			dest = FailedDir
			res.Failed++
		} else {
			res.Processed++
		}
		if err := w.move(name, dest); err != nil {
			return res, fmt.Errorf("move %s to %s: %w", name, dest, err)
		}
	}
	if len(names) > 0 {
		logger.Info(ctx, "Inbox scan completed", "processed", res.Processed, "failed", res.Failed)
	}
	return res, nil
}

func (w *Watcher) importFile(ctx context.Context, name string) error {
	f, err := os.Open(filepath.Join(w.dir, name))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = w.importer.Import(ctx, name, f)
	return err
}

// move prefixes the name with a timestamp so repeated drops of the same file do not collide.
func (w *Watcher) move(name, sub string) error {
	target := filepath.Join(w.dir, sub, w.now().Format("20060102T150405")+"_"+name)
	return os.Rename(filepath.Join(w.dir, name), target)
}

func isStatement(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".htm", ".html":
		return true
	}
	return false
}
