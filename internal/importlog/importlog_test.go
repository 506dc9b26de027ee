package importlog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendWritesObserverDayFile(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	// 20:00 UTC is already the next day at UTC+9
	l.now = func() time.Time { return time.Date(2024, 6, 15, 20, 0, 0, 0, time.UTC) }

	if err := l.Append(Entry{Status: StatusOK, Account: "123", Trades: 3, Created: 2, Updated: 1}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append(Entry{Status: StatusFailed, FileName: "bad.htm", Error: "statement metadata missing"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "2024-06-16.txt"))
	if err != nil {
		t.Fatalf("Expected the observer-day file: %v", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Time != "2024-06-16 05:00:00" || entries[0].Created != 2 {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}
	if entries[1].Status != StatusFailed || entries[1].Error == "" {
		t.Errorf("Unexpected second entry: %+v", entries[1])
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	old := filepath.Join(dir, "2024-01-01.txt")
	fresh := filepath.Join(dir, "2024-06-15.txt")
	for _, p := range []string{old, fresh} {
		if err := os.WriteFile(p, []byte(`{"Status":"ok"}`+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	stale := time.Now().AddDate(0, 0, -40)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	if err := l.CompressOlder(30); err != nil {
		t.Fatalf("CompressOlder: %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("Expected the old day file to be replaced")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("Expected the recent day file to be kept")
	}

	f, err := os.Open(old + ".gz")
	if err != nil {
		t.Fatalf("Expected a gzip file: %v", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(zr)
	if string(b) != `{"Status":"ok"}`+"\n" {
		t.Errorf("Unexpected gzip content %q", b)
	}
}

type fullDisk struct{}

func (fullDisk) Write([]byte) (int, error) { return 0, errors.New("no space left on device") }
func (fullDisk) Close() error              { return nil }

func TestCompressKeepsSourceWhenFlushFails(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	old := filepath.Join(dir, "2024-01-01.txt")
	if err := os.WriteFile(old, []byte(`{"Status":"ok"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().AddDate(0, 0, -40)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	orig := createArchive
	createArchive = func(string) (io.WriteCloser, error) { return fullDisk{}, nil }
	defer func() { createArchive = orig }()

	if err := l.CompressOlder(30); err == nil {
		t.Error("Expected the flush error to be reported")
	}
	if _, err := os.Stat(old); err != nil {
		t.Errorf("Expected the day file to survive a failed compress: %v", err)
	}
}
