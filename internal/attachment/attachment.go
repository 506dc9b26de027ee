package attachment

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const ContentType = "text/html"

var ErrInvalidKey = errors.New("invalid attachment key")

// Store keeps re-serialized statement documents on disk under <dir>/<account>/<uuid>.html.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// DownloadName is the file name offered when a statement is downloaded.
func DownloadName(account string) string {
	return fmt.Sprintf("statement_%s.html", account)
}

// Save writes data and returns its key relative to the store root.
func (s *Store) Save(account string, data []byte) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" || strings.ContainsAny(account, `/\.`) {
		return "", fmt.Errorf("%w: account %q", ErrInvalidKey, account)
	}
	key := account + "/" + uuid.NewString() + ".html"
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("commit attachment: %w", err)
	}
	return key, nil
}

// Open returns the stored document; the caller closes it.
func (s *Store) Open(key string) (io.ReadSeekCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Remove deletes a stored document. A missing file is not an error.
func (s *Store) Remove(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, clean), nil
}
