package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore puts attachment bytes somewhere resolvable and returns the public
// URL. Implementations are expected to be fallible per file; callers log and
// skip failures rather than aborting the email.
type FileStore interface {
	Save(filename string, data []byte) (string, error)
}

// LocalFileStore writes attachments under a directory served as static
// files. Good enough for single-node deployments; swap in an object-store
// implementation behind the same interface otherwise.
type LocalFileStore struct {
	Dir     string
	BaseURL string
}

func NewLocalFileStore(dir, baseURL string) (*LocalFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating attachment dir %s: %w", dir, err)
	}
	return &LocalFileStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (fs *LocalFileStore) Save(filename string, data []byte) (string, error) {
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeFilename(filename))
	path := filepath.Join(fs.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing attachment %s: %w", filename, err)
	}
	return fs.BaseURL + "/" + name, nil
}

// sanitizeFilename strips path separators and anything else that could
// escape the attachment directory.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "attachment"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
