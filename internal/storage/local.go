package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore keeps uploaded documents on disk under a single directory.
// Stored names follow {sessionCode}_{userID}_{originalName}, which also
// makes the uploader recoverable from the filesystem alone.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes the upload and returns the stored name, which is what gets
// persisted in pdfs.file_path.
func (s *LocalStore) Save(sessionCode string, userID uint, filename string, data []byte) (string, error) {
	name := StoredName(sessionCode, userID, filename)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload failed: %w", err)
	}
	return name, nil
}

// Path resolves a stored name to an absolute-ish path inside the store.
// The base-name clamp keeps persisted values from escaping the directory.
func (s *LocalStore) Path(storedName string) string {
	return filepath.Join(s.dir, filepath.Base(storedName))
}

func (s *LocalStore) Exists(storedName string) bool {
	_, err := os.Stat(s.Path(storedName))
	return err == nil
}

func StoredName(sessionCode string, userID uint, filename string) string {
	return fmt.Sprintf("%s_%d_%s", sessionCode, userID, filepath.Base(filename))
}
