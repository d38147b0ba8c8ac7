package transfer

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"filedrop/internal/domain/session"
)

// Store persists uploaded files under a per-session directory:
// <baseDir>/<sessionId>/<unixnano>_<sanitized name>. The timestamp
// prefix keeps two uploads of the same filename from colliding.
type Store struct {
	baseDir     string
	maxFileSize int64
}

func NewStore(baseDir string, maxFileSize int64) *Store {
	return &Store{baseDir: baseDir, maxFileSize: maxFileSize}
}

// Save streams one multipart file to disk and returns its record. On
// any failure the partial file is removed; nothing half-written is
// ever left behind.
func (s *Store) Save(sessionID string, fh *multipart.FileHeader) (session.File, error) {
	if fh.Size > s.maxFileSize {
		return session.File{}, ErrFileTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return session.File{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dir := filepath.Join(s.baseDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return session.File{}, fmt.Errorf("failed to create session directory: %w", err)
	}

	now := time.Now()
	name := fmt.Sprintf("%d_%s", now.UnixNano(), sanitizeName(fh.Filename))
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return session.File{}, fmt.Errorf("failed to create file: %w", err)
	}

	// Copy one byte past the limit so an oversized stream whose declared
	// size lied is still caught.
	written, err := io.Copy(dst, io.LimitReader(src, s.maxFileSize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return session.File{}, fmt.Errorf("failed to write file: %w", err)
	}
	if written > s.maxFileSize {
		_ = os.Remove(path)
		return session.File{}, ErrFileTooLarge
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return session.File{
		ID:          uuid.New().String(),
		Name:        fh.Filename,
		StoragePath: path,
		Size:        written,
		Type:        contentType,
		UploadedAt:  now,
	}, nil
}

// DeleteNamespace removes every persisted file of a session. Idempotent.
func (s *Store) DeleteNamespace(sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return os.RemoveAll(filepath.Join(s.baseDir, sessionID))
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 120 {
		name = name[len(name)-120:]
	}
	if name == "" || name == "." {
		return "file"
	}
	return name
}
