// Package tokenfile exports the mock access token to disk so a bot under
// development can pick it up without hard-coding it.
package tokenfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrEmptyToken indicates that the provided token was blank after trimming.
var ErrEmptyToken = errors.New("tokenfile: empty token")

// Writer saves tokens to one path and skips rewrites of an unchanged token.
type Writer struct {
	path string

	mu        sync.Mutex
	lastToken string
}

// New returns a Writer for path. An empty path disables exporting.
func New(path string) *Writer {
	path = strings.TrimSpace(path)
	if path != "" {
		path = filepath.Clean(path)
	}
	return &Writer{path: path}
}

// Path returns the export location, or "" when exporting is disabled.
func (w *Writer) Path() string {
	return w.path
}

// Save writes token atomically with 0600 permissions, creating missing
// directories as 0700. It is a no-op when exporting is disabled or the token
// has not changed since the last save.
func (w *Writer) Save(token string) error {
	if w == nil || w.path == "" {
		return nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.lastToken == token {
		return nil
	}

	dir := filepath.Dir(w.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("tokenfile: mkdir %s: %w", dir, err)
		}
	}

	tmp := filepath.Join(dir, "."+filepath.Base(w.path)+".tmp")
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmp)
		}
	}()

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("tokenfile: open tmp: %w", err)
	}
	if _, err := f.WriteString(token + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("tokenfile: write: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("tokenfile: fsync file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("tokenfile: close: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("tokenfile: rename: %w", err)
	}
	cleanup = false

	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	w.lastToken = token
	return nil
}
