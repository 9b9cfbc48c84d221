package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/apex/log"
)

// LocalStore is a disk-backed media store. Objects are written under a root
// directory and served back by URL under a public base, so a stored name
// like "public/abc.jpg" resolves to "<base>/public/abc.jpg".
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a media store rooted at dir. The directory is
// created if missing.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &LocalStore{
		root:    dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Root returns the directory media is stored under.
func (s *LocalStore) Root() string {
	return s.root
}

// Upload writes the object and returns its public URL. The name must be a
// relative path; anything escaping the root is rejected.
func (s *LocalStore) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := path.Clean("/" + name)[1:]
	if clean == "" || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid media object name %q", name)
	}

	full := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media subdir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media object: %w", err)
	}

	log.Infof("Stored media object %s (%d bytes, %s)", clean, len(data), contentType)
	return s.PublicURL(clean), nil
}

// PublicURL returns the URL an already-stored object is served under.
func (s *LocalStore) PublicURL(name string) string {
	return s.baseURL + "/" + strings.TrimLeft(name, "/")
}
