package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AvatarStore persists avatar images by file name.
type AvatarStore interface {
	Save(ctx context.Context, name string, data []byte) error
}

// DirStore writes avatars into a local directory.
type DirStore struct {
	dir string
}

// NewDirStore returns a DirStore rooted at dir. The directory is created on first save.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// Save writes data to dir/name through a temp file and rename, so readers never see a partial file.
func (s *DirStore) Save(ctx context.Context, name string, data []byte) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return fmt.Errorf("avatar: invalid file name %q", name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("avatar: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("avatar: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("avatar: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("avatar: close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("avatar: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("avatar: rename: %w", err)
	}
	return nil
}
