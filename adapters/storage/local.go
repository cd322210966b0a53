// Package storage provides the local-filesystem ThumbnailStore used by the
// worker pipeline to write thumbnails, create origin-preserving symlinks,
// and garbage-collect them during retain.
package storage

import (
	"context"
	"errors"
	"os"

	apperrors "github.com/Skryldev/photo-archive/errors"
)

// Local implements core.ThumbnailStore against the local filesystem.
type Local struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// NewLocal creates a Local thumbnail store.
func NewLocal() *Local {
	return &Local{dirPerm: 0o755, filePerm: 0o644}
}

func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, apperrors.Wrap(apperrors.CategoryPipeline, "storage.exists", err)
}

func (l *Local) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, l.filePerm)
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryPipeline, "storage.write.open", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return apperrors.Wrap(apperrors.CategoryPipeline, "storage.write", err)
	}
	return nil
}

func (l *Local) EnsureDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// mkdir -p semantics: concurrent creation by two workers is tolerated.
	if err := os.MkdirAll(dir, l.dirPerm); err != nil {
		return apperrors.Wrap(apperrors.CategoryPipeline, "storage.ensure_dir", err)
	}
	return nil
}

func (l *Local) Symlink(ctx context.Context, target, linkPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Symlink(target, linkPath); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return apperrors.Wrap(apperrors.CategoryPipeline, "storage.symlink", err)
	}
	return nil
}

func (l *Local) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperrors.Wrap(apperrors.CategoryPipeline, "storage.remove", err)
	}
	return nil
}

// RemoveIfEmptyDir removes dir only if it contains no entries. A non-empty
// or already-absent directory is not an error.
func (l *Local) RemoveIfEmptyDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return apperrors.Wrap(apperrors.CategoryPipeline, "storage.remove_if_empty.read", err)
	}
	if len(entries) > 0 {
		return nil
	}
	if err := os.Remove(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperrors.Wrap(apperrors.CategoryPipeline, "storage.remove_if_empty", err)
	}
	return nil
}
