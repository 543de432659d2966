package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/timecapsule/internal/filex"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
)

// LocalStore keeps files on disk under root/prefix.
type LocalStore struct {
	root   string
	prefix string
	log    logging.Logger
}

// NewLocalStore creates root/prefix if needed. An empty root means the
// working directory.
func NewLocalStore(root, prefix string, log logging.Logger) (*LocalStore, error) {
	dir, err := filex.EnsureSubDir(root, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &LocalStore{
		root:   filepath.Dir(dir),
		prefix: filepath.Base(dir),
		log:    log.With("module", "filestore", "backend", "local"),
	}, nil
}

func (s *LocalStore) Write(ctx context.Context, r io.Reader, suggestedName string) (string, error) {
	sp := storedPath(s.prefix, newFileName(suggestedName))
	full, err := filex.SafeJoin(s.root, sp)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.log.Debug(ctx, "file stored", "path", sp, "bytes", written)
	return sp, nil
}

func (s *LocalStore) Open(ctx context.Context, sp string) (io.ReadCloser, error) {
	full, err := filex.SafeJoin(s.root, sp)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

func (s *LocalStore) Delete(ctx context.Context, sp string) error {
	full, err := filex.SafeJoin(s.root, sp)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotExist
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
