// Package filestore keeps the bytes of uploaded media. Callers only see a
// slash separated stored path such as "uploads/<uuid>.jpg".
package filestore

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/timecapsule/internal/filex"
)

var ErrNotExist = errors.New("stored file does not exist")

type Store interface {
	// Write stores r under a fresh unique name that keeps the lower-cased
	// extension of suggestedName and returns the stored path.
	Write(ctx context.Context, r io.Reader, suggestedName string) (string, error)
	Open(ctx context.Context, storedPath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storedPath string) error
}

// newFileName is a seam for deterministic names in tests.
var newFileName = func(suggestedName string) string {
	return uuid.NewString() + filex.Ext(suggestedName)
}

func storedPath(prefix, name string) string {
	return path.Join(prefix, name)
}
