package upload

import (
	"context"
	"io"
)

// Store persists upload bytes under a single root. Names passed in are
// already validated; implementations still refuse anything resolving
// outside the root.
type Store interface {
	// Save writes r under name, failing with ErrFileTooLarge past limit bytes.
	// A partially written file is never visible to List.
	Save(ctx context.Context, name string, r io.Reader, limit int64) (int64, error)
	// Remove deletes name, returning ErrNotFound when absent.
	Remove(ctx context.Context, name string) error
	// List returns every regular, fully written file under the root.
	List(ctx context.Context) ([]Entry, error)
	// Open returns a reader over name, or ErrNotFound.
	Open(ctx context.Context, name string) (io.ReadSeekCloser, Entry, error)
}
