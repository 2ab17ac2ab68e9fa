package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	domain "portfolio/backend/internal/domain/upload"
)

const tempPattern = ".upload-*"

// Local stores uploads as plain files under a single root directory.
type Local struct {
	root string
}

var _ domain.Store = (*Local)(nil)

// NewLocal creates root if needed and returns a store rooted there.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", abs, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root %s: %w", abs, err)
	}
	return &Local{root: resolved}, nil
}

// Root returns the resolved upload directory.
func (l *Local) Root() string {
	return l.root
}

// Save streams r into a temp file and renames it into place once complete.
func (l *Local) Save(ctx context.Context, name string, r io.Reader, limit int64) (int64, error) {
	dst, err := l.resolve(name)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(l.root, tempPattern)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	written, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: io.LimitReader(r, limit+1)})
	if err != nil {
		return 0, fmt.Errorf("write upload: %w", err)
	}
	if written > limit {
		return 0, domain.ErrFileTooLarge
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("sync upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close upload: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return 0, fmt.Errorf("chmod upload: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return 0, fmt.Errorf("rename upload: %w", err)
	}
	committed = true
	return written, nil
}

// Remove unlinks name after confirming it resolves inside the root.
func (l *Local) Remove(_ context.Context, name string) error {
	target, err := l.resolveExisting(name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// List reports regular files, skipping dotfiles and in-flight temp files.
func (l *Local) List(_ context.Context) ([]domain.Entry, error) {
	dirEntries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}

	entries := make([]domain.Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if strings.HasPrefix(de.Name(), ".") || !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", de.Name(), err)
		}
		entries = append(entries, domain.Entry{
			Name:       de.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	return entries, nil
}

// Open returns the named regular file.
func (l *Local) Open(_ context.Context, name string) (io.ReadSeekCloser, domain.Entry, error) {
	target, err := l.resolveExisting(name)
	if err != nil {
		return nil, domain.Entry{}, err
	}
	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.Entry{}, domain.ErrNotFound
		}
		return nil, domain.Entry{}, fmt.Errorf("open upload: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, domain.Entry{}, fmt.Errorf("stat upload: %w", err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, domain.Entry{}, domain.ErrNotFound
	}
	return f, domain.Entry{Name: name, Size: info.Size(), ModifiedAt: info.ModTime()}, nil
}

// resolve joins name onto the root and checks the result is a direct child.
func (l *Local) resolve(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, ".") {
		return "", domain.ErrInvalidFilename
	}
	target := filepath.Join(l.root, name)
	if !within(l.root, target) || filepath.Dir(target) != l.root {
		return "", domain.ErrInvalidFilename
	}
	return target, nil
}

// resolveExisting additionally follows symlinks so a link pointing outside
// the root is refused.
func (l *Local) resolveExisting(name string) (string, error) {
	target, err := l.resolve(name)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("resolve upload: %w", err)
	}
	if !within(l.root, resolved) {
		return "", domain.ErrInvalidFilename
	}
	return target, nil
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
