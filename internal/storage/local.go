package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/finextract/internal/model"
)

// LocalSource reads PDFs from a directory tree.
type LocalSource struct {
	dir string
}

// NewLocalSource creates a LocalSource rooted at dir.
func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{dir: dir}
}

// List returns every .pdf under the root, sorted by ID. IDs are
// slash-separated paths relative to the root.
func (s *LocalSource) List(ctx context.Context) ([]model.DocumentRef, error) {
	var refs []model.DocumentRef
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !isPDF(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		refs = append(refs, model.DocumentRef{
			ID:           filepath.ToSlash(rel),
			Name:         d.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "storage: list %s", s.dir)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

// Fetch reads one document.
func (s *LocalSource) Fetch(_ context.Context, id string) ([]byte, error) {
	p, err := resolve(s.dir, id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read %s", id)
	}
	return data, nil
}

// LocalSink writes artifacts under a directory.
type LocalSink struct {
	dir string
}

// NewLocalSink creates a LocalSink rooted at dir.
func NewLocalSink(dir string) *LocalSink {
	return &LocalSink{dir: dir}
}

// Put writes body to key, creating parent directories.
func (s *LocalSink) Put(_ context.Context, key string, body []byte, _ string) error {
	p, err := resolve(s.dir, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return eris.Wrapf(err, "storage: create directory for %s", key)
	}
	if err := os.WriteFile(p, body, 0o644); err != nil {
		return eris.Wrapf(err, "storage: write %s", key)
	}
	return nil
}

// Get reads key.
func (s *LocalSink) Get(_ context.Context, key string) ([]byte, error) {
	p, err := resolve(s.dir, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read %s", key)
	}
	return data, nil
}

// List returns the files under prefix. A missing prefix directory is empty.
func (s *LocalSink) List(ctx context.Context, prefix string) ([]Object, error) {
	root, err := resolve(s.dir, strings.TrimSuffix(prefix, "/"))
	if err != nil {
		return nil, err
	}
	var out []Object
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return filepath.SkipDir
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		out = append(out, Object{Key: filepath.ToSlash(rel), Size: info.Size(), LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "storage: list %s", prefix)
	}
	return out, nil
}

// Delete removes key.
func (s *LocalSink) Delete(_ context.Context, key string) error {
	p, err := resolve(s.dir, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return eris.Wrapf(err, "storage: delete %s", key)
	}
	return nil
}

// Link returns a file:// URL; local files do not expire.
func (s *LocalSink) Link(_ context.Context, key string, _ time.Duration) (string, error) {
	p, err := resolve(s.dir, key)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", eris.Wrapf(err, "storage: resolve %s", key)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// resolve joins key onto root and rejects keys that escape it.
func resolve(root, key string) (string, error) {
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", eris.Errorf("storage: key %q escapes the root", key)
		}
	}
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(key, "/"))), nil
}
