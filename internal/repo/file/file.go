package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

var _ repo.StateRepo = (*Repo)(nil)

// Repo stores the snapshot as one JSON document.
// Saves go to a temp file in the same directory which is then renamed over
// the previous document, so a crash mid-write leaves the old state readable.
type Repo struct {
	fs   afero.Fs
	path string
}

func New(path string) *Repo {
	return NewWithFs(afero.NewOsFs(), path)
}

func NewWithFs(fs afero.Fs, path string) *Repo {
	return &Repo{fs: fs, path: path}
}

func (r *Repo) Path() string { return r.path }

func (r *Repo) Load(ctx context.Context) (domain.Snapshot, error) {
	b, err := afero.ReadFile(r.fs, r.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewSnapshot(), nil
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read state %s: %w", r.path, err)
	}
	if len(b) == 0 {
		return domain.NewSnapshot(), nil
	}
	var s domain.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode state %s: %w", r.path, err)
	}
	return s.Clone(), nil
}

func (r *Repo) Save(ctx context.Context, s domain.Snapshot) error {
	b, err := json.MarshalIndent(s.Clone(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := afero.TempFile(r.fs, dir, "."+filepath.Base(r.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		r.fs.Remove(name)
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		r.fs.Remove(name)
		return fmt.Errorf("sync temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		r.fs.Remove(name)
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := r.fs.Rename(name, r.path); err != nil {
		r.fs.Remove(name)
		return fmt.Errorf("replace state %s: %w", r.path, err)
	}
	return nil
}

func (r *Repo) Close() error { return nil }
