// Package artifact stores rendered route images under unique names so
// concurrent requests never share an output file.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const tmpPrefix = ".tmp-"

// Artifact is one saved file.
type Artifact struct {
	Name string // file name inside the store directory
	Path string // filesystem path
	URL  string // public URL path
}

// Store writes artifacts into Dir and exposes them below URLPrefix.
type Store struct {
	Dir       string
	URLPrefix string
	Ext       string
	MaxAge    time.Duration // files older than this are pruned; 0 keeps everything

	log *zap.Logger
	now func() time.Time
}

// NewStore creates the directory if needed.
func NewStore(dir, urlPrefix string, maxAge time.Duration, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		Dir:       dir,
		URLPrefix: strings.TrimSuffix(urlPrefix, "/"),
		Ext:       ".svg",
		MaxAge:    maxAge,
		log:       log,
		now:       time.Now,
	}, nil
}

// Save writes a new artifact through write. The file only becomes visible
// under its final name once write has succeeded.
func (s *Store) Save(write func(io.Writer) error) (Artifact, error) {
	name := uuid.NewString() + s.Ext
	final := filepath.Join(s.Dir, name)

	f, err := os.CreateTemp(s.Dir, tmpPrefix+"*")
	if err != nil {
		return Artifact{}, fmt.Errorf("create artifact: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op after a successful rename

	if err := write(f); err != nil {
		f.Close()
		return Artifact{}, fmt.Errorf("write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return Artifact{}, fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("chmod artifact: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return Artifact{}, fmt.Errorf("rename artifact: %w", err)
	}

	return Artifact{Name: name, Path: final, URL: s.URL(name)}, nil
}

// URL returns the public URL of a stored file name.
func (s *Store) URL(name string) string {
	return s.URLPrefix + "/" + path.Base(name)
}

// owns reports whether name is a file Save writes: a uuid-named artifact or
// a leftover temp file.
func (s *Store) owns(name string) bool {
	if strings.HasPrefix(name, tmpPrefix) {
		return true
	}
	stem, ok := strings.CutSuffix(name, s.Ext)
	if !ok {
		return false
	}
	_, err := uuid.Parse(stem)
	return err == nil && len(stem) == 36
}

// Prune removes artifacts older than MaxAge and returns how many it removed.
func (s *Store) Prune() (int, error) {
	if s.MaxAge <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, fmt.Errorf("read artifact dir: %w", err)
	}

	cutoff := s.now().Add(-s.MaxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !s.owns(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed concurrently
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.log.Info("pruned artifacts", zap.Int("removed", removed), zap.Duration("max_age", s.MaxAge))
	}
	return removed, errors.Join(errs...)
}
