package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// File describes one staged binary payload awaiting asynchronous
// processing. The path is unique to the owning job; no two jobs ever
// reference the same staged file.
type File struct {
	Path         string `json:"path"`
	OriginalName string `json:"original_name"`
	MIMEType     string `json:"mime_type"`
	Size         int64  `json:"size_bytes"`
}

// Input is one payload to stage: a byte stream plus its declared metadata.
type Input struct {
	Reader   io.Reader
	Name     string
	MIMEType string
}

// Store stages binary payloads to a local directory so request handlers
// can hand them off to background jobs without holding buffers in memory.
type Store struct {
	dir    string
	logger *slog.Logger

	ensureOnce sync.Once
	ensureErr  error
}

// Option configures the store.
type Option func(*Store)

// WithLogger sets the logger for cleanup and sweep outcomes.
// If not set, a noop logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a staging store rooted at dir. The directory is created
// lazily on first use.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the staging directory path.
func (s *Store) Dir() string {
	return s.dir
}

// ensureDir creates the staging directory once per process lifetime.
// Subsequent calls are free.
func (s *Store) ensureDir() error {
	s.ensureOnce.Do(func() {
		s.ensureErr = os.MkdirAll(s.dir, 0o755)
	})
	if s.ensureErr != nil {
		return errors.Join(ErrDirUnavailable, s.ensureErr)
	}
	return nil
}

// Stage writes every input under a collision-resistant name and returns
// the staged descriptors in input order. If any single write fails, the
// whole operation aborts and already-staged files are removed: a job is
// never enqueued against a partially staged set.
func (s *Store) Stage(ctx context.Context, inputs ...Input) ([]File, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	files := make([]File, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			s.Cleanup(ctx, files)
			return nil, err
		}

		f, err := s.stageOne(in)
		if err != nil {
			s.Cleanup(ctx, files)
			return nil, errors.Join(ErrStageFailed, err)
		}
		files = append(files, f)
	}

	return files, nil
}

func (s *Store) stageOne(in Input) (File, error) {
	name := uuid.NewString() + "_" + sanitizeName(in.Name)
	path := filepath.Join(s.dir, name)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return File{}, fmt.Errorf("create %s: %w", path, err)
	}

	size, err := io.Copy(dst, in.Reader)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return File{}, fmt.Errorf("write %s: %w", path, err)
	}

	return File{
		Path:         path,
		OriginalName: in.Name,
		MIMEType:     in.MIMEType,
		Size:         size,
	}, nil
}

// Cleanup deletes every listed file. Each deletion is attempted
// independently; an already-deleted file is not an error, and failures
// are logged, never returned, since cleanup runs on failure paths too.
func (s *Store) Cleanup(ctx context.Context, files []File) {
	for _, f := range files {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			s.logger.WarnContext(ctx, "failed to remove staged file",
				slog.String("path", f.Path),
				slog.Any("error", err),
			)
		}
	}
}

// SweepOlderThan removes staged files whose modification time is older
// than age. It exists to reclaim files orphaned by a crash between
// staging and job completion. Returns the number of files removed.
func (s *Store) SweepOlderThan(ctx context.Context, age time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Join(ErrSweepFailed, err)
	}

	cutoff := time.Now().Add(-age)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				s.logger.WarnContext(ctx, "failed to sweep staged file",
					slog.String("path", path),
					slog.Any("error", err),
				)
			}
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.InfoContext(ctx, "swept orphaned staged files",
			slog.Int("removed", removed),
		)
	}
	return removed, nil
}

// unsafeNameChars matches characters stripped from original filenames
// before they become part of an on-disk staging name.
var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "..", "")
	name = unsafeNameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." {
		return "file"
	}
	return name
}
