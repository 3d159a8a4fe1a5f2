package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"dubber/internal/textutil"
)

// Storage prefixes for the two kinds of stored media.
const (
	OriginalPrefix = "original_videos"
	DubbedPrefix   = "dubbed_videos"
)

// ErrInvalidName is returned for names that escape the store root.
var ErrInvalidName = errors.New("invalid media name")

// Store is a directory-backed media store.
type Store struct {
	root string
}

// New opens the store rooted at dir, creating the prefix directories.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("media store root is empty")
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}
	for _, prefix := range []string{OriginalPrefix, DubbedPrefix} {
		if err := os.MkdirAll(filepath.Join(root, prefix), 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", prefix, err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the absolute store directory.
func (s *Store) Root() string {
	return s.root
}

// SaveOriginal stores an uploaded video under original_videos/.
func (s *Store) SaveOriginal(ctx context.Context, filename string, r io.Reader) (string, error) {
	base := textutil.SanitizeFileName(path.Base(filepath.ToSlash(strings.TrimSpace(filename))))
	if base == "" {
		base = "video.mp4"
	}
	return s.Save(ctx, path.Join(OriginalPrefix, base), r)
}

// Save writes r under name and returns the stored name. When name is taken a
// short unique suffix is inserted before the extension.
func (s *Store) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := s.resolve(cleaned)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	for attempt := 0; errors.Is(err, fs.ErrExist) && attempt < 8; attempt++ {
		cleaned = withSuffix(cleaned, uuid.NewString()[:8])
		target = s.resolve(cleaned)
		file, err = os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("create %s: %w", cleaned, err)
	}

	if _, err := io.Copy(file, readerWithContext(ctx, r)); err != nil {
		_ = file.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("write %s: %w", cleaned, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("close %s: %w", cleaned, err)
	}
	return cleaned, nil
}

// Open returns a reader for a stored file.
func (s *Store) Open(name string) (io.ReadCloser, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	return os.Open(s.resolve(cleaned))
}

// Exists reports whether name refers to a stored regular file.
func (s *Store) Exists(name string) bool {
	cleaned, err := cleanName(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(s.resolve(cleaned))
	return err == nil && info.Mode().IsRegular()
}

// Delete removes a stored file. Missing files and empty names are ignored.
func (s *Store) Delete(name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	cleaned, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(s.resolve(cleaned)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", cleaned, err)
	}
	return nil
}

// Path resolves a stored name to its absolute location.
func (s *Store) Path(name string) (string, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return s.resolve(cleaned), nil
}

func (s *Store) resolve(cleaned string) string {
	return filepath.Join(s.root, filepath.FromSlash(cleaned))
}

func cleanName(name string) (string, error) {
	trimmed := strings.TrimSpace(filepath.ToSlash(name))
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	}
	cleaned := path.Clean(strings.TrimPrefix(trimmed, "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return cleaned, nil
}

func withSuffix(name, suffix string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return stem + "_" + suffix + ext
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
