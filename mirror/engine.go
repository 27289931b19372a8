package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"autocopy/models"
)

var (
	// ErrNoDestination is returned when a cycle is requested without a destination folder.
	ErrNoDestination = errors.New("no destination folder configured")

	// ErrSameFolder is recorded for a source root that is the destination itself.
	ErrSameFolder = errors.New("source folder is the destination folder")
)

// bufferSize is the size of the streaming copy buffer.
const bufferSize = 256 * 1024

// Engine copies source trees into a destination tree
type Engine struct {
	fs       afero.Fs
	failFast bool
	now      func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithFs makes the engine operate on fs instead of the host filesystem
func WithFs(fs afero.Fs) Option {
	return func(e *Engine) {
		e.fs = fs
	}
}

// WithFailFast makes the first I/O error abort the whole cycle instead of
// being recorded and skipped.
func WithFailFast(failFast bool) Option {
	return func(e *Engine) {
		e.failFast = failFast
	}
}

// WithClock sets the time source used to stamp results
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new copy engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		fs:  afero.NewOsFs(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Copy performs one mirror cycle. Every file under each source root is
// copied to the same relative path under destination. Roots are processed in
// order, so when two roots contain the same relative path the later root's
// file is the one left in the destination.
//
// Unless the engine is fail-fast, per-file failures are collected in the
// result and the walk continues. The returned error is non-nil only when the
// cycle could not run to completion.
func (e *Engine) Copy(ctx context.Context, sources []string, destination string) (*models.CopyResult, error) {
	result := models.NewCopyResult(e.now())
	logger := log.WithField("cycle", result.ID)

	defer func() {
		result.FinishedAt = e.now()
	}()

	if strings.TrimSpace(destination) == "" {
		return result, ErrNoDestination
	}

	if err := e.fs.MkdirAll(destination, 0755); err != nil {
		return result, fmt.Errorf("create destination %s: %w", destination, err)
	}

	logger.WithFields(log.Fields{
		"sources":     len(sources),
		"destination": destination,
	}).Info("Starting mirror cycle")

	for _, root := range sources {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if absPath(root) == absPath(destination) {
			if err := e.fail(logger, result, root, ErrSameFolder); err != nil {
				return result, err
			}
			continue
		}

		if err := e.copyTree(ctx, logger, root, destination, result); err != nil {
			return result, err
		}
	}

	logger.WithFields(log.Fields{
		"files":    result.FilesCopied,
		"bytes":    result.BytesCopied,
		"failures": len(result.Failures),
	}).Info("Finished mirror cycle")
	return result, nil
}

// copyTree walks a single source root.
func (e *Engine) copyTree(ctx context.Context, logger *log.Entry, root, destination string, result *models.CopyResult) error {
	return afero.Walk(e.fs, e.walkRoot(root), func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			return e.fail(logger, result, path, err)
		}

		if info.IsDir() {
			if filepath.Clean(path) != filepath.Clean(root) && isWithin(path, destination) {
				logger.WithField("path", path).Debug("Skipping destination folder inside source")
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := e.fs.Stat(path)
			if err != nil {
				return e.fail(logger, result, path, err)
			}
			if target.IsDir() {
				logger.WithField("path", path).Debug("Not descending into symlinked folder")
				return nil
			}
			info = target
		}

		if !info.Mode().IsRegular() {
			logger.WithField("path", path).Debug("Skipping special file")
			return nil
		}

		target, err := TargetPath(root, path, destination)
		if err != nil {
			return e.fail(logger, result, path, err)
		}

		if err := e.copyFile(path, target, info); err != nil {
			return e.fail(logger, result, path, err)
		}

		logger.WithFields(log.Fields{
			"source": path,
			"target": target,
		}).Debug("Copied file")
		result.AddCopied(info.Size())
		return nil
	})
}

// walkRoot returns the path to walk for root. A root that is a symlink to a
// folder gets a trailing separator so the walk starts at the folder it points
// to instead of at the link.
func (e *Engine) walkRoot(root string) string {
	lstater, ok := e.fs.(afero.Lstater)
	if !ok {
		return root
	}
	info, _, err := lstater.LstatIfPossible(root)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return root
	}
	if target, err := e.fs.Stat(root); err != nil || !target.IsDir() {
		return root
	}
	return strings.TrimRight(root, string(filepath.Separator)) + string(filepath.Separator)
}

// fail records a failure. It returns the error only when the engine is
// fail-fast, which stops the walk.
func (e *Engine) fail(logger *log.Entry, result *models.CopyResult, path string, err error) error {
	result.AddFailure(path, err)
	logger.WithError(err).WithField("path", path).Warn("Failed to copy")
	if e.failFast {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	return nil
}

// copyFile copies a single file's contents, permissions and modification time.
func (e *Engine) copyFile(source, target string, info os.FileInfo) error {
	if err := e.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create folder for %s: %w", target, err)
	}

	// The owner-write bit is kept so the next cycle can overwrite the copy.
	perm := info.Mode().Perm() | 0200
	if err := e.writeFile(source, target, perm); err != nil {
		return err
	}

	// Metadata is set once the target is closed, closing can touch the mtime.
	if err := e.fs.Chmod(target, perm); err != nil {
		return fmt.Errorf("set permissions on %s: %w", target, err)
	}

	modTime := info.ModTime()
	if err := e.fs.Chtimes(target, modTime, modTime); err != nil {
		return fmt.Errorf("set timestamps on %s: %w", target, err)
	}
	return nil
}

// writeFile streams source into target and closes both.
func (e *Engine) writeFile(source, target string, perm os.FileMode) error {
	in, err := e.fs.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := e.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	buf := make([]byte, bufferSize)
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		out.Close()
		return fmt.Errorf("copy content to %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", target, err)
	}
	return nil
}

// TargetPath maps a file found under root to its location under destination.
// A root that is itself a file maps to destination/<basename>.
func TargetPath(root, path, destination string) (string, error) {
	if filepath.Clean(root) == filepath.Clean(path) {
		return filepath.Join(destination, filepath.Base(path)), nil
	}

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is not inside %s", path, root)
	}
	return filepath.Join(destination, relPath), nil
}

// isWithin reports whether path is dir or below it.
func isWithin(path, dir string) bool {
	path, dir = absPath(path), absPath(dir)
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
