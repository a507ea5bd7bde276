package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rcliao/notedesk/internal/logging"
)

// TempFilePrefix is the prefix used for temporary atomic write files.
const TempFilePrefix = "notedesk-tmp-"

// FileSlot stores the snapshot as a JSON file, replaced atomically on save.
type FileSlot struct {
	path   string
	logger *zap.Logger
}

// NewFileSlot returns a slot backed by the file at path. The parent
// directory is created if needed.
func NewFileSlot(path string, logger *zap.Logger) (*FileSlot, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, unavailable(err, "create snapshot dir")
	}
	return &FileSlot{path: path, logger: logging.OrNop(logger)}, nil
}

func (f *FileSlot) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, unavailable(err, "read snapshot")
	}
	return data, nil
}

func (f *FileSlot) Save(ctx context.Context, data []byte) error {
	if err := writeFileAtomic(f.path, data, 0o644); err != nil {
		return unavailable(err, "write snapshot")
	}
	return nil
}

func (f *FileSlot) Path() string { return f.path }

func (f *FileSlot) Backend() string { return "file" }

// UpdatedAt reports the snapshot file's modification time.
func (f *FileSlot) UpdatedAt(ctx context.Context) (time.Time, error) {
	info, err := os.Stat(f.path)
	if os.IsNotExist(err) {
		return time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return time.Time{}, unavailable(err, "stat snapshot")
	}
	return info.ModTime(), nil
}

func (f *FileSlot) Close() error { return nil }

// Watch reports writes to the snapshot file made by other processes until
// ctx is done. Events are coalesced over a short window. The channel is
// closed on return.
func (f *FileSlot) Watch(ctx context.Context) (<-chan time.Time, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, unavailable(err, "create watcher")
	}
	// Watch the directory: atomic saves replace the file inode.
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		_ = w.Close()
		return nil, unavailable(err, "watch snapshot dir")
	}

	out := make(chan time.Time, 1)
	go func() {
		defer close(out)
		defer w.Close()

		const settle = 50 * time.Millisecond
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(f.path) {
					continue
				}
				if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename) {
					f.logger.Debug("snapshot changed", zap.String(logging.FieldPath, ev.Name))
					fire = time.After(settle)
				}
			case <-fire:
				fire = nil
				select {
				case out <- time.Now():
				default:
				}
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				f.logger.Error("fsnotify error", zap.Error(werr))
			}
		}
	}()
	return out, nil
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over filename.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)

	tmpFile, err := os.CreateTemp(dir, TempFilePrefix+"*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return errors.Wrap(err, "failed to write to temp file")
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return errors.Wrap(err, "failed to sync temp file")
	}
	if err := tmpFile.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}
	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return errors.Wrap(err, "failed to chmod temp file")
	}
	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return errors.Wrapf(err, "failed to rename temp file to %s", filename)
	}
	return nil
}
