package file

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch calls onChange whenever the data file is replaced or written with
// content this process did not write itself. It blocks until ctx is done.
//
// The parent directory is watched rather than the file so that atomic
// renames, by this process or an editor, are observed.
func (s *Store) Watch(ctx context.Context, logger *zap.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return err
	}
	logger.Info("watching data file", zap.String("path", s.path))

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if s.changedExternally() {
				logger.Info("data file changed on disk", zap.String("op", ev.Op.String()))
				onChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

// changedExternally reports whether the file differs from the last write of
// this process. The reference checksum is advanced so one edit fires once.
func (s *Store) changedExternally() bool {
	data, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return false
	}
	sum := sha256.Sum256(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if sum == s.lastWrite {
		return false
	}
	s.lastWrite = sum
	return true
}
