package changelog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce collapses the burst of events produced by one atomic write.
const watchDebounce = 100 * time.Millisecond

// Watch calls onChange whenever a document in the store directory is
// created, written, renamed or removed. It blocks until ctx is done or
// onChange returns an error. The directory is created if missing.
func (s *Store) Watch(ctx context.Context, onChange func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating changelog directory: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watching changelog directory: %w", err)
	}
	s.opts.Logger.Debug("watching changelog directory", zap.String("path", s.dir))

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if !isDocumentEvent(event) {
				continue
			}
			s.opts.Logger.Debug("changelog document changed",
				zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(watchDebounce)
		case <-timer.C:
			if err := onChange(); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func isDocumentEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if filepath.Ext(name) != documentExt || strings.HasPrefix(name, ".") {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
