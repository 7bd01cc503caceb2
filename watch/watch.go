// Package watch re-reads a document source whenever it changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/dsl"
)

// Handler receives every successfully parsed version of the source.
type Handler func(doc *document.Document, title string)

// Watcher watches one source file. Editors often replace files instead of
// writing them in place, so the parent directory is watched and events are
// filtered by path.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	handle  Handler
	log     *zap.Logger
}

// New creates a watcher for path. Run must be called to start delivering.
func New(path string, handle Handler, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, watcher: watcher, handle: handle, log: log}, nil
}

// Run loads the source once, then reloads it on every write until ctx is
// done. A source that fails to parse is logged and skipped; the handler keeps
// the last good version. Run returns the error of the initial load.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.reload(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if abs, _ := filepath.Abs(event.Name); abs != w.path {
				continue
			}
			if err := w.reload(); err != nil {
				w.log.Warn("Source reload failed, keeping previous version", zap.String("path", w.path), zap.Error(err))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() error {
	doc, title, err := dsl.LoadFile(w.path)
	if err != nil {
		return err
	}
	w.log.Debug("Source loaded", zap.String("path", w.path), zap.Int("blocks", doc.Len()))
	w.handle(doc, title)
	return nil
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.watcher.Close() }
