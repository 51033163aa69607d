package words

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jonesrussell/trendwatch/internal/logger"
)

// debounceDelay absorbs editor write bursts (truncate + write + chmod)
const debounceDelay = 500 * time.Millisecond

// Watcher reloads the word file when it changes on disk. It watches the
// parent directory because editors typically replace the file by rename,
// which drops a watch on the file itself.
type Watcher struct {
	path     string
	onChange func()
	log      logger.Logger

	fsw  *fsnotify.Watcher
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher creates a watcher for path; onChange runs debounced after
// writes, creates or renames of the file.
func NewWatcher(path string, onChange func(), log logger.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		log:      log,
		fsw:      fsw,
		stop:     make(chan struct{}),
	}, nil
}

// Start begins watching. The loop runs until Stop or ctx cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.wg.Add(1)
	go w.loop(ctx)

	w.log.Info("word file watcher started", logger.String("file", w.path))
	return nil
}

// Stop ends the watch loop and releases the underlying watcher
func (w *Watcher) Stop() error {
	close(w.stop)
	w.wg.Wait()
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	var (
		debounce *time.Timer
		fire     <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceDelay)
				fire = debounce.C
			} else {
				debounce.Reset(debounceDelay)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("word file watcher error", logger.Error(err))
		case <-fire:
			debounce = nil
			fire = nil
			w.log.Info("word file changed, reloading", logger.String("file", w.path))
			w.onChange()
		}
	}
}
