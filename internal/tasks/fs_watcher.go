package tasks

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"markme/internal/fsutil"
)

// DefaultSettle is how long a file must stay quiet before it is reported.
const DefaultSettle = 750 * time.Millisecond

// SourceWatcher reports images that appear in a source folder. Repeated
// create/write events for one path are collapsed until the file has been
// quiet for the settle delay, so half-copied files are not picked up.
type SourceWatcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	dir     string
	settle  time.Duration
	log     *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSourceWatcher creates a watcher for dir. A non-positive settle uses DefaultSettle.
func NewSourceWatcher(dir string, settle time.Duration, logger *slog.Logger) (*SourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceWatcher{
		watcher: watcher,
		Events:  make(chan string, 100),
		dir:     dir,
		settle:  settle,
		log:     logger,
		pending: make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}, nil
}

// Start begins monitoring the folder.
func (sw *SourceWatcher) Start() error {
	if err := sw.watcher.Add(sw.dir); err != nil {
		return err
	}
	sw.log.Info("watching directory", "dir", sw.dir)

	sw.wg.Add(1)
	go sw.processEvents()
	return nil
}

// Stop stops the watcher and closes Events.
func (sw *SourceWatcher) Stop() error {
	sw.mu.Lock()
	select {
	case <-sw.done:
		sw.mu.Unlock()
		return nil
	default:
	}
	close(sw.done)
	for path, t := range sw.pending {
		t.Stop()
		delete(sw.pending, path)
	}
	sw.mu.Unlock()

	err := sw.watcher.Close()
	sw.wg.Wait()
	close(sw.Events)
	return err
}

func (sw *SourceWatcher) processEvents() {
	defer sw.wg.Done()
	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !fsutil.IsImageFile(event.Name) || isHidden(event.Name) {
				continue
			}
			sw.schedule(event.Name)

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.log.Error("filesystem watcher error", "error", err)

		case <-sw.done:
			return
		}
	}
}

func (sw *SourceWatcher) schedule(path string) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if t, ok := sw.pending[path]; ok {
		t.Reset(sw.settle)
		return
	}
	sw.pending[path] = time.AfterFunc(sw.settle, func() { sw.fire(path) })
}

func (sw *SourceWatcher) fire(path string) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	select {
	case <-sw.done:
		return
	default:
	}
	delete(sw.pending, path)

	select {
	case sw.Events <- path:
	default:
		sw.log.Warn("event buffer full, dropping event", "path", path)
	}
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return len(base) > 0 && base[0] == '.'
}
