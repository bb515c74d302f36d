package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce collapses the burst of events an editor produces when it
// saves a file.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls a function when the config file changes on disk.
// It watches the parent directory so saves that rename over the file are
// seen too.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	onChange  func()

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	timerMu sync.Mutex
	timer   *time.Timer
}

// NewWatcher watches path. onChange runs on a timer goroutine after changes
// settle for debounce. A zero debounce uses DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, onChange func()) (*Watcher, error) {
	if onChange == nil {
		return nil, pkgerrors.New("onChange cannot be nil")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to resolve %s", path)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to create file watcher")
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		path:      abs,
		debounce:  debounce,
		onChange:  onChange,
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return pkgerrors.Wrapf(err, "failed to watch %s", dir)
	}

	w.wg.Add(1)
	go w.processEvents()

	logrus.WithField("path", w.path).Debug("watching config file")
	return nil
}

// Stop stops watching. Pending debounced calls are cancelled.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()
		w.wg.Wait()

		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timerMu.Unlock()
	})
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logrus.WithError(err).Warn("config watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	// Rename and Create cover atomic saves.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	logrus.WithFields(logrus.Fields{
		"op":   event.Op.String(),
		"path": event.Name,
	}).Trace("config file event")

	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	select {
	case <-w.done:
		return
	default:
	}
	logrus.WithField("path", w.path).Debug("config file changed")
	w.onChange()
}
