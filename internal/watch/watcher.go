// Package watch provides the watch mode: an fsnotify-based directory
// watcher and a daemon that feeds newly created files through the sort
// engine.
package watch

import (
	"fmt"
	"os"
	"sync"
	"time"

	"dateisort/internal/log"

	"github.com/fsnotify/fsnotify"
)

// FileEvent represents a file change detected by the watcher.
type FileEvent struct {
	Path      string
	Op        fsnotify.Op
	Timestamp time.Time
}

// Watcher monitors directories for file changes using fsnotify.
type Watcher struct {
	directories []string
	events      chan FileEvent
	stopChan    chan struct{}
	fsWatcher   *fsnotify.Watcher

	mutex     sync.RWMutex
	running   bool
	closeOnce sync.Once
}

// NewWatcher creates a new directory watcher.
func NewWatcher() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		events:    make(chan FileEvent, 16),
		stopChan:  make(chan struct{}),
		fsWatcher: fsWatcher,
	}, nil
}

// AddDirectory registers a directory with the watcher.
func (w *Watcher) AddDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}

	w.mutex.Lock()
	found := false
	for _, existing := range w.directories {
		if existing == dir {
			found = true
			break
		}
	}
	if !found {
		w.directories = append(w.directories, dir)
	}
	w.mutex.Unlock()

	log.LogWithFields(log.F("directory", dir)).Info("Watching directory")
	return nil
}

// Directories returns the currently watched directories.
func (w *Watcher) Directories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return append([]string(nil), w.directories...)
}

// Events returns the channel delivering file events. The channel is closed
// after Stop, once the event loop has drained.
func (w *Watcher) Events() <-chan FileEvent {
	return w.events
}

// Start begins delivering events. It returns an error when already running.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.mutex.Unlock()

	go func() {
		// Closing events lets consumers ranging over the channel exit
		// once the watcher stops.
		defer w.closeOnce.Do(func() { close(w.events) })

		log.Debug("watcher event loop started")
		for {
			select {
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				select {
				case w.events <- FileEvent{Path: event.Name, Op: event.Op, Timestamp: time.Now()}:
				case <-w.stopChan:
					return
				}
			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				log.Warn("watcher error: %v", err)
			case <-w.stopChan:
				return
			}
		}
	}()

	return nil
}

// Stop halts event delivery and releases the fsnotify watcher.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stopChan)
	w.fsWatcher.Close()
}

// Running reports whether the watcher is active.
func (w *Watcher) Running() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}
