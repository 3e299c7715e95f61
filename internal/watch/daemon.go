package watch

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"dateisort/internal/config"
	"dateisort/internal/log"
	"dateisort/internal/sorter"
	"dateisort/pkg/types"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Daemon watches configured directories and sorts newly created files into
// the target tree through the sort engine.
type Daemon struct {
	settings *config.Settings
	engine   *sorter.Engine
	watcher  *Watcher
	ignore   []glob.Glob
	target   string
	op       types.Operation
	settle   time.Duration

	mutex     sync.RWMutex
	processed int
	running   bool

	// Callback invoked after each handled file; used by hosts and tests.
	callback func(path string, err error)
}

// NewDaemon builds a daemon from the application settings and a sorter
// configuration.
func NewDaemon(settings *config.Settings, sorterCfg *config.SorterConfig) (*Daemon, error) {
	target := settings.WatchMode.Target
	if target == "" {
		target = settings.Directories.Target
	}
	if target == "" {
		return nil, fmt.Errorf("no target directory configured for watch mode")
	}

	ignore, err := settings.IgnoreGlobs()
	if err != nil {
		return nil, err
	}

	watcher, err := NewWatcher()
	if err != nil {
		return nil, err
	}

	op := types.Copy
	if settings.WatchMode.Move {
		op = types.Move
	}

	settle := time.Duration(settings.WatchMode.Interval) * time.Second
	if settle <= 0 {
		settle = 2 * time.Second
	}

	return &Daemon{
		settings: settings,
		engine:   sorter.New(sorterCfg),
		watcher:  watcher,
		ignore:   ignore,
		target:   target,
		op:       op,
		settle:   settle,
	}, nil
}

// SetCallback installs a hook invoked after every handled file.
func (d *Daemon) SetCallback(fn func(path string, err error)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = fn
}

// Processed returns the number of files sorted since Start.
func (d *Daemon) Processed() int {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.processed
}

// Running reports whether the daemon is active.
func (d *Daemon) Running() bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.running
}

// Start registers the watch directories and begins processing events.
func (d *Daemon) Start() error {
	d.mutex.Lock()
	if d.running {
		d.mutex.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.mutex.Unlock()

	dirs := d.settings.Directories.Watch
	if len(dirs) == 0 && d.settings.Directories.Source != "" {
		dirs = []string{d.settings.Directories.Source}
	}
	if len(dirs) == 0 {
		return fmt.Errorf("no directories to watch")
	}

	for _, dir := range dirs {
		if err := d.watcher.AddDirectory(dir); err != nil {
			return fmt.Errorf("error adding watch directory %s: %w", dir, err)
		}
	}

	if err := d.watcher.Start(); err != nil {
		return err
	}

	d.mutex.Lock()
	d.running = true
	d.mutex.Unlock()

	go d.processEvents()
	return nil
}

// Stop halts the daemon.
func (d *Daemon) Stop() {
	d.mutex.Lock()
	if !d.running {
		d.mutex.Unlock()
		return
	}
	d.running = false
	d.mutex.Unlock()

	d.watcher.Stop()
}

func (d *Daemon) processEvents() {
	for event := range d.watcher.Events() {
		if event.Op&fsnotify.Create != fsnotify.Create {
			continue
		}
		if d.ignored(event.Path) {
			log.Debug("ignoring %s", event.Path)
			continue
		}

		// Give the writer time to finish before touching the file.
		time.Sleep(d.settle)

		d.handle(event.Path)
	}
}

func (d *Daemon) handle(path string) {
	moved, err := d.engine.SortOne(path, d.target, d.op)
	if err != nil {
		log.Warn("watch: could not sort %s: %v", filepath.Base(path), err)
	} else if moved {
		d.mutex.Lock()
		d.processed++
		d.mutex.Unlock()
	}

	d.mutex.RLock()
	callback := d.callback
	d.mutex.RUnlock()
	if callback != nil {
		callback(path, err)
	}
}

// ignored reports whether the file name matches an ignore pattern or looks
// like an unfinished download or editor temp file.
func (d *Daemon) ignored(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return true
	}
	for _, g := range d.ignore {
		if g.Match(name) {
			return true
		}
	}
	return false
}
