package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the risk section when the config file changes. Other
// sections need a restart.
type Watcher struct {
	path string
	log  *zap.SugaredLogger

	mu       sync.RWMutex
	current  Risk
	onChange []func(Risk)
}

func NewWatcher(path string, initial Risk, log *zap.SugaredLogger) *Watcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Watcher{path: path, current: initial, log: log}
}

// Risk returns the latest risk section.
func (w *Watcher) Risk() Risk {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after every successful reload.
func (w *Watcher) OnChange(fn func(Risk)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Watch starts the background goroutine. The directory is watched rather
// than the file so editors that replace the file are picked up.
func (w *Watcher) Watch() (stop func(), err error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", dir, err)
	}
	target := filepath.Clean(w.path)

	done := make(chan struct{})
	var once sync.Once
	go func() {
		defer fw.Close()
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := w.Reload(); err != nil {
						w.log.Warnw("config reload failed, keeping previous risk settings", "path", w.path, "err", err)
					}
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.log.Warnw("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the file.
func (w *Watcher) Reload() (Risk, error) {
	cfg, err := Load(w.path)
	if err != nil {
		return Risk{}, err
	}
	w.mu.Lock()
	w.current = cfg.Risk
	callbacks := make([]func(Risk), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.Unlock()

	w.log.Infow("risk settings reloaded",
		"alert_threshold", cfg.Risk.AlertThreshold,
		"action_threshold", cfg.Risk.ActionThreshold,
	)
	for _, fn := range callbacks {
		fn(cfg.Risk)
	}
	return cfg.Risk, nil
}
