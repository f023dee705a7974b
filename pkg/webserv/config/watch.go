package config

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports when the loaded configuration file changes on disk.
// The running configuration is immutable for the process lifetime, so a
// change is only logged as a restart notice, never applied.
type Watcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}
}

// Watch starts observing the configuration file. Close stops it.
func Watch(path string, log *zap.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(path); err != nil {
		fs.Close()
		return nil, err
	}

	w := &Watcher{fs: fs, done: make(chan struct{})}
	go func() {
		for {
			select {
			case ev, ok := <-fs.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					log.Warn("configuration changed on disk; restart to apply",
						zap.String("path", path),
						zap.String("op", ev.Op.String()))
				}
			case err, ok := <-fs.Errors:
				if !ok {
					return
				}
				log.Warn("configuration watcher error", zap.Error(err))
			case <-w.done:
				return
			}
		}
	}()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}
