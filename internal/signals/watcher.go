// Package signals lets another process cancel a running job through the
// filesystem. Jobs started from the same working directory share a signal
// directory under the user's data directory; creating its cancel file
// cancels the job context.
package signals

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// CancelFile is the signal file name inside the signals directory.
const CancelFile = "cancel"

// pollInterval is used when fsnotify is unavailable.
const pollInterval = 500 * time.Millisecond

// Dir returns the signals directory for jobs started in workdir.
// It lives under $XDG_DATA_HOME/sot/signals so the working directory is
// never written to.
func Dir(workdir string) string {
	if abs, err := filepath.Abs(workdir); err == nil {
		workdir = abs
	}
	sum := sha256.Sum256([]byte(filepath.Clean(workdir)))
	return filepath.Join(dataDir(), "signals", hex.EncodeToString(sum[:8]))
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "sot")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sot")
	}
	return filepath.Join(home, ".local", "share", "sot")
}

// Watcher cancels a context when the cancel signal file appears.
type Watcher struct {
	dir    string
	cancel context.CancelFunc
	logger *zap.Logger

	fired atomic.Bool

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// Watch returns a context derived from ctx that is cancelled when the
// cancel file appears in dir. A signal left over from an earlier job is
// cleared first. Close must be called to release the watcher.
func Watch(ctx context.Context, dir string, logger *zap.Logger) (context.Context, *Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, err
	}
	if err := os.Remove(filepath.Join(dir, CancelFile)); err != nil && !os.IsNotExist(err) {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		dir:    dir,
		cancel: cancel,
		logger: logger,
		done:   make(chan struct{}),
	}

	fw, err := fsnotify.NewWatcher()
	if err == nil {
		if err = fw.Add(dir); err != nil {
			fw.Close()
		}
	}
	w.wg.Add(1)
	if err != nil {
		logger.Debug("fsnotify unavailable, polling for cancel signal", zap.Error(err))
		go w.poll()
	} else {
		w.watcher = fw
		go w.watch()
	}
	return ctx, w, nil
}

func (w *Watcher) watch() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == CancelFile && event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.fire()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debug("signal watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) poll() {
	defer w.wg.Done()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if _, err := os.Stat(filepath.Join(w.dir, CancelFile)); err == nil {
				w.fire()
			}
		}
	}
}

func (w *Watcher) fire() {
	if w.fired.CompareAndSwap(false, true) {
		w.logger.Info("cancel signal received")
		w.cancel()
	}
}

// Cancelled reports whether the cancel signal was observed.
func (w *Watcher) Cancelled() bool {
	return w.fired.Load()
}

// Close stops watching, cancels the derived context and removes any
// consumed signal file. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		if w.watcher != nil {
			err = w.watcher.Close()
		}
		w.wg.Wait()
		w.cancel()
		if w.fired.Load() {
			os.Remove(filepath.Join(w.dir, CancelFile))
		}
	})
	return err
}

// Send writes the cancel file into dir.
func Send(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, CancelFile)
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}
