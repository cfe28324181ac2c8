package catalog

import (
	"context"
	"os"
	"time"
)

// stamp is what the watcher remembers about a file between polls.
type stamp struct {
	exists  bool
	modTime time.Time
	size    int64
}

func stat(path string) stamp {
	fi, err := os.Stat(path)
	if err != nil {
		return stamp{}
	}
	return stamp{exists: true, modTime: fi.ModTime(), size: fi.Size()}
}

// Watcher polls the catalog files and reports the ones that were created,
// modified or removed since the previous poll. A removed overlay counts as a
// change since the merged catalog differs without it.
type Watcher struct {
	paths    []string
	interval time.Duration
	onChange func(changed []string)
	seen     map[string]stamp
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewWatcher(paths []string, interval time.Duration, onChange func(changed []string)) *Watcher {
	w := &Watcher{
		paths:    paths,
		interval: interval,
		onChange: onChange,
		seen:     make(map[string]stamp, len(paths)),
	}
	w.poll()
	return w
}

// Start polls until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if changed := w.poll(); len(changed) > 0 && w.onChange != nil {
					w.onChange(changed)
				}
			}
		}
	}()
}

// Stop cancels polling and waits for the goroutine to exit.
func (w *Watcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (w *Watcher) poll() []string {
	var changed []string
	for _, p := range w.paths {
		now := stat(p)
		if prev, ok := w.seen[p]; ok && prev != now {
			changed = append(changed, p)
		}
		w.seen[p] = now
	}
	return changed
}
