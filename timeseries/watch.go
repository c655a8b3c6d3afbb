package timeseries

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/logger"
)

// Watch reloads the store whenever a CSV file in its directory changes.
// Bursts of events are debounced into one reload. Watch returns once the
// watch is established; it stops when ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	if s.dir == "" {
		return errors.New("store has no directory to watch")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return errors.Wrapf(err, "failed to watch %s", s.dir)
	}

	go s.watchLoop(ctx, w)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	defer w.Close()

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(s.debounce, func() {
			if err := s.Reload(); err != nil {
				s.log.Errorw("Time-series reload failed, keeping previous tables",
					logger.FieldDir, s.dir,
					logger.FieldError, err)
				return
			}
			s.log.Infow("Time-series tables reloaded",
				logger.FieldDir, s.dir,
				logger.FieldRooms, len(s.Rooms()))
		})
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".csv") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.log.Debugw("Time-series change detected",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			schedule()

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.Warnw("Time-series watcher error", logger.FieldError, err)
		}
	}
}
