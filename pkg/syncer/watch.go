package syncer

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/openagents-control/oac/pkg/logger"
)

// DefaultDebounce is how long Watch waits for a burst of changes to settle
const DefaultDebounce = 300 * time.Millisecond

// SyncFunc receives the outcome of every sync Watch triggers
type SyncFunc func(report *Report, err error)

// Watch re-runs Run whenever an agent file under dir is created, changed,
// renamed or removed. Changes are debounced so a burst of writes produces a
// single run. Watch blocks until ctx is cancelled; it does not run an
// initial sync.
func (s *Syncer) Watch(ctx context.Context, dir string, debounce time.Duration, onSync SyncFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	if err := addTree(ctx, watcher, dir); err != nil {
		return err
	}

	log := logger.G(ctx).WithField("dir", dir)
	log.Info("watching agent files")

	var (
		timer   *time.Timer
		trigger <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				// new subdirectories are watched too
				if err := addTree(ctx, watcher, event.Name); err != nil {
					log.WithError(err).WithField("path", event.Name).Debug("failed to watch new path")
				}
			}
			if !s.relevant(dir, event) {
				continue
			}
			log.WithField("file", event.Name).WithField("operation", event.Op.String()).Debug("agent file changed")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			trigger = timer.C

		case <-trigger:
			trigger = nil
			report, err := s.Run(ctx, dir)
			if onSync != nil {
				onSync(report, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("error watching agent files")
		}
	}
}

func (s *Syncer) relevant(dir string, event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	rel, err := filepath.Rel(dir, event.Name)
	if err != nil {
		return false
	}
	ok, err := doublestar.Match(s.loader.Pattern(), filepath.ToSlash(rel))
	return err == nil && ok
}

func addTree(ctx context.Context, watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		logger.G(ctx).WithField("directory", path).Debug("adding directory to watcher")
		return errors.Wrapf(watcher.Add(path), "failed to watch %s", path)
	})
}
