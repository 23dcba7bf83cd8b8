package files

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange after changes to accepted files in dir have been
// quiet for the given period. Events for paths in ignore, such as the file
// onChange itself writes, never trigger a run. It runs until ctx is cancelled.
func (d *Discovery) Watch(ctx context.Context, dir string, quiet time.Duration, logger *slog.Logger, onChange func(context.Context), ignore ...string) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	skip := newPathSet(ignore)

	if err := watcher.Add(dir); err != nil {
		return err
	}
	logger.InfoContext(ctx, "watching for input changes",
		slog.String("directory", dir),
		slog.Duration("quiet_period", quiet))

	timer := time.NewTimer(quiet)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !d.Accepts(event.Name) || skip.has(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.DebugContext(ctx, "input changed",
				slog.String("file", event.Name),
				slog.String("op", event.Op.String()))
			timer.Reset(quiet)

		case <-timer.C:
			onChange(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.ErrorContext(ctx, "watcher error", slog.String("error", err.Error()))
		}
	}
}
