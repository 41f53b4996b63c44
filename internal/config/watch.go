package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads path whenever it is written or replaced and passes the new
// config to fn. Reload and watcher errors go to onErr. The directory is
// watched rather than the file so editors that rename on save still trigger
// a reload. Watch blocks until ctx is done; fn and onErr run on the watcher
// goroutine.
func Watch(ctx context.Context, path string, fn func(*Config), onErr func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				if onErr != nil {
					onErr(err)
				}
				continue
			}
			fn(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if onErr != nil {
				onErr(err)
			}
		}
	}
}
