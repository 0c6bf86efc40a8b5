package config

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/steveyegge/flm/internal/flmerrors"
)

// WatchConstants watches configPath for writes and invokes onChange with
// the freshly reloaded compiler_conditional_constants list whenever the
// file changes, until ctx is cancelled. The compiler itself stays
// stateless; this only keeps whatever cached constants list a caller
// holds in sync with the file on disk.
func WatchConstants(ctx context.Context, configPath string, onChange func([]string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return flmerrors.Wrap(flmerrors.Other, err, "create config watcher")
	}
	if err := watcher.Add(configPath); err != nil {
		_ = watcher.Close()
		return flmerrors.Wrap(flmerrors.PathNotFound, err, "watch config file %s", configPath)
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := Initialize(configPath); err != nil {
					continue
				}
				cfg, err := Load()
				if err != nil {
					continue
				}
				onChange(cfg.CompilerConditionalConstants)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}
