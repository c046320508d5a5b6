package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch reloads the YAML file at path whenever it changes and hands the new
// Config to onChange. A file that fails to load is logged and skipped.
// Runs until ctx is cancelled.
//
// The parent directory is watched rather than the file, so saves that
// replace the file by rename keep being seen.
func Watch(ctx context.Context, path string, log logrus.FieldLogger, onChange func(*Config)) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	target := filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	log.WithField("path", path).Info("Watching config file for changes")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadFile(path)
			if err != nil {
				log.WithError(err).WithField("path", path).Warn("Config reload failed, keeping previous values")
				continue
			}

			log.WithField("path", path).Info("Config reloaded")
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("Config watcher error")
		}
	}
}
