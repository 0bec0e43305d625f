package config

import (
	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file on writes and invokes onChange with the new
// config. Parse/validation errors are swallowed: the previous config stays in
// effect until the file is valid again. Returns a stop function.
func Watch(path string, onChange func(*Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					cfg, err := LoadConfig(path)
					if err != nil {
						continue
					}
					onChange(cfg)
				}
			case <-watcher.Errors:
				return
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		watcher.Close()
	}, nil
}
