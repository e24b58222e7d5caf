package main

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/lcserver/internal/logging"
)

// watchCompileCommands signals reload whenever compileCommandsPath changes
// on disk, the way an editor's build system regenerates it on a CMake
// reconfigure. The actual db.LoadJSON call happens on the transport's own
// goroutine (see transportServer.serve): compiledb.DB is a plain value
// type owned by the server process, not internally synchronized, so the
// watcher only signals — it never touches db itself.
//
// fsnotify watches the containing directory rather than the file itself:
// most build systems replace compile_commands.json with a rename rather
// than an in-place write, which drops a direct file watch.
func watchCompileCommands(ctx context.Context, compileCommandsPath string, reload chan<- struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warnf(ctx, "lcserver: starting compile_commands watcher: %v", err)
		return
	}

	dir := filepath.Dir(compileCommandsPath)
	if err := watcher.Add(dir); err != nil {
		logging.Warnf(ctx, "lcserver: watching %s: %v", dir, err)
		watcher.Close()
		return
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(compileCommandsPath) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				select {
				case reload <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warnf(ctx, "lcserver: compile_commands watcher: %v", err)
			}
		}
	}()
}
