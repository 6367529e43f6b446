package measure

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/perf-budget/internal/common"
	"github.com/dtnitsch/perf-budget/pkg/artifact"
)

// watch measures once, then again after every burst of file changes under the
// measured paths. It returns when ctx is cancelled or on SIGINT/SIGTERM.
func (r *runner) watch(ctx context.Context, debounce time.Duration) error {
	for _, p := range r.paths {
		if p == artifact.StdinPath {
			return cli.Exit("Error: --watch cannot read from stdin", common.ExitFatal)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return common.Fatal(r.logger, "failed to start watcher", err)
	}
	defer w.Close()

	for _, p := range r.paths {
		if err := addRecursive(w, p); err != nil {
			return common.Fatal(r.logger, "failed to watch path", err)
		}
	}
	ignored := r.ownOutputs()

	r.logOutcome(r.once())
	r.logger.Info("watching for changes", "paths", r.paths, "debounce", debounce.String())

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ignored[absPath(ev.Name)] {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addRecursive(w, ev.Name); err != nil {
						r.logger.Warn("failed to watch new directory", "path", ev.Name, "error", err)
					}
				}
			}
			r.logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", "error", err)

		case <-fire:
			fire = nil
			r.logOutcome(r.once())
		}
	}
}

// logOutcome reports a failed pass without stopping the watch loop.
func (r *runner) logOutcome(err error) {
	if err == nil {
		return
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) && exitErr.ExitCode() == common.ExitOverBudget {
		r.logger.Warn("over budget", "detail", err.Error())
		return
	}
	r.logger.Error("measure pass failed", "error", err)
}

// ownOutputs lists files this command writes, so writing them does not
// trigger another pass.
func (r *runner) ownOutputs() map[string]bool {
	out := map[string]bool{absPath(r.cfg.Dest): true}
	if r.dbPath != "" {
		db := absPath(r.dbPath)
		for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
			out[db+suffix] = true
		}
	}
	return out
}

// addRecursive watches root and, when it is a directory, every directory below it.
func addRecursive(w *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return w.Add(root)
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
