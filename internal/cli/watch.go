package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"RPG-CARDS/internal/ctxlog"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultDebounce = 300 * time.Millisecond

func newWatchCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-merge whenever the template or data file changes",
		Long: `Watch the template and data files and write a fresh card file each time
either one changes. Invalid templates and unparseable data are reported and
the previous output is left in place.

Examples:
  cardgen watch -t card.json -d monsters.tsv -o cards.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := newMergeJob(v)
			if err != nil {
				return err
			}
			if job.DataPath == "-" {
				return errors.New("watch needs a data file, not stdin")
			}
			return job.Watch(cmd.Context(), cmd.OutOrStdout(), v.GetDuration("debounce"))
		},
	}

	addMergeFlags(cmd)
	cmd.Flags().Duration("debounce", defaultDebounce, "delay before re-merging after a change")
	return cmd
}

// Watch merges once, then again after every burst of changes to the template
// or data file, until ctx is cancelled.
func (j *mergeJob) Watch(ctx context.Context, stdout io.Writer, debounce time.Duration) error {
	logger := ctxlog.FromContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, path := range []string{j.TemplatePath, j.DataPath} {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// Editors often replace files instead of writing them, so the
	// directories are watched rather than the files.
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	run := func() {
		if _, err := j.Run(ctx, nil, stdout); err != nil {
			logger.Error("merge failed", "error", err)
		}
	}
	run()
	logger.Info("watching for changes", "template", j.TemplatePath, "data", j.DataPath)

	var timer *time.Timer
	var fire <-chan time.Time
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
			if !targets[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
