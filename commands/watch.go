package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/botscope/botscope/internal/analyzer"
	"github.com/botscope/botscope/internal/util"
)

// Rapid successive writes (editors, export tools) collapse into one re-run.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch PATH",
	Short: "Re-analyse a bot export folder whenever its inputs change",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	initLogging()

	folder := expandPath(args[0])
	a := analyzer.New(&analyzer.Config{Path: folder})

	// Initial run so the report exists before the first change.
	if err := a.Run(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(folder); err != nil {
		return fmt.Errorf("failed to watch %s: %w", folder, err)
	}
	util.LogInfo("Watching " + folder)

	var timer *time.Timer
	rerun := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			if name != "botContent.yml" && name != "dialog.json" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			util.LogDebugf("Change detected: %s (%s)", name, event.Op)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case rerun <- struct{}{}:
				default:
				}
			})

		case <-rerun:
			util.LogInfo("Inputs changed, re-analysing...")
			if err := a.Run(); err != nil {
				util.LogError("Re-analysis failed: " + err.Error())
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			util.LogError("Watch error: " + err.Error())
		}
	}
}
