package commands

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/buildergen/driver"
	"github.com/teranos/buildergen/logger"
	"github.com/teranos/buildergen/source"
	"github.com/teranos/buildergen/watch"
)

var watchFlags runFlags

// WatchCmd reconciles builders whenever sources change
var WatchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Run merge on every source change",
	Long: `Run merge once, then again whenever a .go file under the given paths
changes. Changes are debounced (watch.debounce_ms) and the builder files
merge writes itself do not trigger another run. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := request{command: "watch", mode: driver.ModeMerge, args: args, flags: watchFlags}
		if err := req.resolve(cmd); err != nil {
			return err
		}
		ctx := cmd.Context()

		first, err := execute(ctx, req)
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), first.report)

		w, err := watch.New(watchRoots(first.scope), time.Duration(cfg.Watch.DebounceMS)*time.Millisecond)
		if err != nil {
			return err
		}
		defer w.Close()
		w.MarkOwnWrites(first.registry.Written())

		pterm.Info.Println("watching for changes (Ctrl-C to stop)")
		return w.Run(ctx, func(ctx context.Context, changed []string) error {
			logger.Debugw("rerunning merge", logger.FieldCount, len(changed))
			out, err := execute(ctx, req)
			if out != nil {
				w.MarkOwnWrites(out.registry.Written())
				printReport(cmd.OutOrStdout(), out.report)
			}
			return err
		})
	},
}

func init() {
	addRunFlags(WatchCmd, &watchFlags, false)
}

// watchRoots turns the loaded patterns back into directories.
func watchRoots(scope source.Scope) []string {
	var dirs []string
	for _, p := range scope.Patterns {
		dir := strings.TrimSuffix(p, "/...")
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		if wd, err := os.Getwd(); err == nil {
			dirs = append(dirs, wd)
		}
	}
	return dirs
}
