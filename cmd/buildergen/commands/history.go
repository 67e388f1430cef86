package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/buildergen/errors"
	"github.com/teranos/buildergen/history"
)

var historyLimit int

// HistoryCmd lists recent runs
var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	Long:  "List recent generate, merge, check and watch runs recorded in the sqlite history (history.path).",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.History.Enabled {
			return errors.WithHint(
				errors.New("run history is disabled"),
				"set history.enabled = true in .buildergen.toml")
		}
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			pterm.Info.Println("no runs recorded yet")
			return nil
		}

		data := pterm.TableData{{"Started", "Run", "Command", "Status", "Shapes", "Changed", "Took", "Paths"}}
		for _, r := range runs {
			took := ""
			if r.FinishedAt != nil {
				took = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
			}
			command := r.Command
			if r.DryRun {
				command += " (dry)"
			}
			data = append(data, []string{
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.ID[:8],
				command,
				statusStyle(r),
				strconv.Itoa(r.Shapes),
				strconv.Itoa(r.Changed),
				took,
				strings.Join(r.Patterns, " "),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
	},
}

func init() {
	HistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")
}

func statusStyle(r history.Run) string {
	switch r.Status {
	case history.StatusOK:
		return pterm.LightGreen(r.Status)
	case history.StatusFailed:
		return pterm.Red(fmt.Sprintf("%s: %s", r.Status, r.Error))
	default:
		return pterm.Yellow(r.Status)
	}
}
