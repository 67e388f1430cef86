package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/buildergen/driver"
)

var checkFlags runFlags

// CheckCmd reports builders that merge would change
var CheckCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Fail when any builder is out of date",
	Long: `Run merge in memory and list the builders it would create or change.
Nothing is written. The exit code is 1 when any builder is out of date, so
check can guard CI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := request{command: "check", mode: driver.ModeMerge, args: args, flags: checkFlags, overlay: true}
		if err := req.resolve(cmd); err != nil {
			return err
		}

		out, err := execute(cmd.Context(), req)
		if err != nil {
			return err
		}
		defer out.registry.DisposeTemp()

		changes := out.registry.Changes()
		if len(changes) == 0 {
			pterm.Success.Printfln("%d builders up to date", len(out.report.Results))
			return nil
		}
		printChanges(cmd.OutOrStdout(), changes, false)
		pterm.Error.Printfln("%d builders out of date; run buildergen merge", len(changes))
		return ErrOutOfDate
	},
}

func init() {
	addRunFlags(CheckCmd, &checkFlags, false)
}
