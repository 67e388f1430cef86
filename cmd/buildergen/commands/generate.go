package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/buildergen/driver"
)

var generateFlags, mergeFlags runFlags

// GenerateCmd writes builders from scratch
var GenerateCmd = &cobra.Command{
	Use:   "generate [paths...]",
	Short: "Write builders from scratch, replacing existing ones",
	Long: `Write a builder for every struct type under the given paths, and for every
struct type they reference. Existing builder files are replaced, manual
methods and //builder:fixed markers included.

Paths may be directories (scanned recursively), .go files or globs such as
"models/**/*.go". Without paths the config's files setting is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd, "generate", driver.ModeOverwrite, args, generateFlags)
	},
}

// MergeCmd reconciles existing builders
var MergeCmd = &cobra.Command{
	Use:   "merge [paths...]",
	Short: "Reconcile builders with their types, keeping manual edits",
	Long: `Bring existing builders in line with their struct types and create missing ones.

Members and setters follow the struct's fields in order. Setters for removed
fields are dropped. Methods without a With/Is prefix are kept. A member
marked //builder:fixed keeps its type, initial value and setter; a builder
marked //builder:fixed in its doc comment is not touched at all.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd, "merge", driver.ModeMerge, args, mergeFlags)
	},
}

func init() {
	addRunFlags(GenerateCmd, &generateFlags, true)
	addRunFlags(MergeCmd, &mergeFlags, true)
}

func runMode(cmd *cobra.Command, command string, mode driver.Mode, args []string, flags runFlags) error {
	req := request{command: command, mode: mode, args: args, flags: flags, overlay: flags.dryRun}
	if err := req.resolve(cmd); err != nil {
		return err
	}

	out, err := execute(cmd.Context(), req)
	if out != nil {
		printReport(cmd.OutOrStdout(), out.report)
		if req.overlay {
			printChanges(cmd.OutOrStdout(), out.registry.Changes(), true)
			out.registry.DisposeTemp()
		}
	}
	return err
}
