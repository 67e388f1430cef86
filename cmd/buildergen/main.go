package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/buildergen/cmd/buildergen/commands"
	"github.com/teranos/buildergen/errors"
	"github.com/teranos/buildergen/logger"
)

var rootCmd = &cobra.Command{
	Use:   "buildergen",
	Short: "Generate and reconcile builders for Go struct types",
	Long: `buildergen keeps a fluent builder beside every struct type.

Each shape gets <snake_name>_builder.go with an XBuilder type, NewXBuilder
seeded with placeholder values, one With/Is setter per field and Build().
Nested struct fields get builders of their own.

merge reconciles existing builders: members and setters follow the struct,
hand-written methods survive, and anything marked //builder:fixed is left
as written.

Examples:
  buildergen generate ./models            # write builders from scratch
  buildergen merge ./models -t User       # reconcile UserBuilder and its nested builders
  buildergen merge "api/**/*.go" -o ./fixtures
  buildergen check ./...                  # fail when a builder is out of date
  buildergen watch ./models               # reconcile on every save`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		verbosity, _ := cmd.Flags().GetCount("verbose")
		logJSON, _ := cmd.Flags().GetBool("log-json")
		return commands.Setup(configFile, verbosity, logJSON)
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: nearest .buildergen.toml)")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.MergeCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.ShapesCmd)
	rootCmd.AddCommand(commands.HistoryCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Cleanup()

	if err != nil {
		if !errors.Is(err, commands.ErrOutOfDate) {
			pterm.Error.Println(err.Error())
			for _, hint := range errors.GetAllHints(err) {
				fmt.Fprintf(os.Stderr, "  hint: %s\n", hint)
			}
			for _, detail := range errors.GetAllDetails(err) {
				fmt.Fprintf(os.Stderr, "  %s\n", detail)
			}
		}
		os.Exit(1)
	}
}
