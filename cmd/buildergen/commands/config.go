package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/buildergen/config"
	"github.com/teranos/buildergen/errors"
)

// ConfigCmd manages buildergen configuration
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and create buildergen configuration",
	Long: `Show and create buildergen configuration.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (BUILDERGEN_* prefix, e.g. BUILDERGEN_LOG_VERBOSITY)
3. Project config (nearest .buildergen.toml walking up, or --config)
4. User config (~/.buildergen/config.toml)
5. Default values

Examples:
  buildergen config show                # Show the effective configuration
  buildergen config show --format json  # ... as JSON
  buildergen config init                # Write .buildergen.toml here
  buildergen config path                # Show which files were read`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.Marshal(cfg.Config, configShowFormat)
		if err != nil {
			return err
		}
		if configShowFormat != config.FormatJSON {
			fmt.Fprintln(cmd.OutOrStdout(), "# buildergen configuration")
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented config file with the effective values",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := initTarget()
		if err != nil {
			return err
		}
		if err := config.Init(path, cfg.Config, configInitForce); err != nil {
			return err
		}
		pterm.Success.Printfln("wrote %s", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show where configuration is read from",
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to determine home directory")
		}
		wd, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "failed to determine working directory")
		}

		candidates := []string{config.UserPath(home)}
		if configFile != "" {
			candidates = append(candidates, configFile)
		} else if project := config.FindProjectFile(wd); project != "" {
			candidates = append(candidates, project)
		} else {
			candidates = append(candidates, filepath.Join(wd, config.ProjectFileName))
		}

		loaded := map[string]bool{}
		for _, s := range cfg.Sources {
			loaded[s] = true
		}
		w := cmd.OutOrStdout()
		for _, c := range candidates {
			state := pterm.Gray("missing")
			if loaded[c] {
				state = pterm.LightGreen("loaded")
			}
			fmt.Fprintf(w, "%s %s\n", state, c)
		}
		fmt.Fprintf(w, "%s %s\n", pterm.LightCyan("history"), cfg.History.Path)
		return nil
	},
}

var (
	configShowFormat string
	configInitForce  bool
	configInitUser   bool
)

func init() {
	configShowCmd.Flags().StringVar(&configShowFormat, "format", config.FormatTOML, "Output format: toml, yaml, json")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Replace an existing file (kept as .back1)")
	configInitCmd.Flags().BoolVar(&configInitUser, "user", false, "Write ~/.buildergen/config.toml instead of ./.buildergen.toml")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configPathCmd)
}

func initTarget() (string, error) {
	if configInitUser {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "failed to determine home directory")
		}
		return config.UserPath(home), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "failed to determine working directory")
	}
	return filepath.Join(wd, config.ProjectFileName), nil
}
