// Package config loads buildergen settings from defaults, the user file,
// the nearest project file and BUILDERGEN_ environment variables.
package config

// Config is the resolved buildergen configuration.
type Config struct {
	Mode        string        `mapstructure:"mode" validate:"required,oneof=overwrite merge" toml:"mode" yaml:"mode" json:"mode"`
	Files       []string      `mapstructure:"files" validate:"dive,required" toml:"files" yaml:"files" json:"files"`
	OutputDir   string        `mapstructure:"output_dir" toml:"output_dir" yaml:"output_dir" json:"output_dir"`
	Seed        uint64        `mapstructure:"seed" toml:"seed" yaml:"seed" json:"seed"`
	BuildFlags  string        `mapstructure:"build_flags" toml:"build_flags" yaml:"build_flags" json:"build_flags"`
	Interactive bool          `mapstructure:"interactive" toml:"interactive" yaml:"interactive" json:"interactive"`
	Log         LogConfig     `mapstructure:"log" toml:"log" yaml:"log" json:"log"`
	History     HistoryConfig `mapstructure:"history" toml:"history" yaml:"history" json:"history"`
	Watch       WatchConfig   `mapstructure:"watch" toml:"watch" yaml:"watch" json:"watch"`
}

// LogConfig configures the global logger
type LogConfig struct {
	JSON      bool `mapstructure:"json" toml:"json" yaml:"json" json:"json"`
	Verbosity int  `mapstructure:"verbosity" validate:"gte=0,lte=3" toml:"verbosity" yaml:"verbosity" json:"verbosity"`
}

// HistoryConfig configures the sqlite run history
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled" yaml:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true" toml:"path" yaml:"path" json:"path"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms" validate:"gte=0" toml:"debounce_ms" yaml:"debounce_ms" json:"debounce_ms"`
}

// Modes accepted by the mode key
const (
	ModeOverwrite = "overwrite"
	ModeMerge     = "merge"
)
