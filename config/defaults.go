package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

// File and directory names
const (
	ProjectFileName       = ".buildergen.toml"
	UserDirName           = ".buildergen"
	UserFileName          = "config.toml"
	HistoryFileName       = "history.db"
	EnvPrefix             = "BUILDERGEN"
	DefaultDirPermissions = 0o750
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper, home string) {
	v.SetDefault("mode", ModeMerge)
	v.SetDefault("files", []string{"."})
	v.SetDefault("output_dir", "")
	v.SetDefault("seed", 0)
	v.SetDefault("build_flags", "")
	v.SetDefault("interactive", false)

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", filepath.Join(home, UserDirName, HistoryFileName))

	v.SetDefault("watch.debounce_ms", 300)
}

// Default returns the configuration with nothing but defaults applied.
func Default(home string) *Config {
	v := viper.New()
	SetDefaults(v, home)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}
