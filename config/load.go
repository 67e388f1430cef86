package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/buildergen/errors"
)

// Options locates the configuration sources. Zero values mean the process
// working directory and the user's home.
type Options struct {
	// File is an explicit config file (--config); it replaces the project
	// file lookup.
	File    string
	WorkDir string
	Home    string
}

// Loaded is a resolved configuration and the files it was read from.
type Loaded struct {
	*Config
	Viper *viper.Viper
	// Sources lists the merged files, lowest precedence first.
	Sources []string
}

// Load reads the configuration. Precedence, lowest first: defaults, user
// file, project file (or --config), BUILDERGEN_ environment variables.
func Load(opts Options) (*Loaded, error) {
	if opts.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to determine home directory")
		}
		opts.Home = home
	}
	if opts.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "failed to determine working directory")
		}
		opts.WorkDir = wd
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v, opts.Home)

	paths := []string{UserPath(opts.Home)}
	switch {
	case opts.File != "":
		if _, err := os.Stat(opts.File); err != nil {
			return nil, errors.WithHint(
				errors.Wrapf(err, "config file %s", opts.File),
				"run 'buildergen config init' to create one")
		}
		paths = append(paths, opts.File)
	default:
		if project := FindProjectFile(opts.WorkDir); project != "" {
			paths = append(paths, project)
		}
	}

	loaded := &Loaded{Viper: v}
	for _, path := range paths {
		merged, err := mergeFile(v, path)
		if err != nil {
			return nil, err
		}
		if merged {
			loaded.Sources = append(loaded.Sources, path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "failed to unmarshal config: %v", err)
	}
	cfg.History.Path = expandHome(cfg.History.Path, opts.Home)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loaded.Config = &cfg
	return loaded, nil
}

// mergeFile layers one TOML file over v. Missing files are skipped.
func mergeFile(v *viper.Viper, path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		return false, nil
	}

	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("toml")
	if err := file.ReadInConfig(); err != nil {
		return false, errors.WithHint(
			errors.Wrapf(errors.ErrInvalidConfig, "failed to read %s: %v", path, err),
			"config files are TOML; check the syntax")
	}
	if err := v.MergeConfigMap(file.AllSettings()); err != nil {
		return false, errors.Wrapf(err, "failed to merge %s", path)
	}
	return true, nil
}

// FindProjectFile walks up from dir looking for .buildergen.toml.
func FindProjectFile(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, ProjectFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// UserPath is ~/.buildergen/config.toml for home.
func UserPath(home string) string {
	return filepath.Join(home, UserDirName, UserFileName)
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
