package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/teranos/buildergen/errors"
)

// Formats accepted by Marshal
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Marshal renders cfg as toml, yaml or json.
func Marshal(cfg *Config, format string) ([]byte, error) {
	switch format {
	case FormatTOML, "":
		return toml.Marshal(cfg)
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, errors.Wrap(err, "failed to marshal config as yaml")
		}
		return buf.Bytes(), nil
	case FormatJSON:
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config as json")
		}
		return append(out, '\n'), nil
	default:
		return nil, errors.WithHint(
			errors.Newf("unknown format %q", format),
			"use toml, yaml or json")
	}
}

const template = `# buildergen configuration
# Project settings live in .buildergen.toml; user settings in ~/.buildergen/config.toml.
# Every key can be overridden with BUILDERGEN_<KEY>, e.g. BUILDERGEN_LOG_VERBOSITY=2.

# overwrite regenerates builders; merge keeps manual edits and //builder:fixed members
mode = %q

# directories, files or globs scanned when no paths are given
files = [%s]

# place every builder here instead of beside its type (must be inside the module)
output_dir = %q

# seed for placeholder values
seed = %d

# flags for the go command, e.g. -tags "integration e2e"
build_flags = %q

interactive = %t

[log]
json = %t
verbosity = %d

[history]
enabled = %t
path = %q

[watch]
debounce_ms = %d
`

// Template renders cfg as a commented TOML file.
func Template(cfg *Config) []byte {
	files := make([]string, len(cfg.Files))
	for i, f := range cfg.Files {
		files[i] = fmt.Sprintf("%q", f)
	}
	return []byte(fmt.Sprintf(template,
		cfg.Mode,
		joinComma(files),
		cfg.OutputDir,
		cfg.Seed,
		cfg.BuildFlags,
		cfg.Interactive,
		cfg.Log.JSON,
		cfg.Log.Verbosity,
		cfg.History.Enabled,
		cfg.History.Path,
		cfg.Watch.DebounceMS,
	))
}

func joinComma(items []string) string {
	var b bytes.Buffer
	for i, s := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s)
	}
	return b.String()
}

// Init writes cfg as a commented file at path. An existing file is only
// replaced with force, after rotating it into .back1..3.
func Init(path string, cfg *Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.WithHint(
			errors.Newf("%s already exists", path),
			"pass --force to replace it; the old file is kept as .back1")
	}
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}
	if err := os.WriteFile(path, Template(cfg), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// createBackup rotates path into .back1, .back2 and .back3
func createBackup(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	back1, back2, back3 := path+".back1", path+".back2", path+".back3"
	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete %s", back3)
	}
	for _, step := range [][2]string{{back2, back3}, {back1, back2}} {
		if _, err := os.Stat(step[0]); err == nil {
			if err := os.Rename(step[0], step[1]); err != nil {
				return errors.Wrapf(err, "failed to rotate %s", step[0])
			}
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	return os.WriteFile(back1, content, 0o644)
}
