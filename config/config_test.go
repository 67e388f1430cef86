package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/buildergen/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := Load(Options{WorkDir: t.TempDir(), Home: home})
	require.NoError(t, err)

	assert.Equal(t, ModeMerge, cfg.Mode)
	assert.Equal(t, []string{"."}, cfg.Files)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, filepath.Join(home, ".buildergen", "history.db"), cfg.History.Path)
	assert.Equal(t, 300, cfg.Watch.DebounceMS)
	assert.Empty(t, cfg.Sources)
}

func TestLoadPrecedence(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	nested := filepath.Join(project, "internal", "models")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	writeFile(t, UserPath(home), "mode = \"overwrite\"\nseed = 9\n[log]\nverbosity = 1\n")
	writeFile(t, filepath.Join(project, ProjectFileName), "seed = 42\noutput_dir = \"fixtures\"\n[history]\npath = \"~/runs.db\"\n")

	t.Setenv("BUILDERGEN_LOG_VERBOSITY", "2")

	cfg, err := Load(Options{WorkDir: nested, Home: home})
	require.NoError(t, err)

	assert.Equal(t, ModeOverwrite, cfg.Mode, "user file")
	assert.Equal(t, uint64(42), cfg.Seed, "project file wins over user file")
	assert.Equal(t, "fixtures", cfg.OutputDir)
	assert.Equal(t, 2, cfg.Log.Verbosity, "environment wins over files")
	assert.Equal(t, filepath.Join(home, "runs.db"), cfg.History.Path)
	assert.Equal(t, []string{UserPath(home), filepath.Join(project, ProjectFileName)}, cfg.Sources)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "ci.toml")
	writeFile(t, explicit, "mode = \"overwrite\"\n")
	writeFile(t, filepath.Join(dir, ProjectFileName), "mode = \"merge\"\n")

	cfg, err := Load(Options{File: explicit, WorkDir: dir, Home: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, ModeOverwrite, cfg.Mode)

	_, err = Load(Options{File: filepath.Join(dir, "missing.toml"), WorkDir: dir, Home: t.TempDir()})
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown mode", "mode = \"append\"\n"},
		{"verbosity out of range", "[log]\nverbosity = 7\n"},
		{"negative debounce", "[watch]\ndebounce_ms = -1\n"},
		{"unbalanced build flags", "build_flags = \"-tags 'a\"\n"},
		{"broken toml", "mode = \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, ProjectFileName), tt.content)
			_, err := Load(Options{WorkDir: dir, Home: t.TempDir()})
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
			assert.NotEmpty(t, errors.GetAllHints(err))
		})
	}
}

func TestValidateHistoryPathRequiredWhenEnabled(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.History.Path = ""
	assert.True(t, errors.Is(cfg.Validate(), errors.ErrInvalidConfig))

	cfg.History.Enabled = false
	assert.NoError(t, cfg.Validate())
}

func TestMarshalFormats(t *testing.T) {
	cfg := Default("/home/dev")

	out, err := Marshal(cfg, FormatTOML)
	require.NoError(t, err)
	var fromTOML Config
	require.NoError(t, toml.Unmarshal(out, &fromTOML))
	assert.Equal(t, *cfg, fromTOML)

	out, err = Marshal(cfg, FormatYAML)
	require.NoError(t, err)
	var fromYAML Config
	require.NoError(t, yaml.Unmarshal(out, &fromYAML))
	assert.Equal(t, *cfg, fromYAML)

	out, err = Marshal(cfg, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"debounce_ms": 300`)

	_, err = Marshal(cfg, "xml")
	assert.Error(t, err)
}

func TestInitWritesLoadableTemplate(t *testing.T) {
	home := t.TempDir()
	dir := t.TempDir()
	path := filepath.Join(dir, ProjectFileName)

	cfg := Default(home)
	cfg.Seed = 5
	require.NoError(t, Init(path, cfg, false))

	loaded, err := Load(Options{WorkDir: dir, Home: home})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), loaded.Seed)
	assert.Equal(t, *cfg, *loaded.Config)

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		assert.Error(t, Init(path, cfg, false))
	})

	t.Run("force rotates backups", func(t *testing.T) {
		require.NoError(t, Init(path, cfg, true))
		require.NoError(t, Init(path, cfg, true))
		assert.FileExists(t, path+".back1")
		assert.FileExists(t, path+".back2")
	})
}
