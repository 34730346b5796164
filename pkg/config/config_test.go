package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mmdrender/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "diagrams", cfg.SourceDir)
	assert.Equal(t, "diagrams", cfg.Output(), "output defaults to the source dir")
	assert.Equal(t, ".mmd", cfg.Extension)
	assert.Equal(t, []string{"mmdc"}, cfg.Renderer)
	assert.Equal(t, time.Second, cfg.Debounce.Duration)
	assert.Equal(t, []Variant{{Suffix: "@4x", Width: 3200}}, cfg.Variants)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, found, err := Load(filepath.Join(t.TempDir(), DefaultFile))

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesAndResolvesRelativeDirs(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, DefaultFile, `
source_dir = "docs/diagrams"
output_dir = "/abs/out"
renderer = ["npx", "-y", "@mermaid-js/mermaid-cli"]
timeout = "2m"
debounce = "500ms"
formats = ["svg"]

[[variants]]
suffix = "@2x"
width = 1600

[[variants]]
suffix = "@4x"
width = 3200
`)

	cfg, found, err := Load(path)
	require.NoError(t, err)
	assert.True(t, found)

	assert.Equal(t, filepath.Join(dir, "docs/diagrams"), cfg.SourceDir)
	assert.Equal(t, "/abs/out", cfg.OutputDir)
	assert.Equal(t, filepath.Join(dir, "_terms.yml"), cfg.TermsFile, "default terms file resolves next to the config")
	assert.Equal(t, []string{"npx", "-y", "@mermaid-js/mermaid-cli"}, cfg.Renderer)
	assert.Equal(t, 2*time.Minute, cfg.Timeout.Duration)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce.Duration)
	assert.Equal(t, []string{"svg"}, cfg.Formats)
	assert.Len(t, cfg.Variants, 2)
	assert.Equal(t, ".mmd", cfg.Extension, "unset keys keep defaults")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", `source_dir = `},
		{"unknown key", `colour = "blue"`},
		{"bad duration", `timeout = "soon"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), DefaultFile, tt.content)
			_, _, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "got %v", err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := envconfig.MapLookuper(map[string]string{
		EnvSourceDir: "src",
		EnvOutputDir: "out",
		EnvRenderer:  "  npx   mmdc ",
		EnvTermsFile: "  ",
	})
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(context.Background(), env))

	assert.Equal(t, "src", cfg.SourceDir)
	assert.Equal(t, "out", cfg.Output())
	assert.Equal(t, []string{"npx", "mmdc"}, cfg.Renderer)
	assert.Equal(t, "_terms.yml", cfg.TermsFile, "blank variables leave fields alone")
	assert.Equal(t, Default().Timeout, cfg.Timeout)
	assert.Equal(t, Default().Variants, cfg.Variants)
}

func TestApplyEnvUnset(t *testing.T) {
	cfg := Default()
	cfg.SourceDir = "from-file"
	require.NoError(t, cfg.ApplyEnv(context.Background(), envconfig.MapLookuper(nil)))

	assert.Equal(t, "from-file", cfg.SourceDir)
	assert.Equal(t, Default().Renderer, cfg.Renderer)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   errors.Code
	}{
		{"empty renderer", func(c *Config) { c.Renderer = nil }, errors.ErrCodeInvalidConfig},
		{"empty source", func(c *Config) { c.SourceDir = "" }, errors.ErrCodeInvalidConfig},
		{"bad extension", func(c *Config) { c.Extension = "mmd" }, errors.ErrCodeInvalidConfig},
		{"unknown format", func(c *Config) { c.Formats = []string{"pdf"} }, errors.ErrCodeInvalidFormat},
		{"no formats", func(c *Config) { c.Formats = nil }, errors.ErrCodeInvalidFormat},
		{"zero width", func(c *Config) { c.Variants = []Variant{{Suffix: "@1x"}} }, errors.ErrCodeInvalidVariant},
		{"duplicate suffix", func(c *Config) {
			c.Variants = []Variant{{Suffix: "@2x", Width: 1}, {Suffix: "@2x", Width: 2}}
		}, errors.ErrCodeInvalidVariant},
		{"png without variants", func(c *Config) { c.Variants = nil }, errors.ErrCodeInvalidVariant},
		{"negative timeout", func(c *Config) { c.Timeout.Duration = -time.Second }, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}

	t.Run("svg only without variants", func(t *testing.T) {
		cfg := Default()
		cfg.Formats = []string{FormatSVG}
		cfg.Variants = nil
		assert.NoError(t, cfg.Validate())
	})
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"svg", []string{"svg"}},
		{"svg,png", []string{"svg", "png"}},
		{" PNG , svg ,", []string{"png", "svg"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFormats(tt.input))
		})
	}
}
