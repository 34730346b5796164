// Package config loads the mmdrender project configuration.
//
// Configuration comes from three layers, later layers winning:
//
//  1. Built-in defaults ([Default])
//  2. An optional TOML file (mmdrender.toml next to the diagrams)
//  3. MMDRENDER_* environment variables (a .env file is honored by the CLI)
//
// Command-line flags are applied on top by the CLI itself.
//
// # Example mmdrender.toml
//
//	source_dir = "diagrams"
//	output_dir = "assets/diagrams"
//	terms_file = "_terms.yml"
//	renderer   = ["npx", "-y", "@mermaid-js/mermaid-cli"]
//	timeout    = "2m"
//
//	[[variants]]
//	suffix = "@4x"
//	width  = 3200
package config

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"

	"github.com/matzehuels/mmdrender/pkg/errors"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "mmdrender.toml"

// Output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
}

// Environment variables read by [ApplyEnv].
const (
	EnvSourceDir = "MMDRENDER_SOURCE_DIR"
	EnvOutputDir = "MMDRENDER_OUTPUT_DIR"
	EnvRenderer  = "MMDRENDER_RENDERER"
	EnvTermsFile = "MMDRENDER_TERMS_FILE"
)

// Variant is one raster output: <stem><Suffix>.png at Width pixels.
type Variant struct {
	Suffix string `toml:"suffix"`
	Width  int    `toml:"width"`
}

// Duration is a time.Duration that decodes from strings like "1s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the resolved project configuration.
type Config struct {
	SourceDir       string    `toml:"source_dir" env:"MMDRENDER_SOURCE_DIR, overwrite"`
	OutputDir       string    `toml:"output_dir" env:"MMDRENDER_OUTPUT_DIR, overwrite"`
	TermsFile       string    `toml:"terms_file" env:"MMDRENDER_TERMS_FILE, overwrite"`
	ThemeKey        string    `toml:"theme_key"`
	Extension       string    `toml:"extension"`
	Layout          string    `toml:"layout"`
	Renderer        []string  `toml:"renderer" env:"MMDRENDER_RENDERER, overwrite"`
	Background      string    `toml:"background"`
	PuppeteerConfig string    `toml:"puppeteer_config"`
	Timeout         Duration  `toml:"timeout"`
	Debounce        Duration  `toml:"debounce"`
	Formats         []string  `toml:"formats"`
	Variants        []Variant `toml:"variants"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SourceDir: "diagrams",
		TermsFile: "_terms.yml",
		ThemeKey:  "mermaid_init",
		Extension: ".mmd",
		Layout:    "elk",
		Renderer:  []string{"mmdc"},
		Debounce:  Duration{time.Second},
		Formats:   []string{FormatSVG, FormatPNG},
		Variants:  []Variant{{Suffix: "@4x", Width: 3200}},
	}
}

// Load reads path on top of [Default]. A missing file is not an error:
// the defaults are returned with found=false. Relative directories in the
// file are resolved against the file's directory.
func Load(path string) (cfg Config, found bool, err error) {
	cfg = Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, false, nil
	}
	if err != nil {
		return cfg, false, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	// Decoding onto the defaults would append to slices; decode into a
	// zero value and merge explicitly set keys.
	var file Config
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return cfg, true, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, true, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}

	merge(&cfg, file, md)
	cfg.resolveRelative(filepath.Dir(path))
	return cfg, true, nil
}

func merge(dst *Config, src Config, md toml.MetaData) {
	if md.IsDefined("source_dir") {
		dst.SourceDir = src.SourceDir
	}
	if md.IsDefined("output_dir") {
		dst.OutputDir = src.OutputDir
	}
	if md.IsDefined("terms_file") {
		dst.TermsFile = src.TermsFile
	}
	if md.IsDefined("theme_key") {
		dst.ThemeKey = src.ThemeKey
	}
	if md.IsDefined("extension") {
		dst.Extension = src.Extension
	}
	if md.IsDefined("layout") {
		dst.Layout = src.Layout
	}
	if md.IsDefined("renderer") {
		dst.Renderer = src.Renderer
	}
	if md.IsDefined("background") {
		dst.Background = src.Background
	}
	if md.IsDefined("puppeteer_config") {
		dst.PuppeteerConfig = src.PuppeteerConfig
	}
	if md.IsDefined("timeout") {
		dst.Timeout = src.Timeout
	}
	if md.IsDefined("debounce") {
		dst.Debounce = src.Debounce
	}
	if md.IsDefined("formats") {
		dst.Formats = src.Formats
	}
	if md.IsDefined("variants") {
		dst.Variants = src.Variants
	}
}

func (c *Config) resolveRelative(base string) {
	if base == "" || base == "." {
		return
	}
	for _, p := range []*string{&c.SourceDir, &c.OutputDir, &c.TermsFile, &c.PuppeteerConfig} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// ApplyEnv overrides fields from MMDRENDER_* environment variables. The
// renderer variable is split on spaces. Variables that are unset or empty
// leave the field alone. lookuper is usually envconfig.OsLookuper().
func (c *Config) ApplyEnv(ctx context.Context, lookuper envconfig.Lookuper) error {
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           c,
		Lookuper:         setOnly{lookuper},
		DefaultDelimiter: " ",
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "environment")
	}
	c.Renderer = slices.DeleteFunc(c.Renderer, func(s string) bool {
		return strings.TrimSpace(s) == ""
	})
	for i, s := range c.Renderer {
		c.Renderer[i] = strings.TrimSpace(s)
	}
	return nil
}

// setOnly treats an empty variable as unset, so MMDRENDER_SOURCE_DIR= does
// not blank out the file's value.
type setOnly struct{ envconfig.Lookuper }

func (l setOnly) Lookup(key string) (string, bool) {
	v, ok := l.Lookuper.Lookup(key)
	return v, ok && strings.TrimSpace(v) != ""
}

// Output returns the artifact directory. An empty OutputDir means artifacts
// are written next to their sources.
func (c Config) Output() string {
	if c.OutputDir == "" {
		return c.SourceDir
	}
	return c.OutputDir
}

// Validate checks the configuration for values no render could succeed with.
func (c Config) Validate() error {
	if c.SourceDir == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "source_dir cannot be empty")
	}
	if len(c.Renderer) == 0 || c.Renderer[0] == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "renderer command cannot be empty")
	}
	if err := errors.ValidateExtension(c.Extension); err != nil {
		return err
	}
	if err := ValidateFormats(c.Formats); err != nil {
		return err
	}
	if c.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "timeout cannot be negative")
	}
	if c.Debounce.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "debounce cannot be negative")
	}

	seen := make(map[string]bool, len(c.Variants))
	for _, v := range c.Variants {
		if err := errors.ValidateVariantSuffix(v.Suffix); err != nil {
			return err
		}
		if v.Width <= 0 {
			return errors.New(errors.ErrCodeInvalidVariant, "variant %q: width must be positive", v.Suffix)
		}
		if seen[v.Suffix] {
			return errors.New(errors.ErrCodeInvalidVariant, "duplicate variant suffix %q", v.Suffix)
		}
		seen[v.Suffix] = true
	}
	if slices.Contains(c.Formats, FormatPNG) && len(c.Variants) == 0 {
		return errors.New(errors.ErrCodeInvalidVariant, "png output requires at least one variant")
	}
	return nil
}

// ValidateFormats checks that formats is a non-empty subset of [ValidFormats].
func ValidateFormats(formats []string) error {
	if len(formats) == 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "at least one output format is required")
	}
	for _, f := range formats {
		if !ValidFormats[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be 'svg' or 'png')", f)
		}
	}
	return nil
}

// ParseFormats parses a comma-separated format list.
// An empty string yields nil so callers can keep their configured default.
func ParseFormats(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
