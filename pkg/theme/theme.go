// Package theme loads the Mermaid init fragment shared by every diagram.
//
// The fragment lives in a YAML document (by default _terms.yml) under a
// single key (by default mermaid_init):
//
//	mermaid_init: |
//	  %%{init: {"theme": "base", "themeVariables": {"primaryColor": "#f4f4f4"}}}%%
//
// A missing document or key is never fatal. [LoadOrDefault] logs a warning
// and returns an empty fragment, so diagrams render with Mermaid's default
// theme.
package theme

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/mmdrender/pkg/errors"
)

// DefaultKey is the document key holding the init fragment.
const DefaultKey = "mermaid_init"

// Load reads the fragment stored under key in the YAML document at path.
// The fragment is trimmed and terminated with a single newline.
func Load(path, key string) (string, error) {
	if key == "" {
		key = DefaultKey
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", errors.Wrap(errors.ErrCodeConfigNotFound, err, "%s not found", path)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}

	raw, ok := doc[key]
	if !ok || raw == nil {
		return "", errors.New(errors.ErrCodeConfigNotFound, "%s not found in %s", key, path)
	}
	s, ok := raw.(string)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidConfig, "%s in %s must be a string, got %T", key, path, raw)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New(errors.ErrCodeConfigNotFound, "%s is empty in %s", key, path)
	}
	return s + "\n", nil
}

// LoadOrDefault is [Load] that degrades to the default theme.
// Any failure is logged as a warning and yields an empty fragment.
func LoadOrDefault(logger *log.Logger, path, key string) string {
	fragment, err := Load(path, key)
	if err != nil {
		logger.Warn("using default theme", "reason", errors.UserMessage(err))
		return ""
	}
	logger.Debug("loaded theme", "file", path, "bytes", len(fragment))
	return fragment
}
