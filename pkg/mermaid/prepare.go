package mermaid

import (
	"fmt"
	"strings"
)

const (
	frontMatterDelim = "---"
	initPrefix       = "%%{init"
)

// LayoutDirective returns the init directive selecting a layout engine,
// e.g. `%%{init: {"layout": "elk"}}%%`. An empty engine yields "".
func LayoutDirective(engine string) string {
	if engine == "" {
		return ""
	}
	return fmt.Sprintf("%%%%{init: {\"layout\": %q}}%%%%\n", engine)
}

// StripFrontMatter removes a leading metadata block delimited by "---" lines.
// Text without a complete block is returned unchanged.
func StripFrontMatter(text string) string {
	body := strings.TrimPrefix(text, "\ufeff")
	first, rest, ok := strings.Cut(body, "\n")
	if !ok || strings.TrimRight(first, " \t\r") != frontMatterDelim {
		return text
	}
	for rest != "" {
		var line string
		line, rest, _ = strings.Cut(rest, "\n")
		if strings.TrimRight(line, " \t\r") == frontMatterDelim {
			return rest
		}
	}
	return text
}

// HasInit reports whether text already starts with an init directive.
func HasInit(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), initPrefix)
}

// Prepare returns the text handed to the renderer: front matter stripped
// and directive prepended unless an init directive is already present.
// directive should be the theme fragment, or [LayoutDirective] when no theme
// is configured.
func Prepare(text, directive string) string {
	body := StripFrontMatter(text)
	if directive == "" || HasInit(body) {
		return body
	}
	if !strings.HasSuffix(directive, "\n") {
		directive += "\n"
	}
	return directive + body
}
