package mermaid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const theme = "%%{init: {\"theme\": \"base\"}}%%\n"

func TestStripFrontMatter(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no front matter", "graph TD\nA-->B\n", "graph TD\nA-->B\n"},
		{"front matter", "---\ntitle: Flow\n---\ngraph TD\nA-->B\n", "graph TD\nA-->B\n"},
		{"crlf delimiters", "---\r\ntitle: Flow\r\n---\r\ngraph TD\r\n", "graph TD\r\n"},
		{"unterminated", "---\ntitle: Flow\ngraph TD\n", "---\ntitle: Flow\ngraph TD\n"},
		{"delimiter not first", "graph TD\n---\nA\n---\n", "graph TD\n---\nA\n---\n"},
		{"bom", "\ufeff---\ntitle: x\n---\ngraph LR\n", "graph LR\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFrontMatter(tt.in))
		})
	}
}

func TestPrepare(t *testing.T) {
	tests := []struct {
		name string
		text string
		init string
		want string
	}{
		{
			name: "prepends theme",
			text: "graph TD\nA-->B\n",
			init: theme,
			want: theme + "graph TD\nA-->B\n",
		},
		{
			name: "keeps existing init",
			text: "  %%{init: {\"theme\": \"dark\"}}%%\ngraph TD\n",
			init: theme,
			want: "  %%{init: {\"theme\": \"dark\"}}%%\ngraph TD\n",
		},
		{
			name: "strips front matter then prepends",
			text: "---\ntitle: Flow\n---\ngraph TD\n",
			init: theme,
			want: theme + "graph TD\n",
		},
		{
			name: "init after front matter is respected",
			text: "---\ntitle: Flow\n---\n%%{init: {}}%%\ngraph TD\n",
			init: theme,
			want: "%%{init: {}}%%\ngraph TD\n",
		},
		{
			name: "layout directive",
			text: "graph TD\n",
			init: LayoutDirective("elk"),
			want: "%%{init: {\"layout\": \"elk\"}}%%\ngraph TD\n",
		},
		{
			name: "missing newline is added",
			text: "graph TD\n",
			init: "%%{init: {}}%%",
			want: "%%{init: {}}%%\ngraph TD\n",
		},
		{
			name: "no init",
			text: "graph TD\n",
			init: "",
			want: "graph TD\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Prepare(tt.text, tt.init))
		})
	}
}

func TestLayoutDirectiveEmpty(t *testing.T) {
	assert.Empty(t, LayoutDirective(""))
}
