package mermaid

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/matzehuels/mmdrender/pkg/errors"
)

// Format is an output image format.
type Format string

// Supported formats.
const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// Renderer converts one prepared diagram file into one image file.
// A width of zero leaves the page width to the renderer.
type Renderer interface {
	RenderToFile(ctx context.Context, sourcePath, outputPath string, format Format, width int) error
}

// waitDelay bounds how long a killed invocation may hold its output pipes.
const waitDelay = 2 * time.Second

// CLI renders by running mermaid-cli.
type CLI struct {
	// Command is the executable followed by leading arguments,
	// e.g. {"mmdc"} or {"npx", "-y", "@mermaid-js/mermaid-cli"}.
	Command []string

	// Background is passed as -b when non-empty ("transparent", "#fff").
	Background string

	// PuppeteerConfig is passed as -p when non-empty.
	PuppeteerConfig string

	// Timeout bounds each invocation. Zero means no timeout.
	Timeout time.Duration
}

// NewCLI creates a CLI renderer for the given command line.
func NewCLI(command []string) *CLI {
	return &CLI{Command: command}
}

// Check verifies the renderer executable is on PATH.
func (c *CLI) Check() error {
	if len(c.Command) == 0 {
		return errors.New(errors.ErrCodeDependencyMissing, "no renderer command configured")
	}
	if _, err := exec.LookPath(c.Command[0]); err != nil {
		return errors.Wrap(errors.ErrCodeDependencyMissing, err,
			"%s not found. Install mermaid-cli with:\n  npm install -g @mermaid-js/mermaid-cli", c.Command[0])
	}
	return nil
}

// Args returns the full argument list (without the executable) for one call.
func (c *CLI) Args(sourcePath, outputPath string, format Format, width int) []string {
	args := append([]string{}, c.Command[1:]...)
	args = append(args, "-i", sourcePath, "-o", outputPath, "-e", string(format), "-q")
	if width > 0 {
		args = append(args, "-w", strconv.Itoa(width))
	}
	if c.Background != "" {
		args = append(args, "-b", c.Background)
	}
	if c.PuppeteerConfig != "" {
		args = append(args, "-p", c.PuppeteerConfig)
	}
	return args
}

// RenderToFile runs the renderer once. A non-zero exit yields an
// *errors.RenderError carrying the renderer's stderr.
func (c *CLI) RenderToFile(ctx context.Context, sourcePath, outputPath string, format Format, width int) error {
	if len(c.Command) == 0 {
		return errors.New(errors.ErrCodeDependencyMissing, "no renderer command configured")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Command[0], c.Args(sourcePath, outputPath, format, width)...)
	// mmdc spawns a headless browser that may outlive a killed parent.
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		diag := stderr.String()
		if diag == "" {
			diag = stdout.String()
		}
		return &errors.RenderError{Output: outputPath, Stderr: diag, Err: err}
	}
	return nil
}

var _ Renderer = (*CLI)(nil)
