package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mmdrender/pkg/buildinfo"
	"github.com/matzehuels/mmdrender/pkg/cache"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "mmdrender"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The root command itself renders diagrams.
func (c *CLI) RootCommand() *cobra.Command {
	opts := rootOpts{configPath: defaultConfigPath}

	root := &cobra.Command{
		Use:   "mmdrender [diagrams...]",
		Short: "Render Mermaid diagrams to SVG and PNG",
		Long: `mmdrender renders Mermaid (.mmd) diagram sources to SVG and PNG images
using mermaid-cli, applying a shared theme from _terms.yml.

Without arguments every diagram in the source directory is rendered.
Arguments are diagram names or glob patterns ("flow", "seq*"), or paths.
A diagram named like a subcommand is given with its extension
("mmdrender cache.mmd"), since "mmdrender cache" runs the cache command.
With --watch the directory is rendered once and then kept in sync.`,
		Example: `  mmdrender
  mmdrender flow "seq*"
  mmdrender --watch
  mmdrender -s docs/diagrams -o docs/img -f svg`,
		Args:              cobra.ArbitraryArgs,
		ValidArgsFunction: completeDiagrams(&opts),
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loadDotEnv(c.Logger)
			if c.Logger.GetLevel() <= log.DebugLevel {
				registerLogHooks(c.Logger)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.configSet = cmd.Flags().Changed("config")
			return c.runRoot(cmd.Context(), args, &opts)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	opts.bind(root)

	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Cache Factory
// =============================================================================

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mmdrender/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
