package cli

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mmdrender/pkg/artifact"
	"github.com/matzehuels/mmdrender/pkg/cache"
	"github.com/matzehuels/mmdrender/pkg/config"
	"github.com/matzehuels/mmdrender/pkg/diagram"
	"github.com/matzehuels/mmdrender/pkg/errors"
	"github.com/matzehuels/mmdrender/pkg/mermaid"
	"github.com/matzehuels/mmdrender/pkg/theme"
)

const defaultConfigPath = config.DefaultFile

// rootOpts holds the command-line flags for the root command.
type rootOpts struct {
	watch      bool
	configPath string
	configSet  bool // --config given explicitly
	source     string
	output     string
	terms      string
	formats    string
	noCache    bool
}

func (o *rootOpts) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVarP(&o.watch, "watch", "w", false, "render everything, then re-render on change")
	f.StringVarP(&o.configPath, "config", "c", o.configPath, "project config file")
	f.StringVarP(&o.source, "source", "s", "", "diagram source directory")
	f.StringVarP(&o.output, "output", "o", "", "artifact directory (default: source directory)")
	f.StringVar(&o.terms, "terms", "", "YAML document holding the theme fragment")
	f.StringVarP(&o.formats, "format", "f", "", "output format(s): svg, png (comma-separated)")
	f.BoolVar(&o.noCache, "no-cache", false, "disable the render cache")
}

// loadDotEnv loads .env from the working directory when present.
func loadDotEnv(logger *log.Logger) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not load .env", "err", err)
	}
}

// loadConfig layers defaults, the config file, the environment, and flags.
func loadConfig(ctx context.Context, logger *log.Logger, opts *rootOpts, lookuper envconfig.Lookuper) (config.Config, error) {
	cfg, found, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if !found && opts.configSet {
		return cfg, errors.New(errors.ErrCodeConfigNotFound, "config file %s not found", opts.configPath)
	}
	if found {
		logger.Debug("loaded config", "file", opts.configPath)
	}

	if err := cfg.ApplyEnv(ctx, lookuper); err != nil {
		return cfg, err
	}

	if opts.source != "" {
		cfg.SourceDir = opts.source
	}
	if opts.output != "" {
		cfg.OutputDir = opts.output
	}
	if opts.terms != "" {
		cfg.TermsFile = opts.terms
	}
	if formats := config.ParseFormats(opts.formats); formats != nil {
		cfg.Formats = formats
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// pipeline is everything a render needs, built from one Config.
type pipeline struct {
	cfg      config.Config
	mermaid  *mermaid.CLI
	renderer *diagram.Renderer
	cache    cache.Cache
}

func (p *pipeline) Close() error { return p.cache.Close() }

func buildPipeline(logger *log.Logger, cfg config.Config, noCache bool) (*pipeline, error) {
	mm := mermaid.NewCLI(cfg.Renderer)
	mm.Background = cfg.Background
	mm.PuppeteerConfig = cfg.PuppeteerConfig
	mm.Timeout = cfg.Timeout.Duration

	directive := theme.LoadOrDefault(logger, cfg.TermsFile, cfg.ThemeKey)
	if directive == "" {
		directive = mermaid.LayoutDirective(cfg.Layout)
	}

	c, err := newCache(noCache)
	if err != nil {
		logger.Warn("render cache disabled", "err", err)
		c = cache.NewNullCache()
	}

	variants := make([]artifact.Variant, len(cfg.Variants))
	for i, v := range cfg.Variants {
		variants[i] = artifact.Variant{Suffix: v.Suffix, Width: v.Width}
	}
	formats := make([]mermaid.Format, len(cfg.Formats))
	for i, f := range cfg.Formats {
		formats[i] = mermaid.Format(f)
	}

	return &pipeline{
		cfg:     cfg,
		mermaid: mm,
		cache:   c,
		renderer: &diagram.Renderer{
			Mermaid:  mm,
			Layout:   artifact.Layout{Dir: cfg.Output(), Variants: variants},
			Init:     directive,
			Formats:  formats,
			Cache:    c,
			Identity: []string{strings.Join(cfg.Renderer, " "), cfg.Background, cfg.PuppeteerConfig},
			Logger:   logger,
		},
	}, nil
}

func (p *pipeline) batch(logger *log.Logger, rep diagram.Reporter) *diagram.Batch {
	return &diagram.Batch{
		Renderer:  p.renderer,
		SourceDir: p.cfg.SourceDir,
		Extension: p.cfg.Extension,
		Reporter:  rep,
		Logger:    logger,
	}
}

// runRoot dispatches to batch or watch mode.
func (c *CLI) runRoot(ctx context.Context, args []string, opts *rootOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(ctx, logger, opts, envconfig.OsLookuper())
	if err != nil {
		return err
	}
	p, err := buildPipeline(logger, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer p.Close()

	if opts.watch {
		if len(args) > 0 {
			logger.Warn("diagram arguments are ignored in watch mode")
		}
		return runWatch(ctx, logger, p)
	}
	return runBatch(ctx, logger, p, args)
}
