package cli

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mmdrender/pkg/artifact"
	"github.com/matzehuels/mmdrender/pkg/diagram"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for mmdrender.

Besides flags and subcommands, the scripts complete diagram names from the
configured source directory (honoring --config and --source).

To load completions:

Bash:
  $ source <(mmdrender completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ mmdrender completion bash > /etc/bash_completion.d/mmdrender
  # macOS:
  $ mmdrender completion bash > $(brew --prefix)/etc/bash_completion.d/mmdrender

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ mmdrender completion zsh > "${fpath[1]}/_mmdrender"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ mmdrender completion fish | source

  # To load completions for each session, execute once:
  $ mmdrender completion fish > ~/.config/fish/completions/mmdrender.fish

PowerShell:
  PS> mmdrender completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> mmdrender completion powershell > mmdrender.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}

// completeDiagrams offers the stems of the diagrams in the configured source
// directory, skipping those already on the command line.
func completeDiagrams(opts *rootOpts) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		quiet := newLogger(io.Discard, LogInfo)

		o := *opts
		o.configSet = cmd.Flags().Changed("config")
		cfg, err := loadConfig(ctx, quiet, &o, envconfig.OsLookuper())
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		b := &diagram.Batch{SourceDir: cfg.SourceDir, Extension: cfg.Extension, Logger: quiet}
		files, err := b.Resolve(nil)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		var names []string
		for _, f := range files {
			stem := artifact.Stem(f)
			if strings.HasPrefix(stem, toComplete) && !slices.Contains(args, stem) {
				names = append(names, stem)
			}
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}
