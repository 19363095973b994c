package commands

import "github.com/spf13/cobra"

// Completion returns the completion command for shell autocompletion.
func Completion() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for hafloat.

Bash:
  $ hafloat completion bash > /etc/bash_completion.d/hafloat

Zsh:
  $ hafloat completion zsh > "${fpath[1]}/_hafloat"

Fish:
  $ hafloat completion fish > ~/.config/fish/completions/hafloat.fish
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenBashCompletionV2(out, true)
			}
		},
	}
}
