/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moamenhredeen/oasc/internal/errs"
	"github.com/moamenhredeen/oasc/internal/logger"
	"github.com/spf13/cobra"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	var (
		install bool
		path    string
	)

	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate the shell completion script",
		Long: `Print the completion script for the given shell, or install it.

Operations are read from the configured document when completing, so the
script keeps working after the document changes.

Examples:
  source <(oasc completion bash)
  oasc completion zsh --install
  oasc completion fish --install --path ~/.config/fish/completions/oasc.fish`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: completionShells,
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := args[0]

			var buf bytes.Buffer
			if err := generateCompletion(rootCmd, shell, &buf); err != nil {
				return err
			}

			if !install {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}

			target := path
			if target == "" {
				var err error
				target, err = completionPath(shell)
				if err != nil {
					return err
				}
			}
			if err := writeCompletion(target, buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completion for %s installed to: %s\n", shell, target)
			return nil
		},
	}

	cmd.Flags().BoolVar(&install, "install", false, "Write the script to the shell's completion directory")
	cmd.Flags().StringVar(&path, "path", "", "Install to this file instead of the default location")
	return cmd
}

func generateCompletion(rootCmd *cobra.Command, shell string, buf *bytes.Buffer) error {
	switch shell {
	case "bash":
		return rootCmd.GenBashCompletionV2(buf, true)
	case "zsh":
		return rootCmd.GenZshCompletion(buf)
	case "fish":
		return rootCmd.GenFishCompletion(buf, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(buf)
	default:
		return fmt.Errorf("unsupported shell: %s", shell)
	}
}

// completionPath returns where each shell picks up user completions
func completionPath(shell string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}

	switch shell {
	case "bash":
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			dataHome = filepath.Join(home, ".local", "share")
		}
		return filepath.Join(dataHome, "bash-completion", "completions", "oasc"), nil
	case "zsh":
		dir := os.Getenv("ZDOTDIR")
		if dir == "" {
			dir = home
		}
		return filepath.Join(dir, ".zfunc", "_oasc"), nil
	case "fish":
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "fish", "completions", "oasc.fish"), nil
	default:
		return "", fmt.Errorf("no default install location for %s, use --path or redirect the output", shell)
	}
}

// writeCompletion writes the script, reporting permission problems distinctly
func writeCompletion(target string, script []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return installError(target, err)
	}
	if err := os.WriteFile(target, script, 0644); err != nil {
		return installError(target, err)
	}
	logger.Info("completion installed", "path", target, "bytes", len(script))
	return nil
}

func installError(target string, err error) error {
	if os.IsPermission(err) {
		return errs.Wrap(errs.CodePermissionDenied, err,
			"permission denied writing %s; rerun with sufficient privileges or choose another --path", target)
	}
	return fmt.Errorf("failed to install completion: %w", err)
}
