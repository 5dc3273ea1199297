package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/membank-rc/membank/internal/config"
	"github.com/membank-rc/membank/internal/progress"
	"github.com/membank-rc/membank/internal/prompt"
	"github.com/membank-rc/membank/internal/remote"
	"github.com/membank-rc/membank/internal/retry"
	"github.com/membank-rc/membank/internal/workspace"
)

func loadSettings() (*config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return settings, nil
}

// newClient builds the remote client. Retries are announced on stderr so
// they stay visible without --log-level.
func newClient(cmd *cobra.Command, settings *config.Settings) *remote.Client {
	errOut := cmd.ErrOrStderr()
	return remote.New(*settings,
		remote.WithLogger(logger),
		remote.WithVersion(buildVersion),
		remote.WithRetryHook(func(ev retry.Event) {
			fmt.Fprintf(errOut, "Retrying (%d/%d) after %s: %s\n", ev.Attempt, ev.Of, ev.Delay, ev.Kind)
		}),
	)
}

func openWorkspace() (*workspace.Workspace, error) {
	info, err := os.Stat(workDir)
	if err != nil {
		return nil, usageError{err: fmt.Errorf("opening project directory: %w", err)}
	}
	if !info.IsDir() {
		return nil, usageError{err: fmt.Errorf("%s is not a directory", workDir)}
	}
	return workspace.Open(workDir), nil
}

func newPrinter(cmd *cobra.Command) *progress.Printer {
	out := cmd.OutOrStdout()
	caps := progress.Plain
	if out == os.Stdout {
		caps = progress.Detect()
	}
	return progress.NewPrinter(out, caps)
}

// newConfirmer accepts everything when yes is set and otherwise asks on the
// command's input.
func newConfirmer(cmd *cobra.Command, yes bool) prompt.Confirmer {
	if yes {
		return prompt.Always(true)
	}
	return prompt.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
}
