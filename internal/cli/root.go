package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/membank-rc/membank/internal/branding"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	workDir  string
	logLevel string
	logJSON  bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&workDir, "directory", "C", ".", "Project directory holding the extension files")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Diagnostic log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write diagnostics as JSON")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err: err}
	})
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` installer.

Downloads the Roo Code mode rule files (.clinerules-*) into a project,
generates memory-bank/productContext.md, and keeps both in sync with the
upstream repository.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger(cmd)
	},
}

// Execute runs the root command with build info injected via ldflags.
// Errors are printed to stderr; use ExitCode to turn them into a status.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	// The first interrupt cancels the context; restoring the default handler
	// lets a second one end the process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(rootCmd, err)
	}
	return err
}

func printError(cmd *cobra.Command, err error) {
	var silent silentError
	if errors.As(err, &silent) {
		return
	}
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", red("Error:"), err)

	var usage usageError
	if errors.As(err, &usage) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Run '%s --help' for usage.\n", branding.CLIName())
	}
}
