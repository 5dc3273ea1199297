package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/membank-rc/membank/internal/bank"
	"github.com/membank-rc/membank/internal/progress"
	"github.com/membank-rc/membank/internal/retry"
)

var statusOffline bool

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"doctor"},
	Short:   "Check the installed files and the upstream connection",
	Long: `List every required file with its state, show the version marker from
memory-bank/productContext.md and check that the upstream repository
answers. Exits with status 1 when a required file is missing.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusOffline, "offline", false, "Skip the upstream reachability check")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	p := newPrinter(cmd)

	p.Header("Files in %s:", ws.Root())
	incomplete := false
	for _, rel := range bank.Required() {
		ok, err := ws.Exists(rel)
		if err != nil {
			return err
		}
		if ok {
			p.OK("%s", rel)
		} else {
			p.Fail("%s", rel)
			incomplete = true
		}
	}

	p.Header("Version:")
	if content, err := ws.ReadFile(bank.ProductContextPath); err == nil {
		v, err := bank.ReadMarker(string(content))
		switch {
		case errors.Is(err, bank.ErrNoMarker):
			p.Warn("No version marker in %s", bank.ProductContextPath)
		case err != nil:
			p.Warn("Unreadable version marker: %v", err)
		default:
			p.OK("%s", v)
		}
	} else {
		p.Warn("Unknown, %s is missing", bank.ProductContextPath)
	}

	if !statusOffline {
		p.Header("Upstream:")
		checkUpstream(cmd, p)
	}

	if incomplete {
		p.Println("")
		p.Println("Run '%s update' to restore missing files, or '%s install-extension' in an empty project.",
			cmd.Root().Name(), cmd.Root().Name())
		return silentError{code: ExitFailure}
	}
	return nil
}

func checkUpstream(cmd *cobra.Command, p *progress.Printer) {
	settings, err := loadSettings()
	if err != nil {
		p.Fail("%v", err)
		return
	}
	client := newClient(cmd, settings)
	url := client.FileURL(bank.RequiredRules[0])
	if err := client.Head(cmd.Context(), url); err != nil {
		p.Fail("Upstream is not reachable (%s): %v", retry.Classify(err), err)
		logger.Debug("reachability check failed", "url", url, "error", err)
		return
	}
	p.OK("%s is reachable", url)
}
