package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/membank-rc/membank/internal/bank"
	"github.com/membank-rc/membank/internal/progress"
	"github.com/membank-rc/membank/internal/updater"
)

var (
	updateYes   bool
	updateCheck bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Sync the installed files with the upstream repository",
	Long: `Compare the local .clinerules-* files and memory-bank notes with the
upstream repository. Changed files are updated, missing required files are
restored and new upstream files are offered for download. Every write asks
first unless --yes is given.

When anything was written the patch number of the version marker in
memory-bank/productContext.md is advanced.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "Answer yes to every question")
	updateCmd.Flags().BoolVar(&updateCheck, "check", false, "Only report what would change")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	printer := newPrinter(cmd)

	installed, err := bank.AnyExists(ws)
	if err != nil {
		return err
	}
	if !installed {
		printer.Println("The memory bank is not installed in %s.", ws.Root())
		printer.Println("Run '%s install-extension' to install it.", cmd.Root().Name())
		return nil
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	u := updater.New(ws, newClient(cmd, settings),
		updater.WithConfirmer(newConfirmer(cmd, updateYes)),
		updater.WithPrinter(printer),
		updater.WithLogger(logger),
		updater.CheckOnly(updateCheck),
	)

	report, err := u.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		printSummary(printer, report)
		return fmt.Errorf("update interrupted while %s: %w", u.Phase(), err)
	}
	if err != nil {
		return err
	}

	printSummary(printer, report)
	return nil
}

func printSummary(p *progress.Printer, r *updater.Report) {
	incomplete := len(r.Failed) > 0 || len(r.ListingErrors) > 0

	if updateCheck {
		switch {
		case len(r.Pending) > 0:
			p.Header("Pending changes:")
			for _, c := range r.Pending {
				p.Println("  %-8s %s", c.Kind, c.Path)
			}
		case !incomplete:
			p.OK("Everything is up to date.")
		}
	} else {
		switch {
		case r.UpToDate() && !incomplete:
			p.OK("Everything is up to date.")
		case r.VersionBumped:
			p.OK("Updated %s.", strings.Join(r.Written, ", "))
		}
		if len(r.Declined) > 0 {
			p.Println("Skipped: %s", strings.Join(r.Declined, ", "))
		}
	}

	if len(r.Failed) > 0 {
		p.Warn("Could not check or update: %s", strings.Join(r.Failed, ", "))
	}
	for _, err := range r.ListingErrors {
		p.Warn("Listing failed, new upstream files may be missing: %v", err)
	}
}
