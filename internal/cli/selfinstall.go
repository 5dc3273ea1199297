package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/membank-rc/membank/internal/prompt"
	"github.com/membank-rc/membank/internal/selfinstall"
)

var (
	selfInstallDir string
	selfInstallYes bool
)

// executable locates the running binary.
var executable = os.Executable

var selfInstallCmd = &cobra.Command{
	Use:   "self-install",
	Short: "Copy this executable into a directory on your PATH",
	Long: `Copy the running executable into --dir. Without --dir the candidates are
$GOBIN, the first $GOPATH/bin and the user bin directory
($XDG_BIN_HOME or ~/.local/bin); you are asked to pick one when there is
more than one, and --yes picks the first.

An existing binary at the target is only replaced after confirmation.`,
	Args: cobra.NoArgs,
	RunE: runSelfInstall,
}

func init() {
	selfInstallCmd.Flags().StringVar(&selfInstallDir, "dir", "", "Install into this directory")
	selfInstallCmd.Flags().BoolVarP(&selfInstallYes, "yes", "y", false, "Answer yes to every question")
	rootCmd.AddCommand(selfInstallCmd)
}

func runSelfInstall(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd)
	term := prompt.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())

	src, err := executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	dir, create := selfInstallDir, false
	if dir == "" {
		candidates := selfinstall.Candidates()
		if len(candidates) == 0 {
			return usageError{err: errors.New("no install directory found, pass --dir")}
		}
		idx := 0
		if len(candidates) > 1 && !selfInstallYes {
			idx, err = term.Choose(cmd.Context(), "Where should the executable be installed?", candidates)
			if ctxErr := cmd.Context().Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				return usageError{err: err}
			}
		}
		dir, create = candidates[idx], true
	}

	plan, err := selfinstall.Prepare(src, dir, create)
	if errors.Is(err, selfinstall.ErrSameFile) {
		p.OK("%s is already installed at %s.", cmd.Root().Name(), plan.Target)
		return nil
	}
	if err != nil {
		return err
	}

	if plan.Exists && !selfInstallYes {
		ok, err := term.Confirm(cmd.Context(), fmt.Sprintf("%s already exists. Overwrite?", plan.Target), false)
		if err != nil {
			return err
		}
		if !ok {
			p.Println("Self-install aborted.")
			return nil
		}
	}

	logger.Debug("installing executable", "source", plan.Source, "target", plan.Target)
	if err := selfinstall.Install(plan); err != nil {
		return err
	}
	p.OK("Installed %s.", plan.Target)
	if !selfinstall.OnPath(plan.Dir) {
		p.Warn("%s is not on your PATH.", plan.Dir)
	}
	return nil
}
