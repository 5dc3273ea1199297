package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/membank-rc/membank/internal/installer"
)

var (
	installYes          bool
	installArchitectURL string
	installAskURL       string
	installCodeURL      string
)

var installCmd = &cobra.Command{
	Use:     "install-extension",
	Aliases: []string{"install"},
	Short:   "Install the memory bank into the project directory",
	Long: `Download the .clinerules-architect, .clinerules-ask and .clinerules-code
mode rules, create memory-bank/productContext.md from the project README and
offer to add the new files to .gitignore.

Nothing is touched when any extension file already exists; use 'update' to
refresh an existing install.`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "Answer yes to every question")
	installCmd.Flags().StringVar(&installArchitectURL, "architect-url", "", "Download .clinerules-architect from this URL")
	installCmd.Flags().StringVar(&installAskURL, "ask-url", "", "Download .clinerules-ask from this URL")
	installCmd.Flags().StringVar(&installCodeURL, "code-url", "", "Download .clinerules-code from this URL")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	inst := installer.New(ws, newClient(cmd, settings),
		installer.WithConfirmer(newConfirmer(cmd, installYes)),
		installer.WithPrinter(newPrinter(cmd)),
		installer.WithLogger(logger),
		installer.WithSourceURL(".clinerules-architect", installArchitectURL),
		installer.WithSourceURL(".clinerules-ask", installAskURL),
		installer.WithSourceURL(".clinerules-code", installCodeURL),
	)

	_, err = inst.Install(cmd.Context())
	if errors.Is(err, installer.ErrIncomplete) {
		return silentError{code: ExitFailure}
	}
	return err
}
