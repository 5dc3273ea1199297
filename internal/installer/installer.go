// Package installer sets up the memory bank in a directory that has none:
// it downloads the required mode rule files, generates productContext.md
// from the project README and offers to ignore the new files in git.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/membank-rc/membank/internal/bank"
	"github.com/membank-rc/membank/internal/branding"
	"github.com/membank-rc/membank/internal/gitignore"
	"github.com/membank-rc/membank/internal/progress"
	"github.com/membank-rc/membank/internal/prompt"
	"github.com/membank-rc/membank/internal/remote"
	"github.com/membank-rc/membank/internal/workspace"
)

// ErrIncomplete is returned when required files are still missing after
// installing.
var ErrIncomplete = errors.New("installation incomplete")

// Downloader fetches the rule files.
type Downloader interface {
	Get(ctx context.Context, url string) ([]byte, error)
	Head(ctx context.Context, url string) error
	FileURL(rel string) string
}

// Result describes how an install ended.
type Result struct {
	// AlreadyInstalled is set when extension files were found and nothing
	// was touched.
	AlreadyInstalled bool
	// Aborted is set when the operator declined to install.
	Aborted bool

	Downloaded     []string
	ContextWritten bool
	GitignoreAdded []string
	Missing        []string
}

// Installer runs the install-extension flow.
type Installer struct {
	ws      *workspace.Workspace
	dl      Downloader
	confirm prompt.Confirmer
	printer *progress.Printer
	logger  *slog.Logger
	now     func() time.Time
	urls    map[string]string
}

// Option configures an Installer.
type Option func(*Installer)

// WithConfirmer sets who answers the install questions.
func WithConfirmer(c prompt.Confirmer) Option {
	return func(i *Installer) { i.confirm = c }
}

// WithPrinter sets where progress lines go.
func WithPrinter(p *progress.Printer) Option {
	return func(i *Installer) { i.printer = p }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Installer) { i.logger = l }
}

// WithClock sets the source of the last-updated date.
func WithClock(now func() time.Time) Option {
	return func(i *Installer) { i.now = now }
}

// WithSourceURL downloads rule from url instead of the repository default.
// An empty url keeps the default.
func WithSourceURL(rule, url string) Option {
	return func(i *Installer) {
		if url != "" {
			i.urls[rule] = url
		}
	}
}

// New creates an Installer for ws.
func New(ws *workspace.Workspace, dl Downloader, opts ...Option) *Installer {
	i := &Installer{
		ws:      ws,
		dl:      dl,
		confirm: prompt.Always(true),
		printer: progress.NewPrinter(io.Discard, progress.Plain),
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
		urls:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// SourceURL returns where rule is downloaded from.
func (i *Installer) SourceURL(rule string) string {
	if u, ok := i.urls[rule]; ok {
		return u
	}
	return i.dl.FileURL(rule)
}

// Install runs the flow. A download failure of a required file ends the
// install with an error before anything is written.
func (i *Installer) Install(ctx context.Context) (*Result, error) {
	res := &Result{}

	exists, err := bank.AnyExists(i.ws)
	if err != nil {
		return nil, err
	}
	if exists {
		i.printer.Println("Extension files already exist in this directory. Aborting installation.")
		res.AlreadyInstalled = true
		return res, nil
	}

	question := fmt.Sprintf("No %s files found. Would you like to install the extension?", branding.DisplayName())
	ok, err := i.confirm.Confirm(ctx, question, true)
	if err != nil {
		return res, err
	}
	if !ok {
		i.printer.Println("Installation aborted.")
		res.Aborted = true
		return res, nil
	}

	if err := i.checkReachable(ctx); err != nil {
		return res, err
	}

	// Everything is fetched before the first write so a failed or
	// interrupted download leaves the directory untouched.
	bodies := make(map[string][]byte, len(bank.RequiredRules))
	for _, rule := range bank.RequiredRules {
		src := i.SourceURL(rule)
		i.logger.Debug("downloading rule file", "file", rule, "url", src)

		body, err := i.dl.Get(ctx, src)
		if err != nil {
			i.printer.Fail("Error downloading %s", rule)
			return res, fmt.Errorf("downloading %s: %w", rule, err)
		}
		bodies[rule] = body
	}

	if err := i.ws.MkdirAll(bank.Dir); err != nil {
		return res, err
	}
	i.printer.OK("Created '%s' folder.", bank.Dir)

	for _, rule := range bank.RequiredRules {
		if err := i.ws.WriteFile(rule, bodies[rule]); err != nil {
			return res, err
		}
		res.Downloaded = append(res.Downloaded, rule)
		i.printer.OK("Downloaded %s.", rule)
	}

	if err := i.writeProductContext(ctx, res); err != nil {
		return res, err
	}

	missing, err := bank.Missing(i.ws)
	if err != nil {
		return res, err
	}
	if len(missing) > 0 {
		res.Missing = missing
		for _, m := range missing {
			i.printer.Fail("%s is missing.", m)
		}
		i.printer.Println("Installation encountered errors. Please check the output and try again.")
		return res, ErrIncomplete
	}
	i.printer.Println("%s extension has been successfully created in the current folder.", branding.DisplayName())

	return res, i.offerGitignore(ctx, res)
}

// checkReachable checks that the first download source answers before
// anything is written. A definite 404 or an interrupted run stops the
// install; network failures are left to the retrying downloads.
func (i *Installer) checkReachable(ctx context.Context) error {
	src := i.SourceURL(bank.RequiredRules[0])
	err := i.dl.Head(ctx, src)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, remote.ErrNotFound):
		i.printer.Fail("%s was not found on the remote.", src)
		return fmt.Errorf("checking %s: %w", src, err)
	default:
		i.printer.Warn("Could not reach %s, trying anyway.", src)
		i.logger.Warn("availability check failed", "url", src, "error", err)
		return nil
	}
}

func (i *Installer) writeProductContext(ctx context.Context, res *Result) error {
	exists, err := i.ws.Exists(bank.ProductContextPath)
	if err != nil {
		return err
	}
	if exists {
		overwrite, err := i.confirm.Confirm(ctx, bank.ProductContextPath+" already exists. Overwrite?", true)
		if err != nil {
			return err
		}
		if !overwrite {
			i.printer.Println("Skipping productContext.md creation.")
			return nil
		}
	}

	body, err := bank.RenderProductContext(bank.DescribeProject(i.ws), bank.InitialVersion, i.now())
	if err != nil {
		return err
	}
	if err := i.ws.WriteFile(bank.ProductContextPath, body); err != nil {
		return err
	}
	res.ContextWritten = true
	i.printer.OK("Created %s with project description.", bank.ProductContextPath)
	return nil
}

func (i *Installer) offerGitignore(ctx context.Context, res *Result) error {
	ok, err := i.confirm.Confirm(ctx, "Would you like to add the extension files to your .gitignore file?", true)
	if err != nil {
		return err
	}
	if !ok {
		i.printer.Println("Skipping .gitignore update.")
		return nil
	}

	added, err := gitignore.Add(i.ws, gitignore.ExtensionLines())
	if err != nil {
		return err
	}
	res.GitignoreAdded = added
	for _, l := range added {
		i.printer.OK("Added '%s' to .gitignore.", l)
	}
	i.printer.Println("Updated .gitignore.")
	return nil
}
