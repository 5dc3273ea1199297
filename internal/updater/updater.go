package updater

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/membank-rc/membank/internal/progress"
	"github.com/membank-rc/membank/internal/prompt"
	"github.com/membank-rc/membank/internal/remote"
	"github.com/membank-rc/membank/internal/workspace"
)

// Remote is the subset of remote.Client the updater needs.
type Remote interface {
	List(ctx context.Context, dir string) ([]remote.Entry, error)
	Fetch(ctx context.Context, rel string) ([]byte, error)
}

// Phase is a step of an update run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseListingRemote
	PhaseDiffingFiles
	PhaseConfirming
	PhaseWriting
	PhaseUpdatingVersion
	PhaseDone
)

var phaseNames = [...]string{
	"idle",
	"listing-remote",
	"diffing-files",
	"confirming",
	"writing",
	"updating-version",
	"done",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Updater reconciles the extension files in a workspace with the remote
// repository.
type Updater struct {
	ws        *workspace.Workspace
	remote    Remote
	confirm   prompt.Confirmer
	printer   *progress.Printer
	logger    *slog.Logger
	now       func() time.Time
	checkOnly bool

	phase Phase
}

// Option configures an Updater.
type Option func(*Updater)

// WithConfirmer sets who approves each download. The default approves
// everything.
func WithConfirmer(c prompt.Confirmer) Option {
	return func(u *Updater) {
		u.confirm = c
	}
}

// WithPrinter sets where progress lines go.
func WithPrinter(p *progress.Printer) Option {
	return func(u *Updater) {
		u.printer = p
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(u *Updater) {
		u.logger = l
	}
}

// WithClock sets the source of the last-updated date (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(u *Updater) {
		u.now = now
	}
}

// CheckOnly makes Run report differences without prompting or writing.
func CheckOnly(check bool) Option {
	return func(u *Updater) {
		u.checkOnly = check
	}
}

// New creates an Updater for ws backed by r.
func New(ws *workspace.Workspace, r Remote, opts ...Option) *Updater {
	u := &Updater{
		ws:      ws,
		remote:  r,
		confirm: prompt.Always(true),
		printer: progress.NewPrinter(io.Discard, progress.Plain),
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Phase returns the step the updater is in.
func (u *Updater) Phase() Phase {
	return u.phase
}

func (u *Updater) enter(p Phase) {
	u.logger.Debug("update phase", "from", u.phase.String(), "to", p.String())
	u.phase = p
}
