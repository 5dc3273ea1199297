package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/membank-rc/membank/internal/bank"
	"github.com/membank-rc/membank/internal/remote"
	"github.com/membank-rc/membank/internal/retry"
)

// ChangeKind says why a file is offered for download.
type ChangeKind int

const (
	// KindMissing is a required rule file absent locally.
	KindMissing ChangeKind = iota
	// KindNew is a remote file the workspace does not track yet.
	KindNew
	// KindChanged is a tracked file whose remote content differs.
	KindChanged
)

func (k ChangeKind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNew:
		return "new"
	case KindChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// Change is a file the run wants to write.
type Change struct {
	Path string
	Kind ChangeKind
	// content is set once the remote body has been fetched.
	content []byte
}

// Run lists the remote, diffs it against the workspace, writes the approved
// changes and advances the version marker if anything was written.
func (u *Updater) Run(ctx context.Context) (*Report, error) {
	u.phase = PhaseIdle
	report := &Report{}

	u.enter(PhaseListingRemote)
	candidates := u.listCandidates(ctx, report)

	u.enter(PhaseDiffingFiles)
	changes, err := u.diff(ctx, candidates, report)
	if err != nil {
		return report, err
	}

	if u.checkOnly {
		report.Pending = changes
		u.enter(PhaseDone)
		return report, nil
	}

	// An interrupted run stops asking, but files already written still
	// advance the marker.
	var interrupted error
	for _, c := range changes {
		if interrupted = ctx.Err(); interrupted != nil {
			break
		}
		if interrupted = u.apply(ctx, c, report); interrupted != nil {
			break
		}
	}

	at := u.phase
	if len(report.Written) > 0 {
		u.enter(PhaseUpdatingVersion)
		if err := u.bumpVersion(report); err != nil {
			return report, errors.Join(interrupted, err)
		}
	}
	if interrupted != nil {
		// Phase reports where the run was stopped.
		u.phase = at
		return report, interrupted
	}

	u.enter(PhaseDone)
	return report, nil
}

// listCandidates returns the remote rule files in the repository root and
// the files of the remote notes directory. A failed listing contributes
// nothing.
func (u *Updater) listCandidates(ctx context.Context, report *Report) []string {
	stop := u.printer.Spin("Listing remote files...")
	defer stop()

	seen := make(map[string]bool)

	root, err := u.remote.List(ctx, "")
	if err != nil {
		report.ListingErrors = append(report.ListingErrors, err)
		u.logger.Warn("remote listing failed", "dir", "/", "kind", retry.Classify(err).String(), "error", err)
	}
	for _, e := range root {
		if e.IsFile() && bank.IsRule(e.Name) {
			seen[e.Name] = true
		}
	}

	notes, err := u.remote.List(ctx, bank.Dir)
	switch {
	case errors.Is(err, remote.ErrNotFound):
		// Most upstream layouts have no notes directory.
		u.logger.Debug("no remote notes directory", "dir", bank.Dir)
	case err != nil:
		report.ListingErrors = append(report.ListingErrors, err)
		u.logger.Warn("remote listing failed", "dir", bank.Dir, "kind", retry.Classify(err).String(), "error", err)
	}
	for _, e := range notes {
		rel := bank.Dir + "/" + e.Name
		if e.IsFile() && bank.IsNote(rel) && rel != bank.ProductContextPath {
			seen[rel] = true
		}
	}

	out := make([]string, 0, len(seen))
	for rel := range seen {
		out = append(out, rel)
	}
	sort.Strings(out)
	u.logger.Debug("remote candidates", "count", len(out))
	return out
}

// diff classifies every file the run may write. Missing required rules come
// first, then new files, then changed ones.
func (u *Updater) diff(ctx context.Context, candidates []string, report *Report) ([]Change, error) {
	rules, err := bank.Rules(u.ws)
	if err != nil {
		return nil, err
	}
	notes, err := bank.Notes(u.ws)
	if err != nil {
		return nil, err
	}

	expected := make(map[string]bool)
	for _, r := range rules {
		expected[r] = true
	}
	for _, n := range notes {
		expected[n] = true
	}
	expected[bank.ProductContextPath] = true

	remoteHas := make(map[string]bool)
	for _, c := range candidates {
		remoteHas[c] = true
	}

	var missing, added, changed []Change

	for _, r := range bank.RequiredRules {
		ok, err := u.ws.Exists(r)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, Change{Path: r, Kind: KindMissing})
		}
	}

	for _, c := range candidates {
		if !expected[c] {
			added = append(added, Change{Path: c, Kind: KindNew})
		}
	}

	// Tracked files that exist locally and have a remote counterpart. The
	// required rules are always compared so a failed listing still updates
	// them.
	required := make(map[string]bool)
	for _, r := range bank.RequiredRules {
		required[r] = true
	}
	var tracked []string
	for _, r := range rules {
		if !required[r] && !remoteHas[r] {
			continue
		}
		ok, err := u.ws.Exists(r)
		if err != nil {
			return nil, err
		}
		if ok {
			tracked = append(tracked, r)
		}
	}
	for _, n := range notes {
		if n != bank.ProductContextPath && remoteHas[n] {
			tracked = append(tracked, n)
		}
	}

	for _, rel := range tracked {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		local, err := u.ws.ReadFile(rel)
		if err != nil {
			return nil, err
		}
		body, err := u.remote.Fetch(ctx, rel)
		if err != nil {
			u.fetchFailed(rel, err, report)
			continue
		}

		if bytes.Equal(local, body) {
			report.Unchanged = append(report.Unchanged, rel)
			continue
		}
		changed = append(changed, Change{Path: rel, Kind: KindChanged, content: body})
	}

	for _, set := range [][]Change{missing, added, changed} {
		for _, c := range set {
			report.record(c)
		}
	}

	return append(append(missing, added...), changed...), nil
}

// apply asks about one change and writes it when approved. Only an
// interrupted run is returned as an error; per-file failures go to report.
func (u *Updater) apply(ctx context.Context, c Change, report *Report) error {
	u.enter(PhaseConfirming)
	ok, err := u.confirm.Confirm(ctx, question(c), true)
	if err != nil {
		return err
	}
	if !ok {
		report.Declined = append(report.Declined, c.Path)
		u.printer.Println("Skipped %s.", c.Path)
		return nil
	}

	u.enter(PhaseWriting)
	if err := ctx.Err(); err != nil {
		return err
	}
	body := c.content
	if body == nil {
		body, err = u.remote.Fetch(ctx, c.Path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			u.fetchFailed(c.Path, err, report)
			return nil
		}
	}

	if err := u.ws.WriteFile(c.Path, body); err != nil {
		report.Failed = append(report.Failed, c.Path)
		u.printer.Fail("Could not write %s: %v", c.Path, err)
		u.logger.Error("write failed", "path", c.Path, "error", err)
		return nil
	}

	report.Written = append(report.Written, c.Path)
	switch c.Kind {
	case KindChanged:
		u.printer.OK("Updated %s", c.Path)
	default:
		u.printer.OK("Downloaded %s", c.Path)
	}
	return nil
}

func (u *Updater) fetchFailed(rel string, err error, report *Report) {
	report.Failed = append(report.Failed, rel)
	kind := retry.Classify(err)
	u.printer.Fail("Could not fetch %s: %s", rel, kind)
	u.logger.Warn("fetch failed", "path", rel, "kind", kind.String(), "error", err)
}

// bumpVersion advances the marker in productContext.md by one patch. A
// missing file is regenerated; a missing or malformed marker counts as 0.0.0.
func (u *Updater) bumpVersion(report *Report) error {
	now := u.now()

	ok, err := u.ws.Exists(bank.ProductContextPath)
	if err != nil {
		return err
	}

	var out []byte
	if !ok {
		report.PreviousVersion = bank.Version{}
		report.Version = report.PreviousVersion.IncrementPatch()
		out, err = bank.RenderProductContext(bank.DescribeProject(u.ws), report.Version, now)
		if err != nil {
			return err
		}
	} else {
		content, err := u.ws.ReadFile(bank.ProductContextPath)
		if err != nil {
			return err
		}
		prev, err := bank.ReadMarker(string(content))
		if err != nil {
			u.logger.Warn("version marker unreadable, starting from zero", "error", err)
		}
		report.PreviousVersion = prev
		report.Version = prev.IncrementPatch()
		out = []byte(bank.StampMarker(string(content), report.Version, now))
	}

	if err := u.ws.WriteFile(bank.ProductContextPath, out); err != nil {
		return fmt.Errorf("updating version marker: %w", err)
	}
	report.VersionBumped = true
	u.printer.OK("Version %s -> %s", report.PreviousVersion, report.Version)
	return nil
}

func question(c Change) string {
	switch c.Kind {
	case KindMissing:
		return fmt.Sprintf("Required file %s is missing. Download it?", c.Path)
	case KindNew:
		return fmt.Sprintf("New file %s is available. Download it?", c.Path)
	default:
		return fmt.Sprintf("%s has changed upstream. Update it?", c.Path)
	}
}
