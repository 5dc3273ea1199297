// Package bank knows which files make up an installed memory bank: the
// .clinerules-* mode files in the project root and the notes under
// memory-bank/. It owns the version marker stored in productContext.md and
// renders that file for new installs.
package bank

import (
	"path"
	"sort"
	"strings"

	"github.com/membank-rc/membank/internal/workspace"
)

const (
	// Dir holds the memory bank notes.
	Dir = "memory-bank"
	// RulePrefix names the mode rule files in the project root.
	RulePrefix = ".clinerules-"
	// ProductContextPath is the generated note carrying the version marker.
	ProductContextPath = Dir + "/productContext.md"
)

// RequiredRules are the mode files every install must have.
var RequiredRules = []string{
	".clinerules-architect",
	".clinerules-ask",
	".clinerules-code",
}

// Required returns the files that must all exist for the extension to count
// as installed.
func Required() []string {
	return append(append([]string(nil), RequiredRules...), ProductContextPath)
}

// IsRule reports whether name is a mode rule file in the project root.
func IsRule(name string) bool {
	return !strings.Contains(name, "/") && strings.HasPrefix(name, RulePrefix) && len(name) > len(RulePrefix)
}

// IsNote reports whether rel is a file directly inside the notes directory.
func IsNote(rel string) bool {
	dir, file := path.Split(rel)
	return dir == Dir+"/" && file != ""
}

// Rules returns the required rules plus every other rule file present in
// the workspace, sorted.
func Rules(ws *workspace.Workspace) ([]string, error) {
	seen := make(map[string]bool)
	for _, r := range RequiredRules {
		seen[r] = true
	}

	names, err := ws.Files("")
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if IsRule(n) {
			seen[n] = true
		}
	}
	return sortedKeys(seen), nil
}

// Notes returns the files present under the notes directory as
// workspace-relative paths.
func Notes(ws *workspace.Workspace) ([]string, error) {
	names, err := ws.Files(Dir)
	if err != nil {
		return nil, err
	}
	notes := make([]string, 0, len(names))
	for _, n := range names {
		notes = append(notes, Dir+"/"+n)
	}
	return notes, nil
}

// Missing returns the required files absent from the workspace, in
// Required order.
func Missing(ws *workspace.Workspace) ([]string, error) {
	var missing []string
	for _, f := range Required() {
		ok, err := ws.Exists(f)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, f)
		}
	}
	return missing, nil
}

// AnyExists reports whether any required file or the notes directory is
// already present.
func AnyExists(ws *workspace.Workspace) (bool, error) {
	for _, f := range append(Required(), Dir) {
		ok, err := ws.Exists(f)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
