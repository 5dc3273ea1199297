// Package gitignore adds the extension paths to a project's .gitignore.
package gitignore

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/membank-rc/membank/internal/bank"
	"github.com/membank-rc/membank/internal/workspace"
)

// FileName is the ignore file in the workspace root.
const FileName = ".gitignore"

// ExtensionLines returns the ignore patterns for an installed memory bank.
func ExtensionLines() []string {
	return append(append([]string(nil), bank.RequiredRules...), bank.Dir+"/")
}

// Add appends each of lines to .gitignore unless an identical line is
// already present, creating the file when needed. It returns the lines that
// were added.
func Add(ws *workspace.Workspace, lines []string) ([]string, error) {
	content, err := ws.ReadFile(FileName)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	existing := make(map[string]bool)
	for _, l := range strings.Split(string(content), "\n") {
		existing[strings.TrimSpace(l)] = true
	}

	var added []string
	for _, l := range lines {
		if existing[l] {
			continue
		}
		existing[l] = true
		added = append(added, l)
	}
	if len(added) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.Write(content)
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		b.WriteString("\n")
	}
	for _, l := range added {
		b.WriteString(l + "\n")
	}

	if err := ws.WriteFile(FileName, []byte(b.String())); err != nil {
		return nil, fmt.Errorf("writing %s: %w", FileName, err)
	}
	return added, nil
}
