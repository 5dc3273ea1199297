package bank

import (
	"strings"

	"github.com/membank-rc/membank/internal/workspace"
)

// NoDescription is used when no README yields a description.
const NoDescription = "No project description available."

// ReadmeNames are checked in order for a project description.
var ReadmeNames = []string{"README.md", "readme.md", "README.txt", "readme.txt"}

var descriptionHeaders = []string{"## Project Description", "## What it does"}

// ExtractDescription pulls a one-sentence project description out of README
// text. It reads the section after a known description header (or the whole
// text), stops at the next "##" header, joins the first two non-empty lines
// and cuts after the first period. It returns "" when nothing is found.
func ExtractDescription(readme string) string {
	body := readme
	for _, h := range descriptionHeaders {
		if _, after, ok := strings.Cut(readme, h); ok {
			body = strings.TrimSpace(after)
			break
		}
	}

	var collected []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "##") {
			break
		}
		if line != "" {
			collected = append(collected, line)
		}
		if len(collected) == 2 {
			break
		}
	}
	if len(collected) == 0 {
		return ""
	}

	candidate := strings.Join(collected, " ")
	if before, _, ok := strings.Cut(candidate, "."); ok {
		candidate = before + "."
	}
	return candidate
}

// DescribeProject returns the description from the first README in ws that
// yields one, or NoDescription.
func DescribeProject(ws *workspace.Workspace) string {
	for _, name := range ReadmeNames {
		data, err := ws.ReadFile(name)
		if err != nil {
			continue
		}
		if d := ExtractDescription(string(data)); d != "" {
			return d
		}
	}
	return NoDescription
}
