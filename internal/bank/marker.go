package bank

import (
	"errors"
	"strings"
	"time"
)

const (
	versionPrefix = "Version:"
	updatedPrefix = "Last Updated:"
	versionHeader = "## Version"
	dateLayout    = "2006-01-02"
)

// ErrNoMarker is returned when productContext.md has no version line.
var ErrNoMarker = errors.New("no version marker")

// ReadMarker returns the version recorded in a productContext.md body. A
// missing or malformed marker returns the zero Version with an error.
func ReadMarker(content string) (Version, error) {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, versionPrefix) {
			return ParseVersion(strings.TrimPrefix(trimmed, versionPrefix))
		}
	}
	return Version{}, ErrNoMarker
}

// StampMarker rewrites the version and last-updated lines of content in
// place. When content has no version line a version section is appended.
func StampMarker(content string, v Version, date time.Time) string {
	versionLine := versionPrefix + " " + v.String()
	updatedLine := updatedPrefix + " " + date.Format(dateLayout)

	lines := strings.Split(content, "\n")
	versionAt, updatedAt := -1, -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case versionAt < 0 && strings.HasPrefix(trimmed, versionPrefix):
			versionAt = i
		case updatedAt < 0 && strings.HasPrefix(trimmed, updatedPrefix):
			updatedAt = i
		}
	}

	if versionAt < 0 {
		var b strings.Builder
		b.WriteString(content)
		if content != "" && !strings.HasSuffix(content, "\n") {
			b.WriteString("\n")
		}
		if content != "" {
			b.WriteString("\n")
		}
		b.WriteString(versionHeader + "\n" + versionLine + "\n" + updatedLine + "\n")
		return b.String()
	}

	lines[versionAt] = versionLine
	if updatedAt >= 0 {
		lines[updatedAt] = updatedLine
		return strings.Join(lines, "\n")
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:versionAt+1]...)
	out = append(out, updatedLine)
	out = append(out, lines[versionAt+1:]...)
	return strings.Join(out, "\n")
}
