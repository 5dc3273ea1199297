package bank

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/productContext.md.tmpl
var productContextTmpl string

var productContext = template.Must(template.New("productContext").Parse(productContextTmpl))

// InitialVersion is the marker written by a fresh install.
var InitialVersion = NewVersion(0, 0, 1)

// ContextData holds the template variables for productContext.md.
type ContextData struct {
	Description string
	Version     string
	Date        string
}

// RenderProductContext renders a fresh productContext.md.
func RenderProductContext(description string, v Version, date time.Time) ([]byte, error) {
	if strings.TrimSpace(description) == "" {
		description = NoDescription
	}

	var buf bytes.Buffer
	err := productContext.Execute(&buf, ContextData{
		Description: description,
		Version:     v.String(),
		Date:        date.Format(dateLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering product context: %w", err)
	}
	return buf.Bytes(), nil
}
