package remote

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/membank-rc/membank/internal/retry"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Entry types reported by the listing API.
const (
	TypeFile = "file"
	TypeDir  = "dir"
)

// Entry is one item of a remote directory listing.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// IsFile reports whether the entry is a regular file.
func (e Entry) IsFile() bool { return e.Type == TypeFile }

//go:embed schema/contents.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("contents.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("contents.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// ListURL returns the contents API URL for a repository directory. An empty
// dir lists the repository root.
func (c *Client) ListURL(dir string) string {
	u := fmt.Sprintf("%s/repos/%s/contents",
		strings.TrimRight(c.settings.APIBaseURL, "/"),
		c.settings.Repo,
	)
	if dir = strings.Trim(dir, "/"); dir != "" {
		u += "/" + dir
	}
	return u + "?ref=" + url.QueryEscape(c.settings.Branch)
}

// List returns the entries of a repository directory.
func (c *Client) List(ctx context.Context, dir string) ([]Entry, error) {
	listURL := c.ListURL(dir)

	header := http.Header{}
	header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		header.Set("Authorization", "token "+c.token)
	}

	body, err := retry.DoValue(ctx, c.policy(http.MethodGet, listURL), func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, listURL, header)
	})
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", dir, err)
	}

	entries, err := ParseListing(body)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", dir, err)
	}
	return entries, nil
}

// ParseListing validates a contents API response against the embedded
// schema and decodes it.
func ParseListing(data []byte) ([]Entry, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedListing, err)
	}

	if err := schema.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return nil, fmt.Errorf("%w: %s", ErrMalformedListing, firstIssue(ve))
		}
		return nil, fmt.Errorf("validating listing: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedListing, err)
	}
	return entries, nil
}

// firstIssue returns a readable description of the first leaf error.
func firstIssue(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	path := "/" + strings.Join(ve.InstanceLocation, "/")
	if ve.ErrorKind == nil {
		return path
	}
	return path + ": " + ve.ErrorKind.LocalizedString(printer)
}
