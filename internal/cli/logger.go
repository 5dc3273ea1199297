package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/membank-rc/membank/internal/branding"
)

var logger = slog.New(slog.DiscardHandler)

// setupLogger builds the diagnostics logger from --log-level and --log-json.
// Flags set on the command line win over MEMBANK_LOG_LEVEL and
// MEMBANK_LOG_JSON.
func setupLogger(cmd *cobra.Command) error {
	level := logLevel
	if !cmd.Flags().Changed("log-level") {
		if v := os.Getenv(branding.EnvVar("LOG_LEVEL")); v != "" {
			level = v
		}
	}
	asJSON := logJSON
	if !cmd.Flags().Changed("log-json") {
		if v := os.Getenv(branding.EnvVar("LOG_JSON")); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return usageError{err: fmt.Errorf("invalid %s %q: %w", branding.EnvVar("LOG_JSON"), v, err)}
			}
			asJSON = b
		}
	}

	l, err := newLogger(cmd.ErrOrStderr(), level, asJSON)
	if err != nil {
		return usageError{err: err}
	}
	logger = l
	return nil
}

func newLogger(w io.Writer, level string, asJSON bool) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if asJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q (want debug, info, warn or error)", level)
	}
}
