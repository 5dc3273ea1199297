package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/membank-rc/membank/internal/config"
	"github.com/membank-rc/membank/internal/retry"
)

// Process exit codes.
const (
	ExitSuccess          = 0
	ExitFailure          = 1
	ExitRetriesExhausted = 2
	ExitInvalidArguments = 3
	// ExitInterrupted follows the shell convention for SIGINT.
	ExitInterrupted = 130
)

// usageError marks bad flags, arguments or settings.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

// silentError ends the command with a failure status after the command has
// already reported why.
type silentError struct {
	code int
}

func (e silentError) Error() string { return "exit status" }

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var silent silentError
	if errors.As(err, &silent) {
		return silent.code
	}

	var usage usageError
	var invalid *config.ValidationError
	switch {
	case errors.As(err, &usage), errors.As(err, &invalid):
		return ExitInvalidArguments
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, retry.ErrExhausted):
		return ExitRetriesExhausted
	default:
		return ExitFailure
	}
}

// exactArgs is cobra.ExactArgs reporting a usageError.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}
