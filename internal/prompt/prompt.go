// Package prompt asks the operator yes/no questions and choices. Code that
// needs a decision takes a Confirmer so it can run without a terminal.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Confirmer decides a yes/no question. defaultYes is the answer used when
// the operator just presses enter. A done ctx ends the question with
// ctx.Err().
type Confirmer interface {
	Confirm(ctx context.Context, question string, defaultYes bool) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(question string, defaultYes bool) bool

// Confirm calls f unless ctx is already done.
func (f ConfirmFunc) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return f(question, defaultYes), nil
}

// Always answers every question with answer.
func Always(answer bool) Confirmer {
	return ConfirmFunc(func(string, bool) bool { return answer })
}

// line is one read from the input.
type line struct {
	text string
	err  error
}

// Terminal prompts on w and reads answers from r. Reads happen on a
// background goroutine so a waiting question can be interrupted.
type Terminal struct {
	reader *bufio.Reader
	w      io.Writer

	start sync.Once
	lines chan line
	eof   bool
}

// NewTerminal returns a Terminal reading from r and writing to w.
func NewTerminal(r io.Reader, w io.Writer) *Terminal {
	return &Terminal{reader: bufio.NewReader(r), w: w, lines: make(chan line, 1)}
}

func (t *Terminal) scan() {
	for {
		s, err := t.reader.ReadString('\n')
		t.lines <- line{text: s, err: err}
		if err != nil {
			return
		}
	}
}

// readLine waits for the next input line or for ctx to be done. After end of
// input every call returns io.EOF.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	if t.eof {
		return "", io.EOF
	}
	t.start.Do(func() { go t.scan() })

	select {
	case l := <-t.lines:
		if l.err != nil {
			t.eof = true
		}
		return l.text, l.err
	case <-ctx.Done():
		fmt.Fprintln(t.w)
		return "", ctx.Err()
	}
}

// Confirm prints question with a [Y/n] or [y/N] hint. An empty answer, or
// end of input, picks the default.
func (t *Terminal) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprintf(t.w, "%s %s: ", question, hint)

	text, err := t.readLine(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	answer := strings.ToLower(strings.TrimSpace(text))
	if err != nil && answer == "" {
		fmt.Fprintln(t.w)
		return defaultYes, nil
	}

	switch answer {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ErrNoChoices is returned by Choose when there is nothing to pick.
var ErrNoChoices = errors.New("no choices")

// Choose lists items numbered from 1 and returns the 0-based index the
// operator picks. An empty answer picks the first item.
func (t *Terminal) Choose(ctx context.Context, question string, items []string) (int, error) {
	if len(items) == 0 {
		return 0, ErrNoChoices
	}

	fmt.Fprintf(t.w, "%s\n", question)
	for i, item := range items {
		fmt.Fprintf(t.w, "  %d) %s\n", i+1, item)
	}
	fmt.Fprintf(t.w, "Enter number [1-%d] (default 1): ", len(items))

	text, err := t.readLine(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}
	answer := strings.TrimSpace(text)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("reading selection: %w", err)
	}
	if answer == "" {
		return 0, nil
	}

	num, err := strconv.Atoi(answer)
	if err != nil || num < 1 || num > len(items) {
		return 0, fmt.Errorf("invalid selection %q: choose 1-%d", answer, len(items))
	}
	return num - 1, nil
}
