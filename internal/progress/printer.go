package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Printer writes status lines to an output stream.
type Printer struct {
	w       io.Writer
	caps    Capabilities
	symbols Symbols

	green  func(a ...interface{}) string
	red    func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer, caps Capabilities) *Printer {
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if caps.SupportsColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}

	return &Printer{
		w:       w,
		caps:    caps,
		symbols: SelectSymbols(caps),
		green:   mk(color.FgGreen, color.Bold),
		red:     mk(color.FgRed, color.Bold),
		yellow:  mk(color.FgYellow),
		cyan:    mk(color.FgCyan),
	}
}

// Println writes an unmarked line.
func (p *Printer) Println(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// OK writes a line marked as successful.
func (p *Printer) OK(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "  %s %s\n", p.green(p.symbols.OK), fmt.Sprintf(format, args...))
}

// Fail writes a line marked as failed.
func (p *Printer) Fail(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "  %s %s\n", p.red(p.symbols.Fail), fmt.Sprintf(format, args...))
}

// Warn writes a line marked as a warning.
func (p *Printer) Warn(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "  %s %s\n", p.yellow(p.symbols.Warn), fmt.Sprintf(format, args...))
}

// Header writes a highlighted section title.
func (p *Printer) Header(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s\n", p.cyan(fmt.Sprintf(format, args...)))
}

// Spin shows a spinner with msg until the returned stop function is called.
// Nothing is drawn unless the output is a terminal.
func (p *Printer) Spin(msg string) (stop func()) {
	if !p.caps.IsTTY {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[p.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(p.w))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}
