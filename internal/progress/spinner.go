package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

const spinnerInterval = 100 * time.Millisecond

// Spinner shows an animated message while a step runs.
// The zero value and a nil *Spinner are inert.
type Spinner struct {
	s       *spinner.Spinner
	out     io.Writer
	symbols ProgressSymbols
	message string
}

// StartSpinner starts a spinner on stderr when it is a terminal.
func StartSpinner(message string) *Spinner {
	return NewSpinner(os.Stderr, DetectTerminalCapabilities(), message).Start()
}

// NewSpinner creates a spinner writing to out. Without a TTY it writes nothing.
func NewSpinner(out io.Writer, caps TerminalCapabilities, message string) *Spinner {
	sp := &Spinner{out: out, symbols: SelectSymbols(caps), message: message}
	if caps.IsTTY {
		sp.s = spinner.New(spinner.CharSets[sp.symbols.SpinnerSet], spinnerInterval, spinner.WithWriter(out))
		sp.s.Suffix = " " + message
	}
	return sp
}

// Start begins the animation and returns the spinner.
func (sp *Spinner) Start() *Spinner {
	if sp != nil && sp.s != nil {
		sp.s.Start()
	}
	return sp
}

// Success stops the spinner and prints a checkmark line when animated.
func (sp *Spinner) Success(detail string) {
	sp.finish(sp.symbolOrEmpty(true), detail)
}

// Fail stops the spinner and prints a failure line when animated.
func (sp *Spinner) Fail(detail string) {
	sp.finish(sp.symbolOrEmpty(false), detail)
}

// Stop stops the spinner without a final line.
func (sp *Spinner) Stop() {
	if sp == nil || sp.s == nil {
		return
	}
	sp.s.Stop()
}

func (sp *Spinner) symbolOrEmpty(ok bool) string {
	if sp == nil {
		return ""
	}
	if ok {
		return sp.symbols.Checkmark
	}
	return sp.symbols.Failure
}

func (sp *Spinner) finish(symbol, detail string) {
	if sp == nil || sp.s == nil {
		return
	}
	line := fmt.Sprintf("%s %s", symbol, sp.message)
	if detail != "" {
		line = fmt.Sprintf("%s: %s", line, detail)
	}
	sp.s.FinalMSG = line + "\n"
	sp.s.Stop()
}
