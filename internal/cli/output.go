package cli

import (
	"fmt"
	"io"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// printer writes command output, honoring --quiet and --no-color.
type printer struct {
	out     io.Writer
	errOut  io.Writer
	quiet   bool
	noColor bool
}

// info prints an informational message
func (p *printer) info(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, msg)
}

// success prints a success message
func (p *printer) success(msg string) {
	if p.quiet {
		return
	}
	if p.noColor {
		fmt.Fprintf(p.out, "✓ %s\n", msg)
	} else {
		fmt.Fprintf(p.out, "%s✓%s %s\n", colorGreen, colorReset, msg)
	}
}

// warning prints a warning message
func (p *printer) warning(msg string) {
	if p.quiet {
		return
	}
	if p.noColor {
		fmt.Fprintf(p.out, "⚠ %s\n", msg)
	} else {
		fmt.Fprintf(p.out, "%s⚠%s %s\n", colorYellow, colorReset, msg)
	}
}

// errorMsg prints an error message
func (p *printer) errorMsg(msg string) {
	if p.noColor {
		fmt.Fprintf(p.errOut, "✗ %s\n", msg)
	} else {
		fmt.Fprintf(p.errOut, "%s✗%s %s\n", colorRed, colorReset, msg)
	}
}

// error prints a command error to stderr
func (p *printer) error(err error) {
	fmt.Fprintf(p.errOut, "Error: %v\n", err)
}
