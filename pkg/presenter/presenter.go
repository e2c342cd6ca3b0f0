// Package presenter prints what oac commands have to tell the user: status
// lines, the fidelity notes of a conversion, validation violations and
// diffs. Problems go to stderr and are never silenced; everything else goes
// to stdout and is suppressed in quiet mode.
package presenter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/openagents-control/oac/pkg/schema"
)

// Presenter is the output surface used by the oac commands
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	ConversionReport(label string, warnings, errs []string)
	Violations(err error)
	Diff(diff string)
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// ColorMode selects whether output is colored
type ColorMode int

const (
	// ColorAuto leaves the decision to the terminal detection of fatih/color
	ColorAuto ColorMode = iota
	// ColorAlways forces colors
	ColorAlways
	// ColorNever disables colors
	ColorNever
)

type palette struct {
	failure *color.Color
	success *color.Color
	warning *color.Color
	note    *color.Color
	added   *color.Color
	removed *color.Color
	hunk    *color.Color
	file    *color.Color
}

func newPalette() palette {
	return palette{
		failure: color.New(color.FgRed, color.Bold),
		success: color.New(color.FgGreen, color.Bold),
		warning: color.New(color.FgYellow, color.Bold),
		note:    color.New(color.FgYellow),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
		hunk:    color.New(color.FgCyan),
		file:    color.New(color.Bold),
	}
}

// Terminal writes to a pair of streams
type Terminal struct {
	stdout    io.Writer
	stderr    io.Writer
	colorMode ColorMode
	quiet     bool
	colors    palette
}

// New returns a Terminal on os.Stdout and os.Stderr with the color mode
// taken from NO_COLOR and OAC_COLOR.
func New() *Terminal {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions returns a Terminal on the given streams. ColorAlways and
// ColorNever override fatih/color globally.
func NewWithOptions(stdout, stderr io.Writer, colorMode ColorMode) *Terminal {
	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}
	return &Terminal{
		stdout:    stdout,
		stderr:    stderr,
		colorMode: colorMode,
		colors:    newPalette(),
	}
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}
	switch os.Getenv("OAC_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	}
	return ColorAuto
}

// Error prints err, prefixed with context when one is given
func (t *Terminal) Error(err error, context string) {
	if err == nil {
		return
	}
	if context != "" {
		t.colors.failure.Fprintf(t.stderr, "[ERROR] %s: %v\n", context, err)
		return
	}
	t.colors.failure.Fprintf(t.stderr, "[ERROR] %v\n", err)
}

func (t *Terminal) Success(message string) {
	if !t.quiet {
		t.colors.success.Fprintf(t.stdout, "✓ %s\n", message)
	}
}

func (t *Terminal) Warning(message string) {
	if !t.quiet {
		t.colors.warning.Fprintf(t.stdout, "⚠ %s\n", message)
	}
}

func (t *Terminal) Info(message string) {
	if !t.quiet {
		fmt.Fprintln(t.stdout, message)
	}
}

// ConversionReport prints the warnings and errors of one conversion, each
// prefixed with label. Errors are printed even in quiet mode.
func (t *Terminal) ConversionReport(label string, warnings, errs []string) {
	for _, e := range errs {
		t.colors.removed.Fprintf(t.stderr, "  ✗ %s: %s\n", label, e)
	}
	if t.quiet {
		return
	}
	for _, w := range warnings {
		t.colors.note.Fprintf(t.stdout, "  ⚠ %s: %s\n", label, w)
	}
}

// Violations prints every violation of a *schema.ValidationError found in
// err's chain, one per line. Other errors are printed as by Error.
func (t *Terminal) Violations(err error) {
	if err == nil {
		return
	}

	var ve *schema.ValidationError
	if !errors.As(err, &ve) {
		t.Error(err, "")
		return
	}

	subject := ve.Path
	if subject == "" {
		subject = "invalid agent"
	}
	t.colors.failure.Fprintf(t.stderr, "[INVALID] %s\n", subject)
	for _, v := range ve.Violations {
		fmt.Fprintf(t.stderr, "  - %s\n", v)
	}
}

// Diff prints a unified diff with added and removed lines colored. It is
// requested output, so quiet mode does not suppress it.
func (t *Terminal) Diff(diff string) {
	scanner := bufio.NewScanner(strings.NewReader(diff))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			t.colors.file.Fprintln(t.stdout, line)
		case strings.HasPrefix(line, "@@"):
			t.colors.hunk.Fprintln(t.stdout, line)
		case strings.HasPrefix(line, "+"):
			t.colors.added.Fprintln(t.stdout, line)
		case strings.HasPrefix(line, "-"):
			t.colors.removed.Fprintln(t.stdout, line)
		default:
			fmt.Fprintln(t.stdout, line)
		}
	}
}

func (t *Terminal) SetQuiet(quiet bool) { t.quiet = quiet }

func (t *Terminal) IsQuiet() bool { return t.quiet }

var defaultPresenter Presenter = New()

// Error prints to the default presenter
func Error(err error, context string) { defaultPresenter.Error(err, context) }

// Success prints to the default presenter
func Success(message string) { defaultPresenter.Success(message) }

// Warning prints to the default presenter
func Warning(message string) { defaultPresenter.Warning(message) }

// Info prints to the default presenter
func Info(message string) { defaultPresenter.Info(message) }

// ConversionReport prints to the default presenter
func ConversionReport(label string, warnings, errs []string) {
	defaultPresenter.ConversionReport(label, warnings, errs)
}

// Violations prints to the default presenter
func Violations(err error) { defaultPresenter.Violations(err) }

// Diff prints to the default presenter
func Diff(diff string) { defaultPresenter.Diff(diff) }

// SetQuiet toggles quiet mode of the default presenter
func SetQuiet(quiet bool) { defaultPresenter.SetQuiet(quiet) }

// IsQuiet reports whether the default presenter is quiet
func IsQuiet() bool { return defaultPresenter.IsQuiet() }
