package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/optshim/pkg/shim"
)

// Level is the severity of a message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message describes a diagnostic block
type Message struct {
	Level       Level
	Context     string
	Problem     string
	Detail      string
	Suggestions []string
	Hints       []string
	NoColor     bool
}

// Format renders a diagnostic block.
//
// Example output:
//
//	✗ S004 INVALID ENCODING: paint
//	   could not convert default value uint32(70000) of type uint32 to the type of parameter narrow (int16)
//
//	   → List callables: optshim check
func Format(m Message) string {
	var b strings.Builder

	var header, body *color.Color
	var symbol string
	switch m.Level {
	case LevelWarning:
		header, body, symbol = color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "!"
	case LevelInfo:
		header, body, symbol = color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "i"
	default:
		header, body, symbol = color.New(color.FgRed, color.Bold), color.New(color.FgRed), "✗"
	}
	if m.NoColor {
		header.DisableColor()
		body.DisableColor()
	}

	if m.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(m.Context), m.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, m.Problem)
	}

	if m.Detail != "" {
		body.Fprintf(&b, "   %s\n", m.Detail)
	}

	if len(m.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		if m.NoColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}

	if len(m.Hints) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		if m.NoColor {
			cyan.DisableColor()
		}
		for _, hint := range m.Hints {
			cyan.Fprintf(&b, "   → %s\n", hint)
		}
	}

	return b.String()
}

// Write writes a formatted diagnostic block to w
func Write(w io.Writer, m Message) {
	fmt.Fprint(w, Format(m))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to w
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// CallableNotFound reports an unknown callable name with close matches.
func CallableNotFound(name string, known []string, noColor bool) string {
	return Format(Message{
		Context:     "callable not found",
		Problem:     fmt.Sprintf("No callable named '%s'.", name),
		Suggestions: FindSimilar(name, known, nil),
		Hints:       []string{"List callables: optshim check"},
		NoColor:     noColor,
	})
}

// BuildFailure reports a trampoline build error. Errors that are not build errors are
// rendered as plain failures.
func BuildFailure(callable string, err error, noColor bool) string {
	m := Message{
		Context: "build failed",
		Problem: callable,
		Detail:  err.Error(),
		NoColor: noColor,
	}
	var e *shim.Error
	if errors.As(err, &e) {
		m.Context = e.Code + " " + e.Kind.Error()
		m.Detail = e.Message
		if e.Param != nil && e.Kind == shim.ErrInvalidEncoding {
			m.Hints = []string{fmt.Sprintf("Fix the recorded default of %s", e.Param)}
		}
	}
	return Format(m)
}

// ConfigError reports a configuration problem
func ConfigError(message string, noColor bool) string {
	return Format(Message{
		Context: "configuration error",
		Problem: message,
		Hints:   []string{"View config: cat optshim.yaml", "Get help: optshim --help"},
		NoColor: noColor,
	})
}

// Warning creates a warning message
func Warning(message string, noColor bool) string {
	return Format(Message{Level: LevelWarning, Problem: message, NoColor: noColor})
}

// Info creates an info message
func Info(message string, noColor bool) string {
	return Format(Message{Level: LevelInfo, Problem: message, NoColor: noColor})
}
