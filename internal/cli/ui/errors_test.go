package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/conduit-lang/optshim/pkg/constant"
	"github.com/conduit-lang/optshim/pkg/metadata"
	"github.com/conduit-lang/optshim/pkg/shim"
	"github.com/conduit-lang/optshim/pkg/types"
)

func TestFormat(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		msg      Message
		contains []string
		excludes []string
	}{
		{
			name:     "basic error",
			msg:      Message{Context: "callable not found", Problem: "No callable named 'pant'."},
			contains: []string{"✗ CALLABLE NOT FOUND: No callable named 'pant'."},
		},
		{
			name:     "suggestions",
			msg:      Message{Problem: "unknown", Suggestions: []string{"paint", "print"}},
			contains: []string{"Did you mean: paint, print?"},
		},
		{
			name:     "hints",
			msg:      Message{Problem: "bad", Hints: []string{"Get help: optshim --help"}},
			contains: []string{"→ Get help: optshim --help"},
		},
		{
			name:     "warning without context",
			msg:      Message{Level: LevelWarning, Problem: "no callables"},
			contains: []string{"! no callables"},
			excludes: []string{"Did you mean"},
		},
		{
			name:     "info",
			msg:      Message{Level: LevelInfo, Problem: "loaded", Detail: "3 callables"},
			contains: []string{"i loaded", "   3 callables"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.msg.NoColor = true
			out := Format(tt.msg)
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("expected output to contain %q, got:\n%s", s, out)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(out, s) {
					t.Errorf("expected output not to contain %q, got:\n%s", s, out)
				}
			}
		})
	}
}

func TestWriteAndSuccess(t *testing.T) {
	var buf bytes.Buffer
	Write(&buf, Message{Problem: "oops", NoColor: true})
	if !strings.Contains(buf.String(), "oops") {
		t.Errorf("Write did not write the message: %q", buf.String())
	}

	buf.Reset()
	WriteSuccess(&buf, "all trampolines built", true)
	if got := buf.String(); got != "✓ all trampolines built\n" {
		t.Errorf("unexpected success output %q", got)
	}
}

func TestCallableNotFound(t *testing.T) {
	out := CallableNotFound("Widget.ctr", []string{"Widget.ctor", "Point.ctor", "paint"}, true)
	if !strings.Contains(out, "Did you mean: Widget.ctor?") {
		t.Errorf("expected suggestion, got:\n%s", out)
	}
	if !strings.Contains(out, "optshim check") {
		t.Errorf("expected hint, got:\n%s", out)
	}
}

func TestBuildFailure(t *testing.T) {
	target := &metadata.Callable{
		Name:   "f",
		Static: true,
		Params: []metadata.Param{
			{Name: "narrow", Type: types.Int16Type, HasDefault: true, Default: constant.UInt32(70000)},
		},
	}
	_, err := shim.CreateTrampoline(target, metadata.NewSignature(nil))
	if err == nil {
		t.Fatal("expected build error")
	}

	out := BuildFailure("f", err, true)
	for _, s := range []string{"S004 INVALID ENCODING: f", "uint32(70000)", "Fix the recorded default of parameter narrow (int16)"} {
		if !strings.Contains(out, s) {
			t.Errorf("expected output to contain %q, got:\n%s", s, out)
		}
	}

	out = BuildFailure("g", errors.New("boom"), true)
	if !strings.Contains(out, "BUILD FAILED: g") || !strings.Contains(out, "boom") {
		t.Errorf("unexpected plain failure output:\n%s", out)
	}
}

func TestConfigErrorAndWarning(t *testing.T) {
	if out := ConfigError("bad driver", true); !strings.Contains(out, "CONFIGURATION ERROR: bad driver") {
		t.Errorf("unexpected config error:\n%s", out)
	}
	if out := Warning("careful", true); !strings.HasPrefix(out, "! careful") {
		t.Errorf("unexpected warning:\n%s", out)
	}
	if out := Info("note", true); !strings.HasPrefix(out, "i note") {
		t.Errorf("unexpected info:\n%s", out)
	}
}
