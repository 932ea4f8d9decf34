package fmedia

import (
	"errors"
	"testing"
)

func TestMatchesNotFound_DefaultPatterns(t *testing.T) {
	inv := NewInvoker("fmedia", nil)

	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{"empty output", "", false},
		{"unrelated error", "error: cannot open device", false},
		{"pipe not found", "error: pipe \"record_default\" not found", true},
		{"case insensitive", "NOT FOUND", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inv.matchesNotFound(tt.output); got != tt.want {
				t.Errorf("matchesNotFound(%q) = %v, want %v", tt.output, got, tt.want)
			}
		})
	}
}

func TestMatchesNotFound_CustomPatterns(t *testing.T) {
	inv := NewInvoker("fmedia", []string{"no active instance"})

	if inv.matchesNotFound("error: pipe not found") {
		t.Error("Default pattern should not match when a custom list is set")
	}
	if !inv.matchesNotFound("warning: No Active Instance behind pipe") {
		t.Error("Custom pattern should match case-insensitively")
	}
}

func TestSpawn_MissingBinaryIsSpawnError(t *testing.T) {
	inv := NewInvoker("/nonexistent/fmedia-binary", nil)

	err := inv.Start([]string{"--list-dev"})
	if err == nil {
		t.Fatal("Expected error for missing binary")
	}

	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("Expected SpawnError, got %T: %v", err, err)
	}
	if spawnErr.Binary != "/nonexistent/fmedia-binary" {
		t.Errorf("Expected binary path in error, got %q", spawnErr.Binary)
	}
}

func TestSpawnError_Unwrap(t *testing.T) {
	inner := errors.New("permission denied")
	err := &SpawnError{Binary: "fmedia", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("Expected SpawnError to unwrap to its cause")
	}
}

func TestIsControlInvocation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"global command", []string{"--globcmd=stop", "--globcmd.pipe-name=rec_a"}, true},
		{"device listing", []string{"--list-dev"}, false},
		{"recording", []string{"--record", "--notui", "--globcmd.pipe-name=rec_a"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isControlInvocation(tt.args); got != tt.want {
				t.Errorf("isControlInvocation(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestClassify_NotFoundOnlyForControlInvocations(t *testing.T) {
	inv := NewInvoker("fmedia", nil)

	// A device label may contain the marker text; a clean listing must not
	// be classified as a missing target.
	if err := inv.classify(false, "device #3: Mic (driver not found fallback)", nil); err != nil {
		t.Errorf("Expected clean non-control invocation to succeed, got %v", err)
	}

	if err := inv.classify(true, "error: pipe \"rec_a\" not found", nil); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("Expected ErrTargetNotFound for control invocation, got %v", err)
	}

	// A failing non-control invocation keeps its generic error even when the
	// output happens to contain a marker.
	err := inv.classify(false, "file not found: in.wav", errors.New("exit status 1"))
	if err == nil {
		t.Fatal("Expected error for failed invocation")
	}
	if errors.Is(err, ErrTargetNotFound) {
		t.Errorf("Expected generic failure, got ErrTargetNotFound: %v", err)
	}
}
