package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"dubber/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "mux", "ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"mux", "ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, " ", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestMediaToolErrorMessage(t *testing.T) {
	err := &services.MediaToolError{Message: "Failed to extract audio with ffmpeg", Stderr: "  boom\n"}
	if got := err.Error(); got != "Failed to extract audio with ffmpeg. boom" {
		t.Fatalf("unexpected message %q", got)
	}
	wrapped := fmt.Errorf("extract: %w", err)
	if !errors.Is(wrapped, services.ErrExternalTool) {
		t.Fatal("expected media tool error to match ErrExternalTool")
	}
	var target *services.MediaToolError
	if !errors.As(wrapped, &target) || target.Stderr != "  boom\n" {
		t.Fatalf("expected errors.As to recover stderr, got %#v", target)
	}

	bare := &services.MediaToolError{Message: "boom"}
	if bare.Error() != "boom" {
		t.Fatalf("unexpected bare message %q", bare.Error())
	}
}

func TestDependencyMissingErrorCarriesRemedy(t *testing.T) {
	err := fmt.Errorf("load: %w", &services.DependencyMissingError{
		Dependency: "whisper",
		Remedy:     "pip install openai-whisper",
	})
	if !errors.Is(err, services.ErrDependencyMissing) {
		t.Fatal("expected dependency marker")
	}
	if !strings.Contains(err.Error(), "Install with: pip install openai-whisper") {
		t.Fatalf("expected remedy in message, got %q", err.Error())
	}
	remedy, ok := services.Remedy(err)
	if !ok || remedy != "pip install openai-whisper" {
		t.Fatalf("unexpected remedy %q %v", remedy, ok)
	}
	if _, ok := services.Remedy(errors.New("other")); ok {
		t.Fatal("expected no remedy for plain error")
	}
}

func TestEmptyInputError(t *testing.T) {
	err := &services.EmptyInputError{Message: "No text provided for TTS synthesis"}
	if !errors.Is(err, services.ErrEmptyInput) {
		t.Fatal("expected empty input marker")
	}
	if errors.Is(err, services.ErrExternalTool) {
		t.Fatal("empty input must not match external tool marker")
	}
}
