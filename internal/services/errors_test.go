package services

import (
	"context"
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "transcription", "extract audio", "ffmpeg failed", cause)

	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("error %v not tagged with ErrExternalTool", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("error %v lost its cause", err)
	}
	want := "external tool error: transcription: extract audio: ffmpeg failed: exit status 1"
	if err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrValidation, "extraction", "validate", "missing parties", nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("error %v not tagged with ErrValidation", err)
	}
	if err.Error() != "validation error: extraction: validate: missing parties" {
		t.Fatalf("error = %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("error %v not tagged with ErrTransient", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("error = %q", err.Error())
	}
}

func TestContextAnnotations(t *testing.T) {
	ctx := WithCaseID(context.Background(), "case-1")
	ctx = WithStage(ctx, "extracao")

	if id, ok := CaseIDFromContext(ctx); !ok || id != "case-1" {
		t.Fatalf("case id = (%q, %v)", id, ok)
	}
	if stage, ok := StageFromContext(ctx); !ok || stage != "extracao" {
		t.Fatalf("stage = (%q, %v)", stage, ok)
	}
	if _, ok := RequestIDFromContext(ctx); ok {
		t.Fatal("request id must be absent")
	}

	// Empty values do not annotate.
	if _, ok := CaseIDFromContext(WithCaseID(context.Background(), "")); ok {
		t.Fatal("empty case id must not annotate context")
	}
}
