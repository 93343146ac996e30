package types

import (
	"errors"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrUpstreamError, "upstream failed").
		WithCause(root).
		WithHTTPStatus(502).
		WithRetryable(true).
		WithBackend("veo")

	if GetErrorCode(err) != ErrUpstreamError {
		t.Fatalf("expected code %s, got %s", ErrUpstreamError, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestError_FatalClass(t *testing.T) {
	t.Parallel()

	fatal := []ErrorCode{ErrResourceMissing, ErrProjectNotFound, ErrShotNotFound, ErrVersionNotFound, ErrNoClipsAvailable}
	for _, code := range fatal {
		if !IsFatal(NewError(code, "x")) {
			t.Fatalf("expected %s to be fatal", code)
		}
	}
	if IsFatal(NewError(ErrRateLimited, "x")) {
		t.Fatalf("rate limit must not be fatal")
	}
	if IsFatal(errors.New("plain")) {
		t.Fatalf("plain errors are not fatal")
	}
}

func TestScript_Valid(t *testing.T) {
	t.Parallel()

	s := &Script{Hook: "h", Problem: "p", Solution: "s", CTA: "c"}
	if !s.Valid() {
		t.Fatalf("expected valid script")
	}
	s.CTA = ""
	if s.Valid() {
		t.Fatalf("script without cta must be invalid")
	}
	if len(s.Sections()) != 4 {
		t.Fatalf("expected 4 sections")
	}
}
