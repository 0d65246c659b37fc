package validation

import (
	"bytes"
	"strings"
	"testing"
)

func candidate(size int, declaredType string) *CandidateImage {
	return &CandidateImage{
		Bytes:        bytes.Repeat([]byte{0xff}, size),
		Filename:     "upload.png",
		DeclaredType: declaredType,
		DeclaredSize: int64(size),
		Source:       SourceFile,
	}
}

func TestValidateRejectsMissingCandidate(t *testing.T) {
	if out := Validate(nil); out.Accepted() || out.Reason != ReasonMissing {
		t.Fatalf("expected missing rejection, got %+v", out)
	}
	if out := Validate(&CandidateImage{DeclaredType: "image/png"}); out.Reason != ReasonMissing {
		t.Fatalf("expected missing rejection for empty bytes, got %+v", out)
	}
}

func TestValidateSizeBoundary(t *testing.T) {
	cases := []struct {
		size   int64
		reject bool
	}{
		{size: 1, reject: false},
		{size: 512 * 1024, reject: false},
		{size: 1024 * 1024, reject: false},
		{size: 1024*1024 + 1, reject: true},
		{size: 2 * 1024 * 1024, reject: true},
	}

	for _, tc := range cases {
		c := candidate(16, "image/png")
		c.DeclaredSize = tc.size
		out := Validate(c)
		if tc.reject && out.Reason != ReasonTooLarge {
			t.Fatalf("size %d: expected too-large, got %+v", tc.size, out)
		}
		if !tc.reject && !out.Accepted() {
			t.Fatalf("size %d: expected acceptance, got %+v", tc.size, out)
		}
	}
}

func TestValidateSizeCheckedBeforeType(t *testing.T) {
	c := candidate(16, "application/pdf")
	c.DeclaredSize = 2 * 1024 * 1024
	if out := Validate(c); out.Reason != ReasonTooLarge {
		t.Fatalf("expected too-large to win over wrong-type, got %+v", out)
	}
}

func TestValidateDeclaredType(t *testing.T) {
	accepted := []string{"image/png", "image/jpeg", "image/webp", "image/x-thumb-png"}
	for _, typ := range accepted {
		if out := Validate(candidate(16, typ)); !out.Accepted() {
			t.Fatalf("type %q: expected acceptance, got %+v", typ, out)
		}
	}

	rejected := []string{"", "text/html", "application/octet-stream", "IMAGE/png", "imagepng"}
	for _, typ := range rejected {
		if out := Validate(candidate(16, typ)); out.Reason != ReasonWrongType {
			t.Fatalf("type %q: expected wrong-type, got %+v", typ, out)
		}
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	c := candidate(32, "image/jpeg")
	first := Validate(c)
	second := Validate(c)
	if first.Accepted() != second.Accepted() || first.Reason != second.Reason {
		t.Fatalf("expected identical outcomes, got %+v then %+v", first, second)
	}
	if first.Candidate != c {
		t.Fatal("expected outcome to carry the original candidate")
	}
}

func TestMessageMentionsLimit(t *testing.T) {
	if msg := Message(ReasonTooLarge); !strings.Contains(msg, "1MB") {
		t.Fatalf("expected message to mention 1MB, got %q", msg)
	}
}
