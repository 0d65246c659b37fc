package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/image-predict/internal/validation"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(2*time.Second, zap.NewNop())
}

func TestFetchAcceptsImageResponse(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0xff, 0xe0}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	}))
	defer server.Close()

	out := newTestFetcher().Fetch(context.Background(), server.URL)
	if !out.Accepted() {
		t.Fatalf("expected acceptance, got %+v", out)
	}
	if !bytes.Equal(out.Candidate.Bytes, payload) {
		t.Fatalf("unexpected bytes: %v", out.Candidate.Bytes)
	}
	if out.Candidate.Filename != "linked-image" {
		t.Fatalf("expected synthetic filename, got %q", out.Candidate.Filename)
	}
	if out.Candidate.Source != validation.SourceLink {
		t.Fatalf("expected link source, got %q", out.Candidate.Source)
	}
}

func TestFetchRejectsNonImageContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>not an image</html>"))
	}))
	defer server.Close()

	out := newTestFetcher().Fetch(context.Background(), server.URL)
	if out.Reason != validation.ReasonNotAnImage {
		t.Fatalf("expected not-an-image-response, got %+v", out)
	}
}

func TestFetchRejectsNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	out := newTestFetcher().Fetch(context.Background(), server.URL)
	if out.Reason != validation.ReasonFetchFail {
		t.Fatalf("expected fetch-failed, got %+v", out)
	}
}

func TestFetchRejectsUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	out := newTestFetcher().Fetch(context.Background(), url)
	if out.Reason != validation.ReasonFetchFail {
		t.Fatalf("expected fetch-failed, got %+v", out)
	}
}

func TestFetchRejectsEmptyImageBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
	}))
	defer server.Close()

	out := newTestFetcher().Fetch(context.Background(), server.URL)
	if out.Reason != validation.ReasonFetchFail {
		t.Fatalf("expected fetch-failed for empty body, got %+v", out)
	}
}

func TestFetchRejectsOversizedImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(bytes.Repeat([]byte{0x00}, validation.MaxSizeBytes+512))
	}))
	defer server.Close()

	out := newTestFetcher().Fetch(context.Background(), server.URL)
	if out.Reason != validation.ReasonTooLarge {
		t.Fatalf("expected too-large, got %+v", out)
	}
}
