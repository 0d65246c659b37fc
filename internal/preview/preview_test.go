package preview

import (
	"bytes"
	"testing"
)

func TestPutGetRelease(t *testing.T) {
	store := NewStore()

	data := []byte{0x89, 0x50, 0x4e, 0x47}
	handle := store.Put(data, "image/png")
	if handle == "" {
		t.Fatal("expected a non-empty handle")
	}

	got, contentType, ok := store.Get(handle)
	if !ok {
		t.Fatal("expected handle to resolve")
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("unexpected bytes: %v", got)
	}
	if contentType != "image/png" {
		t.Fatalf("unexpected content type: %s", contentType)
	}

	store.Release(handle)
	if _, _, ok := store.Get(handle); ok {
		t.Fatal("expected handle to be gone after release")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d entries", store.Len())
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	store := NewStore()
	handle := store.Put([]byte("img"), "image/jpeg")
	store.Release(handle)
	store.Release(handle)
	store.Release("")
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d entries", store.Len())
	}
}

func TestHandlesAreDistinct(t *testing.T) {
	store := NewStore()
	a := store.Put([]byte("a"), "image/png")
	b := store.Put([]byte("b"), "image/png")
	if a == b {
		t.Fatal("expected distinct handles")
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", store.Len())
	}
}
