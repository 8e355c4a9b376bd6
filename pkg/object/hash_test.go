package object

import (
	"bytes"
	"testing"
)

func TestHashObjectKnownBlob(t *testing.T) {
	// "blob 5\x00hello" is a fixed point of the object model; the digest is
	// the one git prints for hash-object on a file holding "hello".
	h := HashObject(TypeBlob, []byte("hello"))
	if h != "b6fc4c620b67d95f953a5c1c1230aaab5db5a1b0" {
		t.Errorf("HashObject(blob, hello) = %s", h)
	}
}

func TestHashObjectEmptyTree(t *testing.T) {
	h := HashObject(TypeTree, nil)
	if h != "4b825dc642cb6eb9a060e54bf8d69288fbee4904" {
		t.Errorf("HashObject(tree, empty) = %s", h)
	}
}

func TestHashObjectEnvelope(t *testing.T) {
	data := []byte("hello")
	if HashObject(TypeBlob, data) == HashBytes(data) {
		t.Error("HashObject should differ from HashBytes due to envelope")
	}
	if HashObject(TypeBlob, data) == HashObject(TypeTree, data) {
		t.Error("different types should produce different hashes")
	}
}

func TestHashRawRoundTrip(t *testing.T) {
	h := HashObject(TypeBlob, []byte("abc"))
	raw, err := h.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if len(raw) != 20 {
		t.Fatalf("Raw length = %d, want 20", len(raw))
	}
	back, err := HashFromRaw(raw)
	if err != nil {
		t.Fatalf("HashFromRaw: %v", err)
	}
	if back != h {
		t.Errorf("round trip: got %s, want %s", back, h)
	}
}

func TestHashRawRejectsBadInput(t *testing.T) {
	if _, err := Hash("zz").Raw(); err == nil {
		t.Error("Raw accepted non-hex input")
	}
	if _, err := Hash("abcd").Raw(); err == nil {
		t.Error("Raw accepted short input")
	}
	if _, err := HashFromRaw(bytes.Repeat([]byte{1}, 19)); err == nil {
		t.Error("HashFromRaw accepted 19 bytes")
	}
}
