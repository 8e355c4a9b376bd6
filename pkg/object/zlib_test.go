package object

import (
	"bytes"
	"errors"
	"testing"
)

func TestDeflateInflateRoundTrip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	compressed, err := Deflate(data)
	if err != nil {
		t.Fatalf("Deflate: %v", err)
	}
	out, err := Inflate(compressed)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("round trip: got %q, want %q", out, data)
	}
}

func TestInflateStreamReportsConsumed(t *testing.T) {
	data := []byte("payload bytes")
	compressed, err := Deflate(data)
	if err != nil {
		t.Fatalf("Deflate: %v", err)
	}

	// The stream is followed by unrelated bytes; the inflater must stop at
	// the stream end and report how far it read.
	trailing := []byte("NEXT OBJECT")
	out, consumed, err := InflateStream(append(append([]byte{}, compressed...), trailing...))
	if err != nil {
		t.Fatalf("InflateStream: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("decompressed: got %q, want %q", out, data)
	}
	if consumed != len(compressed) {
		t.Errorf("consumed = %d, want %d", consumed, len(compressed))
	}
}

func TestInflateStreamTruncated(t *testing.T) {
	compressed, err := Deflate([]byte("some reasonably long payload to compress"))
	if err != nil {
		t.Fatalf("Deflate: %v", err)
	}
	_, _, err = InflateStream(compressed[:len(compressed)/2])
	if !errors.Is(err, ErrZlibTruncated) {
		t.Errorf("half stream: got %v, want ErrZlibTruncated", err)
	}

	_, _, err = InflateStream(nil)
	if !errors.Is(err, ErrZlibTruncated) {
		t.Errorf("empty input: got %v, want ErrZlibTruncated", err)
	}
}

func TestInflateStreamFormatError(t *testing.T) {
	_, _, err := InflateStream([]byte("this is not a zlib stream at all"))
	if !errors.Is(err, ErrZlibFormat) {
		t.Errorf("garbage input: got %v, want ErrZlibFormat", err)
	}
}

func TestInflateStreamChecksumMismatch(t *testing.T) {
	compressed, err := Deflate([]byte("checksummed payload"))
	if err != nil {
		t.Fatalf("Deflate: %v", err)
	}
	// The Adler-32 checksum is the final four bytes of the stream.
	compressed[len(compressed)-1] ^= 0xff
	_, _, err = InflateStream(compressed)
	if !errors.Is(err, ErrZlibChecksum) {
		t.Errorf("flipped checksum: got %v, want ErrZlibChecksum", err)
	}
}

func TestInflateRejectsTrailingBytes(t *testing.T) {
	compressed, err := Deflate([]byte("exactly one stream"))
	if err != nil {
		t.Fatalf("Deflate: %v", err)
	}
	_, err = Inflate(append(compressed, 'x'))
	if !errors.Is(err, ErrZlibFormat) {
		t.Errorf("trailing byte: got %v, want ErrZlibFormat", err)
	}
}
