package object

import (
	"bytes"
	"testing"
)

func TestDeltaVarintRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 20, 1<<40 + 17} {
		r := bytes.NewReader(encodeDeltaVarint(v))
		got, err := decodeDeltaVarint(r)
		if err != nil {
			t.Fatalf("decode(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
		if r.Len() != 0 {
			t.Errorf("round trip %d: %d bytes left over", v, r.Len())
		}
	}
}

func TestOfsDeltaDistanceRoundTrip(t *testing.T) {
	// 128 and 16512 are the smallest two- and three-byte encodings; the
	// +1-before-shift rule makes these boundaries easy to get wrong.
	for _, v := range []uint64{1, 127, 128, 129, 16511, 16512, 1 << 24} {
		raw := encodeOfsDeltaDistance(v)
		got, n, err := decodeOfsDeltaDistance(raw)
		if err != nil {
			t.Fatalf("decode(%d): %v", v, err)
		}
		if got != v || n != len(raw) {
			t.Errorf("round trip %d: got %d, consumed %d of %d", v, got, n, len(raw))
		}
	}
}

func TestOfsDeltaDistanceTruncated(t *testing.T) {
	raw := encodeOfsDeltaDistance(1 << 24)
	if _, _, err := decodeOfsDeltaDistance(raw[:1]); err == nil {
		t.Error("accepted truncated distance")
	}
	if _, _, err := decodeOfsDeltaDistance(nil); err == nil {
		t.Error("accepted empty distance")
	}
}

func TestApplyDeltaCopyAndInsert(t *testing.T) {
	base := []byte("abcdefgh")
	// copy base[0:8], then insert "xyz":
	//   0x90       copy with one size byte
	//   0x08       size = 8 (offset bytes absent → offset 0)
	//   0x03 xyz   insert 3 literal bytes
	delta := append(encodeDeltaVarint(8), encodeDeltaVarint(11)...)
	delta = append(delta, 0x90, 0x08, 0x03, 'x', 'y', 'z')

	out, err := ApplyDelta(base, delta)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if string(out) != "abcdefghxyz" {
		t.Errorf("result: %q", out)
	}
}

func TestApplyDeltaCopyWithOffset(t *testing.T) {
	base := []byte("0123456789")
	// copy base[4:4+3]: cmd 0x91 = offset byte 0 + size byte 0.
	delta := append(encodeDeltaVarint(10), encodeDeltaVarint(3)...)
	delta = append(delta, 0x91, 0x04, 0x03)

	out, err := ApplyDelta(base, delta)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if string(out) != "456" {
		t.Errorf("result: %q", out)
	}
}

func TestApplyDeltaZeroSizeMeans64K(t *testing.T) {
	base := bytes.Repeat([]byte{'b'}, 0x10000)
	// cmd 0x80: no offset bytes, no size bytes → offset 0, size 0x10000.
	delta := append(encodeDeltaVarint(uint64(len(base))), encodeDeltaVarint(0x10000)...)
	delta = append(delta, 0x80)

	out, err := ApplyDelta(base, delta)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if !bytes.Equal(out, base) {
		t.Errorf("result length %d, want %d", len(out), len(base))
	}
}

func TestApplyDeltaRejectsReservedCommand(t *testing.T) {
	delta := append(encodeDeltaVarint(0), encodeDeltaVarint(1)...)
	delta = append(delta, 0x00)
	if _, err := ApplyDelta(nil, delta); err == nil {
		t.Error("accepted reserved command 0x00")
	}
}

func TestApplyDeltaRejectsCopyOutOfBounds(t *testing.T) {
	base := []byte("short")
	delta := append(encodeDeltaVarint(5), encodeDeltaVarint(9)...)
	delta = append(delta, 0x91, 0x02, 0x09) // copy base[2:11], past the end
	if _, err := ApplyDelta(base, delta); err == nil {
		t.Error("accepted out-of-bounds copy")
	}
}

func TestApplyDeltaRejectsBaseSizeMismatch(t *testing.T) {
	delta := append(encodeDeltaVarint(99), encodeDeltaVarint(1)...)
	delta = append(delta, 0x01, 'a')
	if _, err := ApplyDelta([]byte("base"), delta); err == nil {
		t.Error("accepted wrong base size")
	}
}

func TestApplyDeltaRejectsResultSizeMismatch(t *testing.T) {
	delta := append(encodeDeltaVarint(0), encodeDeltaVarint(5)...)
	delta = append(delta, 0x01, 'a') // one byte emitted, five declared
	if _, err := ApplyDelta(nil, delta); err == nil {
		t.Error("accepted wrong result size")
	}
}

func TestBuildInsertOnlyDeltaRoundTrip(t *testing.T) {
	base := []byte("whatever the base holds")
	target := bytes.Repeat([]byte("0123456789"), 40) // > 127 bytes forces chunking

	out, err := ApplyDelta(base, buildInsertOnlyDelta(base, target))
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if !bytes.Equal(out, target) {
		t.Errorf("result %d bytes, want %d", len(out), len(target))
	}
}
