package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// HashBytes computes the raw SHA-1 hash of data and returns it as a
// lowercase hex-encoded Hash.
func HashBytes(data []byte) Hash {
	sum := sha1.Sum(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashObject computes the SHA-1 of the envelope "type len\0content". This
// is the object's one and only identity.
func HashObject(objType ObjectType, data []byte) Hash {
	h := sha1.New()
	fmt.Fprintf(h, "%s %d\x00", objType, len(data))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// Raw decodes the hex form into the 20-byte binary digest used inside tree
// entries and ref-delta headers.
func (h Hash) Raw() ([]byte, error) {
	raw, err := hex.DecodeString(string(h))
	if err != nil {
		return nil, fmt.Errorf("decode hash %q: %w", h, err)
	}
	if len(raw) != sha1.Size {
		return nil, fmt.Errorf("decode hash %q: %d bytes, expected %d", h, len(raw), sha1.Size)
	}
	return raw, nil
}

// HashFromRaw converts a 20-byte binary digest into hex form.
func HashFromRaw(raw []byte) (Hash, error) {
	if len(raw) != sha1.Size {
		return "", fmt.Errorf("raw hash is %d bytes, expected %d", len(raw), sha1.Size)
	}
	return Hash(hex.EncodeToString(raw)), nil
}
