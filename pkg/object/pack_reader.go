package object

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// PackEntry is one scanned object entry in a pack stream. For delta
// entries, Data holds the inflated delta instruction stream and exactly one
// of BaseHash/BaseOffset identifies the base.
type PackEntry struct {
	Offset uint64 // start offset of the entry header within the pack
	Type   PackObjectType
	Size   uint64 // inflated payload size from the entry header
	Data   []byte // object payload, or delta stream for delta entries

	BaseHash   Hash   // ref-delta base, empty otherwise
	BaseOffset uint64 // ofs-delta base entry offset, 0 otherwise
}

// PackFile is the scanned content of a full pack stream. Entries appear in
// pack order; deltas are not yet resolved.
type PackFile struct {
	Header   PackHeader
	Entries  []PackEntry
	Checksum Hash
}

// ReadPack scans a full pack byte slice: trailer checksum, header, then
// every entry header and zlib stream in sequence. Delta entries keep their
// base reference for the resolve pass.
func ReadPack(data []byte) (*PackFile, error) {
	if len(data) < packHeaderSize+sha1.Size {
		return nil, packErrorf(-1, "too short: %d bytes", len(data))
	}

	payload := data[:len(data)-sha1.Size]
	trailer := data[len(data)-sha1.Size:]

	sum := sha1.Sum(payload)
	if !bytes.Equal(sum[:], trailer) {
		return nil, packErrorf(-1, "trailer checksum mismatch")
	}

	header, err := UnmarshalPackHeader(payload[:packHeaderSize])
	if err != nil {
		return nil, err
	}

	offset := packHeaderSize
	entries := make([]PackEntry, 0, header.NumObjects)
	for i := uint32(0); i < header.NumObjects; i++ {
		start := uint64(offset)
		objType, size, n, err := decodePackEntryHeader(payload[offset:])
		if err != nil {
			return nil, packErrorf(int(i), "%v", err)
		}
		offset += n

		entry := PackEntry{Offset: start, Type: objType, Size: size}
		switch objType {
		case PackCommit, PackTree, PackBlob, PackTag:
		case PackRefDelta:
			if len(payload)-offset < sha1.Size {
				return nil, packErrorf(int(i), "truncated ref-delta base")
			}
			base, err := HashFromRaw(payload[offset : offset+sha1.Size])
			if err != nil {
				return nil, packErrorf(int(i), "%v", err)
			}
			entry.BaseHash = base
			offset += sha1.Size
		case PackOfsDelta:
			distance, n, err := decodeOfsDeltaDistance(payload[offset:])
			if err != nil {
				return nil, packErrorf(int(i), "%v", err)
			}
			offset += n
			if distance == 0 || distance > start {
				return nil, packErrorf(int(i), "ofs-delta distance %d does not point backward from offset %d", distance, start)
			}
			entry.BaseOffset = start - distance
		default:
			return nil, packErrorf(int(i), "reserved object type %d", uint8(objType))
		}

		if offset >= len(payload) {
			return nil, packErrorf(int(i), "missing compressed payload")
		}
		raw, consumed, err := InflateStream(payload[offset:])
		if err != nil {
			if errors.Is(err, ErrZlibTruncated) {
				return nil, packErrorf(int(i), "truncated object stream: %v", err)
			}
			return nil, packErrorf(int(i), "decompress: %v", err)
		}
		if uint64(len(raw)) != size {
			return nil, packErrorf(int(i), "size mismatch header=%d decoded=%d", size, len(raw))
		}
		offset += consumed

		entry.Data = raw
		entries = append(entries, entry)
	}

	if offset != len(payload) {
		return nil, packErrorf(-1, "%d trailing undecoded bytes", len(payload)-offset)
	}

	return &PackFile{
		Header:   *header,
		Entries:  entries,
		Checksum: Hash(hex.EncodeToString(trailer)),
	}, nil
}

// ReadPackFromReader reads a complete pack stream from r and delegates to
// ReadPack for scan and verification.
func ReadPackFromReader(r io.Reader) (*PackFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pack stream: %w", err)
	}
	return ReadPack(data)
}
