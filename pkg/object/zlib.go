package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// Inflate failure classes. Callers that walk pack streams need to tell a
// short read apart from corrupt input.
var (
	ErrZlibTruncated = errors.New("zlib stream truncated")
	ErrZlibFormat    = errors.New("zlib format error")
	ErrZlibChecksum  = errors.New("zlib checksum mismatch")
)

// Deflate compresses data as a single zlib stream at the default level.
func Deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("deflate close: %w", err)
	}
	return buf.Bytes(), nil
}

// InflateStream decompresses the zlib stream that begins at data[0]. The
// compressed length is not known up front: pack entries store no length
// prefix, so the inflater itself reports how many input bytes the stream
// occupied. Returns the decompressed bytes and the count consumed from data.
//
// bytes.Reader implements io.ByteReader, which keeps the flate decoder from
// reading past the end of the stream.
func InflateStream(data []byte) ([]byte, int, error) {
	br := bytes.NewReader(data)
	zr, err := zlib.NewReader(br)
	if err != nil {
		return nil, 0, classifyZlibError(err)
	}
	out, err := io.ReadAll(zr)
	if err != nil {
		_ = zr.Close()
		return nil, 0, classifyZlibError(err)
	}
	if err := zr.Close(); err != nil {
		return nil, 0, classifyZlibError(err)
	}
	return out, len(data) - br.Len(), nil
}

// Inflate decompresses a byte slice that holds exactly one zlib stream.
// Trailing bytes after the stream are an error.
func Inflate(data []byte) ([]byte, error) {
	out, consumed, err := InflateStream(data)
	if err != nil {
		return nil, err
	}
	if consumed != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes after stream", ErrZlibFormat, len(data)-consumed)
	}
	return out, nil
}

func classifyZlibError(err error) error {
	var corrupt flate.CorruptInputError
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %v", ErrZlibTruncated, err)
	case errors.Is(err, zlib.ErrChecksum):
		return ErrZlibChecksum
	case errors.Is(err, zlib.ErrHeader), errors.Is(err, zlib.ErrDictionary), errors.As(err, &corrupt):
		return fmt.Errorf("%w: %v", ErrZlibFormat, err)
	default:
		return err
	}
}
