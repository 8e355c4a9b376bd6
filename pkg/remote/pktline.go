package remote

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// Pkt-line framing: a 4-char lowercase hex length prefix (including the
// prefix itself) followed by the payload. "0000" is the flush sentinel;
// "0001" is the v2 delimiter and is rejected here.
const (
	pktLenSize     = 4
	pktFlushLen    = 0
	pktDelimLen    = 1
	maxPktLineData = 65516 // 65520 minus the length prefix
)

var flushPkt = []byte("0000")

// EncodePktLine frames payload as a pkt-line. An empty payload encodes the
// flush packet.
func EncodePktLine(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return flushPkt, nil
	}
	if len(payload) > maxPktLineData {
		return nil, fmt.Errorf("pkt-line payload too long: %d bytes", len(payload))
	}
	out := make([]byte, 0, pktLenSize+len(payload))
	out = append(out, fmt.Sprintf("%04x", len(payload)+pktLenSize)...)
	return append(out, payload...), nil
}

// AppendPktLinef formats a payload and appends its pkt-line frame to buf.
func AppendPktLinef(buf *bytes.Buffer, format string, args ...any) error {
	frame, err := EncodePktLine(fmt.Appendf(nil, format, args...))
	if err != nil {
		return err
	}
	buf.Write(frame)
	return nil
}

// AppendFlushPkt appends the flush sentinel to buf.
func AppendFlushPkt(buf *bytes.Buffer) {
	buf.Write(flushPkt)
}

// PktLineReader decodes a stream of pkt-line frames.
type PktLineReader struct {
	r *bufio.Reader
}

// NewPktLineReader wraps r for frame-by-frame decoding.
func NewPktLineReader(r io.Reader) *PktLineReader {
	return &PktLineReader{r: bufio.NewReader(r)}
}

// ReadPacket returns the next frame. flush is true for the flush sentinel
// (with a nil payload); a zero-length data frame ("0004") returns an empty
// non-nil payload. io.EOF is returned only at a clean frame boundary.
func (pr *PktLineReader) ReadPacket() (payload []byte, flush bool, err error) {
	prefix := make([]byte, pktLenSize)
	if _, err := io.ReadFull(pr.r, prefix); err != nil {
		if err == io.EOF {
			return nil, false, io.EOF
		}
		return nil, false, protocolErrorf(err, "truncated pkt-line length prefix")
	}

	length := 0
	for _, c := range prefix {
		d := hexDigit(c)
		if d < 0 {
			return nil, false, protocolErrorf(nil, "invalid pkt-line length %q", prefix)
		}
		length = length<<4 | d
	}

	switch {
	case length == pktFlushLen:
		return nil, true, nil
	case length == pktDelimLen:
		return nil, false, protocolErrorf(nil, "protocol v2 delim packet not supported")
	case length < pktLenSize:
		return nil, false, protocolErrorf(nil, "invalid pkt-line length %d", length)
	}

	payload = make([]byte, length-pktLenSize)
	if _, err := io.ReadFull(pr.r, payload); err != nil {
		return nil, false, protocolErrorf(err, "pkt-line declares %d bytes beyond end of input", length-pktLenSize)
	}
	return payload, false, nil
}

// hexDigit decodes one lowercase hex digit, -1 if out of range.
func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	}
	return -1
}

// ReadRemaining returns every byte after the last decoded frame. Servers
// that do not accept side-band send the raw pack stream unframed after the
// NAK pkt-line.
func (pr *PktLineReader) ReadRemaining() ([]byte, error) {
	return io.ReadAll(pr.r)
}
