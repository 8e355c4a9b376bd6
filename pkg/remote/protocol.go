package remote

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/grit-scm/grit/pkg/object"
)

// Capabilities this client understands and requests when advertised.
const (
	CapMultiAckDetailed = "multi_ack_detailed"
	CapSideBand64k      = "side-band-64k"
	CapOfsDelta         = "ofs-delta"
	CapAgent            = "agent"
	CapSymref           = "symref"
)

// ProtocolError indicates the remote sent something outside the smart-HTTP
// v1 grammar, or refused the exchange.
type ProtocolError struct {
	Detail string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Detail, e.Err)
	}
	return "protocol: " + e.Detail
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func protocolErrorf(err error, format string, args ...any) error {
	return &ProtocolError{Detail: fmt.Sprintf(format, args...), Err: err}
}

// ValidateHash checks that a hash is a valid 40-character hex string (SHA-1).
func ValidateHash(h object.Hash) error {
	s := strings.TrimSpace(string(h))
	if s == "" {
		return fmt.Errorf("hash is empty")
	}
	if len(s) != 40 {
		return fmt.Errorf("hash length %d, expected 40", len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return fmt.Errorf("hash contains non-hex characters: %w", err)
	}
	return nil
}

// Capabilities represents the capability set from a ref advertisement.
// Entries may carry a value ("symref=HEAD:refs/heads/main", "agent=git/2.x")
// or be bare flags ("ofs-delta").
type Capabilities struct {
	list []string
	set  map[string][]string
}

// ParseCapabilities parses a space-separated capability list.
func ParseCapabilities(raw string) Capabilities {
	caps := Capabilities{set: make(map[string][]string)}
	for _, entry := range strings.Fields(raw) {
		name, value, _ := strings.Cut(entry, "=")
		caps.list = append(caps.list, entry)
		caps.set[name] = append(caps.set[name], value)
	}
	return caps
}

// Has returns true if the capability is present.
func (c Capabilities) Has(name string) bool {
	_, ok := c.set[name]
	return ok
}

// Value returns the first value of a key=value capability.
func (c Capabilities) Value(name string) string {
	vals := c.set[name]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// SymrefTarget returns the target of a "symref=<name>:<target>" capability
// for the given symbolic name, typically HEAD.
func (c Capabilities) SymrefTarget(name string) string {
	for _, v := range c.set[CapSymref] {
		from, to, ok := strings.Cut(v, ":")
		if ok && from == name {
			return to
		}
	}
	return ""
}

// String returns a sorted space-separated capability string.
func (c Capabilities) String() string {
	out := make([]string, len(c.list))
	copy(out, c.list)
	sort.Strings(out)
	return strings.Join(out, " ")
}

// Advertisement is the parsed result of ref discovery.
type Advertisement struct {
	Refs         map[string]object.Hash // refname → sha, including "HEAD"
	Capabilities Capabilities
	Empty        bool // server advertised no refs (unborn repository)
}

// ParseAdvertisement decodes the pkt-line stream returned by
// GET …/info/refs?service=git-upload-pack:
//
//	# service=git-upload-pack
//	0000
//	<sha> HEAD\0<capabilities>
//	<sha> refs/heads/...
//	0000
//
// The capability list rides on the first ref line only. An empty repository
// advertises the zero id with the magic refname "capabilities^{}".
func ParseAdvertisement(r io.Reader) (*Advertisement, error) {
	pr := NewPktLineReader(r)

	first, flush, err := pr.ReadPacket()
	if err != nil {
		return nil, err
	}
	if flush || !bytes.HasPrefix(first, []byte("# service=git-upload-pack")) {
		return nil, protocolErrorf(nil, "advertisement does not announce git-upload-pack: %q", first)
	}
	if _, flush, err = pr.ReadPacket(); err != nil {
		return nil, err
	} else if !flush {
		return nil, protocolErrorf(nil, "missing flush after service announcement")
	}

	adv := &Advertisement{Refs: make(map[string]object.Hash)}
	sawFirstRef := false
	for {
		payload, flush, err := pr.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if flush {
			break
		}

		line := strings.TrimSuffix(string(payload), "\n")
		refPart := line
		if !sawFirstRef {
			var capPart string
			refPart, capPart, _ = strings.Cut(line, "\x00")
			adv.Capabilities = ParseCapabilities(capPart)
			sawFirstRef = true
		}

		shaStr, refname, ok := strings.Cut(refPart, " ")
		if !ok {
			return nil, protocolErrorf(nil, "malformed ref line %q", line)
		}
		sha := object.Hash(shaStr)
		if err := ValidateHash(sha); err != nil {
			return nil, protocolErrorf(err, "ref %q", refname)
		}

		if refname == "capabilities^{}" && sha == object.ZeroHash {
			adv.Empty = true
			continue
		}
		adv.Refs[refname] = sha
	}

	if !sawFirstRef {
		adv.Empty = true
	}
	return adv, nil
}

// DefaultBranch selects the branch clone should check out:
// the HEAD symref target when advertised in capabilities, else the branch
// whose SHA matches the advertised HEAD, else main, else master.
func (a *Advertisement) DefaultBranch() (string, object.Hash, error) {
	if target := a.Capabilities.SymrefTarget("HEAD"); target != "" {
		if h, ok := a.Refs[target]; ok {
			return target, h, nil
		}
	}
	if headSha, ok := a.Refs["HEAD"]; ok {
		names := make([]string, 0, len(a.Refs))
		for name := range a.Refs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if strings.HasPrefix(name, "refs/heads/") && a.Refs[name] == headSha {
				return name, headSha, nil
			}
		}
	}
	for _, name := range []string{"refs/heads/main", "refs/heads/master"} {
		if h, ok := a.Refs[name]; ok {
			return name, h, nil
		}
	}
	return "", "", protocolErrorf(nil, "advertisement names no checkout target")
}
