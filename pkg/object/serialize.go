package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj to the canonical binary form. Each entry
// is "<mode> SP <name> NUL <20-byte-sha>". Entries are sorted by name, with
// directory names compared as if they had a trailing slash; the slash never
// reaches the stored bytes.
func MarshalTree(tr *TreeObj) ([]byte, error) {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sortTreeEntries(sorted)

	var buf bytes.Buffer
	for _, e := range sorted {
		if err := validateTreeEntry(e); err != nil {
			return nil, fmt.Errorf("marshal tree: %w", err)
		}
		raw, err := e.Hash.Raw()
		if err != nil {
			return nil, fmt.Errorf("marshal tree entry %q: %w", e.Name, err)
		}
		buf.WriteString(e.Mode)
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a TreeObj from its canonical binary form.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	rest := data
	for len(rest) > 0 {
		sp := bytes.IndexByte(rest, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("unmarshal tree: entry missing mode separator")
		}
		mode := string(rest[:sp])
		rest = rest[sp+1:]

		nul := bytes.IndexByte(rest, 0)
		if nul < 0 {
			return nil, fmt.Errorf("unmarshal tree: entry missing name terminator")
		}
		name := string(rest[:nul])
		rest = rest[nul+1:]

		if len(rest) < 20 {
			return nil, fmt.Errorf("unmarshal tree: entry %q: truncated hash", name)
		}
		h, err := HashFromRaw(rest[:20])
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: entry %q: %w", name, err)
		}
		rest = rest[20:]

		e := TreeEntry{Mode: mode, Name: name, Hash: h}
		if err := validateTreeEntry(e); err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w", err)
		}
		tr.Entries = append(tr.Entries, e)
	}
	return tr, nil
}

// sortTreeEntries orders entries by effective name: directories compare as
// if their name ended in "/", matching the order packs and index tools
// expect.
func sortTreeEntries(entries []TreeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return treeSortKey(entries[i]) < treeSortKey(entries[j])
	})
}

func treeSortKey(e TreeEntry) string {
	if e.IsDir() {
		return e.Name + "/"
	}
	return e.Name
}

func validateTreeEntry(e TreeEntry) error {
	switch e.Mode {
	case TreeModeDir, TreeModeFile, TreeModeExecutable, TreeModeSymlink, TreeModeGitlink:
	default:
		return fmt.Errorf("entry %q: unknown mode %q", e.Name, e.Mode)
	}
	if e.Name == "" {
		return fmt.Errorf("entry with empty name")
	}
	if strings.ContainsAny(e.Name, "/\x00") {
		return fmt.Errorf("entry %q: name contains separator or NUL", e.Name)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Signature
// ---------------------------------------------------------------------------

// String renders a signature as "Name <email> unix-seconds ±HHMM".
func (s Signature) String() string {
	zone := s.Zone
	if zone == "" {
		zone = "+0000"
	}
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When, zone)
}

// ParseSignature parses the "Name <email> unix-seconds ±HHMM" grammar.
func ParseSignature(raw string) (Signature, error) {
	open := strings.Index(raw, " <")
	end := strings.Index(raw, "> ")
	if open < 0 || end < 0 || end < open {
		return Signature{}, fmt.Errorf("parse signature %q: malformed ident", raw)
	}

	sig := Signature{
		Name:  raw[:open],
		Email: raw[open+2 : end],
	}
	fields := strings.Fields(raw[end+2:])
	if len(fields) != 2 {
		return Signature{}, fmt.Errorf("parse signature %q: expected timestamp and zone", raw)
	}
	when, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Signature{}, fmt.Errorf("parse signature %q: bad timestamp: %w", raw, err)
	}
	sig.When = when
	sig.Zone = fields[1]
	return sig, nil
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj:
//
//	tree <sha>
//	parent <sha>      (zero or more, caller order)
//	author Name <email> when zone
//	committer Name <email> when zone
//	gpgsig <sig>      (optional)
//
//	message
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	if c.GPGSig != "" {
		fmt.Fprintf(&buf, "gpgsig %s\n", foldHeaderValue(c.GPGSig))
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses a CommitObj from its serialized form. Continuation
// lines (leading space) fold into the previous header value; header keys
// this client does not know are ignored rather than rejected, since commits
// arrive from arbitrary producers.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: missing header/message separator")
	}
	header := string(data[:idx])
	message := string(data[idx+2:])

	c := &CommitObj{Message: message}
	for _, line := range unfoldHeaderLines(strings.Split(header, "\n")) {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header line %q", line)
		}
		switch key {
		case "tree":
			c.TreeHash = Hash(val)
		case "parent":
			c.Parents = append(c.Parents, Hash(val))
		case "author":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: %w", err)
			}
			c.Author = sig
		case "committer":
			sig, err := ParseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: %w", err)
			}
			c.Committer = sig
		case "gpgsig":
			c.GPGSig = val
		}
	}
	if c.TreeHash == "" {
		return nil, fmt.Errorf("unmarshal commit: missing tree header")
	}
	return c, nil
}

// foldHeaderValue turns a multi-line value into header continuation form,
// where every line after the first is prefixed with a single space.
func foldHeaderValue(v string) string {
	return strings.ReplaceAll(v, "\n", "\n ")
}

// unfoldHeaderLines merges continuation lines into their parent header line.
func unfoldHeaderLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, " ") && len(out) > 0 {
			out[len(out)-1] += "\n" + line[1:]
			continue
		}
		out = append(out, line)
	}
	return out
}

// CommitSigningPayload returns the canonical bytes that are signed for a
// commit. The payload intentionally excludes the signature header itself.
func CommitSigningPayload(c *CommitObj) []byte {
	if c == nil {
		return nil
	}
	copyCommit := *c
	copyCommit.GPGSig = ""
	return MarshalCommit(&copyCommit)
}
