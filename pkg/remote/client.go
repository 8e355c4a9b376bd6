package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grit-scm/grit/pkg/object"
)

const (
	userAgent = "git/1.0"

	contentTypeAdvertisement = "application/x-git-upload-pack-advertisement"
	contentTypeUploadPackReq = "application/x-git-upload-pack-request"
	contentTypeUploadPackRes = "application/x-git-upload-pack-result"
)

// ClientOptions configures the smart-HTTP client.
type ClientOptions struct {
	Timeout     time.Duration // HTTP client timeout (default 60s)
	MaxAttempts int           // ref-discovery attempts (default 3)
	RetryDelay  time.Duration // initial delay between attempts (default 1s)
	Agent       string        // agent capability value (default grit/0.1.0)
}

// Client speaks smart-HTTP protocol v1 against a single remote repository.
type Client struct {
	base        string
	httpClient  *http.Client
	maxAttempts int
	retryDelay  time.Duration
	agent       string
}

// NewClient creates a smart-HTTP client with default options.
func NewClient(remoteURL string) (*Client, error) {
	return NewClientWithOptions(remoteURL, ClientOptions{})
}

// NewClientWithOptions creates a smart-HTTP client. Zero-value fields in
// opts receive defaults.
func NewClientWithOptions(remoteURL string, opts ClientOptions) (*Client, error) {
	base, err := normalizeRepoURL(remoteURL)
	if err != nil {
		return nil, err
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.Agent == "" {
		opts.Agent = "grit/0.1.0"
	}

	return &Client{
		base: base,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		agent:       opts.Agent,
	}, nil
}

// normalizeRepoURL validates the remote URL and appends the conventional
// ".git" suffix when absent.
func normalizeRepoURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("remote URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse remote URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("remote URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("remote URL must include a host")
	}

	u.Path = strings.TrimRight(u.Path, "/")
	if u.Path == "" {
		return "", fmt.Errorf("remote URL must include a repository path")
	}
	if !strings.HasSuffix(u.Path, ".git") {
		u.Path += ".git"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// URL returns the normalized repository URL.
func (c *Client) URL() string { return c.base }

// RepoName returns the repository basename with the ".git" suffix removed,
// the conventional clone destination.
func (c *Client) RepoName() string {
	name := c.base
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".git")
}

// ListRefs performs ref discovery:
// GET <repo>/info/refs?service=git-upload-pack.
func (c *Client) ListRefs(ctx context.Context) (*Advertisement, error) {
	resp, err := c.discoverRefs(ctx)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, protocolErrorf(nil, "ref discovery returned HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, contentTypeAdvertisement) {
		return nil, protocolErrorf(nil, "server does not speak smart HTTP (content type %q)", ct)
	}

	return ParseAdvertisement(resp.Body)
}

// discoverRefs issues the advertisement GET, reissuing it on transport
// errors, 429, and 5xx with doubling delays between attempts. Discovery is
// the one request worth retrying: it is idempotent and bodyless, whereas a
// replayed upload-pack POST would redeliver the whole negotiation for a
// server that already declared itself unhealthy.
func (c *Client) discoverRefs(ctx context.Context) (*http.Response, error) {
	delay := c.retryDelay
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/info/refs?service=git-upload-pack", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, doErr := c.httpClient.Do(req)
		switch {
		case doErr == nil && !transientStatus(resp.StatusCode):
			return resp, nil
		case doErr == nil:
			// Drain so the connection can be reused for the next attempt.
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			doErr = protocolErrorf(nil, "ref discovery returned HTTP %d after %d attempts", resp.StatusCode, attempt)
		default:
			doErr = fmt.Errorf("ref discovery: %w", doErr)
		}

		if attempt >= c.maxAttempts {
			return nil, doErr
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// transientStatus reports whether a discovery response is worth retrying.
func transientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// FetchPack performs the upload-pack RPC for wants and returns the raw
// packfile bytes. Capabilities are negotiated against the advertisement:
// multi_ack_detailed, side-band-64k, and ofs-delta are requested when the
// server offers them; the agent capability is always sent. With no haves,
// the server answers NAK and streams the pack.
func (c *Client) FetchPack(ctx context.Context, adv *Advertisement, wants []object.Hash, onProgress func(string)) ([]byte, error) {
	if len(wants) == 0 {
		return nil, fmt.Errorf("at least one want hash is required")
	}
	for _, h := range wants {
		if err := ValidateHash(h); err != nil {
			return nil, fmt.Errorf("want %q: %w", h, err)
		}
	}

	caps := c.negotiateCaps(adv)
	useSideband := strings.Contains(caps, CapSideBand64k)

	body, err := buildUploadPackRequest(wants, caps)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/git-upload-pack", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", contentTypeUploadPackReq)
	req.Header.Set("Accept", contentTypeUploadPackRes)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload-pack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, protocolErrorf(nil, "upload-pack returned HTTP %d", resp.StatusCode)
	}

	pr := NewPktLineReader(resp.Body)
	if err := readAckNak(pr); err != nil {
		return nil, err
	}

	if useSideband {
		return DemuxSideband(pr, onProgress)
	}
	// Side-band-less: the pack follows the NAK pkt-line unframed.
	pack, err := pr.ReadRemaining()
	if err != nil {
		return nil, fmt.Errorf("read pack stream: %w", err)
	}
	return pack, nil
}

// negotiateCaps builds the capability string for the first want line.
func (c *Client) negotiateCaps(adv *Advertisement) string {
	caps := make([]string, 0, 4)
	for _, name := range []string{CapMultiAckDetailed, CapSideBand64k, CapOfsDelta} {
		if adv.Capabilities.Has(name) {
			caps = append(caps, name)
		}
	}
	caps = append(caps, CapAgent+"="+c.agent)
	return strings.Join(caps, " ")
}

// buildUploadPackRequest assembles the pkt-line request body:
//
//	want <sha> <capabilities>
//	want <sha>          (additional wants, no capabilities)
//	0000
//	0009done
func buildUploadPackRequest(wants []object.Hash, caps string) ([]byte, error) {
	var buf bytes.Buffer
	for i, h := range wants {
		var err error
		if i == 0 {
			err = AppendPktLinef(&buf, "want %s %s\n", h, caps)
		} else {
			err = AppendPktLinef(&buf, "want %s\n", h)
		}
		if err != nil {
			return nil, err
		}
	}
	AppendFlushPkt(&buf)
	if err := AppendPktLinef(&buf, "done\n"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// readAckNak consumes negotiation responses up to and including the final
// NAK. With no haves the server sends a single NAK; a server running
// multi_ack_detailed may ACK wants first. ERR lines abort.
func readAckNak(pr *PktLineReader) error {
	for {
		payload, flush, err := pr.ReadPacket()
		if err == io.EOF {
			return protocolErrorf(nil, "upload-pack response ended before NAK")
		}
		if err != nil {
			return err
		}
		if flush {
			return protocolErrorf(nil, "unexpected flush before NAK")
		}

		line := strings.TrimSuffix(string(payload), "\n")
		switch {
		case line == "NAK":
			return nil
		case strings.HasPrefix(line, "ACK "):
			continue
		case strings.HasPrefix(line, "ERR "):
			return protocolErrorf(nil, "remote error: %s", strings.TrimPrefix(line, "ERR "))
		default:
			return protocolErrorf(nil, "expected NAK, got %q", line)
		}
	}
}
