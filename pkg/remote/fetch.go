package remote

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/grit-scm/grit/pkg/object"
)

// Fetch downloads the packfile covering wants and indexes every contained
// object into the store. Returns the hashes written, keyed to their types.
func Fetch(ctx context.Context, c *Client, store *object.Store, adv *Advertisement, wants []object.Hash, onProgress func(string)) (map[object.Hash]object.ObjectType, error) {
	roots := uniqueHashes(wants)
	if len(roots) == 0 {
		return nil, fmt.Errorf("at least one want hash is required")
	}

	pack, err := c.FetchPack(ctx, adv, roots, onProgress)
	if err != nil {
		return nil, err
	}

	objects, err := store.IndexPack(pack)
	if err != nil {
		return nil, err
	}
	return objects, nil
}

// HeadWants returns the deduplicated, sorted set of advertised branch-head
// hashes plus HEAD's, the object coverage a full clone needs.
func HeadWants(adv *Advertisement) []object.Hash {
	wants := make([]object.Hash, 0, len(adv.Refs))
	for name, h := range adv.Refs {
		if name == "HEAD" || strings.HasPrefix(name, "refs/heads/") {
			wants = append(wants, h)
		}
	}
	return uniqueHashes(wants)
}

func uniqueHashes(in []object.Hash) []object.Hash {
	seen := make(map[object.Hash]struct{}, len(in))
	out := make([]object.Hash, 0, len(in))
	for _, h := range in {
		h = object.Hash(strings.TrimSpace(string(h)))
		if h == "" || h == object.ZeroHash {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
