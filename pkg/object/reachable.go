package object

import (
	"fmt"
)

// VerifyClosure walks the object graph from root and fails on the first
// referenced hash that does not resolve in the store. Checkout depends on
// every commit, tree, and blob being present before it touches the working
// tree.
func (s *Store) VerifyClosure(root Hash) error {
	seen := make(map[Hash]struct{})
	stack := []Hash{root}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}

		objType, data, err := s.Read(h)
		if err != nil {
			return fmt.Errorf("closure from %s: %w", root, err)
		}
		refs, err := referencedHashes(objType, data)
		if err != nil {
			return fmt.Errorf("closure from %s: parse %s (%s): %w", root, h, objType, err)
		}
		stack = append(stack, refs...)
	}
	return nil
}

func referencedHashes(objType ObjectType, data []byte) ([]Hash, error) {
	switch objType {
	case TypeBlob:
		return nil, nil
	case TypeTag:
		// Tags only round-trip through the store; their target is not
		// required for checkout.
		return nil, nil
	case TypeCommit:
		commit, err := UnmarshalCommit(data)
		if err != nil {
			return nil, err
		}
		refs := make([]Hash, 0, 1+len(commit.Parents))
		refs = append(refs, commit.TreeHash)
		refs = append(refs, commit.Parents...)
		return refs, nil
	case TypeTree:
		tree, err := UnmarshalTree(data)
		if err != nil {
			return nil, err
		}
		refs := make([]Hash, 0, len(tree.Entries))
		for _, e := range tree.Entries {
			if e.Mode == TreeModeGitlink {
				// Submodule commits live in another repository.
				continue
			}
			refs = append(refs, e.Hash)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unsupported object type %q", objType)
	}
}
