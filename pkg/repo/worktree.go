package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grit-scm/grit/pkg/object"
)

// WriteWorkingTree snapshots the working directory into the object store:
// blobs for files, trees assembled in post-order, the root tree hash
// returned. The .git directory is skipped and empty directories produce no
// entry; the root tree is written even when empty.
func (r *Repo) WriteWorkingTree() (object.Hash, error) {
	h, _, err := r.writeTreeDir(r.RootDir)
	if err != nil {
		return "", fmt.Errorf("write-tree: %w", err)
	}
	return h, nil
}

// writeTreeDir returns the tree hash for dir and the number of entries it
// holds. Callers skip subtrees with zero entries.
func (r *Repo) writeTreeDir(dir string) (object.Hash, int, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, err
	}

	var entries []object.TreeEntry
	for _, de := range dirEntries {
		name := de.Name()
		if name == ".git" {
			continue
		}
		path := filepath.Join(dir, name)

		if de.IsDir() {
			subHash, count, err := r.writeTreeDir(path)
			if err != nil {
				return "", 0, err
			}
			if count == 0 {
				continue
			}
			entries = append(entries, object.TreeEntry{
				Mode: object.TreeModeDir,
				Name: name,
				Hash: subHash,
			})
			continue
		}

		info, err := de.Info()
		if err != nil {
			return "", 0, err
		}

		var data []byte
		mode := modeFromFileInfo(info)
		if mode == object.TreeModeSymlink {
			target, err := os.Readlink(path)
			if err != nil {
				return "", 0, fmt.Errorf("readlink %q: %w", path, err)
			}
			data = []byte(target)
		} else {
			data, err = os.ReadFile(path)
			if err != nil {
				return "", 0, err
			}
		}

		blobHash, err := r.Store.WriteBlob(&object.Blob{Data: data})
		if err != nil {
			return "", 0, err
		}
		entries = append(entries, object.TreeEntry{
			Mode: mode,
			Name: name,
			Hash: blobHash,
		})
	}

	treeHash, err := r.Store.WriteTree(&object.TreeObj{Entries: entries})
	if err != nil {
		return "", 0, err
	}
	return treeHash, len(entries), nil
}
