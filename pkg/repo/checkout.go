package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grit-scm/grit/pkg/object"
)

// Checkout materializes the tree of the given commit into the working
// directory. Every referenced object must already be in the store; the
// closure is verified up front so a missing object cannot surface halfway
// through writing files.
//
// Existing non-empty regular files are never overwritten.
func (r *Repo) Checkout(commitHash object.Hash) error {
	if err := r.Store.VerifyClosure(commitHash); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	commit, err := r.Store.ReadCommit(commitHash)
	if err != nil {
		return fmt.Errorf("checkout: read commit %s: %w", commitHash, err)
	}

	if err := r.checkoutTree(commit.TreeHash, r.RootDir); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	return nil
}

func (r *Repo) checkoutTree(treeHash object.Hash, dir string) error {
	tree, err := r.Store.ReadTree(treeHash)
	if err != nil {
		return err
	}

	for _, e := range tree.Entries {
		path := filepath.Join(dir, e.Name)
		switch e.Mode {
		case object.TreeModeDir:
			if err := os.MkdirAll(path, 0o755); err != nil {
				return fmt.Errorf("mkdir %q: %w", path, err)
			}
			if err := r.checkoutTree(e.Hash, path); err != nil {
				return err
			}

		case object.TreeModeGitlink:
			// Submodule: materialize the mount point only.
			if err := os.MkdirAll(path, 0o755); err != nil {
				return fmt.Errorf("mkdir %q: %w", path, err)
			}

		case object.TreeModeSymlink:
			blob, err := r.Store.ReadBlob(e.Hash)
			if err != nil {
				return fmt.Errorf("read link target for %q: %w", path, err)
			}
			if err := refuseOverwrite(path); err != nil {
				return err
			}
			// An empty file may stand where the link goes; clear it first.
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("replace %q: %w", path, err)
			}
			if err := os.Symlink(string(blob.Data), path); err != nil {
				return fmt.Errorf("symlink %q: %w", path, err)
			}

		case object.TreeModeFile, object.TreeModeExecutable:
			blob, err := r.Store.ReadBlob(e.Hash)
			if err != nil {
				return fmt.Errorf("read blob for %q: %w", path, err)
			}
			if err := refuseOverwrite(path); err != nil {
				return err
			}
			if err := os.WriteFile(path, blob.Data, filePermFromMode(e.Mode)); err != nil {
				return fmt.Errorf("write %q: %w", path, err)
			}

		default:
			return fmt.Errorf("entry %q: unknown mode %q", e.Name, e.Mode)
		}
	}
	return nil
}

// refuseOverwrite fails when path already exists as anything other than an
// empty regular file. Empty files and not-yet-existing paths are fair
// targets.
func refuseOverwrite(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %q: %w", path, err)
	}
	if info.Mode().IsRegular() && info.Size() == 0 {
		return nil
	}
	return fmt.Errorf("refusing to overwrite existing %q", path)
}
