package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grit-scm/grit/pkg/remote"
	"github.com/grit-scm/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCloneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone <url> [directory]",
		Short: "Clone a repository over smart HTTP",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote.NewClientWithOptions(args[0], remote.ClientOptions{
				Agent: "grit/" + version,
			})
			if err != nil {
				return err
			}

			dest := client.RepoName()
			if len(args) == 2 {
				dest = args[1]
			}
			if strings.TrimSpace(dest) == "" {
				return fmt.Errorf("destination directory is required")
			}
			absDest, err := filepath.Abs(dest)
			if err != nil {
				return fmt.Errorf("resolve destination: %w", err)
			}
			if err := ensureEmptyDir(absDest); err != nil {
				return err
			}

			r, err := repo.Init(absDest)
			if err != nil {
				return err
			}
			if err := r.WriteCloneConfig(client.URL()); err != nil {
				return err
			}

			adv, err := client.ListRefs(cmd.Context())
			if err != nil {
				return err
			}
			if adv.Empty {
				fmt.Fprintf(cmd.OutOrStdout(), "cloned empty repository into %s\n", absDest)
				return nil
			}

			branchRef, branchHash, err := adv.DefaultBranch()
			if err != nil {
				return err
			}

			progress := func(msg string) {
				fmt.Fprint(cmd.ErrOrStderr(), msg)
			}
			wants := remote.HeadWants(adv)
			if _, err := remote.Fetch(cmd.Context(), client, r.Store, adv, wants, progress); err != nil {
				return err
			}

			if err := r.UpdateRef(branchRef, branchHash); err != nil {
				return err
			}
			if err := r.SetHead(branchRef); err != nil {
				return err
			}
			if err := r.Checkout(branchHash); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cloned %s into %s\n", client.URL(), absDest)
			return nil
		},
	}
	return cmd
}

// ensureEmptyDir creates dir if needed and fails when it already has
// contents. A failed clone leaves the directory in place for inspection.
func ensureEmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return fmt.Errorf("inspect destination: %w", err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("destination %q already exists and is not empty", dir)
	}
	return nil
}
