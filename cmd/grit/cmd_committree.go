package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/grit-scm/grit/pkg/object"
	"github.com/grit-scm/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitTreeCmd() *cobra.Command {
	var parents []string
	var message string
	var signKey string

	cmd := &cobra.Command{
		Use:   "commit-tree <tree> [-p <parent>]... -m <message>",
		Short: "Create a commit object for a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("a commit message is required (-m)")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			treeHash := object.Hash(args[0])
			if _, err := r.Store.ReadTree(treeHash); err != nil {
				return err
			}

			commit := &object.CommitObj{
				TreeHash: treeHash,
				Author:   identFromEnv("GIT_AUTHOR"),
				Message:  message,
			}
			commit.Committer = identFromEnv("GIT_COMMITTER")
			if !strings.HasSuffix(commit.Message, "\n") {
				commit.Message += "\n"
			}
			for _, p := range parents {
				parentHash := object.Hash(p)
				if _, err := r.Store.ReadCommit(parentHash); err != nil {
					return err
				}
				commit.Parents = append(commit.Parents, parentHash)
			}

			if signKey != "" {
				signer, _, err := newSSHCommitSigner(signKey)
				if err != nil {
					return err
				}
				sig, err := signer(object.CommitSigningPayload(commit))
				if err != nil {
					return fmt.Errorf("sign commit: %w", err)
				}
				commit.GPGSig = sig
			}

			h, err := r.Store.WriteCommit(commit)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&parents, "parent", "p", nil, "parent commit (repeatable)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&signKey, "sign-key", "", "SSH private key to sign the commit with")
	return cmd
}

// identFromEnv builds a signature from <prefix>_NAME, <prefix>_EMAIL, and
// <prefix>_DATE ("unix-seconds [±HHMM]"). Committer values fall back to the
// author's, then to a fixed default; the zone defaults to +0000.
func identFromEnv(prefix string) object.Signature {
	lookup := func(suffix string) string {
		if v := os.Getenv(prefix + suffix); v != "" {
			return v
		}
		return os.Getenv("GIT_AUTHOR" + suffix)
	}

	sig := object.Signature{
		Name:  lookup("_NAME"),
		Email: lookup("_EMAIL"),
		When:  time.Now().Unix(),
		Zone:  "+0000",
	}
	if sig.Name == "" {
		sig.Name = "Grit User"
	}
	if sig.Email == "" {
		sig.Email = "grit@localhost"
	}

	if fields := strings.Fields(lookup("_DATE")); len(fields) > 0 {
		if when, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
			sig.When = when
		}
		if len(fields) > 1 {
			sig.Zone = fields[1]
		}
	}
	return sig
}
