package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grit-scm/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			if err := os.MkdirAll(path, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			// Init is idempotent; tell the user which case they hit.
			reinit := false
			if info, err := os.Stat(filepath.Join(path, ".git")); err == nil && info.IsDir() {
				reinit = true
			}

			r, err := repo.Init(path)
			if err != nil {
				return err
			}

			gitDir, err := filepath.Abs(r.GitDir)
			if err != nil {
				return fmt.Errorf("resolve git directory: %w", err)
			}
			action := "Initialized empty"
			if reinit {
				action = "Reinitialized existing"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Git repository in %s\n", action, gitDir+string(filepath.Separator))
			return nil
		},
	}
}
