package main

import (
	"fmt"

	"github.com/grit-scm/grit/pkg/object"
	"github.com/grit-scm/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCatFileCmd() *cobra.Command {
	var showPayload, showType, showSize bool

	cmd := &cobra.Command{
		Use:   "cat-file (-p | -t | -s) <sha>",
		Short: "Print the payload, type, or size of a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := 0
			for _, f := range []bool{showPayload, showType, showSize} {
				if f {
					selected++
				}
			}
			if selected != 1 {
				return fmt.Errorf("exactly one of -p, -t, -s is required")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			objType, payload, err := r.Store.Read(object.Hash(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case showType:
				fmt.Fprintln(out, objType)
			case showSize:
				fmt.Fprintln(out, len(payload))
			default:
				if _, err := out.Write(payload); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showPayload, "print", "p", false, "print the object payload")
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print the object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "print the payload size in bytes")
	return cmd
}
