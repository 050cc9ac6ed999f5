package main

import (
	"bytes"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/jrcribb/yara-x/format"
)

// errExit1 makes the command exit with status 1 without printing an
// extra error line. `yarax fmt` uses the exit code to report whether any
// file was modified.
var errExit1 = errors.New("exit 1")

func fmtCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "fmt <file>...",
		Short: "Format rule files in place",
		Long: `Format rule files in place.

The exit code is 0 when no file needed changes and 1 when any file was
modified (or, with --check, would have been modified).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modified := false
			for _, path := range args {
				src, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				out, err := format.Source(src)
				if err != nil {
					return err
				}
				if bytes.Equal(out, src) {
					continue
				}
				modified = true
				if check {
					continue
				}
				if err := os.WriteFile(path, out, 0o644); err != nil {
					return err
				}
			}
			if modified {
				return errExit1
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "don't write, only set the exit code")
	return cmd
}
