// Command yarax is the command line front end for the rule parser: it
// formats rule files, runs the linters, and dumps the CST/AST for
// debugging.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "yarax",
		Short:         "YARA rule tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(fmtCmd())
	root.AddCommand(lintCmd())
	root.AddCommand(debugCmd())

	if err := root.Execute(); err != nil {
		if err != errExit1 {
			cobra.WriteStringAndCheck(os.Stderr, "error: "+err.Error()+"\n")
		}
		os.Exit(1)
	}
}
