package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jrcribb/yara-x/lint"
)

func lintCmd() *cobra.Command {
	var ruleNameRegex string
	var requiredMeta []string
	var disabledWarnings []string

	cmd := &cobra.Command{
		Use:   "lint <file>...",
		Short: "Parse rule files and report structural problems",
		Long: `Parse rule files and report structural problems.

Warnings go to stderr and don't affect the exit code. The exit code is 1
when any file fails to compile or any linter configured as an error
fires.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			compiler := lint.NewCompiler()

			if ruleNameRegex != "" {
				linter, err := lint.RuleName(ruleNameRegex)
				if err != nil {
					return fmt.Errorf("invalid --rule-name regex: %w", err)
				}
				compiler.AddLinter(linter)
			}
			for _, name := range requiredMeta {
				compiler.AddLinter(lint.Metadata(name).Required(true))
			}

			failed := false
			for _, path := range args {
				src, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				if err := compiler.AddSource(path, src); err != nil {
					failed = true
				}
			}

			for _, w := range compiler.Warnings() {
				if slices.Contains(disabledWarnings, w.Code) {
					continue
				}
				fmt.Fprintln(os.Stderr, w)
			}
			for _, e := range compiler.Errors() {
				fmt.Fprintln(os.Stderr, e.Error())
			}

			if failed {
				return errExit1
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ruleNameRegex, "rule-name", "", "regex every rule name must match")
	cmd.Flags().StringArrayVar(&requiredMeta, "require-meta", nil, "metadata identifier required in every rule (repeatable)")
	cmd.Flags().StringArrayVar(&disabledWarnings, "disable-warnings", nil, "warning kinds to suppress (repeatable)")
	return cmd
}
