package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jrcribb/yara-x/parser"
)

func debugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "debug",
		Short:  "Inspect parser output",
		Hidden: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "cst <file>",
		Short: "Dump the Concrete Syntax Tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			cst := parser.New(src).CST()
			fmt.Print(cst)
			for _, e := range cst.Errors() {
				fmt.Fprintf(os.Stderr, "error at %s: %s\n", e.Span, e.Message)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "ast <file>",
		Short: "Dump the abstract view of the rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			cst := parser.New(src).CST()
			ast := parser.NewAST(cst)
			for _, imp := range ast.Imports {
				fmt.Printf("import %q\n", imp.ModuleName)
			}
			for _, rule := range ast.Rules {
				fmt.Printf("rule %s", rule.Identifier.Name)
				if rule.Private {
					fmt.Print(" private")
				}
				if rule.Global {
					fmt.Print(" global")
				}
				for _, tag := range rule.Tags {
					fmt.Printf(" :%s", tag.Name)
				}
				fmt.Println()
				for _, m := range rule.Meta {
					fmt.Printf("  meta %s = %s\n", m.Identifier.Name, formatMetaValue(m.Value))
				}
				for _, p := range rule.Patterns {
					fmt.Printf("  pattern %s (%s)\n", p.Identifier.Name, patternKindName(p.Kind))
				}
			}
			return nil
		},
	})

	return cmd
}

func formatMetaValue(v parser.MetaValue) string {
	switch v.Kind {
	case parser.MetaString:
		return fmt.Sprintf("%q", v.Str)
	case parser.MetaInteger:
		return fmt.Sprintf("%d", v.Int)
	case parser.MetaFloat:
		return fmt.Sprintf("%g", v.Float)
	case parser.MetaBool:
		return fmt.Sprintf("%t", v.Bool)
	}
	return "?"
}

func patternKindName(k parser.PatternDefKind) string {
	switch k {
	case parser.PatternText:
		return "text"
	case parser.PatternRegexp:
		return "regexp"
	case parser.PatternHex:
		return "hex"
	}
	return "?"
}
