package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flow-lang/flow/internal/flow/analyzer"
	"github.com/flow-lang/flow/internal/flow/diagnostics"
	"github.com/flow-lang/flow/internal/flow/lexer"
	"github.com/flow-lang/flow/internal/flow/parser"
)

var checkCmd = &cobra.Command{
	Use:   "check <file.flow>",
	Short: "Lex, parse, and analyze a workflow without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		source, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		diags, err := checkSource(path, string(source))
		if err != nil {
			return err
		}

		if len(diags) == 0 {
			color.New(color.FgGreen).Println("✓ no issues found")
			return nil
		}

		fmt.Print(diagnostics.FormatList(diags, string(source)))
		if diags.HasErrors() {
			return fmt.Errorf("%d error(s), %d warning(s)", diags.ErrorCount(), diags.WarningCount())
		}
		return nil
	},
}

func checkSource(path, source string) (diagnostics.List, error) {
	toks, err := lexer.New(path, source).Scan()
	if err != nil {
		return nil, err
	}

	prog, diags := parser.New(path, toks).Parse()
	if diags.HasErrors() {
		return diags, nil
	}

	diags = append(diags, analyzer.New(path).Analyze(prog)...)
	return diags, nil
}
