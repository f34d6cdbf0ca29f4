package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flow-lang/flow/internal/flow/lexer"
)

var fmtCheckCmd = &cobra.Command{
	Use:   "fmt-check <file.flow>",
	Short: "Lex a workflow and fail on indentation or tab errors, without rewriting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		source, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		if _, err := lexer.New(path, string(source)).Scan(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return fmt.Errorf("%s failed formatting checks", path)
		}

		color.New(color.FgGreen).Printf("✓ %s is cleanly indented\n", path)
		return nil
	},
}
