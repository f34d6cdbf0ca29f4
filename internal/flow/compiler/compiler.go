// Package compiler runs the lex -> parse -> analyze pipeline a host needs
// before it can execute a workflow, consulting a cache.ProgramCache so a
// workflow's source is only recompiled when its text changes.
package compiler

import (
	"github.com/flow-lang/flow/internal/flow/analyzer"
	"github.com/flow-lang/flow/internal/flow/ast"
	"github.com/flow-lang/flow/internal/flow/cache"
	"github.com/flow-lang/flow/internal/flow/diagnostics"
	"github.com/flow-lang/flow/internal/flow/lexer"
	"github.com/flow-lang/flow/internal/flow/parser"
)

// Result is the outcome of compiling one program, whether freshly or from
// cache.
type Result struct {
	Program     *ast.Program
	Diagnostics diagnostics.List
	FromCache   bool
}

// Compile lexes, parses, and analyzes source, using c (if non-nil) to skip
// the work entirely when the content hash is already cached. A cache entry
// is only written back when compilation produced no errors, so a
// transiently broken edit never poisons the cache with a half-built
// program.
func Compile(c cache.ProgramCache, file, source string) (Result, error) {
	hash := cache.Hash(source)

	if c != nil {
		if entry, ok := c.Get(hash); ok {
			return Result{Program: entry.Program, Diagnostics: entry.Diagnostics, FromCache: true}, nil
		}
	}

	toks, err := lexer.New(file, source).Scan()
	if err != nil {
		return Result{}, err
	}

	prog, diags := parser.New(file, toks).Parse()

	if !diags.HasErrors() {
		analyzerDiags := analyzer.New(file).Analyze(prog)
		diags = append(diags, analyzerDiags...)
	}

	result := Result{Program: prog, Diagnostics: diags}

	if c != nil && !diags.HasErrors() {
		if err := c.Set(hash, &cache.Entry{Program: prog, Diagnostics: diags}); err != nil {
			return result, err
		}
	}

	return result, nil
}
