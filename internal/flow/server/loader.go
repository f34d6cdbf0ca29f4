package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flow-lang/flow/internal/flow/ast"
	"github.com/flow-lang/flow/internal/flow/cache"
	"github.com/flow-lang/flow/internal/flow/compiler"
	"github.com/flow-lang/flow/internal/flow/connectors"
	"github.com/flow-lang/flow/internal/flow/diagnostics"
	"github.com/flow-lang/flow/internal/flow/lexer"
	"github.com/flow-lang/flow/internal/flow/runtime"
)

// workflow is one loaded, compiled, and wired .flow program ready to run.
type workflow struct {
	name     string
	source   string
	program  *ast.Program
	registry runtime.Registry
}

// loadWorkflows compiles every .flow file in dir, named by its config
// `name:` entry if present, otherwise its filename without extension. A
// file that fails to compile is skipped with its diagnostics logged by the
// caller rather than aborting the whole directory.
func loadWorkflows(dir string, c cache.ProgramCache, env connectors.EnvLookup) (map[string]*workflow, map[string]diagnostics.List, error) {
	paths, err := findFlowFiles(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading workflow directory %s: %w", dir, err)
	}

	workflows := make(map[string]*workflow)
	failed := make(map[string]diagnostics.List)

	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", path, err)
		}

		result, err := compiler.Compile(c, path, string(raw))
		if err != nil {
			var lexErr *lexer.Error
			if errors.As(err, &lexErr) {
				name := strings.TrimSuffix(filepath.Base(path), ".flow")
				failed[name] = diagnostics.List{diagnostics.New(path, lexErr.Line, lexErr.Column, lexErr.Message)}
				continue
			}
			return nil, nil, fmt.Errorf("compiling %s: %w", path, err)
		}

		name := workflowName(result.Program, filepath.Base(path))
		if result.Diagnostics.HasErrors() {
			failed[name] = result.Diagnostics
			continue
		}

		registry, err := connectors.BuildLive(result.Program.Services, env)
		if err != nil {
			return nil, nil, fmt.Errorf("wiring services for %s: %w", path, err)
		}

		workflows[name] = &workflow{name: name, source: string(raw), program: result.Program, registry: registry}
	}

	return workflows, failed, nil
}

func workflowName(prog *ast.Program, filename string) string {
	if prog.Config != nil {
		for _, e := range prog.Config.Entries {
			if e.Key == "name" {
				return e.Value
			}
		}
	}
	return strings.TrimSuffix(filename, ".flow")
}
