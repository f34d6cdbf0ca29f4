// Package analyzer walks a parsed Flow Program once, collecting declared
// service names and a lexical scope chain, and reports unknown services and
// unbound identifiers with Levenshtein-nearest "Did you mean" suggestions.
package analyzer

import (
	"fmt"

	"github.com/flow-lang/flow/internal/flow/ast"
	"github.com/flow-lang/flow/internal/flow/diagnostics"
)

var knownConfigKeys = map[string]bool{
	"name": true, "version": true, "timeout": true, "description": true,
}

// Analyzer performs the single semantic pass over a Program.
type Analyzer struct {
	file      string
	diags     diagnostics.List
	services  map[string]bool
	stepNames map[string]bool
}

// New prepares an Analyzer for the named source file.
func New(file string) *Analyzer {
	return &Analyzer{
		file:      file,
		services:  map[string]bool{},
		stepNames: map[string]bool{},
	}
}

// Analyze runs the pass and returns the accumulated diagnostics.
func (a *Analyzer) Analyze(prog *ast.Program) diagnostics.List {
	a.checkConfig(prog.Config)
	a.collectServices(prog.Services)

	root := newScope(nil)
	root.define("env")

	if prog.Workflow != nil {
		a.checkStatements(prog.Workflow.Statements, root)
	}

	return a.diags
}

func (a *Analyzer) errorf(pos ast.Position, format string, args ...interface{}) *diagnostics.Diagnostic {
	d := diagnostics.New(a.file, pos.Line, pos.Column, fmt.Sprintf(format, args...))
	a.diags = append(a.diags, d)
	return d
}

func (a *Analyzer) warnf(pos ast.Position, format string, args ...interface{}) *diagnostics.Diagnostic {
	d := diagnostics.NewWarning(a.file, pos.Line, pos.Column, fmt.Sprintf(format, args...))
	a.diags = append(a.diags, d)
	return d
}

func (a *Analyzer) checkConfig(cfg *ast.Config) {
	if cfg == nil {
		return
	}
	seen := map[string]bool{}
	for _, e := range cfg.Entries {
		if seen[e.Key] {
			a.errorf(e.Position, "duplicate config key '%s'", e.Key)
			continue
		}
		seen[e.Key] = true
		if !knownConfigKeys[e.Key] {
			a.warnf(e.Position, "unknown config key '%s'", e.Key)
		}
	}
}

func (a *Analyzer) collectServices(svcs *ast.Services) {
	if svcs == nil {
		return
	}
	for _, d := range svcs.Declarations {
		if a.services[d.Name] {
			a.errorf(d.Position, "duplicate service '%s'", d.Name)
			continue
		}
		a.services[d.Name] = true

		if d.Kind != ast.ServiceAPI && len(d.Headers) > 0 {
			a.warnf(d.Position, "headers declared for a non-API service '%s' are ignored", d.Name)
		}
		seenHeaders := map[string]bool{}
		for _, h := range d.Headers {
			if seenHeaders[h.Name] {
				a.warnf(h.Position, "duplicate header '%s' on service '%s'; last value wins", h.Name, d.Name)
			}
			seenHeaders[h.Name] = true
		}
	}
}

func (a *Analyzer) serviceNames() []string {
	names := make([]string, 0, len(a.services))
	for n := range a.services {
		names = append(names, n)
	}
	return names
}

func (a *Analyzer) checkService(name string, pos ast.Position) {
	if a.services[name] {
		return
	}
	d := a.errorf(pos, "unknown service '%s'", name)
	if s := closestMatch(name, a.serviceNames()); s != "" {
		d.WithSuggestion(s)
	}
}

func (a *Analyzer) checkStatements(stmts []ast.Stmt, s *scope) {
	for _, stmt := range stmts {
		a.checkStatement(stmt, s)
	}
}

func (a *Analyzer) checkStatement(stmt ast.Stmt, s *scope) {
	switch v := stmt.(type) {
	case *ast.SetStatement:
		a.checkExpr(v.Value, s)
		s.bind(v.Name)

	case *ast.IfStatement:
		a.checkExpr(v.Condition, s)
		a.checkStatements(v.Then, s)
		for _, ei := range v.ElseIfs {
			a.checkExpr(ei.Condition, s)
			a.checkStatements(ei.Body, s)
		}
		a.checkStatements(v.Else, s)

	case *ast.ForEachStatement:
		a.checkExpr(v.Collection, s)
		child := newScope(s)
		child.define(v.Item)
		a.checkStatements(v.Body, child)

	case *ast.LogStatement:
		a.checkExpr(v.Value, s)

	case *ast.CompleteStatement:
		for _, out := range v.Outputs {
			a.checkExpr(out.Value, s)
		}

	case *ast.RejectStatement:
		a.checkExpr(v.Message, s)

	case *ast.StepBlock:
		if a.stepNames[v.Name] {
			a.errorf(v.Position, "duplicate step '%s'", v.Name)
		}
		a.stepNames[v.Name] = true
		a.checkStatements(v.Body, s)

	case *ast.ServiceCall:
		a.checkService(v.Service, v.Position)
		if v.Path != nil {
			a.checkExpr(v.Path, s)
		}
		for _, param := range v.Params {
			a.checkExpr(param.Value, s)
		}
		if v.ResultVar != "" {
			s.bind(v.ResultVar)
		}
		if v.StatusVar != "" {
			s.bind(v.StatusVar)
		}
		if v.OnFailure != nil {
			a.checkStatements(v.OnFailure.Fallback, s)
		}

	case *ast.AskStatement:
		a.checkService(v.Service, v.Position)
		if v.ResultVar != "" {
			s.bind(v.ResultVar)
		}
		if v.ConfidenceVar != "" {
			s.bind(v.ConfidenceVar)
		}
	}
}

func (a *Analyzer) checkExpr(e ast.Expr, s *scope) {
	switch v := e.(type) {
	case nil:
		return

	case *ast.Identifier:
		if !s.isBound(v.Name) {
			d := a.errorf(v.Position, "unbound variable '%s'", v.Name)
			if suggestion := closestMatch(v.Name, s.allNames()); suggestion != "" {
				d.WithSuggestion(suggestion)
			}
		}

	case *ast.DotAccess:
		// Dot-access roots are never flagged: the trigger payload's shape
		// is not statically known (spec.md §9).
		a.checkDotAccessChain(v)

	case *ast.MathExpression:
		a.checkExpr(v.Left, s)
		a.checkExpr(v.Right, s)

	case *ast.ComparisonExpression:
		a.checkExpr(v.Left, s)
		if v.Right != nil {
			a.checkExpr(v.Right, s)
		}

	case *ast.LogicalExpression:
		a.checkExpr(v.Left, s)
		a.checkExpr(v.Right, s)

	case *ast.InterpolatedString:
		for _, part := range v.Parts {
			if part.Expr != nil {
				a.checkExpr(part.Expr, s)
			}
		}
	}
}

// checkDotAccessChain walks down to the root of a dot-access chain without
// ever checking boundness, leniently allowing any depth of implicit
// external data (trigger fields, service response fields).
func (a *Analyzer) checkDotAccessChain(d *ast.DotAccess) {
	switch obj := d.Object.(type) {
	case *ast.DotAccess:
		a.checkDotAccessChain(obj)
	default:
		// *ast.Identifier and anything else at the root: not flagged.
	}
}
