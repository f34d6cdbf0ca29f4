package runtime

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/flow-lang/flow/internal/flow/ast"
)

// LogSink receives LogStatement output; the host decides where it goes
// (stdout, a structured logger, a test buffer). runID and step carry the
// same structured context a zap-backed sink would attach as fields; step
// is empty outside any StepBlock.
type LogSink interface {
	Log(runID, step, message string)
}

// LogSinkFunc adapts a plain function to LogSink.
type LogSinkFunc func(runID, step, message string)

func (f LogSinkFunc) Log(runID, step, message string) { f(runID, step, message) }

// Interpreter tree-walks a single analyzed Program to completion.
type Interpreter struct {
	file      string
	registry  Registry
	sink      LogSink
	timeout   time.Duration
	hasDeadline bool
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogSink overrides the default no-op log sink.
func WithLogSink(sink LogSink) Option {
	return func(i *Interpreter) { i.sink = sink }
}

// WithTimeout sets the workflow-wide deadline from the `config: timeout`
// value, measured from the moment Run is called.
func WithTimeout(d time.Duration) Option {
	return func(i *Interpreter) {
		i.timeout = d
		i.hasDeadline = true
	}
}

// New prepares an Interpreter for the named source file and connector
// registry.
func New(file string, registry Registry, opts ...Option) *Interpreter {
	i := &Interpreter{file: file, registry: registry, sink: LogSinkFunc(func(string, string, string) {})}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run executes prog.Workflow against the given trigger payload and
// environment map, to completion or until a terminal statement fires.
func (i *Interpreter) Run(ctx context.Context, prog *ast.Program, trigger, env Value) Outcome {
	if i.hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	root := newScope(nil)
	root.define("env", env)

	if rec, ok := trigger.(Record); ok {
		for k, v := range rec {
			root.define(k, v)
		}
		if _, has := rec["request"]; !has {
			root.define("request", trigger)
		}
	} else if !IsEmpty(trigger) {
		root.define("request", trigger)
	}

	if prog.Workflow == nil {
		return completed(nil)
	}

	term, outcome, err := i.execStatements(ctx, prog.Workflow.Statements, root)
	if err != nil {
		return i.runtimeErrorOutcome(err)
	}
	if term {
		return outcome
	}
	return completed(nil)
}

// runtimeError carries an optional source location alongside a message, so
// it can be surfaced as an Outcome with location per spec.md §6.
type runtimeError struct {
	message string
	pos     ast.Position
	hasPos  bool
}

func (e *runtimeError) Error() string { return e.message }

func rtErrAt(pos ast.Position, format string, args ...interface{}) error {
	return &runtimeError{message: fmt.Sprintf(format, args...), pos: pos, hasPos: true}
}

func (i *Interpreter) runtimeErrorOutcome(err error) Outcome {
	if rtErr, ok := err.(*runtimeError); ok {
		var loc *Location
		if rtErr.hasPos {
			loc = &Location{Line: rtErr.pos.Line, Column: rtErr.pos.Column}
		}
		return errored(rtErr.message, loc)
	}
	return errored(err.Error(), nil)
}

// execStatements runs a statement list in order, short-circuiting when a
// CompleteStatement or RejectStatement fires or a runtime error occurs.
func (i *Interpreter) execStatements(ctx context.Context, stmts []ast.Stmt, s *scope) (terminated bool, outcome Outcome, err error) {
	for _, stmt := range stmts {
		terminated, outcome, err = i.execStatement(ctx, stmt, s)
		if err != nil || terminated {
			return terminated, outcome, err
		}
	}
	return false, Outcome{}, nil
}

func (i *Interpreter) checkDeadline(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return &runtimeError{message: "timeout exceeded"}
	default:
		return nil
	}
}

func (i *Interpreter) execStatement(ctx context.Context, stmt ast.Stmt, s *scope) (bool, Outcome, error) {
	switch v := stmt.(type) {
	case *ast.SetStatement:
		val, err := i.eval(ctx, v.Value, s)
		if err != nil {
			return false, Outcome{}, err
		}
		s.bind(v.Name, val)
		return false, Outcome{}, nil

	case *ast.IfStatement:
		cond, err := i.eval(ctx, v.Condition, s)
		if err != nil {
			return false, Outcome{}, err
		}
		if Truthy(cond) {
			return i.execStatements(ctx, v.Then, s)
		}
		for _, ei := range v.ElseIfs {
			c, err := i.eval(ctx, ei.Condition, s)
			if err != nil {
				return false, Outcome{}, err
			}
			if Truthy(c) {
				return i.execStatements(ctx, ei.Body, s)
			}
		}
		if v.Else != nil {
			return i.execStatements(ctx, v.Else, s)
		}
		return false, Outcome{}, nil

	case *ast.ForEachStatement:
		coll, err := i.eval(ctx, v.Collection, s)
		if err != nil {
			return false, Outcome{}, err
		}
		items, ok := coll.(List)
		if !ok {
			return false, Outcome{}, rtErrAt(v.Position, "'for each' requires a list, got %s", typeName(coll))
		}
		for _, item := range items {
			child := newScope(s)
			child.define(v.Item, item)
			term, outcome, err := i.execStatements(ctx, v.Body, child)
			if err != nil || term {
				return term, outcome, err
			}
		}
		return false, Outcome{}, nil

	case *ast.LogStatement:
		val, err := i.eval(ctx, v.Value, s)
		if err != nil {
			return false, Outcome{}, err
		}
		i.sink.Log(runIDFromContext(ctx), stepNameFromContext(ctx), val.String())
		return false, Outcome{}, nil

	case *ast.CompleteStatement:
		outputs := make([]Output, 0, len(v.Outputs))
		for _, out := range v.Outputs {
			val, err := i.eval(ctx, out.Value, s)
			if err != nil {
				return false, Outcome{}, err
			}
			outputs = append(outputs, Output{Name: out.Name, Value: val})
		}
		return true, completed(outputs), nil

	case *ast.RejectStatement:
		val, err := i.eval(ctx, v.Message, s)
		if err != nil {
			return false, Outcome{}, err
		}
		return true, rejected(val.String()), nil

	case *ast.StepBlock:
		return i.execStatements(withStepName(ctx, v.Name), v.Body, s)

	case *ast.ServiceCall:
		return i.execServiceCall(ctx, v, s)

	case *ast.AskStatement:
		return i.execAsk(ctx, v, s)

	default:
		return false, Outcome{}, rtErrAt(stmt.Pos(), "unsupported statement")
	}
}

func (i *Interpreter) execServiceCall(ctx context.Context, v *ast.ServiceCall, s *scope) (bool, Outcome, error) {
	conn, ok := i.registry[v.Service]
	if !ok {
		return false, Outcome{}, rtErrAt(v.Position, "no connector registered for service '%s'", v.Service)
	}

	params := make([]Param, 0, len(v.Params))
	for _, p := range v.Params {
		val, err := i.eval(ctx, p.Value, s)
		if err != nil {
			return false, Outcome{}, err
		}
		params = append(params, Param{Name: p.Name, Value: val})
	}

	var path Value
	if v.Path != nil {
		pv, err := i.eval(ctx, v.Path, s)
		if err != nil {
			return false, Outcome{}, err
		}
		path = pv
	}

	retries, wait := 0, 0
	if v.OnFailure != nil {
		retries, wait = v.OnFailure.RetryCount, v.OnFailure.RetryWait
	}

	var result InvokeResult
	var callErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if err := i.checkDeadline(ctx); err != nil {
			return false, Outcome{}, err
		}
		result, callErr = conn.Invoke(ctx, v.Verb, v.Description, params, path)
		if callErr == nil {
			break
		}
		connErr, _ := callErr.(*ConnectorError)
		retryable := connErr == nil || connErr.Retryable
		if !retryable || attempt == retries {
			break
		}
		if wait > 0 {
			if err := i.sleep(ctx, time.Duration(wait)*time.Second); err != nil {
				return false, Outcome{}, err
			}
		}
	}

	if callErr != nil {
		if v.OnFailure != nil && v.OnFailure.Fallback != nil {
			return i.execStatements(ctx, v.OnFailure.Fallback, s)
		}
		connErr, _ := callErr.(*ConnectorError)
		if connErr != nil && connErr.Retryable {
			return false, Outcome{}, rtErrAt(v.Position, "service '%s' failed after %d attempt(s): %s", v.Service, retries+1, callErr.Error())
		}
		return false, Outcome{}, rtErrAt(v.Position, "service '%s' failed: %s", v.Service, callErr.Error())
	}

	if v.ResultVar != "" {
		s.bind(v.ResultVar, result.Result)
	}
	if v.StatusVar != "" {
		s.bind(v.StatusVar, result.Status)
	}
	if v.HeadersVar != "" {
		s.bind(v.HeadersVar, result.Headers)
	}
	return false, Outcome{}, nil
}

func (i *Interpreter) execAsk(ctx context.Context, v *ast.AskStatement, s *scope) (bool, Outcome, error) {
	conn, ok := i.registry[v.Service]
	if !ok {
		return false, Outcome{}, rtErrAt(v.Position, "no connector registered for service '%s'", v.Service)
	}
	if err := i.checkDeadline(ctx); err != nil {
		return false, Outcome{}, err
	}
	result, err := conn.Ask(ctx, v.Instruction, Empty)
	if err != nil {
		return false, Outcome{}, rtErrAt(v.Position, "AI service '%s' failed: %s", v.Service, err.Error())
	}
	if v.ResultVar != "" {
		s.bind(v.ResultVar, result.Result)
	}
	if v.ConfidenceVar != "" {
		s.bind(v.ConfidenceVar, Number(result.Confidence))
	}
	return false, Outcome{}, nil
}

// sleep is the cooperative suspension point for retry waits: it honors
// ctx cancellation (deadline or caller cancel) instead of blocking past it.
func (i *Interpreter) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return &runtimeError{message: "timeout exceeded"}
	}
}

func (i *Interpreter) eval(ctx context.Context, e ast.Expr, s *scope) (Value, error) {
	switch v := e.(type) {
	case *ast.StringLiteral:
		return Text(v.Value), nil

	case *ast.NumberLiteral:
		return Number(v.Value), nil

	case *ast.BooleanLiteral:
		return Boolean(v.Value), nil

	case *ast.Identifier:
		val, ok := s.get(v.Name)
		if !ok {
			return nil, rtErrAt(v.Position, "unbound variable '%s'", v.Name)
		}
		return val, nil

	case *ast.DotAccess:
		obj, err := i.eval(ctx, v.Object, s)
		if err != nil {
			return nil, err
		}
		if IsEmpty(obj) {
			return Empty, nil
		}
		rec, ok := obj.(Record)
		if !ok {
			return nil, rtErrAt(v.Position, "cannot access field '%s' on a %s", v.Property, typeName(obj))
		}
		if field, ok := rec[v.Property]; ok {
			return field, nil
		}
		return Empty, nil

	case *ast.InterpolatedString:
		var b strings.Builder
		for _, part := range v.Parts {
			if part.Expr == nil {
				b.WriteString(part.Text)
				continue
			}
			val, err := i.eval(ctx, part.Expr, s)
			if err != nil {
				return nil, err
			}
			if IsEmpty(val) {
				b.WriteString("empty")
			} else {
				b.WriteString(val.String())
			}
		}
		return Text(b.String()), nil

	case *ast.MathExpression:
		return i.evalMath(ctx, v, s)

	case *ast.ComparisonExpression:
		return i.evalComparison(ctx, v, s)

	case *ast.LogicalExpression:
		return i.evalLogical(ctx, v, s)

	default:
		return nil, rtErrAt(e.Pos(), "unsupported expression")
	}
}

func (i *Interpreter) evalMath(ctx context.Context, v *ast.MathExpression, s *scope) (Value, error) {
	left, err := i.eval(ctx, v.Left, s)
	if err != nil {
		return nil, err
	}

	if v.Op == ast.RoundedTo && v.Right == nil {
		// Only reachable when the parser failed to recover a rounding
		// precision; the malformed source already carries a diagnostic.
		return nil, rtErrAt(v.Position, "malformed 'rounded to' expression")
	}

	if v.Op == ast.Add {
		if _, leftText := left.(Text); leftText {
			right, err := i.eval(ctx, v.Right, s)
			if err != nil {
				return nil, err
			}
			return Text(left.String() + right.String()), nil
		}
	}

	right, err := i.eval(ctx, v.Right, s)
	if err != nil {
		return nil, err
	}

	if v.Op == ast.Add {
		if _, rightText := right.(Text); rightText {
			return Text(left.String() + right.String()), nil
		}
	}

	ln, lok := left.(Number)
	rn, rok := right.(Number)
	if !lok || !rok {
		return nil, rtErrAt(v.Position, "arithmetic requires numbers, got %s and %s", typeName(left), typeName(right))
	}

	switch v.Op {
	case ast.Add:
		return ln + rn, nil
	case ast.Subtract:
		return ln - rn, nil
	case ast.Multiply:
		return ln * rn, nil
	case ast.DivideBy:
		if rn == 0 {
			return nil, rtErrAt(v.Position, "division by zero")
		}
		return ln / rn, nil
	case ast.RoundedTo:
		places := 0
		if right != nil {
			places = int(rn)
		}
		return roundTo(ln, places), nil
	default:
		return nil, rtErrAt(v.Position, "unsupported math operator")
	}
}

func roundTo(n Number, places int) Number {
	factor := math.Pow(10, float64(places))
	f := float64(n) * factor
	if f >= 0 {
		f = math.Floor(f + 0.5)
	} else {
		f = math.Ceil(f - 0.5)
	}
	return Number(f / factor)
}

func (i *Interpreter) evalComparison(ctx context.Context, v *ast.ComparisonExpression, s *scope) (Value, error) {
	left, err := i.eval(ctx, v.Left, s)
	if err != nil {
		return nil, err
	}

	switch v.Op {
	case ast.IsEmptyOp:
		return Boolean(isEmptyLike(left)), nil
	case ast.IsNotEmptyOp:
		return Boolean(!isEmptyLike(left)), nil
	case ast.ExistsOp:
		return Boolean(!isEmptyLike(left)), nil
	case ast.DoesNotExistOp:
		return Boolean(isEmptyLike(left)), nil
	}

	right, err := i.eval(ctx, v.Right, s)
	if err != nil {
		return nil, err
	}

	switch v.Op {
	case ast.Is:
		return Boolean(Equal(left, right)), nil
	case ast.IsNot:
		return Boolean(!Equal(left, right)), nil
	case ast.IsAbove, ast.IsBelow, ast.IsAtLeast, ast.IsAtMost:
		ln, lok := left.(Number)
		rn, rok := right.(Number)
		if !lok || !rok {
			return nil, rtErrAt(v.Position, "comparison requires numbers, got %s and %s", typeName(left), typeName(right))
		}
		switch v.Op {
		case ast.IsAbove:
			return Boolean(ln > rn), nil
		case ast.IsBelow:
			return Boolean(ln < rn), nil
		case ast.IsAtLeast:
			return Boolean(ln >= rn), nil
		default:
			return Boolean(ln <= rn), nil
		}
	case ast.Contains:
		switch l := left.(type) {
		case Text:
			r, ok := right.(Text)
			if !ok {
				return nil, rtErrAt(v.Position, "'contains' on text requires text, got %s", typeName(right))
			}
			return Boolean(strings.Contains(string(l), string(r))), nil
		case List:
			for _, item := range l {
				if Equal(item, right) {
					return Boolean(true), nil
				}
			}
			return Boolean(false), nil
		default:
			return nil, rtErrAt(v.Position, "'contains' requires text or a list, got %s", typeName(left))
		}
	default:
		return nil, rtErrAt(v.Position, "unsupported comparison operator")
	}
}

func isEmptyLike(v Value) bool {
	switch x := v.(type) {
	case emptyValue:
		return true
	case Text:
		return x == ""
	case List:
		return len(x) == 0
	case Record:
		return len(x) == 0
	default:
		return false
	}
}

func (i *Interpreter) evalLogical(ctx context.Context, v *ast.LogicalExpression, s *scope) (Value, error) {
	left, err := i.eval(ctx, v.Left, s)
	if err != nil {
		return nil, err
	}
	if v.Op == ast.LogicalOr {
		if Truthy(left) {
			return left, nil
		}
		return i.eval(ctx, v.Right, s)
	}
	if !Truthy(left) {
		return left, nil
	}
	return i.eval(ctx, v.Right, s)
}

func typeName(v Value) string {
	switch v.(type) {
	case Text:
		return "text"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case List:
		return "list"
	case Record:
		return "record"
	case emptyValue:
		return "empty"
	default:
		return "unknown"
	}
}
