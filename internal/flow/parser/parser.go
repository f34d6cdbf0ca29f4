// Package parser builds a typed AST from a Flow token stream by recursive
// descent: each statement is selected by its leading keyword, and errors are
// resynchronized at block boundaries so a single malformed file can still
// report every independent problem in one pass.
package parser

import (
	"github.com/flow-lang/flow/internal/flow/ast"
	"github.com/flow-lang/flow/internal/flow/diagnostics"
	"github.com/flow-lang/flow/internal/flow/token"
)

// Parser consumes a flat token stream and produces a Program plus any
// diagnostics collected along the way.
type Parser struct {
	file    string
	tokens  []token.Token
	current int
	errs    diagnostics.List
}

// New prepares a Parser over a token stream produced by the lexer for the
// named file.
func New(file string, tokens []token.Token) *Parser {
	return &Parser{file: file, tokens: tokens}
}

// Parse runs the parser to completion, returning the best-effort Program
// (non-nil even with errors, so later stages can still inspect what parsed)
// and the accumulated diagnostics.
func (p *Parser) Parse() (*ast.Program, diagnostics.List) {
	prog := &ast.Program{Position: ast.Position{Line: 1, Column: 1}}
	seen := map[token.Type]bool{}

	for !p.isAtEnd() {
		switch p.peek().Type {
		case token.CONFIG:
			if seen[token.CONFIG] {
				p.errorAt(p.peek(), "duplicate config: block")
				p.advance()
				p.synchronize()
				continue
			}
			seen[token.CONFIG] = true
			prog.Config = p.parseConfig()

		case token.SERVICES:
			if seen[token.SERVICES] {
				p.errorAt(p.peek(), "duplicate services: block")
				p.advance()
				p.synchronize()
				continue
			}
			seen[token.SERVICES] = true
			prog.Services = p.parseServices()

		case token.WORKFLOW:
			if seen[token.WORKFLOW] {
				p.errorAt(p.peek(), "duplicate workflow: block")
				p.advance()
				p.synchronize()
				continue
			}
			seen[token.WORKFLOW] = true
			prog.Workflow = p.parseWorkflow()

		default:
			p.errorAt(p.peek(), "expected config:, services:, or workflow:")
			p.synchronize()
		}
	}

	return prog, p.errs
}

// parseConfig parses `config:` INDENT (key: value NEWLINE)* DEDENT.
func (p *Parser) parseConfig() *ast.Config {
	start := p.peek()
	p.advance() // CONFIG
	cfg := &ast.Config{Position: toPos(start)}

	if !p.consumeBlockHeader() {
		return cfg
	}

	for !p.check(token.DEDENT) && !p.isAtEnd() {
		if p.check(token.NEWLINE) {
			p.advance()
			continue
		}
		keyTok := p.peek()
		if keyTok.Type != token.IDENTIFIER {
			p.errorAt(keyTok, "expected a config key")
			p.synchronizeToNextLine()
			continue
		}
		p.advance()
		if _, ok := p.consume(token.COLON, "expected ':' after config key"); !ok {
			p.synchronizeToNextLine()
			continue
		}
		value := p.collectUntilNewline()
		p.matchNewline()
		cfg.Entries = append(cfg.Entries, &ast.ConfigEntry{
			Key: keyTok.Lexeme, Value: value, Position: toPos(keyTok),
		})
	}
	p.consumeDedent()
	return cfg
}

// parseServices parses `services:` INDENT (ServiceDecl)* DEDENT.
func (p *Parser) parseServices() *ast.Services {
	start := p.peek()
	p.advance() // SERVICES
	svcs := &ast.Services{Position: toPos(start)}

	if !p.consumeBlockHeader() {
		return svcs
	}

	for !p.check(token.DEDENT) && !p.isAtEnd() {
		if p.check(token.NEWLINE) {
			p.advance()
			continue
		}
		decl := p.parseServiceDecl()
		if decl != nil {
			svcs.Declarations = append(svcs.Declarations, decl)
		}
	}
	p.consumeDedent()
	return svcs
}

// parseServiceDecl parses one of the four declaration shapes described in
// spec.md §4.2's Services block.
func (p *Parser) parseServiceDecl() *ast.ServiceDecl {
	nameTok := p.peek()
	if nameTok.Type != token.IDENTIFIER {
		p.errorAt(nameTok, "expected a service name")
		p.synchronizeToNextLine()
		return nil
	}
	p.advance()

	if _, ok := p.consume(token.IS, "expected 'is' in service declaration"); !ok {
		p.synchronizeToNextLine()
		return nil
	}

	decl := &ast.ServiceDecl{Name: nameTok.Lexeme, Position: toPos(nameTok)}

	switch p.peek().Type {
	case token.AN:
		p.advance()
		switch p.peek().Type {
		case token.API:
			p.advance()
			decl.Kind = ast.ServiceAPI
		case token.AI:
			p.advance()
			decl.Kind = ast.ServiceAI
		default:
			p.errorAt(p.peek(), "expected API or AI after 'is an'")
			p.synchronizeToNextLine()
			return nil
		}
	case token.A:
		p.advance()
		switch p.peek().Type {
		case token.PLUGIN:
			p.advance()
			decl.Kind = ast.ServicePlugin
		case token.WEBHOOK:
			p.advance()
			decl.Kind = ast.ServiceWebhook
		default:
			p.errorAt(p.peek(), "expected plugin or webhook after 'is a'")
			p.synchronizeToNextLine()
			return nil
		}
	default:
		p.errorAt(p.peek(), "expected 'an' or 'a' in service declaration")
		p.synchronizeToNextLine()
		return nil
	}

	switch decl.Kind {
	case ast.ServiceAPI, ast.ServiceWebhook:
		if _, ok := p.consume(token.AT, "expected 'at' before service URL"); !ok {
			p.synchronizeToNextLine()
			return decl
		}
	case ast.ServiceAI:
		if _, ok := p.consume(token.USING, "expected 'using' before model name"); !ok {
			p.synchronizeToNextLine()
			return decl
		}
	}

	target, ok := p.consume(token.STRING, "expected a quoted string")
	if !ok {
		p.synchronizeToNextLine()
		return decl
	}
	decl.Target = target.Lexeme
	p.matchNewline()

	// `with headers:` may follow on the declaration line or on its own line
	// one level deeper.
	nestedHeaders := decl.Kind == ast.ServiceAPI && p.check(token.INDENT) &&
		p.current+1 < len(p.tokens) && p.tokens[p.current+1].Type == token.WITH
	if nestedHeaders {
		p.advance()
	}

	if decl.Kind == ast.ServiceAPI && p.check(token.WITH) {
		p.advance()
		if _, ok := p.consume(token.HEADERS, "expected 'headers' after 'with'"); ok {
			if _, ok := p.consume(token.COLON, "expected ':' after headers"); ok {
				p.matchNewline()
				if p.consumeBlockHeaderNoColon() {
					for !p.check(token.DEDENT) && !p.isAtEnd() {
						if p.check(token.NEWLINE) {
							p.advance()
							continue
						}
						h := p.parseHeader()
						if h != nil {
							decl.Headers = append(decl.Headers, h)
						}
					}
					p.consumeDedent()
				}
			}
		}
	}
	if nestedHeaders {
		p.consumeDedent()
	}

	return decl
}

func (p *Parser) parseHeader() *ast.Header {
	nameTok := p.peek()
	if nameTok.Type != token.IDENTIFIER {
		p.errorAt(nameTok, "expected a header name")
		p.synchronizeToNextLine()
		return nil
	}
	p.advance()
	if _, ok := p.consume(token.COLON, "expected ':' after header name"); !ok {
		p.synchronizeToNextLine()
		return nil
	}
	value := p.parseExpression()
	p.matchNewline()
	return &ast.Header{Name: nameTok.Lexeme, Value: value, Position: toPos(nameTok)}
}

// parseWorkflow parses `workflow:` INDENT (trigger line)? Stmt* DEDENT.
func (p *Parser) parseWorkflow() *ast.Workflow {
	start := p.peek()
	p.advance() // WORKFLOW
	wf := &ast.Workflow{Position: toPos(start)}

	if !p.consumeBlockHeader() {
		return wf
	}

	if p.check(token.TRIGGER) {
		p.advance()
		if _, ok := p.consume(token.COLON, "expected ':' after trigger"); ok {
			wf.Trigger = p.collectUntilNewline()
			p.matchNewline()
		}
	}

	wf.Statements = p.parseStatements()
	p.consumeDedent()
	return wf
}

// parseStatements parses statements until a DEDENT or end of input.
func (p *Parser) parseStatements() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(token.DEDENT) && !p.isAtEnd() {
		if p.check(token.NEWLINE) {
			p.advance()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func toPos(t token.Token) ast.Position {
	return ast.Position{Line: t.Line, Column: t.Column}
}
