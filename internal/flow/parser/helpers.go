package parser

import (
	"strings"

	"github.com/flow-lang/flow/internal/flow/diagnostics"
	"github.com/flow-lang/flow/internal/flow/token"
)

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(t token.Type) bool {
	if p.isAtEnd() {
		return t == token.EOF
	}
	return p.peek().Type == t
}

func (p *Parser) match(types ...token.Type) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(t token.Type, message string) (token.Token, bool) {
	if p.check(t) {
		return p.advance(), true
	}
	p.errorAt(p.peek(), message)
	return token.Token{}, false
}

func (p *Parser) errorAt(t token.Token, message string) {
	p.errs = append(p.errs, diagnostics.New(p.file, t.Line, t.Column, message))
}

// synchronize skips tokens until the next top-level block header (CONFIG,
// SERVICES, WORKFLOW) or end of input, so one malformed block does not
// prevent the rest of the file from being parsed.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		switch p.peek().Type {
		case token.CONFIG, token.SERVICES, token.WORKFLOW:
			return
		}
		p.advance()
	}
}

// synchronizeToNextLine skips to the next NEWLINE or DEDENT, used to recover
// from a malformed single line (a service declaration, a config entry, a
// statement) without abandoning the rest of the enclosing block.
func (p *Parser) synchronizeToNextLine() {
	for !p.isAtEnd() {
		switch p.peek().Type {
		case token.NEWLINE:
			p.advance()
			return
		case token.DEDENT, token.CONFIG, token.SERVICES, token.WORKFLOW:
			return
		}
		p.advance()
	}
}

func (p *Parser) matchNewline() {
	if p.check(token.NEWLINE) {
		p.advance()
	}
}

// consumeBlockHeader consumes ':' NEWLINE INDENT, returning false (without
// reporting a further error) if the block has no indented body at all.
func (p *Parser) consumeBlockHeader() bool {
	if _, ok := p.consume(token.COLON, "expected ':'"); !ok {
		p.synchronize()
		return false
	}
	p.matchNewline()
	if p.check(token.INDENT) {
		p.advance()
		return true
	}
	return false
}

// consumeBlockHeaderNoColon consumes just the INDENT of a sub-block whose
// ':' and NEWLINE were already consumed by the caller.
func (p *Parser) consumeBlockHeaderNoColon() bool {
	if p.check(token.INDENT) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consumeDedent() {
	if p.check(token.DEDENT) {
		p.advance()
	}
}

// collectUntilNewline joins the lexemes of every token up to (not
// including) the next NEWLINE with single spaces — used for config values,
// ask instructions, and other free-text spans that may contain whitespace.
func (p *Parser) collectUntilNewline() string {
	var words []string
	for !p.check(token.NEWLINE) && !p.isAtEnd() {
		words = append(words, p.advance().Lexeme)
	}
	return strings.Join(words, " ")
}
