package parser

import (
	"strconv"

	"github.com/flow-lang/flow/internal/flow/ast"
	"github.com/flow-lang/flow/internal/flow/token"
)

// parseExpression is the entry point of the precedence-climbing expression
// grammar described in spec.md §4.2: logical `or` is lowest, then `and`,
// then comparison, then math in plus/minus then times/divided-by/rounded-to
// groups, then primaries.
func (p *Parser) parseExpression() ast.Expr {
	return p.parseLogicalOr()
}

func (p *Parser) parseLogicalOr() ast.Expr {
	left := p.parseLogicalAnd()
	for p.check(token.OR) {
		op := p.advance()
		right := p.parseLogicalAnd()
		left = &ast.LogicalExpression{Left: left, Op: ast.LogicalOr, Right: right, Position: toPos(op)}
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Expr {
	left := p.parseComparison()
	for p.check(token.AND) {
		op := p.advance()
		right := p.parseComparison()
		left = &ast.LogicalExpression{Left: left, Op: ast.LogicalAnd, Right: right, Position: toPos(op)}
	}
	return left
}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseMathAdditive()

	switch p.peek().Type {
	case token.IS:
		op := p.advance()
		right := p.parseMathAdditive()
		return &ast.ComparisonExpression{Left: left, Op: ast.Is, Right: right, Position: toPos(op)}
	case token.IS_NOT:
		op := p.advance()
		right := p.parseMathAdditive()
		return &ast.ComparisonExpression{Left: left, Op: ast.IsNot, Right: right, Position: toPos(op)}
	case token.IS_ABOVE:
		op := p.advance()
		right := p.parseMathAdditive()
		return &ast.ComparisonExpression{Left: left, Op: ast.IsAbove, Right: right, Position: toPos(op)}
	case token.IS_BELOW:
		op := p.advance()
		right := p.parseMathAdditive()
		return &ast.ComparisonExpression{Left: left, Op: ast.IsBelow, Right: right, Position: toPos(op)}
	case token.IS_AT_LEAST:
		op := p.advance()
		right := p.parseMathAdditive()
		return &ast.ComparisonExpression{Left: left, Op: ast.IsAtLeast, Right: right, Position: toPos(op)}
	case token.IS_AT_MOST:
		op := p.advance()
		right := p.parseMathAdditive()
		return &ast.ComparisonExpression{Left: left, Op: ast.IsAtMost, Right: right, Position: toPos(op)}
	case token.CONTAINS:
		op := p.advance()
		right := p.parseMathAdditive()
		return &ast.ComparisonExpression{Left: left, Op: ast.Contains, Right: right, Position: toPos(op)}
	case token.IS_EMPTY:
		op := p.advance()
		return &ast.ComparisonExpression{Left: left, Op: ast.IsEmptyOp, Position: toPos(op)}
	case token.IS_NOT_EMPTY:
		op := p.advance()
		return &ast.ComparisonExpression{Left: left, Op: ast.IsNotEmptyOp, Position: toPos(op)}
	case token.EXISTS:
		op := p.advance()
		return &ast.ComparisonExpression{Left: left, Op: ast.ExistsOp, Position: toPos(op)}
	case token.DOES_NOT_EXIST:
		op := p.advance()
		return &ast.ComparisonExpression{Left: left, Op: ast.DoesNotExistOp, Position: toPos(op)}
	}

	return left
}

func (p *Parser) parseMathAdditive() ast.Expr {
	left := p.parseMathMultiplicative()
	for {
		switch p.peek().Type {
		case token.PLUS:
			op := p.advance()
			right := p.parseMathMultiplicative()
			left = &ast.MathExpression{Left: left, Op: ast.Add, Right: right, Position: toPos(op)}
		case token.MINUS:
			op := p.advance()
			right := p.parseMathMultiplicative()
			left = &ast.MathExpression{Left: left, Op: ast.Subtract, Right: right, Position: toPos(op)}
		default:
			return left
		}
	}
}

func (p *Parser) parseMathMultiplicative() ast.Expr {
	left := p.parsePostfix()
	for {
		switch p.peek().Type {
		case token.TIMES:
			op := p.advance()
			right := p.parsePostfix()
			left = &ast.MathExpression{Left: left, Op: ast.Multiply, Right: right, Position: toPos(op)}
		case token.DIVIDED_BY:
			op := p.advance()
			right := p.parsePostfix()
			left = &ast.MathExpression{Left: left, Op: ast.DivideBy, Right: right, Position: toPos(op)}
		case token.ROUNDED_TO:
			op := p.advance()
			places, ok := p.consume(token.NUMBER, "expected a number of places")
			if ok {
				p.consume(token.PLACES, "expected 'places' after the rounding precision")
			}
			var right ast.Expr
			if ok {
				v, _ := strconv.ParseFloat(places.Lexeme, 64)
				right = &ast.NumberLiteral{Value: v, Position: toPos(places)}
			}
			left = &ast.MathExpression{Left: left, Op: ast.RoundedTo, Right: right, Position: toPos(op)}
		default:
			return left
		}
	}
}

// parsePostfix parses a primary expression followed by zero or more
// dot-access suffixes.
func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for p.check(token.DOT) {
		dot := p.advance()
		propTok, ok := p.consume(token.IDENTIFIER, "expected a field name after '.'")
		if !ok {
			break
		}
		expr = &ast.DotAccess{Object: expr, Property: propTok.Lexeme, Position: toPos(dot)}
	}
	return expr
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch tok.Type {
	case token.STRING:
		p.advance()
		return &ast.StringLiteral{Value: tok.Lexeme, Position: toPos(tok)}
	case token.STRING_PART:
		return p.parseInterpolatedString()
	case token.NUMBER:
		p.advance()
		v, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return &ast.NumberLiteral{Value: v, Position: toPos(tok)}
	case token.BOOLEAN:
		p.advance()
		return &ast.BooleanLiteral{Value: tok.Literal == true, Position: toPos(tok)}
	case token.ENV:
		p.advance()
		return &ast.Identifier{Name: "env", Position: toPos(tok)}
	case token.IDENTIFIER:
		p.advance()
		return &ast.Identifier{Name: tok.Lexeme, Position: toPos(tok)}
	default:
		p.errorAt(tok, "expected an expression")
		p.advance()
		return nil
	}
}

// parseInterpolatedString consumes the STRING_PART / INTERPOLATION_START /
// (IDENTIFIER (DOT IDENTIFIER)*) / INTERPOLATION_END sequence the lexer
// emits for a string literal containing `{...}` interpolations.
func (p *Parser) parseInterpolatedString() ast.Expr {
	start := p.peek()
	var parts []ast.InterpolationPart

	first := p.advance() // STRING_PART
	parts = append(parts, ast.InterpolationPart{Text: first.Lexeme})

	for p.check(token.INTERPOLATION_START) {
		p.advance()
		nameTok, ok := p.consume(token.IDENTIFIER, "expected an identifier in interpolation")
		if !ok {
			break
		}
		var expr ast.Expr = &ast.Identifier{Name: nameTok.Lexeme, Position: toPos(nameTok)}
		for p.check(token.DOT) {
			p.advance()
			propTok, ok := p.consume(token.IDENTIFIER, "expected a field name after '.'")
			if !ok {
				break
			}
			expr = &ast.DotAccess{Object: expr, Property: propTok.Lexeme, Position: toPos(propTok)}
		}
		p.consume(token.INTERPOLATION_END, "expected '}' to close interpolation")
		next, ok := p.consume(token.STRING_PART, "expected string content after interpolation")
		if !ok {
			break
		}
		parts = append(parts, ast.InterpolationPart{Expr: expr})
		parts = append(parts, ast.InterpolationPart{Text: next.Lexeme})
	}

	return &ast.InterpolatedString{Parts: parts, Position: toPos(start)}
}
