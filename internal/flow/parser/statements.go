package parser

import (
	"strconv"
	"strings"

	"github.com/flow-lang/flow/internal/flow/ast"
	"github.com/flow-lang/flow/internal/flow/token"
)

// parseStatement dispatches to the appropriate statement parser based on
// the leading token, per spec.md §4.2's Workflow block grammar.
func (p *Parser) parseStatement() ast.Stmt {
	switch p.peek().Type {
	case token.SET:
		return p.parseSet()
	case token.IF:
		return p.parseIf()
	case token.FOR_EACH:
		return p.parseForEach()
	case token.LOG:
		return p.parseLog()
	case token.COMPLETE:
		return p.parseComplete()
	case token.REJECT:
		return p.parseReject()
	case token.STEP:
		return p.parseStep()
	case token.ASK:
		return p.parseAsk()
	case token.IDENTIFIER:
		return p.parseServiceCall()
	default:
		p.errorAt(p.peek(), "expected a statement")
		p.synchronizeToNextLine()
		return nil
	}
}

func (p *Parser) parseSet() ast.Stmt {
	start := p.advance() // SET
	nameTok, ok := p.consume(token.IDENTIFIER, "expected a variable name after 'set'")
	if !ok {
		p.synchronizeToNextLine()
		return nil
	}
	if _, ok := p.consume(token.TO, "expected 'to' after variable name"); !ok {
		p.synchronizeToNextLine()
		return nil
	}
	value := p.parseExpression()
	p.matchNewline()
	return &ast.SetStatement{Name: nameTok.Lexeme, Value: value, Position: toPos(start)}
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.advance() // IF
	cond := p.parseExpression()
	stmt := &ast.IfStatement{Condition: cond, Position: toPos(start)}
	if !p.consumeBlockHeader() {
		return stmt
	}
	stmt.Then = p.parseStatements()
	p.consumeDedent()

	for p.check(token.OTHERWISE_IF) {
		ot := p.advance()
		branchCond := p.parseExpression()
		branch := &ast.ElseIfBranch{Condition: branchCond, Position: toPos(ot)}
		if p.consumeBlockHeader() {
			branch.Body = p.parseStatements()
			p.consumeDedent()
		}
		stmt.ElseIfs = append(stmt.ElseIfs, branch)
	}

	if p.check(token.OTHERWISE) {
		p.advance()
		if p.consumeBlockHeader() {
			stmt.Else = p.parseStatements()
			p.consumeDedent()
		}
	}

	return stmt
}

func (p *Parser) parseForEach() ast.Stmt {
	start := p.advance() // FOR_EACH
	itemTok, ok := p.consume(token.IDENTIFIER, "expected a loop variable name")
	if !ok {
		p.synchronizeToNextLine()
		return nil
	}
	if _, ok := p.consume(token.IN, "expected 'in' after loop variable"); !ok {
		p.synchronizeToNextLine()
		return nil
	}
	collection := p.parseExpression()
	stmt := &ast.ForEachStatement{Item: itemTok.Lexeme, Collection: collection, Position: toPos(start)}
	if !p.consumeBlockHeader() {
		return stmt
	}
	stmt.Body = p.parseStatements()
	p.consumeDedent()
	return stmt
}

func (p *Parser) parseLog() ast.Stmt {
	start := p.advance() // LOG
	value := p.parseExpression()
	p.matchNewline()
	return &ast.LogStatement{Value: value, Position: toPos(start)}
}

// parseOutputValue parses the restricted value grammar CompleteStatement
// outputs allow: a literal, an identifier, or dot-access — not general math.
func (p *Parser) parseOutputValue() ast.Expr {
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
	case token.IDENTIFIER, token.ENV:
		return p.parsePostfix()
	default:
		p.errorAt(tok, "expected a literal, identifier, or field access")
		return nil
	}
}

func (p *Parser) parseComplete() ast.Stmt {
	start := p.advance() // COMPLETE
	if _, ok := p.consume(token.WITH, "expected 'with' after 'complete'"); !ok {
		p.synchronizeToNextLine()
		return nil
	}
	stmt := &ast.CompleteStatement{Position: toPos(start)}
	for {
		nameTok, ok := p.consume(token.IDENTIFIER, "expected an output name")
		if !ok {
			p.synchronizeToNextLine()
			break
		}
		value := p.parseOutputValue()
		stmt.Outputs = append(stmt.Outputs, ast.CompleteOutput{Name: nameTok.Lexeme, Value: value})
		if !p.match(token.AND) {
			break
		}
	}
	p.matchNewline()
	return stmt
}

func (p *Parser) parseReject() ast.Stmt {
	start := p.advance() // REJECT
	if _, ok := p.consume(token.WITH, "expected 'with' after 'reject'"); !ok {
		p.synchronizeToNextLine()
		return nil
	}
	msg := p.parseExpression()
	p.matchNewline()
	return &ast.RejectStatement{Message: msg, Position: toPos(start)}
}

func (p *Parser) parseStep() ast.Stmt {
	start := p.advance() // STEP
	name := p.collectUntilColon()
	stmt := &ast.StepBlock{Name: name, Position: toPos(start)}
	if !p.consumeBlockHeader() {
		return stmt
	}
	stmt.Body = p.parseStatements()
	p.consumeDedent()
	return stmt
}

// collectUntilColon joins lexemes up to (not including) the next ':',
// matching spec.md §4.2's "the name is the rest of the line before the
// colon (whitespace permitted inside the name)".
func (p *Parser) collectUntilColon() string {
	var words []string
	for !p.check(token.COLON) && !p.check(token.NEWLINE) && !p.isAtEnd() {
		words = append(words, p.advance().Lexeme)
	}
	return strings.Join(words, " ")
}

func (p *Parser) parseAsk() ast.Stmt {
	start := p.advance() // ASK
	serviceTok, ok := p.consume(token.IDENTIFIER, "expected a service name after 'ask'")
	if !ok {
		p.synchronizeToNextLine()
		return nil
	}
	if _, ok := p.consume(token.TO, "expected 'to' after service name"); !ok {
		p.synchronizeToNextLine()
		return nil
	}
	instruction := p.collectUntilNewline()
	p.matchNewline()

	stmt := &ast.AskStatement{Service: serviceTok.Lexeme, Instruction: instruction, Position: toPos(start)}

	if p.check(token.INDENT) {
		p.advance()
		for !p.check(token.DEDENT) && !p.isAtEnd() {
			switch p.peek().Type {
			case token.NEWLINE:
				p.advance()
			case token.SAVE_RESULT_AS:
				p.advance()
				if v, ok := p.consume(token.IDENTIFIER, "expected a variable name"); ok {
					stmt.ResultVar = v.Lexeme
				}
				p.matchNewline()
			case token.SAVE_CONFIDENCE_AS:
				p.advance()
				if v, ok := p.consume(token.IDENTIFIER, "expected a variable name"); ok {
					stmt.ConfidenceVar = v.Lexeme
				}
				p.matchNewline()
			default:
				p.errorAt(p.peek(), "expected a save clause")
				p.synchronizeToNextLine()
			}
		}
		p.consumeDedent()
	}

	return stmt
}

// parseServiceCall parses the general fallback statement shape:
// `<verb> <description-words> using <ServiceName> [at <path>] [with ...] [to <expr>]`
// followed by optional indented save-clauses and an on-failure handler.
func (p *Parser) parseServiceCall() ast.Stmt {
	start := p.peek()
	verbTok := p.advance()

	var descWords []string
	for p.check(token.IDENTIFIER) && p.peek().Type != token.USING {
		descWords = append(descWords, p.advance().Lexeme)
	}

	if _, ok := p.consume(token.USING, "expected 'using' in service call"); !ok {
		p.synchronizeToNextLine()
		return nil
	}
	serviceTok, ok := p.consume(token.IDENTIFIER, "expected a service name after 'using'")
	if !ok {
		p.synchronizeToNextLine()
		return nil
	}

	call := &ast.ServiceCall{
		Verb: verbTok.Lexeme, Description: strings.Join(descWords, " "),
		Service: serviceTok.Lexeme, Position: toPos(start),
	}

	if p.check(token.AT) {
		p.advance()
		call.Path = p.parseExpression()
	}

	if p.check(token.WITH) {
		p.advance()
		for {
			paramTok, ok := p.consume(token.IDENTIFIER, "expected a parameter name")
			if !ok {
				break
			}
			val := p.parseExpression()
			call.Params = append(call.Params, ast.Param{Name: paramTok.Lexeme, Value: val})
			if !p.match(token.AND) {
				break
			}
		}
	}

	if p.check(token.TO) {
		p.advance()
		val := p.parseExpression()
		call.Params = append(call.Params, ast.Param{Name: "to", Value: val})
	}

	p.matchNewline()

	if p.check(token.INDENT) {
		p.advance()
		for !p.check(token.DEDENT) && !p.isAtEnd() {
			switch p.peek().Type {
			case token.NEWLINE:
				p.advance()
			case token.SAVE_RESULT_AS:
				p.advance()
				if v, ok := p.consume(token.IDENTIFIER, "expected a variable name"); ok {
					call.ResultVar = v.Lexeme
				}
				p.matchNewline()
			case token.SAVE_STATUS_AS:
				p.advance()
				if v, ok := p.consume(token.IDENTIFIER, "expected a variable name"); ok {
					call.StatusVar = v.Lexeme
				}
				p.matchNewline()
			case token.ON_FAILURE:
				call.OnFailure = p.parseErrorHandler()
			default:
				p.errorAt(p.peek(), "expected a save clause or on-failure handler")
				p.synchronizeToNextLine()
			}
		}
		p.consumeDedent()
	}

	return call
}

func (p *Parser) parseErrorHandler() *ast.ErrorHandler {
	start := p.advance() // ON_FAILURE
	handler := &ast.ErrorHandler{Position: toPos(start)}
	if !p.consumeBlockHeader() {
		return handler
	}

	for !p.check(token.DEDENT) && !p.isAtEnd() {
		switch p.peek().Type {
		case token.NEWLINE:
			p.advance()
		case token.RETRY:
			p.advance()
			n, ok := p.consume(token.NUMBER, "expected a retry count")
			if ok {
				handler.RetryCount = int(n.Literal.(float64))
			}
			p.consume(token.TIMES, "expected 'times' after retry count")
			p.consume(token.WAITING, "expected 'waiting' after retry count")
			s, ok := p.consume(token.NUMBER, "expected a wait duration")
			if ok {
				handler.RetryWait = int(s.Literal.(float64))
			}
			p.consume(token.SECONDS, "expected 'seconds' after wait duration")
			p.matchNewline()
		case token.IF_STILL_FAILING:
			p.advance()
			if p.consumeBlockHeader() {
				handler.Fallback = p.parseStatements()
				p.consumeDedent()
			}
		default:
			p.errorAt(p.peek(), "expected a retry clause")
			p.synchronizeToNextLine()
		}
	}
	p.consumeDedent()
	return handler
}
