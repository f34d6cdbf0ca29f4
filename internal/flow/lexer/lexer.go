// Package lexer turns Flow source text into a token stream: an
// indentation-sensitive scanner that emits significant INDENT/DEDENT
// tokens, longest-match compound keywords, and string interpolation.
package lexer

import (
	"strings"

	"github.com/flow-lang/flow/internal/flow/token"
)

// Error is a lexical failure: bad indentation, tabs, unterminated string,
// empty interpolation, or an unrecognized character. All are fatal for the
// file — the lexer does not attempt recovery.
type Error struct {
	Message string
	Line    int
	Column  int
	Lexeme  string
}

func (e *Error) Error() string {
	return e.Message
}

// Lexer scans one Flow source file into a flat token stream.
type Lexer struct {
	file   string
	lines  []string
	tokens []token.Token
	stack  []int // indentation width stack, initialized to [0]
}

// New prepares a Lexer over source, normalizing CRLF line endings to LF.
func New(file, source string) *Lexer {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	return &Lexer{
		file:  file,
		lines: strings.Split(source, "\n"),
		stack: []int{0},
	}
}

// Scan tokenizes the whole file, returning the token stream ending in
// end-of-file, or the first lexical error encountered.
func (l *Lexer) Scan() ([]token.Token, error) {
	for lineNo, raw := range l.lines {
		line := lineNo + 1

		trimmed := stripComment(raw)
		if strings.TrimSpace(trimmed) == "" {
			continue // blank or comment-only line: no tokens, no indent change
		}

		indent, content, err := measureIndent(trimmed, line)
		if err != nil {
			return nil, err
		}

		if err := l.adjustIndent(indent, line); err != nil {
			return nil, err
		}

		if err := l.scanLineContent(content, line, indent+1); err != nil {
			return nil, err
		}

		l.emit(token.NEWLINE, "", nil, line, len(raw)+1)
	}

	lastLine := len(l.lines)
	for len(l.stack) > 1 {
		l.stack = l.stack[:len(l.stack)-1]
		l.emit(token.DEDENT, "", nil, lastLine, 1)
	}

	l.emit(token.EOF, "", nil, lastLine+1, 1)
	return l.tokens, nil
}

func (l *Lexer) emit(t token.Type, lexeme string, literal interface{}, line, col int) {
	l.tokens = append(l.tokens, token.Token{Type: t, Lexeme: lexeme, Literal: literal, Line: line, Column: col})
}

// stripComment removes a trailing "#" comment that is outside a string
// literal; a "#" inside quotes is left alone.
func stripComment(line string) string {
	inString := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			if i == 0 || line[i-1] != '\\' {
				inString = !inString
			}
		case '#':
			if !inString {
				return line[:i]
			}
		}
	}
	return line
}

// measureIndent counts leading spaces, rejecting tabs and non-multiples of
// four, and returns the indent width plus the remainder of the line.
func measureIndent(line string, lineNo int) (indent int, content string, err error) {
	i := 0
	for i < len(line) {
		switch line[i] {
		case '\t':
			return 0, "", &Error{
				Message: "Tabs are not allowed in indentation; use spaces",
				Line:    lineNo, Column: i + 1, Lexeme: "\\t",
			}
		case ' ':
			i++
		default:
			goto done
		}
	}
done:
	if i%4 != 0 {
		return 0, "", &Error{
			Message: "Indentation must be a multiple of four spaces",
			Line:    lineNo, Column: i + 1, Lexeme: line[:i],
		}
	}
	return i, line[i:], nil
}

// adjustIndent compares indent against the stack top, emitting INDENT or one
// or more DEDENT tokens as required, or failing on a misaligned level.
func (l *Lexer) adjustIndent(indent, line int) error {
	top := l.stack[len(l.stack)-1]
	switch {
	case indent == top:
		return nil
	case indent == top+4:
		l.stack = append(l.stack, indent)
		l.emit(token.INDENT, "", nil, line, indent+1)
		return nil
	case indent > top:
		return &Error{
			Message: "Unexpected indentation increase; expected exactly four more spaces",
			Line:    line, Column: indent + 1,
		}
	default:
		for len(l.stack) > 1 && l.stack[len(l.stack)-1] > indent {
			l.stack = l.stack[:len(l.stack)-1]
			l.emit(token.DEDENT, "", nil, line, indent+1)
		}
		if l.stack[len(l.stack)-1] != indent {
			return &Error{
				Message: "Indentation does not match any enclosing level",
				Line:    line, Column: indent + 1,
			}
		}
		return nil
	}
}
