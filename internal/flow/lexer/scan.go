package lexer

import (
	"strconv"
	"strings"

	"github.com/flow-lang/flow/internal/flow/token"
)

// compoundsByLen groups CompoundKeywords by word count, longest first, so
// scanLineContent can try the longest possible match at each word boundary
// without a second pass over the line.
var compoundsByLen = buildCompoundIndex()
var compoundLengths = []int{4, 3, 2}

func buildCompoundIndex() map[int]map[string]token.Type {
	idx := map[int]map[string]token.Type{2: {}, 3: {}, 4: {}}
	for _, ck := range token.CompoundKeywords {
		n := len(ck.Words)
		if idx[n] == nil {
			idx[n] = map[string]token.Type{}
		}
		idx[n][strings.Join(ck.Words, " ")] = ck.Type
	}
	return idx
}

func isIdentStart(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func isIdentChar(b byte) bool {
	return isIdentStart(b) || b >= '0' && b <= '9' || b == '_' || b == '-'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// collectWords attempts to read `count` consecutive identifier-char words
// from content starting at pos, separated by one-or-more spaces. It returns
// ok=false if fewer than `count` words are available before content ends or
// a non-word character (other than the separating spaces) is hit.
func collectWords(content string, pos, count int) (words []string, end int, ok bool) {
	p := pos
	for i := 0; i < count; i++ {
		if i > 0 {
			sp := p
			for sp < len(content) && content[sp] == ' ' {
				sp++
			}
			if sp == p {
				return nil, 0, false
			}
			p = sp
		}
		start := p
		for p < len(content) && isIdentChar(content[p]) {
			p++
		}
		if p == start {
			return nil, 0, false
		}
		words = append(words, content[start:p])
	}
	return words, p, true
}

// scanLineContent tokenizes the portion of a line remaining after
// indentation has been measured and stripped. startCol is the 1-based
// column of content[0] in the original line.
func (l *Lexer) scanLineContent(content string, line, startCol int) error {
	pos := 0
	for pos < len(content) {
		c := content[pos]
		col := startCol + pos

		switch {
		case c == ' ':
			pos++

		case c == ':':
			l.emit(token.COLON, ":", nil, line, col)
			pos++

		case c == '.':
			l.emit(token.DOT, ".", nil, line, col)
			pos++

		case c == ',':
			l.emit(token.COMMA, ",", nil, line, col)
			pos++

		case c == '"':
			next, err := l.scanString(content, pos, line, startCol)
			if err != nil {
				return err
			}
			pos = next

		case isDigit(c):
			pos = l.scanNumber(content, pos, line, col)

		case isIdentStart(c):
			var err error
			pos, err = l.scanWord(content, pos, line, col)
			if err != nil {
				return err
			}

		default:
			return &Error{
				Message: "Unexpected character",
				Line:    line, Column: col, Lexeme: string(c),
			}
		}
	}
	return nil
}

// scanWord consumes one identifier-shaped word, first trying the longest
// compound keyword match starting at that word, then falling back to a
// single keyword or a plain identifier.
func (l *Lexer) scanWord(content string, pos, line, col int) (int, error) {
	for _, n := range compoundLengths {
		words, end, ok := collectWords(content, pos, n)
		if !ok {
			continue
		}
		key := strings.Join(words, " ")
		if t, found := compoundsByLen[n][key]; found {
			l.emit(t, content[pos:end], nil, line, col)
			return end, nil
		}
	}

	start := pos
	for pos < len(content) && isIdentChar(content[pos]) {
		pos++
	}
	word := content[start:pos]
	lower := strings.ToLower(word)

	// Keywords are lowercase; an all-caps spelling (API, AI) also matches,
	// while a mixed-case word such as a service named "Api" stays an
	// identifier.
	if t, ok := token.Keywords[lower]; ok && (word == lower || word == strings.ToUpper(word)) {
		if t == token.BOOLEAN {
			l.emit(t, word, lower == "true", line, col)
		} else {
			l.emit(t, word, nil, line, col)
		}
		return pos, nil
	}

	l.emit(token.IDENTIFIER, word, nil, line, col)
	return pos, nil
}

// scanNumber consumes an integer or decimal literal with at most one dot.
func (l *Lexer) scanNumber(content string, pos, line, col int) int {
	start := pos
	for pos < len(content) && isDigit(content[pos]) {
		pos++
	}
	if pos < len(content) && content[pos] == '.' && pos+1 < len(content) && isDigit(content[pos+1]) {
		pos++
		for pos < len(content) && isDigit(content[pos]) {
			pos++
		}
	}
	text := content[start:pos]
	value, _ := strconv.ParseFloat(text, 64)
	l.emit(token.NUMBER, text, value, line, col)
	return pos
}

// scanString consumes a double-quoted string literal starting at pos (which
// must index the opening quote). If the string contains interpolation it is
// emitted as the alternating STRING_PART / INTERPOLATION_START / IDENTIFIER
// (with DOT-separated suffixes) / INTERPOLATION_END sequence described by
// spec.md §4.1; otherwise a single STRING token is emitted.
func (l *Lexer) scanString(content string, pos, line, startCol int) (int, error) {
	openCol := startCol + pos
	pos++ // past opening quote

	var part strings.Builder
	partStartCol := openCol + 1
	sawInterpolation := false

	flushPart := func() {
		l.emit(token.STRING_PART, part.String(), part.String(), line, partStartCol)
		part.Reset()
	}

	for pos < len(content) {
		c := content[pos]
		switch c {
		case '"':
			if sawInterpolation {
				flushPart()
				return pos + 1, nil
			}
			l.emit(token.STRING, part.String(), part.String(), line, openCol)
			return pos + 1, nil

		case '\\':
			if pos+1 >= len(content) {
				return 0, &Error{Message: "Unterminated string", Line: line, Column: openCol, Lexeme: "\""}
			}
			switch content[pos+1] {
			case '"':
				part.WriteByte('"')
			case '\\':
				part.WriteByte('\\')
			case 'n':
				part.WriteByte('\n')
			case 't':
				part.WriteByte('\t')
			default:
				part.WriteByte('\\')
				part.WriteByte(content[pos+1])
			}
			pos += 2

		case '{':
			if pos+1 < len(content) && content[pos+1] == '{' {
				part.WriteByte('{')
				pos += 2
				continue
			}
			sawInterpolation = true
			flushPart()
			exprCol := startCol + pos
			l.emit(token.INTERPOLATION_START, "{", nil, line, exprCol)

			next, err := l.scanInterpolationExpr(content, pos+1, line, startCol)
			if err != nil {
				return 0, err
			}
			pos = next
			partStartCol = startCol + pos

		case '}':
			if pos+1 < len(content) && content[pos+1] == '}' {
				part.WriteByte('}')
				pos += 2
				continue
			}
			part.WriteByte('}')
			pos++

		default:
			part.WriteByte(c)
			pos++
		}
	}

	return 0, &Error{Message: "Unterminated string", Line: line, Column: openCol, Lexeme: "\""}
}

// scanInterpolationExpr scans the small expression inside `{...}`: an
// identifier followed by zero or more dot-identifier suffixes, then the
// closing brace.
func (l *Lexer) scanInterpolationExpr(content string, pos, line, startCol int) (int, error) {
	if pos < len(content) && content[pos] == '}' {
		return 0, &Error{Message: "Empty interpolation", Line: line, Column: startCol + pos}
	}

	for pos < len(content) && content[pos] != '}' {
		c := content[pos]
		col := startCol + pos
		switch {
		case c == ' ':
			pos++
		case c == '.':
			l.emit(token.DOT, ".", nil, line, col)
			pos++
		case isIdentStart(c):
			start := pos
			for pos < len(content) && isIdentChar(content[pos]) {
				pos++
			}
			l.emit(token.IDENTIFIER, content[start:pos], nil, line, col)
		default:
			return 0, &Error{Message: "Unexpected character in interpolation", Line: line, Column: col, Lexeme: string(c)}
		}
	}

	if pos >= len(content) {
		return 0, &Error{Message: "Unclosed interpolation", Line: line, Column: startCol + pos}
	}

	l.emit(token.INTERPOLATION_END, "}", nil, line, startCol+pos)
	return pos + 1, nil
}
