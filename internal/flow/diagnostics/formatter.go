package diagnostics

import (
	"strconv"
	"strings"
)

// Format renders a Diagnostic the way spec.md §4.5 fixes it: a header line
// with file and position, a blank line, the offending source line indented,
// a caret under the column, the message, the "Did you mean ...?" suggestion
// if any, and a multi-line hint if any. This shape is stable by design —
// callers (CLI output, test assertions) depend on it not shifting.
func Format(d *Diagnostic, source string) string {
	var b strings.Builder

	b.WriteString(d.File)
	b.WriteString(":")
	b.WriteString(strconv.Itoa(d.Line))
	b.WriteString(":")
	b.WriteString(strconv.Itoa(d.Column))
	b.WriteString("\n\n")

	if line, ok := sourceLine(source, d.Line); ok {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString("    ")
		if d.Column > 1 {
			b.WriteString(strings.Repeat(" ", d.Column-1))
		}
		b.WriteString("^\n\n")
	}

	b.WriteString(d.Message)
	b.WriteString("\n")

	if d.Suggestion != "" {
		b.WriteString("\nDid you mean ")
		b.WriteString(d.Suggestion)
		b.WriteString("?\n")
	}

	if d.Hint != "" {
		b.WriteString("\n")
		b.WriteString(d.Hint)
		b.WriteString("\n")
	}

	return b.String()
}

// FormatList renders every diagnostic in order, separated by a rule, plus a
// trailing summary count — the multi-error counterpart to Format.
func FormatList(l List, source string) string {
	var b strings.Builder
	for i, d := range l {
		if i > 0 {
			b.WriteString("---\n")
		}
		b.WriteString(Format(d, source))
	}
	b.WriteString("---\n")
	b.WriteString(strconv.Itoa(l.ErrorCount()))
	b.WriteString(" error(s), ")
	b.WriteString(strconv.Itoa(l.WarningCount()))
	b.WriteString(" warning(s)\n")
	return b.String()
}

func sourceLine(source string, line int) (string, bool) {
	if line < 1 {
		return "", false
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}

