// phpsource.go: Textual substitution of PHP define() and variable assignments
//
// The configuration file is edited as text, never parsed as PHP. Only the
// quoted value literal of the matched statement changes; whitespace,
// comments and every other byte of the document are preserved.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"fmt"
	"regexp"
	"strings"
)

// quotedLiteral matches a single or double quoted PHP string literal with
// backslash escapes.
const quotedLiteral = `'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"`

func defineStatementPattern(name string) *regexp.Regexp {
	n := regexp.QuoteMeta(name)
	return regexp.MustCompile(`(?s)\bdefine\s*\(\s*(?:'` + n + `'|"` + n + `")\s*,\s*(` + quotedLiteral + `)\s*\)\s*;`)
}

func variableStatementPattern(name string) *regexp.Regexp {
	n := regexp.QuoteMeta(name)
	return regexp.MustCompile(`(?s)\$` + n + `\b\s*=\s*(` + quotedLiteral + `)\s*;`)
}

// SetDefine replaces the value of the define('NAME', '...') statement for
// name. The statement must appear exactly once.
func SetDefine(document, name, value string) (string, error) {
	return replaceLiteral(document, name, value, defineStatementPattern(name), "define('%s', ...)")
}

// SetVariable replaces the value of the $name = '...'; assignment. The
// assignment must appear exactly once.
func SetVariable(document, name, value string) (string, error) {
	return replaceLiteral(document, name, value, variableStatementPattern(name), "$%s = ...;")
}

func replaceLiteral(document, name, value string, re *regexp.Regexp, form string) (string, error) {
	matches := re.FindAllStringSubmatchIndex(document, -1)
	statement := fmt.Sprintf(form, name)
	switch len(matches) {
	case 0:
		return "", newSettingError(ErrCodeMalformedTemplate, name,
			fmt.Sprintf("statement %s not found in configuration template", statement))
	case 1:
	default:
		return "", newSettingError(ErrCodeMalformedTemplate, name,
			fmt.Sprintf("statement %s appears %d times in configuration template", statement, len(matches)))
	}

	start, end := matches[0][2], matches[0][3]
	quote := document[start]

	var b strings.Builder
	b.Grow(len(document) + len(value))
	b.WriteString(document[:start])
	b.WriteByte(quote)
	b.WriteString(escapeLiteral(value, quote))
	b.WriteByte(quote)
	b.WriteString(document[end:])
	return b.String(), nil
}

// escapeLiteral escapes value for a PHP string delimited by quote.
func escapeLiteral(value string, quote byte) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == quote:
			b.WriteByte('\\')
			b.WriteByte(c)
		case quote == '"' && c == '$':
			b.WriteString(`\$`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// unescapeLiteral reverses escapeLiteral for a literal including its quotes.
func unescapeLiteral(literal string) string {
	if len(literal) < 2 {
		return literal
	}
	quote := literal[0]
	body := literal[1 : len(literal)-1]
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			next := body[i+1]
			if next == '\\' || next == quote || (quote == '"' && next == '$') {
				b.WriteByte(next)
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// DefineValue returns the decoded value of the define() statement for name.
// The boolean is false when the statement is absent or ambiguous.
func DefineValue(document, name string) (string, bool) {
	return literalValue(document, defineStatementPattern(name))
}

// VariableValue returns the decoded value of the $name assignment.
func VariableValue(document, name string) (string, bool) {
	return literalValue(document, variableStatementPattern(name))
}

// CurrentValue returns the decoded value s holds in document, reading the
// define() or the variable assignment according to its kind.
func CurrentValue(document string, s Setting) (string, bool) {
	if s.Kind == KindVariable {
		return VariableValue(document, s.Name)
	}
	return DefineValue(document, s.Name)
}

func literalValue(document string, re *regexp.Regexp) (string, bool) {
	matches := re.FindAllStringSubmatch(document, -1)
	if len(matches) != 1 {
		return "", false
	}
	return unescapeLiteral(matches[0][1]), true
}

// commentOffsets returns the offsets of every block comment in document
// that starts with comment. Text inside quoted literals and inside other
// comments is not code and is skipped.
func commentOffsets(document, comment string) []int {
	var offsets []int
	for i := 0; i < len(document); {
		switch {
		case document[i] == '\'' || document[i] == '"':
			i = skipLiteral(document, i)
		case strings.HasPrefix(document[i:], "/*"):
			if strings.HasPrefix(document[i:], comment) {
				offsets = append(offsets, i)
			}
			end := strings.Index(document[i+2:], "*/")
			if end < 0 {
				return offsets
			}
			i += 2 + end + 2
		case strings.HasPrefix(document[i:], "//") || document[i] == '#':
			end := strings.IndexByte(document[i:], '\n')
			if end < 0 {
				return offsets
			}
			i += end + 1
		default:
			i++
		}
	}
	return offsets
}

// skipLiteral returns the offset just past the quoted literal starting at i.
func skipLiteral(document string, i int) int {
	quote := document[i]
	for j := i + 1; j < len(document); j++ {
		switch document[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(document)
}
