package runner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/criyle/ts-judge/pkg/diff"
)

// Normalize rewrites declarations the evaluator cannot run directly:
// enum declarations become plain objects and export keywords in front of
// declarations are removed. Line numbers are preserved. Constructs that
// cannot be rewritten safely are left unchanged.
func Normalize(src string) (out string) {
	defer func() {
		if recover() != nil {
			out = src
		}
	}()

	var (
		sb      strings.Builder
		last    int
		prevSig byte // previous significant byte, 0 at start
		word    string
		newline = true
	)
	for i := 0; i < len(src); {
		if j, ok := skipNonCode(src, i); ok {
			if src[i] != '/' {
				prevSig, word = src[i], ""
				newline = false
			} else if strings.Contains(src[i:j], "\n") {
				newline = true
			}
			i = j
			continue
		}
		c := src[i]
		switch {
		case c == '/' && regexAllowed(prevSig, word):
			i = skipRegex(src, i)
			prevSig, word, newline = ')', "", false
			continue
		case c == '\n':
			newline = true
			i++
			continue
		case isSpace(c):
			i++
			continue
		case isIdentStart(c):
			j := scanIdent(src, i)
			atStmt := prevSig == 0 || prevSig == ';' || prevSig == '{' || prevSig == '}' || newline
			if atStmt {
				if end, repl, ok := rewriteStatement(src, i, src[i:j]); ok {
					sb.WriteString(src[last:i])
					sb.WriteString(repl)
					last, i = end, end
					prevSig, word, newline = ';', "", false
					continue
				}
			}
			prevSig, word, newline = src[j-1], src[i:j], false
			i = j
			continue
		}
		prevSig, word, newline = c, "", false
		i++
	}
	if last == 0 {
		return src
	}
	sb.WriteString(src[last:])
	return sb.String()
}

// rewriteStatement returns the end of the rewritten region and its replacement
func rewriteStatement(src string, start int, word string) (int, string, bool) {
	switch word {
	case "export":
		return rewriteExport(src, start)
	case "enum":
		return rewriteEnum(src, start, start+len(word))
	case "const":
		p := skipSpace(src, start+len(word))
		if nameAt(src, p) == "enum" {
			return rewriteEnum(src, start, p+len("enum"))
		}
	}
	return 0, "", false
}

var exportedDecl = map[string]bool{
	"function": true, "async": true, "class": true, "abstract": true,
	"const": true, "let": true, "var": true, "enum": true,
	"interface": true, "type": true, "declare": true, "namespace": true,
}

func rewriteExport(src string, start int) (int, string, bool) {
	p := skipSpace(src, start+len("export"))
	if p >= len(src) {
		return 0, "", false
	}
	// export { a, b };
	if src[p] == '{' {
		end, ok := skipBraced(src, p)
		if !ok {
			return 0, "", false
		}
		q := skipSpace(src, end)
		if nameAt(src, q) == "from" {
			return 0, "", false
		}
		if q < len(src) && src[q] == ';' {
			end = q + 1
		}
		return end, blank(src[start:end]), true
	}

	next := nameAt(src, p)
	if exportedDecl[next] {
		return start + len("export"), blank("export"), true
	}
	if next != "default" {
		return 0, "", false
	}
	// export default function name() / class Name keep the declaration
	q := skipSpace(src, p+len(next))
	decl := nameAt(src, q)
	if decl == "async" {
		q = skipSpace(src, q+len(decl))
		decl = nameAt(src, q)
	}
	if decl == "function" || decl == "class" {
		r := skipSpace(src, q+len(decl))
		if r < len(src) && src[r] == '*' {
			r = skipSpace(src, r+1)
		}
		if n := nameAt(src, r); n != "" && n != "extends" {
			return p + len(next), blank(src[start : p+len(next)]), true
		}
	}
	// anonymous default export is bound to a variable
	return p + len(next), "var defaultExport =", true
}

type enumMember struct {
	name  string
	init  string
	kind  memberKind
	value float64 // for numeric members
}

type memberKind int

const (
	memberNumber memberKind = iota + 1
	memberString
	memberComputed
)

func rewriteEnum(src string, start, afterKeyword int) (int, string, bool) {
	p := skipSpace(src, afterKeyword)
	name := nameAt(src, p)
	if name == "" || reserved[name] {
		return 0, "", false
	}
	p = skipSpace(src, p+len(name))
	if p >= len(src) || src[p] != '{' {
		return 0, "", false
	}
	end, ok := skipBraced(src, p)
	if !ok {
		return 0, "", false
	}
	members, ok := parseEnumBody(src[p+1 : end-1])
	if !ok {
		return 0, "", false
	}
	repl, ok := emitEnum(name, members)
	if !ok {
		return 0, "", false
	}
	return end, repl + strings.Repeat("\n", strings.Count(src[start:end], "\n")), true
}

func parseEnumBody(body string) ([]enumMember, bool) {
	var (
		members []enumMember
		prev    *enumMember
	)
	for _, part := range splitTopLevel(stripComments(body)) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m, ok := parseEnumMember(part)
		if !ok {
			return nil, false
		}
		if m.init == "" {
			switch {
			case prev == nil:
				m.kind, m.value, m.init = memberNumber, 0, "0"
			case prev.kind == memberNumber:
				m.kind, m.value = memberNumber, prev.value+1
				m.init = diff.FormatNumber(m.value)
			case prev.kind == memberComputed:
				m.kind, m.init = memberComputed, prev.name+" + 1"
			default:
				// string member must be followed by an initializer
				return nil, false
			}
		}
		members = append(members, m)
		prev = &members[len(members)-1]
	}
	return members, true
}

func parseEnumMember(part string) (enumMember, bool) {
	var m enumMember
	rest := part
	if c := part[0]; c == '"' || c == '\'' {
		end := skipString(part, 0)
		n, ok := unquote(part[:end])
		if !ok {
			return m, false
		}
		m.name, rest = n, part[end:]
	} else {
		end := scanIdent(part, 0)
		m.name, rest = part[:end], part[end:]
	}
	if !isIdent(m.name) || reserved[m.name] {
		return m, false
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return m, true
	}
	if rest[0] != '=' {
		return m, false
	}
	m.init = strings.TrimSpace(rest[1:])
	if m.init == "" {
		return m, false
	}
	switch {
	case isStringLiteral(m.init):
		m.kind = memberString
	default:
		if v, ok := parseNumber(m.init); ok {
			m.kind, m.value = memberNumber, v
		} else {
			m.kind = memberComputed
		}
	}
	return m, true
}

func emitEnum(name string, members []enumMember) (string, bool) {
	computed := false
	for _, m := range members {
		if m.name == name {
			return "", false
		}
		if m.kind == memberComputed {
			computed = true
		}
	}

	// merged declarations extend the object of the earlier ones
	var sb strings.Builder
	sb.WriteString("var " + name + " = ")
	if !computed {
		sb.WriteString("Object.assign(" + name + " || {}, {")
		for i, m := range members {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(m.name) + ": " + m.init)
			if m.kind == memberNumber {
				sb.WriteString(", " + strconv.Quote(diff.FormatNumber(m.value)) + ": " + strconv.Quote(m.name))
			}
		}
		sb.WriteString("});")
		return sb.String(), true
	}

	sb.WriteString("(function (" + name + ") {")
	for _, m := range members {
		key := strconv.Quote(m.name)
		sb.WriteString(" const " + m.name + " = (" + m.init + "); ")
		switch m.kind {
		case memberNumber:
			sb.WriteString(name + "[" + name + "[" + key + "] = " + m.name + "] = " + key + ";")
		case memberString:
			sb.WriteString(name + "[" + key + "] = " + m.name + ";")
		default:
			sb.WriteString(name + "[" + key + "] = " + m.name + "; if (typeof " + m.name + ` === "number") ` +
				name + "[" + m.name + "] = " + key + ";")
		}
	}
	sb.WriteString(" return " + name + "; })(" + name + " || {});")
	return sb.String(), true
}

var numberLiteral = regexp.MustCompile(`^[+-]?(0[xXbBoO][0-9a-fA-F_]+|(\d[\d_]*\.?[\d_]*|\.\d[\d_]*)([eE][+-]?\d+)?)$`)

func parseNumber(s string) (float64, bool) {
	if !numberLiteral.MatchString(s) {
		return 0, false
	}
	s = strings.ReplaceAll(s, "_", "")
	neg := false
	switch s[0] {
	case '-':
		neg, s = true, s[1:]
	case '+':
		s = s[1:]
	}
	var v float64
	if len(s) > 1 && s[0] == '0' && strings.ContainsAny(s[1:2], "xXbBoO") {
		i, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return 0, false
		}
		v = float64(i)
	} else {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		v = f
	}
	if neg {
		v = -v
	}
	return v, true
}

func isStringLiteral(s string) bool {
	if len(s) < 2 || (s[0] != '"' && s[0] != '\'') {
		return false
	}
	return skipString(s, 0) == len(s) && s[len(s)-1] == s[0]
}

func unquote(s string) (string, bool) {
	if !isStringLiteral(s) {
		return "", false
	}
	if s[0] == '\'' {
		s = `"` + strings.ReplaceAll(s[1:len(s)-1], `"`, `\"`) + `"`
	}
	n, err := strconv.Unquote(s)
	return n, err == nil
}

// splitTopLevel splits s by commas outside of brackets and literals
func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		last  int
	)
	for i := 0; i < len(s); {
		if j, ok := skipNonCode(s, i); ok {
			i = j
			continue
		}
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
		i++
	}
	return append(parts, s[last:])
}

func stripComments(s string) string {
	var sb strings.Builder
	last := 0
	for i := 0; i < len(s); {
		j, ok := skipNonCode(s, i)
		if !ok {
			i++
			continue
		}
		if s[i] == '/' {
			sb.WriteString(s[last:i])
			sb.WriteByte(' ')
			last = j
		}
		i = j
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// skipNonCode skips a comment, string or template literal starting at i
func skipNonCode(s string, i int) (int, bool) {
	switch s[i] {
	case '/':
		if i+1 >= len(s) {
			return 0, false
		}
		switch s[i+1] {
		case '/':
			if j := strings.IndexByte(s[i:], '\n'); j >= 0 {
				return i + j, true
			}
			return len(s), true
		case '*':
			if j := strings.Index(s[i+2:], "*/"); j >= 0 {
				return i + 2 + j + 2, true
			}
			return len(s), true
		}
	case '"', '\'':
		return skipString(s, i), true
	case '`':
		return skipTemplate(s, i), true
	}
	return 0, false
}

func skipString(s string, i int) int {
	q := s[i]
	for i++; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case q:
			return i + 1
		case '\n':
			return i
		}
	}
	return len(s)
}

// keywords after which a slash starts a regular expression
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "of": true, "new": true, "delete": true, "void": true,
	"throw": true, "instanceof": true, "yield": true, "await": true,
}

// regexAllowed reports whether a slash after prev starts a regular expression
// rather than a division
func regexAllowed(prev byte, word string) bool {
	if word != "" {
		return regexKeywords[word]
	}
	return prev == 0 || strings.IndexByte("(,=:[!&|?{};+-*%<>~^", prev) >= 0
}

// skipRegex skips a regular expression literal with its flags, an
// unterminated literal ends at the line break
func skipRegex(s string, i int) int {
	inClass := false
	for i++; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '\n':
			return i
		case '/':
			if !inClass {
				return scanIdent(s, i+1)
			}
		}
	}
	return len(s)
}

func skipTemplate(s string, i int) int {
	for i++; i < len(s); {
		switch s[i] {
		case '\\':
			i += 2
		case '`':
			return i + 1
		case '$':
			if i+1 < len(s) && s[i+1] == '{' {
				i, _ = skipBraced(s, i+1)
				continue
			}
			i++
		default:
			i++
		}
	}
	return len(s)
}

// skipBraced returns the index after the brace matching s[i]
func skipBraced(s string, i int) (int, bool) {
	depth := 0
	for i < len(s) {
		if j, ok := skipNonCode(s, i); ok {
			i = j
			continue
		}
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
		i++
	}
	return len(s), false
}

// skipSpace skips white spaces and comments
func skipSpace(s string, i int) int {
	for i < len(s) {
		if isSpace(s[i]) || s[i] == '\n' {
			i++
			continue
		}
		if s[i] == '/' {
			if j, ok := skipNonCode(s, i); ok {
				i = j
				continue
			}
		}
		break
	}
	return i
}

func nameAt(s string, i int) string {
	if i >= len(s) || !isIdentStart(s[i]) {
		return ""
	}
	return s[i:scanIdent(s, i)]
}

func scanIdent(s string, i int) int {
	for i < len(s) && isIdentPart(s[i]) {
		i++
	}
	return i
}

func blank(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		return ' '
	}, s)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	return scanIdent(s, 0) == len(s)
}

var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true, "continue": true,
	"debugger": true, "default": true, "delete": true, "do": true, "else": true, "enum": true,
	"export": true, "extends": true, "false": true, "finally": true, "for": true, "function": true,
	"if": true, "import": true, "in": true, "instanceof": true, "new": true, "null": true,
	"return": true, "super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true, "with": true,
	"yield": true, "let": true, "static": true, "implements": true, "interface": true,
	"package": true, "private": true, "protected": true, "public": true, "await": true,
	"arguments": true, "eval": true, "undefined": true, "NaN": true, "Infinity": true,
}
