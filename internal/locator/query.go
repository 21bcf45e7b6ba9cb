package locator

import (
	"strings"
)

// Lang is the query language a compiled locator is expressed in.
type Lang int

const (
	LangCSS Lang = iota
	LangXPath
)

// Query is a compiled locator ready for evaluation by a driver.
type Query struct {
	Lang Lang
	Expr string
}

// Query compiles the locator. ID and ClassName compile to CSS; LinkText
// compiles to XPath since CSS cannot match on text content.
func (l Locator) Query() Query {
	switch l.strategy {
	case ID:
		return Query{Lang: LangCSS, Expr: `[id="` + cssEscape(l.value) + `"]`}
	case ClassName:
		return Query{Lang: LangCSS, Expr: classSelector(l.value)}
	case LinkText:
		return Query{Lang: LangXPath, Expr: "//a[normalize-space(.)=" + xpathLiteral(strings.TrimSpace(l.value)) + "]"}
	case XPath:
		return Query{Lang: LangXPath, Expr: l.value}
	default:
		return Query{Lang: LangCSS, Expr: l.value}
	}
}

// classSelector turns "flash.success" or "flash success" into ".flash.success".
func classSelector(value string) string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == '.' || r == ' ' || r == '\t' || r == '\n'
	})
	var b strings.Builder
	for _, f := range fields {
		b.WriteByte('.')
		b.WriteString(f)
	}
	return b.String()
}

// cssEscape escapes a value for use inside a double-quoted CSS string.
func cssEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// xpathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// syntax, so values containing both quote kinds are built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + p + "'")
	}
	b.WriteString(")")
	return b.String()
}
