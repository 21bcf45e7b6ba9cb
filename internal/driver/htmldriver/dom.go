package htmldriver

import (
	"strings"

	"golang.org/x/net/html"
)

// Elements that are never rendered.
var nonRendered = map[string]bool{
	"head": true, "title": true, "meta": true, "link": true, "base": true,
	"script": true, "style": true, "template": true, "noscript": true,
}

// Elements whose boundaries separate words in rendered text.
var blockLevel = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "dd": true,
	"div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tbody": true, "td": true, "tfoot": true, "th": true, "thead": true,
	"tr": true, "ul": true, "br": true, "label": true, "option": true,
}

func tag(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.Data)
}

func getAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		if attr.Key != key {
			kept = append(kept, attr)
		}
	}
	n.Attr = kept
}

func inputType(n *html.Node) string {
	t, _ := getAttr(n, "type")
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return "text"
	}
	return t
}

// closest returns n or its nearest ancestor with the given tag.
func closest(n *html.Node, name string) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if tag(p) == name {
			return p
		}
	}
	return nil
}

// radioGroup returns the radio inputs under scope named name.
func radioGroup(scope *html.Node, name string) []*html.Node {
	var group []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if tag(n) == "input" && inputType(n) == "radio" {
			if v, ok := getAttr(n, "name"); ok && v == name {
				group = append(group, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(scope)
	return group
}

func root(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// submitButton returns the submit control n belongs to, if any.
// Buttons default to type=submit.
func submitButton(n *html.Node) *html.Node {
	if b := closest(n, "button"); b != nil {
		t, ok := getAttr(b, "type")
		t = strings.ToLower(strings.TrimSpace(t))
		if !ok || t == "" || t == "submit" {
			return b
		}
		return nil
	}
	if tag(n) == "input" {
		if t := inputType(n); t == "submit" || t == "image" {
			return n
		}
	}
	return nil
}

func editable(n *html.Node) bool {
	switch tag(n) {
	case "textarea":
		return true
	case "input":
		switch inputType(n) {
		case "checkbox", "radio", "submit", "reset", "button", "image", "file", "hidden":
			return false
		}
		return true
	}
	return false
}

// value returns the current value of a form control. Textareas start with
// their text content until a value is set.
func value(n *html.Node) string {
	if v, ok := getAttr(n, "value"); ok {
		return v
	}
	if tag(n) == "textarea" {
		var b strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		return b.String()
	}
	return ""
}

func setValue(n *html.Node, v string) {
	setAttr(n, "value", v)
}

// displayed reports whether n and every ancestor would be rendered.
func displayed(n *html.Node) bool {
	if tag(n) == "input" && inputType(n) == "hidden" {
		return false
	}
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && selfHidden(p) {
			return false
		}
	}
	return true
}

func selfHidden(n *html.Node) bool {
	if nonRendered[tag(n)] {
		return true
	}
	if _, ok := getAttr(n, "hidden"); ok {
		return true
	}
	style, ok := getAttr(n, "style")
	if !ok {
		return false
	}
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "!important")))
		switch {
		case prop == "display" && val == "none":
			return true
		case prop == "visibility" && (val == "hidden" || val == "collapse"):
			return true
		}
	}
	return false
}

// renderedText writes the text of visible descendants of n.
func renderedText(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			if selfHidden(c) || (tag(c) == "input" && inputType(c) == "hidden") {
				continue
			}
			block := blockLevel[tag(c)]
			if block {
				b.WriteByte(' ')
			}
			renderedText(b, c)
			if block {
				b.WriteByte(' ')
			}
		}
	}
}

// collapse trims s and reduces whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
