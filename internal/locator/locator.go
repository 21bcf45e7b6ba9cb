// Package locator maps symbolic element locators to backend queries.
//
// A Locator is a (strategy, value) pair. It carries no reference to a page;
// drivers compile it with Query into either a CSS selector or an XPath
// expression and evaluate that against the current document.
//
// # YAML Forms
//
// Locators appear in scenario files as a single-key mapping:
//
//	click: { css: "#login > button" }
//	click: { link_text: "Form Authentication" }
//
// or as a "strategy=value" scalar:
//
//	click: "xpath=//button[@type='submit']"
package locator

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Strategy identifies how a locator value is interpreted.
type Strategy int

const (
	// ID matches the element whose id attribute equals the value.
	ID Strategy = iota + 1
	// CSS matches a CSS selector.
	CSS
	// XPath matches an XPath 1.0 expression.
	XPath
	// LinkText matches anchors whose normalized text equals the value.
	LinkText
	// ClassName matches elements carrying every class in the value.
	// Dots and spaces both separate class names ("flash.success").
	ClassName
)

var strategyNames = map[Strategy]string{
	ID:        "id",
	CSS:       "css",
	XPath:     "xpath",
	LinkText:  "link_text",
	ClassName: "class_name",
}

// String returns the scenario-file spelling of the strategy.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy resolves a strategy name. Hyphens and spaces are accepted
// in place of underscores, and "css_selector" is accepted for CSS.
func ParseStrategy(name string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if key == "css_selector" {
		return CSS, nil
	}
	for s, n := range strategyNames {
		if n == key {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown locator strategy %q", name)
}

// Locator is an immutable (strategy, value) pair.
type Locator struct {
	strategy Strategy
	value    string
}

// New constructs a Locator. The value must be non-empty.
func New(strategy Strategy, value string) (Locator, error) {
	if _, ok := strategyNames[strategy]; !ok {
		return Locator{}, fmt.Errorf("unknown locator strategy %d", int(strategy))
	}
	if strings.TrimSpace(value) == "" {
		return Locator{}, fmt.Errorf("%s locator: value is required", strategy)
	}
	return Locator{strategy: strategy, value: value}, nil
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(strategy Strategy, value string) Locator {
	l, err := New(strategy, value)
	if err != nil {
		panic(err)
	}
	return l
}

// Parse reads the "strategy=value" shorthand.
func Parse(s string) (Locator, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return Locator{}, fmt.Errorf("locator %q: expected strategy=value", s)
	}
	strategy, err := ParseStrategy(name)
	if err != nil {
		return Locator{}, err
	}
	return New(strategy, value)
}

// Strategy returns the locator strategy.
func (l Locator) Strategy() Strategy { return l.strategy }

// Value returns the raw locator value.
func (l Locator) Value() string { return l.value }

// IsZero reports whether l was never constructed.
func (l Locator) IsZero() bool { return l.strategy == 0 }

// String renders the locator in shorthand form.
func (l Locator) String() string {
	if l.IsZero() {
		return "<no locator>"
	}
	return l.strategy.String() + "=" + l.value
}

// UnmarshalYAML accepts both the mapping and the shorthand forms.
func (l *Locator) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		parsed, err := Parse(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*l = parsed
		return nil
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: locator must have exactly one strategy key", node.Line)
		}
		key, val := node.Content[0], node.Content[1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: locator value must be a string", val.Line)
		}
		strategy, err := ParseStrategy(key.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", key.Line, err)
		}
		parsed, err := New(strategy, val.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", val.Line, err)
		}
		*l = parsed
		return nil
	default:
		return fmt.Errorf("line %d: locator must be a mapping or a string", node.Line)
	}
}

// MarshalYAML writes the mapping form.
func (l Locator) MarshalYAML() (interface{}, error) {
	return map[string]string{l.strategy.String(): l.value}, nil
}
