package harness

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/uiscenario/internal/driver"
	"github.com/roach88/uiscenario/internal/locator"
)

// Step kinds, as spelled in scenario files.
const (
	KindNavigate        = "navigate"
	KindClick           = "click"
	KindClear           = "clear"
	KindType            = "type"
	KindWaitVisible     = "wait_visible"
	KindAssertEqual     = "assert_equal"
	KindAssertContains  = "assert_contains"
	KindAssertPrefix    = "assert_prefix"
	KindAssertTrue      = "assert_true"
	KindAssertListEqual = "assert_list_equal"
)

// Step is one declarative action or assertion. Exactly one field is set.
type Step struct {
	Navigate        string           `yaml:"navigate,omitempty"`
	Click           *locator.Locator `yaml:"click,omitempty"`
	Clear           *locator.Locator `yaml:"clear,omitempty"`
	Type            *TypeStep        `yaml:"type,omitempty"`
	WaitVisible     *WaitStep        `yaml:"wait_visible,omitempty"`
	AssertEqual     *CompareStep     `yaml:"assert_equal,omitempty"`
	AssertContains  *CompareStep     `yaml:"assert_contains,omitempty"`
	AssertPrefix    *CompareStep     `yaml:"assert_prefix,omitempty"`
	AssertTrue      *TrueStep        `yaml:"assert_true,omitempty"`
	AssertListEqual *ListStep        `yaml:"assert_list_equal,omitempty"`
}

// TypeStep sends text to an element.
type TypeStep struct {
	Locator locator.Locator `yaml:"locator"`
	Text    string          `yaml:"text"`
}

// WaitStep waits for an element to become visible. Timeout must be positive.
type WaitStep struct {
	Locator locator.Locator `yaml:"locator"`
	Timeout time.Duration   `yaml:"timeout"`
}

// CompareStep compares a string probe against an expected value.
type CompareStep struct {
	Actual   Probe  `yaml:"actual"`
	Expected string `yaml:"expected"`
	Message  string `yaml:"message,omitempty"`
}

// TrueStep asserts a boolean probe holds.
type TrueStep struct {
	Actual  Probe  `yaml:"actual"`
	Message string `yaml:"message,omitempty"`
}

// ListStep compares a list probe element-wise against expected values.
type ListStep struct {
	Actual   Probe    `yaml:"actual"`
	Expected []string `yaml:"expected"`
	Message  string   `yaml:"message,omitempty"`
}

// Kind returns the kind of the step, or "" if no field is set.
func (s *Step) Kind() string {
	kinds := s.kinds()
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

func (s *Step) kinds() []string {
	var kinds []string
	add := func(set bool, kind string) {
		if set {
			kinds = append(kinds, kind)
		}
	}
	add(s.Navigate != "", KindNavigate)
	add(s.Click != nil, KindClick)
	add(s.Clear != nil, KindClear)
	add(s.Type != nil, KindType)
	add(s.WaitVisible != nil, KindWaitVisible)
	add(s.AssertEqual != nil, KindAssertEqual)
	add(s.AssertContains != nil, KindAssertContains)
	add(s.AssertPrefix != nil, KindAssertPrefix)
	add(s.AssertTrue != nil, KindAssertTrue)
	add(s.AssertListEqual != nil, KindAssertListEqual)
	return kinds
}

// IsAssertion reports whether the step checks rather than acts.
func (s *Step) IsAssertion() bool {
	return strings.HasPrefix(s.Kind(), "assert_")
}

// String describes the step for reports and logs.
func (s Step) String() string {
	switch s.Kind() {
	case KindNavigate:
		return "navigate " + s.Navigate
	case KindClick:
		return "click " + s.Click.String()
	case KindClear:
		return "clear " + s.Clear.String()
	case KindType:
		return fmt.Sprintf("type %s %s", s.Type.Locator, strconv.Quote(s.Type.Text))
	case KindWaitVisible:
		return fmt.Sprintf("wait_visible %s (%s)", s.WaitVisible.Locator, s.WaitVisible.Timeout)
	case KindAssertEqual:
		return fmt.Sprintf("assert_equal %s == %s", s.AssertEqual.Actual, strconv.Quote(s.AssertEqual.Expected))
	case KindAssertContains:
		return fmt.Sprintf("assert_contains %s ~ %s", s.AssertContains.Actual, strconv.Quote(s.AssertContains.Expected))
	case KindAssertPrefix:
		return fmt.Sprintf("assert_prefix %s ^ %s", s.AssertPrefix.Actual, strconv.Quote(s.AssertPrefix.Expected))
	case KindAssertTrue:
		return "assert_true " + s.AssertTrue.Actual.String()
	case KindAssertListEqual:
		return fmt.Sprintf("assert_list_equal %s == %q", s.AssertListEqual.Actual, s.AssertListEqual.Expected)
	}
	return "invalid step"
}

// validate checks that exactly one kind is set and its arguments are usable.
func (s *Step) validate() error {
	kinds := s.kinds()
	switch len(kinds) {
	case 0:
		return fmt.Errorf("step has no action")
	case 1:
	default:
		return fmt.Errorf("step sets more than one action: %s", strings.Join(kinds, ", "))
	}

	switch kinds[0] {
	case KindType:
		if s.Type.Locator.IsZero() {
			return fmt.Errorf("type: locator is required")
		}
	case KindWaitVisible:
		if s.WaitVisible.Locator.IsZero() {
			return fmt.Errorf("wait_visible: locator is required")
		}
		if s.WaitVisible.Timeout <= 0 {
			return fmt.Errorf("wait_visible: %w", driver.ErrUnboundedWait)
		}
	case KindAssertEqual, KindAssertContains, KindAssertPrefix:
		c := s.compare()
		if c.Actual.Kind == "" {
			return fmt.Errorf("%s: actual is required", kinds[0])
		}
		if !c.Actual.Kind.yieldsString() {
			return fmt.Errorf("%s: probe %s does not yield a string", kinds[0], c.Actual.Kind)
		}
	case KindAssertTrue:
		if s.AssertTrue.Actual.Kind != ProbeVisible {
			return fmt.Errorf("assert_true: probe %s does not yield a boolean", s.AssertTrue.Actual.Kind)
		}
	case KindAssertListEqual:
		if s.AssertListEqual.Actual.Kind != ProbeTexts {
			return fmt.Errorf("assert_list_equal: probe %s does not yield a list", s.AssertListEqual.Actual.Kind)
		}
	}
	return nil
}

func (s *Step) compare() *CompareStep {
	switch {
	case s.AssertEqual != nil:
		return s.AssertEqual
	case s.AssertContains != nil:
		return s.AssertContains
	}
	return s.AssertPrefix
}

// ProbeKind names a value read from the page.
type ProbeKind string

const (
	ProbeURL       ProbeKind = "url"
	ProbeTitle     ProbeKind = "title"
	ProbeText      ProbeKind = "text"
	ProbeAttribute ProbeKind = "attribute"
	ProbeVisible   ProbeKind = "visible"
	ProbeTexts     ProbeKind = "texts"
)

func (k ProbeKind) yieldsString() bool {
	switch k {
	case ProbeURL, ProbeTitle, ProbeText, ProbeAttribute:
		return true
	}
	return false
}

// Probe identifies the actual value of an assertion.
//
// In scenario files it is either a bare word (url, title) or a single-key
// mapping: {text: LOC}, {visible: LOC}, {texts: LOC} or
// {attribute: {locator: LOC, name: NAME}}.
type Probe struct {
	Kind    ProbeKind
	Locator locator.Locator
	Name    string
}

func (p Probe) String() string {
	switch p.Kind {
	case ProbeURL, ProbeTitle:
		return string(p.Kind)
	case ProbeAttribute:
		return fmt.Sprintf("attribute(%s, %s)", p.Locator, p.Name)
	}
	return fmt.Sprintf("%s(%s)", p.Kind, p.Locator)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Probe) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch kind := ProbeKind(strings.TrimSpace(node.Value)); kind {
		case ProbeURL, ProbeTitle:
			*p = Probe{Kind: kind}
			return nil
		}
		return fmt.Errorf("line %d: unknown probe %q (want url or title)", node.Line, node.Value)

	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: probe must have exactly one key", node.Line)
		}
		key, val := node.Content[0], node.Content[1]
		switch kind := ProbeKind(key.Value); kind {
		case ProbeText, ProbeVisible, ProbeTexts:
			var loc locator.Locator
			if err := val.Decode(&loc); err != nil {
				return err
			}
			*p = Probe{Kind: kind, Locator: loc}
			return nil
		case ProbeAttribute:
			var attr struct {
				Locator locator.Locator `yaml:"locator"`
				Name    string          `yaml:"name"`
			}
			if err := val.Decode(&attr); err != nil {
				return err
			}
			if attr.Locator.IsZero() || attr.Name == "" {
				return fmt.Errorf("line %d: attribute probe needs locator and name", val.Line)
			}
			*p = Probe{Kind: kind, Locator: attr.Locator, Name: attr.Name}
			return nil
		}
		return fmt.Errorf("line %d: unknown probe %q", key.Line, key.Value)
	}
	return fmt.Errorf("line %d: probe must be a scalar or mapping", node.Line)
}

// MarshalYAML implements yaml.Marshaler.
func (p Probe) MarshalYAML() (interface{}, error) {
	switch p.Kind {
	case ProbeURL, ProbeTitle:
		return string(p.Kind), nil
	case ProbeAttribute:
		return map[string]interface{}{
			string(p.Kind): map[string]interface{}{"locator": p.Locator, "name": p.Name},
		}, nil
	}
	return map[string]interface{}{string(p.Kind): p.Locator}, nil
}
