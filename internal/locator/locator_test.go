package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"id", ID},
		{"css", CSS},
		{"CSS_SELECTOR", CSS},
		{"xpath", XPath},
		{"link_text", LinkText},
		{"link-text", LinkText},
		{"Class Name", ClassName},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseStrategy("tag")
	assert.Error(t, err)
}

func TestNew_RejectsEmptyValue(t *testing.T) {
	_, err := New(CSS, "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value is required")

	_, err = New(Strategy(42), "x")
	assert.Error(t, err)
}

func TestParse_Shorthand(t *testing.T) {
	l, err := Parse("xpath=//button[@type='submit']")
	require.NoError(t, err)
	assert.Equal(t, XPath, l.Strategy())
	assert.Equal(t, "//button[@type='submit']", l.Value())
	assert.Equal(t, "xpath=//button[@type='submit']", l.String())

	_, err = Parse("#username")
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name string
		loc  Locator
		want Query
	}{
		{"id", MustNew(ID, "flash"), Query{LangCSS, `[id="flash"]`}},
		{"css", MustNew(CSS, "#login > button"), Query{LangCSS, "#login > button"}},
		{"xpath", MustNew(XPath, "//h2"), Query{LangXPath, "//h2"}},
		{"class dotted", MustNew(ClassName, "flash.success"), Query{LangCSS, ".flash.success"}},
		{"class spaced", MustNew(ClassName, "flash  error"), Query{LangCSS, ".flash.error"}},
		{"link text", MustNew(LinkText, " Elemental Selenium "), Query{LangXPath, "//a[normalize-space(.)='Elemental Selenium']"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.loc.Query())
		})
	}
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, "'plain'", xpathLiteral("plain"))
	assert.Equal(t, `"it's"`, xpathLiteral("it's"))
	assert.Equal(t, `concat('say "hi" it', "'", 's')`, xpathLiteral(`say "hi" it's`))
}

func TestUnmarshalYAML(t *testing.T) {
	var doc struct {
		A Locator `yaml:"a"`
		B Locator `yaml:"b"`
	}
	src := "a: { link_text: Form Authentication }\nb: \"css=#username\"\n"
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))

	assert.Equal(t, MustNew(LinkText, "Form Authentication"), doc.A)
	assert.Equal(t, MustNew(CSS, "#username"), doc.B)
}

func TestUnmarshalYAML_Errors(t *testing.T) {
	cases := map[string]string{
		"two keys":      "a: { css: x, id: y }",
		"bad strategy":  "a: { tag: div }",
		"empty value":   "a: { css: \"\" }",
		"sequence":      "a: [css, x]",
		"no separator":  "a: plain",
		"nested value":  "a: { css: { x: y } }",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			var doc struct {
				A Locator `yaml:"a"`
			}
			assert.Error(t, yaml.Unmarshal([]byte(src), &doc))
		})
	}
}

func TestMarshalYAML_RoundTrip(t *testing.T) {
	l := MustNew(ClassName, "flash.success")
	out, err := yaml.Marshal(l)
	require.NoError(t, err)
	assert.Equal(t, "class_name: flash.success\n", string(out))
}
