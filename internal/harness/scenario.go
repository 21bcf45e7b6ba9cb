package harness

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Suite is one scenario file: shared variables, setup and teardown around
// a list of independent scenarios.
type Suite struct {
	// Name identifies the suite in reports.
	Name string `yaml:"name"`

	// Description explains what the suite covers.
	Description string `yaml:"description,omitempty"`

	// Vars are substituted into ${name} references throughout the file.
	Vars map[string]string `yaml:"vars,omitempty"`

	// Setup runs before every scenario, after the session opens.
	Setup []Step `yaml:"setup,omitempty"`

	// Teardown runs after every scenario, before the session closes.
	Teardown []Step `yaml:"teardown,omitempty"`

	// Scenarios run in their own sessions, in declared order unless the
	// runner is parallel.
	Scenarios []Scenario `yaml:"scenarios"`

	// Path is the file the suite was loaded from.
	Path string `yaml:"-"`
}

// Scenario is one independent test case.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Setup       []Step `yaml:"setup,omitempty"`
	Steps       []Step `yaml:"steps"`
	Teardown    []Step `yaml:"teardown,omitempty"`
}

// BaseURLVar is the built-in variable holding the site root.
const BaseURLVar = "base_url"

// LoadOptions adjusts how suites are loaded.
type LoadOptions struct {
	// BaseURL sets ${base_url}, overriding the suite's own value when set.
	BaseURL string

	// Vars override suite variables.
	Vars map[string]string
}

var varRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.-]*)\}`)

// LoadSuite reads a YAML or CUE scenario file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, references undefined variables, or fails validation.
func LoadSuite(path string, opts LoadOptions) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	if filepath.Ext(path) == ".cue" {
		data, err = exportCUE(path, data)
		if err != nil {
			return nil, err
		}
	}

	suite, err := ParseSuite(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	suite.Path = path
	return suite, nil
}

// ParseSuite decodes a suite from YAML.
func ParseSuite(data []byte, opts LoadOptions) (*Suite, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("failed to parse YAML: empty document")
	}

	// Variables are read loosely first so they can be expanded everywhere
	// before the strict decode.
	var head struct {
		Vars map[string]string `yaml:"vars"`
	}
	if err := doc.Decode(&head); err != nil {
		return nil, fmt.Errorf("failed to parse vars: %w", err)
	}
	vars := resolveVars(head.Vars, opts)

	var undefined []string
	expandNode(doc.Content[0], vars, &undefined)
	if len(undefined) > 0 {
		sort.Strings(undefined)
		return nil, fmt.Errorf("undefined variables: %s", strings.Join(dedupe(undefined), ", "))
	}

	expanded, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode YAML: %w", err)
	}

	// Reject unknown fields (catches typos like "step:" vs "steps:")
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	suite.Vars = vars

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	if err := resolveNavigation(&suite, vars[BaseURLVar]); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &suite, nil
}

func resolveVars(suiteVars map[string]string, opts LoadOptions) map[string]string {
	vars := make(map[string]string, len(suiteVars)+len(opts.Vars)+1)
	for k, v := range suiteVars {
		vars[k] = v
	}
	if opts.BaseURL != "" {
		vars[BaseURLVar] = opts.BaseURL
	}
	for k, v := range opts.Vars {
		vars[k] = v
	}
	if base, ok := vars[BaseURLVar]; ok {
		vars[BaseURLVar] = strings.TrimSuffix(base, "/")
	}
	return vars
}

// expandNode replaces ${name} in every scalar value below n. Mapping keys
// are left alone.
func expandNode(n *yaml.Node, vars map[string]string, undefined *[]string) {
	switch n.Kind {
	case yaml.ScalarNode:
		if !strings.Contains(n.Value, "${") {
			return
		}
		n.Value = varRef.ReplaceAllStringFunc(n.Value, func(ref string) string {
			name := ref[2 : len(ref)-1]
			val, ok := vars[name]
			if !ok {
				*undefined = append(*undefined, name)
				return ref
			}
			return val
		})
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			expandNode(n.Content[i], vars, undefined)
		}
	case yaml.SequenceNode, yaml.DocumentNode:
		for _, c := range n.Content {
			expandNode(c, vars, undefined)
		}
	}
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// validateSuite checks that required fields are present and valid.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Scenarios) == 0 {
		return fmt.Errorf("scenarios list is required and must be non-empty")
	}

	if err := validateSteps("setup", s.Setup); err != nil {
		return err
	}
	if err := validateSteps("teardown", s.Teardown); err != nil {
		return err
	}

	seen := make(map[string]bool, len(s.Scenarios))
	for i := range s.Scenarios {
		sc := &s.Scenarios[i]
		if sc.Name == "" {
			return fmt.Errorf("scenarios[%d]: name is required", i)
		}
		if seen[sc.Name] {
			return fmt.Errorf("scenarios[%d]: duplicate scenario name %q", i, sc.Name)
		}
		seen[sc.Name] = true

		if len(sc.Steps) == 0 {
			return fmt.Errorf("scenario %q: steps list is required and must be non-empty", sc.Name)
		}
		for _, part := range []struct {
			name  string
			steps []Step
		}{{"setup", sc.Setup}, {"steps", sc.Steps}, {"teardown", sc.Teardown}} {
			if err := validateSteps(fmt.Sprintf("scenario %q: %s", sc.Name, part.name), part.steps); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateSteps(where string, steps []Step) error {
	for i := range steps {
		if err := steps[i].validate(); err != nil {
			return fmt.Errorf("%s[%d]: %w", where, i, err)
		}
	}
	return nil
}

// resolveNavigation makes relative navigate targets absolute against base.
func resolveNavigation(s *Suite, base string) error {
	if base == "" {
		return nil
	}
	root, err := url.Parse(base + "/")
	if err != nil {
		return fmt.Errorf("%s: %w", BaseURLVar, err)
	}

	fix := func(steps []Step) error {
		for i := range steps {
			if steps[i].Navigate == "" {
				continue
			}
			ref, err := url.Parse(steps[i].Navigate)
			if err != nil {
				return fmt.Errorf("navigate %q: %w", steps[i].Navigate, err)
			}
			if ref.IsAbs() {
				continue
			}
			steps[i].Navigate = root.ResolveReference(&url.URL{
				Path:     strings.TrimPrefix(ref.Path, "/"),
				RawQuery: ref.RawQuery,
				Fragment: ref.Fragment,
			}).String()
		}
		return nil
	}

	if err := fix(s.Setup); err != nil {
		return err
	}
	if err := fix(s.Teardown); err != nil {
		return err
	}
	for i := range s.Scenarios {
		sc := &s.Scenarios[i]
		for _, steps := range [][]Step{sc.Setup, sc.Steps, sc.Teardown} {
			if err := fix(steps); err != nil {
				return err
			}
		}
	}
	return nil
}

// Extensions recognised as scenario files.
var suiteExtensions = map[string]bool{".yaml": true, ".yml": true, ".cue": true}

// ErrNoSuiteFiles is returned when the given paths hold no scenario files.
var ErrNoSuiteFiles = errors.New("no scenario files found")

// SuiteFiles expands paths into scenario files. Directories are scanned
// (not recursively) for .yaml, .yml and .cue files in name order; files
// are taken as given.
func SuiteFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read scenario path: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read scenario directory: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && suiteExtensions[filepath.Ext(e.Name())] {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSuiteFiles, strings.Join(paths, ", "))
	}
	return files, nil
}

// LoadSuites loads every scenario file named by paths, stopping at the
// first invalid one.
func LoadSuites(paths []string, opts LoadOptions) ([]*Suite, error) {
	files, err := SuiteFiles(paths)
	if err != nil {
		return nil, err
	}

	suites := make([]*Suite, 0, len(files))
	for _, f := range files {
		s, err := LoadSuite(f, opts)
		if err != nil {
			return nil, err
		}
		suites = append(suites, s)
	}
	return suites, nil
}
