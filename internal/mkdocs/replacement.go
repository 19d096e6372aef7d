package mkdocs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ThemeBlock selects and parameterizes the rendering theme. It replaces the
// document's theme value wholesale.
type ThemeBlock struct {
	Name     string   `yaml:"name"`
	Features []string `yaml:"features,omitempty"`
	Palette  Palette  `yaml:"palette"`
}

// Palette holds the theme colors.
type Palette struct {
	Primary string `yaml:"primary"`
	Accent  string `yaml:"accent"`
}

// Extension is a markdown extension entry: either a bare identifier or an
// identifier carrying options, serialized as a single-key mapping.
type Extension struct {
	Name    string
	Options map[string]any
}

// MarshalYAML renders bare entries as strings and configured ones as {name: options}.
func (e Extension) MarshalYAML() (any, error) {
	if e.Options == nil {
		return e.Name, nil
	}
	return map[string]any{e.Name: e.Options}, nil
}

// UnmarshalYAML accepts both entry forms.
func (e *Extension) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		e.Name, e.Options = n.Value, nil
		return nil
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return fmt.Errorf("line %d: extension mapping must have exactly one key", n.Line)
		}
		e.Name = n.Content[0].Value
		opts := map[string]any{}
		if err := n.Content[1].Decode(&opts); err != nil {
			return fmt.Errorf("line %d: options of %s: %w", n.Line, e.Name, err)
		}
		e.Options = opts
		return nil
	default:
		return fmt.Errorf("line %d: unsupported extension entry", n.Line)
	}
}

// Replacement is the fixed content written over the two owned keys.
type Replacement struct {
	Theme      ThemeBlock
	Extensions []Extension // order is significant
}

// EnhancedThemeName identifies the enhanced theme.
const EnhancedThemeName = "material"

// DefaultReplacement returns the fixed theme block and extension list.
func DefaultReplacement() Replacement {
	return Replacement{
		Theme: ThemeBlock{
			Name: EnhancedThemeName,
			Features: []string{
				"navigation.tabs",
				"navigation.sections",
				"navigation.top",
				"search.highlight",
				"search.suggest",
			},
			Palette: Palette{Primary: "indigo", Accent: "indigo"},
		},
		Extensions: []Extension{
			{Name: "admonition"},
			{Name: "attr_list"},
			{Name: "def_list"},
			{Name: "pymdownx.details"},
			{Name: "pymdownx.superfences"},
			{Name: "toc", Options: map[string]any{"permalink": true}},
		},
	}
}

// nodes encodes the replacement into fresh value nodes.
func (r Replacement) nodes() (theme, extensions *yaml.Node, err error) {
	theme = &yaml.Node{}
	if err := theme.Encode(r.Theme); err != nil {
		return nil, nil, fmt.Errorf("encode theme block: %w", err)
	}
	extensions = &yaml.Node{}
	exts := r.Extensions
	if exts == nil {
		exts = []Extension{}
	}
	if err := extensions.Encode(exts); err != nil {
		return nil, nil, fmt.Errorf("encode markdown extensions: %w", err)
	}
	return theme, extensions, nil
}
