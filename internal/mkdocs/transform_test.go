package mkdocs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	serrors "git.home.luguber.info/inful/sitesetup/internal/errors"
)

const fullConfig = `# Project documentation
site_name: Docs
site_url: https://docs.example.com/
repo_url: https://github.com/example/docs
theme:
  name: readthedocs
  highlightjs: true
plugins:
  - search
  - awesome-pages:
      collapse_single_pages: true
markdown_extensions:
  - toc
  - pymdownx.emoji:
      emoji_index: !!python/name:material.extensions.emoji.twemoji
nav:
  - Home: index.md
  - Guide:
      - Install: guide/install.md
      - Usage: guide/usage.md
extra:
  version: 1.2 # pinned
`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := Parse([]byte(s))
	require.NoError(t, err)
	return doc
}

func decodeAll(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, yaml.Unmarshal(data, &m))
	return m
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid yaml", "site_name: [unclosed\n"},
		{"empty", ""},
		{"only comment", "# nothing here\n"},
		{"sequence root", "- a\n- b\n"},
		{"scalar root", "just text\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, serrors.IsCategory(err, serrors.CategoryParse))
		})
	}
}

func TestTransform_ReadTheDocsToMaterial(t *testing.T) {
	doc := mustParse(t, `{"site_name": "Docs", "theme": {"name": "readthedocs"}, "markdown_extensions": ["toc"]}`)

	out, err := Transform(doc, DefaultReplacement())
	require.NoError(t, err)

	site, ok := out.ScalarString(KeySiteName)
	require.True(t, ok)
	assert.Equal(t, "Docs", site)

	var theme ThemeBlock
	require.NoError(t, out.Decode(KeyTheme, &theme))
	assert.Equal(t, EnhancedThemeName, theme.Name)
	assert.Equal(t, Palette{Primary: "indigo", Accent: "indigo"}, theme.Palette)

	var exts []Extension
	require.NoError(t, out.Decode(KeyMarkdownExtensions, &exts))
	require.Len(t, exts, 6)
	assert.Equal(t, DefaultReplacement().Extensions, exts)
	last := exts[len(exts)-1]
	assert.Equal(t, "toc", last.Name)
	assert.Equal(t, map[string]any{"permalink": true}, last.Options)
}

func TestTransform_PreservesUntouchedKeys(t *testing.T) {
	inputs := map[string]string{
		"full":         fullConfig,
		"minimal":      "site_name: Docs\n",
		"flow":         `{"site_name": "Docs", "theme": "mkdocs", "markdown_extensions": ["toc"], "extra_css": ["a.css"]}`,
		"no owned key": "site_name: X\nnav:\n  - index.md\n",
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			doc := mustParse(t, input)
			before, err := doc.Encode()
			require.NoError(t, err)

			out, err := Transform(doc, DefaultReplacement())
			require.NoError(t, err)
			after, err := out.Encode()
			require.NoError(t, err)

			orig := decodeAll(t, []byte(input))
			got := decodeAll(t, after)
			for key, val := range orig {
				if key == KeyTheme || key == KeyMarkdownExtensions {
					continue
				}
				assert.Equal(t, val, got[key], "key %s changed", key)
			}

			// the input document is not mutated
			again, err := doc.Encode()
			require.NoError(t, err)
			assert.Equal(t, string(before), string(again))
		})
	}
}

func TestTransform_KeepsKeyOrderAndAppendsMissing(t *testing.T) {
	doc := mustParse(t, fullConfig)
	out, err := Transform(doc, DefaultReplacement())
	require.NoError(t, err)
	assert.Equal(t, doc.Keys(), out.Keys())

	minimal := mustParse(t, "site_name: Docs\nnav:\n  - index.md\n")
	out, err = Transform(minimal, DefaultReplacement())
	require.NoError(t, err)
	assert.Equal(t, []string{"site_name", "nav", KeyTheme, KeyMarkdownExtensions}, out.Keys())
}

func TestTransform_PreservesTagsAndComments(t *testing.T) {
	doc := mustParse(t, fullConfig)
	out, err := Transform(doc, DefaultReplacement())
	require.NoError(t, err)
	data, err := out.Encode()
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, "# Project documentation")
	assert.Contains(t, s, "# pinned")
	assert.Contains(t, s, "awesome-pages")
	assert.NotContains(t, s, "readthedocs")
	assert.NotContains(t, s, "twemoji", "markdown_extensions is replaced wholesale")
}

func TestTransform_Idempotent(t *testing.T) {
	for _, input := range []string{fullConfig, "site_name: Docs\n", `{"site_name": "Docs", "theme": {"name": "readthedocs"}, "markdown_extensions": ["toc"]}`} {
		doc := mustParse(t, input)
		once, err := Transform(doc, DefaultReplacement())
		require.NoError(t, err)
		twice, err := Transform(once, DefaultReplacement())
		require.NoError(t, err)

		a, err := once.Encode()
		require.NoError(t, err)
		b, err := twice.Encode()
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))

		// through a serialize/parse cycle as well
		reparsed := mustParse(t, string(a))
		thrice, err := Transform(reparsed, DefaultReplacement())
		require.NoError(t, err)
		c, err := thrice.Encode()
		require.NoError(t, err)
		assert.Equal(t, string(a), string(c))
	}
}

func TestTransform_Deterministic(t *testing.T) {
	var first string
	for i := 0; i < 5; i++ {
		out, err := Transform(mustParse(t, fullConfig), DefaultReplacement())
		require.NoError(t, err)
		data, err := out.Encode()
		require.NoError(t, err)
		if i == 0 {
			first = string(data)
			continue
		}
		assert.Equal(t, first, string(data))
	}
}

func TestTransform_ExtensionOrder(t *testing.T) {
	out, err := Transform(mustParse(t, fullConfig), DefaultReplacement())
	require.NoError(t, err)

	ext := out.Lookup(KeyMarkdownExtensions)
	require.NotNil(t, ext)
	require.Equal(t, yaml.SequenceNode, ext.Kind)
	var names []string
	for _, item := range ext.Content {
		if item.Kind == yaml.MappingNode {
			names = append(names, item.Content[0].Value)
			continue
		}
		names = append(names, item.Value)
	}
	assert.Equal(t, []string{"admonition", "attr_list", "def_list", "pymdownx.details", "pymdownx.superfences", "toc"}, names)
}

func TestClone_PreservesAliases(t *testing.T) {
	doc := mustParse(t, "base: &b\n  x: 1\ncopy: *b\n")
	clone := doc.Clone()

	orig := doc.Lookup("copy")
	cp := clone.Lookup("copy")
	require.Equal(t, yaml.AliasNode, cp.Kind)
	assert.NotSame(t, orig.Alias, cp.Alias)
	assert.Same(t, clone.Lookup("base"), cp.Alias)
}

func TestTransform_RefusesAliasedReplacedAnchor(t *testing.T) {
	tests := map[string]string{
		"whole theme":     "theme: &t\n  name: readthedocs\nextra:\n  base: *t\n",
		"nested value":    "theme:\n  name: &n readthedocs\nsite_name: *n\n",
		"extension entry": "markdown_extensions:\n  - toc: &toc\n      permalink: true\nextra:\n  toc: *toc\n",
		"merge key":       "theme: &t\n  name: readthedocs\nextra:\n  <<: *t\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			doc := mustParse(t, input)
			_, err := Transform(doc, DefaultReplacement())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAnchorReferenced)
			assert.True(t, serrors.IsCategory(err, serrors.CategoryTransform))
			assert.False(t, serrors.IsCategory(err, serrors.CategoryParse))

			_, err = Render(doc, DefaultReplacement())
			assert.ErrorIs(t, err, ErrAnchorReferenced)
		})
	}
}

func TestTransform_AllowsAnchorsNotCrossingReplacedValues(t *testing.T) {
	tests := map[string]string{
		"alias inside theme":       "theme:\n  name: &n readthedocs\n  fallback: *n\n",
		"theme aliases kept key":   "palette: &p\n  scheme: slate\ntheme:\n  name: readthedocs\n  palette: *p\nextra: *p\n",
		"unrelated anchor":         "base: &b\n  x: 1\ncopy: *b\ntheme: readthedocs\n",
		"extensions alias outside": "common: &c toc\nmarkdown_extensions:\n  - *c\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			data, err := Render(mustParse(t, input), DefaultReplacement())
			require.NoError(t, err)
			assert.Contains(t, string(data), "name: material")
		})
	}
}

func TestRender(t *testing.T) {
	data, err := Render(mustParse(t, fullConfig), DefaultReplacement())
	require.NoError(t, err)
	m := decodeAll(t, data)
	assert.Equal(t, "Docs", m["site_name"])
}

func TestValidateReplacement(t *testing.T) {
	out, err := Transform(mustParse(t, "site_name: Docs\n"), DefaultReplacement())
	require.NoError(t, err)
	require.NoError(t, ValidateReplacement(out))

	bad := DefaultReplacement()
	bad.Theme.Name = ""
	out, err = Transform(mustParse(t, "site_name: Docs\n"), bad)
	require.NoError(t, err)
	assert.Error(t, ValidateReplacement(out))

	_, err = Render(mustParse(t, "site_name: Docs\n"), bad)
	assert.Error(t, err)
}

func TestExtension_UnmarshalErrors(t *testing.T) {
	var exts []Extension
	err := yaml.Unmarshal([]byte("- {a: {}, b: {}}\n"), &exts)
	assert.Error(t, err)

	err = yaml.Unmarshal([]byte("- [nested]\n"), &exts)
	assert.Error(t, err)
}
