// Package mkdocs loads, transforms and persists the MkDocs site configuration
// document (mkdocs.yml).
//
// The document is held as a yaml.Node tree rather than decoded into Go types,
// so keys the transformer does not own keep their order, tags (for example
// `!!python/name:` values) and comments across a rewrite.
package mkdocs

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	serrors "git.home.luguber.info/inful/sitesetup/internal/errors"
)

// Top-level keys owned by the transformer.
const (
	KeyTheme              = "theme"
	KeyMarkdownExtensions = "markdown_extensions"
	KeySiteDir            = "site_dir"
	KeySiteName           = "site_name"
)

var (
	// ErrEmptyDocument reports a configuration file with no YAML content.
	ErrEmptyDocument = errors.New("document is empty")
	// ErrNotMapping reports a document whose top level is not a mapping.
	ErrNotMapping = errors.New("top level of document is not a mapping")
	// ErrAnchorReferenced reports an anchor inside a replaced value that is
	// still aliased from a key the transformer keeps.
	ErrAnchorReferenced = errors.New("anchor in a replaced value is referenced elsewhere")
)

// Document is a parsed configuration document.
type Document struct {
	root *yaml.Node // kind DocumentNode with a single MappingNode child
}

// Parse parses data as a configuration document. The result is a parse
// error when data is not valid YAML, is empty, or is not a mapping.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, serrors.ParseFailed("", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, serrors.ParseFailed("", ErrEmptyDocument)
	}
	if root.Kind != yaml.DocumentNode || root.Content[0].Kind != yaml.MappingNode {
		return nil, serrors.ParseFailed("", ErrNotMapping)
	}
	return &Document{root: &root}, nil
}

// Encode serializes the document with two-space indentation.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// mapping returns the top-level mapping node.
func (d *Document) mapping() *yaml.Node {
	return d.root.Content[0]
}

// Keys returns the top-level keys in document order.
func (d *Document) Keys() []string {
	m := d.mapping()
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	return keys
}

// Lookup returns the value node stored under a top-level key, or nil.
func (d *Document) Lookup(key string) *yaml.Node {
	m := d.mapping()
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// Has reports whether a top-level key is present.
func (d *Document) Has(key string) bool { return d.Lookup(key) != nil }

// ScalarString returns the string value of a top-level scalar key.
func (d *Document) ScalarString(key string) (string, bool) {
	n := d.Lookup(key)
	if n == nil || n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.Value, true
}

// Decode decodes the value of a top-level key into v.
func (d *Document) Decode(key string, v any) error {
	n := d.Lookup(key)
	if n == nil {
		return fmt.Errorf("key %q not present", key)
	}
	return n.Decode(v)
}

// set replaces the value of key in place, appending the key when absent.
func (d *Document) set(key string, value *yaml.Node) {
	m := d.mapping()
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

// externalAnchors returns the names of anchors defined inside the values of
// keys that are aliased from outside those values, in document order.
func (d *Document) externalAnchors(keys ...string) []string {
	owned := make(map[*yaml.Node]bool)
	for _, key := range keys {
		walkNodes(d.Lookup(key), func(n *yaml.Node) bool {
			owned[n] = true
			return true
		})
	}

	var names []string
	seen := make(map[string]bool)
	m := d.mapping()
	for i := 0; i+1 < len(m.Content); i += 2 {
		for _, n := range m.Content[i : i+2] {
			walkNodes(n, func(n *yaml.Node) bool {
				if owned[n] {
					return false
				}
				if n.Kind == yaml.AliasNode && owned[n.Alias] && !seen[n.Alias.Anchor] {
					seen[n.Alias.Anchor] = true
					names = append(names, n.Alias.Anchor)
				}
				return true
			})
		}
	}
	return names
}

// walkNodes visits n and its content depth first without following aliases.
// fn returning false skips the children of a node.
func walkNodes(n *yaml.Node, fn func(*yaml.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Content {
		walkNodes(child, fn)
	}
}

// Clone returns a deep copy of the document. Aliases in the copy point at
// the copied anchors.
func (d *Document) Clone() *Document {
	seen := make(map[*yaml.Node]*yaml.Node)
	return &Document{root: cloneNode(d.root, seen)}
}

func cloneNode(n *yaml.Node, seen map[*yaml.Node]*yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if c, ok := seen[n]; ok {
		return c
	}
	c := *n
	seen[n] = &c
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child, seen)
		}
	}
	c.Alias = cloneNode(n.Alias, seen)
	return &c
}
