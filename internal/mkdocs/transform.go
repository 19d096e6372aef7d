package mkdocs

import (
	"fmt"
	"strings"

	serrors "git.home.luguber.info/inful/sitesetup/internal/errors"
)

// Transform returns a copy of doc whose theme and markdown_extensions values
// are replaced by r. The input is not modified. Every other top-level key
// keeps its position and value; an absent owned key is appended at the end.
//
// Transform is deterministic and idempotent: applying it to its own output
// yields an equal document.
//
// A document that aliases an anchor defined inside a replaced value is
// refused with ErrAnchorReferenced, since dropping the anchor would leave a
// dangling alias.
func Transform(doc *Document, r Replacement) (*Document, error) {
	theme, extensions, err := r.nodes()
	if err != nil {
		return nil, err
	}
	if names := doc.externalAnchors(KeyTheme, KeyMarkdownExtensions); len(names) > 0 {
		return nil, serrors.TransformFailed("",
			fmt.Errorf("%w: &%s", ErrAnchorReferenced, strings.Join(names, ", &"))).
			WithContext("anchors", names)
	}
	out := doc.Clone()
	out.set(KeyTheme, theme)
	out.set(KeyMarkdownExtensions, extensions)
	return out, nil
}

// Render transforms doc and returns the encoded result after checking that
// it parses back and that the replaced blocks satisfy the schema.
func Render(doc *Document, r Replacement) ([]byte, error) {
	next, err := Transform(doc, r)
	if err != nil {
		return nil, err
	}
	if err := ValidateReplacement(next); err != nil {
		return nil, err
	}
	data, err := next.Encode()
	if err != nil {
		return nil, err
	}
	if _, err := Parse(data); err != nil {
		return nil, serrors.InternalError("rewritten document does not parse", err)
	}
	return data, nil
}
