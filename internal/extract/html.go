package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// undeterminedCharset is what charset detection reports when neither a BOM,
// a <meta> declaration nor valid UTF-8 settles the encoding.
const undeterminedCharset = "windows-1252"

// hiddenElements never contribute visible text.
var hiddenElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
}

// DecodeHTML converts raw page bytes to UTF-8. The encoding comes from the
// BOM or a <meta> charset; pages that declare nothing and are not valid UTF-8
// are decoded with fallback.
func DecodeHTML(raw []byte, fallback encoding.Encoding) ([]byte, string, error) {
	enc, name, certain := charset.DetermineEncoding(raw, "")
	if !certain && name == undeterminedCharset {
		switch {
		// Detection only sniffs the first KiB; an ASCII head can hide a UTF-8 body.
		case hasHighBit(raw) && utf8.Valid(raw):
			enc = unicode.UTF8
			name = "utf-8"
		case fallback != nil:
			enc = fallback
			name = "fallback"
		}
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return nil, name, fmt.Errorf("%w: decode %s: %w", ErrHTMLParse, name, err)
	}

	return out, name, nil
}

func hasHighBit(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return true
		}
	}

	return false
}

// VisibleText parses an HTML page and concatenates its text nodes, skipping
// comments and the contents of script, style and template elements.
func VisibleText(page []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHTMLParse, err)
	}

	var sb strings.Builder

	collectText(doc, &sb)

	return sb.String(), nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)

		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if hiddenElements[n.DataAtom] {
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
