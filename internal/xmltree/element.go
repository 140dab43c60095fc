// Package xmltree parses XML into an element tree and converts the tree into
// nested Values that mirror the document structure.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"
)

// XSINamespace is the XML Schema-instance namespace that carries xsi:nil.
const XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"

// Parse errors.
var (
	ErrMalformed = errors.New("malformed xml")
	ErrNoRoot    = errors.New("document has no root element")
)

// Attr is an element attribute. Space is the resolved namespace URI, or the
// raw prefix when the prefix was never declared.
type Attr struct {
	Space string
	Name  string
	Value string
}

// Element is a parsed XML node with its namespace stripped from the tag.
type Element struct {
	Tag   string
	Attrs []Attr
	// Text is the character data before the first child; text between or
	// after children is dropped.
	Text     string
	Children []*Element
}

// IsNilMarker reports whether a is the schema-instance nil attribute.
func (a Attr) IsNilMarker() bool {
	return a.Name == "nil" && (a.Space == XSINamespace || a.Space == "xsi")
}

// ParseFile parses the XML file at path.
func ParseFile(path string) (*Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// ParseString parses an XML document held in memory.
func ParseString(s string) (*Element, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads a whole XML document into an element tree. Any syntax
// problem, including a root element left open at EOF, wraps ErrMalformed.
func Parse(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *Element
		stack []*Element
		text  []*bytes.Buffer
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && root != nil {
				return nil, fmt.Errorf("%w: second root element <%s>", ErrMalformed, t.Name.Local)
			}

			el := &Element{Tag: t.Name.Local}

			for _, a := range t.Attr {
				if isNamespaceDecl(a.Name) {
					continue
				}

				el.Attrs = append(el.Attrs, Attr{Space: a.Name.Space, Name: a.Name.Local, Value: a.Value})
			}

			if len(stack) == 0 {
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}

			stack = append(stack, el)
			text = append(text, &bytes.Buffer{})

		case xml.EndElement:
			top := len(stack) - 1
			stack[top].Text = text[top].String()
			stack = stack[:top]
			text = text[:top]

		case xml.CharData:
			if top := len(stack) - 1; top >= 0 && len(stack[top].Children) == 0 {
				text[top].Write(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, ErrNoRoot)
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: element <%s> is not closed", ErrMalformed, stack[len(stack)-1].Tag)
	}

	return root, nil
}

func isNamespaceDecl(n xml.Name) bool {
	return n.Space == "xmlns" || (n.Space == "" && n.Local == "xmlns")
}
