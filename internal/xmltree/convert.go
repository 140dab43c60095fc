package xmltree

import (
	"strconv"
	"strings"
)

// Reserved object keys.
const (
	TextKey    = "#text"
	AttrPrefix = "@"
)

// Convert turns the tree rooted at root into {root.Tag: value}.
func Convert(root *Element) Value {
	doc := NewObject()
	doc.Set(root.Tag, convertElement(root))

	return ObjectValue(doc)
}

// convertElement applies the mapping rules to one element:
//   - children become keys; one sibling is unwrapped, repeats form a sequence
//   - non-nil attributes are stored under "@name"
//   - direct text goes under "#text" when there is structure, otherwise it is
//     the value itself
//   - with nothing left the element is null
func convertElement(el *Element) Value {
	text := strings.TrimSpace(el.Text)

	var attrs []Attr

	for _, a := range el.Attrs {
		if !a.IsNilMarker() {
			attrs = append(attrs, a)
		}
	}

	if len(el.Children) == 0 && len(attrs) == 0 {
		if text == "" {
			return Null()
		}

		return Scalar(text)
	}

	obj := NewObject()

	if len(el.Children) > 0 {
		grouped := make(map[string][]Value)

		var order []string

		for _, child := range el.Children {
			if _, seen := grouped[child.Tag]; !seen {
				order = append(order, child.Tag)
			}

			grouped[child.Tag] = append(grouped[child.Tag], convertElement(child))
		}

		for _, tag := range order {
			values := grouped[tag]
			if len(values) == 1 {
				obj.Set(tag, values[0])
			} else {
				obj.Set(tag, Sequence(values...))
			}
		}
	}

	for _, a := range attrs {
		obj.Set(AttrPrefix+a.Name, Scalar(a.Value))
	}

	if text != "" {
		obj.Set(TextKey, Scalar(text))
	}

	return ObjectValue(obj)
}

// Lookup follows a dot-separated path through objects (by key) and
// sequences (by numeric index). It returns false when any step is missing.
func Lookup(v Value, path string) (Value, bool) {
	if path == "" {
		return v, true
	}

	cur := v

	for _, part := range strings.Split(path, ".") {
		switch cur.Kind() {
		case KindObject:
			next, ok := cur.Field(part)
			if !ok {
				return Value{}, false
			}

			cur = next
		case KindSequence:
			idx, err := strconv.Atoi(part)
			if err != nil {
				return Value{}, false
			}

			items, _ := cur.Seq()
			if idx < 0 || idx >= len(items) {
				return Value{}, false
			}

			cur = items[idx]
		default:
			return Value{}, false
		}
	}

	return cur, true
}

// LookupText is Lookup followed by Value.Text.
func LookupText(v Value, path string) (string, bool) {
	found, ok := Lookup(v, path)
	if !ok {
		return "", false
	}

	return found.Text(), true
}
