package correlate

import "github.com/mvp-joe/chunklink/internal/syntax"

// BuildHandlerIndex records, for every event attribute bound to a bare identifier,
// the selector of the element carrying it. Elements without a selector attribute
// contribute nothing.
func BuildHandlerIndex(units []*syntax.Unit, conv Conventions) HandlerIndex {
	parts := make([]HandlerIndex, 0, len(units))
	for _, u := range units {
		parts = append(parts, BuildFileHandlerIndex(u, conv))
	}
	return HandlerIndex{}.Merge(parts...)
}

// BuildFileHandlerIndex builds the handler index of a single unit.
func BuildFileHandlerIndex(unit *syntax.Unit, conv Conventions) HandlerIndex {
	m := make(stringSets)
	for _, attr := range unit.Root.Descendants(syntax.KindJSXAttribute) {
		a := attr.Attribute
		if !conv.IsEventAttribute(a.Name) || a.Value.Kind != syntax.ValueIdentifier {
			continue
		}
		el := attr.EnclosingElement()
		if el == nil {
			continue
		}
		if sel, ok := elementSelector(el.Element, conv); ok {
			m.add(a.Value.Text, sel)
		}
	}
	return HandlerIndex{m: m}
}

// elementSelector returns the literal value of the first selector attribute on an element.
// A first selector attribute with a non-literal value yields nothing.
func elementSelector(el *syntax.Element, conv Conventions) (string, bool) {
	for _, attr := range el.Attributes {
		if !conv.IsSelectorAttribute(attr.Attribute.Name) {
			continue
		}
		if attr.Attribute.Value.Kind != syntax.ValueLiteral {
			return "", false
		}
		return StripQuotes(attr.Attribute.Value.Text), true
	}
	return "", false
}
