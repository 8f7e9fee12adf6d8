package correlate

import (
	"sort"
	"strings"

	"github.com/mvp-joe/chunklink/internal/syntax"
)

// Enrich classifies a unit and computes every derived field of its chunk.
// The indices are read only. Missing data yields empty collections.
func Enrich(u Unit, isTest bool, handlers HandlerIndex, tests TestIndex, conv Conventions) Chunk {
	c := Chunk{
		FilePath:         u.FilePath,
		Name:             u.Name,
		Kind:             classify(u, isTest),
		Code:             u.Code(),
		Props:            []string{},
		Selectors:        []string{},
		Comments:         u.Node.LeadingComments(),
		LinkedHandlers:   []string{},
		ReverseSelectors: handlers.Selectors(u.Name),
		UsesProp:         []string{},
		UpdatesState:     []string{},
		PropToSelector:   map[string][]string{},
	}
	if c.Comments == nil {
		c.Comments = []string{}
	}
	if c.ReverseSelectors == nil {
		c.ReverseSelectors = []string{}
	}

	if u.Function != nil && len(u.Function.Params) > 0 {
		c.Props = append(c.Props, u.Function.Params[0].Properties...)
	}

	for _, attr := range u.Node.Descendants(syntax.KindJSXAttribute) {
		a := attr.Attribute
		switch {
		case conv.IsSelectorAttribute(a.Name) && a.Value.Kind == syntax.ValueLiteral:
			c.Selectors = append(c.Selectors, StripQuotes(a.Value.Text))
		case conv.IsEventAttribute(a.Name) && a.Value.Kind == syntax.ValueIdentifier:
			c.LinkedHandlers = append(c.LinkedHandlers, a.Value.Text)
		}
	}

	c.LinkedTests = lookupTests(tests, c.Selectors)
	c.ReverseTests = lookupTests(tests, c.ReverseSelectors)

	for _, text := range u.Node.Descendants(syntax.KindJSXText, syntax.KindJSXExpression) {
		// Markup nested in an expression is visited on its own; the outer text would
		// also carry the nested elements' attribute source.
		if text.Kind == syntax.KindJSXExpression && text.HasDescendant(syntax.KindJSXElement, syntax.KindJSXOpening) {
			continue
		}
		rendered := text.Text()
		for _, prop := range c.Props {
			if !strings.Contains(rendered, prop) {
				continue
			}
			c.UsesProp = appendUnique(c.UsesProp, prop)
			for _, sel := range c.Selectors {
				c.PropToSelector[prop] = appendUnique(c.PropToSelector[prop], sel)
			}
		}
	}

	for _, call := range u.Node.Descendants(syntax.KindCall) {
		if state, ok := conv.StateName(call.Call.Callee); ok {
			c.UpdatesState = append(c.UpdatesState, state)
		}
	}

	return c
}

// classify decides the chunk kind: test file first, then any markup, else function.
func classify(u Unit, isTest bool) Kind {
	switch {
	case isTest:
		return KindTest
	case u.Node.HasDescendant(syntax.KindJSXElement, syntax.KindJSXOpening):
		return KindComponent
	default:
		return KindFunction
	}
}

// lookupTests unions the tests of every selector, deduplicated and sorted.
func lookupTests(tests TestIndex, selectors []string) []string {
	set := make(map[string]struct{})
	for _, sel := range selectors {
		for _, name := range tests.Tests(sel) {
			set[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
