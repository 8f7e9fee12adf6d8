package correlate

import "sort"

// stringSets is an immutable many-to-many string mapping with set semantics on the values.
type stringSets map[string]map[string]struct{}

func (s stringSets) add(key, value string) {
	set, ok := s[key]
	if !ok {
		set = make(map[string]struct{})
		s[key] = set
	}
	set[value] = struct{}{}
}

// values returns the sorted values for key. The result is a fresh slice.
func (s stringSets) values(key string) []string {
	set := s[key]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s stringSets) keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func mergeSets(parts ...stringSets) stringSets {
	out := make(stringSets)
	for _, p := range parts {
		for k, set := range p {
			for v := range set {
				out.add(k, v)
			}
		}
	}
	return out
}

// HandlerIndex maps a handler identifier to the selectors of the elements that bind it.
// It is immutable once built.
type HandlerIndex struct {
	m stringSets
}

// Selectors returns the sorted selectors recorded for a handler.
func (h HandlerIndex) Selectors(handler string) []string {
	return h.m.values(handler)
}

// Handlers returns every recorded handler, sorted.
func (h HandlerIndex) Handlers() []string {
	return h.m.keys()
}

// Len is the number of distinct handlers.
func (h HandlerIndex) Len() int {
	return len(h.m)
}

// Merge combines indices built from disjoint unit sets.
func (h HandlerIndex) Merge(others ...HandlerIndex) HandlerIndex {
	parts := []stringSets{h.m}
	for _, o := range others {
		parts = append(parts, o.m)
	}
	return HandlerIndex{m: mergeSets(parts...)}
}

// TestIndex maps literal call-argument text found inside tests to the names of those tests.
// It is immutable once built.
type TestIndex struct {
	m stringSets
}

// Tests returns the sorted test names recorded for an argument text.
func (t TestIndex) Tests(text string) []string {
	return t.m.values(text)
}

// Texts returns every recorded argument text, sorted.
func (t TestIndex) Texts() []string {
	return t.m.keys()
}

// Len is the number of distinct argument texts.
func (t TestIndex) Len() int {
	return len(t.m)
}

// Merge combines indices built from disjoint unit sets.
func (t TestIndex) Merge(others ...TestIndex) TestIndex {
	parts := []stringSets{t.m}
	for _, o := range others {
		parts = append(parts, o.m)
	}
	return TestIndex{m: mergeSets(parts...)}
}
