package correlate

import "github.com/mvp-joe/chunklink/internal/syntax"

// AnonymousTest names tests whose title is not a string literal, and the
// callbacks of test registrations when they become units.
const AnonymousTest = "anonymous_test"

// BuildTestIndex records every argument of every call inside a test, quote-stripped,
// against the test's name. Only units accepted by isTestFile are scanned.
func BuildTestIndex(units []*syntax.Unit, isTestFile func(string) bool, conv Conventions) TestIndex {
	var parts []TestIndex
	for _, u := range units {
		if isTestFile(u.Path) {
			parts = append(parts, BuildFileTestIndex(u, conv))
		}
	}
	return TestIndex{}.Merge(parts...)
}

// BuildFileTestIndex builds the test index of a single test file.
//
// Tests are the file's top-level named functions and every test registration call
// (test('title', fn)) anywhere in the file.
func BuildFileTestIndex(unit *syntax.Unit, conv Conventions) TestIndex {
	m := make(stringSets)

	for _, fn := range unit.TopLevelFunctions() {
		recordCalls(m, fn, fn.Function.Name)
	}

	for _, call := range unit.Root.Descendants(syntax.KindCall) {
		if !conv.IsTestCallee(call.Call.Callee) {
			continue
		}
		scope := call
		if len(call.Call.Args) > 1 && call.Call.Args[1].Function != nil {
			scope = call.Call.Args[1]
		}
		recordCalls(m, scope, testTitle(call.Call))
	}

	return TestIndex{m: m}
}

func recordCalls(m stringSets, scope *syntax.Node, testName string) {
	for _, call := range scope.Descendants(syntax.KindCall) {
		for _, arg := range call.Call.Args {
			if text := StripQuotes(arg.Text()); text != "" {
				m.add(text, testName)
			}
		}
	}
}

// testTitle is the quote-stripped first argument of a registration call when it is a
// plain string, AnonymousTest otherwise.
func testTitle(call *syntax.Call) string {
	if len(call.Args) == 0 {
		return AnonymousTest
	}
	first := call.Args[0]
	switch first.Type {
	case "string":
		return StripQuotes(first.Text())
	case "template_string":
		for _, c := range first.Children {
			if c.Type == "template_substitution" {
				return AnonymousTest
			}
		}
		return StripQuotes(first.Text())
	}
	return AnonymousTest
}
