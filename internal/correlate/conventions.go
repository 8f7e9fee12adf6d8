// Package correlate links rendered markup, the handlers it invokes and the tests
// that exercise it, and turns every function-like unit of a project into an
// enriched Chunk.
//
// The work is done in three passes over parsed units:
//
//  1. BuildHandlerIndex: handler identifier -> selectors of the elements binding it
//  2. BuildTestIndex: literal call argument in a test -> test names
//  3. Enrich: per discovered unit, classification plus every derived field
//
// Assemble then assigns ids. Engine runs all of it in order.
package correlate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mvp-joe/chunklink/internal/config"
)

// testModifiers are member forms accepted on a test callee, e.g. test.only(...).
var testModifiers = []string{"only", "skip", "fixme", "fail"}

// Conventions is the naming policy used to recognize selectors, handlers,
// state setters and test registrations. None of these are semantic facts.
type Conventions struct {
	SelectorAttributes []string
	EventPrefix        string
	StateSetterPrefix  string
	TestCallees        []string
}

// DefaultConventions matches React + Playwright/Jest style projects.
func DefaultConventions() Conventions {
	return ConventionsFromConfig(config.Default().Conventions)
}

// ConventionsFromConfig builds the policy from configuration.
func ConventionsFromConfig(cfg config.ConventionsConfig) Conventions {
	return Conventions{
		SelectorAttributes: append([]string(nil), cfg.SelectorAttributes...),
		EventPrefix:        cfg.EventPrefix,
		StateSetterPrefix:  cfg.StateSetterPrefix,
		TestCallees:        append([]string(nil), cfg.TestCallees...),
	}
}

// IsSelectorAttribute reports whether an attribute name marks a stable selector.
func (c Conventions) IsSelectorAttribute(name string) bool {
	for _, a := range c.SelectorAttributes {
		if a == name {
			return true
		}
	}
	return false
}

// IsEventAttribute reports whether an attribute name binds an event handler.
func (c Conventions) IsEventAttribute(name string) bool {
	return c.EventPrefix != "" && strings.HasPrefix(name, c.EventPrefix)
}

// IsTestCallee reports whether a callee registers a test.
func (c Conventions) IsTestCallee(callee string) bool {
	for _, name := range c.TestCallees {
		if callee == name {
			return true
		}
		if rest, ok := strings.CutPrefix(callee, name+"."); ok {
			for _, m := range testModifiers {
				if rest == m {
					return true
				}
			}
		}
	}
	return false
}

// StateName derives the state variable a setter-style callee mutates:
// setCount -> count. ok is false when the callee does not follow the convention.
func (c Conventions) StateName(callee string) (string, bool) {
	rest, ok := strings.CutPrefix(callee, c.StateSetterPrefix)
	if !ok || rest == "" {
		return "", false
	}
	r, size := utf8.DecodeRuneInString(rest)
	return string(unicode.ToLower(r)) + rest[size:], true
}

// StripQuotes removes every quote character (' " `) from s.
func StripQuotes(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\'', '"', '`':
			return -1
		}
		return r
	}, s)
}
