package correlate

import (
	"fmt"
	"strings"
)

// Kind classifies a chunk.
type Kind string

const (
	KindComponent Kind = "component"
	KindFunction  Kind = "function"
	KindTest      Kind = "test"
)

// Chunk is one enriched code unit. JSON names double as vector payload keys.
type Chunk struct {
	ID               string              `json:"id"`
	FilePath         string              `json:"filePath"`
	Name             string              `json:"name"`
	Kind             Kind                `json:"kind"`
	Code             string              `json:"code"`
	Props            []string            `json:"props"`
	Selectors        []string            `json:"selectors"`
	Comments         []string            `json:"comments"`
	LinkedHandlers   []string            `json:"linkedHandlers"`
	ReverseSelectors []string            `json:"reverseSelectors"`
	LinkedTests      []string            `json:"linkedTests"`
	ReverseTests     []string            `json:"reverseTests"`
	UsesProp         []string            `json:"usesProp"`
	UpdatesState     []string            `json:"updatesState"`
	PropToSelector   map[string][]string `json:"propToSelector"`
}

// EmbeddingText renders the chunk for the embedding service: a header line naming
// the chunk, its leading comments, then its code.
func (c *Chunk) EmbeddingText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "// %s %s (%s)\n", c.Kind, c.Name, c.FilePath)
	for _, comment := range c.Comments {
		b.WriteString(comment)
		b.WriteByte('\n')
	}
	b.WriteString(c.Code)
	return b.String()
}

// Payload returns every chunk field keyed by its JSON name.
func (c *Chunk) Payload() map[string]any {
	propToSelector := make(map[string]any, len(c.PropToSelector))
	for k, v := range c.PropToSelector {
		propToSelector[k] = v
	}
	return map[string]any{
		"id":               c.ID,
		"filePath":         c.FilePath,
		"name":             c.Name,
		"kind":             string(c.Kind),
		"code":             c.Code,
		"props":            c.Props,
		"selectors":        c.Selectors,
		"comments":         c.Comments,
		"linkedHandlers":   c.LinkedHandlers,
		"reverseSelectors": c.ReverseSelectors,
		"linkedTests":      c.LinkedTests,
		"reverseTests":     c.ReverseTests,
		"usesProp":         c.UsesProp,
		"updatesState":     c.UpdatesState,
		"propToSelector":   propToSelector,
	}
}

// Assemble assigns id = filePath::name to every chunk, keeping order. It does not
// deduplicate; the number of chunks whose id was already taken is returned.
func Assemble(chunks []Chunk) ([]Chunk, int) {
	seen := make(map[string]bool, len(chunks))
	duplicates := 0
	out := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		c.ID = c.FilePath + "::" + c.Name
		if seen[c.ID] {
			duplicates++
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out, duplicates
}
