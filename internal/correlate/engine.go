package correlate

import "github.com/mvp-joe/chunklink/internal/syntax"

// Result is the output of one engine run.
type Result struct {
	Chunks       []Chunk
	Handlers     HandlerIndex
	Tests        TestIndex
	Files        int
	DuplicateIDs int
}

// Engine runs the three correlation passes and assembles the chunk list.
// It holds no state between runs.
type Engine struct {
	conv       Conventions
	isTestFile func(string) bool
}

// NewEngine creates an engine. isTestFile receives the unit's relative slash path.
func NewEngine(conv Conventions, isTestFile func(string) bool) *Engine {
	return &Engine{conv: conv, isTestFile: isTestFile}
}

// Run processes units in the order given. Chunks come out grouped by file in that
// order, then in discovery order within each file.
func (e *Engine) Run(units []*syntax.Unit) *Result {
	handlers := BuildHandlerIndex(units, e.conv)
	tests := BuildTestIndex(units, e.isTestFile, e.conv)

	var chunks []Chunk
	for _, su := range units {
		isTest := e.isTestFile(su.Path)
		for _, u := range DiscoverUnits(su, e.conv) {
			chunks = append(chunks, Enrich(u, isTest, handlers, tests, e.conv))
		}
	}

	chunks, dups := Assemble(chunks)
	return &Result{
		Chunks:       chunks,
		Handlers:     handlers,
		Tests:        tests,
		Files:        len(units),
		DuplicateIDs: dups,
	}
}
