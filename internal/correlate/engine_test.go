package correlate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for unit discovery, enrichment and assembly:
// - The Foo/btn1/handleClick/label/clicks example yields the expected chunk
// - setCount(5) adds "count" to updatesState
// - Reverse selectors and reverse tests follow a unit used as a handler elsewhere
// - Discovery order: functions (with statement sub-units), variables, default export, tests
// - Statement sub-units carry per-kind ordinals so ids stay distinct
// - Classification: test file, markup, plain function
// - Props come from the first parameter only
// - usesProp ignores props that only appear in attributes of markup nested in an expression
// - Duplicate ids are counted, not removed
// - Two runs over the same sources produce identical chunk lists

const fooComponent = `
// Foo renders a labelled button.
export function Foo({ label }: { label: string }) {
  const handleClick = () => {};
  return <button onClick={handleClick} data-testid="btn1">{label}</button>;
}
`

const fooSpec = `
import { test } from '@playwright/test';

test("clicks", async ({ page }) => {
  await page.getByTestId('btn1').click();
});
`

func findChunk(t *testing.T, chunks []Chunk, id string) Chunk {
	t.Helper()
	for _, c := range chunks {
		if c.ID == id {
			return c
		}
	}
	require.Failf(t, "chunk not found", "id %s", id)
	return Chunk{}
}

func chunkIDs(chunks []Chunk) []string {
	var ids []string
	for _, c := range chunks {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestEngine_FooExample(t *testing.T) {
	t.Parallel()

	units := parseUnits(t,
		source{"src/Foo.tsx", fooComponent},
		source{"tests/foo.spec.ts", fooSpec},
	)

	res := NewEngine(DefaultConventions(), isSpec).Run(units)

	assert.Equal(t, []string{
		"src/Foo.tsx::Foo",
		"src/Foo.tsx::Foo::VariableStatement#1",
		"src/Foo.tsx::Foo::ReturnStatement#1",
		"tests/foo.spec.ts::anonymous_test",
	}, chunkIDs(res.Chunks))
	assert.Equal(t, 2, res.Files)
	assert.Zero(t, res.DuplicateIDs)

	foo := findChunk(t, res.Chunks, "src/Foo.tsx::Foo")
	assert.Equal(t, "src/Foo.tsx", foo.FilePath)
	assert.Equal(t, "Foo", foo.Name)
	assert.Equal(t, KindComponent, foo.Kind)
	assert.Equal(t, []string{"label"}, foo.Props)
	assert.Equal(t, []string{"btn1"}, foo.Selectors)
	assert.Equal(t, []string{"handleClick"}, foo.LinkedHandlers)
	assert.Equal(t, []string{"clicks"}, foo.LinkedTests)
	assert.Equal(t, []string{"label"}, foo.UsesProp)
	assert.Equal(t, map[string][]string{"label": {"btn1"}}, foo.PropToSelector)
	assert.Equal(t, []string{"// Foo renders a labelled button."}, foo.Comments)
	assert.Empty(t, foo.ReverseSelectors)
	assert.Empty(t, foo.ReverseTests)
	assert.Empty(t, foo.UpdatesState)
	assert.Contains(t, foo.Code, "export function Foo")

	stmt := findChunk(t, res.Chunks, "src/Foo.tsx::Foo::VariableStatement#1")
	assert.Equal(t, KindFunction, stmt.Kind)
	assert.Equal(t, "const handleClick = () => {};", stmt.Code)
	assert.Empty(t, stmt.Props)

	ret := findChunk(t, res.Chunks, "src/Foo.tsx::Foo::ReturnStatement#1")
	assert.Equal(t, KindComponent, ret.Kind)
	assert.Equal(t, []string{"btn1"}, ret.Selectors)
	assert.Equal(t, []string{"clicks"}, ret.LinkedTests)

	spec := findChunk(t, res.Chunks, "tests/foo.spec.ts::anonymous_test")
	assert.Equal(t, KindTest, spec.Kind)
	assert.Equal(t, []string{"page"}, spec.Props)
}

func TestEngine_UpdatesState(t *testing.T) {
	t.Parallel()

	units := parseUnits(t, source{"src/Counter.tsx", `
import { useState } from 'react';

export default function Counter() {
  const [count, setCount] = useState(0);
  const reset = () => { setCount(0); set(); };
  return <button onClick={() => setCount(5)}>{count}</button>;
}
`})

	res := NewEngine(DefaultConventions(), isSpec).Run(units)
	counter := findChunk(t, res.Chunks, "src/Counter.tsx::Counter")
	assert.Equal(t, []string{"count", "count"}, counter.UpdatesState)
	assert.Empty(t, counter.LinkedHandlers)

	ret := findChunk(t, res.Chunks, "src/Counter.tsx::Counter::ReturnStatement#1")
	assert.Equal(t, []string{"count"}, ret.UpdatesState)
}

func TestEngine_UsesPropSkipsNestedAttributes(t *testing.T) {
	t.Parallel()

	units := parseUnits(t, source{"src/List.tsx", `
export function List({ items, onSelect, title }) {
  return (
    <ul data-testid="list">
      <h2>{title}</h2>
      {items.map(i => <li onClick={onSelect} data-testid="row">{i.label}</li>)}
    </ul>
  );
}
`})

	res := NewEngine(DefaultConventions(), isSpec).Run(units)
	list := findChunk(t, res.Chunks, "src/List.tsx::List")
	assert.Equal(t, []string{"items", "onSelect", "title"}, list.Props)
	assert.Equal(t, []string{"list", "row"}, list.Selectors)
	assert.Equal(t, []string{"onSelect"}, list.LinkedHandlers)
	assert.Equal(t, []string{"title"}, list.UsesProp)
	assert.NotContains(t, list.PropToSelector, "onSelect")
	assert.NotContains(t, list.PropToSelector, "items")
	assert.Equal(t, []string{"list", "row"}, list.PropToSelector["title"])
}

func TestEngine_ReverseLinks(t *testing.T) {
	t.Parallel()

	units := parseUnits(t,
		source{"src/actions.ts", `
export function handleSave() {
  persist();
}
`},
		source{"src/Editor.tsx", `
const Editor = () => (
  <div>
    <button id="save" onClick={handleSave}>Save</button>
    <button data-testid="save-copy" onClick={handleSave}>Copy</button>
  </div>
);
export default Editor;
`},
		source{"tests/editor.spec.ts", `
test('saves', async ({ page }) => {
  await page.getByTestId('save').click();
});
test('copies', async ({ page }) => {
  await page.getByTestId('save-copy').click();
});
`},
	)

	res := NewEngine(DefaultConventions(), isSpec).Run(units)

	save := findChunk(t, res.Chunks, "src/actions.ts::handleSave")
	assert.Equal(t, KindFunction, save.Kind)
	assert.Equal(t, []string{"save", "save-copy"}, save.ReverseSelectors)
	assert.Equal(t, []string{"copies", "saves"}, save.ReverseTests)
	assert.Empty(t, save.LinkedTests)

	editor := findChunk(t, res.Chunks, "src/Editor.tsx::Editor")
	assert.Equal(t, KindComponent, editor.Kind)
	assert.Equal(t, []string{"save", "save-copy"}, editor.Selectors)
	assert.Equal(t, []string{"handleSave", "handleSave"}, editor.LinkedHandlers)
	assert.Equal(t, []string{"copies", "saves"}, editor.LinkedTests)

	assert.Equal(t, 1, res.DuplicateIDs, "two anonymous tests share one id")
}

func TestDiscoverUnits_Order(t *testing.T) {
	t.Parallel()

	units := parseUnits(t, source{"src/mixed.spec.tsx", `
export default () => <main />;

it('works', () => {
  if (a) { b(); }
  if (c) { d(); }
});

const helper = function () { return 1; };
const value = 42;

function run() {
  if (a) { b(); }
  // between
  if (c) { d(); }
  return 1;
}
`})

	got := DiscoverUnits(units[0], DefaultConventions())
	var names []string
	for _, u := range got {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{
		"run",
		"run::IfStatement#1",
		"run::IfStatement#2",
		"run::ReturnStatement#1",
		"helper",
		DefaultExport,
		AnonymousTest,
	}, names)

	assert.Equal(t, []string{"// between"}, got[2].Node.LeadingComments())
}

func TestEnrich_PropsFromFirstParameterOnly(t *testing.T) {
	t.Parallel()

	units := parseUnits(t, source{"src/Row.tsx", `
type RowProps = { title: string; onOpen: () => void };

export function Row({ title, onOpen }: RowProps, ref: { current: any }) {
  return <li data-testid="row" data-id={title}>{title.toUpperCase()}</li>;
}

export function plain(x: number) {
  return x + 1;
}
`})

	res := NewEngine(DefaultConventions(), isSpec).Run(units)

	row := findChunk(t, res.Chunks, "src/Row.tsx::Row")
	assert.Equal(t, []string{"title", "onOpen"}, row.Props)
	assert.Equal(t, []string{"title"}, row.UsesProp)
	assert.Equal(t, map[string][]string{"title": {"row"}}, row.PropToSelector)

	plain := findChunk(t, res.Chunks, "src/Row.tsx::plain")
	assert.Equal(t, KindFunction, plain.Kind)
	assert.Empty(t, plain.Props)
	assert.Empty(t, plain.Selectors)
	assert.NotNil(t, plain.Selectors)
	assert.NotNil(t, plain.PropToSelector)
}

func TestEngine_CustomConventions(t *testing.T) {
	t.Parallel()

	units := parseUnits(t,
		source{"src/Nav.tsx", `
export const Nav = () => <a data-test="home" handle-click={goHome}>Home</a>;
`},
		source{"tests/nav.spec.ts", `
check('nav', () => { visit('home'); });
`},
	)

	conv := Conventions{
		SelectorAttributes: []string{"data-test"},
		EventPrefix:        "handle-",
		StateSetterPrefix:  "update",
		TestCallees:        []string{"check"},
	}
	res := NewEngine(conv, isSpec).Run(units)

	assert.Equal(t, []string{"home"}, res.Handlers.Selectors("goHome"))
	nav := findChunk(t, res.Chunks, "src/Nav.tsx::Nav")
	assert.Equal(t, []string{"home"}, nav.Selectors)
	assert.Equal(t, []string{"goHome"}, nav.LinkedHandlers)
	assert.Equal(t, []string{"nav"}, nav.LinkedTests)
}

func TestEngine_Deterministic(t *testing.T) {
	t.Parallel()

	run := func() *Result {
		units := parseUnits(t,
			source{"src/Foo.tsx", fooComponent},
			source{"tests/foo.spec.ts", fooSpec},
		)
		return NewEngine(DefaultConventions(), isSpec).Run(units)
	}

	first, second := run(), run()
	assert.Equal(t, first.Chunks, second.Chunks)
}

func TestAssemble(t *testing.T) {
	t.Parallel()

	chunks, dups := Assemble([]Chunk{
		{FilePath: "a.ts", Name: "x"},
		{FilePath: "a.ts", Name: "y"},
		{FilePath: "a.ts", Name: "x"},
	})
	assert.Equal(t, []string{"a.ts::x", "a.ts::y", "a.ts::x"}, chunkIDs(chunks))
	assert.Equal(t, 1, dups)
}

func TestChunk_EmbeddingTextAndPayload(t *testing.T) {
	t.Parallel()

	c := Chunk{
		ID:             "src/a.ts::run",
		FilePath:       "src/a.ts",
		Name:           "run",
		Kind:           KindFunction,
		Code:           "function run() {}",
		Comments:       []string{"// runs"},
		PropToSelector: map[string][]string{"p": {"s"}},
	}

	assert.Equal(t, "// function run (src/a.ts)\n// runs\nfunction run() {}", c.EmbeddingText())

	payload := c.Payload()
	assert.Equal(t, "src/a.ts::run", payload["id"])
	assert.Equal(t, "function", payload["kind"])
	assert.Len(t, payload, 15)
}
