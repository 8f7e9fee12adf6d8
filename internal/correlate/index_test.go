package correlate

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/chunklink/internal/syntax"
)

// Test Plan for the correlation indices:
// - Pass 1 keeps every selector bound to a handler (set semantics, no overwrite)
// - Pass 1 takes the first selector attribute of an element, literal values only
// - Pass 1 ignores non-identifier handlers and elements without selectors
// - Pass 2 records A -> T for every call argument inside a test
// - Pass 2 covers top-level functions and registration callbacks, test files only
// - Merge unions per-file indices
// - Conventions: test callees, state names, quote stripping

type source struct {
	path string
	code string
}

func parseUnits(t *testing.T, sources ...source) []*syntax.Unit {
	t.Helper()
	p := syntax.NewParser()
	var units []*syntax.Unit
	for _, s := range sources {
		u, err := p.Parse(context.Background(), s.path, []byte(s.code))
		require.NoError(t, err)
		units = append(units, u)
	}
	return units
}

func isSpec(path string) bool {
	return strings.Contains(path, ".spec.") || strings.HasPrefix(path, "tests/")
}

func TestBuildHandlerIndex_SetSemantics(t *testing.T) {
	t.Parallel()

	units := parseUnits(t,
		source{"src/A.tsx", `
export function A() {
  return (
    <div>
      <button onClick={handleClick} data-testid="first">1</button>
      <button data-testid="second" onClick={handleClick}>2</button>
      <button onClick={handleClick} data-testid="first">again</button>
    </div>
  );
}`},
		source{"src/B.tsx", `
export const B = () => <a id="third" onMouseEnter={handleClick} />;
`},
	)

	idx := BuildHandlerIndex(units, DefaultConventions())
	assert.Equal(t, []string{"first", "second", "third"}, idx.Selectors("handleClick"))
	assert.Equal(t, []string{"handleClick"}, idx.Handlers())
	assert.Equal(t, 1, idx.Len())
}

func TestBuildHandlerIndex_Absence(t *testing.T) {
	t.Parallel()

	units := parseUnits(t, source{"src/C.tsx", `
export function C({ id }) {
  return (
    <form>
      <button onClick={() => save()} data-testid="inline">inline</button>
      <button onClick={save}>no selector</button>
      <button id={id} data-testid="later" onClick={submit}>computed first</button>
      <input onChange={handlers.change} data-testid="member" />
      <span title="x" data-testid="ok" onBlur={blur} />
    </form>
  );
}`})

	idx := BuildHandlerIndex(units, DefaultConventions())
	assert.Empty(t, idx.Selectors("save"))
	assert.Empty(t, idx.Selectors("submit"), "first selector attribute is not a literal")
	assert.Empty(t, idx.Selectors("handlers.change"))
	assert.Equal(t, []string{"ok"}, idx.Selectors("blur"))
	assert.Equal(t, 1, idx.Len())
}

func TestBuildTestIndex(t *testing.T) {
	t.Parallel()

	units := parseUnits(t,
		source{"tests/cart.spec.ts", `
import { test, expect } from '@playwright/test';

function openCart(page) {
  return page.getByTestId("cart-button").click();
}

test.describe('cart', () => {
  test('adds item', async ({ page }) => {
    await page.getByTestId('add-item').click();
    await expect(page.getByText(` + "`1 item`" + `)).toBeVisible();
  });

  it("removes item", async () => {
    remove('remove-item', 2);
  });
});

test(title, async () => {
  check('dynamic');
});
`},
		source{"src/Cart.tsx", `
export function Cart() { track('add-item'); return <div />; }
`},
	)

	idx := BuildTestIndex(units, isSpec, DefaultConventions())
	assert.Equal(t, []string{"openCart"}, idx.Tests("cart-button"))
	assert.Equal(t, []string{"adds item"}, idx.Tests("add-item"))
	assert.Equal(t, []string{"adds item"}, idx.Tests("1 item"))
	assert.Equal(t, []string{"removes item"}, idx.Tests("remove-item"))
	assert.Equal(t, []string{"removes item"}, idx.Tests("2"))
	assert.Equal(t, []string{AnonymousTest}, idx.Tests("dynamic"))
	assert.Empty(t, idx.Tests("cart"), "describe is not a test registration")
}

func TestIndex_Merge(t *testing.T) {
	t.Parallel()

	a := HandlerIndex{m: stringSets{}}
	a.m.add("h", "x")
	b := HandlerIndex{m: stringSets{}}
	b.m.add("h", "y")
	b.m.add("g", "z")

	merged := a.Merge(b)
	assert.Equal(t, []string{"x", "y"}, merged.Selectors("h"))
	assert.Equal(t, []string{"z"}, merged.Selectors("g"))
	assert.Equal(t, []string{"x"}, a.Selectors("h"), "inputs are not modified")

	ta := TestIndex{m: stringSets{}}
	ta.m.add("btn", "t1")
	tb := TestIndex{m: stringSets{}}
	tb.m.add("btn", "t2")
	assert.Equal(t, []string{"t1", "t2"}, ta.Merge(tb).Tests("btn"))
	assert.Equal(t, []string{"btn"}, ta.Merge(tb).Texts())
}

func TestConventions(t *testing.T) {
	t.Parallel()

	conv := DefaultConventions()

	assert.True(t, conv.IsTestCallee("test"))
	assert.True(t, conv.IsTestCallee("it"))
	assert.True(t, conv.IsTestCallee("test.only"))
	assert.False(t, conv.IsTestCallee("test.describe"))
	assert.False(t, conv.IsTestCallee("describe"))

	assert.True(t, conv.IsSelectorAttribute("data-testid"))
	assert.True(t, conv.IsSelectorAttribute("id"))
	assert.False(t, conv.IsSelectorAttribute("className"))

	assert.True(t, conv.IsEventAttribute("onClick"))
	assert.False(t, conv.IsEventAttribute("value"))

	state, ok := conv.StateName("setCount")
	require.True(t, ok)
	assert.Equal(t, "count", state)

	state, ok = conv.StateName("setURL")
	require.True(t, ok)
	assert.Equal(t, "uRL", state)

	_, ok = conv.StateName("set")
	assert.False(t, ok)
	_, ok = conv.StateName("useState")
	assert.False(t, ok)

	assert.Equal(t, "btn1", StripQuotes(`"btn1"`))
	assert.Equal(t, "a b", StripQuotes("`a b`"))
	assert.Equal(t, "[data-testid=x]", StripQuotes(`'[data-testid="x"]'`))
}
