package correlate

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/chunklink/internal/syntax"
)

// DefaultExport names the unit of an anonymous default-exported function.
const DefaultExport = "default_export"

// Unit is a named, boundable region of code selected for chunking.
type Unit struct {
	FilePath string
	Name     string
	Node     *syntax.Node
	// Function is nil for statement sub-units.
	Function *syntax.Function
}

// Code returns the verbatim source of the unit. Exported declarations keep their export keyword.
func (u Unit) Code() string {
	if u.Node.Kind == syntax.KindFunctionDecl {
		return u.Node.Outer().Text()
	}
	return u.Node.Text()
}

// DiscoverUnits enumerates the function-like units of one file in this order:
//
//  1. top-level named functions, each followed by one sub-unit per top-level
//     statement of its body, named <fn>::<StatementKind>#<n>
//  2. top-level variables initialized with a function value, named after the variable
//  3. an anonymous default-exported function, named default_export
//  4. anonymous callbacks passed as the second argument of a test registration,
//     named anonymous_test
func DiscoverUnits(su *syntax.Unit, conv Conventions) []Unit {
	var units []Unit

	for _, fn := range su.TopLevelFunctions() {
		units = append(units, Unit{
			FilePath: su.Path,
			Name:     fn.Function.Name,
			Node:     fn,
			Function: fn.Function,
		})
		units = append(units, statementUnits(su.Path, fn)...)
	}

	for _, v := range su.TopLevelVariables() {
		value := v.Variable.Value
		if value == nil || value.Kind != syntax.KindFunctionExpr {
			continue
		}
		units = append(units, Unit{
			FilePath: su.Path,
			Name:     v.Variable.Name,
			Node:     v,
			Function: value.Function,
		})
	}

	if def := su.DefaultExport(); def != nil && def.Kind == syntax.KindFunctionExpr && def.Function.Name == "" {
		units = append(units, Unit{
			FilePath: su.Path,
			Name:     DefaultExport,
			Node:     def,
			Function: def.Function,
		})
	}

	for _, call := range su.Root.Descendants(syntax.KindCall) {
		if !conv.IsTestCallee(call.Call.Callee) || len(call.Call.Args) < 2 {
			continue
		}
		cb := call.Call.Args[1]
		if cb.Kind != syntax.KindFunctionExpr || cb.Function.Name != "" {
			continue
		}
		units = append(units, Unit{
			FilePath: su.Path,
			Name:     AnonymousTest,
			Node:     cb,
			Function: cb.Function,
		})
	}

	return units
}

func statementUnits(filePath string, fn *syntax.Node) []Unit {
	var units []Unit
	seen := make(map[string]int)
	for _, stmt := range fn.Function.Body.Statements() {
		kind := StatementKind(stmt.Type)
		seen[kind]++
		units = append(units, Unit{
			FilePath: filePath,
			Name:     fmt.Sprintf("%s::%s#%d", fn.Function.Name, kind, seen[kind]),
			Node:     stmt,
		})
	}
	return units
}

// statementKinds renames grammar node types whose names differ from the
// conventional TypeScript statement kind.
var statementKinds = map[string]string{
	"lexical_declaration":  "VariableStatement",
	"variable_declaration": "VariableStatement",
	"statement_block":      "Block",
}

// StatementKind names a statement by kind: return_statement -> ReturnStatement.
func StatementKind(nodeType string) string {
	if k, ok := statementKinds[nodeType]; ok {
		return k
	}
	var b strings.Builder
	for _, part := range strings.Split(nodeType, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
