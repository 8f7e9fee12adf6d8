package syntax

import "strings"

// Language names accepted by the parser.
const (
	LanguageTypeScript = "typescript"
	LanguageTSX        = "tsx"
)

// Unit is one parsed source file.
type Unit struct {
	// Path is slash-separated and relative to the project root.
	Path     string
	Language string
	Source   []byte
	Root     *Node
}

// TopLevelFunctions returns named function declarations at file level, exported or not.
func (u *Unit) TopLevelFunctions() []*Node {
	var out []*Node
	for _, c := range u.Root.Children {
		if d := declared(c); d != nil && d.Kind == KindFunctionDecl {
			out = append(out, d)
		}
	}
	return out
}

// TopLevelVariables returns every file-level variable declarator, exported or not.
func (u *Unit) TopLevelVariables() []*Node {
	var out []*Node
	for _, c := range u.Root.Children {
		d := declared(c)
		if d == nil || (d.Type != "lexical_declaration" && d.Type != "variable_declaration") {
			continue
		}
		for _, v := range d.Children {
			if v.Kind == KindVariable {
				out = append(out, v)
			}
		}
	}
	return out
}

// DefaultExport returns the expression of `export default <expr>`, or nil.
func (u *Unit) DefaultExport() *Node {
	for _, c := range u.Root.Children {
		if c.Kind == KindExport && c.Export.Default && c.Export.Value != nil {
			return c.Export.Value
		}
	}
	return nil
}

// TypeOnly reports whether the file declares types and nothing else.
func (u *Unit) TypeOnly() bool {
	if strings.HasSuffix(u.Path, ".d.ts") {
		return true
	}
	types := 0
	for _, c := range u.Root.Children {
		switch {
		case c.Kind == KindComment || c.Kind == KindImport:
		case c.Kind == KindTypeDecl || c.Type == "ambient_declaration":
			types++
		case c.Kind == KindExport:
			d := c.Export.Declaration
			switch {
			case d != nil && (d.Kind == KindTypeDecl || d.Type == "ambient_declaration"):
				types++
			case d == nil && c.Export.Value == nil:
				// re-export clause
			default:
				return false
			}
		case c.Type == "empty_statement":
		default:
			return false
		}
	}
	return types > 0
}

// declared unwraps an export statement to its declaration.
func declared(n *Node) *Node {
	if n.Kind == KindExport {
		return n.Export.Declaration
	}
	return n
}
