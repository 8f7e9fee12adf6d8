package syntax

import "strings"

// Kind discriminates the structural variants the correlation passes inspect.
// Every node carries exactly one Kind; the payload pointer matching that Kind is set.
type Kind uint8

const (
	// KindOther is any node with no typed payload (statements, literals, identifiers...).
	KindOther Kind = iota
	// KindProgram is the root of a unit.
	KindProgram
	// KindFunctionDecl is a named function declaration. Payload: Function.
	KindFunctionDecl
	// KindFunctionExpr is an anonymous function value (arrow or function expression). Payload: Function.
	KindFunctionExpr
	// KindVariable is a single variable declarator. Payload: Variable.
	KindVariable
	// KindExport is an export statement. Payload: Export.
	KindExport
	// KindCall is a call expression. Payload: Call.
	KindCall
	// KindJSXElement is a markup element, paired or self-closing. Self-closing elements also carry Element.
	KindJSXElement
	// KindJSXOpening is the opening tag of a paired markup element. Payload: Element.
	KindJSXOpening
	// KindJSXAttribute is an attribute of a markup element. Payload: Attribute.
	KindJSXAttribute
	// KindJSXText is literal text rendered between markup tags.
	KindJSXText
	// KindJSXExpression is an expression rendered between markup tags ({label}).
	KindJSXExpression
	// KindComment is a line or block comment.
	KindComment
	// KindTypeDecl is an interface or type alias declaration.
	KindTypeDecl
	// KindImport is an import statement.
	KindImport
)

var kindNames = [...]string{
	KindOther:         "other",
	KindProgram:       "program",
	KindFunctionDecl:  "function_decl",
	KindFunctionExpr:  "function_expr",
	KindVariable:      "variable",
	KindExport:        "export",
	KindCall:          "call",
	KindJSXElement:    "jsx_element",
	KindJSXOpening:    "jsx_opening",
	KindJSXAttribute:  "jsx_attribute",
	KindJSXText:       "jsx_text",
	KindJSXExpression: "jsx_expression",
	KindComment:       "comment",
	KindTypeDecl:      "type_decl",
	KindImport:        "import",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node is one structural node of a parsed unit. Only named grammar nodes are kept.
type Node struct {
	Kind Kind
	// Type is the raw grammar node type, e.g. "return_statement".
	Type      string
	StartByte uint
	EndByte   uint
	StartLine int // 1-indexed
	EndLine   int // 1-indexed

	Parent   *Node
	Children []*Node

	Function  *Function
	Variable  *Variable
	Export    *Export
	Call      *Call
	Element   *Element
	Attribute *Attribute

	unit *Unit
}

// Function describes a function declaration or function value.
type Function struct {
	// Name is empty for anonymous functions.
	Name   string
	Params []Param
	Body   *Node
}

// Param is one declared parameter.
type Param struct {
	// Name is the verbatim binding text (identifier or destructuring pattern).
	Name string
	// Properties are the named properties of the parameter's declared shape, in declaration order.
	Properties []string
}

// Variable describes a variable declarator.
type Variable struct {
	Name  string
	Value *Node
}

// Export describes an export statement.
type Export struct {
	Default     bool
	Declaration *Node
	// Value is the exported expression of `export default <expr>`.
	Value *Node
}

// Call describes a call expression.
type Call struct {
	// Callee is the verbatim text of the called expression.
	Callee string
	Args   []*Node
}

// Element describes the tag of a markup element.
type Element struct {
	Name       string
	Attributes []*Node
}

// ValueKind classifies an attribute initializer.
type ValueKind uint8

const (
	// ValueNone means the attribute has no initializer (<input disabled />).
	ValueNone ValueKind = iota
	// ValueLiteral is a string literal; Text keeps the quotes.
	ValueLiteral
	// ValueIdentifier is a bare identifier reference inside braces.
	ValueIdentifier
	// ValueExpression is any other braced expression.
	ValueExpression
)

// AttributeValue is the classified initializer of an attribute.
type AttributeValue struct {
	Kind ValueKind
	Text string
}

// Attribute describes a markup attribute.
type Attribute struct {
	Name  string
	Value AttributeValue
}

// Unit returns the unit that owns the node.
func (n *Node) Unit() *Unit {
	return n.unit
}

// Text returns the verbatim source text of the node.
func (n *Node) Text() string {
	if n == nil || n.unit == nil {
		return ""
	}
	return string(n.unit.Source[n.StartByte:n.EndByte])
}

// Walk visits n and its descendants depth-first in source order.
// Returning false from visit skips the node's children.
func (n *Node) Walk(visit func(*Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// Descendants returns every descendant (not n itself) whose kind is in kinds, in source order.
func (n *Node) Descendants(kinds ...Kind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		c.Walk(func(d *Node) bool {
			for _, k := range kinds {
				if d.Kind == k {
					out = append(out, d)
					break
				}
			}
			return true
		})
	}
	return out
}

// HasDescendant reports whether any descendant has one of the given kinds.
func (n *Node) HasDescendant(kinds ...Kind) bool {
	found := false
	for _, c := range n.Children {
		c.Walk(func(d *Node) bool {
			if found {
				return false
			}
			for _, k := range kinds {
				if d.Kind == k {
					found = true
					return false
				}
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

// EnclosingElement returns the opening tag (or self-closing element) that owns an attribute.
func (n *Node) EnclosingElement() *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Element != nil {
			return p
		}
	}
	return nil
}

// Outer returns the statement that wraps a declaration: the export statement around an
// exported function or default-exported value, or the declaration list around its first declarator.
func (n *Node) Outer() *Node {
	cur := n
	for cur.Parent != nil {
		p := cur.Parent
		switch {
		case p.Kind == KindExport && (p.Export.Declaration == cur || p.Export.Value == cur):
			cur = p
		case (p.Type == "lexical_declaration" || p.Type == "variable_declaration") && firstCode(p) == cur:
			cur = p
		default:
			return cur
		}
	}
	return cur
}

// LeadingComments returns the comments immediately preceding the node's outer statement.
func (n *Node) LeadingComments() []string {
	target := n.Outer()
	p := target.Parent
	if p == nil {
		return nil
	}
	idx := -1
	for i, c := range p.Children {
		if c == target {
			idx = i
			break
		}
	}
	var comments []string
	for i := idx - 1; i >= 0; i-- {
		c := p.Children[i]
		if c.Kind != KindComment {
			break
		}
		// a comment trailing the previous statement on its line belongs to that statement
		if i > 0 && p.Children[i-1].EndLine == c.StartLine {
			break
		}
		comments = append(comments, strings.TrimSpace(c.Text()))
	}
	// collected backwards
	for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
		comments[i], comments[j] = comments[j], comments[i]
	}
	return comments
}

// Statements returns the non-comment children of a statement block.
func (n *Node) Statements() []*Node {
	if n == nil || n.Type != "statement_block" {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Kind != KindComment {
			out = append(out, c)
		}
	}
	return out
}

func firstCode(n *Node) *Node {
	for _, c := range n.Children {
		if c.Kind != KindComment {
			return c
		}
	}
	return nil
}
