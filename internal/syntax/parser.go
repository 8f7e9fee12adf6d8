package syntax

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Parser builds Units from TypeScript and JavaScript sources using tree-sitter.
// Sources with markup (.tsx, .jsx, .js) use the TSX grammar; .ts uses plain TypeScript
// so that angle-bracket type assertions parse.
type Parser struct {
	typescript *sitter.Language
	tsx        *sitter.Language
}

// NewParser creates a parser with both grammars loaded.
func NewParser() *Parser {
	return &Parser{
		typescript: sitter.NewLanguage(typescript.LanguageTypescript()),
		tsx:        sitter.NewLanguage(typescript.LanguageTSX()),
	}
}

// LanguageFor returns the grammar name used for a file path.
func LanguageFor(filePath string) string {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".ts", ".mts", ".cts":
		return LanguageTypeScript
	default:
		return LanguageTSX
	}
}

// ParseFile reads root/relPath and parses it. The unit's Path is relPath in slash form.
func (p *Parser) ParseFile(ctx context.Context, root, relPath string) (*Unit, error) {
	source, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", relPath, err)
	}
	return p.Parse(ctx, relPath, source)
}

// Parse parses source into a Unit.
func (p *Parser) Parse(ctx context.Context, relPath string, source []byte) (*Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lang := LanguageFor(relPath)
	language := p.tsx
	if lang == LanguageTypeScript {
		language = p.typescript
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to load %s grammar: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s file: %s", lang, relPath)
	}
	defer tree.Close()

	unit := &Unit{
		Path:     relPath,
		Language: lang,
		Source:   source,
	}
	b := &builder{
		unit:  unit,
		types: collectTypeDecls(tree.RootNode(), source),
	}
	unit.Root = b.build(tree.RootNode(), nil)
	return unit, nil
}

type builder struct {
	unit  *Unit
	types map[string]*sitter.Node
}

// build converts a tree-sitter node and its named descendants.
func (b *builder) build(ts *sitter.Node, parent *Node) *Node {
	n := &Node{
		Kind:      KindOther,
		Type:      ts.Kind(),
		StartByte: ts.StartByte(),
		EndByte:   ts.EndByte(),
		StartLine: int(ts.StartPosition().Row) + 1,
		EndLine:   int(ts.EndPosition().Row) + 1,
		Parent:    parent,
		unit:      b.unit,
	}

	for i := uint(0); i < ts.NamedChildCount(); i++ {
		child := ts.NamedChild(i)
		if child == nil {
			continue
		}
		n.Children = append(n.Children, b.build(child, n))
	}

	switch n.Type {
	case "program":
		n.Kind = KindProgram

	case "function_declaration", "generator_function_declaration":
		n.Kind = KindFunctionDecl
		n.Function = b.function(ts, n)

	case "arrow_function", "function_expression", "function", "generator_function":
		n.Kind = KindFunctionExpr
		n.Function = b.function(ts, n)

	case "variable_declarator":
		n.Kind = KindVariable
		n.Variable = &Variable{
			Name:  b.text(ts.ChildByFieldName("name")),
			Value: match(n, ts.ChildByFieldName("value")),
		}

	case "export_statement":
		n.Kind = KindExport
		n.Export = &Export{
			Declaration: match(n, ts.ChildByFieldName("declaration")),
			Value:       match(n, ts.ChildByFieldName("value")),
		}
		for i := uint(0); i < ts.ChildCount(); i++ {
			if c := ts.Child(i); c != nil && !c.IsNamed() && c.Kind() == "default" {
				n.Export.Default = true
			}
		}

	case "call_expression":
		n.Kind = KindCall
		call := &Call{Callee: b.text(ts.ChildByFieldName("function"))}
		if args := match(n, ts.ChildByFieldName("arguments")); args != nil {
			if args.Type == "arguments" {
				for _, a := range args.Children {
					if a.Kind != KindComment {
						call.Args = append(call.Args, a)
					}
				}
			} else {
				// tagged template
				call.Args = []*Node{args}
			}
		}
		n.Call = call

	case "jsx_element":
		n.Kind = KindJSXElement

	case "jsx_self_closing_element":
		n.Kind = KindJSXElement
		n.Element = b.element(ts, n)

	case "jsx_opening_element":
		n.Kind = KindJSXOpening
		n.Element = b.element(ts, n)

	case "jsx_attribute":
		n.Kind = KindJSXAttribute
		n.Attribute = b.attribute(n)

	case "jsx_text":
		n.Kind = KindJSXText

	case "jsx_expression":
		if parent != nil && parent.Type == "jsx_element" {
			n.Kind = KindJSXExpression
		}

	case "comment":
		n.Kind = KindComment

	case "interface_declaration", "type_alias_declaration":
		n.Kind = KindTypeDecl

	case "import_statement":
		n.Kind = KindImport
	}

	return n
}

func (b *builder) text(ts *sitter.Node) string {
	if ts == nil {
		return ""
	}
	return string(b.unit.Source[ts.StartByte():ts.EndByte()])
}

func (b *builder) function(ts *sitter.Node, n *Node) *Function {
	fn := &Function{
		Name: b.text(ts.ChildByFieldName("name")),
		Body: match(n, ts.ChildByFieldName("body")),
	}
	if params := ts.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.NamedChildCount(); i++ {
			p := params.NamedChild(i)
			if p == nil || p.Kind() == "comment" {
				continue
			}
			fn.Params = append(fn.Params, b.param(p))
		}
	} else if single := ts.ChildByFieldName("parameter"); single != nil {
		// x => ...
		fn.Params = []Param{{Name: b.text(single)}}
	}
	return fn
}

// param describes one formal parameter. Properties come from the declared type when it
// names an object shape, otherwise from an object destructuring pattern.
func (b *builder) param(ts *sitter.Node) Param {
	pattern := ts
	var typ *sitter.Node
	switch ts.Kind() {
	case "required_parameter", "optional_parameter":
		if pt := ts.ChildByFieldName("pattern"); pt != nil {
			pattern = pt
		}
		if ann := ts.ChildByFieldName("type"); ann != nil && ann.NamedChildCount() > 0 {
			typ = ann.NamedChild(0)
		}
	}
	if pattern.Kind() == "assignment_pattern" {
		if left := pattern.ChildByFieldName("left"); left != nil {
			pattern = left
		}
	}

	p := Param{Name: b.text(pattern)}
	if typ != nil {
		p.Properties = b.typeProperties(typ, map[string]bool{})
	}
	if len(p.Properties) == 0 && pattern.Kind() == "object_pattern" {
		p.Properties = b.patternProperties(pattern)
	}
	return p
}

func (b *builder) typeProperties(ts *sitter.Node, seen map[string]bool) []string {
	switch ts.Kind() {
	case "object_type", "interface_body":
		var props []string
		for i := uint(0); i < ts.NamedChildCount(); i++ {
			member := ts.NamedChild(i)
			if member == nil {
				continue
			}
			switch member.Kind() {
			case "property_signature", "method_signature":
				if name := member.ChildByFieldName("name"); name != nil {
					props = append(props, b.text(name))
				}
			}
		}
		return props
	case "type_identifier":
		name := b.text(ts)
		decl, ok := b.types[name]
		if !ok || seen[name] {
			return nil
		}
		seen[name] = true
		if decl.Kind() == "interface_declaration" {
			if body := decl.ChildByFieldName("body"); body != nil {
				return b.typeProperties(body, seen)
			}
			return nil
		}
		if value := decl.ChildByFieldName("value"); value != nil {
			return b.typeProperties(value, seen)
		}
	case "intersection_type", "parenthesized_type":
		var props []string
		for i := uint(0); i < ts.NamedChildCount(); i++ {
			if c := ts.NamedChild(i); c != nil {
				props = append(props, b.typeProperties(c, seen)...)
			}
		}
		return props
	}
	return nil
}

func (b *builder) patternProperties(ts *sitter.Node) []string {
	var props []string
	for i := uint(0); i < ts.NamedChildCount(); i++ {
		c := ts.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "shorthand_property_identifier_pattern":
			props = append(props, b.text(c))
		case "pair_pattern":
			props = append(props, b.text(c.ChildByFieldName("key")))
		case "object_assignment_pattern":
			props = append(props, b.text(c.ChildByFieldName("left")))
		}
	}
	return props
}

func (b *builder) element(ts *sitter.Node, n *Node) *Element {
	el := &Element{Name: b.text(ts.ChildByFieldName("name"))}
	for _, c := range n.Children {
		if c.Type == "jsx_attribute" {
			el.Attributes = append(el.Attributes, c)
		}
	}
	return el
}

func (b *builder) attribute(n *Node) *Attribute {
	var named []*Node
	for _, c := range n.Children {
		if c.Kind != KindComment {
			named = append(named, c)
		}
	}
	attr := &Attribute{}
	if len(named) == 0 {
		return attr
	}
	attr.Name = named[0].Text()
	if len(named) < 2 {
		return attr
	}

	value := named[1]
	switch value.Type {
	case "string":
		attr.Value = AttributeValue{Kind: ValueLiteral, Text: value.Text()}
	case "jsx_expression":
		inner := firstCode(value)
		switch {
		case inner == nil:
			attr.Value = AttributeValue{Kind: ValueExpression}
		case inner.Type == "identifier":
			attr.Value = AttributeValue{Kind: ValueIdentifier, Text: inner.Text()}
		case inner.Type == "string":
			attr.Value = AttributeValue{Kind: ValueLiteral, Text: inner.Text()}
		default:
			attr.Value = AttributeValue{Kind: ValueExpression, Text: inner.Text()}
		}
	default:
		attr.Value = AttributeValue{Kind: ValueExpression, Text: value.Text()}
	}
	return attr
}

// match finds the converted child corresponding to a tree-sitter field node.
func match(n *Node, ts *sitter.Node) *Node {
	if ts == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.StartByte == ts.StartByte() && c.EndByte == ts.EndByte() && c.Type == ts.Kind() {
			return c
		}
	}
	return nil
}

// collectTypeDecls indexes file-level interfaces and type aliases by name.
func collectTypeDecls(root *sitter.Node, source []byte) map[string]*sitter.Node {
	types := make(map[string]*sitter.Node)
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		for i := uint(0); i < n.NamedChildCount(); i++ {
			c := n.NamedChild(i)
			if c == nil {
				continue
			}
			switch c.Kind() {
			case "interface_declaration", "type_alias_declaration":
				if name := c.ChildByFieldName("name"); name != nil {
					types[string(source[name.StartByte():name.EndByte()])] = c
				}
			case "export_statement":
				visit(c)
			}
		}
	}
	visit(root)
	return types
}
