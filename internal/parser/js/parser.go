package js

import (
	"fmt"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// Parser finds style definitions in JS/JSX sources
type Parser struct {
	parser *sitter.Parser
}

// Construct names the imported binding whose calls declare styles
type Construct struct {
	// Source is the module specifier the construct is imported from
	Source string
	// Name is the exported name of the construct
	Name string
}

// TemplateTag is the identifier that marks a style template literal
const TemplateTag = "css"

var jsLang = sitter.NewLanguage(tree_sitter_javascript.Language())

// parserPool is a pool of reusable JS parsers
var parserPool = sync.Pool{
	New: func() any {
		parser := sitter.NewParser()
		if err := parser.SetLanguage(jsLang); err != nil {
			panic(fmt.Sprintf("failed to set JS language: %v", err))
		}
		return &Parser{parser: parser}
	},
}

// AcquireParser gets a parser from the pool
func AcquireParser() *Parser {
	p := parserPool.Get().(*Parser)
	p.parser.Reset()
	return p
}

// ReleaseParser returns a parser to the pool
func ReleaseParser(p *Parser) {
	if p != nil {
		parserPool.Put(p)
	}
}

// Close closes the parser and releases its resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// ClosePool closes all parsers in the pool
func ClosePool() {
	for range 100 {
		if p, ok := parserPool.Get().(*Parser); ok && p != nil {
			p.Close()
		}
	}
}

// ParseModule parses source and collects its imports, the local binding of
// the construct, and every call of that binding with a function argument.
func (p *Parser) ParseModule(source string, construct Construct) (*Module, error) {
	src := []byte(source)
	tree := p.parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse module")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if bad := seek(root, func(n *sitter.Node) bool { return n.IsError() || n.IsMissing() }); bad != nil {
			pos := bad.StartPosition()
			return nil, fmt.Errorf("syntax error at %d:%d", pos.Row+1, pos.Column+1)
		}
	}

	mod := &Module{}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if imp, ok := parseImport(stmt, src); ok {
			mod.Imports = append(mod.Imports, imp)
		}
	}

	for i := range mod.Imports {
		imp := &mod.Imports[i]
		if imp.Export || imp.Source != construct.Source {
			continue
		}
		for _, spec := range imp.Specifiers {
			if spec.Imported == construct.Name {
				mod.Construct = imp
				mod.ConstructLocal = spec.Local
				break
			}
		}
		if mod.Construct != nil {
			break
		}
	}
	if mod.Construct == nil {
		return mod, nil
	}

	walk(root, func(n *sitter.Node) bool {
		if def, ok := parseDefinition(n, src, mod.ConstructLocal); ok {
			def.Index = len(mod.Definitions)
			mod.Definitions = append(mod.Definitions, def)
		}
		return true
	})

	return mod, nil
}

func parseImport(stmt *sitter.Node, src []byte) (Import, bool) {
	var imp Import
	switch stmt.Kind() {
	case "import_statement":
	case "export_statement":
		imp.Export = true
	default:
		return imp, false
	}

	source := stmt.ChildByFieldName("source")
	if source == nil {
		return imp, false
	}
	imp.Source = stringContent(source, src)
	imp.SourceSpan = spanOf(source)
	imp.Statement = spanOf(stmt)

	if imp.Export {
		return imp, true
	}

	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		clause := stmt.NamedChild(i)
		if clause.Kind() != "import_clause" {
			continue
		}
		for j := uint(0); j < clause.NamedChildCount(); j++ {
			part := clause.NamedChild(j)
			switch part.Kind() {
			case "identifier":
				imp.Default = text(part, src)
			case "namespace_import":
				imp.Namespace = text(part, src)
			case "named_imports":
				imp.Specifiers = parseSpecifiers(part, src)
			}
		}
	}
	return imp, true
}

func parseSpecifiers(named *sitter.Node, src []byte) []Specifier {
	var specs []Specifier
	for i := uint(0); i < named.NamedChildCount(); i++ {
		n := named.NamedChild(i)
		if n.Kind() != "import_specifier" {
			continue
		}
		name := n.ChildByFieldName("name")
		if name == nil {
			continue
		}
		spec := Specifier{Imported: identOrString(name, src), Text: text(n, src)}
		spec.Local = spec.Imported
		if alias := n.ChildByFieldName("alias"); alias != nil {
			spec.Local = text(alias, src)
		}
		specs = append(specs, spec)
	}
	return specs
}

func parseDefinition(call *sitter.Node, src []byte, local string) (Definition, bool) {
	var def Definition
	if call.Kind() != "call_expression" {
		return def, false
	}
	callee := call.ChildByFieldName("function")
	if callee == nil || callee.Kind() != "identifier" || text(callee, src) != local {
		return def, false
	}
	args := call.ChildByFieldName("arguments")
	if args == nil || args.Kind() != "arguments" || args.NamedChildCount() == 0 {
		return def, false
	}
	fn := args.NamedChild(0)
	if !isFunction(fn) {
		return def, false
	}

	def.Call = spanOf(call)
	def.ArgumentsStart = args.StartByte() + 1

	styles := styleObject(fn)
	if styles == nil {
		return def, true
	}
	for i := uint(0); i < styles.NamedChildCount(); i++ {
		if tpl, ok := parseProperty(styles.NamedChild(i), src); ok {
			def.Templates = append(def.Templates, tpl)
		}
	}
	return def, true
}

// styleObject returns the object literal a style function evaluates to: the
// arrow body itself, or else the first returned object literal.
func styleObject(fn *sitter.Node) *sitter.Node {
	body := fn.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	if obj := unwrapParens(body); obj.Kind() == "object" {
		return obj
	}
	ret := seek(body, func(n *sitter.Node) bool {
		if n.Kind() != "return_statement" || n.NamedChildCount() == 0 {
			return false
		}
		return unwrapParens(n.NamedChild(0)).Kind() == "object"
	})
	if ret == nil {
		return nil
	}
	return unwrapParens(ret.NamedChild(0))
}

func parseProperty(pair *sitter.Node, src []byte) (Template, bool) {
	var tpl Template
	if pair.Kind() != "pair" {
		return tpl, false
	}
	key := pair.ChildByFieldName("key")
	value := pair.ChildByFieldName("value")
	if key == nil || value == nil || value.Kind() != "call_expression" {
		return tpl, false
	}
	switch key.Kind() {
	case "property_identifier", "identifier", "string", "number":
	default:
		return tpl, false
	}
	tag := value.ChildByFieldName("function")
	quasi := value.ChildByFieldName("arguments")
	if tag == nil || quasi == nil || tag.Kind() != "identifier" || text(tag, src) != TemplateTag {
		return tpl, false
	}
	if quasi.Kind() != "template_string" {
		return tpl, false
	}

	tpl.Key = identOrString(key, src)
	tpl.Span = spanOf(quasi)
	tpl.Segments, tpl.Slots = splitTemplate(quasi, src)
	return tpl, true
}

// splitTemplate cuts a template_string at its substitutions. Segments are raw
// source text, so escape sequences stay as written.
func splitTemplate(quasi *sitter.Node, src []byte) ([]string, []Slot) {
	var (
		segments []string
		slots    []Slot
	)
	cursor := quasi.StartByte() + 1
	for i := uint(0); i < quasi.NamedChildCount(); i++ {
		sub := quasi.NamedChild(i)
		if sub.Kind() != "template_substitution" {
			continue
		}
		segments = append(segments, string(src[cursor:sub.StartByte()]))
		slots = append(slots, Slot{
			Expression: strings.TrimSpace(string(src[sub.StartByte()+2 : sub.EndByte()-1])),
			Span:       spanOf(sub),
		})
		cursor = sub.EndByte()
	}
	segments = append(segments, string(src[cursor:quasi.EndByte()-1]))
	return segments, slots
}

func isFunction(n *sitter.Node) bool {
	switch n.Kind() {
	case "arrow_function", "function_expression", "function":
		return true
	}
	return false
}

func unwrapParens(n *sitter.Node) *sitter.Node {
	for n.Kind() == "parenthesized_expression" && n.NamedChildCount() > 0 {
		n = n.NamedChild(0)
	}
	return n
}

func identOrString(n *sitter.Node, src []byte) string {
	if n.Kind() == "string" {
		return stringContent(n, src)
	}
	return text(n, src)
}

func stringContent(n *sitter.Node, src []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if end-start < 2 {
		return ""
	}
	return string(src[start+1 : end-1])
}

func text(n *sitter.Node, src []byte) string {
	return string(src[n.StartByte():n.EndByte()])
}

func spanOf(n *sitter.Node) Span {
	return Span{Start: n.StartByte(), End: n.EndByte()}
}
