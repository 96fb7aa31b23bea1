// Package css inspects compiled stylesheets with tree-sitter.
package css

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
)

// ErrSyntax reports a stylesheet tree-sitter could not parse cleanly
var ErrSyntax = errors.New("css syntax error")

// Parser inventories rules, custom properties and var() references
type Parser struct {
	parser *sitter.Parser
}

var cssLang = sitter.NewLanguage(tree_sitter_css.Language())

var parserPool = sync.Pool{
	New: func() any {
		parser := sitter.NewParser()
		if err := parser.SetLanguage(cssLang); err != nil {
			panic(fmt.Sprintf("failed to set CSS language: %v", err))
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

// Close releases the underlying tree-sitter parser
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// ClosePool closes the parsers currently idle in the pool
func ClosePool() {
	for range 100 {
		if p, ok := parserPool.Get().(*Parser); ok && p != nil {
			p.Close()
		}
	}
}

// Parse inventories source. A sheet with syntax errors is still returned,
// alongside an error wrapping ErrSyntax.
func (p *Parser) Parse(source string) (*Sheet, error) {
	src := []byte(source)
	tree := p.parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse CSS")
	}
	defer tree.Close()

	root := tree.RootNode()
	sheet := &Sheet{}
	walk(root, src, sheet)

	if root.HasError() {
		if n := firstError(root); n != nil {
			pos := n.StartPosition()
			return sheet, fmt.Errorf("%w at %d:%d", ErrSyntax, pos.Row+1, pos.Column+1)
		}
		return sheet, ErrSyntax
	}
	return sheet, nil
}

func walk(n *sitter.Node, src []byte, sheet *Sheet) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "rule_set":
		if sel := childOfKind(n, "selectors"); sel != nil {
			sheet.Rules = append(sheet.Rules, Rule{
				Selectors: sel.Utf8Text(src),
				Position:  position(n),
			})
		}
	case "declaration":
		declaration(n, src, sheet)
	case "call_expression":
		reference(n, src, sheet)
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		walk(n.Child(i), src, sheet)
	}
}

func declaration(n *sitter.Node, src []byte, sheet *Sheet) {
	prop := childOfKind(n, "property_name")
	if prop == nil {
		return
	}
	name := prop.Utf8Text(src)
	if !strings.HasPrefix(name, "--") {
		return
	}
	// value is everything after the colon, up to an optional semicolon
	var value string
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c.Kind() == ":" {
			value = string(src[c.EndByte():n.EndByte()])
			break
		}
	}
	sheet.Declarations = append(sheet.Declarations, Declaration{
		Name:     name,
		Value:    strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), ";")),
		Position: position(n),
	})
}

func reference(n *sitter.Node, src []byte, sheet *Sheet) {
	fn := childOfKind(n, "function_name")
	args := childOfKind(n, "arguments")
	if fn == nil || args == nil || fn.Utf8Text(src) != "var" {
		return
	}

	var ref Reference
	count := 0
	for i := uint(0); i < args.ChildCount(); i++ {
		c := args.Child(i)
		switch c.Kind() {
		case "(", ")", ",":
			continue
		}
		text := strings.TrimSpace(c.Utf8Text(src))
		switch count {
		case 0:
			ref.Name = text
		case 1:
			ref.Fallback = &text
		}
		count++
	}
	if ref.Name == "" {
		return
	}
	ref.Position = position(n)
	sheet.References = append(sheet.References, ref)
}

func childOfKind(n *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c.Kind() == kind {
			return c
		}
	}
	return nil
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c != nil && c.HasError() {
			if e := firstError(c); e != nil {
				return e
			}
		}
	}
	return nil
}

func position(n *sitter.Node) Position {
	p := n.StartPosition()
	return Position{Line: p.Row, Column: p.Column}
}
