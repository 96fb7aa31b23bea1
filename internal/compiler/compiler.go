// Package compiler scopes nested CSS under a class selector and flattens it
// into minified rules.
package compiler

import (
	"errors"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Processor scopes cssText under selector. Implementations must be pure.
type Processor interface {
	Scope(selector, cssText string) (string, error)
}

// Options configures a Compiler
type Options struct {
	// Prefix adds vendor-prefixed copies of common flexbox and interaction declarations
	Prefix bool
}

// Compiler is the default Processor
type Compiler struct {
	log  *zap.Logger
	opts Options
}

var _ Processor = (*Compiler)(nil)

// New creates a Compiler. A nil logger discards diagnostics.
func New(log *zap.Logger, opts Options) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{log: log.Named("css-compiler"), opts: opts}
}

// block is one level of the nested stylesheet
type block struct {
	// selectors of a style rule, split at top-level commas
	selectors []string
	// prelude of an at-rule, e.g. "@media (max-width:768px)"
	prelude string
	// at is the lowercase at-keyword without "@", empty for style rules
	at string
	// statement marks a block-less at-rule such as @import
	statement bool
	decls     []string
	children  []*block
}

type token struct {
	tt   css.TokenType
	data string
}

// conditional at-rules wrap the scoped rules they contain
var conditional = map[string]bool{
	"media":          true,
	"supports":       true,
	"container":      true,
	"layer":          true,
	"document":       true,
	"-moz-document":  true,
	"scope":          true,
	"starting-style": true,
}

// Scope flattens cssText under selector. Declarations of a block come before
// its nested rules, conditional at-rules are hoisted around the scoped rules
// they contain and other at-rules pass through unscoped.
func (c *Compiler) Scope(selector, cssText string) (string, error) {
	root, err := c.parse(cssText)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	c.emitRule(&b, root, []string{selector})
	return b.String(), nil
}

func (c *Compiler) parse(cssText string) (*block, error) {
	l := css.NewLexer(parse.NewInputString(cssText))
	root := &block{}
	stack := []*block{root}
	var buf []token
	depth := 0

	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			break
		}
		top := stack[len(stack)-1]

		switch tt {
		case css.LeftParenthesisToken, css.FunctionToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		}

		if depth == 0 {
			switch tt {
			case css.LeftBraceToken:
				child := openBlock(buf)
				top.children = append(top.children, child)
				stack = append(stack, child)
				buf = buf[:0]
				continue
			case css.SemicolonToken:
				c.flush(top, buf)
				buf = buf[:0]
				continue
			case css.RightBraceToken:
				c.flush(top, buf)
				buf = buf[:0]
				if len(stack) > 1 {
					stack = stack[:len(stack)-1]
				}
				continue
			}
		}
		buf = append(buf, token{tt: tt, data: string(data)})
	}
	c.flush(stack[len(stack)-1], buf)
	return root, nil
}

func openBlock(buf []token) *block {
	toks := trim(buf)
	if len(toks) > 0 && toks[0].tt == css.AtKeywordToken {
		return &block{
			prelude: minify(toks),
			at:      strings.ToLower(strings.TrimPrefix(toks[0].data, "@")),
		}
	}
	var selectors []string
	for _, part := range splitTopLevel(toks, css.CommaToken) {
		if sel := minify(part); sel != "" {
			selectors = append(selectors, sel)
		}
	}
	return &block{selectors: selectors}
}

// flush turns the pending tokens into a declaration or a block-less at-rule
func (c *Compiler) flush(b *block, buf []token) {
	toks := trim(buf)
	if len(toks) == 0 {
		return
	}
	if toks[0].tt == css.AtKeywordToken {
		b.children = append(b.children, &block{
			prelude:   minify(toks),
			at:        strings.ToLower(strings.TrimPrefix(toks[0].data, "@")),
			statement: true,
		})
		return
	}
	parts := splitTopLevel(toks, css.ColonToken)
	if len(parts) < 2 {
		c.log.Debug("dropping text without a declaration", zap.String("text", minify(toks)))
		return
	}
	prop := minify(parts[0])
	value := minify(toks[len(parts[0])+1:])
	if prop == "" || value == "" {
		c.log.Debug("dropping empty declaration", zap.String("property", prop))
		return
	}
	b.decls = append(b.decls, prop+":"+value)
}

func (c *Compiler) emitRule(b *strings.Builder, n *block, selectors []string) {
	if len(n.decls) > 0 && len(selectors) > 0 {
		b.WriteString(strings.Join(selectors, ","))
		b.WriteByte('{')
		for _, decl := range n.decls {
			for _, d := range c.expand(decl) {
				b.WriteString(d)
				b.WriteByte(';')
			}
		}
		b.WriteByte('}')
	}

	for _, child := range n.children {
		switch {
		case child.statement:
			b.WriteString(child.prelude)
			b.WriteByte(';')
		case child.at == "":
			c.emitRule(b, child, nest(selectors, child.selectors))
		case conditional[child.at]:
			var inner strings.Builder
			c.emitRule(&inner, child, selectors)
			if inner.Len() > 0 {
				b.WriteString(child.prelude)
				b.WriteByte('{')
				b.WriteString(inner.String())
				b.WriteByte('}')
			}
		default:
			c.emitVerbatim(b, child)
		}
	}
}

// emitVerbatim writes an at-rule such as @keyframes or @font-face without
// scoping its contents
func (c *Compiler) emitVerbatim(b *strings.Builder, n *block) {
	if n.at != "" {
		b.WriteString(n.prelude)
	} else {
		b.WriteString(strings.Join(n.selectors, ","))
	}
	b.WriteByte('{')
	for _, decl := range n.decls {
		b.WriteString(decl)
		b.WriteByte(';')
	}
	for _, child := range n.children {
		if child.statement {
			b.WriteString(child.prelude)
			b.WriteByte(';')
			continue
		}
		c.emitVerbatim(b, child)
	}
	b.WriteByte('}')
}

// nest resolves child selectors against their parents. "&" stands for the
// parent, a leading pseudo-class attaches to it and anything else is a
// descendant.
func nest(parents, children []string) []string {
	out := make([]string, 0, len(parents)*len(children))
	for _, child := range children {
		for _, parent := range parents {
			switch {
			case strings.Contains(child, "&"):
				out = append(out, strings.ReplaceAll(child, "&", parent))
			case strings.HasPrefix(child, ":"):
				out = append(out, parent+child)
			default:
				out = append(out, parent+" "+child)
			}
		}
	}
	return out
}

func trim(toks []token) []token {
	start, end := 0, len(toks)
	for start < end && insignificant(toks[start].tt) {
		start++
	}
	for end > start && insignificant(toks[end-1].tt) {
		end--
	}
	return toks[start:end]
}

func insignificant(tt css.TokenType) bool {
	return tt == css.WhitespaceToken || tt == css.CommentToken
}

// splitTopLevel cuts toks at sep outside parentheses and brackets. Colons
// split only once.
func splitTopLevel(toks []token, sep css.TokenType) [][]token {
	var (
		parts [][]token
		start int
		depth int
	)
	for i, t := range toks {
		switch t.tt {
		case css.LeftParenthesisToken, css.FunctionToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, toks[start:i])
				start = i + 1
				if sep == css.ColonToken {
					return append(parts, toks[start:])
				}
			}
		}
	}
	return append(parts, toks[start:])
}

// minify joins tokens, collapsing whitespace and dropping it where CSS does
// not need it
func minify(toks []token) string {
	var b strings.Builder
	pending := false
	last := ""
	for _, t := range toks {
		if insignificant(t.tt) {
			pending = t.tt == css.WhitespaceToken && b.Len() > 0 || pending
			continue
		}
		if pending && !tightAfter(last) && !tightBefore(t) {
			b.WriteByte(' ')
		}
		pending = false
		b.WriteString(t.data)
		last = t.data
	}
	return b.String()
}

func tightAfter(prev string) bool {
	return prev == "," || prev == ":" || prev == "(" || prev == "[" || strings.HasSuffix(prev, "(")
}

func tightBefore(t token) bool {
	switch t.tt {
	case css.CommaToken, css.RightParenthesisToken, css.RightBracketToken:
		return true
	}
	return false
}
