package js

import sitter "github.com/tree-sitter/go-tree-sitter"

// walk visits n and its descendants depth-first in source order. Returning
// false from visit skips the node's children.
func walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		walk(n.Child(i), visit)
	}
}

// seek returns the first node in depth-first source order matching pred, or
// nil when nothing matches.
func seek(n *sitter.Node, pred func(*sitter.Node) bool) *sitter.Node {
	var found *sitter.Node
	walk(n, func(c *sitter.Node) bool {
		if found != nil {
			return false
		}
		if pred(c) {
			found = c
			return false
		}
		return true
	})
	return found
}
