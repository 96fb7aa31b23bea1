package theme

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	asimonimParser "bennypowers.dev/asimonim/parser"
	"github.com/tidwall/jsonc"
)

var referencePattern = regexp.MustCompile(`\{([^{}]+)\}`)

// isTokensFile reports whether path names a design tokens (DTCG) document
func isTokensFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".tokens.json") || strings.HasSuffix(lower, ".tokens.jsonc")
}

// decodeTokens parses a DTCG tokens document and renders the token tree as
// plain JSON, with each token reduced to its value and {group.token}
// references replaced by the referenced value. Group keys become nested
// properties, so {"color":{"brand":{"$value":"#00f"}}} reads as
// theme.color.brand.
func decodeTokens(data []byte) ([]byte, error) {
	parser := asimonimParser.NewJSONParser()
	parsed, err := parser.Parse(jsonc.ToJSON(data), asimonimParser.Options{})
	if err != nil {
		return nil, fmt.Errorf("invalid design tokens: %w", err)
	}

	raw := make(map[string]string, len(parsed))
	paths := make([][]string, 0, len(parsed))
	for _, tok := range parsed {
		path := tok.Path
		if len(path) == 0 {
			path = strings.Split(tok.Name, ".")
		}
		raw[strings.Join(path, ".")] = tok.Value
		paths = append(paths, path)
	}

	r := &tokenResolver{raw: raw, resolved: make(map[string]string), active: make(map[string]bool)}
	tree := make(map[string]any)
	for _, path := range paths {
		value, err := r.resolve(strings.Join(path, "."))
		if err != nil {
			return nil, err
		}
		insert(tree, path, value)
	}
	return json.Marshal(tree)
}

type tokenResolver struct {
	raw      map[string]string
	resolved map[string]string
	active   map[string]bool
}

func (r *tokenResolver) resolve(name string) (string, error) {
	if value, ok := r.resolved[name]; ok {
		return value, nil
	}
	value, ok := r.raw[name]
	if !ok {
		return "", fmt.Errorf("unknown token reference {%s}", name)
	}
	if r.active[name] {
		return "", fmt.Errorf("circular token reference {%s}", name)
	}
	r.active[name] = true
	defer delete(r.active, name)

	var resolveErr error
	value = referencePattern.ReplaceAllStringFunc(value, func(ref string) string {
		if resolveErr != nil {
			return ref
		}
		target, err := r.resolve(strings.TrimSpace(ref[1 : len(ref)-1]))
		if err != nil {
			resolveErr = err
			return ref
		}
		return target
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	r.resolved[name] = value
	return value, nil
}

func insert(tree map[string]any, path []string, value string) {
	node := tree
	for _, key := range path[:len(path)-1] {
		child, ok := node[key].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[key] = child
		}
		node = child
	}
	node[path[len(path)-1]] = value
}
