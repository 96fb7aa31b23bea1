// Package resolver implements module-resolver style alias and root rules for
// bare import specifiers.
package resolver

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Config holds alias and root rules
type Config struct {
	// Root lists directories searched for bare specifiers, in order
	Root []string `json:"root,omitempty" yaml:"root,omitempty"`
	// Alias maps a specifier prefix to its replacement
	Alias map[string]string `json:"alias,omitempty" yaml:"alias,omitempty"`
	// Cwd anchors relative roots and alias targets; empty means the process directory
	Cwd string `json:"cwd,omitempty" yaml:"cwd,omitempty"`
}

// CircularAliasError reports aliases that rewrite into each other
type CircularAliasError struct {
	Cycle []string
}

func (e *CircularAliasError) Error() string {
	return fmt.Sprintf("circular alias: %s", strings.Join(e.Cycle, " -> "))
}

// Resolver answers candidate paths for bare specifiers. It is immutable and
// safe for concurrent use.
type Resolver struct {
	roots []string
	alias map[string]string
	keys  []string
}

// New validates cfg and flattens alias chains so every alias target is final.
// A nil cfg yields a resolver with no rules.
func New(cfg *Config) (*Resolver, error) {
	r := &Resolver{alias: make(map[string]string)}
	if cfg == nil {
		return r, nil
	}

	cwd := cfg.Cwd
	if cwd == "" {
		cwd = "."
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cwd %q: %w", cwd, err)
	}

	for _, root := range cfg.Root {
		r.roots = append(r.roots, anchor(abs, root))
	}

	order, err := buildAliasGraph(cfg.Alias).topologicalSort()
	if err != nil {
		return nil, err
	}
	for _, key := range order {
		target := cfg.Alias[key]
		if dep, ok := matchAlias(r.keys, target); ok && dep != key {
			target = r.alias[dep] + strings.TrimPrefix(target, dep)
		}
		r.alias[key] = target
		r.keys = append(r.keys, key)
	}
	for key, target := range r.alias {
		if isRelative(target) {
			r.alias[key] = anchor(abs, target)
		}
	}
	sort.Strings(r.keys)
	return r, nil
}

// Candidates returns the locations to try for specifier, most specific
// first. Absolute entries are file system paths; anything else is a package
// specifier. Relative and absolute specifiers yield nil.
func (r *Resolver) Candidates(specifier string) []string {
	if r == nil || specifier == "" || isRelative(specifier) || filepath.IsAbs(specifier) {
		return nil
	}
	var out []string
	if key, ok := matchAlias(r.keys, specifier); ok {
		out = append(out, r.alias[key]+strings.TrimPrefix(specifier, key))
	}
	for _, root := range r.roots {
		out = append(out, filepath.Join(root, filepath.FromSlash(specifier)))
	}
	return out
}

// Empty reports whether r has no rules.
func (r *Resolver) Empty() bool {
	return r == nil || (len(r.roots) == 0 && len(r.alias) == 0)
}

func anchor(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, filepath.FromSlash(p))
}

func isRelative(p string) bool {
	return p == "." || p == ".." || strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../")
}
