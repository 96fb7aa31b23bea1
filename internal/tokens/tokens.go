// Package tokens allocates the deterministic placeholder identifiers that
// stand in for property-value slots.
package tokens

import (
	"fmt"
	"strconv"
)

// Token identifies one property-value slot of a style definition
type Token struct {
	// FileHash is the filename hash of the defining module
	FileHash string
	// Definition is the zero-based index of the style definition in its module
	Definition int
	// Definitions is the number of style definitions in the module
	Definitions int
	// Key is the style key whose template contains the slot
	Key string
	// Occurrence counts property-value slots within Key, starting at 0
	Occurrence int
}

// Name returns the token's textual form. The definition index is omitted
// only when the module has a single definition.
func (t Token) Name() string {
	return ClassNamePrefix(t.FileHash, t.Definition, t.Definitions) + "-" + t.Key + "-" + strconv.Itoa(t.Occurrence)
}

// CustomProperty returns the CSS custom property name, e.g. "--Card-218700d-root-0".
func (t Token) CustomProperty() string {
	return "--" + t.Name()
}

// Reference returns the render-time reference form, e.g. "var(--Card-218700d-root-0)".
func (t Token) Reference() string {
	return "var(" + t.CustomProperty() + ")"
}

func (t Token) String() string {
	return t.Name()
}

// ClassNamePrefix returns the prefix shared by the class names and tokens of
// definition number definition out of count in one module. Every definition
// of a module with several carries its index, so keys cannot collide across
// definitions.
func ClassNamePrefix(fileHash string, definition, count int) string {
	if count <= 1 {
		return fileHash
	}
	return fmt.Sprintf("%s-%d", fileHash, definition)
}

// Allocator hands out tokens for one style definition. Counters are per key
// and live only as long as the allocator.
type Allocator struct {
	fileHash    string
	definition  int
	definitions int
	counts      map[string]int
}

// NewAllocator creates an allocator for definition number definition of the
// count definitions in the module identified by fileHash.
func NewAllocator(fileHash string, definition, count int) *Allocator {
	return &Allocator{
		fileHash:    fileHash,
		definition:  definition,
		definitions: count,
		counts:      make(map[string]int),
	}
}

// Next returns the next token for key.
func (a *Allocator) Next(key string) Token {
	n := a.counts[key]
	a.counts[key] = n + 1
	return Token{
		FileHash:    a.fileHash,
		Definition:  a.definition,
		Definitions: a.definitions,
		Key:         key,
		Occurrence:  n,
	}
}
