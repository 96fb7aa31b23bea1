// Package filehash derives the stable per-file identifier used to namespace
// class names and custom properties.
package filehash

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf16"
)

var nonWord = regexp.MustCompile(`\W`)

// Create returns "{name}-{hash}" for a module path, where name is the
// basename without its extension and with non-word characters removed, and
// hash is the lowercase hex form of Sum(path).
func Create(path string) string {
	base := path
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		base = path[i+1:]
	}
	name := nonWord.ReplaceAllString(strings.TrimSuffix(base, filepath.Ext(base)), "")
	return fmt.Sprintf("%s-%x", name, Sum(path))
}

// Sum hashes the full path with the 31-multiplier string hash over UTF-16
// code units, wrapping at 32 bits.
func Sum(path string) uint32 {
	var h uint32
	for _, unit := range utf16.Encode([]rune(path)) {
		h = h*31 + uint32(unit)
	}
	return h
}
