// Package segment decides, for each expression slot of a style template,
// whether it sits in a declaration value or in structural position.
package segment

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies a template slot
type Kind int

const (
	// Structural slots contribute selectors, at-rule preludes or whole
	// declarations and must be resolved at evaluation time.
	Structural Kind = iota
	// PropertyValue slots sit inside a declaration value and are replaced
	// by a token reference.
	PropertyValue
)

func (k Kind) String() string {
	switch k {
	case PropertyValue:
		return "PropertyValue"
	default:
		return "Structural"
	}
}

// Markers are NUL-delimited so they cannot collide with authored text.
const (
	markerOpen  = "\x00slot"
	markerClose = "\x00"
)

var (
	markerPattern = regexp.MustCompile("\x00slot(\\d+)\x00")
	// A declaration region runs from a colon to the next semicolon or closing
	// brace, or to the end of the template, without crossing another colon or
	// an opening brace. Newlines do not end a region.
	declarationPattern = regexp.MustCompile(`:[^:;{}]*(?:;|\}|$)`)
)

// Marker returns the out-of-band placeholder for slot i.
func Marker(i int) string {
	return markerOpen + strconv.Itoa(i) + markerClose
}

// Assemble joins segments with a marker standing in for each slot.
func Assemble(segments []string) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteString(Marker(i - 1))
		}
		b.WriteString(seg)
	}
	return b.String()
}

// Classify returns one Kind per slot of a template split into segments,
// where slot i sits between segments[i] and segments[i+1].
func Classify(segments []string) []Kind {
	if len(segments) < 2 {
		return nil
	}
	kinds := make([]Kind, len(segments)-1)
	text := Assemble(segments)

	for _, region := range declarationPattern.FindAllStringIndex(text, -1) {
		for _, m := range markerPattern.FindAllStringSubmatch(text[region[0]:region[1]], -1) {
			i, err := strconv.Atoi(m[1])
			if err != nil || i >= len(kinds) {
				continue
			}
			kinds[i] = PropertyValue
		}
	}
	return kinds
}
