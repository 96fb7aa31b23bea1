// Package palette holds the static color context handed to style functions
// during extraction, standing in for the live color context of a render.
package palette

import (
	"fmt"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// Palette is the mock color context
type Palette struct {
	Original   string `json:"original,omitempty" yaml:"original,omitempty"`
	Decorative string `json:"decorative,omitempty" yaml:"decorative,omitempty"`
	Readable   string `json:"readable,omitempty" yaml:"readable,omitempty"`
	AA         string `json:"aa,omitempty" yaml:"aa,omitempty"`
	AAA        string `json:"aaa,omitempty" yaml:"aaa,omitempty"`
	Surface    string `json:"surface,omitempty" yaml:"surface,omitempty"`
}

// Default returns black foreground colors on a white surface.
func Default() Palette {
	return Palette{
		Original:   "#000",
		Decorative: "#000",
		Readable:   "#000",
		AA:         "#000",
		AAA:        "#000",
		Surface:    "#fff",
	}
}

// WithDefaults fills empty fields from Default.
func (p Palette) WithDefaults() Palette {
	d := Default()
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&p.Original, d.Original)
	fill(&p.Decorative, d.Decorative)
	fill(&p.Readable, d.Readable)
	fill(&p.AA, d.AA)
	fill(&p.AAA, d.AAA)
	fill(&p.Surface, d.Surface)
	return p
}

// Validate checks that every non-empty field is a CSS color.
func (p Palette) Validate() error {
	for name, value := range p.fields() {
		if value == "" {
			continue
		}
		if _, err := csscolorparser.Parse(value); err != nil {
			return fmt.Errorf("palette %s: invalid color %q: %w", name, value, err)
		}
	}
	return nil
}

// Color returns the fields exposed as the `color` object of the style context.
func (p Palette) Color() map[string]string {
	return map[string]string{
		"original":   p.Original,
		"decorative": p.Decorative,
		"readable":   p.Readable,
		"aa":         p.AA,
		"aaa":        p.AAA,
	}
}

func (p Palette) fields() map[string]string {
	f := p.Color()
	f["surface"] = p.Surface
	return f
}
