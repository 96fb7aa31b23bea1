package segment_test

import (
	"testing"

	"github.com/ricokahler/flair/internal/segment"
	"github.com/stretchr/testify/assert"
)

const (
	S = segment.Structural
	P = segment.PropertyValue
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		want     []segment.Kind
	}{
		{
			name:     "no slots",
			segments: []string{"color: red;"},
			want:     nil,
		},
		{
			name:     "empty template",
			segments: []string{""},
			want:     nil,
		},
		{
			name:     "single value",
			segments: []string{"color: ", ";"},
			want:     []segment.Kind{P},
		},
		{
			name: "structural mixin, values and a selector",
			segments: []string{
				"\n  ", ";\n  color: ", ";\n  border-bottom: 1px solid ", ";\n  ", " {\n    ", ";\n  }\n",
			},
			want: []segment.Kind{S, P, P, S, S},
		},
		{
			name:     "two values in one declaration",
			segments: []string{"border-bottom: ", " solid ", ";"},
			want:     []segment.Kind{P, P},
		},
		{
			name:     "value spanning lines",
			segments: []string{"box-shadow:\n    0 0 0 ", ",\n    0 1px 2px ", ";\n"},
			want:     []segment.Kind{P, P},
		},
		{
			name:     "important",
			segments: []string{"color: ", " !important;"},
			want:     []segment.Kind{P},
		},
		{
			name:     "value closed by brace",
			segments: []string{"&:hover { color: ", " }"},
			want:     []segment.Kind{P},
		},
		{
			name:     "value at end of template",
			segments: []string{"color: ", ""},
			want:     []segment.Kind{P},
		},
		{
			name:     "media query prelude",
			segments: []string{"@media (max-width: ", ") {\n  color: ", ";\n}"},
			want:     []segment.Kind{S, P},
		},
		{
			name:     "pseudo selector argument",
			segments: []string{"&:not(", ") { margin: 0; }"},
			want:     []segment.Kind{S},
		},
		{
			name:     "selector before colon",
			segments: []string{"", ":hover { opacity: ", "; }"},
			want:     []segment.Kind{S, P},
		},
		{
			name:     "only structural",
			segments: []string{"", " { display: none; }"},
			want:     []segment.Kind{S},
		},
		{
			name:     "prefix text in value",
			segments: []string{"margin-bottom: -", ";"},
			want:     []segment.Kind{P},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segment.Classify(tt.segments)
			assert.Equal(t, tt.want, got)
			if len(tt.segments) > 1 {
				assert.Len(t, got, len(tt.segments)-1)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	segments := []string{"color: ", "; ", " { top: ", "; }"}
	first := segment.Classify(segments)
	for range 5 {
		assert.Equal(t, first, segment.Classify(segments))
	}
}

func TestAssemble(t *testing.T) {
	got := segment.Assemble([]string{"a: ", "; ", ""})
	assert.Equal(t, "a: "+segment.Marker(0)+"; "+segment.Marker(1), got)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "PropertyValue", P.String())
	assert.Equal(t, "Structural", S.String())
}
