package tokens_test

import (
	"testing"

	"github.com/ricokahler/flair/internal/tokens"
	"github.com/stretchr/testify/assert"
)

func TestTokenForms(t *testing.T) {
	tests := []struct {
		name     string
		token    tokens.Token
		wantName string
		wantRef  string
		wantProp string
	}{
		{
			name:     "single definition omits index",
			token:    tokens.Token{FileHash: "Card-218700d", Definitions: 1, Key: "root", Occurrence: 0},
			wantName: "Card-218700d-root-0",
			wantProp: "--Card-218700d-root-0",
			wantRef:  "var(--Card-218700d-root-0)",
		},
		{
			name:     "first of several definitions carries index",
			token:    tokens.Token{FileHash: "Card-218700d", Definitions: 2, Key: "root", Occurrence: 0},
			wantName: "Card-218700d-0-root-0",
			wantProp: "--Card-218700d-0-root-0",
			wantRef:  "var(--Card-218700d-0-root-0)",
		},
		{
			name:     "later definitions carry index",
			token:    tokens.Token{FileHash: "Card-218700d", Definition: 2, Definitions: 3, Key: "title", Occurrence: 3},
			wantName: "Card-218700d-2-title-3",
			wantProp: "--Card-218700d-2-title-3",
			wantRef:  "var(--Card-218700d-2-title-3)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantName, tt.token.Name())
			assert.Equal(t, tt.wantName, tt.token.String())
			assert.Equal(t, tt.wantProp, tt.token.CustomProperty())
			assert.Equal(t, tt.wantRef, tt.token.Reference())
		})
	}
}

func TestClassNamePrefix(t *testing.T) {
	assert.Equal(t, "Card-218700d", tokens.ClassNamePrefix("Card-218700d", 0, 1))
	assert.Equal(t, "Card-218700d", tokens.ClassNamePrefix("Card-218700d", 0, 0))
	assert.Equal(t, "Card-218700d-0", tokens.ClassNamePrefix("Card-218700d", 0, 2))
	assert.Equal(t, "Card-218700d-1", tokens.ClassNamePrefix("Card-218700d", 1, 2))
}

func TestTokensUniqueAcrossDefinitions(t *testing.T) {
	// key "1-root" in the first definition and "root" in the second
	first := tokens.NewAllocator("K-be15b29d", 0, 2).Next("1-root")
	second := tokens.NewAllocator("K-be15b29d", 1, 2).Next("root")

	assert.NotEqual(t, first.Name(), second.Name())
	assert.NotEqual(t,
		tokens.ClassNamePrefix("K-be15b29d", 0, 2)+"-1-root",
		tokens.ClassNamePrefix("K-be15b29d", 1, 2)+"-root")
}

func TestAllocatorCountsPerKey(t *testing.T) {
	a := tokens.NewAllocator("Card-218700d", 0, 1)

	names := []string{
		a.Next("root").Name(),
		a.Next("root").Name(),
		a.Next("title").Name(),
		a.Next("root").Name(),
	}

	assert.Equal(t, []string{
		"Card-218700d-root-0",
		"Card-218700d-root-1",
		"Card-218700d-title-0",
		"Card-218700d-root-2",
	}, names)
}

func TestAllocatorIsDeterministic(t *testing.T) {
	run := func() []string {
		a := tokens.NewAllocator("B-5e800052", 1, 2)
		var out []string
		for _, key := range []string{"a", "b", "a", "c", "b"} {
			out = append(out, a.Next(key).Name())
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestAllocatorsAreIndependent(t *testing.T) {
	first := tokens.NewAllocator("X-1", 0, 1)
	first.Next("root")

	second := tokens.NewAllocator("X-1", 0, 1)
	assert.Equal(t, 0, second.Next("root").Occurrence)
}
