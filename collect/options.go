package collect

import (
	"github.com/ricokahler/flair/internal/compiler"
	"github.com/ricokahler/flair/internal/palette"
	"github.com/ricokahler/flair/internal/resolver"
	"github.com/ricokahler/flair/internal/rewrite"
	"github.com/ricokahler/flair/internal/sandbox"
	"go.uber.org/zap"
)

// Options configures style extraction
type Options struct {
	// ThemePath locates the module that supplies the mock theme. Required.
	ThemePath string `json:"themePath" yaml:"themePath"`

	// ModuleResolver maps bare specifiers while bundling the module and theme
	ModuleResolver *resolver.Config `json:"moduleResolver,omitempty" yaml:"moduleResolver,omitempty"`

	// IgnoreImportPattern drops matching imports before evaluation
	IgnoreImportPattern string `json:"ignoreImportPattern,omitempty" yaml:"ignoreImportPattern,omitempty"`

	// ImportSource and ImportedName identify the style construct
	ImportSource string `json:"importSource,omitempty" yaml:"importSource,omitempty"`
	ImportedName string `json:"importedName,omitempty" yaml:"importedName,omitempty"`

	// Palette is the mock colour context passed to style functions
	Palette palette.Palette `json:"palette" yaml:"palette"`

	// Prefix enables vendor prefixing in the default processor
	Prefix bool `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Include and Exclude are doublestar globs, relative to the project root,
	// used by Discover
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	// Loader evaluates rewritten modules. Nil uses the goja evaluator.
	Loader sandbox.Loader `json:"-" yaml:"-"`

	// Processor scopes CSS. Nil uses compiler.New.
	Processor compiler.Processor `json:"-" yaml:"-"`

	// Logger receives stage diagnostics. Nil uses the package logger.
	Logger *zap.Logger `json:"-" yaml:"-"`
}

// DefaultOptions returns the options used for every field left empty
func DefaultOptions() Options {
	return Options{
		IgnoreImportPattern: rewrite.DefaultIgnoreImportPattern,
		ImportSource:        rewrite.DefaultConstruct.Source,
		ImportedName:        rewrite.DefaultConstruct.Name,
		Palette:             palette.Default(),
		Include:             []string{"**/*.{js,jsx,ts,tsx}"},
		Exclude:             []string{"**/node_modules/**", "**/*.d.ts"},
	}
}

// withDefaults fills empty fields. ThemePath is never defaulted.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.IgnoreImportPattern == "" {
		o.IgnoreImportPattern = d.IgnoreImportPattern
	}
	if o.ImportSource == "" {
		o.ImportSource = d.ImportSource
	}
	if o.ImportedName == "" {
		o.ImportedName = d.ImportedName
	}
	if len(o.Include) == 0 {
		o.Include = d.Include
	}
	if o.Exclude == nil {
		o.Exclude = d.Exclude
	}
	o.Palette = o.Palette.WithDefaults()
	return o
}
