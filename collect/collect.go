// Package collect extracts static stylesheets from modules that declare
// their styles with the createStyles construct.
//
// Extraction rewrites the module so every property-value expression becomes
// a custom property reference, evaluates it against a mock theme, and scopes
// the resulting CSS under class names derived from the module path.
package collect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ricokahler/flair/internal/collections"
	"github.com/ricokahler/flair/internal/compiler"
	"github.com/ricokahler/flair/internal/filehash"
	"github.com/ricokahler/flair/internal/log"
	"github.com/ricokahler/flair/internal/parser/css"
	"github.com/ricokahler/flair/internal/parser/js"
	"github.com/ricokahler/flair/internal/rewrite"
	"github.com/ricokahler/flair/internal/sandbox"
	"github.com/ricokahler/flair/internal/transpile"
	"go.uber.org/zap"
)

// Result is the outcome of extracting one module
type Result struct {
	FilePath     string               `json:"filePath"`
	FilenameHash string               `json:"filenameHash"`
	Stylesheet   *compiler.Stylesheet `json:"stylesheet,omitempty"`
	Definitions  []Definition         `json:"definitions,omitempty"`
}

// Definition describes one style definition for the runtime bridge
type Definition struct {
	Index           int      `json:"index"`
	ClassNamePrefix string   `json:"classNamePrefix"`
	Keys            []string `json:"keys"`
	Tokens          []Token  `json:"tokens,omitempty"`
}

// Token pairs a property-value expression with the custom property that
// carries its runtime value
type Token struct {
	Key            string `json:"key"`
	Name           string `json:"name"`
	CustomProperty string `json:"customProperty"`
	Expression     string `json:"expression"`
	// Value is what the expression produced under the mock context, empty
	// when it threw
	Value string `json:"value,omitempty"`
}

// CSS returns the stylesheet text
func (r *Result) CSS() string {
	if r == nil {
		return ""
	}
	return r.Stylesheet.String()
}

// Empty reports whether the module declared no styles
func (r *Result) Empty() bool {
	return r == nil || len(r.Definitions) == 0
}

// ExtractStyles reads filePath and extracts its stylesheet
func ExtractStyles(ctx context.Context, filePath string, opts Options) (*Result, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, &TransformError{FilePath: filePath, Cause: err}
	}
	if opts.ThemePath == "" {
		return nil, &MissingThemePathError{FilePath: abs}
	}
	data, err := os.ReadFile(abs) //nolint:gosec // G304: module under extraction
	if err != nil {
		return nil, &TransformError{FilePath: abs, Cause: err}
	}
	return ExtractSource(ctx, abs, string(data), opts)
}

// ExtractSource extracts the stylesheet of source, treating it as the
// contents of filename. Imports resolve relative to filename. A module that
// does not use the style construct yields an empty Result.
func ExtractSource(ctx context.Context, filename, source string, opts Options) (*Result, error) {
	if opts.ThemePath == "" {
		return nil, &MissingThemePathError{FilePath: filename}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = log.Named("collect")
	}
	logger = logger.With(zap.String("file", filename))

	hash := filehash.Create(filename)
	result := &Result{FilePath: filename, FilenameHash: hash}

	ignore, err := regexp.Compile(opts.IgnoreImportPattern)
	if err != nil {
		return nil, &TransformError{FilePath: filename, Cause: fmt.Errorf("invalid ignoreImportPattern: %w", err)}
	}
	modules, err := resolverFor(opts.ModuleResolver)
	if err != nil {
		return nil, &TransformError{FilePath: filename, Cause: err}
	}

	code, err := transpile.StripTypes(source, filename)
	if err != nil {
		return nil, &TransformError{FilePath: filename, Cause: err}
	}

	mod, err := rewrite.Rewrite(code, rewrite.Options{
		Filename:     filename,
		FileHash:     hash,
		Construct:    js.Construct{Source: opts.ImportSource, Name: opts.ImportedName},
		IgnoreImport: ignore,
	})
	if errors.Is(err, rewrite.ErrNoStyleConstruct) {
		logger.Debug("skipping module without style construct")
		return result, nil
	}
	if err != nil {
		return nil, &TransformError{FilePath: filename, Cause: err}
	}
	logger.Debug("rewrote module", zap.Int("definitions", len(mod.Definitions)))

	loader := opts.Loader
	if loader == nil {
		loader = sandbox.New(nil, logger)
	}
	defs, err := loader.Load(ctx, &sandbox.Request{
		Filename:  filename,
		Code:      mod.Code,
		ThemePath: opts.ThemePath,
		Resolver:  modules,
		Palette:   opts.Palette,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, stageError(filename, err)
	}

	processor := opts.Processor
	if processor == nil {
		processor = compiler.New(logger, compiler.Options{Prefix: opts.Prefix})
	}

	var inputs []compiler.Input
	for _, def := range defs {
		for _, key := range def.Keys {
			inputs = append(inputs, compiler.Input{
				Key:      key,
				Selector: "." + def.ClassNamePrefix + "-" + key,
				CSS:      def.Styles[key],
			})
		}
		result.Definitions = append(result.Definitions, describe(def, mod.Definitions))
	}

	sheet, err := compiler.Compile(processor, inputs)
	if err != nil {
		return nil, &ProcessingError{FilePath: filename, Cause: err}
	}
	result.Stylesheet = sheet

	verify(logger, result)
	logger.Debug("extracted styles",
		zap.Int("definitions", len(result.Definitions)),
		zap.Int("rules", len(sheet.Rules)))
	return result, nil
}

// describe joins an evaluated definition with the tokens allocated for it
func describe(def sandbox.Definition, rewritten []rewrite.Definition) Definition {
	out := Definition{
		Index:           def.Index,
		ClassNamePrefix: def.ClassNamePrefix,
		Keys:            def.Keys,
	}
	for i := range rewritten {
		if rewritten[i].Index != def.Index {
			continue
		}
		for _, slot := range rewritten[i].Tokens() {
			out.Tokens = append(out.Tokens, Token{
				Key:            slot.Token.Key,
				Name:           slot.Token.Name(),
				CustomProperty: slot.Token.CustomProperty(),
				Expression:     slot.Expression,
				Value:          def.Values[slot.Token.Name()],
			})
		}
	}
	return out
}

// verify checks the compiled stylesheet against what the module declared.
// It warns about tokens whose reference did not survive compilation (e.g.
// the declaration holding it was dropped), about tokens the stylesheet
// redeclares as custom properties, and about rules that escaped the
// module's class scope.
func verify(logger *zap.Logger, result *Result) {
	declared := collections.NewSet[string]()
	var prefixes []string
	for _, def := range result.Definitions {
		prefixes = append(prefixes, "."+def.ClassNamePrefix+"-")
		for _, tok := range def.Tokens {
			declared.Add(tok.CustomProperty)
		}
	}
	source := result.CSS()
	if source == "" {
		return
	}

	p := css.AcquireParser()
	defer css.ReleaseParser(p)
	sheet, err := p.Parse(source)
	if err != nil {
		logger.Warn("compiled stylesheet does not parse cleanly", zap.Error(err))
	}
	if sheet == nil {
		return
	}

	for _, rule := range sheet.Rules {
		if !scoped(rule.Selectors, prefixes) {
			logger.Warn("rule is not scoped to the module",
				zap.String("selectors", rule.Selectors),
				zap.Uint("line", rule.Position.Line+1))
		}
	}
	for _, decl := range sheet.Declarations {
		if declared.Has(decl.Name) {
			logger.Warn("stylesheet redeclares a token",
				zap.String("token", decl.Name),
				zap.String("value", decl.Value))
		}
	}

	referenced := collections.NewSet(sheet.ReferencedNames()...)
	for _, name := range collections.Sorted(declared.Difference(referenced)) {
		logger.Warn("token is not referenced by the compiled stylesheet", zap.String("token", name))
	}
}

func scoped(selectors string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.Contains(selectors, prefix) {
			return true
		}
	}
	return false
}
