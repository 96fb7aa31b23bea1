package collect_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ricokahler/flair/collect"
	"github.com/ricokahler/flair/internal/resolver"
	"github.com/ricokahler/flair/internal/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const cardSource = "import { createStyles } from 'flair';\n" +
	"import './Card.css';\n" +
	"\n" +
	"export const useStyles = createStyles(({ css, theme }) => ({\n" +
	"  root: css`\n" +
	"    color: ${theme.colors.brand};\n" +
	"    display: flex;\n" +
	"  `,\n" +
	"  title: css`\n" +
	"    margin: 0;\n" +
	"    @media (max-width: 768px) {\n" +
	"      margin: ${theme.space(1)};\n" +
	"    }\n" +
	"  `,\n" +
	"}));\n"

const cardCSS = ".Card-218700d-root{color:var(--Card-218700d-root-0);display:flex;}\n" +
	".Card-218700d-title{margin:0;}@media (max-width:768px){.Card-218700d-title{margin:var(--Card-218700d-title-0);}}"

// fakeLoader returns canned definitions in place of evaluating the module
type fakeLoader struct {
	mu       sync.Mutex
	requests []*sandbox.Request
	defs     []sandbox.Definition
	err      error
	failOn   string
}

func (f *fakeLoader) Load(_ context.Context, req *sandbox.Request) ([]sandbox.Definition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil && (f.failOn == "" || strings.HasSuffix(req.Filename, f.failOn)) {
		return nil, f.err
	}
	return f.defs, nil
}

func cardDefinitions() []sandbox.Definition {
	return []sandbox.Definition{{
		Index:           0,
		ClassNamePrefix: "Card-218700d",
		Keys:            []string{"root", "title"},
		Styles: map[string]string{
			"root":  "\n    color: var(--Card-218700d-root-0);\n    display: flex;\n  ",
			"title": "\n    margin: 0;\n    @media (max-width: 768px) {\n      margin: var(--Card-218700d-title-0);\n    }\n  ",
		},
		Values: map[string]string{
			"Card-218700d-root-0":  "#00f",
			"Card-218700d-title-0": "8px",
		},
	}}
}

func options(loader sandbox.Loader) collect.Options {
	return collect.Options{ThemePath: "/src/theme.js", Loader: loader}
}

func TestExtractSource(t *testing.T) {
	loader := &fakeLoader{defs: cardDefinitions()}

	result, err := collect.ExtractSource(context.Background(), "/src/Card.js", cardSource, options(loader))
	require.NoError(t, err)

	assert.Equal(t, "Card-218700d", result.FilenameHash)
	assert.False(t, result.Empty())
	assert.Equal(t, cardCSS, result.CSS())

	require.Len(t, loader.requests, 1)
	req := loader.requests[0]
	assert.Equal(t, "/src/theme.js", req.ThemePath)
	assert.NotContains(t, req.Code, "Card.css", "ignored imports are removed")
	assert.Contains(t, req.Code, `"var(--Card-218700d-root-0)"`)
	assert.Equal(t, "#000", req.Palette.Readable, "palette defaults applied")

	require.Len(t, result.Definitions, 1)
	def := result.Definitions[0]
	assert.Equal(t, "Card-218700d", def.ClassNamePrefix)
	assert.Equal(t, []string{"root", "title"}, def.Keys)
	assert.Equal(t, []collect.Token{
		{
			Key:            "root",
			Name:           "Card-218700d-root-0",
			CustomProperty: "--Card-218700d-root-0",
			Expression:     "theme.colors.brand",
			Value:          "#00f",
		},
		{
			Key:            "title",
			Name:           "Card-218700d-title-0",
			CustomProperty: "--Card-218700d-title-0",
			Expression:     "theme.space(1)",
			Value:          "8px",
		},
	}, def.Tokens)
}

func TestExtractSourceIsIdempotent(t *testing.T) {
	opts := options(&fakeLoader{defs: cardDefinitions()})

	first, err := collect.ExtractSource(context.Background(), "/src/Card.js", cardSource, opts)
	require.NoError(t, err)
	second, err := collect.ExtractSource(context.Background(), "/src/Card.js", cardSource, opts)
	require.NoError(t, err)

	assert.Equal(t, first.CSS(), second.CSS())
	assert.Equal(t, first.Definitions, second.Definitions)
}

func TestExtractSourcePrefix(t *testing.T) {
	opts := options(&fakeLoader{defs: cardDefinitions()})
	opts.Prefix = true

	result, err := collect.ExtractSource(context.Background(), "/src/Card.js", cardSource, opts)
	require.NoError(t, err)
	assert.Contains(t, result.CSS(), "display:-webkit-box;display:-webkit-flex;display:-ms-flexbox;display:flex;")
}

func TestExtractSourceWithoutConstruct(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "no import", source: "export const x = 1;\n"},
		{name: "other package", source: "import { createStyles } from 'other';\ncreateStyles(() => ({}));\n"},
		{name: "imported but never called", source: "import { createStyles } from 'flair';\nexport { createStyles };\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &fakeLoader{defs: cardDefinitions()}
			result, err := collect.ExtractSource(context.Background(), "/src/Card.js", tt.source, options(loader))
			require.NoError(t, err)
			assert.True(t, result.Empty())
			assert.Empty(t, result.CSS())
			assert.Empty(t, loader.requests, "nothing is evaluated")
		})
	}
}

func TestExtractSourceCustomConstruct(t *testing.T) {
	source := "import { makeStyles as ms } from '@acme/styles';\n" +
		"const useStyles = ms(({ css, theme }) => ({ root: css`color: ${theme.colors.brand};` }));\n"
	loader := &fakeLoader{defs: []sandbox.Definition{{
		ClassNamePrefix: "Card-218700d",
		Keys:            []string{"root"},
		Styles:          map[string]string{"root": "color: var(--Card-218700d-root-0);"},
	}}}
	opts := options(loader)
	opts.ImportSource = "@acme/styles"
	opts.ImportedName = "makeStyles"

	result, err := collect.ExtractSource(context.Background(), "/src/Card.js", source, opts)
	require.NoError(t, err)
	assert.Equal(t, ".Card-218700d-root{color:var(--Card-218700d-root-0);}", result.CSS())
	require.Len(t, result.Definitions[0].Tokens, 1)
	assert.Empty(t, result.Definitions[0].Tokens[0].Value)
}

func TestExtractMissingThemePath(t *testing.T) {
	_, err := collect.ExtractSource(context.Background(), "/src/Card.js", cardSource, collect.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, collect.ErrMissingThemePath)

	var missing *collect.MissingThemePathError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "/src/Card.js", missing.FilePath)
	assert.Equal(t, "[/src/Card.js] themePath is required", err.Error())

	_, err = collect.ExtractStyles(context.Background(), "/does/not/exist.js", collect.Options{})
	assert.ErrorIs(t, err, collect.ErrMissingThemePath)
}

func TestExtractStageErrors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{
			name:     "transform",
			err:      &sandbox.Error{Stage: sandbox.StageTransform, Err: cause},
			sentinel: collect.ErrTransform,
			message:  "[/src/Card.js] Failed to transform: boom",
		},
		{
			name:     "execution",
			err:      &sandbox.Error{Stage: sandbox.StageExecution, Err: cause},
			sentinel: collect.ErrExecution,
			message:  "[/src/Card.js] Failed to execute file: boom",
		},
		{
			name:     "evaluation",
			err:      &sandbox.Error{Stage: sandbox.StageEvaluation, Err: cause},
			sentinel: collect.ErrEvaluation,
			message:  "[/src/Card.js] Failed to evaluate CSS strings: boom",
		},
		{
			name:     "processing",
			err:      &sandbox.Error{Stage: sandbox.StageProcessing, Err: cause},
			sentinel: collect.ErrProcessing,
			message:  "[/src/Card.js] Failed to process styles: boom",
		},
		{
			name:     "untyped loader failure",
			err:      cause,
			sentinel: collect.ErrExecution,
			message:  "[/src/Card.js] Failed to execute file: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := collect.ExtractSource(context.Background(), "/src/Card.js", cardSource, options(&fakeLoader{err: tt.err}))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.ErrorIs(t, err, cause)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestExtractTransformError(t *testing.T) {
	source := "import { createStyles } from 'flair';\nconst x = ;\n"
	loader := &fakeLoader{defs: cardDefinitions()}

	_, err := collect.ExtractSource(context.Background(), "/src/Card.js", source, options(loader))
	require.Error(t, err)
	var terr *collect.TransformError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "/src/Card.js", terr.FilePath)
	assert.Empty(t, loader.requests)
}

type failingProcessor struct{}

func (failingProcessor) Scope(string, string) (string, error) {
	return "", fmt.Errorf("unbalanced block")
}

func TestExtractProcessingError(t *testing.T) {
	opts := options(&fakeLoader{defs: cardDefinitions()})
	opts.Processor = failingProcessor{}

	_, err := collect.ExtractSource(context.Background(), "/src/Card.js", cardSource, opts)
	var perr *collect.ProcessingError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "unbalanced block")
}

func TestExtractInvalidOptions(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*collect.Options)
		message string
	}{
		{
			name:    "ignore pattern",
			modify:  func(o *collect.Options) { o.IgnoreImportPattern = "(" },
			message: "ignoreImportPattern",
		},
		{
			name: "circular resolver alias",
			modify: func(o *collect.Options) {
				o.ModuleResolver = &resolver.Config{Alias: map[string]string{"a": "b/x", "b": "a/y"}}
			},
			message: "moduleResolver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := options(&fakeLoader{defs: cardDefinitions()})
			tt.modify(&opts)
			_, err := collect.ExtractSource(context.Background(), "/src/Card.js", cardSource, opts)
			require.Error(t, err)

			var transform *collect.TransformError
			require.True(t, errors.As(err, &transform))
			assert.Equal(t, "/src/Card.js", transform.FilePath)
			assert.ErrorIs(t, err, collect.ErrTransform)
			assert.ErrorContains(t, err, tt.message)
			assert.Contains(t, err.Error(), "/src/Card.js")
		})
	}
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := collect.ExtractSource(ctx, "/src/Card.js", cardSource, options(&fakeLoader{defs: cardDefinitions()}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractStylesEndToEnd(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}
	themePath := write("theme.js", "export default { colors: { brand: '#00f' }, space: (n) => n * 8 + 'px' };\n")
	cardPath := write("Card.js", cardSource)

	result, err := collect.ExtractStyles(context.Background(), cardPath, collect.Options{ThemePath: themePath})
	require.NoError(t, err)

	prefix := result.FilenameHash
	assert.Equal(t,
		"."+prefix+"-root{color:var(--"+prefix+"-root-0);display:flex;}\n"+
			"."+prefix+"-title{margin:0;}@media (max-width:768px){."+prefix+"-title{margin:var(--"+prefix+"-title-0);}}",
		result.CSS())

	require.Len(t, result.Definitions, 1)
	tokens := result.Definitions[0].Tokens
	require.Len(t, tokens, 2)
	assert.Equal(t, "#00f", tokens[0].Value)
	assert.Equal(t, "8px", tokens[1].Value)
}

func TestExtractStylesSeparatesDefinitions(t *testing.T) {
	dir := t.TempDir()
	themePath := writeFile(t, dir, "theme.js", "export default { c: 'red' };\n")
	path := writeFile(t, dir, "K.js", "import { createStyles } from 'flair';\n"+
		"export const useA = createStyles(({ css, theme }) => ({ '1-root': css`color: ${theme.c};` }));\n"+
		"export const useB = createStyles(({ css, theme }) => ({ root: css`background: ${theme.c};` }));\n")

	result, err := collect.ExtractStyles(context.Background(), path, collect.Options{ThemePath: themePath})
	require.NoError(t, err)

	hash := result.FilenameHash
	require.Len(t, result.Definitions, 2)
	first, second := result.Definitions[0], result.Definitions[1]
	require.Len(t, first.Tokens, 1)
	require.Len(t, second.Tokens, 1)
	assert.Equal(t, hash+"-0-1-root-0", first.Tokens[0].Name)
	assert.Equal(t, hash+"-1-root-0", second.Tokens[0].Name)
	assert.NotEqual(t, first.Tokens[0].Name, second.Tokens[0].Name)

	require.Len(t, result.Stylesheet.Rules, 2)
	assert.Equal(t, "."+hash+"-0-1-root", result.Stylesheet.Rules[0].Selector)
	assert.Equal(t, "."+hash+"-1-root", result.Stylesheet.Rules[1].Selector)
	assert.Equal(t,
		"."+hash+"-0-1-root{color:var(--"+hash+"-0-1-root-0);}\n"+
			"."+hash+"-1-root{background:var(--"+hash+"-1-root-0);}",
		result.CSS())
}

func TestExtractVerifiesStylesheet(t *testing.T) {
	redeclared := cardDefinitions()
	redeclared[0].Styles["root"] = "\n    --Card-218700d-root-0: red;\n    color: var(--Card-218700d-root-0);\n  "

	unreferenced := cardDefinitions()
	unreferenced[0].Styles["title"] = "\n    margin: 0;\n  "

	tests := []struct {
		name  string
		defs  []sandbox.Definition
		warns map[string]string
	}{
		{
			name:  "clean module",
			defs:  cardDefinitions(),
			warns: map[string]string{},
		},
		{
			name:  "token redeclared",
			defs:  redeclared,
			warns: map[string]string{"stylesheet redeclares a token": "--Card-218700d-root-0"},
		},
		{
			name:  "token dropped",
			defs:  unreferenced,
			warns: map[string]string{"token is not referenced by the compiled stylesheet": "--Card-218700d-title-0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			opts := options(&fakeLoader{defs: tt.defs})
			opts.Logger = zap.New(core)

			_, err := collect.ExtractSource(context.Background(), "/src/Card.js", cardSource, opts)
			require.NoError(t, err)

			got := map[string]string{}
			for _, entry := range logs.All() {
				got[entry.Message] = fmt.Sprint(entry.ContextMap()["token"])
			}
			assert.Equal(t, tt.warns, got)
		})
	}
}
