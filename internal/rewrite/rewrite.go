// Package rewrite turns a module that declares styles into an executable
// module whose style definitions evaluate to plain CSS strings with token
// references in place of property-value expressions.
package rewrite

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ricokahler/flair/internal/parser/js"
	"github.com/ricokahler/flair/internal/segment"
	"github.com/ricokahler/flair/internal/tokens"
)

// ErrNoStyleConstruct reports a module that does not import or call the
// style construct. Callers treat it as "nothing to extract".
var ErrNoStyleConstruct = errors.New("module does not use the style construct")

// DefaultIgnoreImportPattern matches stylesheet imports that cannot execute
// outside a bundler.
const DefaultIgnoreImportPattern = `\.((css)|(scss))$`

// StaticVarName is the construct package's identity marker for values that
// must be resolved at evaluation time.
const StaticVarName = "staticVar"

// Host hooks the rewritten module expects as globals.
const (
	RegisterHook = "__flairRegister"
	ContextHook  = "__flairContext"
	staticVar    = "__flairStaticVar"
	captureHook  = "__flairCapture"
)

// DefaultConstruct is the style construct of the flair package.
var DefaultConstruct = js.Construct{Source: "flair", Name: "createStyles"}

// Options configures a rewrite
type Options struct {
	// Filename is the absolute path of the module
	Filename string
	// FileHash is filehash.Create(Filename)
	FileHash string
	// Construct identifies the style construct; zero means DefaultConstruct
	Construct js.Construct
	// IgnoreImport drops matching import statements; nil means DefaultIgnoreImportPattern
	IgnoreImport *regexp.Regexp
}

// Slot is one classified expression of a style template
type Slot struct {
	Expression string
	Kind       segment.Kind
	// Token is set for PropertyValue slots only
	Token *tokens.Token
}

// Template is the css template of one style key
type Template struct {
	Key      string
	Segments []string
	Slots    []Slot
}

// Definition is one style construct call
type Definition struct {
	Index           int
	ClassNamePrefix string
	Templates       []Template
}

// Tokens returns the property-value tokens of d in allocation order.
func (d *Definition) Tokens() []Slot {
	var out []Slot
	for _, tpl := range d.Templates {
		for _, slot := range tpl.Slots {
			if slot.Token != nil {
				out = append(out, slot)
			}
		}
	}
	return out
}

// Module is the rewritten source together with its style definitions
type Module struct {
	Code        string
	Definitions []Definition
}

var defaultIgnore = regexp.MustCompile(DefaultIgnoreImportPattern)

type edit struct {
	start, end uint
	text       string
}

// Rewrite parses source and produces the executable rewritten module. It
// returns ErrNoStyleConstruct when there is nothing to extract.
func Rewrite(source string, opts Options) (*Module, error) {
	if opts.Construct == (js.Construct{}) {
		opts.Construct = DefaultConstruct
	}
	if opts.IgnoreImport == nil {
		opts.IgnoreImport = defaultIgnore
	}

	p := js.AcquireParser()
	parsed, err := p.ParseModule(source, opts.Construct)
	js.ReleaseParser(p)
	if err != nil {
		return nil, err
	}
	if parsed.Construct == nil || len(parsed.Definitions) == 0 {
		return nil, ErrNoStyleConstruct
	}

	var edits []edit
	dir := filepath.Dir(opts.Filename)

	for i := range parsed.Imports {
		imp := &parsed.Imports[i]
		switch {
		case !imp.Export && opts.IgnoreImport.MatchString(imp.Source):
			edits = append(edits, edit{imp.Statement.Start, imp.Statement.End, ""})
		case imp == parsed.Construct:
			edits = append(edits, edit{imp.Statement.Start, imp.Statement.End, constructImport(imp, opts.Construct.Name)})
		case strings.HasPrefix(imp.Source, "."):
			abs := filepath.ToSlash(filepath.Join(dir, imp.Source))
			edits = append(edits, edit{imp.SourceSpan.Start, imp.SourceSpan.End, strconv.Quote(abs)})
		}
	}

	mod := &Module{}
	prefixes := make([]string, 0, len(parsed.Definitions))
	for _, def := range parsed.Definitions {
		out := Definition{
			Index:           def.Index,
			ClassNamePrefix: tokens.ClassNamePrefix(opts.FileHash, def.Index, len(parsed.Definitions)),
		}
		prefixes = append(prefixes, out.ClassNamePrefix)
		edits = append(edits, edit{def.ArgumentsStart, def.ArgumentsStart, strconv.Itoa(def.Index) + ", "})

		alloc := tokens.NewAllocator(opts.FileHash, def.Index, len(parsed.Definitions))
		for _, tpl := range def.Templates {
			kinds := segment.Classify(tpl.Segments)
			t := Template{Key: tpl.Key, Segments: tpl.Segments}
			for i, slot := range tpl.Slots {
				s := Slot{Expression: slot.Expression, Kind: kinds[i]}
				raw := source[slot.Span.Start+2 : slot.Span.End-1]
				if strings.Contains(raw, "//") {
					raw += "\n"
				}
				if s.Kind == segment.PropertyValue {
					tok := alloc.Next(tpl.Key)
					s.Token = &tok
					edits = append(edits, edit{slot.Span.Start, slot.Span.End, propertyValue(tok, raw)})
				} else {
					edits = append(edits, edit{slot.Span.Start, slot.Span.End, "${" + staticVar + "(" + raw + ")}"})
				}
				t.Slots = append(t.Slots, s)
			}
			out.Templates = append(out.Templates, t)
		}
		mod.Definitions = append(mod.Definitions, out)
	}

	body := apply(source, edits)
	mod.Code = prelude(parsed.ConstructLocal, staticVarLocals(parsed.Construct), prefixes) + body
	return mod, nil
}

// constructImport re-emits the construct's import statement without the
// bindings the prelude provides.
func constructImport(imp *js.Import, name string) string {
	var clauses []string
	if imp.Default != "" {
		clauses = append(clauses, imp.Default)
	}
	if imp.Namespace != "" {
		clauses = append(clauses, imp.Namespace)
	}
	var named []string
	for _, spec := range imp.Specifiers {
		if spec.Imported == name || spec.Imported == StaticVarName {
			continue
		}
		named = append(named, spec.Text)
	}
	if len(named) > 0 {
		clauses = append(clauses, "{ "+strings.Join(named, ", ")+" }")
	}
	if len(clauses) == 0 {
		return ""
	}
	return fmt.Sprintf("import %s from %s;", strings.Join(clauses, ", "), strconv.Quote(imp.Source))
}

// propertyValue substitutes the token reference for a slot. The original
// expression is kept behind a capture call so its mock-context value can be
// reported, but the substitution always evaluates to the reference string.
func propertyValue(tok tokens.Token, raw string) string {
	return fmt.Sprintf("${(%s(%s, () => (%s)), %s)}",
		captureHook, strconv.Quote(tok.Name()), raw, strconv.Quote(tok.Reference()))
}

func staticVarLocals(imp *js.Import) []string {
	var locals []string
	for _, spec := range imp.Specifiers {
		if spec.Imported == StaticVarName {
			locals = append(locals, spec.Local)
		}
	}
	return locals
}

func apply(source string, edits []edit) string {
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder
	b.Grow(len(source))
	var cursor uint
	for _, e := range edits {
		if e.start < cursor {
			continue
		}
		b.WriteString(source[cursor:e.start])
		b.WriteString(e.text)
		cursor = e.end
	}
	b.WriteString(source[cursor:])
	return b.String()
}

const preludeFormat = `const %[1]s = (value) => value;
const __flairClassNamePrefixes = %[2]s;
let __flairValues = null;
const %[6]s = (token, read) => {
  if (!__flairValues) return;
  try {
    const value = read();
    if (value !== undefined && value !== null && value !== false) __flairValues[token] = String(value);
  } catch (e) {}
};
function %[3]s(index, styleFn) {
  const definition = () => {
    const { theme, color, surface } = %[4]s();
    const css = (strings, ...values) => {
      let combined = '';
      for (let i = 0; i < strings.length; i += 1) {
        const value = values[i];
        combined += strings[i] + (value === undefined || value === null || value === false ? '' : value);
      }
      return combined;
    };
    const values = {};
    __flairValues = values;
    try {
      return {
        classNamePrefix: __flairClassNamePrefixes[index],
        styles: styleFn({ css, theme, color, surface, staticVar: %[1]s }),
        values,
      };
    } finally {
      __flairValues = null;
    }
  };
  %[5]s(index, definition);
  return definition;
}
`

func prelude(local string, staticVarLocals []string, prefixes []string) string {
	encoded, _ := json.Marshal(prefixes)
	var b strings.Builder
	fmt.Fprintf(&b, preludeFormat, staticVar, encoded, local, ContextHook, RegisterHook, captureHook)
	for _, name := range staticVarLocals {
		fmt.Fprintf(&b, "const %s = %s;\n", name, staticVar)
	}
	return b.String()
}
