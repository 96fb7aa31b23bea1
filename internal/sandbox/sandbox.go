// Package sandbox executes rewritten modules in an isolated JavaScript
// runtime and captures the literal CSS their style definitions produce.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/ricokahler/flair/internal/palette"
	"github.com/ricokahler/flair/internal/resolver"
	"github.com/ricokahler/flair/internal/rewrite"
	"github.com/ricokahler/flair/internal/theme"
	"github.com/ricokahler/flair/internal/transpile"
)

// Stage names the step of extraction that failed
type Stage int

const (
	StageTransform Stage = iota
	StageExecution
	StageEvaluation
	StageProcessing
)

func (s Stage) String() string {
	switch s {
	case StageTransform:
		return "Failed to transform"
	case StageExecution:
		return "Failed to execute file"
	case StageEvaluation:
		return "Failed to evaluate CSS strings"
	default:
		return "Failed to process styles"
	}
}

// Error is a stage-attributed failure of Load
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Request describes one module to evaluate
type Request struct {
	// Filename is the original module path; imports resolve relative to it
	Filename string
	// Code is the rewritten module
	Code string
	// ThemePath locates the theme module
	ThemePath string
	// Resolver maps bare specifiers, may be nil
	Resolver *resolver.Resolver
	// Palette is the mock color context
	Palette palette.Palette
}

// Definition is the evaluated form of one style definition
type Definition struct {
	Index           int
	ClassNamePrefix string
	// Keys lists the string-valued style keys in object order
	Keys []string
	// Styles maps style key to literal CSS
	Styles map[string]string
	// Values maps token name to the value its expression had under the mock context
	Values map[string]string
}

// Loader evaluates rewritten modules
type Loader interface {
	Load(ctx context.Context, req *Request) ([]Definition, error)
}

// Evaluator is the goja-backed Loader. Every Load gets its own runtime, so
// an Evaluator is safe for concurrent use.
type Evaluator struct {
	themes *theme.Loader
	log    *zap.Logger
}

var _ Loader = (*Evaluator)(nil)

// New creates an Evaluator. A nil themes gets a private cache and a nil
// logger discards console output.
func New(themes *theme.Loader, log *zap.Logger) *Evaluator {
	if themes == nil {
		themes = theme.NewLoader()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{themes: themes, log: log.Named("sandbox")}
}

// Load bundles and runs the rewritten module, then invokes every registered
// style definition in index order.
func (e *Evaluator) Load(ctx context.Context, req *Request) ([]Definition, error) {
	bundle, err := transpile.Bundle(transpile.Options{
		Filename: req.Filename,
		Contents: req.Code,
		Resolver: req.Resolver,
	})
	if err != nil {
		return nil, &Error{Stage: StageTransform, Err: err}
	}
	program, err := goja.Compile(req.Filename, transpile.Wrap(bundle), false)
	if err != nil {
		return nil, &Error{Stage: StageTransform, Err: err}
	}

	vm, err := newRuntime(e.log.With(zap.String("file", req.Filename)))
	if err != nil {
		return nil, &Error{Stage: StageExecution, Err: err}
	}
	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	defer stop()

	themeValue, err := e.themes.Load(vm, req.ThemePath, req.Resolver)
	if err != nil {
		var terr *transpile.Error
		if errors.As(err, &terr) {
			return nil, &Error{Stage: StageTransform, Err: err}
		}
		return nil, &Error{Stage: StageExecution, Err: err}
	}

	registry := make(map[int]goja.Callable)
	if err := installHooks(vm, registry, themeValue, req.Palette.WithDefaults()); err != nil {
		return nil, &Error{Stage: StageExecution, Err: err}
	}

	if err := runModule(vm, program); err != nil {
		return nil, &Error{Stage: StageExecution, Err: err}
	}

	indexes := make([]int, 0, len(registry))
	for index := range registry {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	defs := make([]Definition, 0, len(indexes))
	for _, index := range indexes {
		ret, err := registry[index](goja.Undefined())
		if err != nil {
			return nil, &Error{Stage: StageEvaluation, Err: err}
		}
		def, err := toDefinition(index, ret)
		if err != nil {
			return nil, &Error{Stage: StageProcessing, Err: err}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func installHooks(vm *goja.Runtime, registry map[int]goja.Callable, themeValue goja.Value, p palette.Palette) error {
	register := func(call goja.FunctionCall) goja.Value {
		index := int(call.Argument(0).ToInteger())
		fn, ok := goja.AssertFunction(call.Argument(1))
		if !ok {
			panic(vm.NewTypeError("style definition %d is not a function", index))
		}
		registry[index] = fn
		return goja.Undefined()
	}
	styleContext := func(goja.FunctionCall) goja.Value {
		ctx := vm.NewObject()
		color := vm.NewObject()
		for k, v := range p.Color() {
			_ = color.Set(k, v)
		}
		_ = ctx.Set("theme", themeValue)
		_ = ctx.Set("color", color)
		_ = ctx.Set("surface", p.Surface)
		return ctx
	}
	if err := vm.Set(rewrite.RegisterHook, register); err != nil {
		return err
	}
	return vm.Set(rewrite.ContextHook, styleContext)
}

func runModule(vm *goja.Runtime, program *goja.Program) error {
	fnValue, err := vm.RunProgram(program)
	if err != nil {
		return err
	}
	fn, ok := goja.AssertFunction(fnValue)
	if !ok {
		return fmt.Errorf("module did not compile to a function")
	}
	module := vm.NewObject()
	exports := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return err
	}
	_, err = fn(goja.Undefined(), module, exports, vm.Get("require"))
	return err
}

func toDefinition(index int, ret goja.Value) (Definition, error) {
	def := Definition{
		Index:  index,
		Styles: make(map[string]string),
		Values: make(map[string]string),
	}
	obj, ok := ret.(*goja.Object)
	if !ok {
		return def, fmt.Errorf("style definition %d returned %s", index, describe(ret))
	}
	if prefix := obj.Get("classNamePrefix"); prefix != nil {
		def.ClassNamePrefix = prefix.String()
	}

	styles, ok := obj.Get("styles").(*goja.Object)
	if !ok {
		return def, fmt.Errorf("style function %d returned %s, expected an object of css strings", index, describe(obj.Get("styles")))
	}
	for _, key := range styles.Keys() {
		if s, ok := styles.Get(key).Export().(string); ok {
			def.Keys = append(def.Keys, key)
			def.Styles[key] = s
		}
	}

	if values, ok := obj.Get("values").(*goja.Object); ok {
		for _, token := range values.Keys() {
			def.Values[token] = values.Get(token).String()
		}
	}
	return def, nil
}

func describe(v goja.Value) string {
	switch {
	case v == nil || goja.IsUndefined(v):
		return "undefined"
	case goja.IsNull(v):
		return "null"
	default:
		return fmt.Sprintf("%s %q", v.ExportType(), v.String())
	}
}
