// Package theme loads the theme module handed to style functions during
// extraction. Compiled themes are cached per path and shared by every
// sandbox runtime.
package theme

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/ricokahler/flair/internal/resolver"
	"github.com/ricokahler/flair/internal/transpile"
)

// Loader compiles theme modules once and evaluates them per runtime. It is
// safe for concurrent use.
type Loader struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	once    sync.Once
	program *goja.Program
	err     error
}

// NewLoader creates an empty theme cache
func NewLoader() *Loader {
	return &Loader{entries: make(map[string]*entry)}
}

// Program returns the compiled module function for the theme at path. The
// resolver is used only on the first compilation of a path.
func (l *Loader) Program(path string, r *resolver.Resolver) (*goja.Program, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve theme path %q: %w", path, err)
	}

	l.mu.Lock()
	e, ok := l.entries[abs]
	if !ok {
		e = &entry{}
		l.entries[abs] = e
	}
	l.mu.Unlock()

	e.once.Do(func() {
		e.program, e.err = compile(abs, r)
	})
	return e.program, e.err
}

// Load evaluates the theme in vm and returns its default export, or the
// whole exports object when there is no truthy default export. Each call
// produces a fresh object.
func (l *Loader) Load(vm *goja.Runtime, path string, r *resolver.Resolver) (goja.Value, error) {
	program, err := l.Program(path, r)
	if err != nil {
		return nil, err
	}

	fnValue, err := vm.RunProgram(program)
	if err != nil {
		return nil, fmt.Errorf("failed to load theme %s: %w", path, err)
	}
	fn, ok := goja.AssertFunction(fnValue)
	if !ok {
		return nil, fmt.Errorf("theme %s did not compile to a module function", path)
	}

	module := vm.NewObject()
	exports := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, err
	}
	require := vm.Get("require")
	if require == nil {
		require = goja.Undefined()
	}
	if _, err := fn(goja.Undefined(), module, exports, require); err != nil {
		return nil, fmt.Errorf("theme %s threw: %w", path, err)
	}

	value := module.Get("exports")
	if obj, ok := value.(*goja.Object); ok {
		if def := obj.Get("default"); def != nil && def.ToBoolean() {
			return def, nil
		}
	}
	return value, nil
}

func compile(path string, r *resolver.Resolver) (*goja.Program, error) {
	var (
		script string
		err    error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case isTokensFile(path):
		script, err = dataScript(path, decodeTokens)
	case ext == ".json", ext == ".jsonc":
		script, err = dataScript(path, decodeJSON)
	case ext == ".yaml", ext == ".yml":
		script, err = dataScript(path, decodeYAML)
	default:
		script, err = transpile.Bundle(transpile.Options{Filename: path, Resolver: r})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compile theme %s: %w", path, err)
	}

	program, err := goja.Compile(path, transpile.Wrap(script), false)
	if err != nil {
		return nil, fmt.Errorf("failed to compile theme %s: %w", path, err)
	}
	return program, nil
}

// dataScript reads a data theme and renders it as a module assigning its
// JSON form to module.exports.
func dataScript(path string, decode func([]byte) ([]byte, error)) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: theme path comes from project configuration
	if err != nil {
		return "", err
	}
	encoded, err := decode(data)
	if err != nil {
		return "", err
	}
	return "module.exports = " + string(encoded) + ";", nil
}

func decodeJSON(data []byte) ([]byte, error) {
	data = jsonc.ToJSON(data)
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	return data, nil
}

func decodeYAML(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
