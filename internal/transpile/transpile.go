// Package transpile wraps esbuild: it strips type syntax from TypeScript
// modules and bundles modules into CommonJS for the sandbox.
package transpile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/ricokahler/flair/internal/resolver"
)

// Error carries the formatted esbuild diagnostics of a failed transform
type Error struct {
	Filename string
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s: transform failed", e.Filename)
	}
	return strings.TrimSpace(strings.Join(e.Messages, "\n"))
}

// Options configures Bundle
type Options struct {
	// Filename is the module path. It picks the loader and, when Contents is
	// empty, is the entry point itself.
	Filename string
	// Contents replaces the file's own text when non-empty
	Contents string
	// Resolver maps bare specifiers; bare specifiers it cannot place stay external
	Resolver *resolver.Resolver
}

// Wrap turns a CommonJS script into a function expression taking
// (module, exports, require).
func Wrap(script string) string {
	return "(function (module, exports, require) {\n" + script + "\n})"
}

// StripTypes removes TypeScript syntax from .ts/.tsx sources and returns
// other sources unchanged. JSX and ES module syntax are preserved.
func StripTypes(source, filename string) (string, error) {
	loader, ok := typedLoaders[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return source, nil
	}
	result := api.Transform(source, api.TransformOptions{
		Loader:     loader,
		Target:     api.ESNext,
		JSX:        api.JSXPreserve,
		Sourcefile: filename,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", newError(filename, result.Errors)
	}
	return string(result.Code), nil
}

// Bundle produces a single CommonJS script for the module. The script
// expects `module`, `exports` and `require` in scope.
func Bundle(opts Options) (string, error) {
	build := api.BuildOptions{
		Bundle:   true,
		Write:    false,
		Format:   api.FormatCommonJS,
		Platform: api.PlatformNode,
		Target:   api.ES2015,
		LogLevel: api.LogLevelSilent,
		Outdir:   filepath.Join(filepath.Dir(opts.Filename), ".flair-out"),
		Define: map[string]string{
			"process.env.NODE_ENV": `"production"`,
		},
		Loader:  assetLoaders(),
		Plugins: []api.Plugin{resolvePlugin(opts.Resolver)},
	}
	if opts.Contents != "" {
		build.Stdin = &api.StdinOptions{
			Contents:   opts.Contents,
			ResolveDir: filepath.Dir(opts.Filename),
			Sourcefile: opts.Filename,
			Loader:     loaderFor(opts.Filename),
		}
	} else {
		build.EntryPoints = []string{opts.Filename}
	}

	result := api.Build(build)
	if len(result.Errors) > 0 {
		return "", newError(opts.Filename, result.Errors)
	}
	for _, out := range result.OutputFiles {
		if strings.HasSuffix(out.Path, ".js") {
			return string(out.Contents), nil
		}
	}
	return "", &Error{Filename: opts.Filename, Messages: []string{"bundle produced no script output"}}
}

var typedLoaders = map[string]api.Loader{
	".ts":  api.LoaderTS,
	".mts": api.LoaderTS,
	".cts": api.LoaderTS,
	".tsx": api.LoaderTSX,
}

func loaderFor(filename string) api.Loader {
	if l, ok := typedLoaders[strings.ToLower(filepath.Ext(filename))]; ok {
		return l
	}
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return api.LoaderJSON
	}
	return api.LoaderJSX
}

// assetLoaders lets plain .js files carry JSX and turns non-script imports
// into empty modules.
func assetLoaders() map[string]api.Loader {
	loaders := map[string]api.Loader{
		".js":  api.LoaderJSX,
		".mjs": api.LoaderJSX,
		".cjs": api.LoaderJSX,
	}
	for _, ext := range []string{".css", ".scss", ".sass", ".less", ".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".woff", ".woff2", ".ttf", ".eot"} {
		loaders[ext] = api.LoaderEmpty
	}
	return loaders
}

func resolvePlugin(r *resolver.Resolver) api.Plugin {
	return api.Plugin{
		Name: "flair-resolve",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^[^./]`}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if filepath.IsAbs(args.Path) || args.Kind == api.ResolveEntryPoint {
					return api.OnResolveResult{}, nil
				}
				for _, candidate := range r.Candidates(args.Path) {
					if !filepath.IsAbs(candidate) {
						return api.OnResolveResult{Path: candidate, External: true}, nil
					}
					res := build.Resolve(candidate, api.ResolveOptions{
						Importer:   args.Importer,
						ResolveDir: args.ResolveDir,
						Kind:       args.Kind,
					})
					if len(res.Errors) == 0 {
						return api.OnResolveResult{Path: res.Path, Namespace: res.Namespace}, nil
					}
				}
				return api.OnResolveResult{Path: args.Path, External: true}, nil
			})
		},
	}
}

func newError(filename string, msgs []api.Message) *Error {
	return &Error{
		Filename: filename,
		Messages: api.FormatMessages(msgs, api.FormatMessagesOptions{Kind: api.ErrorMessage}),
	}
}
