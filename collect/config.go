package collect

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ricokahler/flair/internal/resolver"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// configKey is the package.json field holding project options
const configKey = "flair"

// configFiles are tried, in order, when package.json has no configKey
var configFiles = []string{
	".config/flair.yaml",
	".config/flair.yml",
	".config/flair.json",
}

// LoadOptions reads project options from rootPath. Relative paths in the
// configuration are resolved against rootPath. Returns nil, nil when the
// project has no configuration.
func LoadOptions(rootPath string) (*Options, error) {
	root, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", rootPath, err)
	}

	opts, err := readPackageJSON(root)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		if opts, err = readConfigFile(root); err != nil {
			return nil, err
		}
	}
	if opts == nil {
		return nil, nil
	}

	if opts.ThemePath != "" && !filepath.IsAbs(opts.ThemePath) {
		opts.ThemePath = filepath.Join(root, filepath.FromSlash(opts.ThemePath))
	}
	if opts.ModuleResolver != nil && opts.ModuleResolver.Cwd == "" {
		opts.ModuleResolver.Cwd = root
	}
	if err := opts.Palette.Validate(); err != nil {
		return nil, fmt.Errorf("invalid palette: %w", err)
	}
	return opts, nil
}

func readPackageJSON(root string) (*Options, error) {
	path := filepath.Join(root, "package.json")
	data, err := os.ReadFile(path) //nolint:gosec // G304: project package.json
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read package.json: %w", err)
	}

	var pkg map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}
	raw, ok := pkg[configKey]
	if !ok {
		return nil, nil
	}

	opts := DefaultOptions()
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("package.json %q must be an object: %w", configKey, err)
	}
	return &opts, nil
}

func readConfigFile(root string) (*Options, error) {
	for _, name := range configFiles {
		path := filepath.Join(root, filepath.FromSlash(name))
		data, err := os.ReadFile(path) //nolint:gosec // G304: project config file
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		opts := DefaultOptions()
		if filepath.Ext(name) == ".json" {
			err = json.Unmarshal(jsonc.ToJSON(data), &opts)
		} else {
			err = yaml.Unmarshal(data, &opts)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		return &opts, nil
	}
	return nil, nil
}

// resolverFor builds the module resolver for opts
func resolverFor(cfg *resolver.Config) (*resolver.Resolver, error) {
	r, err := resolver.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid moduleResolver: %w", err)
	}
	return r, nil
}
