package collect_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ricokahler/flair/collect"
	"github.com/ricokahler/flair/internal/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"src/Card.js",
		"src/Button.tsx",
		"src/types.d.ts",
		"src/Card.css",
		"node_modules/flair/index.js",
		"README.md",
	} {
		writeFile(t, root, name, "")
	}

	opts := collect.DefaultOptions()
	files, err := collect.Discover(root, opts.Include, opts.Exclude)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "src", "Button.tsx"),
		filepath.Join(root, "src", "Card.js"),
	}, files)

	files, err = collect.Discover(root, []string{"src/*.css"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "src", "Card.css")}, files)
}

func TestExtractAll(t *testing.T) {
	root := t.TempDir()
	files := []string{
		writeFile(t, root, "Card.js", cardSource),
		writeFile(t, root, "Broken.js", cardSource),
		writeFile(t, root, "Plain.js", "export const x = 1;\n"),
	}
	cause := errors.New("theme.missing is not a function")
	loader := &fakeLoader{
		defs:   cardDefinitions(),
		err:    &sandbox.Error{Stage: sandbox.StageEvaluation, Err: cause},
		failOn: "Broken.js",
	}

	results, err := collect.ExtractAll(context.Background(), files, collect.Options{ThemePath: "/theme.js", Loader: loader}, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, collect.ErrEvaluation)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Broken.js")

	require.Len(t, results, 3)
	require.NotNil(t, results[0])
	assert.False(t, results[0].Empty())
	assert.Nil(t, results[1], "failed files have no result")
	require.NotNil(t, results[2])
	assert.True(t, results[2].Empty())
}

func TestExtractAllSucceeds(t *testing.T) {
	root := t.TempDir()
	files := []string{
		writeFile(t, root, "a/Card.js", cardSource),
		writeFile(t, root, "b/Card.js", cardSource),
	}
	results, err := collect.ExtractAll(context.Background(), files, collect.Options{
		ThemePath: "/theme.js",
		Loader:    &fakeLoader{defs: cardDefinitions()},
	}, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotEqual(t, results[0].FilenameHash, results[1].FilenameHash)
}

func TestExtractAllEmpty(t *testing.T) {
	results, err := collect.ExtractAll(context.Background(), nil, collect.Options{ThemePath: "/theme.js"}, 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}
