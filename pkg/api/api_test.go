package api_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowerjs/lowerjs/pkg/api"
)

const rectangle = `
class Rectangle {
  constructor() {
    console.log("I'm a rectangle!");
  }
}
module.exports = { Rectangle };
`

const rectangleES5 = `import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var Rectangle = function Rectangle() {
    "use strict";
    _class_call_check(this, Rectangle);
    console.log("I'm a rectangle!");
};
module.exports = {
    Rectangle: Rectangle
};
`

func TestTransform(t *testing.T) {
	result := api.Transform(rectangle, api.TransformOptions{})
	require.Empty(t, result.Errors)
	assert.Equal(t, rectangleES5, string(result.JS))

	// Nothing needs lowering for the newest target
	result = api.Transform("class A {}\n", api.TransformOptions{Target: api.ESNext})
	require.Empty(t, result.Errors)
	assert.Equal(t, "class A {}\n", string(result.JS))
}

func TestTransformRuntimePackage(t *testing.T) {
	result := api.Transform("class A {}", api.TransformOptions{RuntimePackage: "my-helpers"})
	require.Empty(t, result.Errors)
	assert.Contains(t, string(result.JS), `import _class_call_check from "my-helpers/src/_class_call_check.mjs";`)

	result = api.Transform("class A {}", api.TransformOptions{Helpers: api.HelpersInline})
	require.Empty(t, result.Errors)
	assert.NotContains(t, string(result.JS), "import ")
	assert.Contains(t, string(result.JS), "function _class_call_check(")
}

func TestTransformErrors(t *testing.T) {
	result := api.Transform(`import { x } from "./m"; x = 1;`, api.TransformOptions{Sourcefile: "input.js"})
	assert.Nil(t, result.JS)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, `Cannot assign to import "x"`, result.Errors[0].Text)
	require.NotNil(t, result.Errors[0].Location)
	assert.Equal(t, "input.js", result.Errors[0].Location.File)
	assert.Equal(t, 1, result.Errors[0].Location.Line)

	result = api.Transform("class {", api.TransformOptions{})
	assert.Nil(t, result.JS)
	assert.NotEmpty(t, result.Errors)
}

func TestTransformInvalidOptions(t *testing.T) {
	result := api.Transform("class A {}", api.TransformOptions{Format: api.Format(99)})
	assert.Nil(t, result.JS)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Invalid format: 99", result.Errors[0].Text)

	result = api.Transform("class A {}", api.TransformOptions{RuntimePackage: "pkg/"})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, `Invalid runtime package: "pkg/"`, result.Errors[0].Text)
}

func TestTransformFiles(t *testing.T) {
	var files []api.File
	for i := 0; i < 20; i++ {
		files = append(files, api.File{
			Path:     fmt.Sprintf("file%d.js", i),
			Contents: fmt.Sprintf("class C%d {}", i),
		})
	}
	files = append(files, api.File{Path: "bad.js", Contents: "class {"})

	results, err := api.TransformFiles(context.Background(), files, api.TransformOptions{Parallelism: 4})
	require.NoError(t, err)
	require.Len(t, results, len(files))

	for i, result := range results[:20] {
		assert.Equal(t, files[i].Path, result.Path)
		assert.Empty(t, result.Errors)
		assert.Contains(t, string(result.JS), fmt.Sprintf("var C%d = function C%d() {", i, i))
	}

	// One file failing doesn't stop the others
	bad := results[20]
	assert.Equal(t, "bad.js", bad.Path)
	assert.Nil(t, bad.JS)
	require.NotEmpty(t, bad.Errors)
	require.NotNil(t, bad.Errors[0].Location)
	assert.Equal(t, "bad.js", bad.Errors[0].Location.File)
}

func TestTransformFilesInvalidOptions(t *testing.T) {
	files := []api.File{{Path: "a.js"}, {Path: "b.js"}}
	results, err := api.TransformFiles(context.Background(), files, api.TransformOptions{Target: api.Target(99)})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, result := range results {
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "Invalid target: 99", result.Errors[0].Text)
	}
}

func TestTransformFilesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := api.TransformFiles(ctx, []api.File{{Path: "a.js", Contents: "class A {}"}}, api.TransformOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}

func TestParseOptionValues(t *testing.T) {
	target, err := api.ParseTarget("es2015")
	require.NoError(t, err)
	assert.Equal(t, api.ES2015, target)
	assert.Equal(t, "es2015", target.String())

	_, err = api.ParseTarget("es3")
	assert.Error(t, err)

	format, err := api.ParseFormat("commonjs")
	require.NoError(t, err)
	assert.Equal(t, api.FormatCommonJS, format)
	_, err = api.ParseFormat("umd")
	assert.EqualError(t, err, `Invalid format "umd" (valid: cjs, esm)`)

	helpers, err := api.ParseHelperMode("inline")
	require.NoError(t, err)
	assert.Equal(t, api.HelpersInline, helpers)

	bindings, err := api.ParseImportBindings("snapshot")
	require.NoError(t, err)
	assert.Equal(t, api.ImportBindingsSnapshot, bindings)
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lowerjs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	options, err := api.LoadConfigFile(writeConfig(t, `
target: es2015
format: esm
helpers: inline
importBindings: snapshot
runtimePackage: "@acme/helpers"
strict: true
parallelism: 2
`))
	require.NoError(t, err)
	assert.Equal(t, api.TransformOptions{
		Target:         api.ES2015,
		Format:         api.FormatESModule,
		Helpers:        api.HelpersInline,
		ImportBindings: api.ImportBindingsSnapshot,
		RuntimePackage: "@acme/helpers",
		StrictFile:     true,
		Parallelism:    2,
	}, options)

	// An empty file means all defaults
	options, err = api.LoadConfigFile(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, api.TransformOptions{}, options)
}

func TestLoadConfigFileErrors(t *testing.T) {
	_, err := api.LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = api.LoadConfigFile(writeConfig(t, "format: umd\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Invalid value "umd" for "format"`)

	_, err = api.LoadConfigFile(writeConfig(t, "parallelism: -1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Invalid value "-1" for "parallelism"`)

	_, err = api.LoadConfigFile(writeConfig(t, "minify: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minify")
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	other := filepath.Join(dir, "b.js")
	require.NoError(t, os.WriteFile(path, []byte("class A {}"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mutex sync.Mutex
	var changes [][]string
	done := make(chan error, 1)
	go func() {
		done <- api.Watch(ctx, []string{path}, api.WatchOptions{
			OnChange: func(paths []string) {
				mutex.Lock()
				changes = append(changes, paths)
				mutex.Unlock()
			},
		})
	}()

	// The watch may not be registered yet, so keep writing until it's seen
	require.Eventually(t, func() bool {
		_ = os.WriteFile(other, []byte("ignored"), 0644)
		_ = os.WriteFile(path, []byte("class B {}"), 0644)
		mutex.Lock()
		defer mutex.Unlock()
		return len(changes) > 0
	}, 5*time.Second, 50*time.Millisecond)

	mutex.Lock()
	absPath, err := filepath.Abs(path)
	require.NoError(t, err)
	for _, paths := range changes {
		assert.Equal(t, []string{absPath}, paths)
	}
	mutex.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after the context was canceled")
	}
}
