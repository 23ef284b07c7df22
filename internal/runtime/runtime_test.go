package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowerjs/lowerjs/internal/js_ast"
	"github.com/lowerjs/lowerjs/internal/js_printer"
	"github.com/lowerjs/lowerjs/internal/test"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	require.Same(t, catalog, DefaultCatalog())

	names := catalog.Names()
	require.Len(t, names, len(Helpers))
	assert.Equal(t, "class_call_check", names[0])

	path, ok := catalog.ImportPath("class_call_check")
	require.True(t, ok)
	assert.Equal(t, "@swc/helpers/src/_class_call_check.mjs", path)

	_, ok = catalog.ImportPath("does_not_exist")
	assert.False(t, ok)

	for _, name := range names {
		fn, deps, ok := catalog.Definition(name)
		require.True(t, ok, name)
		require.NotNil(t, fn.Name, name)
		assert.Equal(t, "_"+name, fn.Name.Name)
		for _, dep := range deps {
			_, ok := catalog.Lookup(dep)
			assert.True(t, ok, "%s depends on %s", name, dep)
		}
	}
}

func TestWithRuntimePackage(t *testing.T) {
	catalog := DefaultCatalog().WithRuntimePackage("my-helpers")
	path, ok := catalog.ImportPath("inherits")
	require.True(t, ok)
	assert.Equal(t, "my-helpers/src/_inherits.mjs", path)
	assert.Equal(t, "my-helpers", catalog.RuntimePackage())

	// The shared catalog is unchanged
	path, _ = DefaultCatalog().ImportPath("inherits")
	assert.Equal(t, "@swc/helpers/src/_inherits.mjs", path)
	assert.Same(t, DefaultCatalog(), DefaultCatalog().WithRuntimePackage(""))
}

func TestSortedNames(t *testing.T) {
	names := DefaultCatalog().SortedNames()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "export_star")
}

func TestHelperPrints(t *testing.T) {
	fn, _, ok := DefaultCatalog().Definition("class_call_check")
	require.True(t, ok)
	js := js_printer.Print(js_ast.AST{Stmts: []js_ast.Stmt{{Data: &js_ast.SFunction{Fn: fn}}}}).JS
	test.AssertEqualWithDiff(t, string(js), `function _class_call_check(instance, Constructor) {
    if (!(instance instanceof Constructor)) {
        throw new TypeError("Cannot call a class as a function");
    }
}
`)
}

func TestNewCatalogErrors(t *testing.T) {
	check := func(helpers []Helper, expected string) {
		t.Helper()
		_, err := NewCatalog("pkg", helpers)
		require.Error(t, err)
		assert.Contains(t, err.Error(), expected)
	}

	check([]Helper{
		{Name: "a", Code: "function _a() {}"},
		{Name: "a", Code: "function _a() {}"},
	}, `Duplicate helper "a"`)

	check([]Helper{
		{Name: "a", Deps: []string{"b"}, Code: "function _a() { _b() }"},
	}, `Helper "a" depends on unknown helper "b"`)

	check([]Helper{
		{Name: "a", Deps: []string{"b"}, Code: "function _a() { _b() }"},
		{Name: "b", Deps: []string{"a"}, Code: "function _b() { _a() }"},
	}, "Helper dependency cycle: a -> b -> a")

	check([]Helper{
		{Name: "a", Code: "function _b() {}"},
	}, `Helper "a" must be a single function named "_a"`)

	check([]Helper{
		{Name: "a", Code: "function _a() {"},
	}, `Failed to parse helper "a"`)
}

func TestNewCatalogDeps(t *testing.T) {
	catalog, err := NewCatalog("pkg", []Helper{
		{Name: "a", Code: "function _a() {}"},
		{Name: "b", Deps: []string{"a"}, Code: "function _b() { return _a() }"},
	})
	require.NoError(t, err)
	_, deps, ok := catalog.Definition("b")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, deps)

	helper, ok := catalog.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "b", helper.Name)
}
