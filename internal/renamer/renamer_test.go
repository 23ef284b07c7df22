package renamer

import (
	"testing"

	"github.com/lowerjs/lowerjs/internal/js_ast"
	"github.com/lowerjs/lowerjs/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareSyntheticCounts(t *testing.T) {
	a := NewAllocator(nil)
	assert.Equal(t, "_proto", a.DeclareSynthetic("_proto"))
	assert.Equal(t, "_proto2", a.DeclareSynthetic("_proto"))
	assert.Equal(t, "_proto3", a.DeclareSynthetic("_proto"))

	kind, ok := a.Lookup("_proto2")
	require.True(t, ok)
	assert.Equal(t, BindingSynthetic, kind)
}

func TestDeclareSyntheticAvoidsReserved(t *testing.T) {
	a := NewAllocator(map[string]BindingKind{"_this": BindingReserved, "_this2": BindingReserved})
	assert.Equal(t, "_this3", a.DeclareSynthetic("_this"))
}

func TestNestedScopeSeesParent(t *testing.T) {
	a := NewAllocator(nil)
	assert.Equal(t, "_key", a.DeclareSynthetic("_key"))

	a.EnterScope()
	assert.Equal(t, "_key2", a.DeclareSynthetic("_key"))
	a.Declare("local", BindingParameter)
	a.ExitScope()

	_, ok := a.Lookup("local")
	assert.False(t, ok)
	_, ok = a.Lookup("_key2")
	assert.False(t, ok)
}

func TestSiblingScopesReuseNames(t *testing.T) {
	a := NewAllocator(nil)

	a.EnterScope()
	assert.Equal(t, "_proto", a.DeclareSynthetic("_proto"))
	a.ExitScope()

	a.EnterScope()
	assert.Equal(t, "_proto", a.DeclareSynthetic("_proto"))
	a.ExitScope()
}

func TestRootSyntheticAvoidsNestedNames(t *testing.T) {
	a := NewAllocator(nil)

	a.EnterScope()
	assert.Equal(t, "_super", a.DeclareSynthetic("_super"))
	a.ExitScope()

	// A top-level "_super" would be shadowed inside the closure above
	assert.Equal(t, "_super2", a.DeclareRootSynthetic("_super"))

	// Nested scopes now see the root name as taken
	a.EnterScope()
	assert.Equal(t, "_class_call_check", a.DeclareRootSynthetic("_class_call_check"))
	assert.Equal(t, "_class_call_check2", a.DeclareSynthetic("_class_call_check"))
	a.ExitScope()

	kind, ok := a.Lookup("_class_call_check")
	require.True(t, ok)
	assert.Equal(t, BindingSynthetic, kind)
}

func TestRootSyntheticAvoidsOpenScopes(t *testing.T) {
	a := NewAllocator(nil)
	a.EnterScope()
	a.Declare("_inherits", BindingParameter)
	assert.Equal(t, "_inherits2", a.DeclareRootSynthetic("_inherits"))
	a.ExitScope()
}

func TestExitTopLevelScope(t *testing.T) {
	a := NewAllocator(nil)
	assert.PanicsWithError(t, "Cannot exit the top-level scope", func() {
		a.ExitScope()
	})
}

func TestComputeReservedNames(t *testing.T) {
	loc := logger.Loc{}
	stmts := []js_ast.Stmt{
		{Data: &js_ast.SImport{
			DefaultName: &js_ast.LocName{Name: "Def"},
			Items:       &[]js_ast.ClauseItem{{Alias: "x", Name: js_ast.LocName{Name: "localX"}}},
			Path:        "./m",
		}},
		js_ast.VarStmt(loc, "_proto", js_ast.Ident(loc, "used")),
		{Data: &js_ast.SFunction{Fn: js_ast.Fn{
			Name: &js_ast.LocName{Name: "f"},
			Args: []js_ast.Arg{{Binding: js_ast.Binding{Data: &js_ast.BIdentifier{Name: "param"}}}},
			Body: js_ast.FnBody{Stmts: []js_ast.Stmt{
				js_ast.VarStmt(loc, "inner", js_ast.Expr{}),
			}},
		}}},
	}

	names := ComputeReservedNames(stmts)
	for _, name := range []string{"Def", "localX", "_proto", "used", "f", "param", "inner", "class", "let", "require", "exports"} {
		_, ok := names[name]
		assert.True(t, ok, "expected %q to be reserved", name)
	}
	_, ok := names["x"]
	assert.False(t, ok)

	a := NewAllocator(names)
	assert.Equal(t, "_proto2", a.DeclareSynthetic("_proto"))
}

func TestDeclareRefinesReservedName(t *testing.T) {
	a := NewAllocator(map[string]BindingKind{"x": BindingReserved, "y": BindingReserved})
	a.Declare("x", BindingImport)

	a.EnterScope()
	a.Declare("y", BindingParameter)
	kind, ok := a.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, BindingImport, kind)
	kind, _ = a.Lookup("y")
	assert.Equal(t, BindingParameter, kind)

	// Declaring a name never frees it for synthetic use
	assert.Equal(t, "y2", a.DeclareSynthetic("y"))
	a.ExitScope()

	kind, _ = a.Lookup("y")
	assert.Equal(t, BindingReserved, kind)
}

func TestBindingKindString(t *testing.T) {
	assert.Equal(t, "import", BindingImport.String())
	assert.Equal(t, "reserved", BindingReserved.String())
}
