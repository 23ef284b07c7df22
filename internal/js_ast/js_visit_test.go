package js_ast

import (
	"testing"

	"github.com/lowerjs/lowerjs/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ident(name string) Expr {
	return Ident(logger.Loc{}, name)
}

func identName(t *testing.T, expr Expr) string {
	t.Helper()
	id, ok := expr.Data.(*EIdentifier)
	require.True(t, ok, "expected an identifier but found %T", expr.Data)
	return id.Name
}

func TestRewriteDoesNotMutateInput(t *testing.T) {
	sum := Expr{Data: &EBinary{Op: BinOpAdd, Left: ident("a"), Right: ident("b")}}
	stmts := []Stmt{ExprStmt(sum)}

	r := Rewriter{Order: TopDown, Expr: func(expr Expr) Expr {
		if id, ok := expr.Data.(*EIdentifier); ok && id.Name == "a" {
			return ident("renamed")
		}
		return expr
	}}
	result := r.RewriteStmts(stmts)

	rewritten := result[0].Data.(*SExpr).Value.Data.(*EBinary)
	assert.Equal(t, "renamed", identName(t, rewritten.Left))
	assert.Equal(t, "b", identName(t, rewritten.Right))

	original := stmts[0].Data.(*SExpr).Value.Data.(*EBinary)
	assert.Equal(t, "a", identName(t, original.Left))
	assert.NotSame(t, original, rewritten)
}

func TestRewriteOrder(t *testing.T) {
	sum := Expr{Data: &EBinary{Op: BinOpAdd, Left: ident("a"), Right: ident("b")}}

	visitOrder := func(order Order) (names []string) {
		r := Rewriter{Order: order, Expr: func(expr Expr) Expr {
			switch e := expr.Data.(type) {
			case *EIdentifier:
				names = append(names, e.Name)
			case *EBinary:
				names = append(names, "+")
			}
			return expr
		}}
		r.RewriteExpr(sum)
		return
	}

	assert.Equal(t, []string{"+", "a", "b"}, visitOrder(TopDown))
	assert.Equal(t, []string{"a", "b", "+"}, visitOrder(BottomUp))
}

func TestRewriteTopDownVisitsReplacement(t *testing.T) {
	var seen []string
	r := Rewriter{Order: TopDown, Expr: func(expr Expr) Expr {
		if id, ok := expr.Data.(*EIdentifier); ok {
			seen = append(seen, id.Name)
			if id.Name == "x" {
				return Call(ident("wrap"), ident("y"))
			}
		}
		return expr
	}}
	r.RewriteExpr(ident("x"))
	assert.Equal(t, []string{"x", "wrap", "y"}, seen)
}

func TestRewriteSkipChildren(t *testing.T) {
	var seen []string
	var r Rewriter
	r = Rewriter{Order: TopDown, Expr: func(expr Expr) Expr {
		switch e := expr.Data.(type) {
		case *ECall:
			r.SkipChildren()
		case *EIdentifier:
			seen = append(seen, e.Name)
		}
		return expr
	}}
	r.RewriteExpr(Expr{Data: &EArray{Items: []Expr{Call(ident("f"), ident("a")), ident("b")}}})
	assert.Equal(t, []string{"b"}, seen)
}

func TestRewriteSingleStmtPositions(t *testing.T) {
	ifStmt := Stmt{Data: &SIf{
		Test:    ident("test"),
		Yes:     ExprStmt(ident("yes")),
		NoOrNil: ExprStmt(ident("no")),
	}}

	r := Rewriter{Order: BottomUp, Stmt: func(stmt Stmt) []Stmt {
		if expr, ok := stmt.Data.(*SExpr); ok {
			switch identName(t, expr.Value) {
			case "yes":
				return []Stmt{stmt, ExprStmt(ident("extra"))}
			case "no":
				return nil
			}
		}
		return []Stmt{stmt}
	}}
	result := r.RewriteStmts([]Stmt{ifStmt})
	require.Len(t, result, 1)

	s := result[0].Data.(*SIf)
	block, ok := s.Yes.Data.(*SBlock)
	require.True(t, ok)
	assert.Len(t, block.Stmts, 2)
	_, ok = s.NoOrNil.Data.(*SEmpty)
	assert.True(t, ok)
}

func TestRewriteStructuralErrors(t *testing.T) {
	t.Run("empty expression", func(t *testing.T) {
		r := Rewriter{Order: BottomUp, Expr: func(expr Expr) Expr { return Expr{} }}
		assert.PanicsWithError(t, "An expression was replaced with an empty node", func() {
			r.RewriteExpr(ident("x"))
		})
	})

	t.Run("empty statement", func(t *testing.T) {
		r := Rewriter{Order: BottomUp, Stmt: func(stmt Stmt) []Stmt { return []Stmt{{}} }}
		assert.PanicsWithError(t, "A statement was replaced with an empty node", func() {
			r.RewriteStmts([]Stmt{ExprStmt(ident("x"))})
		})
	})

	t.Run("nested import", func(t *testing.T) {
		fn := Stmt{Data: &SFunction{Fn: Fn{
			Name: &LocName{Name: "f"},
			Body: FnBody{Stmts: []Stmt{ExprStmt(ident("x"))}},
		}}}
		r := Rewriter{Order: BottomUp, Stmt: func(stmt Stmt) []Stmt {
			if _, ok := stmt.Data.(*SExpr); ok {
				return []Stmt{{Data: &SImport{Path: "./foo"}}}
			}
			return []Stmt{stmt}
		}}
		assert.PanicsWithError(t, "Module declarations can only appear at the top level", func() {
			r.RewriteStmts([]Stmt{fn})
		})
	})

	t.Run("top-level import", func(t *testing.T) {
		r := Rewriter{Order: BottomUp, Stmt: func(stmt Stmt) []Stmt {
			return []Stmt{{Data: &SImport{Path: "./foo"}}}
		}}
		assert.NotPanics(t, func() {
			r.RewriteStmts([]Stmt{ExprStmt(ident("x"))})
		})
	})

	t.Run("loop initializer", func(t *testing.T) {
		loop := Stmt{Data: &SFor{
			InitOrNil: VarStmt(logger.Loc{}, "i", Expr{Data: &ENumber{Value: 0}}),
			Body:      Stmt{Data: &SEmpty{}},
		}}
		r := Rewriter{Order: BottomUp, Stmt: func(stmt Stmt) []Stmt {
			if _, ok := stmt.Data.(*SLocal); ok {
				return []Stmt{stmt, stmt}
			}
			return []Stmt{stmt}
		}}
		assert.PanicsWithError(t, "A loop initializer was replaced with 2 statements", func() {
			r.RewriteStmts([]Stmt{loop})
		})
	})

	t.Run("assignment target", func(t *testing.T) {
		assign := Assign(ident("x"), ident("y"))
		r := Rewriter{Order: BottomUp, Expr: func(expr Expr) Expr {
			if id, ok := expr.Data.(*EIdentifier); ok && id.Name == "x" {
				return Call(ident("f"))
			}
			return expr
		}}
		assert.PanicsWithError(t, "The left side of \"=\" must be an assignment target", func() {
			r.RewriteExpr(assign)
		})
	})
}

func TestRewriteScopes(t *testing.T) {
	fn := Stmt{Data: &SFunction{Fn: Fn{
		Name: &LocName{Name: "outer"},
		Args: []Arg{{Binding: Binding{Data: &BIdentifier{Name: "a"}}}},
		Body: FnBody{Stmts: []Stmt{
			VarStmt(logger.Loc{}, "v", Expr{}),
			{Data: &SBlock{Stmts: []Stmt{
				{Data: &SLocal{Kind: LocalLet, Decls: []Decl{{Binding: Binding{Data: &BIdentifier{Name: "inner"}}}}}},
			}}},
		}},
	}}}

	type event struct {
		enter bool
		kind  ScopeKind
		names []string
	}
	var events []event
	r := Rewriter{
		Order: TopDown,
		Enter: func(scope ScopeInfo) bool {
			events = append(events, event{enter: true, kind: scope.Kind, names: scope.Names})
			return true
		},
		Exit: func(scope ScopeInfo) {
			events = append(events, event{kind: scope.Kind})
		},
	}
	r.RewriteStmts([]Stmt{fn})

	require.Len(t, events, 4)
	assert.Equal(t, event{enter: true, kind: ScopeFunction, names: []string{"a", "v"}}, events[0])
	assert.Equal(t, event{enter: true, kind: ScopeBlock, names: []string{"inner"}}, events[1])
	assert.Equal(t, event{kind: ScopeBlock}, events[2])
	assert.Equal(t, event{kind: ScopeFunction}, events[3])
}

func TestRewriteEnterCanSkipScope(t *testing.T) {
	var seen []string
	r := Rewriter{
		Order: TopDown,
		Expr: func(expr Expr) Expr {
			if id, ok := expr.Data.(*EIdentifier); ok {
				seen = append(seen, id.Name)
			}
			return expr
		},
		Enter: func(scope ScopeInfo) bool { return scope.Kind != ScopeArrow },
	}
	arrow := Expr{Data: &EArrow{Body: FnBody{Stmts: []Stmt{{Data: &SReturn{ValueOrNil: ident("hidden")}}}}}}
	r.RewriteExpr(Expr{Data: &EArray{Items: []Expr{arrow, ident("visible")}}})
	assert.Equal(t, []string{"visible"}, seen)
}

func TestDeclaredNames(t *testing.T) {
	stmts := []Stmt{
		VarStmt(logger.Loc{}, "a", Expr{}),
		{Data: &SLocal{Kind: LocalConst, Decls: []Decl{{Binding: Binding{Data: &BObject{Properties: []PropertyBinding{
			{Key: StringExpr(logger.Loc{}, "x"), Value: Binding{Data: &BIdentifier{Name: "b"}}},
		}}}}}}},
		{Data: &SClass{Class: Class{Name: &LocName{Name: "C"}}}},
		{Data: &SIf{Test: ident("t"), Yes: VarStmt(logger.Loc{}, "c", Expr{})}},
		{Data: &SFunction{Fn: Fn{Name: &LocName{Name: "f"}, Body: FnBody{Stmts: []Stmt{VarStmt(logger.Loc{}, "hidden", Expr{})}}}}},
	}
	assert.Equal(t, []string{"b", "C", "f"}, LexicallyDeclaredNames(stmts))
	assert.Equal(t, []string{"a", "c"}, VarDeclaredNames(stmts))
}

func TestGenerateNonUniqueNameFromPath(t *testing.T) {
	assert.Equal(t, "rectangle", GenerateNonUniqueNameFromPath("./rectangle"))
	assert.Equal(t, "foo_bar", GenerateNonUniqueNameFromPath("./foo-bar.js"))
	assert.Equal(t, "lib", GenerateNonUniqueNameFromPath("./lib/index.js"))
	assert.Equal(t, "x2", GenerateNonUniqueNameFromPath("../x2.mjs"))
	assert.Equal(t, "_", GenerateNonUniqueNameFromPath("./123"))
}

func TestReadsNoBindings(t *testing.T) {
	number := Expr{Data: &ENumber{Value: 1}}
	assert.True(t, ReadsNoBindings(number))
	assert.True(t, ReadsNoBindings(Expr{Data: &EFunction{}}))
	assert.True(t, ReadsNoBindings(Expr{Data: &EArray{Items: []Expr{number, StringExpr(logger.Loc{}, "a")}}}))
	assert.True(t, ReadsNoBindings(Expr{Data: &EUnary{Op: UnOpNeg, Value: number}}))
	assert.False(t, ReadsNoBindings(ident("x")))
	assert.False(t, ReadsNoBindings(Expr{Data: &EThis{}}))
	assert.False(t, ReadsNoBindings(Expr{Data: &EUnary{Op: UnOpTypeof, Value: ident("x")}}))
	assert.False(t, ReadsNoBindings(Expr{Data: &EArray{Items: []Expr{number, ident("a")}}}))
	assert.False(t, ReadsNoBindings(Expr{Data: &EObject{Properties: []Property{
		{Key: StringExpr(logger.Loc{}, "a"), ValueOrNil: ident("a"), WasShorthand: true},
	}}}))
	assert.False(t, ReadsNoBindings(Call(ident("f"))))
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("_proto"))
	assert.True(t, IsIdentifier("$"))
	assert.False(t, IsIdentifier("1a"))
	assert.False(t, IsIdentifier(""))
	assert.False(t, IsIdentifier("a-b"))
	assert.False(t, IsValidBindingName("class"))
	assert.False(t, IsValidBindingName("await"))
	assert.True(t, IsValidBindingName("Rectangle"))
}
