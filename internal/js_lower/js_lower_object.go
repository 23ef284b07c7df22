package js_lower

import (
	"github.com/lowerjs/lowerjs/internal/compat"
	"github.com/lowerjs/lowerjs/internal/js_ast"
)

// Runs bottom-up over the whole file. Classes and object literals nested in
// other syntax are lowered before the syntax that contains them.
func (l *lowerer) lowerSyntax(stmts []js_ast.Stmt) []js_ast.Stmt {
	l.collectDeclNames(stmts)
	r := &js_ast.Rewriter{
		Order: js_ast.BottomUp,
		Stmt:  l.lowerStmt,
		Expr:  l.lowerExpr,
	}
	stmts = r.RewriteStmts(stmts)
	if l.module != nil {
		l.module.rewriteDeferredValues(r.RewriteExpr)
	}
	return stmts
}

func (l *lowerer) lowerStmt(stmt js_ast.Stmt) []js_ast.Stmt {
	if s, ok := stmt.Data.(*js_ast.SLocal); ok && l.options.UnsupportedJSFeatures.Has(compat.FunctionNameInference) {
		return []js_ast.Stmt{l.nameFunctionsInDecls(stmt, s)}
	}
	return l.lowerClassStmt(stmt)
}

func (l *lowerer) lowerExpr(expr js_ast.Expr) js_ast.Expr {
	switch e := expr.Data.(type) {
	case *js_ast.EClass:
		return l.lowerClassExpr(expr)

	case *js_ast.EObject:
		if l.options.UnsupportedJSFeatures.Has(compat.ObjectExtensions) {
			return l.lowerObjectExtensions(expr, e)
		}
	}
	return expr
}

// "{ a, b() {} }" => "{ a: a, b: function b() {} }"
func (l *lowerer) lowerObjectExtensions(expr js_ast.Expr, e *js_ast.EObject) js_ast.Expr {
	changed := false
	properties := make([]js_ast.Property, len(e.Properties))

	for i, property := range e.Properties {
		if property.WasShorthand {
			property.WasShorthand = false
			changed = true
		}

		if property.IsMethod && property.Kind == js_ast.PropertyNormal {
			if fn, ok := property.ValueOrNil.Data.(*js_ast.EFunction); ok {
				if usesSuper(fn.Fn) {
					l.unsupported(property.Key.Loc, "\"super\" in an object method")
				}
				lowered := fn.Fn
				if name := keyName(property.Key); !property.IsComputed && lowered.Name == nil &&
					js_ast.IsValidBindingName(name) && !fnMentionsName(lowered, name) {
					lowered.Name = &js_ast.LocName{Loc: property.Key.Loc, Name: name}
				}
				property.ValueOrNil = js_ast.Expr{Loc: property.ValueOrNil.Loc, Data: &js_ast.EFunction{Fn: lowered}}
			}
			property.IsMethod = false
			changed = true
		}

		properties[i] = property
	}

	if !changed {
		return expr
	}
	return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EObject{Properties: properties}}
}

// "var f = function() {}" => "var f = function f() {}"
//
// Older runtimes leave the "name" property of an anonymous function empty.
// The name is only added when nothing inside the function would see it.
func (l *lowerer) nameFunctionsInDecls(stmt js_ast.Stmt, s *js_ast.SLocal) js_ast.Stmt {
	var decls []js_ast.Decl
	for i, decl := range s.Decls {
		id, ok := decl.Binding.Data.(*js_ast.BIdentifier)
		if !ok {
			continue
		}
		fn, ok := decl.ValueOrNil.Data.(*js_ast.EFunction)
		if !ok || fn.Fn.Name != nil || l.strictFns[fn] || fnMentionsName(fn.Fn, id.Name) {
			continue
		}
		if decls == nil {
			decls = append([]js_ast.Decl{}, s.Decls...)
		}
		named := fn.Fn
		named.Name = &js_ast.LocName{Loc: decl.Binding.Loc, Name: id.Name}
		decls[i].ValueOrNil = js_ast.Expr{Loc: decl.ValueOrNil.Loc, Data: &js_ast.EFunction{Fn: named}}
	}

	if decls == nil {
		return stmt
	}
	clone := *s
	clone.Decls = decls
	return js_ast.Stmt{Loc: stmt.Loc, Data: &clone}
}

func usesSuper(fn js_ast.Fn) bool {
	found := false
	var r *js_ast.Rewriter
	r = &js_ast.Rewriter{
		Order: js_ast.TopDown,
		Enter: func(scope js_ast.ScopeInfo) bool {
			return scope.Kind != js_ast.ScopeClassBody
		},
		Expr: func(expr js_ast.Expr) js_ast.Expr {
			switch expr.Data.(type) {
			case *js_ast.EFunction:
				r.SkipChildren()
			case *js_ast.ESuper:
				found = true
			}
			return expr
		},
	}
	for _, arg := range fn.Args {
		r.RewriteExpr(arg.DefaultOrNil)
	}
	r.RewriteStmts(fn.Body.Stmts)
	return found
}
