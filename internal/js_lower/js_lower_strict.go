package js_lower

import (
	"github.com/lowerjs/lowerjs/internal/js_ast"
)

// Class bodies are always strict mode code. A lowered class is a plain
// function, so it needs its own directive when the surrounding file isn't
// strict. Running this twice produces the same tree.
func (l *lowerer) insertStrictDirectives(stmts []js_ast.Stmt) []js_ast.Stmt {
	if len(l.strictFns) == 0 {
		return stmts
	}
	r := l.strictRewriter()
	stmts = r.RewriteStmts(stmts)
	if l.module != nil {
		l.module.rewriteDeferredValues(r.RewriteExpr)
	}
	return stmts
}

func (l *lowerer) strictRewriter() *js_ast.Rewriter {
	return &js_ast.Rewriter{
		Order: js_ast.TopDown,
		Expr: func(expr js_ast.Expr) js_ast.Expr {
			if e, ok := expr.Data.(*js_ast.EFunction); ok && l.strictFns[e] {
				if !hasLeadingDirective(e.Fn.Body.Stmts, "use strict") {
					fn := e.Fn
					fn.Body.Stmts = append([]js_ast.Stmt{js_ast.DirectiveStmt(fn.Body.Loc, "use strict")}, fn.Body.Stmts...)
					return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EFunction{Fn: fn}}
				}
			}
			return expr
		},
	}
}
