package js_lower

import (
	"github.com/lowerjs/lowerjs/internal/config"
	"github.com/lowerjs/lowerjs/internal/js_ast"
	"github.com/lowerjs/lowerjs/internal/logger"
	"github.com/lowerjs/lowerjs/internal/renamer"
)

type helperInjector struct {
	catalog HelperCatalog
	names   *renamer.Allocator
	mode    config.HelperMode

	// Helper names in the order they were first requested
	order []string

	// Maps a helper name to the local binding that refers to it
	locals map[string]string
}

func newHelperInjector(catalog HelperCatalog, names *renamer.Allocator, mode config.HelperMode) *helperInjector {
	return &helperInjector{
		catalog: catalog,
		names:   names,
		mode:    mode,
		locals:  make(map[string]string),
	}
}

// Returns a reference to the helper, to be used as a call target. Asking for
// the same helper twice returns the same binding.
func (h *helperInjector) request(loc logger.Loc, name string) js_ast.Expr {
	local, ok := h.locals[name]
	if !ok {
		if _, ok := h.catalog.ImportPath(name); !ok {
			js_ast.PanicStructural(loc, "Unknown helper %q", name)
		}
		local = h.localFor(name)
		h.order = append(h.order, name)
	}
	return js_ast.Ident(loc, local)
}

func (h *helperInjector) call(loc logger.Loc, name string, args ...js_ast.Expr) js_ast.Expr {
	return js_ast.Expr{Loc: loc, Data: &js_ast.ECall{Target: h.request(loc, name), Args: args}}
}

func (h *helperInjector) localFor(name string) string {
	local, ok := h.locals[name]
	if !ok {
		local = h.names.DeclareRootSynthetic("_" + name)
		h.locals[name] = local
	}
	return local
}

// The statements that make the requested helpers available, in request
// order. Inlined helpers come after the helpers they depend on.
func (h *helperInjector) stmts() []js_ast.Stmt {
	var stmts []js_ast.Stmt

	if h.mode == config.HelpersImport {
		for _, name := range h.order {
			path, _ := h.catalog.ImportPath(name)
			stmts = append(stmts, js_ast.Stmt{Data: &js_ast.SImport{
				DefaultName: &js_ast.LocName{Name: h.locals[name]},
				Path:        path,
			}})
		}
		return stmts
	}

	emitted := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		if emitted[name] {
			return
		}
		emitted[name] = true
		fn, deps, ok := h.catalog.Definition(name)
		if !ok {
			js_ast.PanicStructural(logger.Loc{}, "Unknown helper %q", name)
		}
		for _, dep := range deps {
			visit(dep)
		}
		stmts = append(stmts, js_ast.Stmt{Data: &js_ast.SFunction{Fn: h.localizeDefinition(name, fn, deps)}})
	}
	for _, name := range h.order {
		visit(name)
	}
	return stmts
}

// Helper code refers to itself and its dependencies by their canonical names.
// Those are renamed if the file already uses one of them.
func (h *helperInjector) localizeDefinition(name string, fn js_ast.Fn, deps []string) js_ast.Fn {
	renames := make(map[string]string)
	for _, helper := range append([]string{name}, deps...) {
		if local := h.localFor(helper); local != "_"+helper {
			renames["_"+helper] = local
		}
	}

	fn.Name = &js_ast.LocName{Loc: fn.Name.Loc, Name: h.localFor(name)}
	if len(renames) == 0 {
		return fn
	}

	r := js_ast.Rewriter{
		Order: js_ast.TopDown,
		Expr: func(expr js_ast.Expr) js_ast.Expr {
			if id, ok := expr.Data.(*js_ast.EIdentifier); ok {
				if local, ok := renames[id.Name]; ok {
					return js_ast.Ident(expr.Loc, local)
				}
			}
			return expr
		},
	}
	fn.Body.Stmts = r.RewriteStmts(fn.Body.Stmts)
	return fn
}
