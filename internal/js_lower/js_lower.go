package js_lower

// This package rewrites a parsed file into code for an older runtime. Passes
// run in a fixed order over one file:
//
//   1. The module scan removes import and export syntax (CommonJS only)
//   2. Syntax lowering rewrites classes and object literals
//   3. Closures produced by class lowering get a "use strict" directive
//   4. Finalization adds "require()" calls, export assignments, and helpers
//
// Each run owns its own name allocator, helper set, and module record. The
// only state shared between runs is the helper catalog, which is read-only.

import (
	"fmt"

	"github.com/lowerjs/lowerjs/internal/config"
	"github.com/lowerjs/lowerjs/internal/js_ast"
	"github.com/lowerjs/lowerjs/internal/logger"
	"github.com/lowerjs/lowerjs/internal/renamer"
)

// This is what the pipeline needs from the helper library
type HelperCatalog interface {
	ImportPath(name string) (string, bool)

	// The definition must not be modified. It's used when helpers are
	// inlined into the file instead of imported.
	Definition(name string) (fn js_ast.Fn, deps []string, ok bool)
}

type lowerer struct {
	log     logger.Log
	source  logger.Source
	options config.Options
	names   *renamer.Allocator
	helpers *helperInjector
	module  *moduleRecord

	// Outermost functions produced by class lowering. Each one gets a
	// "use strict" directive.
	strictFns map[*js_ast.EFunction]bool

	// Names for anonymous classes that initialize a variable
	declNames map[logger.Loc]string

	hasErrors bool
}

func Lower(
	log logger.Log,
	source logger.Source,
	tree js_ast.AST,
	options config.Options,
	catalog HelperCatalog,
) (result js_ast.AST, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			err, isStructural := r.(*js_ast.StructuralError)
			if !isStructural {
				panic(r)
			}
			log.AddError(&source, err.Loc, "Internal error: "+err.Text)
			result = js_ast.AST{}
			ok = false
		}
	}()

	names := renamer.NewAllocator(renamer.ComputeReservedNames(tree.Stmts))
	l := &lowerer{
		log:       log,
		source:    source,
		options:   options,
		names:     names,
		helpers:   newHelperInjector(catalog, names, options.HelperMode),
		strictFns: make(map[*js_ast.EFunction]bool),
		declNames: make(map[logger.Loc]string),
	}

	stmts := tree.Stmts
	if options.ModuleFormat == config.FormatCommonJS {
		stmts = l.scanModule(stmts)
		if l.hasErrors {
			return js_ast.AST{}, false
		}
	}

	stmts = l.lowerSyntax(stmts)
	if l.hasErrors {
		return js_ast.AST{}, false
	}

	stmts = l.insertStrictDirectives(stmts)

	if l.module != nil {
		stmts = l.finalizeModule(stmts)
		if l.hasErrors {
			return js_ast.AST{}, false
		}
	}

	directives, body := splitDirectives(stmts)
	var prologue []js_ast.Stmt
	if l.wantsFileDirective() && !hasLeadingDirective(directives, "use strict") {
		prologue = append(prologue, js_ast.DirectiveStmt(logger.Loc{}, "use strict"))
	}
	prologue = append(prologue, directives...)
	prologue = append(prologue, l.helpers.stmts()...)

	return js_ast.AST{Hashbang: tree.Hashbang, Stmts: append(prologue, body...)}, true
}

func (l *lowerer) addError(loc logger.Loc, text string) {
	l.log.AddError(&l.source, loc, text)
	l.hasErrors = true
}

func (l *lowerer) addRangeError(r logger.Range, text string) {
	l.log.AddRangeError(&l.source, r, text)
	l.hasErrors = true
}

func (l *lowerer) unsupported(loc logger.Loc, construct string) {
	l.addRangeError(l.source.RangeOfWord(loc), fmt.Sprintf("Lowering %s is not supported", construct))
}

func (l *lowerer) wantsFileDirective() bool {
	return l.options.StrictFile && l.module != nil && l.module.hasModuleSyntax
}

func hasLeadingDirective(stmts []js_ast.Stmt, text string) bool {
	for _, stmt := range stmts {
		if _, ok := stmt.Data.(*js_ast.SDirective); !ok {
			return false
		}
		if js_ast.IsDirective(stmt, text) {
			return true
		}
	}
	return false
}

// Directives only count at the top of the file, so generated code goes after them
func splitDirectives(stmts []js_ast.Stmt) (directives []js_ast.Stmt, body []js_ast.Stmt) {
	i := 0
	for i < len(stmts) {
		if _, ok := stmts[i].Data.(*js_ast.SDirective); !ok {
			break
		}
		i++
	}
	return stmts[:i], stmts[i:]
}
