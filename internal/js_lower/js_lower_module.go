package js_lower

import (
	"fmt"

	"github.com/lowerjs/lowerjs/internal/config"
	"github.com/lowerjs/lowerjs/internal/js_ast"
	"github.com/lowerjs/lowerjs/internal/logger"
	"github.com/lowerjs/lowerjs/internal/renamer"
)

// One "require()" call per imported path
type importRecord struct {
	path string
	loc  logger.Loc

	namespaces []js_ast.LocName
	items      []importItem

	hasDefault bool
	hasNamed   bool

	// "export { x } from" reads from the module object directly
	isReexported bool

	// The binding that holds the module object, once finalization picks it
	ref string
}

func (record *importRecord) isBare() bool {
	return len(record.namespaces) == 0 && len(record.items) == 0 && !record.isReexported
}

type importItem struct {
	local    js_ast.LocName
	imported string
}

type exportStar struct {
	path    string
	loc     logger.Loc
	aliasOr *js_ast.ExportStarAlias
}

// Requires and "export *" statements in the order they first appear
type prologueEntry struct {
	record *importRecord
	star   *exportStar
}

type moduleExport struct {
	alias string
	loc   logger.Loc

	// Exactly one of these is set
	local    string
	deferred js_ast.Expr
	reexport *importRecord

	// The name read from "reexport"
	imported string

	// Function declarations are exported before the body runs
	isHoisted bool
}

type moduleRecord struct {
	entries []prologueEntry
	records map[string]*importRecord
	exports []moduleExport

	// Set when an import statement binds at least one local name. The names
	// themselves are declared as imports in the top-level scope.
	hasImportBindings bool

	// Imports whose uses are rewritten to property accesses. These are filled
	// in when finalization picks the module bindings.
	liveImports map[string]func(logger.Loc) js_ast.Expr

	// Maps an exported top-level binding to its export names
	exportedLocals map[string][]string

	topLevelFunctions map[string]bool
	hasModuleSyntax   bool
	hasStar           bool

	// Temporaries for "x++" on exported bindings, declared at the top level
	temps []string
}

func newModuleRecord() *moduleRecord {
	return &moduleRecord{
		records:           make(map[string]*importRecord),
		liveImports:       make(map[string]func(logger.Loc) js_ast.Expr),
		exportedLocals:    make(map[string][]string),
		topLevelFunctions: make(map[string]bool),
	}
}

func (m *moduleRecord) recordFor(path string, loc logger.Loc) *importRecord {
	record, ok := m.records[path]
	if !ok {
		record = &importRecord{path: path, loc: loc}
		m.records[path] = record
		m.entries = append(m.entries, prologueEntry{record: record})
	}
	return record
}

func (m *moduleRecord) addExport(export moduleExport) {
	m.exports = append(m.exports, export)
}

// Named exports need the exports object. A file that only has a default
// export replaces "module.exports" instead.
func (m *moduleRecord) usesExportsObject() bool {
	if m.hasStar {
		return true
	}
	for _, export := range m.exports {
		if export.alias != "default" {
			return true
		}
	}
	return false
}

func (m *moduleRecord) rewriteDeferredValues(rewrite func(js_ast.Expr) js_ast.Expr) {
	for i, export := range m.exports {
		if export.deferred.Data != nil {
			m.exports[i].deferred = rewrite(export.deferred)
		}
	}
}

// Removes import and export syntax from the top level and records what it
// did in the module record
func (l *lowerer) scanModule(stmts []js_ast.Stmt) []js_ast.Stmt {
	m := newModuleRecord()
	l.module = m

	for _, stmt := range stmts {
		switch s := stmt.Data.(type) {
		case *js_ast.SFunction:
			m.topLevelFunctions[s.Fn.Name.Name] = true
		case *js_ast.SExportDefault:
			if fn, ok := s.Value.Data.(*js_ast.SFunction); ok && fn.Fn.Name != nil {
				m.topLevelFunctions[fn.Fn.Name.Name] = true
			}
		}
	}

	result := make([]js_ast.Stmt, 0, len(stmts))
	for i, stmt := range stmts {
		switch s := stmt.Data.(type) {
		case *js_ast.SImport:
			m.hasModuleSyntax = true
			record := m.recordFor(s.Path, s.PathLoc)
			if s.DefaultName != nil {
				record.items = append(record.items, importItem{local: *s.DefaultName, imported: "default"})
				record.hasDefault = true
				l.declareImport(s.DefaultName.Name)
			}
			if s.NamespaceName != nil {
				record.namespaces = append(record.namespaces, *s.NamespaceName)
				l.declareImport(s.NamespaceName.Name)
			}
			if s.Items != nil {
				for _, item := range *s.Items {
					record.items = append(record.items, importItem{local: item.Name, imported: item.Alias})
					if item.Alias == "default" {
						record.hasDefault = true
					} else {
						record.hasNamed = true
					}
					l.declareImport(item.Name.Name)
				}
			}
			continue

		case *js_ast.SExportClause:
			m.hasModuleSyntax = true
			for _, item := range s.Items {
				m.addExport(moduleExport{alias: item.Alias, loc: item.AliasLoc, local: item.Name.Name})
			}
			continue

		case *js_ast.SExportFrom:
			m.hasModuleSyntax = true
			record := m.recordFor(s.Path, s.PathLoc)
			record.isReexported = true
			for _, item := range s.Items {
				if item.Name.Name == "default" {
					record.hasDefault = true
				} else {
					record.hasNamed = true
				}
				m.addExport(moduleExport{alias: item.Alias, loc: item.AliasLoc, reexport: record, imported: item.Name.Name})
			}
			continue

		case *js_ast.SExportStar:
			m.hasModuleSyntax = true
			m.hasStar = true
			m.entries = append(m.entries, prologueEntry{star: &exportStar{path: s.Path, loc: s.PathLoc, aliasOr: s.Alias}})
			continue

		case *js_ast.SExportDefault:
			m.hasModuleSyntax = true
			switch v := s.Value.Data.(type) {
			case *js_ast.SExpr:
				// The value is assigned at the end of the file when moving it
				// there can't change what it evaluates to. Reading a binding
				// later could see a newer value or miss a TDZ error.
				if i == len(stmts)-1 || js_ast.ReadsNoBindings(v.Value) {
					m.addExport(moduleExport{alias: "default", loc: s.DefaultName.Loc, deferred: v.Value})
				} else {
					name := l.names.DeclareRootSynthetic("_default")
					result = append(result, js_ast.VarStmt(s.Value.Loc, name, v.Value))
					m.addExport(moduleExport{alias: "default", loc: s.DefaultName.Loc, local: name})
				}

			case *js_ast.SFunction:
				fn := v.Fn
				if fn.Name == nil {
					fn.Name = &js_ast.LocName{Loc: s.DefaultName.Loc, Name: l.names.DeclareRootSynthetic("_default")}
				}
				result = append(result, js_ast.Stmt{Loc: s.Value.Loc, Data: &js_ast.SFunction{Fn: fn}})
				m.addExport(moduleExport{alias: "default", loc: s.DefaultName.Loc, local: fn.Name.Name, isHoisted: true})

			case *js_ast.SClass:
				class := v.Class
				if class.Name == nil {
					class.Name = &js_ast.LocName{Loc: s.DefaultName.Loc, Name: l.names.DeclareRootSynthetic("_default")}
				}
				result = append(result, js_ast.Stmt{Loc: s.Value.Loc, Data: &js_ast.SClass{Class: class}})
				m.addExport(moduleExport{alias: "default", loc: s.DefaultName.Loc, local: class.Name.Name})
			}
			continue

		case *js_ast.SLocal:
			if s.IsExport {
				m.hasModuleSyntax = true
				clone := *s
				clone.IsExport = false
				for _, decl := range s.Decls {
					js_ast.ForEachBindingName(decl.Binding, func(name js_ast.LocName) {
						m.addExport(moduleExport{alias: name.Name, loc: name.Loc, local: name.Name})
					})
				}
				stmt = js_ast.Stmt{Loc: stmt.Loc, Data: &clone}
			}

		case *js_ast.SFunction:
			if s.IsExport {
				m.hasModuleSyntax = true
				clone := *s
				clone.IsExport = false
				m.addExport(moduleExport{alias: s.Fn.Name.Name, loc: s.Fn.Name.Loc, local: s.Fn.Name.Name, isHoisted: true})
				stmt = js_ast.Stmt{Loc: stmt.Loc, Data: &clone}
			}

		case *js_ast.SClass:
			if s.IsExport {
				m.hasModuleSyntax = true
				clone := *s
				clone.IsExport = false
				m.addExport(moduleExport{alias: s.Class.Name.Name, loc: s.Class.Name.Loc, local: s.Class.Name.Name})
				stmt = js_ast.Stmt{Loc: stmt.Loc, Data: &clone}
			}
		}

		result = append(result, stmt)
	}

	for _, export := range m.exports {
		if export.local != "" && !l.isImportBinding(export.local) {
			if export.isHoisted || m.topLevelFunctions[export.local] {
				continue
			}
			m.exportedLocals[export.local] = append(m.exportedLocals[export.local], export.alias)
		}
	}
	return result
}

// Builds the final file: the "__esModule" marker, "require()" calls, hoisted
// function exports, the body, and then the remaining export assignments
func (l *lowerer) declareImport(name string) {
	l.names.Declare(name, renamer.BindingImport)
	l.module.hasImportBindings = true
}

// Only meaningful at the top level, which is where module syntax lives
func (l *lowerer) isImportBinding(name string) bool {
	kind, ok := l.names.Lookup(name)
	return ok && kind == renamer.BindingImport
}

func (l *lowerer) finalizeModule(stmts []js_ast.Stmt) []js_ast.Stmt {
	m := l.module
	useExportsObject := m.usesExportsObject()

	var requires []js_ast.Stmt
	for _, entry := range m.entries {
		if entry.record != nil {
			requires = append(requires, l.requireRecord(entry.record)...)
		} else {
			requires = append(requires, l.requireStar(entry.star))
		}
	}

	var hoisted, tail []js_ast.Stmt
	for _, export := range m.exports {
		var value js_ast.Expr
		switch {
		case export.deferred.Data != nil:
			value = export.deferred
		case export.reexport != nil:
			value = memberOf(js_ast.Ident(export.loc, export.reexport.ref), export.loc, export.imported)
		default:
			value = js_ast.Ident(export.loc, export.local)
		}
		stmt := js_ast.AssignStmt(exportTarget(export.loc, export.alias, useExportsObject), value)
		if export.isHoisted && useExportsObject {
			hoisted = append(hoisted, stmt)
		} else {
			tail = append(tail, stmt)
		}
	}

	directives, stmts := splitDirectives(stmts)
	body := l.rewriteModuleRefs(append(stmts[:len(stmts):len(stmts)], tail...), useExportsObject)

	prologue := append([]js_ast.Stmt{}, directives...)
	if useExportsObject {
		prologue = append(prologue, esModuleMarker())
	}
	prologue = append(prologue, requires...)
	if len(m.temps) > 0 {
		decls := make([]js_ast.Decl, len(m.temps))
		for i, temp := range m.temps {
			decls[i] = js_ast.Decl{Binding: js_ast.Binding{Data: &js_ast.BIdentifier{Name: temp}}}
		}
		prologue = append(prologue, js_ast.Stmt{Data: &js_ast.SLocal{Kind: js_ast.LocalVar, Decls: decls}})
	}
	prologue = append(prologue, hoisted...)

	return append(prologue, body...)
}

// Object.defineProperty(exports, "__esModule", { value: true });
func esModuleMarker() js_ast.Stmt {
	loc := logger.Loc{}
	descriptor := js_ast.Expr{Loc: loc, Data: &js_ast.EObject{Properties: []js_ast.Property{{
		Key:        js_ast.StringExpr(loc, "value"),
		ValueOrNil: js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: true}},
	}}}}
	return js_ast.ExprStmt(js_ast.Call(
		js_ast.Dot(js_ast.Ident(loc, "Object"), "defineProperty"),
		js_ast.Ident(loc, "exports"),
		js_ast.StringExpr(loc, "__esModule"),
		descriptor,
	))
}

func exportTarget(loc logger.Loc, alias string, useExportsObject bool) js_ast.Expr {
	if !useExportsObject {
		return js_ast.Dot(js_ast.Ident(loc, "module"), "exports")
	}
	return memberOf(js_ast.Ident(loc, "exports"), loc, alias)
}

func memberOf(object js_ast.Expr, loc logger.Loc, name string) js_ast.Expr {
	if js_ast.IsIdentifier(name) {
		return js_ast.Expr{Loc: loc, Data: &js_ast.EDot{Target: object, Name: name, NameLoc: loc}}
	}
	return js_ast.Expr{Loc: loc, Data: &js_ast.EIndex{Target: object, Index: js_ast.StringExpr(loc, name)}}
}

// Picks the binding for one imported module and returns the statements that
// create it. Default imports go through an interop helper so that modules
// that aren't ES modules still have a "default" export.
func (l *lowerer) requireRecord(record *importRecord) []js_ast.Stmt {
	loc := record.loc
	value := js_ast.Call(js_ast.Ident(loc, "require"), js_ast.StringExpr(loc, record.path))
	if record.isBare() {
		return []js_ast.Stmt{js_ast.ExprStmt(value)}
	}

	switch {
	case len(record.namespaces) > 0 || (record.hasDefault && record.hasNamed):
		value = l.helpers.call(loc, "interop_require_wildcard", value)
	case record.hasDefault:
		value = l.helpers.call(loc, "interop_require_default", value)
	}

	// A snapshot binding reads the export once, which only works when the
	// module object isn't needed for anything else
	isSnapshot := l.options.ImportBindings == config.ImportBindingsSnapshot
	if isSnapshot && len(record.namespaces) == 0 && len(record.items) == 1 && !record.isReexported {
		item := record.items[0]
		return []js_ast.Stmt{js_ast.VarStmt(item.local.Loc, item.local.Name, memberOf(value, item.local.Loc, item.imported))}
	}

	if len(record.namespaces) > 0 {
		record.ref = record.namespaces[0].Name
	} else {
		record.ref = l.names.DeclareRootSynthetic("_" + js_ast.GenerateNonUniqueNameFromPath(record.path))
	}
	stmts := []js_ast.Stmt{js_ast.VarStmt(loc, record.ref, value)}
	for _, ns := range record.namespaces[min(1, len(record.namespaces)):] {
		stmts = append(stmts, js_ast.VarStmt(ns.Loc, ns.Name, js_ast.Ident(ns.Loc, record.ref)))
	}

	if isSnapshot {
		var decls []js_ast.Decl
		for _, item := range record.items {
			decls = append(decls, js_ast.Decl{
				Binding:    js_ast.Binding{Loc: item.local.Loc, Data: &js_ast.BIdentifier{Name: item.local.Name}},
				ValueOrNil: memberOf(js_ast.Ident(item.local.Loc, record.ref), item.local.Loc, item.imported),
			})
		}
		if len(decls) > 0 {
			stmts = append(stmts, js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalVar, Decls: decls}})
		}
		return stmts
	}

	for _, item := range record.items {
		ref, imported := record.ref, item.imported
		l.module.liveImports[item.local.Name] = func(loc logger.Loc) js_ast.Expr {
			return memberOf(js_ast.Ident(loc, ref), loc, imported)
		}
	}
	return stmts
}

func (l *lowerer) requireStar(star *exportStar) js_ast.Stmt {
	loc := star.loc
	value := js_ast.Call(js_ast.Ident(loc, "require"), js_ast.StringExpr(loc, star.path))
	if star.aliasOr == nil {
		return js_ast.ExprStmt(l.helpers.call(loc, "export_star", value, js_ast.Ident(loc, "exports")))
	}
	alias := star.aliasOr
	return js_ast.AssignStmt(exportTarget(alias.Loc, alias.OriginalName, true),
		l.helpers.call(loc, "interop_require_wildcard", value))
}

// Replaces uses of imported names with reads from the module object, and
// mirrors assignments to exported bindings onto the exports object. Names
// that a nested scope declares again are left alone.
func (l *lowerer) rewriteModuleRefs(stmts []js_ast.Stmt, useExportsObject bool) []js_ast.Stmt {
	m := l.module
	if !m.hasImportBindings && len(m.exportedLocals) == 0 {
		return stmts
	}

	shadowed := make(map[string]int)
	var scopes [][]string
	isTracked := func(name string) bool {
		return l.isImportBinding(name) || len(m.exportedLocals[name]) > 0
	}
	isImport := func(name string) bool {
		return l.isImportBinding(name) && shadowed[name] == 0
	}
	isExported := func(name string) bool {
		return len(m.exportedLocals[name]) > 0 && shadowed[name] == 0
	}

	// "exports.a = exports.b = value"
	mirror := func(loc logger.Loc, name string, value js_ast.Expr) js_ast.Expr {
		aliases := m.exportedLocals[name]
		for i := len(aliases) - 1; i >= 0; i-- {
			value = js_ast.Assign(exportTarget(loc, aliases[i], useExportsObject), value)
		}
		return value
	}

	var r *js_ast.Rewriter
	r = &js_ast.Rewriter{
		Order: js_ast.TopDown,

		Enter: func(scope js_ast.ScopeInfo) bool {
			var names []string
			for _, name := range scope.Names {
				if isTracked(name) {
					shadowed[name]++
					names = append(names, name)
				}
			}
			scopes = append(scopes, names)
			return true
		},
		Exit: func(scope js_ast.ScopeInfo) {
			for _, name := range scopes[len(scopes)-1] {
				shadowed[name]--
			}
			scopes = scopes[:len(scopes)-1]
		},

		// "x++;" is mirrored as "exports.x = ++x;" when its value isn't used
		Stmt: func(stmt js_ast.Stmt) []js_ast.Stmt {
			if s, ok := stmt.Data.(*js_ast.SExpr); ok {
				if e, ok := s.Value.Data.(*js_ast.EUnary); ok && (e.Op == js_ast.UnOpPostInc || e.Op == js_ast.UnOpPostDec) {
					if id, ok := e.Value.Data.(*js_ast.EIdentifier); ok && isExported(id.Name) {
						op := js_ast.UnOpPreInc
						if e.Op == js_ast.UnOpPostDec {
							op = js_ast.UnOpPreDec
						}
						return []js_ast.Stmt{js_ast.ExprStmt(js_ast.Expr{Loc: s.Value.Loc, Data: &js_ast.EUnary{Op: op, Value: e.Value}})}
					}
				}
			}
			return []js_ast.Stmt{stmt}
		},

		Expr: func(expr js_ast.Expr) js_ast.Expr {
			switch e := expr.Data.(type) {
			case *js_ast.EIdentifier:
				if ref, ok := m.liveImports[e.Name]; ok && isImport(e.Name) {
					return ref(expr.Loc)
				}

			case *js_ast.ECall:
				// Calling an import must not pass the module object as "this"
				if id, ok := e.Target.Data.(*js_ast.EIdentifier); ok && isImport(id.Name) {
					if ref, ok := m.liveImports[id.Name]; ok {
						clone := *e
						clone.Target = js_ast.JoinWithComma(js_ast.Expr{Loc: e.Target.Loc, Data: &js_ast.ENumber{Value: 0}}, ref(e.Target.Loc))
						clone.Args = make([]js_ast.Expr, len(e.Args))
						for i, arg := range e.Args {
							clone.Args[i] = r.RewriteExpr(arg)
						}
						r.SkipChildren()
						return js_ast.Expr{Loc: expr.Loc, Data: &clone}
					}
				}

			case *js_ast.EBinary:
				if !e.Op.IsAssign() {
					break
				}
				if id, ok := e.Left.Data.(*js_ast.EIdentifier); ok {
					if isImport(id.Name) {
						l.addRangeError(l.source.RangeOfWord(e.Left.Loc), fmt.Sprintf("Cannot assign to import %q", id.Name))
						r.SkipChildren()
						return expr
					}
					if isExported(id.Name) {
						assign := js_ast.Expr{Loc: expr.Loc, Data: &js_ast.EBinary{Op: e.Op, Left: e.Left, Right: r.RewriteExpr(e.Right)}}
						r.SkipChildren()
						return mirror(expr.Loc, id.Name, assign)
					}
					break
				}
				forEachAssignTarget(e.Left, func(target js_ast.Expr, name string) {
					if isImport(name) {
						l.addRangeError(l.source.RangeOfWord(target.Loc), fmt.Sprintf("Cannot assign to import %q", name))
					} else if isExported(name) {
						l.unsupported(target.Loc, fmt.Sprintf("a destructuring assignment to the exported name %q", name))
					}
				})

			case *js_ast.EUnary:
				if !e.Op.IsUpdate() {
					break
				}
				id, ok := e.Value.Data.(*js_ast.EIdentifier)
				if !ok {
					break
				}
				if isImport(id.Name) {
					l.addRangeError(l.source.RangeOfWord(e.Value.Loc), fmt.Sprintf("Cannot assign to import %q", id.Name))
					r.SkipChildren()
					return expr
				}
				if !isExported(id.Name) {
					break
				}
				r.SkipChildren()
				if e.Op == js_ast.UnOpPreInc || e.Op == js_ast.UnOpPreDec {
					return mirror(expr.Loc, id.Name, expr)
				}

				// "(_x = x++, exports.x = x, _x)"
				temp := l.names.DeclareRootSynthetic("_" + id.Name)
				m.temps = append(m.temps, temp)
				return js_ast.JoinAllWithComma([]js_ast.Expr{
					js_ast.Assign(js_ast.Ident(expr.Loc, temp), expr),
					mirror(expr.Loc, id.Name, js_ast.Ident(expr.Loc, id.Name)),
					js_ast.Ident(expr.Loc, temp),
				})
			}
			return expr
		},
	}

	return r.RewriteStmts(stmts)
}

// Calls "visit" for every identifier that a destructuring assignment writes to
func forEachAssignTarget(target js_ast.Expr, visit func(js_ast.Expr, string)) {
	switch e := target.Data.(type) {
	case *js_ast.EIdentifier:
		visit(target, e.Name)

	case *js_ast.EArray:
		for _, item := range e.Items {
			forEachAssignTarget(item, visit)
		}

	case *js_ast.EObject:
		for _, property := range e.Properties {
			forEachAssignTarget(property.ValueOrNil, visit)
		}

	case *js_ast.ESpread:
		forEachAssignTarget(e.Value, visit)

	case *js_ast.EBinary:
		if e.Op == js_ast.BinOpAssign {
			forEachAssignTarget(e.Left, visit)
		}
	}
}
