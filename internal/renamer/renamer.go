package renamer

import (
	"strconv"

	"github.com/lowerjs/lowerjs/internal/js_ast"
	"github.com/lowerjs/lowerjs/internal/logger"
)

type BindingKind uint8

const (
	// Any name the input mentions, plus keywords. Synthetic names never take
	// one of these.
	BindingReserved BindingKind = iota

	BindingParameter
	BindingImport
	BindingSynthetic
)

func (kind BindingKind) String() string {
	switch kind {
	case BindingParameter:
		return "parameter"
	case BindingImport:
		return "import"
	case BindingSynthetic:
		return "synthetic"
	}
	return "reserved"
}

// Names that generated code refers to as globals
var globalNames = []string{"arguments", "eval", "exports", "module", "require", "undefined"}

// Returns every identifier name mentioned anywhere in the file, declared or
// referenced, together with all keywords and strict mode reserved words
func ComputeReservedNames(stmts []js_ast.Stmt) map[string]BindingKind {
	names := make(map[string]BindingKind)

	for k := range js_ast.Keywords {
		names[k] = BindingReserved
	}
	for k := range js_ast.StrictModeReservedWords {
		names[k] = BindingReserved
	}
	for _, k := range globalNames {
		names[k] = BindingReserved
	}

	add := func(name string) {
		names[name] = BindingReserved
	}
	for _, name := range js_ast.LexicallyDeclaredNames(stmts) {
		add(name)
	}
	for _, name := range js_ast.VarDeclaredNames(stmts) {
		add(name)
	}

	r := js_ast.Rewriter{
		Order: js_ast.TopDown,
		Expr: func(expr js_ast.Expr) js_ast.Expr {
			if id, ok := expr.Data.(*js_ast.EIdentifier); ok {
				add(id.Name)
			}
			return expr
		},
		Stmt: func(stmt js_ast.Stmt) []js_ast.Stmt {
			switch s := stmt.Data.(type) {
			case *js_ast.SImport:
				if s.DefaultName != nil {
					add(s.DefaultName.Name)
				}
				if s.NamespaceName != nil {
					add(s.NamespaceName.Name)
				}
				if s.Items != nil {
					for _, item := range *s.Items {
						add(item.Name.Name)
					}
				}

			case *js_ast.SExportClause:
				for _, item := range s.Items {
					add(item.Name.Name)
				}

			case *js_ast.SLabel:
				add(s.Name.Name)
			}
			return []js_ast.Stmt{stmt}
		},
		Enter: func(scope js_ast.ScopeInfo) bool {
			for _, name := range scope.Names {
				add(name)
			}
			return true
		},
	}
	r.RewriteStmts(stmts)

	return names
}

// A Scope maps names to what declared them. Lookups fall through to the
// parent scope.
type Scope struct {
	parent *Scope
	names  map[string]BindingKind

	// This maps a name to the number of times the name has experienced a
	// collision in this scope. Counting resumes from the last collision so
	// many collisions with the same name stay linear.
	nameCounts map[string]uint32
}

func newScope(parent *Scope) *Scope {
	return &Scope{
		parent:     parent,
		names:      make(map[string]BindingKind),
		nameCounts: make(map[string]uint32),
	}
}

func (s *Scope) Lookup(name string) (BindingKind, bool) {
	for s != nil {
		if kind, ok := s.names[name]; ok {
			return kind, true
		}
		s = s.parent
	}
	return 0, false
}

type nameUse uint8

const (
	nameUnused nameUse = iota
	nameUsed
	nameUsedInSameScope
)

func (s *Scope) findNameUse(name string) nameUse {
	if _, ok := s.names[name]; ok {
		return nameUsedInSameScope
	}
	if _, ok := s.Lookup(name); ok {
		return nameUsed
	}
	return nameUnused
}

// The Allocator hands out hygienic names for one file. It's used by a single
// goroutine: each file transform owns its own allocator.
type Allocator struct {
	root    *Scope
	current *Scope

	// Every synthetic name handed out so far, including ones from scopes that
	// have since been exited. Root names avoid all of them so a name declared
	// later at the top level is never shadowed by an earlier nested one.
	synthesized map[string]bool
}

func NewAllocator(reserved map[string]BindingKind) *Allocator {
	root := newScope(nil)
	for name, kind := range reserved {
		root.names[name] = kind
	}
	return &Allocator{
		root:        root,
		current:     root,
		synthesized: make(map[string]bool),
	}
}

func (a *Allocator) EnterScope() {
	a.current = newScope(a.current)
}

func (a *Allocator) ExitScope() {
	if a.current == a.root {
		js_ast.PanicStructural(logger.Loc{}, "Cannot exit the top-level scope")
	}
	a.current = a.current.parent
}

func (a *Allocator) Lookup(name string) (BindingKind, bool) {
	return a.current.Lookup(name)
}

// Records a binding written by the user in the current scope. This may
// refine the kind of a name that was already reserved.
func (a *Allocator) Declare(name string, kind BindingKind) {
	a.current.names[name] = kind
}

// Returns "base" if it's unused in the current scope chain, otherwise "base"
// followed by a number. The returned name is declared in the current scope.
func (a *Allocator) DeclareSynthetic(base string) string {
	name := a.findUnusedName(a.current, base, nil)
	a.current.names[name] = BindingSynthetic
	a.synthesized[name] = true
	return name
}

// Like "DeclareSynthetic" but the name is declared in the top-level scope
// regardless of the current scope
func (a *Allocator) DeclareRootSynthetic(base string) string {
	name := a.findUnusedName(a.root, base, a.isTakenElsewhere)
	a.root.names[name] = BindingSynthetic
	a.synthesized[name] = true
	return name
}

func (a *Allocator) isTakenElsewhere(name string) bool {
	if a.synthesized[name] {
		return true
	}
	_, ok := a.current.Lookup(name)
	return ok
}

func (a *Allocator) findUnusedName(s *Scope, name string, isTaken func(string) bool) string {
	use := s.findNameUse(name)
	if use == nameUnused && isTaken != nil && isTaken(name) {
		use = nameUsed
	}

	if use != nameUnused {
		// If the name is already in use, generate a new name by appending a number
		tries := uint32(1)
		if use == nameUsedInSameScope {
			if count := s.nameCounts[name]; count > tries {
				tries = count
			}
		}
		prefix := name

		for {
			tries++
			name = prefix + strconv.Itoa(int(tries))
			if s.findNameUse(name) == nameUnused && (isTaken == nil || !isTaken(name)) {
				if use == nameUsedInSameScope {
					s.nameCounts[prefix] = tries
				}
				break
			}
		}
	}

	// Each name starts off with a count of 1 so that the first collision with
	// "name" is called "name2"
	if _, ok := s.nameCounts[name]; !ok {
		s.nameCounts[name] = 1
	}
	return name
}
