package js_ast

import (
	"fmt"

	"github.com/lowerjs/lowerjs/internal/logger"
)

// A Rewriter walks a tree and calls its callbacks on every expression and
// statement. Callbacks return replacements. A replacement substitutes the
// whole subtree: the rewriter rebuilds every node on the path from the root
// to a change and never writes to the input tree, so the input can still be
// used after the rewrite finishes.
//
// With "TopDown" the callback sees a node before its children, and the walk
// then descends into whatever the callback returned. Call "SkipChildren" from
// inside the callback to keep the walk from descending into the replacement.
// With "BottomUp" the callback sees a node after its children have already
// been rewritten.
type Order uint8

const (
	TopDown Order = iota
	BottomUp
)

type ScopeKind uint8

const (
	ScopeBlock ScopeKind = iota
	ScopeFunction
	ScopeArrow
	ScopeClassBody
)

type ScopeInfo struct {
	Kind ScopeKind
	Loc  logger.Loc

	// The names declared directly in this scope. For functions this includes
	// the parameters, hoisted "var" declarations, and the name of a function
	// expression.
	Names []string
}

type Rewriter struct {
	Order Order

	Expr func(Expr) Expr

	// Statements in a statement list may be replaced by any number of
	// statements. A statement in a position that holds exactly one statement
	// (such as the body of an "if") is wrapped in a block when needed.
	Stmt func(Stmt) []Stmt

	// Called when the walk enters a new scope. Returning false leaves the
	// contents of the scope untouched and "Exit" is not called for it.
	Enter func(ScopeInfo) bool
	Exit  func(ScopeInfo)

	skipChildren bool
	depth        int
}

// This is a programming error in a pass: a callback produced a tree that
// can't exist, such as an "import" statement nested inside a function.
type StructuralError struct {
	Loc  logger.Loc
	Text string
}

func (err *StructuralError) Error() string {
	return err.Text
}

func PanicStructural(loc logger.Loc, format string, args ...interface{}) {
	panic(&StructuralError{Loc: loc, Text: fmt.Sprintf(format, args...)})
}

func (r *Rewriter) SkipChildren() {
	r.skipChildren = true
}

func (r *Rewriter) consumeSkip() bool {
	skip := r.skipChildren
	r.skipChildren = false
	return skip
}

func (r *Rewriter) RewriteStmts(stmts []Stmt) []Stmt {
	result := make([]Stmt, 0, len(stmts))
	for _, stmt := range stmts {
		for _, s := range r.rewriteStmtInList(stmt) {
			if s.Data == nil {
				PanicStructural(stmt.Loc, "A statement was replaced with an empty node")
			}
			if r.depth > 0 {
				switch s.Data.(type) {
				case *SImport, *SExportClause, *SExportFrom, *SExportStar, *SExportDefault:
					PanicStructural(s.Loc, "Module declarations can only appear at the top level")
				}
			}
			result = append(result, s)
		}
	}
	return result
}

func (r *Rewriter) rewriteNestedStmts(stmts []Stmt) []Stmt {
	r.depth++
	result := r.RewriteStmts(stmts)
	r.depth--
	return result
}

func (r *Rewriter) rewriteStmtInList(stmt Stmt) []Stmt {
	if r.Order == TopDown && r.Stmt != nil {
		replaced := r.Stmt(stmt)
		if r.consumeSkip() {
			return replaced
		}
		result := make([]Stmt, 0, len(replaced))
		for _, s := range replaced {
			result = append(result, r.visitStmtChildren(s))
		}
		return result
	}

	stmt = r.visitStmtChildren(stmt)
	if r.Order == BottomUp && r.Stmt != nil {
		return r.Stmt(stmt)
	}
	return []Stmt{stmt}
}

// Used for statements such as the body of an "if" statement
func (r *Rewriter) rewriteSingleStmt(stmt Stmt) Stmt {
	r.depth++
	stmts := r.RewriteStmts([]Stmt{stmt})
	r.depth--
	switch len(stmts) {
	case 0:
		return Stmt{Loc: stmt.Loc, Data: &SEmpty{}}
	case 1:
		return stmts[0]
	default:
		return Stmt{Loc: stmt.Loc, Data: &SBlock{Stmts: stmts}}
	}
}

// The initializer of a loop must stay a single declaration or expression
func (r *Rewriter) rewriteLoopInit(stmt Stmt) Stmt {
	r.depth++
	stmts := r.RewriteStmts([]Stmt{stmt})
	r.depth--
	if len(stmts) != 1 {
		PanicStructural(stmt.Loc, "A loop initializer was replaced with %d statements", len(stmts))
	}
	switch stmts[0].Data.(type) {
	case *SLocal, *SExpr:
	default:
		PanicStructural(stmt.Loc, "A loop initializer must be a declaration or an expression")
	}
	return stmts[0]
}

func (r *Rewriter) enter(scope ScopeInfo) bool {
	return r.Enter == nil || r.Enter(scope)
}

func (r *Rewriter) exit(scope ScopeInfo) {
	if r.Exit != nil {
		r.Exit(scope)
	}
}

func (r *Rewriter) visitBlock(loc logger.Loc, block SBlock) SBlock {
	scope := ScopeInfo{Kind: ScopeBlock, Loc: loc, Names: LexicallyDeclaredNames(block.Stmts)}
	if !r.enter(scope) {
		return block
	}
	block.Stmts = r.rewriteNestedStmts(block.Stmts)
	r.exit(scope)
	return block
}

func (r *Rewriter) visitStmtChildren(stmt Stmt) Stmt {
	switch s := stmt.Data.(type) {
	case *SBlock:
		block := r.visitBlock(stmt.Loc, *s)
		return Stmt{Loc: stmt.Loc, Data: &block}

	case *SExpr:
		return Stmt{Loc: stmt.Loc, Data: &SExpr{Value: r.RewriteExpr(s.Value)}}

	case *SLocal:
		clone := *s
		clone.Decls = r.rewriteDecls(s.Decls)
		return Stmt{Loc: stmt.Loc, Data: &clone}

	case *SFunction:
		clone := *s
		clone.Fn = r.rewriteFn(stmt.Loc, s.Fn, false)
		return Stmt{Loc: stmt.Loc, Data: &clone}

	case *SClass:
		clone := *s
		clone.Class = r.rewriteClass(s.Class)
		return Stmt{Loc: stmt.Loc, Data: &clone}

	case *SExportDefault:
		clone := *s
		clone.Value = r.visitStmtChildren(s.Value)
		return Stmt{Loc: stmt.Loc, Data: &clone}

	case *SLabel:
		clone := *s
		clone.Stmt = r.rewriteSingleStmt(s.Stmt)
		return Stmt{Loc: stmt.Loc, Data: &clone}

	case *SIf:
		clone := *s
		clone.Test = r.RewriteExpr(s.Test)
		clone.Yes = r.rewriteSingleStmt(s.Yes)
		if s.NoOrNil.Data != nil {
			clone.NoOrNil = r.rewriteSingleStmt(s.NoOrNil)
		}
		return Stmt{Loc: stmt.Loc, Data: &clone}

	case *SFor:
		clone := *s
		scope := ScopeInfo{Kind: ScopeBlock, Loc: stmt.Loc, Names: loopInitNames(s.InitOrNil)}
		if !r.enter(scope) {
			return stmt
		}
		if s.InitOrNil.Data != nil {
			clone.InitOrNil = r.rewriteLoopInit(s.InitOrNil)
		}
		clone.TestOrNil = r.RewriteExpr(s.TestOrNil)
		clone.UpdateOrNil = r.RewriteExpr(s.UpdateOrNil)
		clone.Body = r.rewriteSingleStmt(s.Body)
		r.exit(scope)
		return Stmt{Loc: stmt.Loc, Data: &clone}

	case *SForIn:
		clone := *s
		scope := ScopeInfo{Kind: ScopeBlock, Loc: stmt.Loc, Names: loopInitNames(s.Init)}
		if !r.enter(scope) {
			return stmt
		}
		clone.Init = r.rewriteLoopInit(s.Init)
		clone.Value = r.RewriteExpr(s.Value)
		clone.Body = r.rewriteSingleStmt(s.Body)
		r.exit(scope)
		return Stmt{Loc: stmt.Loc, Data: &clone}

	case *SForOf:
		clone := *s
		scope := ScopeInfo{Kind: ScopeBlock, Loc: stmt.Loc, Names: loopInitNames(s.Init)}
		if !r.enter(scope) {
			return stmt
		}
		clone.Init = r.rewriteLoopInit(s.Init)
		clone.Value = r.RewriteExpr(s.Value)
		clone.Body = r.rewriteSingleStmt(s.Body)
		r.exit(scope)
		return Stmt{Loc: stmt.Loc, Data: &clone}

	case *SWhile:
		return Stmt{Loc: stmt.Loc, Data: &SWhile{Test: r.RewriteExpr(s.Test), Body: r.rewriteSingleStmt(s.Body)}}

	case *SDoWhile:
		return Stmt{Loc: stmt.Loc, Data: &SDoWhile{Body: r.rewriteSingleStmt(s.Body), Test: r.RewriteExpr(s.Test)}}

	case *SWith:
		return Stmt{Loc: stmt.Loc, Data: &SWith{Value: r.RewriteExpr(s.Value), Body: r.rewriteSingleStmt(s.Body)}}

	case *SReturn:
		return Stmt{Loc: stmt.Loc, Data: &SReturn{ValueOrNil: r.RewriteExpr(s.ValueOrNil)}}

	case *SThrow:
		return Stmt{Loc: stmt.Loc, Data: &SThrow{Value: r.RewriteExpr(s.Value)}}

	case *STry:
		clone := *s
		clone.Block = r.visitBlock(stmt.Loc, s.Block)
		if s.Catch != nil {
			catch := *s.Catch
			var names []string
			if catch.BindingOrNil.Data != nil {
				ForEachBindingName(catch.BindingOrNil, func(name LocName) { names = append(names, name.Name) })
			}
			scope := ScopeInfo{Kind: ScopeBlock, Loc: catch.Loc, Names: names}
			if r.enter(scope) {
				if catch.BindingOrNil.Data != nil {
					catch.BindingOrNil = r.rewriteBinding(catch.BindingOrNil)
				}
				catch.Block = r.visitBlock(catch.Loc, s.Catch.Block)
				r.exit(scope)
			}
			clone.Catch = &catch
		}
		if s.Finally != nil {
			clone.Finally = &Finally{Loc: s.Finally.Loc, Block: r.visitBlock(s.Finally.Loc, s.Finally.Block)}
		}
		return Stmt{Loc: stmt.Loc, Data: &clone}

	case *SSwitch:
		clone := *s
		clone.Test = r.RewriteExpr(s.Test)
		var all []Stmt
		for _, c := range s.Cases {
			all = append(all, c.Body...)
		}
		scope := ScopeInfo{Kind: ScopeBlock, Loc: stmt.Loc, Names: LexicallyDeclaredNames(all)}
		if !r.enter(scope) {
			return Stmt{Loc: stmt.Loc, Data: &clone}
		}
		clone.Cases = make([]Case, len(s.Cases))
		for i, c := range s.Cases {
			clone.Cases[i] = Case{ValueOrNil: r.RewriteExpr(c.ValueOrNil), Body: r.rewriteNestedStmts(c.Body)}
		}
		r.exit(scope)
		return Stmt{Loc: stmt.Loc, Data: &clone}
	}

	// The remaining statements have no children that passes rewrite
	return stmt
}

func (r *Rewriter) rewriteDecls(decls []Decl) []Decl {
	result := make([]Decl, len(decls))
	for i, decl := range decls {
		result[i] = Decl{Binding: r.rewriteBinding(decl.Binding), ValueOrNil: r.RewriteExpr(decl.ValueOrNil)}
	}
	return result
}

func (r *Rewriter) rewriteBinding(binding Binding) Binding {
	switch b := binding.Data.(type) {
	case *BArray:
		items := make([]ArrayBinding, len(b.Items))
		for i, item := range b.Items {
			items[i] = ArrayBinding{
				Binding:           r.rewriteBinding(item.Binding),
				DefaultValueOrNil: r.RewriteExpr(item.DefaultValueOrNil),
			}
		}
		return Binding{Loc: binding.Loc, Data: &BArray{Items: items, HasSpread: b.HasSpread}}

	case *BObject:
		properties := make([]PropertyBinding, len(b.Properties))
		for i, property := range b.Properties {
			clone := property
			if property.IsComputed {
				clone.Key = r.RewriteExpr(property.Key)
			}
			clone.Value = r.rewriteBinding(property.Value)
			clone.DefaultValueOrNil = r.RewriteExpr(property.DefaultValueOrNil)
			properties[i] = clone
		}
		return Binding{Loc: binding.Loc, Data: &BObject{Properties: properties}}
	}
	return binding
}

func (r *Rewriter) rewriteArgs(args []Arg) []Arg {
	result := make([]Arg, len(args))
	for i, arg := range args {
		result[i] = Arg{Binding: r.rewriteBinding(arg.Binding), DefaultOrNil: r.RewriteExpr(arg.DefaultOrNil)}
	}
	return result
}

func (r *Rewriter) rewriteFn(loc logger.Loc, fn Fn, isExpr bool) Fn {
	names := ArgNames(fn.Args)
	if isExpr && fn.Name != nil {
		names = append(names, fn.Name.Name)
	}
	names = append(names, VarDeclaredNames(fn.Body.Stmts)...)
	names = append(names, LexicallyDeclaredNames(fn.Body.Stmts)...)
	scope := ScopeInfo{Kind: ScopeFunction, Loc: loc, Names: names}
	if !r.enter(scope) {
		return fn
	}
	depth := r.depth
	r.depth = 0
	fn.Args = r.rewriteArgs(fn.Args)
	r.depth = depth + 1
	fn.Body.Stmts = r.RewriteStmts(fn.Body.Stmts)
	r.depth = depth
	r.exit(scope)
	return fn
}

func (r *Rewriter) rewriteClass(class Class) Class {
	class.ExtendsOrNil = r.RewriteExpr(class.ExtendsOrNil)

	// Computed keys are evaluated outside of the class body
	properties := make([]Property, len(class.Properties))
	for i, property := range class.Properties {
		if property.IsComputed {
			property.Key = r.RewriteExpr(property.Key)
		}
		properties[i] = property
	}

	var names []string
	if class.Name != nil {
		names = append(names, class.Name.Name)
	}
	scope := ScopeInfo{Kind: ScopeClassBody, Loc: class.BodyLoc, Names: names}
	if r.enter(scope) {
		for i, property := range properties {
			if property.ClassStaticBlock != nil {
				r.depth++
				properties[i].ClassStaticBlock = &ClassStaticBlock{
					Loc:   property.ClassStaticBlock.Loc,
					Stmts: r.RewriteStmts(property.ClassStaticBlock.Stmts),
				}
				r.depth--
				continue
			}
			properties[i].ValueOrNil = r.RewriteExpr(property.ValueOrNil)
			properties[i].InitializerOrNil = r.RewriteExpr(property.InitializerOrNil)
		}
		r.exit(scope)
	}

	class.Properties = properties
	return class
}

func (r *Rewriter) rewriteExprs(exprs []Expr) []Expr {
	if exprs == nil {
		return nil
	}
	result := make([]Expr, len(exprs))
	for i, expr := range exprs {
		result[i] = r.RewriteExpr(expr)
	}
	return result
}

func (r *Rewriter) RewriteExpr(expr Expr) Expr {
	if expr.Data == nil {
		return expr
	}

	if r.Order == TopDown && r.Expr != nil {
		expr = r.callExpr(expr)
		if r.consumeSkip() {
			return expr
		}
	}

	expr = r.visitExprChildren(expr)

	if r.Order == BottomUp && r.Expr != nil {
		expr = r.callExpr(expr)
	}
	return expr
}

func (r *Rewriter) callExpr(expr Expr) Expr {
	result := r.Expr(expr)
	if result.Data == nil {
		PanicStructural(expr.Loc, "An expression was replaced with an empty node")
	}
	return result
}

func (r *Rewriter) visitExprChildren(expr Expr) Expr {
	switch e := expr.Data.(type) {
	case *EArray:
		return Expr{Loc: expr.Loc, Data: &EArray{Items: r.rewriteExprs(e.Items)}}

	case *EUnary:
		value := r.RewriteExpr(e.Value)
		if e.Op.IsUpdate() && !IsAssignTarget(value) {
			PanicStructural(expr.Loc, "The operand of %q must be an assignment target", OpTable[e.Op].Text)
		}
		return Expr{Loc: expr.Loc, Data: &EUnary{Op: e.Op, Value: value}}

	case *EBinary:
		left := r.RewriteExpr(e.Left)
		if e.Op.IsAssign() && !IsAssignTarget(left) {
			PanicStructural(expr.Loc, "The left side of %q must be an assignment target", OpTable[e.Op].Text)
		}
		return Expr{Loc: expr.Loc, Data: &EBinary{Op: e.Op, Left: left, Right: r.RewriteExpr(e.Right)}}

	case *ENew:
		return Expr{Loc: expr.Loc, Data: &ENew{Target: r.RewriteExpr(e.Target), Args: r.rewriteExprs(e.Args)}}

	case *ECall:
		clone := *e
		clone.Target = r.RewriteExpr(e.Target)
		clone.Args = r.rewriteExprs(e.Args)
		return Expr{Loc: expr.Loc, Data: &clone}

	case *EDot:
		clone := *e
		clone.Target = r.RewriteExpr(e.Target)
		return Expr{Loc: expr.Loc, Data: &clone}

	case *EIndex:
		clone := *e
		clone.Target = r.RewriteExpr(e.Target)
		clone.Index = r.RewriteExpr(e.Index)
		return Expr{Loc: expr.Loc, Data: &clone}

	case *EArrow:
		names := ArgNames(e.Args)
		names = append(names, VarDeclaredNames(e.Body.Stmts)...)
		names = append(names, LexicallyDeclaredNames(e.Body.Stmts)...)
		scope := ScopeInfo{Kind: ScopeArrow, Loc: expr.Loc, Names: names}
		if !r.enter(scope) {
			return expr
		}
		clone := *e
		depth := r.depth
		r.depth = 0
		clone.Args = r.rewriteArgs(e.Args)
		r.depth = depth + 1
		clone.Body.Stmts = r.RewriteStmts(e.Body.Stmts)
		r.depth = depth
		r.exit(scope)
		return Expr{Loc: expr.Loc, Data: &clone}

	case *EFunction:
		return Expr{Loc: expr.Loc, Data: &EFunction{Fn: r.rewriteFn(expr.Loc, e.Fn, true)}}

	case *EClass:
		return Expr{Loc: expr.Loc, Data: &EClass{Class: r.rewriteClass(e.Class)}}

	case *EObject:
		properties := make([]Property, len(e.Properties))
		for i, property := range e.Properties {
			if property.IsComputed || property.Kind == PropertySpread {
				property.Key = r.RewriteExpr(property.Key)
			}
			property.ValueOrNil = r.RewriteExpr(property.ValueOrNil)
			property.InitializerOrNil = r.RewriteExpr(property.InitializerOrNil)
			properties[i] = property
		}
		return Expr{Loc: expr.Loc, Data: &EObject{Properties: properties}}

	case *ESpread:
		return Expr{Loc: expr.Loc, Data: &ESpread{Value: r.RewriteExpr(e.Value)}}

	case *ETemplate:
		clone := *e
		clone.TagOrNil = r.RewriteExpr(e.TagOrNil)
		clone.Parts = make([]TemplatePart, len(e.Parts))
		for i, part := range e.Parts {
			part.Value = r.RewriteExpr(part.Value)
			clone.Parts[i] = part
		}
		return Expr{Loc: expr.Loc, Data: &clone}

	case *EAwait:
		return Expr{Loc: expr.Loc, Data: &EAwait{Value: r.RewriteExpr(e.Value)}}

	case *EYield:
		return Expr{Loc: expr.Loc, Data: &EYield{ValueOrNil: r.RewriteExpr(e.ValueOrNil), IsStar: e.IsStar}}

	case *EIf:
		return Expr{Loc: expr.Loc, Data: &EIf{Test: r.RewriteExpr(e.Test), Yes: r.RewriteExpr(e.Yes), No: r.RewriteExpr(e.No)}}

	case *EImportCall:
		return Expr{Loc: expr.Loc, Data: &EImportCall{Expr: r.RewriteExpr(e.Expr)}}
	}

	// Leaves such as identifiers and literals
	return expr
}

func ArgNames(args []Arg) (names []string) {
	for _, arg := range args {
		ForEachBindingName(arg.Binding, func(name LocName) { names = append(names, name.Name) })
	}
	return
}

func loopInitNames(init Stmt) (names []string) {
	if local, ok := init.Data.(*SLocal); ok && local.Kind != LocalVar {
		for _, decl := range local.Decls {
			ForEachBindingName(decl.Binding, func(name LocName) { names = append(names, name.Name) })
		}
	}
	return
}

// Returns the names declared with "let", "const", "class", or "function"
// directly inside this statement list. Function declarations are treated as
// block-scoped, which is what strict mode code does.
func LexicallyDeclaredNames(stmts []Stmt) (names []string) {
	for _, stmt := range stmts {
		switch s := stmt.Data.(type) {
		case *SLocal:
			if s.Kind != LocalVar {
				for _, decl := range s.Decls {
					ForEachBindingName(decl.Binding, func(name LocName) { names = append(names, name.Name) })
				}
			}

		case *SFunction:
			if s.Fn.Name != nil {
				names = append(names, s.Fn.Name.Name)
			}

		case *SClass:
			if s.Class.Name != nil {
				names = append(names, s.Class.Name.Name)
			}

		case *SExportDefault:
			switch v := s.Value.Data.(type) {
			case *SFunction:
				if v.Fn.Name != nil {
					names = append(names, v.Fn.Name.Name)
				}
			case *SClass:
				if v.Class.Name != nil {
					names = append(names, v.Class.Name.Name)
				}
			}
		}
	}
	return
}

// Returns the names declared with "var" anywhere inside this statement list,
// not counting nested functions
func VarDeclaredNames(stmts []Stmt) (names []string) {
	var visit func(stmt Stmt)
	visit = func(stmt Stmt) {
		switch s := stmt.Data.(type) {
		case *SLocal:
			if s.Kind == LocalVar {
				for _, decl := range s.Decls {
					ForEachBindingName(decl.Binding, func(name LocName) { names = append(names, name.Name) })
				}
			}
		case *SBlock:
			for _, child := range s.Stmts {
				visit(child)
			}
		case *SIf:
			visit(s.Yes)
			if s.NoOrNil.Data != nil {
				visit(s.NoOrNil)
			}
		case *SFor:
			if s.InitOrNil.Data != nil {
				visit(s.InitOrNil)
			}
			visit(s.Body)
		case *SForIn:
			visit(s.Init)
			visit(s.Body)
		case *SForOf:
			visit(s.Init)
			visit(s.Body)
		case *SWhile:
			visit(s.Body)
		case *SDoWhile:
			visit(s.Body)
		case *SWith:
			visit(s.Body)
		case *SLabel:
			visit(s.Stmt)
		case *STry:
			visit(Stmt{Data: &s.Block})
			if s.Catch != nil {
				visit(Stmt{Data: &s.Catch.Block})
			}
			if s.Finally != nil {
				visit(Stmt{Data: &s.Finally.Block})
			}
		case *SSwitch:
			for _, c := range s.Cases {
				for _, child := range c.Body {
					visit(child)
				}
			}
		}
	}
	for _, stmt := range stmts {
		visit(stmt)
	}
	return
}
