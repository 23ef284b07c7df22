package js_lower

import (
	"fmt"

	"github.com/lowerjs/lowerjs/internal/compat"
	"github.com/lowerjs/lowerjs/internal/helpers"
	"github.com/lowerjs/lowerjs/internal/js_ast"
	"github.com/lowerjs/lowerjs/internal/logger"
	"github.com/lowerjs/lowerjs/internal/renamer"
)

type memberKind uint8

const (
	memberMethod memberKind = iota
	memberGetter
	memberSetter
	memberField
	memberStaticBlock
)

type classMember struct {
	loc      logger.Loc
	kind     memberKind
	isStatic bool

	// A string or number literal, or a reference to the temporary that holds
	// a computed key
	key js_ast.Expr

	fn         js_ast.Fn
	valueOrNil js_ast.Expr
	block      []js_ast.Stmt
}

// Everything class lowering needs to know about one class, in source order
type classDescriptor struct {
	loc  logger.Loc
	name string

	ctorOrNil *js_ast.Fn
	ctorLoc   logger.Loc

	// The IIFE parameter that holds the superclass and the argument passed
	// for it. The argument is nil for classes without "extends".
	superParam string
	superArg   js_ast.Expr

	// The "_super" binding created with "_create_super"
	superCtor string

	members []classMember

	// Computed keys are evaluated once, in order, before the constructor
	keyCaptures     []js_ast.Stmt
	hasComputedKeys bool
}

func (desc *classDescriptor) isDerived() bool {
	return desc.superArg.Data != nil
}

// The standalone form is a single function expression. Anything that has to
// run after the constructor is defined needs a closure.
func (desc *classDescriptor) needsClosure() bool {
	if desc.isDerived() || desc.hasComputedKeys {
		return true
	}
	for _, member := range desc.members {
		if member.kind != memberField || member.isStatic {
			return true
		}
	}
	return false
}

func (desc *classDescriptor) hasInstanceFields() bool {
	for _, member := range desc.members {
		if member.kind == memberField && !member.isStatic {
			return true
		}
	}
	return false
}

func (desc *classDescriptor) superRef(loc logger.Loc) js_ast.Expr {
	if desc.isDerived() {
		return js_ast.Ident(loc, desc.superParam)
	}
	return js_ast.Ident(loc, "Object")
}

func (l *lowerer) shouldLowerClass(class *js_ast.Class) bool {
	unsupported := l.options.UnsupportedJSFeatures
	if unsupported.Has(compat.Class) {
		return true
	}

	// Classes are lowered as a whole when a member can't be expressed
	for _, property := range class.Properties {
		if property.ClassStaticBlock != nil {
			if unsupported.Has(compat.ClassStaticBlocks) {
				return true
			}
		} else if isClassField(property) && unsupported.Has(compat.ClassField) {
			return true
		}
	}
	return false
}

func isClassField(property js_ast.Property) bool {
	return property.ClassStaticBlock == nil && !property.IsMethod && property.Kind == js_ast.PropertyNormal
}

func isConstructorProperty(property js_ast.Property) bool {
	if property.IsMethod && !property.IsStatic && !property.IsComputed {
		if str, ok := property.Key.Data.(*js_ast.EString); ok {
			return helpers.UTF16EqualsString(str.Value, "constructor")
		}
	}
	return false
}

// Returns an expression that evaluates to the constructor. The class must
// already have its children lowered. "defaultName" names anonymous classes.
func (l *lowerer) lowerClass(loc logger.Loc, class *js_ast.Class, defaultName string) js_ast.Expr {
	l.names.EnterScope()
	defer l.names.ExitScope()

	name := defaultName
	if class.Name != nil {
		name = class.Name.Name
	}
	if name == "" {
		name = l.names.DeclareSynthetic("_class")
	}

	desc := l.describeClass(class, name)
	ctor := l.lowerConstructor(desc)

	if !desc.needsClosure() {
		fn := &js_ast.EFunction{Fn: ctor}
		l.strictFns[fn] = true
		return js_ast.Expr{Loc: loc, Data: fn}
	}

	var stmts []js_ast.Stmt
	stmts = append(stmts, desc.keyCaptures...)
	stmts = append(stmts, js_ast.Stmt{Loc: desc.ctorLoc, Data: &js_ast.SFunction{Fn: ctor}})

	if desc.isDerived() {
		stmts = append(stmts,
			js_ast.ExprStmt(l.helpers.call(loc, "inherits", js_ast.Ident(loc, name), js_ast.Ident(loc, desc.superParam))),
			js_ast.VarStmt(loc, desc.superCtor, l.helpers.call(loc, "create_super", js_ast.Ident(loc, name))),
		)
	}

	stmts = append(stmts, l.lowerMethods(desc)...)
	stmts = append(stmts, l.lowerAccessors(desc)...)
	stmts = append(stmts, l.lowerStaticInitializers(desc)...)
	stmts = append(stmts, js_ast.Stmt{Loc: loc, Data: &js_ast.SReturn{ValueOrNil: js_ast.Ident(loc, name)}})

	closure := &js_ast.EFunction{Fn: js_ast.Fn{Body: js_ast.FnBody{Loc: desc.loc, Stmts: stmts}}}
	var args []js_ast.Expr
	if desc.isDerived() {
		closure.Fn.Args = []js_ast.Arg{{Binding: js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Name: desc.superParam}}}}
		args = []js_ast.Expr{desc.superArg}
	}
	l.strictFns[closure] = true

	return js_ast.Expr{Loc: loc, Data: &js_ast.ECall{
		Target:                 js_ast.Expr{Loc: loc, Data: closure},
		Args:                   args,
		CanBeUnwrappedIfUnused: true,
	}}
}

func (l *lowerer) describeClass(class *js_ast.Class, name string) *classDescriptor {
	desc := &classDescriptor{loc: class.BodyLoc, name: name, ctorLoc: class.BodyLoc}

	if class.ExtendsOrNil.Data != nil {
		desc.superArg = class.ExtendsOrNil
		if id, ok := class.ExtendsOrNil.Data.(*js_ast.EIdentifier); ok {
			desc.superParam = id.Name
		} else {
			desc.superParam = l.names.DeclareSynthetic("_superClass")
		}
		desc.superCtor = l.names.DeclareSynthetic("_super")
	}

	for _, property := range class.Properties {
		if property.ClassStaticBlock != nil {
			desc.members = append(desc.members, classMember{
				loc:      property.ClassStaticBlock.Loc,
				kind:     memberStaticBlock,
				isStatic: true,
				block:    property.ClassStaticBlock.Stmts,
			})
			continue
		}

		if _, ok := property.Key.Data.(*js_ast.EPrivateIdentifier); ok {
			l.unsupported(property.Key.Loc, "private class members")
			continue
		}

		if isConstructorProperty(property) {
			if fn, ok := property.ValueOrNil.Data.(*js_ast.EFunction); ok {
				ctor := fn.Fn
				desc.ctorOrNil = &ctor
				desc.ctorLoc = property.ValueOrNil.Loc
			}
			continue
		}

		member := classMember{
			loc:      property.Loc,
			isStatic: property.IsStatic,
			key:      l.captureKey(desc, property),
		}
		switch {
		case property.Kind == js_ast.PropertyGet:
			member.kind = memberGetter
		case property.Kind == js_ast.PropertySet:
			member.kind = memberSetter
		case property.IsMethod:
			member.kind = memberMethod
		default:
			member.kind = memberField
			member.valueOrNil = property.InitializerOrNil
		}
		if member.kind != memberField {
			if fn, ok := property.ValueOrNil.Data.(*js_ast.EFunction); ok {
				member.fn = fn.Fn
			}
		}
		desc.members = append(desc.members, member)
	}

	// Accessors are installed after all methods, so a method can't replace
	// an accessor that came before it
	for i, member := range desc.members {
		if member.kind != memberMethod {
			continue
		}
		for _, prev := range desc.members[:i] {
			if (prev.kind == memberGetter || prev.kind == memberSetter) &&
				prev.isStatic == member.isStatic && sameKey(prev.key, member.key) {
				l.unsupported(member.loc, "a method that replaces an earlier getter or setter")
				break
			}
		}
	}

	return desc
}

// Computed keys that aren't literals are evaluated once into a temporary at
// the top of the closure, which keeps their side effects in source order
func (l *lowerer) captureKey(desc *classDescriptor, property js_ast.Property) js_ast.Expr {
	key := property.Key
	if !property.IsComputed {
		return key
	}
	switch key.Data.(type) {
	case *js_ast.EString, *js_ast.ENumber:
		return key
	}

	if construct, ok := usesEnclosingFunction(key); ok {
		l.unsupported(key.Loc, fmt.Sprintf("a computed class key that uses %q", construct))
	}
	temp := l.names.DeclareSynthetic("_key")
	desc.keyCaptures = append(desc.keyCaptures, js_ast.VarStmt(key.Loc, temp, key))
	desc.hasComputedKeys = true
	return js_ast.Ident(key.Loc, temp)
}

// Keys move into a new function, where these would mean something else
func usesEnclosingFunction(expr js_ast.Expr) (construct string, found bool) {
	var r *js_ast.Rewriter
	r = &js_ast.Rewriter{
		Order: js_ast.TopDown,
		Enter: func(scope js_ast.ScopeInfo) bool {
			return scope.Kind != js_ast.ScopeClassBody
		},
		Expr: func(expr js_ast.Expr) js_ast.Expr {
			if found {
				r.SkipChildren()
				return expr
			}
			switch e := expr.Data.(type) {
			case *js_ast.EFunction:
				r.SkipChildren()
			case *js_ast.EThis:
				construct, found = "this", true
			case *js_ast.ESuper:
				construct, found = "super", true
			case *js_ast.ENewTarget:
				construct, found = "new.target", true
			case *js_ast.EAwait:
				construct, found = "await", true
			case *js_ast.EYield:
				construct, found = "yield", true
			case *js_ast.EIdentifier:
				if e.Name == "arguments" {
					construct, found = "arguments", true
				}
			}
			return expr
		},
	}
	r.RewriteExpr(expr)
	return
}

// Instance fields are assigned to "this" in the constructor, which is the
// "_this" binding in a derived class
func (l *lowerer) fieldInitializers(desc *classDescriptor, thisName string) []js_ast.Stmt {
	ctx := classContext{desc: desc, thisName: thisName}
	var stmts []js_ast.Stmt

	// Initializers move into the constructor body, where its parameters
	// would shadow whatever the initializer meant to refer to
	isParameter := func(name string) bool {
		kind, ok := l.names.Lookup(name)
		return ok && kind == renamer.BindingParameter
	}

	for _, member := range desc.members {
		if member.kind != memberField || member.isStatic {
			continue
		}
		value := js_ast.Expr{Loc: member.loc, Data: &js_ast.EUndefined{}}
		if member.valueOrNil.Data != nil {
			if name, ok := referencesAnyName(member.valueOrNil, isParameter); ok {
				l.unsupported(member.valueOrNil.Loc, fmt.Sprintf("a field initializer that references the constructor parameter %q", name))
			}
			value = l.rewriteClassExpr(member.valueOrNil, ctx)
		}
		stmts = append(stmts, js_ast.AssignStmt(memberTarget(ctx.thisValue(member.loc), member.key), value))
	}
	return stmts
}

func (l *lowerer) lowerConstructor(desc *classDescriptor) js_ast.Fn {
	l.names.EnterScope()
	defer l.names.ExitScope()

	if desc.ctorOrNil != nil {
		for _, name := range js_ast.ArgNames(desc.ctorOrNil.Args) {
			l.names.Declare(name, renamer.BindingParameter)
		}
	}

	loc := desc.ctorLoc
	ctor := js_ast.Fn{Name: &js_ast.LocName{Loc: loc, Name: desc.name}, Body: js_ast.FnBody{Loc: loc}}
	var userStmts []js_ast.Stmt
	if desc.ctorOrNil != nil {
		ctor.Args = desc.ctorOrNil.Args
		ctor.HasRestArg = desc.ctorOrNil.HasRestArg
		ctor.Body.Loc = desc.ctorOrNil.Body.Loc
		userStmts = desc.ctorOrNil.Body.Stmts
	}

	// Directives must stay at the top of the body
	var stmts []js_ast.Stmt
	for len(userStmts) > 0 {
		if _, ok := userStmts[0].Data.(*js_ast.SDirective); !ok {
			break
		}
		stmts = append(stmts, userStmts[0])
		userStmts = userStmts[1:]
	}

	stmts = append(stmts, js_ast.ExprStmt(l.helpers.call(loc, "class_call_check",
		js_ast.Expr{Loc: loc, Data: &js_ast.EThis{}}, js_ast.Ident(loc, desc.name))))

	if !desc.isDerived() {
		ctx := classContext{desc: desc, isCtor: true}
		ctor.Args = l.rewriteClassArgs(ctor.Args, ctx)
		stmts = append(stmts, l.fieldInitializers(desc, "")...)
		stmts = append(stmts, l.rewriteClassStmts(userStmts, ctx)...)
		ctor.Body.Stmts = stmts
		return ctor
	}

	superCall := func(method string, args ...js_ast.Expr) js_ast.Expr {
		callArgs := append([]js_ast.Expr{{Loc: loc, Data: &js_ast.EThis{}}}, args...)
		return js_ast.Call(js_ast.Dot(js_ast.Ident(loc, desc.superCtor), method), callArgs...)
	}
	forwardArguments := func() js_ast.Expr {
		return superCall("apply", js_ast.Ident(loc, "arguments"))
	}

	if desc.ctorOrNil == nil && !desc.hasInstanceFields() {
		stmts = append(stmts, js_ast.Stmt{Loc: loc, Data: &js_ast.SReturn{ValueOrNil: forwardArguments()}})
		ctor.Body.Stmts = stmts
		return ctor
	}

	this := l.names.DeclareSynthetic("_this")
	ctx := classContext{desc: desc, isCtor: true, thisName: this, derivedThis: this}
	fields := l.fieldInitializers(desc, this)
	stmts = append(stmts, js_ast.VarStmt(loc, this, js_ast.Expr{}))

	if desc.ctorOrNil == nil {
		stmts = append(stmts, js_ast.AssignStmt(js_ast.Ident(loc, this), forwardArguments()))
		stmts = append(stmts, fields...)
	} else {
		ctor.Args = l.rewriteClassArgs(ctor.Args, ctx)
		for _, stmt := range userStmts {
			if !js_ast.IsSuperCall(stmt) {
				stmts = append(stmts, l.rewriteClassStmts([]js_ast.Stmt{stmt}, ctx)...)
				continue
			}

			call := stmt.Data.(*js_ast.SExpr).Value.Data.(*js_ast.ECall)
			args := make([]js_ast.Expr, len(call.Args))
			for i, arg := range call.Args {
				args[i] = l.rewriteClassExpr(arg, ctx)
			}
			var value js_ast.Expr
			if len(args) == 1 {
				if spread, ok := args[0].Data.(*js_ast.ESpread); ok {
					value = superCall("apply", spread.Value)
				}
			}
			if value.Data == nil {
				for _, arg := range args {
					if _, ok := arg.Data.(*js_ast.ESpread); ok {
						l.unsupported(arg.Loc, "spread arguments in \"super()\"")
					}
				}
				value = superCall("call", args...)
			}
			stmts = append(stmts, js_ast.AssignStmt(js_ast.Ident(stmt.Loc, this), value))
			stmts = append(stmts, fields...)
		}
	}

	if !endsWithJump(stmts) {
		stmts = append(stmts, js_ast.Stmt{Loc: loc, Data: &js_ast.SReturn{ValueOrNil: js_ast.Ident(loc, this)}})
	}
	ctor.Body.Stmts = stmts
	return ctor
}

func endsWithJump(stmts []js_ast.Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	switch stmts[len(stmts)-1].Data.(type) {
	case *js_ast.SReturn, *js_ast.SThrow:
		return true
	}
	return false
}

// Methods are assigned to the prototype (or the constructor for static
// methods) in source order
func (l *lowerer) lowerMethods(desc *classDescriptor) []js_ast.Stmt {
	var stmts []js_ast.Stmt
	proto := ""

	for _, member := range desc.members {
		if member.kind != memberMethod {
			continue
		}
		var object js_ast.Expr
		if member.isStatic {
			object = js_ast.Ident(member.loc, desc.name)
		} else {
			if proto == "" {
				proto = l.names.DeclareSynthetic("_proto")
				stmts = append(stmts, js_ast.VarStmt(member.loc, proto,
					js_ast.Dot(js_ast.Ident(member.loc, desc.name), "prototype")))
			}
			object = js_ast.Ident(member.loc, proto)
		}
		fn := l.lowerMethodFn(desc, member, keyName(member.key))
		stmts = append(stmts, js_ast.AssignStmt(memberTarget(object, member.key), js_ast.Expr{Loc: member.loc, Data: &js_ast.EFunction{Fn: fn}}))
	}

	return stmts
}

type accessorPair struct {
	key    js_ast.Expr
	getter js_ast.Expr
	setter js_ast.Expr
}

// Getters and setters for the same key share one descriptor
func (l *lowerer) lowerAccessors(desc *classDescriptor) []js_ast.Stmt {
	var protoProps, staticProps []*accessorPair
	find := func(list *[]*accessorPair, key js_ast.Expr) *accessorPair {
		for _, pair := range *list {
			if sameKey(pair.key, key) {
				return pair
			}
		}
		pair := &accessorPair{key: key}
		*list = append(*list, pair)
		return pair
	}

	for _, member := range desc.members {
		if member.kind != memberGetter && member.kind != memberSetter {
			continue
		}
		list := &protoProps
		if member.isStatic {
			list = &staticProps
		}
		pair := find(list, member.key)
		if member.kind == memberGetter {
			fn := l.lowerMethodFn(desc, member, "get")
			pair.getter = js_ast.Expr{Loc: member.loc, Data: &js_ast.EFunction{Fn: fn}}
		} else {
			fn := l.lowerMethodFn(desc, member, "set")
			pair.setter = js_ast.Expr{Loc: member.loc, Data: &js_ast.EFunction{Fn: fn}}
		}
	}

	if len(protoProps) == 0 && len(staticProps) == 0 {
		return nil
	}

	loc := desc.loc
	args := []js_ast.Expr{js_ast.Ident(loc, desc.name)}
	if len(protoProps) > 0 {
		args = append(args, descriptorArray(loc, protoProps))
	} else {
		args = append(args, js_ast.Expr{Loc: loc, Data: &js_ast.ENull{}})
	}
	if len(staticProps) > 0 {
		args = append(args, descriptorArray(loc, staticProps))
	}
	return []js_ast.Stmt{js_ast.ExprStmt(l.helpers.call(loc, "create_class", args...))}
}

func descriptorArray(loc logger.Loc, pairs []*accessorPair) js_ast.Expr {
	items := make([]js_ast.Expr, 0, len(pairs))
	for _, pair := range pairs {
		key := pair.key
		if num, ok := key.Data.(*js_ast.ENumber); ok {
			key = js_ast.StringExpr(key.Loc, numberToKey(num.Value))
		}
		properties := []js_ast.Property{{Key: js_ast.StringExpr(key.Loc, "key"), ValueOrNil: key}}
		if pair.getter.Data != nil {
			properties = append(properties, js_ast.Property{Key: js_ast.StringExpr(pair.getter.Loc, "get"), ValueOrNil: pair.getter})
		}
		if pair.setter.Data != nil {
			properties = append(properties, js_ast.Property{Key: js_ast.StringExpr(pair.setter.Loc, "set"), ValueOrNil: pair.setter})
		}
		items = append(items, js_ast.Expr{Loc: key.Loc, Data: &js_ast.EObject{Properties: properties}})
	}
	return js_ast.Expr{Loc: loc, Data: &js_ast.EArray{Items: items}}
}

// Static fields and static blocks run after every method is defined, in
// source order, with "this" referring to the constructor
func (l *lowerer) lowerStaticInitializers(desc *classDescriptor) []js_ast.Stmt {
	var stmts []js_ast.Stmt

	for _, member := range desc.members {
		if !member.isStatic {
			continue
		}
		ctorRef := js_ast.Ident(member.loc, desc.name)

		switch member.kind {
		case memberField:
			value := js_ast.Expr{Loc: member.loc, Data: &js_ast.EUndefined{}}
			if member.valueOrNil.Data != nil {
				value = l.rewriteClassExpr(member.valueOrNil, classContext{desc: desc, isStatic: true, thisName: desc.name})
			}
			stmts = append(stmts, js_ast.AssignStmt(memberTarget(ctorRef, member.key), value))

		case memberStaticBlock:
			body := l.rewriteClassStmts(member.block, classContext{desc: desc, isStatic: true})
			fn := js_ast.Expr{Loc: member.loc, Data: &js_ast.EFunction{Fn: js_ast.Fn{Body: js_ast.FnBody{Loc: member.loc, Stmts: body}}}}
			stmts = append(stmts, js_ast.ExprStmt(js_ast.Call(js_ast.Dot(fn, "call"), ctorRef)))
		}
	}

	return stmts
}

// Method functions take the member's name so stack traces stay readable,
// unless that name would shadow something the method refers to
func (l *lowerer) lowerMethodFn(desc *classDescriptor, member classMember, name string) js_ast.Fn {
	fn := member.fn
	ctx := classContext{desc: desc, isStatic: member.isStatic}
	fn.Args = l.rewriteClassArgs(fn.Args, ctx)
	fn.Body.Stmts = l.rewriteClassStmts(fn.Body.Stmts, ctx)
	fn.Name = nil
	if name != "" && js_ast.IsValidBindingName(name) && !fnMentionsName(fn, name) {
		fn.Name = &js_ast.LocName{Loc: member.loc, Name: name}
	}
	return fn
}

// Returns the name of a literal string key
func keyName(key js_ast.Expr) string {
	if str, ok := key.Data.(*js_ast.EString); ok {
		return helpers.UTF16ToString(str.Value)
	}
	return ""
}

func sameKey(a js_ast.Expr, b js_ast.Expr) bool {
	switch ka := a.Data.(type) {
	case *js_ast.EString:
		if kb, ok := b.Data.(*js_ast.EString); ok {
			return helpers.UTF16ToString(ka.Value) == helpers.UTF16ToString(kb.Value)
		}
	case *js_ast.ENumber:
		if kb, ok := b.Data.(*js_ast.ENumber); ok {
			return ka.Value == kb.Value
		}
	case *js_ast.EIdentifier:
		if kb, ok := b.Data.(*js_ast.EIdentifier); ok {
			return ka.Name == kb.Name
		}
	}
	return false
}

func numberToKey(value float64) string {
	return fmt.Sprintf("%v", value)
}

// Returns "object.key" for identifier names and "object[key]" otherwise
func memberTarget(object js_ast.Expr, key js_ast.Expr) js_ast.Expr {
	if name := keyName(key); name != "" && js_ast.IsIdentifier(name) {
		return js_ast.Expr{Loc: key.Loc, Data: &js_ast.EDot{Target: object, Name: name, NameLoc: key.Loc}}
	}
	return js_ast.Expr{Loc: key.Loc, Data: &js_ast.EIndex{Target: object, Index: key}}
}

// Reports whether the function declares or refers to "name" anywhere
func fnMentionsName(fn js_ast.Fn, name string) bool {
	return mentionsName(js_ast.Expr{Data: &js_ast.EFunction{Fn: fn}}, name)
}

// Reports whether "name" is declared or referenced anywhere inside "expr".
// Giving a function or class that name would change what those see.
func mentionsName(expr js_ast.Expr, name string) bool {
	found := false
	var r *js_ast.Rewriter
	r = &js_ast.Rewriter{
		Order: js_ast.TopDown,
		Enter: func(scope js_ast.ScopeInfo) bool {
			for _, n := range scope.Names {
				if n == name {
					found = true
				}
			}
			return !found
		},
		Expr: func(expr js_ast.Expr) js_ast.Expr {
			if id, ok := expr.Data.(*js_ast.EIdentifier); ok && id.Name == name {
				found = true
			}
			if found {
				r.SkipChildren()
			}
			return expr
		},
	}
	r.RewriteExpr(expr)
	return found
}

// Returns the first identifier in "expr" that "accept" returns true for
func referencesAnyName(expr js_ast.Expr, accept func(string) bool) (string, bool) {
	match := ""
	r := js_ast.Rewriter{
		Order: js_ast.TopDown,
		Expr: func(expr js_ast.Expr) js_ast.Expr {
			if id, ok := expr.Data.(*js_ast.EIdentifier); ok && match == "" && accept(id.Name) {
				match = id.Name
			}
			return expr
		},
	}
	r.RewriteExpr(expr)
	return match, match != ""
}

// Code moved out of a class body loses its home object, so "super" has to
// name the superclass explicitly. Constructors of derived classes also
// replace "this" with the value returned from the superclass constructor.
type classContext struct {
	desc     *classDescriptor
	isStatic bool
	isCtor   bool

	// Replaces "this" when present
	thisName string

	// The "_this" binding of a derived constructor. Return statements in the
	// constructor return it.
	derivedThis string
}

func (ctx classContext) thisValue(loc logger.Loc) js_ast.Expr {
	if ctx.thisName != "" {
		return js_ast.Ident(loc, ctx.thisName)
	}
	return js_ast.Expr{Loc: loc, Data: &js_ast.EThis{}}
}

// "super.x" becomes "Super.prototype.x", or "Super.x" in static code
func (ctx classContext) superObject(loc logger.Loc) js_ast.Expr {
	ref := ctx.desc.superRef(loc)
	if ctx.isStatic {
		return ref
	}
	return js_ast.Dot(ref, "prototype")
}

func isSuperProperty(expr js_ast.Expr) bool {
	switch e := expr.Data.(type) {
	case *js_ast.EDot:
		_, ok := e.Target.Data.(*js_ast.ESuper)
		return ok
	case *js_ast.EIndex:
		_, ok := e.Target.Data.(*js_ast.ESuper)
		return ok
	}
	return false
}

func (l *lowerer) classContextRewriter(ctx classContext) *js_ast.Rewriter {
	arrowDepth := 0
	var r *js_ast.Rewriter

	// Rewrites the property access itself, leaving "super" behind
	superProperty := func(expr js_ast.Expr) js_ast.Expr {
		switch e := expr.Data.(type) {
		case *js_ast.EDot:
			clone := *e
			clone.Target = ctx.superObject(e.Target.Loc)
			return js_ast.Expr{Loc: expr.Loc, Data: &clone}
		case *js_ast.EIndex:
			clone := *e
			clone.Target = ctx.superObject(e.Target.Loc)
			clone.Index = r.RewriteExpr(e.Index)
			return js_ast.Expr{Loc: expr.Loc, Data: &clone}
		}
		return expr
	}

	r = &js_ast.Rewriter{
		Order: js_ast.TopDown,

		// Functions get their own "this" and "super" but arrow functions don't.
		// Classes that weren't lowered keep their members as-is.
		Enter: func(scope js_ast.ScopeInfo) bool {
			switch scope.Kind {
			case js_ast.ScopeClassBody, js_ast.ScopeFunction:
				return false
			case js_ast.ScopeArrow:
				arrowDepth++
			}
			return true
		},
		Exit: func(scope js_ast.ScopeInfo) {
			if scope.Kind == js_ast.ScopeArrow {
				arrowDepth--
			}
		},

		Stmt: func(stmt js_ast.Stmt) []js_ast.Stmt {
			if s, ok := stmt.Data.(*js_ast.SReturn); ok && ctx.derivedThis != "" && arrowDepth == 0 {
				value := js_ast.Ident(stmt.Loc, ctx.derivedThis)
				if s.ValueOrNil.Data != nil {
					value = l.helpers.call(stmt.Loc, "possible_constructor_return", value, r.RewriteExpr(s.ValueOrNil))
				}
				r.SkipChildren()
				return []js_ast.Stmt{{Loc: stmt.Loc, Data: &js_ast.SReturn{ValueOrNil: value}}}
			}
			return []js_ast.Stmt{stmt}
		},

		Expr: func(expr js_ast.Expr) js_ast.Expr {
			switch e := expr.Data.(type) {
			case *js_ast.EFunction:
				// This also keeps the identity of closures from nested classes
				r.SkipChildren()

			case *js_ast.EThis:
				if ctx.thisName != "" {
					return ctx.thisValue(expr.Loc)
				}

			case *js_ast.ENewTarget:
				if ctx.isCtor {
					l.unsupported(expr.Loc, "\"new.target\" in a class constructor")
				}

			case *js_ast.EPrivateIdentifier:
				l.unsupported(expr.Loc, "private class members")

			case *js_ast.ESuper:
				l.unsupported(expr.Loc, "\"super\" in this position")

			case *js_ast.ECall:
				if _, ok := e.Target.Data.(*js_ast.ESuper); ok {
					l.unsupported(e.Target.Loc, "\"super()\" outside of a top-level constructor statement")
					r.SkipChildren()
					return expr
				}
				if isSuperProperty(e.Target) {
					target := superProperty(e.Target)
					args := []js_ast.Expr{ctx.thisValue(e.Target.Loc)}
					for _, arg := range e.Args {
						args = append(args, r.RewriteExpr(arg))
					}
					r.SkipChildren()
					return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.ECall{Target: js_ast.Dot(target, "call"), Args: args}}
				}

			case *js_ast.EDot, *js_ast.EIndex:
				if isSuperProperty(expr) {
					result := superProperty(expr)
					r.SkipChildren()
					return result
				}

			case *js_ast.EBinary:
				if e.Op.IsAssign() && isSuperProperty(e.Left) {
					l.unsupported(e.Left.Loc, "assignment to a \"super\" property")
					r.SkipChildren()
				}

			case *js_ast.EUnary:
				if e.Op.IsUpdate() && isSuperProperty(e.Value) {
					l.unsupported(e.Value.Loc, "assignment to a \"super\" property")
					r.SkipChildren()
				}
			}
			return expr
		},
	}
	return r
}

func (l *lowerer) rewriteClassStmts(stmts []js_ast.Stmt, ctx classContext) []js_ast.Stmt {
	return l.classContextRewriter(ctx).RewriteStmts(stmts)
}

func (l *lowerer) rewriteClassExpr(expr js_ast.Expr, ctx classContext) js_ast.Expr {
	return l.classContextRewriter(ctx).RewriteExpr(expr)
}

func (l *lowerer) rewriteClassArgs(args []js_ast.Arg, ctx classContext) []js_ast.Arg {
	r := l.classContextRewriter(ctx)
	result := make([]js_ast.Arg, len(args))
	for i, arg := range args {
		result[i] = js_ast.Arg{Binding: arg.Binding, DefaultOrNil: r.RewriteExpr(arg.DefaultOrNil)}
	}
	return result
}

// Called bottom-up, so any classes nested inside have already been lowered
func (l *lowerer) lowerClassStmt(stmt js_ast.Stmt) []js_ast.Stmt {
	switch s := stmt.Data.(type) {
	case *js_ast.SClass:
		if !l.shouldLowerClass(&s.Class) {
			break
		}
		name := s.Class.Name.Name
		value := l.lowerClass(stmt.Loc, &s.Class, "")
		local := js_ast.VarStmt(stmt.Loc, name, value)
		local.Data.(*js_ast.SLocal).IsExport = s.IsExport
		return []js_ast.Stmt{local}

	case *js_ast.SExportDefault:
		class, ok := s.Value.Data.(*js_ast.SClass)
		if !ok || !l.shouldLowerClass(&class.Class) {
			break
		}
		value := l.lowerClass(s.Value.Loc, &class.Class, "")
		if class.Class.Name == nil {
			return []js_ast.Stmt{{Loc: stmt.Loc, Data: &js_ast.SExportDefault{
				DefaultName: s.DefaultName,
				Value:       js_ast.ExprStmt(value),
			}}}
		}
		name := class.Class.Name.Name
		return []js_ast.Stmt{
			js_ast.VarStmt(s.Value.Loc, name, value),
			{Loc: stmt.Loc, Data: &js_ast.SExportDefault{
				DefaultName: s.DefaultName,
				Value:       js_ast.ExprStmt(js_ast.Ident(s.Value.Loc, name)),
			}},
		}
	}
	return []js_ast.Stmt{stmt}
}

func (l *lowerer) lowerClassExpr(expr js_ast.Expr) js_ast.Expr {
	if e, ok := expr.Data.(*js_ast.EClass); ok && l.shouldLowerClass(&e.Class) {
		return l.lowerClass(expr.Loc, &e.Class, l.declNames[expr.Loc])
	}
	return expr
}

// "var B = class {}" names the class "B". Lowering is bottom-up, so the
// class is lowered before its declaration is seen. This records the name
// of each such class ahead of time, keyed by the class location. A class
// that mentions the name keeps the hygienic default instead.
func (l *lowerer) collectDeclNames(stmts []js_ast.Stmt) {
	r := &js_ast.Rewriter{
		Order: js_ast.TopDown,
		Stmt: func(stmt js_ast.Stmt) []js_ast.Stmt {
			s, ok := stmt.Data.(*js_ast.SLocal)
			if !ok {
				return []js_ast.Stmt{stmt}
			}
			for _, decl := range s.Decls {
				id, ok := decl.Binding.Data.(*js_ast.BIdentifier)
				if !ok {
					continue
				}
				if e, ok := decl.ValueOrNil.Data.(*js_ast.EClass); ok && e.Class.Name == nil &&
					js_ast.IsValidBindingName(id.Name) && !mentionsName(decl.ValueOrNil, id.Name) {
					l.declNames[decl.ValueOrNil.Loc] = id.Name
				}
			}
			return []js_ast.Stmt{stmt}
		},
	}
	r.RewriteStmts(stmts)
}
