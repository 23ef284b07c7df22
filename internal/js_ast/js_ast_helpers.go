package js_ast

import (
	"path"
	"strings"

	"github.com/lowerjs/lowerjs/internal/helpers"
	"github.com/lowerjs/lowerjs/internal/logger"
)

func Ident(loc logger.Loc, name string) Expr {
	return Expr{Loc: loc, Data: &EIdentifier{Name: name}}
}

func Dot(target Expr, name string) Expr {
	return Expr{Loc: target.Loc, Data: &EDot{Target: target, Name: name, NameLoc: target.Loc}}
}

func Call(target Expr, args ...Expr) Expr {
	return Expr{Loc: target.Loc, Data: &ECall{Target: target, Args: args}}
}

func StringExpr(loc logger.Loc, text string) Expr {
	return Expr{Loc: loc, Data: &EString{Value: helpers.StringToUTF16(text)}}
}

func Assign(a Expr, b Expr) Expr {
	return Expr{Loc: a.Loc, Data: &EBinary{Op: BinOpAssign, Left: a, Right: b}}
}

func AssignStmt(a Expr, b Expr) Stmt {
	return Stmt{Loc: a.Loc, Data: &SExpr{Value: Assign(a, b)}}
}

func ExprStmt(value Expr) Stmt {
	return Stmt{Loc: value.Loc, Data: &SExpr{Value: value}}
}

func VarStmt(loc logger.Loc, name string, valueOrNil Expr) Stmt {
	return Stmt{Loc: loc, Data: &SLocal{Kind: LocalVar, Decls: []Decl{{
		Binding:    Binding{Loc: loc, Data: &BIdentifier{Name: name}},
		ValueOrNil: valueOrNil,
	}}}}
}

func DirectiveStmt(loc logger.Loc, text string) Stmt {
	return Stmt{Loc: loc, Data: &SDirective{Value: helpers.StringToUTF16(text)}}
}

func JoinWithComma(a Expr, b Expr) Expr {
	return Expr{Loc: a.Loc, Data: &EBinary{Op: BinOpComma, Left: a, Right: b}}
}

func JoinAllWithComma(all []Expr) (result Expr) {
	result = all[0]
	for _, value := range all[1:] {
		result = JoinWithComma(result, value)
	}
	return
}

func IsSuperCall(stmt Stmt) bool {
	if expr, ok := stmt.Data.(*SExpr); ok {
		if call, ok := expr.Value.Data.(*ECall); ok {
			if _, ok := call.Target.Data.(*ESuper); ok {
				return true
			}
		}
	}
	return false
}

func IsDirective(stmt Stmt, text string) bool {
	if d, ok := stmt.Data.(*SDirective); ok {
		return helpers.UTF16EqualsString(d.Value, text)
	}
	return false
}

// Returns true for expressions that may appear on the left of "=" or as the
// operand of "++" and "--"
func IsAssignTarget(expr Expr) bool {
	switch expr.Data.(type) {
	case *EIdentifier, *EDot, *EIndex, *EArray, *EObject, *EMissing:
		return true
	}
	return false
}

// Returns true if the value of this expression doesn't depend on where it is
// evaluated. Literals and function values qualify but reading a variable
// doesn't, since the variable may change or still be uninitialized.
func ReadsNoBindings(expr Expr) bool {
	switch e := expr.Data.(type) {
	case *ENull, *EUndefined, *EBoolean, *ENumber,
		*EBigInt, *EString, *ERegExp, *EFunction, *EArrow:
		return true

	case *EUnary:
		switch e.Op {
		case UnOpPos, UnOpNeg, UnOpCpl, UnOpNot, UnOpVoid:
			return ReadsNoBindings(e.Value)
		}

	case *EArray:
		for _, item := range e.Items {
			if !ReadsNoBindings(item) {
				return false
			}
		}
		return true

	case *EObject:
		for _, property := range e.Properties {
			if property.Kind == PropertySpread || property.WasShorthand {
				return false
			}
			if property.IsComputed && !ReadsNoBindings(property.Key) {
				return false
			}
			if property.ValueOrNil.Data != nil && !ReadsNoBindings(property.ValueOrNil) {
				return false
			}
		}
		return true

	case *ETemplate:
		if e.TagOrNil.Data != nil {
			return false
		}
		for _, part := range e.Parts {
			if !ReadsNoBindings(part.Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Calls "visit" for every identifier bound by a binding pattern, in source
// order
func ForEachBindingName(binding Binding, visit func(LocName)) {
	switch b := binding.Data.(type) {
	case *BIdentifier:
		visit(LocName{Loc: binding.Loc, Name: b.Name})

	case *BArray:
		for _, item := range b.Items {
			ForEachBindingName(item.Binding, visit)
		}

	case *BObject:
		for _, property := range b.Properties {
			ForEachBindingName(property.Value, visit)
		}
	}
}

// This is used to derive readable variable names for "require" calls
func GenerateNonUniqueNameFromPath(text string) string {
	dir, base := path.Split(strings.ReplaceAll(text, "\\", "/"))
	if dot := strings.LastIndexByte(base, '.'); dot > 0 {
		base = base[:dot]
	}

	// If the name is "index", use the directory name instead. This is because
	// many packages in npm use the file name "index.js" because it triggers
	// node's implicit module resolution rules that allows you to import it by
	// just naming the directory.
	if base == "index" {
		if dirBase := path.Base(strings.TrimSuffix(dir, "/")); dirBase != "." && dirBase != "/" && dirBase != ".." {
			base = dirBase
		}
	}

	// Convert it to an ASCII identifier
	bytes := []byte{}
	needsGap := false
	for _, c := range base {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (len(bytes) > 0 && c >= '0' && c <= '9') {
			if needsGap {
				bytes = append(bytes, '_')
				needsGap = false
			}
			bytes = append(bytes, byte(c))
		} else if len(bytes) > 0 {
			needsGap = true
		}
	}

	// Make sure the name isn't empty
	if len(bytes) == 0 {
		return "_"
	}
	return string(bytes)
}
