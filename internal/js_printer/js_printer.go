package js_printer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lowerjs/lowerjs/internal/helpers"
	"github.com/lowerjs/lowerjs/internal/js_ast"
)

var positiveInfinity = math.Inf(1)
var negativeInfinity = math.Inf(-1)

const indentText = "    "

type printer struct {
	js                 []byte
	indent             int
	stmtStart          int
	exportDefaultStart int
	arrowExprStart     int
	forOfInitStart     int
	prevOpEnd          int
	prevNumEnd         int
	prevRegExpEnd      int
	prevOp             js_ast.OpCode
}

type PrintResult struct {
	JS []byte
}

// Print turns a tree back into source text. The output layout is fixed:
// four-space indentation, one statement per line, double-quoted strings, and
// object literals with one property per line. Comments are not preserved
// except for "/*#__PURE__*/" annotations on calls.
func Print(tree js_ast.AST) PrintResult {
	p := &printer{
		stmtStart:          -1,
		exportDefaultStart: -1,
		arrowExprStart:     -1,
		forOfInitStart:     -1,
		prevOpEnd:          -1,
		prevNumEnd:         -1,
		prevRegExpEnd:      -1,
	}

	if tree.Hashbang != "" {
		p.print(tree.Hashbang + "\n")
	}

	for _, stmt := range tree.Stmts {
		p.printStmt(stmt)
	}

	return PrintResult{JS: p.js}
}

func (p *printer) print(text string) {
	p.js = append(p.js, text...)
}

func (p *printer) printIndent() {
	for i := 0; i < p.indent; i++ {
		p.print(indentText)
	}
}

func (p *printer) printQuotedUTF16(text []uint16) {
	p.js = helpers.AppendQuotedUTF16(p.js, text, '"')
}

func (p *printer) printQuotedUTF8(text string) {
	p.printQuotedUTF16(helpers.StringToUTF16(text))
}

// Template literal contents use the same escapes as a backtick-quoted string
// without the surrounding quotes
func (p *printer) printUnquotedTemplateText(text []uint16) {
	quoted := helpers.AppendQuotedUTF16(nil, text, '`')
	p.js = append(p.js, quoted[1:len(quoted)-1]...)
}

func (p *printer) printSpaceBeforeIdentifier() {
	n := len(p.js)
	if n > 0 && (js_ast.IsIdentifierContinue(rune(p.js[n-1])) || n == p.prevRegExpEnd) {
		p.print(" ")
	}
}

func (p *printer) printSpaceBeforeOperator(next js_ast.OpCode) {
	if p.prevOpEnd == len(p.js) {
		prev := p.prevOp

		// "+ + y" => "+ +y"
		// "+ ++ y" => "+ ++y"
		// "x + + y" => "x+ +y"
		// "x ++ + y" => "x+++y"
		// "x + ++ y" => "x+ ++y"
		if ((prev == js_ast.BinOpAdd || prev == js_ast.UnOpPos) && (next == js_ast.BinOpAdd || next == js_ast.UnOpPos || next == js_ast.UnOpPreInc)) ||
			((prev == js_ast.BinOpSub || prev == js_ast.UnOpNeg) && (next == js_ast.BinOpSub || next == js_ast.UnOpNeg || next == js_ast.UnOpPreDec)) {
			p.print(" ")
		}
	}
}

func (p *printer) printSemicolonAfterStatement() {
	p.print(";\n")
}

func (p *printer) printNumber(value float64, level js_ast.L) {
	absValue := math.Abs(value)

	if value != value {
		p.printSpaceBeforeIdentifier()
		p.print("NaN")
	} else if value == positiveInfinity || value == negativeInfinity {
		wrap := value == negativeInfinity && level >= js_ast.LPrefix
		if wrap {
			p.print("(")
		}
		if value == negativeInfinity {
			p.printSpaceBeforeOperator(js_ast.UnOpNeg)
			p.print("-")
		} else {
			p.printSpaceBeforeIdentifier()
		}
		p.print("Infinity")
		if wrap {
			p.print(")")
		}
	} else if !math.Signbit(value) {
		p.printSpaceBeforeIdentifier()
		p.printNonNegativeFloat(absValue)

		// Remember the end of the latest number
		p.prevNumEnd = len(p.js)
	} else if level >= js_ast.LPrefix {
		// Expressions such as "(-1).toString" need to wrap negative numbers
		p.print("(-")
		p.printNonNegativeFloat(absValue)
		p.print(")")
	} else {
		p.printSpaceBeforeOperator(js_ast.UnOpNeg)
		p.print("-")
		p.printNonNegativeFloat(absValue)
		p.prevNumEnd = len(p.js)
	}
}

func (p *printer) printNonNegativeFloat(absValue float64) {
	if absValue < 1e21 && absValue == math.Trunc(absValue) {
		p.print(strconv.FormatFloat(absValue, 'f', -1, 64))
		return
	}

	// "1e-07" => "1e-7"
	text := strconv.FormatFloat(absValue, 'g', -1, 64)
	if e := strings.LastIndexByte(text, 'e'); e != -1 {
		mantissa, exponent := text[:e], text[e+1:]
		sign := ""
		if exponent[0] == '+' || exponent[0] == '-' {
			if exponent[0] == '-' {
				sign = "-"
			} else {
				sign = "+"
			}
			exponent = exponent[1:]
		}
		exponent = strings.TrimLeft(exponent, "0")
		text = mantissa + "e" + sign + exponent
	}
	p.print(text)
}

func (p *printer) printBinding(binding js_ast.Binding) {
	switch b := binding.Data.(type) {
	case *js_ast.BMissing:

	case *js_ast.BIdentifier:
		p.printSpaceBeforeIdentifier()
		p.print(b.Name)

	case *js_ast.BArray:
		p.print("[")
		for i, item := range b.Items {
			if i != 0 {
				p.print(", ")
			}
			if b.HasSpread && i+1 == len(b.Items) {
				p.print("...")
			}
			p.printBinding(item.Binding)

			if item.DefaultValueOrNil.Data != nil {
				p.print(" = ")
				p.printExpr(item.DefaultValueOrNil, js_ast.LComma, 0)
			}

			// Make sure there's a comma after trailing missing items
			if _, ok := item.Binding.Data.(*js_ast.BMissing); ok && i == len(b.Items)-1 {
				p.print(",")
			}
		}
		p.print("]")

	case *js_ast.BObject:
		p.print("{")
		if len(b.Properties) > 0 {
			p.print(" ")
		}
		for i, property := range b.Properties {
			if i != 0 {
				p.print(", ")
			}

			if property.IsSpread {
				p.print("...")
			} else {
				if property.IsComputed {
					p.print("[")
					p.printExpr(property.Key, js_ast.LComma, 0)
					p.print("]: ")
					p.printBinding(property.Value)
				} else if str, ok := property.Key.Data.(*js_ast.EString); ok && js_ast.IsIdentifier(helpers.UTF16ToString(str.Value)) {
					name := helpers.UTF16ToString(str.Value)
					p.print(name)

					// Use a shorthand property if the names are the same
					if id, ok := property.Value.Data.(*js_ast.BIdentifier); !ok || id.Name != name {
						p.print(": ")
						p.printBinding(property.Value)
					}
				} else {
					p.printExpr(property.Key, js_ast.LLowest, 0)
					p.print(": ")
					p.printBinding(property.Value)
				}

				if property.DefaultValueOrNil.Data != nil {
					p.print(" = ")
					p.printExpr(property.DefaultValueOrNil, js_ast.LComma, 0)
				}
				continue
			}

			p.printBinding(property.Value)
		}
		if len(b.Properties) > 0 {
			p.print(" ")
		}
		p.print("}")

	default:
		panic(fmt.Sprintf("Unexpected binding of type %T", binding.Data))
	}
}

func (p *printer) printFnArgs(args []js_ast.Arg, hasRestArg bool) {
	p.print("(")
	for i, arg := range args {
		if i != 0 {
			p.print(", ")
		}
		if hasRestArg && i+1 == len(args) {
			p.print("...")
		}
		p.printBinding(arg.Binding)

		if arg.DefaultOrNil.Data != nil {
			p.print(" = ")
			p.printExpr(arg.DefaultOrNil, js_ast.LComma, 0)
		}
	}
	p.print(")")
}

func (p *printer) printFn(fn js_ast.Fn) {
	p.printFnArgs(fn.Args, fn.HasRestArg)
	p.print(" ")
	p.printBlock(fn.Body.Stmts)
}

func (p *printer) printClass(class js_ast.Class) {
	if class.ExtendsOrNil.Data != nil {
		p.print(" extends ")
		p.printExpr(class.ExtendsOrNil, js_ast.LNew-1, 0)
	}
	p.print(" {")
	if len(class.Properties) == 0 {
		p.print("}")
		return
	}
	p.print("\n")
	p.indent++

	for _, item := range class.Properties {
		p.printIndent()

		if item.Kind == js_ast.PropertyClassStaticBlock {
			p.print("static ")
			p.printBlock(item.ClassStaticBlock.Stmts)
			p.print("\n")
			continue
		}

		p.printProperty(item)

		// Need semicolons after class fields
		if item.ValueOrNil.Data == nil {
			p.printSemicolonAfterStatement()
		} else {
			p.print("\n")
		}
	}

	p.indent--
	p.printIndent()
	p.print("}")
}

func (p *printer) printPropertyKey(item js_ast.Property) {
	if item.IsComputed {
		p.print("[")
		p.printExpr(item.Key, js_ast.LComma, 0)
		p.print("]")
		return
	}

	switch key := item.Key.Data.(type) {
	case *js_ast.EPrivateIdentifier:
		p.print(key.Name)

	case *js_ast.EString:
		if name := helpers.UTF16ToString(key.Value); js_ast.IsIdentifier(name) {
			p.printSpaceBeforeIdentifier()
			p.print(name)
		} else {
			p.printQuotedUTF16(key.Value)
		}

	default:
		p.printExpr(item.Key, js_ast.LLowest, 0)
	}
}

func (p *printer) printProperty(item js_ast.Property) {
	if item.Kind == js_ast.PropertySpread {
		p.print("...")
		p.printExpr(item.ValueOrNil, js_ast.LComma, 0)
		return
	}

	if item.IsStatic {
		p.print("static ")
	}

	switch item.Kind {
	case js_ast.PropertyGet:
		p.printSpaceBeforeIdentifier()
		p.print("get ")

	case js_ast.PropertySet:
		p.printSpaceBeforeIdentifier()
		p.print("set ")
	}

	if fn, ok := item.ValueOrNil.Data.(*js_ast.EFunction); item.IsMethod && ok {
		if fn.Fn.IsAsync {
			p.printSpaceBeforeIdentifier()
			p.print("async ")
		}
		if fn.Fn.IsGenerator {
			p.print("*")
		}
		p.printPropertyKey(item)
		p.printFn(fn.Fn)
		return
	}

	// Use a shorthand property if the source used one and the names still match
	if item.WasShorthand && !item.IsComputed {
		if key, ok := item.Key.Data.(*js_ast.EString); ok {
			if id, ok := item.ValueOrNil.Data.(*js_ast.EIdentifier); ok && helpers.UTF16EqualsString(key.Value, id.Name) {
				p.printSpaceBeforeIdentifier()
				p.print(id.Name)
				if item.InitializerOrNil.Data != nil {
					p.print(" = ")
					p.printExpr(item.InitializerOrNil, js_ast.LComma, 0)
				}
				return
			}
		}
	}

	p.printPropertyKey(item)

	if item.ValueOrNil.Data != nil {
		p.print(": ")
		p.printExpr(item.ValueOrNil, js_ast.LComma, 0)
	}

	if item.InitializerOrNil.Data != nil {
		p.print(" = ")
		p.printExpr(item.InitializerOrNil, js_ast.LComma, 0)
	}
}

type printExprFlags uint8

const (
	forbidCall printExprFlags = 1 << iota
	forbidIn
	hasNonOptionalChainParent
	isFollowedByOf
)

func isOptionalChain(expr js_ast.Expr) bool {
	switch e := expr.Data.(type) {
	case *js_ast.EDot:
		return e.OptionalChain != js_ast.OptionalChainNone
	case *js_ast.EIndex:
		return e.OptionalChain != js_ast.OptionalChainNone
	case *js_ast.ECall:
		return e.OptionalChain != js_ast.OptionalChainNone
	}
	return false
}

func (p *printer) printExpr(expr js_ast.Expr, level js_ast.L, flags printExprFlags) {
	switch e := expr.Data.(type) {
	case *js_ast.EMissing:

	case *js_ast.EUndefined:
		if level >= js_ast.LPrefix {
			p.print("(void 0)")
		} else {
			p.printSpaceBeforeIdentifier()
			p.print("void 0")
		}

	case *js_ast.ESuper:
		p.printSpaceBeforeIdentifier()
		p.print("super")

	case *js_ast.ENull:
		p.printSpaceBeforeIdentifier()
		p.print("null")

	case *js_ast.EThis:
		p.printSpaceBeforeIdentifier()
		p.print("this")

	case *js_ast.ESpread:
		p.print("...")
		p.printExpr(e.Value, js_ast.LComma, 0)

	case *js_ast.ENewTarget:
		p.printSpaceBeforeIdentifier()
		p.print("new.target")

	case *js_ast.ENew:
		wrap := level >= js_ast.LCall

		if wrap {
			p.print("(")
		}

		p.printSpaceBeforeIdentifier()
		p.print("new ")
		p.printExpr(e.Target, js_ast.LNew, forbidCall)
		p.print("(")
		for i, arg := range e.Args {
			if i != 0 {
				p.print(", ")
			}
			p.printExpr(arg, js_ast.LComma, 0)
		}
		p.print(")")

		if wrap {
			p.print(")")
		}

	case *js_ast.ECall:
		wrap := level >= js_ast.LNew || (flags&forbidCall) != 0
		var targetFlags printExprFlags
		if e.OptionalChain == js_ast.OptionalChainNone {
			targetFlags = hasNonOptionalChainParent
		} else if (flags & hasNonOptionalChainParent) != 0 {
			wrap = true
		}

		hasPureComment := e.CanBeUnwrappedIfUnused
		if hasPureComment && level >= js_ast.LPostfix {
			wrap = true
		}

		if wrap {
			p.print("(")
		}

		if hasPureComment {
			wasStmtStart := p.stmtStart == len(p.js)
			wasExportDefaultStart := p.exportDefaultStart == len(p.js)
			p.print("/*#__PURE__*/ ")
			if wasStmtStart {
				p.stmtStart = len(p.js)
			}
			if wasExportDefaultStart {
				p.exportDefaultStart = len(p.js)
			}
		}

		p.printExpr(e.Target, js_ast.LPostfix, targetFlags)

		if e.OptionalChain == js_ast.OptionalChainStart {
			p.print("?.")
		}
		p.print("(")
		for i, arg := range e.Args {
			if i != 0 {
				p.print(", ")
			}
			p.printExpr(arg, js_ast.LComma, 0)
		}
		p.print(")")

		if wrap {
			p.print(")")
		}

	case *js_ast.EImportCall:
		wrap := level >= js_ast.LNew || (flags&forbidCall) != 0
		if wrap {
			p.print("(")
		}
		p.printSpaceBeforeIdentifier()
		p.print("import(")
		p.printExpr(e.Expr, js_ast.LComma, 0)
		p.print(")")
		if wrap {
			p.print(")")
		}

	case *js_ast.EDot:
		wrap := false
		if e.OptionalChain == js_ast.OptionalChainNone {
			flags |= hasNonOptionalChainParent
		} else {
			if (flags & hasNonOptionalChainParent) != 0 {
				wrap = true
				p.print("(")
			}
			flags &= ^hasNonOptionalChainParent
		}
		p.printExpr(e.Target, js_ast.LPostfix, flags&(forbidCall|hasNonOptionalChainParent))
		if js_ast.IsIdentifier(e.Name) {
			if e.OptionalChain != js_ast.OptionalChainStart && p.prevNumEnd == len(p.js) {
				// "1.toString" is a syntax error, so print "1 .toString" instead
				p.print(" ")
			}
			if e.OptionalChain == js_ast.OptionalChainStart {
				p.print("?.")
			} else {
				p.print(".")
			}
			p.print(e.Name)
		} else {
			if e.OptionalChain == js_ast.OptionalChainStart {
				p.print("?.")
			}
			p.print("[")
			p.printQuotedUTF8(e.Name)
			p.print("]")
		}
		if wrap {
			p.print(")")
		}

	case *js_ast.EIndex:
		wrap := false
		if e.OptionalChain == js_ast.OptionalChainNone {
			flags |= hasNonOptionalChainParent
		} else {
			if (flags & hasNonOptionalChainParent) != 0 {
				wrap = true
				p.print("(")
			}
			flags &= ^hasNonOptionalChainParent
		}
		p.printExpr(e.Target, js_ast.LPostfix, flags&(forbidCall|hasNonOptionalChainParent))
		if e.OptionalChain == js_ast.OptionalChainStart {
			p.print("?.")
		}

		if private, ok := e.Index.Data.(*js_ast.EPrivateIdentifier); ok {
			if e.OptionalChain != js_ast.OptionalChainStart {
				p.print(".")
			}
			p.print(private.Name)
		} else {
			p.print("[")
			p.printExpr(e.Index, js_ast.LLowest, 0)
			p.print("]")
		}

		if wrap {
			p.print(")")
		}

	case *js_ast.EIf:
		wrap := level >= js_ast.LConditional
		if wrap {
			p.print("(")
			flags &= ^forbidIn
		}
		p.printExpr(e.Test, js_ast.LConditional, flags&forbidIn)
		p.print(" ? ")
		p.printExpr(e.Yes, js_ast.LYield, 0)
		p.print(" : ")
		p.printExpr(e.No, js_ast.LYield, flags&forbidIn)
		if wrap {
			p.print(")")
		}

	case *js_ast.EArrow:
		wrap := level >= js_ast.LAssign

		if wrap {
			p.print("(")
		}
		if e.IsAsync {
			p.printSpaceBeforeIdentifier()
			p.print("async ")
		}

		p.printFnArgs(e.Args, e.HasRestArg)
		p.print(" => ")

		wasPrinted := false
		if len(e.Body.Stmts) == 1 && e.PreferExpr {
			if s, ok := e.Body.Stmts[0].Data.(*js_ast.SReturn); ok && s.ValueOrNil.Data != nil {
				p.arrowExprStart = len(p.js)
				p.printExpr(s.ValueOrNil, js_ast.LComma, flags&forbidIn)
				wasPrinted = true
			}
		}
		if !wasPrinted {
			p.printBlock(e.Body.Stmts)
		}
		if wrap {
			p.print(")")
		}

	case *js_ast.EFunction:
		n := len(p.js)
		wrap := p.stmtStart == n || p.exportDefaultStart == n
		if wrap {
			p.print("(")
		}
		p.printSpaceBeforeIdentifier()
		if e.Fn.IsAsync {
			p.print("async ")
		}
		p.print("function")
		if e.Fn.IsGenerator {
			p.print("*")
		}
		if e.Fn.Name != nil {
			p.print(" ")
			p.print(e.Fn.Name.Name)
		}
		p.printFn(e.Fn)
		if wrap {
			p.print(")")
		}

	case *js_ast.EClass:
		n := len(p.js)
		wrap := p.stmtStart == n || p.exportDefaultStart == n
		if wrap {
			p.print("(")
		}
		p.printSpaceBeforeIdentifier()
		p.print("class")
		if e.Class.Name != nil {
			p.print(" ")
			p.print(e.Class.Name.Name)
		}
		p.printClass(e.Class)
		if wrap {
			p.print(")")
		}

	case *js_ast.EArray:
		p.print("[")
		for i, item := range e.Items {
			if i != 0 {
				p.print(", ")
			}
			p.printExpr(item, js_ast.LComma, 0)

			// Make sure there's a comma after trailing missing items
			if _, ok := item.Data.(*js_ast.EMissing); ok && i == len(e.Items)-1 {
				p.print(",")
			}
		}
		p.print("]")

	case *js_ast.EObject:
		n := len(p.js)
		wrap := p.stmtStart == n || p.arrowExprStart == n
		if wrap {
			p.print("(")
		}
		p.print("{")
		if len(e.Properties) != 0 {
			p.indent++
			for i, item := range e.Properties {
				if i != 0 {
					p.print(",")
				}
				p.print("\n")
				p.printIndent()
				p.printProperty(item)
			}
			p.indent--
			p.print("\n")
			p.printIndent()
		}
		p.print("}")
		if wrap {
			p.print(")")
		}

	case *js_ast.EBoolean:
		p.printSpaceBeforeIdentifier()
		if e.Value {
			p.print("true")
		} else {
			p.print("false")
		}

	case *js_ast.EString:
		p.printQuotedUTF16(e.Value)

	case *js_ast.ETemplate:
		if e.TagOrNil.Data != nil {
			// Optional chains are forbidden in template tags
			if isOptionalChain(e.TagOrNil) {
				p.print("(")
				p.printExpr(e.TagOrNil, js_ast.LLowest, 0)
				p.print(")")
			} else {
				p.printExpr(e.TagOrNil, js_ast.LPostfix, 0)
			}
		}
		p.print("`")
		if e.TagOrNil.Data != nil {
			p.print(e.HeadRaw)
		} else {
			p.printUnquotedTemplateText(e.HeadCooked)
		}
		for _, part := range e.Parts {
			p.print("${")
			p.printExpr(part.Value, js_ast.LLowest, 0)
			p.print("}")
			if e.TagOrNil.Data != nil {
				p.print(part.TailRaw)
			} else {
				p.printUnquotedTemplateText(part.TailCooked)
			}
		}
		p.print("`")

	case *js_ast.ERegExp:
		// Avoid forming a single-line comment
		if n := len(p.js); n > 0 && p.js[n-1] == '/' {
			p.print(" ")
		}
		p.print(e.Value)

		// Need a space before the next identifier to avoid it turning into flags
		p.prevRegExpEnd = len(p.js)

	case *js_ast.EBigInt:
		p.printSpaceBeforeIdentifier()
		p.print(e.Value)
		p.print("n")

	case *js_ast.ENumber:
		p.printNumber(e.Value, level)

	case *js_ast.EIdentifier:
		wrap := len(p.js) == p.forOfInitStart && (e.Name == "let" ||
			((flags&isFollowedByOf) != 0 && e.Name == "async"))

		if wrap {
			p.print("(")
		}

		p.printSpaceBeforeIdentifier()
		p.print(e.Name)

		if wrap {
			p.print(")")
		}

	case *js_ast.EPrivateIdentifier:
		p.print(e.Name)

	case *js_ast.EAwait:
		wrap := level >= js_ast.LPrefix

		if wrap {
			p.print("(")
		}

		p.printSpaceBeforeIdentifier()
		p.print("await ")
		p.printExpr(e.Value, js_ast.LPrefix-1, 0)

		if wrap {
			p.print(")")
		}

	case *js_ast.EYield:
		wrap := level >= js_ast.LAssign

		if wrap {
			p.print("(")
		}

		p.printSpaceBeforeIdentifier()
		p.print("yield")

		if e.ValueOrNil.Data != nil {
			if e.IsStar {
				p.print("*")
			}
			p.print(" ")
			p.printExpr(e.ValueOrNil, js_ast.LYield, 0)
		}

		if wrap {
			p.print(")")
		}

	case *js_ast.EUnary:
		entry := js_ast.OpTable[e.Op]
		wrap := level >= entry.Level

		if wrap {
			p.print("(")
		}

		if !e.Op.IsPrefix() {
			p.printExpr(e.Value, js_ast.LPostfix-1, 0)
		}

		if entry.IsKeyword {
			p.printSpaceBeforeIdentifier()
			p.print(entry.Text)
			p.print(" ")
		} else {
			p.printSpaceBeforeOperator(e.Op)
			p.print(entry.Text)
			p.prevOp = e.Op
			p.prevOpEnd = len(p.js)
		}

		if e.Op.IsPrefix() {
			p.printExpr(e.Value, js_ast.LPrefix-1, 0)
		}

		if wrap {
			p.print(")")
		}

	case *js_ast.EBinary:
		entry := js_ast.OpTable[e.Op]
		wrap := level >= entry.Level || (e.Op == js_ast.BinOpIn && (flags&forbidIn) != 0)

		// Destructuring assignments must be parenthesized
		if n := len(p.js); p.stmtStart == n || p.arrowExprStart == n {
			if _, ok := e.Left.Data.(*js_ast.EObject); ok {
				wrap = true
			}
		}

		if wrap {
			p.print("(")
			flags &= ^forbidIn
		}

		leftLevel := entry.Level - 1
		rightLevel := entry.Level - 1

		if e.Op.IsRightAssociative() {
			leftLevel = entry.Level
		}
		if e.Op.IsLeftAssociative() {
			rightLevel = entry.Level
		}

		switch e.Op {
		case js_ast.BinOpNullishCoalescing:
			// "??" can't directly contain "||" or "&&" without being wrapped in parentheses
			if left, ok := e.Left.Data.(*js_ast.EBinary); ok && (left.Op == js_ast.BinOpLogicalOr || left.Op == js_ast.BinOpLogicalAnd) {
				leftLevel = js_ast.LPrefix
			}
			if right, ok := e.Right.Data.(*js_ast.EBinary); ok && (right.Op == js_ast.BinOpLogicalOr || right.Op == js_ast.BinOpLogicalAnd) {
				rightLevel = js_ast.LPrefix
			}

		case js_ast.BinOpPow:
			// "**" can't contain certain unary expressions
			switch left := e.Left.Data.(type) {
			case *js_ast.EUnary:
				if !left.Op.IsUpdate() {
					leftLevel = js_ast.LCall
				}
			case *js_ast.EAwait, *js_ast.EUndefined, *js_ast.ENumber:
				leftLevel = js_ast.LCall
			}
		}

		p.printExpr(e.Left, leftLevel, flags&forbidIn)

		if e.Op != js_ast.BinOpComma {
			p.print(" ")
		}

		if entry.IsKeyword {
			p.printSpaceBeforeIdentifier()
			p.print(entry.Text)
		} else {
			p.printSpaceBeforeOperator(e.Op)
			p.print(entry.Text)
			p.prevOp = e.Op
			p.prevOpEnd = len(p.js)
		}

		p.print(" ")
		p.printExpr(e.Right, rightLevel, flags&forbidIn)

		if wrap {
			p.print(")")
		}

	default:
		panic(fmt.Sprintf("Unexpected expression of type %T", expr.Data))
	}
}

func (p *printer) printDeclStmt(isExport bool, keyword string, decls []js_ast.Decl) {
	p.printIndent()
	if isExport {
		p.print("export ")
	}
	p.printDecls(keyword, decls, 0)
	p.printSemicolonAfterStatement()
}

func (p *printer) printForLoopInit(init js_ast.Stmt, flags printExprFlags) {
	switch s := init.Data.(type) {
	case *js_ast.SExpr:
		p.printExpr(s.Value, js_ast.LLowest, flags)
	case *js_ast.SLocal:
		p.printDecls(localKeyword(s.Kind), s.Decls, flags)
	default:
		panic("Internal error")
	}
}

func localKeyword(kind js_ast.LocalKind) string {
	switch kind {
	case js_ast.LocalLet:
		return "let"
	case js_ast.LocalConst:
		return "const"
	}
	return "var"
}

func (p *printer) printDecls(keyword string, decls []js_ast.Decl, flags printExprFlags) {
	p.print(keyword)
	p.print(" ")

	for i, decl := range decls {
		if i != 0 {
			p.print(", ")
		}
		p.printBinding(decl.Binding)

		if decl.ValueOrNil.Data != nil {
			p.print(" = ")
			p.printExpr(decl.ValueOrNil, js_ast.LComma, flags)
		}
	}
}

func (p *printer) printBody(body js_ast.Stmt) {
	if block, ok := body.Data.(*js_ast.SBlock); ok {
		p.print(" ")
		p.printBlock(block.Stmts)
		p.print("\n")
	} else {
		p.print("\n")
		p.indent++
		p.printStmt(body)
		p.indent--
	}
}

func (p *printer) printBlock(stmts []js_ast.Stmt) {
	if len(stmts) == 0 {
		p.print("{}")
		return
	}

	p.print("{\n")
	p.indent++
	for _, stmt := range stmts {
		p.printStmt(stmt)
	}
	p.indent--
	p.printIndent()
	p.print("}")
}

func wrapToAvoidAmbiguousElse(s js_ast.S) bool {
	for {
		switch current := s.(type) {
		case *js_ast.SIf:
			if current.NoOrNil.Data == nil {
				return true
			}
			s = current.NoOrNil.Data

		case *js_ast.SFor:
			s = current.Body.Data

		case *js_ast.SForIn:
			s = current.Body.Data

		case *js_ast.SForOf:
			s = current.Body.Data

		case *js_ast.SWhile:
			s = current.Body.Data

		case *js_ast.SWith:
			s = current.Body.Data

		case *js_ast.SLabel:
			s = current.Stmt.Data

		default:
			return false
		}
	}
}

func (p *printer) printIf(s *js_ast.SIf) {
	p.print("if (")
	p.printExpr(s.Test, js_ast.LLowest, 0)
	p.print(")")

	if yes, ok := s.Yes.Data.(*js_ast.SBlock); ok {
		p.print(" ")
		p.printBlock(yes.Stmts)

		if s.NoOrNil.Data != nil {
			p.print(" ")
		} else {
			p.print("\n")
		}
	} else if wrapToAvoidAmbiguousElse(s.Yes.Data) {
		p.print(" {\n")
		p.indent++
		p.printStmt(s.Yes)
		p.indent--
		p.printIndent()
		p.print("}")

		if s.NoOrNil.Data != nil {
			p.print(" ")
		} else {
			p.print("\n")
		}
	} else {
		p.print("\n")
		p.indent++
		p.printStmt(s.Yes)
		p.indent--

		if s.NoOrNil.Data != nil {
			p.printIndent()
		}
	}

	if s.NoOrNil.Data != nil {
		p.print("else")

		if no, ok := s.NoOrNil.Data.(*js_ast.SBlock); ok {
			p.print(" ")
			p.printBlock(no.Stmts)
			p.print("\n")
		} else if no, ok := s.NoOrNil.Data.(*js_ast.SIf); ok {
			p.print(" ")
			p.printIf(no)
		} else {
			p.print("\n")
			p.indent++
			p.printStmt(s.NoOrNil)
			p.indent--
		}
	}
}

func (p *printer) printClauseItems(items []js_ast.ClauseItem, isImport bool) {
	p.print("{")
	if len(items) > 0 {
		p.print(" ")
	}
	for i, item := range items {
		if i != 0 {
			p.print(", ")
		}
		if isImport {
			p.printClauseAlias(item.Alias)
			if item.Name.Name != item.Alias {
				p.print(" as ")
				p.print(item.Name.Name)
			}
		} else {
			p.printClauseAlias(item.Name.Name)
			if item.Name.Name != item.Alias {
				p.print(" as ")
				p.printClauseAlias(item.Alias)
			}
		}
	}
	if len(items) > 0 {
		p.print(" ")
	}
	p.print("}")
}

func (p *printer) printClauseAlias(alias string) {
	if js_ast.IsIdentifier(alias) {
		p.print(alias)
	} else {
		p.printQuotedUTF8(alias)
	}
}

func (p *printer) printStmt(stmt js_ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *js_ast.SEmpty:
		p.printIndent()
		p.print(";\n")

	case *js_ast.SDebugger:
		p.printIndent()
		p.print("debugger")
		p.printSemicolonAfterStatement()

	case *js_ast.SDirective:
		p.printIndent()
		p.printQuotedUTF16(s.Value)
		p.printSemicolonAfterStatement()

	case *js_ast.SBlock:
		p.printIndent()
		p.printBlock(s.Stmts)
		p.print("\n")

	case *js_ast.SFunction:
		p.printIndent()
		if s.IsExport {
			p.print("export ")
		}
		if s.Fn.IsAsync {
			p.print("async ")
		}
		p.print("function")
		if s.Fn.IsGenerator {
			p.print("*")
		}
		p.print(" ")
		p.print(s.Fn.Name.Name)
		p.printFn(s.Fn)
		p.print("\n")

	case *js_ast.SClass:
		p.printIndent()
		if s.IsExport {
			p.print("export ")
		}
		p.print("class ")
		p.print(s.Class.Name.Name)
		p.printClass(s.Class)
		p.print("\n")

	case *js_ast.SLocal:
		p.printDeclStmt(s.IsExport, localKeyword(s.Kind), s.Decls)

	case *js_ast.SExpr:
		p.printIndent()
		p.stmtStart = len(p.js)
		p.printExpr(s.Value, js_ast.LLowest, 0)
		p.printSemicolonAfterStatement()

	case *js_ast.SReturn:
		p.printIndent()
		p.print("return")
		if s.ValueOrNil.Data != nil {
			p.print(" ")
			p.printExpr(s.ValueOrNil, js_ast.LLowest, 0)
		}
		p.printSemicolonAfterStatement()

	case *js_ast.SThrow:
		p.printIndent()
		p.print("throw ")
		p.printExpr(s.Value, js_ast.LLowest, 0)
		p.printSemicolonAfterStatement()

	case *js_ast.SBreak:
		p.printIndent()
		p.print("break")
		if s.Label != nil {
			p.print(" ")
			p.print(s.Label.Name)
		}
		p.printSemicolonAfterStatement()

	case *js_ast.SContinue:
		p.printIndent()
		p.print("continue")
		if s.Label != nil {
			p.print(" ")
			p.print(s.Label.Name)
		}
		p.printSemicolonAfterStatement()

	case *js_ast.SLabel:
		p.printIndent()
		p.print(s.Name.Name)
		p.print(":")
		p.printBody(s.Stmt)

	case *js_ast.SIf:
		p.printIndent()
		p.printIf(s)

	case *js_ast.SDoWhile:
		p.printIndent()
		p.print("do")
		if block, ok := s.Body.Data.(*js_ast.SBlock); ok {
			p.print(" ")
			p.printBlock(block.Stmts)
			p.print(" ")
		} else {
			p.print("\n")
			p.indent++
			p.printStmt(s.Body)
			p.indent--
			p.printIndent()
		}
		p.print("while (")
		p.printExpr(s.Test, js_ast.LLowest, 0)
		p.print(")")
		p.printSemicolonAfterStatement()

	case *js_ast.SWhile:
		p.printIndent()
		p.print("while (")
		p.printExpr(s.Test, js_ast.LLowest, 0)
		p.print(")")
		p.printBody(s.Body)

	case *js_ast.SWith:
		p.printIndent()
		p.print("with (")
		p.printExpr(s.Value, js_ast.LLowest, 0)
		p.print(")")
		p.printBody(s.Body)

	case *js_ast.SFor:
		p.printIndent()
		p.print("for (")
		if s.InitOrNil.Data != nil {
			p.printForLoopInit(s.InitOrNil, forbidIn)
		}
		p.print(";")
		if s.TestOrNil.Data != nil {
			p.print(" ")
			p.printExpr(s.TestOrNil, js_ast.LLowest, 0)
		}
		p.print(";")
		if s.UpdateOrNil.Data != nil {
			p.print(" ")
			p.printExpr(s.UpdateOrNil, js_ast.LLowest, 0)
		}
		p.print(")")
		p.printBody(s.Body)

	case *js_ast.SForIn:
		p.printIndent()
		p.print("for (")
		p.printForLoopInit(s.Init, forbidIn)
		p.print(" in ")
		p.printExpr(s.Value, js_ast.LLowest, 0)
		p.print(")")
		p.printBody(s.Body)

	case *js_ast.SForOf:
		p.printIndent()
		p.print("for ")
		if s.IsAwait {
			p.print("await ")
		}
		p.print("(")
		p.forOfInitStart = len(p.js)
		flags := forbidIn | isFollowedByOf
		p.printForLoopInit(s.Init, flags)
		p.print(" of ")
		p.printExpr(s.Value, js_ast.LComma, 0)
		p.print(")")
		p.printBody(s.Body)

	case *js_ast.STry:
		p.printIndent()
		p.print("try ")
		p.printBlock(s.Block.Stmts)

		if s.Catch != nil {
			p.print(" catch")
			if s.Catch.BindingOrNil.Data != nil {
				p.print(" (")
				p.printBinding(s.Catch.BindingOrNil)
				p.print(")")
			}
			p.print(" ")
			p.printBlock(s.Catch.Block.Stmts)
		}

		if s.Finally != nil {
			p.print(" finally ")
			p.printBlock(s.Finally.Block.Stmts)
		}

		p.print("\n")

	case *js_ast.SSwitch:
		p.printIndent()
		p.print("switch (")
		p.printExpr(s.Test, js_ast.LLowest, 0)
		p.print(") {\n")
		p.indent++

		for _, c := range s.Cases {
			p.printIndent()
			if c.ValueOrNil.Data != nil {
				p.print("case ")
				p.printExpr(c.ValueOrNil, js_ast.LLowest, 0)
				p.print(":")
			} else {
				p.print("default:")
			}

			if len(c.Body) == 1 {
				if block, ok := c.Body[0].Data.(*js_ast.SBlock); ok {
					p.print(" ")
					p.printBlock(block.Stmts)
					p.print("\n")
					continue
				}
			}

			p.print("\n")
			p.indent++
			for _, stmt := range c.Body {
				p.printStmt(stmt)
			}
			p.indent--
		}

		p.indent--
		p.printIndent()
		p.print("}\n")

	case *js_ast.SImport:
		p.printIndent()
		p.print("import ")
		itemCount := 0

		if s.DefaultName != nil {
			p.print(s.DefaultName.Name)
			itemCount++
		}

		if s.NamespaceName != nil {
			if itemCount > 0 {
				p.print(", ")
			}
			p.print("* as ")
			p.print(s.NamespaceName.Name)
			itemCount++
		}

		if s.Items != nil {
			if itemCount > 0 {
				p.print(", ")
			}
			p.printClauseItems(*s.Items, true /* isImport */)
			itemCount++
		}

		if itemCount > 0 {
			p.print(" from ")
		}

		p.printQuotedUTF8(s.Path)
		p.printSemicolonAfterStatement()

	case *js_ast.SExportClause:
		p.printIndent()
		p.print("export ")
		p.printClauseItems(s.Items, false /* isImport */)
		p.printSemicolonAfterStatement()

	case *js_ast.SExportFrom:
		p.printIndent()
		p.print("export ")
		p.printClauseItems(s.Items, false /* isImport */)
		p.print(" from ")
		p.printQuotedUTF8(s.Path)
		p.printSemicolonAfterStatement()

	case *js_ast.SExportStar:
		p.printIndent()
		p.print("export *")
		if s.Alias != nil {
			p.print(" as ")
			p.printClauseAlias(s.Alias.OriginalName)
		}
		p.print(" from ")
		p.printQuotedUTF8(s.Path)
		p.printSemicolonAfterStatement()

	case *js_ast.SExportDefault:
		p.printIndent()
		p.print("export default ")

		switch s2 := s.Value.Data.(type) {
		case *js_ast.SExpr:
			p.exportDefaultStart = len(p.js)
			p.printExpr(s2.Value, js_ast.LComma, 0)
			p.printSemicolonAfterStatement()

		case *js_ast.SFunction:
			if s2.Fn.IsAsync {
				p.print("async ")
			}
			p.print("function")
			if s2.Fn.IsGenerator {
				p.print("*")
			}
			if s2.Fn.Name != nil {
				p.print(" ")
				p.print(s2.Fn.Name.Name)
			}
			p.printFn(s2.Fn)
			p.print("\n")

		case *js_ast.SClass:
			p.print("class")
			if s2.Class.Name != nil {
				p.print(" ")
				p.print(s2.Class.Name.Name)
			}
			p.printClass(s2.Class)
			p.print("\n")

		default:
			panic("Internal error")
		}

	default:
		panic(fmt.Sprintf("Unexpected statement of type %T", stmt.Data))
	}
}
