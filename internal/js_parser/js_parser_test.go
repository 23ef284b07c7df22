package js_parser

import (
	"testing"

	"github.com/lowerjs/lowerjs/internal/js_ast"
	"github.com/lowerjs/lowerjs/internal/js_printer"
	"github.com/lowerjs/lowerjs/internal/logger"
	"github.com/lowerjs/lowerjs/internal/test"
)

func expectParseError(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()
		_, ok := Parse(log, test.SourceForTest(contents))
		text := test.MsgsText(log.Done())
		test.AssertEqualWithDiff(t, text, expected)
		test.AssertEqual(t, ok, expected == "")
	})
}

func expectPrinted(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()
		tree, ok := Parse(log, test.SourceForTest(contents))
		test.AssertEqualWithDiff(t, test.MsgsText(log.Done()), "")
		if !ok {
			t.Fatal("Parse error")
		}
		js := js_printer.Print(tree).JS
		test.AssertEqualWithDiff(t, string(js), expected)
	})
}

func TestSemicolonInsertion(t *testing.T) {
	expectPrinted(t, "a\nb", "a;\nb;\n")
	expectPrinted(t, "a\n++b", "a;\n++b;\n")
	expectParseError(t, "a b", "<stdin>: error: Expected \";\" but found \"b\"\n")
}

func TestDirectives(t *testing.T) {
	tree := parseForTest(t, "'use strict'; 'other'; x; 'not a directive'")
	test.AssertEqual(t, len(tree.Stmts), 4)
	test.AssertEqual(t, js_ast.IsDirective(tree.Stmts[0], "use strict"), true)
	test.AssertEqual(t, js_ast.IsDirective(tree.Stmts[1], "other"), true)
	_, isDirective := tree.Stmts[3].Data.(*js_ast.SDirective)
	test.AssertEqual(t, isDirective, false)

	// A parenthesized string is an expression, not a directive
	tree = parseForTest(t, "('use strict')")
	_, isDirective = tree.Stmts[0].Data.(*js_ast.SDirective)
	test.AssertEqual(t, isDirective, false)
}

func parseForTest(t *testing.T, contents string) js_ast.AST {
	t.Helper()
	log := logger.NewDeferLog()
	tree, ok := Parse(log, test.SourceForTest(contents))
	test.AssertEqualWithDiff(t, test.MsgsText(log.Done()), "")
	test.AssertEqual(t, ok, true)
	return tree
}

func TestRegExpOrDivision(t *testing.T) {
	expectPrinted(t, "a / b / c", "a / b / c;\n")
	expectPrinted(t, "x = /b/", "x = /b/;\n")
	expectPrinted(t, "x = a\n/b/g", "x = a / b / g;\n")
	expectPrinted(t, "if (a) /b/.test(c)", "if (a)\n    /b/.test(c);\n")
}

func TestArrowDetection(t *testing.T) {
	expectPrinted(t, "x = (a)", "x = a;\n")
	expectPrinted(t, "x = (a) => a", "x = (a) => a;\n")
	expectPrinted(t, "x = ([a], {b}) => a", "x = ([a], { b }) => a;\n")
	expectPrinted(t, "x = (a = 1, ...b) => {}", "x = (a = 1, ...b) => {};\n")
	expectPrinted(t, "x = async a => a", "x = async (a) => a;\n")
	expectPrinted(t, "x = async (a) => await a", "x = async (a) => await a;\n")
	expectPrinted(t, "x = async(a)", "x = async(a);\n")
	expectPrinted(t, "x = async", "x = async;\n")
	expectParseError(t, "x = (a, b)\n=> a", "<stdin>: error: Unexpected newline before \"=>\"\n")
	expectParseError(t, "x = (1) => a", "<stdin>: error: Invalid binding pattern\n")
}

func TestDestructuringAssignment(t *testing.T) {
	expectPrinted(t, "[a, b] = c", "[a, b] = c;\n")
	expectPrinted(t, "({a, b: c} = d)", "({\n    a,\n    b: c\n} = d);\n")
	expectParseError(t, "1 = 2", "<stdin>: error: Invalid assignment target\n")
	expectParseError(t, "a() = 1", "<stdin>: error: Invalid assignment target\n")
	expectParseError(t, "++a()", "<stdin>: error: Invalid assignment target\n")
}

func TestClasses(t *testing.T) {
	expectPrinted(t, "class A { get x() { return 1 } set x(v) {} static m() {} }",
		"class A {\n    get x() {\n        return 1;\n    }\n    set x(v) {}\n    static m() {}\n}\n")
	expectPrinted(t, "class A { static }", "class A {\n    static;\n}\n")
	expectPrinted(t, "class A { get }", "class A {\n    get;\n}\n")
	expectPrinted(t, "class A { 'constructor'() {} }", "class A {\n    constructor() {}\n}\n")
	expectPrinted(t, "class A extends B { constructor() { super() } }",
		"class A extends B {\n    constructor() {\n        super();\n    }\n}\n")
	expectParseError(t, "class A { constructor() {} constructor() {} }",
		"<stdin>: error: Classes cannot contain more than one constructor\n")
	expectParseError(t, "class A { constructor() { super() } }", "<stdin>: error: Unexpected \"super\"\n")
	expectParseError(t, "class A { get constructor() {} }", "<stdin>: error: Class constructor cannot be a getter\n")
	expectParseError(t, "class A { async constructor() {} }", "<stdin>: error: Class constructor cannot be an async function\n")
	expectParseError(t, "class A { constructor = 1 }", "<stdin>: error: Invalid field name \"constructor\"\n")
	expectParseError(t, "class A { #constructor() {} }", "<stdin>: error: Invalid field name \"#constructor\"\n")
	expectParseError(t, "x = { get a(b) {} }", "<stdin>: error: Getter must not have any arguments\n")
	expectParseError(t, "x = { set a() {} }", "<stdin>: error: Setter must have exactly one argument\n")
}

func TestSuper(t *testing.T) {
	expectPrinted(t, "x = { m() { return super.m() } }", "x = {\n    m() {\n        return super.m();\n    }\n};\n")
	expectParseError(t, "super.x", "<stdin>: error: Unexpected \"super\"\n")
	expectParseError(t, "function f() { super.x }", "<stdin>: error: Unexpected \"super\"\n")
}

func TestStrictMode(t *testing.T) {
	expectParseError(t, "var eval", "<stdin>: error: Cannot declare a binding named \"eval\" in strict mode\n")
	expectParseError(t, "function f(arguments) {}", "<stdin>: error: Cannot declare a binding named \"arguments\" in strict mode\n")
	expectParseError(t, "var implements", "<stdin>: error: \"implements\" is a reserved word and cannot be used in strict mode\n")
	expectParseError(t, "with (a) {}", "<stdin>: error: With statements cannot be used in strict mode\n")
	expectParseError(t, "delete x", "<stdin>: error: Delete of a bare identifier cannot be used in strict mode\n")
	expectPrinted(t, "delete x.y", "delete x.y;\n")
}

func TestStatementErrors(t *testing.T) {
	expectParseError(t, "return", "<stdin>: error: A return statement cannot be used here\n")
	expectParseError(t, "const a", "<stdin>: error: The constant \"a\" must be initialized\n")
	expectParseError(t, "if (a) class B {}", "<stdin>: error: Cannot use a declaration in a single-statement context\n")
	expectParseError(t, "switch (a) { default: default: }", "<stdin>: error: Multiple default clauses are not allowed\n")
	expectParseError(t, "throw\nx", "<stdin>: error: Unexpected newline after \"throw\"\n")
	expectParseError(t, "for (let a, b of c) {}", "<stdin>: error: for-of loops must have a single declaration\n")
	expectParseError(t, "for (var a = 1 of c) {}", "<stdin>: error: for-of loop variables cannot have an initializer\n")
	expectParseError(t, "function f() { await }", "<stdin>: error: Cannot use \"await\" outside an async function\n")
	expectParseError(t, "function f() { yield }", "<stdin>: error: Cannot use \"yield\" outside a generator function\n")
	expectParseError(t, "import.meta", "<stdin>: error: Cannot use \"import.meta\" in a file converted to CommonJS\n")
}

func TestTopLevelAwait(t *testing.T) {
	expectPrinted(t, "await x", "await x;\n")
	expectPrinted(t, "for await (const x of y) {}", "for await (const x of y) {}\n")
}

func TestImportsAndExports(t *testing.T) {
	expectPrinted(t, "import {default as a, 'b c' as d} from 'x'", "import { default as a, \"b c\" as d } from \"x\";\n")
	expectPrinted(t, "export {a as 'b c'}", "export { a as \"b c\" };\n")
	expectPrinted(t, "export default async function f() {}", "export default async function f() {}\n")
	expectPrinted(t, "export default a = b", "export default a = b;\n")
	expectParseError(t, "export {'a'}", "<stdin>: error: Expected identifier but found a keyword or string\n")
	expectParseError(t, "function f() { import x from 'y' }", "<stdin>: error: Unexpected \"import\"\n")
}

func TestTemplates(t *testing.T) {
	expectPrinted(t, "x = `a${b}c${d}e`", "x = `a${b}c${d}e`;\n")
	expectPrinted(t, "x = a.b`c`", "x = a.b`c`;\n")
	expectParseError(t, "a?.b`c`", "<stdin>: error: Template literals cannot have an optional chain as a tag\n")
}

func TestHashbangAndComments(t *testing.T) {
	expectPrinted(t, "#!/usr/bin/env node\n// comment\nx /* y */", "#!/usr/bin/env node\nx;\n")
}
