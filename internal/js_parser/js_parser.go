package js_parser

import (
	"fmt"

	"github.com/lowerjs/lowerjs/internal/helpers"
	"github.com/lowerjs/lowerjs/internal/js_ast"
	"github.com/lowerjs/lowerjs/internal/js_lexer"
	"github.com/lowerjs/lowerjs/internal/logger"
)

// This parser does one pass: it turns the token stream into an AST. Every
// file is parsed as a strict-mode ECMAScript module. There is no scope
// tracking here since the lowering passes compute the names they need from
// the tree itself.
type parser struct {
	log                logger.Log
	source             logger.Source
	lexer              js_lexer.Lexer
	fnOrArrowDataParse fnOrArrowDataParse
	afterArrowBodyLoc  logger.Loc
	allowIn            bool
	hasErrors          bool
}

// This is function-specific information used during parsing. It is saved and
// restored on the call stack around code that parses nested functions and
// arrow expressions.
type fnOrArrowDataParse struct {
	isReturnDisallowed bool
	isTopLevel         bool
	allowAwait         bool
	allowYield         bool
	allowSuperCall     bool
	allowSuperProperty bool
}

type lexicalDecl uint8

const (
	lexicalDeclForbid lexicalDecl = iota
	lexicalDeclAllowAll
)

type parseStmtOpts struct {
	lexicalDecl    lexicalDecl
	isModuleScope  bool
	isExport       bool
	isNameOptional bool // For "export default" pseudo-statements
}

func newParser(log logger.Log, source logger.Source, lexer js_lexer.Lexer) *parser {
	return &parser{
		log:               log,
		source:            source,
		lexer:             lexer,
		allowIn:           true,
		afterArrowBodyLoc: logger.Loc{Start: -1},
		fnOrArrowDataParse: fnOrArrowDataParse{
			isReturnDisallowed: true,
			isTopLevel:         true,
			allowAwait:         true,
		},
	}
}

// Parse returns false if any error was logged for this file. Syntax errors
// stop the parse at the first one, while semantic errors such as a misplaced
// "super" are logged and parsing continues.
func Parse(log logger.Log, source logger.Source) (result js_ast.AST, ok bool) {
	ok = true
	defer func() {
		r := recover()
		if _, isLexerPanic := r.(js_lexer.LexerPanic); isLexerPanic {
			ok = false
		} else if r != nil {
			panic(r)
		}
	}()

	p := newParser(log, source, js_lexer.NewLexer(log, source))

	// Consume a leading hashbang comment
	if p.lexer.Token == js_lexer.THashbang {
		result.Hashbang = p.lexer.Identifier
		p.lexer.Next()
	}

	result.Stmts = p.parseStmtsUpTo(js_lexer.TEndOfFile, parseStmtOpts{
		isModuleScope: true,
		lexicalDecl:   lexicalDeclAllowAll,
	})
	ok = !p.hasErrors
	return
}

func (p *parser) addError(loc logger.Loc, text string) {
	p.log.AddError(&p.source, loc, text)
	p.hasErrors = true
}

func (p *parser) addRangeError(r logger.Range, text string) {
	p.log.AddRangeError(&p.source, r, text)
	p.hasErrors = true
}

func (p *parser) validateBindingName(r logger.Range, name string) {
	if name == "arguments" || name == "eval" {
		p.addRangeError(r, fmt.Sprintf("Cannot declare a binding named %q in strict mode", name))
	} else if js_ast.StrictModeReservedWords[name] {
		p.addRangeError(r, fmt.Sprintf("%q is a reserved word and cannot be used in strict mode", name))
	}
}

func (p *parser) parseStmtsUpTo(end js_lexer.T, opts parseStmtOpts) []js_ast.Stmt {
	stmts := []js_ast.Stmt{}
	isDirectivePrologue := true

	for p.lexer.Token != end {
		startsWithString := p.lexer.Token == js_lexer.TStringLiteral
		stmt := p.parseStmt(opts)

		// Only string literal statements at the start of a body are directives
		if isDirectivePrologue {
			isDirectivePrologue = false
			if s, ok := stmt.Data.(*js_ast.SExpr); ok && startsWithString {
				if str, ok := s.Value.Data.(*js_ast.EString); ok {
					stmt.Data = &js_ast.SDirective{Value: str.Value}
					isDirectivePrologue = true
				}
			}
		}

		stmts = append(stmts, stmt)
	}

	return stmts
}

func (p *parser) forbidLexicalDecl(loc logger.Loc) {
	r := logger.Range{Loc: loc, Len: p.lexer.Range().End() - loc.Start}
	p.addRangeError(r, "Cannot use a declaration in a single-statement context")
}

func (p *parser) parseStmt(opts parseStmtOpts) js_ast.Stmt {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TSemicolon:
		p.lexer.Next()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SEmpty{}}

	case js_lexer.TExport:
		if !opts.isModuleScope {
			p.lexer.Unexpected()
		}
		p.lexer.Next()

		switch p.lexer.Token {
		case js_lexer.TVar, js_lexer.TConst, js_lexer.TFunction, js_lexer.TClass:
			opts.isExport = true
			return p.parseStmt(opts)

		case js_lexer.TIdentifier:
			if p.lexer.IsContextualKeyword("let") || p.lexer.IsContextualKeyword("async") {
				opts.isExport = true
				return p.parseStmt(opts)
			}
			p.lexer.Unexpected()
			return js_ast.Stmt{}

		case js_lexer.TDefault:
			defaultLoc := p.lexer.Loc()
			p.lexer.Next()
			defaultOpts := parseStmtOpts{lexicalDecl: lexicalDeclAllowAll, isNameOptional: true}

			// "export default async function() {}"
			if p.lexer.IsContextualKeyword("async") {
				asyncRange := p.lexer.Range()
				p.lexer.Next()
				if p.lexer.Token == js_lexer.TFunction && !p.lexer.HasNewlineBefore {
					p.lexer.Next()
					stmt := p.parseFnStmt(loc, defaultOpts, true /* isAsync */)
					return p.exportDefaultStmt(loc, defaultLoc, stmt)
				}
				value := p.parseSuffix(p.parseAsyncPrefixExpr(asyncRange, js_ast.LComma), js_ast.LComma)
				p.lexer.ExpectOrInsertSemicolon()
				return p.exportDefaultStmt(loc, defaultLoc, js_ast.Stmt{Loc: defaultLoc, Data: &js_ast.SExpr{Value: value}})
			}

			// "export default function() {}"
			if p.lexer.Token == js_lexer.TFunction {
				p.lexer.Next()
				return p.exportDefaultStmt(loc, defaultLoc, p.parseFnStmt(loc, defaultOpts, false /* isAsync */))
			}

			// "export default class {}"
			if p.lexer.Token == js_lexer.TClass {
				return p.exportDefaultStmt(loc, defaultLoc, p.parseClassStmt(loc, defaultOpts))
			}

			// "export default a + b"
			value := p.parseExpr(js_ast.LComma)
			p.lexer.ExpectOrInsertSemicolon()
			return p.exportDefaultStmt(loc, defaultLoc, js_ast.Stmt{Loc: defaultLoc, Data: &js_ast.SExpr{Value: value}})

		case js_lexer.TAsterisk:
			p.lexer.Next()
			var alias *js_ast.ExportStarAlias

			// "export * as ns from 'path'"
			if p.lexer.IsContextualKeyword("as") {
				p.lexer.Next()
				aliasLoc := p.lexer.Loc()
				alias = &js_ast.ExportStarAlias{Loc: aliasLoc, OriginalName: p.parseClauseAlias("export")}
				p.lexer.Next()
			}

			p.lexer.ExpectContextualKeyword("from")
			pathLoc, pathText := p.parsePath()
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportStar{Alias: alias, Path: pathText, PathLoc: pathLoc}}

		case js_lexer.TOpenBrace:
			items, firstNonIdentifierLoc := p.parseExportClause()

			// "export {a, b as c} from 'path'"
			if p.lexer.IsContextualKeyword("from") {
				p.lexer.Next()
				pathLoc, pathText := p.parsePath()
				p.lexer.ExpectOrInsertSemicolon()
				return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportFrom{Items: items, Path: pathText, PathLoc: pathLoc}}
			}

			// Keywords and strings can only be re-exported
			if firstNonIdentifierLoc.Start != 0 {
				p.addError(firstNonIdentifierLoc, "Expected identifier but found a keyword or string")
			}

			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportClause{Items: items}}

		default:
			p.lexer.Unexpected()
			return js_ast.Stmt{}
		}

	case js_lexer.TFunction:
		if opts.lexicalDecl != lexicalDeclAllowAll {
			p.forbidLexicalDecl(loc)
		}
		p.lexer.Next()
		return p.parseFnStmt(loc, opts, false /* isAsync */)

	case js_lexer.TClass:
		if opts.lexicalDecl != lexicalDeclAllowAll {
			p.forbidLexicalDecl(loc)
		}
		return p.parseClassStmt(loc, opts)

	case js_lexer.TVar:
		p.lexer.Next()
		decls := p.parseAndDeclareDecls()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalVar, Decls: decls, IsExport: opts.isExport}}

	case js_lexer.TConst:
		if opts.lexicalDecl != lexicalDeclAllowAll {
			p.forbidLexicalDecl(loc)
		}
		p.lexer.Next()
		decls := p.parseAndDeclareDecls()
		p.requireInitializers(decls)
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalConst, Decls: decls, IsExport: opts.isExport}}

	case js_lexer.TIf:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		yes := p.parseStmt(parseStmtOpts{})
		var noOrNil js_ast.Stmt
		if p.lexer.Token == js_lexer.TElse {
			p.lexer.Next()
			noOrNil = p.parseStmt(parseStmtOpts{})
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SIf{Test: test, Yes: yes, NoOrNil: noOrNil}}

	case js_lexer.TDo:
		p.lexer.Next()
		body := p.parseStmt(parseStmtOpts{})
		p.lexer.Expect(js_lexer.TWhile)
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)

		// This is a weird corner case where automatic semicolon insertion applies
		// even without a newline present
		if p.lexer.Token == js_lexer.TSemicolon {
			p.lexer.Next()
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SDoWhile{Body: body, Test: test}}

	case js_lexer.TWhile:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SWhile{Test: test, Body: body}}

	case js_lexer.TWith:
		withRange := p.lexer.Range()
		p.addRangeError(withRange, "With statements cannot be used in strict mode")
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SWith{Value: test, Body: body}}

	case js_lexer.TSwitch:
		return p.parseSwitchStmt(loc)

	case js_lexer.TTry:
		return p.parseTryStmt(loc)

	case js_lexer.TFor:
		return p.parseForStmt(loc)

	case js_lexer.TImport:
		return p.parseImportStmt(loc, opts)

	case js_lexer.TThrow:
		p.lexer.Next()
		if p.lexer.HasNewlineBefore {
			p.addError(logger.Loc{Start: loc.Start + 5}, "Unexpected newline after \"throw\"")
		}
		expr := p.parseExpr(js_ast.LLowest)
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SThrow{Value: expr}}

	case js_lexer.TReturn:
		if p.fnOrArrowDataParse.isReturnDisallowed {
			p.addRangeError(p.lexer.Range(), "A return statement cannot be used here")
		}
		p.lexer.Next()
		var value js_ast.Expr
		if p.lexer.Token != js_lexer.TSemicolon &&
			!p.lexer.HasNewlineBefore &&
			p.lexer.Token != js_lexer.TCloseBrace &&
			p.lexer.Token != js_lexer.TEndOfFile {
			value = p.parseExpr(js_ast.LLowest)
		}
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SReturn{ValueOrNil: value}}

	case js_lexer.TBreak:
		p.lexer.Next()
		name := p.parseLabelName()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBreak{Label: name}}

	case js_lexer.TContinue:
		p.lexer.Next()
		name := p.parseLabelName()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SContinue{Label: name}}

	case js_lexer.TDebugger:
		p.lexer.Next()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SDebugger{}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{lexicalDecl: lexicalDeclAllowAll})
		closeBraceLoc := p.lexer.Loc()
		p.lexer.Next()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBlock{Stmts: stmts, CloseBraceLoc: closeBraceLoc}}

	default:
		isIdentifier := p.lexer.Token == js_lexer.TIdentifier

		// "let x = 1"
		if p.lexer.IsContextualKeyword("let") {
			if opts.lexicalDecl != lexicalDeclAllowAll {
				p.forbidLexicalDecl(loc)
			}
			p.lexer.Next()
			decls := p.parseAndDeclareDecls()
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalLet, Decls: decls, IsExport: opts.isExport}}
		}

		// "async function foo() {}"
		if p.lexer.IsContextualKeyword("async") {
			asyncRange := p.lexer.Range()
			p.lexer.Next()
			if p.lexer.Token == js_lexer.TFunction && !p.lexer.HasNewlineBefore {
				if opts.lexicalDecl != lexicalDeclAllowAll {
					p.forbidLexicalDecl(loc)
				}
				p.lexer.Next()
				return p.parseFnStmt(loc, opts, true /* isAsync */)
			}
			if opts.isExport {
				p.lexer.Expected(js_lexer.TFunction)
			}
			expr := p.parseSuffix(p.parseAsyncPrefixExpr(asyncRange, js_ast.LLowest), js_ast.LLowest)
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
		}

		expr := p.parseExpr(js_ast.LLowest)

		// Parse a labeled statement
		if isIdentifier && p.lexer.Token == js_lexer.TColon {
			if ident, ok := expr.Data.(*js_ast.EIdentifier); ok {
				p.lexer.Next()
				stmt := p.parseStmt(parseStmtOpts{})
				return js_ast.Stmt{Loc: loc, Data: &js_ast.SLabel{Name: js_ast.LocName{Loc: expr.Loc, Name: ident.Name}, Stmt: stmt}}
			}
		}

		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
	}
}

func (p *parser) exportDefaultStmt(loc logger.Loc, defaultLoc logger.Loc, value js_ast.Stmt) js_ast.Stmt {
	name := js_ast.LocName{Loc: defaultLoc}
	switch s := value.Data.(type) {
	case *js_ast.SFunction:
		if s.Fn.Name != nil {
			name = *s.Fn.Name
		}
	case *js_ast.SClass:
		if s.Class.Name != nil {
			name = *s.Class.Name
		}
	}
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportDefault{DefaultName: name, Value: value}}
}

func (p *parser) parseLabelName() *js_ast.LocName {
	if p.lexer.Token != js_lexer.TIdentifier || p.lexer.HasNewlineBefore {
		return nil
	}
	name := &js_ast.LocName{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
	p.lexer.Next()
	return name
}

func (p *parser) parseSwitchStmt(loc logger.Loc) js_ast.Stmt {
	p.lexer.Next()
	p.lexer.Expect(js_lexer.TOpenParen)
	test := p.parseExpr(js_ast.LLowest)
	p.lexer.Expect(js_lexer.TCloseParen)
	p.lexer.Expect(js_lexer.TOpenBrace)

	cases := []js_ast.Case{}
	foundDefault := false

	for p.lexer.Token != js_lexer.TCloseBrace {
		var value js_ast.Expr
		body := []js_ast.Stmt{}

		if p.lexer.Token == js_lexer.TDefault {
			if foundDefault {
				p.addRangeError(p.lexer.Range(), "Multiple default clauses are not allowed")
			}
			foundDefault = true
			p.lexer.Next()
			p.lexer.Expect(js_lexer.TColon)
		} else {
			p.lexer.Expect(js_lexer.TCase)
			value = p.parseExpr(js_ast.LLowest)
			p.lexer.Expect(js_lexer.TColon)
		}

	caseBody:
		for {
			switch p.lexer.Token {
			case js_lexer.TCloseBrace, js_lexer.TCase, js_lexer.TDefault:
				break caseBody

			default:
				body = append(body, p.parseStmt(parseStmtOpts{lexicalDecl: lexicalDeclAllowAll}))
			}
		}

		cases = append(cases, js_ast.Case{ValueOrNil: value, Body: body})
	}

	p.lexer.Expect(js_lexer.TCloseBrace)
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SSwitch{Test: test, Cases: cases}}
}

func (p *parser) parseBlock() js_ast.SBlock {
	p.lexer.Expect(js_lexer.TOpenBrace)
	stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{lexicalDecl: lexicalDeclAllowAll})
	closeBraceLoc := p.lexer.Loc()
	p.lexer.Next()
	return js_ast.SBlock{Stmts: stmts, CloseBraceLoc: closeBraceLoc}
}

func (p *parser) parseTryStmt(loc logger.Loc) js_ast.Stmt {
	p.lexer.Next()
	block := p.parseBlock()
	var catch *js_ast.Catch
	var finally *js_ast.Finally

	if p.lexer.Token == js_lexer.TCatch {
		catchLoc := p.lexer.Loc()
		p.lexer.Next()
		var bindingOrNil js_ast.Binding

		// The catch binding is optional
		if p.lexer.Token == js_lexer.TOpenParen {
			p.lexer.Next()
			bindingOrNil = p.parseBinding()
			p.lexer.Expect(js_lexer.TCloseParen)
		}

		catch = &js_ast.Catch{Loc: catchLoc, BindingOrNil: bindingOrNil, Block: p.parseBlock()}
	}

	if p.lexer.Token == js_lexer.TFinally || catch == nil {
		finallyLoc := p.lexer.Loc()
		p.lexer.Expect(js_lexer.TFinally)
		finally = &js_ast.Finally{Loc: finallyLoc, Block: p.parseBlock()}
	}

	return js_ast.Stmt{Loc: loc, Data: &js_ast.STry{Block: block, Catch: catch, Finally: finally}}
}

func (p *parser) parseForStmt(loc logger.Loc) js_ast.Stmt {
	p.lexer.Next()

	// "for await (let x of y) {}"
	isForAwait := p.lexer.IsContextualKeyword("await")
	if isForAwait {
		if !p.fnOrArrowDataParse.allowAwait {
			p.addRangeError(p.lexer.Range(), "Cannot use \"await\" outside an async function")
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TOpenParen)

	var initOrNil js_ast.Stmt
	var decls []js_ast.Decl
	initLoc := p.lexer.Loc()
	isConst := false

	// "in" expressions aren't allowed here
	p.allowIn = false

	switch p.lexer.Token {
	case js_lexer.TVar:
		p.lexer.Next()
		decls = p.parseAndDeclareDecls()
		initOrNil = js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: js_ast.LocalVar, Decls: decls}}

	case js_lexer.TConst:
		p.lexer.Next()
		isConst = true
		decls = p.parseAndDeclareDecls()
		initOrNil = js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: js_ast.LocalConst, Decls: decls}}

	case js_lexer.TSemicolon:

	default:
		if p.lexer.IsContextualKeyword("let") {
			p.lexer.Next()
			decls = p.parseAndDeclareDecls()
			initOrNil = js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: js_ast.LocalLet, Decls: decls}}
		} else {
			value := p.parseExpr(js_ast.LLowest)
			initOrNil = js_ast.Stmt{Loc: initLoc, Data: &js_ast.SExpr{Value: value}}
		}
	}

	p.allowIn = true

	// "for (a of b) {}"
	if p.lexer.IsContextualKeyword("of") || isForAwait {
		if initOrNil.Data == nil {
			p.lexer.ExpectedString("\"of\"")
		}
		p.forbidInitializers(decls, "of")
		p.lexer.ExpectContextualKeyword("of")
		value := p.parseExpr(js_ast.LComma)
		p.lexer.Expect(js_lexer.TCloseParen)
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SForOf{IsAwait: isForAwait, Init: initOrNil, Value: value, Body: body}}
	}

	// "for (a in b) {}"
	if p.lexer.Token == js_lexer.TIn {
		if initOrNil.Data == nil {
			p.lexer.Unexpected()
		}
		p.forbidInitializers(decls, "in")
		p.lexer.Next()
		value := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SForIn{Init: initOrNil, Value: value, Body: body}}
	}

	// Only require "const" statement initializers when we know we're a normal for loop
	if isConst {
		p.requireInitializers(decls)
	}

	p.lexer.Expect(js_lexer.TSemicolon)

	var testOrNil js_ast.Expr
	if p.lexer.Token != js_lexer.TSemicolon {
		testOrNil = p.parseExpr(js_ast.LLowest)
	}

	p.lexer.Expect(js_lexer.TSemicolon)

	var updateOrNil js_ast.Expr
	if p.lexer.Token != js_lexer.TCloseParen {
		updateOrNil = p.parseExpr(js_ast.LLowest)
	}

	p.lexer.Expect(js_lexer.TCloseParen)
	body := p.parseStmt(parseStmtOpts{})
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SFor{InitOrNil: initOrNil, TestOrNil: testOrNil, UpdateOrNil: updateOrNil, Body: body}}
}

func (p *parser) parseImportStmt(loc logger.Loc, opts parseStmtOpts) js_ast.Stmt {
	importRange := p.lexer.Range()
	p.lexer.Next()

	// "import('path')"
	if p.lexer.Token == js_lexer.TOpenParen || p.lexer.Token == js_lexer.TDot {
		expr := p.parseSuffix(p.parseImportExpr(loc, js_ast.LLowest), js_ast.LLowest)
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
	}

	if !opts.isModuleScope {
		p.addRangeError(importRange, "Unexpected \"import\"")
	}

	stmt := js_ast.SImport{}

	switch p.lexer.Token {
	case js_lexer.TStringLiteral:
		// "import 'path'"

	case js_lexer.TAsterisk:
		// "import * as ns from 'path'"
		p.lexer.Next()
		p.lexer.ExpectContextualKeyword("as")
		stmt.NamespaceName = p.parseImportBindingName()
		p.lexer.ExpectContextualKeyword("from")

	case js_lexer.TOpenBrace:
		// "import {item1, item2} from 'path'"
		items := p.parseImportClause()
		stmt.Items = &items
		p.lexer.ExpectContextualKeyword("from")

	case js_lexer.TIdentifier:
		// "import defaultItem from 'path'"
		stmt.DefaultName = p.parseImportBindingName()

		if p.lexer.Token == js_lexer.TComma {
			p.lexer.Next()
			switch p.lexer.Token {
			case js_lexer.TAsterisk:
				// "import defaultItem, * as ns from 'path'"
				p.lexer.Next()
				p.lexer.ExpectContextualKeyword("as")
				stmt.NamespaceName = p.parseImportBindingName()

			case js_lexer.TOpenBrace:
				// "import defaultItem, {item1, item2} from 'path'"
				items := p.parseImportClause()
				stmt.Items = &items

			default:
				p.lexer.Unexpected()
			}
		}

		p.lexer.ExpectContextualKeyword("from")

	default:
		p.lexer.Unexpected()
	}

	stmt.PathLoc, stmt.Path = p.parsePath()
	p.lexer.ExpectOrInsertSemicolon()
	return js_ast.Stmt{Loc: loc, Data: &stmt}
}

func (p *parser) parseImportBindingName() *js_ast.LocName {
	if p.lexer.Token != js_lexer.TIdentifier {
		p.lexer.Expect(js_lexer.TIdentifier)
	}
	name := &js_ast.LocName{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
	p.validateBindingName(p.lexer.Range(), name.Name)
	p.lexer.Next()
	return name
}

func (p *parser) parsePath() (logger.Loc, string) {
	pathLoc := p.lexer.Loc()
	if p.lexer.Token != js_lexer.TStringLiteral {
		p.lexer.Expect(js_lexer.TStringLiteral)
	}
	pathText := helpers.UTF16ToString(p.lexer.StringLiteral)
	p.lexer.Next()
	return pathLoc, pathText
}

// This assumes the caller has already checked for TStringLiteral or TOpenBrace
func (p *parser) parseClauseAlias(kind string) string {
	// The alias may be a keyword or a string literal
	if p.lexer.Token == js_lexer.TStringLiteral {
		return helpers.UTF16ToString(p.lexer.StringLiteral)
	}
	if !p.lexer.IsIdentifierOrKeyword() {
		p.lexer.ExpectedString(fmt.Sprintf("identifier after %q", kind))
	}
	return p.lexer.Identifier
}

func (p *parser) parseImportClause() []js_ast.ClauseItem {
	items := []js_ast.ClauseItem{}
	p.lexer.Expect(js_lexer.TOpenBrace)

	for p.lexer.Token != js_lexer.TCloseBrace {
		isIdentifier := p.lexer.Token == js_lexer.TIdentifier
		aliasLoc := p.lexer.Loc()
		aliasRange := p.lexer.Range()
		alias := p.parseClauseAlias("import")
		name := js_ast.LocName{Loc: aliasLoc, Name: alias}
		p.lexer.Next()

		// "import { type as xyz } from 'path'"
		if p.lexer.IsContextualKeyword("as") {
			p.lexer.Next()
			name = *p.parseImportBindingName()
		} else if !isIdentifier {
			// An import where the name is a keyword must have an alias
			p.lexer.ExpectedString("\"as\"")
		} else {
			p.validateBindingName(aliasRange, alias)
		}

		items = append(items, js_ast.ClauseItem{Alias: alias, AliasLoc: aliasLoc, Name: name})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseBrace)
	return items
}

func (p *parser) parseExportClause() ([]js_ast.ClauseItem, logger.Loc) {
	items := []js_ast.ClauseItem{}
	firstNonIdentifierLoc := logger.Loc{}
	p.lexer.Expect(js_lexer.TOpenBrace)

	for p.lexer.Token != js_lexer.TCloseBrace {
		alias := p.parseClauseAlias("export")
		aliasLoc := p.lexer.Loc()
		name := js_ast.LocName{Loc: aliasLoc, Name: alias}

		// The name can actually be a keyword if we're really an "export from"
		// statement. However, we won't know until later. Remember where the
		// first one was so we can report an error if this isn't one.
		if p.lexer.Token != js_lexer.TIdentifier && firstNonIdentifierLoc.Start == 0 {
			firstNonIdentifierLoc = aliasLoc
		}
		p.lexer.Next()

		if p.lexer.IsContextualKeyword("as") {
			p.lexer.Next()
			alias = p.parseClauseAlias("export")
			aliasLoc = p.lexer.Loc()
			p.lexer.Next()
		}

		items = append(items, js_ast.ClauseItem{Alias: alias, AliasLoc: aliasLoc, Name: name})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseBrace)
	return items, firstNonIdentifierLoc
}

func (p *parser) parseAndDeclareDecls() []js_ast.Decl {
	decls := []js_ast.Decl{}

	for {
		binding := p.parseBinding()
		var valueOrNil js_ast.Expr

		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			valueOrNil = p.parseExpr(js_ast.LComma)
		}

		decls = append(decls, js_ast.Decl{Binding: binding, ValueOrNil: valueOrNil})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	return decls
}

func (p *parser) requireInitializers(decls []js_ast.Decl) {
	for _, d := range decls {
		if d.ValueOrNil.Data == nil {
			if id, ok := d.Binding.Data.(*js_ast.BIdentifier); ok {
				p.addError(d.Binding.Loc, fmt.Sprintf("The constant %q must be initialized", id.Name))
			} else {
				p.addError(d.Binding.Loc, "This constant must be initialized")
			}
		}
	}
}

func (p *parser) forbidInitializers(decls []js_ast.Decl, loopType string) {
	if len(decls) > 1 {
		p.addError(decls[0].Binding.Loc, fmt.Sprintf("for-%s loops must have a single declaration", loopType))
	} else if len(decls) == 1 && decls[0].ValueOrNil.Data != nil {
		p.addError(decls[0].ValueOrNil.Loc, fmt.Sprintf("for-%s loop variables cannot have an initializer", loopType))
	}
}

func (p *parser) parseBinding() js_ast.Binding {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TIdentifier:
		name := p.lexer.Identifier
		p.validateBindingName(p.lexer.Range(), name)
		p.lexer.Next()
		return js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Name: name}}

	case js_lexer.TOpenBracket:
		p.lexer.Next()
		items := []js_ast.ArrayBinding{}
		hasSpread := false

		for p.lexer.Token != js_lexer.TCloseBracket {
			if p.lexer.Token == js_lexer.TComma {
				items = append(items, js_ast.ArrayBinding{
					Binding: js_ast.Binding{Loc: p.lexer.Loc(), Data: &js_ast.BMissing{}},
				})
			} else {
				if p.lexer.Token == js_lexer.TDotDotDot {
					p.lexer.Next()
					hasSpread = true
				}

				binding := p.parseBinding()
				var defaultValueOrNil js_ast.Expr
				if !hasSpread && p.lexer.Token == js_lexer.TEquals {
					p.lexer.Next()
					defaultValueOrNil = p.parseExpr(js_ast.LComma)
				}
				items = append(items, js_ast.ArrayBinding{Binding: binding, DefaultValueOrNil: defaultValueOrNil})

				// Commas after spread elements are not allowed
				if hasSpread {
					break
				}
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.lexer.Expect(js_lexer.TCloseBracket)
		return js_ast.Binding{Loc: loc, Data: &js_ast.BArray{Items: items, HasSpread: hasSpread}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		properties := []js_ast.PropertyBinding{}

		for p.lexer.Token != js_lexer.TCloseBrace {
			property := p.parsePropertyBinding()
			properties = append(properties, property)

			// Commas after spread elements are not allowed
			if property.IsSpread {
				break
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.lexer.Expect(js_lexer.TCloseBrace)
		return js_ast.Binding{Loc: loc, Data: &js_ast.BObject{Properties: properties}}
	}

	p.lexer.Expect(js_lexer.TIdentifier)
	return js_ast.Binding{}
}

func (p *parser) parsePropertyBinding() js_ast.PropertyBinding {
	var key js_ast.Expr
	isComputed := false
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TDotDotDot:
		p.lexer.Next()
		value := js_ast.Binding{Loc: p.lexer.Loc(), Data: &js_ast.BIdentifier{Name: p.lexer.Identifier}}
		p.validateBindingName(p.lexer.Range(), p.lexer.Identifier)
		p.lexer.Expect(js_lexer.TIdentifier)
		return js_ast.PropertyBinding{Loc: loc, IsSpread: true, Value: value}

	case js_lexer.TNumericLiteral:
		key = js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: p.lexer.Number}}
		p.lexer.Next()

	case js_lexer.TStringLiteral:
		key = js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: p.lexer.StringLiteral}}
		p.lexer.Next()

	case js_lexer.TBigIntegerLiteral:
		key = js_ast.Expr{Loc: loc, Data: &js_ast.EBigInt{Value: p.lexer.Identifier}}
		p.lexer.Next()

	case js_lexer.TOpenBracket:
		isComputed = true
		p.lexer.Next()
		key = p.parseExpr(js_ast.LComma)
		p.lexer.Expect(js_lexer.TCloseBracket)

	default:
		name := p.lexer.Identifier
		nameRange := p.lexer.Range()
		isIdentifier := p.lexer.Token == js_lexer.TIdentifier
		if !p.lexer.IsIdentifierOrKeyword() {
			p.lexer.Expect(js_lexer.TIdentifier)
		}
		p.lexer.Next()
		key = js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: helpers.StringToUTF16(name)}}

		if p.lexer.Token != js_lexer.TColon && p.lexer.Token != js_lexer.TOpenParen {
			// Keywords can't be used as shorthand bindings
			if !isIdentifier {
				p.lexer.Expected(js_lexer.TColon)
			}
			p.validateBindingName(nameRange, name)
			value := js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Name: name}}

			var defaultValueOrNil js_ast.Expr
			if p.lexer.Token == js_lexer.TEquals {
				p.lexer.Next()
				defaultValueOrNil = p.parseExpr(js_ast.LComma)
			}

			return js_ast.PropertyBinding{Loc: loc, Key: key, Value: value, DefaultValueOrNil: defaultValueOrNil}
		}
	}

	p.lexer.Expect(js_lexer.TColon)
	value := p.parseBinding()

	var defaultValueOrNil js_ast.Expr
	if p.lexer.Token == js_lexer.TEquals {
		p.lexer.Next()
		defaultValueOrNil = p.parseExpr(js_ast.LComma)
	}

	return js_ast.PropertyBinding{
		Loc:               loc,
		IsComputed:        isComputed,
		Key:               key,
		Value:             value,
		DefaultValueOrNil: defaultValueOrNil,
	}
}

func (p *parser) parseFnStmt(loc logger.Loc, opts parseStmtOpts, isAsync bool) js_ast.Stmt {
	isGenerator := p.lexer.Token == js_lexer.TAsterisk
	if isGenerator {
		p.lexer.Next()
	}

	var name *js_ast.LocName

	// The name is optional for "export default function() {}" pseudo-statements
	if !opts.isNameOptional || p.lexer.Token == js_lexer.TIdentifier {
		nameLoc := p.lexer.Loc()
		nameText := p.lexer.Identifier
		if p.lexer.Token != js_lexer.TIdentifier {
			p.lexer.Expect(js_lexer.TIdentifier)
		}
		p.validateBindingName(p.lexer.Range(), nameText)
		p.lexer.Next()
		name = &js_ast.LocName{Loc: nameLoc, Name: nameText}
	}

	fn := p.parseFn(name, fnOrArrowDataParse{
		allowAwait: isAsync,
		allowYield: isGenerator,
	})
	fn.IsAsync = isAsync
	fn.IsGenerator = isGenerator
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SFunction{Fn: fn, IsExport: opts.isExport}}
}

func (p *parser) parseFn(name *js_ast.LocName, data fnOrArrowDataParse) js_ast.Fn {
	args := []js_ast.Arg{}
	hasRestArg := false

	oldFnOrArrowData := p.fnOrArrowDataParse
	p.fnOrArrowDataParse = data
	oldAllowIn := p.allowIn
	p.allowIn = true

	p.lexer.Expect(js_lexer.TOpenParen)

	for p.lexer.Token != js_lexer.TCloseParen {
		if !hasRestArg && p.lexer.Token == js_lexer.TDotDotDot {
			p.lexer.Next()
			hasRestArg = true
		}

		binding := p.parseBinding()
		var defaultOrNil js_ast.Expr
		if !hasRestArg && p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			defaultOrNil = p.parseExpr(js_ast.LComma)
		}
		args = append(args, js_ast.Arg{Binding: binding, DefaultOrNil: defaultOrNil})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		if hasRestArg {
			// JavaScript does not allow a comma after a rest argument
			p.lexer.Expected(js_lexer.TCloseParen)
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseParen)
	p.fnOrArrowDataParse = oldFnOrArrowData
	p.allowIn = oldAllowIn

	body := p.parseFnBody(data)
	return js_ast.Fn{Name: name, Args: args, Body: body, HasRestArg: hasRestArg}
}

func (p *parser) parseFnBody(data fnOrArrowDataParse) js_ast.FnBody {
	oldFnOrArrowData := p.fnOrArrowDataParse
	oldAllowIn := p.allowIn
	p.fnOrArrowDataParse = data
	p.allowIn = true

	loc := p.lexer.Loc()
	p.lexer.Expect(js_lexer.TOpenBrace)
	stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{lexicalDecl: lexicalDeclAllowAll})
	p.lexer.Next()

	p.allowIn = oldAllowIn
	p.fnOrArrowDataParse = oldFnOrArrowData
	return js_ast.FnBody{Loc: loc, Stmts: stmts}
}

func (p *parser) parseClassStmt(loc logger.Loc, opts parseStmtOpts) js_ast.Stmt {
	var name *js_ast.LocName
	classKeyword := p.lexer.Range()
	p.lexer.Expect(js_lexer.TClass)

	// The name is optional for "export default class {}" pseudo-statements
	if !opts.isNameOptional || p.lexer.Token == js_lexer.TIdentifier {
		nameLoc := p.lexer.Loc()
		nameText := p.lexer.Identifier
		if p.lexer.Token != js_lexer.TIdentifier {
			p.lexer.Expect(js_lexer.TIdentifier)
		}
		p.validateBindingName(p.lexer.Range(), nameText)
		p.lexer.Next()
		name = &js_ast.LocName{Loc: nameLoc, Name: nameText}
	}

	class := p.parseClass(classKeyword, name)
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SClass{Class: class, IsExport: opts.isExport}}
}

func (p *parser) parseClass(classKeyword logger.Range, name *js_ast.LocName) js_ast.Class {
	var extendsOrNil js_ast.Expr

	if p.lexer.Token == js_lexer.TExtends {
		p.lexer.Next()
		extendsOrNil = p.parseExpr(js_ast.LNew - 1)
	}

	bodyLoc := p.lexer.Loc()
	p.lexer.Expect(js_lexer.TOpenBrace)
	properties := []js_ast.Property{}

	// Allow "in" and private fields inside class bodies
	oldAllowIn := p.allowIn
	p.allowIn = true

	opts := propertyOpts{
		isClass:         true,
		classHasExtends: extendsOrNil.Data != nil,
	}
	hasConstructor := false

	for p.lexer.Token != js_lexer.TCloseBrace {
		if p.lexer.Token == js_lexer.TSemicolon {
			p.lexer.Next()
			continue
		}

		keyRange := p.lexer.Range()
		property := p.parseProperty(js_ast.PropertyNormal, opts)

		if isConstructorProperty(property) {
			if hasConstructor {
				p.addRangeError(keyRange, "Classes cannot contain more than one constructor")
			}
			hasConstructor = true
		}

		properties = append(properties, property)
	}

	p.allowIn = oldAllowIn
	p.lexer.Expect(js_lexer.TCloseBrace)
	return js_ast.Class{
		ClassKeyword: classKeyword,
		Name:         name,
		ExtendsOrNil: extendsOrNil,
		BodyLoc:      bodyLoc,
		Properties:   properties,
	}
}

func isConstructorProperty(property js_ast.Property) bool {
	if property.IsMethod && !property.IsStatic && !property.IsComputed {
		if str, ok := property.Key.Data.(*js_ast.EString); ok {
			return helpers.UTF16EqualsString(str.Value, "constructor")
		}
	}
	return false
}

type propertyOpts struct {
	isClass         bool
	isStatic        bool
	isAsync         bool
	isGenerator     bool
	classHasExtends bool
}

func (p *parser) parseProperty(kind js_ast.PropertyKind, opts propertyOpts) js_ast.Property {
	var key js_ast.Expr
	keyRange := p.lexer.Range()
	loc := keyRange.Loc
	isComputed := false

	switch p.lexer.Token {
	case js_lexer.TNumericLiteral:
		key = js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: p.lexer.Number}}
		p.lexer.Next()

	case js_lexer.TStringLiteral:
		key = js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: p.lexer.StringLiteral}}
		p.lexer.Next()

	case js_lexer.TBigIntegerLiteral:
		key = js_ast.Expr{Loc: loc, Data: &js_ast.EBigInt{Value: p.lexer.Identifier}}
		p.lexer.Next()

	case js_lexer.TPrivateIdentifier:
		if !opts.isClass {
			p.lexer.Expected(js_lexer.TIdentifier)
		}
		if p.lexer.Identifier == "#constructor" {
			p.addRangeError(keyRange, "Invalid field name \"#constructor\"")
		}
		key = js_ast.Expr{Loc: loc, Data: &js_ast.EPrivateIdentifier{Name: p.lexer.Identifier}}
		p.lexer.Next()

	case js_lexer.TOpenBracket:
		isComputed = true
		p.lexer.Next()
		key = p.parseExpr(js_ast.LComma)
		p.lexer.Expect(js_lexer.TCloseBracket)

	case js_lexer.TAsterisk:
		if kind != js_ast.PropertyNormal || opts.isGenerator {
			p.lexer.Unexpected()
		}
		p.lexer.Next()
		opts.isGenerator = true
		return p.parseProperty(js_ast.PropertyNormal, opts)

	default:
		name := p.lexer.Identifier
		isIdentifier := p.lexer.Token == js_lexer.TIdentifier
		if !p.lexer.IsIdentifierOrKeyword() {
			p.lexer.Expect(js_lexer.TIdentifier)
		}
		p.lexer.Next()

		// Support contextual keywords
		if kind == js_ast.PropertyNormal && !opts.isGenerator && !opts.isAsync {
			// Does the following token look like a key?
			couldBeModifierKeyword := p.lexer.IsIdentifierOrKeyword()
			if !couldBeModifierKeyword {
				switch p.lexer.Token {
				case js_lexer.TOpenBracket, js_lexer.TNumericLiteral, js_lexer.TStringLiteral,
					js_lexer.TAsterisk, js_lexer.TPrivateIdentifier, js_lexer.TBigIntegerLiteral:
					couldBeModifierKeyword = true
				}
			}

			// If so, check for a modifier keyword
			if couldBeModifierKeyword {
				switch name {
				case "get":
					return p.parseProperty(js_ast.PropertyGet, opts)

				case "set":
					return p.parseProperty(js_ast.PropertySet, opts)

				case "async":
					if !p.lexer.HasNewlineBefore {
						opts.isAsync = true
						return p.parseProperty(kind, opts)
					}

				case "static":
					if opts.isClass && !opts.isStatic {
						opts.isStatic = true
						return p.parseProperty(kind, opts)
					}
				}
			} else if opts.isClass && !opts.isStatic && name == "static" && p.lexer.Token == js_lexer.TOpenBrace {
				return p.parseClassStaticBlock(loc)
			}
		}

		key = js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: helpers.StringToUTF16(name)}}

		// Parse a shorthand property
		if !opts.isClass && kind == js_ast.PropertyNormal && p.lexer.Token != js_lexer.TColon &&
			p.lexer.Token != js_lexer.TOpenParen && !opts.isGenerator && !opts.isAsync {
			if !isIdentifier {
				p.lexer.Expected(js_lexer.TColon)
			}
			value := js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: name}}

			// Destructuring patterns have an optional default value
			var initializerOrNil js_ast.Expr
			if p.lexer.Token == js_lexer.TEquals {
				p.lexer.Next()
				initializerOrNil = p.parseExpr(js_ast.LComma)
			}

			return js_ast.Property{
				Loc:              loc,
				Kind:             kind,
				Key:              key,
				ValueOrNil:       value,
				InitializerOrNil: initializerOrNil,
				WasShorthand:     true,
			}
		}
	}

	// Parse a class field with an optional initial value
	if opts.isClass && kind == js_ast.PropertyNormal && !opts.isAsync &&
		!opts.isGenerator && p.lexer.Token != js_lexer.TOpenParen {
		if !isComputed {
			if str, ok := key.Data.(*js_ast.EString); ok && helpers.UTF16EqualsString(str.Value, "constructor") {
				p.addRangeError(keyRange, "Invalid field name \"constructor\"")
			}
		}

		var initializerOrNil js_ast.Expr
		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()

			// Class field initializers behave like methods
			oldFnOrArrowData := p.fnOrArrowDataParse
			p.fnOrArrowDataParse = fnOrArrowDataParse{
				isReturnDisallowed: true,
				allowSuperProperty: true,
			}
			initializerOrNil = p.parseExpr(js_ast.LComma)
			p.fnOrArrowDataParse = oldFnOrArrowData
		}

		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Property{
			Loc:              loc,
			Kind:             kind,
			Key:              key,
			IsComputed:       isComputed,
			IsStatic:         opts.isStatic,
			InitializerOrNil: initializerOrNil,
		}
	}

	// Parse a method expression
	if p.lexer.Token == js_lexer.TOpenParen || kind != js_ast.PropertyNormal ||
		opts.isClass || opts.isAsync || opts.isGenerator {
		fnLoc := p.lexer.Loc()
		isConstructor := false

		if opts.isClass && !opts.isStatic && !isComputed {
			if str, ok := key.Data.(*js_ast.EString); ok && helpers.UTF16EqualsString(str.Value, "constructor") {
				isConstructor = true
				switch {
				case kind == js_ast.PropertyGet:
					p.addRangeError(keyRange, "Class constructor cannot be a getter")
				case kind == js_ast.PropertySet:
					p.addRangeError(keyRange, "Class constructor cannot be a setter")
				case opts.isAsync:
					p.addRangeError(keyRange, "Class constructor cannot be an async function")
				case opts.isGenerator:
					p.addRangeError(keyRange, "Class constructor cannot be a generator")
				}
			}
		}

		fn := p.parseFn(nil, fnOrArrowDataParse{
			allowAwait:         opts.isAsync,
			allowYield:         opts.isGenerator,
			allowSuperCall:     isConstructor && opts.classHasExtends,
			allowSuperProperty: true,
		})
		fn.IsAsync = opts.isAsync
		fn.IsGenerator = opts.isGenerator

		// Enforce argument rules for accessors
		switch kind {
		case js_ast.PropertyGet:
			if len(fn.Args) > 0 {
				p.addRangeError(keyRange, "Getter must not have any arguments")
			}

		case js_ast.PropertySet:
			if len(fn.Args) != 1 || fn.HasRestArg {
				p.addRangeError(keyRange, "Setter must have exactly one argument")
			}
		}

		return js_ast.Property{
			Loc:        loc,
			Kind:       kind,
			Key:        key,
			IsComputed: isComputed,
			IsMethod:   true,
			IsStatic:   opts.isStatic,
			ValueOrNil: js_ast.Expr{Loc: fnLoc, Data: &js_ast.EFunction{Fn: fn}},
		}
	}

	// Parse an object key/value pair
	p.lexer.Expect(js_lexer.TColon)
	value := p.parseExpr(js_ast.LComma)
	return js_ast.Property{
		Loc:        loc,
		Kind:       kind,
		Key:        key,
		IsComputed: isComputed,
		ValueOrNil: value,
	}
}

func (p *parser) parseClassStaticBlock(loc logger.Loc) js_ast.Property {
	oldFnOrArrowData := p.fnOrArrowDataParse
	p.fnOrArrowDataParse = fnOrArrowDataParse{
		isReturnDisallowed: true,
		allowSuperProperty: true,
	}

	blockLoc := p.lexer.Loc()
	p.lexer.Expect(js_lexer.TOpenBrace)
	stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{lexicalDecl: lexicalDeclAllowAll})
	p.lexer.Next()

	p.fnOrArrowDataParse = oldFnOrArrowData
	return js_ast.Property{
		Loc:              loc,
		Kind:             js_ast.PropertyClassStaticBlock,
		ClassStaticBlock: &js_ast.ClassStaticBlock{Loc: blockLoc, Stmts: stmts},
	}
}

func (p *parser) parseExpr(level js_ast.L) js_ast.Expr {
	hadPureCommentBefore := p.lexer.HasPureCommentBefore
	expr := p.parsePrefix(level)

	// A "__PURE__" comment applies to the next call expression, so in
	// "/* @__PURE__ */ a().b() + c()" it marks "a().b()"
	if hadPureCommentBefore && level < js_ast.LCall {
		expr = p.parseSuffix(expr, js_ast.LCall-1)
		if call, ok := expr.Data.(*js_ast.ECall); ok {
			call.CanBeUnwrappedIfUnused = true
		}
	}

	return p.parseSuffix(expr, level)
}

func (p *parser) parseExprOrBindings(level js_ast.L) js_ast.Expr {
	return p.parseExpr(level)
}

func (p *parser) parseFnExpr(loc logger.Loc, isAsync bool) js_ast.Expr {
	p.lexer.Next()
	isGenerator := p.lexer.Token == js_lexer.TAsterisk
	if isGenerator {
		p.lexer.Next()
	}
	var name *js_ast.LocName

	// The name is optional
	if p.lexer.Token == js_lexer.TIdentifier {
		name = &js_ast.LocName{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
		p.validateBindingName(p.lexer.Range(), name.Name)
		p.lexer.Next()
	}

	fn := p.parseFn(name, fnOrArrowDataParse{
		allowAwait: isAsync,
		allowYield: isGenerator,
	})
	fn.IsAsync = isAsync
	fn.IsGenerator = isGenerator
	return js_ast.Expr{Loc: loc, Data: &js_ast.EFunction{Fn: fn}}
}

func (p *parser) parseArrowBody(args []js_ast.Arg, data fnOrArrowDataParse) *js_ast.EArrow {
	arrowLoc := p.lexer.Loc()

	// Newlines are not allowed before "=>"
	if p.lexer.HasNewlineBefore {
		p.addRangeError(p.lexer.Range(), "Unexpected newline before \"=>\"")
	}

	p.lexer.Expect(js_lexer.TEqualsGreaterThan)

	// Arrow functions inherit "super" from the enclosing function
	data.allowSuperCall = p.fnOrArrowDataParse.allowSuperCall
	data.allowSuperProperty = p.fnOrArrowDataParse.allowSuperProperty

	if p.lexer.Token == js_lexer.TOpenBrace {
		body := p.parseFnBody(data)
		p.afterArrowBodyLoc = p.lexer.Loc()
		return &js_ast.EArrow{Args: args, Body: body}
	}

	oldFnOrArrowData := p.fnOrArrowDataParse
	p.fnOrArrowDataParse = data
	expr := p.parseExpr(js_ast.LComma)
	p.fnOrArrowDataParse = oldFnOrArrowData
	return &js_ast.EArrow{
		Args:       args,
		Body:       js_ast.FnBody{Loc: arrowLoc, Stmts: []js_ast.Stmt{{Loc: expr.Loc, Data: &js_ast.SReturn{ValueOrNil: expr}}}},
		PreferExpr: true,
	}
}

// This parses an expression starting with "async". The "async" keyword has
// already been consumed.
func (p *parser) parseAsyncPrefixExpr(asyncRange logger.Range, level js_ast.L) js_ast.Expr {
	// "async function() {}"
	if !p.lexer.HasNewlineBefore && p.lexer.Token == js_lexer.TFunction {
		return p.parseFnExpr(asyncRange.Loc, true /* isAsync */)
	}

	// Check the precedence level to avoid parsing an arrow function in
	// "new async () => {}". This also avoids parsing "new async()" as
	// "new (async())()" instead.
	if !p.lexer.HasNewlineBefore && level < js_ast.LMember {
		switch p.lexer.Token {
		// "async => {}"
		case js_lexer.TEqualsGreaterThan:
			if level <= js_ast.LAssign {
				arg := js_ast.Arg{Binding: js_ast.Binding{Loc: asyncRange.Loc, Data: &js_ast.BIdentifier{Name: "async"}}}
				arrow := p.parseArrowBody([]js_ast.Arg{arg}, fnOrArrowDataParse{})
				return js_ast.Expr{Loc: asyncRange.Loc, Data: arrow}
			}

		// "async x => {}"
		case js_lexer.TIdentifier:
			if level <= js_ast.LAssign {
				p.validateBindingName(p.lexer.Range(), p.lexer.Identifier)
				arg := js_ast.Arg{Binding: js_ast.Binding{Loc: p.lexer.Loc(), Data: &js_ast.BIdentifier{Name: p.lexer.Identifier}}}
				p.lexer.Next()
				arrow := p.parseArrowBody([]js_ast.Arg{arg}, fnOrArrowDataParse{allowAwait: true})
				arrow.IsAsync = true
				return js_ast.Expr{Loc: asyncRange.Loc, Data: arrow}
			}

		// "async()"
		// "async () => {}"
		case js_lexer.TOpenParen:
			p.lexer.Next()
			return p.parseParenExpr(asyncRange.Loc, level, true /* isAsync */)
		}
	}

	// "async"
	// "async + 1"
	return js_ast.Expr{Loc: asyncRange.Loc, Data: &js_ast.EIdentifier{Name: "async"}}
}

// This assumes the caller has already parsed the "(" token. Arrow functions
// are recognized after the fact: the parenthesized items are parsed as
// expressions and then converted to bindings if a "=>" follows.
func (p *parser) parseParenExpr(loc logger.Loc, level js_ast.L, isAsync bool) js_ast.Expr {
	items := []js_ast.Expr{}
	spreadRange := logger.Range{}

	// Allow "in" inside parentheses
	oldAllowIn := p.allowIn
	p.allowIn = true

	// Scan over the comma-separated arguments or expressions
	for p.lexer.Token != js_lexer.TCloseParen {
		itemLoc := p.lexer.Loc()

		// Spread arguments are allowed in arrow functions and async calls
		if p.lexer.Token == js_lexer.TDotDotDot {
			spreadRange = p.lexer.Range()
			p.lexer.Next()
			item := p.parseExprOrBindings(js_ast.LComma)
			items = append(items, js_ast.Expr{Loc: itemLoc, Data: &js_ast.ESpread{Value: item}})
		} else {
			items = append(items, p.parseExprOrBindings(js_ast.LComma))
		}

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	closeParenRange := p.lexer.Range()
	p.lexer.Expect(js_lexer.TCloseParen)
	p.allowIn = oldAllowIn

	// Are these arguments to an arrow function?
	if p.lexer.Token == js_lexer.TEqualsGreaterThan {
		if level > js_ast.LAssign {
			p.lexer.Unexpected()
		}

		args := []js_ast.Arg{}
		hasRestArg := false
		for i, item := range items {
			if spread, ok := item.Data.(*js_ast.ESpread); ok {
				if i+1 != len(items) {
					p.addRangeError(spreadRange, "Unexpected \"...\"")
				}
				item = spread.Value
				hasRestArg = true
			}
			binding, initializerOrNil := p.convertExprToBindingAndInitializer(item)
			args = append(args, js_ast.Arg{Binding: binding, DefaultOrNil: initializerOrNil})
		}

		arrow := p.parseArrowBody(args, fnOrArrowDataParse{allowAwait: isAsync})
		arrow.IsAsync = isAsync
		arrow.HasRestArg = hasRestArg
		return js_ast.Expr{Loc: loc, Data: arrow}
	}

	// "async(a, b)" is a call to a function named "async"
	if isAsync {
		return js_ast.Expr{Loc: loc, Data: &js_ast.ECall{
			Target: js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: "async"}},
			Args:   items,
		}}
	}

	// "()" is only valid as an arrow function argument list
	if len(items) == 0 {
		p.log.AddRangeError(&p.source, closeParenRange, "Unexpected \")\"")
		panic(js_lexer.LexerPanic{})
	}

	// Is this a chain of expressions and comma operators?
	if spreadRange.Len > 0 {
		p.log.AddRangeError(&p.source, spreadRange, "Unexpected \"...\"")
		panic(js_lexer.LexerPanic{})
	}
	return js_ast.JoinAllWithComma(items)
}

func (p *parser) convertExprToBindingAndInitializer(expr js_ast.Expr) (js_ast.Binding, js_ast.Expr) {
	var initializerOrNil js_ast.Expr
	if assign, ok := expr.Data.(*js_ast.EBinary); ok && assign.Op == js_ast.BinOpAssign {
		initializerOrNil = assign.Right
		expr = assign.Left
	}
	return p.convertExprToBinding(expr), initializerOrNil
}

func (p *parser) convertExprToBinding(expr js_ast.Expr) js_ast.Binding {
	switch e := expr.Data.(type) {
	case *js_ast.EMissing:
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BMissing{}}

	case *js_ast.EIdentifier:
		p.validateBindingName(logger.Range{Loc: expr.Loc, Len: int32(len(e.Name))}, e.Name)
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BIdentifier{Name: e.Name}}

	case *js_ast.EArray:
		items := []js_ast.ArrayBinding{}
		hasSpread := false
		for i, item := range e.Items {
			if spread, ok := item.Data.(*js_ast.ESpread); ok {
				if i+1 != len(e.Items) {
					p.addError(item.Loc, "Unexpected \",\" after rest pattern")
				}
				hasSpread = true
				item = spread.Value
			}
			binding, initializerOrNil := p.convertExprToBindingAndInitializer(item)
			items = append(items, js_ast.ArrayBinding{Binding: binding, DefaultValueOrNil: initializerOrNil})
		}
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BArray{Items: items, HasSpread: hasSpread}}

	case *js_ast.EObject:
		properties := []js_ast.PropertyBinding{}
		for _, property := range e.Properties {
			if property.IsMethod || property.Kind == js_ast.PropertyGet || property.Kind == js_ast.PropertySet {
				p.addError(property.Loc, "Invalid binding pattern")
				continue
			}
			if property.Kind == js_ast.PropertySpread {
				properties = append(properties, js_ast.PropertyBinding{
					Loc:      property.Loc,
					IsSpread: true,
					Value:    p.convertExprToBinding(property.ValueOrNil),
				})
				continue
			}
			binding, initializerOrNil := p.convertExprToBindingAndInitializer(property.ValueOrNil)
			if initializerOrNil.Data == nil {
				initializerOrNil = property.InitializerOrNil
			}
			properties = append(properties, js_ast.PropertyBinding{
				Loc:               property.Loc,
				IsComputed:        property.IsComputed,
				Key:               property.Key,
				Value:             binding,
				DefaultValueOrNil: initializerOrNil,
			})
		}
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BObject{Properties: properties}}
	}

	p.addError(expr.Loc, "Invalid binding pattern")
	return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BMissing{}}
}

func (p *parser) parseImportExpr(loc logger.Loc, level js_ast.L) js_ast.Expr {
	// "import.meta" has no meaning for CommonJS output
	if p.lexer.Token == js_lexer.TDot {
		p.lexer.Next()
		r := logger.Range{Loc: loc, Len: p.lexer.Range().End() - loc.Start}
		p.addRangeError(r, "Cannot use \"import.meta\" in a file converted to CommonJS")
		p.lexer.ExpectContextualKeyword("meta")
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUndefined{}}
	}

	if level > js_ast.LCall {
		r := logger.Range{Loc: loc, Len: 6}
		p.log.AddRangeError(&p.source, r, "Cannot use an \"import\" expression here without parentheses")
		panic(js_lexer.LexerPanic{})
	}

	// Allow "in" inside call arguments
	oldAllowIn := p.allowIn
	p.allowIn = true

	p.lexer.Expect(js_lexer.TOpenParen)
	value := p.parseExpr(js_ast.LComma)
	p.lexer.Expect(js_lexer.TCloseParen)

	p.allowIn = oldAllowIn
	return js_ast.Expr{Loc: loc, Data: &js_ast.EImportCall{Expr: value}}
}

func (p *parser) parseCallArgs() []js_ast.Expr {
	// Allow "in" inside call arguments
	oldAllowIn := p.allowIn
	p.allowIn = true

	args := []js_ast.Expr{}
	p.lexer.Expect(js_lexer.TOpenParen)

	for p.lexer.Token != js_lexer.TCloseParen {
		loc := p.lexer.Loc()
		isSpread := p.lexer.Token == js_lexer.TDotDotDot
		if isSpread {
			p.lexer.Next()
		}
		arg := p.parseExpr(js_ast.LComma)
		if isSpread {
			arg = js_ast.Expr{Loc: loc, Data: &js_ast.ESpread{Value: arg}}
		}
		args = append(args, arg)
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseParen)
	p.allowIn = oldAllowIn
	return args
}

func (p *parser) parseTemplateParts(includeRaw bool) []js_ast.TemplatePart {
	parts := []js_ast.TemplatePart{}

	// Allow "in" inside template literals
	oldAllowIn := p.allowIn
	p.allowIn = true

	for {
		p.lexer.Next()
		value := p.parseExpr(js_ast.LLowest)
		tailLoc := p.lexer.Loc()
		p.lexer.RescanCloseBraceAsTemplateToken()

		tailCooked := p.lexer.StringLiteral
		tailRaw := ""
		if includeRaw {
			tailRaw = p.lexer.RawTemplateContents()
		}

		parts = append(parts, js_ast.TemplatePart{
			Value:      value,
			TailLoc:    tailLoc,
			TailCooked: tailCooked,
			TailRaw:    tailRaw,
		})

		if p.lexer.Token == js_lexer.TTemplateTail {
			p.lexer.Next()
			break
		}
	}

	p.allowIn = oldAllowIn
	return parts
}

func (p *parser) parsePrefix(level js_ast.L) js_ast.Expr {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TSuper:
		superRange := p.lexer.Range()
		p.lexer.Next()

		switch p.lexer.Token {
		case js_lexer.TOpenParen:
			if level < js_ast.LCall && p.fnOrArrowDataParse.allowSuperCall {
				return js_ast.Expr{Loc: loc, Data: &js_ast.ESuper{}}
			}

		case js_lexer.TDot, js_lexer.TOpenBracket:
			if p.fnOrArrowDataParse.allowSuperProperty {
				return js_ast.Expr{Loc: loc, Data: &js_ast.ESuper{}}
			}
		}

		p.addRangeError(superRange, "Unexpected \"super\"")
		return js_ast.Expr{Loc: loc, Data: &js_ast.ESuper{}}

	case js_lexer.TOpenParen:
		if level > js_ast.LAssign {
			// A parenthesized expression nested inside a higher-precedence
			// expression can't be the argument list of an arrow function
			p.lexer.Next()
			oldAllowIn := p.allowIn
			p.allowIn = true
			value := p.parseExpr(js_ast.LLowest)
			p.allowIn = oldAllowIn
			p.lexer.Expect(js_lexer.TCloseParen)
			return value
		}

		p.lexer.Next()
		return p.parseParenExpr(loc, level, false /* isAsync */)

	case js_lexer.TFalse:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: false}}

	case js_lexer.TTrue:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: true}}

	case js_lexer.TNull:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENull{}}

	case js_lexer.TThis:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EThis{}}

	case js_lexer.TPrivateIdentifier:
		// "#x in obj"
		name := p.lexer.Identifier
		p.lexer.Next()
		if p.lexer.Token != js_lexer.TIn {
			p.lexer.Expected(js_lexer.TIn)
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.EPrivateIdentifier{Name: name}}

	case js_lexer.TIdentifier:
		name := p.lexer.Identifier
		nameRange := p.lexer.Range()
		p.lexer.Next()

		// Handle async and await expressions
		switch name {
		case "async":
			return p.parseAsyncPrefixExpr(nameRange, level)

		case "await":
			if p.fnOrArrowDataParse.allowAwait {
				if level > js_ast.LPrefix {
					p.addRangeError(nameRange, "Cannot use an \"await\" expression here")
				}
				value := p.parseExpr(js_ast.LPrefix)
				return js_ast.Expr{Loc: loc, Data: &js_ast.EAwait{Value: value}}
			}
			p.addRangeError(nameRange, "Cannot use \"await\" outside an async function")

		case "yield":
			if p.fnOrArrowDataParse.allowYield {
				if level > js_ast.LAssign {
					p.addRangeError(nameRange, "Cannot use a \"yield\" expression here without parentheses")
				}
				return p.parseYieldExpr(loc)
			}
			p.addRangeError(nameRange, "Cannot use \"yield\" outside a generator function")
		}

		// Handle the start of an arrow expression
		if p.lexer.Token == js_lexer.TEqualsGreaterThan && level <= js_ast.LAssign {
			p.validateBindingName(nameRange, name)
			arg := js_ast.Arg{Binding: js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Name: name}}}
			arrow := p.parseArrowBody([]js_ast.Arg{arg}, fnOrArrowDataParse{})
			return js_ast.Expr{Loc: loc, Data: arrow}
		}

		return js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: name}}

	case js_lexer.TStringLiteral:
		value := p.lexer.StringLiteral
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: value}}

	case js_lexer.TNoSubstitutionTemplateLiteral:
		head := p.lexer.StringLiteral
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ETemplate{HeadLoc: loc, HeadCooked: head}}

	case js_lexer.TTemplateHead:
		head := p.lexer.StringLiteral
		parts := p.parseTemplateParts(false /* includeRaw */)
		return js_ast.Expr{Loc: loc, Data: &js_ast.ETemplate{HeadLoc: loc, HeadCooked: head, Parts: parts}}

	case js_lexer.TNumericLiteral:
		value := p.lexer.Number
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: value}}

	case js_lexer.TBigIntegerLiteral:
		value := p.lexer.Identifier
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBigInt{Value: value}}

	case js_lexer.TSlash, js_lexer.TSlashEquals:
		p.lexer.ScanRegExp()
		value := p.lexer.Raw()
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ERegExp{Value: value}}

	case js_lexer.TVoid:
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpVoid, Value: value}}

	case js_lexer.TTypeof:
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpTypeof, Value: value}}

	case js_lexer.TDelete:
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)
		if _, ok := value.Data.(*js_ast.EIdentifier); ok {
			p.addError(value.Loc, "Delete of a bare identifier cannot be used in strict mode")
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpDelete, Value: value}}

	case js_lexer.TPlus:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPos, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TMinus:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpNeg, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TTilde:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpCpl, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TExclamation:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpNot, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TMinusMinus:
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)
		p.checkUpdateTarget(value)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPreDec, Value: value}}

	case js_lexer.TPlusPlus:
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)
		p.checkUpdateTarget(value)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPreInc, Value: value}}

	case js_lexer.TFunction:
		return p.parseFnExpr(loc, false /* isAsync */)

	case js_lexer.TClass:
		classKeyword := p.lexer.Range()
		p.lexer.Next()
		var name *js_ast.LocName

		// The name is optional
		if p.lexer.Token == js_lexer.TIdentifier {
			name = &js_ast.LocName{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
			p.validateBindingName(p.lexer.Range(), name.Name)
			p.lexer.Next()
		}

		class := p.parseClass(classKeyword, name)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EClass{Class: class}}

	case js_lexer.TNew:
		p.lexer.Next()

		// Special-case the weird "new.target" expression here
		if p.lexer.Token == js_lexer.TDot {
			p.lexer.Next()
			if p.lexer.Token != js_lexer.TIdentifier || p.lexer.Raw() != "target" {
				p.lexer.Unexpected()
			}
			r := logger.Range{Loc: loc, Len: p.lexer.Range().End() - loc.Start}
			p.lexer.Next()
			return js_ast.Expr{Loc: loc, Data: &js_ast.ENewTarget{Range: r}}
		}

		target := p.parseExpr(js_ast.LMember)
		args := []js_ast.Expr{}

		if p.lexer.Token == js_lexer.TOpenParen {
			args = p.parseCallArgs()
		}

		return js_ast.Expr{Loc: loc, Data: &js_ast.ENew{Target: target, Args: args}}

	case js_lexer.TOpenBracket:
		p.lexer.Next()
		items := []js_ast.Expr{}

		// Allow "in" inside arrays
		oldAllowIn := p.allowIn
		p.allowIn = true

		for p.lexer.Token != js_lexer.TCloseBracket {
			switch p.lexer.Token {
			case js_lexer.TComma:
				items = append(items, js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EMissing{}})

			case js_lexer.TDotDotDot:
				dotsLoc := p.lexer.Loc()
				p.lexer.Next()
				item := p.parseExprOrBindings(js_ast.LComma)
				items = append(items, js_ast.Expr{Loc: dotsLoc, Data: &js_ast.ESpread{Value: item}})

			default:
				items = append(items, p.parseExprOrBindings(js_ast.LComma))
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.lexer.Expect(js_lexer.TCloseBracket)
		p.allowIn = oldAllowIn
		return js_ast.Expr{Loc: loc, Data: &js_ast.EArray{Items: items}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		properties := []js_ast.Property{}

		// Allow "in" inside object literals
		oldAllowIn := p.allowIn
		p.allowIn = true

		for p.lexer.Token != js_lexer.TCloseBrace {
			if p.lexer.Token == js_lexer.TDotDotDot {
				dotLoc := p.lexer.Loc()
				p.lexer.Next()
				value := p.parseExprOrBindings(js_ast.LComma)
				properties = append(properties, js_ast.Property{
					Loc:        dotLoc,
					Kind:       js_ast.PropertySpread,
					ValueOrNil: value,
				})
			} else {
				properties = append(properties, p.parseProperty(js_ast.PropertyNormal, propertyOpts{}))
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.lexer.Expect(js_lexer.TCloseBrace)
		p.allowIn = oldAllowIn
		return js_ast.Expr{Loc: loc, Data: &js_ast.EObject{Properties: properties}}

	case js_lexer.TImport:
		p.lexer.Next()
		return p.parseImportExpr(loc, level)

	default:
		p.lexer.Unexpected()
	}

	return js_ast.Expr{}
}

func (p *parser) parseYieldExpr(loc logger.Loc) js_ast.Expr {
	// Parse a yield-from expression, which yields from an iterator
	isStar := p.lexer.Token == js_lexer.TAsterisk
	if isStar && !p.lexer.HasNewlineBefore {
		p.lexer.Next()
	} else {
		isStar = false
	}

	var valueOrNil js_ast.Expr

	// The yield expression only has a value in certain cases
	if isStar {
		valueOrNil = p.parseExpr(js_ast.LYield)
	} else {
		switch p.lexer.Token {
		case js_lexer.TCloseBrace, js_lexer.TCloseBracket, js_lexer.TCloseParen,
			js_lexer.TColon, js_lexer.TComma, js_lexer.TSemicolon, js_lexer.TEndOfFile:

		default:
			if !p.lexer.HasNewlineBefore {
				valueOrNil = p.parseExpr(js_ast.LYield)
			}
		}
	}

	return js_ast.Expr{Loc: loc, Data: &js_ast.EYield{ValueOrNil: valueOrNil, IsStar: isStar}}
}

func (p *parser) checkUpdateTarget(value js_ast.Expr) {
	switch value.Data.(type) {
	case *js_ast.EIdentifier, *js_ast.EDot, *js_ast.EIndex:
	default:
		p.addError(value.Loc, "Invalid assignment target")
	}
}

var binaryOps = map[js_lexer.T]js_ast.OpCode{
	js_lexer.TPlus:                              js_ast.BinOpAdd,
	js_lexer.TMinus:                             js_ast.BinOpSub,
	js_lexer.TAsterisk:                          js_ast.BinOpMul,
	js_lexer.TSlash:                             js_ast.BinOpDiv,
	js_lexer.TPercent:                           js_ast.BinOpRem,
	js_lexer.TAsteriskAsterisk:                  js_ast.BinOpPow,
	js_lexer.TLessThan:                          js_ast.BinOpLt,
	js_lexer.TLessThanEquals:                    js_ast.BinOpLe,
	js_lexer.TGreaterThan:                       js_ast.BinOpGt,
	js_lexer.TGreaterThanEquals:                 js_ast.BinOpGe,
	js_lexer.TInstanceof:                        js_ast.BinOpInstanceof,
	js_lexer.TLessThanLessThan:                  js_ast.BinOpShl,
	js_lexer.TGreaterThanGreaterThan:            js_ast.BinOpShr,
	js_lexer.TGreaterThanGreaterThanGreaterThan: js_ast.BinOpUShr,
	js_lexer.TEqualsEquals:                      js_ast.BinOpLooseEq,
	js_lexer.TExclamationEquals:                 js_ast.BinOpLooseNe,
	js_lexer.TEqualsEqualsEquals:                js_ast.BinOpStrictEq,
	js_lexer.TExclamationEqualsEquals:           js_ast.BinOpStrictNe,
	js_lexer.TQuestionQuestion:                  js_ast.BinOpNullishCoalescing,
	js_lexer.TBarBar:                            js_ast.BinOpLogicalOr,
	js_lexer.TAmpersandAmpersand:                js_ast.BinOpLogicalAnd,
	js_lexer.TBar:                               js_ast.BinOpBitwiseOr,
	js_lexer.TAmpersand:                         js_ast.BinOpBitwiseAnd,
	js_lexer.TCaret:                             js_ast.BinOpBitwiseXor,

	js_lexer.TEquals:                                  js_ast.BinOpAssign,
	js_lexer.TPlusEquals:                              js_ast.BinOpAddAssign,
	js_lexer.TMinusEquals:                             js_ast.BinOpSubAssign,
	js_lexer.TAsteriskEquals:                          js_ast.BinOpMulAssign,
	js_lexer.TSlashEquals:                             js_ast.BinOpDivAssign,
	js_lexer.TPercentEquals:                           js_ast.BinOpRemAssign,
	js_lexer.TAsteriskAsteriskEquals:                  js_ast.BinOpPowAssign,
	js_lexer.TLessThanLessThanEquals:                  js_ast.BinOpShlAssign,
	js_lexer.TGreaterThanGreaterThanEquals:            js_ast.BinOpShrAssign,
	js_lexer.TGreaterThanGreaterThanGreaterThanEquals: js_ast.BinOpUShrAssign,
	js_lexer.TBarEquals:                               js_ast.BinOpBitwiseOrAssign,
	js_lexer.TAmpersandEquals:                         js_ast.BinOpBitwiseAndAssign,
	js_lexer.TCaretEquals:                             js_ast.BinOpBitwiseXorAssign,
	js_lexer.TQuestionQuestionEquals:                  js_ast.BinOpNullishCoalescingAssign,
	js_lexer.TBarBarEquals:                            js_ast.BinOpLogicalOrAssign,
	js_lexer.TAmpersandAmpersandEquals:                js_ast.BinOpLogicalAndAssign,
}

func (p *parser) parseSuffix(left js_ast.Expr, level js_ast.L) js_ast.Expr {
	optionalChain := js_ast.OptionalChainNone

	for {
		// Only a comma can follow an arrow function with a block body
		if p.lexer.Loc() == p.afterArrowBodyLoc {
			for {
				switch p.lexer.Token {
				case js_lexer.TComma:
					if level >= js_ast.LComma {
						return left
					}
					p.lexer.Next()
					left = js_ast.JoinWithComma(left, p.parseExpr(js_ast.LComma))

				default:
					return left
				}
			}
		}

		// Reset the optional chain flag by default. That way we won't accidentally
		// treat "c.d" as OptionalChainContinue in "a?.b + c.d".
		oldOptionalChain := optionalChain
		optionalChain = js_ast.OptionalChainNone

		switch p.lexer.Token {
		case js_lexer.TDot:
			p.lexer.Next()

			if p.lexer.Token == js_lexer.TPrivateIdentifier {
				// "a.#b"
				name := p.lexer.Identifier
				nameLoc := p.lexer.Loc()
				p.lexer.Next()
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIndex{
					Target:        left,
					Index:         js_ast.Expr{Loc: nameLoc, Data: &js_ast.EPrivateIdentifier{Name: name}},
					OptionalChain: oldOptionalChain,
				}}
			} else {
				// "a.b"
				name := p.lexer.Identifier
				nameLoc := p.lexer.Loc()
				if !p.lexer.IsIdentifierOrKeyword() {
					p.lexer.Expect(js_lexer.TIdentifier)
				}
				p.lexer.Next()
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EDot{Target: left, Name: name, NameLoc: nameLoc, OptionalChain: oldOptionalChain}}
			}

			optionalChain = oldOptionalChain

		case js_lexer.TQuestionDot:
			p.lexer.Next()

			switch p.lexer.Token {
			case js_lexer.TOpenBracket:
				// "a?.[b]"
				p.lexer.Next()

				// Allow "in" inside the brackets
				oldAllowIn := p.allowIn
				p.allowIn = true

				index := p.parseExpr(js_ast.LLowest)

				p.allowIn = oldAllowIn

				p.lexer.Expect(js_lexer.TCloseBracket)
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIndex{Target: left, Index: index, OptionalChain: js_ast.OptionalChainStart}}

			case js_lexer.TOpenParen:
				// "a?.()"
				if level >= js_ast.LCall {
					return left
				}
				args := p.parseCallArgs()
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ECall{Target: left, Args: args, OptionalChain: js_ast.OptionalChainStart}}

			case js_lexer.TPrivateIdentifier:
				// "a?.#b"
				name := p.lexer.Identifier
				nameLoc := p.lexer.Loc()
				p.lexer.Next()
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIndex{
					Target:        left,
					Index:         js_ast.Expr{Loc: nameLoc, Data: &js_ast.EPrivateIdentifier{Name: name}},
					OptionalChain: js_ast.OptionalChainStart,
				}}

			default:
				// "a?.b"
				name := p.lexer.Identifier
				nameLoc := p.lexer.Loc()
				if !p.lexer.IsIdentifierOrKeyword() {
					p.lexer.Expect(js_lexer.TIdentifier)
				}
				p.lexer.Next()
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EDot{Target: left, Name: name, NameLoc: nameLoc, OptionalChain: js_ast.OptionalChainStart}}
			}

			optionalChain = js_ast.OptionalChainContinue

		case js_lexer.TNoSubstitutionTemplateLiteral:
			if oldOptionalChain != js_ast.OptionalChainNone {
				p.addRangeError(p.lexer.Range(), "Template literals cannot have an optional chain as a tag")
			}
			headLoc := p.lexer.Loc()
			headCooked := p.lexer.StringLiteral
			headRaw := p.lexer.RawTemplateContents()
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ETemplate{
				TagOrNil:   left,
				HeadLoc:    headLoc,
				HeadCooked: headCooked,
				HeadRaw:    headRaw,
			}}

		case js_lexer.TTemplateHead:
			if oldOptionalChain != js_ast.OptionalChainNone {
				p.addRangeError(p.lexer.Range(), "Template literals cannot have an optional chain as a tag")
			}
			headLoc := p.lexer.Loc()
			headCooked := p.lexer.StringLiteral
			headRaw := p.lexer.RawTemplateContents()
			parts := p.parseTemplateParts(true /* includeRaw */)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ETemplate{
				TagOrNil:   left,
				HeadLoc:    headLoc,
				HeadCooked: headCooked,
				HeadRaw:    headRaw,
				Parts:      parts,
			}}

		case js_lexer.TOpenBracket:
			p.lexer.Next()

			// Allow "in" inside the brackets
			oldAllowIn := p.allowIn
			p.allowIn = true

			index := p.parseExpr(js_ast.LLowest)

			p.allowIn = oldAllowIn

			p.lexer.Expect(js_lexer.TCloseBracket)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIndex{Target: left, Index: index, OptionalChain: oldOptionalChain}}
			optionalChain = oldOptionalChain

		case js_lexer.TOpenParen:
			if level >= js_ast.LCall {
				return left
			}
			args := p.parseCallArgs()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ECall{
				Target:        left,
				Args:          args,
				OptionalChain: oldOptionalChain,
			}}
			optionalChain = oldOptionalChain

		case js_lexer.TQuestion:
			if level >= js_ast.LConditional {
				return left
			}
			p.lexer.Next()

			// Allow "in" in between "?" and ":"
			oldAllowIn := p.allowIn
			p.allowIn = true

			yes := p.parseExpr(js_ast.LComma)

			p.allowIn = oldAllowIn

			p.lexer.Expect(js_lexer.TColon)
			no := p.parseExpr(js_ast.LComma)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIf{Test: left, Yes: yes, No: no}}

		case js_lexer.TMinusMinus:
			if p.lexer.HasNewlineBefore || level >= js_ast.LPostfix {
				return left
			}
			p.lexer.Next()
			p.checkUpdateTarget(left)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPostDec, Value: left}}

		case js_lexer.TPlusPlus:
			if p.lexer.HasNewlineBefore || level >= js_ast.LPostfix {
				return left
			}
			p.lexer.Next()
			p.checkUpdateTarget(left)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPostInc, Value: left}}

		case js_lexer.TComma:
			if level >= js_ast.LComma {
				return left
			}
			p.lexer.Next()
			left = js_ast.JoinWithComma(left, p.parseExpr(js_ast.LComma))

		case js_lexer.TIn:
			if level >= js_ast.LCompare || !p.allowIn {
				return left
			}
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: js_ast.BinOpIn, Left: left, Right: p.parseExpr(js_ast.LCompare)}}

		default:
			op, ok := binaryOps[p.lexer.Token]
			if !ok {
				return left
			}
			opLevel := js_ast.OpTable[op].Level
			if level >= opLevel {
				return left
			}
			opRange := p.lexer.Range()
			p.lexer.Next()

			if op.IsRightAssociative() {
				// "a = b = c" and "a ** b ** c"
				if op.IsAssign() && !js_ast.IsAssignTarget(left) {
					p.addRangeError(opRange, "Invalid assignment target")
				} else if op != js_ast.BinOpAssign && op.IsAssign() {
					switch left.Data.(type) {
					case *js_ast.EArray, *js_ast.EObject:
						p.addRangeError(opRange, "Invalid assignment target")
					}
				}
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: op, Left: left, Right: p.parseExpr(opLevel - 1)}}
			} else {
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: op, Left: left, Right: p.parseExpr(opLevel)}}
			}
		}
	}
}
