package js_lexer

// The lexer converts a source file to a stream of tokens. The lexer is called
// repeatedly by the parser as the parser parses the file instead of running
// to completion first. This is because some tokens are context-sensitive and
// need high-level information from the parser, such as whether a "/" starts
// a regular expression or whether a "}" continues a template literal.
//
// Identifiers are stored as UTF-8 slices of the input file. Strings use
// UTF-16 encoding so they can represent unicode surrogates accurately.

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/lowerjs/lowerjs/internal/js_ast"
	"github.com/lowerjs/lowerjs/internal/logger"
)

type T uint

// If you add a new token, remember to add it to "tokenToString" too
const (
	TEndOfFile T = iota
	TSyntaxError

	// "#!/usr/bin/env node"
	THashbang

	// Literals
	TNoSubstitutionTemplateLiteral // Contents are in lexer.StringLiteral ([]uint16)
	TNumericLiteral                // Contents are in lexer.Number (float64)
	TStringLiteral                 // Contents are in lexer.StringLiteral ([]uint16)
	TBigIntegerLiteral             // Contents are in lexer.Identifier (string)

	// Pseudo-literals
	TTemplateHead   // Contents are in lexer.StringLiteral ([]uint16)
	TTemplateMiddle // Contents are in lexer.StringLiteral ([]uint16)
	TTemplateTail   // Contents are in lexer.StringLiteral ([]uint16)

	// Punctuation
	TAmpersand
	TAmpersandAmpersand
	TAsterisk
	TAsteriskAsterisk
	TBar
	TBarBar
	TCaret
	TCloseBrace
	TCloseBracket
	TCloseParen
	TColon
	TComma
	TDot
	TDotDotDot
	TEqualsEquals
	TEqualsEqualsEquals
	TEqualsGreaterThan
	TExclamation
	TExclamationEquals
	TExclamationEqualsEquals
	TGreaterThan
	TGreaterThanEquals
	TGreaterThanGreaterThan
	TGreaterThanGreaterThanGreaterThan
	TLessThan
	TLessThanEquals
	TLessThanLessThan
	TMinus
	TMinusMinus
	TOpenBrace
	TOpenBracket
	TOpenParen
	TPercent
	TPlus
	TPlusPlus
	TQuestion
	TQuestionDot
	TQuestionQuestion
	TSemicolon
	TSlash
	TTilde

	// Assignments
	TAmpersandAmpersandEquals
	TAmpersandEquals
	TAsteriskAsteriskEquals
	TAsteriskEquals
	TBarBarEquals
	TBarEquals
	TCaretEquals
	TEquals
	TGreaterThanGreaterThanEquals
	TGreaterThanGreaterThanGreaterThanEquals
	TLessThanLessThanEquals
	TMinusEquals
	TPercentEquals
	TPlusEquals
	TQuestionQuestionEquals
	TSlashEquals

	// Class-private fields and methods
	TPrivateIdentifier

	// Identifiers
	TIdentifier // Contents are in lexer.Identifier (string)

	// Reserved words
	TBreak
	TCase
	TCatch
	TClass
	TConst
	TContinue
	TDebugger
	TDefault
	TDelete
	TDo
	TElse
	TEnum
	TExport
	TExtends
	TFalse
	TFinally
	TFor
	TFunction
	TIf
	TImport
	TIn
	TInstanceof
	TNew
	TNull
	TReturn
	TSuper
	TSwitch
	TThis
	TThrow
	TTrue
	TTry
	TTypeof
	TVar
	TVoid
	TWhile
	TWith
)

var Keywords = map[string]T{
	"break":      TBreak,
	"case":       TCase,
	"catch":      TCatch,
	"class":      TClass,
	"const":      TConst,
	"continue":   TContinue,
	"debugger":   TDebugger,
	"default":    TDefault,
	"delete":     TDelete,
	"do":         TDo,
	"else":       TElse,
	"enum":       TEnum,
	"export":     TExport,
	"extends":    TExtends,
	"false":      TFalse,
	"finally":    TFinally,
	"for":        TFor,
	"function":   TFunction,
	"if":         TIf,
	"import":     TImport,
	"in":         TIn,
	"instanceof": TInstanceof,
	"new":        TNew,
	"null":       TNull,
	"return":     TReturn,
	"super":      TSuper,
	"switch":     TSwitch,
	"this":       TThis,
	"throw":      TThrow,
	"true":       TTrue,
	"try":        TTry,
	"typeof":     TTypeof,
	"var":        TVar,
	"void":       TVoid,
	"while":      TWhile,
	"with":       TWith,
}

// Punctuation is matched longest-first using this table
var punctuation = map[string]T{
	"&":    TAmpersand,
	"&&":   TAmpersandAmpersand,
	"*":    TAsterisk,
	"**":   TAsteriskAsterisk,
	"|":    TBar,
	"||":   TBarBar,
	"^":    TCaret,
	"}":    TCloseBrace,
	"]":    TCloseBracket,
	")":    TCloseParen,
	":":    TColon,
	",":    TComma,
	"...":  TDotDotDot,
	"==":   TEqualsEquals,
	"===":  TEqualsEqualsEquals,
	"=>":   TEqualsGreaterThan,
	"!":    TExclamation,
	"!=":   TExclamationEquals,
	"!==":  TExclamationEqualsEquals,
	">":    TGreaterThan,
	">=":   TGreaterThanEquals,
	">>":   TGreaterThanGreaterThan,
	">>>":  TGreaterThanGreaterThanGreaterThan,
	"<":    TLessThan,
	"<=":   TLessThanEquals,
	"<<":   TLessThanLessThan,
	"-":    TMinus,
	"--":   TMinusMinus,
	"{":    TOpenBrace,
	"[":    TOpenBracket,
	"(":    TOpenParen,
	"%":    TPercent,
	"+":    TPlus,
	"++":   TPlusPlus,
	"?":    TQuestion,
	"?.":   TQuestionDot,
	"??":   TQuestionQuestion,
	";":    TSemicolon,
	"/":    TSlash,
	"~":    TTilde,
	"&&=":  TAmpersandAmpersandEquals,
	"&=":   TAmpersandEquals,
	"**=":  TAsteriskAsteriskEquals,
	"*=":   TAsteriskEquals,
	"||=":  TBarBarEquals,
	"|=":   TBarEquals,
	"^=":   TCaretEquals,
	"=":    TEquals,
	">>=":  TGreaterThanGreaterThanEquals,
	">>>=": TGreaterThanGreaterThanGreaterThanEquals,
	"<<=":  TLessThanLessThanEquals,
	"-=":   TMinusEquals,
	"%=":   TPercentEquals,
	"+=":   TPlusEquals,
	"??=":  TQuestionQuestionEquals,
	"/=":   TSlashEquals,
}

var tokenToString = map[T]string{
	TEndOfFile:   "end of file",
	TSyntaxError: "syntax error",
	THashbang:    "hashbang comment",

	TNoSubstitutionTemplateLiteral: "template literal",
	TNumericLiteral:                "number",
	TStringLiteral:                 "string",
	TBigIntegerLiteral:             "bigint",

	TTemplateHead:   "template literal",
	TTemplateMiddle: "template literal",
	TTemplateTail:   "template literal",

	TPrivateIdentifier: "private identifier",
	TIdentifier:        "identifier",
}

func init() {
	for text, token := range punctuation {
		tokenToString[token] = fmt.Sprintf("%q", text)
	}
	tokenToString[TDot] = "\".\""
	for text, token := range Keywords {
		tokenToString[token] = fmt.Sprintf("%q", text)
	}
}

type Lexer struct {
	log                             logger.Log
	source                          logger.Source
	current                         int
	start                           int
	end                             int
	Token                           T
	HasNewlineBefore                bool
	HasPureCommentBefore            bool
	codePoint                       rune
	StringLiteral                   []uint16
	Identifier                      string
	Number                          float64
	rescanCloseBraceAsTemplateToken bool
}

type LexerPanic struct{}

func NewLexer(log logger.Log, source logger.Source) Lexer {
	lexer := Lexer{
		log:    log,
		source: source,
	}
	lexer.step()
	lexer.Next()
	return lexer
}

func (lexer *Lexer) Loc() logger.Loc {
	return logger.Loc{Start: int32(lexer.start)}
}

func (lexer *Lexer) Range() logger.Range {
	return logger.Range{Loc: logger.Loc{Start: int32(lexer.start)}, Len: int32(lexer.end - lexer.start)}
}

func (lexer *Lexer) Raw() string {
	return lexer.source.Contents[lexer.start:lexer.end]
}

func (lexer *Lexer) RawTemplateContents() string {
	var text string
	switch lexer.Token {
	case TNoSubstitutionTemplateLiteral, TTemplateTail:
		// "`x`" or "}x`"
		text = lexer.source.Contents[lexer.start+1 : lexer.end-1]

	case TTemplateHead, TTemplateMiddle:
		// "`x${" or "}x${"
		text = lexer.source.Contents[lexer.start+1 : lexer.end-2]
	}

	// Line terminators in raw template text are normalized to "\n"
	if strings.IndexByte(text, '\r') != -1 {
		text = strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")
	}
	return text
}

func (lexer *Lexer) IsIdentifierOrKeyword() bool {
	return lexer.Token >= TIdentifier
}

func (lexer *Lexer) IsContextualKeyword(text string) bool {
	return lexer.Token == TIdentifier && lexer.Raw() == text
}

func (lexer *Lexer) ExpectContextualKeyword(text string) {
	if !lexer.IsContextualKeyword(text) {
		lexer.ExpectedString(fmt.Sprintf("%q", text))
	}
	lexer.Next()
}

func (lexer *Lexer) SyntaxError() {
	loc := logger.Loc{Start: int32(lexer.end)}
	message := "Unexpected end of file"
	if lexer.end < len(lexer.source.Contents) {
		c, _ := utf8.DecodeRuneInString(lexer.source.Contents[lexer.end:])
		if c < 0x20 {
			message = fmt.Sprintf("Syntax error \"\\x%02X\"", c)
		} else if c >= 0x80 {
			message = fmt.Sprintf("Syntax error \"\\u{%x}\"", c)
		} else if c != '"' {
			message = fmt.Sprintf("Syntax error \"%c\"", c)
		} else {
			message = "Syntax error '\"'"
		}
	}
	lexer.log.AddError(&lexer.source, loc, message)
	panic(LexerPanic{})
}

func (lexer *Lexer) ExpectedString(text string) {
	found := fmt.Sprintf("%q", lexer.Raw())
	if lexer.start == len(lexer.source.Contents) {
		found = "end of file"
	}
	lexer.log.AddRangeError(&lexer.source, lexer.Range(), fmt.Sprintf("Expected %s but found %s", text, found))
	panic(LexerPanic{})
}

func (lexer *Lexer) Expected(token T) {
	if text, ok := tokenToString[token]; ok {
		lexer.ExpectedString(text)
	} else {
		lexer.Unexpected()
	}
}

func (lexer *Lexer) Unexpected() {
	found := fmt.Sprintf("%q", lexer.Raw())
	if lexer.start == len(lexer.source.Contents) {
		found = "end of file"
	}
	lexer.log.AddRangeError(&lexer.source, lexer.Range(), fmt.Sprintf("Unexpected %s", found))
	panic(LexerPanic{})
}

func (lexer *Lexer) Expect(token T) {
	if lexer.Token != token {
		lexer.Expected(token)
	}
	lexer.Next()
}

func (lexer *Lexer) ExpectOrInsertSemicolon() {
	if lexer.Token == TSemicolon || (!lexer.HasNewlineBefore &&
		lexer.Token != TCloseBrace && lexer.Token != TEndOfFile) {
		lexer.Expect(TSemicolon)
	}
}

func (lexer *Lexer) Next() {
	lexer.HasNewlineBefore = lexer.end == 0
	lexer.HasPureCommentBefore = false

	for {
		lexer.start = lexer.end
		lexer.Token = 0

		switch lexer.codePoint {
		case -1: // This indicates the end of the file
			lexer.Token = TEndOfFile

		case '#':
			if lexer.start == 0 && strings.HasPrefix(lexer.source.Contents, "#!") {
				// "#!/usr/bin/env node"
				lexer.Token = THashbang
				lexer.skipToEndOfLine()
				lexer.Identifier = lexer.Raw()
			} else {
				// "#foo"
				lexer.step()
				if !js_ast.IsIdentifierStart(lexer.codePoint) {
					lexer.SyntaxError()
				}
				lexer.scanIdentifierTail()
				lexer.Identifier = lexer.Raw()
				lexer.Token = TPrivateIdentifier
			}

		case '\r', '\n', '\u2028', '\u2029':
			lexer.step()
			lexer.HasNewlineBefore = true
			continue

		case '\t', ' ':
			lexer.step()
			continue

		case '/':
			switch lexer.peek(1) {
			case '/':
				lexer.skipToEndOfLine()
				lexer.scanCommentText()
				continue

			case '*':
				lexer.step()
				lexer.step()
				for {
					if lexer.codePoint == '*' && lexer.peek(1) == '/' {
						lexer.step()
						lexer.step()
						break
					}
					switch lexer.codePoint {
					case '\r', '\n', '\u2028', '\u2029':
						lexer.HasNewlineBefore = true
					case -1:
						lexer.start = lexer.end
						lexer.log.AddError(&lexer.source, lexer.Loc(), "Expected \"*/\" to terminate multi-line comment")
						panic(LexerPanic{})
					}
					lexer.step()
				}
				lexer.scanCommentText()
				continue
			}
			lexer.scanPunctuation()

		case '\'', '"', '`':
			lexer.scanStringOrTemplate()

		case '.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			if lexer.codePoint == '.' && (lexer.peek(1) < '0' || lexer.peek(1) > '9') {
				lexer.scanPunctuation()
				break
			}
			lexer.parseNumericLiteral()

		case '\\':
			lexer.SyntaxError()

		default:
			// Check for unusual whitespace characters
			if js_ast.IsWhitespace(lexer.codePoint) {
				lexer.step()
				continue
			}

			if js_ast.IsIdentifierStart(lexer.codePoint) {
				lexer.scanIdentifierTail()
				lexer.Identifier = lexer.Raw()
				if keyword, ok := Keywords[lexer.Identifier]; ok {
					lexer.Token = keyword
				} else {
					lexer.Token = TIdentifier
				}
				break
			}

			if lexer.codePoint < 0x80 && strings.IndexByte("&*|^}]):,=!><-{[(%+?;~", byte(lexer.codePoint)) >= 0 {
				lexer.scanPunctuation()
				break
			}

			lexer.end = lexer.current
			lexer.Token = TSyntaxError
		}

		return
	}
}

// Returns the byte "offset" bytes after the current code point, or -1
func (lexer *Lexer) peek(offset int) rune {
	i := lexer.end + offset
	if i < len(lexer.source.Contents) {
		return rune(lexer.source.Contents[i])
	}
	return -1
}

func (lexer *Lexer) scanPunctuation() {
	contents := lexer.source.Contents
	for n := 4; n >= 1; n-- {
		if lexer.start+n > len(contents) {
			continue
		}
		text := contents[lexer.start : lexer.start+n]
		token, ok := punctuation[text]
		if !ok {
			if text == "." {
				token = TDot
			} else {
				continue
			}
		}

		// "a?.1:b" is a conditional expression, not an optional chain
		if token == TQuestionDot {
			if c := lexer.peek(2); c >= '0' && c <= '9' {
				continue
			}
		}

		for i := 0; i < n; i++ {
			lexer.step()
		}
		lexer.Token = token
		return
	}
	lexer.SyntaxError()
}

func (lexer *Lexer) scanIdentifierTail() {
	lexer.step()
	for js_ast.IsIdentifierContinue(lexer.codePoint) {
		lexer.step()
	}
	if lexer.codePoint == '\\' {
		lexer.log.AddRangeError(&lexer.source, logger.Range{Loc: logger.Loc{Start: int32(lexer.end)}, Len: 1},
			"Escape sequences in identifiers are not supported")
		panic(LexerPanic{})
	}
}

func (lexer *Lexer) skipToEndOfLine() {
	for {
		switch lexer.codePoint {
		case '\r', '\n', '\u2028', '\u2029', -1:
			return
		}
		lexer.step()
	}
}

// Pure comments mark the following call or "new" expression as side-effect
// free when its result is unused
func (lexer *Lexer) scanCommentText() {
	text := lexer.source.Contents[lexer.start:lexer.end]
	if strings.Contains(text, "@__PURE__") || strings.Contains(text, "#__PURE__") {
		lexer.HasPureCommentBefore = true
	}
}

func (lexer *Lexer) scanStringOrTemplate() {
	quote := lexer.codePoint
	needsSlowPath := false
	suffixLen := 1

	if quote != '`' {
		lexer.Token = TStringLiteral
	} else if lexer.rescanCloseBraceAsTemplateToken {
		lexer.Token = TTemplateTail
	} else {
		lexer.Token = TNoSubstitutionTemplateLiteral
	}
	lexer.step()

stringLiteral:
	for {
		switch lexer.codePoint {
		case '\\':
			needsSlowPath = true
			lexer.step()

			// Handle Windows CRLF
			if lexer.codePoint == '\r' && lexer.peek(1) == '\n' {
				lexer.step()
			}

		case -1: // This indicates the end of the file
			lexer.SyntaxError()

		case '\r', '\n':
			if quote != '`' {
				lexer.log.AddError(&lexer.source, logger.Loc{Start: int32(lexer.end)}, "Unterminated string literal")
				panic(LexerPanic{})
			}
			needsSlowPath = true

		case '$':
			if quote == '`' && lexer.peek(1) == '{' {
				lexer.step()
				lexer.step()
				suffixLen = 2
				if lexer.rescanCloseBraceAsTemplateToken {
					lexer.Token = TTemplateMiddle
				} else {
					lexer.Token = TTemplateHead
				}
				break stringLiteral
			}

		case quote:
			lexer.step()
			break stringLiteral

		default:
			// Non-ASCII strings need the slow path
			if lexer.codePoint >= 0x80 {
				needsSlowPath = true
			}
		}
		lexer.step()
	}

	text := lexer.source.Contents[lexer.start+1 : lexer.end-suffixLen]

	if needsSlowPath {
		lexer.StringLiteral = lexer.decodeEscapeSequences(lexer.start+1, text)
	} else {
		decoded := make([]uint16, len(text))
		for i := 0; i < len(text); i++ {
			decoded[i] = uint16(text[i])
		}
		lexer.StringLiteral = decoded
	}
}

func (lexer *Lexer) parseNumericLiteral() {
	first := lexer.codePoint
	lexer.step()
	lexer.Token = TNumericLiteral

	base := 0
	if first == '0' {
		switch lexer.codePoint {
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		case 'x', 'X':
			base = 16
		}
	}

	isDigit := func(c rune) bool {
		switch {
		case c == '_':
			return true
		case base == 16:
			return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		case base != 0:
			return c >= '0' && c < '0'+rune(base)
		default:
			return c >= '0' && c <= '9'
		}
	}

	hasDotOrExponent := first == '.'
	if base != 0 {
		lexer.step()
		if !isDigit(lexer.codePoint) {
			lexer.SyntaxError()
		}
		for isDigit(lexer.codePoint) {
			lexer.step()
		}
	} else {
		for isDigit(lexer.codePoint) {
			lexer.step()
		}
		if first != '.' && lexer.codePoint == '.' {
			hasDotOrExponent = true
			lexer.step()
			for isDigit(lexer.codePoint) {
				lexer.step()
			}
		}
		if lexer.codePoint == 'e' || lexer.codePoint == 'E' {
			hasDotOrExponent = true
			lexer.step()
			if lexer.codePoint == '+' || lexer.codePoint == '-' {
				lexer.step()
			}
			if lexer.codePoint < '0' || lexer.codePoint > '9' {
				lexer.SyntaxError()
			}
			for isDigit(lexer.codePoint) {
				lexer.step()
			}
		}
	}

	raw := lexer.Raw()
	if i := strings.Index(raw, "__"); i != -1 {
		lexer.end = lexer.start + i + 1
		lexer.SyntaxError()
	}
	if strings.HasSuffix(raw, "_") {
		lexer.SyntaxError()
	}
	text := strings.ReplaceAll(raw, "_", "")

	if lexer.codePoint == 'n' && !hasDotOrExponent {
		// Store bigints as text to avoid precision loss
		lexer.Identifier = text
		lexer.Token = TBigIntegerLiteral
		lexer.step()
	} else if base != 0 {
		value, err := strconv.ParseUint(text[2:], base, 64)
		if err != nil {
			// Very large integer literals lose precision just like in JavaScript
			f := 0.0
			for _, c := range strings.ToLower(text[2:]) {
				digit := c - '0'
				if c >= 'a' {
					digit = c - 'a' + 10
				}
				f = f*float64(base) + float64(digit)
			}
			lexer.Number = f
		} else {
			lexer.Number = float64(value)
		}
	} else if len(text) > 1 && text[0] == '0' && !hasDotOrExponent {
		// Legacy octal literals such as "0123" are not allowed in strict mode
		lexer.log.AddRangeError(&lexer.source, lexer.Range(), "Legacy octal literals are not allowed in strict mode")
		panic(LexerPanic{})
	} else {
		value, _ := strconv.ParseFloat(text, 64)
		lexer.Number = value
	}

	// Identifiers and out-of-range digits can't occur immediately after numbers
	if js_ast.IsIdentifierStart(lexer.codePoint) || (lexer.codePoint >= '0' && lexer.codePoint <= '9') {
		lexer.SyntaxError()
	}
}

func (lexer *Lexer) ScanRegExp() {
	for {
		switch lexer.codePoint {
		case '/':
			patternEnd := lexer.end
			lexer.step()
			for js_ast.IsIdentifierContinue(lexer.codePoint) {
				switch lexer.codePoint {
				case 'd', 'g', 'i', 'm', 's', 'u', 'v', 'y':
					lexer.step()

				default:
					lexer.SyntaxError()
				}
			}
			lexer.validateRegExp(lexer.source.Contents[lexer.start+1:patternEnd], lexer.source.Contents[patternEnd+1:lexer.end])
			return

		case '[':
			lexer.step()
			for lexer.codePoint != ']' {
				lexer.scanRegExpChar()
			}
			lexer.step()

		default:
			lexer.scanRegExpChar()
		}
	}
}

func (lexer *Lexer) scanRegExpChar() {
	if lexer.codePoint == '\\' {
		lexer.step()
	}

	switch lexer.codePoint {
	case '\r', '\n', '\u2028', '\u2029', -1:
		// Newlines aren't allowed in regular expressions
		lexer.SyntaxError()

	default:
		lexer.step()
	}
}

// Regular expression literals are compiled once with ECMAScript semantics
// to catch mistakes early. Unicode-mode patterns use a different grammar
// than the one implemented by the regular expression engine, so they are not
// checked.
func (lexer *Lexer) validateRegExp(pattern string, flags string) {
	if strings.ContainsAny(flags, "uv") {
		return
	}
	var options regexp2.RegexOptions = regexp2.ECMAScript
	if strings.ContainsRune(flags, 'i') {
		options |= regexp2.IgnoreCase
	}
	if strings.ContainsRune(flags, 'm') {
		options |= regexp2.Multiline
	}
	if _, err := regexp2.Compile(pattern, options); err != nil {
		lexer.log.AddRangeWarning(&lexer.source, lexer.Range(), fmt.Sprintf("This regular expression may be invalid: %s", err.Error()))
	}
}

func (lexer *Lexer) decodeEscapeSequences(start int, text string) []uint16 {
	decoded := []uint16{}
	i := 0

	hexValue := func(c rune) rune {
		switch {
		case c >= '0' && c <= '9':
			return c - '0'
		case c >= 'a' && c <= 'f':
			return c + 10 - 'a'
		case c >= 'A' && c <= 'F':
			return c + 10 - 'A'
		}
		lexer.end = start + i
		lexer.SyntaxError()
		return 0
	}

	for i < len(text) {
		c, width := utf8.DecodeRuneInString(text[i:])
		i += width

		switch c {
		case '\r':
			// "\r\n" and "\r" are normalized to "\n" in template literals
			if i < len(text) && text[i] == '\n' {
				i++
			}
			decoded = append(decoded, '\n')
			continue

		case '\\':
			c2, width2 := utf8.DecodeRuneInString(text[i:])
			i += width2

			switch c2 {
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'v':
				c = '\v'

			case '0':
				if i < len(text) && text[i] >= '0' && text[i] <= '9' {
					lexer.end = start + i
					lexer.log.AddError(&lexer.source, logger.Loc{Start: int32(lexer.end)}, "Legacy octal escape sequences are not allowed in strict mode")
					panic(LexerPanic{})
				}
				c = 0

			case 'x':
				if i+2 > len(text) {
					lexer.end = start + i
					lexer.SyntaxError()
				}
				c = hexValue(rune(text[i]))<<4 | hexValue(rune(text[i+1]))
				i += 2

			case 'u':
				value := rune(0)
				if i < len(text) && text[i] == '{' {
					// Variable-length
					i++
					end := strings.IndexByte(text[i:], '}')
					if end < 1 {
						lexer.end = start + i
						lexer.SyntaxError()
					}
					for _, h := range text[i : i+end] {
						value = value*16 | hexValue(h)
						if value > utf8.MaxRune {
							lexer.log.AddError(&lexer.source, logger.Loc{Start: int32(start + i)}, "Unicode escape sequence is out of range")
							panic(LexerPanic{})
						}
					}
					i += end + 1
				} else {
					// Fixed-length
					if i+4 > len(text) {
						lexer.end = start + i
						lexer.SyntaxError()
					}
					for _, h := range text[i : i+4] {
						value = value*16 | hexValue(h)
					}
					i += 4
				}
				c = value

			case '\r':
				// Line continuations are removed
				if i < len(text) && text[i] == '\n' {
					i++
				}
				continue

			case '\n', '\u2028', '\u2029':
				continue

			default:
				if c2 >= '1' && c2 <= '9' {
					lexer.end = start + i - width2
					lexer.log.AddError(&lexer.source, logger.Loc{Start: int32(lexer.end)}, "Legacy octal escape sequences are not allowed in strict mode")
					panic(LexerPanic{})
				}
				c = c2
			}
		}

		if c <= 0xFFFF {
			decoded = append(decoded, uint16(c))
		} else {
			c -= 0x10000
			decoded = append(decoded, uint16(0xD800+((c>>10)&0x3FF)), uint16(0xDC00+(c&0x3FF)))
		}
	}

	return decoded
}

func (lexer *Lexer) RescanCloseBraceAsTemplateToken() {
	if lexer.Token != TCloseBrace {
		lexer.Expected(TCloseBrace)
	}

	lexer.rescanCloseBraceAsTemplateToken = true
	lexer.codePoint = '`'
	lexer.current = lexer.end
	lexer.end -= 1
	lexer.Next()
	lexer.rescanCloseBraceAsTemplateToken = false
}

func (lexer *Lexer) step() {
	codePoint, width := utf8.DecodeRuneInString(lexer.source.Contents[lexer.current:])

	// Use -1 to indicate the end of the file
	if width == 0 {
		codePoint = -1
	}

	lexer.codePoint = codePoint
	lexer.end = lexer.current
	lexer.current += width
}
