package js_lexer

import (
	"testing"

	"github.com/lowerjs/lowerjs/internal/helpers"
	"github.com/lowerjs/lowerjs/internal/logger"
	"github.com/lowerjs/lowerjs/internal/test"
)

func lexWithLog(contents string) (Lexer, string) {
	log := logger.NewDeferLog()
	lexer := func() (lexer Lexer) {
		defer func() {
			r := recover()
			if _, isLexerPanic := r.(LexerPanic); r != nil && !isLexerPanic {
				panic(r)
			}
		}()
		return NewLexer(log, test.SourceForTest(contents))
	}()
	return lexer, test.MsgsText(log.Done())
}

func lexToken(contents string) T {
	lexer, _ := lexWithLog(contents)
	return lexer.Token
}

func expectLexerError(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		_, text := lexWithLog(contents)
		test.AssertEqual(t, text, expected)
	})
}

func TestComment(t *testing.T) {
	expectLexerError(t, "/*", "<stdin>: error: Expected \"*/\" to terminate multi-line comment\n")
	expectLexerError(t, "/*/", "<stdin>: error: Expected \"*/\" to terminate multi-line comment\n")
	expectLexerError(t, "/**/", "")
	expectLexerError(t, "//", "")
}

func TestPureComment(t *testing.T) {
	lexer, _ := lexWithLog("/*#__PURE__*/ foo")
	test.AssertEqual(t, lexer.HasPureCommentBefore, true)
	lexer, _ = lexWithLog("/* @__PURE__ */ foo")
	test.AssertEqual(t, lexer.HasPureCommentBefore, true)
	lexer, _ = lexWithLog("/* PURE */ foo")
	test.AssertEqual(t, lexer.HasPureCommentBefore, false)
}

func TestHashbang(t *testing.T) {
	lexer, text := lexWithLog("#!/usr/bin/env node\nlet x")
	test.AssertEqual(t, text, "")
	test.AssertEqual(t, lexer.Token, THashbang)
	test.AssertEqual(t, lexer.Identifier, "#!/usr/bin/env node")
	expectLexerError(t, " #!/usr/bin/env node", "<stdin>: error: Syntax error \"!\"\n")
}

func expectIdentifier(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer, text := lexWithLog(contents)
		test.AssertEqual(t, text, "")
		test.AssertEqual(t, lexer.Token, TIdentifier)
		test.AssertEqual(t, lexer.Identifier, expected)
	})
}

func TestIdentifier(t *testing.T) {
	expectIdentifier(t, "_", "_")
	expectIdentifier(t, "$", "$")
	expectIdentifier(t, "test", "test")
	expectIdentifier(t, "_proto2", "_proto2")
	expectIdentifier(t, "a\u200c", "a\u200c")
	expectIdentifier(t, "\u00e9t\u00e9", "\u00e9t\u00e9")
	expectLexerError(t, "t\\u0065st", "<stdin>: error: Escape sequences in identifiers are not supported\n")
}

func expectNumber(t *testing.T, contents string, expected float64) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer, text := lexWithLog(contents)
		test.AssertEqual(t, text, "")
		test.AssertEqual(t, lexer.Token, TNumericLiteral)
		test.AssertEqual(t, lexer.Number, expected)
	})
}

func TestNumericLiteral(t *testing.T) {
	expectNumber(t, "0", 0.0)
	expectNumber(t, "123", 123.0)
	expectNumber(t, "9999999999", 9999999999.0)
	expectNumber(t, "1_000_000", 1000000.0)
	expectNumber(t, "0.5", 0.5)
	expectNumber(t, ".5", 0.5)
	expectNumber(t, "5.", 5.0)
	expectNumber(t, "1e3", 1000.0)
	expectNumber(t, "1.5e-3", 0.0015)

	expectNumber(t, "0b00101", 5.0)
	expectNumber(t, "0B00101", 5.0)
	expectNumber(t, "0o12345", 5349.0)
	expectNumber(t, "0x12345678", float64(0x12345678))
	expectNumber(t, "0xFEDCBA987", float64(0xFEDCBA987))

	expectLexerError(t, "0b", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "0b012", "<stdin>: error: Syntax error \"2\"\n")
	expectLexerError(t, "0o018", "<stdin>: error: Syntax error \"8\"\n")
	expectLexerError(t, "1_", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "1__0", "<stdin>: error: Syntax error \"_\"\n")
	expectLexerError(t, "0123", "<stdin>: error: Legacy octal literals are not allowed in strict mode\n")
	expectLexerError(t, "1a", "<stdin>: error: Syntax error \"a\"\n")
}

func TestBigIntegerLiteral(t *testing.T) {
	lexer, text := lexWithLog("123n")
	test.AssertEqual(t, text, "")
	test.AssertEqual(t, lexer.Token, TBigIntegerLiteral)
	test.AssertEqual(t, lexer.Identifier, "123")

	lexer, _ = lexWithLog("0x1Fn")
	test.AssertEqual(t, lexer.Token, TBigIntegerLiteral)
	test.AssertEqual(t, lexer.Identifier, "0x1F")
}

func expectString(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer, text := lexWithLog(contents)
		test.AssertEqual(t, text, "")
		test.AssertEqual(t, lexer.Token, TStringLiteral)
		test.AssertEqual(t, helpers.UTF16ToString(lexer.StringLiteral), expected)
	})
}

func TestStringLiteral(t *testing.T) {
	expectString(t, "''", "")
	expectString(t, "'123'", "123")
	expectString(t, "\"I'm a rectangle!\"", "I'm a rectangle!")

	expectString(t, "'\"'", "\"")
	expectString(t, "'\\''", "'")
	expectString(t, "'\\\"'", "\"")
	expectString(t, "'\\\\'", "\\")
	expectString(t, "'\\a'", "a")
	expectString(t, "'\\b'", "\b")
	expectString(t, "'\\f'", "\f")
	expectString(t, "'\\n'", "\n")
	expectString(t, "'\\r'", "\r")
	expectString(t, "'\\t'", "\t")
	expectString(t, "'\\v'", "\v")
	expectString(t, "'\\0'", "\000")

	expectString(t, "'\\x00'", "\x00")
	expectString(t, "'\\x71'", "\x71")
	expectString(t, "'\\x7F'", "\x7F")

	expectString(t, "'\\u0000'", "\u0000")
	expectString(t, "'\\ucafe\\uCAFE\\u7FFF'", "\ucafe\ucafe\u7fff")
	expectString(t, "'\\u{10FFFF}'", "\U0010FFFF")
	expectString(t, "'\\u{1F600}'", "\U0001F600")

	expectString(t, "'\u2028'", "\u2028")
	expectString(t, "'1\\\r2'", "12")
	expectString(t, "'1\\\n2'", "12")
	expectString(t, "'1\\\r\n2'", "12")

	expectLexerError(t, "'\\u{110000}'", "<stdin>: error: Unicode escape sequence is out of range\n")
	expectLexerError(t, "'\n'", "<stdin>: error: Unterminated string literal\n")
	expectLexerError(t, "\"\r\"", "<stdin>: error: Unterminated string literal\n")
	expectLexerError(t, "'abc", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "'\\x'", "<stdin>: error: Syntax error \"'\"\n")
	expectLexerError(t, "'\\xG1'", "<stdin>: error: Syntax error \"G\"\n")
	expectLexerError(t, "'\\1'", "<stdin>: error: Legacy octal escape sequences are not allowed in strict mode\n")
}

func TestTemplateLiteral(t *testing.T) {
	lexer, text := lexWithLog("`a${b}c`")
	test.AssertEqual(t, text, "")
	test.AssertEqual(t, lexer.Token, TTemplateHead)
	test.AssertEqual(t, helpers.UTF16ToString(lexer.StringLiteral), "a")
	test.AssertEqual(t, lexer.RawTemplateContents(), "a")

	lexer.Next()
	test.AssertEqual(t, lexer.Token, TIdentifier)
	lexer.Next()
	lexer.RescanCloseBraceAsTemplateToken()
	test.AssertEqual(t, lexer.Token, TTemplateTail)
	test.AssertEqual(t, helpers.UTF16ToString(lexer.StringLiteral), "c")

	lexer, _ = lexWithLog("`x\r\ny`")
	test.AssertEqual(t, lexer.Token, TNoSubstitutionTemplateLiteral)
	test.AssertEqual(t, helpers.UTF16ToString(lexer.StringLiteral), "x\ny")
	test.AssertEqual(t, lexer.RawTemplateContents(), "x\ny")
}

func TestRegExp(t *testing.T) {
	lexer, text := lexWithLog("/a[/]b/gi")
	test.AssertEqual(t, text, "")
	test.AssertEqual(t, lexer.Token, TSlash)
	lexer.ScanRegExp()
	test.AssertEqual(t, lexer.Raw(), "/a[/]b/gi")

	log := logger.NewDeferLog()
	lexer = NewLexer(log, test.SourceForTest("/(a/"))
	lexer.ScanRegExp()
	msgs := log.Done()
	test.AssertEqual(t, len(msgs), 1)
	test.AssertEqual(t, msgs[0].Kind, logger.Warning)

	// Backreferences and lookahead are valid with ECMAScript semantics
	log = logger.NewDeferLog()
	lexer = NewLexer(log, test.SourceForTest("/(a)\\1(?=b)/im"))
	lexer.ScanRegExp()
	test.AssertEqual(t, lexer.Raw(), "/(a)\\1(?=b)/im")
	test.AssertEqual(t, len(log.Done()), 0)
}

func TestTokens(t *testing.T) {
	expected := []struct {
		contents string
		token    T
	}{
		{"", TEndOfFile},
		{"\x00", TSyntaxError},

		// "#!/usr/bin/env node"
		{"#!", THashbang},

		// Punctuation
		{"(", TOpenParen},
		{")", TCloseParen},
		{"[", TOpenBracket},
		{"]", TCloseBracket},
		{"{", TOpenBrace},
		{"}", TCloseBrace},
		{".", TDot},
		{"...", TDotDotDot},
		{"?.", TQuestionDot},
		{"?.5", TQuestion},
		{"??=", TQuestionQuestionEquals},
		{"=>", TEqualsGreaterThan},
		{">>>=", TGreaterThanGreaterThanGreaterThanEquals},
		{"**", TAsteriskAsterisk},
		{"/=", TSlashEquals},
		{"#x", TPrivateIdentifier},

		// Reserved words
		{"break", TBreak},
		{"class", TClass},
		{"extends", TExtends},
		{"super", TSuper},
		{"this", TThis},
		{"typeof", TTypeof},

		// Contextual keywords are identifiers
		{"async", TIdentifier},
		{"static", TIdentifier},
		{"let", TIdentifier},
	}

	for _, it := range expected {
		contents := it.contents
		token := it.token
		t.Run(contents, func(t *testing.T) {
			test.AssertEqual(t, lexToken(contents), token)
		})
	}
}
