package js_ast

import (
	"unicode"
)

func IsIdentifier(text string) bool {
	if len(text) == 0 {
		return false
	}
	for i, codePoint := range text {
		if i == 0 {
			if !IsIdentifierStart(codePoint) {
				return false
			}
		} else if !IsIdentifierContinue(codePoint) {
			return false
		}
	}
	return true
}

// Returns true if "text" can be used as a binding name in strict mode code
func IsValidBindingName(text string) bool {
	return IsIdentifier(text) && !Keywords[text] && !StrictModeReservedWords[text] &&
		text != "arguments" && text != "eval"
}

func IsIdentifierStart(codePoint rune) bool {
	switch codePoint {
	case '_', '$':
		return true
	}
	if codePoint < 0x7F {
		return (codePoint >= 'a' && codePoint <= 'z') || (codePoint >= 'A' && codePoint <= 'Z')
	}
	return unicode.In(codePoint, unicode.L, unicode.Nl, unicode.Other_ID_Start) &&
		!unicode.In(codePoint, unicode.Pattern_Syntax, unicode.Pattern_White_Space)
}

func IsIdentifierContinue(codePoint rune) bool {
	if codePoint < 0x7F {
		return IsIdentifierStart(codePoint) || (codePoint >= '0' && codePoint <= '9')
	}

	// ZWNJ and ZWJ are allowed in identifiers
	if codePoint == 0x200C || codePoint == 0x200D {
		return true
	}

	return IsIdentifierStart(codePoint) ||
		unicode.In(codePoint, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc, unicode.Other_ID_Continue)
}

// See the "White Space Code Points" table in the ECMAScript standard
func IsWhitespace(codePoint rune) bool {
	switch codePoint {
	case '\u0009', '\u000B', '\u000C', '\u0020', '\u00A0', '\uFEFF':
		return true
	}
	return codePoint > 0x7F && unicode.Is(unicode.Zs, codePoint)
}

var Keywords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "enum": true, "export": true, "extends": true,
	"false": true, "finally": true, "for": true, "function": true, "if": true,
	"import": true, "in": true, "instanceof": true, "new": true, "null": true,
	"return": true, "super": true, "switch": true, "this": true, "throw": true,
	"true": true, "try": true, "typeof": true, "var": true, "void": true,
	"while": true, "with": true,
}

var StrictModeReservedWords = map[string]bool{
	"implements": true,
	"interface":  true,
	"let":        true,
	"package":    true,
	"private":    true,
	"protected":  true,
	"public":     true,
	"static":     true,
	"yield":      true,
	"await":      true,
}
