package helpers_test

import (
	"testing"

	"github.com/lowerjs/lowerjs/internal/helpers"
	"github.com/lowerjs/lowerjs/internal/test"
)

func TestQuoteUTF16(t *testing.T) {
	check := func(input string, expected string) {
		t.Helper()
		t.Run(input, func(t *testing.T) {
			test.AssertEqual(t, helpers.QuoteUTF16(helpers.StringToUTF16(input)), expected)
		})
	}

	check("", `""`)
	check("abc", `"abc"`)
	check("I'm a rectangle!", `"I'm a rectangle!"`)
	check("a\"b", `"a\"b"`)
	check("a\\b", `"a\\b"`)
	check("a\nb\tc", `"a\nb\tc"`)
	check("\x00", `"\0"`)
	check("\x001", `"\x001"`)
	check("\x7F", `"\x7F"`)
	check("\u2028", `"\u2028"`)
	check("café", "\"café\"")
	check("\U0001F600", "\"\U0001F600\"")
}

func TestLoneSurrogate(t *testing.T) {
	test.AssertEqual(t, helpers.QuoteUTF16([]uint16{'a', 0xD800}), `"a\uD800"`)
	test.AssertEqual(t, helpers.UTF16ToString(helpers.StringToUTF16("x\U0001F600y")), "x\U0001F600y")
	test.AssertEqual(t, helpers.UTF16EqualsString(helpers.StringToUTF16("default"), "default"), true)
}
