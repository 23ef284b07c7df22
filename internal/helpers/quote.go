package helpers

const hexChars = "0123456789ABCDEF"

// Appends "text" to "bytes" as a JavaScript string literal using the given
// quote character. Printable non-ASCII code points are written as UTF-8 and
// lone surrogates are escaped so the output is always valid UTF-8.
func AppendQuotedUTF16(bytes []byte, text []uint16, quote byte) []byte {
	bytes = append(bytes, quote)
	n := len(text)

	for i := 0; i < n; i++ {
		c := rune(text[i])

		switch c {
		case '\b':
			bytes = append(bytes, "\\b"...)
			continue
		case '\f':
			bytes = append(bytes, "\\f"...)
			continue
		case '\n':
			bytes = append(bytes, "\\n"...)
			continue
		case '\r':
			bytes = append(bytes, "\\r"...)
			continue
		case '\t':
			bytes = append(bytes, "\\t"...)
			continue
		case '\v':
			bytes = append(bytes, "\\v"...)
			continue
		case '\\':
			bytes = append(bytes, "\\\\"...)
			continue
		case 0:
			// "\0" followed by a digit would be a legacy octal escape
			if i+1 < n && text[i+1] >= '0' && text[i+1] <= '9' {
				bytes = append(bytes, "\\x00"...)
			} else {
				bytes = append(bytes, "\\0"...)
			}
			continue
		case '\u2028', '\u2029', '\uFEFF':
			bytes = appendUnicodeEscape(bytes, c)
			continue
		}

		if c == rune(quote) || (quote == '`' && c == '$' && i+1 < n && text[i+1] == '{') {
			bytes = append(bytes, '\\', byte(c))
			continue
		}

		if c < 0x20 || c == 0x7F {
			bytes = append(bytes, '\\', 'x', hexChars[c>>4], hexChars[c&15])
			continue
		}

		// Surrogate pairs are combined, lone surrogates are escaped
		if c >= 0xD800 && c <= 0xDFFF {
			if c <= 0xDBFF && i+1 < n {
				if c2 := rune(text[i+1]); c2 >= 0xDC00 && c2 <= 0xDFFF {
					r := (c-0xD800)<<10 | (c2 - 0xDC00) + 0x10000
					var temp [4]byte
					width := encodeWTF8Rune(temp[:], r)
					bytes = append(bytes, temp[:width]...)
					i++
					continue
				}
			}
			bytes = appendUnicodeEscape(bytes, c)
			continue
		}

		var temp [4]byte
		width := encodeWTF8Rune(temp[:], c)
		bytes = append(bytes, temp[:width]...)
	}

	return append(bytes, quote)
}

func appendUnicodeEscape(bytes []byte, c rune) []byte {
	return append(bytes, '\\', 'u', hexChars[c>>12], hexChars[(c>>8)&15], hexChars[(c>>4)&15], hexChars[c&15])
}

func QuoteUTF16(text []uint16) string {
	return string(AppendQuotedUTF16(nil, text, '"'))
}
