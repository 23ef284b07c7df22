package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMsgString(t *testing.T) {
	source := Source{PrettyPath: "conn.js", Contents: "class Conn {\n  m() { super.x; }\n}\n"}
	log := NewDeferLog()
	log.AddRangeError(&source, Range{Loc: Loc{Start: 21}, Len: 5}, "Unexpected \"super\"")

	msgs := log.Done()
	require.Len(t, msgs, 1)
	assert.True(t, log.HasErrors())

	msg := msgs[0]
	assert.Equal(t, 2, msg.Location.Line)
	assert.Equal(t, 8, msg.Location.Column)
	assert.Equal(t, "  m() { super.x; }", msg.Location.LineText)

	assert.Equal(t, "conn.js: error: Unexpected \"super\"\n", msg.String(StderrOptions{}, TerminalInfo{}))
	assert.Equal(t,
		"conn.js:2:8: error: Unexpected \"super\"\n"+
			"  m() { super.x; }\n"+
			"        ~~~~~\n",
		msg.String(StderrOptions{IncludeSource: true}, TerminalInfo{}))
}

func TestMsgStringWithoutLocation(t *testing.T) {
	msg := Msg{Kind: Warning, Text: "Nothing to do"}
	assert.Equal(t, "warning: Nothing to do\n", msg.String(StderrOptions{}, TerminalInfo{}))
}

func TestDeferLogSortsMessages(t *testing.T) {
	a := Source{PrettyPath: "a.js", Contents: "x\ny\n"}
	b := Source{PrettyPath: "b.js", Contents: "x\n"}
	log := NewDeferLog()
	log.AddWarning(&b, Loc{Start: 0}, "second file")
	log.AddError(&a, Loc{Start: 2}, "second line")
	log.AddError(&a, Loc{Start: 0}, "first line")
	log.AddMsg(Msg{Kind: Error, Text: "no location"})

	var texts []string
	for _, msg := range log.Done() {
		texts = append(texts, msg.Text)
	}
	assert.Equal(t, []string{"no location", "first line", "second line", "second file"}, texts)
}

func TestDeferLogWarningsOnly(t *testing.T) {
	log := NewDeferLog()
	log.AddWarning(nil, Loc{}, "just a warning")
	assert.False(t, log.HasErrors())
}

func TestComputeLineAndColumn(t *testing.T) {
	line, column, lineStart, lineEnd := computeLineAndColumn("a\r\nbc de", 4)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, column)
	assert.Equal(t, 3, lineStart)
	assert.Equal(t, 8, lineEnd)

	// A line separator ends the line just like a newline does
	_, _, lineStart, lineEnd = computeLineAndColumn("a\r\nbc\u2028de", 4)
	assert.Equal(t, 3, lineStart)
	assert.Equal(t, 5, lineEnd)

	line, column, _, _ = computeLineAndColumn("a\nb\u2028cd", 7)
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, column)
}

func TestRenderTabStops(t *testing.T) {
	assert.Equal(t, "a b", renderTabStops("a\tb", 2))
	assert.Equal(t, "  x", renderTabStops("\tx", 2))
}

func TestRangeOfWord(t *testing.T) {
	source := Source{Contents: "new.target + 1"}
	assert.Equal(t, Range{Loc: Loc{Start: 0}, Len: 10}, source.RangeOfWord(Loc{Start: 0}))
}

func TestErrorAndWarningSummary(t *testing.T) {
	assert.Equal(t, "1 error", errorAndWarningSummary(1, 0))
	assert.Equal(t, "2 warnings", errorAndWarningSummary(0, 2))
	assert.Equal(t, "1 warning and 3 errors", errorAndWarningSummary(3, 1))
}
