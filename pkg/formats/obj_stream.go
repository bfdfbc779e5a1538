package formats

import (
	"math"
	"strconv"
)

// lineStream is a cursor over one source line with stream-extraction
// semantics: numeric reads skip leading whitespace, peek does not, and the
// first failed read poisons every later read on the line.
type lineStream struct {
	s    string
	pos  int
	fail bool
}

func newLineStream(s string) *lineStream {
	return &lineStream{s: s}
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (ls *lineStream) skipSpace() {
	for ls.pos < len(ls.s) && isSpace(ls.s[ls.pos]) {
		ls.pos++
	}
}

// word reads the next whitespace-delimited token.
func (ls *lineStream) word() (string, bool) {
	if ls.fail {
		return "", false
	}
	ls.skipSpace()
	start := ls.pos
	for ls.pos < len(ls.s) && !isSpace(ls.s[ls.pos]) {
		ls.pos++
	}
	if start == ls.pos {
		ls.fail = true
		return "", false
	}
	return ls.s[start:ls.pos], true
}

// isDecimalFloat reports whether tok uses only decimal float syntax.
// strconv also takes inf, nan and hex forms, which OBJ numbers never are.
func isDecimalFloat(tok string) bool {
	for i := 0; i < len(tok); i++ {
		switch c := tok[i]; {
		case isDigit(c), c == '.', c == '+', c == '-', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return true
}

// float reads the next token as a finite decimal float32.
func (ls *lineStream) float() (float32, bool) {
	tok, ok := ls.word()
	if !ok {
		return 0, false
	}
	if !isDecimalFloat(tok) {
		ls.fail = true
		return 0, false
	}
	v, err := strconv.ParseFloat(tok, 32)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		ls.fail = true
		return 0, false
	}
	return float32(v), true
}

// int reads an optionally signed decimal integer, stopping at the first
// non-digit. Separators such as '/' are left in the stream.
func (ls *lineStream) int() (int32, bool) {
	if ls.fail {
		return 0, false
	}
	ls.skipSpace()
	start := ls.pos
	if ls.pos < len(ls.s) && (ls.s[ls.pos] == '-' || ls.s[ls.pos] == '+') {
		ls.pos++
	}
	digits := ls.pos
	for ls.pos < len(ls.s) && isDigit(ls.s[ls.pos]) {
		ls.pos++
	}
	if ls.pos == digits {
		ls.pos = start
		ls.fail = true
		return 0, false
	}
	v, err := strconv.ParseInt(ls.s[start:ls.pos], 10, 32)
	if err != nil {
		ls.fail = true
		return 0, false
	}
	return int32(v), true
}

// peek returns the next byte without skipping whitespace.
func (ls *lineStream) peek() (byte, bool) {
	if ls.fail || ls.pos >= len(ls.s) {
		return 0, false
	}
	return ls.s[ls.pos], true
}

// next skips whitespace and consumes one byte.
func (ls *lineStream) next() (byte, bool) {
	if ls.fail {
		return 0, false
	}
	ls.skipSpace()
	if ls.pos >= len(ls.s) {
		ls.fail = true
		return 0, false
	}
	c := ls.s[ls.pos]
	ls.pos++
	return c, true
}

// peekIs reports whether the next byte is c.
func (ls *lineStream) peekIs(c byte) bool {
	got, ok := ls.peek()
	return ok && got == c
}
