package scanner

import (
	"bytes"
	"unicode/utf8"
)

// Cursor is a read position into a document. It remembers the furthest byte
// ever inspected (its reach), which the incremental parser uses to decide
// whether previously produced nodes still hold after an edit.
type Cursor struct {
	src   []byte
	pos   int
	reach int
}

func NewCursor(src []byte, pos int) *Cursor {
	return &Cursor{src: src, pos: pos, reach: pos}
}

func (c *Cursor) Source() []byte {
	return c.src
}

func (c *Cursor) Pos() int {
	return c.pos
}

// Reach returns one past the furthest offset inspected. Inspecting the end
// of input counts as reading offset len(src).
func (c *Cursor) Reach() int {
	return c.reach
}

func (c *Cursor) SetPos(pos int) {
	c.pos = pos
}

func (c *Cursor) touch(offset int) {
	if offset+1 > c.reach {
		c.reach = offset + 1
	}
}

func (c *Cursor) EOF() bool {
	c.touch(c.pos)
	return c.pos >= len(c.src)
}

// PeekAt returns the byte i positions ahead, or 0 past the end of input.
func (c *Cursor) PeekAt(i int) byte {
	c.touch(c.pos + i)
	if c.pos+i >= len(c.src) {
		return 0
	}
	return c.src[c.pos+i]
}

func (c *Cursor) Peek() byte {
	return c.PeekAt(0)
}

// PeekRune decodes the rune at the cursor; size is 0 at end of input.
func (c *Cursor) PeekRune() (rune, int) {
	return c.PeekRuneAt(0)
}

func (c *Cursor) PeekRuneAt(i int) (rune, int) {
	if c.pos+i >= len(c.src) {
		c.touch(c.pos + i)
		return 0, 0
	}
	r, size := utf8.DecodeRune(c.src[c.pos+i:])
	c.touch(c.pos + i + size - 1)
	return r, size
}

func (c *Cursor) HasPrefix(s string) bool {
	end := c.pos + len(s)
	if end > len(c.src) {
		c.touch(len(c.src))
		return false
	}
	c.touch(end - 1)
	return bytes.HasPrefix(c.src[c.pos:], []byte(s))
}

// Advance moves forward n bytes, never past the end of input.
func (c *Cursor) Advance(n int) {
	c.pos += n
	if c.pos > len(c.src) {
		c.pos = len(c.src)
	}
	if c.pos > 0 {
		c.touch(c.pos - 1)
	}
}

// Match consumes b if it is the next byte.
func (c *Cursor) Match(b byte) bool {
	if c.EOF() || c.Peek() != b {
		return false
	}
	c.Advance(1)
	return true
}

func (c *Cursor) MatchString(s string) bool {
	if !c.HasPrefix(s) {
		return false
	}
	c.Advance(len(s))
	return true
}

// Merge folds the reach of another cursor over the same document into c.
func (c *Cursor) Merge(o *Cursor) {
	if o.reach > c.reach {
		c.reach = o.reach
	}
}

// Clone returns an independent cursor at the same position.
func (c *Cursor) Clone() *Cursor {
	cp := *c
	return &cp
}
