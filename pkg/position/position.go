package position

import (
	"fmt"
	"sort"

	"github.com/apparentlymart/go-textseg/v13/textseg"
	"gitlab.com/tozd/go/errors"
)

// Span is a half-open byte interval [Start, End) into a document.
type Span struct {
	Start int
	End   int
}

func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// Len returns the number of bytes covered by the span
func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) IsEmpty() bool {
	return s.End <= s.Start
}

// Contains reports whether offset falls inside the span. An empty span
// contains its own start offset.
func (s Span) Contains(offset int) bool {
	if s.IsEmpty() {
		return offset == s.Start
	}
	return offset >= s.Start && offset < s.End
}

func (s Span) Overlaps(other Span) bool {
	// Handle zero-length ranges
	if s.IsEmpty() {
		return s.Start >= other.Start && s.Start <= other.End
	}
	if other.IsEmpty() {
		return other.Start >= s.Start && other.Start <= s.End
	}

	return other.Start < s.End && other.End > s.Start
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

func (s Span) Shift(delta int) Span {
	return Span{Start: s.Start + delta, End: s.End + delta}
}

// Text slices src by the span, clamping to the buffer.
func (s Span) Text(src []byte) string {
	start, end := s.Start, s.End
	if start < 0 {
		start = 0
	}
	if end > len(src) {
		end = len(src)
	}
	if start >= end {
		return ""
	}
	return string(src[start:end])
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Place is a zero-based line and column. Columns count grapheme clusters,
// not bytes, so that a multi-byte character occupies a single column.
type Place struct {
	Line      int
	Character int
}

func (p Place) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Character+1)
}

type Range struct {
	Start Place
	End   Place
}

// Locator maps byte offsets of one document to lines and columns. The line
// index is built lazily on first use.
type Locator struct {
	src       []byte
	lineIndex []int
}

func NewLocator(src []byte) *Locator {
	return &Locator{src: src}
}

func (l *Locator) Source() []byte {
	return l.src
}

func (l *Locator) getLineIndex() []int {
	if l.lineIndex == nil {
		li := append(make([]int, 0, 32), 0)
		for i, c := range l.src {
			if c == '\n' {
				li = append(li, i+1)
			}
		}
		l.lineIndex = li
	}
	return l.lineIndex
}

// LineCount returns the number of lines; a trailing newline starts a new
// (empty) line.
func (l *Locator) LineCount() int {
	return len(l.getLineIndex())
}

// LineStart returns the byte offset at which the given zero-based line begins.
func (l *Locator) LineStart(line int) int {
	li := l.getLineIndex()
	if line < 0 {
		return 0
	}
	if line >= len(li) {
		return len(l.src)
	}
	return li[line]
}

// LineEnd returns the offset of the newline ending line, or the document
// length for the last line.
func (l *Locator) LineEnd(line int) int {
	li := l.getLineIndex()
	if line+1 < len(li) {
		return li[line+1] - 1
	}
	return len(l.src)
}

func (l *Locator) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(l.src) {
		return len(l.src)
	}
	return offset
}

// Place returns the line and grapheme column for a byte offset.
func (l *Locator) Place(offset int) Place {
	offset = l.clamp(offset)
	li := l.getLineIndex()
	line := sort.SearchInts(li, offset+1) - 1
	lineStart := li[line]
	if offset == lineStart {
		return Place{Line: line}
	}
	col, err := textseg.TokenCount(l.src[lineStart:offset], textseg.ScanGraphemeClusters)
	if err != nil {
		// invalid segmentation input, fall back to bytes
		col = offset - lineStart
	}
	return Place{Line: line, Character: col}
}

func (l *Locator) Range(s Span) Range {
	return Range{Start: l.Place(s.Start), End: l.Place(s.End)}
}

// Offset converts a place back into a byte offset. Columns past the end of
// the line are an error.
func (l *Locator) Offset(p Place) (int, error) {
	if p.Line < 0 || p.Line >= l.LineCount() {
		return 0, errors.Errorf("line %d out of range [0,%d)", p.Line, l.LineCount())
	}
	start := l.LineStart(p.Line)
	end := l.LineEnd(p.Line)
	offset := start
	for col := 0; col < p.Character; col++ {
		if offset >= end {
			return 0, errors.Errorf("column %d out of range on line %d", p.Character, p.Line)
		}
		adv, _, err := textseg.ScanGraphemeClusters(l.src[offset:end], true)
		if err != nil {
			return 0, errors.Errorf("segmenting line %d: %w", p.Line, err)
		}
		if adv == 0 {
			adv = 1
		}
		offset += adv
	}
	return offset, nil
}
