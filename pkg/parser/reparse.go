package parser

import (
	"context"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/goftl/pkg/syntax"
)

var ErrInvalidEdit = errors.Base("invalid edit")

// Edit replaces the bytes [Start, OldEnd) with NewText, which then occupies
// [Start, NewEnd).
type Edit struct {
	Start   int
	OldEnd  int
	NewEnd  int
	NewText []byte
}

func (e Edit) validate(length int) error {
	var merr *multierror.Error
	if e.Start < 0 {
		merr = multierror.Append(merr, errors.Errorf("%w: start %d is negative", ErrInvalidEdit, e.Start))
	}
	if e.OldEnd < e.Start {
		merr = multierror.Append(merr, errors.Errorf("%w: old end %d is before start %d", ErrInvalidEdit, e.OldEnd, e.Start))
	}
	if e.OldEnd > length {
		merr = multierror.Append(merr, errors.Errorf("%w: old end %d is past the end of the text (%d)", ErrInvalidEdit, e.OldEnd, length))
	}
	if e.NewEnd-e.Start != len(e.NewText) {
		merr = multierror.Append(merr, errors.Errorf("%w: new end %d does not match %d bytes of new text", ErrInvalidEdit, e.NewEnd, len(e.NewText)))
	}
	return merr.ErrorOrNil()
}

// Apply returns text with e applied.
func (e Edit) Apply(text []byte) []byte {
	out := make([]byte, 0, len(text)-(e.OldEnd-e.Start)+len(e.NewText))
	out = append(out, text[:e.Start]...)
	out = append(out, e.NewText...)
	return append(out, text[e.OldEnd:]...)
}

// Reparse applies edits in order, each relative to the text left by the
// previous one, and parses the result. Top level items of prev that never
// looked at an edited byte are carried over unchanged; the result is the
// same tree Parse would build for the edited text.
func Reparse(ctx context.Context, prev *syntax.Tree, edits []Edit) (*syntax.Tree, error) {
	if prev == nil {
		return nil, errors.Errorf("reparsing: %w: no previous tree", ErrInvalidEdit)
	}
	text := prev.Source()
	first := len(text)

	var merr *multierror.Error
	for i, e := range edits {
		if err := e.validate(len(text)); err != nil {
			merr = multierror.Append(merr, errors.Errorf("edit %d: %w", i, err))
			continue
		}
		text = e.Apply(text)
		if e.Start < first {
			first = e.Start
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, errors.Errorf("reparsing: %w", err)
	}
	if !utf8.Valid(text) {
		return nil, errors.Errorf("reparsing: %w", ErrInvalidUTF8)
	}

	items := prev.Root().Children()
	checkpoints := prev.Checkpoints()

	reused := 0
	for reused < len(checkpoints) && checkpoints[reused].Reach <= first {
		reused++
	}
	// the position after the last item was never checkpointed
	if reused == len(checkpoints) && reused > 0 {
		reused--
	}

	p := newParser(ctx, text)
	if reused > 0 {
		cp := checkpoints[reused]
		p.pos = cp.Offset
		p.scan.Restore(cp.Context)
	}

	zerolog.Ctx(ctx).Debug().
		Int("edits", len(edits)).
		Int("first_edited_byte", first).
		Int("reused", reused).
		Int("items", len(items)).
		Msg("reparsing template")

	root, cps, err := p.parseFile(items[:reused], checkpoints[:reused])
	if err != nil {
		return nil, err
	}
	return syntax.NewTree(text, root, cps), nil
}
