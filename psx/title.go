package psx

import (
	"bytes"
	"encoding/binary"
	"image"
	"time"

	"github.com/bodgit/memcard"
	"github.com/bodgit/memcard/icon"
	"golang.org/x/text/width"
)

// Title frame layout
const (
	titleID     = "SC"
	offIconFlag = 0x02
	offTitle    = 0x04
	titleLength = 64
	offPalette  = 0x60
	firstIcon   = 1
)

// Icon display flags
const (
	IconStatic      = 0x11
	IconTwoFrames   = 0x12
	IconThreeFrames = 0x13
)

// TitleFrame is the first frame of the first block of a file, it holds the
// title and icon palette while the icon frames follow it.
type TitleFrame struct {
	card  *Card
	entry *Entry
}

// TitleFrame returns the title frame of e.
func (c *Card) TitleFrame(e *Entry) (*TitleFrame, error) {
	if c.indexOf(e) < 0 {
		return nil, memcard.ErrNotFound
	}
	return &TitleFrame{card: c, entry: e}, nil
}

// Header implements memcard.Card.
func (c *Card) Header(e memcard.Entry) (memcard.Header, error) {
	entry, err := c.lookup(e)
	if err != nil {
		return nil, err
	}
	t, err := c.TitleFrame(entry)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *TitleFrame) view() []byte {
	return t.card.frame(t.entry.Block(), 0)
}

// ID returns the identifier of the frame, "SC" when valid.
func (t *TitleFrame) ID() string {
	return string(t.view()[:len(titleID)])
}

// IconFlag returns the raw icon display flag.
func (t *TitleFrame) IconFlag() byte {
	return t.view()[offIconFlag]
}

// Frames returns the number of icon frames, a file with an unknown display
// flag has none.
func (t *TitleFrame) Frames() int {
	switch f := t.IconFlag(); f {
	case IconStatic, IconTwoFrames, IconThreeFrames:
		return int(f-IconStatic) + 1
	default:
		return 0
	}
}

// Interval returns how long each icon frame is shown, 16 and 11 PAL frames
// for two and three frame icons.
func (t *TitleFrame) Interval() time.Duration {
	switch t.IconFlag() {
	case IconTwoFrames:
		return 16 * time.Second / 50
	case IconThreeFrames:
		return 11 * time.Second / 50
	default:
		return 0
	}
}

// Title returns the title decoded with the title encoding of the card and
// with full width Latin characters folded to their usual width.
func (t *TitleFrame) Title() string {
	b := t.view()[offTitle : offTitle+titleLength]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	s, err := t.card.encoding.NewDecoder().Bytes(b)
	if err != nil {
		t.card.logger.Printf("Unable to decode title of %q: %v\n", t.entry.Name(), err)
		s = b
	}

	return width.Fold.String(string(s))
}

// Description returns the title.
func (t *TitleFrame) Description() string {
	return t.Title()
}

// Palette returns the 16 ABGR1555 palette entries.
func (t *TitleFrame) Palette() []uint16 {
	p := make([]uint16, icon.ColorsPerPalette)
	for i := range p {
		p[i] = binary.LittleEndian.Uint16(t.view()[offPalette+i*2:])
	}
	return p
}

func (t *TitleFrame) raw(frame int) ([]byte, error) {
	if frame < 0 || frame >= t.Frames() {
		return nil, &memcard.IndexError{Index: frame, Count: t.Frames()}
	}
	return t.card.frame(t.entry.Block(), firstIcon+frame), nil
}

// Bitmap returns the palette index of each pixel of frame.
func (t *TitleFrame) Bitmap(frame int) ([]byte, error) {
	b, err := t.raw(frame)
	if err != nil {
		return nil, err
	}
	return icon.PSX.Indices(b)
}

// Icon returns frame as an image.
func (t *TitleFrame) Icon(frame int) (*image.Paletted, error) {
	b, err := t.raw(frame)
	if err != nil {
		return nil, err
	}
	return icon.PSX.Decode(b, t.Palette())
}

// SetIcons replaces the palette and every icon frame.
func (t *TitleFrame) SetIcons(frames ...image.Image) error {
	if len(frames) != t.Frames() {
		return &memcard.IndexError{Index: len(frames), Count: t.Frames()}
	}

	bitmaps, palette, err := icon.PSX.Encode(frames...)
	if err != nil {
		return err
	}

	for i, b := range bitmaps {
		copy(t.card.frame(t.entry.Block(), firstIcon+i), b)
	}

	for i, v := range palette {
		binary.LittleEndian.PutUint16(t.view()[offPalette+i*2:], v)
	}

	return nil
}
