package icon

import (
	"errors"
	"image"
	"image/color"
)

var (
	errNotEnough     = errors.New("icon: not enough image data")
	errPaletteLength = errors.New("icon: palette must have 16 entries")
)

func upperNibble(b byte) byte {
	return b >> 4
}

func lowerNibble(b byte) byte {
	return b & 0x0f
}

// scale expands an n-bit channel to 8 bits, rounding down
func scale(v uint16, max uint16) uint8 {
	return uint8(uint32(v) * 0xff / uint32(max))
}

// Color unpacks one palette entry.
func (l Layout) Color(v uint16) color.Color {
	switch l.Format {
	case ABGR1555:
		if v == 0 {
			return color.NRGBA{}
		}
		// The semi-transparency flag is ignored, everything else is opaque
		return color.NRGBA{
			scale(v&0x1f, 0x1f),
			scale(v>>5&0x1f, 0x1f),
			scale(v>>10&0x1f, 0x1f),
			0xff,
		}
	default:
		return color.NRGBA{
			scale(v>>8&0x0f, 0x0f),
			scale(v>>4&0x0f, 0x0f),
			scale(v&0x0f, 0x0f),
			scale(v>>12&0x0f, 0x0f),
		}
	}
}

// Palette unpacks a full icon palette.
func (l Layout) Palette(p []uint16) color.Palette {
	palette := make(color.Palette, len(p))
	for i, v := range p {
		palette[i] = l.Color(v)
	}
	return palette
}

// Indices unpacks one frame into a palette index per pixel, row by row.
func (l Layout) Indices(b []byte) ([]byte, error) {
	if len(b) < l.BitmapSize() {
		return nil, errNotEnough
	}

	pix := make([]byte, l.Pixels())
	for i, v := range b[:l.BitmapSize()] {
		left, right := upperNibble(v), lowerNibble(v)
		if l.Order == LowFirst {
			left, right = right, left
		}
		pix[i<<1+0] = left
		pix[i<<1+1] = right
	}

	return pix, nil
}

// Decode unpacks one frame and its palette into an image.
func (l Layout) Decode(b []byte, p []uint16) (*image.Paletted, error) {
	if len(p) != ColorsPerPalette {
		return nil, errPaletteLength
	}

	pix, err := l.Indices(b)
	if err != nil {
		return nil, err
	}

	m := image.NewPaletted(image.Rect(0, 0, l.Width, l.Height), l.Palette(p))
	copy(m.Pix, pix)

	return m, nil
}
