/*
Package icon implements the 4-bit indexed save icons used by memory cards.

Each icon frame is a bitmap of palette indices packed two pixels per byte
followed, once per file, by a 16 entry palette of packed 16-bit colors. The
cards disagree on which nibble holds the leftmost pixel and on how a color is
packed so both are described by a Layout:

	VMU: 32x32, left pixel in the upper nibble, colors are ARGB 4:4:4:4
	PSX: 16x16, left pixel in the lower nibble, colors are (A)BGR 1:5:5:5

Decoding never modifies the source bytes.
*/
package icon

// NibbleOrder describes which half of a byte holds the leftmost of its two
// pixels.
type NibbleOrder int

const (
	// HighFirst stores the left pixel in bits 7-4
	HighFirst NibbleOrder = iota
	// LowFirst stores the left pixel in bits 3-0
	LowFirst
)

// ColorFormat describes how a palette entry packs its channels.
type ColorFormat int

const (
	// ARGB4444 is | alpha 15-12 | red 11-8 | green 7-4 | blue 3-0 |
	ARGB4444 ColorFormat = iota
	// ABGR1555 is | flag 15 | blue 14-10 | green 9-5 | red 4-0 |, 0x0000
	// is fully transparent
	ABGR1555
)

// ColorsPerPalette is the number of entries in an icon palette.
const ColorsPerPalette = 16

// Layout describes the geometry and packing of one card's icons.
type Layout struct {
	Width, Height int
	Order         NibbleOrder
	Format        ColorFormat
}

// Layouts for the supported cards.
var (
	VMU = Layout{Width: 32, Height: 32, Order: HighFirst, Format: ARGB4444}
	PSX = Layout{Width: 16, Height: 16, Order: LowFirst, Format: ABGR1555}
)

// BitmapSize returns the number of bytes of one packed frame.
func (l Layout) BitmapSize() int {
	return l.Width * l.Height >> 1
}

// Pixels returns the number of pixels in one frame.
func (l Layout) Pixels() int {
	return l.Width * l.Height
}
