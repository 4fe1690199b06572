package icon

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"time"

	"github.com/ericpauley/go-quantize/quantize"
)

var (
	errNoFrames  = errors.New("icon: no frames to encode")
	errWrongSize = errors.New("icon: image is wrong size")
)

// Value packs c into a palette entry, dropping any precision the card can't
// store.
func (l Layout) Value(c color.Color) uint16 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	switch l.Format {
	case ABGR1555:
		if n.A < 0x80 {
			return 0
		}
		v := uint16(n.R>>3) | uint16(n.G>>3)<<5 | uint16(n.B>>3)<<10
		if v == 0 {
			// Opaque black needs the flag set to not be transparent
			v = 0x8000
		}
		return v
	default:
		return uint16(n.A>>4)<<12 | uint16(n.R>>4)<<8 | uint16(n.G>>4)<<4 | uint16(n.B>>4)
	}
}

// Model returns the color model of the card, colors are snapped to what the
// palette format can represent.
func (l Layout) Model() color.Model {
	return color.ModelFunc(func(c color.Color) color.Color {
		return l.Color(l.Value(c))
	})
}

// Stack every frame on top of each other so one palette can be computed
func (l Layout) stack(frames []image.Image) (*image.NRGBA, error) {
	m := image.NewNRGBA(image.Rect(0, 0, l.Width, l.Height*len(frames)))
	for i, f := range frames {
		b := f.Bounds()
		if b.Dx() != l.Width || b.Dy() != l.Height {
			return nil, errWrongSize
		}
		for y := 0; y < l.Height; y++ {
			for x := 0; x < l.Width; x++ {
				m.Set(x, i*l.Height+y, l.Model().Convert(f.At(b.Min.X+x, b.Min.Y+y)))
			}
		}
	}
	return m, nil
}

func uniqueColors(m image.Image, max int) (color.Palette, bool) {
	seen := make(map[color.Color]struct{})
	var p color.Palette
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := m.At(x, y)
			if _, ok := seen[c]; ok {
				continue
			}
			if len(p) == max {
				return nil, false
			}
			seen[c] = struct{}{}
			p = append(p, c)
		}
	}
	return p, true
}

func (l Layout) pack(m *image.Paletted, frame int) []byte {
	b := make([]byte, l.BitmapSize())
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x += 2 {
			left := m.ColorIndexAt(x, frame*l.Height+y) & 0x0f
			right := m.ColorIndexAt(x+1, frame*l.Height+y) & 0x0f
			if l.Order == LowFirst {
				left, right = right, left
			}
			b[(y*l.Width+x)>>1] = left<<4 | right
		}
	}
	return b
}

// Encode converts frames into packed bitmaps sharing a single palette. If the
// frames use more than 16 distinct colors between them they are reduced with
// a median cut quantizer.
func (l Layout) Encode(frames ...image.Image) ([][]byte, []uint16, error) {
	if len(frames) == 0 {
		return nil, nil, errNoFrames
	}

	m, err := l.stack(frames)
	if err != nil {
		return nil, nil, err
	}

	p, ok := uniqueColors(m, ColorsPerPalette)
	if !ok {
		q := quantize.MedianCutQuantizer{}
		p = q.Quantize(make(color.Palette, 0, ColorsPerPalette), m)
		if len(p) > ColorsPerPalette {
			p = p[:ColorsPerPalette]
		}
	}

	values := make([]uint16, ColorsPerPalette)
	for i, c := range p {
		values[i] = l.Value(c)
	}

	// Index against what the card will actually display
	pm := image.NewPaletted(m.Bounds(), l.Palette(values[:len(p)]))
	draw.Draw(pm, pm.Bounds(), m, image.Point{}, draw.Src)

	bitmaps := make([][]byte, len(frames))
	for i := range frames {
		bitmaps[i] = l.pack(pm, i)
	}

	return bitmaps, values, nil
}

// Animate builds an animated GIF from decoded frames, each shown for delay.
// A zero delay produces a single frame image.
func Animate(frames []*image.Paletted, delay time.Duration) *gif.GIF {
	g := new(gif.GIF)
	if delay <= 0 && len(frames) > 0 {
		frames = frames[:1]
	}
	for _, f := range frames {
		g.Image = append(g.Image, f)
		g.Delay = append(g.Delay, int(delay/(10*time.Millisecond)))
	}
	return g
}
