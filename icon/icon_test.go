package icon

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicesNibbleOrder(t *testing.T) {
	b := bytes.Repeat([]byte{0x12}, VMU.BitmapSize())

	pix, err := VMU.Indices(b)
	require.NoError(t, err)
	assert.Len(t, pix, 32*32)
	assert.Equal(t, []byte{1, 2, 1, 2}, pix[:4])

	b = bytes.Repeat([]byte{0x12}, PSX.BitmapSize())

	pix, err = PSX.Indices(b)
	require.NoError(t, err)
	assert.Len(t, pix, 16*16)
	assert.Equal(t, []byte{2, 1, 2, 1}, pix[:4])

	_, err = PSX.Indices(b[:10])
	assert.Equal(t, errNotEnough, err)
}

func TestIndicesDoesNotModify(t *testing.T) {
	b := make([]byte, PSX.BitmapSize())
	for i := range b {
		b[i] = byte(i)
	}
	orig := append([]byte(nil), b...)

	_, err := PSX.Indices(b)
	require.NoError(t, err)
	assert.Equal(t, orig, b)
}

func TestColor(t *testing.T) {
	tables := []struct {
		layout Layout
		value  uint16
		want   color.NRGBA
	}{
		{VMU, 0xf000, color.NRGBA{0, 0, 0, 0xff}},
		{VMU, 0xff00, color.NRGBA{0xff, 0, 0, 0xff}},
		{VMU, 0xf0f0, color.NRGBA{0, 0xff, 0, 0xff}},
		{VMU, 0x800f, color.NRGBA{0, 0, 0xff, 0x88}},
		{VMU, 0x0000, color.NRGBA{0, 0, 0, 0}},
		{PSX, 0x0000, color.NRGBA{0, 0, 0, 0}},
		{PSX, 0x001f, color.NRGBA{0xff, 0, 0, 0xff}},
		{PSX, 0x03e0, color.NRGBA{0, 0xff, 0, 0xff}},
		{PSX, 0x7c00, color.NRGBA{0, 0, 0xff, 0xff}},
		{PSX, 0x8000, color.NRGBA{0, 0, 0, 0xff}},
	}

	for _, table := range tables {
		assert.Equal(t, table.want, table.layout.Color(table.value), "%#04x", table.value)
	}
}

func TestValueRoundTrip(t *testing.T) {
	for _, v := range []uint16{0x0000, 0xf000, 0xffff, 0x1234, 0x8a5c} {
		assert.Equal(t, v, VMU.Value(VMU.Color(v)), "VMU %#04x", v)
	}
	for _, v := range []uint16{0x0000, 0x8000, 0x7fff, 0x0421, 0x1234, 0x5a5a} {
		assert.Equal(t, v, PSX.Value(PSX.Color(v)), "PSX %#04x", v)
	}
}

func TestDecode(t *testing.T) {
	palette := make([]uint16, ColorsPerPalette)
	palette[1] = 0x001f

	b := make([]byte, PSX.BitmapSize())
	b[0] = 0x01

	m, err := PSX.Decode(b, palette)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 16), m.Bounds())
	assert.Equal(t, uint8(1), m.ColorIndexAt(0, 0))
	assert.Equal(t, uint8(0), m.ColorIndexAt(1, 0))
	assert.Equal(t, color.NRGBA{0xff, 0, 0, 0xff}, m.At(0, 0))

	_, err = PSX.Decode(b, palette[:4])
	assert.Equal(t, errPaletteLength, err)
}

func checkerboard(l Layout, c1, c2 color.Color) image.Image {
	m := image.NewNRGBA(image.Rect(0, 0, l.Width, l.Height))
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			if (x+y)%2 == 0 {
				m.Set(x, y, c1)
			} else {
				m.Set(x, y, c2)
			}
		}
	}
	return m
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, l := range []Layout{VMU, PSX} {
		red := color.NRGBA{0xff, 0, 0, 0xff}
		blue := color.NRGBA{0, 0, 0xff, 0xff}
		white := color.NRGBA{0xff, 0xff, 0xff, 0xff}

		frames := []image.Image{
			checkerboard(l, red, blue),
			checkerboard(l, blue, white),
		}

		bitmaps, palette, err := l.Encode(frames...)
		require.NoError(t, err)
		require.Len(t, bitmaps, 2)
		assert.Len(t, palette, ColorsPerPalette)

		for i, b := range bitmaps {
			assert.Len(t, b, l.BitmapSize())

			m, err := l.Decode(b, palette)
			require.NoError(t, err)
			for y := 0; y < l.Height; y++ {
				for x := 0; x < l.Width; x++ {
					want := color.NRGBAModel.Convert(frames[i].At(x, y))
					assert.Equal(t, want, m.At(x, y))
				}
			}
		}
	}
}

func TestEncodeQuantizes(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, PSX.Width, PSX.Height))
	for y := 0; y < PSX.Height; y++ {
		for x := 0; x < PSX.Width; x++ {
			m.Set(x, y, color.NRGBA{uint8(x * 16), uint8(y * 16), 0x80, 0xff})
		}
	}

	bitmaps, palette, err := PSX.Encode(m)
	require.NoError(t, err)
	require.Len(t, bitmaps, 1)
	assert.Len(t, palette, ColorsPerPalette)
}

func TestEncodeWrongSize(t *testing.T) {
	_, _, err := VMU.Encode(image.NewNRGBA(image.Rect(0, 0, 16, 16)))
	assert.Equal(t, errWrongSize, err)

	_, _, err = VMU.Encode()
	assert.Equal(t, errNoFrames, err)
}

func TestAnimate(t *testing.T) {
	palette := make([]uint16, ColorsPerPalette)
	var frames []*image.Paletted
	for i := 0; i < 3; i++ {
		m, err := PSX.Decode(make([]byte, PSX.BitmapSize()), palette)
		require.NoError(t, err)
		frames = append(frames, m)
	}

	g := Animate(frames, 220*time.Millisecond)
	assert.Len(t, g.Image, 3)
	assert.Equal(t, []int{22, 22, 22}, g.Delay)

	var b bytes.Buffer
	require.NoError(t, gif.EncodeAll(&b, g))

	g = Animate(frames, 0)
	assert.Len(t, g.Image, 1)
}
