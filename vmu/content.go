package vmu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"time"

	"github.com/bodgit/memcard"
	"github.com/bodgit/memcard/crc"
	"github.com/bodgit/memcard/icon"
)

// Content header layout
const (
	offVMSDescription  = 0x00
	vmsDescriptionLen  = 16
	offBootDescription = 0x10
	bootDescriptionLen = 32
	offCreatorID       = 0x30
	creatorIDLen       = 16
	offIconCount       = 0x40
	offAnimationSpeed  = 0x42
	offEyecatchType    = 0x44
	offCRC             = 0x46
	offDataSize        = 0x48
	offPalette         = 0x60
	offIcons           = 0x80
)

var eyecatchSizes = map[uint16]int{
	1: 72 * 56 * 2,
	2: 256*2 + 72*56,
	3: 16*2 + 72*56/2,
}

// ContentHeader is the descriptive header at the start of a file's content.
type ContentHeader struct {
	card  *Card
	entry *Entry
	block int
}

// ContentHeader locates the header of e by following the FAT from the first
// block of the file.
func (c *Card) ContentHeader(e *Entry) (*ContentHeader, error) {
	if c.indexOf(e) < 0 {
		return nil, memcard.ErrNotFound
	}
	block, err := c.follow(int(e.FirstBlock()), int(e.HeaderOffset()))
	if err != nil {
		return nil, err
	}
	return &ContentHeader{card: c, entry: e, block: block}, nil
}

// Header implements memcard.Card.
func (c *Card) Header(e memcard.Entry) (memcard.Header, error) {
	entry, err := c.lookup(e)
	if err != nil {
		return nil, err
	}
	h, err := c.ContentHeader(entry)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// span returns the n bytes found offset bytes into the chain starting at
// block, the bytes are copied when they cross a block boundary
func (c *Card) span(block, offset, n int) ([]byte, error) {
	if n < 0 || offset+n > Size {
		return nil, &memcard.ChainError{Format: Name, Block: block, Value: n, Reason: "span larger than card"}
	}

	block, err := c.follow(block, offset/BlockSize)
	if err != nil {
		return nil, err
	}
	offset %= BlockSize

	if offset+n <= BlockSize {
		return c.block(block)[offset : offset+n], nil
	}

	b := make([]byte, 0, n)
	for {
		end := offset + n - len(b)
		if end > BlockSize {
			end = BlockSize
		}
		b = append(b, c.block(block)[offset:end]...)
		if len(b) == n {
			return b, nil
		}
		if block, err = c.follow(block, 1); err != nil {
			return nil, err
		}
		offset = 0
	}
}

// writeSpan is the inverse of span
func (c *Card) writeSpan(block, offset int, p []byte) error {
	block, err := c.follow(block, offset/BlockSize)
	if err != nil {
		return err
	}
	offset %= BlockSize

	for {
		n := copy(c.block(block)[offset:], p)
		if p = p[n:]; len(p) == 0 {
			return nil
		}
		if block, err = c.follow(block, 1); err != nil {
			return err
		}
		offset = 0
	}
}

func (h *ContentHeader) view() []byte {
	return h.card.block(h.block)
}

func (h *ContentHeader) get16(offset int) uint16 {
	return binary.LittleEndian.Uint16(h.view()[offset:])
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// VMSDescription returns the description shown by the VMS.
func (h *ContentHeader) VMSDescription() string {
	return cstring(h.view()[offVMSDescription : offVMSDescription+vmsDescriptionLen])
}

// BootDescription returns the description shown by the Dreamcast file
// manager.
func (h *ContentHeader) BootDescription() string {
	return cstring(h.view()[offBootDescription : offBootDescription+bootDescriptionLen])
}

// CreatorID returns the identifier of the application that created the file.
func (h *ContentHeader) CreatorID() string {
	return cstring(h.view()[offCreatorID : offCreatorID+creatorIDLen])
}

// Description returns the boot description, falling back to the VMS one.
func (h *ContentHeader) Description() string {
	if s := trimDescription(h.BootDescription()); s != "" {
		return s
	}
	return trimDescription(h.VMSDescription())
}

func trimDescription(s string) string {
	return string(bytes.TrimRight([]byte(s), " \x00"))
}

// Frames returns the number of icon frames.
func (h *ContentHeader) Frames() int {
	return int(h.get16(offIconCount))
}

// AnimationSpeed returns the raw animation speed.
func (h *ContentHeader) AnimationSpeed() uint16 {
	return h.get16(offAnimationSpeed)
}

// EyecatchType returns the kind of eyecatch image following the icons.
func (h *ContentHeader) EyecatchType() uint16 {
	return h.get16(offEyecatchType)
}

// CRC returns the stored checksum.
func (h *ContentHeader) CRC() uint16 {
	return h.get16(offCRC)
}

// DataSize returns the number of bytes of data following the header.
func (h *ContentHeader) DataSize() uint32 {
	return binary.LittleEndian.Uint32(h.view()[offDataSize:])
}

// Interval returns how long each icon frame is shown.
func (h *ContentHeader) Interval() time.Duration {
	frames, speed := h.Frames(), int(h.AnimationSpeed())
	if frames <= 1 || speed == 0 {
		return 0
	}
	return time.Duration(speed) * 100 * time.Millisecond / time.Duration(frames)
}

// Palette returns the 16 ARGB4444 palette entries.
func (h *ContentHeader) Palette() []uint16 {
	p := make([]uint16, icon.ColorsPerPalette)
	for i := range p {
		p[i] = h.get16(offPalette + i*2)
	}
	return p
}

func (h *ContentHeader) raw(frame int) ([]byte, error) {
	if frame < 0 || frame >= h.Frames() {
		return nil, &memcard.IndexError{Index: frame, Count: h.Frames()}
	}
	return h.card.span(h.block, offIcons+frame*icon.VMU.BitmapSize(), icon.VMU.BitmapSize())
}

// Bitmap returns the palette index of each pixel of frame.
func (h *ContentHeader) Bitmap(frame int) ([]byte, error) {
	b, err := h.raw(frame)
	if err != nil {
		return nil, err
	}
	return icon.VMU.Indices(b)
}

// Icon returns frame as an image.
func (h *ContentHeader) Icon(frame int) (*image.Paletted, error) {
	b, err := h.raw(frame)
	if err != nil {
		return nil, err
	}
	return icon.VMU.Decode(b, h.Palette())
}

// SetIcons replaces the palette and every icon frame. Data files have their
// CRC updated to match.
func (h *ContentHeader) SetIcons(frames ...image.Image) error {
	if len(frames) != h.Frames() {
		return &memcard.IndexError{Index: len(frames), Count: h.Frames()}
	}

	bitmaps, palette, err := icon.VMU.Encode(frames...)
	if err != nil {
		return err
	}

	for i, b := range bitmaps {
		if err := h.card.writeSpan(h.block, offIcons+i*icon.VMU.BitmapSize(), b); err != nil {
			return err
		}
	}

	for i, v := range palette {
		binary.LittleEndian.PutUint16(h.view()[offPalette+i*2:], v)
	}

	if h.entry.Type() == TypeData {
		return h.UpdateCRC()
	}

	return nil
}

// capacity returns the bytes of the file from the header onwards
func (h *ContentHeader) capacity() int64 {
	return (int64(h.entry.Size()) - int64(h.entry.HeaderOffset())) * BlockSize
}

// ComputeCRC calculates the checksum of the header, icons, eyecatch and data
// with the stored checksum taken as zero.
func (h *ContentHeader) ComputeCRC() (uint16, error) {
	n := int64(offIcons+h.Frames()*icon.VMU.BitmapSize()+eyecatchSizes[h.EyecatchType()]) + int64(h.DataSize())
	if limit := h.capacity(); n > limit {
		return 0, &memcard.ChainError{
			Format: Name,
			Block:  int(h.entry.FirstBlock()),
			Value:  int(h.DataSize()),
			Reason: fmt.Sprintf("content needs %d bytes, file holds %d", n, limit),
		}
	}

	b, err := h.card.span(h.block, 0, int(n))
	if err != nil {
		return 0, err
	}

	d := crc.New()
	d.Write(b[:offCRC])
	d.Write([]byte{0, 0})
	d.Write(b[offCRC+crc.Size:])

	return d.Sum16(), nil
}

// CRCValid returns whether the stored checksum is correct.
func (h *ContentHeader) CRCValid() (bool, error) {
	v, err := h.ComputeCRC()
	if err != nil {
		return false, err
	}
	return v == h.CRC(), nil
}

// UpdateCRC recalculates and stores the checksum.
func (h *ContentHeader) UpdateCRC() error {
	v, err := h.ComputeCRC()
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(h.view()[offCRC:], v)
	return nil
}
