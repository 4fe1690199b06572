/*
Package psx implements the PlayStation memory card image.

The image is 128 KiB divided into 16 blocks of 8 KiB, each block being 64
frames of 128 bytes. Block 0 holds the header frame, fifteen directory frames,
the broken sector list and a write test frame. Blocks 1 to 15 hold file data,
each belongs to the directory frame with the same number so a file is a chain
of directory frames linked by their next pointers.
*/
package psx

import (
	"bytes"
	"io/ioutil"
	"log"

	"github.com/bodgit/memcard"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

// Name is the name the format is registered under.
const Name = "psx"

// Image geometry
const (
	Size           = 128 << 10
	BlockSize      = 8 << 10
	TotalBlocks    = Size / BlockSize
	FrameSize      = 128
	FramesPerBlock = BlockSize / FrameSize
	Slots          = TotalBlocks - 1
)

// Header frame and the rest of block 0
const (
	headerID           = "MC"
	offChecksum        = FrameSize - 1
	headerChecksum     = 0x0e
	firstBrokenFrame   = 16
	lastBrokenFrame    = 35
	firstSpareFrame    = 36
	writeTestFrame     = 63
	brokenSectorUnused = 0xff
)

var (
	_ memcard.Card   = (*Card)(nil)
	_ memcard.Entry  = (*Entry)(nil)
	_ memcard.Header = (*TitleFrame)(nil)
)

func init() {
	memcard.RegisterFormat(Name, Size, []string{".mcr", ".mcd", ".mc", ".srm"}, func(b []byte, logger *log.Logger) (memcard.Card, error) {
		c, err := Parse(b, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	}, func(logger *log.Logger) memcard.Card {
		return New(logger)
	})
}

// Card is a PlayStation memory card image.
type Card struct {
	b        []byte
	entries  []*Entry
	logger   *log.Logger
	encoding encoding.Encoding
}

func newCard(b []byte, logger *log.Logger) *Card {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Card{
		b:        b,
		logger:   logger,
		encoding: japanese.ShiftJIS,
	}
}

// Parse binds a card to b which must be exactly Size bytes. The card takes
// ownership of b.
func Parse(b []byte, logger *log.Logger) (*Card, error) {
	if len(b) != Size {
		return nil, &memcard.SizeError{Format: Name, Expected: Size, Actual: len(b)}
	}

	c := newCard(b, logger)
	c.logger.Printf("Parse PSX %d bytes\n", len(b))
	c.logger.Printf("ID       = %q\n", c.ID())
	c.logger.Printf("Checksum = %v\n", c.Valid())

	c.Rescan()

	return c, nil
}

// New returns a freshly formatted card.
func New(logger *log.Logger) *Card {
	c := newCard(make([]byte, Size), logger)
	c.logger.Println("Creating a new PSX memory card")

	header := c.frame(0, 0)
	copy(header, headerID)
	header[offChecksum] = headerChecksum

	for i := 0; i < Slots; i++ {
		c.slot(i).free()
	}

	for i := firstBrokenFrame; i <= lastBrokenFrame; i++ {
		f := c.frame(0, i)
		copy(f[0:], bytes.Repeat([]byte{brokenSectorUnused}, 4))
		copy(f[8:], []byte{brokenSectorUnused, brokenSectorUnused})
		seal(f)
	}

	for i := firstSpareFrame; i < writeTestFrame; i++ {
		copy(c.frame(0, i), bytes.Repeat([]byte{0xff}, FrameSize))
	}

	copy(c.frame(0, writeTestFrame), header)

	return c
}

// SetTitleEncoding changes the character set used to decode titles, by
// default Shift-JIS.
func (c *Card) SetTitleEncoding(e encoding.Encoding) {
	c.encoding = e
}

func (c *Card) block(n int) []byte {
	return c.b[n*BlockSize : (n+1)*BlockSize]
}

func (c *Card) frame(block, n int) []byte {
	offset := block*BlockSize + n*FrameSize
	return c.b[offset : offset+FrameSize]
}

// checksum returns the XOR of every byte of frame f bar the last
func checksum(f []byte) byte {
	var v byte
	for _, b := range f[:offChecksum] {
		v ^= b
	}
	return v
}

func seal(f []byte) {
	f[offChecksum] = checksum(f)
}

// Format returns the registered name of the format.
func (c *Card) Format() string {
	return Name
}

// Bytes returns the image buffer.
func (c *Card) Bytes() []byte {
	return c.b
}

// ID returns the identifier at the start of the header frame, "MC" on a
// formatted card.
func (c *Card) ID() string {
	return string(c.frame(0, 0)[:len(headerID)])
}

// Valid returns whether the header frame is intact.
func (c *Card) Valid() bool {
	f := c.frame(0, 0)
	return c.ID() == headerID && checksum(f) == f[offChecksum]
}
