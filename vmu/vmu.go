/*
Package vmu implements the Dreamcast Visual Memory Unit card image.

The image is 128 KiB divided into 256 blocks of 512 bytes. Block 255 is the
root block which records where the file allocation table and the directory
live, by default block 254 and the 13 blocks from 253 downwards. The FAT holds
one little-endian 16-bit word per block, either the next block of the chain,
0xfffa for the last block of a chain or 0xfffc for an unallocated block. Each
directory block holds sixteen 32 byte entries.
*/
package vmu

import (
	"encoding/binary"
	"image/color"
	"io/ioutil"
	"log"
	"time"

	"github.com/bodgit/memcard"
	"github.com/bodgit/memcard/bcd"
)

// Name is the name the format is registered under.
const Name = "vmu"

// Image geometry
const (
	Size               = 128 << 10
	BlockSize          = 512
	TotalBlocks        = Size / BlockSize
	RootBlock          = 255
	DirectoryEntrySize = 32
	EntriesPerBlock    = BlockSize / DirectoryEntrySize
)

// FAT sentinels
const (
	FreeBlock = 0xfffc
	LastBlock = 0xfffa
)

// Root block layout
const (
	formatMarker       = 0x55
	offFormat          = 0x00
	formatLength       = 16
	offCustomColor     = 0x10
	offColor           = 0x11 // blue, green, red, alpha
	offTimestamp       = 0x30
	offFATLocation     = 0x46
	offFATSize         = 0x48
	offDirLocation     = 0x4a
	offDirSize         = 0x4c
	offIconShape       = 0x4e
	offUserBlocks      = 0x50
	defaultFATLocation = 254
	defaultDirLocation = 253
	defaultDirSize     = 13
	defaultIconShape   = 5
	defaultUserBlocks  = 200
)

var now = time.Now

var (
	_ memcard.Card   = (*Card)(nil)
	_ memcard.Entry  = (*Entry)(nil)
	_ memcard.Header = (*ContentHeader)(nil)
)

func init() {
	memcard.RegisterFormat(Name, Size, []string{".bin", ".vmu"}, func(b []byte, logger *log.Logger) (memcard.Card, error) {
		c, err := Parse(b, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	}, func(logger *log.Logger) memcard.Card {
		return New(logger)
	})
}

// Card is a VMU image.
type Card struct {
	b       []byte
	fat     []byte
	entries []*Entry
	logger  *log.Logger
}

func newCard(b []byte, logger *log.Logger) *Card {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Card{
		b:      b,
		logger: logger,
	}
}

// Parse binds a card to b which must be exactly Size bytes. The card takes
// ownership of b.
func Parse(b []byte, logger *log.Logger) (*Card, error) {
	if len(b) != Size {
		return nil, &memcard.SizeError{Format: Name, Expected: Size, Actual: len(b)}
	}

	c := newCard(b, logger)
	c.logger.Printf("Parse VMU %d bytes\n", len(b))

	if err := c.bindFAT(); err != nil {
		return nil, err
	}

	c.logRootBlock()

	if err := c.Rescan(); err != nil {
		return nil, err
	}

	return c, nil
}

// New returns a freshly formatted card.
func New(logger *log.Logger) *Card {
	c := newCard(make([]byte, Size), logger)
	c.logger.Println("Creating a new VMU")

	root := c.block(RootBlock)
	for i := 0; i < formatLength; i++ {
		root[offFormat+i] = formatMarker
	}

	// Opaque white
	root[offCustomColor] = 1
	copy(root[offColor:], []byte{0xff, 0xff, 0xff, 0xff})

	ts := bcd.EncodeTime(now())
	copy(root[offTimestamp:], ts[:])

	c.put16(root, offFATLocation, defaultFATLocation)
	c.put16(root, offFATSize, 1)
	c.put16(root, offDirLocation, defaultDirLocation)
	c.put16(root, offDirSize, defaultDirSize)
	c.put16(root, offIconShape, defaultIconShape)
	c.put16(root, offUserBlocks, defaultUserBlocks)

	// Undocumented values written by the BIOS
	root[0x40] = 0xff
	root[0x44] = 0xff
	root[0x52] = 0x1f
	root[0x56] = 0x80

	c.bindFAT()

	for i := 0; i < TotalBlocks; i++ {
		c.setNext(i, FreeBlock)
	}

	// Directory runs downwards from its location
	for i := 0; i < defaultDirSize; i++ {
		block := defaultDirLocation - i
		next := uint16(block - 1)
		if i == defaultDirSize-1 {
			next = LastBlock
		}
		c.setNext(block, next)
	}

	c.setNext(RootBlock, LastBlock)
	c.setNext(defaultFATLocation, LastBlock)

	c.logRootBlock()

	return c
}

func (c *Card) logRootBlock() {
	ts, _ := c.Timestamp()
	c.logger.Printf("Format indicator   = %v\n", c.Formatted())
	c.logger.Printf("Custom colours     = %v\n", c.CustomColor())
	c.logger.Printf("RGBA               = %v\n", c.Color())
	c.logger.Printf("Timestamp          = %v\n", ts)
	c.logger.Printf("FAT location       = %d\n", c.FATLocation())
	c.logger.Printf("FAT size           = %d\n", c.FATSize())
	c.logger.Printf("Directory location = %d\n", c.DirectoryLocation())
	c.logger.Printf("Directory size     = %d\n", c.DirectorySize())
	c.logger.Printf("Icon shape         = %d\n", c.IconShape())
	c.logger.Printf("User blocks        = %d\n", c.UserBlocks())
}

func (c *Card) bindFAT() error {
	location := int(c.FATLocation())
	if location >= TotalBlocks {
		return &memcard.ChainError{Format: Name, Block: RootBlock, Value: location, Reason: "FAT location out of range"}
	}
	c.fat = c.block(location)
	return nil
}

func (c *Card) block(n int) []byte {
	return c.b[n*BlockSize : (n+1)*BlockSize]
}

func (c *Card) root() []byte {
	return c.block(RootBlock)
}

func (c *Card) put16(b []byte, offset int, v uint16) {
	binary.LittleEndian.PutUint16(b[offset:], v)
}

func (c *Card) get16(offset int) uint16 {
	return binary.LittleEndian.Uint16(c.root()[offset:])
}

// Format returns the registered name of the format.
func (c *Card) Format() string {
	return Name
}

// Bytes returns the image buffer.
func (c *Card) Bytes() []byte {
	return c.b
}

// Formatted returns whether the format marker is intact.
func (c *Card) Formatted() bool {
	for _, v := range c.root()[offFormat : offFormat+formatLength] {
		if v != formatMarker {
			return false
		}
	}
	return true
}

// CustomColor returns whether the VMS should use Color.
func (c *Card) CustomColor() bool {
	return c.root()[offCustomColor] != 0
}

// Color returns the custom VMS color.
func (c *Card) Color() color.NRGBA {
	v := c.root()[offColor : offColor+4]
	return color.NRGBA{R: v[2], G: v[1], B: v[0], A: v[3]}
}

// Timestamp returns when the card was formatted.
func (c *Card) Timestamp() (time.Time, error) {
	return bcd.Decode(c.root()[offTimestamp:])
}

// FATLocation returns the block holding the FAT.
func (c *Card) FATLocation() uint16 {
	return c.get16(offFATLocation)
}

// FATSize returns the size of the FAT in blocks.
func (c *Card) FATSize() uint16 {
	return c.get16(offFATSize)
}

// DirectoryLocation returns the first block of the directory.
func (c *Card) DirectoryLocation() uint16 {
	return c.get16(offDirLocation)
}

// DirectorySize returns the size of the directory in blocks.
func (c *Card) DirectorySize() uint16 {
	return c.get16(offDirSize)
}

// IconShape returns the icon shown by the VMS for the card, 0-123.
func (c *Card) IconShape() uint16 {
	return c.get16(offIconShape)
}

// UserBlocks returns the number of blocks available to files.
func (c *Card) UserBlocks() uint16 {
	return c.get16(offUserBlocks)
}
