/*
Package memcard is a library for inspecting and editing the contents of
memory card images from Dreamcast VMUs and PlayStation memory cards.

The engines for each card live in their own package and register themselves
when imported, much like image decoders:

	import (
		"github.com/bodgit/memcard"
		_ "github.com/bodgit/memcard/psx"
		_ "github.com/bodgit/memcard/vmu"
	)

	c, err := memcard.Open("vmu", "vmu.bin", nil)

A Card owns its image buffer; the Entry values it hands out are views into
that buffer and stay valid only while the Card does. Nothing in this package
is safe for concurrent use, callers wanting to share a Card between
goroutines must lock around it.
*/
package memcard

import (
	"image"
	"time"
)

// Card is a parsed memory card image.
type Card interface {
	// Format returns the registered name of the card format.
	Format() string
	// Bytes returns the live image buffer, it is always the serialized
	// form of the card.
	Bytes() []byte
	// Entries returns the files on the card in directory order.
	Entries() []Entry
	// Delete removes e and releases its blocks.
	Delete(e Entry) error
	// Copy duplicates e, which may belong to this or another card of the
	// same format, onto this card.
	Copy(e Entry) (Entry, error)
	// Verify walks the block chain of e and returns its length.
	Verify(e Entry) (int, error)
	// FreeBlocks returns the number of blocks available for new files.
	FreeBlocks() int
	// Header returns the decoded content header of e.
	Header(e Entry) (Header, error)
}

// Entry is a file on a Card.
type Entry interface {
	// Card returns the card holding the entry.
	Card() Card
	// Index returns the directory slot of the entry which is unique
	// within its card.
	Index() int
	// Name returns the filename as stored in the directory.
	Name() string
	// Blocks returns the declared size of the file in blocks.
	Blocks() int
}

// Header is the descriptive metadata and icon stored at the start of a file.
type Header interface {
	// Description returns the human readable title of the file.
	Description() string
	// Frames returns the number of icon frames.
	Frames() int
	// Interval returns how long each icon frame is shown, zero means the
	// icon is static.
	Interval() time.Duration
	// Palette returns the 16 packed palette entries of the icon.
	Palette() []uint16
	// Bitmap returns the palette index of each pixel of one icon frame.
	Bitmap(frame int) ([]byte, error)
	// Icon returns one icon frame as an image.
	Icon(frame int) (*image.Paletted, error)
	// SetIcons replaces every icon frame, the number of images must match
	// Frames.
	SetIcons(frames ...image.Image) error
}
