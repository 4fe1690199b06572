package psx

import (
	"bytes"
	"encoding/binary"

	"github.com/bodgit/memcard"
)

// Directory frame layout
const (
	offState       = 0x00
	offSize        = 0x04
	offNext        = 0x08
	offFilename    = 0x0a
	filenameLength = 21
)

// Allocation states, the high bits say whether the slot is used and the low
// bits where in its file the block sits
const (
	StateInUse = 0x50
	StateFree  = 0xa0

	FirstBlock = 0x1
	MidBlock   = 0x2
	LastBlock  = 0x3

	// EndOfChain is the next pointer of the last block of a file
	EndOfChain = 0xffff
)

// Entry is a directory frame of a Card.
type Entry struct {
	card *Card
	slot int
}

func (c *Card) slot(i int) *Entry {
	return &Entry{card: c, slot: i}
}

func (e *Entry) view() []byte {
	return e.card.frame(0, e.slot+1)
}

// Card returns the card holding the entry.
func (e *Entry) Card() memcard.Card {
	return e.card
}

// Index returns the directory slot, 0 to 14.
func (e *Entry) Index() int {
	return e.slot
}

// Block returns the data block belonging to the slot.
func (e *Entry) Block() int {
	return e.slot + 1
}

// State returns the raw allocation state.
func (e *Entry) State() uint32 {
	return binary.LittleEndian.Uint32(e.view()[offState:])
}

// InUse returns whether the slot belongs to a file.
func (e *Entry) InUse() bool {
	return !e.Free() && e.State()&StateInUse == StateInUse
}

// Free returns whether the slot is available.
func (e *Entry) Free() bool {
	return e.State()&StateFree == StateFree
}

func (e *Entry) position() uint32 {
	return e.State() & 0xf
}

// IsFirst returns whether the slot is the first block of its file.
func (e *Entry) IsFirst() bool {
	return e.position() == FirstBlock
}

// IsMid returns whether the slot is a middle block of its file.
func (e *Entry) IsMid() bool {
	return e.position() == MidBlock
}

// IsLast returns whether the slot is the last block of its file.
func (e *Entry) IsLast() bool {
	return e.position() == LastBlock
}

// Size returns the file size in bytes, only set on the first slot of a file.
func (e *Entry) Size() uint32 {
	return binary.LittleEndian.Uint32(e.view()[offSize:])
}

// Blocks returns the declared size of the file in blocks.
func (e *Entry) Blocks() int {
	return blocksFor(e.Size())
}

func blocksFor(size uint32) int {
	return int((uint64(size) + BlockSize - 1) / BlockSize)
}

// Next returns the slot of the following block of the file or EndOfChain.
func (e *Entry) Next() uint16 {
	return binary.LittleEndian.Uint16(e.view()[offNext:])
}

func (e *Entry) setNext(v uint16) {
	binary.LittleEndian.PutUint16(e.view()[offNext:], v)
	seal(e.view())
}

func (e *Entry) free() {
	binary.LittleEndian.PutUint32(e.view()[offState:], e.State()&0xf|StateFree)
	e.setNext(EndOfChain)
}

// ChecksumValid returns whether the directory frame checksum is correct.
func (e *Entry) ChecksumValid() bool {
	return checksum(e.view()) == e.view()[offChecksum]
}

// Name returns the filename.
func (e *Entry) Name() string {
	b := e.view()[offFilename : offFilename+filenameLength]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func substr(s string, start, end int) string {
	if start > len(s) {
		return ""
	}
	if end > len(s) || end < 0 {
		end = len(s)
	}
	return s[start:end]
}

// Region returns the region prefix of the filename, such as "BE" or "BA".
func (e *Entry) Region() string {
	return substr(e.Name(), 0, 2)
}

// ProductCode returns the product code of the game, such as "SLES-00001".
func (e *Entry) ProductCode() string {
	return substr(e.Name(), 2, 12)
}

// Identifier returns the rest of the filename chosen by the game.
func (e *Entry) Identifier() string {
	return substr(e.Name(), 12, -1)
}

// Rescan rebuilds the list of entries from the directory, it is only needed
// if the image buffer was changed behind the back of the card.
func (c *Card) Rescan() {
	var entries []*Entry
	for i := 0; i < Slots; i++ {
		if e := c.slot(i); e.InUse() && e.IsFirst() {
			entries = append(entries, e)
		}
	}
	c.entries = entries
}

// Files returns the entries of the card.
func (c *Card) Files() []*Entry {
	return append([]*Entry(nil), c.entries...)
}

// Entries returns the entries of the card in directory order.
func (c *Card) Entries() []memcard.Entry {
	entries := make([]memcard.Entry, len(c.entries))
	for i, e := range c.entries {
		entries[i] = e
	}
	return entries
}

// indexOf finds e in the list of entries by its slot, so entries from
// before a Rescan are still found
func (c *Card) indexOf(e memcard.Entry) int {
	if e == nil || e.Card() != memcard.Card(c) {
		return -1
	}
	for i, entry := range c.entries {
		if entry.slot == e.Index() {
			return i
		}
	}
	return -1
}
