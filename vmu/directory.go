package vmu

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/bodgit/memcard"
	"github.com/bodgit/memcard/bcd"
)

// Directory entry layout
const (
	offType         = 0x00
	offCopyProtect  = 0x01
	offFirstBlock   = 0x02
	offFilename     = 0x04
	filenameLength  = 12
	offEntryTime    = 0x10
	offEntrySize    = 0x18
	offHeaderOffset = 0x1a
)

// Entry is a directory entry of a Card.
type Entry struct {
	card   *Card
	index  int
	offset int
}

func (e *Entry) view() []byte {
	return e.card.b[e.offset : e.offset+DirectoryEntrySize]
}

// Card returns the card holding the entry.
func (e *Entry) Card() memcard.Card {
	return e.card
}

// Index returns the position of the entry within the directory.
func (e *Entry) Index() int {
	return e.index
}

// Type returns the kind of file.
func (e *Entry) Type() Type {
	return Type(e.view()[offType])
}

// CopyProtected returns whether the VMS refuses to copy the file.
func (e *Entry) CopyProtected() bool {
	return e.view()[offCopyProtect] == 0xff
}

// FirstBlock returns the first block of the file.
func (e *Entry) FirstBlock() uint16 {
	return binary.LittleEndian.Uint16(e.view()[offFirstBlock:])
}

// Name returns the filename.
func (e *Entry) Name() string {
	return string(bytes.TrimRight(e.view()[offFilename:offFilename+filenameLength], "\x00"))
}

// Timestamp returns when the file was created.
func (e *Entry) Timestamp() (time.Time, error) {
	return bcd.Decode(e.view()[offEntryTime:])
}

// Size returns the declared size of the file in blocks.
func (e *Entry) Size() uint16 {
	return binary.LittleEndian.Uint16(e.view()[offEntrySize:])
}

// Blocks returns the declared size of the file in blocks.
func (e *Entry) Blocks() int {
	return int(e.Size())
}

// HeaderOffset returns how many blocks into the file the content header is.
func (e *Entry) HeaderOffset() uint16 {
	return binary.LittleEndian.Uint16(e.view()[offHeaderOffset:])
}

// directoryBlocks follows the directory chain from the root block
func (c *Card) directoryBlocks() ([]int, error) {
	size := int(c.DirectorySize())
	if size > TotalBlocks {
		return nil, &memcard.ChainError{Format: Name, Block: RootBlock, Value: size, Reason: "directory larger than card"}
	}

	blocks := make([]int, 0, size)
	block := c.DirectoryLocation()
	for i := 0; i < size; i++ {
		if !validBlock(block) {
			return nil, &memcard.ChainError{Format: Name, Block: RootBlock, Value: int(block), Reason: "directory chain ends early"}
		}
		blocks = append(blocks, int(block))
		block = c.Next(int(block))
	}

	return blocks, nil
}

// slots calls fn with every directory slot in order until it returns false
func (c *Card) slots(fn func(*Entry) bool) error {
	blocks, err := c.directoryBlocks()
	if err != nil {
		return err
	}
	for i, block := range blocks {
		for j := 0; j < EntriesPerBlock; j++ {
			e := &Entry{
				card:   c,
				index:  i*EntriesPerBlock + j,
				offset: block*BlockSize + j*DirectoryEntrySize,
			}
			if !fn(e) {
				return nil
			}
		}
	}
	return nil
}

// Rescan rebuilds the list of entries from the directory, it is only needed
// if the image buffer was changed behind the back of the card.
func (c *Card) Rescan() error {
	var entries []*Entry
	if err := c.slots(func(e *Entry) bool {
		if e.Type() != TypeNone {
			entries = append(entries, e)
		}
		return true
	}); err != nil {
		return err
	}
	c.entries = entries
	return nil
}

func (c *Card) freeSlot() (*Entry, error) {
	var slot *Entry
	if err := c.slots(func(e *Entry) bool {
		if e.Type() == TypeNone {
			slot = e
			return false
		}
		return true
	}); err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, memcard.ErrDirectoryFull
	}
	return slot, nil
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

// indexOf finds e in the list of entries by its directory slot, so entries
// from before a Rescan are still found
func (c *Card) indexOf(e memcard.Entry) int {
	if e == nil || e.Card() != memcard.Card(c) {
		return -1
	}
	for i, entry := range c.entries {
		if entry.index == e.Index() {
			return i
		}
	}
	return -1
}
