package vmu

import (
	"encoding/binary"
	"fmt"

	"github.com/bodgit/memcard"
)

func (c *Card) lookup(e memcard.Entry) (*Entry, error) {
	i := c.indexOf(e)
	if i < 0 {
		return nil, memcard.ErrNotFound
	}
	entry := c.entries[i]
	if entry.Type() == TypeNone {
		return nil, memcard.ErrNotInUse
	}
	return entry, nil
}

// checkChain verifies the chain of e matches its declared size
func (c *Card) checkChain(e *Entry) (int, error) {
	n, err := c.VerifyChain(e.FirstBlock())
	if err != nil {
		return 0, err
	}
	if n == 0 || n != int(e.Size()) {
		return 0, &memcard.ChainError{
			Format: Name,
			Block:  int(e.FirstBlock()),
			Value:  n,
			Reason: fmt.Sprintf("size doesn't match, metadata (%d) vs detected (%d)", e.Size(), n),
		}
	}
	return n, nil
}

// Verify returns the length of the block chain of e.
func (c *Card) Verify(e memcard.Entry) (int, error) {
	entry, err := c.lookup(e)
	if err != nil {
		return 0, err
	}
	return c.VerifyChain(entry.FirstBlock())
}

// Delete removes e from the card, freeing its blocks. The chain is verified
// against the declared size of the file before anything is changed.
func (c *Card) Delete(e memcard.Entry) error {
	entry, err := c.lookup(e)
	if err != nil {
		return err
	}

	if _, err := c.checkChain(entry); err != nil {
		return err
	}

	c.logger.Printf("Deleting %s file %q\n", entry.Type(), entry.Name())

	i := c.indexOf(e)
	entry.view()[offType] = byte(TypeNone)
	c.freeBlocks(entry.FirstBlock())

	c.entries = append(c.entries[:i], c.entries[i+1:]...)

	return nil
}

// Export copies e and all of its blocks, in chain order, out of the card.
func (c *Card) Export(e memcard.Entry) (*Save, error) {
	entry, err := c.lookup(e)
	if err != nil {
		return nil, err
	}

	n, err := c.checkChain(entry)
	if err != nil {
		return nil, err
	}

	s := &Save{
		Data: make([]byte, 0, n*BlockSize),
	}
	copy(s.Dirent[:], entry.view())

	for _, block := range c.chain(entry.FirstBlock()) {
		s.Data = append(s.Data, c.block(block)...)
	}

	return s, nil
}

// Import writes s to the card as a new file. Blocks are only allocated once
// both enough free blocks and a free directory slot have been found.
func (c *Card) Import(s *Save) (*Entry, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}

	blocks, err := c.FindFree(s.Blocks())
	if err != nil {
		return nil, err
	}

	slot, err := c.freeSlot()
	if err != nil {
		return nil, err
	}

	for i, block := range blocks {
		c.logger.Printf("Copy block %d -> %d\n", i, block)
		copy(c.block(block), s.Data[i*BlockSize:])

		if i < len(blocks)-1 {
			c.setNext(block, uint16(blocks[i+1]))
		} else {
			c.setNext(block, LastBlock)
		}
	}

	copy(slot.view(), s.Dirent[:])
	binary.LittleEndian.PutUint16(slot.view()[offFirstBlock:], uint16(blocks[0]))

	c.entries = append(c.entries, slot)

	return slot, nil
}

// Copy duplicates e from any VMU card, including this one, onto this card.
func (c *Card) Copy(e memcard.Entry) (memcard.Entry, error) {
	src, ok := e.(*Entry)
	if !ok {
		return nil, memcard.ErrFormatMismatch
	}

	s, err := src.card.Export(src)
	if err != nil {
		return nil, err
	}

	entry, err := c.Import(s)
	if err != nil {
		return nil, err
	}

	return entry, nil
}
