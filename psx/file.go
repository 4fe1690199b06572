package psx

import (
	"fmt"

	"github.com/bodgit/memcard"
)

func (c *Card) lookup(e memcard.Entry) (*Entry, error) {
	i := c.indexOf(e)
	if i < 0 {
		return nil, memcard.ErrNotFound
	}
	entry := c.entries[i]
	if entry.Free() {
		return nil, memcard.ErrNotInUse
	}
	return entry, nil
}

// checkChain verifies the chain of e matches its declared size
func (c *Card) checkChain(e *Entry) (int, error) {
	n, err := c.VerifyChain(e.slot)
	if err != nil {
		return 0, err
	}
	if n != e.Blocks() {
		return 0, &memcard.ChainError{
			Format: Name,
			Block:  e.Block(),
			Value:  n,
			Reason: fmt.Sprintf("size doesn't match, metadata (%d) vs detected (%d)", e.Blocks(), n),
		}
	}
	return n, nil
}

// Verify returns the length of the chain of e.
func (c *Card) Verify(e memcard.Entry) (int, error) {
	entry, err := c.lookup(e)
	if err != nil {
		return 0, err
	}
	return c.VerifyChain(entry.slot)
}

// Delete frees every slot of e. The whole chain is verified against the
// declared size of the file before any slot is changed.
func (c *Card) Delete(e memcard.Entry) error {
	entry, err := c.lookup(e)
	if err != nil {
		return err
	}

	if _, err := c.checkChain(entry); err != nil {
		return err
	}

	c.logger.Printf("Deleting %q\n", entry.Name())

	i := c.indexOf(e)
	for _, slot := range c.chain(entry.slot) {
		c.logger.Printf("Freeing block %d\n", slot.Block())
		slot.free()
	}

	c.entries = append(c.entries[:i], c.entries[i+1:]...)

	return nil
}

// Export copies the directory frames and data blocks of e out of the card,
// in chain order.
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
		Frames: make([][FrameSize]byte, 0, n),
		Data:   make([]byte, 0, n*BlockSize),
	}
	for _, slot := range c.chain(entry.slot) {
		var f [FrameSize]byte
		copy(f[:], slot.view())
		s.Frames = append(s.Frames, f)
		s.Data = append(s.Data, c.block(slot.Block())...)
	}

	return s, nil
}

// Import writes s to the first free slots of the card, the first of them
// becoming the directory entry of the file.
func (c *Card) Import(s *Save) (*Entry, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}

	slots, err := c.FindFree(len(s.Frames))
	if err != nil {
		return nil, err
	}

	for i, slot := range slots {
		e := c.slot(slot)
		c.logger.Printf("Copy block %d -> %d\n", i, e.Block())

		copy(e.view(), s.Frames[i][:])
		copy(c.block(e.Block()), s.Data[i*BlockSize:(i+1)*BlockSize])

		next := uint16(EndOfChain)
		if i < len(slots)-1 {
			next = uint16(slots[i+1])
		}
		e.setNext(next)
	}

	entry := c.slot(slots[0])
	c.entries = append(c.entries, entry)

	return entry, nil
}

// Copy duplicates e from any PSX card, including this one, onto this card.
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
