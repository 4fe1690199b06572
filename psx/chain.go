package psx

import (
	"github.com/bodgit/memcard"
)

// Next returns the next pointer of slot.
func (c *Card) Next(slot int) uint16 {
	if slot < 0 || slot >= Slots {
		return EndOfChain
	}
	return c.slot(slot).Next()
}

// VerifyChain walks the chain starting at slot and returns the number of
// slots in it. Every slot of the chain must be in use and every next pointer
// must name a slot, a chain visiting more slots than the card has is an
// error.
func (c *Card) VerifyChain(slot int) (int, error) {
	if slot < 0 || slot >= Slots {
		return 0, &memcard.ChainError{Format: Name, Block: slot + 1, Value: slot, Reason: "slot out of range"}
	}

	n := 0
	for {
		e := c.slot(slot)
		switch {
		case !e.InUse():
			return n, &memcard.ChainError{Format: Name, Block: e.Block(), Value: int(e.State()), Reason: "slot not in use found in chain"}
		case n == Slots:
			return n, &memcard.ChainError{Format: Name, Block: e.Block(), Value: slot, Reason: "chain does not terminate"}
		}
		n++

		next := e.Next()
		if next == EndOfChain {
			return n, nil
		}
		if int(next) >= Slots {
			return n, &memcard.ChainError{Format: Name, Block: e.Block(), Value: int(next), Reason: "unknown next pointer"}
		}
		slot = int(next)
	}
}

// chain returns every slot of a chain already known to be sound
func (c *Card) chain(slot int) []*Entry {
	var entries []*Entry
	for len(entries) < Slots {
		e := c.slot(slot)
		entries = append(entries, e)
		next := e.Next()
		if int(next) >= Slots {
			break
		}
		slot = int(next)
	}
	return entries
}

// FindFree returns the first n free slots in increasing order. The card is
// not modified.
func (c *Card) FindFree(n int) ([]int, error) {
	slots := make([]int, 0, n)
	for i := 0; i < Slots && len(slots) < n; i++ {
		if c.slot(i).Free() {
			slots = append(slots, i)
		}
	}
	if len(slots) < n {
		return nil, &memcard.AllocationError{Format: Name, Requested: n, Available: len(slots)}
	}
	return slots, nil
}

// FreeBlocks returns the number of free slots.
func (c *Card) FreeBlocks() int {
	var n int
	for i := 0; i < Slots; i++ {
		if c.slot(i).Free() {
			n++
		}
	}
	return n
}
