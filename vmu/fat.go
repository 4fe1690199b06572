package vmu

import (
	"encoding/binary"

	"github.com/bodgit/memcard"
)

// invalidBlock is returned by Next for blocks outside the card, it is not a
// value the FAT can hold for any valid chain
const invalidBlock = 0xffff

func validBlock(v uint16) bool {
	return v&0xff00 == 0
}

// Next returns the FAT entry for block: the following block of its chain,
// LastBlock or FreeBlock.
func (c *Card) Next(block int) uint16 {
	if block < 0 || block >= TotalBlocks {
		return invalidBlock
	}
	return binary.LittleEndian.Uint16(c.fat[block*2:])
}

func (c *Card) setNext(block int, v uint16) {
	binary.LittleEndian.PutUint16(c.fat[block*2:], v)
}

// VerifyChain walks the chain starting at block and returns the number of
// blocks in it, including the last. A chain starting with FreeBlock is
// empty. Meeting an unallocated block or a value that is neither a block
// number nor a sentinel before the end of the chain is an error, as is a
// chain longer than the card.
func (c *Card) VerifyChain(block uint16) (int, error) {
	if block == FreeBlock {
		return 0, nil
	}

	prev, n := int(block), 0
	for block != LastBlock {
		switch {
		case block == FreeBlock:
			return n, &memcard.ChainError{Format: Name, Block: prev, Value: int(block), Reason: "free block found in chain"}
		case !validBlock(block):
			return n, &memcard.ChainError{Format: Name, Block: prev, Value: int(block), Reason: "unknown block value"}
		case n == TotalBlocks:
			return n, &memcard.ChainError{Format: Name, Block: prev, Value: int(block), Reason: "chain does not terminate"}
		}
		prev = int(block)
		block = c.Next(prev)
		n++
	}

	return n, nil
}

// follow returns the block steps links after block
func (c *Card) follow(block, steps int) (int, error) {
	for i := 0; i < steps; i++ {
		next := c.Next(block)
		if !validBlock(next) {
			return 0, &memcard.ChainError{Format: Name, Block: block, Value: int(next), Reason: "chain ends early"}
		}
		block = int(next)
	}
	return block, nil
}

// chain returns every block of a chain already known to be sound
func (c *Card) chain(block uint16) []int {
	var blocks []int
	for validBlock(block) && len(blocks) < TotalBlocks {
		blocks = append(blocks, int(block))
		block = c.Next(int(block))
	}
	return blocks
}

// freeBlocks releases a chain already known to be sound.
func (c *Card) freeBlocks(block uint16) int {
	blocks := c.chain(block)
	for _, b := range blocks {
		c.logger.Printf("Freeing block %d\n", b)
		c.setNext(b, FreeBlock)
	}
	return len(blocks)
}

func (c *Card) searchLimit() int {
	limit := int(c.UserBlocks())
	if limit > TotalBlocks {
		limit = TotalBlocks
	}
	return limit
}

// nextFree returns the highest unallocated block below start
func (c *Card) nextFree(start int) (int, bool) {
	for block := start - 1; block >= 0; block-- {
		if c.Next(block) == FreeBlock {
			return block, true
		}
	}
	return 0, false
}

// FindFree returns n unallocated user blocks, searching downwards from the
// top of the user area. The card is not modified.
func (c *Card) FindFree(n int) ([]int, error) {
	blocks := make([]int, 0, n)
	start := c.searchLimit()
	for len(blocks) < n {
		block, ok := c.nextFree(start)
		if !ok {
			return nil, &memcard.AllocationError{Format: Name, Requested: n, Available: c.FreeBlocks()}
		}
		blocks = append(blocks, block)
		start = block

		// Only blocks below this one remain
		if n-len(blocks) > block {
			return nil, &memcard.AllocationError{Format: Name, Requested: n, Available: c.FreeBlocks()}
		}
	}
	return blocks, nil
}

// FreeBlocks returns the number of unallocated user blocks.
func (c *Card) FreeBlocks() int {
	var n int
	for block := 0; block < c.searchLimit(); block++ {
		if c.Next(block) == FreeBlock {
			n++
		}
	}
	return n
}
