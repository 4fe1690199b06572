package memcard

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entry is not in the directory of
	// the card it is given to.
	ErrNotFound = errors.New("memcard: entry not found")
	// ErrNotInUse is returned when operating on an entry that has already
	// been deleted.
	ErrNotInUse = errors.New("memcard: entry not in use")
	// ErrFormatMismatch is returned when an entry is copied between cards
	// of different formats.
	ErrFormatMismatch = errors.New("memcard: card formats differ")
	// ErrDirectoryFull is returned when a card has no free directory
	// slot for a new file.
	ErrDirectoryFull = errors.New("memcard: no free directory entry")
	// ErrUnknownFormat is returned for format names nothing registered.
	ErrUnknownFormat = errors.New("memcard: unknown format")
)

// SizeError is returned when an image buffer is not exactly the size of the
// card format.
type SizeError struct {
	Format           string
	Expected, Actual int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%s: size mismatch, expected %d bytes, buffer contains %d bytes", e.Format, e.Expected, e.Actual)
}

// ChainError is returned when walking a block chain finds a link that can't
// be followed.
type ChainError struct {
	Format string
	Block  int // block or slot being read
	Value  int // offending link value, or length for size mismatches
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("%s: corrupt chain at block %d (%#04x): %s", e.Format, e.Block, e.Value, e.Reason)
}

// AllocationError is returned when a card doesn't have room for a file.
type AllocationError struct {
	Format    string
	Requested int
	Available int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("%s: not enough space to allocate %d blocks, only %d free", e.Format, e.Requested, e.Available)
}

// IndexError is returned when asking for an icon frame beyond those the
// file declares.
type IndexError struct {
	Index, Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("memcard: icon frame %d requested, file has %d", e.Index, e.Count)
}
