package vmu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var errShortSave = errors.New("vmu: save data is truncated")

// Save is a file lifted off a card: its directory entry and the contents of
// every block of its chain in order. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces using
// the Nexus DCI layout.
type Save struct {
	Dirent [DirectoryEntrySize]byte
	Data   []byte
}

// Type returns the kind of file.
func (s *Save) Type() Type {
	return Type(s.Dirent[offType])
}

// Name returns the filename.
func (s *Save) Name() string {
	return strings.TrimRight(string(s.Dirent[offFilename:offFilename+filenameLength]), "\x00")
}

// Blocks returns the declared size of the file in blocks.
func (s *Save) Blocks() int {
	return int(binary.LittleEndian.Uint16(s.Dirent[offEntrySize:]))
}

func (s *Save) valid() error {
	if s.Type() == TypeNone {
		return fmt.Errorf("vmu: save %q has no type", s.Name())
	}
	if s.Blocks() == 0 || len(s.Data) != s.Blocks()*BlockSize {
		return fmt.Errorf("vmu: save %q declares %d blocks, has %d bytes", s.Name(), s.Blocks(), len(s.Data))
	}
	return nil
}

// Filename returns a suitable name to store the save under.
func (s *Save) Filename() string {
	return strings.TrimSpace(s.Name()) + ".dci"
}

// Every 32-bit word of DCI data is byte swapped
func swapWords(dst, src []byte) {
	for i := 0; i+4 <= len(src); i += 4 {
		binary.BigEndian.PutUint32(dst[i:], binary.LittleEndian.Uint32(src[i:]))
	}
}

// MarshalBinary encodes the save as a DCI file.
func (s *Save) MarshalBinary() ([]byte, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}

	b := make([]byte, DirectoryEntrySize+len(s.Data))
	copy(b, s.Dirent[:])
	swapWords(b[DirectoryEntrySize:], s.Data)

	return b, nil
}

// UnmarshalBinary decodes a DCI file.
func (s *Save) UnmarshalBinary(b []byte) error {
	if len(b) < DirectoryEntrySize {
		return errShortSave
	}

	copy(s.Dirent[:], b)

	n := s.Blocks() * BlockSize
	if len(b)-DirectoryEntrySize < n {
		return errShortSave
	}

	s.Data = make([]byte, n)
	swapWords(s.Data, b[DirectoryEntrySize:DirectoryEntrySize+n])

	return s.valid()
}
