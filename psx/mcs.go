package psx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var errShortSave = errors.New("psx: save data is truncated")

// Save is a file lifted off a card: the directory frame and data block of
// every slot of its chain in order. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces using
// the MCS layout, which only stores the first directory frame.
type Save struct {
	Frames [][FrameSize]byte
	Data   []byte
}

func (s *Save) head() []byte {
	if len(s.Frames) == 0 {
		return make([]byte, FrameSize)
	}
	return s.Frames[0][:]
}

// Name returns the filename.
func (s *Save) Name() string {
	b := s.head()[offFilename : offFilename+filenameLength]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Blocks returns the declared size of the file in blocks.
func (s *Save) Blocks() int {
	return blocksFor(binary.LittleEndian.Uint32(s.head()[offSize:]))
}

func (s *Save) valid() error {
	if len(s.Frames) == 0 {
		return fmt.Errorf("psx: save has no directory frames")
	}
	if state := binary.LittleEndian.Uint32(s.Frames[0][offState:]); state&StateFree == StateFree || state&0xf != FirstBlock {
		return fmt.Errorf("psx: save %q doesn't start with a first block (%#02x)", s.Name(), state)
	}
	if s.Blocks() != len(s.Frames) || len(s.Data) != len(s.Frames)*BlockSize {
		return fmt.Errorf("psx: save %q declares %d blocks, has %d frames and %d bytes", s.Name(), s.Blocks(), len(s.Frames), len(s.Data))
	}
	return nil
}

// Filename returns a suitable name to store the save under.
func (s *Save) Filename() string {
	return strings.TrimSpace(s.Name()) + ".mcs"
}

// MarshalBinary encodes the save as an MCS file.
func (s *Save) MarshalBinary() ([]byte, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}

	b := make([]byte, 0, FrameSize+len(s.Data))
	b = append(b, s.Frames[0][:]...)
	b = append(b, s.Data...)

	return b, nil
}

// UnmarshalBinary decodes an MCS file. The directory frames of every block
// after the first are rebuilt, their next pointers are set by Import.
func (s *Save) UnmarshalBinary(b []byte) error {
	if len(b) < FrameSize {
		return errShortSave
	}

	var head [FrameSize]byte
	copy(head[:], b)
	s.Frames = [][FrameSize]byte{head}

	n := s.Blocks()
	if n == 0 {
		return fmt.Errorf("psx: save %q has no data", s.Name())
	}
	if n > Slots {
		return fmt.Errorf("psx: save %q declares %d blocks, a card holds %d", s.Name(), n, Slots)
	}
	if len(b)-FrameSize < n*BlockSize {
		return errShortSave
	}

	for i := 1; i < n; i++ {
		var f [FrameSize]byte
		state := uint32(StateInUse | MidBlock)
		if i == n-1 {
			state = StateInUse | LastBlock
		}
		binary.LittleEndian.PutUint32(f[offState:], state)
		binary.LittleEndian.PutUint16(f[offNext:], EndOfChain)
		seal(f[:])
		s.Frames = append(s.Frames, f)
	}

	s.Data = append([]byte(nil), b[FrameSize:FrameSize+n*BlockSize]...)

	return s.valid()
}
