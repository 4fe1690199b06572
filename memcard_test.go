package memcard_test

import (
	"encoding/binary"
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/bodgit/memcard"
	"github.com/bodgit/memcard/psx"
	"github.com/bodgit/memcard/vmu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{"psx", "vmu"}, memcard.Formats())

	for _, name := range memcard.Formats() {
		size, err := memcard.Size(name)
		require.NoError(t, err)
		assert.Equal(t, 128<<10, size)
	}

	_, err := memcard.Size("zip")
	assert.Equal(t, memcard.ErrUnknownFormat, err)

	_, ok := memcard.FormatForExtension(".zip")
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	_, err := memcard.Parse("vmu", make([]byte, 131071), nil)

	var serr *memcard.SizeError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "vmu: size mismatch, expected 131072 bytes, buffer contains 131071 bytes", err.Error())

	_, err = memcard.Parse("zip", nil, nil)
	assert.Equal(t, memcard.ErrUnknownFormat, err)
}

func TestOpenWrite(t *testing.T) {
	dir := t.TempDir()

	for _, name := range memcard.Formats() {
		c, err := memcard.New(name, nil)
		require.NoError(t, err)

		file := filepath.Join(dir, name)
		require.NoError(t, memcard.WriteFile(c, file))

		b, err := ioutil.ReadFile(file)
		require.NoError(t, err)
		assert.Equal(t, c.Bytes(), b)

		o, err := memcard.Open(name, file, nil)
		require.NoError(t, err)
		assert.Equal(t, c.Bytes(), o.Bytes())
		assert.Empty(t, o.Entries())
	}

	_, err := memcard.Open("vmu", filepath.Join(dir, "missing"), nil)
	assert.Error(t, err)
}

func TestCopyBetweenFormats(t *testing.T) {
	v, err := memcard.New("vmu", nil)
	require.NoError(t, err)

	s := &vmu.Save{Data: make([]byte, vmu.BlockSize)}
	s.Dirent[0x00] = byte(vmu.TypeGame)
	copy(s.Dirent[0x04:], "GAME")
	binary.LittleEndian.PutUint16(s.Dirent[0x18:], 1)
	e, err := v.(*vmu.Card).Import(s)
	require.NoError(t, err)

	p := psx.New(nil)
	_, err = p.Copy(e)
	assert.Equal(t, memcard.ErrFormatMismatch, err)
}

func TestIconCache(t *testing.T) {
	c := vmu.New(nil)

	s := &vmu.Save{Data: make([]byte, 2*vmu.BlockSize)}
	s.Dirent[0x00] = byte(vmu.TypeData)
	copy(s.Dirent[0x04:], "CACHED")
	binary.LittleEndian.PutUint16(s.Dirent[0x18:], 2)
	binary.LittleEndian.PutUint16(s.Data[0x40:], 1)
	e, err := c.Import(s)
	require.NoError(t, err)

	cache := memcard.NewIconCache()
	m, err := cache.Icon(e, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	again, err := cache.Icon(e, 0)
	require.NoError(t, err)
	assert.True(t, m == again)

	_, err = cache.Icon(e, 1)
	var ierr *memcard.IndexError
	assert.True(t, errors.As(err, &ierr))
	assert.Equal(t, 1, cache.Len())

	cache.Invalidate(vmu.New(nil))
	assert.Equal(t, 1, cache.Len())

	cache.Invalidate(c)
	assert.Equal(t, 0, cache.Len())

	_, err = cache.Icon(e, 0)
	require.NoError(t, err)
	cache.Reset()
	assert.Equal(t, 0, cache.Len())
}
