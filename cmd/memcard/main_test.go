package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/memcard"
	"github.com/bodgit/memcard/vmu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCard(t *testing.T, file string, names ...string) {
	t.Helper()

	c := vmu.New(nil)
	for _, name := range names {
		s := &vmu.Save{Data: make([]byte, 3*vmu.BlockSize)}
		s.Dirent[0x00] = byte(vmu.TypeData)
		copy(s.Dirent[0x04:], name)
		binary.LittleEndian.PutUint16(s.Dirent[0x18:], 3)
		copy(s.Data[0x10:], "Description of "+name)
		binary.LittleEndian.PutUint16(s.Data[0x40:], 2)
		binary.LittleEndian.PutUint16(s.Data[0x42:], 10)
		_, err := c.Import(s)
		require.NoError(t, err)
	}
	require.NoError(t, memcard.WriteFile(c, file))
}

func TestFormatOf(t *testing.T) {
	tables := []struct {
		explicit, file string
		want           string
		err            error
	}{
		{"", "card.vmu", "vmu", nil},
		{"", "CARD.BIN", "vmu", nil},
		{"", "card.mcr", "psx", nil},
		{"", "card.srm", "psx", nil},
		{"psx", "card.bin", "psx", nil},
		{"", "card.txt", "", errNoFormat},
		{"zip", "card.bin", "", memcard.ErrUnknownFormat},
	}

	for _, table := range tables {
		got, err := formatOf(table.explicit, table.file)
		assert.Equal(t, table.want, got)
		assert.Equal(t, table.err, err)
	}
}

func TestFindEntry(t *testing.T) {
	file := filepath.Join(t.TempDir(), "card.vmu")
	writeCard(t, file, "ONE", "TWO")

	c, err := openCard("", file, nil)
	require.NoError(t, err)

	e, err := findEntry(c, "1")
	require.NoError(t, err)
	assert.Equal(t, "TWO", e.Name())

	_, err = findEntry(c, "5")
	assert.Equal(t, memcard.ErrNotFound, err)

	_, err = findEntry(c, "x")
	assert.Error(t, err)
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "card.vmu")
	writeCard(t, file, "SAVE")

	c, err := openCard("", file, nil)
	require.NoError(t, err)
	e, err := findEntry(c, "0")
	require.NoError(t, err)

	s, name, err := exportSave(c, e)
	require.NoError(t, err)
	assert.Equal(t, "SAVE.dci", name)

	b, err := s.MarshalBinary()
	require.NoError(t, err)

	imported, err := importSave(c, b)
	require.NoError(t, err)
	assert.Equal(t, "SAVE", imported.Name())
	assert.Len(t, c.Entries(), 2)
}

func TestWriteIcon(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "card.vmu")
	writeCard(t, file, "ICON")

	c, err := openCard("", file, nil)
	require.NoError(t, err)
	e, err := findEntry(c, "0")
	require.NoError(t, err)

	require.NoError(t, writeIcon(c, e, filepath.Join(dir, "icon.png")))
	f, err := os.Open(filepath.Join(dir, "icon.png"))
	require.NoError(t, err)
	defer f.Close()
	m, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 32, m.Bounds().Dx())

	require.NoError(t, writeIcon(c, e, filepath.Join(dir, "icon.gif")))
	g, err := os.Open(filepath.Join(dir, "icon.gif"))
	require.NoError(t, err)
	defer g.Close()
	anim, err := gif.DecodeAll(g)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 2)
	assert.Equal(t, []int{50, 50}, anim.Delay)
}

func TestShell(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.vmu"), filepath.Join(dir, "b.vmu")
	writeCard(t, a, "FIRST", "SECOND")
	writeCard(t, b)

	out := new(bytes.Buffer)
	sh := newShell("", nil)
	sh.out = out

	assert.Equal(t, errNoMount, sh.process("ls"))
	assert.True(t, errors.Is(sh.process("rm"), errArguments))
	assert.Error(t, sh.process("frobnicate"))

	require.NoError(t, sh.process("mount "+b))
	require.NoError(t, sh.process("mount "+a))
	assert.Equal(t, 1, sh.target)

	require.NoError(t, sh.process("cp 0 0"))
	assert.Contains(t, out.String(), `Copied "FIRST" to slot 0`)

	require.NoError(t, sh.process("rm 1"))
	assert.Equal(t, errBadMount, sh.process("use 7"))

	out.Reset()
	require.NoError(t, sh.process("cards"))
	assert.Contains(t, out.String(), "(modified)")

	require.NoError(t, sh.process("write"))
	require.NoError(t, sh.process("use 0"))
	require.NoError(t, sh.process("write"))

	out.Reset()
	require.NoError(t, sh.process("ls"))
	assert.Contains(t, out.String(), "FIRST")
	assert.Contains(t, out.String(), "197 blocks free")

	assert.Equal(t, errQuit, sh.process("quit"))

	ca, err := openCard("", a, nil)
	require.NoError(t, err)
	require.Len(t, ca.Entries(), 1)
	assert.Equal(t, "FIRST", ca.Entries()[0].Name())

	cb, err := openCard("", b, nil)
	require.NoError(t, err)
	require.Len(t, cb.Entries(), 1)
	assert.Equal(t, "FIRST", cb.Entries()[0].Name())
}
