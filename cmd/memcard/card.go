package main

import (
	"encoding"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/memcard"
	"github.com/bodgit/memcard/icon"
	"github.com/bodgit/memcard/psx"
	"github.com/bodgit/memcard/vmu"
)

var errNoFormat = errors.New("unable to determine card format, use --format")

// formatOf returns the explicit format if set, otherwise the format
// conventionally stored with the extension of file
func formatOf(explicit, file string) (string, error) {
	if explicit != "" {
		if _, err := memcard.Size(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}
	if name, ok := memcard.FormatForExtension(filepath.Ext(file)); ok {
		return name, nil
	}
	return "", errNoFormat
}

func newLogger(verbose bool) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func openCard(format, file string, logger *log.Logger) (memcard.Card, error) {
	name, err := formatOf(format, file)
	if err != nil {
		return nil, err
	}
	return memcard.Open(name, file, logger)
}

func findEntry(c memcard.Card, arg string) (memcard.Entry, error) {
	slot, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid slot %q", arg)
	}
	for _, e := range c.Entries() {
		if e.Index() == slot {
			return e, nil
		}
	}
	return nil, memcard.ErrNotFound
}

func listCard(w func(string, ...interface{}), c memcard.Card) {
	for _, e := range c.Entries() {
		description := ""
		frames := 0
		if h, err := c.Header(e); err == nil {
			description = h.Description()
			frames = h.Frames()
		}
		w("%3d  %-21s  %3d  %d  %s\n", e.Index(), e.Name(), e.Blocks(), frames, description)
	}
	w("%d blocks free\n", c.FreeBlocks())
}

func exportSave(c memcard.Card, e memcard.Entry) (encoding.BinaryMarshaler, string, error) {
	switch c := c.(type) {
	case *vmu.Card:
		s, err := c.Export(e)
		if err != nil {
			return nil, "", err
		}
		return s, s.Filename(), nil
	case *psx.Card:
		s, err := c.Export(e)
		if err != nil {
			return nil, "", err
		}
		return s, s.Filename(), nil
	default:
		return nil, "", memcard.ErrUnknownFormat
	}
}

func importSave(c memcard.Card, b []byte) (memcard.Entry, error) {
	switch c := c.(type) {
	case *vmu.Card:
		s := new(vmu.Save)
		if err := s.UnmarshalBinary(b); err != nil {
			return nil, err
		}
		e, err := c.Import(s)
		if err != nil {
			return nil, err
		}
		return e, nil
	case *psx.Card:
		s := new(psx.Save)
		if err := s.UnmarshalBinary(b); err != nil {
			return nil, err
		}
		e, err := c.Import(s)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, memcard.ErrUnknownFormat
	}
}

// writeIcon writes the icon of e as a PNG of the first frame or, if file has
// a .gif extension, an animated GIF of every frame
func writeIcon(c memcard.Card, e memcard.Entry, file string) error {
	h, err := c.Header(e)
	if err != nil {
		return err
	}

	frames := make([]*image.Paletted, 0, h.Frames())
	for i := 0; i < h.Frames(); i++ {
		m, err := h.Icon(i)
		if err != nil {
			return err
		}
		frames = append(frames, m)
	}
	if len(frames) == 0 {
		return fmt.Errorf("%q has no icon", e.Name())
	}

	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.ToLower(filepath.Ext(file)) == ".gif" {
		return gif.EncodeAll(f, icon.Animate(frames, h.Interval()))
	}

	return png.Encode(f, frames[0])
}

func readImages(files []string) ([]image.Image, error) {
	images := make([]image.Image, 0, len(files))
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		m, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		images = append(images, m)
	}
	return images, nil
}
