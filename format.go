package memcard

import (
	"io/ioutil"
	"log"
	"sort"
	"strings"
	"sync"
)

type format struct {
	name       string
	size       int
	extensions []string
	parse      func([]byte, *log.Logger) (Card, error)
	create     func(*log.Logger) Card
}

var (
	formatsMu sync.Mutex
	formats   = make(map[string]format)
)

// RegisterFormat registers a card format for use by Parse, New and Open.
// Name is the name of the format, like "vmu" or "psx". Size is the exact
// length of an image. Extensions are the file extensions, including the dot,
// conventionally used for images of the format. Parse binds a card to an
// existing buffer, create formats a new blank card.
func RegisterFormat(name string, size int, extensions []string, parse func([]byte, *log.Logger) (Card, error), create func(*log.Logger) Card) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	formats[name] = format{name, size, extensions, parse, create}
}

func lookup(name string) (format, error) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	f, ok := formats[name]
	if !ok {
		return format{}, ErrUnknownFormat
	}
	return f, nil
}

// Formats returns the names of all registered formats, sorted.
func Formats() []string {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatForExtension returns the format conventionally stored in files with
// extension ext. The contents of a file are never examined.
func FormatForExtension(ext string) (string, bool) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	ext = strings.ToLower(ext)
	for _, f := range formats {
		for _, e := range f.extensions {
			if e == ext {
				return f.name, true
			}
		}
	}
	return "", false
}

// Size returns the exact image size of the named format.
func Size(name string) (int, error) {
	f, err := lookup(name)
	if err != nil {
		return 0, err
	}
	return f.size, nil
}

// Parse binds a card of the named format to b. The card takes ownership of
// b, it is modified in place by any later changes to the card.
func Parse(name string, b []byte, logger *log.Logger) (Card, error) {
	f, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if len(b) != f.size {
		return nil, &SizeError{Format: name, Expected: f.size, Actual: len(b)}
	}
	return f.parse(b, logger)
}

// New returns a freshly formatted card of the named format.
func New(name string, logger *log.Logger) (Card, error) {
	f, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return f.create(logger), nil
}

// Open reads and parses the image in file.
func Open(name, file string, logger *log.Logger) (Card, error) {
	if _, err := lookup(name); err != nil {
		return nil, err
	}
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return Parse(name, b, logger)
}

// WriteFile writes the image of c to file.
func WriteFile(c Card, file string) error {
	return ioutil.WriteFile(file, c.Bytes(), 0644)
}
