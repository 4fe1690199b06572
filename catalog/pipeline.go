package catalog

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/bodgit/memcard"
)

const workers = 10

type candidate struct {
	path   string
	format string
}

type record struct {
	candidate
	free  int
	saves []Save
	icons [][]byte
}

// findCards walks base sending every file whose extension and size match a
// registered card format
func (c *Catalog) findCards(ctx context.Context, base string) (<-chan candidate, <-chan error, error) {
	out := make(chan candidate)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() {
				return nil
			}

			format, ok := memcard.FormatForExtension(filepath.Ext(file))
			if !ok {
				return nil
			}

			size, err := memcard.Size(format)
			if err != nil {
				return err
			}
			if info.Size() != int64(size) {
				c.logger.Printf("Skipping \"%s\", %d bytes is the wrong size for %s\n", file, info.Size(), format)
				return nil
			}

			select {
			case out <- candidate{file, format}:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (c *Catalog) read(in candidate) (record, error) {
	card, err := memcard.Open(in.format, in.path, c.logger)
	if err != nil {
		return record{}, err
	}

	r := record{
		candidate: in,
		free:      card.FreeBlocks(),
	}

	for _, e := range card.Entries() {
		s := Save{
			Path:   in.path,
			Format: in.format,
			Slot:   e.Index(),
			Name:   e.Name(),
			Blocks: e.Blocks(),
		}

		var icon []byte
		if h, err := card.Header(e); err == nil {
			s.Description = h.Description()
			s.Frames = h.Frames()
			if icon, err = encodeIcon(h); err != nil {
				c.logger.Printf("No icon for \"%s\" in \"%s\": %v\n", e.Name(), in.path, err)
			}
		} else {
			c.logger.Printf("No header for \"%s\" in \"%s\": %v\n", e.Name(), in.path, err)
		}

		r.saves = append(r.saves, s)
		r.icons = append(r.icons, icon)
	}

	return r, nil
}

func encodeIcon(h memcard.Header) ([]byte, error) {
	if h.Frames() == 0 {
		return nil, nil
	}
	m, err := h.Icon(0)
	if err != nil {
		return nil, err
	}
	b := new(bytes.Buffer)
	if err := png.Encode(b, m); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (c *Catalog) cardWorker(ctx context.Context, in <-chan candidate, out chan<- record, wg *sync.WaitGroup) (<-chan error, error) {
	errc := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(errc)
		for cand := range in {
			r, err := c.read(cand)
			if err != nil {
				// A damaged card shouldn't stop the scan
				c.logger.Printf("Unable to read \"%s\": %v\n", cand.path, err)
				continue
			}

			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return errc, nil
}

// writer is the only goroutine touching the database during a scan
func (c *Catalog) writer(in <-chan record) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for r := range in {
			if err := c.store(r); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func (c *Catalog) store(r record) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}

	id, err := addCard(tx, r.path, r.format, r.free)
	if err != nil {
		tx.Rollback()
		return err
	}

	for i, s := range r.saves {
		if err := addSave(tx, id, s, r.icons[i]); err != nil {
			tx.Rollback()
			return err
		}
	}

	c.logger.Printf("Indexed \"%s\", %d saves\n", r.path, len(r.saves))

	return tx.Commit()
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks path indexing every card image found. Files are matched to a
// card format by their extension, the engine for the format must have been
// registered by importing its package.
func (c *Catalog) Scan(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	cards, errc, err := c.findCards(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	records := make(chan record)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		errc, err := c.cardWorker(ctx, cards, records, &wg)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}
	go func() {
		wg.Wait()
		close(records)
	}()

	errc, err = c.writer(records)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	return waitForPipeline(errcList...)
}
