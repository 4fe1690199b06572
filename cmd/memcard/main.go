package main

import (
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/memcard"
	"github.com/bodgit/memcard/catalog"
	_ "github.com/bodgit/memcard/psx"
	_ "github.com/bodgit/memcard/vmu"
	"github.com/urfave/cli/v2"
)

const defaultDB = "memcard.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func printf(format string, a ...interface{}) {
	fmt.Printf(format, a...)
}

func needArgs(c *cli.Context, n int) {
	if c.NArg() < n {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
}

// withCard opens the card named by the first argument, runs fn and writes
// the card back if fn says it changed
func withCard(c *cli.Context, fn func(memcard.Card) (bool, error)) error {
	file := c.Args().First()
	card, err := openCard(c.String("format"), file, newLogger(c.Bool("verbose")))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	changed, err := fn(card)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	if changed {
		if err := memcard.WriteFile(card, file); err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	return nil
}

func withCatalog(c *cli.Context, fn func(*catalog.Catalog) error) error {
	cat, err := catalog.New(c.String("db"), newLogger(c.Bool("verbose")))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer cat.Close()

	if err := fn(cat); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "memcard"
	app.Usage = "VMU and PlayStation memory card image utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"MEMCARD_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "card format, one of vmu or psx, otherwise guessed from the file extension",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "format",
			Usage:     "Create a blank card image",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				needArgs(c, 1)

				file := c.Args().First()
				name, err := formatOf(c.String("format"), file)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				card, err := memcard.New(name, newLogger(c.Bool("verbose")))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := memcard.WriteFile(card, file); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "list",
			Usage:     "List the saves on a card",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				needArgs(c, 1)

				return withCard(c, func(card memcard.Card) (bool, error) {
					listCard(printf, card)
					return false, nil
				})
			},
		},
		{
			Name:      "delete",
			Usage:     "Delete a save from a card",
			ArgsUsage: "FILE SLOT",
			Action: func(c *cli.Context) error {
				needArgs(c, 2)

				return withCard(c, func(card memcard.Card) (bool, error) {
					e, err := findEntry(card, c.Args().Get(1))
					if err != nil {
						return false, err
					}
					return true, card.Delete(e)
				})
			},
		},
		{
			Name:      "copy",
			Usage:     "Copy a save from one card to another",
			ArgsUsage: "SOURCE SLOT DESTINATION",
			Action: func(c *cli.Context) error {
				needArgs(c, 3)

				src, err := openCard(c.String("format"), c.Args().First(), newLogger(c.Bool("verbose")))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				e, err := findEntry(src, c.Args().Get(1))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				file := c.Args().Get(2)
				dst, err := openCard(c.String("format"), file, newLogger(c.Bool("verbose")))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if dst.Format() != src.Format() {
					return cli.NewExitError(memcard.ErrFormatMismatch, 1)
				}

				if _, err := dst.Copy(e); err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := memcard.WriteFile(dst, file); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "export",
			Usage:       "Export a save to a single save file",
			Description: "VMU saves are written as DCI files, PlayStation saves as MCS files. Without OUTPUT the file is named after the save.",
			ArgsUsage:   "FILE SLOT [OUTPUT]",
			Action: func(c *cli.Context) error {
				needArgs(c, 2)

				return withCard(c, func(card memcard.Card) (bool, error) {
					e, err := findEntry(card, c.Args().Get(1))
					if err != nil {
						return false, err
					}

					s, name, err := exportSave(card, e)
					if err != nil {
						return false, err
					}

					b, err := s.MarshalBinary()
					if err != nil {
						return false, err
					}

					if c.NArg() > 2 {
						name = c.Args().Get(2)
					}

					return false, ioutil.WriteFile(name, b, 0644)
				})
			},
		},
		{
			Name:      "import",
			Usage:     "Import a single save file onto a card",
			ArgsUsage: "FILE SAVE",
			Action: func(c *cli.Context) error {
				needArgs(c, 2)

				b, err := ioutil.ReadFile(c.Args().Get(1))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				return withCard(c, func(card memcard.Card) (bool, error) {
					e, err := importSave(card, b)
					if err != nil {
						return false, err
					}
					printf("Imported %q to slot %d\n", e.Name(), e.Index())
					return true, nil
				})
			},
		},
		{
			Name:        "icon",
			Usage:       "Extract the icon of a save",
			Description: "The first frame is written as a PNG unless OUTPUT ends with .gif in which case every frame is written as an animated GIF.",
			ArgsUsage:   "FILE SLOT OUTPUT",
			Action: func(c *cli.Context) error {
				needArgs(c, 3)

				return withCard(c, func(card memcard.Card) (bool, error) {
					e, err := findEntry(card, c.Args().Get(1))
					if err != nil {
						return false, err
					}
					return false, writeIcon(card, e, c.Args().Get(2))
				})
			},
		},
		{
			Name:        "set-icon",
			Usage:       "Replace the icon of a save",
			Description: "One image is needed for each icon frame, images are reduced to 16 colours.",
			ArgsUsage:   "FILE SLOT IMAGE...",
			Action: func(c *cli.Context) error {
				needArgs(c, 3)

				images, err := readImages(c.Args().Slice()[2:])
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				return withCard(c, func(card memcard.Card) (bool, error) {
					e, err := findEntry(card, c.Args().Get(1))
					if err != nil {
						return false, err
					}
					h, err := card.Header(e)
					if err != nil {
						return false, err
					}
					return true, h.SetIcons(images...)
				})
			},
		},
		{
			Name:      "scan",
			Usage:     "Index every card image below a directory",
			ArgsUsage: "DIRECTORY",
			Action: func(c *cli.Context) error {
				needArgs(c, 1)

				return withCatalog(c, func(cat *catalog.Catalog) error {
					return cat.Scan(c.Args().First())
				})
			},
		},
		{
			Name:      "search",
			Usage:     "Search the index for saves",
			ArgsUsage: "PATTERN",
			Action: func(c *cli.Context) error {
				needArgs(c, 1)

				return withCatalog(c, func(cat *catalog.Catalog) error {
					saves, err := cat.Search(c.Args().First())
					if err != nil {
						return err
					}
					for _, s := range saves {
						printf("%s:%d  %-21s  %3d  %s\n", s.Path, s.Slot, s.Name, s.Blocks, s.Description)
					}
					return nil
				})
			},
		},
		{
			Name:      "shell",
			Usage:     "Interactive session with several cards mounted",
			ArgsUsage: "[FILE...]",
			Action: func(c *cli.Context) error {
				sh := newShell(c.String("format"), newLogger(c.Bool("verbose")))
				for _, file := range c.Args().Slice() {
					if err := sh.mount(file); err != nil {
						return cli.NewExitError(err, 1)
					}
				}

				if err := sh.run(); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
