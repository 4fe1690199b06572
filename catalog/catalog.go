/*
Package catalog maintains an SQLite index of the saves found on a collection
of memory card images so they can be searched without opening every card.
*/
package catalog

import (
	"database/sql"
	"fmt"
	"io/ioutil"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

// Catalog is the index of saves.
type Catalog struct {
	db     *sql.DB
	logger *log.Logger
}

// Save is one file found on a card.
type Save struct {
	Path        string
	Format      string
	Slot        int
	Name        string
	Description string
	Blocks      int
	Frames      int
}

// New opens the catalog stored in file, creating it if necessary.
func New(file string, logger *log.Logger) (*Catalog, error) {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS card (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, format TEXT NOT NULL, free INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS save (card_id INTEGER NOT NULL, slot INTEGER NOT NULL, name TEXT NOT NULL, description TEXT NOT NULL, blocks INTEGER NOT NULL, frames INTEGER NOT NULL, icon BLOB, UNIQUE(card_id, slot), FOREIGN KEY(card_id) REFERENCES card(id) ON DELETE CASCADE)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the catalog.
func (c *Catalog) Close() error {
	return c.db.Close()
}

type execer interface {
	Exec(string, ...interface{}) (sql.Result, error)
	QueryRow(string, ...interface{}) *sql.Row
}

// addCard returns the id of the card at path, any saves previously recorded
// for it are forgotten
func addCard(db execer, path, format string, free int) (int64, error) {
	var id int64
	switch err := db.QueryRow("SELECT id FROM card WHERE path = ?", path).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := db.Exec("INSERT INTO card (path, format, free) VALUES (?, ?, ?)", path, format, free)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		if _, err := db.Exec("UPDATE card SET format = ?, free = ? WHERE id = ?", format, free, id); err != nil {
			return 0, err
		}
		if _, err := db.Exec("DELETE FROM save WHERE card_id = ?", id); err != nil {
			return 0, err
		}
		return id, nil
	default:
		return 0, err
	}
}

func addSave(db execer, card int64, s Save, icon []byte) error {
	if _, err := db.Exec("INSERT OR REPLACE INTO save (card_id, slot, name, description, blocks, frames, icon) VALUES (?, ?, ?, ?, ?, ?, ?)", card, s.Slot, s.Name, s.Description, s.Blocks, s.Frames, icon); err != nil {
		return err
	}
	return nil
}

// Remove forgets the card at path and all of its saves.
func (c *Catalog) Remove(path string) error {
	if _, err := c.db.Exec("DELETE FROM card WHERE path = ?", path); err != nil {
		return err
	}
	return nil
}

// Search returns every save whose name or description contains pattern,
// ordered by card and slot. SQL LIKE wildcards in pattern are honoured.
func (c *Catalog) Search(pattern string) ([]Save, error) {
	like := "%" + pattern + "%"
	rows, err := c.db.Query("SELECT c.path, c.format, s.slot, s.name, s.description, s.blocks, s.frames FROM save AS s JOIN card AS c ON s.card_id = c.id WHERE s.name LIKE ? OR s.description LIKE ? ORDER BY c.path, s.slot", like, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var saves []Save
	for rows.Next() {
		var s Save
		if err := rows.Scan(&s.Path, &s.Format, &s.Slot, &s.Name, &s.Description, &s.Blocks, &s.Frames); err != nil {
			return nil, err
		}
		saves = append(saves, s)
	}

	return saves, rows.Err()
}

// Free returns the number of free blocks recorded for the card at path.
func (c *Catalog) Free(path string) (int, error) {
	var free int
	if err := c.db.QueryRow("SELECT free FROM card WHERE path = ?", path).Scan(&free); err != nil {
		return 0, err
	}
	return free, nil
}

// Icon returns the first icon frame of a save as a PNG image, or nil if the
// save has no icon.
func (c *Catalog) Icon(path string, slot int) ([]byte, error) {
	var icon []byte
	switch err := c.db.QueryRow("SELECT s.icon FROM save AS s JOIN card AS c ON s.card_id = c.id WHERE c.path = ? AND s.slot = ?", path, slot).Scan(&icon); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return icon, nil
	default:
		return nil, err
	}
}
