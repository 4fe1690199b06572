package memcard

import "image"

type iconKey struct {
	card  Card
	index int
	frame int
}

// IconCache holds decoded icon frames so animated icons aren't decoded on
// every redraw. It is owned by the caller and must be invalidated after any
// change to a card it holds icons for.
type IconCache struct {
	icons map[iconKey]*image.Paletted
}

// NewIconCache returns an empty cache.
func NewIconCache() *IconCache {
	return &IconCache{
		icons: make(map[iconKey]*image.Paletted),
	}
}

// Icon returns the given frame of the icon of e, decoding it if it isn't
// already cached.
func (c *IconCache) Icon(e Entry, frame int) (*image.Paletted, error) {
	key := iconKey{e.Card(), e.Index(), frame}
	if m, ok := c.icons[key]; ok {
		return m, nil
	}

	h, err := e.Card().Header(e)
	if err != nil {
		return nil, err
	}

	m, err := h.Icon(frame)
	if err != nil {
		return nil, err
	}
	c.icons[key] = m

	return m, nil
}

// Len returns the number of cached frames.
func (c *IconCache) Len() int {
	return len(c.icons)
}

// Invalidate forgets every frame decoded from card.
func (c *IconCache) Invalidate(card Card) {
	for k := range c.icons {
		if k.card == card {
			delete(c.icons, k)
		}
	}
}

// Reset empties the cache.
func (c *IconCache) Reset() {
	c.icons = make(map[iconKey]*image.Paletted)
}
