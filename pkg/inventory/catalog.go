package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrUnknownItem is returned for item IDs missing from the catalog
var ErrUnknownItem = errors.New("unknown item")

// Catalog is the read-only set of item definitions
type Catalog struct {
	items map[string]Item
	order []string
}

type catalogFile struct {
	Items []Item `json:"items"`
}

// ParseCatalog decodes and validates a JSON catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	return NewCatalog(f.Items...)
}

// LoadCatalog reads a JSON catalog from disk
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// NewCatalog builds a catalog from items, rejecting invalid or duplicate entries
func NewCatalog(items ...Item) (*Catalog, error) {
	c := &Catalog{items: make(map[string]Item, len(items))}
	var errs []error
	for _, it := range items {
		if err := it.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.items[it.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate item id %q", it.ID))
			continue
		}
		c.items[it.ID] = it
		c.order = append(c.order, it.ID)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// Get looks up an item by ID
func (c *Catalog) Get(id string) (Item, bool) {
	it, ok := c.items[id]
	return it, ok
}

// Lookup is Get with an error for missing IDs
func (c *Catalog) Lookup(id string) (Item, error) {
	it, ok := c.items[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	return it, nil
}

// Items returns every item in file order
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// Len returns the number of items
func (c *Catalog) Len() int {
	return len(c.order)
}
