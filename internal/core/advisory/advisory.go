// Package advisory defines the open security advisory type and the
// interface used to list them.
package advisory

import (
	"context"
	"slices"
)

// Item is an open (draft or triage) security advisory. Items are read-only;
// once published an advisory never comes back as open.
type Item struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	People []string `json:"people,omitempty"` // collaborating users
}

// Involves reports whether any of people is associated with the item.
func (i Item) Involves(people []string) bool {
	for _, p := range i.People {
		if slices.Contains(people, p) {
			return true
		}
	}
	return false
}

// Fetcher lists every currently open advisory. Implementations must return
// the complete listing or an error: a partial page would make missing items
// look resolved.
type Fetcher interface {
	FetchOpen(ctx context.Context) ([]Item, error)
}
