// Package discovery holds the user's collection of identified animals.
package discovery

import (
	"slices"
	"strings"
	"time"

	"github.com/wildnest/wildnest/internal/rarity"
)

// Discovery is one identified organism owned by the local user.
type Discovery struct {
	ID             string      `json:"id"`
	PostID         string      `json:"post_id,omitempty"`
	Name           string      `json:"name"`
	ScientificName string      `json:"scientific_name"`
	Description    string      `json:"description"`
	Category       string      `json:"category"`
	Habitat        string      `json:"habitat"`
	Rarity         rarity.Tier `json:"rarity"`
	FunFacts       []string    `json:"fun_facts"`
	Points         int         `json:"points"`
	ImageURI       string      `json:"image_uri"`
	DiscoveredAt   time.Time   `json:"discovered_at"`
	IsFavorite     bool        `json:"is_favorite"`
}

// Collection is the newest-first list of discoveries. Operations return a new
// Collection and leave the receiver untouched.
type Collection []Discovery

// Append inserts d at the front. Duplicates are not suppressed.
func (c Collection) Append(d Discovery) Collection {
	out := make(Collection, 0, len(c)+1)
	out = append(out, d)
	return append(out, c...)
}

// ToggleFavorite flips the favorite flag of the discovery with the given id.
// Unknown ids leave the collection unchanged.
func (c Collection) ToggleFavorite(id string) Collection {
	out := slices.Clone(c)
	for i := range out {
		if out[i].ID == id {
			out[i].IsFavorite = !out[i].IsFavorite
			break
		}
	}
	return out
}

// Find returns the discovery with the given id.
func (c Collection) Find(id string) (Discovery, bool) {
	for _, d := range c {
		if d.ID == id {
			return d, true
		}
	}
	return Discovery{}, false
}

// Contains reports whether a discovery with the given id exists.
func (c Collection) Contains(id string) bool {
	_, ok := c.Find(id)
	return ok
}

// Search returns discoveries whose name contains query, case-insensitively.
func (c Collection) Search(query string) Collection {
	q := strings.ToLower(query)
	return c.filter(func(d Discovery) bool {
		return strings.Contains(strings.ToLower(d.Name), q)
	})
}

// FilterRarity returns discoveries of exactly the given tier.
func (c Collection) FilterRarity(t rarity.Tier) Collection {
	return c.filter(func(d Discovery) bool { return d.Rarity == t })
}

// FilterCategory returns discoveries whose category equals category, ignoring case.
func (c Collection) FilterCategory(category string) Collection {
	category = strings.TrimSpace(category)
	return c.filter(func(d Discovery) bool { return strings.EqualFold(d.Category, category) })
}

// Favorites returns the discoveries marked as favorite.
func (c Collection) Favorites() Collection {
	return c.filter(func(d Discovery) bool { return d.IsFavorite })
}

// RareCount counts rare and legendary discoveries.
func (c Collection) RareCount() int {
	n := 0
	for _, d := range c {
		if d.Rarity == rarity.Rare || d.Rarity == rarity.Legendary {
			n++
		}
	}
	return n
}

// UniqueSpecies counts distinct display names.
func (c Collection) UniqueSpecies() int {
	seen := make(map[string]struct{}, len(c))
	for _, d := range c {
		seen[d.Name] = struct{}{}
	}
	return len(seen)
}

// HasRarity reports whether any discovery is of tier t.
func (c Collection) HasRarity(t rarity.Tier) bool {
	return slices.ContainsFunc(c, func(d Discovery) bool { return d.Rarity == t })
}

func (c Collection) filter(keep func(Discovery) bool) Collection {
	out := Collection{}
	for _, d := range c {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}
