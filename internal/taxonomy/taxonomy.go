// Package taxonomy indexes marker categories and subtypes for flat lookup by subtype id.
package taxonomy

import (
	"errors"
	"fmt"

	"github.com/gamemaps/viewer/internal/model"
)

// ErrDuplicateSubtype is returned when two subtypes share an id.
var ErrDuplicateSubtype = errors.New("duplicate subtype id")

type subtypeEntry struct {
	subtype  model.MarkerTypeSubtype
	category int
}

// Taxonomy is an immutable index over the loaded categories.
type Taxonomy struct {
	categories []model.MarkerTypeCategory
	subtypes   map[string]subtypeEntry
	byName     map[string]int
	order      []string
}

// Empty returns a taxonomy with no entries.
func Empty() *Taxonomy {
	t, _ := New(nil)
	return t
}

// New indexes categories. Subtype ids must be unique across all categories.
// A subtype without a category back-reference gets its owning category's name.
func New(categories []model.MarkerTypeCategory) (*Taxonomy, error) {
	t := &Taxonomy{
		categories: make([]model.MarkerTypeCategory, len(categories)),
		subtypes:   make(map[string]subtypeEntry),
		byName:     make(map[string]int),
	}

	for ci, cat := range categories {
		cat.Subtypes = append([]model.MarkerTypeSubtype(nil), cat.Subtypes...)
		t.categories[ci] = cat
		t.byName[categoryKey(cat)] = ci
		if cat.ID != "" && cat.Name != "" {
			t.byName[cat.ID] = ci
		}

		for si, sub := range cat.Subtypes {
			if sub.Category == "" {
				sub.Category = categoryKey(cat)
				t.categories[ci].Subtypes[si] = sub
			}
			if prev, ok := t.subtypes[sub.ID]; ok {
				return nil, fmt.Errorf("%w: %q in categories %q and %q",
					ErrDuplicateSubtype, sub.ID, categoryKey(categories[prev.category]), categoryKey(cat))
			}
			t.subtypes[sub.ID] = subtypeEntry{subtype: sub, category: ci}
			t.order = append(t.order, sub.ID)
		}
	}

	return t, nil
}

func categoryKey(c model.MarkerTypeCategory) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Categories returns the categories in document order.
func (t *Taxonomy) Categories() []model.MarkerTypeCategory {
	return t.categories
}

// Subtype looks up a subtype by id.
func (t *Taxonomy) Subtype(id string) (model.MarkerTypeSubtype, bool) {
	e, ok := t.subtypes[id]
	return e.subtype, ok
}

// Category looks up a category by name or id.
func (t *Taxonomy) Category(name string) (model.MarkerTypeCategory, bool) {
	i, ok := t.byName[name]
	if !ok {
		return model.MarkerTypeCategory{}, false
	}
	return t.categories[i], true
}

// CategoryOf returns the id of the category owning subtypeID.
func (t *Taxonomy) CategoryOf(subtypeID string) (string, bool) {
	e, ok := t.subtypes[subtypeID]
	if !ok {
		return "", false
	}
	c := t.categories[e.category]
	if c.ID != "" {
		return c.ID, true
	}
	return c.Name, true
}

// CategoryForSubtype returns the full category owning subtypeID.
func (t *Taxonomy) CategoryForSubtype(subtypeID string) (model.MarkerTypeCategory, bool) {
	e, ok := t.subtypes[subtypeID]
	if !ok {
		return model.MarkerTypeCategory{}, false
	}
	return t.categories[e.category], true
}

// SubtypeIDs returns every subtype id in taxonomy order.
func (t *Taxonomy) SubtypeIDs() []string {
	return append([]string(nil), t.order...)
}

// SubtypeIDsOf returns the subtype ids of one category.
func (t *Taxonomy) SubtypeIDsOf(category string) []string {
	c, ok := t.Category(category)
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(c.Subtypes))
	for _, s := range c.Subtypes {
		ids = append(ids, s.ID)
	}
	return ids
}

// Len returns the number of subtypes.
func (t *Taxonomy) Len() int {
	return len(t.order)
}
