package model

import (
	"encoding/json"
	"slices"
	"sort"
)

// TagSet is a duplicate free set of tag names. It is kept sorted so two sets
// holding the same names are equal element by element.
type TagSet []string

func NewTagSet(tags ...string) TagSet {
	set := make(TagSet, 0, len(tags))
	set = append(set, tags...)
	sort.Strings(set)
	return slices.Compact(set)
}

func (s TagSet) Contains(tag string) bool {
	_, found := slices.BinarySearch(s, tag)
	return found
}

func (s TagSet) Equal(other TagSet) bool {
	return slices.Equal(s, other)
}

func (s TagSet) Len() int { return len(s) }

// Tags holds either a flat tag set or a set per category. Which one is used
// is decided by the source schema and never mixed within a source.
type Tags struct {
	Flat       TagSet
	Categories map[string]TagSet
}

func FlatTags(tags ...string) Tags {
	return Tags{Flat: NewTagSet(tags...)}
}

func CategorizedTags(categories map[string]TagSet) Tags {
	if categories == nil {
		categories = map[string]TagSet{}
	}
	return Tags{Categories: categories}
}

func (t Tags) IsCategorized() bool {
	return t.Categories != nil
}

// All returns every tag regardless of category.
func (t Tags) All() TagSet {
	if !t.IsCategorized() {
		return t.Flat
	}
	var all []string
	for _, set := range t.Categories {
		all = append(all, set...)
	}
	return NewTagSet(all...)
}

func (t Tags) Contains(tag string) bool {
	if !t.IsCategorized() {
		return t.Flat.Contains(tag)
	}
	for _, set := range t.Categories {
		if set.Contains(tag) {
			return true
		}
	}
	return false
}

func (t Tags) Equal(other Tags) bool {
	if t.IsCategorized() != other.IsCategorized() {
		return false
	}
	if !t.IsCategorized() {
		return t.Flat.Equal(other.Flat)
	}
	if len(t.Categories) != len(other.Categories) {
		return false
	}
	for name, set := range t.Categories {
		o, ok := other.Categories[name]
		if !ok || !set.Equal(o) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes flat tags as an array and categorized tags as an object.
func (t Tags) MarshalJSON() ([]byte, error) {
	if t.IsCategorized() {
		return json.Marshal(t.Categories)
	}
	if t.Flat == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t.Flat))
}

func (t *Tags) UnmarshalJSON(data []byte) error {
	var flat []string
	if err := json.Unmarshal(data, &flat); err == nil {
		*t = FlatTags(flat...)
		return nil
	}
	var categories map[string][]string
	if err := json.Unmarshal(data, &categories); err != nil {
		return err
	}
	sets := make(map[string]TagSet, len(categories))
	for name, tags := range categories {
		sets[name] = NewTagSet(tags...)
	}
	*t = CategorizedTags(sets)
	return nil
}
