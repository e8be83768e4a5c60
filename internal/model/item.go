package model

import (
	"slices"
	"strings"
)

// Item is one to-do entry as produced by the creation service.
// Items are never edited in place; lists only grow by append or shrink by removal.
type Item struct {
	Goal     string   `json:"goal"`
	Deadline string   `json:"deadline"`
	People   []string `json:"people"`
}

// String renders the row text shown to the user: "<goal> - <deadline> - <people>".
func (it Item) String() string {
	return it.Goal + " - " + it.Deadline + " - " + strings.Join(it.People, ", ")
}

// Clone returns a copy that shares no backing array with it. A nil or
// empty People stays nil or empty.
func (it Item) Clone() Item {
	out := it
	out.People = slices.Clone(it.People)
	return out
}

// CloneList deep-copies a list. A nil list becomes an empty one.
func CloneList(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
