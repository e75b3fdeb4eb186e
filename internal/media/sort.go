package media

import (
	"slices"
	"sort"
	"strconv"
)

// SortCookie is the cookie holding the chosen order.
const SortCookie = "sort"

// DefaultSort groups entries by kind.
const DefaultSort = "Type"

// SortFunc orders items in place and returns them.
type SortFunc func([]Item) []Item

var sorts = map[string]SortFunc{
	"A-Z":            sortAlphabet,
	"Z-A":            sortAlphabetReverse,
	"Last Modified":  sortLastModified,
	"First Modified": sortFirstModified,
	"Type":           sortType,
	"Size":           sortSize,
}

// SortNames lists the available orders alphabetically.
func SortNames() []string {
	names := make([]string, 0, len(sorts))
	for name := range sorts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupSort returns the named order.
func LookupSort(name string) (SortFunc, bool) {
	s, ok := sorts[name]
	return s, ok
}

// Sort orders items by name, falling back to DefaultSort for unknown names.
func Sort(items []Item, name string) []Item {
	s, ok := sorts[name]
	if !ok {
		s = sorts[DefaultSort]
	}
	return s(items)
}

// sortType puts directories first, then videos, images and the rest; ties
// break by name.
func sortType(items []Item) []Item {
	rank := map[Kind]int{KindDir: 0, KindVideo: 1, KindImage: 2, KindOther: 3}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Kind == items[j].Kind {
			return items[i].Name < items[j].Name
		}
		return rank[items[i].Kind] < rank[items[j].Kind]
	})
	return items
}

func sortSize(items []Item) []Item {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Size > items[j].Size
	})
	return items
}

// sortAlphabet orders purely numeric names numerically and ahead of the rest.
func sortAlphabet(items []Item) []Item {
	sort.SliceStable(items, func(i, j int) bool {
		a, aErr := strconv.Atoi(items[i].Name)
		b, bErr := strconv.Atoi(items[j].Name)
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		}
		return items[i].Name < items[j].Name
	})
	return items
}

func sortAlphabetReverse(items []Item) []Item {
	items = sortAlphabet(items)
	slices.Reverse(items)
	return items
}

func sortLastModified(items []Item) []Item {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ModTime.After(items[j].ModTime)
	})
	return items
}

func sortFirstModified(items []Item) []Item {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ModTime.Before(items[j].ModTime)
	})
	return items
}
