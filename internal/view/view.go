package view

import (
	"errors"
	"sort"
	"strings"
)

// ErrIndexOutOfRange is returned by RowAt for a row index outside the
// current projection. It signals a caller bug; the view state is unaffected.
var ErrIndexOutOfRange = errors.New("view: row index out of range")

// Column selects the sort key for the table.
type Column int

const (
	ColAddress Column = iota
	ColText
	ColKind
	ColLength
	ColSize
)

// String returns the column's display header.
func (c Column) String() string {
	switch c {
	case ColAddress:
		return "Address"
	case ColText:
		return "String"
	case ColKind:
		return "Type"
	case ColLength:
		return "Length"
	case ColSize:
		return "Size"
	default:
		return "?"
	}
}

// View is a filtered, sorted projection over a Store. It caches the
// projection (indices into the store snapshot) together with the version it
// was computed against and rebuilds it lazily whenever the store moved or
// the filter/sort state changed.
//
// A View is confined to a single goroutine (the interactive path); only the
// Store it borrows is shared.
type View struct {
	store *Store

	filter    string              // lowercased substring query, "" accepts all
	pred      func(Entry) bool    // optional extra predicate
	column    Column
	ascending bool

	entries     []Entry // snapshot the projection was built from
	projection  []int
	projVersion uint64
	dirty       bool
}

// NewView binds a view to a store. The initial state is dirty with an
// accept-all filter and address-ascending order.
func NewView(store *Store) *View {
	return &View{
		store:     store,
		column:    ColAddress,
		ascending: true,
		dirty:     true,
	}
}

// SetFilter replaces the filter query. Matching is a case-insensitive
// substring test against Entry.Text.
func (v *View) SetFilter(query string) {
	v.filter = strings.ToLower(query)
	v.dirty = true
}

// Filter returns the current query as set by SetFilter.
func (v *View) Filter() string {
	return v.filter
}

// SetPredicate installs an extra predicate applied on top of the substring
// filter. A nil predicate accepts everything.
func (v *View) SetPredicate(pred func(Entry) bool) {
	v.pred = pred
	v.dirty = true
}

// SetSort replaces the sort key and direction.
func (v *View) SetSort(column Column, ascending bool) {
	v.column = column
	v.ascending = ascending
	v.dirty = true
}

// Sort returns the active sort key and direction.
func (v *View) Sort() (Column, bool) {
	return v.column, v.ascending
}

// RowCount recomputes the projection if it is stale and returns its length.
func (v *View) RowCount() int {
	v.refresh()
	return len(v.projection)
}

// RowAt recomputes the projection if it is stale and returns the entry at
// row i, or ErrIndexOutOfRange if i is outside [0, RowCount()).
func (v *View) RowAt(i int) (Entry, error) {
	v.refresh()
	if i < 0 || i >= len(v.projection) {
		return Entry{}, ErrIndexOutOfRange
	}
	return v.entries[v.projection[i]], nil
}

func (v *View) accepts(e Entry) bool {
	if v.filter != "" && !strings.Contains(strings.ToLower(e.Text), v.filter) {
		return false
	}
	if v.pred != nil && !v.pred(e) {
		return false
	}
	return true
}

// less orders entries by the active column, falling back to ascending
// address on ties so the output order is total and independent of the
// backing sequence.
func (v *View) less(a, b Entry) bool {
	var before, after bool
	switch v.column {
	case ColText:
		before, after = a.Text < b.Text, b.Text < a.Text
	case ColKind:
		before, after = a.Kind < b.Kind, b.Kind < a.Kind
	case ColLength:
		before, after = a.Length < b.Length, b.Length < a.Length
	case ColSize:
		before, after = a.Size < b.Size, b.Size < a.Size
	default:
		before, after = a.Address < b.Address, b.Address < a.Address
	}
	if !v.ascending {
		before, after = after, before
	}
	if before {
		return true
	}
	if after {
		return false
	}
	return a.Address < b.Address
}

// refresh rebuilds the projection when the cached one no longer matches the
// store version or the filter/sort state. The rebuild is a full select+sort
// pass over a single atomic snapshot; results never mix two datasets.
func (v *View) refresh() {
	entries, version := v.store.Snapshot()
	if !v.dirty && version == v.projVersion {
		return
	}

	proj := make([]int, 0, len(entries))
	for i, e := range entries {
		if v.accepts(e) {
			proj = append(proj, i)
		}
	}
	sort.Slice(proj, func(i, j int) bool {
		return v.less(entries[proj[i]], entries[proj[j]])
	})

	v.entries = entries
	v.projection = proj
	v.projVersion = version
	v.dirty = false
}
