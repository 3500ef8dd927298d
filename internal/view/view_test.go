package view

import (
	"errors"
	"testing"
)

func testEntries() []Entry {
	return []Entry{
		{Address: 0x30, Text: "zebra", Kind: "utf8", Length: 5, Size: 6},
		{Address: 0x10, Text: "Alpha", Kind: "ascii", Length: 5, Size: 5},
		{Address: 0x20, Text: "mango", Kind: "ascii", Length: 5, Size: 5},
		{Address: 0x40, Text: "echo", Kind: "utf16le", Length: 4, Size: 8},
	}
}

func rowTexts(t *testing.T, v *View) []string {
	t.Helper()
	texts := make([]string, v.RowCount())
	for i := range texts {
		e, err := v.RowAt(i)
		if err != nil {
			t.Fatalf("RowAt(%d): %v", i, err)
		}
		texts[i] = e.Text
	}
	return texts
}

func TestViewDefaultOrderIsAddressAscending(t *testing.T) {
	s := NewStore()
	s.Replace(testEntries())
	v := NewView(s)

	want := []string{"Alpha", "mango", "zebra", "echo"}
	got := rowTexts(t, v)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d = %q, want %q (all rows: %v)", i, got[i], want[i], got)
		}
	}
}

func TestViewSort(t *testing.T) {
	cases := []struct {
		name      string
		column    Column
		ascending bool
		want      []string
	}{
		{"text ascending", ColText, true, []string{"Alpha", "echo", "mango", "zebra"}},
		{"text descending", ColText, false, []string{"zebra", "mango", "echo", "Alpha"}},
		{"kind ascending", ColKind, true, []string{"Alpha", "mango", "echo", "zebra"}},
		{"size descending", ColSize, false, []string{"echo", "zebra", "Alpha", "mango"}},
		{"address descending", ColAddress, false, []string{"echo", "zebra", "mango", "Alpha"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore()
			s.Replace(testEntries())
			v := NewView(s)
			v.SetSort(tc.column, tc.ascending)

			got := rowTexts(t, v)
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("row %d = %q, want %q (all rows: %v)", i, got[i], tc.want[i], got)
				}
			}
		})
	}
}

// Entries equal under the sort column must come out ordered by address, in
// both directions, so the view's order never depends on producer order.
func TestViewTieBreakByAddress(t *testing.T) {
	entries := []Entry{
		{Address: 0x30, Text: "same", Length: 4},
		{Address: 0x10, Text: "same", Length: 4},
		{Address: 0x20, Text: "same", Length: 4},
	}

	for _, ascending := range []bool{true, false} {
		s := NewStore()
		s.Replace(entries)
		v := NewView(s)
		v.SetSort(ColLength, ascending)

		var prev uint64
		for i := 0; i < v.RowCount(); i++ {
			e, err := v.RowAt(i)
			if err != nil {
				t.Fatalf("RowAt(%d): %v", i, err)
			}
			if i > 0 && e.Address < prev {
				t.Fatalf("ascending=%v: tie-break violated, 0x%x after 0x%x", ascending, e.Address, prev)
			}
			prev = e.Address
		}
	}
}

func TestViewFilter(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty accepts all", "", []string{"Alpha", "mango", "zebra", "echo"}},
		{"substring", "an", []string{"mango"}},
		{"case insensitive", "ALPHA", []string{"Alpha"}},
		{"no match", "quux", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore()
			s.Replace(testEntries())
			v := NewView(s)
			v.SetFilter(tc.query)

			if v.RowCount() != len(tc.want) {
				t.Fatalf("RowCount() = %d, want %d", v.RowCount(), len(tc.want))
			}
			if v.RowCount() > s.Len() {
				t.Fatalf("RowCount() %d exceeds store len %d", v.RowCount(), s.Len())
			}
			got := rowTexts(t, v)
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("row %d = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestViewPredicate(t *testing.T) {
	s := NewStore()
	s.Replace(testEntries())
	v := NewView(s)
	v.SetPredicate(func(e Entry) bool { return e.Kind == "ascii" })

	if v.RowCount() != 2 {
		t.Fatalf("RowCount() = %d, want 2", v.RowCount())
	}
	v.SetPredicate(nil)
	if v.RowCount() != 4 {
		t.Fatalf("RowCount() after clearing predicate = %d, want 4", v.RowCount())
	}
}

// The filtered view must follow a dataset replacement: same scenario as the
// original panel refreshing while a filter is active.
func TestViewTracksReplace(t *testing.T) {
	s := NewStore()
	s.Replace([]Entry{
		{Address: 0x10, Text: "abc"},
		{Address: 0x20, Text: "xyz"},
	})
	v := NewView(s)
	v.SetFilter("x")

	if v.RowCount() != 1 {
		t.Fatalf("RowCount() = %d, want 1", v.RowCount())
	}
	e, err := v.RowAt(0)
	if err != nil || e.Text != "xyz" {
		t.Fatalf("RowAt(0) = %q, %v; want \"xyz\"", e.Text, err)
	}

	s.Replace([]Entry{{Address: 0x30, Text: "abcx"}})

	if v.RowCount() != 1 {
		t.Fatalf("RowCount() after replace = %d, want 1", v.RowCount())
	}
	e, err = v.RowAt(0)
	if err != nil || e.Text != "abcx" {
		t.Fatalf("RowAt(0) after replace = %q, %v; want \"abcx\"", e.Text, err)
	}
}

func TestViewRowAtIdempotent(t *testing.T) {
	s := NewStore()
	s.Replace(testEntries())
	v := NewView(s)
	v.SetSort(ColText, true)

	first, err := v.RowAt(2)
	if err != nil {
		t.Fatalf("RowAt(2): %v", err)
	}
	second, err := v.RowAt(2)
	if err != nil {
		t.Fatalf("RowAt(2) second call: %v", err)
	}
	if first != second {
		t.Fatalf("RowAt(2) not idempotent: %+v vs %+v", first, second)
	}
}

func TestViewRowAtOutOfRange(t *testing.T) {
	s := NewStore()
	s.Replace(testEntries())
	v := NewView(s)
	v.SetFilter("mango")

	for _, i := range []int{-1, 1, 99} {
		if _, err := v.RowAt(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("RowAt(%d) error = %v, want ErrIndexOutOfRange", i, err)
		}
	}
	// The failed lookups must not have corrupted the projection.
	if e, err := v.RowAt(0); err != nil || e.Text != "mango" {
		t.Fatalf("RowAt(0) after failed lookups = %q, %v; want \"mango\"", e.Text, err)
	}
}
