package scan

import (
	"testing"

	"strview/internal/view"
)

func TestExtractAscii(t *testing.T) {
	data := []byte("\x00\x01hello world\x00\xff\x02ok\x00goodbye")

	entries := Extract(data, 0x1000, 4)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}

	first := entries[0]
	if first.Text != "hello world" || first.Kind != "ascii" {
		t.Fatalf("first entry = %q kind %q", first.Text, first.Kind)
	}
	if first.Address != 0x1002 {
		t.Fatalf("first entry address = 0x%x, want 0x1002", first.Address)
	}
	if first.Length != 11 || first.Size != 12 {
		t.Fatalf("first entry length/size = %d/%d, want 11/12 (NUL counted)", first.Length, first.Size)
	}

	second := entries[1]
	if second.Text != "goodbye" || second.Size != 7 {
		t.Fatalf("second entry = %q size %d, want \"goodbye\" size 7 (no NUL)", second.Text, second.Size)
	}
}

func TestExtractMinLength(t *testing.T) {
	cases := []struct {
		name   string
		data   []byte
		minLen int
		want   []string
	}{
		{"short run skipped", []byte("ab\x00cdef\x00"), 4, []string{"cdef"}},
		{"exact boundary", []byte("abcd\x00"), 4, []string{"abcd"}},
		{"min one keeps all", []byte("a\x01b\x00"), 1, []string{"a", "b"}},
		{"nothing printable", []byte{0, 1, 2, 3, 0xff}, 1, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries := Extract(tc.data, 0, tc.minLen)
			if len(entries) != len(tc.want) {
				t.Fatalf("got %d entries, want %d: %+v", len(entries), len(tc.want), entries)
			}
			for i, want := range tc.want {
				if entries[i].Text != want {
					t.Fatalf("entry %d = %q, want %q", i, entries[i].Text, want)
				}
			}
		})
	}
}

func TestExtractUTF8(t *testing.T) {
	data := append([]byte("café au lait"), 0)

	entries := Extract(data, 0, 4)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1: %+v", len(entries), entries)
	}
	e := entries[0]
	if e.Kind != "utf8" {
		t.Fatalf("kind = %q, want utf8", e.Kind)
	}
	if e.Length != 12 {
		t.Fatalf("length = %d characters, want 12", e.Length)
	}
	if e.Size != 14 {
		t.Fatalf("size = %d bytes, want 14 (13 encoded + NUL)", e.Size)
	}
}

func TestExtractUTF16LE(t *testing.T) {
	wide := func(s string) []byte {
		b := make([]byte, 0, 2*len(s))
		for i := 0; i < len(s); i++ {
			b = append(b, s[i], 0)
		}
		return b
	}

	data := append(wide("WideString"), 0, 0)
	entries := Extract(data, 0x2000, 4)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1: %+v", len(entries), entries)
	}
	e := entries[0]
	if e.Text != "WideString" || e.Kind != "utf16le" {
		t.Fatalf("entry = %q kind %q, want WideString/utf16le", e.Text, e.Kind)
	}
	if e.Length != 10 || e.Size != 22 {
		t.Fatalf("length/size = %d/%d, want 10/22 (terminator counted)", e.Length, e.Size)
	}
}

func TestExtractEntriesAreViewReady(t *testing.T) {
	// Extracted entries feed the store directly; spot-check they behave
	// under the view's filter contract.
	s := view.NewStore()
	s.Replace(Extract([]byte("alpha\x00beta\x00gamma\x00"), 0x100, 4))
	v := view.NewView(s)
	v.SetFilter("ALPHA")

	if v.RowCount() != 1 {
		t.Fatalf("RowCount() = %d, want 1", v.RowCount())
	}
	e, err := v.RowAt(0)
	if err != nil || e.Text != "alpha" {
		t.Fatalf("RowAt(0) = %q, %v", e.Text, err)
	}
}

func TestEscapeUnprintable(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{"plain", []byte("hello"), "hello"},
		{"control", []byte("a\x01b"), "a\\u0001b"},
		{"invalid utf8", []byte{'x', 0xff, 'y'}, "x\\xFFy"},
		{"tab", []byte("a\tb"), "a\\u0009b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EscapeUnprintable(tc.in); got != tc.want {
				t.Fatalf("EscapeUnprintable(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
