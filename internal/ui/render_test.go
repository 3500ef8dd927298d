package ui

import (
	"strings"
	"testing"

	"strview/internal/scan"
	"strview/internal/view"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is far too long", 10, "this is f…"},
		{"héllo wörld", 6, "héllo…"},
		{"x", 1, "x"},
	}

	for _, tc := range cases {
		if got := truncate(tc.in, tc.max); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestColumnHeaderMarksActiveColumn(t *testing.T) {
	if got := columnHeader(view.ColText, view.ColText, true); got != "String ↑" {
		t.Errorf("active ascending = %q, want \"String ↑\"", got)
	}
	if got := columnHeader(view.ColText, view.ColText, false); got != "String ↓" {
		t.Errorf("active descending = %q, want \"String ↓\"", got)
	}
	if got := columnHeader(view.ColKind, view.ColText, true); got != "Type" {
		t.Errorf("inactive = %q, want \"Type\"", got)
	}
}

func TestRenderXrefsEmpty(t *testing.T) {
	target := view.Entry{Address: 0x1000, Text: "hello", Kind: "ascii"}
	out := renderXrefs(target, nil)
	if !strings.Contains(out, "0x00001000") {
		t.Fatalf("output missing target address: %q", out)
	}
	if !strings.Contains(out, "no code references found") {
		t.Fatalf("output missing empty notice: %q", out)
	}
}

func TestRenderXrefsIncludesSymbols(t *testing.T) {
	t.Setenv("STRVIEW_NO_COLOR", "1")

	target := view.Entry{Address: 0x2000, Text: "player_name", Kind: "ascii"}
	refs := []scan.Xref{
		{VA: 0x4010, Text: "adr x0, 0x2000", Symbol: "Player::name()"},
		{VA: 0x4020, Text: "ldr x1, 0x2000"},
	}
	out := renderXrefs(target, refs)
	for _, want := range []string{"0x00004010", "Player::name()", "0x00004020", "ldr x1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
