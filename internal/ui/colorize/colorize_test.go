package colorize

import "testing"

func TestXrefLinePlainWhenDisabled(t *testing.T) {
	t.Setenv("STRVIEW_NO_COLOR", "1")

	line := "0x00001234  adrp x0, 0x5000 ; GameScene::init()"
	if got := XrefLine(line); got != line {
		t.Fatalf("XrefLine with colors disabled = %q, want input unchanged", got)
	}
}

func TestAssemblyPlainWhenDisabled(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	code := "add x0, x0, #0x318"
	if got := Assembly(code); got != code {
		t.Fatalf("Assembly with colors disabled = %q, want input unchanged", got)
	}
}

func TestIsHexAddress(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"0x00001234", true},
		{"deadbeef", true},
		{"0x", false},
		{"", false},
		{"adrp", false},
		{"12g4", false},
	}

	for _, tc := range cases {
		if got := isHexAddress(tc.in); got != tc.want {
			t.Errorf("isHexAddress(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
