// Package scan extracts strings from the data sections of an ELF image and
// finds code references to them. It is the producer feeding the panel's
// entry store.
package scan

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"strview/internal/elfx"
	"strview/internal/view"
)

// DefaultMinLength is the minimum character count for an extracted string.
const DefaultMinLength = 4

// Options configures a Scanner.
type Options struct {
	MinLength   int  // minimum characters per string; DefaultMinLength if 0
	IncludeData bool // also scan the writable .data section
}

// Scanner produces string datasets from an ELF image. It borrows the image
// and never mutates it, so scans may run on a background goroutine while
// the image stays open.
type Scanner struct {
	im   *elfx.Image
	opts Options
}

func NewScanner(im *elfx.Image, opts Options) *Scanner {
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	return &Scanner{im: im, opts: opts}
}

// Producer adapts the scanner to the coordinator's producer contract.
func (s *Scanner) Producer() view.Producer {
	return s.Scan
}

// Scan walks the image's data sections and returns a complete dataset,
// ordered by address. Cancellation is observed between sections.
func (s *Scanner) Scan(ctx context.Context) ([]view.Entry, error) {
	sections := []elfx.Section{s.im.Rodata, s.im.DataRelRo}
	if s.opts.IncludeData {
		sections = append(sections, s.im.Data)
	}

	var entries []view.Entry
	seen := make(map[uint64]bool)
	scanned := 0
	for _, sec := range sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, ok := s.im.SectionBytes(sec)
		if !ok {
			continue
		}
		// A fallback segment can alias another section; scan each VA once.
		if seen[sec.VA] {
			continue
		}
		seen[sec.VA] = true
		scanned++
		entries = append(entries, Extract(data, sec.VA, s.opts.MinLength)...)
	}
	if scanned == 0 {
		return nil, fmt.Errorf("%s: no scannable data sections", s.im.Path)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Address < entries[j].Address })
	return entries, nil
}

// Extract pulls printable string runs out of data, which is mapped at base.
// Runs shorter than minLen characters are skipped. UTF-16LE runs are
// detected before narrow ones so wide strings don't degrade into sequences
// of one-character matches.
func Extract(data []byte, base uint64, minLen int) []view.Entry {
	var entries []view.Entry
	for i := 0; i < len(data); {
		if n, e, ok := wideRun(data[i:], base+uint64(i), minLen); n > 0 {
			if ok {
				entries = append(entries, e)
			}
			i += n
			continue
		}
		if n, e, ok := narrowRun(data[i:], base+uint64(i), minLen); n > 0 {
			if ok {
				entries = append(entries, e)
			}
			i += n
			continue
		}
		i++
	}
	return entries
}

// wideRun matches a UTF-16LE run of printable ASCII code units at the start
// of data. It consumes nothing unless the run reaches minLen characters.
func wideRun(data []byte, va uint64, minLen int) (consumed int, e view.Entry, ok bool) {
	chars := 0
	for 2*chars+1 < len(data) {
		lo, hi := data[2*chars], data[2*chars+1]
		if hi != 0 || !printableASCII(lo) {
			break
		}
		chars++
	}
	if chars < minLen {
		return 0, view.Entry{}, false
	}

	raw := make([]byte, chars)
	for i := range raw {
		raw[i] = data[2*i]
	}
	size := 2 * chars
	if 2*chars+1 < len(data) && data[2*chars] == 0 && data[2*chars+1] == 0 {
		size += 2 // NUL terminator
	}
	return 2 * chars, view.Entry{
		Address: va,
		Text:    EscapeUnprintable(raw),
		Kind:    "utf16le",
		Length:  chars,
		Size:    size,
	}, true
}

// narrowRun matches a run of printable UTF-8 at the start of data. It
// consumes the whole run even when the run is too short to emit, so the
// caller never rescans suffixes.
func narrowRun(data []byte, va uint64, minLen int) (consumed int, e view.Entry, ok bool) {
	end := 0
	runes := 0
	ascii := true
	for end < len(data) {
		r, size := utf8.DecodeRune(data[end:])
		if r == utf8.RuneError && size == 1 {
			break
		}
		if !unicode.IsPrint(r) && r != '\t' {
			break
		}
		if size > 1 {
			ascii = false
		}
		end += size
		runes++
	}
	if runes == 0 {
		return 0, view.Entry{}, false
	}
	if runes < minLen {
		return end, view.Entry{}, false
	}

	kind := "utf8"
	if ascii {
		kind = "ascii"
	}
	size := end
	if end < len(data) && data[end] == 0 {
		size++ // NUL terminator
	}
	return end, view.Entry{
		Address: va,
		Text:    EscapeUnprintable(data[:end]),
		Kind:    kind,
		Length:  runes,
		Size:    size,
	}, true
}

func printableASCII(b byte) bool {
	return b >= 0x20 && b < 0x7f
}

// EscapeUnprintable returns a string where printable runes are preserved.
// Control and unprintable runes are escaped as \uXXXX, invalid UTF-8 as \xXX.
func EscapeUnprintable(b []byte) string {
	var sb strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		switch {
		case r == utf8.RuneError && size == 1:
			fmt.Fprintf(&sb, "\\x%02X", b[0])
		case unicode.IsPrint(r):
			sb.WriteRune(r)
		default:
			fmt.Fprintf(&sb, "\\u%04X", r)
		}
		b = b[size:]
	}
	return sb.String()
}
