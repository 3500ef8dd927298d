// Package colorize applies terminal syntax highlighting to the disassembly
// lines shown in the cross-reference pane.
package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Enabled reports whether highlighting should be applied at all.
// STRVIEW_NO_COLOR disables it, matching NO_COLOR convention.
func Enabled() bool {
	return os.Getenv("STRVIEW_NO_COLOR") == "" && os.Getenv("NO_COLOR") == ""
}

// assemblyLexer picks an assembly lexer, preferring ARM dialects.
func assemblyLexer() chroma.Lexer {
	for _, name := range []string{"armasm", "gas", "nasm"} {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

func terminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if f := formatters.Get(name); f != nil {
			return f
		}
	}
	return formatters.Fallback
}

func xrefStyle() *chroma.Style {
	if style := styles.Get("xref-dark"); style != nil {
		return style
	}
	return styles.Fallback
}

// Assembly highlights a block of assembly text. On any failure the input is
// returned unchanged so the pane never loses content.
func Assembly(code string) string {
	if !Enabled() {
		return code
	}
	lexer := assemblyLexer()
	if lexer == nil {
		return code
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := terminalFormatter().Format(&buf, xrefStyle(), iterator); err != nil {
		return code
	}
	return buf.String()
}

// XrefLine highlights a single "address  instruction ; symbol" line. The
// address column is dimmed, the symbol comment gets a flat color, and the
// instruction body goes through the assembly lexer.
func XrefLine(line string) string {
	if !Enabled() {
		return line
	}

	body := line
	comment := ""
	if idx := strings.Index(line, " ; "); idx >= 0 {
		body, comment = line[:idx], line[idx:]
	}

	addr, rest, found := strings.Cut(body, "  ")
	if found && isHexAddress(addr) {
		body = fmt.Sprintf("\033[38;5;243m%s\033[0m  %s", addr, Assembly(rest))
	} else {
		body = Assembly(body)
	}
	if comment != "" {
		comment = fmt.Sprintf("\033[38;5;109m%s\033[0m", comment)
	}
	return body + comment
}

func isHexAddress(s string) bool {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return false
	}
	for _, ch := range s {
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'f':
		case ch >= 'A' && ch <= 'F':
		default:
			return false
		}
	}
	return true
}
