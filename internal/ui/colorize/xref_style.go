package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// XrefDark is the style used for cross-reference disassembly. Registers in
// teal, immediates in pink, labels in gold, everything else plain.
var XrefDark = styles.Register(chroma.MustNewStyle("xref-dark", chroma.StyleEntries{
	chroma.Text:        "#E0E0E0",
	chroma.Comment:     "#87AFAF",
	chroma.Keyword:     "#E0E0E0",
	chroma.Name:        "#7C9C9D",
	chroma.NameBuiltin: "#7C9C9D",

	chroma.LiteralNumber:    "#FF5F87",
	chroma.LiteralNumberHex: "#FF5F87",

	chroma.NameLabel: "#FFD700",
	chroma.String:    "#EACD53",

	chroma.Operator:    "#E0E0E0",
	chroma.Punctuation: "#E0E0E0",
}))
