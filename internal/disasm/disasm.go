// Package disasm defines a common instruction representation and a small
// ARM64 decoder used by the cross-reference scanner.
package disasm

import (
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
)

// Inst is a simplified decoded instruction.
type Inst struct {
	VA   uint64        // virtual address of instruction
	Text string        // formatted disassembly string
	Op   string        // mnemonic in lowercase
	Raw  arm64asm.Inst // full decoding for argument inspection
}

// Stream is a linear sequence of instructions.
type Stream []Inst

// DecodeARM64 decodes up to len(code)/4 instructions starting at va.
// Undecodable words are kept in the stream as ".word" placeholders so VAs
// stay aligned with the input.
func DecodeARM64(code []byte, va uint64) Stream {
	stream := make(Stream, 0, len(code)/4)
	for i := 0; i+4 <= len(code); i += 4 {
		inst, err := arm64asm.Decode(code[i : i+4])
		if err != nil {
			stream = append(stream, Inst{VA: va + uint64(i), Text: ".word", Op: ".word"})
			continue
		}
		text := arm64asm.GNUSyntax(inst)
		stream = append(stream, Inst{
			VA:   va + uint64(i),
			Text: text,
			Op:   strings.ToLower(inst.Op.String()),
			Raw:  inst,
		})
	}
	return stream
}
