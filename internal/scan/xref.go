package scan

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ianlancetaylor/demangle"
	"golang.org/x/arch/arm64/arm64asm"

	"strview/internal/disasm"
	"strview/internal/elfx"
	"strview/internal/logging"
)

// Xref is one code site that materializes a data address.
type Xref struct {
	VA     uint64 // address of the referencing instruction
	Text   string // disassembly of that instruction
	Symbol string // demangled containing function, "" when unknown
}

// xrefChunkInsns bounds how many instructions are decoded between
// cancellation checks.
const xrefChunkInsns = 16384

// FindXrefs scans the executable section for instructions that compute
// target: ADR directly, an ADRP page later completed by an ADD immediate,
// or a PC-relative load. This mirrors how ARM64 code addresses .rodata, so
// it finds the users of a string without relocation info.
func FindXrefs(ctx context.Context, im *elfx.Image, target uint64) ([]Xref, error) {
	code, ok := im.SectionBytes(im.Text)
	if !ok {
		return nil, nil
	}

	var refs []Xref
	pages := map[arm64asm.Reg]uint64{} // register -> page base set by ADRP
	targetPage := target &^ 0xfff

	stream := disasm.DecodeARM64(code, im.Text.VA)
	for i, inst := range stream {
		if i%xrefChunkInsns == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		switch inst.Raw.Op {
		case arm64asm.ADR:
			if pcRel, ok := inst.Raw.Args[1].(arm64asm.PCRel); ok {
				if uint64(int64(inst.VA)+int64(pcRel)) == target {
					refs = append(refs, newXref(im, inst))
				}
			}

		case arm64asm.ADRP:
			pcRel, okRel := inst.Raw.Args[1].(arm64asm.PCRel)
			reg, okReg := inst.Raw.Args[0].(arm64asm.Reg)
			if !okRel || !okReg {
				continue
			}
			page := uint64(int64(inst.VA)+int64(pcRel)) &^ 0xfff
			if page == targetPage {
				pages[reg] = page
				if target == page {
					refs = append(refs, newXref(im, inst))
				}
			} else {
				delete(pages, reg)
			}

		case arm64asm.ADD:
			if len(inst.Raw.Args) < 3 {
				continue
			}
			src, okSrc := inst.Raw.Args[1].(arm64asm.RegSP)
			if !okSrc {
				continue
			}
			page, tracked := pages[arm64asm.Reg(src)]
			if !tracked {
				continue
			}
			if imm, okImm := immediate(inst.Raw.Args[2]); okImm && page+imm == target {
				refs = append(refs, newXref(im, inst))
			}

		case arm64asm.LDR:
			// PC-relative literal load of the target address itself.
			if len(inst.Raw.Args) >= 2 {
				if pcRel, ok := inst.Raw.Args[1].(arm64asm.PCRel); ok {
					if uint64(int64(inst.VA)+int64(pcRel)) == target {
						refs = append(refs, newXref(im, inst))
					}
				}
			}

		case arm64asm.BL, arm64asm.B, arm64asm.RET:
			// Page registers don't survive control transfers we can't follow.
			pages = map[arm64asm.Reg]uint64{}
		}
	}

	if logging.IsDebug() {
		lg := logging.NewLogger()
		lg.Debug("Xref scan finished",
			"target", fmt.Sprintf("0x%x", target),
			"instructions", len(stream),
			"refs", len(refs))
		lg.Close()
	}
	return refs, nil
}

func newXref(im *elfx.Image, inst disasm.Inst) Xref {
	x := Xref{VA: inst.VA, Text: inst.Text}
	if sym, ok := im.SymbolAt(inst.VA); ok {
		x.Symbol = demangle.Filter(sym.Name, demangle.NoClones)
	}
	return x
}

// immediate extracts a plain or shifted immediate argument.
func immediate(arg arm64asm.Arg) (uint64, bool) {
	switch a := arg.(type) {
	case arm64asm.Imm:
		return uint64(a.Imm), true
	case arm64asm.Imm64:
		return uint64(a.Imm), true
	case arm64asm.ImmShift:
		s := strings.TrimPrefix(a.String(), "#")
		if strings.HasPrefix(s, "0x") {
			if v, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
				return v, true
			}
			return 0, false
		}
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
