// Package elfx opens ELF binaries, locates the sections the string scanner
// cares about, and maps virtual addresses to file offsets.
package elfx

import (
	"debug/elf"
	"fmt"
	"os"
	"sort"
	"syscall"
)

// Image is an ELF binary mapped read-only into memory.
type Image struct {
	Path      string
	File      *elf.File
	All       []byte
	Loads     []Seg
	Text      Section
	Rodata    Section
	Data      Section
	DataRelRo Section
	Syms      []Sym // defined symbols, sorted by address
	f         *os.File
}

type Seg struct {
	Vaddr, Off, Filesz uint64
	Flags              elf.ProgFlag
}

type Section struct {
	Name          string
	VA, Off, Size uint64
}

// Sym is a defined symbol with its size, used to attribute a code address
// to the function containing it.
type Sym struct {
	Name string
	Addr uint64
	Size uint64
}

func Open(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf: %w", err)
	}

	of, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open file: %w", err)
	}

	fi, err := of.Stat()
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	all, err := syscall.Mmap(int(of.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("mmap file: %w", err)
	}

	im := &Image{Path: path, File: f, All: all, f: of}
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		im.Loads = append(im.Loads, Seg{
			Vaddr:  uint64(p.Vaddr),
			Off:    uint64(p.Off),
			Filesz: uint64(p.Filesz),
			Flags:  p.Flags,
		})
	}

	// Use true sections if present.
	for _, s := range f.Sections {
		switch s.Name {
		case ".text":
			im.Text = Section{s.Name, s.Addr, s.Offset, s.Size}
		case ".rodata", ".rodata.rel.ro":
			if im.Rodata.Size == 0 {
				im.Rodata = Section{s.Name, s.Addr, s.Offset, s.Size}
			}
		case ".data":
			im.Data = Section{s.Name, s.Addr, s.Offset, s.Size}
		case ".data.rel.ro":
			im.DataRelRo = Section{s.Name, s.Addr, s.Offset, s.Size}
		}
	}

	im.loadSymbols()

	// Fallbacks if stripped.
	if im.Text.Size == 0 {
		for _, l := range im.Loads {
			if l.Flags&elf.PF_X != 0 && l.Filesz > 0 {
				im.Text = Section{"LOAD(exec)", l.Vaddr, l.Off, l.Filesz}
				break
			}
		}
	}
	if im.Rodata.Size == 0 {
		for _, l := range im.Loads {
			if (l.Flags&elf.PF_R != 0) && (l.Flags&elf.PF_W == 0) && (l.Flags&elf.PF_X == 0) && l.Filesz > 0 {
				im.Rodata = Section{"LOAD(ro)", l.Vaddr, l.Off, l.Filesz}
				break
			}
		}
	}
	return im, nil
}

// Close unmaps the memory and closes the underlying files.
func (im *Image) Close() error {
	var err1, err2 error
	if im.All != nil {
		err1 = syscall.Munmap(im.All)
		im.All = nil
	}
	if im.f != nil {
		err2 = im.f.Close()
		im.f = nil
	}
	if im.File != nil {
		err3 := im.File.Close()
		if err3 != nil && err2 == nil {
			err2 = err3
		}
		im.File = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

// VA2Off translates a virtual address into a file offset using PT_LOAD
// segments. It returns false if VA is unmapped.
func (im *Image) VA2Off(va uint64) (uint64, bool) {
	for _, l := range im.Loads {
		if va >= l.Vaddr && va < l.Vaddr+l.Filesz {
			return l.Off + (va - l.Vaddr), true
		}
	}
	return 0, false
}

// SliceVA returns a subslice of the mapped file corresponding to the
// virtual address range [va, va+size). It returns (nil, false) if the VA is
// unmapped or the range is out of bounds.
func (im *Image) SliceVA(va uint64, size uint64) ([]byte, bool) {
	off, ok := im.VA2Off(va)
	if !ok {
		return nil, false
	}
	if size == 0 {
		return []byte{}, true
	}
	end := off + size
	if end > uint64(len(im.All)) {
		return nil, false
	}
	return im.All[off:end], true
}

// SectionBytes returns the mapped bytes of a section, or false if the
// section is absent or out of file bounds.
func (im *Image) SectionBytes(s Section) ([]byte, bool) {
	if s.Size == 0 {
		return nil, false
	}
	end := s.Off + s.Size
	if end > uint64(len(im.All)) {
		return nil, false
	}
	return im.All[s.Off:end], true
}

// InRodata reports whether the VA lies within the chosen read-only data
// region.
func (im *Image) InRodata(va uint64) bool {
	return im.Rodata.Size != 0 && va >= im.Rodata.VA && va < im.Rodata.VA+im.Rodata.Size
}

// InText reports whether the VA lies within the executable region.
func (im *Image) InText(va uint64) bool {
	return im.Text.Size != 0 && va >= im.Text.VA && va < im.Text.VA+im.Text.Size
}

// loadSymbols collects defined symbols from .symtab and .dynsym and sorts
// them by address so SymbolAt can binary-search.
func (im *Image) loadSymbols() {
	if im.File == nil {
		return
	}

	add := func(syms []elf.Symbol, err error) {
		if err != nil {
			return // table absent or stripped
		}
		for _, sym := range syms {
			if sym.Name == "" || sym.Value == 0 {
				continue
			}
			im.Syms = append(im.Syms, Sym{Name: sym.Name, Addr: sym.Value, Size: sym.Size})
		}
	}
	add(im.File.Symbols())
	add(im.File.DynamicSymbols())

	sort.Slice(im.Syms, func(i, j int) bool { return im.Syms[i].Addr < im.Syms[j].Addr })
}

// SymbolAt returns the symbol whose range covers va. A symbol with size 0
// covers up to the next symbol's address.
func (im *Image) SymbolAt(va uint64) (Sym, bool) {
	n := sort.Search(len(im.Syms), func(i int) bool { return im.Syms[i].Addr > va })
	if n == 0 {
		return Sym{}, false
	}
	sym := im.Syms[n-1]
	if sym.Size > 0 && va >= sym.Addr+sym.Size {
		return Sym{}, false
	}
	return sym, true
}
