package crt0

import (
	"fmt"
	"io"
)

// Symbol is a named layout boundary.
type Symbol struct {
	Name   string
	Region RegionName
	Addr   uint32
}

// Symbols returns the boundaries exported to crt0 and tooling, flash
// symbols first, each region in address order.
func (p *Plan) Symbols() []Symbol {
	return []Symbol{
		{"_beginning", Flash, p.Beginning},
		{"_text", Flash, p.Text},
		{"_etext", Flash, p.Etext},
		{"_reldata", Flash, p.RelData},
		{"__exidx_start", Flash, p.ExidxStart},
		{"__exidx_end", Flash, p.ExidxEnd},
		{"_sram_origin", SRAM, p.SRAMOrigin},
		{"_stack_top_unaligned", SRAM, p.StackTopUnaligned},
		{"_stack_top_aligned", SRAM, p.StackTopAligned},
		{"_data", SRAM, p.Data},
		{"_got", SRAM, p.Got},
		{"_bss", SRAM, p.Bss},
		{"_ebss", SRAM, p.Ebss},
		{"_sram_end", SRAM, p.SRAMEnd},
	}
}

// Lookup returns the address of a named boundary.
func (p *Plan) Lookup(name string) (uint32, bool) {
	for _, s := range p.Symbols() {
		if s.Name == name {
			return s.Addr, true
		}
	}
	return 0, false
}

// WriteSymbols writes one "name = 0xaddr;" line per boundary, the form a
// linker script or --defsym list accepts.
func (p *Plan) WriteSymbols(w io.Writer) error {
	for _, s := range p.Symbols() {
		if _, err := fmt.Fprintf(w, "%s = 0x%08x;\n", s.Name, s.Addr); err != nil {
			return err
		}
	}
	return nil
}
