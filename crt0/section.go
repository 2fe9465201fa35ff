package crt0

import "fmt"

// Output section names, in declaration order.
const (
	SectionHeader = ".crt0_header"
	SectionText   = ".text"
	SectionStack  = ".stack"
	SectionData   = ".data"
	SectionGOT    = ".got"
	SectionBSS    = ".bss"
	SectionEnd    = ".endsec"
	SectionExidx  = ".ARM.exidx"
)

var sectionOrder = []string{
	SectionHeader,
	SectionText,
	SectionStack,
	SectionData,
	SectionGOT,
	SectionBSS,
	SectionEnd,
	SectionExidx,
}

// Section is a placed output section.
//
// LoadAddr is where the section's bytes live in flash and RunAddr is where
// the program addresses them. The two differ only for sections copied from
// flash to SRAM by crt0. NoLoad sections reserve address space and have no
// flash contents.
type Section struct {
	Name     string
	Region   RegionName
	LoadAddr uint32
	RunAddr  uint32
	Size     uint32
	Align    uint32
	NoLoad   bool
}

// Relocated reports whether the section is loaded from flash and run from SRAM.
func (s Section) Relocated() bool {
	return !s.NoLoad && s.LoadAddr != s.RunAddr
}

// End returns the first run address past the section.
func (s Section) End() uint32 {
	return s.RunAddr + s.Size
}

func (s Section) String() string {
	if s.Relocated() {
		return fmt.Sprintf("%-12s %-5s 0x%08x AT 0x%08x size %#x",
			s.Name, s.Region, s.RunAddr, s.LoadAddr, s.Size)
	}
	kind := ""
	if s.NoLoad {
		kind = " (NOLOAD)"
	}
	return fmt.Sprintf("%-12s %-5s 0x%08x size %#x%s",
		s.Name, s.Region, s.RunAddr, s.Size, kind)
}
