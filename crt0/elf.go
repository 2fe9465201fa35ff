package crt0

import (
	"debug/elf"
	"fmt"
	"strings"
)

// Input section name patterns collected into each output section. A
// trailing '*' matches any suffix.
var inputSections = []struct {
	output   string
	patterns []string
}{
	{SectionText, []string{".start", ".text*", ".rodata*", ".syscalls", ".ARM.extab*"}},
	{SectionData, []string{".data*", ".sdata*"}},
	{SectionGOT, []string{".got*"}},
	{SectionBSS, []string{".bss*", ".sbss*", "COMMON"}},
	{SectionExidx, []string{".ARM.exidx*"}},
}

func matchSection(name, pattern string) bool {
	if p, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, p)
	}
	return name == pattern
}

func outputSection(name string) string {
	for _, in := range inputSections {
		for _, p := range in.patterns {
			if matchSection(name, p) {
				return in.output
			}
		}
	}
	return ""
}

// Object is the compiled input of a layout: collected sizes and the bytes
// of the flash-backed sections.
type Object struct {
	Sizes    Sizes
	Contents Contents
}

// ReadObject collects the allocatable sections of a relocatable ELF object
// into output sections, in file order.
func ReadObject(name string) (*Object, error) {
	f, err := elf.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return collect(f)
}

func collect(f *elf.File) (*Object, error) {
	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("crt0: %s object, want a 32-bit target", f.Class)
	}
	var obj Object
	var exidx, bss uint64
	maxAlign := map[string]uint64{}
	for _, s := range f.Sections {
		if s.Flags&elf.SHF_ALLOC == 0 {
			continue
		}
		out := outputSection(s.Name)
		if out == "" {
			continue
		}
		align := s.Addralign
		if align == 0 {
			align = 1
		}
		if !isPow2(align) || align > 1<<31 {
			return nil, fmt.Errorf("crt0: input section %s has alignment %d", s.Name, align)
		}
		if align > maxAlign[out] {
			maxAlign[out] = align
		}
		switch out {
		case SectionBSS:
			bss = AlignUp(bss, align) + s.Size
			continue
		case SectionExidx:
			exidx = AlignUp(exidx, align) + s.Size
			continue
		}
		if s.Type == elf.SHT_NOBITS {
			return nil, fmt.Errorf("crt0: input section %s has no contents but maps to %s", s.Name, out)
		}
		b, err := s.Data()
		if err != nil {
			return nil, fmt.Errorf("crt0: reading %s: %w", s.Name, err)
		}
		var dst *[]byte
		switch out {
		case SectionText:
			dst = &obj.Contents.Text
		case SectionData:
			dst = &obj.Contents.Data
		case SectionGOT:
			dst = &obj.Contents.GOT
		}
		*dst = appendAligned(*dst, b, align)
	}
	for _, v := range []uint64{uint64(len(obj.Contents.Text)), uint64(len(obj.Contents.Data)),
		uint64(len(obj.Contents.GOT)), bss, exidx} {
		if v > 1<<32-1 {
			return nil, fmt.Errorf("crt0: input section of %d bytes does not fit a 32-bit target", v)
		}
	}
	obj.Sizes = Sizes{
		Text:  uint32(len(obj.Contents.Text)),
		Data:  uint32(len(obj.Contents.Data)),
		GOT:   uint32(len(obj.Contents.GOT)),
		BSS:   uint32(bss),
		Exidx: uint32(exidx),

		TextAlign:  uint32(maxAlign[SectionText]),
		DataAlign:  uint32(maxAlign[SectionData]),
		GOTAlign:   uint32(maxAlign[SectionGOT]),
		BSSAlign:   uint32(maxAlign[SectionBSS]),
		ExidxAlign: uint32(maxAlign[SectionExidx]),
	}
	return &obj, nil
}

func appendAligned(dst, b []byte, align uint64) []byte {
	for n := AlignUp(uint64(len(dst)), align); uint64(len(dst)) < n; {
		dst = append(dst, 0)
	}
	return append(dst, b...)
}
