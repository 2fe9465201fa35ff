package crt0

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOutputSection(t *testing.T) {
	for name, want := range map[string]string{
		".start":            SectionText,
		".text":             SectionText,
		".text.main":        SectionText,
		".rodata.str1.1":    SectionText,
		".syscalls":         SectionText,
		".ARM.extab.text.f": SectionText,
		".data":             SectionData,
		".data.rel.local":   SectionData,
		".sdata":            SectionData,
		".got":              SectionGOT,
		".got.plt":          SectionGOT,
		".bss.buf":          SectionBSS,
		".sbss":             SectionBSS,
		"COMMON":            SectionBSS,
		".ARM.exidx.text.f": SectionExidx,
		".comment":          "",
		".debug_info":       "",
		".startup":          "",
	} {
		if got := outputSection(name); got != want {
			t.Errorf("outputSection(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestAppendAligned(t *testing.T) {
	for _, test := range []struct {
		dst, b []byte
		align  uint64
		want   []byte
	}{
		{nil, []byte{1}, 4, []byte{1}},
		{[]byte{1}, []byte{2}, 1, []byte{1, 2}},
		{[]byte{1}, []byte{2}, 4, []byte{1, 0, 0, 0, 2}},
		{[]byte{1, 2, 3, 4}, []byte{5}, 4, []byte{1, 2, 3, 4, 5}},
		{[]byte{1, 2, 3}, []byte{4}, 8, []byte{1, 2, 3, 0, 0, 0, 0, 0, 4}},
	} {
		got := appendAligned(test.dst, test.b, test.align)
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("appendAligned(% x, % x, %d) diff (-want +got):\n%s", test.dst, test.b, test.align, diff)
		}
	}
}

func TestReadObjectMissingFile(t *testing.T) {
	if _, err := ReadObject("testdata/does-not-exist.o"); err == nil {
		t.Error("ReadObject succeeded on a missing file")
	}
}

// testSection is an input section of a generated ELF object. NOBITS
// sections use size; all others use data.
type testSection struct {
	name  string
	typ   elf.SectionType
	flags elf.SectionFlag
	align uint32
	data  []byte
	size  uint32
}

func progbits(name string, align uint32, data []byte) testSection {
	return testSection{name: name, typ: elf.SHT_PROGBITS, flags: elf.SHF_ALLOC, align: align, data: data}
}

func nobits(name string, align, size uint32) testSection {
	return testSection{name: name, typ: elf.SHT_NOBITS, flags: elf.SHF_ALLOC | elf.SHF_WRITE, align: align, size: size}
}

// buildELF32 returns a little-endian ELF32 relocatable object holding secs.
func buildELF32(t *testing.T, secs []testSection) []byte {
	t.Helper()
	const ehsize, shentsize = 52, 40

	strtab := []byte{0}
	addName := func(name string) uint32 {
		off := uint32(len(strtab))
		strtab = append(append(strtab, name...), 0)
		return off
	}
	var body []byte
	shdrs := []elf.Section32{{}}
	for _, s := range secs {
		sh := elf.Section32{
			Name:      addName(s.name),
			Type:      uint32(s.typ),
			Flags:     uint32(s.flags),
			Off:       uint32(ehsize + len(body)),
			Size:      s.size,
			Addralign: s.align,
		}
		if s.typ != elf.SHT_NOBITS {
			sh.Size = uint32(len(s.data))
			body = append(body, s.data...)
		}
		shdrs = append(shdrs, sh)
	}
	shstr := elf.Section32{Name: addName(".shstrtab"), Type: uint32(elf.SHT_STRTAB), Addralign: 1}
	shstr.Off = uint32(ehsize + len(body))
	shstr.Size = uint32(len(strtab))
	body = append(body, strtab...)
	for len(body)%4 != 0 {
		body = append(body, 0)
	}
	shdrs = append(shdrs, shstr)

	hdr := elf.Header32{
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(elf.EM_ARM),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     uint32(ehsize + len(body)),
		Ehsize:    ehsize,
		Shentsize: shentsize,
		Shnum:     uint16(len(shdrs)),
		Shstrndx:  uint16(len(shdrs) - 1),
	}
	copy(hdr.Ident[:], []byte{0x7f, 'E', 'L', 'F', byte(elf.ELFCLASS32), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT)})

	var buf bytes.Buffer
	for _, v := range []any{&hdr, body, shdrs} {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("building ELF: %v", err)
		}
	}
	return buf.Bytes()
}

func parseELF32(t *testing.T, secs []testSection) *elf.File {
	t.Helper()
	b := buildELF32(t, secs)
	f, err := elf.NewFile(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("elf.NewFile: %v", err)
	}
	return f
}

var appSections = []testSection{
	progbits(".start", 4, []byte("abcdef")),
	progbits(".text.main", 4, []byte("gh")),
	progbits(".rodata.str1.1", 1, []byte("xy")),
	progbits(".data", 4, []byte{1, 2, 3, 4}),
	progbits(".got", 4, []byte{5, 6, 7, 8, 9, 10, 11, 12}),
	nobits(".bss.flag", 1, 3),
	nobits(".bss.u64", 8, 8),
	progbits(".ARM.exidx.text.main", 4, make([]byte, 8)),
	{name: ".comment", typ: elf.SHT_PROGBITS, align: 1, data: []byte("gcc")},
}

func TestCollect(t *testing.T) {
	obj, err := collect(parseELF32(t, appSections))
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want := &Object{
		Sizes: Sizes{
			Text:       12,
			Data:       4,
			GOT:        8,
			BSS:        16,
			Exidx:      8,
			TextAlign:  4,
			DataAlign:  4,
			GOTAlign:   4,
			BSSAlign:   8,
			ExidxAlign: 4,
		},
		Contents: Contents{
			Text: []byte("abcdef\x00\x00ghxy"),
			Data: []byte{1, 2, 3, 4},
			GOT:  []byte{5, 6, 7, 8, 9, 10, 11, 12},
		},
	}
	if diff := cmp.Diff(want, obj); diff != "" {
		t.Errorf("object diff (-want +got):\n%s", diff)
	}
}

func TestCollectErrors(t *testing.T) {
	for _, test := range []struct {
		desc string
		f    func(t *testing.T) *elf.File
	}{
		{
			desc: "64-bit object",
			f: func(*testing.T) *elf.File {
				return &elf.File{FileHeader: elf.FileHeader{Class: elf.ELFCLASS64}}
			},
		},
		{
			desc: "nobits data",
			f: func(t *testing.T) *elf.File {
				return parseELF32(t, []testSection{nobits(".data.zero", 4, 4)})
			},
		},
		{
			desc: "alignment not a power of two",
			f: func(t *testing.T) *elf.File {
				return parseELF32(t, []testSection{progbits(".text", 3, []byte{0})})
			},
		},
		{
			desc: "bss past 4GiB",
			f: func(t *testing.T) *elf.File {
				return parseELF32(t, []testSection{
					nobits(".bss.a", 4, 0xfffffff0),
					nobits(".bss.b", 4, 0x20),
				})
			},
		},
		{
			desc: "exidx past 4GiB",
			f: func(t *testing.T) *elf.File {
				return parseELF32(t, []testSection{
					nobits(".ARM.exidx.a", 4, 0xfffffff0),
					nobits(".ARM.exidx.b", 4, 0x20),
				})
			},
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			if _, err := collect(test.f(t)); err == nil {
				t.Error("collect succeeded")
			}
		})
	}
}

func TestReadObjectPlacesInputAlignment(t *testing.T) {
	name := filepath.Join(t.TempDir(), "app.o")
	if err := os.WriteFile(name, buildELF32(t, []testSection{
		progbits(".text", 4, []byte{0xaa, 0xbb, 0xcc, 0xdd}),
		progbits(".data", 4, []byte{1, 2, 3, 4}),
		nobits(".bss.u64", 8, 8),
	}), 0644); err != nil {
		t.Fatal(err)
	}
	obj, err := ReadObject(name)
	if err != nil {
		t.Fatalf("ReadObject: %v", err)
	}
	p, err := NewPlan(exampleConfig(), obj.Sizes)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	// .data ends at 0x20804, so .bss must skip to the next 8-byte boundary.
	if p.Bss != 0x20808 {
		t.Errorf("_bss = %#x, want 0x20808", p.Bss)
	}
	if s, _ := p.Section(SectionBSS); s.Align != 8 {
		t.Errorf("%s align %d, want 8", SectionBSS, s.Align)
	}
	if err := p.Check(); err != nil {
		t.Errorf("Check: %v", err)
	}
	img, err := p.Image(obj.Contents)
	if err != nil {
		t.Fatal(err)
	}
	if got := img[0x30:0x34]; !bytes.Equal(got, []byte{0xaa, 0xbb, 0xcc, 0xdd}) {
		t.Errorf(".text in image = % x", got)
	}
}
