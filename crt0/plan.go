package crt0

import (
	"encoding/binary"
	"fmt"

	"github.com/golang/glog"
)

// Config is the layout input supplied by the application's build.
type Config struct {
	Flash Region
	SRAM  Region

	// StackSize is the requested stack size in bytes. It must be a
	// multiple of StackAlign.
	StackSize uint32

	// MPUMinAlign is the memory protection unit granularity the end of
	// the application's SRAM is rounded up to. Zero means WordAlign.
	MPUMinAlign uint32

	// ByteOrder of the target. Nil means little-endian.
	ByteOrder binary.ByteOrder
}

func (c Config) byteOrder() binary.ByteOrder {
	if c.ByteOrder == nil {
		return binary.LittleEndian
	}
	return c.ByteOrder
}

func (c Config) mpuAlign() uint64 {
	if c.MPUMinAlign == 0 {
		return WordAlign
	}
	return uint64(c.MPUMinAlign)
}

func (c Config) validate() error {
	if err := c.Flash.validate(Flash); err != nil {
		return err
	}
	if err := c.SRAM.validate(SRAM); err != nil {
		return err
	}
	if c.Flash.overlaps(c.SRAM) {
		return configErrorf("%s overlaps %s", c.Flash, c.SRAM)
	}
	if !isAligned(uint64(c.Flash.Origin), WordAlign) {
		return configErrorf("FLASH origin %#x is not %d-byte aligned", c.Flash.Origin, WordAlign)
	}
	if !isAligned(uint64(c.SRAM.Origin), StackAlign) {
		return configErrorf("SRAM origin %#x is not %d-byte aligned", c.SRAM.Origin, StackAlign)
	}
	if c.MPUMinAlign != 0 && !isPow2(uint64(c.MPUMinAlign)) {
		return configErrorf("MPU_MIN_ALIGN %#x is not a power of two", c.MPUMinAlign)
	}
	return nil
}

// Sizes holds the byte counts of the compiled input sections collected into
// each output section, and the largest alignment any of those inputs
// requires. A zero alignment means WordAlign.
type Sizes struct {
	Text  uint32
	Data  uint32
	GOT   uint32
	BSS   uint32
	Exidx uint32

	TextAlign  uint32
	DataAlign  uint32
	GOTAlign   uint32
	BSSAlign   uint32
	ExidxAlign uint32
}

func (s Sizes) validate() error {
	for _, a := range []struct {
		name  string
		align uint32
	}{
		{SectionText, s.TextAlign},
		{SectionData, s.DataAlign},
		{SectionGOT, s.GOTAlign},
		{SectionBSS, s.BSSAlign},
		{SectionExidx, s.ExidxAlign},
	} {
		if a.align != 0 && !isPow2(uint64(a.align)) {
			return configErrorf("%s input alignment %d is not a power of two", a.name, a.align)
		}
	}
	return nil
}

// outputAlign returns the start alignment of an output section whose
// inputs need align.
func outputAlign(align uint32) uint64 {
	if align < WordAlign {
		return WordAlign
	}
	return uint64(align)
}

// Plan is a finalized layout. Every boundary the startup code or the
// packaging tool needs is a field; nothing is recomputed after NewPlan
// returns.
type Plan struct {
	Flash     Region
	SRAM      Region
	StackSize uint32
	ByteOrder binary.ByteOrder

	Sections []Section

	Beginning         uint32 // _beginning, first byte of the image
	Text              uint32 // _text
	Etext             uint32 // _etext
	SRAMOrigin        uint32 // _sram_origin, bottom of the stack
	StackTopUnaligned uint32 // _stack_top_unaligned
	StackTopAligned   uint32 // _stack_top_aligned
	Data              uint32 // _data
	Got               uint32 // _got
	Bss               uint32 // _bss
	Ebss              uint32 // _ebss
	SRAMEnd           uint32 // _sram_end, Ebss rounded up to MPUMinAlign
	RelData           uint32 // _reldata, first flash byte after the program
	ExidxStart        uint32 // __exidx_start
	ExidxEnd          uint32 // __exidx_end

	Header Header
}

func (p *Plan) byteOrder() binary.ByteOrder {
	if p.ByteOrder == nil {
		return binary.LittleEndian
	}
	return p.ByteOrder
}

// cursor is a placement position inside one region.
type cursor struct {
	region Region
	addr   uint64
}

func newCursor(r Region) *cursor {
	return &cursor{region: r, addr: uint64(r.Origin)}
}

// place reserves size bytes starting on a multiple of align and leaves the
// cursor at the next word boundary after them.
func (c *cursor) place(size, align uint64) (start, end uint64) {
	start = AlignUp(c.addr, align)
	end = AlignUp(start+size, WordAlign)
	c.addr = end
	return start, end
}

func (c *cursor) used() uint64 {
	return c.addr - uint64(c.region.Origin)
}

func (c *cursor) overflow() error {
	if c.used() > uint64(c.region.Length) {
		return &RegionOverflowError{Region: c.region, Used: c.used()}
	}
	return nil
}

// NewPlan places every section and synthesizes the crt0 header.
//
// Placement is finished before the header is derived from it. The returned
// plan is never partially filled: on error it is nil.
func NewPlan(cfg Config, sizes Sizes) (*Plan, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := sizes.validate(); err != nil {
		return nil, err
	}
	cfg.Flash.Name, cfg.SRAM.Name = Flash, SRAM
	p, err := place(cfg, sizes)
	if err != nil {
		return nil, err
	}
	p.Header = synthesize(p)
	glog.V(1).Infof("crt0: header %s", p.Header)
	return p, nil
}

func place(cfg Config, sizes Sizes) (*Plan, error) {
	flash := newCursor(cfg.Flash)
	sram := newCursor(cfg.SRAM)
	p := &Plan{
		Flash:     cfg.Flash,
		SRAM:      cfg.SRAM,
		StackSize: cfg.StackSize,
		ByteOrder: cfg.byteOrder(),
	}
	add := func(s Section) {
		glog.V(1).Infof("crt0: place %s", s)
		p.Sections = append(p.Sections, s)
	}

	// The header keeps its natural start and pads its end to HeaderAlign.
	hdrStart := flash.addr
	flash.addr = AlignUp(hdrStart+HeaderSize, HeaderAlign)
	add(flashSection(SectionHeader, hdrStart, flash.addr, WordAlign))
	p.Beginning = uint32(hdrStart)

	align := outputAlign(sizes.TextAlign)
	start, end := flash.place(uint64(sizes.Text), align)
	add(flashSection(SectionText, start, end, uint32(align)))
	p.Text, p.Etext = uint32(start), uint32(end)

	stackStart := sram.addr
	unaligned := stackStart + uint64(cfg.StackSize)
	aligned := AlignUp(unaligned, StackAlign)
	if err := checkStack(cfg.StackSize, unaligned, aligned); err != nil {
		return nil, err
	}
	sram.addr = aligned
	add(Section{
		Name:     SectionStack,
		Region:   SRAM,
		LoadAddr: uint32(stackStart),
		RunAddr:  uint32(stackStart),
		Size:     uint32(aligned - stackStart),
		Align:    StackAlign,
		NoLoad:   true,
	})
	p.SRAMOrigin = uint32(stackStart)
	p.StackTopUnaligned, p.StackTopAligned = uint32(unaligned), uint32(aligned)

	data := relocate(flash, sram, SectionData, sizes.Data, outputAlign(sizes.DataAlign))
	add(data)
	p.Data = data.RunAddr

	got := relocate(flash, sram, SectionGOT, sizes.GOT, outputAlign(sizes.GOTAlign))
	add(got)
	p.Got = got.RunAddr

	align = outputAlign(sizes.BSSAlign)
	start, end = sram.place(uint64(sizes.BSS), align)
	add(Section{
		Name:     SectionBSS,
		Region:   SRAM,
		LoadAddr: uint32(start),
		RunAddr:  uint32(start),
		Size:     uint32(end - start),
		Align:    uint32(align),
		NoLoad:   true,
	})
	p.Bss, p.Ebss = uint32(start), uint32(end)
	sram.addr = AlignUp(sram.addr, cfg.mpuAlign())
	p.SRAMEnd = uint32(sram.addr)

	start, end = flash.place(0, WordAlign)
	add(flashSection(SectionEnd, start, end, WordAlign))
	p.RelData = uint32(start)

	align = outputAlign(sizes.ExidxAlign)
	start, end = flash.place(uint64(sizes.Exidx), align)
	add(flashSection(SectionExidx, start, end, uint32(align)))
	p.ExidxStart, p.ExidxEnd = uint32(start), uint32(end)

	if err := flash.overflow(); err != nil {
		return nil, err
	}
	if err := sram.overflow(); err != nil {
		return nil, err
	}
	return p, nil
}

func flashSection(name string, start, end uint64, align uint32) Section {
	return Section{
		Name:     name,
		Region:   Flash,
		LoadAddr: uint32(start),
		RunAddr:  uint32(start),
		Size:     uint32(end - start),
		Align:    align,
	}
}

// relocate places a section that runs from SRAM and whose initial contents
// follow the previous flash section. Both copies start on align.
func relocate(flash, sram *cursor, name string, size uint32, align uint64) Section {
	run, runEnd := sram.place(uint64(size), align)
	n := runEnd - run
	load, _ := flash.place(n, align)
	return Section{
		Name:     name,
		Region:   SRAM,
		LoadAddr: uint32(load),
		RunAddr:  uint32(run),
		Size:     uint32(n),
		Align:    uint32(align),
	}
}

// Section returns the placed section with the given name.
func (p *Plan) Section(name string) (Section, bool) {
	for _, s := range p.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

func (p *Plan) mustSection(name string) Section {
	s, ok := p.Section(name)
	if !ok {
		panic(fmt.Sprintf("crt0: plan has no %s section", name))
	}
	return s
}

// FlashUsed returns the number of flash bytes the layout occupies,
// including the exception index table.
func (p *Plan) FlashUsed() uint32 {
	return p.ExidxEnd - p.Beginning
}

// SRAMUsed returns the number of SRAM bytes the layout reserves.
func (p *Plan) SRAMUsed() uint32 {
	return p.SRAMEnd - p.SRAMOrigin
}

func (p *Plan) String() string {
	s := fmt.Sprintf("%s\n%s\n", p.Flash, p.SRAM)
	for _, sec := range p.Sections {
		s += sec.String() + "\n"
	}
	return s
}
