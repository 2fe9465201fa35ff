package crt0

import "fmt"

// checkStack fails unless aligning the stack top was a no-op, i.e. the
// configured stack size is already a multiple of StackAlign.
func checkStack(size uint32, unaligned, aligned uint64) error {
	if aligned-unaligned != 0 {
		return &AlignmentError{
			StackSize:   size,
			Unaligned:   unaligned,
			Aligned:     aligned,
			Granularity: StackAlign,
		}
	}
	return nil
}

// Check re-validates a finished plan: declaration order, section
// alignment, region bounds and the header against the placed sections.
func (p *Plan) Check() error {
	if len(p.Sections) != len(sectionOrder) {
		return fmt.Errorf("crt0: plan has %d sections, want %d", len(p.Sections), len(sectionOrder))
	}
	for i, s := range p.Sections {
		if s.Name != sectionOrder[i] {
			return fmt.Errorf("crt0: section %d is %s, want %s", i, s.Name, sectionOrder[i])
		}
		if !isAligned(uint64(s.RunAddr), uint64(s.Align)) || !isAligned(uint64(s.LoadAddr), uint64(s.Align)) {
			return fmt.Errorf("crt0: section %s at %#x (load %#x) is not %d-byte aligned",
				s.Name, s.RunAddr, s.LoadAddr, s.Align)
		}
		r := p.Flash
		if s.Region == SRAM {
			r = p.SRAM
		}
		if !r.contains(uint64(s.RunAddr)) || !r.contains(uint64(s.RunAddr)+uint64(s.Size)) {
			return &RegionOverflowError{Region: r, Used: uint64(s.End()) - uint64(r.Origin)}
		}
		if s.Relocated() && !p.Flash.contains(uint64(s.LoadAddr)+uint64(s.Size)) {
			return &RegionOverflowError{Region: p.Flash, Used: uint64(s.LoadAddr+s.Size) - uint64(p.Flash.Origin)}
		}
	}
	if !isAligned(uint64(p.Text), HeaderAlign) {
		return fmt.Errorf("crt0: %s starts at %#x, not on a %d-byte boundary", SectionText, p.Text, HeaderAlign)
	}
	if err := checkStack(p.StackSize, uint64(p.StackTopUnaligned), uint64(p.StackTopAligned)); err != nil {
		return err
	}
	if h := synthesize(p); h != p.Header {
		return fmt.Errorf("crt0: header %s does not match layout %s", p.Header, h)
	}
	return nil
}
