package crt0

import (
	"fmt"
)

type RegionName string

const (
	Flash RegionName = "FLASH"
	SRAM  RegionName = "SRAM"
)

func (n RegionName) String() string {
	return string(n)
}

// Region is a physical memory range the layout is placed into.
type Region struct {
	Name   RegionName
	Origin uint32
	Length uint32
}

// End returns the first address past the region.
func (r Region) End() uint64 {
	return uint64(r.Origin) + uint64(r.Length)
}

func (r Region) contains(addr uint64) bool {
	return addr >= uint64(r.Origin) && addr <= r.End()
}

func (r Region) overlaps(o Region) bool {
	return uint64(r.Origin) < o.End() && uint64(o.Origin) < r.End()
}

func (r Region) String() string {
	return fmt.Sprintf("%s(ORIGIN = %#x, LENGTH = %#x)", r.Name, r.Origin, r.Length)
}

func (r Region) validate(want RegionName) error {
	if r.Name != "" && r.Name != want {
		return configErrorf("region %q given where %s is expected", r.Name, want)
	}
	if r.Length == 0 {
		return configErrorf("%s region is missing or empty", want)
	}
	if r.End() > 1<<32 {
		return configErrorf("%s region %#x+%#x exceeds the 32-bit address space",
			want, r.Origin, r.Length)
	}
	return nil
}
