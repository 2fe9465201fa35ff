package crt0

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is wrapped by every error caused by a missing or invalid
	// layout configuration.
	ErrConfig = errors.New("crt0: invalid layout configuration")

	// ErrBadImage is wrapped by errors decoding a produced image.
	ErrBadImage = errors.New("crt0: malformed image")
)

func configErrorf(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, a...))
}

func imageErrorf(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrBadImage, fmt.Sprintf(format, a...))
}

// AlignmentError reports a stack size that is not a multiple of the
// stack granularity.
type AlignmentError struct {
	StackSize   uint32
	Unaligned   uint64 // stack top before alignment
	Aligned     uint64 // stack top after alignment
	Granularity uint32
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("crt0: STACK_SIZE %d (%#x) must be a multiple of %d bytes: "+
		"stack top %#x aligns to %#x",
		e.StackSize, e.StackSize, e.Granularity, e.Unaligned, e.Aligned)
}

// RegionOverflowError reports sections that do not fit their region.
type RegionOverflowError struct {
	Region Region
	Used   uint64
}

func (e *RegionOverflowError) Error() string {
	return fmt.Sprintf("crt0: region %s overflowed by %d bytes (%d used of %d)",
		e.Region.Name, e.Used-uint64(e.Region.Length), e.Used, e.Region.Length)
}
