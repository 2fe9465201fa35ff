package crt0

const (
	// WordAlign is the default section alignment of the target.
	WordAlign = 4

	// HeaderAlign is the boundary the section after the crt0 header starts on.
	// LLD aligns the section following the header to a multiple of 32 bytes
	// even though the header is only 40 bytes long, so the padding is part
	// of the format.
	HeaderAlign = 32

	// StackAlign is the granularity the stack size must be a multiple of.
	StackAlign = 8
)

// AlignUp rounds addr up to the next multiple of align.
// align must be a power of two.
func AlignUp(addr, align uint64) uint64 {
	if !isPow2(align) {
		panic("crt0: alignment is not a power of two")
	}
	return (addr + align - 1) &^ (align - 1)
}

func isPow2(x uint64) bool {
	return x != 0 && x&(x-1) == 0
}

func isAligned(addr, align uint64) bool {
	return addr&(align-1) == 0
}
