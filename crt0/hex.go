package crt0

import (
	"bytes"
	"io"

	"github.com/marcinbor85/gohex"
)

const hexLineLength = 16

// WriteIntelHex writes a flash image produced by Image as Intel HEX at the
// plan's flash address.
func (p *Plan) WriteIntelHex(w io.Writer, image []byte) error {
	mem := gohex.NewMemory()
	if err := mem.AddBinary(p.Beginning, image); err != nil {
		return err
	}
	return mem.DumpIntelHex(w, hexLineLength)
}

// HexFileToImage converts an Intel HEX file back into a flat image that
// starts at origin.
func HexFileToImage(b []byte, origin uint32) ([]byte, error) {
	return intelHexToImage(bytes.NewReader(b), origin)
}

func intelHexToImage(r io.Reader, origin uint32) ([]byte, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, err
	}
	var end uint64
	for _, segment := range mem.GetDataSegments() {
		addr := segment.Address
		if addr < origin {
			return nil, imageErrorf("hex segment at %#x lies below the image origin %#x", addr, origin)
		}
		if e := uint64(addr) + uint64(len(segment.Data)); e > end {
			end = e
		}
	}
	if end == 0 {
		return nil, imageErrorf("hex file holds no data")
	}
	return mem.ToBinary(origin, uint32(end-uint64(origin)), padByte), nil
}
