package crt0

import (
	"bytes"
	"fmt"
)

// padByte fills gaps in the flash image; it is the erased value of flash.
const padByte = 0xFF

// Contents holds the bytes of the flash-backed output sections.
// Each slice may be shorter than its placed section; the rest is padded.
type Contents struct {
	Text []byte
	Data []byte
	GOT  []byte
}

// Image lays out the flash image from Beginning up to RelData: the header,
// its padding, .text and the initial values of .data and .got. The
// exception index table is not part of the image.
func (p *Plan) Image(c Contents) ([]byte, error) {
	size := p.RelData - p.Beginning
	img := bytes.Repeat([]byte{padByte}, int(size))
	copy(img, p.Header.Encode(p.byteOrder()))
	for _, part := range []struct {
		name string
		b    []byte
	}{
		{SectionText, c.Text},
		{SectionData, c.Data},
		{SectionGOT, c.GOT},
	} {
		s := p.mustSection(part.name)
		if uint64(len(part.b)) > uint64(s.Size) {
			return nil, fmt.Errorf("crt0: %s contents are %d bytes, section holds %d",
				part.name, len(part.b), s.Size)
		}
		off := s.LoadAddr - p.Beginning
		copy(img[off:], part.b)
	}
	return img, nil
}

// HeaderSpan returns the number of bytes the header section occupies in
// the image, including the padding that brings .text to HeaderAlign.
func (p *Plan) HeaderSpan() uint32 {
	return p.mustSection(SectionHeader).Size
}
