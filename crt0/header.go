package crt0

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// HeaderSize is the encoded size of Header.
const HeaderSize = 40

// Header is the crt0 header at the first byte of the flash image.
// Field order and width are read by crt0 and by the packaging tool.
//
// The *SymStart and RelDataStart fields are offsets from the start of the
// image; GotStart, DataStart and BssStart are absolute SRAM addresses.
type Header struct {
	GotSymStart  uint32
	GotStart     uint32
	GotSize      uint32
	DataSymStart uint32
	DataStart    uint32
	DataSize     uint32
	BssStart     uint32
	BssSize      uint32
	RelDataStart uint32
	StackSize    uint32
}

// synthesize derives the header from a finished placement.
func synthesize(p *Plan) Header {
	got := p.mustSection(SectionGOT)
	data := p.mustSection(SectionData)
	bss := p.mustSection(SectionBSS)
	return Header{
		GotSymStart:  got.LoadAddr - p.Beginning,
		GotStart:     got.RunAddr,
		GotSize:      got.Size,
		DataSymStart: data.LoadAddr - p.Beginning,
		DataStart:    data.RunAddr,
		DataSize:     data.Size,
		BssStart:     bss.RunAddr,
		BssSize:      bss.Size,
		RelDataStart: p.RelData - p.Beginning,
		StackSize:    p.StackSize,
	}
}

// Encode returns the 40-byte encoding of h in the given byte order.
func (h Header) Encode(order binary.ByteOrder) []byte {
	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	// Writing fixed-size uint32 fields into a buffer cannot fail.
	_ = binary.Write(&buf, order, &h)
	return buf.Bytes()
}

// MarshalBinary encodes h little-endian.
func (h Header) MarshalBinary() ([]byte, error) {
	return h.Encode(binary.LittleEndian), nil
}

// UnmarshalBinary decodes a little-endian header.
func (h *Header) UnmarshalBinary(b []byte) error {
	d, err := DecodeHeader(b, binary.LittleEndian)
	if err != nil {
		return err
	}
	*h = *d
	return nil
}

// DecodeHeader decodes the first HeaderSize bytes of b.
func DecodeHeader(b []byte, order binary.ByteOrder) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, imageErrorf("header needs %d bytes, have %d", HeaderSize, len(b))
	}
	var h Header
	r := bytes.NewReader(b[:HeaderSize])
	if err := binary.Read(r, order, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ReadHeader decodes the header of a flash image and checks that its
// offsets fall inside the image.
func ReadHeader(image []byte, order binary.ByteOrder) (*Header, error) {
	h, err := DecodeHeader(image, order)
	if err != nil {
		return nil, err
	}
	if err := h.validate(uint32(len(image))); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Header) validate(imageLen uint32) error {
	if h.RelDataStart < HeaderSize {
		return imageErrorf("reldata_start %#x lies inside the header", h.RelDataStart)
	}
	if h.RelDataStart > imageLen {
		return imageErrorf("reldata_start %#x is past the image end %#x", h.RelDataStart, imageLen)
	}
	if uint64(h.DataSymStart)+uint64(h.DataSize) > uint64(h.RelDataStart) {
		return imageErrorf(".data initial values [%#x,+%#x) run past reldata_start %#x",
			h.DataSymStart, h.DataSize, h.RelDataStart)
	}
	if uint64(h.GotSymStart)+uint64(h.GotSize) > uint64(h.RelDataStart) {
		return imageErrorf(".got initial values [%#x,+%#x) run past reldata_start %#x",
			h.GotSymStart, h.GotSize, h.RelDataStart)
	}
	if h.StackSize%StackAlign != 0 {
		return imageErrorf("stack_size %d is not a multiple of %d", h.StackSize, StackAlign)
	}
	return nil
}

func (h Header) String() string {
	return fmt.Sprintf("got_sym_start=%#x got_start=%#x got_size=%#x "+
		"data_sym_start=%#x data_start=%#x data_size=%#x "+
		"bss_start=%#x bss_size=%#x reldata_start=%#x stack_size=%#x",
		h.GotSymStart, h.GotStart, h.GotSize,
		h.DataSymStart, h.DataStart, h.DataSize,
		h.BssStart, h.BssSize, h.RelDataStart, h.StackSize)
}
