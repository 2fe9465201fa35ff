package crt0

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"google.golang.org/protobuf/encoding/protowire"
)

const descriptorVersion = 1

// Descriptor records a finished layout for the packaging tool in protobuf
// wire format, so it does not have to parse the linked object.
//
//	message Descriptor {
//	  uint32 version = 1;
//	  repeated Region regions = 2;    // name = 1, origin = 2, length = 3
//	  repeated Section sections = 3;  // name = 1, region = 2, load_addr = 3,
//	                                  // run_addr = 4, size = 5, align = 6,
//	                                  // no_load = 7
//	  bytes header = 4;
//	  bool big_endian = 5;
//	  uint32 image_crc32 = 6;
//	  uint32 image_size = 7;
//	}
type Descriptor struct {
	Regions    []Region
	Sections   []Section
	Header     Header
	BigEndian  bool
	ImageCRC32 uint32
	ImageSize  uint32
}

// Descriptor describes the plan and the image built from it.
func (p *Plan) Descriptor(image []byte) *Descriptor {
	return &Descriptor{
		Regions:    []Region{p.Flash, p.SRAM},
		Sections:   append([]Section(nil), p.Sections...),
		Header:     p.Header,
		BigEndian:  p.byteOrder() == binary.BigEndian,
		ImageCRC32: crc32.ChecksumIEEE(image),
		ImageSize:  uint32(len(image)),
	}
}

func (d *Descriptor) byteOrder() binary.ByteOrder {
	if d.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Verify checks image against the recorded size and checksum.
func (d *Descriptor) Verify(image []byte) error {
	if uint32(len(image)) != d.ImageSize {
		return imageErrorf("image is %d bytes, descriptor records %d", len(image), d.ImageSize)
	}
	if crc := crc32.ChecksumIEEE(image); crc != d.ImageCRC32 {
		return imageErrorf("image crc32 %08x, descriptor records %08x", crc, d.ImageCRC32)
	}
	h, err := ReadHeader(image, d.byteOrder())
	if err != nil {
		return err
	}
	if *h != d.Header {
		return imageErrorf("image header %s does not match descriptor %s", h, d.Header)
	}
	return nil
}

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// Marshal encodes d in protobuf wire format.
func (d *Descriptor) Marshal() []byte {
	b := appendUint(nil, 1, descriptorVersion)
	for _, r := range d.Regions {
		var m []byte
		m = appendBytes(m, 1, []byte(r.Name))
		m = appendUint(m, 2, uint64(r.Origin))
		m = appendUint(m, 3, uint64(r.Length))
		b = appendBytes(b, 2, m)
	}
	for _, s := range d.Sections {
		var m []byte
		m = appendBytes(m, 1, []byte(s.Name))
		m = appendBytes(m, 2, []byte(s.Region))
		m = appendUint(m, 3, uint64(s.LoadAddr))
		m = appendUint(m, 4, uint64(s.RunAddr))
		m = appendUint(m, 5, uint64(s.Size))
		m = appendUint(m, 6, uint64(s.Align))
		m = appendUint(m, 7, protowire.EncodeBool(s.NoLoad))
		b = appendBytes(b, 3, m)
	}
	b = appendBytes(b, 4, d.Header.Encode(d.byteOrder()))
	b = appendUint(b, 5, protowire.EncodeBool(d.BigEndian))
	b = appendUint(b, 6, uint64(d.ImageCRC32))
	b = appendUint(b, 7, uint64(d.ImageSize))
	return b
}

// field is a decoded field. v holds varint values and b length-delimited
// ones; other wire types carry neither.
type field struct {
	num protowire.Number
	typ protowire.Type
	v   uint64
	b   []byte
}

// Wire types of the known fields of each message.
var (
	descriptorFields = map[protowire.Number]protowire.Type{
		1: protowire.VarintType,
		2: protowire.BytesType,
		3: protowire.BytesType,
		4: protowire.BytesType,
		5: protowire.VarintType,
		6: protowire.VarintType,
		7: protowire.VarintType,
	}
	regionFields = map[protowire.Number]protowire.Type{
		1: protowire.BytesType,
		2: protowire.VarintType,
		3: protowire.VarintType,
	}
	sectionFields = map[protowire.Number]protowire.Type{
		1: protowire.BytesType,
		2: protowire.BytesType,
		3: protowire.VarintType,
		4: protowire.VarintType,
		5: protowire.VarintType,
		6: protowire.VarintType,
		7: protowire.VarintType,
	}
)

func (f field) u32() (uint32, error) {
	if f.v > 1<<32-1 {
		return 0, imageErrorf("descriptor field %d overflows uint32", f.num)
	}
	return uint32(f.v), nil
}

// rangeFields calls fn for each known field of b. Unknown field numbers are
// skipped; a known number with the wrong wire type is an error.
func rangeFields(b []byte, known map[protowire.Number]protowire.Type, fn func(field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return imageErrorf("descriptor: %v", protowire.ParseError(n))
		}
		b = b[n:]
		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.v, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.b, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return imageErrorf("descriptor: %v", protowire.ParseError(n))
		}
		b = b[n:]
		want, ok := known[num]
		if !ok {
			continue
		}
		if typ != want {
			return imageErrorf("descriptor field %d has wire type %d, want %d", num, typ, want)
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalDescriptor decodes a descriptor produced by Marshal.
func UnmarshalDescriptor(b []byte) (*Descriptor, error) {
	var d Descriptor
	var version uint64
	var header []byte
	err := rangeFields(b, descriptorFields, func(f field) error {
		var err error
		switch f.num {
		case 1:
			version = f.v
		case 2:
			var r Region
			r, err = unmarshalRegion(f.b)
			d.Regions = append(d.Regions, r)
		case 3:
			var s Section
			s, err = unmarshalSection(f.b)
			d.Sections = append(d.Sections, s)
		case 4:
			header = f.b
		case 5:
			d.BigEndian = protowire.DecodeBool(f.v)
		case 6:
			d.ImageCRC32, err = f.u32()
		case 7:
			d.ImageSize, err = f.u32()
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("crt0: decoding descriptor: %w", err)
	}
	if version != descriptorVersion {
		return nil, fmt.Errorf("crt0: %w", imageErrorf("unsupported descriptor version %d", version))
	}
	h, err := DecodeHeader(header, d.byteOrder())
	if err != nil {
		return nil, err
	}
	d.Header = *h
	return &d, nil
}

func unmarshalRegion(b []byte) (Region, error) {
	var r Region
	err := rangeFields(b, regionFields, func(f field) error {
		var err error
		switch f.num {
		case 1:
			r.Name = RegionName(f.b)
		case 2:
			r.Origin, err = f.u32()
		case 3:
			r.Length, err = f.u32()
		}
		return err
	})
	return r, err
}

func unmarshalSection(b []byte) (Section, error) {
	var s Section
	err := rangeFields(b, sectionFields, func(f field) error {
		var err error
		switch f.num {
		case 1:
			s.Name = string(f.b)
		case 2:
			s.Region = RegionName(f.b)
		case 3:
			s.LoadAddr, err = f.u32()
		case 4:
			s.RunAddr, err = f.u32()
		case 5:
			s.Size, err = f.u32()
		case 6:
			s.Align, err = f.u32()
		case 7:
			s.NoLoad = protowire.DecodeBool(f.v)
		}
		return err
	})
	return s, err
}
