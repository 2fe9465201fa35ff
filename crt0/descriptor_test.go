package crt0

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestDescriptorRoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		cfg := exampleConfig()
		cfg.ByteOrder = order
		p, err := NewPlan(cfg, exampleSizes)
		if err != nil {
			t.Fatal(err)
		}
		img, err := p.Image(Contents{Text: []byte("crt0")})
		if err != nil {
			t.Fatal(err)
		}
		want := p.Descriptor(img)
		got, err := UnmarshalDescriptor(want.Marshal())
		if err != nil {
			t.Fatalf("%v: UnmarshalDescriptor: %v", order, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%v: descriptor diff (-want +got):\n%s", order, diff)
		}
		if err := got.Verify(img); err != nil {
			t.Errorf("%v: Verify: %v", order, err)
		}
	}
}

func TestDescriptorVerify(t *testing.T) {
	p, err := NewPlan(exampleConfig(), exampleSizes)
	if err != nil {
		t.Fatal(err)
	}
	img, err := p.Image(Contents{})
	if err != nil {
		t.Fatal(err)
	}
	d := p.Descriptor(img)

	corrupt := append([]byte(nil), img...)
	corrupt[0x40] ^= 0xff
	if err := d.Verify(corrupt); !errors.Is(err, ErrBadImage) {
		t.Errorf("corrupted image: got %v, want ErrBadImage", err)
	}
	if err := d.Verify(img[:len(img)-4]); !errors.Is(err, ErrBadImage) {
		t.Errorf("truncated image: got %v, want ErrBadImage", err)
	}
}

func TestUnmarshalDescriptorSkipsUnknownFields(t *testing.T) {
	p, err := NewPlan(exampleConfig(), exampleSizes)
	if err != nil {
		t.Fatal(err)
	}
	d := p.Descriptor(nil)
	b := d.Marshal()
	b = protowire.AppendTag(b, 99, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 0xdeadbeef)
	got, err := UnmarshalDescriptor(b)
	if err != nil {
		t.Fatalf("UnmarshalDescriptor: %v", err)
	}
	if diff := cmp.Diff(d, got); diff != "" {
		t.Errorf("descriptor diff (-want +got):\n%s", diff)
	}
}

func TestUnmarshalDescriptorErrors(t *testing.T) {
	for _, test := range []struct {
		desc string
		b    []byte
	}{
		{"truncated", []byte{0x08}},
		{"no version", appendUint(nil, 6, 1)},
		{"bad version", appendUint(nil, 1, 7)},
		{"no header", appendUint(nil, 1, descriptorVersion)},
		{"overflowing size", appendUint(appendUint(nil, 1, descriptorVersion), 7, 1<<33)},
		{"version as bytes", appendBytes(nil, 1, []byte{descriptorVersion})},
		{"crc as bytes", appendBytes(appendUint(nil, 1, descriptorVersion), 6, []byte{1, 2, 3, 4})},
		{"region as varint", appendUint(appendUint(nil, 1, descriptorVersion), 2, 5)},
		{"region origin as bytes", appendBytes(appendUint(nil, 1, descriptorVersion), 2,
			appendBytes(nil, 2, []byte{0x30, 0x00, 0x01, 0x00}))},
		{"section name as varint", appendBytes(appendUint(nil, 1, descriptorVersion), 3,
			appendUint(nil, 1, 7))},
	} {
		t.Run(test.desc, func(t *testing.T) {
			if _, err := UnmarshalDescriptor(test.b); !errors.Is(err, ErrBadImage) {
				t.Errorf("got error %v, want ErrBadImage", err)
			}
		})
	}
}
