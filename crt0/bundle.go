package crt0

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

const (
	manifestFileName = "manifest.json"
	binFileName      = "app.bin"
	datFileName      = "app.dat"
	hexFileName      = "app.hex"
)

type BundleContents struct {
	Manifest Manifest `json:"manifest"`
}

type Manifest struct {
	App Application `json:"application"`
}

type Application struct {
	BinFile string `json:"bin_file"`
	DatFile string `json:"dat_file"`
	HexFile string `json:"hex_file,omitempty"`
}

// Bundle is a packaged flash image with its layout descriptor.
type Bundle struct {
	Descriptor *Descriptor
	Image      []byte
}

// Header returns the crt0 header recorded for the image.
func (b *Bundle) Header() Header {
	return b.Descriptor.Header
}

// WriteBundle writes the image built from p, its descriptor and an Intel
// HEX copy as a zip archive.
func (p *Plan) WriteBundle(w io.Writer, image []byte) error {
	var hex bytes.Buffer
	if err := p.WriteIntelHex(&hex, image); err != nil {
		return err
	}
	m, err := json.MarshalIndent(&BundleContents{
		Manifest: Manifest{App: Application{
			BinFile: binFileName,
			DatFile: datFileName,
			HexFile: hexFileName,
		}},
	}, "", "  ")
	if err != nil {
		return err
	}
	zw := zip.NewWriter(w)
	for _, f := range []struct {
		name string
		b    []byte
	}{
		{manifestFileName, m},
		{binFileName, image},
		{datFileName, p.Descriptor(image).Marshal()},
		{hexFileName, hex.Bytes()},
	} {
		fw, err := zw.Create(f.name)
		if err != nil {
			return err
		}
		if _, err := fw.Write(f.b); err != nil {
			return err
		}
	}
	return zw.Close()
}

// CreateBundle writes a bundle to the named file.
func (p *Plan) CreateBundle(name string, image []byte) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := p.WriteBundle(f, image); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// OpenBundle reads a bundle file and verifies the image against its
// descriptor.
func OpenBundle(name string) (*Bundle, error) {
	r, err := zip.OpenReader(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readBundle(r)
}

// ReadBundle is OpenBundle for an in-memory archive.
func ReadBundle(b []byte) (*Bundle, error) {
	r, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, err
	}
	return readBundle(r)
}

func readBundle(fsys fs.FS) (*Bundle, error) {
	f, err := fsys.Open(manifestFileName)
	if err != nil {
		return nil, err
	}
	m, err := parseManifest(f)
	f.Close()
	if err != nil {
		return nil, err
	}
	app := m.Manifest.App
	if app.BinFile == "" || app.DatFile == "" {
		return nil, errors.New("crt0: bundle manifest names no image or descriptor")
	}
	dat, err := fs.ReadFile(fsys, app.DatFile)
	if err != nil {
		return nil, err
	}
	d, err := UnmarshalDescriptor(dat)
	if err != nil {
		return nil, err
	}
	image, err := fs.ReadFile(fsys, app.BinFile)
	if err != nil {
		return nil, err
	}
	if err := d.Verify(image); err != nil {
		return nil, fmt.Errorf("crt0: %s: %w", app.BinFile, err)
	}
	return &Bundle{Descriptor: d, Image: image}, nil
}

func parseManifest(f fs.File) (*BundleContents, error) {
	var contents BundleContents
	decoder := json.NewDecoder(f)
	if err := decoder.Decode(&contents); err != nil {
		return nil, err
	}
	return &contents, nil
}
