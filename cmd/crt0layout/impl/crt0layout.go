// Package impl is the implementation of the crt0layout tool, which places a
// compiled application and writes its flash image.
package impl

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"

	"github.com/golang/glog"
	"github.com/q0jt/go-crt0/crt0"
)

// LayoutOpts encapsulates crt0layout parameters.
// Nil overrides keep the value of the Pkl target.
type LayoutOpts struct {
	ConfigPath string
	Target     string

	FlashOrigin *uint64
	FlashLength *uint64
	SRAMOrigin  *uint64
	SRAMLength  *uint64
	StackSize   *uint64
	MPUMinAlign *uint64

	Object    string
	TextSize  uint64
	DataSize  uint64
	GOTSize   uint64
	BSSSize   uint64
	ExidxSize uint64

	BinFile     string
	HexFile     string
	BundleFile  string
	SymbolsFile string
}

func Main(ctx context.Context, opts LayoutOpts) error {
	cfg, err := layoutConfig(ctx, opts)
	if err != nil {
		return err
	}
	obj, err := readInput(opts)
	if err != nil {
		return err
	}
	plan, err := crt0.NewPlan(cfg, obj.Sizes)
	if err != nil {
		return fmt.Errorf("layout failed: %w", err)
	}
	glog.Infof("Placed %s: FLASH %d/%d bytes, SRAM %d/%d bytes",
		opts.Target, plan.FlashUsed(), cfg.Flash.Length, plan.SRAMUsed(), cfg.SRAM.Length)
	glog.V(1).Infof("Layout:\n%s", plan)
	img, err := plan.Image(obj.Contents)
	if err != nil {
		return err
	}
	return writeOutputs(opts, plan, img)
}

func layoutConfig(ctx context.Context, opts LayoutOpts) (crt0.Config, error) {
	var cfg crt0.Config
	if opts.Target != "" {
		var err error
		cfg, err = crt0.LoadTarget(ctx, opts.ConfigPath, opts.Target)
		if err != nil {
			return crt0.Config{}, fmt.Errorf("failed to load target %q: %w", opts.Target, err)
		}
	}
	for _, o := range []struct {
		name string
		v    *uint64
		dst  *uint32
	}{
		{"flash_origin", opts.FlashOrigin, &cfg.Flash.Origin},
		{"flash_length", opts.FlashLength, &cfg.Flash.Length},
		{"sram_origin", opts.SRAMOrigin, &cfg.SRAM.Origin},
		{"sram_length", opts.SRAMLength, &cfg.SRAM.Length},
		{"stack_size", opts.StackSize, &cfg.StackSize},
		{"mpu_min_align", opts.MPUMinAlign, &cfg.MPUMinAlign},
	} {
		if o.v == nil {
			continue
		}
		v, err := toUint32(o.name, *o.v)
		if err != nil {
			return crt0.Config{}, err
		}
		*o.dst = v
	}
	return cfg, nil
}

func toUint32(name string, v uint64) (uint32, error) {
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("%s %#x does not fit a 32-bit target", name, v)
	}
	return uint32(v), nil
}

func readInput(opts LayoutOpts) (*crt0.Object, error) {
	if opts.Object != "" {
		obj, err := crt0.ReadObject(opts.Object)
		if err != nil {
			return nil, fmt.Errorf("failed to read object %q: %w", opts.Object, err)
		}
		return obj, nil
	}
	var obj crt0.Object
	for _, s := range []struct {
		name string
		v    uint64
		dst  *uint32
	}{
		{"text_size", opts.TextSize, &obj.Sizes.Text},
		{"data_size", opts.DataSize, &obj.Sizes.Data},
		{"got_size", opts.GOTSize, &obj.Sizes.GOT},
		{"bss_size", opts.BSSSize, &obj.Sizes.BSS},
		{"exidx_size", opts.ExidxSize, &obj.Sizes.Exidx},
	} {
		v, err := toUint32(s.name, s.v)
		if err != nil {
			return nil, err
		}
		*s.dst = v
	}
	return &obj, nil
}

func writeOutputs(opts LayoutOpts, plan *crt0.Plan, img []byte) error {
	if opts.BinFile != "" {
		if err := os.WriteFile(opts.BinFile, img, 0644); err != nil {
			return fmt.Errorf("failed to write image: %w", err)
		}
		glog.Infof("Wrote %d byte image to %s", len(img), opts.BinFile)
	}
	if opts.HexFile != "" {
		var b bytes.Buffer
		if err := plan.WriteIntelHex(&b, img); err != nil {
			return fmt.Errorf("failed to encode Intel HEX: %w", err)
		}
		if err := os.WriteFile(opts.HexFile, b.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write Intel HEX: %w", err)
		}
		glog.Infof("Wrote Intel HEX to %s", opts.HexFile)
	}
	if opts.BundleFile != "" {
		if err := plan.CreateBundle(opts.BundleFile, img); err != nil {
			return fmt.Errorf("failed to write bundle: %w", err)
		}
		glog.Infof("Wrote bundle to %s", opts.BundleFile)
	}
	if opts.SymbolsFile != "" {
		return writeSymbols(opts.SymbolsFile, plan)
	}
	return nil
}

func writeSymbols(name string, plan *crt0.Plan) error {
	if name == "-" {
		return plan.WriteSymbols(os.Stdout)
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := plan.WriteSymbols(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write symbols: %w", err)
	}
	return f.Close()
}
