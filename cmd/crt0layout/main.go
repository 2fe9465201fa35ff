// crt0layout places a compiled application into FLASH and SRAM and writes
// the flash image that starts with the crt0 header.
//
// Usage:
//
//	go run ./cmd/crt0layout --logtostderr --target=cortex-m --object=app.o --bundle=app.zip
//
// Region and stack flags override the values of the Pkl target; without a
// target every region flag must be given. Without an object the section
// sizes come from the --*_size flags and the image is padding only.
package main

import (
	"context"
	"flag"

	"github.com/golang/glog"
	"github.com/q0jt/go-crt0/cmd/crt0layout/impl"
)

var (
	configPath  = flag.String("config", "./pkl/config.pkl", "Pkl module describing the layout targets")
	target      = flag.String("target", "", "Name of the target in the Pkl config")
	flashOrigin = flag.Uint64("flash_origin", 0, "FLASH origin, overrides the target")
	flashLength = flag.Uint64("flash_length", 0, "FLASH length, overrides the target")
	sramOrigin  = flag.Uint64("sram_origin", 0, "SRAM origin, overrides the target")
	sramLength  = flag.Uint64("sram_length", 0, "SRAM length, overrides the target")
	stackSize   = flag.Uint64("stack_size", 0, "STACK_SIZE in bytes, overrides the target")
	mpuMinAlign = flag.Uint64("mpu_min_align", 0, "MPU_MIN_ALIGN, overrides the target")
	object      = flag.String("object", "", "Relocatable ELF object holding the input sections")
	textSize    = flag.Uint64("text_size", 0, "Size of .text when no object is given")
	dataSize    = flag.Uint64("data_size", 0, "Size of .data when no object is given")
	gotSize     = flag.Uint64("got_size", 0, "Size of .got when no object is given")
	bssSize     = flag.Uint64("bss_size", 0, "Size of .bss when no object is given")
	exidxSize   = flag.Uint64("exidx_size", 0, "Size of .ARM.exidx when no object is given")
	binFile     = flag.String("bin", "", "File path to write the flash image to")
	hexFile     = flag.String("hex", "", "File path to write the flash image to as Intel HEX")
	bundleFile  = flag.String("bundle", "", "File path to write the image bundle to")
	symbolsFile = flag.String("symbols", "", "File path to write the boundary symbols to, - for stdout")
)

// ifSet returns v if the named flag was given on the command line.
func ifSet(name string, v *uint64) *uint64 {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	if !set {
		return nil
	}
	return v
}

func main() {
	flag.Parse()

	if err := impl.Main(context.Background(), impl.LayoutOpts{
		ConfigPath:  *configPath,
		Target:      *target,
		FlashOrigin: ifSet("flash_origin", flashOrigin),
		FlashLength: ifSet("flash_length", flashLength),
		SRAMOrigin:  ifSet("sram_origin", sramOrigin),
		SRAMLength:  ifSet("sram_length", sramLength),
		StackSize:   ifSet("stack_size", stackSize),
		MPUMinAlign: ifSet("mpu_min_align", mpuMinAlign),
		Object:      *object,
		TextSize:    *textSize,
		DataSize:    *dataSize,
		GOTSize:     *gotSize,
		BSSSize:     *bssSize,
		ExidxSize:   *exidxSize,
		BinFile:     *binFile,
		HexFile:     *hexFile,
		BundleFile:  *bundleFile,
		SymbolsFile: *symbolsFile,
	}); err != nil {
		glog.Exit(err.Error())
	}
}
