package crt0

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/q0jt/go-crt0/crt0/config"
	"github.com/q0jt/go-crt0/crt0/config/endian"
)

// DefaultConfigPath is the Pkl module describing the known targets.
const DefaultConfigPath = "./pkl/config.pkl"

func loadLayoutConfig(ctx context.Context, path string) (*config.LayoutConfig, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	conf, err := config.LoadFromPath(ctx, path)
	if err != nil {
		return nil, err
	}
	return conf, nil
}

// LoadTarget evaluates the Pkl layout config at path and returns the
// layout configuration of the named target.
func LoadTarget(ctx context.Context, path, name string) (Config, error) {
	conf, err := loadLayoutConfig(ctx, path)
	if err != nil {
		return Config{}, err
	}
	return findTarget(conf, name)
}

// TargetNames lists the targets of the Pkl layout config at path.
func TargetNames(ctx context.Context, path string) ([]string, error) {
	conf, err := loadLayoutConfig(ctx, path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(conf.Targets))
	for name := range conf.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func findTarget(conf *config.LayoutConfig, name string) (Config, error) {
	for target, t := range conf.Targets {
		if target != name {
			continue
		}
		return targetConfig(t)
	}
	return Config{}, configErrorf("target %q is not registered", name)
}

func targetConfig(t *config.Target) (Config, error) {
	if t == nil || t.Flash == nil || t.Sram == nil {
		return Config{}, configErrorf("target is missing a FLASH or SRAM region")
	}
	cfg := Config{
		Flash:       Region{Name: Flash, Origin: t.Flash.Origin, Length: t.Flash.Length},
		SRAM:        Region{Name: SRAM, Origin: t.Sram.Origin, Length: t.Sram.Length},
		StackSize:   t.StackSize,
		MPUMinAlign: t.MpuMinAlign,
	}
	switch t.Endian {
	case endian.Little, "":
		cfg.ByteOrder = binary.LittleEndian
	case endian.Big:
		cfg.ByteOrder = binary.BigEndian
	default:
		return Config{}, configErrorf("unknown byte order %q", t.Endian)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("target: %w", err)
	}
	return cfg, nil
}
