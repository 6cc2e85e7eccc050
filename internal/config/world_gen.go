package config

import (
	"fmt"
	"strings"

	"voxstream/internal/meshing"
	"voxstream/internal/terrain"
)

// World holds world generation settings. Generator holds the full parameter
// set; the flags below override single parts of it.
type World struct {
	Seed int64 `toml:"seed" yaml:"seed"`
	// Caves toggles cave carving.
	Caves bool `toml:"caves" yaml:"caves"`
	// Clouds toggles cloud fields, which only a rendering client needs.
	Clouds bool `toml:"clouds" yaml:"clouds"`
	// SeaLevel is the height below which beaches are sand.
	SeaLevel  int                  `toml:"sea_level" yaml:"sea_level"`
	Generator terrain.WorldContext `toml:"generator" yaml:"generator"`
}

// DefaultWorld returns the stock world settings with a fixed seed.
func DefaultWorld() World {
	ctx := terrain.DefaultWorldContext()
	return World{
		Seed:      42,
		Caves:     true,
		SeaLevel:  ctx.SandHeight,
		Generator: ctx,
	}
}

// Context returns the generation parameters with the overrides applied.
func (w World) Context() terrain.WorldContext {
	ctx := w.Generator
	if ctx == (terrain.WorldContext{}) {
		ctx = terrain.DefaultWorldContext()
	}
	if !w.Caves {
		ctx.CaveThreshold = 1
	}
	if w.SeaLevel > 0 {
		ctx.SandHeight = w.SeaLevel
	}
	ctx.ClientData = w.Clouds
	return ctx
}

func mesher(name string) (meshing.Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cubic":
		return meshing.Cubic, nil
	case "greedy":
		return meshing.Greedy, nil
	}
	return nil, fmt.Errorf("unknown mesher %q", name)
}
