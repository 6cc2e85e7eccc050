package terrain

import (
	"slices"

	"voxstream/internal/world"
)

// NoiseLayer configures one fractal noise field of the height map.
type NoiseLayer struct {
	Octaves     int     `toml:"octaves" yaml:"octaves"`
	Persistence float64 `toml:"persistence" yaml:"persistence"`
	Frequency   float64 `toml:"frequency" yaml:"frequency"`
	Amplitude   float64 `toml:"amplitude" yaml:"amplitude"`
}

// WorldContext holds the tunable generation parameters. A Generator keeps its
// own copy, so changing a context never affects a generation pass in flight.
type WorldContext struct {
	Landscape NoiseLayer `toml:"landscape" yaml:"landscape"`
	Cliff     NoiseLayer `toml:"cliff" yaml:"cliff"`
	Mountain  NoiseLayer `toml:"mountain" yaml:"mountain"`

	// MinHeight is the lowest possible surface; TerrainHeight is the span the
	// normalised height field is scaled to above it.
	MinHeight     int `toml:"min_height" yaml:"min_height"`
	TerrainHeight int `toml:"terrain_height" yaml:"terrain_height"`
	// MaxHeight is the world ceiling used by floor searches.
	MaxHeight  int `toml:"max_height" yaml:"max_height"`
	SandHeight int `toml:"sand_height" yaml:"sand_height"`

	// CliffThreshold is the cliff noise value above which the surface shows
	// bare rock instead of grass.
	CliffThreshold float64 `toml:"cliff_threshold" yaml:"cliff_threshold"`
	// CaveThreshold is the 3D noise value above which solid voxels are
	// carved out. Values >= 1 disable caves.
	CaveThreshold float64 `toml:"cave_threshold" yaml:"cave_threshold"`
	CaveFrequency float64 `toml:"cave_frequency" yaml:"cave_frequency"`

	TreeChance  float64 `toml:"tree_chance" yaml:"tree_chance"`
	CloudChance float64 `toml:"cloud_chance" yaml:"cloud_chance"`
	CloudHeight int     `toml:"cloud_height" yaml:"cloud_height"`
	// ClientData enables features only a rendering client needs (clouds).
	ClientData bool `toml:"client_data" yaml:"client_data"`
}

// DefaultWorldContext returns the stock generation parameters.
func DefaultWorldContext() WorldContext {
	return WorldContext{
		Landscape:      NoiseLayer{Octaves: 1, Persistence: 0.1, Frequency: 0.01, Amplitude: 1.0},
		Cliff:          NoiseLayer{Octaves: 1, Persistence: 0.1, Frequency: 0.05, Amplitude: 0.1},
		Mountain:       NoiseLayer{Octaves: 2, Persistence: 0.3, Frequency: 0.00075, Amplitude: 1.0},
		MinHeight:      4,
		TerrainHeight:  96,
		MaxHeight:      128,
		SandHeight:     30,
		CliffThreshold: 0.7,
		CaveThreshold:  0.78,
		CaveFrequency:  0.06,
		TreeChance:     0.35,
		CloudChance:    0.2,
		CloudHeight:    112,
	}
}

// TreeType selects the crown shape of a tree.
type TreeType int32

const (
	TreeDome TreeType = iota
	TreeCone
	TreeEllipsis
	TreeCube
	TreePine

	treeTypeCount
)

var treeTypeNames = [treeTypeCount]string{"dome", "cone", "ellipsis", "cube", "pine"}

func (t TreeType) String() string {
	if t >= 0 && t < treeTypeCount {
		return treeTypeNames[t]
	}
	return "unknown"
}

// ParseTreeType resolves a tree type by name.
func ParseTreeType(s string) (TreeType, bool) {
	i := slices.Index(treeTypeNames[:], s)
	return TreeType(i), i >= 0
}

// TreeContext describes a single tree. X and Z are the trunk column; the base
// height is resolved when the tree is placed.
type TreeContext struct {
	Type        TreeType
	TrunkHeight int
	TrunkWidth  int
	Width       int
	Height      int
	Depth       int
	X, Z        int
}

// DefaultTreeContext returns a dome tree at (x, z).
func DefaultTreeContext(x, z int) TreeContext {
	return TreeContext{
		Type:        TreeDome,
		TrunkHeight: 6,
		TrunkWidth:  2,
		Width:       10,
		Height:      10,
		Depth:       10,
		X:           x,
		Z:           z,
	}
}

// Bounds returns the region the tree can touch when its trunk starts at
// groundY.
func (t TreeContext) Bounds(groundY int) world.Region {
	hw := max(t.Width, t.TrunkWidth)/2 + 1
	hd := max(t.Depth, t.TrunkWidth)/2 + 1
	top := groundY + t.TrunkHeight + t.Height + 1
	return world.Region{
		Min: world.Pos{X: t.X - hw, Y: groundY, Z: t.Z - hd},
		Max: world.Pos{X: t.X + hw, Y: top, Z: t.Z + hd},
	}
}

// TerrainContext is the working state of one generation pass. Writes outside
// Region are dropped; every accepted write records its tile in Dirty.
type TerrainContext struct {
	Region    world.Region
	Target    world.VoxelWriter
	ChunkSize int
	Dirty     map[world.ChunkCoord]struct{}
}

// NewTerrainContext creates a context writing into target.
func NewTerrainContext(region world.Region, target world.VoxelWriter, chunkSize int) *TerrainContext {
	return &TerrainContext{
		Region:    region,
		Target:    target,
		ChunkSize: chunkSize,
		Dirty:     make(map[world.ChunkCoord]struct{}),
	}
}

// Set writes m at p if p lies inside the region.
func (c *TerrainContext) Set(p world.Pos, m world.Material) {
	if !c.Region.Contains(p) {
		return
	}
	c.Target.Set(p, m)
	if c.ChunkSize > 0 {
		c.Dirty[world.TileOf(p, c.ChunkSize)] = struct{}{}
	}
}

// DirtyTiles returns the touched tiles in a stable order.
func (c *TerrainContext) DirtyTiles() []world.ChunkCoord {
	out := make([]world.ChunkCoord, 0, len(c.Dirty))
	for coord := range c.Dirty {
		out = append(out, coord)
	}
	slices.SortFunc(out, func(a, b world.ChunkCoord) int {
		if a.X != b.X {
			return a.X - b.X
		}
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.Z - b.Z
	})
	return out
}
