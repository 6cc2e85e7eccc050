package world

import "fmt"

// Chunk is a cubic block of voxels addressed by its ChunkCoord. The voxel
// slice is allocated on the first non-air write; a nil slice reads as air.
type Chunk struct {
	Coord  ChunkCoord
	size   int
	voxels []Material
	dirty  bool
}

// NewChunk creates an empty chunk of the given edge length.
func NewChunk(coord ChunkCoord, size int) *Chunk {
	return &Chunk{Coord: coord, size: size}
}

// Size returns the edge length of the chunk.
func (c *Chunk) Size() int { return c.size }

// Region returns the voxel extents the chunk covers.
func (c *Chunk) Region() Region { return RegionOf(c.Coord, c.size) }

// index converts local coordinates (x, y, z) to a flat index.
func (c *Chunk) index(x, y, z int) int {
	return (x*c.size+y)*c.size + z
}

func (c *Chunk) inBounds(x, y, z int) bool {
	return x >= 0 && x < c.size && y >= 0 && y < c.size && z >= 0 && z < c.size
}

// Material returns the voxel at the local coordinates.
func (c *Chunk) Material(x, y, z int) Material {
	if c.voxels == nil || !c.inBounds(x, y, z) {
		return MaterialAir
	}
	return c.voxels[c.index(x, y, z)]
}

// SetMaterial writes the voxel at the local coordinates and marks the chunk
// dirty when the content changed.
func (c *Chunk) SetMaterial(x, y, z int, m Material) {
	if !c.inBounds(x, y, z) {
		return
	}
	if c.voxels == nil {
		if m == MaterialAir {
			return
		}
		c.voxels = make([]Material, c.size*c.size*c.size)
	}
	idx := c.index(x, y, z)
	if c.voxels[idx] == m {
		return
	}
	c.voxels[idx] = m
	c.dirty = true
}

// At returns the voxel at a world position, air when p is outside the chunk.
func (c *Chunk) At(p Pos) Material {
	ox, oy, oz := c.Coord.X*c.size, c.Coord.Y*c.size, c.Coord.Z*c.size
	return c.Material(p.X-ox, p.Y-oy, p.Z-oz)
}

// Set writes the voxel at a world position. Positions outside the chunk are
// ignored.
func (c *Chunk) Set(p Pos, m Material) {
	ox, oy, oz := c.Coord.X*c.size, c.Coord.Y*c.size, c.Coord.Z*c.size
	c.SetMaterial(p.X-ox, p.Y-oy, p.Z-oz, m)
}

// Empty reports whether the chunk holds only air.
func (c *Chunk) Empty() bool {
	for _, m := range c.voxels {
		if m != MaterialAir {
			return false
		}
	}
	return true
}

// Data returns a copy of the voxel content in x-major order. An all-air chunk
// still yields a full slice.
func (c *Chunk) Data() []Material {
	out := make([]Material, c.size*c.size*c.size)
	copy(out, c.voxels)
	return out
}

// Load replaces the voxel content with data, which must hold exactly
// size^3 entries. The chunk is left clean.
func (c *Chunk) Load(data []Material) error {
	n := c.size * c.size * c.size
	if len(data) != n {
		return fmt.Errorf("chunk %v: load %d voxels, want %d", c.Coord, len(data), n)
	}
	if c.voxels == nil {
		c.voxels = make([]Material, n)
	}
	copy(c.voxels, data)
	c.dirty = false
	return nil
}

// Dirty reports whether the chunk differs from its persisted copy.
func (c *Chunk) Dirty() bool { return c.dirty }

// SetDirty marks the chunk as modified.
func (c *Chunk) SetDirty() { c.dirty = true }

// SetClean marks the chunk as persisted.
func (c *Chunk) SetClean() { c.dirty = false }
