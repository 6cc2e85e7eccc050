package world

import "fmt"

// Pos is an absolute voxel position.
type Pos struct {
	X, Y, Z int
}

// Add returns p offset by o.
func (p Pos) Add(o Pos) Pos {
	return Pos{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// ChunkCoord is the chunk-aligned grid coordinate of a chunk, also used as the
// mesh tile coordinate.
type ChunkCoord struct {
	X, Y, Z int
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("[%d,%d,%d]", c.X, c.Y, c.Z)
}

// TileOf cuts a world position down to the coordinate of the chunk holding it.
func TileOf(p Pos, size int) ChunkCoord {
	return ChunkCoord{
		X: FloorDiv(p.X, size),
		Y: FloorDiv(p.Y, size),
		Z: FloorDiv(p.Z, size),
	}
}

// GridPos returns the world position of the lower corner of the tile holding p.
func GridPos(p Pos, size int) Pos {
	c := TileOf(p, size)
	return Pos{X: c.X * size, Y: c.Y * size, Z: c.Z * size}
}

// Region is an axis aligned box in voxel space. Both corners are inclusive.
type Region struct {
	Min, Max Pos
}

// NewRegion builds a region from two corners in any order.
func NewRegion(a, b Pos) Region {
	return Region{
		Min: Pos{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)},
		Max: Pos{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)},
	}
}

// RegionOf returns the voxel extents of the chunk at c.
func RegionOf(c ChunkCoord, size int) Region {
	lo := Pos{X: c.X * size, Y: c.Y * size, Z: c.Z * size}
	return Region{Min: lo, Max: Pos{X: lo.X + size - 1, Y: lo.Y + size - 1, Z: lo.Z + size - 1}}
}

// Contains reports whether p lies inside the region.
func (r Region) Contains(p Pos) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y &&
		p.Z >= r.Min.Z && p.Z <= r.Max.Z
}

// Intersects reports whether the two regions share at least one voxel.
func (r Region) Intersects(o Region) bool {
	return r.Min.X <= o.Max.X && r.Max.X >= o.Min.X &&
		r.Min.Y <= o.Max.Y && r.Max.Y >= o.Min.Y &&
		r.Min.Z <= o.Max.Z && r.Max.Z >= o.Min.Z
}

// Grow returns the region expanded by n voxels on every side.
func (r Region) Grow(n int) Region {
	return Region{
		Min: Pos{X: r.Min.X - n, Y: r.Min.Y - n, Z: r.Min.Z - n},
		Max: Pos{X: r.Max.X + n, Y: r.Max.Y + n, Z: r.Max.Z + n},
	}
}

func (r Region) Width() int  { return r.Max.X - r.Min.X + 1 }
func (r Region) Height() int { return r.Max.Y - r.Min.Y + 1 }
func (r Region) Depth() int  { return r.Max.Z - r.Min.Z + 1 }

// Volume is the number of voxels covered by the region.
func (r Region) Volume() int {
	return r.Width() * r.Height() * r.Depth()
}

func (r Region) String() string {
	return r.Min.String() + "-" + r.Max.String()
}

// FloorDiv divides rounding towards negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Mod returns the non-negative remainder of a/b.
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
