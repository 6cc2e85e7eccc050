package terrain

import (
	"log/slog"
	"math"

	"voxstream/internal/world"
)

const (
	// Feature cells partition the XZ plane. Each cell holds at most one tree
	// or cloud, decided by a sub-stream derived from the cell coordinate.
	treeCell  = 16
	cloudCell = 48

	// Margins cover the widest tree crown and cloud cluster so that features
	// rooted in a neighbouring cell still reach into the region.
	treeMargin  = 8
	cloudMargin = 24

	// caveRoof keeps caves from breaking through the surface.
	caveRoof = 4
)

// Generator synthesises terrain from a seed and a WorldContext. It is
// immutable and safe for concurrent use; changing the seed or context means
// building a new Generator.
type Generator struct {
	seed       int64
	ctx        WorldContext
	rnd        *Random
	offX, offZ float64
}

// New creates a generator. The seed is also used to derive noise offsets so
// that nearby seeds do not sample overlapping noise.
func New(seed int64, ctx WorldContext) *Generator {
	rnd := NewRandom(seed)
	off := rnd.Derive("offset", 0, 0)
	return &Generator{
		seed: seed,
		ctx:  ctx,
		rnd:  rnd,
		offX: off.FloatRange(-10000, 10000),
		offZ: off.FloatRange(-10000, 10000),
	}
}

// NewLogged is New plus a log line carrying the seed, so a world can be
// reproduced from the log.
func NewLogged(seed int64, ctx WorldContext, log *slog.Logger) *Generator {
	g := New(seed, ctx)
	if log != nil {
		log.Info("terrain: seed", "seed", seed)
	}
	return g
}

// Seed returns the generator seed.
func (g *Generator) Seed() int64 { return g.seed }

// Context returns a copy of the generation parameters.
func (g *Generator) Context() WorldContext { return g.ctx }

func (g *Generator) layers() [3]NoiseLayer {
	return [3]NoiseLayer{g.ctx.Landscape, g.ctx.Cliff, g.ctx.Mountain}
}

// HeightAt returns the surface height of column (x, z). Voxels with y below
// the height are solid.
func (g *Generator) HeightAt(x, z int) int {
	fx, fz := float64(x)+g.offX, float64(z)+g.offZ
	sum, norm := 0.0, 0.0
	for i, l := range g.layers() {
		if l.Amplitude <= 0 {
			continue
		}
		sum += Fractal2D(fx, fz, g.seed+int64(i)*7919, l.Octaves, l.Persistence, l.Frequency) * l.Amplitude
		norm += l.Amplitude
	}
	n := 0.0
	if norm > 0 {
		n = sum / norm
	}
	h := g.ctx.MinHeight + int(math.Floor(n*float64(g.ctx.TerrainHeight)))
	return max(h, 1)
}

func (g *Generator) cliffAt(x, z int) float64 {
	l := g.ctx.Cliff
	return Fractal2D(float64(x)+g.offX, float64(z)+g.offZ, g.seed+7919, l.Octaves, l.Persistence, l.Frequency)
}

func (g *Generator) cave(x, y, z int) bool {
	if g.ctx.CaveThreshold >= 1 {
		return false
	}
	f := g.ctx.CaveFrequency
	n := octaveNoise3D(float64(x)*f, float64(y)*f*1.5, float64(z)*f, g.seed+4001, 2, 0.5, 2.0)
	return n > g.ctx.CaveThreshold
}

// surface picks the material of the voxel depth layers below the top of a
// column of the given height.
func (g *Generator) surface(depth, height int, cliff float64) world.Material {
	sandy := height <= g.ctx.SandHeight
	switch {
	case depth == 0 && sandy:
		return world.MaterialSand
	case depth == 0 && cliff > g.ctx.CliffThreshold:
		return world.MaterialRock
	case depth == 0:
		return world.MaterialGrass
	case depth <= 3 && sandy:
		return world.MaterialSand
	case depth <= 3:
		return world.MaterialDirt
	default:
		return world.MaterialRock
	}
}

// Populate implements world.Generator.
func (g *Generator) Populate(region world.Region, c *world.Chunk) {
	g.Create(NewTerrainContext(region, c, c.Size()))
}

// Create generates the landscape, caves, trees and, for client data, clouds
// into ctx.
func (g *Generator) Create(ctx *TerrainContext) {
	g.createLandscape(ctx)
	g.createTrees(ctx)
	if g.ctx.ClientData {
		g.createClouds(ctx)
	}
}

func (g *Generator) createLandscape(ctx *TerrainContext) {
	r := ctx.Region
	if r.Min.Y < 0 && r.Max.Y < 0 {
		return
	}
	for x := r.Min.X; x <= r.Max.X; x++ {
		for z := r.Min.Z; z <= r.Max.Z; z++ {
			h := g.HeightAt(x, z)
			if r.Min.Y >= h {
				continue
			}
			cliff := g.cliffAt(x, z)
			top := min(h-1, r.Max.Y)
			for y := max(r.Min.Y, 0); y <= top; y++ {
				if y > 0 && y < h-caveRoof && g.cave(x, y, z) {
					continue
				}
				ctx.Set(world.Pos{X: x, Y: y, Z: z}, g.surface(h-1-y, h, cliff))
			}
		}
	}
}

// cells calls fn for every feature cell whose origin lies in region grown by
// margin. Iteration order is fixed so overlapping features resolve the same
// way from every chunk.
func cells(region world.Region, size, margin int, fn func(cx, cz int)) {
	g := region.Grow(margin)
	for cx := world.FloorDiv(g.Min.X, size); cx <= world.FloorDiv(g.Max.X, size); cx++ {
		for cz := world.FloorDiv(g.Min.Z, size); cz <= world.FloorDiv(g.Max.Z, size); cz++ {
			fn(cx, cz)
		}
	}
}

func (g *Generator) createTrees(ctx *TerrainContext) {
	cells(ctx.Region, treeCell, treeMargin, func(cx, cz int) {
		rnd := g.rnd.Derive("tree", cx, cz)
		if !rnd.Chance(g.ctx.TreeChance) {
			return
		}
		x := cx*treeCell + rnd.IntRange(2, treeCell-3)
		z := cz*treeCell + rnd.IntRange(2, treeCell-3)
		ground := g.HeightAt(x, z)
		if ground <= g.ctx.SandHeight || g.cliffAt(x, z) > g.ctx.CliffThreshold {
			return
		}
		tree := randomTree(rnd, x, z)
		if !tree.Bounds(ground).Intersects(ctx.Region) {
			return
		}
		AddTree(ctx, tree, ground)
	})
}

func randomTree(rnd *Random, x, z int) TreeContext {
	t := DefaultTreeContext(x, z)
	t.Type = TreeType(rnd.Intn(int(treeTypeCount)))
	t.TrunkHeight = rnd.IntRange(4, 8)
	t.TrunkWidth = rnd.IntRange(1, 2)
	t.Width = rnd.IntRange(6, 12)
	t.Depth = rnd.IntRange(6, 12)
	t.Height = rnd.IntRange(6, 12)
	if t.Type == TreePine {
		t.Width, t.Depth = t.Width-2, t.Depth-2
		t.Height += 4
	}
	return t
}

// AddTree places a tree whose trunk starts at groundY. Parts outside the
// context region are skipped.
func AddTree(ctx *TerrainContext, t TreeContext, groundY int) {
	if !validDims(t.TrunkHeight, t.TrunkWidth) {
		return
	}
	base := world.Pos{X: t.X, Y: groundY, Z: t.Z}
	Cube(ctx, base, t.TrunkWidth, t.TrunkHeight, t.TrunkWidth, world.MaterialWood, Solid)

	crown := world.Pos{X: t.X, Y: groundY + t.TrunkHeight, Z: t.Z}
	switch t.Type {
	case TreeDome:
		Dome(ctx, world.Pos{X: crown.X, Y: crown.Y - 1, Z: crown.Z}, t.Width, t.Height, t.Depth, world.MaterialLeaves, Solid)
	case TreeCone:
		Cone(ctx, world.Pos{X: crown.X, Y: crown.Y - 2, Z: crown.Z}, t.Width, t.Height, t.Depth, world.MaterialLeaves, Solid)
	case TreeEllipsis:
		Ellipse(ctx, world.Pos{X: crown.X, Y: crown.Y + t.Height/2 - 1, Z: crown.Z}, t.Width, t.Height, t.Depth, world.MaterialLeaves, Solid)
	case TreeCube:
		Cube(ctx, world.Pos{X: crown.X, Y: crown.Y - 1, Z: crown.Z}, t.Width, t.Height, t.Depth, world.MaterialLeaves, Solid)
	case TreePine:
		// Stacked cones, each narrower than the one below.
		steps := max(t.Height/4, 1)
		stepH := max(t.Height/steps, 2)
		y := crown.Y - 2
		for i := range steps {
			w := max(t.Width-i*2, 2)
			d := max(t.Depth-i*2, 2)
			Cone(ctx, world.Pos{X: crown.X, Y: y, Z: crown.Z}, w, stepH+1, d, world.MaterialLeaves, Solid)
			y += stepH
		}
		Cube(ctx, world.Pos{X: crown.X, Y: crown.Y, Z: crown.Z}, 1, y-crown.Y, 1, world.MaterialWood, Solid)
	}
}

func (g *Generator) createClouds(ctx *TerrainContext) {
	cy := g.ctx.CloudHeight
	if ctx.Region.Max.Y < cy-8 || ctx.Region.Min.Y > cy+8 {
		return
	}
	cells(ctx.Region, cloudCell, cloudMargin, func(cx, cz int) {
		rnd := g.rnd.Derive("cloud", cx, cz)
		if !rnd.Chance(g.ctx.CloudChance) {
			return
		}
		x := cx*cloudCell + rnd.Intn(cloudCell)
		z := cz*cloudCell + rnd.Intn(cloudCell)
		y := cy + rnd.IntRange(-2, 2)
		for range rnd.IntRange(2, 5) {
			p := world.Pos{X: x + rnd.IntRange(-10, 10), Y: y + rnd.IntRange(-1, 1), Z: z + rnd.IntRange(-10, 10)}
			Ellipse(ctx, p, rnd.IntRange(8, 20), rnd.IntRange(3, 6), rnd.IntRange(8, 20), world.MaterialCloud, Solid)
		}
	})
}
