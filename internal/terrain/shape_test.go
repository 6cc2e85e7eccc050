package terrain

import (
	"testing"

	"voxstream/internal/world"
)

func bigRegion() world.Region {
	return world.Region{Min: world.Pos{X: -100, Y: -100, Z: -100}, Max: world.Pos{X: 100, Y: 100, Z: 100}}
}

func TestShapeVoxelCounts(t *testing.T) {
	origin := world.Pos{}
	cases := []struct {
		name  string
		place func(ctx *TerrainContext)
		want  int
	}{
		{"cube", func(ctx *TerrainContext) { Cube(ctx, origin, 2, 3, 4, world.MaterialRock, Solid) }, 24},
		{"hollow cube", func(ctx *TerrainContext) { Cube(ctx, origin, 3, 3, 3, world.MaterialRock, Hollow) }, 26},
		{"plane", func(ctx *TerrainContext) { Plane(ctx, origin, 5, 4, world.MaterialRock) }, 20},
		{"zero width", func(ctx *TerrainContext) { Cube(ctx, origin, 0, 3, 3, world.MaterialRock, Solid) }, 0},
		{"negative depth", func(ctx *TerrainContext) { Ellipse(ctx, origin, 3, 3, -1, world.MaterialRock, Solid) }, 0},
		{"circle plane", func(ctx *TerrainContext) { CirclePlane(ctx, origin, 9, 9, 1, world.MaterialRock) }, 5},
	}
	for _, tc := range cases {
		w := mapWriter{}
		tc.place(NewTerrainContext(bigRegion(), w, 16))
		if len(w) != tc.want {
			t.Errorf("%s: %d voxels, want %d", tc.name, len(w), tc.want)
		}
	}
}

func TestShapesSkipOutsideRegion(t *testing.T) {
	region := world.Region{Min: world.Pos{X: 0, Y: 0, Z: 0}, Max: world.Pos{X: 3, Y: 3, Z: 3}}
	w := mapWriter{}
	ctx := NewTerrainContext(region, w, 4)

	Ellipse(ctx, world.Pos{X: 2, Y: 2, Z: 2}, 12, 12, 12, world.MaterialLeaves, Solid)
	Dome(ctx, world.Pos{X: 50, Y: 0, Z: 50}, 5, 5, 5, world.MaterialLeaves, Solid)
	Cone(ctx, world.Pos{X: 0, Y: -2, Z: 0}, 9, 9, 9, world.MaterialLeaves, Hollow)

	for p := range w {
		if !region.Contains(p) {
			t.Fatalf("write at %v outside region %v", p, region)
		}
	}
	if len(w) != region.Volume() {
		t.Errorf("ellipse should cover the whole region, got %d voxels", len(w))
	}
	if tiles := ctx.DirtyTiles(); len(tiles) != 1 || tiles[0] != (world.ChunkCoord{}) {
		t.Errorf("dirty tiles = %v", tiles)
	}
}

func TestDomeAndConeShape(t *testing.T) {
	w := mapWriter{}
	ctx := NewTerrainContext(bigRegion(), w, 16)
	Dome(ctx, world.Pos{}, 7, 4, 7, world.MaterialLeaves, Solid)
	if _, ok := w[world.Pos{Y: 3}]; !ok {
		t.Errorf("dome top missing")
	}
	if _, ok := w[world.Pos{Y: -1}]; ok {
		t.Errorf("dome extends below its base")
	}

	w = mapWriter{}
	ctx = NewTerrainContext(bigRegion(), w, 16)
	Cone(ctx, world.Pos{}, 7, 6, 7, world.MaterialLeaves, Solid)
	base, top := 0, 0
	for p := range w {
		if p.Y == 0 {
			base++
		}
		if p.Y == 5 {
			top++
		}
	}
	if base <= top || top == 0 {
		t.Errorf("cone base %d voxels, top %d", base, top)
	}
}

func TestAddTreeDirtyTiles(t *testing.T) {
	for tt := TreeDome; tt < treeTypeCount; tt++ {
		tree := DefaultTreeContext(15, 15)
		tree.Type = tt
		w := mapWriter{}
		ctx := NewTerrainContext(tree.Bounds(20), w, 16)
		AddTree(ctx, tree, 20)

		if w[world.Pos{X: 15, Y: 20, Z: 15}] != world.MaterialWood {
			t.Errorf("%v: trunk base missing", tt)
		}
		leaves := 0
		for _, m := range w {
			if m == world.MaterialLeaves {
				leaves++
			}
		}
		if leaves == 0 {
			t.Errorf("%v: no crown", tt)
		}
		// Crown spans the x=15/16 chunk border.
		if len(ctx.DirtyTiles()) < 2 {
			t.Errorf("%v: dirty tiles %v", tt, ctx.DirtyTiles())
		}
	}
}
