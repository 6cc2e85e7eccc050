package terrain

import (
	"crypto/sha256"
	"sync"
	"testing"

	"voxstream/internal/world"
)

var _ world.Generator = (*Generator)(nil)

type mapWriter map[world.Pos]world.Material

func (w mapWriter) Set(p world.Pos, m world.Material) { w[p] = m }

// hashChunk computes a SHA-256 hash of all voxels in a chunk
func hashChunk(c *world.Chunk) [32]byte {
	data := c.Data()
	buf := make([]byte, len(data))
	for i, m := range data {
		buf[i] = byte(m)
	}
	return sha256.Sum256(buf)
}

func populate(g *Generator, coord world.ChunkCoord, size int) *world.Chunk {
	c := world.NewChunk(coord, size)
	g.Populate(c.Region(), c)
	return c
}

// TestGeneratorDeterminism verifies same seed produces identical chunks on
// concurrent goroutines
func TestGeneratorDeterminism(t *testing.T) {
	ctx := DefaultWorldContext()
	ctx.ClientData = true
	coords := []world.ChunkCoord{{X: 0, Y: 1, Z: 0}, {X: -1, Y: 1, Z: 3}, {X: 2, Y: 0, Z: -2}, {X: 0, Y: 3, Z: 0}}

	want := make([][32]byte, len(coords))
	for i, c := range coords {
		want[i] = hashChunk(populate(New(42, ctx), c, 32))
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := New(42, ctx)
			for i, c := range coords {
				if hashChunk(populate(g, c, 32)) != want[i] {
					errs <- c.String()
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for c := range errs {
		t.Errorf("chunk %s differs between runs", c)
	}

	if hashChunk(populate(New(43, ctx), coords[0], 32)) == want[0] {
		t.Errorf("different seeds produced identical chunks")
	}
}

// TestFeaturesSeamless verifies features straddling chunk borders come out
// the same whether generated per chunk or as one region
func TestFeaturesSeamless(t *testing.T) {
	ctx := DefaultWorldContext()
	ctx.TreeChance = 1
	ctx.ClientData = true
	g := New(7, ctx)
	const size = 16

	whole := mapWriter{}
	region := world.Region{Min: world.Pos{X: 0, Y: 0, Z: 0}, Max: world.Pos{X: 2*size - 1, Y: ctx.MaxHeight - 1, Z: size - 1}}
	g.Create(NewTerrainContext(region, whole, size))

	for cx := 0; cx < 2; cx++ {
		for cy := 0; cy*size < ctx.MaxHeight; cy++ {
			c := populate(g, world.ChunkCoord{X: cx, Y: cy}, size)
			r := c.Region()
			for x := r.Min.X; x <= r.Max.X; x++ {
				for y := r.Min.Y; y <= r.Max.Y; y++ {
					for z := r.Min.Z; z <= r.Max.Z; z++ {
						p := world.Pos{X: x, Y: y, Z: z}
						if got, want := c.At(p), whole[p]; got != want {
							t.Fatalf("voxel %v: chunk has %v, region pass has %v", p, got, want)
						}
					}
				}
			}
		}
	}
}

func TestHeightAtRange(t *testing.T) {
	ctx := DefaultWorldContext()
	g := New(42, ctx)
	for i := 0; i < 1000; i++ {
		h := g.HeightAt(i*37-5000, i*13-2000)
		if h < ctx.MinHeight || h > ctx.MinHeight+ctx.TerrainHeight {
			t.Fatalf("HeightAt out of range: %d", h)
		}
	}
}

func TestLandscapeColumn(t *testing.T) {
	ctx := DefaultWorldContext()
	ctx.CaveThreshold = 1
	ctx.TreeChance = 0
	g := New(42, ctx)

	w := mapWriter{}
	region := world.Region{Min: world.Pos{X: 5, Y: 0, Z: 5}, Max: world.Pos{X: 5, Y: ctx.MaxHeight, Z: 5}}
	g.Create(NewTerrainContext(region, w, 32))

	h := g.HeightAt(5, 5)
	for y := 0; y < h; y++ {
		if !w[world.Pos{X: 5, Y: y, Z: 5}].Solid() {
			t.Fatalf("y=%d below surface %d is not solid", y, h)
		}
	}
	if _, ok := w[world.Pos{X: 5, Y: h, Z: 5}]; ok {
		t.Fatalf("voxel written above surface %d", h)
	}
	if m := w[world.Pos{X: 5, Y: 0, Z: 5}]; m != world.MaterialRock {
		t.Errorf("bottom should be rock, got %v", m)
	}
}

// TestCavesCarveBelowRoof verifies default caves hollow out some underground
// voxels but never the top caveRoof layers or the floor
func TestCavesCarveBelowRoof(t *testing.T) {
	ctx := DefaultWorldContext()
	ctx.TreeChance = 0
	g := New(42, ctx)

	w := mapWriter{}
	region := world.Region{Min: world.Pos{X: -48, Y: 0, Z: -48}, Max: world.Pos{X: 47, Y: ctx.MaxHeight - 1, Z: 47}}
	g.Create(NewTerrainContext(region, w, 32))

	carved, underground := 0, 0
	for x := region.Min.X; x <= region.Max.X; x++ {
		for z := region.Min.Z; z <= region.Max.Z; z++ {
			h := g.HeightAt(x, z)
			if !w[world.Pos{X: x, Y: 0, Z: z}].Solid() {
				t.Fatalf("floor carved at %d,%d", x, z)
			}
			for y := 1; y < h; y++ {
				solid := w[world.Pos{X: x, Y: y, Z: z}].Solid()
				if y >= h-caveRoof {
					if !solid {
						t.Fatalf("roof layer y=%d carved at %d,%d (surface %d)", y, x, z, h)
					}
					continue
				}
				underground++
				if !solid {
					carved++
				}
			}
		}
	}
	if carved == 0 {
		t.Fatalf("no caves carved in %d underground voxels", underground)
	}
	if carved*4 > underground {
		t.Errorf("caves carved %d of %d underground voxels", carved, underground)
	}
}

func TestRandomDerive(t *testing.T) {
	a := NewRandom(42).Derive("tree", 3, -4)
	b := NewRandom(42).Derive("tree", 3, -4)
	c := NewRandom(42).Derive("cloud", 3, -4)
	same, diff := true, false
	for range 16 {
		va, vb, vc := a.Intn(1<<30), b.Intn(1<<30), c.Intn(1<<30)
		same = same && va == vb
		diff = diff || va != vc
	}
	if !same {
		t.Errorf("derived streams with equal keys diverged")
	}
	if !diff {
		t.Errorf("salt did not change the derived stream")
	}
	for range 100 {
		if v := a.IntRange(5, 2); v < 2 || v > 5 {
			t.Fatalf("IntRange out of bounds: %d", v)
		}
	}
}

func TestParseTreeType(t *testing.T) {
	for tt := TreeDome; tt < treeTypeCount; tt++ {
		got, ok := ParseTreeType(tt.String())
		if !ok || got != tt {
			t.Errorf("ParseTreeType(%q) = %v, %v", tt.String(), got, ok)
		}
	}
	if _, ok := ParseTreeType("palm"); ok {
		t.Errorf("unknown tree type accepted")
	}
}

func BenchmarkPopulateChunk(b *testing.B) {
	g := New(42, DefaultWorldContext())
	c := world.NewChunk(world.ChunkCoord{Y: 1}, 32)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Populate(c.Region(), c)
	}
}

func BenchmarkHeightAt(b *testing.B) {
	g := New(42, DefaultWorldContext())
	for i := 0; i < b.N; i++ {
		_ = g.HeightAt(i%1024, (i*31)%1024)
	}
}
