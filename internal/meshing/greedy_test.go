package meshing

import (
	"testing"

	"voxstream/internal/world"
)

type voxels map[world.Pos]world.Material

func (v voxels) At(p world.Pos) world.Material { return v[p] }

func chunkRegion() world.Region {
	return world.RegionOf(world.ChunkCoord{}, 16)
}

func faces(m *Mesh) int {
	return len(m.Indices) / 6
}

func TestSingleBlockMesh(t *testing.T) {
	src := voxels{{X: 0, Y: 0, Z: 0}: world.MaterialGrass}
	m := Cubic(src, chunkRegion())
	if len(m.Vertices) != 24 || len(m.Indices) != 36 {
		t.Fatalf("single block: got %d verts %d indices, want 24/36", len(m.Vertices), len(m.Indices))
	}
	if m.Offset != (world.Pos{}) {
		t.Errorf("offset = %v", m.Offset)
	}
}

func TestTwoBlocksTouching(t *testing.T) {
	src := voxels{{X: 0, Y: 0, Z: 0}: world.MaterialGrass, {X: 1, Y: 0, Z: 0}: world.MaterialGrass}
	if f := faces(Cubic(src, chunkRegion())); f != 10 {
		t.Fatalf("cubic: got %d faces, want 10", f)
	}
	// Union is a 2x1x1 cuboid => 6 quads
	if f := faces(Greedy(src, chunkRegion())); f != 6 {
		t.Fatalf("greedy merge: got %d faces, want 6", f)
	}
}

func TestGreedyKeepsMaterialsApart(t *testing.T) {
	src := voxels{{X: 0, Y: 0, Z: 0}: world.MaterialGrass, {X: 1, Y: 0, Z: 0}: world.MaterialRock}
	// Top, bottom, front and back cannot merge across materials.
	if f := faces(Greedy(src, chunkRegion())); f != 10 {
		t.Fatalf("got %d faces, want 10", f)
	}
}

func TestCrossChunkFaceCulling(t *testing.T) {
	src := voxels{{X: 15, Y: 0, Z: 0}: world.MaterialGrass, {X: 16, Y: 0, Z: 0}: world.MaterialGrass}
	m := Cubic(src, chunkRegion())
	// One face hidden due to neighbor in the next chunk
	if f := faces(m); f != 5 {
		t.Fatalf("cross-chunk culling: got %d faces, want 5", f)
	}
	for _, v := range m.Vertices {
		if v.Pos.X() > 16 {
			t.Fatalf("vertex %v outside region", v.Pos)
		}
	}
}

func TestCloudFacesAgainstSolid(t *testing.T) {
	src := voxels{{X: 0, Y: 0, Z: 0}: world.MaterialCloud, {X: 1, Y: 0, Z: 0}: world.MaterialRock}
	// Rock shows all 6 faces, the cloud hides the face against rock.
	if f := faces(Cubic(src, chunkRegion())); f != 11 {
		t.Fatalf("got %d faces, want 11", f)
	}
}

func TestNormalsAndWinding(t *testing.T) {
	m := Cubic(voxels{{X: 3, Y: 4, Z: 5}: world.MaterialDirt}, chunkRegion())
	for tri := 0; tri < len(m.Indices); tri += 3 {
		a := m.Vertices[m.Indices[tri]]
		b := m.Vertices[m.Indices[tri+1]]
		c := m.Vertices[m.Indices[tri+2]]
		n := b.Pos.Sub(a.Pos).Cross(c.Pos.Sub(a.Pos))
		if n.Dot(a.Normal) <= 0 {
			t.Fatalf("triangle %d winds against its normal %v", tri/3, a.Normal)
		}
	}
}

func TestInterleaveAndMerge(t *testing.T) {
	region := world.RegionOf(world.ChunkCoord{X: 1}, 16)
	m := Cubic(voxels{{X: 16, Y: 0, Z: 0}: world.MaterialSand}, region)
	floats := Interleave(m)
	if len(floats) != 36*VertexStride {
		t.Fatalf("interleave: got %d floats", len(floats))
	}
	if floats[0] < 16 || floats[6] != float32(world.MaterialSand) {
		t.Errorf("offset or material not applied: %v", floats[:VertexStride])
	}

	other := Cubic(voxels{{X: 20, Y: 0, Z: 0}: world.MaterialSand}, region)
	if !m.AddMesh(other) || faces(m) != 12 {
		t.Fatalf("AddMesh failed, faces=%d", faces(m))
	}
	if m.AddMesh(NewMesh(world.Pos{})) {
		t.Errorf("AddMesh accepted a mesh with another offset")
	}

	m.Vertices = append(m.Vertices, Vertex{})
	m.RemoveUnusedVertices()
	if len(m.Vertices) != 48 {
		t.Errorf("RemoveUnusedVertices left %d vertices", len(m.Vertices))
	}
	m.Clear()
	if !m.IsEmpty() || m.Size() != 0 {
		t.Errorf("Clear left geometry")
	}
}

func BenchmarkGreedyFullSurface(b *testing.B) {
	src := voxels{}
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			src[world.Pos{X: x, Y: 15, Z: z}] = world.MaterialGrass
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Greedy(src, chunkRegion())
	}
}
