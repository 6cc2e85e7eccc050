package world

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

func TestTileOfNegative(t *testing.T) {
	cases := []struct {
		p    Pos
		want ChunkCoord
	}{
		{Pos{0, 0, 0}, ChunkCoord{0, 0, 0}},
		{Pos{31, 31, 31}, ChunkCoord{0, 0, 0}},
		{Pos{32, 0, -1}, ChunkCoord{1, 0, -1}},
		{Pos{-32, -33, 64}, ChunkCoord{-1, -2, 2}},
		{Pos{5, 5, 5}, ChunkCoord{0, 0, 0}},
	}
	for _, tc := range cases {
		if got := TileOf(tc.p, 32); got != tc.want {
			t.Errorf("TileOf(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
	if g := GridPos(Pos{-1, 40, 5}, 32); g != (Pos{-32, 32, 0}) {
		t.Errorf("GridPos = %v", g)
	}
}

func TestRegion(t *testing.T) {
	r := NewRegion(Pos{3, 3, 3}, Pos{0, 0, 0})
	if r.Min != (Pos{0, 0, 0}) || r.Volume() != 64 {
		t.Fatalf("unexpected region %v volume %d", r, r.Volume())
	}
	if !r.Contains(Pos{3, 0, 3}) || r.Contains(Pos{4, 0, 0}) {
		t.Errorf("Contains wrong for %v", r)
	}
	if !r.Intersects(RegionOf(ChunkCoord{}, 2)) || r.Intersects(RegionOf(ChunkCoord{X: 1}, 4)) {
		t.Errorf("Intersects wrong for %v", r)
	}
	if g := r.Grow(1); g.Width() != 6 {
		t.Errorf("Grow width = %d", g.Width())
	}
}

func TestChunkLazyAndDirty(t *testing.T) {
	c := NewChunk(ChunkCoord{X: 1}, 8)
	c.SetMaterial(0, 0, 0, MaterialAir)
	if c.voxels != nil || c.Dirty() {
		t.Fatalf("writing air to an empty chunk must not allocate or dirty it")
	}
	c.Set(Pos{8, 1, 2}, MaterialRock)
	if !c.Dirty() || c.Material(0, 1, 2) != MaterialRock {
		t.Fatalf("world write did not land at local (0,1,2)")
	}
	c.Set(Pos{0, 1, 2}, MaterialRock) // outside, ignored
	if c.At(Pos{0, 1, 2}) != MaterialAir {
		t.Errorf("out-of-chunk read should be air")
	}

	data := c.Data()
	other := NewChunk(ChunkCoord{X: 1}, 8)
	if err := other.Load(data); err != nil {
		t.Fatal(err)
	}
	if other.Dirty() || other.Material(0, 1, 2) != MaterialRock {
		t.Errorf("Load should copy content and leave chunk clean")
	}
	if err := other.Load(data[:10]); err == nil {
		t.Errorf("Load with short data should fail")
	}
}

type fillGenerator struct {
	calls int
}

func (g *fillGenerator) Populate(region Region, c *Chunk) {
	g.calls++
	for x := region.Min.X; x <= region.Max.X; x++ {
		for z := region.Min.Z; z <= region.Max.Z; z++ {
			for y := region.Min.Y; y <= region.Max.Y && y < 4; y++ {
				c.Set(Pos{x, y, z}, MaterialRock)
			}
		}
	}
}

type mapStorage struct {
	data    map[Region][]Material
	loadErr error
	saveErr error
	saves   int
}

func newMapStorage() *mapStorage {
	return &mapStorage{data: map[Region][]Material{}}
}

func (s *mapStorage) Load(r Region) ([]Material, bool, error) {
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	d, ok := s.data[r]
	return d, ok, nil
}

func (s *mapStorage) Save(r Region, d []Material) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.data[r] = d
	return nil
}

func TestPagerGeneratesOnMiss(t *testing.T) {
	gen := &fillGenerator{}
	st := newMapStorage()
	p := NewStoragePager(st, gen, nil)
	c := NewChunk(ChunkCoord{}, 8)
	p.PageIn(c.Region(), c)
	if gen.calls != 1 || !c.Dirty() {
		t.Fatalf("miss should generate and leave chunk dirty (calls=%d dirty=%v)", gen.calls, c.Dirty())
	}
	p.PageOut(c.Region(), c)
	if st.saves != 1 || c.Dirty() {
		t.Fatalf("dirty page-out should save once and clean the chunk")
	}
	p.PageOut(c.Region(), c)
	if st.saves != 1 {
		t.Errorf("clean page-out must not save")
	}

	loaded := NewChunk(ChunkCoord{}, 8)
	p.PageIn(loaded.Region(), loaded)
	if gen.calls != 1 || loaded.Dirty() || loaded.Material(1, 1, 1) != MaterialRock {
		t.Errorf("hit should load stored content without generating")
	}
}

func TestPagerLoadErrorRegenerates(t *testing.T) {
	gen := &fillGenerator{}
	st := newMapStorage()
	st.loadErr = errors.New("disk gone")
	p := NewStoragePager(st, gen, nil)
	c := NewChunk(ChunkCoord{}, 8)
	p.PageIn(c.Region(), c)
	if gen.calls != 1 || c.Material(0, 0, 0) != MaterialRock {
		t.Fatalf("load error should fall back to generation")
	}
}

func TestPagerSaveErrorKeepsDirty(t *testing.T) {
	st := newMapStorage()
	st.saveErr = errors.New("read only")
	p := NewStoragePager(st, &fillGenerator{}, nil)
	c := NewChunk(ChunkCoord{}, 8)
	p.PageIn(c.Region(), c)
	p.PageOut(c.Region(), c)
	if !c.Dirty() {
		t.Errorf("failed save must leave the chunk dirty")
	}
}

func TestVolumePagesInAndEvicts(t *testing.T) {
	gen := &fillGenerator{}
	st := newMapStorage()
	v := NewVolume(8, NewStoragePager(st, gen, nil))

	if v.PeekMaterial(Pos{0, 0, 0}) != MaterialAir || v.Len() != 0 {
		t.Fatalf("peek must not page in")
	}
	if v.Material(Pos{0, 0, 0}) != MaterialRock || v.Len() != 1 {
		t.Fatalf("material read should page in the chunk")
	}
	v.Material(Pos{0, 0, 0})
	if gen.calls != 1 {
		t.Errorf("resident chunk paged in twice")
	}
	if v.Chunk(ChunkCoord{}) != v.Peek(ChunkCoord{}) || v.ModCount() != 1 {
		t.Errorf("resident chunk replaced, modcount %d", v.ModCount())
	}

	for x := 0; x < 5; x++ {
		v.Chunk(ChunkCoord{X: x})
	}
	removed := v.EvictFar(ChunkCoord{}, 2)
	if removed != 2 || v.Len() != 3 {
		t.Fatalf("EvictFar removed %d, len %d", removed, v.Len())
	}
	if st.saves != 2 {
		t.Errorf("evicted dirty chunks should be paged out, saves=%d", st.saves)
	}

	v.SetMaterial(Pos{1, 1, 1}, MaterialWood)
	v.Flush()
	if st.saves != 5 {
		t.Errorf("Flush should persist every dirty chunk, saves=%d", st.saves)
	}
	v.Clear()
	if v.Len() != 0 {
		t.Errorf("Clear left %d chunks", v.Len())
	}
	if v.Material(Pos{1, 1, 1}) != MaterialWood {
		t.Errorf("edit lost across clear and reload")
	}
}

func TestMutexTimeout(t *testing.T) {
	m := NewMutex(20 * time.Millisecond)
	if err := m.Lock(context.Background()); err != nil {
		t.Fatal(err)
	}
	if m.TryLock() {
		t.Fatal("TryLock succeeded on a held mutex")
	}
	if err := m.Lock(context.Background()); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Lock(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	m.Unlock()
	if !m.TryLock() {
		t.Fatal("TryLock failed on a free mutex")
	}
	m.Unlock()
}

func TestFindFloor(t *testing.T) {
	v := NewVolume(8, NewStoragePager(nil, &fillGenerator{}, nil))
	y, err := v.FindFloor(3, 3, 20)
	if err != nil || y != 4 {
		t.Fatalf("FindFloor = %d, %v; want 4", y, err)
	}
	v.SetMaterial(Pos{3, 10, 3}, MaterialWood)
	if y, _ := v.FindFloor(3, 3, 20); y != 4 {
		t.Errorf("wood is not a floor, got %d", y)
	}

	empty := NewVolume(8, nil)
	if _, err := empty.FindFloor(0, 0, 20); !errors.Is(err, ErrNoFloor) {
		t.Errorf("expected ErrNoFloor, got %v", err)
	}
}

func TestFindPath(t *testing.T) {
	v := NewVolume(8, NewStoragePager(nil, &fillGenerator{}, nil))
	start, end := Pos{0, 4, 0}, Pos{6, 4, 0}
	// Wall with a single step up in the middle.
	for z := -3; z <= 3; z++ {
		v.SetMaterial(Pos{3, 4, z}, MaterialRock)
	}
	path, err := v.FindPath(start, end, 0)
	if err != nil {
		t.Fatal(err)
	}
	if path[0] != start || path[len(path)-1] != end {
		t.Fatalf("path endpoints %v..%v", path[0], path[len(path)-1])
	}
	for i := 1; i < len(path); i++ {
		d := manhattan(path[i-1], path[i])
		if d < 1 || d > 2 {
			t.Fatalf("illegal step %v -> %v", path[i-1], path[i])
		}
	}

	if _, err := v.FindPath(start, Pos{6, 9, 0}, 0); !errors.Is(err, ErrNoPath) {
		t.Errorf("floating goal should be unreachable, got %v", err)
	}
}

func TestRaycast(t *testing.T) {
	v := NewVolume(8, nil)
	v.SetMaterial(Pos{5, 0, 0}, MaterialRock)
	start := mgl32.Vec3{0.5, 0.5, 0.5}

	res := v.Raycast(start, mgl32.Vec3{1, 0, 0}, 0.1, 10)
	if !res.Ok {
		t.Fatal("expected hit")
	}
	if res.Hit != (Pos{5, 0, 0}) || res.Adjacent != (Pos{4, 0, 0}) || res.Material != MaterialRock {
		t.Errorf("hit %v adjacent %v material %v", res.Hit, res.Adjacent, res.Material)
	}
	if res.Distance < 4.49 || res.Distance > 4.53 {
		t.Errorf("distance %f, want about 4.5", res.Distance)
	}

	if v.Raycast(start, mgl32.Vec3{1, 0, 0}, 0.1, 4).Ok {
		t.Error("hit beyond max distance")
	}
	if v.Raycast(start, mgl32.Vec3{0, 1, 0}, 0.1, 10).Ok {
		t.Error("hit in empty direction")
	}
	if v.Raycast(start, mgl32.Vec3{}, 0, 10).Ok {
		t.Error("zero direction hit something")
	}

	v.SetMaterial(Pos{2, 2, 2}, MaterialWood)
	diag := v.Raycast(start, mgl32.Vec3{1, 1, 1}, 0, 10)
	if !diag.Ok || diag.Hit != (Pos{2, 2, 2}) {
		t.Errorf("diagonal ray hit %+v", diag)
	}
}
