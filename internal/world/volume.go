package world

import (
	"sync"

	"voxstream/internal/profiling"
)

// VoxelWriter accepts voxel writes in world coordinates.
type VoxelWriter interface {
	Set(p Pos, m Material)
}

// Volume is the set of resident chunks. Missing chunks are paged in through
// the Pager on first access.
//
// Callers must hold the world Mutex for every method except Len and Has. The
// internal RWMutex only guards the chunk map itself.
type Volume struct {
	size  int
	pager Pager

	mu       sync.RWMutex
	chunks   map[ChunkCoord]*Chunk
	modCount uint64 // Increases on any chunk add/remove
}

// NewVolume creates an empty volume of chunks with the given edge length.
func NewVolume(size int, pager Pager) *Volume {
	return &Volume{
		size:   size,
		pager:  pager,
		chunks: make(map[ChunkCoord]*Chunk),
	}
}

// ChunkSize returns the edge length of each chunk.
func (v *Volume) ChunkSize() int { return v.size }

// Chunk returns the chunk at coord, paging it in if it is not resident.
func (v *Volume) Chunk(coord ChunkCoord) *Chunk {
	v.mu.RLock()
	c, ok := v.chunks[coord]
	v.mu.RUnlock()
	if ok {
		return c
	}

	c = NewChunk(coord, v.size)
	if v.pager != nil {
		v.pager.PageIn(c.Region(), c)
	}

	v.mu.Lock()
	v.chunks[coord] = c
	v.modCount++
	v.mu.Unlock()
	return c
}

// Peek returns the chunk at coord or nil when it is not resident.
func (v *Volume) Peek(coord ChunkCoord) *Chunk {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.chunks[coord]
}

// Has reports whether the chunk at coord is resident.
func (v *Volume) Has(coord ChunkCoord) bool {
	v.mu.RLock()
	_, ok := v.chunks[coord]
	v.mu.RUnlock()
	return ok
}

// Material returns the voxel at p, paging in its chunk.
func (v *Volume) Material(p Pos) Material {
	return v.Chunk(TileOf(p, v.size)).At(p)
}

// At is Material; it lets a Volume act as a sampler for mesh extraction.
func (v *Volume) At(p Pos) Material {
	return v.Material(p)
}

// PeekMaterial returns the voxel at p without paging. Non-resident chunks
// read as air.
func (v *Volume) PeekMaterial(p Pos) Material {
	c := v.Peek(TileOf(p, v.size))
	if c == nil {
		return MaterialAir
	}
	return c.At(p)
}

// SetMaterial writes the voxel at p, paging in its chunk.
func (v *Volume) SetMaterial(p Pos, m Material) {
	v.Chunk(TileOf(p, v.size)).Set(p, m)
}

// Set implements VoxelWriter.
func (v *Volume) Set(p Pos, m Material) {
	v.SetMaterial(p, m)
}

// EvictFar pages out and drops every chunk whose Chebyshev distance to center
// exceeds radius. Returns the number of removed chunks.
func (v *Volume) EvictFar(center ChunkCoord, radius int) int {
	defer profiling.Track("world.EvictFar")()
	var far []*Chunk
	v.mu.RLock()
	for coord, c := range v.chunks {
		if chebyshev(coord, center) > radius {
			far = append(far, c)
		}
	}
	v.mu.RUnlock()

	for _, c := range far {
		if v.pager != nil {
			v.pager.PageOut(c.Region(), c)
		}
	}

	v.mu.Lock()
	for _, c := range far {
		delete(v.chunks, c.Coord)
		v.modCount++
	}
	v.mu.Unlock()
	return len(far)
}

// Flush pages out every resident chunk. Chunks stay resident.
func (v *Volume) Flush() {
	defer profiling.Track("world.Flush")()
	if v.pager == nil {
		return
	}
	for _, c := range v.snapshot() {
		v.pager.PageOut(c.Region(), c)
	}
}

// Clear drops every resident chunk without paging out.
func (v *Volume) Clear() {
	v.mu.Lock()
	if len(v.chunks) > 0 {
		v.chunks = make(map[ChunkCoord]*Chunk)
		v.modCount++
	}
	v.mu.Unlock()
}

// Len returns the number of resident chunks.
func (v *Volume) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.chunks)
}

// Coords returns the coordinates of all resident chunks in no particular order.
func (v *Volume) Coords() []ChunkCoord {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]ChunkCoord, 0, len(v.chunks))
	for coord := range v.chunks {
		out = append(out, coord)
	}
	return out
}

// ModCount returns the current modification count of the chunk map.
func (v *Volume) ModCount() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.modCount
}

func (v *Volume) snapshot() []*Chunk {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*Chunk, 0, len(v.chunks))
	for _, c := range v.chunks {
		out = append(out, c)
	}
	return out
}

func chebyshev(a, b ChunkCoord) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y), abs(a.Z-b.Z))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
