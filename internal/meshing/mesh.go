package meshing

import (
	"unsafe"

	"voxstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexStride is number of float32 per interleaved vertex (pos.xyz + normal.xyz + material)
const VertexStride = 7

// Vertex is a mesh vertex. Pos is relative to the owning Mesh's Offset.
type Vertex struct {
	Pos      mgl32.Vec3
	Normal   mgl32.Vec3
	Material world.Material
}

// Mesh is an indexed triangle list produced by surface extraction.
type Mesh struct {
	Offset   world.Pos
	Vertices []Vertex
	Indices  []uint32
}

// NewMesh creates an empty mesh anchored at offset.
func NewMesh(offset world.Pos) *Mesh {
	return &Mesh{
		Offset:   offset,
		Vertices: make([]Vertex, 0, 128),
		Indices:  make([]uint32, 0, 128),
	}
}

// AddVertex appends v and returns its index.
func (m *Mesh) AddVertex(v Vertex) uint32 {
	m.Vertices = append(m.Vertices, v)
	return uint32(len(m.Vertices) - 1)
}

// AddTriangle appends a triangle of three vertex indices.
func (m *Mesh) AddTriangle(i0, i1, i2 uint32) {
	m.Indices = append(m.Indices, i0, i1, i2)
}

// AddMesh appends other to m, rebasing its indices. Meshes with different
// offsets cannot be merged and are rejected.
func (m *Mesh) AddMesh(other *Mesh) bool {
	if other.Offset != m.Offset {
		return false
	}
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, other.Vertices...)
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, idx+base)
	}
	return true
}

// IsEmpty reports whether the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return len(m.Indices) == 0
}

// Size returns the memory held by vertex and index data in bytes.
func (m *Mesh) Size() int {
	return len(m.Vertices)*int(unsafe.Sizeof(Vertex{})) + len(m.Indices)*int(unsafe.Sizeof(uint32(0)))
}

// Clear drops all geometry but keeps the offset and capacity.
func (m *Mesh) Clear() {
	m.Vertices = m.Vertices[:0]
	m.Indices = m.Indices[:0]
}

// RemoveUnusedVertices drops vertices no index refers to and compacts the
// index list accordingly.
func (m *Mesh) RemoveUnusedVertices() {
	remap := make([]int32, len(m.Vertices))
	for i := range remap {
		remap[i] = -1
	}
	for _, idx := range m.Indices {
		remap[idx] = 0
	}
	n := int32(0)
	for i, r := range remap {
		if r < 0 {
			continue
		}
		m.Vertices[n] = m.Vertices[i]
		remap[i] = n
		n++
	}
	m.Vertices = m.Vertices[:n]
	for i, idx := range m.Indices {
		m.Indices[i] = uint32(remap[idx])
	}
}

// Interleave flattens the mesh into triangle-list floats ready for upload,
// VertexStride floats per vertex, with Offset applied.
func Interleave(m *Mesh) []float32 {
	out := make([]float32, 0, len(m.Indices)*VertexStride)
	off := mgl32.Vec3{float32(m.Offset.X), float32(m.Offset.Y), float32(m.Offset.Z)}
	for _, idx := range m.Indices {
		v := m.Vertices[idx]
		p := v.Pos.Add(off)
		out = append(out, p[0], p[1], p[2], v.Normal[0], v.Normal[1], v.Normal[2], float32(v.Material))
	}
	return out
}
