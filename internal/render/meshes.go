// Package render uploads extracted tile meshes to OpenGL and draws them.
package render

import (
	"voxstream/internal/meshing"
	"voxstream/internal/profiling"
	"voxstream/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Palette is the display colour of every material, indexed by Material.
var Palette = [...]mgl32.Vec3{
	world.MaterialAir:    {0, 0, 0},
	world.MaterialGrass:  {0.36, 0.62, 0.24},
	world.MaterialDirt:   {0.47, 0.33, 0.2},
	world.MaterialRock:   {0.5, 0.5, 0.52},
	world.MaterialSand:   {0.86, 0.8, 0.55},
	world.MaterialWood:   {0.4, 0.27, 0.13},
	world.MaterialLeaves: {0.18, 0.45, 0.15},
	world.MaterialCloud:  {0.95, 0.95, 0.97},
}

func paletteFloats() []float32 {
	out := make([]float32, 0, len(Palette)*3)
	for _, c := range Palette {
		out = append(out, c[0], c[1], c[2])
	}
	return out
}

type gpuMesh struct {
	vao, vbo    uint32
	vertexCount int32
	region      world.Region
}

// Meshes owns the GPU buffers of uploaded tile meshes. All methods must run
// on the goroutine holding the GL context.
type Meshes struct {
	shader *Shader
	meshes map[world.ChunkCoord]*gpuMesh
	size   int
}

// NewMeshes compiles the mesh shader. chunkSize is used for culling.
func NewMeshes(chunkSize int) (*Meshes, error) {
	shader, err := NewMeshShader()
	if err != nil {
		return nil, err
	}
	shader.Use()
	shader.SetVector3Array("palette", paletteFloats())
	light := mgl32.Vec3{0.3, 1.0, 0.3}.Normalize()
	shader.SetVector3("lightDir", light.X(), light.Y(), light.Z())
	return &Meshes{shader: shader, meshes: make(map[world.ChunkCoord]*gpuMesh), size: chunkSize}, nil
}

// Len returns the number of tiles with buffers.
func (m *Meshes) Len() int { return len(m.meshes) }

// Upload replaces the buffers of tile with mesh. Empty meshes only drop the
// previous buffers.
func (m *Meshes) Upload(tile world.ChunkCoord, mesh *meshing.Mesh) {
	defer profiling.Track("render.upload")()
	m.Remove(tile)
	if mesh == nil || mesh.IsEmpty() {
		return
	}
	verts := meshing.Interleave(mesh)
	gm := &gpuMesh{
		vertexCount: int32(len(verts) / meshing.VertexStride),
		region:      world.RegionOf(tile, m.size),
	}
	gl.GenVertexArrays(1, &gm.vao)
	gl.GenBuffers(1, &gm.vbo)
	gl.BindVertexArray(gm.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)

	stride := int32(meshing.VertexStride * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 1, gl.FLOAT, false, stride, gl.PtrOffset(6*4))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	m.meshes[tile] = gm
}

// Remove frees the buffers of tile.
func (m *Meshes) Remove(tile world.ChunkCoord) {
	gm, ok := m.meshes[tile]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &gm.vao)
	gl.DeleteBuffers(1, &gm.vbo)
	delete(m.meshes, tile)
}

// RemoveFar frees every tile further than radius tiles from center.
func (m *Meshes) RemoveFar(center world.ChunkCoord, radius int) {
	for tile := range m.meshes {
		if abs(tile.X-center.X) > radius || abs(tile.Z-center.Z) > radius {
			m.Remove(tile)
		}
	}
}

// Draw renders every tile inside the camera frustum and returns how many
// were drawn.
func (m *Meshes) Draw(cam *Camera) int {
	defer profiling.Track("render.draw")()
	proj, view := cam.GetProjectionMatrix(), cam.GetViewMatrix()
	frustum := NewFrustum(proj.Mul4(view))

	m.shader.Use()
	m.shader.SetMatrix4("proj", &proj[0])
	m.shader.SetMatrix4("view", &view[0])
	drawn := 0
	for _, gm := range m.meshes {
		if !frustum.IntersectsRegion(gm.region) {
			continue
		}
		gl.BindVertexArray(gm.vao)
		gl.DrawArrays(gl.TRIANGLES, 0, gm.vertexCount)
		drawn++
	}
	gl.BindVertexArray(0)
	return drawn
}

// Dispose cleans up OpenGL resources
func (m *Meshes) Dispose() {
	for tile := range m.meshes {
		m.Remove(tile)
	}
	m.shader.Delete()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
