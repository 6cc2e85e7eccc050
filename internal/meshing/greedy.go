package meshing

import (
	"voxstream/internal/profiling"
	"voxstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// Sampler reads voxels in world coordinates. Reads may cross the extracted
// region to decide face visibility at its border.
type Sampler interface {
	At(p world.Pos) world.Material
}

// Extractor turns the voxels of region into a mesh. Implementations must be
// pure functions of the sampled content.
type Extractor func(src Sampler, region world.Region) *Mesh

// Cubic emits one quad per visible voxel face.
func Cubic(src Sampler, region world.Region) *Mesh {
	defer profiling.Track("meshing.Cubic")()
	return extract(src, region, false)
}

// Greedy merges coplanar faces of equal material into larger quads.
func Greedy(src Sampler, region world.Region) *Mesh {
	defer profiling.Track("meshing.Greedy")()
	return extract(src, region, true)
}

// faceVisible decides whether the face of m towards neighbour n is drawn.
func faceVisible(m, n world.Material) bool {
	return m != world.MaterialAir && !n.Solid() && n != m
}

// extract walks the six face directions. For each direction the region is cut
// into layers along the normal axis; each layer builds a u*v mask of visible
// face materials that is then emitted either per cell or greedily merged.
func extract(src Sampler, region world.Region, merge bool) *Mesh {
	mesh := NewMesh(region.Min)
	lo := [3]int{region.Min.X, region.Min.Y, region.Min.Z}
	size := [3]int{region.Width(), region.Height(), region.Depth()}

	for d := 0; d < 3; d++ {
		u, v := (d+1)%3, (d+2)%3
		mask := make([]world.Material, size[u]*size[v])
		for _, sign := range [2]int{1, -1} {
			for layer := 0; layer < size[d]; layer++ {
				// Build the mask for this layer.
				for j := 0; j < size[v]; j++ {
					for i := 0; i < size[u]; i++ {
						var c [3]int
						c[d], c[u], c[v] = lo[d]+layer, lo[u]+i, lo[v]+j
						p := world.Pos{X: c[0], Y: c[1], Z: c[2]}
						m := src.At(p)
						c[d] += sign
						n := src.At(world.Pos{X: c[0], Y: c[1], Z: c[2]})
						if faceVisible(m, n) {
							mask[j*size[u]+i] = m
						} else {
							mask[j*size[u]+i] = world.MaterialAir
						}
					}
				}
				emitLayer(mesh, mask, size, d, u, v, layer, sign, merge)
			}
		}
	}
	return mesh
}

// emitLayer converts the mask of one layer to quads and clears it.
func emitLayer(mesh *Mesh, mask []world.Material, size [3]int, d, u, v, layer, sign int, merge bool) {
	su, sv := size[u], size[v]
	for j := 0; j < sv; j++ {
		for i := 0; i < su; {
			m := mask[j*su+i]
			if m == world.MaterialAir {
				i++
				continue
			}
			// compute width along u
			w := 1
			for merge && i+w < su && mask[j*su+i+w] == m {
				w++
			}
			// compute height along v
			h := 1
		grow:
			for merge && j+h < sv {
				for k := i; k < i+w; k++ {
					if mask[(j+h)*su+k] != m {
						break grow
					}
				}
				h++
			}

			plane := layer
			if sign > 0 {
				plane++
			}
			emitQuad(mesh, d, u, v, plane, i, j, w, h, sign, m)

			// zero-out mask region
			for jj := j; jj < j+h; jj++ {
				for ii := i; ii < i+w; ii++ {
					mask[jj*su+ii] = world.MaterialAir
				}
			}
			i += w
		}
	}
}

// emitQuad adds a w*h quad on the given plane. Corners are ordered so the
// front face is CCW with the normal pointing outward.
func emitQuad(mesh *Mesh, d, u, v, plane, i, j, w, h, sign int, m world.Material) {
	corner := func(du, dv int) mgl32.Vec3 {
		var c mgl32.Vec3
		c[d] = float32(plane)
		c[u] = float32(i + du)
		c[v] = float32(j + dv)
		return c
	}
	var normal mgl32.Vec3
	normal[d] = float32(sign)

	quad := [4]mgl32.Vec3{corner(0, 0), corner(w, 0), corner(w, h), corner(0, h)}
	if sign < 0 {
		quad[1], quad[3] = quad[3], quad[1]
	}
	var idx [4]uint32
	for k, p := range quad {
		idx[k] = mesh.AddVertex(Vertex{Pos: p, Normal: normal, Material: m})
	}
	mesh.AddTriangle(idx[0], idx[1], idx[2])
	mesh.AddTriangle(idx[2], idx[3], idx[0])
}
