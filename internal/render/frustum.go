package render

import (
	"math"

	"voxstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// frustumMargin inflates tested boxes by this many voxels.
const frustumMargin float32 = 1.0

type plane struct {
	a, b, c, d float32
}

// Frustum holds the six clip planes of a projection*view matrix in the order
// left, right, bottom, top, near, far.
type Frustum [6]plane

// NewFrustum extracts the planes from the combined clip matrix.
func NewFrustum(clip mgl32.Mat4) Frustum {
	// Matrix is in column-major order in mgl32
	m00, m01, m02, m03 := clip[0], clip[4], clip[8], clip[12]
	m10, m11, m12, m13 := clip[1], clip[5], clip[9], clip[13]
	m20, m21, m22, m23 := clip[2], clip[6], clip[10], clip[14]
	m30, m31, m32, m33 := clip[3], clip[7], clip[11], clip[15]

	return Frustum{
		normalizePlane(plane{m30 + m00, m31 + m01, m32 + m02, m33 + m03}),
		normalizePlane(plane{m30 - m00, m31 - m01, m32 - m02, m33 - m03}),
		normalizePlane(plane{m30 + m10, m31 + m11, m32 + m12, m33 + m13}),
		normalizePlane(plane{m30 - m10, m31 - m11, m32 - m12, m33 - m13}),
		normalizePlane(plane{m30 + m20, m31 + m21, m32 + m22, m33 + m23}),
		normalizePlane(plane{m30 - m20, m31 - m21, m32 - m22, m33 - m23}),
	}
}

func normalizePlane(p plane) plane {
	l := float32(math.Sqrt(float64(p.a*p.a + p.b*p.b + p.c*p.c)))
	if l == 0 {
		return p
	}
	return plane{p.a / l, p.b / l, p.c / l, p.d / l}
}

// IntersectsAABB tests a box against every plane using its positive vertex.
func (f Frustum) IntersectsAABB(min, max mgl32.Vec3) bool {
	for _, p := range f {
		px := max.X()
		if p.a < 0 {
			px = min.X()
		}
		py := max.Y()
		if p.b < 0 {
			py = min.Y()
		}
		pz := max.Z()
		if p.c < 0 {
			pz = min.Z()
		}
		if p.a*px+p.b*py+p.c*pz+p.d < 0 {
			return false
		}
	}
	return true
}

// IntersectsRegion tests a voxel region, inflated by frustumMargin.
func (f Frustum) IntersectsRegion(r world.Region) bool {
	lo := mgl32.Vec3{float32(r.Min.X), float32(r.Min.Y), float32(r.Min.Z)}
	hi := mgl32.Vec3{float32(r.Max.X + 1), float32(r.Max.Y + 1), float32(r.Max.Z + 1)}
	m := mgl32.Vec3{frustumMargin, frustumMargin, frustumMargin}
	return f.IntersectsAABB(lo.Sub(m), hi.Add(m))
}
