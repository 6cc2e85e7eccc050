package world

import (
	"math"

	"voxstream/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// raycastStep is the march distance between samples.
const raycastStep = float32(0.02)

// RaycastResult stores the result of a raycast operation
type RaycastResult struct {
	Hit Pos
	// Adjacent is the last empty voxel before Hit, where a placed voxel goes.
	Adjacent Pos
	Material Material
	Distance float32
	Ok       bool
}

// Raycast marches from start along dir and reports the first solid voxel
// between minDist and maxDist. Voxel p spans [p, p+1) on every axis. Chunks
// along the ray are paged in.
func (v *Volume) Raycast(start, dir mgl32.Vec3, minDist, maxDist float32) RaycastResult {
	defer profiling.Track("world.Raycast")()
	if dir.Len() == 0 {
		return RaycastResult{}
	}
	dir = dir.Normalize()
	steps := int(maxDist / raycastStep)

	var (
		last    Pos
		hasLast bool
	)
	for i := 0; i <= steps; i++ {
		dist := float32(i) * raycastStep
		if dist < minDist {
			continue
		}
		p := start.Add(dir.Mul(dist))
		cell := Pos{
			X: int(math.Floor(float64(p.X()))),
			Y: int(math.Floor(float64(p.Y()))),
			Z: int(math.Floor(float64(p.Z()))),
		}
		if hasLast && cell == last {
			continue
		}
		if m := v.Material(cell); m.Solid() {
			adj := last
			if !hasLast {
				adj = cell
			}
			return RaycastResult{Hit: cell, Adjacent: adj, Material: m, Distance: dist, Ok: true}
		}
		last, hasLast = cell, true
	}
	return RaycastResult{}
}
