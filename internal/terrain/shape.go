package terrain

import (
	"voxstream/internal/world"
)

// Fill selects whether a shape is rasterised solid or as a one voxel shell.
type Fill uint8

const (
	Solid Fill = iota
	Hollow
)

// rasterize visits every voxel of box that lies inside the shape and writes m.
// Only the part of box overlapping the context region is visited. Hollow
// shapes keep voxels that have at least one face neighbour outside the shape.
func rasterize(ctx *TerrainContext, box world.Region, inside func(p world.Pos) bool, fill Fill, m world.Material) {
	if !box.Intersects(ctx.Region) {
		return
	}
	lo := world.Pos{X: max(box.Min.X, ctx.Region.Min.X), Y: max(box.Min.Y, ctx.Region.Min.Y), Z: max(box.Min.Z, ctx.Region.Min.Z)}
	hi := world.Pos{X: min(box.Max.X, ctx.Region.Max.X), Y: min(box.Max.Y, ctx.Region.Max.Y), Z: min(box.Max.Z, ctx.Region.Max.Z)}
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				p := world.Pos{X: x, Y: y, Z: z}
				if !inside(p) {
					continue
				}
				if fill == Hollow && !onShell(p, box, inside) {
					continue
				}
				ctx.Set(p, m)
			}
		}
	}
}

var faceOffsets = [6]world.Pos{
	{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
}

func onShell(p world.Pos, box world.Region, inside func(world.Pos) bool) bool {
	for _, o := range faceOffsets {
		n := p.Add(o)
		if !box.Contains(n) || !inside(n) {
			return true
		}
	}
	return false
}

// footprint returns the box of a w*h*d shape whose base is centred on pos.
func footprint(pos world.Pos, w, h, d int) world.Region {
	minX, minZ := pos.X-w/2, pos.Z-d/2
	return world.Region{
		Min: world.Pos{X: minX, Y: pos.Y, Z: minZ},
		Max: world.Pos{X: minX + w - 1, Y: pos.Y + h - 1, Z: minZ + d - 1},
	}
}

func validDims(dims ...int) bool {
	for _, d := range dims {
		if d <= 0 {
			return false
		}
	}
	return true
}

// Cube fills a box whose base is centred on pos.
func Cube(ctx *TerrainContext, pos world.Pos, w, h, d int, m world.Material, fill Fill) {
	if !validDims(w, h, d) {
		return
	}
	rasterize(ctx, footprint(pos, w, h, d), func(world.Pos) bool { return true }, fill, m)
}

// Plane fills a single voxel thick w*d rectangle centred on pos.
func Plane(ctx *TerrainContext, pos world.Pos, w, d int, m world.Material) {
	Cube(ctx, pos, w, 1, d, m, Solid)
}

// CirclePlane fills the part of a w*d rectangle centred on center that lies
// within radius of the centre column.
func CirclePlane(ctx *TerrainContext, center world.Pos, w, d int, radius float64, m world.Material) {
	if !validDims(w, d) || radius <= 0 {
		return
	}
	r2 := radius * radius
	rasterize(ctx, footprint(center, w, 1, d), func(p world.Pos) bool {
		dx, dz := float64(p.X-center.X), float64(p.Z-center.Z)
		return dx*dx+dz*dz <= r2
	}, Solid, m)
}

// Ellipse fills an ellipsoid with diameters w, h, d centred on pos.
func Ellipse(ctx *TerrainContext, pos world.Pos, w, h, d int, m world.Material, fill Fill) {
	if !validDims(w, h, d) {
		return
	}
	box := footprint(world.Pos{X: pos.X, Y: pos.Y - h/2, Z: pos.Z}, w, h, d)
	rx, ry, rz := float64(w)/2, float64(h)/2, float64(d)/2
	cx, cy, cz := float64(box.Min.X)+rx, float64(box.Min.Y)+ry, float64(box.Min.Z)+rz
	rasterize(ctx, box, func(p world.Pos) bool {
		dx := (float64(p.X) + 0.5 - cx) / rx
		dy := (float64(p.Y) + 0.5 - cy) / ry
		dz := (float64(p.Z) + 0.5 - cz) / rz
		return dx*dx+dy*dy+dz*dz <= 1
	}, fill, m)
}

// Dome fills the upper half of an ellipsoid. The flat side sits on pos.Y and
// the top reaches pos.Y+h-1.
func Dome(ctx *TerrainContext, pos world.Pos, w, h, d int, m world.Material, fill Fill) {
	if !validDims(w, h, d) {
		return
	}
	box := footprint(pos, w, h, d)
	rx, ry, rz := float64(w)/2, float64(h), float64(d)/2
	cx, cz := float64(box.Min.X)+rx, float64(box.Min.Z)+rz
	rasterize(ctx, box, func(p world.Pos) bool {
		dx := (float64(p.X) + 0.5 - cx) / rx
		dy := (float64(p.Y-pos.Y) + 0.5) / ry
		dz := (float64(p.Z) + 0.5 - cz) / rz
		return dx*dx+dy*dy+dz*dz <= 1
	}, fill, m)
}

// Cone fills a cone with an elliptic w*d base on pos.Y narrowing to a tip at
// pos.Y+h-1.
func Cone(ctx *TerrainContext, pos world.Pos, w, h, d int, m world.Material, fill Fill) {
	if !validDims(w, h, d) {
		return
	}
	box := footprint(pos, w, h, d)
	rx, rz := float64(w)/2, float64(d)/2
	cx, cz := float64(box.Min.X)+rx, float64(box.Min.Z)+rz
	rasterize(ctx, box, func(p world.Pos) bool {
		s := 1 - float64(p.Y-pos.Y)/float64(h)
		dx := (float64(p.X) + 0.5 - cx) / (rx * s)
		dz := (float64(p.Z) + 0.5 - cz) / (rz * s)
		return dx*dx+dz*dz <= 1
	}, fill, m)
}

// ShapeKind names a primitive for ShapeSpec.
type ShapeKind uint8

const (
	ShapeCube ShapeKind = iota
	ShapePlane
	ShapeCirclePlane
	ShapeEllipse
	ShapeDome
	ShapeCone
)

// ShapeSpec describes a single primitive placement.
type ShapeSpec struct {
	Kind     ShapeKind
	Pos      world.Pos
	Width    int
	Height   int
	Depth    int
	Radius   float64
	Material world.Material
	Fill     Fill
}

// Bounds returns the region the shape can touch.
func (s ShapeSpec) Bounds() world.Region {
	pos := s.Pos
	h := max(s.Height, 1)
	if s.Kind == ShapeEllipse {
		pos.Y -= h / 2
	}
	return footprint(pos, max(s.Width, 1), h, max(s.Depth, 1))
}

// Apply rasterises the shape into ctx.
func (s ShapeSpec) Apply(ctx *TerrainContext) {
	switch s.Kind {
	case ShapeCube:
		Cube(ctx, s.Pos, s.Width, s.Height, s.Depth, s.Material, s.Fill)
	case ShapePlane:
		Plane(ctx, s.Pos, s.Width, s.Depth, s.Material)
	case ShapeCirclePlane:
		CirclePlane(ctx, s.Pos, s.Width, s.Depth, s.Radius, s.Material)
	case ShapeEllipse:
		Ellipse(ctx, s.Pos, s.Width, s.Height, s.Depth, s.Material, s.Fill)
	case ShapeDome:
		Dome(ctx, s.Pos, s.Width, s.Height, s.Depth, s.Material, s.Fill)
	case ShapeCone:
		Cone(ctx, s.Pos, s.Width, s.Height, s.Depth, s.Material, s.Fill)
	}
}
