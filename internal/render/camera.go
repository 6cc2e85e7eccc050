package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera handles the view and projection matrices
type Camera struct {
	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32

	Position mgl32.Vec3
	// Yaw and Pitch are in degrees; yaw 0 looks down -Z.
	Yaw, Pitch float64
}

func NewCamera(width, height int) *Camera {
	return &Camera{
		AspectRatio: float32(width) / float32(height),
		FOV:         60.0,
		NearPlane:   0.1,
		FarPlane:    1000.0,
	}
}

// Resize updates the aspect ratio after a framebuffer change.
func (c *Camera) Resize(width, height int) {
	if height > 0 {
		c.AspectRatio = float32(width) / float32(height)
	}
}

func (c *Camera) Front() mgl32.Vec3 {
	yaw := mgl32.DegToRad(float32(c.Yaw - 90))
	pitch := mgl32.DegToRad(float32(c.Pitch))
	cp := float32(math.Cos(float64(pitch)))
	return mgl32.Vec3{
		float32(math.Cos(float64(yaw))) * cp,
		float32(math.Sin(float64(pitch))),
		float32(math.Sin(float64(yaw))) * cp,
	}.Normalize()
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front()), mgl32.Vec3{0, 1, 0})
}

// Orbit places the camera on a circle of radius around center at the given
// angle in radians, height above it, looking at center.
func (c *Camera) Orbit(center mgl32.Vec3, radius, height float32, angle float64) {
	c.Position = mgl32.Vec3{
		center.X() + radius*float32(math.Sin(angle)),
		center.Y() + height,
		center.Z() + radius*float32(math.Cos(angle)),
	}
	dir := center.Sub(c.Position)
	horiz := math.Hypot(float64(dir.X()), float64(dir.Z()))
	c.Pitch = float64(mgl32.RadToDeg(float32(math.Atan2(float64(dir.Y()), horiz))))
	c.Yaw = float64(mgl32.RadToDeg(float32(math.Atan2(float64(dir.Z()), float64(dir.X()))))) + 90
}
