package terrain

import (
	"math"
	"math/rand"
	"testing"
)

// TestHash3DifferentInputs verifies hash3 separates axes and seeds
func TestHash3DifferentInputs(t *testing.T) {
	seed := int64(42)
	pairs := []struct {
		name   string
		h1, h2 uint64
	}{
		{"x", hash3(1, 0, 0, seed), hash3(2, 0, 0, seed)},
		{"y", hash3(0, 1, 0, seed), hash3(0, 2, 0, seed)},
		{"z", hash3(0, 0, 1, seed), hash3(0, 0, 2, seed)},
		{"seed", hash3(1, 1, 1, 100), hash3(1, 1, 1, 200)},
		{"axis swap", hash3(1, 2, 3, seed), hash3(3, 2, 1, seed)},
	}
	for _, p := range pairs {
		if p.h1 == p.h2 {
			t.Errorf("hash3 should differ for different %s: %d", p.name, p.h1)
		}
	}
}

// TestHash2NoDiagonalRepeat verifies lattice values are not shared along a
// diagonal, which would flatten height layers into straight ridges
func TestHash2NoDiagonalRepeat(t *testing.T) {
	same := 0
	for x := int64(-50); x < 50; x++ {
		for z := int64(-50); z < 50; z++ {
			if hash2(x, z, 42) == hash2(x+2, z-1, 42) {
				same++
			}
			if valueNoise2D(float64(x), float64(z), 42) == valueNoise2D(float64(x+2), float64(z-1), 42) {
				same++
			}
		}
	}
	if same > 0 {
		t.Errorf("%d lattice points equal their (+2,-1) neighbour", same)
	}

	equal := 0
	for i := 0; i < 1000; i++ {
		x, z := float64(i*37), float64(i*11)
		if Fractal2D(x, z, 42, 2, 0.3, 0.01) == Fractal2D(x+200, z-100, 42, 2, 0.3, 0.01) {
			equal++
		}
	}
	if equal > 10 {
		t.Errorf("Fractal2D repeats along (+200,-100) at %d of 1000 points", equal)
	}
}

// TestNoiseRange verifies every noise flavour stays in [0,1]
func TestNoiseRange(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	for i := 0; i < 1000; i++ {
		x := rng.Float64()*200 - 100
		y := rng.Float64()*200 - 100
		z := rng.Float64()*200 - 100

		for name, v := range map[string]float64{
			"valueNoise2D":  valueNoise2D(x, z, 42),
			"valueNoise3D":  valueNoise3D(x, y, z, 42),
			"octaveNoise2D": octaveNoise2D(x, z, 42, 4, 0.5, 2.0),
			"octaveNoise3D": octaveNoise3D(x, y, z, 42, 4, 0.5, 2.0),
			"Fractal2D":     Fractal2D(x*100, z*100, 42, 2, 0.3, 0.00075),
		} {
			if v < 0 || v > 1 {
				t.Fatalf("%s(%f, %f, %f) = %f, expected in [0,1]", name, x, y, z, v)
			}
		}
	}
}

// TestValueNoise3DContinuity verifies smooth interpolation (no random jumps)
func TestValueNoise3DContinuity(t *testing.T) {
	v1 := valueNoise3D(1.0, 1.0, 1.0, 42)
	v2 := valueNoise3D(1.01, 1.0, 1.0, 42)
	if diff := math.Abs(v1 - v2); diff >= 0.1 {
		t.Errorf("valueNoise3D not continuous: %f vs %f, diff=%f", v1, v2, diff)
	}
}

func TestFractal2DNoOctaves(t *testing.T) {
	if v := Fractal2D(10, 10, 1, 0, 0.5, 0.01); v != 0 {
		t.Errorf("zero octaves should yield 0, got %f", v)
	}
}

func BenchmarkOctaveNoise2D(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = octaveNoise2D(float64(i%1024)*0.01, float64((i*31)%1024)*0.01, 42, 4, 0.5, 2.0)
	}
}
