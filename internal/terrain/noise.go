package terrain

import "math"

// Deterministic value noise. Lattice values come from an integer hash, so the
// same inputs give bit-identical output on every run and goroutine.

// fade is the 6t^5 - 15t^4 + 10t^3 smoothing curve.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// mix64 is the SplitMix64 finaliser.
func mix64(v uint64) uint64 {
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func hash2(x, z, seed int64) uint64 {
	return mix64(uint64(x)*0x9E3779B97F4A7C15 ^ uint64(z)*0xC2B2AE3D27D4EB4F + uint64(seed))
}

func hash3(x, y, z, seed int64) uint64 {
	return mix64(uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(z)*0x6C62272E07BB0142 + uint64(seed))
}

// unit maps a hash to [0,1].
func unit(h uint64) float64 {
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func valueNoise2D(x, z float64, seed int64) float64 {
	x0, z0 := math.Floor(x), math.Floor(z)
	ix, iz := int64(x0), int64(z0)
	fx, fz := fade(x-x0), fade(z-z0)

	i0 := lerp(unit(hash2(ix, iz, seed)), unit(hash2(ix+1, iz, seed)), fx)
	i1 := lerp(unit(hash2(ix, iz+1, seed)), unit(hash2(ix+1, iz+1, seed)), fx)
	return lerp(i0, i1, fz)
}

func valueNoise3D(x, y, z float64, seed int64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	ix, iy, iz := int64(x0), int64(y0), int64(z0)
	fx, fy, fz := fade(x-x0), fade(y-y0), fade(z-z0)

	corner := func(dx, dy, dz int64) float64 {
		return unit(hash3(ix+dx, iy+dy, iz+dz, seed))
	}
	// Trilinear: along X, then Y, then Z.
	i00 := lerp(corner(0, 0, 0), corner(1, 0, 0), fx)
	i10 := lerp(corner(0, 1, 0), corner(1, 1, 0), fx)
	i01 := lerp(corner(0, 0, 1), corner(1, 0, 1), fx)
	i11 := lerp(corner(0, 1, 1), corner(1, 1, 1), fx)
	return lerp(lerp(i00, i10, fy), lerp(i01, i11, fy), fz)
}

// octaveNoise2D sums octaves of value noise and normalises to [0,1]. Each
// octave uses its own seed so octaves are uncorrelated.
func octaveNoise2D(x, z float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	amplitude, frequency := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for i := range octaves {
		sum += valueNoise2D(x*frequency, z*frequency, seed+int64(i*131)) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

func octaveNoise3D(x, y, z float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	amplitude, frequency := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for i := range octaves {
		sum += valueNoise3D(x*frequency, y*frequency, z*frequency, seed+int64(i*131)) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// Fractal2D samples a fractal noise layer at world column (x, z). The result
// is in [0,1]; a layer with no octaves yields 0.
func Fractal2D(x, z float64, seed int64, octaves int, persistence, frequency float64) float64 {
	return octaveNoise2D(x*frequency, z*frequency, seed, octaves, persistence, 2.0)
}
