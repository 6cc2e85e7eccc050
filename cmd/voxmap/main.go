// Command voxmap renders the height field of a seed to a PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"voxstream/internal/config"
	"voxstream/internal/terrain"

	"golang.org/x/image/draw"
)

func main() {
	var (
		configPath = flag.String("config", "", "optional config file for the generation parameters")
		seed       = flag.Int64("seed", 42, "world seed")
		originX    = flag.Int("x", 0, "west edge in voxels")
		originZ    = flag.Int("z", 0, "north edge in voxels")
		size       = flag.Int("size", 512, "sampled area edge in voxels")
		scale      = flag.Int("scale", 2, "output pixels per voxel")
		out        = flag.String("o", "heightmap.png", "output file")
	)
	flag.Parse()

	ctx := terrain.DefaultWorldContext()
	if *configPath != "" {
		uc, err := config.Load(*configPath)
		if err != nil {
			fail(err)
		}
		ctx = uc.World.Context()
	}
	if *size <= 0 || *scale <= 0 {
		fail(fmt.Errorf("size and scale must be positive"))
	}

	gen := terrain.New(*seed, ctx)
	src := HeightMap(gen, *originX, *originZ, *size)
	dst := image.NewRGBA(image.Rect(0, 0, *size**scale, *size**scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	f, err := os.Create(*out)
	if err != nil {
		fail(err)
	}
	if err := png.Encode(f, dst); err != nil {
		f.Close()
		fail(err)
	}
	if err := f.Close(); err != nil {
		fail(err)
	}
}

// HeightMap samples size*size columns starting at (x0, z0). Columns are
// shaded by height and tinted by their surface band.
func HeightMap(gen *terrain.Generator, x0, z0, size int) *image.RGBA {
	ctx := gen.Context()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	top := float64(ctx.MinHeight + ctx.TerrainHeight)
	for z := range size {
		for x := range size {
			h := gen.HeightAt(x0+x, z0+z)
			shade := 0.35 + 0.65*float64(h)/top
			var base color.RGBA
			switch {
			case h <= ctx.SandHeight:
				base = color.RGBA{219, 204, 140, 255}
			case h > ctx.MinHeight+ctx.TerrainHeight*3/4:
				base = color.RGBA{150, 150, 155, 255}
			default:
				base = color.RGBA{92, 158, 61, 255}
			}
			img.SetRGBA(x, z, color.RGBA{
				R: uint8(min(float64(base.R)*shade, 255)),
				G: uint8(min(float64(base.G)*shade, 255)),
				B: uint8(min(float64(base.B)*shade, 255)),
				A: 255,
			})
		}
	}
	return img
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "voxmap:", err)
	os.Exit(1)
}
