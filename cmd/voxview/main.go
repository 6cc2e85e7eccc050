// Command voxview opens a window, orbits a camera over the world and draws
// meshes as the scheduler delivers them.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"voxstream/internal/config"
	"voxstream/internal/profiling"
	"voxstream/internal/render"
	"voxstream/internal/scheduler"
	"voxstream/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"
)

func init() { runtime.LockOSThread() }

const (
	winW = 1280
	winH = 720
)

func main() {
	var (
		configPath = flag.String("config", "voxstream.toml", "config file (.toml or .yaml)")
		distance   = flag.Int("distance", 8, "render distance in tiles")
		fps        = flag.Int("fps", 60, "frame rate cap, 0 for unlimited")
		orbit      = flag.Float64("orbit", 0.05, "camera orbit speed in radians per second")
	)
	flag.Parse()
	config.SetRenderDistance(*distance)

	uc, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}
	uc.World.Clouds = true
	log, err := uc.Logger(os.Stderr)
	if err != nil {
		fail(err)
	}
	conf, err := uc.Config(log)
	if err != nil {
		fail(err)
	}
	conf.EvictRadius = config.GetChunkEvictRadius()
	s := conf.New()
	closer.Bind(s.Destroy)

	if err := glfw.Init(); err != nil {
		log.Error("voxview: glfw init", "err", err)
		closer.Exit(1)
	}
	closer.Bind(glfw.Terminate)

	window, err := setupWindow(winW, winH, "voxview")
	if err != nil {
		log.Error("voxview: window", "err", err)
		closer.Exit(1)
	}
	meshes, err := render.NewMeshes(s.ChunkSize())
	if err != nil {
		log.Error("voxview: shader", "err", err)
		closer.Exit(1)
	}

	v := &view{log: log, s: s, window: window, meshes: meshes, cam: render.NewCamera(winW, winH), orbitSpeed: *orbit}
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		gl.Viewport(0, 0, int32(w), int32(h))
		v.cam.Resize(w, h)
	})
	v.run(*fps)
	meshes.Dispose()
	closer.Close()
}

func setupWindow(width, height int, title string) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()
	// Frame pacing is done by render.FPSLimiter.
	glfw.SwapInterval(0)
	if err := render.InitGL(); err != nil {
		return nil, err
	}
	return window, nil
}

type view struct {
	log    *slog.Logger
	s      *scheduler.Scheduler
	window *glfw.Window
	meshes *render.Meshes
	cam    *render.Camera

	orbitSpeed float64
	angle      float64
	center     world.ChunkCoord
}

func (v *view) run(fps int) {
	var limiter render.FPSLimiter
	last := time.Now()
	lastStats := time.Now()
	frames := 0
	for !v.window.ShouldClose() {
		now := time.Now()
		dt := now.Sub(last)
		last = now

		v.moveCamera(dt)
		v.stream()
		v.upload()
		v.s.OnFrame(dt)

		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		drawn := v.meshes.Draw(v.cam)
		v.window.SwapBuffers()
		glfw.PollEvents()
		if v.window.GetKey(glfw.KeyEscape) == glfw.Press {
			v.window.SetShouldClose(true)
		}

		frames++
		if now.Sub(lastStats) >= time.Second {
			st := v.s.Stats()
			target := "sky"
			if res, err := v.s.Raycast(v.cam.Position, v.cam.Front(), 512); err == nil && res.Ok {
				target = fmt.Sprintf("%v at %v", res.Material, res.Hit)
			}
			v.window.SetTitle(fmt.Sprintf("voxview  %d fps  %d/%d tiles drawn  %d chunks  %d queued  looking at %s",
				frames, drawn, v.meshes.Len(), st.Chunks, st.Queued, target))
			v.log.Debug("voxview: frame profile", "top", profiling.TopN(5))
			frames = 0
			lastStats = now
		}
		profiling.ResetFrame()
		limiter.Wait(fps)
	}
}

// moveCamera orbits around a point that drifts east, so new tiles keep
// streaming in.
func (v *view) moveCamera(dt time.Duration) {
	v.angle += v.orbitSpeed * dt.Seconds()
	size := float32(v.s.ChunkSize())
	focus := mgl32.Vec3{float32(v.angle) * size * 4, 0, 0}
	ground := float32(v.s.Context().MinHeight + v.s.Context().TerrainHeight/2)
	focus[1] = ground
	v.cam.Orbit(focus, size*3, size*2, v.angle)
	v.center = world.TileOf(world.Pos{X: int(focus.X()), Y: int(ground), Z: int(focus.Z())}, v.s.ChunkSize())
}

// stream schedules every tile column within the load radius. Tiles already
// scheduled are rejected cheaply by the dedup set.
func (v *view) stream() {
	defer profiling.Track("voxview.stream")()
	size := v.s.ChunkSize()
	r := config.GetChunkLoadRadius()
	layers := (v.s.Context().MaxHeight + size - 1) / size
	for y := range layers {
		for x := v.center.X - r; x <= v.center.X+r; x++ {
			for z := v.center.Z - r; z <= v.center.Z+r; z++ {
				v.s.ScheduleMeshExtraction(world.Pos{X: x * size, Y: y * size, Z: z * size})
			}
		}
	}
}

// upload moves a bounded number of finished meshes to the GPU each frame and
// releases tiles that fell out of range.
func (v *view) upload() {
	defer profiling.Track("voxview.upload")()
	for range 16 {
		it, ok := v.s.Pop()
		if !ok {
			break
		}
		v.meshes.Upload(it.Tile, it.Mesh)
	}
	r := config.GetChunkEvictRadius()
	size := v.s.ChunkSize()
	for _, ts := range v.s.Tiles() {
		if ts.State != scheduler.TileConsumed {
			continue
		}
		if abs(ts.Tile.X-v.center.X) > r || abs(ts.Tile.Z-v.center.Z) > r {
			v.s.AllowReExtraction(world.Pos{X: ts.Tile.X * size, Y: ts.Tile.Y * size, Z: ts.Tile.Z * size})
		}
	}
	v.meshes.RemoveFar(v.center, r)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "voxview:", err)
	os.Exit(1)
}
