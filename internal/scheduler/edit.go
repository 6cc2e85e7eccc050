package scheduler

import (
	"context"
	"fmt"

	"voxstream/internal/terrain"
	"voxstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// peekSampler reads resident chunks only, so extracting a tile never pages
// in its neighbours. Faces towards unloaded chunks are emitted.
type peekSampler struct{ v *world.Volume }

func (p peekSampler) At(pos world.Pos) world.Material { return p.v.PeekMaterial(pos) }

// withLock runs fn holding the world mutex. It fails with
// world.ErrLockTimeout rather than running fn unlocked.
func (s *Scheduler) withLock(op string, fn func()) error {
	if s.destroyed.Load() {
		return ErrDestroyed
	}
	if err := s.lock.Lock(context.Background()); err != nil {
		s.metrics.lockTimeouts.Inc()
		s.warnf("scheduler: world lock timeout", "op", op, "timeout", s.conf.LockTimeout)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer s.lock.Unlock()
	fn()
	return nil
}

// Material returns the material at (x, y, z), paging its chunk in if needed.
func (s *Scheduler) Material(x, y, z int) (m world.Material, err error) {
	err = s.withLock("material", func() {
		m = s.volume.Material(world.Pos{X: x, Y: y, Z: z})
	})
	return m, err
}

// SetMaterial writes m at pos. The tile keeps its old mesh until the caller
// releases it with AllowReExtraction and schedules it again.
func (s *Scheduler) SetMaterial(pos world.Pos, m world.Material) error {
	return s.withLock("set material", func() {
		s.volume.SetMaterial(pos, m)
	})
}

// FindFloor returns the height an entity can stand at in column (x, z).
func (s *Scheduler) FindFloor(x, z int) (y int, err error) {
	maxHeight := s.Context().MaxHeight
	lerr := s.withLock("find floor", func() {
		y, err = s.volume.FindFloor(x, z, maxHeight)
	})
	if lerr != nil {
		return 0, lerr
	}
	return y, err
}

// randomPosAttempts bounds the columns RandomPos tries before giving up.
const randomPosAttempts = 8

// RandomPos picks a random column inside area and returns the position an
// entity can stand at on top of it. Columns without floor are skipped.
func (s *Scheduler) RandomPos(rnd *terrain.Random, area world.Region) (pos world.Pos, err error) {
	maxHeight := min(s.Context().MaxHeight, area.Max.Y)
	lerr := s.withLock("random pos", func() {
		err = world.ErrNoFloor
		for range randomPosAttempts {
			x := rnd.IntRange(area.Min.X, area.Max.X)
			z := rnd.IntRange(area.Min.Z, area.Max.Z)
			y, ferr := s.volume.FindFloor(x, z, maxHeight)
			if ferr != nil {
				continue
			}
			pos, err = world.Pos{X: x, Y: y, Z: z}, nil
			return
		}
	})
	if lerr != nil {
		return world.Pos{}, lerr
	}
	if err != nil {
		return world.Pos{}, fmt.Errorf("random pos in %v: %w", area, err)
	}
	return pos, nil
}

// FindPath returns a walking route between two standable positions.
func (s *Scheduler) FindPath(start, end world.Pos) (path []world.Pos, err error) {
	lerr := s.withLock("find path", func() {
		path, err = s.volume.FindPath(start, end, world.DefaultPathBudget)
	})
	if lerr != nil {
		return nil, lerr
	}
	return path, err
}

// Raycast returns the first solid voxel along the ray within maxDist.
func (s *Scheduler) Raycast(start, dir mgl32.Vec3, maxDist float32) (res world.RaycastResult, err error) {
	err = s.withLock("raycast", func() {
		res = s.volume.Raycast(start, dir, 0, maxDist)
	})
	return res, err
}

// PlaceTree grows a tree on the ground at the tree's column and returns the
// tiles it touched. Those tiles need AllowReExtraction before their meshes
// reflect the tree.
func (s *Scheduler) PlaceTree(tree terrain.TreeContext) ([]world.ChunkCoord, error) {
	maxHeight := s.Context().MaxHeight
	var (
		dirty []world.ChunkCoord
		ferr  error
	)
	err := s.withLock("place tree", func() {
		ground, err := s.volume.FindFloor(tree.X, tree.Z, maxHeight)
		if err != nil {
			ferr = err
			return
		}
		ctx := terrain.NewTerrainContext(tree.Bounds(ground), s.volume, s.size)
		terrain.AddTree(ctx, tree, ground)
		dirty = ctx.DirtyTiles()
	})
	if err != nil {
		return nil, err
	}
	if ferr != nil {
		return nil, fmt.Errorf("place tree at %d,%d: %w", tree.X, tree.Z, ferr)
	}
	return dirty, nil
}

// PlaceShape rasterises a single primitive and returns the tiles it touched.
func (s *Scheduler) PlaceShape(spec terrain.ShapeSpec) ([]world.ChunkCoord, error) {
	var dirty []world.ChunkCoord
	err := s.withLock("place shape", func() {
		ctx := terrain.NewTerrainContext(spec.Bounds(), s.volume, s.size)
		spec.Apply(ctx)
		dirty = ctx.DirtyTiles()
	})
	return dirty, err
}
