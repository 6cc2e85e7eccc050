package world

import (
	"container/heap"
	"errors"
)

var (
	// ErrNoFloor is returned by FindFloor when a column has no standable voxel.
	ErrNoFloor = errors.New("world: no floor in column")
	// ErrNoPath is returned by FindPath when the goal is unreachable within
	// the search budget.
	ErrNoPath = errors.New("world: no path")
)

// DefaultPathBudget bounds the number of nodes FindPath expands.
const DefaultPathBudget = 20000

// FindFloor scans the column (x, z) downwards from maxHeight and returns the
// first y an entity can stand at, one above the topmost floor voxel.
func (v *Volume) FindFloor(x, z, maxHeight int) (int, error) {
	for y := maxHeight; y >= 0; y-- {
		if v.Material(Pos{X: x, Y: y, Z: z}).Floor() {
			return y + 1, nil
		}
	}
	return 0, ErrNoFloor
}

// walkable reports whether an entity can stand at p.
func (v *Volume) walkable(p Pos) bool {
	if v.Material(p).Solid() {
		return false
	}
	return v.Material(Pos{X: p.X, Y: p.Y - 1, Z: p.Z}).Solid()
}

var pathSteps = [...]Pos{
	{X: 1}, {X: -1}, {Z: 1}, {Z: -1},
}

// FindPath searches a walking route from start to end. Each step moves one
// voxel along X or Z and may climb or drop a single voxel. The returned path
// includes both endpoints. budget limits the number of expanded nodes; a
// non-positive budget uses DefaultPathBudget.
func (v *Volume) FindPath(start, end Pos, budget int) ([]Pos, error) {
	if budget <= 0 {
		budget = DefaultPathBudget
	}
	if !v.walkable(start) || !v.walkable(end) {
		return nil, ErrNoPath
	}
	if start == end {
		return []Pos{start}, nil
	}

	open := &pathQueue{}
	heap.Push(open, &pathNode{pos: start, cost: 0, est: manhattan(start, end)})
	from := map[Pos]Pos{}
	cost := map[Pos]int{start: 0}
	closed := map[Pos]bool{}

	for expanded := 0; open.Len() > 0 && expanded < budget; expanded++ {
		cur := heap.Pop(open).(*pathNode)
		if cur.pos == end {
			return buildPath(from, start, end), nil
		}
		if closed[cur.pos] {
			continue
		}
		closed[cur.pos] = true

		for _, step := range pathSteps {
			for dy := -1; dy <= 1; dy++ {
				next := Pos{X: cur.pos.X + step.X, Y: cur.pos.Y + dy, Z: cur.pos.Z + step.Z}
				if closed[next] || !v.walkable(next) {
					continue
				}
				// Climbing needs headroom above the current voxel.
				if dy > 0 && v.Material(Pos{X: cur.pos.X, Y: cur.pos.Y + 1, Z: cur.pos.Z}).Solid() {
					continue
				}
				c := cur.cost + 1
				if old, ok := cost[next]; ok && old <= c {
					continue
				}
				cost[next] = c
				from[next] = cur.pos
				heap.Push(open, &pathNode{pos: next, cost: c, est: c + manhattan(next, end)})
			}
		}
	}
	return nil, ErrNoPath
}

func buildPath(from map[Pos]Pos, start, end Pos) []Pos {
	path := []Pos{end}
	for p := end; p != start; {
		p = from[p]
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func manhattan(a, b Pos) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y) + abs(a.Z-b.Z)
}

type pathNode struct {
	pos  Pos
	cost int
	est  int
}

type pathQueue []*pathNode

func (q pathQueue) Len() int { return len(q) }
func (q pathQueue) Less(i, j int) bool {
	if q[i].est == q[j].est {
		return q[i].cost > q[j].cost
	}
	return q[i].est < q[j].est
}
func (q pathQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *pathQueue) Push(x any)   { *q = append(*q, x.(*pathNode)) }
func (q *pathQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}
