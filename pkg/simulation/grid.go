package simulation

import (
	"math"

	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/geometry"
)

// spatialGrid buckets snapshot entries into cells at least as wide as the
// interaction radius, so every neighbour within that radius lies in the
// 3x3 block of cells around an agent. Cells wrap around the torus.
type spatialGrid struct {
	cols, rows   int
	cellW, cellH float64
	radius       float64
	limit        int
	torus        geometry.Torus

	// cells[c] holds indices into the snapshot, in snapshot order
	cells [][]int

	colBuf, rowBuf []int
}

// cellsPerAgent bounds the grid size by the population rather than the
// domain area.
const cellsPerAgent = 4

// reset sizes the grid for the given radius and a population of n agents.
// Past cellsPerAgent*n cells the grid is coarsened, which widens the
// cells and keeps the 3x3 block covering the radius.
func (g *spatialGrid) reset(torus geometry.Torus, radius float64, n int) {
	limit := max(9, cellsPerAgent*n)
	if g.cells != nil && g.torus == torus && g.radius == radius && g.limit == limit {
		return
	}
	g.torus, g.radius, g.limit = torus, radius, limit
	g.cols, g.rows = 1, 1
	if radius > 0 {
		g.cols = int(math.Max(1, math.Min(math.Floor(torus.Width/radius), float64(limit))))
		g.rows = int(math.Max(1, math.Min(math.Floor(torus.Height/radius), float64(limit))))
	}
	for g.cols*g.rows > limit {
		if g.cols >= g.rows {
			g.cols = max(1, g.cols/2)
		} else {
			g.rows = max(1, g.rows/2)
		}
	}
	g.cellW = torus.Width / float64(g.cols)
	g.cellH = torus.Height / float64(g.rows)
	g.cells = make([][]int, g.cols*g.rows)
}

// rebuild refills the cells from the snapshot. Slices are truncated, not
// reallocated, so steady-state steps do not allocate.
func (g *spatialGrid) rebuild(snapshot []State) {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	for i, s := range snapshot {
		c := g.cellOf(s.Pos)
		g.cells[c] = append(g.cells[c], i)
	}
}

func (g *spatialGrid) cellOf(p geometry.Vector2D) int {
	cx := min(max(int(p.X/g.cellW), 0), g.cols-1)
	cy := min(max(int(p.Y/g.cellH), 0), g.rows-1)
	return cy*g.cols + cx
}

// appendNearby appends to dst every snapshot entry of the 3x3 block around p.
// The result is a superset of the entries within radius of p.
func (g *spatialGrid) appendNearby(dst []State, snapshot []State, p geometry.Vector2D) []State {
	cx := min(max(int(p.X/g.cellW), 0), g.cols-1)
	cy := min(max(int(p.Y/g.cellH), 0), g.rows-1)

	g.colBuf = adjacent(g.colBuf[:0], cx, g.cols)
	g.rowBuf = adjacent(g.rowBuf[:0], cy, g.rows)

	for _, y := range g.rowBuf {
		for _, x := range g.colBuf {
			for _, i := range g.cells[y*g.cols+x] {
				dst = append(dst, snapshot[i])
			}
		}
	}
	return dst
}

// adjacent lists the distinct wrapped indices i-1, i, i+1 on an axis of n cells.
func adjacent(dst []int, i, n int) []int {
	if n <= 3 {
		for k := 0; k < n; k++ {
			dst = append(dst, k)
		}
		return dst
	}
	return append(dst, (i-1+n)%n, i, (i+1)%n)
}
