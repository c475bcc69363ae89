package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type cellKey [3]int32

// grid is a uniform spatial hash. Every body lives in the cell holding its
// center; with cells at least one bounding diameter wide, overlapping pairs
// sit in the same or adjacent cells.
type grid struct {
	size  float64
	cells map[cellKey][]int
	used  []cellKey
}

func newGrid(size float64) *grid {
	return &grid{size: size, cells: make(map[cellKey][]int)}
}

func (g *grid) key(p mgl64.Vec3) cellKey {
	return cellKey{
		int32(math.Floor(p[0] / g.size)),
		int32(math.Floor(p[1] / g.size)),
		int32(math.Floor(p[2] / g.size)),
	}
}

// reset empties every cell but keeps their storage.
func (g *grid) reset(size float64) {
	for _, k := range g.used {
		g.cells[k] = g.cells[k][:0]
	}
	g.used = g.used[:0]
	if size != g.size {
		g.size = size
		clear(g.cells)
	}
}

func (g *grid) insert(i int, p mgl64.Vec3) {
	k := g.key(p)
	list := g.cells[k]
	if len(list) == 0 {
		g.used = append(g.used, k)
	}
	g.cells[k] = append(list, i)
}

// pairs calls fn once for every candidate pair (i, j) with i < j.
func (g *grid) pairs(bodies []*Body, fn func(i, j int)) {
	for i, b := range bodies {
		k := g.key(b.Position)
		for dx := int32(-1); dx <= 1; dx++ {
			for dy := int32(-1); dy <= 1; dy++ {
				for dz := int32(-1); dz <= 1; dz++ {
					for _, j := range g.cells[cellKey{k[0] + dx, k[1] + dy, k[2] + dz}] {
						if j > i {
							fn(i, j)
						}
					}
				}
			}
		}
	}
}
