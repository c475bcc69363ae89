// Package instancing keeps one fixed-size instance buffer per (kind, color)
// pair and uploads each dirty buffer once per frame.
package instancing

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/jarsim/internal/shapes"
)

// FloatsPerInstance is one column-major 4x4 transform.
const FloatsPerInstance = 16

// ParkedPosition is where free slots live, far below the scene.
var ParkedPosition = mgl32.Vec3{0, -1e4, 0}

var parked = mgl32.Translate3D(ParkedPosition.X(), ParkedPosition.Y(), ParkedPosition.Z()).
	Mul4(mgl32.Scale3D(0, 0, 0))

// Batch is one instanced draw: a dense slot table, a free list and the
// instance buffer.
type Batch struct {
	Key shapes.Key

	ids    []uint64
	used   []bool
	free   []int
	buffer []float32
	live   int
	dirty  bool
}

func newBatch(key shapes.Key, capacity int) *Batch {
	b := &Batch{
		Key:    key,
		ids:    make([]uint64, capacity),
		used:   make([]bool, capacity),
		free:   make([]int, 0, capacity),
		buffer: make([]float32, capacity*FloatsPerInstance),
	}
	b.reset()
	return b
}

// reset frees every slot and parks it.
func (b *Batch) reset() {
	b.free = b.free[:0]
	for slot := len(b.ids) - 1; slot >= 0; slot-- {
		b.ids[slot] = 0
		b.used[slot] = false
		b.park(slot)
		b.free = append(b.free, slot)
	}
	b.live = 0
	b.dirty = true
}

func (b *Batch) park(slot int) {
	copy(b.buffer[slot*FloatsPerInstance:], parked[:])
}

func (b *Batch) Capacity() int { return len(b.ids) }

func (b *Batch) Live() int { return b.live }

func (b *Batch) Full() bool { return len(b.free) == 0 }

func (b *Batch) Dirty() bool { return b.dirty }

// Buffer exposes the instance data. Callers must not keep it across frames.
func (b *Batch) Buffer() []float32 { return b.buffer }

// Slot returns the particle occupying slot.
func (b *Batch) Slot(slot int) (uint64, bool) {
	if slot < 0 || slot >= len(b.ids) || !b.used[slot] {
		return 0, false
	}
	return b.ids[slot], true
}

// Transform returns the instance matrix of slot.
func (b *Batch) Transform(slot int) mgl32.Mat4 {
	var m mgl32.Mat4
	copy(m[:], b.buffer[slot*FloatsPerInstance:(slot+1)*FloatsPerInstance])
	return m
}

func (b *Batch) acquire(id uint64) (int, bool) {
	n := len(b.free)
	if n == 0 {
		return 0, false
	}
	slot := b.free[n-1]
	b.free = b.free[:n-1]
	b.ids[slot] = id
	b.used[slot] = true
	b.live++
	return slot, true
}

func (b *Batch) release(slot int) bool {
	if slot < 0 || slot >= len(b.ids) || !b.used[slot] {
		return false
	}
	b.ids[slot] = 0
	b.used[slot] = false
	b.park(slot)
	b.free = append(b.free, slot)
	b.live--
	b.dirty = true
	return true
}

func (b *Batch) write(slot int, pos mgl64.Vec3, rot mgl64.Quat, scale float32) {
	q := mgl32.Quat{W: float32(rot.W), V: mgl32.Vec3{float32(rot.V[0]), float32(rot.V[1]), float32(rot.V[2])}}
	m := mgl32.Translate3D(float32(pos[0]), float32(pos[1]), float32(pos[2])).
		Mul4(q.Mat4()).
		Mul4(mgl32.Scale3D(scale, scale, scale))
	copy(b.buffer[slot*FloatsPerInstance:], m[:])
	b.dirty = true
}
