package instancing

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/jarsim/internal/physics"
	"github.com/san-kum/jarsim/internal/shapes"
)

// Uploader receives a batch's full instance buffer.
type Uploader interface {
	Upload(key shapes.Key, buffer []float32, capacity int)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(key shapes.Key, buffer []float32, capacity int)

func (f UploaderFunc) Upload(key shapes.Key, buffer []float32, capacity int) { f(key, buffer, capacity) }

// Locator maps a particle id to its batch and slot.
type Locator func(id uint64) (shapes.Key, int, bool)

// Capacity is the per-batch slot count: ceil(maxObjects/numBatches)
// scaled by headroom and rounded up.
func Capacity(maxObjects, numBatches int, headroom float64) int {
	if maxObjects <= 0 || numBatches <= 0 {
		return 0
	}
	if headroom < 1 {
		headroom = 1
	}
	base := (maxObjects + numBatches - 1) / numBatches
	return int(math.Ceil(float64(base) * headroom))
}

type Renderer struct {
	batches  map[shapes.Key]*Batch
	order    []shapes.Key
	capacity int
	scale    float32
	uploads  int
}

// New allocates one batch per key. Batches are never resized.
func New(keys []shapes.Key, maxObjects int, headroom float64) (*Renderer, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("instancing: no batch keys")
	}
	capacity := Capacity(maxObjects, len(keys), headroom)
	if capacity == 0 {
		return nil, fmt.Errorf("instancing: max objects must be positive, got %d", maxObjects)
	}
	r := &Renderer{
		batches:  make(map[shapes.Key]*Batch, len(keys)),
		order:    append([]shapes.Key(nil), keys...),
		capacity: capacity,
		scale:    1,
	}
	for _, k := range keys {
		if _, dup := r.batches[k]; dup {
			return nil, fmt.Errorf("instancing: duplicate batch key %v", k)
		}
		r.batches[k] = newBatch(k, capacity)
	}
	return r, nil
}

func (r *Renderer) Capacity() int { return r.capacity }

func (r *Renderer) Batch(key shapes.Key) (*Batch, bool) {
	b, ok := r.batches[key]
	return b, ok
}

// Batches returns the batches in key order.
func (r *Renderer) Batches() []*Batch {
	out := make([]*Batch, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.batches[k])
	}
	return out
}

// Fits reports whether key names a batch with a free slot.
func (r *Renderer) Fits(key shapes.Key) bool {
	b, ok := r.batches[key]
	return ok && !b.Full()
}

func (r *Renderer) Acquire(key shapes.Key, id uint64) (int, bool) {
	b, ok := r.batches[key]
	if !ok {
		return 0, false
	}
	return b.acquire(id)
}

// Release frees slot and parks it. It returns false for a slot that was
// not in use.
func (r *Renderer) Release(key shapes.Key, slot int) bool {
	b, ok := r.batches[key]
	if !ok {
		return false
	}
	return b.release(slot)
}

func (r *Renderer) Write(key shapes.Key, slot int, pos mgl64.Vec3, rot mgl64.Quat) {
	b, ok := r.batches[key]
	if !ok || slot < 0 || slot >= b.Capacity() || !b.used[slot] {
		return
	}
	b.write(slot, pos, rot, r.scale)
}

// Apply writes every report into its slot in a single pass and returns the
// number of transforms written. Reports without a slot are skipped.
func (r *Renderer) Apply(reports []physics.Report, locate Locator) int {
	n := 0
	for i := range reports {
		rep := &reports[i]
		key, slot, ok := locate(rep.ID)
		if !ok {
			continue
		}
		b, ok := r.batches[key]
		if !ok {
			continue
		}
		if id, used := b.Slot(slot); !used || id != rep.ID {
			continue
		}
		b.write(slot, rep.Position, rep.Orientation, r.scale)
		n++
	}
	return n
}

// Flush uploads every dirty batch once and clears its flag. It returns the
// number of uploads.
func (r *Renderer) Flush(u Uploader) int {
	n := 0
	for _, k := range r.order {
		b := r.batches[k]
		if !b.dirty {
			continue
		}
		if u != nil {
			u.Upload(k, b.buffer, b.Capacity())
		}
		b.dirty = false
		n++
	}
	r.uploads += n
	return n
}

// Uploads is the total number of batch uploads so far.
func (r *Renderer) Uploads() int { return r.uploads }

// Reset frees and parks every slot.
func (r *Renderer) Reset() {
	for _, b := range r.batches {
		b.reset()
	}
}

// Live is the number of occupied slots over all batches.
func (r *Renderer) Live() int {
	n := 0
	for _, b := range r.batches {
		n += b.live
	}
	return n
}

// Positions calls fn for every occupied slot with its translation.
func (r *Renderer) Positions(fn func(key shapes.Key, id uint64, pos mgl32.Vec3)) {
	for _, k := range r.order {
		b := r.batches[k]
		for slot, used := range b.used {
			if !used {
				continue
			}
			off := slot * FloatsPerInstance
			fn(k, b.ids[slot], mgl32.Vec3{b.buffer[off+12], b.buffer[off+13], b.buffer[off+14]})
		}
	}
}
