// Package particle keeps the authoritative set of live particles.
//
// Live particles are entities in an ark ECS world carrying three components:
// the immutable [Particle] identity, the batch [Slot] it draws into, and the
// latest reported height used for despawn checks.
package particle

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/san-kum/jarsim/internal/shapes"
)

type Particle struct {
	ID    uint64
	Kind  shapes.Kind
	Color int
	Spawn mgl64.Vec3
}

// Key returns the instance batch the particle draws into.
func (p Particle) Key() shapes.Key { return shapes.Key{Kind: p.Kind, Color: p.Color} }

// Slot is the particle's index inside its batch.
type Slot struct {
	Index int
}

// Tracking is the latest height reported by the physics world.
type Tracking struct {
	Y        float64
	Reported bool
}

// Removed describes a particle taken out of the store.
type Removed struct {
	Particle Particle
	Slot     int
}

type Store struct {
	world    *ecs.World
	mapper   *ecs.Map3[Particle, Slot, Tracking]
	filter   *ecs.Filter3[Particle, Slot, Tracking]
	partMap  *ecs.Map1[Particle]
	trackMap *ecs.Map1[Tracking]
	byID     map[uint64]ecs.Entity
}

func NewStore() *Store {
	world := ecs.NewWorld()
	return &Store{
		world:    world,
		mapper:   ecs.NewMap3[Particle, Slot, Tracking](world),
		filter:   ecs.NewFilter3[Particle, Slot, Tracking](world),
		partMap:  ecs.NewMap1[Particle](world),
		trackMap: ecs.NewMap1[Tracking](world),
		byID:     make(map[uint64]ecs.Entity),
	}
}

// Add inserts a freshly spawned particle. Its height is tracked from the
// spawn point so it is eligible for despawn before the first physics report.
func (s *Store) Add(p Particle, slot int) {
	if _, ok := s.byID[p.ID]; ok {
		return
	}
	tr := Tracking{Y: p.Spawn.Y(), Reported: true}
	sl := Slot{Index: slot}
	s.byID[p.ID] = s.mapper.NewEntity(&p, &sl, &tr)
}

func (s *Store) Len() int { return len(s.byID) }

func (s *Store) Contains(id uint64) bool {
	_, ok := s.byID[id]
	return ok
}

func (s *Store) Get(id uint64) (Particle, int, bool) {
	e, ok := s.byID[id]
	if !ok {
		return Particle{}, 0, false
	}
	p, sl, _ := s.mapper.Get(e)
	return *p, sl.Index, true
}

// Track records the latest reported height. Unknown ids are ignored.
func (s *Store) Track(id uint64, y float64) {
	e, ok := s.byID[id]
	if !ok {
		return
	}
	tr := s.trackMap.Get(e)
	tr.Y = y
	tr.Reported = true
}

// Respawn moves a recycled particle's spawn point and tracked height.
func (s *Store) Respawn(id uint64, spawn mgl64.Vec3) {
	e, ok := s.byID[id]
	if !ok {
		return
	}
	s.partMap.Get(e).Spawn = spawn
	tr := s.trackMap.Get(e)
	tr.Y = spawn.Y()
	tr.Reported = true
}

// Each visits every live particle. fn must not add or remove particles.
func (s *Store) Each(fn func(p Particle, slot int, tr Tracking)) {
	query := s.filter.Query()
	for query.Next() {
		p, sl, tr := query.Get()
		fn(*p, sl.Index, *tr)
	}
}

// Below returns the ids whose tracked height is under threshold, sorted.
// Particles without a report are never returned.
func (s *Store) Below(threshold float64) []uint64 {
	var ids []uint64
	query := s.filter.Query()
	for query.Next() {
		p, _, tr := query.Get()
		if tr.Reported && tr.Y < threshold {
			ids = append(ids, p.ID)
		}
	}
	slices.Sort(ids)
	return ids
}

// RemoveBatch removes every listed particle in one pass and returns what was
// removed. Unknown ids are skipped.
func (s *Store) RemoveBatch(ids []uint64) []Removed {
	removed := make([]Removed, 0, len(ids))
	for _, id := range ids {
		e, ok := s.byID[id]
		if !ok {
			continue
		}
		p, sl, _ := s.mapper.Get(e)
		removed = append(removed, Removed{Particle: *p, Slot: sl.Index})
		s.world.RemoveEntity(e)
		delete(s.byID, id)
	}
	return removed
}

// Clear removes every particle.
func (s *Store) Clear() []Removed {
	return s.RemoveBatch(s.IDs())
}

// IDs returns the live ids in ascending order.
func (s *Store) IDs() []uint64 {
	ids := make([]uint64, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
