package particle

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/san-kum/jarsim/internal/shapes"
)

func spawnAt(id uint64, y float64) Particle {
	return Particle{ID: id, Kind: shapes.Sphere, Color: int(id % 3), Spawn: mgl64.Vec3{0, y, 0}}
}

func TestStoreAddGet(t *testing.T) {
	s := NewStore()
	s.Add(spawnAt(1, 1.3), 4)
	s.Add(spawnAt(2, 1.3), 0)

	if s.Len() != 2 {
		t.Fatalf("expected 2 particles, got %d", s.Len())
	}

	p, slot, ok := s.Get(1)
	if !ok || p.ID != 1 || slot != 4 {
		t.Errorf("Get(1) = %+v, %d, %v", p, slot, ok)
	}

	if _, _, ok := s.Get(99); ok {
		t.Error("unknown id should not be found")
	}

	s.Add(spawnAt(1, 0), 7)
	if s.Len() != 2 {
		t.Error("duplicate add should be ignored")
	}
}

func TestStoreBelowUsesSpawnHeightUntilReported(t *testing.T) {
	s := NewStore()
	s.Add(spawnAt(1, -0.5), 0)
	s.Add(spawnAt(2, 1.0), 1)

	got := s.Below(0)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("Below(0) = %v, want [1]", got)
	}

	s.Track(2, -0.2)
	s.Track(1, 0.4)
	got = s.Below(0)
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("after tracking Below(0) = %v, want [2]", got)
	}
}

func TestStoreRemoveBatch(t *testing.T) {
	s := NewStore()
	for i := uint64(1); i <= 5; i++ {
		s.Add(spawnAt(i, 1), int(i))
	}

	removed := s.RemoveBatch([]uint64{2, 4, 42})
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed, got %d", len(removed))
	}
	if removed[0].Particle.ID != 2 || removed[0].Slot != 2 {
		t.Errorf("unexpected removal %+v", removed[0])
	}

	ids := s.IDs()
	want := []uint64{1, 3, 5}
	if len(ids) != len(want) {
		t.Fatalf("IDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("IDs() = %v, want %v", ids, want)
		}
	}

	count := 0
	s.Each(func(p Particle, slot int, tr Tracking) {
		count++
		if p.ID == 2 || p.ID == 4 {
			t.Errorf("removed particle %d still visited", p.ID)
		}
	})
	if count != 3 {
		t.Errorf("Each visited %d, want 3", count)
	}
}

func TestStoreRemoveFreesEntities(t *testing.T) {
	s := NewStore()
	var gone []uint64
	for i := uint64(1); i <= 1000; i++ {
		s.Add(spawnAt(i, 1), 0)
		e := s.byID[i]
		s.RemoveBatch([]uint64{i})
		if s.world.Alive(e) {
			gone = append(gone, i)
		}
	}
	if len(gone) != 0 {
		t.Errorf("expected removed entities to be dead, %d still alive", len(gone))
	}

	for i := uint64(2000); i < 2010; i++ {
		s.Add(spawnAt(i, 1), 0)
	}
	entities := make([]ecs.Entity, 0, len(s.byID))
	for _, e := range s.byID {
		entities = append(entities, e)
	}
	s.Clear()
	for _, e := range entities {
		if s.world.Alive(e) {
			t.Errorf("expected cleared entity %v to be dead", e)
		}
	}
}

func TestStoreRespawnAndClear(t *testing.T) {
	s := NewStore()
	s.Add(spawnAt(1, -3), 0)
	s.Respawn(1, mgl64.Vec3{0.1, 1.3, 0})

	if len(s.Below(0)) != 0 {
		t.Error("respawned particle should be above threshold")
	}
	p, _, _ := s.Get(1)
	if p.Spawn.Y() != 1.3 {
		t.Errorf("spawn not updated: %v", p.Spawn)
	}

	s.Add(spawnAt(2, 1), 1)
	if n := len(s.Clear()); n != 2 {
		t.Errorf("Clear removed %d, want 2", n)
	}
	if s.Len() != 0 || s.Contains(1) {
		t.Error("store should be empty after Clear")
	}
}
