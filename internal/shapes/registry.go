// Package shapes holds the fixed palette and shape kinds streamed into the jar.
package shapes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type Kind uint8

const (
	Sphere Kind = iota
	Cube
	Torus
	TorusKnot
)

var kindNames = [...]string{"sphere", "cube", "torus", "torus_knot"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind accepts the yaml names ("torus_knot" or "torusKnot").
func ParseKind(name string) (Kind, bool) {
	n := strings.ToLower(strings.ReplaceAll(name, "_", ""))
	for i, kn := range kindNames {
		if n == strings.ReplaceAll(kn, "_", "") {
			return Kind(i), true
		}
	}
	return 0, false
}

// Boxed reports whether the kind collides as a box rather than a sphere.
func (k Kind) Boxed() bool { return k == Cube }

// Key identifies one instance batch.
type Key struct {
	Kind  Kind
	Color int
}

func (k Key) String() string { return fmt.Sprintf("%s/%d", k.Kind, k.Color) }

// Geometry is the shared, size-parameterized mesh description of a kind.
// Extent is the half-size used for collision: sphere radius or cube half edge.
type Geometry struct {
	Kind     Kind
	Extent   float64
	Tube     float64
	Segments int
}

// Material is shared by every instance of one palette color.
type Material struct {
	Color     string
	RGBA      mgl32.Vec4
	Roughness float32
	Metalness float32
}

// DefaultPalette is the site palette.
var DefaultPalette = []string{"#ff6b6b", "#ffd93d", "#6bcb77", "#4d96ff", "#c77dff"}

// DefaultKinds are the kinds enabled by default.
var DefaultKinds = []Kind{Sphere, Cube, TorusKnot}

// Registry binds the enabled kinds and palette. Indices into the palette are
// stable, so recoloring never re-tags live particles.
type Registry struct {
	kinds     []Kind
	palette   []string
	geometry  map[Kind]Geometry
	materials []Material
	keys      []Key
}

// NewRegistry builds geometry for every enabled kind at the given particle size
// and one material per palette entry.
func NewRegistry(kinds []Kind, palette []string, size float64) (*Registry, error) {
	if len(kinds) == 0 {
		return nil, fmt.Errorf("shapes: no kinds enabled")
	}
	if len(palette) == 0 {
		return nil, fmt.Errorf("shapes: empty palette")
	}
	r := &Registry{
		kinds:    append([]Kind(nil), kinds...),
		geometry: make(map[Kind]Geometry, len(kinds)),
	}
	for _, k := range kinds {
		r.geometry[k] = geometryFor(k, size)
	}
	if err := r.SetPalette(palette); err != nil {
		return nil, err
	}
	return r, nil
}

func geometryFor(k Kind, size float64) Geometry {
	switch k {
	case Cube:
		// same volume class as the sphere, a little smaller so piles look even
		return Geometry{Kind: k, Extent: size * 0.85, Segments: 1}
	case Torus:
		return Geometry{Kind: k, Extent: size, Tube: size * 0.35, Segments: 24}
	case TorusKnot:
		return Geometry{Kind: k, Extent: size, Tube: size * 0.25, Segments: 64}
	default:
		return Geometry{Kind: k, Extent: size, Segments: 16}
	}
}

// SetPalette replaces colors in place. The palette length may not change while
// particles reference it.
func (r *Registry) SetPalette(palette []string) error {
	if r.palette != nil && len(palette) != len(r.palette) {
		return fmt.Errorf("shapes: palette size changed from %d to %d", len(r.palette), len(palette))
	}
	mats := make([]Material, len(palette))
	for i, c := range palette {
		rgba, err := ParseHex(c)
		if err != nil {
			return err
		}
		mats[i] = Material{Color: c, RGBA: rgba, Roughness: 0.35, Metalness: 0.1}
	}
	r.palette = append([]string(nil), palette...)
	r.materials = mats
	r.keys = r.keys[:0]
	for _, k := range r.kinds {
		for c := range r.palette {
			r.keys = append(r.keys, Key{Kind: k, Color: c})
		}
	}
	return nil
}

func (r *Registry) Kinds() []Kind            { return r.kinds }
func (r *Registry) Colors() int              { return len(r.palette) }
func (r *Registry) Keys() []Key              { return r.keys }
func (r *Registry) Geometry(k Kind) Geometry { return r.geometry[k] }
func (r *Registry) Material(color int) Material {
	if color < 0 || color >= len(r.materials) {
		return Material{RGBA: mgl32.Vec4{1, 1, 1, 1}}
	}
	return r.materials[color]
}

// ParseHex decodes "#rrggbb" or "#rrggbbaa".
func ParseHex(s string) (mgl32.Vec4, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return mgl32.Vec4{}, fmt.Errorf("shapes: bad color %q", s)
	}
	if len(h) == 6 {
		h += "ff"
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return mgl32.Vec4{}, fmt.Errorf("shapes: bad color %q: %w", s, err)
	}
	return mgl32.Vec4{
		float32(v>>24&0xff) / 255,
		float32(v>>16&0xff) / 255,
		float32(v>>8&0xff) / 255,
		float32(v&0xff) / 255,
	}, nil
}
