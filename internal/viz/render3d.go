package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/jarsim/internal/container"
)

// Camera orbits a target point.
type Camera struct {
	Target   mgl64.Vec3
	Yaw      float64
	Pitch    float64
	Distance float64
	FOV      float64
}

func NewCamera(target mgl64.Vec3) *Camera {
	return &Camera{
		Target:   target,
		Yaw:      0,
		Pitch:    0.3,
		Distance: 2.6,
		FOV:      mgl64.DegToRad(45),
	}
}

func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw += dyaw
	c.Pitch = mgl64.Clamp(c.Pitch+dpitch, -1.4, 1.4)
}

func (c *Camera) ZoomIn()  { c.Distance = math.Max(0.5, c.Distance/1.15) }
func (c *Camera) ZoomOut() { c.Distance = math.Min(20, c.Distance*1.15) }

func (c *Camera) Eye() mgl64.Vec3 {
	cp := math.Cos(c.Pitch)
	off := mgl64.Vec3{
		c.Distance * cp * math.Sin(c.Yaw),
		c.Distance * math.Sin(c.Pitch),
		c.Distance * cp * math.Cos(c.Yaw),
	}
	return c.Target.Add(off)
}

// Project maps a world point to dot coordinates of a sw x sh surface. The
// depth is the window z in [0, 1]; ok is false outside the frustum or the
// surface.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	if sw <= 0 || sh <= 0 {
		return 0, 0, 0, false
	}
	view := mgl64.LookAtV(c.Eye(), c.Target, mgl64.Vec3{0, 1, 0})
	proj := mgl64.Perspective(c.FOV, float64(sw)/float64(sh), 0.01, 100)
	return project(p, view, proj, sw, sh)
}

func project(p mgl64.Vec3, view, proj mgl64.Mat4, sw, sh int) (int, int, float64, bool) {
	clip := proj.Mul4(view).Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, 0, false
	}
	win := mgl64.Project(p, view, proj, 0, 0, sw, sh)
	x := int(math.Round(win.X()))
	y := sh - 1 - int(math.Round(win.Y()))
	ok := win.Z() >= 0 && win.Z() <= 1 && x >= 0 && x < sw && y >= 0 && y < sh
	return x, y, win.Z(), ok
}

type Edge struct {
	Start, End mgl64.Vec3
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe               { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e mgl64.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) AddPoint(p mgl64.Vec3)   { w.Edges = append(w.Edges, Edge{p, p}) }
func (w *Wireframe) Clear()                  { w.Edges = w.Edges[:0] }

func (w *Wireframe) Transform(q mgl64.Quat, pivot mgl64.Vec3) {
	for i, e := range w.Edges {
		w.Edges[i] = Edge{
			Start: pivot.Add(q.Rotate(e.Start.Sub(pivot))),
			End:   pivot.Add(q.Rotate(e.End.Sub(pivot))),
		}
	}
}

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render3D draws the wireframe far to near. Edges with an endpoint off
// screen are still drawn; the canvas clips them.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	sw, sh := c.Dots()
	view := mgl64.LookAtV(cam.Eye(), cam.Target, mgl64.Vec3{0, 1, 0})
	proj := mgl64.Perspective(cam.FOV, float64(sw)/float64(sh), 0.01, 100)

	out := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := project(e.Start, view, proj, sw, sh)
		x2, y2, d2, v2 := project(e.End, view, proj, sw, sh)
		if v1 || v2 {
			out = append(out, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].depth > out[j].depth })
	for _, e := range out {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.Set(e.x1, e.y1)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}

// JarWireframe outlines the glass: rim and floor rings joined by struts.
func JarWireframe(p container.Params, segments, struts int) *Wireframe {
	w := NewWireframe()
	segments = max(segments, 8)
	floor, top := p.Floor(), p.Top()
	ring := func(y float64, i int) mgl64.Vec3 {
		a := 2 * math.Pi * float64(i) / float64(segments)
		return mgl64.Vec3{p.Radius * math.Cos(a), y, p.Radius * math.Sin(a)}
	}
	for i := 0; i < segments; i++ {
		w.AddEdge(ring(floor, i), ring(floor, i+1))
		w.AddEdge(ring(top, i), ring(top, i+1))
	}
	if struts > 0 {
		step := max(segments/struts, 1)
		for i := 0; i < segments; i += step {
			w.AddEdge(ring(floor, i), ring(top, i))
		}
	}
	return w
}
