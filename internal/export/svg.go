// Package export writes jar snapshots and run series as SVG.
package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/jarsim/internal/jar"
	"github.com/san-kum/jarsim/internal/shapes"
	"github.com/san-kum/jarsim/internal/viz"
)

const background = "#0a0a0a"

type particle struct {
	key shapes.Key
	pos mgl64.Vec3
}

// JarToSVG draws a side view of the jar: the glass outline under its current
// tilt and every visible particle, far ones first.
func JarToSVG(j *jar.Jar, width, height int) string {
	c := j.Container()
	mesh := j.Mesh()
	reg := j.Registry()

	// view box in world units
	halfW := c.Radius * 1.6
	bottom := c.Floor() - 0.15*c.Height
	top := c.Top() + 0.25*c.Height
	scale := math.Min(float64(width)/(2*halfW), float64(height)/(top-bottom))
	toScreen := func(p mgl64.Vec3) (float64, float64) {
		return float64(width)/2 + p.X()*scale, float64(height) - (p.Y()-bottom)*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	var ps []particle
	j.Positions(func(key shapes.Key, _ uint64, p mgl32.Vec3) {
		ps = append(ps, particle{key, mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}})
	})
	sort.Slice(ps, func(a, b int) bool { return ps[a].pos.Z() < ps[b].pos.Z() })

	sb.WriteString("<g stroke=\"#000000\" stroke-opacity=\"0.3\">\n")
	for _, p := range ps {
		x, y := toScreen(p.pos)
		ext := reg.Geometry(p.key.Kind).Extent * scale
		fill := reg.Material(p.key.Color).Color
		if fill == "" {
			fill = "#ffffff"
		}
		if p.key.Kind.Boxed() {
			fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, x-ext, y-ext, 2*ext, 2*ext, fill)
		} else {
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, x, y, ext, fill)
		}
	}
	sb.WriteString("</g>\n")

	// glass outline: left rim down to the floor and back up to the right rim
	outline := []mgl64.Vec3{
		{-c.Radius, c.Top(), 0},
		{-c.Radius, c.Floor(), 0},
		{c.Radius, c.Floor(), 0},
		{c.Radius, c.Top(), 0},
	}
	sb.WriteString(`<path fill="none" stroke="#9ad0ff" stroke-opacity="0.8" stroke-width="3" d="`)
	for i, p := range outline {
		x, y := toScreen(mesh.Rotation.Rotate(p))
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n</svg>\n")
	return sb.String()
}

// CanvasToSVG redraws a braille canvas as one circle per set dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	dw, dh := canvas.Dots()
	width, height := float64(dw)*scale, float64(dh)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="#9ad0ff">
`, width, height, width, height, background)

	r := scale * 0.4
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// SeriesToSVG plots ys against xs as a single polyline.
func SeriesToSVG(xs, ys []float64, width, height int, stroke string) string {
	n := min(len(xs), len(ys))
	if n < 2 {
		return ""
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 0; i < n; i++ {
		minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
		minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, stroke)

	for i := 0; i < n; i++ {
		x := (xs[i] - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n</svg>\n")
	return sb.String()
}
