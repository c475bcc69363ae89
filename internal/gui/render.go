package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/san-kum/jarsim/internal/instancing"
	"github.com/san-kum/jarsim/internal/shapes"
)

// Instances holds the last uploaded transforms of every batch.
type Instances struct {
	order      []shapes.Key
	transforms map[shapes.Key][]rl.Matrix
}

var _ instancing.Uploader = (*Instances)(nil)

func NewInstances() *Instances {
	return &Instances{transforms: make(map[shapes.Key][]rl.Matrix)}
}

// Upload copies the visible instances of a batch buffer into matrices.
// Parked slots carry zero scale and are left out.
func (in *Instances) Upload(key shapes.Key, buffer []float32, capacity int) {
	ms, ok := in.transforms[key]
	if !ok {
		in.order = append(in.order, key)
	}
	ms = ms[:0]
	for i := 0; i < capacity; i++ {
		off := i * instancing.FloatsPerInstance
		if off+instancing.FloatsPerInstance > len(buffer) {
			break
		}
		m := buffer[off : off+instancing.FloatsPerInstance]
		if m[0] == 0 && m[1] == 0 && m[2] == 0 {
			continue
		}
		ms = append(ms, toMatrix(m))
	}
	in.transforms[key] = ms
}

// toMatrix reads a column-major 4x4 matrix.
func toMatrix(m []float32) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M1: m[1], M2: m[2], M3: m[3],
		M4: m[4], M5: m[5], M6: m[6], M7: m[7],
		M8: m[8], M9: m[9], M10: m[10], M11: m[11],
		M12: m[12], M13: m[13], M14: m[14], M15: m[15],
	}
}

func toColor(c mgl32.Vec4) rl.Color {
	return rl.NewColor(uint8(c[0]*255), uint8(c[1]*255), uint8(c[2]*255), uint8(c[3]*255))
}

const instancingVS = `#version 330
in vec3 vertexPosition;
in vec3 vertexNormal;
in mat4 instanceTransform;
uniform mat4 mvp;
out vec3 fragNormal;
void main() {
    fragNormal = normalize(mat3(instanceTransform) * vertexNormal);
    gl_Position = mvp * instanceTransform * vec4(vertexPosition, 1.0);
}
`

const instancingFS = `#version 330
in vec3 fragNormal;
uniform vec4 colDiffuse;
out vec4 finalColor;
void main() {
    float light = 0.45 + 0.55 * max(dot(normalize(fragNormal), normalize(vec3(0.4, 1.0, 0.3))), 0.0);
    finalColor = vec4(colDiffuse.rgb * light, colDiffuse.a);
}
`

// loadInstancing compiles the shader that reads one model matrix per
// instance.
func loadInstancing() rl.Shader {
	sh := rl.LoadShaderFromMemory(instancingVS, instancingFS)
	sh.UpdateLocation(rl.ShaderLocMatrixMvp, rl.GetShaderLocation(sh, "mvp"))
	sh.UpdateLocation(rl.ShaderLocMatrixModel, rl.GetShaderLocationAttrib(sh, "instanceTransform"))
	return sh
}

func genMesh(g shapes.Geometry) rl.Mesh {
	r := float32(g.Extent)
	switch g.Kind {
	case shapes.Cube:
		return rl.GenMeshCube(2*r, 2*r, 2*r)
	case shapes.Torus:
		return rl.GenMeshTorus(float32(g.Tube/g.Extent), 2*r, 12, g.Segments)
	case shapes.TorusKnot:
		return rl.GenMeshKnot(r, float32(g.Tube), 16, g.Segments)
	default:
		return rl.GenMeshSphere(r, g.Segments, g.Segments)
	}
}

// drawParticles draws each batch with one instanced call in jar units
// scaled to the world.
func (a *App) drawParticles() {
	s := float32(a.Jar.Mesh().Scale)
	rl.PushMatrix()
	rl.Scalef(s, s, s)
	for _, key := range a.instances.order {
		mesh, ok := a.meshes[key.Kind]
		if !ok || key.Color >= len(a.materials) {
			continue
		}
		ms := a.instances.transforms[key]
		if len(ms) == 0 {
			continue
		}
		rl.DrawMeshInstanced(mesh, a.materials[key.Color], ms, len(ms))
	}
	rl.PopMatrix()
}

// drawJar draws the glass under the mesh transform.
func (a *App) drawJar() {
	c := a.Jar.Container()
	m := a.Jar.Mesh().Matrix()
	slices := int32(max(c.Segments, 16))

	rl.PushMatrix()
	rl.MultMatrixf(m[:])
	base := rl.NewVector3(0, float32(c.Floor()), 0)
	r := float32(c.Radius)
	rl.DrawCylinderWires(base, r, r, float32(c.Height), slices, ColGlass)
	rl.DrawCircle3D(base, r, rl.NewVector3(1, 0, 0), 90, ColGlass)
	rl.PopMatrix()
}

// DrawTelemetry plots the live count history.
func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}

	rectX, rectY := 30, 600
	width, height := 400, 60

	maxVal := float64(a.Jar.Config().Stream.MaxObjects)
	if maxVal <= 0 {
		maxVal = 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := float32(rectX) + (float32(i)/float32(len(a.Telemetry)))*float32(width)
		py := float32(rectY+height) - float32(val/maxVal)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("live %d", int(a.Telemetry[len(a.Telemetry)-1])), rectX+width+10, rectY+height-10, 14, ColText)
}
