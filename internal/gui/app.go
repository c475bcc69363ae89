// Package gui draws a particle jar in a raylib window. Each instance batch is
// uploaded to a matrix slice and drawn with one mesh and one material.
package gui

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/jarsim/internal/dynamo"
	"github.com/san-kum/jarsim/internal/jar"
	"github.com/san-kum/jarsim/internal/shapes"
	"github.com/san-kum/jarsim/internal/tilt"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColGlass   = rl.NewColor(154, 208, 255, 160)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColAccent  = rl.NewColor(255, 217, 61, 255)
)

const (
	screenWidth  = 1280
	screenHeight = 720
	fontPath     = "/usr/share/fonts/liberation/LiberationMono-Regular.ttf"
	maxFrameDt   = 0.25
)

// Opener builds a jar for a preset name.
type Opener func(name string) (*jar.Jar, error)

type App struct {
	Jar    *jar.Jar
	Name   string
	Camera rl.Camera3D
	Font   rl.Font

	Running bool
	Active  bool
	Tilt    *tilt.State

	// preset menu, used when the app starts without a jar
	InMenu   bool
	Presets  []string
	Selected int
	open     Opener
	err      error

	Yaw, Pitch, Distance float32

	Telemetry  []float64
	MaxHistory int
	Last       dynamo.Sample
	Uploads    int

	logger    *slog.Logger
	instances *Instances
	meshes    map[shapes.Kind]rl.Mesh
	materials []rl.Material
	shader    rl.Shader
}

func initWindow() {
	rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagWindowResizable)
	rl.InitWindow(screenWidth, screenHeight, "jarsim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// loadFont prefers Liberation Mono and falls back to the built-in font.
func loadFont() rl.Font {
	if _, err := os.Stat(fontPath); err != nil {
		return rl.GetFontDefault()
	}
	font := rl.LoadFontEx(fontPath, 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

func newApp(logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		Camera: rl.NewCamera3D(
			rl.NewVector3(0, 0, 50),
			rl.NewVector3(0, 0, 0),
			rl.NewVector3(0, 1, 0),
			45.0,
			rl.CameraPerspective,
		),
		Font:       loadFont(),
		Running:    true,
		Active:     true,
		Tilt:       &tilt.State{},
		Yaw:        0.5,
		Pitch:      0.35,
		Distance:   45,
		MaxHistory: 300,
		Telemetry:  make([]float64, 0, 300),
		logger:     logger,
		shader:     loadInstancing(),
	}
}

// Run opens a window on j and blocks until it is closed.
func Run(j *jar.Jar, name string, logger *slog.Logger) {
	initWindow()
	defer rl.CloseWindow()
	app := newApp(logger)
	defer rl.UnloadShader(app.shader)
	app.load(j, name)
	defer app.unload()
	app.RunLoop()
}

// RunMenu opens a window on a preset menu.
func RunMenu(presets []string, open Opener, logger *slog.Logger) {
	initWindow()
	defer rl.CloseWindow()
	app := newApp(logger)
	defer rl.UnloadShader(app.shader)
	app.InMenu = true
	app.Presets = presets
	app.open = open
	defer app.unload()
	app.RunLoop()
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

// load binds a jar and builds one mesh per kind and one material per color.
func (a *App) load(j *jar.Jar, name string) {
	a.unload()
	a.Jar = j
	a.Name = name
	a.InMenu = false
	a.Telemetry = a.Telemetry[:0]
	a.instances = NewInstances()

	reg := j.Registry()
	a.meshes = make(map[shapes.Kind]rl.Mesh)
	for _, k := range reg.Kinds() {
		a.meshes[k] = genMesh(reg.Geometry(k))
	}
	a.materials = make([]rl.Material, reg.Colors())
	for i := range a.materials {
		mat := rl.LoadMaterialDefault()
		mat.Shader = a.shader
		mat.Maps.Color = toColor(reg.Material(i).RGBA)
		a.materials[i] = mat
	}
	a.logger.Info("jar loaded", "preset", name, "kinds", len(reg.Kinds()), "colors", reg.Colors())
}

func (a *App) unload() {
	for _, m := range a.meshes {
		rl.UnloadMesh(&m)
	}
	a.meshes = nil
	a.materials = nil
	if a.Jar != nil {
		a.Jar.Close()
	}
}

// Update handles input and advances the jar. It returns false to quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return false
	}
	if a.InMenu {
		a.updateMenu()
		return true
	}

	if rl.IsKeyPressed(rl.KeyEscape) && a.open != nil {
		a.unload()
		a.Jar = nil
		a.InMenu = true
		return true
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Running = !a.Running
	}
	if rl.IsKeyPressed(rl.KeyT) {
		a.Jar.TriggerTilt(a.Tilt)
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.Jar.RequestReset()
	}
	if rl.IsKeyPressed(rl.KeyA) {
		a.Active = !a.Active
	}
	a.updateCamera()

	// the window keeps the jar active only while it has focus
	active := a.Active && rl.IsWindowFocused()
	if a.Running {
		dt := math.Min(float64(rl.GetFrameTime()), maxFrameDt)
		a.Last = a.Jar.Update(dt, jar.Input{Active: active, Tilt: a.Tilt})
		a.Uploads = a.Jar.Flush(a.instances)
		a.Telemetry = append(a.Telemetry, float64(a.Last.Live))
		if len(a.Telemetry) > a.MaxHistory {
			a.Telemetry = a.Telemetry[1:]
		}
	}
	return true
}

func (a *App) updateMenu() {
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.Selected++
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.Selected--
	}
	if a.Selected >= len(a.Presets) {
		a.Selected = 0
	}
	if a.Selected < 0 {
		a.Selected = len(a.Presets) - 1
	}

	if (rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace)) && len(a.Presets) > 0 {
		name := a.Presets[a.Selected]
		j, err := a.open(name)
		if err != nil {
			a.err = err
			a.logger.Error("open preset", "preset", name, "err", err)
			return
		}
		a.err = nil
		a.load(j, name)
		a.Running = true
	}
}

func (a *App) updateCamera() {
	if rl.IsKeyDown(rl.KeyLeft) {
		a.Yaw -= 0.03
	}
	if rl.IsKeyDown(rl.KeyRight) {
		a.Yaw += 0.03
	}
	if rl.IsKeyDown(rl.KeyUp) {
		a.Pitch = float32(math.Min(float64(a.Pitch+0.02), 1.4))
	}
	if rl.IsKeyDown(rl.KeyDown) {
		a.Pitch = float32(math.Max(float64(a.Pitch-0.02), -1.4))
	}
	if rl.IsKeyDown(rl.KeyEqual) {
		a.Distance = float32(math.Max(float64(a.Distance*0.98), 5))
	}
	if rl.IsKeyDown(rl.KeyMinus) {
		a.Distance = float32(math.Min(float64(a.Distance*1.02), 200))
	}

	c := a.Jar.Container()
	scale := float32(a.Jar.Mesh().Scale)
	target := rl.NewVector3(0, float32(c.YOffset)*scale, 0)
	cp := float32(math.Cos(float64(a.Pitch)))
	a.Camera.Target = target
	a.Camera.Position = rl.NewVector3(
		target.X+a.Distance*cp*float32(math.Sin(float64(a.Yaw))),
		target.Y+a.Distance*float32(math.Sin(float64(a.Pitch))),
		target.Z+a.Distance*cp*float32(math.Cos(float64(a.Yaw))),
	)
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if a.InMenu {
		a.drawMenu()
	} else {
		rl.BeginMode3D(a.Camera)
		a.drawParticles()
		a.drawJar()
		rl.EndMode3D()
		a.DrawHUD()
	}

	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	a.drawText("jarsim", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.Name), 140, 34, 16, ColText)

	status, col := "RUNNING", ColSelect
	switch {
	case !a.Running:
		status, col = "PAUSED", ColTextDim
	case a.Last.Tilting:
		status, col = "TILTING", ColAccent
	}
	a.drawText(status, screenWidth-130, 30, 16, col)

	capacity := a.Jar.Config().Stream.MaxObjects
	lines := []string{
		fmt.Sprintf("live      %d / %d", a.Last.Live, capacity),
		fmt.Sprintf("sleeping  %d", a.Last.Sleeping),
		fmt.Sprintf("contacts  %d", a.Last.Contacts),
		fmt.Sprintf("substeps  %d", a.Last.SubSteps),
		fmt.Sprintf("uploads   %d", a.Uploads),
		fmt.Sprintf("active    %t", a.Active),
	}
	for i, l := range lines {
		a.drawText(l, 30, 80+i*22, 16, ColText)
	}

	a.DrawTelemetry()
	a.drawText("[T] TILT  [R] RESET  [SPACE] PAUSE  [A] ACTIVE  [ARROWS] ORBIT  [Q] QUIT", 560, 680, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 680, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

func (a *App) drawMenu() {
	a.drawText("jarsim", 50, 50, 40, ColSelect)
	a.drawText("Select Preset", 50, 100, 16, ColTextDim)

	y := 160
	for i, name := range a.Presets {
		if i == a.Selected {
			a.drawText(fmt.Sprintf("> %s", name), 50, y, 20, ColSelect)
		} else {
			a.drawText(fmt.Sprintf("  %s", name), 50, y, 20, ColText)
		}
		y += 28
	}
	if a.err != nil {
		a.drawText(a.err.Error(), 50, y+20, 16, rl.Red)
	}

	a.drawText("ARROWS: NAVIGATE  ENTER: SELECT  Q: QUIT", 850, 680, 14, ColTextDim)
}
