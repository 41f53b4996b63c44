package gui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/fluidpaint/internal/config"
	"github.com/san-kum/fluidpaint/internal/control"
	"github.com/san-kum/fluidpaint/internal/dynamo"
	"github.com/san-kum/fluidpaint/internal/export"
	"github.com/san-kum/fluidpaint/internal/metrics"
	"github.com/san-kum/fluidpaint/internal/physics"
	"github.com/san-kum/fluidpaint/internal/render"
	"github.com/san-kum/fluidpaint/internal/sim"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
)

const (
	historyCapacity = 240
	maxGIFFrames    = 600
)

type App struct {
	Ctrl     *sim.Controller
	Sched    *sim.ManualScheduler
	Tracker  *metrics.Tracker
	Recorder *export.Recorder
	Log      *slog.Logger

	pointer   control.Poller
	tex       rl.Texture2D
	texSize   int
	pixels    []color.RGBA
	dirty     bool
	recording bool
	status    string
	statusAt  time.Time
}

func initWindow(w, h int) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(w), int32(h), "fluidpaint")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// NewApp builds the controller against a frame-driven scheduler. The window
// must already be open.
func NewApp(cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{
		Sched:    sim.NewManualScheduler(nil),
		Tracker:  metrics.NewTracker(historyCapacity, metrics.NewSaturation()),
		Recorder: export.NewRecorder(maxGIFFrames, 2, 2),
		Log:      log,
	}

	opts := []sim.Option{sim.WithLogger(log), sim.WithObserver(a.Tracker)}
	if cfg.PauseWhenIdle {
		opts = append(opts, sim.WithPauseWhenIdle())
	}
	presenter := render.PresenterFunc(func(*image.RGBA) { a.dirty = true })
	ctrl, err := sim.New(cfg.SimConfig(), physics.NewSolver, a.Sched, presenter, opts...)
	if err != nil {
		return nil, err
	}
	a.Ctrl = ctrl
	ctrl.Warmup(cfg.WarmupSteps)
	a.dirty = true
	return a, nil
}

// Run opens a window sized to the configured canvas and blocks until it is
// closed or ctx is done.
func Run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	initWindow(cfg.Canvas.Width, cfg.Canvas.Height)
	defer rl.CloseWindow()

	app, err := NewApp(cfg, log)
	if err != nil {
		return err
	}
	defer app.unload()
	app.RunLoop(ctx)
	return nil
}

func (a *App) RunLoop(ctx context.Context) {
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		if a.Update() {
			return
		}
		a.Draw()
	}
}

// Update handles input and runs the ticks due this frame. It reports whether
// the user asked to quit.
func (a *App) Update() bool {
	if rl.IsWindowResized() {
		size := dynamo.Size{W: rl.GetScreenWidth(), H: rl.GetScreenHeight()}
		if err := a.Ctrl.SetCanvasSize(size); err != nil {
			a.Log.Warn("canvas resize", "err", err)
		}
	}

	mouse := rl.GetMousePosition()
	a.pointer.Update(a.Ctrl, rl.IsMouseButtonDown(rl.MouseLeftButton),
		dynamo.Point{X: float64(mouse.X), Y: float64(mouse.Y)})

	for ch := rl.GetCharPressed(); ch != 0; ch = rl.GetCharPressed() {
		if a.handleKey(string(rune(ch))) {
			return true
		}
	}

	for n := a.Sched.Due(time.Now()); n > 0; n-- {
		a.Ctrl.Tick()
		if a.recording {
			a.Recorder.Capture(a.Ctrl.Renderer().Buffer())
		}
	}
	return false
}

func (a *App) handleKey(key string) bool {
	switch key {
	case "q":
		if a.recording {
			a.toggleRecording()
		}
		return true
	case "s":
		path := fmt.Sprintf("fluidpaint-%s.png", time.Now().Format("20060102-150405"))
		if err := export.SavePNG(path, a.Ctrl.Renderer().Buffer(), 4); err != nil {
			a.setStatus(err.Error())
			return false
		}
		a.setStatus("saved " + path)
	case "g":
		a.toggleRecording()
	default:
		action := control.Lookup(key)
		if action == control.ActionNone {
			return false
		}
		status, err := control.Apply(a.Ctrl, action)
		if err != nil {
			a.Log.Error("parameter change", "key", key, "err", err)
			a.setStatus(err.Error())
			return false
		}
		if action == control.ActionClear {
			a.Tracker.Reset()
		}
		a.dirty = true
		a.setStatus(status)
	}
	return false
}

func (a *App) toggleRecording() {
	if !a.recording {
		a.Recorder.Reset()
		a.recording = true
		a.setStatus("recording")
		return
	}
	a.recording = false
	path := fmt.Sprintf("fluidpaint-%s.gif", time.Now().Format("20060102-150405"))
	if err := a.Recorder.Save(path); err != nil {
		a.setStatus(err.Error())
		return
	}
	a.setStatus("saved " + path)
}

func (a *App) setStatus(s string) {
	a.status, a.statusAt = s, time.Now()
}

// syncTexture uploads the pixel buffer, reallocating the texture when the
// resolution changed.
func (a *App) syncTexture() {
	r := a.Ctrl.Renderer()
	if r == nil {
		return
	}
	buf := r.Buffer()
	n := buf.Bounds().Dx()
	if n != a.texSize {
		if a.texSize > 0 {
			rl.UnloadTexture(a.tex)
		}
		img := rl.GenImageColor(n, n, rl.Black)
		a.tex = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		rl.SetTextureFilter(a.tex, rl.FilterPoint)
		a.texSize = n
		a.pixels = make([]color.RGBA, n*n)
		a.dirty = true
	}
	if !a.dirty {
		return
	}
	for i := range a.pixels {
		p := buf.Pix[4*i : 4*i+4 : 4*i+4]
		a.pixels[i] = color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	}
	rl.UpdateTexture(a.tex, a.pixels)
	a.dirty = false
}

func (a *App) unload() {
	if a.texSize > 0 {
		rl.UnloadTexture(a.tex)
	}
}

func (a *App) Draw() {
	a.syncTexture()

	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if a.texSize > 0 {
		src := rl.NewRectangle(0, 0, float32(a.texSize), float32(a.texSize))
		dst := rl.NewRectangle(0, 0, float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))
		rl.DrawTexturePro(a.tex, src, dst, rl.NewVector2(0, 0), 0, rl.White)
	}
	a.DrawHUD()

	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	p := a.Ctrl.Params()
	h := int32(rl.GetScreenHeight())

	rl.DrawText("fluidpaint", 12, 10, 20, ColSelect)
	state := "IDLE"
	col := ColTextDim
	if a.Ctrl.Dragging() {
		state, col = "DRAGGING", ColSelect
	} else if a.Ctrl.Running() {
		state, col = "RUNNING", ColAccent
	}
	rl.DrawText(state, 12, 34, 14, col)
	if a.recording {
		rl.DrawText(fmt.Sprintf("REC %d", a.Recorder.Len()), 100, 34, 14, rl.Red)
	}

	rl.DrawText(fmt.Sprintf("visc %.2g  diff %.2g  iters %d  res %d  dens %.0f",
		p.Viscosity, p.Diffusion, p.Iterations, p.Resolution, p.Density), 12, 54, 14, ColText)
	rl.DrawText(fmt.Sprintf("mass %.1f", a.Tracker.Last().Total), 12, 72, 14, ColText)
	a.DrawTelemetry(12, 92, 200, 40)

	if a.status != "" && time.Since(a.statusAt) < 3*time.Second {
		rl.DrawText(a.status, 12, h-44, 14, ColAccent)
	}
	rl.DrawText("[V/D/I/R/M] TUNE  [C] CLEAR  [S] SNAP  [G] GIF  [Q] QUIT", 12, h-22, 14, ColTextDim)
	rl.DrawText(fmt.Sprintf("%d FPS", rl.GetFPS()), int32(rl.GetScreenWidth())-70, 10, 14, ColTextDim)
}

// DrawTelemetry plots the mass history as a line strip inside the given
// rectangle.
func (a *App) DrawTelemetry(x, y, width, height int) {
	hist := a.Tracker.MassHistory()
	if len(hist) < 2 {
		return
	}

	minVal, maxVal := hist[0], hist[0]
	for _, v := range hist {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(hist))
	for i, val := range hist {
		px := float32(x) + float32(i)/float32(len(hist))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(y+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}
	rl.DrawLineStrip(points, ColAccent)
}
