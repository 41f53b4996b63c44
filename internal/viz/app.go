package viz

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/fluidpaint/internal/config"
	"github.com/san-kum/fluidpaint/internal/control"
	"github.com/san-kum/fluidpaint/internal/dynamo"
	"github.com/san-kum/fluidpaint/internal/export"
	"github.com/san-kum/fluidpaint/internal/metrics"
	"github.com/san-kum/fluidpaint/internal/physics"
	"github.com/san-kum/fluidpaint/internal/sim"
)

const (
	defaultCols     = 80
	defaultRows     = 24
	panelWidth      = 42
	historyCapacity = 300
	maxGIFFrames    = 600
	snapshotScale   = 4
)

type tickMsg struct{}

// ConfigMsg carries a reloaded config file into the event loop.
type ConfigMsg struct{ Config *config.Config }

type errMsg struct{ err error }

// Options configure a terminal session.
type Options struct {
	Config    *config.Config
	Scheduler sim.Scheduler
	Logger    *slog.Logger
	// OutDir receives snapshots and recordings.
	OutDir string
}

// App is the bubbletea model. Ticks, pointer events, keys and config
// reloads all arrive through Update, so the controller is only ever touched
// from the program's event loop.
type App struct {
	cfg      *config.Config
	ctrl     *sim.Controller
	canvas   *Canvas
	tracker  *metrics.Tracker
	recorder *export.Recorder
	log      *slog.Logger
	outDir   string

	theme     Theme
	st        styles
	recording bool
	status    string
	width     int
	height    int
}

func NewApp(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	a := &App{
		cfg:      cfg,
		canvas:   NewCanvas(defaultCols-panelWidth, defaultRows-1),
		recorder: export.NewRecorder(maxGIFFrames, 2, 1),
		log:      log,
		outDir:   opts.OutDir,
		theme:    GetTheme(cfg.Theme),
		status:   "drag to paint",
	}
	a.st = newStyles(a.theme)
	a.tracker = metrics.NewTracker(historyCapacity, metrics.NewSaturation(), metrics.NewImpulseRate())

	simCfg := cfg.SimConfig()
	w, h := a.canvas.Pixels()
	simCfg.Canvas = dynamo.Size{W: w, H: h}

	simOpts := []sim.Option{sim.WithLogger(log), sim.WithObserver(a.tracker)}
	if cfg.PauseWhenIdle {
		simOpts = append(simOpts, sim.WithPauseWhenIdle())
	}
	ctrl, err := sim.New(simCfg, physics.NewSolver, opts.Scheduler, a.canvas, simOpts...)
	if err != nil {
		return nil, err
	}
	a.ctrl = ctrl
	ctrl.Warmup(cfg.WarmupSteps)
	return a, nil
}

func (a *App) Controller() *sim.Controller { return a.ctrl }

func (a *App) Init() tea.Cmd { return nil }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
	case tickMsg:
		// Ticks already queued when the scheduler stopped are dropped.
		if !a.ctrl.Running() {
			return a, nil
		}
		a.ctrl.Tick()
		if a.recording {
			a.recorder.Capture(a.ctrl.Renderer().Buffer())
		}
	case tea.MouseMsg:
		a.handleMouse(msg)
	case tea.KeyMsg:
		return a.handleKey(msg)
	case ConfigMsg:
		a.applyConfig(msg.Config)
	case errMsg:
		a.status = msg.err.Error()
		a.log.Warn("config reload failed", "err", msg.err)
	}
	return a, nil
}

func (a *App) resize(w, h int) {
	a.width, a.height = w, h
	a.canvas.Resize(w-panelWidth, h-1)
	pw, ph := a.canvas.Pixels()
	if err := a.ctrl.SetCanvasSize(dynamo.Size{W: pw, H: ph}); err != nil {
		a.log.Warn("canvas resize", "err", err)
	}
	a.refresh()
}

// refresh re-presents the current buffer without stepping the solver.
func (a *App) refresh() {
	if r := a.ctrl.Renderer(); r != nil {
		a.canvas.Present(r.Buffer())
	}
}

// canvasPoint converts a terminal cell to display pixels. Each cell is two
// pixels tall.
func canvasPoint(x, y int) dynamo.Point {
	return dynamo.Point{X: float64(x), Y: float64(2 * y)}
}

func (a *App) handleMouse(msg tea.MouseMsg) {
	p := canvasPoint(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			a.ctrl.OnPress(p)
		}
	case tea.MouseActionMotion:
		if a.ctrl.Dragging() {
			a.ctrl.OnMove(p)
		}
	case tea.MouseActionRelease:
		if a.ctrl.Dragging() {
			a.ctrl.OnRelease()
		}
	}
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		if a.recording {
			a.toggleRecording()
		}
		return a, tea.Quit
	case "t":
		a.theme = NextTheme(a.theme.Name)
		a.st = newStyles(a.theme)
		a.status = "theme " + a.theme.Name
	case "s":
		a.snapshot()
	case "g":
		a.toggleRecording()
	default:
		action := control.Lookup(key)
		if action == control.ActionNone {
			return a, nil
		}
		status, err := control.Apply(a.ctrl, action)
		if err != nil {
			a.status = err.Error()
			a.log.Error("parameter change", "key", key, "err", err)
			return a, nil
		}
		a.status = status
		if action == control.ActionClear {
			a.tracker.Reset()
		}
		a.refresh()
	}
	return a, nil
}

func (a *App) applyConfig(cfg *config.Config) {
	if err := a.ctrl.Apply(cfg.Params()); err != nil {
		a.status = err.Error()
		a.log.Error("apply config", "err", err)
		return
	}
	a.cfg = cfg
	a.theme = GetTheme(cfg.Theme)
	a.st = newStyles(a.theme)
	a.status = "config reloaded"
	a.refresh()
}

func (a *App) outPath(ext string) string {
	name := fmt.Sprintf("fluidpaint-%s.%s", time.Now().Format("20060102-150405"), ext)
	return filepath.Join(a.outDir, name)
}

func (a *App) snapshot() {
	r := a.ctrl.Renderer()
	if r == nil {
		return
	}
	path := a.outPath("png")
	if err := export.SavePNG(path, r.Buffer(), snapshotScale); err != nil {
		a.status = err.Error()
		a.log.Error("snapshot", "err", err)
		return
	}
	a.status = "saved " + path
}

func (a *App) toggleRecording() {
	if !a.recording {
		a.recorder.Reset()
		a.recording = true
		a.status = "recording"
		return
	}
	a.recording = false
	if a.recorder.Len() == 0 {
		a.status = "nothing recorded"
		return
	}
	path := a.outPath("gif")
	if err := a.recorder.Save(path); err != nil {
		a.status = err.Error()
		a.log.Error("save recording", "err", err)
		return
	}
	a.status = fmt.Sprintf("saved %s (%d frames)", path, a.recorder.Len())
}

func (a *App) View() string {
	main := lipgloss.JoinHorizontal(lipgloss.Top, a.canvas.String(), a.panel())
	return main + "\n" + a.st.status.Render(a.status)
}

func (a *App) panel() string {
	var s strings.Builder
	s.WriteString(a.st.header.Render("FLUIDPAINT") + "\n")

	switch {
	case a.ctrl.Dragging():
		s.WriteString(a.st.running.Render("DRAGGING"))
	case a.ctrl.Running():
		s.WriteString(a.st.running.Render("RUNNING"))
	default:
		s.WriteString(a.st.paused.Render("IDLE"))
	}
	if a.recording {
		s.WriteString("  " + a.st.recording.Render(fmt.Sprintf("REC %d", a.recorder.Len())))
	}
	s.WriteString("\n\n")

	p := a.ctrl.Params()
	row := func(label, value string) {
		s.WriteString(a.st.label.Render(label) + a.st.value.Render(value) + "\n")
	}
	row("viscosity", fmt.Sprintf("%.2g", p.Viscosity))
	row("diffusion", fmt.Sprintf("%.2g", p.Diffusion))
	row("iterations", fmt.Sprintf("%d", p.Iterations))
	row("resolution", fmt.Sprintf("%dx%d", p.Resolution, p.Resolution))
	row("density", fmt.Sprintf("%.0f", p.Density))
	s.WriteString("\n")

	stats := a.tracker.Last()
	values := a.tracker.Values()
	row("ticks", fmt.Sprintf("%d", a.ctrl.Ticks()))
	row("impulses", fmt.Sprintf("%d", a.ctrl.LastImpulses()))
	row("mass", fmt.Sprintf("%.1f", stats.Total))
	row("peak", fmt.Sprintf("%.2f", stats.Peak))
	row("saturated", ProgressBar(values["saturation"], 16))

	if hist := a.tracker.MassHistory(); len(hist) > 1 {
		chart := asciigraph.Plot(hist, asciigraph.Height(5), asciigraph.Width(panelWidth-14), asciigraph.Caption("mass"))
		s.WriteString(a.st.graph.Render(chart) + "\n")
	}

	s.WriteString(a.st.hint.Render("v/V d/D visc diff  i/I iters\nr/R resolution    m/M density\nc clear  s snap  g gif  t theme  q quit"))
	return a.st.panel.Render(s.String())
}

// Run starts the terminal host and blocks until the user quits or ctx is
// done. A non-empty configPath is watched and reapplied on change.
func Run(ctx context.Context, cfg *config.Config, configPath string, log *slog.Logger) error {
	var prog *tea.Program
	sched := sim.NewTickerScheduler(func() { prog.Send(tickMsg{}) })
	defer sched.Stop()

	outDir, err := os.Getwd()
	if err != nil {
		outDir = os.TempDir()
	}
	app, err := NewApp(Options{Config: cfg, Scheduler: sched, Logger: log, OutDir: outDir})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	prog = tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath,
				func(c *config.Config) { prog.Send(ConfigMsg{Config: c}) },
				func(err error) { prog.Send(errMsg{err: err}) })
			if err != nil {
				log.Warn("config watch disabled", "path", configPath, "err", err)
			}
		}()
	}

	_, err = prog.Run()
	return err
}
