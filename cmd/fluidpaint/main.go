package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fluidpaint/internal/automation"
	"github.com/san-kum/fluidpaint/internal/config"
	"github.com/san-kum/fluidpaint/internal/dynamo"
	"github.com/san-kum/fluidpaint/internal/export"
	"github.com/san-kum/fluidpaint/internal/gui"
	"github.com/san-kum/fluidpaint/internal/metrics"
	"github.com/san-kum/fluidpaint/internal/physics"
	"github.com/san-kum/fluidpaint/internal/render"
	"github.com/san-kum/fluidpaint/internal/sim"
	"github.com/san-kum/fluidpaint/internal/viz"
)

var (
	configFile string
	preset     string
	logLevel   string
	logFile    string
	// Parameter overrides
	resolution int
	viscosity  float64
	diffusion  float64
	iterations int
	density    float64
	// Headless runs
	from         []float64
	to           []float64
	ticks        int
	dragTicks    int
	scenarioFile string
	pngPath      string
	gifPath      string
	scale        int
	// Sweeps
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	// config init
	force bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "fluidpaint",
		Short:        "paint into a fluid simulation",
		SilenceUsage: true,
		RunE:         runTerminal,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (yaml or toml, default ~/"+config.DefaultFileName+")")
	pf.StringVar(&preset, "preset", "", "start from a named preset instead of the config file")
	pf.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "write logs to a file instead of stderr")
	pf.IntVar(&resolution, "resolution", config.DefaultResolution, "grid resolution")
	pf.Float64Var(&viscosity, "viscosity", 0, "fluid viscosity")
	pf.Float64Var(&diffusion, "diffusion", 0, "density diffusion")
	pf.IntVar(&iterations, "iterations", config.DefaultIterations, "solver iterations")
	pf.Float64Var(&density, "density", config.DefaultDensity, "density injected per impulse")

	windowCmd := &cobra.Command{
		Use:   "window",
		Short: "paint in a desktop window",
		RunE:  runWindow,
	}

	headlessCmd := &cobra.Command{
		Use:   "headless",
		Short: "run a scripted drag and export the result",
		RunE:  runHeadless,
	}
	addScriptFlags(headlessCmd)
	headlessCmd.Flags().StringVar(&pngPath, "png", "fluidpaint.png", "final frame output (empty to skip)")
	headlessCmd.Flags().StringVar(&gifPath, "gif", "", "animation output")
	headlessCmd.Flags().IntVar(&scale, "scale", 4, "output upscale factor")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "replay a scripted drag across values of one parameter",
		RunE:  runSweep,
	}
	addScriptFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "viscosity", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.001, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage the config file",
	}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "write the default config",
		RunE:  initConfig,
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "print the effective config",
		RunE:  showConfig,
	}
	configCmd.AddCommand(initCmd, showCmd)

	rootCmd.AddCommand(windowCmd, headlessCmd, sweepCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScriptFlags(cmd *cobra.Command) {
	cmd.Flags().Float64SliceVar(&from, "from", []float64{64, 256}, "drag start x,y in canvas pixels")
	cmd.Flags().Float64SliceVar(&to, "to", []float64{448, 256}, "drag end x,y in canvas pixels")
	cmd.Flags().IntVar(&ticks, "ticks", 200, "total ticks")
	cmd.Flags().IntVar(&dragTicks, "drag-ticks", 40, "ticks spent dragging")
	cmd.Flags().StringVar(&scenarioFile, "scenario", "", "scenario file (yaml); replaces the straight drag")
}

func newLogger() (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, nil, fmt.Errorf("log level %q: %w", logLevel, err)
	}

	var (
		out     io.Writer = os.Stderr
		closeFn           = func() {}
	)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		out, closeFn = f, func() { f.Close() }
	}

	log := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log, closeFn, nil
}

// loadConfig resolves the config file or preset and applies any parameter
// flags given on the command line. The returned path is empty when there is
// no file to watch.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	} else {
		cfg, path, err = config.Resolve(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("resolution") {
		cfg.Resolution = resolution
	}
	if flags.Changed("viscosity") {
		cfg.Viscosity = viscosity
	}
	if flags.Changed("diffusion") {
		cfg.Diffusion = diffusion
	}
	if flags.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if flags.Changed("density") {
		cfg.Density = density
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func runTerminal(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return viz.Run(ctx, cfg, path, log)
}

func runWindow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return gui.Run(ctx, cfg, log)
}

func point(xy []float64, name string) (dynamo.Point, error) {
	if len(xy) != 2 {
		return dynamo.Point{}, fmt.Errorf("--%s wants x,y, got %v", name, xy)
	}
	return dynamo.Point{X: xy[0], Y: xy[1]}, nil
}

// loadScenario reads --scenario, or builds a straight drag from the
// --from/--to flags.
func loadScenario() (*automation.Scenario, error) {
	if scenarioFile != "" {
		return automation.LoadScenario(scenarioFile)
	}
	start, err := point(from, "from")
	if err != nil {
		return nil, err
	}
	end, err := point(to, "to")
	if err != nil {
		return nil, err
	}
	if ticks < 1 || dragTicks < 1 || dragTicks > ticks {
		return nil, fmt.Errorf("need 1 <= drag-ticks (%d) <= ticks (%d)", dragTicks, ticks)
	}
	return automation.Line(start, end, dragTicks, ticks), nil
}

func newHeadlessController(cfg *config.Config, log *slog.Logger, p render.Presenter) (*sim.Controller, *metrics.Tracker, error) {
	tracker := metrics.NewTracker(max(ticks, 1), metrics.NewSaturation(), metrics.NewImpulseRate())
	ctrl, err := sim.New(cfg.SimConfig(), physics.NewSolver, sim.NewManualScheduler(nil), p,
		sim.WithLogger(log), sim.WithObserver(tracker))
	if err != nil {
		return nil, nil, err
	}
	ctrl.Warmup(cfg.WarmupSteps)
	tracker.Reset()
	return ctrl, tracker, nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	scenario, err := loadScenario()
	if err != nil {
		return err
	}

	var (
		rec       *export.Recorder
		capturing bool
	)
	if gifPath != "" {
		rec = export.NewRecorder(ticks, 2, scale)
	}
	presenter := render.PresenterFunc(func(img *image.RGBA) {
		if capturing && rec != nil {
			rec.Capture(img)
		}
	})

	ctrl, tracker, err := newHeadlessController(cfg, log, presenter)
	if err != nil {
		return err
	}
	capturing = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := automation.RunScenario(ctx, scenario, ctrl)
	if err != nil {
		return err
	}
	log.Info("headless run finished", "scenario", scenario.Name, "ticks", res.Ticks, "impulses", res.Impulses)

	if pngPath != "" {
		if err := export.SavePNG(pngPath, ctrl.Renderer().Buffer(), scale); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngPath)
	}
	if rec != nil {
		if err := rec.Save(gifPath); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d frames)\n", gifPath, rec.Len())
	}

	printReport(os.Stdout, ctrl, tracker)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	scenario, err := loadScenario()
	if err != nil {
		return err
	}

	build := func() (*sim.Controller, func() map[string]float64, error) {
		ctrl, tracker, err := newHeadlessController(cfg, log, nil)
		if err != nil {
			return nil, nil, err
		}
		return ctrl, func() map[string]float64 {
			out := tracker.Values()
			out["mass"] = tracker.Last().Total
			out["peak"] = tracker.Last().Peak
			return out
		}, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sweep := &automation.ParameterSweep{Param: sweepParam, Min: sweepMin, Max: sweepMax, NumSteps: sweepSteps}
	results, err := automation.RunSweep(ctx, sweep, scenario, build)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tticks\timpulses\tmass\tpeak\tsaturation\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%d\t%d\t%.2f\t%.3f\t%.4f\n", r.Value, r.Result.Ticks, r.Result.Impulses,
			r.Observed["mass"], r.Observed["peak"], r.Observed["saturation"])
	}
	return w.Flush()
}

func printReport(out io.Writer, ctrl *sim.Controller, tracker *metrics.Tracker) {
	stats := tracker.Last()
	values := tracker.Values()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "resolution\t%d\n", ctrl.Params().Resolution)
	fmt.Fprintf(w, "ticks\t%d\n", ctrl.Ticks())
	fmt.Fprintf(w, "mass\t%.2f\n", stats.Total)
	fmt.Fprintf(w, "peak\t%.3f\n", stats.Peak)
	fmt.Fprintf(w, "mean\t%.4f\n", stats.Mean)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%.4f\n", name, values[name])
	}
	w.Flush()

	if hist := tracker.MassHistory(); len(hist) > 1 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, asciigraph.Plot(hist, asciigraph.Height(10), asciigraph.Width(60), asciigraph.Caption("mass per tick")))
	}
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRESOLUTION\tVISCOSITY\tDIFFUSION\tITERATIONS\tDENSITY\tCANVAS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%d\t%g\t%dx%d\n", name, p.Resolution, p.Viscosity, p.Diffusion,
			p.Iterations, p.Density, p.Canvas.Width, p.Canvas.Height)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path, err := homedir.Expand(configFile)
	if err != nil {
		return err
	}
	if path == "" {
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s exists, use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	switch {
	case preset != "":
		fmt.Printf("# preset %s\n", preset)
	case path != "":
		fmt.Printf("# %s\n", path)
	default:
		fmt.Println("# defaults")
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}
