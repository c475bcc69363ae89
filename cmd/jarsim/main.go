package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/jarsim/internal/config"
	"github.com/san-kum/jarsim/internal/export"
	"github.com/san-kum/jarsim/internal/gui"
	"github.com/san-kum/jarsim/internal/jar"
	"github.com/san-kum/jarsim/internal/sim"
	"github.com/san-kum/jarsim/internal/storage"
	"github.com/san-kum/jarsim/internal/tilt"
	"github.com/san-kum/jarsim/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	preset     string
	configFile string
	duration   float64
	fps        float64
	seed       int64
	tiltAt     []float64
	outFile    string
	numRuns    int
	workers    int
	braille    bool
	svgOut     string
)

var logger = slog.Default()

// main registers commands and flags and opens the window when no subcommand
// is given.
func main() {
	rootCmd := &cobra.Command{
		Use:   "jarsim",
		Short: "particle jar simulation",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".jarsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed (default: config seed)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().Float64Var(&duration, "time", 10.0, "duration in seconds")
	runCmd.Flags().Float64Var(&fps, "fps", 60, "frame rate")
	runCmd.Flags().Float64SliceVar(&tiltAt, "tilt-at", nil, "simulation times to tilt at")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "terminal live view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "window view",
		Args:  cobra.NoArgs,
		RunE:  runGUI,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot live count and kinetic energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the live count as svg")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.Describe(name))
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration as yaml",
		Args:  cobra.NoArgs,
		RunE:  dumpConfig,
	}
	configCmd.Flags().StringVar(&outFile, "out", "", "write to file instead of stdout")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "simulate then write an svg side view",
		Args:  cobra.NoArgs,
		RunE:  snapshot,
	}
	snapshotCmd.Flags().StringVar(&outFile, "out", "jar.svg", "output file")
	snapshotCmd.Flags().Float64Var(&duration, "time", 5.0, "seconds to simulate first")
	snapshotCmd.Flags().Float64SliceVar(&tiltAt, "tilt-at", nil, "simulation times to tilt at")
	snapshotCmd.Flags().BoolVar(&braille, "braille", false, "render the terminal projection instead")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "run an ensemble over seeds and summarize metrics",
		Args:  cobra.NoArgs,
		RunE:  bench,
	}
	benchCmd.Flags().IntVar(&numRuns, "runs", 8, "number of runs")
	benchCmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "concurrent runs")
	benchCmd.Flags().Float64Var(&duration, "time", 10.0, "duration in seconds")
	benchCmd.Flags().Float64Var(&fps, "fps", 60, "frame rate")

	rootCmd.AddCommand(runCmd, liveCmd, guiCmd, listCmd, plotCmd, presetsCmd, configCmd, snapshotCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig builds the effective config: defaults, then the preset, then the
// config file, then flags.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "default"
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
		name = preset
	}
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		name = "custom"
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	rc := sim.RunConfig{FPS: fps, Duration: duration, TiltAt: tiltAt}
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s for %.1fs at %.0f fps...\n", name, duration, fps)
	result, err := sim.New(cfg, sim.WithLogger(logger)).Run(ctx, rc)
	if err != nil && result == nil {
		return err
	}

	runID, saveErr := st.Save(name, cfg, rc, result)
	if saveErr != nil {
		return saveErr
	}

	fmt.Printf("completed in %v (%d frames)\n", result.Wall.Round(time.Millisecond), result.Frames)
	fmt.Printf("run id: %s\n", runID)
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}
	printMetrics(result.Metrics)
	return err
}

func printMetrics(ms map[string]float64) {
	fmt.Println("\nmetrics:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range sortedKeys(ms) {
		fmt.Fprintf(w, "  %s\t%.6f\n", name, ms[name])
	}
	w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	if preset == "" && configFile == "" {
		return viz.RunMenu(config.ListPresets(), config.Describe, openPreset(cmd))
	}
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	j, err := jar.New(cfg, jar.WithLogger(logger))
	if err != nil {
		return err
	}
	return viz.Run(j, name)
}

func runGUI(cmd *cobra.Command, args []string) error {
	if preset == "" && configFile == "" {
		gui.RunMenu(config.ListPresets(), gui.Opener(openPreset(cmd)), logger)
		return nil
	}
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	j, err := jar.New(cfg, jar.WithLogger(logger))
	if err != nil {
		return err
	}
	gui.Run(j, name, logger)
	return nil
}

// openPreset builds jars for the menus; --seed still applies.
func openPreset(cmd *cobra.Command) viz.Opener {
	return func(name string) (*jar.Jar, error) {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", name)
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = seed
		}
		return jar.New(cfg, jar.WithLogger(logger))
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tFPS\tSEED\tPEAK")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.0f\t%d\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.FPS,
			run.Seed,
			run.MaxLive,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("frames: %d\n\n", len(frames))

	times := make([]float64, len(frames))
	live := make([]float64, len(frames))
	energy := make([]float64, len(frames))
	for i, f := range frames {
		times[i] = f.Time
		live[i] = float64(f.Live)
		energy[i] = f.KineticEnergy
	}

	for _, series := range []struct {
		data    []float64
		caption string
	}{
		{live, "live particles"},
		{energy, "kinetic energy"},
	} {
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if svgOut != "" {
		svg := export.SeriesToSVG(times, live, 800, 300, "#00ff88")
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	return nil
}

func dumpConfig(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if outFile != "" {
		if err := config.Save(outFile, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
		return nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	j, err := jar.New(cfg, jar.WithLogger(logger))
	if err != nil {
		return err
	}
	defer j.Close()

	ts := newTiltSchedule(tiltAt)
	const dt = 1.0 / 60
	for j.Now() < duration-dt/2 {
		ts.apply(j)
		j.Update(dt, jar.Input{Tilt: &ts.state})
		j.Flush(nil)
	}

	var svg string
	if braille {
		m := viz.NewModel(j, "")
		svg = export.CanvasToSVG(m.Canvas(), 4)
	} else {
		svg = export.JarToSVG(j, 600, 800)
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d particles at t=%.2fs)\n", outFile, j.Live(), j.Now())
	return nil
}

// tiltSchedule triggers a tilt once the jar clock passes each time.
type tiltSchedule struct {
	at    []float64
	next  int
	state tilt.State
}

func newTiltSchedule(at []float64) *tiltSchedule {
	sorted := append([]float64(nil), at...)
	sort.Float64s(sorted)
	return &tiltSchedule{at: sorted}
}

func (ts *tiltSchedule) apply(j *jar.Jar) {
	for ts.next < len(ts.at) && j.Now() >= ts.at[ts.next] {
		j.TriggerTilt(&ts.state)
		ts.next++
	}
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	ens := sim.NewEnsemble(sim.New(cfg, sim.WithLogger(logger)), numRuns, cfg.Seed)
	ens.SetWorkers(workers)
	rc := sim.RunConfig{FPS: fps, Duration: duration, DiscardSamples: true}

	fmt.Printf("benchmarking %s: %d runs of %.1fs\n\n", name, numRuns, duration)
	start := time.Now()
	results, err := ens.Run(ctx, rc)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	frames := 0
	for _, r := range results {
		frames += r.Frames
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMAX")
	for _, s := range sim.Aggregate(results) {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\n", s.Name, s.Mean, s.Std, s.Min, s.Max)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d frames in %v (%.0f frames/sec)\n", frames, elapsed.Round(time.Millisecond), float64(frames)/elapsed.Seconds())
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
