package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fracdim/internal/boxdim"
	"github.com/san-kum/fracdim/internal/config"
	"github.com/san-kum/fracdim/internal/critexp"
	"github.com/san-kum/fracdim/internal/experiment"
	"github.com/san-kum/fracdim/internal/export"
	"github.com/san-kum/fracdim/internal/storage"
	"github.com/san-kum/fracdim/internal/sweep"
)

var (
	dataDir  string
	logLevel string
	logFile  string
	logger   = slog.New(slog.DiscardHandler)

	numPoints int
	p1        float64
	p2        float64
	r1        float64
	r2        float64
	r3        float64
	seed      int64
	// Box sizes
	minExp   float64
	maxExp   float64
	numBoxes int
	relative bool
	decades  float64
	// Solver
	tolerance float64
	// Config file, preset or query string
	configFile string
	preset     string
	params     string

	plot     bool
	noSave   bool
	vary     []string
	workers  int
	svgSize  int
	svgColor string
)

// main registers the fracdim commands and exits with status 1 when the
// selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "fracdim",
		Short:         "chaos game fractal dimension lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, file := config.LogSettings(logLevel, logFile)
			if cmd.Flags().Changed("log-level") {
				level = config.ParseLogLevel(logLevel)
			}
			if cmd.Flags().Changed("log-file") {
				file = logFile
			}
			logger, closeLog = config.SetupLogger(file, level)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fracdim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "play the chaos game and compare box and similarity dimension",
		Args:  cobra.NoArgs,
		RunE:  runExperiment,
	}
	addParamFlags(runCmd)
	addBoxFlags(runCmd)
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot log box counts")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	estimateCmd := &cobra.Command{
		Use:   "estimate [run_id]",
		Short: "re-estimate the box dimension of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  estimateRun,
	}
	addBoxFlags(estimateCmd)
	estimateCmd.Flags().BoolVar(&plot, "plot", false, "plot log box counts")

	critexpCmd := &cobra.Command{
		Use:   "critexp r1 r2 [r3...]",
		Short: "solve r1^d + r2^d + ... = 1 for d",
		Args:  cobra.MinimumNArgs(2),
		RunE:  solveCritical,
	}
	critexpCmd.Flags().Float64Var(&tolerance, "tol", critexp.DefaultTolerance, "bisection tolerance")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a parameter grid in parallel",
		Example: "  fracdim sweep --vary r=0.3:0.7:5\n" +
			"  fracdim sweep --preset skewed --vary p1=0.1,0.3,0.5 --vary r3=0.3:0.6:4",
		Args: cobra.NoArgs,
		RunE: runSweep,
	}
	addParamFlags(sweepCmd)
	addBoxFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&vary, "vary", nil, "name=values, values as a,b,c or start:stop:count (repeatable)")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")

	compareCmd := newCompareCmd()

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run points to CSV (index,x,y)",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and points to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render run points as an SVG scatter plot",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&svgSize, "size", export.DefaultSize, "image width and height in pixels")
	exportSVGCmd.Flags().StringVar(&svgColor, "color", export.DefaultColor, "point color")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPOINTS\tP1\tP2\tR1\tR2\tR3")
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n", name, p.Points, p.P1, p.P2, p.R1, p.R2, p.R3)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, estimateCmd, critexpCmd, sweepCmd, compareCmd, listCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd)

	err := rootCmd.Execute()
	if cerr := closeLog(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var closeLog = func() error { return nil }

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [preset1] [preset2] ...",
		Short: "compare presets side by side",
		Args:  cobra.MinimumNArgs(2),
		RunE:  comparePresets,
	}
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&numPoints, "points", 0, "override number of points")
	return cmd
}

func addParamFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	cmd.Flags().IntVar(&numPoints, "points", def.Points, "number of points")
	cmd.Flags().Float64Var(&p1, "p1", def.P1, "probability of vertex (0,0)")
	cmd.Flags().Float64Var(&p2, "p2", def.P2, "probability of vertex (0,1)")
	cmd.Flags().Float64Var(&r1, "r1", def.R1, "contraction ratio toward (0,0)")
	cmd.Flags().Float64Var(&r2, "r2", def.R2, "contraction ratio toward (0,1)")
	cmd.Flags().Float64Var(&r3, "r3", def.R3, "contraction ratio toward (1,0)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset parameters")
	cmd.Flags().StringVar(&params, "params", "", "query string, e.g. num_points=5000&p1=0.5&r3=0.25")
}

func addBoxFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&minExp, "min-exp", boxdim.DefaultMinExp, "log10 of the smallest box size")
	cmd.Flags().Float64Var(&maxExp, "max-exp", boxdim.DefaultMaxExp, "log10 of the largest box size")
	cmd.Flags().IntVar(&numBoxes, "boxes", boxdim.DefaultCount, "number of box sizes")
	cmd.Flags().BoolVar(&relative, "relative", false, "scale box sizes to the point cloud's extent")
	cmd.Flags().Float64Var(&decades, "decades", config.DefaultDecades, "orders of magnitude spanned with --relative")
}

// resolveConfig layers config file, preset, explicit flags and --params,
// later sources winning. The preset name is returned as the label only if
// the final parameters still equal the preset's.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	var presetParams config.Params
	if preset != "" {
		p, ok := config.Presets[preset]
		if !ok {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		p.Apply(cfg)
		presetParams = p
	}

	flags := cmd.Flags()
	if flags.Changed("points") {
		cfg.Points = numPoints
	}
	if flags.Changed("p1") {
		cfg.P1 = p1
	}
	if flags.Changed("p2") {
		cfg.P2 = p2
	}
	if flags.Changed("r1") {
		cfg.R1 = r1
	}
	if flags.Changed("r2") {
		cfg.R2 = r2
	}
	if flags.Changed("r3") {
		cfg.R3 = r3
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	} else if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	applyBoxFlags(cmd, cfg)

	if params != "" {
		parsed, err := config.ParseQuery(params, cfg)
		if err != nil {
			return nil, "", err
		}
		cfg = parsed
	}

	label := ""
	if preset != "" && presetParams.Matches(cfg) {
		label = preset
	}
	return cfg, label, nil
}

func applyBoxFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("min-exp") {
		cfg.Boxes.MinExp = minExp
	}
	if flags.Changed("max-exp") {
		cfg.Boxes.MaxExp = maxExp
	}
	if flags.Changed("boxes") {
		cfg.Boxes.Count = numBoxes
	}
	if flags.Changed("relative") {
		cfg.Boxes.Relative = relative
	}
	if flags.Changed("decades") {
		cfg.Boxes.Decades = decades
	}
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, label, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("playing chaos game with %d points...\n", cfg.Points)
	result, err := experiment.New(cfg).WithLogger(logger).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n\n", result.Elapsed)
	printParams(cfg)
	fmt.Println()
	printDimensions(result)

	if plot {
		fmt.Println()
		plotFit(result.Fit)
	}

	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(metadata(label, cfg, result), result.Points)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func metadata(label string, cfg *config.Config, result *experiment.Result) storage.RunMetadata {
	meta := storage.RunMetadata{
		Label:        label,
		Seed:         cfg.Seed,
		Points:       cfg.Points,
		P1:           cfg.P1,
		P2:           cfg.P2,
		R1:           cfg.R1,
		R2:           cfg.R2,
		R3:           cfg.R3,
		BoxDimension: result.BoxDimension,
		BoxSizes:     result.Fit.Sizes,
		BoxCounts:    result.Fit.Counts,
		ElapsedMs:    float64(result.Elapsed.Microseconds()) / 1000,
	}
	if result.HasCritical() {
		d := result.CriticalExponent
		meta.CriticalExponent = &d
	}
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}
	return meta
}

func printParams(cfg *config.Config) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAM\tVALUE")
	fmt.Fprintf(w, "points\t%d\n", cfg.Points)
	fmt.Fprintf(w, "p1\t%.3f\n", cfg.P1)
	fmt.Fprintf(w, "p2\t%.3f\n", cfg.P2)
	fmt.Fprintf(w, "p3\t%.3f\n", 1-cfg.P1-cfg.P2)
	fmt.Fprintf(w, "r1\t%.3f\n", cfg.R1)
	fmt.Fprintf(w, "r2\t%.3f\n", cfg.R2)
	fmt.Fprintf(w, "r3\t%.3f\n", cfg.R3)
	fmt.Fprintf(w, "seed\t%d\n", cfg.Seed)
	w.Flush()
	fmt.Printf("\nreplay: --params '%s'\n", cfg.Query())
}

func printDimensions(result *experiment.Result) {
	fmt.Printf("box dimension estimate: %.4f (r^2 %.4f over %d sizes)\n",
		result.BoxDimension, result.Fit.RSquared, len(result.Fit.Sizes))
	if result.HasCritical() {
		fmt.Printf("critical exponent:      %.4f\n", result.CriticalExponent)
	}
	for _, e := range result.Errors {
		fmt.Printf("warning: %v\n", e)
	}
}

func plotFit(fit *boxdim.Fit) {
	// Largest box first so the curve rises with resolution.
	data := make([]float64, len(fit.Counts))
	for i := range fit.Counts {
		data[len(data)-1-i] = math.Log(float64(fit.Counts[i]))
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("log N(s), s = %.2g .. %.2g", fit.Sizes[len(fit.Sizes)-1], fit.Sizes[0])),
	)
	fmt.Println(graph)
}

func estimateRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	points, err := st.LoadPoints(runID)
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	applyBoxFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	sizes, err := cfg.BoxSizes(points)
	if err != nil {
		return err
	}

	fit, err := boxdim.Analyze(points, sizes)
	if err != nil {
		return err
	}
	logger.Debug("estimated box dimension", "run", runID, "dimension", fit.Dimension)

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("points: %d\n\n", len(points))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tCOUNT\tLOG(SIZE)\tLOG(COUNT)")
	for i, s := range fit.Sizes {
		fmt.Fprintf(w, "%.3e\t%d\t%.4f\t%.4f\n", s, fit.Counts[i], math.Log(s), math.Log(float64(fit.Counts[i])))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbox dimension estimate: %.4f (stored %.4f, r^2 %.4f)\n", fit.Dimension, meta.BoxDimension, fit.RSquared)
	if meta.CriticalExponent != nil {
		fmt.Printf("critical exponent:      %.4f\n", *meta.CriticalExponent)
	}

	if plot {
		fmt.Println()
		plotFit(fit)
	}
	return nil
}

func solveCritical(cmd *cobra.Command, args []string) error {
	ratios := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("ratio %d: %w", i+1, err)
		}
		ratios[i] = v
	}

	d, err := critexp.SolveRatios(ratios, critexp.WithTolerance(tolerance))
	if err != nil {
		return err
	}
	fmt.Printf("critical exponent: %.6f\n", d)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(vary) == 0 {
		return fmt.Errorf("at least one --vary is required (params: %s)", strings.Join(sweep.Params, ", "))
	}

	base, _, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	var grid sweep.Grid
	for _, v := range vary {
		name, values, ok := strings.Cut(v, "=")
		if !ok {
			return fmt.Errorf("--vary %q must be name=values", v)
		}
		vals, err := sweep.ParseValues(values)
		if err != nil {
			return fmt.Errorf("--vary %s: %w", name, err)
		}
		grid.Params = append(grid.Params, name)
		grid.Values = append(grid.Values, vals)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sweeping %d cells...\n\n", grid.Size())
	start := time.Now()
	rows, err := sweep.Run(ctx, base, grid, sweep.Options{Workers: workers, Logger: logger})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := append([]string{"CELL"}, upper(grid.Params)...)
	header = append(header, "BOX", "CRITICAL", "GAP", "NOTE")
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, row := range rows {
		cols := []string{strconv.Itoa(row.Cell)}
		for _, name := range grid.Params {
			cols = append(cols, strconv.FormatFloat(row.Params[name], 'g', 4, 64))
		}
		note := ""
		if row.Err != nil {
			note = row.Err.Error()
		}
		cols = append(cols, formatDim(row.BoxDimension), formatDim(row.CriticalExponent), formatDim(row.Gap()), note)
		fmt.Fprintln(w, strings.Join(cols, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ncompleted in %v\n", time.Since(start))
	if best, ok := sweep.Best(rows, sweep.Row.Gap); ok {
		fmt.Printf("closest agreement: cell %d (gap %.4f)\n", best.Cell, best.Gap())
	}
	return nil
}

func upper(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToUpper(n)
	}
	return out
}

func formatDim(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func comparePresets(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%-12s  %-8s  %-12s  %-12s  %-10s\n", "preset", "points", "box_dim", "critical", "time_ms")
	fmt.Fprintln(out, strings.Repeat("-", 62))

	var failed []string
	for _, name := range args {
		cfg := config.GetPreset(name)
		if cfg == nil {
			fmt.Fprintf(out, "%-12s  error: unknown preset\n", name)
			failed = append(failed, name)
			continue
		}
		cfg.Seed = 1
		if cmd.Flags().Changed("seed") {
			cfg.Seed = seed
		}
		if cmd.Flags().Changed("points") {
			cfg.Points = numPoints
		}

		result, err := experiment.New(cfg).WithLogger(logger).Run(ctx)
		if err != nil {
			fmt.Fprintf(out, "%-12s  error: %v\n", name, err)
			failed = append(failed, name)
			continue
		}

		fmt.Fprintf(out, "%-12s  %8d  %12.4f  %12s  %10.2f\n",
			name, cfg.Points, result.BoxDimension, formatDim(result.CriticalExponent),
			float64(result.Elapsed.Microseconds())/1000)
	}

	if len(failed) > 0 {
		return fmt.Errorf("compare failed for %d of %d presets: %s", len(failed), len(args), strings.Join(failed, ", "))
	}
	return nil
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
	fmt.Fprintln(w, "ID\tTIME\tPOINTS\tP1\tP2\tR1\tR2\tR3\tBOX\tCRITICAL")

	for _, run := range runs {
		crit := "-"
		if run.CriticalExponent != nil {
			crit = formatDim(*run.CriticalExponent)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.4f\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Points,
			run.P1, run.P2,
			run.R1, run.R2, run.R3,
			run.BoxDimension,
			crit,
		)
	}

	return w.Flush()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	points, err := st.LoadPoints(args[0])
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteCSV(os.Stdout, points)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	points, err := st.LoadPoints(runID)
	if err != nil {
		return err
	}
	if !points.IndicesContiguous() {
		logger.Warn("stored run has non-contiguous indices", "run", runID)
	}

	return storage.ExportJSON(os.Stdout, *meta, points)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	points, err := st.LoadPoints(args[0])
	if err != nil {
		return err
	}
	return export.PointsToSVG(os.Stdout, points, svgSize, svgColor)
}
