package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rigidsim/internal/analysis"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/export"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/storage"
	"github.com/san-kum/rigidsim/internal/units"
	"github.com/san-kum/rigidsim/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dataDir    string
	dt         float64
	duration   float64
	controller string
	version    string
	configFile string
	preset     string
	// Vehicle geometry and tuning
	updateMatrices bool
	tolerance      float64
	wheelRadius    float64
	halfAxle       float64
	// Initial pose
	posX    float64
	posY    float64
	posZ    float64
	heading float64
	// Controller parameters
	vel    float64
	omega  float64
	kp     float64
	ki     float64
	kd     float64
	target float64
	// Noise
	seed     int64
	errorStd []float64
	// Ensemble
	runs   int
	spread float64
	// Plotting and analysis
	plotVars    []string
	plotXY      bool
	analyzeVar  string
	settleBand  float64
	svgOut      string
	strokeColor string
)

var cliViper = viper.New()

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rigidsim",
		Short:         "rigid-body motion dynamics lab",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			dataDir = cliViper.GetString(dataKey)
			if err := configureLog(cliViper); err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"command": cmd.Name(), "data": dataDir}).Debug("starting")
			return nil
		},
	}

	cliViper.SetDefault(dataKey, ".rigidsim")
	_ = cliViper.BindEnv(dataKey, "RIGIDSIM_DATA")
	rootCmd.PersistentFlags().String(dataKey, cliViper.GetString(dataKey), "data directory")

	cliViper.SetDefault(logLevelKey, logrus.WarnLevel.String())
	_ = cliViper.BindEnv(logLevelKey, "RIGIDSIM_LOG_LEVEL")
	rootCmd.PersistentFlags().String(logLevelKey, cliViper.GetString(logLevelKey),
		fmt.Sprintf("minimum logging level, one of %v", expectedLogLevels))

	cliViper.SetDefault(logFormatKey, "text")
	_ = cliViper.BindEnv(logFormatKey, "RIGIDSIM_LOG_FORMAT")
	rootCmd.PersistentFlags().String(logFormatKey, cliViper.GetString(logFormatKey),
		fmt.Sprintf("log format, one of %v", expectedLogFormats))

	_ = cliViper.BindPFlags(rootCmd.PersistentFlags())

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [model]",
		Short: "run several copies of a simulation in parallel",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnsemble,
	}
	addSimFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 4, "number of runs")
	ensembleCmd.Flags().Float64Var(&spread, "spread", 0.5, "initial x/y offset between runs")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run simulation with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotVars, "vars", nil, "state variables to plot")
	plotCmd.Flags().BoolVar(&plotXY, "xy", false, "plot the planar trajectory")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the planar trajectory as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().StringVar(&strokeColor, "stroke", "#00ffff", "path color")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and step-response analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeVar, "var", "", "state variable (default first)")
	analyzeCmd.Flags().Float64Var(&target, "target", 0, "set point for step-response metrics")
	analyzeCmd.Flags().Float64Var(&settleBand, "band", 0.02, "settling band as a fraction of the initial error")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).Delete(args[0])
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Fprintf(out, "no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Fprintf(out, "  %s\n", p)
			}
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models and their controllers",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			registry := experiment.NewRegistry()
			for _, m := range registry.ListModels() {
				fmt.Fprintf(out, "%s: %v\n", m, registry.ListControllers(m))
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init-config [model] [path]",
		Short: "write a default config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			if err := config.Save(args[1], cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[1])
			return nil
		},
	}
	addSimFlags(initCmd)

	rootCmd.AddCommand(runCmd, ensembleCmd, liveCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, analyzeCmd, deleteCmd, presetsCmd, modelsCmd, initCmd)
	rootCmd.AddCommand(newTuneCmd(), newBatchCmd(), newSweepCmd(), newMonteCarloCmd())
	return rootCmd
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration")
	f.StringVar(&controller, "controller", "", "controller (see models)")
	f.StringVar(&version, "version", "v1", "diffdrive dynamics version (v1, v2, v3)")
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.BoolVar(&updateMatrices, "update-matrices", false, "propagate pose covariance (diffdrive)")
	f.Float64Var(&tolerance, "tol", 0, "straight-line tolerance on angular velocity (diffdrive v1)")
	f.Float64Var(&wheelRadius, "r", config.DefaultWheelRadius, "wheel radius (diffdrive)")
	f.Float64Var(&halfAxle, "l", config.DefaultHalfAxle, "half axle length (diffdrive)")
	f.Float64Var(&posX, "x", 0, "initial x")
	f.Float64Var(&posY, "y", 0, "initial y")
	f.Float64Var(&posZ, "z", 0, "initial z, positive down (quadrotor)")
	f.Float64Var(&heading, "theta", 0, "initial heading (diffdrive) or pitch (quadrotor)")
	f.Float64Var(&vel, "v", config.DefaultVelocity, "linear velocity")
	f.Float64Var(&omega, "w", 0, "angular velocity")
	f.Float64Var(&kp, "kp", config.DefaultKp, "pid kp")
	f.Float64Var(&ki, "ki", config.DefaultKi, "pid ki")
	f.Float64Var(&kd, "kd", config.DefaultKd, "pid kd")
	f.Float64Var(&target, "target", 0, "controller target")
	f.Int64Var(&seed, "seed", 0, "noise seed")
	f.Float64SliceVar(&errorStd, "error-std", nil, "std of the two diffdrive error terms, as a,b")
}

// buildConfig layers the model defaults, a preset, a config file and
// finally any flags set on the command line.
func buildConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultFor(model)

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg = p
	}

	// Config file overrides preset
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		cfg.Model = model
	}

	f := cmd.Flags()
	if f.Changed("dt") {
		cfg.Dt = dt
		cfg.Quadrotor.Dt = dt
	}
	if f.Changed("time") {
		cfg.Duration = duration
	}
	if f.Changed("controller") {
		cfg.Controller = controller
	}
	if f.Changed("version") {
		cfg.DiffDrive.Version = version
	}
	if f.Changed("update-matrices") {
		cfg.DiffDrive.UpdateMatrices = updateMatrices
	}
	if f.Changed("tol") {
		cfg.DiffDrive.Tolerance = tolerance
	}
	if f.Changed("r") {
		cfg.DiffDrive.WheelRadius = wheelRadius
	}
	if f.Changed("l") {
		cfg.DiffDrive.HalfAxle = halfAxle
	}
	if f.Changed("x") {
		cfg.InitState.X = posX
	}
	if f.Changed("y") {
		cfg.InitState.Y = posY
	}
	if f.Changed("z") {
		cfg.InitState.Z = posZ
	}
	if f.Changed("theta") {
		cfg.InitState.Theta = heading
	}
	if f.Changed("v") {
		cfg.ControllerParams.V = vel
	}
	if f.Changed("w") {
		cfg.ControllerParams.W = omega
	}
	if f.Changed("kp") {
		cfg.ControllerParams.Kp = kp
	}
	if f.Changed("ki") {
		cfg.ControllerParams.Ki = ki
	}
	if f.Changed("kd") {
		cfg.ControllerParams.Kd = kd
	}
	if f.Changed("target") {
		cfg.ControllerParams.Target = target
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("error-std") {
		if len(errorStd) != 2 {
			return nil, fmt.Errorf("error-std needs two values, got %d", len(errorStd))
		}
		cfg.DiffDrive.ErrorStd = [2]float64{errorStd[0], errorStd[1]}
	}
	// Ensembles fall back to the flag default when the config asks for a single run.
	if fl := f.Lookup("runs"); fl != nil && (fl.Changed || cfg.Runs <= 1) {
		cfg.Runs = runs
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "running %s simulation...\n", cfg.Model)
	start := time.Now()

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(storage.MetadataFor(cfg), result)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "completed in %v\n", elapsed)
	fmt.Fprintf(out, "run id: %s\n", runID)
	printResult(out, result)
	return nil
}

func printResult(out io.Writer, result *sim.Result) {
	fmt.Fprintf(out, "steps: %d\n", result.StepsTaken)
	for _, e := range result.Errors {
		fmt.Fprintf(out, "warning: %v\n", e)
	}
	fmt.Fprintln(out, "\nfinal state:")
	for i, v := range result.Final() {
		name := result.Names[i]
		if physics.IsAngle(name) {
			fmt.Fprintf(out, "  %s: %.6f (%.2f deg)\n", name, v, units.RadToDegrees(v))
			continue
		}
		fmt.Fprintf(out, "  %s: %.6f\n", name, v)
	}
	fmt.Fprintln(out, "\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Fprintf(out, "  %s: %.6f\n", name, val)
	}
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := exp.Ensemble(cmd.Context(), spread)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "completed %d runs in %v\n", len(results), time.Since(start))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tID\tSTEPS\tFINAL")
	for i, result := range results {
		runID, err := st.Save(storage.MetadataFor(cfg), result)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", i, runID, result.StepsTaken, formatState(result.Names, result.Final()))
	}
	return w.Flush()
}

func formatState(names []string, values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%s=%.3f", names[i], v)
	}
	return strings.Join(parts, " ")
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m, err := viz.NewModel(cfg.Model, cfg.Dt, func() (viz.Stepper, error) {
		exp, err := experiment.New(cfg)
		if err != nil {
			return nil, err
		}
		return exp.Runner(), nil
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tDURATION\tDT\tVERSION\tCTRL\tNAME")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Version,
			run.Controller,
			run.Name,
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

	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "model: %s\n", meta.Model)
	fmt.Fprintf(out, "samples: %d\n\n", len(result.States))

	var graph string
	if plotXY {
		xName, yName := "X", "Y"
		if meta.Model == config.ModelQuadrotor {
			xName, yName = "x", "y"
		}
		graph, err = viz.PlotTrajectory(result, xName, yName, 60, 20)
	} else {
		graph, err = viz.PlotColumns(result, plotVars, 80, 10)
	}
	if err != nil {
		return err
	}
	fmt.Fprint(out, graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}

	if len(result.States) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(cmd.OutOrStdout())
	defer w.Flush()

	header := append([]string{"time"}, result.Names...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i, state := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64)}
		for _, val := range state {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}


func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}

	xName, yName := "X", "Y"
	if meta.Model == config.ModelQuadrotor {
		xName, yName = "x", "y"
	}

	out := cmd.OutOrStdout()
	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return export.TrajectoryToSVG(out, result, xName, yName, 800, 600, strokeColor)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}
	if len(result.Names) == 0 {
		return fmt.Errorf("no data")
	}

	name := analyzeVar
	if name == "" {
		name = result.Names[0]
	}
	data, err := result.Column(name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "frequency analysis: %s\n", meta.ID)
	fmt.Fprintf(out, "model: %s\n\n", meta.Model)

	_, amps, err := analysis.Spectrum(data, meta.Dt)
	if err != nil {
		return err
	}
	plotData := amps[:max(2, len(amps)/4)]
	fmt.Fprintln(out, asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("amplitude spectrum (%s)", name)),
	))
	fmt.Fprintln(out)

	freq, err := analysis.DominantFrequency(data, meta.Dt)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Fprintf(out, "period: %.3f s\n", 1.0/freq)
	}

	if cmd.Flags().Changed("target") {
		resp, err := analysis.StepResponse(data, result.Times, target, settleBand)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nstep response to %.3f:\n", target)
		fmt.Fprintf(out, "  overshoot: %.1f%%\n", 100*resp.Overshoot)
		if math.IsNaN(resp.SettlingTime) {
			fmt.Fprintln(out, "  settling time: not settled")
		} else {
			fmt.Fprintf(out, "  settling time: %.3f s\n", resp.SettlingTime)
		}
		fmt.Fprintf(out, "  steady-state error: %.6f\n", resp.SteadyStateError)
	}
	return nil
}
