package main

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/rigidsim/internal/automation"
	"github.com/san-kum/rigidsim/internal/optim"
	"github.com/san-kum/rigidsim/internal/storage"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	// Tuning
	tuneParams []string
	tuneMetric string
	tuneTrack  string
	tuneTop    int
	// Sweep
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	// Monte Carlo
	trials  int
	perturb float64
)

func newTuneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune [model]",
		Short: "grid search over config parameters",
		Long: `Runs every combination of the --param ranges and ranks them by a metric
(--metric) or by the RMS distance of a state variable from --target (--track).

  rigidsim tune quadrotor --controller altitude --target 2 \
    --param kp=1,2,4 --param kd=0.5,1 --track z`,
		Args: cobra.ExactArgs(1),
		RunE: runTune,
	}
	addSimFlags(cmd)
	f := cmd.Flags()
	f.StringArrayVar(&tuneParams, "param", nil, "parameter and its values, as name=a,b,c (repeatable)")
	f.StringVar(&tuneMetric, "metric", "", "minimise this metric")
	f.StringVar(&tuneTrack, "track", "", "minimise the RMS error of this state variable from --target")
	f.IntVar(&tuneTop, "top", 5, "number of trials to print")
	return cmd
}

func parseParam(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("bad param %q, want name=a,b,c", s)
	}
	var vals []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("param %s: %w", name, err)
		}
		vals = append(vals, v)
	}
	return name, vals, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	var score optim.Score
	switch {
	case tuneMetric != "" && tuneTrack != "":
		return fmt.Errorf("use either --metric or --track")
	case tuneMetric != "":
		score = optim.MetricScore(tuneMetric)
	case tuneTrack != "":
		score = optim.TrackingCost(tuneTrack, cfg.ControllerParams.Target)
	default:
		return fmt.Errorf("one of --metric or --track is required")
	}

	names := make([]string, len(tuneParams))
	ranges := make([][]float64, len(tuneParams))
	for i, p := range tuneParams {
		if names[i], ranges[i], err = parseParam(p); err != nil {
			return err
		}
	}
	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	results, err := g.Search(cmd.Context(), optim.ConfigBuilder(cfg), score)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ran %d trials\n", len(results))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSCORE\tPARAMS")
	for i, t := range results {
		if i >= tuneTop {
			break
		}
		if t.Err != nil {
			fmt.Fprintf(w, "%d\tfailed\t%s (%v)\n", i+1, formatParams(names, t.Params), t.Err)
			continue
		}
		fmt.Fprintf(w, "%d\t%.6g\t%s\n", i+1, t.Score, formatParams(names, t.Params))
	}
	return w.Flush()
}

func formatParams(names []string, params map[string]float64) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%g", n, params[n])
	}
	return strings.Join(parts, " ")
}

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run the steps of a scenario file and store each run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(afero.NewOsFs(), args[0])
			if err != nil {
				return err
			}
			st := storage.New(dataDir)
			if err := st.Init(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scenario %s: %d steps\n", sc.Name, len(sc.Steps))
			outcomes, runErr := automation.RunScenario(cmd.Context(), sc, st)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tID\tSTEPS\tFINAL")
			for _, o := range outcomes {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", o.Step, o.RunID, o.Result.StepsTaken, formatState(o.Result.Names, o.Result.Final()))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return runErr
		},
	}
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "run a simulation across a range of one parameter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			points, err := automation.RunSweep(cmd.Context(), &automation.Sweep{
				Base:  cfg,
				Param: sweepParam,
				Min:   sweepMin,
				Max:   sweepMax,
				Steps: sweepSteps,
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tFINAL\tMETRICS\n", strings.ToUpper(sweepParam))
			for _, p := range points {
				fmt.Fprintf(w, "%.4g\t%s\t%s\n", p.Value, formatState(p.Names, p.Final), formatMetrics(p.Metrics))
			}
			return w.Flush()
		},
	}
	addSimFlags(cmd)
	f := cmd.Flags()
	f.StringVar(&sweepParam, "param", "", "parameter to sweep (any config parameter, e.g. kp or quadrotor.mass)")
	f.Float64Var(&sweepMin, "min", 0, "first value")
	f.Float64Var(&sweepMax, "max", 1, "last value")
	f.IntVar(&sweepSteps, "steps", 5, "number of values")
	_ = cmd.MarkFlagRequired("param")
	return cmd
}

func formatMetrics(m map[string]float64) string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	for i, n := range names {
		names[i] = fmt.Sprintf("%s=%.4g", n, m[n])
	}
	return strings.Join(names, " ")
}

func newMonteCarloCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "run randomly perturbed trials and summarise the spread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarlo{
				Base:         cfg,
				Perturbation: perturb,
				Trials:       trials,
				Seed:         uint64(cfg.Seed),
			})
			if err != nil {
				return err
			}

			s := automation.MonteCarloStats(results)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trials: %d stable, %d unstable\n", s.Stable, s.Unstable)
			fmt.Fprintf(out, "final position mean: (%.6f, %.6f)\n", s.MeanX, s.MeanY)
			fmt.Fprintf(out, "final position variance: x %.6g, y %.6g\n", s.VarX, s.VarY)
			if !math.IsNaN(s.PredictedVariance) {
				fmt.Fprintf(out, "predicted position variance: %.6g (sampled %.6g)\n", s.PredictedVariance, s.VarX+s.VarY)
			}
			return nil
		},
	}
	addSimFlags(cmd)
	cmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	cmd.Flags().Float64Var(&perturb, "perturb", 0, "half width of the initial x/y box")
	return cmd
}
