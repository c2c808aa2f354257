package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oisee/rv32-kernels/pkg/fixed"
	"github.com/oisee/rv32-kernels/pkg/hanoi"
	"github.com/oisee/rv32-kernels/pkg/harness"
	"github.com/oisee/rv32-kernels/pkg/result"
	"github.com/oisee/rv32-kernels/pkg/verify"
)

// errFailed makes the process exit non-zero after a failure was printed.
var errFailed = errors.New("checks failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	rootCmd := newRootCmd(a, os.Stderr)
	err := rootCmd.ExecuteContext(ctx)
	if ferr := a.finish(context.Background()); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rvkern",
		Short:         "Gray-code Hanoi and fixed-point rsqrt kernels with a cycle-counting harness",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, stderr)
		},
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file")
	pf.StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "text", "Log format (text, json)")
	pf.StringVar(&a.trace, "trace", "none", "Trace exporter (none, stdout)")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(
		newHanoiCmd(),
		newRSqrtCmd(),
		newDistanceCmd(),
		newRunCmd(a),
		newSweepCmd(a),
		newProbeCmd(a),
		newReportCmd(),
	)
	return rootCmd
}

func newHanoiCmd() *cobra.Command {
	var verifyMoves bool
	var reference bool

	cmd := &cobra.Command{
		Use:   "hanoi",
		Short: "Print the three-disk solution from the Gray-code solver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var moves [hanoi.NumMoves]hanoi.Move
			if reference {
				hanoi.Reference(&moves)
			} else {
				hanoi.Generate(&moves)
			}
			for i, m := range moves {
				fmt.Fprintf(out, "%d: move disk %d from %c to %c\n", i+1, m.Disk, m.From, m.To)
			}

			if !verifyMoves {
				return nil
			}
			state, err := hanoi.Replay(moves[:])
			if err != nil {
				fmt.Fprintf(out, "Replay: %v\n", err)
				return errFailed
			}
			if !hanoi.Solved(state) {
				fmt.Fprintln(out, "Replay: legal but not solved")
				return errFailed
			}
			if m, ok := hanoi.Compare(hanoi.Expected, moves); !ok {
				fmt.Fprintf(out, "Replay: differs from optimal at move %d: %s vs %s\n",
					m.Index+1, m.Observed, m.Expected)
				return errFailed
			}
			fmt.Fprintln(out, "Replay: legal, solved, optimal")
			return nil
		},
	}
	cmd.Flags().BoolVar(&verifyMoves, "verify", false, "Replay the moves and check legality")
	cmd.Flags().BoolVar(&reference, "reference", false, "Use the recursive solver instead")
	return cmd
}

func newRSqrtCmd() *cobra.Command {
	var soft bool

	cmd := &cobra.Command{
		Use:   "rsqrt x [x...]",
		Short: "Evaluate the 16.16 fixed-point reciprocal square root",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, arg := range args {
				v, err := strconv.ParseUint(arg, 0, 32)
				if err != nil {
					return fmt.Errorf("invalid input %q: %w", arg, err)
				}
				x := uint32(v)
				y := fixed.RSqrt(x)
				if soft {
					y = fixed.RSqrtSoft(x)
				}
				fmt.Fprintf(out, "rsqrt(%d) = %d (%.6f, exact %.6f)\n",
					x, y, fixed.ToFloat(y), fixed.Exact(x))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&soft, "soft", false, "Use the software CLZ and multiply path")
	return cmd
}

func newDistanceCmd() *cobra.Command {
	var soft bool

	cmd := &cobra.Command{
		Use:   "distance dx dy dz",
		Short: "Evaluate the fixed-point 3D vector length",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [3]int32
			for i, arg := range args {
				n, err := strconv.ParseInt(arg, 0, 32)
				if err != nil {
					return fmt.Errorf("invalid component %q: %w", arg, err)
				}
				v[i] = int32(n)
			}
			d := fixed.Distance3D(v[0], v[1], v[2])
			if soft {
				d = fixed.Distance3DSoft(v[0], v[1], v[2])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "distance(%d, %d, %d) = %d\n", v[0], v[1], v[2], d)
			return nil
		},
	}
	cmd.Flags().BoolVar(&soft, "soft", false, "Use the software multiply path")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var reference bool

	cmd := &cobra.Command{
		Use:   "run [suite...]",
		Short: "Run the test suites under the cycle and instruction counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = a.cfg.Suites
			}

			opts := []harness.Option{
				harness.WithLogger(a.logger),
				harness.WithMetrics(a.metrics),
			}
			if reference {
				opts = append(opts, harness.WithGenerator("reference", hanoi.Reference))
			}
			rep, err := harness.NewRunner(opts...).Run(cmd.Context(), names...)
			if err != nil {
				return err
			}
			if err := harness.Print(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			if !rep.Passed() {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reference, "reference", false, "Also check the recursive Hanoi solver")
	return cmd
}

func newSweepCmd(a *app) *cobra.Command {
	var lo, hi, chunk uint32
	var workers, maxFindings int
	var checkpoint, output string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Check RSqrt properties exhaustively over an input range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := a.cfg.Sweep
			flags := cmd.Flags()
			if flags.Changed("lo") {
				sc.Lo = lo
			}
			if flags.Changed("hi") {
				sc.Hi = hi
			}
			if flags.Changed("chunk") {
				sc.Chunk = chunk
			}
			if flags.Changed("workers") {
				sc.Workers = workers
			}
			if flags.Changed("max-findings") {
				sc.MaxFindings = maxFindings
			}
			if flags.Changed("checkpoint") {
				sc.Checkpoint = checkpoint
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "RSqrt sweep\n")
			fmt.Fprintf(out, "  Range: [%d, %d]\n", sc.Lo, sc.Hi)
			fmt.Fprintf(out, "  Chunk: %d\n", sc.Chunk)
			fmt.Fprintf(out, "  Workers: %d\n", sc.Workers)
			fmt.Fprintln(out)

			rep, err := verify.Sweep(cmd.Context(), verify.Config{
				Lo:      sc.Lo,
				Hi:      sc.Hi,
				Chunk:   sc.Chunk,
				Workers: sc.Workers,
				Bounds: verify.Bounds{
					MonotoneSlack: sc.MonotoneSlack,
					MaxAbsError:   sc.MaxAbsError,
					MaxRelError:   sc.MaxRelError,
					ScaleSlack:    sc.ScaleSlack,
				},
				MaxFindings: sc.MaxFindings,
				Checkpoint:  sc.Checkpoint,
			}, verify.WithLogger(a.logger), verify.WithMetrics(a.metrics))
			if err != nil {
				return err
			}

			printReport(out, rep)
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := result.WriteJSON(f, rep); err != nil {
					return err
				}
				fmt.Fprintf(out, "Written to %s\n", output)
			}
			if !rep.Passed() {
				return errFailed
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Uint32Var(&lo, "lo", 2, "First input")
	f.Uint32Var(&hi, "hi", 1<<24, "Last input (inclusive)")
	f.Uint32Var(&chunk, "chunk", 1<<16, "Inputs per work item")
	f.IntVar(&workers, "workers", 0, "Number of workers (0 = NumCPU)")
	f.IntVar(&maxFindings, "max-findings", 1000, "Findings kept in the report (0 = all)")
	f.StringVar(&checkpoint, "checkpoint", "", "Checkpoint file for resume")
	f.StringVar(&output, "output", "", "Output JSON file path")
	return cmd
}

func newProbeCmd(a *app) *cobra.Command {
	var samples int
	var seed uint64
	var limit int32

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Probe Distance3D accuracy on seeded random vectors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pc := a.cfg.Probe
			flags := cmd.Flags()
			if flags.Changed("samples") {
				pc.Samples = samples
			}
			if flags.Changed("seed") {
				pc.Seed = seed
			}
			if flags.Changed("limit") {
				pc.Limit = limit
			}

			rep := verify.Probe(verify.ProbeConfig{
				Samples:     pc.Samples,
				Seed:        pc.Seed,
				Limit:       pc.Limit,
				MaxFindings: a.cfg.Sweep.MaxFindings,
			})
			a.logger.Info("probe finished",
				slog.Int("samples", rep.Samples),
				slog.Float64("max_rel", rep.MaxRel),
				slog.Int("findings", len(rep.Findings)))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Distance3D probe\n")
			fmt.Fprintf(out, "  Samples: %d (seed %d, components in [-%d, %d])\n", rep.Samples, pc.Seed, pc.Limit, pc.Limit)
			fmt.Fprintf(out, "  Mean relative error: %.6f\n", rep.MeanRel)
			fmt.Fprintf(out, "  Max relative error: %.6f at (%d, %d, %d)\n",
				rep.MaxRel, rep.Worst[0], rep.Worst[1], rep.Worst[2])
			fmt.Fprintf(out, "  Native/soft mismatches: %d\n", len(rep.Findings))
			for _, f := range rep.Findings {
				fmt.Fprintf(out, "    %s: got %d want %s\n", f.Detail, f.Got, f.Want)
			}
			if len(rep.Findings) > 0 {
				return errFailed
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&samples, "samples", 100000, "Number of random vectors")
	f.Uint64Var(&seed, "seed", 1, "PCG seed")
	f.Int32Var(&limit, "limit", 4000, "Component magnitude limit")
	return cmd
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report [sweep.json]",
		Short: "Print a saved sweep report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rep, err := result.ReadJSON(f)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)
			if !rep.Passed() {
				return errFailed
			}
			return nil
		},
	}
}

func printReport(out io.Writer, rep *result.Report) {
	fmt.Fprintf(out, "Checked %d inputs in [%d, %d]\n", rep.Checked, rep.Lo, rep.Hi)

	props := make([]string, 0, len(rep.Counts))
	for p := range rep.Counts {
		props = append(props, p)
	}
	sort.Strings(props)
	for _, p := range props {
		fmt.Fprintf(out, "  %s: %d\n", p, rep.Counts[p])
	}
	for i, f := range rep.Findings {
		fmt.Fprintf(out, "  [%d] %s x=%d got %d want %s", i+1, f.Property, f.Input, f.Got, f.Want)
		if f.Detail != "" {
			fmt.Fprintf(out, " (%s)", f.Detail)
		}
		fmt.Fprintln(out)
	}
	if rep.Passed() {
		fmt.Fprintln(out, "PASSED")
	} else {
		fmt.Fprintln(out, "FAILED")
	}
}
