package main

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"text/tabwriter"
	"time"

	"github.com/ijhewaratne/dh_pipe_sizing_go/pipe_sizing"
	"github.com/ijhewaratne/dh_pipe_sizing_go/runstore"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	config_path  string
	log_level    string
	pprof_enable bool
	profile_file *os.File
	logger       *zap.Logger
	cfg          *pipe_sizing.Config
	started_at   time.Time
}

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "dhps",
		Short:         "District heating pipe sizing: per-segment DN choice, hydraulics, heat loss and NPV",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return opts.setup()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.config_path, "config", "c", "", "project configuration file (yaml, toml, json)")
	rootCmd.PersistentFlags().StringVar(&opts.log_level, "log-level", "", "overrides log.level")
	rootCmd.PersistentFlags().BoolVar(&opts.pprof_enable, "pprof", false, "profile the run and save it to cpu.prof")

	rootCmd.AddCommand(optimizeCmd(opts))
	rootCmd.AddCommand(evaluateCmd(opts))
	rootCmd.AddCommand(catalogCmd(opts))
	rootCmd.AddCommand(runsCmd(opts))

	err := rootCmd.ExecuteContext(context.Background())
	if terr := opts.teardown(); err == nil {
		err = terr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (o *options) setup() error {
	cfg, err := pipe_sizing.LoadConfig(o.config_path)
	if err != nil {
		return err
	}
	if o.log_level != "" {
		cfg.Log.Level = o.log_level
	}
	logger, err := pipe_sizing.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = logger

	if o.pprof_enable {
		f, err := os.Create("cpu.prof")
		if err != nil {
			return err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return err
		}
		o.profile_file = f
	}

	o.started_at = time.Now()
	return nil
}

func (o *options) teardown() error {
	if o.logger == nil {
		return nil
	}
	o.logger.Info("Finished", zap.Duration("elapsed_time", time.Since(o.started_at)))
	defer o.logger.Sync()

	if o.profile_file != nil {
		pprof.StopCPUProfile()
		return o.profile_file.Close()
	}
	return nil
}

//---------------------------------------------------------------------------------------------------//

func optimizeCmd(opts *options) *cobra.Command {
	var no_store bool

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Size every segment and write segments.csv, the summary and the annotated geometry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOptimize(cmd.Context(), opts, no_store)
		},
	}

	cmd.Flags().BoolVar(&no_store, "no-store", false, "do not persist the run even if run.store is set")
	return cmd
}

func runOptimize(ctx context.Context, opts *options, no_store bool) error {
	cfg, logger := opts.cfg, opts.logger
	if err := cfg.Validate(); err != nil {
		return err
	}

	segments, geometry, catalog, err := loadNetwork(cfg, logger)
	if err != nil {
		return err
	}

	optimizer, err := pipe_sizing.NewDiameterOptimizer(segments, cfg.Design, cfg.Economics, catalog, logger)
	if err != nil {
		return err
	}
	optimizer.SetWorkers(cfg.Run.Workers)

	result, err := optimizer.Run()
	if err != nil {
		return err
	}
	for _, msg := range result.Validation.Messages {
		logger.Warn("Validation", zap.String("message", msg))
	}

	recorder, err := pipe_sizing.NewRecorder(cfg.Outputs.Dir, pipe_sizing.SummaryFormatFromString(cfg.Outputs.Summary), logger)
	if err != nil {
		return err
	}
	if _, err := recorder.Save(optimizer.Segments(), result.Metrics, result.Validation, geometry); err != nil {
		return err
	}

	if cfg.Run.Store != "" && !no_store {
		store, err := runstore.Open(cfg.Run.Store, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.SaveRun(ctx, opts.config_path, result.Metrics, result.Validation)
		if err != nil {
			return err
		}
		fmt.Println(id)
	}

	return nil
}

func evaluateCmd(opts *options) *cobra.Command {
	var assignment_path string
	var run_id string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a given DN assignment and report soft constraint violations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluate(cmd.Context(), opts, assignment_path, run_id)
		},
	}

	cmd.Flags().StringVarP(&assignment_path, "assignment", "a", "", "CSV with seg_id and DN columns")
	cmd.Flags().StringVar(&run_id, "run", "", "take the assignment of a stored run")
	cmd.MarkFlagsMutuallyExclusive("assignment", "run")
	cmd.MarkFlagsOneRequired("assignment", "run")
	return cmd
}

func runEvaluate(ctx context.Context, opts *options, assignment_path string, run_id string) error {
	cfg, logger := opts.cfg, opts.logger
	if err := cfg.Validate(); err != nil {
		return err
	}

	var assignment pipe_sizing.Assignment
	var err error
	if run_id != "" {
		if cfg.Run.Store == "" {
			return errors.New("run.store is not set")
		}
		store, err := runstore.Open(cfg.Run.Store, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		assignment, err = store.Assignment(ctx, run_id)
		if err != nil {
			return err
		}
	} else {
		assignment, err = pipe_sizing.LoadAssignmentFile(assignment_path)
		if err != nil {
			return err
		}
	}

	segments, _, catalog, err := loadNetwork(cfg, logger)
	if err != nil {
		return err
	}
	optimizer, err := pipe_sizing.NewDiameterOptimizer(segments, cfg.Design, cfg.Economics, catalog, logger)
	if err != nil {
		return err
	}

	metrics, err := optimizer.EvaluateQuick(assignment)
	if err != nil {
		return err
	}
	validation := pipe_sizing.NewValidation(metrics, cfg.Design)

	return pipe_sizing.WriteSummary(os.Stdout, pipe_sizing.NewSummary(metrics, validation),
		pipe_sizing.SummaryFormatFromString(cfg.Outputs.Summary))
}

func catalogCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [catalog-csv]",
		Short: "Load and check a pipe catalog and list its diameters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := opts.cfg.Inputs.Catalog
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no catalog given")
			}
			catalog, err := pipe_sizing.LoadCatalogFile(path)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DN\td_inner_m\td_outer_m\theat_loss\tcost_eur_per_m")
			for _, e := range catalog.Entries() {
				fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%s %g\t%.2f\n",
					e.DN, e.DInnerM, e.DOuterM, e.HeatLoss.Mode, e.HeatLoss.Value, e.CostEurPerM)
			}
			return w.Flush()
		},
	}
}

func runsCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.cfg.Run.Store == "" {
				return errors.New("run.store is not set")
			}
			store, err := runstore.Open(opts.cfg.Run.Store, opts.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "id\tcreated_at\tsegments\tnpv_eur\tv_max\tok\tlabel")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%.0f\t%.3f\t%t\t%s\n",
					r.ID, r.CreatedAt, r.SegmentCount, r.NPVEur, r.VMax, r.ValidationOK, r.Label)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs, 0 for all")
	return cmd
}

//---------------------------------------------------------------------------------------------------//

// loadNetwork reads segments, the optional geometry and the catalog named by cfg.
func loadNetwork(cfg *pipe_sizing.Config, logger *zap.Logger) ([]pipe_sizing.Segment, *pipe_sizing.SegmentGeometry, *pipe_sizing.PipeCatalog, error) {
	catalog, err := pipe_sizing.LoadCatalogFile(cfg.Inputs.Catalog)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("Catalog loaded", zap.String("path", cfg.Inputs.Catalog), zap.Int("entries", catalog.Len()))

	segments, err := pipe_sizing.LoadSegmentsFile(cfg.Inputs.Segments)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("Segments loaded", zap.String("path", cfg.Inputs.Segments), zap.Int("segments", len(segments)))

	var geometry *pipe_sizing.SegmentGeometry
	if cfg.Inputs.Geometry != "" {
		geometry, err = pipe_sizing.LoadSegmentGeometryFile(cfg.Inputs.Geometry)
		if err != nil {
			return nil, nil, nil, err
		}
		if unresolved := pipe_sizing.FillLengthsFromGeometry(segments, geometry); len(unresolved) > 0 {
			logger.Warn("Segments without length", zap.Strings("seg_ids", unresolved))
		}
	}

	n, err := pipe_sizing.FillFlowsFromHeatLoad(segments, cfg.Design)
	if err != nil {
		return nil, nil, nil, err
	}
	if n > 0 {
		logger.Info("Flows derived from heat load", zap.Int("segments", n))
	}

	return segments, geometry, catalog, nil
}
