package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yuya-takeyama/strict-resize-sync/internal/config"
	"github.com/yuya-takeyama/strict-resize-sync/internal/logging"
	"github.com/yuya-takeyama/strict-resize-sync/internal/report"
	"github.com/yuya-takeyama/strict-resize-sync/internal/watch"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/enumerate"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/executor"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/logger"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/planner"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/resize"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/s3client"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

var (
	configFile       string
	sizes            []string
	excludes         []string
	extensions       []string
	dryRun           bool
	deleteFlag       bool
	quiet            bool
	concurrency      int
	enumerateWorkers int
	planJSONFile     string
	resultJSONFile   string
	s3URI            string
	profile          string
	region           string
	watchFlag        bool
	debounce         time.Duration
	verbosity        int
	logFormat        string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "strict-resize-sync [SourceDir] [DerivativeDir]",
		Short: "Keep resized derivatives of a photo tree in sync",
		Long: `strict-resize-sync mirrors a tree of source images into a tree of resized
derivatives, one per configured size, and only renders what is missing.`,
		Version:      fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
		Args:         cobra.RangeArgs(0, 2),
		SilenceUsage: true,
		RunE:         run,
	}

	flags := rootCmd.Flags()
	flags.StringVar(&configFile, "config", "", "Path to a YAML config file")
	flags.StringArrayVar(&sizes, "size", nil, "Size variant name=WxH[:fit|fill][@quality] (multiple allowed)")
	flags.StringSliceVar(&excludes, "exclude", nil, "Exclude patterns relative to the source root (multiple allowed)")
	flags.StringSliceVar(&extensions, "extension", nil, "Image extensions to process (default jpg,jpeg)")
	flags.BoolVar(&dryRun, "dryrun", false, "Shows operations without executing")
	flags.BoolVar(&deleteFlag, "delete", false, "Delete derivatives that no source maps to")
	flags.BoolVar(&quiet, "quiet", false, "Suppress non-error output")
	flags.IntVar(&concurrency, "concurrency", 8, "Number of concurrent resize operations")
	flags.IntVar(&enumerateWorkers, "enumerate-workers", 8, "Number of directory readers while enumerating")
	flags.StringVar(&planJSONFile, "plan-json-file", "", "Path to output plan as JSON file")
	flags.StringVar(&resultJSONFile, "result-json-file", "", "Path to output result as JSON file")
	flags.StringVar(&s3URI, "s3-uri", "", "Store derivatives in S3 (s3://bucket/prefix), laid out as under DerivativeDir")
	flags.StringVar(&profile, "profile", "", "AWS profile to use")
	flags.StringVar(&region, "region", "", "AWS region (uses default if not specified)")
	flags.BoolVar(&watchFlag, "watch", false, "Keep running and resize as sources change")
	flags.DurationVar(&debounce, "debounce", 500*time.Millisecond, "Quiet period before acting on changes in watch mode")
	flags.IntVarP(&verbosity, "verbosity", "v", 1, "Log verbosity: 0=error, 1=warn, 2=info, 3=debug")
	flags.StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	return rootCmd
}

func run(cmd *cobra.Command, args []string) error {
	if err := logging.Init(verbosity, logFormat); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	syncLogger := &logger.SyncLogger{
		IsDryRun: dryRun,
		IsQuiet:  quiet,
	}

	r := &runner{
		cfg:      cfg,
		store:    st,
		planner:  planner.New(st, syncLogger),
		executor: executor.NewExecutor(resize.NewProcessor(), st, syncLogger, cfg.Concurrency),
		logger:   syncLogger,
	}

	if !watchFlag {
		_, err := r.runOnce(ctx)
		return err
	}
	return r.watch(ctx)
}

// loadConfig merges the config file, positional arguments and flags, in
// increasing precedence.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := &config.Config{}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	switch len(args) {
	case 2:
		cfg.SourceRoot, cfg.DerivativeRoot = args[0], args[1]
	case 1:
		return nil, fmt.Errorf("both SourceDir and DerivativeDir are required")
	}

	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Sizes = nil
		for _, s := range sizes {
			size, err := config.ParseSize(s)
			if err != nil {
				return nil, err
			}
			cfg.Sizes = append(cfg.Sizes, size)
		}
	}
	if flags.Changed("exclude") {
		cfg.Excludes = excludes
	}
	if flags.Changed("extension") {
		cfg.Extensions = extensions
	}
	if flags.Changed("delete") {
		cfg.Delete = deleteFlag
	}
	if flags.Changed("concurrency") || cfg.Concurrency == 0 {
		cfg.Concurrency = concurrency
	}
	if flags.Changed("enumerate-workers") || cfg.EnumerateWorkers == 0 {
		cfg.EnumerateWorkers = enumerateWorkers
	}
	if flags.Changed("s3-uri") {
		cfg.S3.URI = s3URI
	}
	if flags.Changed("profile") {
		cfg.S3.Profile = profile
	}
	if flags.Changed("region") {
		cfg.S3.Region = region
	}

	var err error
	if cfg.SourceRoot, err = absPath(cfg.SourceRoot); err != nil {
		return nil, err
	}
	if cfg.DerivativeRoot, err = absPath(cfg.DerivativeRoot); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func absPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.S3.URI == "" {
		return store.NewFSStore(cfg.DerivativeRoot, enumerate.Options{Extensions: cfg.Extensions}, cfg.EnumerateWorkers), nil
	}

	var configOpts []func(*awsconfig.LoadOptions) error
	if cfg.S3.Profile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(cfg.S3.Profile))
	}
	if cfg.S3.Region != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(cfg.S3.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return store.NewS3Store(s3client.NewAWSClient(awsCfg), cfg.S3.URI, cfg.DerivativeRoot, cfg.Extensions)
}

type runner struct {
	cfg      *config.Config
	store    store.Store
	planner  *planner.Planner
	executor *executor.Executor
	logger   *logger.SyncLogger
}

// runOnce plans and, unless dry-running, executes. The plan is returned for
// the watch loop.
func (r *runner) runOnce(ctx context.Context) (*planner.Plan, error) {
	startTime := time.Now()
	runID := report.NewRunID()
	log := logging.Component("run").With("run_id", runID.String())

	plan, err := r.plan(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("planned", "resize", plan.Resizes(), "delete", plan.Deletes(),
		"up_to_date", plan.UpToDate(), "fingerprint", plan.Fingerprint())

	if planJSONFile != "" {
		if err := report.WriteJSON(planJSONFile, report.BuildPlanResult(runID, plan)); err != nil {
			return nil, fmt.Errorf("failed to write plan JSON: %w", err)
		}
	}

	return plan, r.execute(ctx, log, runID, plan, startTime)
}

func (r *runner) plan(ctx context.Context) (*planner.Plan, error) {
	plan, err := r.planner.Plan(ctx, r.cfg.Engine(), r.cfg.Variants(), planner.Options{
		DeleteEnabled:    r.cfg.Delete,
		Excludes:         r.cfg.Excludes,
		Extensions:       r.cfg.Extensions,
		EnumerateWorkers: r.cfg.EnumerateWorkers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}
	return plan, nil
}

func (r *runner) execute(ctx context.Context, log *slog.Logger, runID uuid.UUID, plan *planner.Plan, startTime time.Time) error {
	if dryRun {
		for _, item := range plan.Items {
			switch item.Action {
			case planner.ActionResize:
				r.logger.Resize(item.Source, item.Target)
			case planner.ActionDelete:
				r.logger.Delete(item.Target)
			}
		}
		return nil
	}

	var results []executor.Result
	if !plan.IsEmpty() {
		if err := r.store.Prepare(ctx); err != nil {
			return err
		}
		results = r.executor.Execute(ctx, plan.Items)
	}

	if resultJSONFile != "" {
		if err := report.WriteJSON(resultJSONFile, report.BuildSyncResult(runID, results)); err != nil {
			return fmt.Errorf("failed to write result JSON: %w", err)
		}
	}

	summary := executor.Summarize(results)
	logging.PrintSummary(os.Stderr, quiet || plan.IsEmpty(), logging.Summary{
		Resized:      summary.Resized,
		Deleted:      summary.Deleted,
		UpToDate:     plan.UpToDate(),
		Errors:       summary.Failed,
		BytesWritten: summary.BytesWritten,
		Duration:     time.Since(startTime),
	})

	if summary.Failed > 0 {
		log.Error("run finished with failures", "failed", summary.Failed)
		return fmt.Errorf("%d operations failed", summary.Failed)
	}
	return nil
}

func (r *runner) watch(ctx context.Context) error {
	var gate watch.Gate
	log := logging.Component("watch")

	if plan, err := r.runOnce(ctx); err != nil {
		log.Error("initial run failed", "error", err)
	} else {
		gate.ShouldRun(plan.Fingerprint(), plan.IsEmpty())
	}

	var skipDirs []string
	if r.cfg.S3.URI == "" {
		skipDirs = append(skipDirs, r.cfg.DerivativeRoot)
	}

	w, err := watch.New(watch.Config{
		Root:       r.cfg.SourceRoot,
		SkipDirs:   skipDirs,
		Extensions: r.cfg.Extensions,
		Debounce:   debounce,
	}, func(ctx context.Context, paths []string) {
		startTime := time.Now()
		runID := report.NewRunID()
		runLog := logging.Component("run").With("run_id", runID.String())

		plan, err := r.plan(ctx)
		if err != nil {
			runLog.Error("plan failed", "error", err)
			return
		}
		if !gate.ShouldRun(plan.Fingerprint(), plan.IsEmpty()) {
			runLog.Debug("nothing new to do", "fingerprint", plan.Fingerprint())
			return
		}
		if planJSONFile != "" {
			if err := report.WriteJSON(planJSONFile, report.BuildPlanResult(runID, plan)); err != nil {
				runLog.Error("failed to write plan JSON", "error", err)
			}
		}
		if err := r.execute(ctx, runLog, runID, plan, startTime); err != nil {
			runLog.Error("run failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	return w.Run(ctx)
}
