// Command generate runs one blog generation from the command line and writes
// the results document next to the working directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	pipelineapp "github.com/seoblog/backend/internal/application/pipeline"
	"github.com/seoblog/backend/internal/bootstrap"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/logger"
	"github.com/seoblog/backend/internal/infrastructure/persistence"
	"github.com/seoblog/backend/internal/infrastructure/telemetry"
)

type options struct {
	envFile        string
	product        string
	niche          string
	audience       string
	keywords       string
	contentLength  string
	publishStatus  string
	skipQuality    bool
	skipPublishing bool
	outDir         string
	persist        bool
	logLevel       string
}

func main() {
	var o options
	flag.StringVar(&o.envFile, "env", "", "Optional .env file to load")
	flag.StringVar(&o.product, "product", "", "Product name (required)")
	flag.StringVar(&o.niche, "niche", "", "Product niche (required)")
	flag.StringVar(&o.audience, "audience", "", "Target audience (required)")
	flag.StringVar(&o.keywords, "keywords", "", "Comma separated target keywords")
	flag.StringVar(&o.contentLength, "length", "", "Desired content length, e.g. \"2000-3000 words\"")
	flag.StringVar(&o.publishStatus, "status", "", "WordPress post status (draft, publish, pending, private)")
	flag.BoolVar(&o.skipQuality, "skip-quality", false, "Skip the quality check stage")
	flag.BoolVar(&o.skipPublishing, "skip-publishing", false, "Skip publishing to WordPress")
	flag.StringVar(&o.outDir, "out", "", "Directory for the results file (default: pipeline.results_dir or .)")
	flag.BoolVar(&o.persist, "persist", false, "Store the run in the configured database instead of memory")
	flag.StringVar(&o.logLevel, "log-level", "", "Log level override")
	flag.Parse()

	if o.product == "" || o.niche == "" || o.audience == "" {
		fmt.Fprintln(os.Stderr, "generate: -product, -niche and -audience are required")
		flag.Usage()
		os.Exit(2)
	}
	if err := run(o); err != nil {
		fmt.Fprintf(os.Stderr, "generate: %v\n", err)
		os.Exit(1)
	}
}

func run(o options) error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return fmt.Errorf("load %s: %w", o.envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if !o.persist {
		cfg.Database = config.DatabaseConfig{Driver: "sqlite"}
	}

	opts := logger.FromConfig(cfg)
	opts.Format = "console"
	log, err := logger.New(opts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := persistence.NewDatabase(&cfg.Database, log, logger.GormLevel("error"))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if db.Driver() == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	pl, err := bootstrap.Build(ctx, cfg, db.DB, telemetry.NewMetrics(false), log)
	if err != nil {
		return err
	}
	defer pl.Close(context.WithoutCancel(ctx))

	runs := pl.RunService(cfg, nil)
	req := pipelineapp.CreateRunRequest{
		ProductName:      o.product,
		Niche:            o.niche,
		TargetAudience:   o.audience,
		TargetKeywords:   splitKeywords(o.keywords),
		ContentLength:    o.contentLength,
		PublishStatus:    o.publishStatus,
		SkipQualityCheck: o.skipQuality,
		SkipPublishing:   o.skipPublishing,
	}

	log.Info("Generating article",
		zap.String("product", req.ProductName),
		zap.Strings("keywords", req.TargetKeywords),
	)
	created, err := runs.Create(ctx, req)
	if err != nil {
		return err
	}
	result, err := runs.Get(ctx, created.ID)
	if err != nil {
		return err
	}
	printSummary(result)

	doc, err := runs.Results(ctx, result.ID)
	if err != nil {
		return err
	}
	path, err := writeResults(o.outDir, cfg.Pipeline.ResultsDir, *doc)
	if err != nil {
		return err
	}
	fmt.Printf("\nResults saved to %s\n", path)

	if result.Status == pipeline.RunStatusFailed {
		return fmt.Errorf("run %s", result.Status)
	}
	return nil
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func printSummary(r *pipelineapp.RunResponse) {
	fmt.Printf("\nRun %s: %s in %.1fs\n", r.ID, r.Status, r.DurationSec)
	for _, s := range r.Stages {
		line := fmt.Sprintf("  %-22s %-10s %5.1fs", s.DisplayName, s.Status, s.DurationSec)
		if s.Confidence > 0 {
			line += fmt.Sprintf("  confidence %d%%", s.Confidence)
		}
		fmt.Println(line)
		for _, e := range s.Errors {
			fmt.Printf("      ! %s\n", e)
		}
	}
	fmt.Printf("Agents completed: %d/%d\n", r.AgentsCompleted, len(r.Stages))
	for _, e := range r.Errors {
		fmt.Printf("Error: %s\n", e)
	}
}

func writeResults(outDir, fallback string, doc pipelineapp.ResultsDocument) (string, error) {
	dir := outDir
	if dir == "" {
		dir = fallback
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	data, err := pipelineapp.ResultsJSON(doc)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("pipeline_results_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
