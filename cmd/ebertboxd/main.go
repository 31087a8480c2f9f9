package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amyryanmanny/ebertboxd/pkg/config"
	"github.com/amyryanmanny/ebertboxd/pkg/db"
	"github.com/amyryanmanny/ebertboxd/pkg/httpclient"
	"github.com/amyryanmanny/ebertboxd/pkg/listing"
	"github.com/amyryanmanny/ebertboxd/pkg/output"
	"github.com/amyryanmanny/ebertboxd/pkg/pipeline"
	"github.com/amyryanmanny/ebertboxd/pkg/replication"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Printf("Configuration error: %v", err)
		return 2
	}
	if cfg == nil {
		// Help was shown
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Printf("Close error: %v", err)
			}
		}
	}()

	if cfg.Replicate {
		return replicate(ctx, cfg, &closers)
	}

	saver, err := buildSinks(ctx, cfg, &closers)
	if err != nil {
		log.Printf("Failed to set up outputs: %v", err)
		return 1
	}

	client := httpclient.NewClientWithTimeout(httpclient.ClientType(cfg.ClientType), cfg.Timeout)
	query := listing.DefaultQuery()
	if cfg.BaseURL != "" {
		query.BaseURL = cfg.BaseURL
	}
	if cfg.ContributorPath != "" {
		query.ContributorPath = cfg.ContributorPath
	}
	if cfg.EarliestYear > 0 {
		query.EarliestYear = cfg.EarliestYear
	}
	query.LatestYear = cfg.LatestYear
	crawler := listing.NewCrawler(client, query, cfg.MaxPages)

	p := pipeline.NewPipeline(crawler, pipeline.ReviewConsumer{
		WorkerCount: cfg.Workers,
		Processor:   pipeline.NewHTTPReviewProcessor(client),
		Saver:       saver,
	})

	start := time.Now()
	log.Printf("Crawling %s with %d workers", query.PageURL(1), cfg.Workers)

	report, err := p.Run(ctx)
	if report != nil {
		printReport(report, time.Since(start))
	}
	switch {
	case err != nil:
		log.Printf("Run stopped: %v", err)
		return 1
	case report.ListingErr != nil:
		log.Printf("Listing crawl ended early: %v", report.ListingErr)
		return 1
	case len(report.Failures) > 0 && report.Saved == 0:
		return 1
	}
	return 0
}

func printReport(report *pipeline.Report, elapsed time.Duration) {
	log.Printf("Summary: discovered %d, saved %d, failed %d in %s",
		report.Discovered, report.Saved, len(report.Failures), elapsed.Round(time.Second))
	for _, f := range report.Failures {
		log.Printf("  FAILED [%s] %s: %v", f.Stage, f.URL, f.Err)
	}
}

// buildSinks connects every configured output and combines them into one saver
func buildSinks(ctx context.Context, cfg *config.Config, closers *[]func() error) (pipeline.ReviewSaver, error) {
	var sinks pipeline.MultiSaver

	if cfg.CSVPath != "" {
		w, err := openOutput(cfg.CSVPath, closers)
		if err != nil {
			return nil, err
		}
		csvWriter := output.NewCSVWriter(w)
		if err := csvWriter.WriteHeader(); err != nil {
			return nil, err
		}
		sinks = append(sinks, csvWriter)
	}

	if cfg.JSONLPath != "" {
		w, err := openOutput(cfg.JSONLPath, closers)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, output.NewJSONLWriter(w))
	}

	if cfg.MongoURI != "" {
		mongo, err := connectMongo(ctx, cfg, closers)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, mongo)
	}

	tables, err := connectSQL(ctx, cfg, closers)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		sinks = append(sinks, t)
	}

	if cfg.SupabaseURL != "" && cfg.SupabasePassword == "" {
		supa := db.NewSupabaseClient(db.SupabaseConfig{SupabaseURL: cfg.SupabaseURL, SupabaseKey: cfg.SupabaseKey})
		if err := supa.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect supabase: %w", err)
		}
		log.Printf("Supabase: REST mode, rows go to the %q table", db.ReviewTableName)
		sinks = append(sinks, supa)
	}

	if len(sinks) == 0 {
		return nil, errors.New("no output configured")
	}
	return sinks, nil
}

// connectSQL opens every configured SQL database and prepares its review table
func connectSQL(ctx context.Context, cfg *config.Config, closers *[]func() error) ([]*db.ReviewTable, error) {
	var tables []*db.ReviewTable

	if cfg.SQLitePath != "" {
		client := db.NewSQLiteClient(cfg.SQLitePath)
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		*closers = append(*closers, client.Close)
		tables = append(tables, db.NewReviewTable(client, db.SQLite))
	}

	if cfg.PostgresDSN != "" {
		client := db.NewPostgresClient(db.PostgresConfig{
			DSN:  cfg.PostgresDSN,
			Pool: db.PoolConfig{MaxOpenConns: cfg.Workers},
		})
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		*closers = append(*closers, client.Close)
		tables = append(tables, db.NewReviewTable(client, db.Postgres))
	}

	if cfg.SupabaseURL != "" && cfg.SupabasePassword != "" {
		client := db.NewSupabaseClient(db.SupabaseConfig{
			SupabaseURL: cfg.SupabaseURL,
			SupabaseKey: cfg.SupabaseKey,
			Password:    cfg.SupabasePassword,
			Pool:        db.PoolConfig{MaxOpenConns: cfg.Workers},
		})
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect supabase: %w", err)
		}
		*closers = append(*closers, client.Close)
		// Connect falls back to REST when the direct connection fails; the
		// password was given, so the table is expected over SQL
		if !client.HasDirectDB() {
			return nil, errors.New("supabase: direct database connection unavailable (omit --supabase-password to use REST)")
		}
		tables = append(tables, db.NewReviewTable(client, db.Postgres))
	}

	for _, t := range tables {
		if err := t.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func connectMongo(ctx context.Context, cfg *config.Config, closers *[]func() error) (*db.Client, error) {
	client := db.NewClient(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	*closers = append(*closers, func() error { return client.Close(context.Background()) })
	return client, nil
}

// openOutput opens path for writing; "-" is stdout
func openOutput(path string, closers *[]func() error) (io.Writer, error) {
	if path == "-" {
		return os.Stdout, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	*closers = append(*closers, f.Close)
	return f, nil
}

// replicate copies the Mongo collection into every configured SQL table
func replicate(ctx context.Context, cfg *config.Config, closers *[]func() error) int {
	mongo, err := connectMongo(ctx, cfg, closers)
	if err != nil {
		log.Printf("Replication setup failed: %v", err)
		return 1
	}
	tables, err := connectSQL(ctx, cfg, closers)
	if err != nil {
		log.Printf("Replication setup failed: %v", err)
		return 1
	}

	for _, table := range tables {
		r, err := replication.NewReplicator(replication.Config{Source: mongo, Target: table})
		if err != nil {
			log.Printf("Replication setup failed: %v", err)
			return 1
		}
		if _, err := r.Replicate(ctx); err != nil {
			log.Printf("Replication failed: %v", err)
			return 1
		}
	}
	return 0
}
