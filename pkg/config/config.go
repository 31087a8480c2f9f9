package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Config is the validated run configuration
type Config struct {
	// Listing
	BaseURL         string
	ContributorPath string
	EarliestYear    int
	LatestYear      int // Zero means the current calendar year
	MaxPages        int

	// Fetching
	Workers    int
	ClientType string
	Timeout    time.Duration

	// Sinks
	CSVPath          string
	JSONLPath        string
	SQLitePath       string
	MongoURI         string
	MongoDatabase    string
	MongoCollection  string
	PostgresDSN      string
	SupabaseURL      string
	SupabaseKey      string
	SupabasePassword string

	// Replicate copies reviews from Mongo into the SQL sinks instead of crawling
	Replicate bool
}

type rawCfg struct {
	// Listing
	BaseURL         string `long:"base-url" env:"EBERTBOXD_BASE_URL" default:"https://www.rogerebert.com" description:"Site root of the review archive"`
	ContributorPath string `long:"contributor-path" env:"EBERTBOXD_CONTRIBUTOR_PATH" default:"/contributors/roger-ebert" description:"Path of the contributor listing endpoint"`
	EarliestYear    int    `long:"earliest-year" env:"EBERTBOXD_EARLIEST_YEAR" default:"1914" description:"Earliest release year in the listing filter"`
	LatestYear      int    `long:"latest-year" env:"EBERTBOXD_LATEST_YEAR" default:"0" description:"Latest release year in the listing filter (0 = current year)"`
	MaxPages        int    `long:"max-pages" env:"EBERTBOXD_MAX_PAGES" default:"2000" description:"Upper bound on listing pages visited"`

	// Fetching
	Workers    int           `long:"workers" env:"EBERTBOXD_WORKERS" default:"4" description:"Review pages fetched concurrently"`
	ClientType string        `long:"client-type" env:"EBERTBOXD_CLIENT_TYPE" default:"browser" choice:"browser" choice:"cloudflare" description:"HTTP header profile"`
	Timeout    time.Duration `long:"timeout" env:"EBERTBOXD_TIMEOUT" default:"30s" description:"Per-request timeout"`

	// Sinks
	CSVPath          string `long:"csv" env:"EBERTBOXD_CSV" description:"Write a Letterboxd import CSV to this path ('-' for stdout)"`
	JSONLPath        string `long:"jsonl" env:"EBERTBOXD_JSONL" description:"Write reviews as JSON Lines to this path ('-' for stdout)"`
	SQLitePath       string `long:"sqlite" env:"EBERTBOXD_SQLITE" description:"Store reviews in this SQLite database file"`
	MongoURI         string `long:"mongo-uri" env:"MONGODB_URI" description:"MongoDB connection string"`
	MongoDatabase    string `long:"mongo-db" env:"MONGODB_DATABASE" default:"ebertboxd" description:"MongoDB database name"`
	MongoCollection  string `long:"mongo-collection" env:"MONGODB_COLLECTION" default:"reviews" description:"MongoDB collection name"`
	PostgresDSN      string `long:"postgres-dsn" env:"POSTGRES_DSN" description:"Postgres connection string"`
	SupabaseURL      string `long:"supabase-url" env:"SUPABASE_URL" description:"Supabase project URL"`
	SupabaseKey      string `long:"supabase-key" env:"SUPABASE_KEY" description:"Supabase API key (REST upserts)"`
	SupabasePassword string `long:"supabase-password" env:"SUPABASE_DB_PASSWORD" description:"Supabase database password (direct Postgres connection)"`

	Replicate bool `long:"replicate" description:"Copy reviews from MongoDB into the SQL sinks and exit"`
}

// Load parses args and the environment. It returns (nil, nil) when help was requested.
func Load(args []string) (*Config, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Config{
		BaseURL:          raw.BaseURL,
		ContributorPath:  raw.ContributorPath,
		EarliestYear:     raw.EarliestYear,
		LatestYear:       raw.LatestYear,
		MaxPages:         raw.MaxPages,
		Workers:          raw.Workers,
		ClientType:       raw.ClientType,
		Timeout:          raw.Timeout,
		CSVPath:          raw.CSVPath,
		JSONLPath:        raw.JSONLPath,
		SQLitePath:       raw.SQLitePath,
		MongoURI:         raw.MongoURI,
		MongoDatabase:    raw.MongoDatabase,
		MongoCollection:  raw.MongoCollection,
		PostgresDSN:      raw.PostgresDSN,
		SupabaseURL:      raw.SupabaseURL,
		SupabaseKey:      raw.SupabaseKey,
		SupabasePassword: raw.SupabasePassword,
		Replicate:        raw.Replicate,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a useful run
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive, got %d", c.MaxPages)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.EarliestYear <= 0 {
		return fmt.Errorf("earliest year must be positive, got %d", c.EarliestYear)
	}
	if c.LatestYear < 0 {
		return fmt.Errorf("latest year must not be negative, got %d", c.LatestYear)
	}
	if c.LatestYear != 0 && c.LatestYear < c.EarliestYear {
		return fmt.Errorf("year range is inverted: %d..%d", c.EarliestYear, c.LatestYear)
	}

	if c.Replicate {
		if c.MongoURI == "" {
			return fmt.Errorf("replication needs --mongo-uri as the source")
		}
		if !c.HasSQLSink() {
			return fmt.Errorf("replication needs a SQL target (--postgres-dsn, --sqlite or a Supabase database)")
		}
		return nil
	}

	if c.CSVPath == "-" && c.JSONLPath == "-" {
		return fmt.Errorf("--csv and --jsonl cannot both write to stdout")
	}
	if !c.HasSink() {
		return fmt.Errorf("no output configured: set at least one of --csv, --jsonl, --sqlite, --mongo-uri, --postgres-dsn or --supabase-url")
	}
	if c.SupabaseURL != "" && c.SupabaseKey == "" && c.SupabasePassword == "" {
		return fmt.Errorf("--supabase-url needs --supabase-key or --supabase-password")
	}
	return nil
}

// HasSQLSink reports whether a SQL review table is configured
func (c *Config) HasSQLSink() bool {
	return c.PostgresDSN != "" || c.SQLitePath != "" || (c.SupabaseURL != "" && c.SupabasePassword != "")
}

// HasSink reports whether any review sink is configured
func (c *Config) HasSink() bool {
	return c.CSVPath != "" || c.JSONLPath != "" || c.MongoURI != "" || c.SupabaseURL != "" || c.HasSQLSink()
}
