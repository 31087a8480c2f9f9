package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/amyryanmanny/ebertboxd/pkg/domain"
)

// ReviewTableName is the table reviews are stored in, both over SQL and over the Supabase REST API
const ReviewTableName = "review"

// Dialect selects the SQL flavor of a ReviewTable
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) placeholder(i int) string {
	if d == SQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", i)
}

func (d Dialect) timestampType() string {
	if d == SQLite {
		return "TEXT"
	}
	return "TIMESTAMPTZ"
}

var reviewColumns = []string{"source_url", "tmdb_id", "title", "rating", "review", "watched_date", "tags", "crawled_at"}

// ReviewTable stores reviews in a SQL table keyed by source URL
type ReviewTable struct {
	provider DBProvider
	dialect  Dialect
}

// NewReviewTable creates a review table on top of a connected provider
func NewReviewTable(provider DBProvider, dialect Dialect) *ReviewTable {
	return &ReviewTable{provider: provider, dialect: dialect}
}

func (t *ReviewTable) db() (*sql.DB, error) {
	if t.provider == nil || t.provider.DB() == nil {
		return nil, fmt.Errorf("review table: database not connected")
	}
	return t.provider.DB(), nil
}

// EnsureSchema creates the review table if it does not exist
func (t *ReviewTable) EnsureSchema(ctx context.Context) error {
	db, err := t.db()
	if err != nil {
		return err
	}

	// tmdb_id, rating and tags stay NULL when the page has no value for them
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  source_url TEXT PRIMARY KEY,
  tmdb_id TEXT,
  title TEXT NOT NULL,
  rating DOUBLE PRECISION,
  review TEXT NOT NULL DEFAULT '',
  watched_date TEXT NOT NULL,
  tags TEXT,
  crawled_at %s NOT NULL
);`, ReviewTableName, t.dialect.timestampType())

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create review table: %w", err)
	}
	return nil
}

// SaveReview inserts the review or replaces the row with the same source URL
func (t *ReviewTable) SaveReview(ctx context.Context, review *domain.Review) error {
	db, err := t.db()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, t.upsertQuery(), reviewArgs(review)...); err != nil {
		return fmt.Errorf("upsert review %s: %w", review.SourceURL, err)
	}
	return nil
}

// SaveReviews upserts a batch of reviews in one transaction
func (t *ReviewTable) SaveReviews(ctx context.Context, reviews []domain.Review) error {
	db, err := t.db()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, t.upsertQuery())
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range reviews {
		if reviews[i].SourceURL == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, reviewArgs(&reviews[i])...); err != nil {
			return fmt.Errorf("upsert review %s: %w", reviews[i].SourceURL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Count returns the number of stored reviews
func (t *ReviewTable) Count(ctx context.Context) (int, error) {
	db, err := t.db()
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+ReviewTableName).Scan(&n); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return n, nil
}

func (t *ReviewTable) upsertQuery() string {
	placeholders := make([]string, len(reviewColumns))
	updates := make([]string, 0, len(reviewColumns)-1)
	for i, col := range reviewColumns {
		placeholders[i] = t.dialect.placeholder(i + 1)
		if col != "source_url" {
			updates = append(updates, col+" = excluded."+col)
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (source_url) DO UPDATE SET %s",
		ReviewTableName,
		strings.Join(reviewColumns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "))
}

// reviewArgs lists the values of a review in reviewColumns order; nil pointers become NULL
func reviewArgs(r *domain.Review) []any {
	return []any{r.SourceURL, r.ExternalMovieID, r.Title, r.Rating, r.ReviewText, r.WatchedDate, r.Tags, r.CrawledAt.UTC()}
}
