package database

import (
	"context"
	"fmt"
	"time"

	"go-careers-scraper/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// batchSize bounds how many upserts go into one pgx batch.
const batchSize = 200

const schema = `
CREATE TABLE IF NOT EXISTS careers_jobs (
	job_key               TEXT PRIMARY KEY,
	requisition_id        TEXT NOT NULL DEFAULT '',
	canonical_url         TEXT NOT NULL DEFAULT '',
	title                 TEXT NOT NULL DEFAULT '',
	company               TEXT NOT NULL DEFAULT '',
	service_line          TEXT NOT NULL DEFAULT '',
	sub_service_line      TEXT NOT NULL DEFAULT '',
	rank_level            TEXT NOT NULL DEFAULT '',
	primary_location      TEXT NOT NULL DEFAULT '',
	secondary_locations   TEXT NOT NULL DEFAULT '',
	department            TEXT NOT NULL DEFAULT '',
	level                 TEXT NOT NULL DEFAULT '',
	posted_date           TEXT NOT NULL DEFAULT '',
	work_model            TEXT NOT NULL DEFAULT '',
	travel_percentage     TEXT NOT NULL DEFAULT '',
	application_url       TEXT NOT NULL DEFAULT '',
	description           TEXT NOT NULL DEFAULT '',
	qualifications_skills TEXT NOT NULL DEFAULT '',
	scraped_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const upsertJob = `
INSERT INTO careers_jobs (
	job_key, requisition_id, canonical_url, title, company, service_line,
	sub_service_line, rank_level, primary_location, secondary_locations,
	department, level, posted_date, work_model, travel_percentage,
	application_url, description, qualifications_skills, scraped_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
ON CONFLICT (job_key) DO UPDATE SET
	requisition_id = EXCLUDED.requisition_id,
	canonical_url = EXCLUDED.canonical_url,
	title = EXCLUDED.title,
	company = EXCLUDED.company,
	service_line = EXCLUDED.service_line,
	sub_service_line = EXCLUDED.sub_service_line,
	rank_level = EXCLUDED.rank_level,
	primary_location = EXCLUDED.primary_location,
	secondary_locations = EXCLUDED.secondary_locations,
	department = EXCLUDED.department,
	level = EXCLUDED.level,
	posted_date = EXCLUDED.posted_date,
	work_model = EXCLUDED.work_model,
	travel_percentage = EXCLUDED.travel_percentage,
	application_url = EXCLUDED.application_url,
	description = EXCLUDED.description,
	qualifications_skills = EXCLUDED.qualifications_skills,
	scraped_at = EXCLUDED.scraped_at,
	updated_at = NOW()`

// Repository mirrors the JSON store into Postgres. The JSON file stays the
// source of truth.
type Repository struct {
	db *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// IMPORTANT: Supabase connection pooler (PgBouncer in Transaction mode)
	// does not support prepared statements easily. We MUST disable the statement cache.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Ping to ensure connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// EnsureSchema creates the jobs table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create careers_jobs table: %w", err)
	}
	return nil
}

// UpsertJobs writes records keyed on their identity key and returns how many
// rows were inserted or updated. Records without a key are skipped.
func (r *Repository) UpsertJobs(ctx context.Context, jobs []models.JobRecord) (int, error) {
	total := 0
	for i := 0; i < len(jobs); i += batchSize {
		b := &pgx.Batch{}
		for _, job := range jobs[i:min(i+batchSize, len(jobs))] {
			args := jobArgs(job)
			if args == nil {
				continue
			}
			b.Queue(upsertJob, args...)
		}
		if b.Len() == 0 {
			continue
		}

		br := r.db.SendBatch(ctx, b)
		for k := 0; k < b.Len(); k++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return total, fmt.Errorf("failed to upsert job: %w", err)
			}
			total += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return total, fmt.Errorf("failed to close batch: %w", err)
		}
	}
	return total, nil
}

// CountJobs returns the number of mirrored rows.
func (r *Repository) CountJobs(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM careers_jobs").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return n, nil
}

// jobArgs returns the upsert arguments for job, or nil when it has no key.
func jobArgs(job models.JobRecord) []any {
	key := job.Key()
	if key == "" {
		return nil
	}
	scrapedAt := job.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}
	return []any{
		key, job.RequisitionID, job.URL, job.Title, job.Company, job.ServiceLine,
		job.SubServiceLine, job.RankLevel, job.PrimaryLocation, job.SecondaryLocations,
		job.Department, job.Level, job.PostedDate, job.WorkModel, job.TravelPercentage,
		job.ApplicationURL, job.Description, job.QualificationsSkills, scrapedAt,
	}
}
