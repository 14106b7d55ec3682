package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vlyzo/wardrobe-api/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Processing Jobs ---

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.ProcessingJob) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO processing_jobs (id, owner_id, status, created_at)
		 VALUES ($1, $2, $3, $4)`,
		job.ID, job.OwnerID, job.Status, job.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*models.ProcessingJob, error) {
	var j models.ProcessingJob
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, status, items_found, error_message, created_at, completed_at
		 FROM processing_jobs WHERE id = $1 AND owner_id = $2`, id, ownerID,
	).Scan(&j.ID, &j.OwnerID, &j.Status, &j.ItemsFound, &j.ErrorMessage, &j.CreatedAt, &j.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &j, nil
}

// CompleteJob transitions a processing job to completed. The status guard
// makes the transition a no-op on rows already terminal, so a finished job
// can never be rewritten with a different outcome.
func (s *PostgresStore) CompleteJob(ctx context.Context, id uuid.UUID, itemsFound int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE processing_jobs
		 SET status = $2, items_found = $3, completed_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, models.JobStatusCompleted, itemsFound, models.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return checkTransition(ctx, s.pool, tag, id)
}

// FailJob transitions a processing job to failed, storing the error text.
func (s *PostgresStore) FailJob(ctx context.Context, id uuid.UUID, errorMessage string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE processing_jobs
		 SET status = $2, error_message = $3, completed_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, models.JobStatusFailed, errorMessage, models.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return checkTransition(ctx, s.pool, tag, id)
}

// checkTransition distinguishes "row missing" from "row already terminal"
// when a guarded status update touched nothing.
func checkTransition(ctx context.Context, pool *pgxpool.Pool, tag pgconn.CommandTag, id uuid.UUID) error {
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processing_jobs WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check job: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrJobFinalized
}

// --- Wardrobe Items ---

func (s *PostgresStore) CreateWardrobeItem(ctx context.Context, item *models.WardrobeItem) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO wardrobe_items (
		   id, owner_id, job_id, name, category, segment_label, segment_confidence,
		   ai_category, ai_category_confidence, ai_style, ai_style_confidence,
		   ai_color, ai_color_confidence, ai_pattern, ai_pattern_confidence,
		   ai_material, ai_material_confidence, ai_season, ai_season_confidence,
		   tags, image_url, cropped_image_url, embedding, ai_processed_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		         $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		item.ID, item.OwnerID, item.JobID, item.Name, item.Category,
		item.SegmentLabel, item.SegmentConfidence,
		item.AICategory, item.AICategoryConfidence,
		item.AIStyle, item.AIStyleConfidence,
		item.AIColor, item.AIColorConfidence,
		item.AIPattern, item.AIPatternConfidence,
		item.AIMaterial, item.AIMaterialConfidence,
		item.AISeason, item.AISeasonConfidence,
		item.Tags, item.ImageURL, item.CroppedImageURL, item.Embedding,
		item.AIProcessedAt, item.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create wardrobe item: %w", err)
	}
	return nil
}

// isDuplicateKeyError reports whether err is a Postgres unique violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
