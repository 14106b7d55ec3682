package wardrobe

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vlyzo/wardrobe-api/internal/cache"
	"github.com/vlyzo/wardrobe-api/internal/storage"
	"github.com/vlyzo/wardrobe-api/internal/store"
	"github.com/vlyzo/wardrobe-api/internal/vision"
	"github.com/vlyzo/wardrobe-api/pkg/models"
)

const jobStatusTTL = 30 * time.Minute

// ProcessParams holds validated parameters for one image-processing request.
type ProcessParams struct {
	OwnerID uuid.UUID
	Image   []byte
	Mode    string
}

// ItemSummary is the per-item slice of the response: what the app needs to
// render a freshly detected garment.
type ItemSummary struct {
	ID                 uuid.UUID `json:"id"`
	SegmentLabel       string    `json:"segment_label"`
	Category           string    `json:"category"`
	CategoryConfidence float32   `json:"category_confidence"`
	Style              string    `json:"style"`
	Color              string    `json:"color"`
	Pattern            string    `json:"pattern"`
	Material           string    `json:"material"`
	Season             string    `json:"season"`
	Tags               []string  `json:"tags"`
	CroppedImageURL    string    `json:"cropped_image_url"`
}

// ProcessResult is the outcome of a completed orchestration run.
type ProcessResult struct {
	JobID      uuid.UUID
	ItemsFound int
	Items      []ItemSummary
}

// PipelineError marks a vision pipeline failure that happened after the job
// row was created; the job id stays attached so the caller can still inspect
// the failed job.
type PipelineError struct {
	JobID uuid.UUID
	Err   error
}

func (e *PipelineError) Error() string { return e.Err.Error() }
func (e *PipelineError) Unwrap() error { return e.Err }

// Service orchestrates image processing: it creates the job row, calls the
// vision pipeline, drives the per-item save loop, and finalizes the job.
type Service struct {
	store   store.Store
	vision  vision.Client
	storage storage.Client
	cache   cache.Cache
}

// NewService creates a new Service.
func NewService(st store.Store, vc vision.Client, sc storage.Client, ca cache.Cache) *Service {
	return &Service{store: st, vision: vc, storage: sc, cache: ca}
}

// ProcessImage runs the full orchestration for one photo.
//
// Failure handling follows three tiers: a job-creation error aborts before
// anything else runs; a pipeline error marks the job failed and is returned
// as *PipelineError; per-item errors are absorbed — a bad detection must not
// waste the vision round trip for its siblings.
func (s *Service) ProcessImage(ctx context.Context, p ProcessParams) (*ProcessResult, error) {
	job := &models.ProcessingJob{
		ID:        uuid.New(),
		OwnerID:   p.OwnerID,
		Status:    models.JobStatusProcessing,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}
	_ = s.cache.SetJobStatus(ctx, p.OwnerID, job.ID, models.JobStatusProcessing, jobStatusTTL)

	result, err := s.vision.Process(ctx, p.Image, p.Mode)
	if err != nil {
		if failErr := s.store.FailJob(ctx, job.ID, err.Error()); failErr != nil {
			slog.Error("marking job failed", "job_id", job.ID, "error", failErr)
		}
		_ = s.cache.SetJobStatus(ctx, p.OwnerID, job.ID, models.JobStatusFailed, jobStatusTTL)
		return nil, &PipelineError{JobID: job.ID, Err: err}
	}
	slog.Info("vision pipeline returned detections",
		"job_id", job.ID, "items_found", result.ItemsFound, "mode", p.Mode)

	// Save each detection independently, in pipeline order. Outcomes are
	// collected as values so the skip-and-continue policy is a plain filter,
	// not control flow hidden in the loop body.
	outcomes := make([]itemOutcome, 0, len(result.Items))
	for i := range result.Items {
		outcomes = append(outcomes, s.saveDetection(ctx, job.ID, p.OwnerID, &result.Items[i]))
	}

	saved := make([]ItemSummary, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			slog.Warn("skipping detection",
				"job_id", job.ID, "storage_path", o.path, "error", o.err)
			continue
		}
		saved = append(saved, *o.summary)
	}

	if err := s.store.CompleteJob(ctx, job.ID, len(saved)); err != nil {
		// The items are already persisted; the caller still gets them even
		// if the final status write is lost.
		slog.Error("marking job completed", "job_id", job.ID, "error", err)
	}
	_ = s.cache.SetJobStatus(ctx, p.OwnerID, job.ID, models.JobStatusCompleted, jobStatusTTL)

	return &ProcessResult{JobID: job.ID, ItemsFound: len(saved), Items: saved}, nil
}

// itemOutcome is the explicit result of one detection's save attempt.
type itemOutcome struct {
	summary *ItemSummary
	path    string
	err     error
}

// saveDetection uploads one crop and inserts its row. The item id is freshly
// generated per detection and doubles as the storage key suffix, so two
// detections can never collide on a key.
func (s *Service) saveDetection(ctx context.Context, jobID, ownerID uuid.UUID, det *models.Detection) itemOutcome {
	itemID := uuid.New()
	path := fmt.Sprintf("%s/items/%s.png", ownerID, itemID)

	crop, err := base64.StdEncoding.DecodeString(det.CroppedImageBase64)
	if err != nil {
		return itemOutcome{path: path, err: fmt.Errorf("decoding crop: %w", err)}
	}

	if err := s.storage.Upload(ctx, path, crop, "image/png"); err != nil {
		return itemOutcome{path: path, err: fmt.Errorf("uploading crop: %w", err)}
	}

	imageURL := s.storage.PublicURL(path)
	now := time.Now().UTC()

	item := &models.WardrobeItem{
		ID:                   itemID,
		OwnerID:              ownerID,
		JobID:                jobID,
		Name:                 fmt.Sprintf("%s %s", det.Color.Label, det.Category.Label),
		Category:             det.SegmentLabel,
		SegmentLabel:         det.SegmentLabel,
		SegmentConfidence:    det.SegmentConfidence,
		AICategory:           det.Category.Label,
		AICategoryConfidence: det.Category.Confidence,
		AIStyle:              det.Style.Label,
		AIStyleConfidence:    det.Style.Confidence,
		AIColor:              det.Color.Label,
		AIColorConfidence:    det.Color.Confidence,
		AIPattern:            det.Pattern.Label,
		AIPatternConfidence:  det.Pattern.Confidence,
		AIMaterial:           det.Material.Label,
		AIMaterialConfidence: det.Material.Confidence,
		AISeason:             det.Season.Label,
		AISeasonConfidence:   det.Season.Confidence,
		Tags:                 det.Tags,
		ImageURL:             imageURL,
		CroppedImageURL:      imageURL,
		Embedding:            det.Embedding,
		AIProcessedAt:        now,
		CreatedAt:            now,
	}
	if err := s.store.CreateWardrobeItem(ctx, item); err != nil {
		return itemOutcome{path: path, err: fmt.Errorf("inserting item: %w", err)}
	}

	return itemOutcome{path: path, summary: &ItemSummary{
		ID:                 itemID,
		SegmentLabel:       det.SegmentLabel,
		Category:           det.Category.Label,
		CategoryConfidence: det.Category.Confidence,
		Style:              det.Style.Label,
		Color:              det.Color.Label,
		Pattern:            det.Pattern.Label,
		Material:           det.Material.Label,
		Season:             det.Season.Label,
		Tags:               det.Tags,
		CroppedImageURL:    imageURL,
	}}
}

// JobStatus is what the poll endpoint serves.
type JobStatus struct {
	JobID        uuid.UUID
	Status       string
	ItemsFound   int
	ErrorMessage *string
	CreatedAt    *time.Time
	CompletedAt  *time.Time
}

// GetJob returns the owner-scoped state of a processing job. While a job is
// still in flight a cached status short-circuits the database read; terminal
// jobs always come from the store, the source of truth.
func (s *Service) GetJob(ctx context.Context, ownerID, jobID uuid.UUID) (*JobStatus, error) {
	if status, found, err := s.cache.GetJobStatus(ctx, ownerID, jobID); err == nil && found &&
		status == models.JobStatusProcessing {
		return &JobStatus{JobID: jobID, Status: models.JobStatusProcessing}, nil
	}

	job, err := s.store.GetJob(ctx, jobID, ownerID)
	if err != nil {
		return nil, err
	}
	return &JobStatus{
		JobID:        job.ID,
		Status:       job.Status,
		ItemsFound:   job.ItemsFound,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    &job.CreatedAt,
		CompletedAt:  job.CompletedAt,
	}, nil
}
