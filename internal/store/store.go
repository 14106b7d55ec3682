package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vlyzo/wardrobe-api/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrJobFinalized is returned when a terminal transition is attempted on a job
// that has already reached completed or failed. Terminal states are immutable.
var ErrJobFinalized = errors.New("job already finalized")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateJob(ctx context.Context, job *models.ProcessingJob) error
	GetJob(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*models.ProcessingJob, error)
	CompleteJob(ctx context.Context, id uuid.UUID, itemsFound int) error
	FailJob(ctx context.Context, id uuid.UUID, errorMessage string) error

	CreateWardrobeItem(ctx context.Context, item *models.WardrobeItem) error
}
