package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ProcessingJob tracks one image-processing request. The API returns a job_id
// on POST /process-image; the client polls GET /jobs/{job_id} until status is
// completed or failed. A job row is written exactly twice: once at creation
// and once more to a terminal state, by the request that created it.
type ProcessingJob struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	OwnerID      uuid.UUID  `db:"owner_id"      json:"owner_id"`
	Status       string     `db:"status"        json:"status"`
	ItemsFound   int        `db:"items_found"   json:"items_found"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	CompletedAt  *time.Time `db:"completed_at"  json:"completed_at,omitempty"`
}
