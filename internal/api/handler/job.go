package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/vlyzo/wardrobe-api/internal/api/middleware"
	"github.com/vlyzo/wardrobe-api/internal/api/response"
	"github.com/vlyzo/wardrobe-api/internal/store"
	"github.com/vlyzo/wardrobe-api/internal/wardrobe"
)

// JobGetter defines the interface the poll handler depends on.
type JobGetter interface {
	GetJob(ctx context.Context, ownerID, jobID uuid.UUID) (*wardrobe.JobStatus, error)
}

// NewJobStatusHandler returns an http.HandlerFunc for GET /jobs/{jobID}.
func NewJobStatusHandler(svc JobGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid job id")
			return
		}

		status, err := svc.GetJob(r.Context(), userID, jobID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "Job not found")
				return
			}
			response.Error(w, http.StatusInternalServerError, "Failed to fetch job")
			return
		}

		resp := jobStatusResponse{
			JobID:        status.JobID.String(),
			Status:       status.Status,
			ItemsFound:   status.ItemsFound,
			ErrorMessage: status.ErrorMessage,
		}
		if status.CreatedAt != nil {
			resp.CreatedAt = status.CreatedAt.UTC().Format(time.RFC3339)
		}
		if status.CompletedAt != nil {
			resp.CompletedAt = status.CompletedAt.UTC().Format(time.RFC3339)
		}
		response.JSON(w, http.StatusOK, resp)
	}
}

type jobStatusResponse struct {
	JobID        string  `json:"job_id"`
	Status       string  `json:"status"`
	ItemsFound   int     `json:"items_found"`
	ErrorMessage *string `json:"error_message,omitempty"`
	CreatedAt    string  `json:"created_at,omitempty"`
	CompletedAt  string  `json:"completed_at,omitempty"`
}
