package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	mw "github.com/vlyzo/wardrobe-api/internal/api/middleware"
	"github.com/vlyzo/wardrobe-api/internal/api/response"
	"github.com/vlyzo/wardrobe-api/internal/vision"
	"github.com/vlyzo/wardrobe-api/internal/wardrobe"
)

// ImageProcessor defines the interface the handler depends on.
type ImageProcessor interface {
	ProcessImage(ctx context.Context, p wardrobe.ProcessParams) (*wardrobe.ProcessResult, error)
}

// NewProcessImageHandler returns an http.HandlerFunc for POST /process-image.
func NewProcessImageHandler(svc ImageProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		var req struct {
			ImageBase64 string `json:"image_base64"`
			Mode        string `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		if req.ImageBase64 == "" {
			response.Error(w, http.StatusBadRequest, "Missing image data")
			return
		}
		image, err := decodeImage(req.ImageBase64)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid image data")
			return
		}

		mode := req.Mode
		if mode == "" {
			mode = vision.ModeOutfit
		}
		if mode != vision.ModeSingle && mode != vision.ModeOutfit {
			response.Error(w, http.StatusBadRequest, "Invalid mode")
			return
		}

		result, err := svc.ProcessImage(r.Context(), wardrobe.ProcessParams{
			OwnerID: userID,
			Image:   image,
			Mode:    mode,
		})
		if err != nil {
			var pipeErr *wardrobe.PipelineError
			if errors.As(err, &pipeErr) {
				response.ErrorWithJob(w, http.StatusInternalServerError,
					"Image processing failed", pipeErr.JobID.String())
				return
			}
			response.Error(w, http.StatusInternalServerError, "Failed to process image")
			return
		}

		response.JSON(w, http.StatusOK, processResponse{
			JobID:      result.JobID.String(),
			ItemsFound: result.ItemsFound,
			Items:      result.Items,
		})
	}
}

type processResponse struct {
	JobID      string                 `json:"job_id"`
	ItemsFound int                    `json:"items_found"`
	Items      []wardrobe.ItemSummary `json:"items"`
}

// decodeImage accepts plain base64 or a data URI, padded or not.
func decodeImage(s string) ([]byte, error) {
	if idx := strings.Index(s, ";base64,"); idx >= 0 {
		s = s[idx+len(";base64,"):]
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
