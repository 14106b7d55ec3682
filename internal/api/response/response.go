package response

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Error string `json:"error"`
	JobID string `json:"job_id,omitempty"`
}

// JSON writes v as the top-level response body.
func JSON(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, v)
}

// Error writes the flat error body the mobile client expects.
func Error(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// ErrorWithJob writes an error body carrying the job id, so a failed job
// stays inspectable by the caller.
func ErrorWithJob(w http.ResponseWriter, status int, message, jobID string) {
	writeJSON(w, status, errorBody{Error: message, JobID: jobID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
