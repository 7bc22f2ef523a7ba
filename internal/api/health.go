package api

import (
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
)

type jobStatus struct {
	NextRun time.Time `json:"next_run"`
	PrevRun time.Time `json:"prev_run,omitempty"`
}

// WriteHealth reports service health and the scheduler's job entries.
func WriteHealth(w http.ResponseWriter, entries []cron.Entry) {
	jobs := make([]jobStatus, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, jobStatus{NextRun: entry.Next, PrevRun: entry.Prev})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"app":    "iaudit-billing",
		"jobs":   jobs,
	})
}
