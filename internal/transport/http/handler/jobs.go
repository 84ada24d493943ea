package handler

import (
	"context"
	"net/http"

	"github.com/card-offer-notifier/internal/domain"
)

// JobRunner runs one pass of the offer notification job.
type JobRunner interface {
	Run(ctx context.Context) (*domain.JobSummary, error)
}

// JobHandler exposes a manual trigger for the offer notification job.
type JobHandler struct {
	runner JobRunner
}

func NewJobHandler(runner JobRunner) *JobHandler {
	return &JobHandler{runner: runner}
}

// Trigger handles POST /jobs/offer-notifications. The run is detached from
// the request so a dropped connection does not abort it. A failed run still
// answers with its summary under the error status.
func (h *JobHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		if summary == nil {
			httpError(w, err)
			return
		}
		status, _ := errorStatus(err)
		writeJSON(w, status, summary)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
