package domain

import "time"

// JobSummary is the result of one offer notification run.
type JobSummary struct {
	RunID                    string    `json:"run_id"`
	Success                  bool      `json:"success"`
	Processed                int       `json:"processed"`
	NewNotifications         int       `json:"new_notifications"`
	Errors                   int       `json:"errors"`
	UserNotificationsCreated int       `json:"user_notifications_created"`
	Skipped                  int       `json:"skipped"`
	Partial                  bool      `json:"partial"`
	StartedAt                time.Time `json:"started_at"`
	FinishedAt               time.Time `json:"finished_at"`
}

func (s *JobSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Outcome classifies a run as "success", "partial" or "failed".
func (s *JobSummary) Outcome() string {
	switch {
	case !s.Success:
		return "failed"
	case s.Partial || s.Errors > 0 || s.Skipped > 0:
		return "partial"
	default:
		return "success"
	}
}
