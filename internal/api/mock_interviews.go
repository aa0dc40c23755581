package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/prepai/server/internal/domain"
	"github.com/prepai/server/internal/identity"
)

type mockInterviewRequest struct {
	InterviewType      string   `json:"interview_type"`
	JobDescription     string   `json:"job_description"`
	DurationMinutes    float64  `json:"duration_minutes"`
	OverallRating      *float64 `json:"overall_rating"`
	CommunicationScore *float64 `json:"communication_score"`
	TechnicalScore     *float64 `json:"technical_score"`
	ConfidenceScore    *float64 `json:"confidence_score"`
	Feedback           string   `json:"feedback"`
	Transcript         string   `json:"transcript"`
}

func validScore(v *float64) bool {
	return v == nil || (*v >= 0 && *v <= 10)
}

// RecordMockInterview stores the result of a finished mock interview.
func (h *Handler) RecordMockInterview(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.PrincipalFromContext(r.Context())

	var req mockInterviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DurationMinutes < 0 {
		Error(w, http.StatusBadRequest, "duration_minutes must not be negative")
		return
	}
	for _, s := range []*float64{req.OverallRating, req.CommunicationScore, req.TechnicalScore, req.ConfidenceScore} {
		if !validScore(s) {
			Error(w, http.StatusBadRequest, "scores must be between 0 and 10")
			return
		}
	}

	m := &domain.MockInterview{
		UserID:             p.UserID,
		Email:              p.Email,
		InterviewType:      strings.TrimSpace(req.InterviewType),
		JobDescription:     req.JobDescription,
		DurationMinutes:    req.DurationMinutes,
		OverallRating:      req.OverallRating,
		CommunicationScore: req.CommunicationScore,
		TechnicalScore:     req.TechnicalScore,
		ConfidenceScore:    req.ConfidenceScore,
		Feedback:           req.Feedback,
		Transcript:         req.Transcript,
	}
	if err := h.repo.LogMockInterview(r.Context(), m); err != nil {
		slog.Error("Failed to record mock interview", "user_id", p.UserID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to record mock interview")
		return
	}

	h.logActivity(r, p.UserID, p.Email, domain.ActivityFeatureUse, "Mock Interview", map[string]any{
		"interview_type":   m.InterviewType,
		"duration_minutes": m.DurationMinutes,
	})
	JSON(w, http.StatusCreated, m)
}
