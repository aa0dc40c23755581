package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/prepai/server/internal/domain"
	"github.com/prepai/server/internal/identity"
	"github.com/prepai/server/internal/jobs"
)

// GetJobs returns job listings. Lookup failures answer 200 with an error
// field and an empty list so the listing page can still render.
func (h *Handler) GetJobs(w http.ResponseWriter, r *http.Request) {
	q := jobs.Query{
		Query:    r.URL.Query().Get("query"),
		Location: r.URL.Query().Get("location"),
	}
	if raw := r.URL.Query().Get("num_jobs"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			Error(w, http.StatusBadRequest, "num_jobs must be an integer")
			return
		}
		q.NumJobs = n
	}
	q.NumJobs = jobs.ClampNumJobs(q.NumJobs)

	list, err := h.jobs.Find(r.Context(), q)
	if err != nil {
		slog.Warn("Job search failed", "query", q.Query, "location", q.Location, "error", err)
		JSON(w, http.StatusOK, map[string]any{"error": err.Error(), "jobs": []jobs.Job{}})
		return
	}

	if p, ok := identity.PrincipalFromContext(r.Context()); ok {
		err := h.repo.LogJobSearch(r.Context(), &domain.JobSearch{
			UserID:           p.UserID,
			Email:            p.Email,
			SearchQuery:      q.Query,
			Location:         q.Location,
			NumJobsRequested: q.NumJobs,
			NumJobsFound:     len(list),
		})
		if err != nil {
			slog.Warn("Failed to log job search", "user_id", p.UserID, "error", err)
		}
	}

	JSON(w, http.StatusOK, map[string]any{"jobs": list})
}

// glassdoorReviewURL builds the review search link for a company.
func glassdoorReviewURL(companyName string) string {
	name := strings.TrimSpace(companyName)
	hyphenated := strings.ReplaceAll(name, " ", "-")
	length := utf8.RuneCountInString(strings.ReplaceAll(name, " ", ""))
	return fmt.Sprintf("https://www.glassdoor.com/Reviews/%s-reviews-SRCH_KE0,%d.htm", hyphenated, length)
}

// ScrapeReview returns the Glassdoor review link for a company.
func (h *Handler) ScrapeReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyName string `json:"companyName"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		Error(w, http.StatusBadRequest, "Company name is required.")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"glassdoor_link": glassdoorReviewURL(req.CompanyName)})
}
