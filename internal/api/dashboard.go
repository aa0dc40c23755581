package api

import (
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/prepai/server/internal/domain"
	"github.com/prepai/server/internal/store"
)

// DashboardInfo aggregates the caller's activity across features.
func (h *Handler) DashboardInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	stats := domain.Stats{UserInfo: domain.NewUserInfo(user)}
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() (err error) {
		stats.QuestionBank, err = h.repo.QuestionBankStats(ctx, user.ID, store.RecentLimit)
		return err
	})
	g.Go(func() (err error) {
		stats.MockInterviews, err = h.repo.MockInterviewStats(ctx, user.ID, store.RecentLimit)
		return err
	})
	g.Go(func() (err error) {
		stats.ResumeActivities, err = h.repo.ResumeStats(ctx, user.ID, store.RecentLimit)
		return err
	})
	g.Go(func() (err error) {
		stats.ChatSessions, err = h.repo.ChatStats(ctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		stats.JobSearches, err = h.repo.JobSearchStats(ctx, user.ID, store.RecentLimit)
		return err
	})
	g.Go(func() (err error) {
		stats.ActivityTimeline, err = h.repo.RecentActivities(ctx, user.ID, store.TimelineLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		slog.Error("Failed to load dashboard", "user_id", user.ID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	JSON(w, http.StatusOK, stats)
}
