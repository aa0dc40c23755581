package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prepai/server/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createUser(t *testing.T, s *SQLiteStore, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, FirstName: "Ada", LastName: "Lovelace", PasswordHash: "hash"}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func TestUsers(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	u := createUser(t, s, "  Ada@Example.com ")
	if u.ID == "" {
		t.Fatal("expected ID to be assigned")
	}
	if u.SubscriptionTier != domain.SubscriptionFree {
		t.Fatalf("tier = %q, want free", u.SubscriptionTier)
	}

	dup := &domain.User{Email: "ada@example.com", PasswordHash: "x"}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("duplicate CreateUser() error = %v, want ErrDuplicateEmail", err)
	}

	got, err := s.GetUserByEmail(ctx, "ADA@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != u.ID || got.Name() != "Ada Lovelace" || got.PasswordHash != "hash" {
		t.Fatalf("GetUserByEmail() = %+v", got)
	}
	if got.LastLogin != nil {
		t.Fatal("new user should have no last login")
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.RecordLogin(ctx, u.ID, at); err != nil {
		t.Fatalf("RecordLogin() error = %v", err)
	}
	if err := s.RecordLogin(ctx, u.ID, at.Add(time.Hour)); err != nil {
		t.Fatalf("RecordLogin() error = %v", err)
	}
	got, err = s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.TotalLoginCount != 2 {
		t.Fatalf("TotalLoginCount = %d, want 2", got.TotalLoginCount)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(at.Add(time.Hour)) {
		t.Fatalf("LastLogin = %v", got.LastLogin)
	}

	if _, err := s.GetUserByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUserByID(missing) error = %v, want ErrNotFound", err)
	}
	if err := s.RecordLogin(ctx, "missing", at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RecordLogin(missing) error = %v, want ErrNotFound", err)
	}
}

func TestChatSessions(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "chat@example.com")

	err := s.AppendChatMessage(ctx, u.ID, u.Email, "s1",
		domain.StoredMessage{Role: "user", Content: "hi"},
		domain.StoredMessage{Role: "assistant", Content: "Hello!", Agent: "general"},
	)
	if err != nil {
		t.Fatalf("AppendChatMessage() error = %v", err)
	}
	err = s.AppendChatMessage(ctx, u.ID, u.Email, "s1",
		domain.StoredMessage{Role: "user", Content: "review my resume"},
		domain.StoredMessage{Role: "assistant", Content: "Paste it here.", Agent: "resume_making"},
	)
	if err != nil {
		t.Fatalf("AppendChatMessage() error = %v", err)
	}
	if err := s.AppendChatMessage(ctx, u.ID, u.Email, "s2", domain.StoredMessage{Role: "user", Content: "later"}); err != nil {
		t.Fatalf("AppendChatMessage() error = %v", err)
	}

	cs, err := s.GetChatSession(ctx, u.ID, "s1")
	if err != nil {
		t.Fatalf("GetChatSession() error = %v", err)
	}
	if cs.MessageCount != 4 || len(cs.Messages) != 4 {
		t.Fatalf("message count = %d/%d, want 4", cs.MessageCount, len(cs.Messages))
	}
	if cs.Topic != domain.DefaultChatTopic {
		t.Fatalf("Topic = %q", cs.Topic)
	}
	if cs.CurrentAgent != "resume_making" {
		t.Fatalf("CurrentAgent = %q, want resume_making", cs.CurrentAgent)
	}
	if cs.Messages[2].Content != "review my resume" || cs.Messages[0].Timestamp.IsZero() {
		t.Fatalf("unexpected messages: %+v", cs.Messages)
	}

	list, err := s.ListChatSessions(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListChatSessions() error = %v", err)
	}
	if len(list) != 2 || list[0].SessionID != "s2" {
		t.Fatalf("ListChatSessions() = %+v, want s2 first", list)
	}
	if len(list[1].Messages) != 0 {
		t.Fatal("listing should not include messages")
	}

	if err := s.RenameChatSession(ctx, u.ID, "s1", "Resume help"); err != nil {
		t.Fatalf("RenameChatSession() error = %v", err)
	}
	if cs, _ = s.GetChatSession(ctx, u.ID, "s1"); cs.Topic != "Resume help" {
		t.Fatalf("Topic after rename = %q", cs.Topic)
	}
	if err := s.RenameChatSession(ctx, "someone-else", "s1", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rename foreign session error = %v, want ErrNotFound", err)
	}

	stats, err := s.ChatStats(ctx, u.ID)
	if err != nil {
		t.Fatalf("ChatStats() error = %v", err)
	}
	if stats.TotalSessions != 2 || stats.TotalMessages != 5 {
		t.Fatalf("ChatStats() = %+v", stats)
	}

	if err := s.DeleteChatSession(ctx, u.ID, "s1"); err != nil {
		t.Fatalf("DeleteChatSession() error = %v", err)
	}
	if _, err := s.GetChatSession(ctx, u.ID, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetChatSession(deleted) error = %v", err)
	}
	if err := s.DeleteChatSession(ctx, u.ID, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second DeleteChatSession() error = %v", err)
	}

	n, err := s.DeleteChatSessions(ctx, u.ID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteChatSessions() = %d, %v; want 1", n, err)
	}
}

func TestPurgeStaleChatSessions(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AppendChatMessage(ctx, "u1", "u1@example.com", "s", domain.StoredMessage{Role: "user", Content: "x"}); err != nil {
		t.Fatalf("AppendChatMessage() error = %v", err)
	}

	n, err := s.PurgeStaleChatSessions(ctx, time.Hour)
	if err != nil || n != 0 {
		t.Fatalf("PurgeStaleChatSessions(1h) = %d, %v; want 0", n, err)
	}
	n, err = s.PurgeStaleChatSessions(ctx, -time.Minute)
	if err != nil || n != 1 {
		t.Fatalf("PurgeStaleChatSessions(-1m) = %d, %v; want 1", n, err)
	}
}

func TestDashboardStats(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "stats@example.com")

	rating := func(v float64) *float64 { return &v }
	score := func(v int) *int { return &v }

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, r := range []*float64{rating(8), rating(6), nil} {
		m := &domain.MockInterview{UserID: u.ID, Email: u.Email, OverallRating: r, Timestamp: base.Add(time.Duration(i) * time.Minute)}
		if err := s.LogMockInterview(ctx, m); err != nil {
			t.Fatalf("LogMockInterview() error = %v", err)
		}
	}

	resumes := []*domain.ResumeActivity{
		{UserID: u.ID, ActivityType: domain.ResumeEvaluation, ATSScore: score(70)},
		{UserID: u.ID, ActivityType: domain.ResumeEvaluation, ATSScore: score(90)},
		{UserID: u.ID, ActivityType: "build"},
	}
	for _, r := range resumes {
		if err := s.LogResume(ctx, r); err != nil {
			t.Fatalf("LogResume() error = %v", err)
		}
	}

	for i := 0; i < 12; i++ {
		q := &domain.QuestionBankActivity{UserID: u.ID, Company: "Acme", NumQuestions: i, Timestamp: base.Add(time.Duration(i) * time.Second)}
		if err := s.LogQuestionBank(ctx, q); err != nil {
			t.Fatalf("LogQuestionBank() error = %v", err)
		}
	}

	if err := s.LogJobSearch(ctx, &domain.JobSearch{UserID: u.ID, SearchQuery: "go developer", NumJobsFound: 3}); err != nil {
		t.Fatalf("LogJobSearch() error = %v", err)
	}
	if err := s.LogActivity(ctx, &domain.Activity{UserID: u.ID, ActivityType: domain.ActivityLogin, ActivityName: "User logged in"}); err != nil {
		t.Fatalf("LogActivity() error = %v", err)
	}

	mock, err := s.MockInterviewStats(ctx, u.ID, RecentLimit)
	if err != nil {
		t.Fatalf("MockInterviewStats() error = %v", err)
	}
	if mock.TotalInterviews != 3 || mock.AverageRating != 7 {
		t.Fatalf("MockInterviewStats() = %+v", mock)
	}
	if mock.RecentInterviews[0].OverallRating != nil {
		t.Fatal("most recent interview should come first")
	}
	if mock.RecentInterviews[0].InterviewType != domain.DefaultInterviewType {
		t.Fatalf("InterviewType = %q", mock.RecentInterviews[0].InterviewType)
	}

	resume, err := s.ResumeStats(ctx, u.ID, RecentLimit)
	if err != nil {
		t.Fatalf("ResumeStats() error = %v", err)
	}
	if resume.TotalEvaluations != 2 || resume.AverageATSScore != 80 || len(resume.RecentActivities) != 3 {
		t.Fatalf("ResumeStats() = %+v", resume)
	}

	qb, err := s.QuestionBankStats(ctx, u.ID, RecentLimit)
	if err != nil {
		t.Fatalf("QuestionBankStats() error = %v", err)
	}
	if qb.TotalSessions != 12 || len(qb.RecentSessions) != RecentLimit || qb.RecentSessions[0].NumQuestions != 11 {
		t.Fatalf("QuestionBankStats() total=%d recent=%d", qb.TotalSessions, len(qb.RecentSessions))
	}

	jobs, err := s.JobSearchStats(ctx, u.ID, RecentLimit)
	if err != nil || jobs.TotalSearches != 1 || jobs.RecentSearches[0].SearchQuery != "go developer" {
		t.Fatalf("JobSearchStats() = %+v, %v", jobs, err)
	}

	timeline, err := s.RecentActivities(ctx, u.ID, TimelineLimit)
	if err != nil || len(timeline) != 1 || timeline[0].ActivityType != domain.ActivityLogin {
		t.Fatalf("RecentActivities() = %+v, %v", timeline, err)
	}

	empty, err := s.MockInterviewStats(ctx, "nobody", RecentLimit)
	if err != nil || empty.TotalInterviews != 0 || empty.AverageRating != 0 || len(empty.RecentInterviews) != 0 {
		t.Fatalf("MockInterviewStats(nobody) = %+v, %v", empty, err)
	}
}

func TestRevokedTokens(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := s.RevokeToken(ctx, "old", now.Add(-time.Hour)); err != nil {
		t.Fatalf("RevokeToken() error = %v", err)
	}
	if err := s.RevokeToken(ctx, "live", now.Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken() error = %v", err)
	}
	if err := s.RevokeToken(ctx, "live", now.Add(time.Hour)); err != nil {
		t.Fatalf("second RevokeToken() error = %v", err)
	}

	revoked, err := s.IsTokenRevoked(ctx, "live")
	if err != nil || !revoked {
		t.Fatalf("IsTokenRevoked(live) = %v, %v", revoked, err)
	}

	n, err := s.PurgeExpiredTokens(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpiredTokens() = %d, %v; want 1", n, err)
	}
	if revoked, _ := s.IsTokenRevoked(ctx, "old"); revoked {
		t.Fatal("expired revocation should have been purged")
	}
	if revoked, _ := s.IsTokenRevoked(ctx, "live"); !revoked {
		t.Fatal("live revocation should remain")
	}
}

func TestPing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
