package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prepai/server/internal/domain"
)

// QuestionBankStats returns the question generation total and recent items.
func (s *SQLiteStore) QuestionBankStats(ctx context.Context, userID string, limit int) (domain.QuestionBankStat, error) {
	var st domain.QuestionBankStat
	var err error
	if st.TotalSessions, err = s.countRows(ctx,
		`SELECT COUNT(*) FROM question_bank_activities WHERE user_id = ?`, userID); err != nil {
		return st, fmt.Errorf("question bank stats: %w", err)
	}
	if st.RecentSessions, err = recentDocs[domain.QuestionBankActivity](ctx, s.db, "question_bank_activities", userID, limit); err != nil {
		return st, err
	}
	return st, nil
}

// MockInterviewStats averages only interviews that carry a non-zero rating.
func (s *SQLiteStore) MockInterviewStats(ctx context.Context, userID string, limit int) (domain.MockStat, error) {
	var st domain.MockStat
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       AVG(CASE WHEN json_extract(doc, '$.overall_rating') > 0
		                THEN json_extract(doc, '$.overall_rating') END)
		FROM mock_interviews WHERE user_id = ?`, userID).Scan(&st.TotalInterviews, &avg)
	if err != nil {
		return st, fmt.Errorf("mock interview stats: %w", err)
	}
	st.AverageRating = avg.Float64

	if st.RecentInterviews, err = recentDocs[domain.MockInterview](ctx, s.db, "mock_interviews", userID, limit); err != nil {
		return st, err
	}
	return st, nil
}

// ResumeStats counts evaluations and averages their non-zero ATS scores.
// Recent items include every resume activity type.
func (s *SQLiteStore) ResumeStats(ctx context.Context, userID string, limit int) (domain.ResumeStat, error) {
	var st domain.ResumeStat
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       AVG(CASE WHEN json_extract(doc, '$.ats_score') > 0
		                THEN json_extract(doc, '$.ats_score') END)
		FROM resume_activities
		WHERE user_id = ? AND json_extract(doc, '$.activity_type') = ?`,
		userID, domain.ResumeEvaluation).Scan(&st.TotalEvaluations, &avg)
	if err != nil {
		return st, fmt.Errorf("resume stats: %w", err)
	}
	st.AverageATSScore = avg.Float64

	if st.RecentActivities, err = recentDocs[domain.ResumeActivity](ctx, s.db, "resume_activities", userID, limit); err != nil {
		return st, err
	}
	return st, nil
}

// ChatStats returns the session count and the total number of messages.
func (s *SQLiteStore) ChatStats(ctx context.Context, userID string) (domain.ChatStat, error) {
	var st domain.ChatStat
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(message_count), 0) FROM chat_sessions WHERE user_id = ?`,
		userID).Scan(&st.TotalSessions, &st.TotalMessages)
	if err != nil {
		return st, fmt.Errorf("chat stats: %w", err)
	}
	return st, nil
}

// JobSearchStats returns the job search total and recent searches.
func (s *SQLiteStore) JobSearchStats(ctx context.Context, userID string, limit int) (domain.JobSearchStat, error) {
	var st domain.JobSearchStat
	var err error
	if st.TotalSearches, err = s.countRows(ctx,
		`SELECT COUNT(*) FROM job_searches WHERE user_id = ?`, userID); err != nil {
		return st, fmt.Errorf("job search stats: %w", err)
	}
	if st.RecentSearches, err = recentDocs[domain.JobSearch](ctx, s.db, "job_searches", userID, limit); err != nil {
		return st, err
	}
	return st, nil
}

// RecentActivities returns the newest timeline entries.
func (s *SQLiteStore) RecentActivities(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	return recentDocs[domain.Activity](ctx, s.db, "user_activities", userID, limit)
}
