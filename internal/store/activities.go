package store

import (
	"context"

	"github.com/prepai/server/internal/domain"
)

// LogActivity appends an entry to the user's activity timeline.
func (s *SQLiteStore) LogActivity(ctx context.Context, a *domain.Activity) error {
	if a.ID == "" {
		a.ID = newID()
	}
	a.Timestamp = stamp(a.Timestamp)
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	return s.insertDoc(ctx, "user_activities", a.ID, a.UserID, a.Timestamp, a)
}

// LogQuestionBank records a question generation.
func (s *SQLiteStore) LogQuestionBank(ctx context.Context, a *domain.QuestionBankActivity) error {
	if a.ID == "" {
		a.ID = newID()
	}
	a.Timestamp = stamp(a.Timestamp)
	return s.insertDoc(ctx, "question_bank_activities", a.ID, a.UserID, a.Timestamp, a)
}

// LogResume records a resume evaluation or build.
func (s *SQLiteStore) LogResume(ctx context.Context, a *domain.ResumeActivity) error {
	if a.ID == "" {
		a.ID = newID()
	}
	a.Timestamp = stamp(a.Timestamp)
	if a.MissingKeywords == nil {
		a.MissingKeywords = []string{}
	}
	return s.insertDoc(ctx, "resume_activities", a.ID, a.UserID, a.Timestamp, a)
}

// LogMockInterview records a finished mock interview.
func (s *SQLiteStore) LogMockInterview(ctx context.Context, m *domain.MockInterview) error {
	if m.ID == "" {
		m.ID = newID()
	}
	m.Timestamp = stamp(m.Timestamp)
	if m.InterviewType == "" {
		m.InterviewType = domain.DefaultInterviewType
	}
	return s.insertDoc(ctx, "mock_interviews", m.ID, m.UserID, m.Timestamp, m)
}

// LogJobSearch records a job listing query.
func (s *SQLiteStore) LogJobSearch(ctx context.Context, j *domain.JobSearch) error {
	if j.ID == "" {
		j.ID = newID()
	}
	j.Timestamp = stamp(j.Timestamp)
	return s.insertDoc(ctx, "job_searches", j.ID, j.UserID, j.Timestamp, j)
}
