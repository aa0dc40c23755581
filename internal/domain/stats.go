package domain

import "time"

// Stats is the dashboard summary for one user.
type Stats struct {
	UserInfo         UserInfo         `json:"user_info"`
	QuestionBank     QuestionBankStat `json:"question_bank"`
	MockInterviews   MockStat         `json:"mock_interviews"`
	ResumeActivities ResumeStat       `json:"resume_activities"`
	ChatSessions     ChatStat         `json:"chat_sessions"`
	JobSearches      JobSearchStat    `json:"job_searches"`
	ActivityTimeline []Activity       `json:"activity_timeline"`
}

// UserInfo is the profile block of Stats.
type UserInfo struct {
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Picture          string     `json:"picture,omitempty"`
	SubscriptionTier string     `json:"subscription_tier"`
	MemberSince      time.Time  `json:"member_since"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
	TotalLogins      int        `json:"total_logins"`
}

// NewUserInfo projects a user into its dashboard block.
func NewUserInfo(u *User) UserInfo {
	return UserInfo{
		Email:            u.Email,
		Name:             u.Name(),
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Picture:          u.Picture,
		SubscriptionTier: u.SubscriptionTier,
		MemberSince:      u.CreatedAt,
		LastLogin:        u.LastLogin,
		TotalLogins:      u.TotalLoginCount,
	}
}

type QuestionBankStat struct {
	TotalSessions  int                    `json:"total_sessions"`
	RecentSessions []QuestionBankActivity `json:"recent_sessions"`
}

type MockStat struct {
	TotalInterviews  int             `json:"total_interviews"`
	AverageRating    float64         `json:"average_rating"`
	RecentInterviews []MockInterview `json:"recent_interviews"`
}

type ResumeStat struct {
	TotalEvaluations int              `json:"total_evaluations"`
	AverageATSScore  float64          `json:"average_ats_score"`
	RecentActivities []ResumeActivity `json:"recent_activities"`
}

type ChatStat struct {
	TotalSessions int `json:"total_sessions"`
	TotalMessages int `json:"total_messages"`
}

type JobSearchStat struct {
	TotalSearches  int         `json:"total_searches"`
	RecentSearches []JobSearch `json:"recent_searches"`
}
