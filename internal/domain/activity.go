package domain

import "time"

// Activity types recorded in the user timeline.
const (
	ActivityLogin        = "login"
	ActivityLogout       = "logout"
	ActivitySignup       = "signup"
	ActivityFeatureUse   = "feature_use"
	ResumeEvaluation     = "evaluation"
	DefaultChatTopic     = "General Chat"
	DefaultInterviewType = "mixed"
)

// Activity is one entry of a user's activity timeline.
type Activity struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Email        string         `json:"email"`
	ActivityType string         `json:"activity_type"`
	ActivityName string         `json:"activity_name"`
	Metadata     map[string]any `json:"metadata"`
	Timestamp    time.Time      `json:"timestamp"`
}

// QuestionBankActivity records one question generation.
type QuestionBankActivity struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Email              string    `json:"email"`
	Company            string    `json:"company"`
	Role               string    `json:"role"`
	Domain             string    `json:"domain"`
	ExperienceLevel    string    `json:"experience_level"`
	QuestionType       string    `json:"question_type"`
	Difficulty         string    `json:"difficulty"`
	NumQuestions       int       `json:"num_questions"`
	QuestionsGenerated []string  `json:"questions_generated"`
	Timestamp          time.Time `json:"timestamp"`
}

// ResumeActivity records a resume evaluation or build.
type ResumeActivity struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Email           string    `json:"email"`
	ActivityType    string    `json:"activity_type"`
	ResumeFilename  string    `json:"resume_filename,omitempty"`
	JobDescription  string    `json:"job_description,omitempty"`
	ATSScore        *int      `json:"ats_score,omitempty"`
	MissingKeywords []string  `json:"missing_keywords"`
	Suggestions     string    `json:"suggestions,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// MockInterview records a finished mock interview.
type MockInterview struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Email              string    `json:"email"`
	InterviewType      string    `json:"interview_type"`
	JobDescription     string    `json:"job_description"`
	DurationMinutes    float64   `json:"duration_minutes"`
	OverallRating      *float64  `json:"overall_rating,omitempty"`
	CommunicationScore *float64  `json:"communication_score,omitempty"`
	TechnicalScore     *float64  `json:"technical_score,omitempty"`
	ConfidenceScore    *float64  `json:"confidence_score,omitempty"`
	Feedback           string    `json:"feedback,omitempty"`
	Transcript         string    `json:"transcript,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// JobSearch records one job listing query.
type JobSearch struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Email            string    `json:"email"`
	SearchQuery      string    `json:"search_query"`
	Location         string    `json:"location"`
	NumJobsRequested int       `json:"num_jobs_requested"`
	NumJobsFound     int       `json:"num_jobs_found"`
	Timestamp        time.Time `json:"timestamp"`
}
