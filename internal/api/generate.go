package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/prepai/server/internal/domain"
	"github.com/prepai/server/internal/identity"
	"github.com/prepai/server/internal/llm"
)

const (
	defaultNumQuestions = 15
	maxNumQuestions     = 50

	msgAIUnavailable = "AI provider not configured"
)

var (
	errNoJSON    = errors.New("no JSON found in model reply")
	fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	listPrefix   = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s*`)
)

type questionsRequest struct {
	CompanyName     string `json:"company_name"`
	Role            string `json:"role"`
	Domain          string `json:"domain"`
	ExperienceLevel string `json:"experience_level"`
	QuestionType    string `json:"question_type"`
	Difficulty      string `json:"difficulty"`
	NumQuestions    int    `json:"num_questions"`
}

func (q *questionsRequest) normalize() {
	for _, f := range []*string{&q.Role, &q.Domain, &q.ExperienceLevel, &q.QuestionType, &q.Difficulty} {
		*f = strings.TrimSpace(*f)
		if *f == "" {
			*f = "any"
		}
	}
	q.CompanyName = strings.TrimSpace(q.CompanyName)
	switch {
	case q.NumQuestions <= 0:
		q.NumQuestions = defaultNumQuestions
	case q.NumQuestions > maxNumQuestions:
		q.NumQuestions = maxNumQuestions
	}
}

func (q questionsRequest) prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d interview questions", q.NumQuestions)
	if q.CompanyName != "" {
		fmt.Fprintf(&b, " as asked at %s", q.CompanyName)
	}
	b.WriteString(".\n")
	fmt.Fprintf(&b, "Role: %s\nDomain: %s\nExperience level: %s\nQuestion type: %s\nDifficulty: %s\n",
		q.Role, q.Domain, q.ExperienceLevel, q.QuestionType, q.Difficulty)
	b.WriteString("Respond with ONLY a JSON array of question strings and nothing else.")
	return b.String()
}

// GenerateQuestions asks the model for a tailored question list.
func (h *Handler) GenerateQuestions(w http.ResponseWriter, r *http.Request) {
	if h.model == nil {
		Error(w, http.StatusServiceUnavailable, msgAIUnavailable)
		return
	}

	var req questionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.normalize()

	reply, err := h.model.Generate(r.Context(), llm.UserPrompt(req.prompt(), 0.7))
	if err != nil {
		slog.Error("Question generation failed", "error", err)
		Error(w, http.StatusBadGateway, "failed to generate questions")
		return
	}
	questions := parseQuestions(reply, req.NumQuestions)
	if len(questions) == 0 {
		Error(w, http.StatusBadGateway, "failed to generate questions")
		return
	}

	if p, ok := identity.PrincipalFromContext(r.Context()); ok {
		err := h.repo.LogQuestionBank(r.Context(), &domain.QuestionBankActivity{
			UserID:             p.UserID,
			Email:              p.Email,
			Company:            req.CompanyName,
			Role:               req.Role,
			Domain:             req.Domain,
			ExperienceLevel:    req.ExperienceLevel,
			QuestionType:       req.QuestionType,
			Difficulty:         req.Difficulty,
			NumQuestions:       req.NumQuestions,
			QuestionsGenerated: questions,
		})
		if err != nil {
			slog.Warn("Failed to log question bank activity", "user_id", p.UserID, "error", err)
		}
		h.logActivity(r, p.UserID, p.Email, domain.ActivityFeatureUse, "Question Bank", map[string]any{
			"company": req.CompanyName,
			"count":   len(questions),
		})
	}

	JSON(w, http.StatusOK, map[string]any{"questions": questions})
}

// parseQuestions reads a JSON array from reply, falling back to one
// question per non-empty line.
func parseQuestions(reply string, limit int) []string {
	var questions []string
	if raw, err := extractJSON(reply, '[', ']'); err == nil {
		_ = json.Unmarshal([]byte(raw), &questions)
	}
	if len(questions) == 0 {
		for _, line := range strings.Split(reply, "\n") {
			line = strings.TrimSpace(listPrefix.ReplaceAllString(line, ""))
			if line == "" || strings.HasPrefix(line, "```") || line == "[" || line == "]" {
				continue
			}
			questions = append(questions, line)
		}
	}

	out := make([]string, 0, len(questions))
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type resumeRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
	ResumeFilename string `json:"resume_filename"`
}

type resumeEvaluation struct {
	ATSScore        int      `json:"ats_score"`
	MissingKeywords []string `json:"missing_keywords"`
	Suggestions     string   `json:"suggestions"`
	Summary         string   `json:"summary"`
}

func resumePrompt(req resumeRequest) string {
	return "You are an applicant tracking system. Compare the resume with the job description.\n" +
		"Respond with ONLY a JSON object of the form " +
		`{"ats_score": <integer 0-100>, "missing_keywords": [<strings>], "suggestions": "<text>", "summary": "<text>"}` +
		"\n\nJob description:\n" + req.JobDescription + "\n\nResume:\n" + req.ResumeText
}

// EvaluateResume scores a resume against a job description.
func (h *Handler) EvaluateResume(w http.ResponseWriter, r *http.Request) {
	if h.model == nil {
		Error(w, http.StatusServiceUnavailable, msgAIUnavailable)
		return
	}

	var req resumeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ResumeText) == "" || strings.TrimSpace(req.JobDescription) == "" {
		Error(w, http.StatusBadRequest, "resume_text and job_description are required")
		return
	}

	reply, err := h.model.Generate(r.Context(), llm.UserPrompt(resumePrompt(req), 0))
	if err != nil {
		slog.Error("Resume evaluation failed", "error", err)
		Error(w, http.StatusBadGateway, "failed to evaluate resume")
		return
	}
	eval, err := parseEvaluation(reply)
	if err != nil {
		slog.Warn("Unparseable resume evaluation", "error", err)
		Error(w, http.StatusBadGateway, "failed to evaluate resume")
		return
	}

	if p, ok := identity.PrincipalFromContext(r.Context()); ok {
		score := eval.ATSScore
		err := h.repo.LogResume(r.Context(), &domain.ResumeActivity{
			UserID:          p.UserID,
			Email:           p.Email,
			ActivityType:    domain.ResumeEvaluation,
			ResumeFilename:  req.ResumeFilename,
			JobDescription:  req.JobDescription,
			ATSScore:        &score,
			MissingKeywords: eval.MissingKeywords,
			Suggestions:     eval.Suggestions,
		})
		if err != nil {
			slog.Warn("Failed to log resume activity", "user_id", p.UserID, "error", err)
		}
		h.logActivity(r, p.UserID, p.Email, domain.ActivityFeatureUse, "Resume Evaluation", map[string]any{
			"ats_score": score,
		})
	}

	JSON(w, http.StatusOK, eval)
}

func parseEvaluation(reply string) (resumeEvaluation, error) {
	raw, err := extractJSON(reply, '{', '}')
	if err != nil {
		return resumeEvaluation{}, err
	}
	var eval resumeEvaluation
	if err := json.Unmarshal([]byte(raw), &eval); err != nil {
		return resumeEvaluation{}, fmt.Errorf("decode evaluation: %w", err)
	}
	eval.ATSScore = min(max(eval.ATSScore, 0), 100)
	if eval.MissingKeywords == nil {
		eval.MissingKeywords = []string{}
	}
	return eval, nil
}

// extractJSON returns the outermost openCh...closeCh span of reply, looking
// inside a fenced block first.
func extractJSON(reply string, openCh, closeCh byte) (string, error) {
	if m := fencePattern.FindStringSubmatch(reply); m != nil {
		reply = m[1]
	}
	start := strings.IndexByte(reply, openCh)
	end := strings.LastIndexByte(reply, closeCh)
	if start < 0 || end <= start {
		return "", errNoJSON
	}
	return reply[start : end+1], nil
}
