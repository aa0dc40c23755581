package multiagent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/prepai/server/internal/llm"
)

// Category is the top-level bucket chosen by the category classifier.
type Category int

const (
	CategoryGeneral Category = iota
	CategoryLearning
	CategoryResume
	CategoryInterview
	CategoryJobSearch
)

// categoryError marks routing as unavailable in ConversationState.Category.
const categoryError = "error"

// Label is the digit the classifier is asked to reply with.
func (c Category) Label() string {
	return strconv.Itoa(int(c))
}

func (c Category) String() string {
	switch c {
	case CategoryLearning:
		return "learning"
	case CategoryResume:
		return "resume"
	case CategoryInterview:
		return "interview"
	case CategoryJobSearch:
		return "job_search"
	default:
		return "general"
	}
}

// MatchCategory maps classifier output to a category by digit containment,
// so "Category: 2 (resume)" is a resume query. When several of 1-4 appear
// the earliest wins, which keeps "3, as in example 1" an interview query.
// Output containing none of 1-4 falls back to general.
func MatchCategory(reply string) Category {
	i := strings.IndexAny(reply, "1234")
	if i < 0 {
		return CategoryGeneral
	}
	return Category(reply[i] - '0')
}

// LearningRoute narrows a learning query.
type LearningRoute int

const (
	LearningQuestion LearningRoute = iota
	LearningTutorial
)

// MatchLearningRoute defaults to a question unless "tutorial" appears.
func MatchLearningRoute(reply string) LearningRoute {
	if strings.Contains(strings.ToLower(reply), "tutorial") {
		return LearningTutorial
	}
	return LearningQuestion
}

// InterviewRoute narrows an interview-preparation query.
type InterviewRoute int

const (
	InterviewQuestions InterviewRoute = iota
	InterviewMock
)

// MatchInterviewRoute defaults to questions unless "mock" appears.
func MatchInterviewRoute(reply string) InterviewRoute {
	if strings.Contains(strings.ToLower(reply), "mock") {
		return InterviewMock
	}
	return InterviewQuestions
}

const categoryPrompt = `You are a query classifier for a career-preparation assistant.
Classify the user query into exactly one category and reply with the digit only.

0 - general conversation, greetings, anything else
1 - learning: explanations of concepts, technologies, tutorials, learning resources
2 - resume: creating, reviewing or improving a resume or cover letter
3 - interview: interview questions, mock interviews, interview tips
4 - job search: finding job openings or companies that are hiring

Examples:
"hi" -> 0
"what can you do?" -> 0
"What is LangChain and how does it work?" -> 1
"Create a tutorial on Python decorators" -> 1
"Help me create a resume for a software engineer position" -> 2
"Generate interview questions for a frontend developer role" -> 3
"Let's do a mock interview" -> 3
"Find AI jobs in San Francisco" -> 4

Query: %s
Category:`

const learningPrompt = `Decide whether this learning request asks a question or wants a tutorial.
Reply "tutorial" if the user wants a step-by-step tutorial, walkthrough or guide.
Reply "question" if the user wants an explanation or an answer to a question.

Query: %s
Answer:`

const interviewPrompt = `Decide whether this interview request wants practice questions or a mock interview.
Reply "question" if the user wants a list of interview questions or tips.
Reply "mock" if the user wants to be interviewed interactively.

Query: %s
Answer:`

// Classifier performs the single-call category and sub-route
// classifications.
type Classifier struct {
	model   llm.Model
	binding ModelBinding
}

// NewClassifier creates a classifier. A nil model yields a classifier that
// reports itself unconfigured.
func NewClassifier(model llm.Model, modelName string) *Classifier {
	return &Classifier{model: model, binding: ModelBinding{Model: modelName, Temperature: 0}}
}

// Configured reports whether a model is available.
func (c *Classifier) Configured() bool {
	return c != nil && c.model != nil
}

// Category classifies a fresh query.
func (c *Classifier) Category(ctx context.Context, query string) (Category, error) {
	reply, err := c.ask(ctx, fmt.Sprintf(categoryPrompt, query))
	if err != nil {
		return CategoryGeneral, fmt.Errorf("classify category: %w", err)
	}
	return MatchCategory(reply), nil
}

// Learning narrows a learning query.
func (c *Classifier) Learning(ctx context.Context, query string) (LearningRoute, error) {
	reply, err := c.ask(ctx, fmt.Sprintf(learningPrompt, query))
	if err != nil {
		return LearningQuestion, fmt.Errorf("classify learning route: %w", err)
	}
	return MatchLearningRoute(reply), nil
}

// Interview narrows an interview-preparation query.
func (c *Classifier) Interview(ctx context.Context, query string) (InterviewRoute, error) {
	reply, err := c.ask(ctx, fmt.Sprintf(interviewPrompt, query))
	if err != nil {
		return InterviewQuestions, fmt.Errorf("classify interview route: %w", err)
	}
	return MatchInterviewRoute(reply), nil
}

func (c *Classifier) ask(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	req := llm.UserPrompt(prompt, c.binding.Temperature)
	req.Model = c.binding.Model
	return c.model.Generate(ctx, req)
}
