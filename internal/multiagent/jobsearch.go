package multiagent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prepai/server/internal/llm"
	"github.com/prepai/server/internal/search"
)

const jobSearchFallback = "I'd be happy to help you find jobs! Could you tell me the role you're " +
	"looking for and your preferred location? For example: \"Backend engineer jobs in Berlin\"."

const maxJobResults = 8

// jobSearchAgent separates the decision from the search. Decide costs one
// model call; Execute runs search then summarize and only happens after a
// positive decision.
type jobSearchAgent struct {
	desc     Descriptor
	model    llm.Model
	searcher search.Searcher
	window   int
	logger   *slog.Logger
}

func newJobSearchAgent(desc Descriptor, model llm.Model, searcher search.Searcher, window int, logger *slog.Logger) *jobSearchAgent {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &jobSearchAgent{desc: desc, model: model, searcher: searcher, window: window, logger: logger}
}

func (a *jobSearchAgent) Name() AgentName { return a.desc.Name }

// Check implements Agent.
func (a *jobSearchAgent) Check(ctx context.Context, query string, history []Message) (AgentDecision, error) {
	dec, err := a.Decide(ctx, query, history)
	if err != nil || !dec.ShouldHandle {
		return dec, err
	}
	dec.Response = a.Execute(ctx, query)
	return dec, nil
}

// Decide asks the model whether this is a job-search request without doing
// any search.
func (a *jobSearchAgent) Decide(ctx context.Context, query string, history []Message) (AgentDecision, error) {
	prompt := buildContinuityPrompt(a.desc, query, trimHistory(history, a.window), "", false)
	raw, err := a.model.Generate(ctx, llm.Request{
		System:      a.desc.SystemInstruction,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Model:       a.desc.Binding.Model,
		Temperature: 0,
	})
	if err != nil {
		return AgentDecision{}, fmt.Errorf("%s continuity check: %w", a.desc.Name, err)
	}
	return ParseVerdict(raw), nil
}

// Execute searches the web and summarizes the hits. Any failure yields a
// generic offer to help instead of an error.
func (a *jobSearchAgent) Execute(ctx context.Context, query string) string {
	if a.searcher == nil {
		return jobSearchFallback
	}

	results, err := a.searcher.Search(ctx, jobSearchQuery(query), maxJobResults)
	if err != nil {
		a.logger.Warn("job search failed", "error", err, "query", truncateForLog(query, 40))
		return jobSearchFallback
	}
	if len(results) == 0 {
		a.logger.Info("job search returned no results", "query", truncateForLog(query, 40))
		return jobSearchFallback
	}

	summary, err := a.model.Generate(ctx, llm.Request{
		System:      a.desc.SystemInstruction,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildJobSummaryPrompt(query, results)}},
		Model:       a.desc.Binding.Model,
		Temperature: a.desc.Binding.Temperature,
	})
	if err != nil {
		a.logger.Warn("job summary failed", "error", err)
		return jobSearchFallback
	}
	if strings.TrimSpace(summary) == "" {
		return jobSearchFallback
	}
	return strings.TrimSpace(summary)
}

func jobSearchQuery(query string) string {
	lower := strings.ToLower(query)
	if strings.Contains(lower, "job") || strings.Contains(lower, "opening") || strings.Contains(lower, "hiring") {
		return query
	}
	return query + " jobs"
}

func buildJobSummaryPrompt(query string, results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user asked: %s\n\n", query)
	b.WriteString("Summarize these job search results for the user.\n")
	b.WriteString("List each relevant opening with title, company (if known), location (if known) and the link. ")
	b.WriteString("Skip results that are not job postings. End with one line of advice on applying.\n\nResults:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n   URL: %s\n   %s\n", i+1, r.Title, r.URL, strings.TrimSpace(r.Content))
	}
	return b.String()
}
