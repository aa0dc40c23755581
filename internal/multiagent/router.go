package multiagent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prepai/server/internal/llm"
	"github.com/prepai/server/internal/search"
)

// CategoryUnknown is reported when the continuation shortcut answered and
// the graph never ran.
const CategoryUnknown = "Unknown"

const clarificationResponse = "I'm not sure I understood that. I can help you learn technical topics, " +
	"write tutorials, prepare for interviews, improve your resume or find jobs. What would you like to do?"

// Options tunes a Router.
type Options struct {
	// ClassifierModel overrides the model for category classification.
	ClassifierModel string
	// AgentModel overrides the model for leaf agents.
	AgentModel    string
	HistoryWindow int
	Logger        *slog.Logger
}

// Request is one routing request as received from a client.
type Request struct {
	Query        string
	Messages     []Message
	CurrentAgent string
}

// Result is the outcome of routing a request.
type Result struct {
	Query          string
	Response       string
	CurrentAgent   AgentName
	Category       string
	ShouldContinue bool
	// Trace lists the graph nodes visited; empty when the shortcut answered.
	Trace []Node
}

// Router is the entry point of the multi-agent system. It is safe for
// concurrent use; all of its state is immutable after NewRouter.
type Router struct {
	configured bool
	registry   *Registry
	agents     map[AgentName]Agent
	graph      *Graph
	logger     *slog.Logger
}

// NewRouter wires the agents and graph around model. A nil model yields a
// Router whose Route returns ErrNotConfigured. A nil searcher makes the job
// search agent answer with its fallback message.
func NewRouter(model llm.Model, searcher search.Searcher, opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := opts.HistoryWindow
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	classifierModel := opts.ClassifierModel
	if classifierModel == "" {
		classifierModel = opts.AgentModel
	}

	registry := DefaultRegistry(opts.AgentModel)
	agents := make(map[AgentName]Agent, len(AgentNames))
	for _, name := range AgentNames {
		desc, _ := registry.Lookup(name)
		if name == AgentJobSearch {
			agents[name] = newJobSearchAgent(desc, model, searcher, window, logger)
			continue
		}
		agents[name] = newContinuityAgent(desc, model, window)
	}

	interview := agents[AgentInterviewPreparation].(*continuityAgent)
	graph := &Graph{
		classifier: NewClassifier(model, classifierModel),
		leaves: map[Node]Agent{
			NodeGeneral:            agents[AgentGeneral],
			NodeResume:             agents[AgentResumeMaking],
			NodeJobSearch:          agents[AgentJobSearch],
			NodeAskQuery:           agents[AgentLearningResource],
			NodeTutorial:           agents[AgentTutorial],
			NodeInterviewQuestions: interview,
			NodeMockInterview:      interview.withMode(mockInterviewMode),
		},
		logger: logger,
	}

	return &Router{
		configured: model != nil,
		registry:   registry,
		agents:     agents,
		graph:      graph,
		logger:     logger,
	}
}

// Configured reports whether a model is available for routing.
func (r *Router) Configured() bool {
	return r != nil && r.configured
}

// Registry returns the agent descriptors.
func (r *Router) Registry() *Registry {
	return r.registry
}

// Route answers a query. An active agent named in req.CurrentAgent is asked
// first; if it declines or none is named, the workflow graph runs from
// category classification.
func (r *Router) Route(ctx context.Context, req Request) (Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Result{}, ErrEmptyQuery
	}
	if !r.Configured() {
		return Result{}, ErrNotConfigured
	}

	if name, ok := ParseAgentName(req.CurrentAgent); ok {
		dec, err := r.agents[name].Check(ctx, query, req.Messages)
		if err != nil {
			return Result{}, err
		}
		r.logger.Debug("continuation check",
			"agent", name,
			"handled", dec.ShouldHandle,
			"reason", dec.Reason,
			"query", truncateForLog(query, 40))
		if dec.ShouldHandle {
			return Result{
				Query:          req.Query,
				Response:       dec.Response,
				CurrentAgent:   name,
				Category:       CategoryUnknown,
				ShouldContinue: true,
			}, nil
		}
	} else if req.CurrentAgent != "" {
		r.logger.Debug("ignoring unknown current agent", "agent", req.CurrentAgent)
	}

	st := &ConversationState{Query: query, Messages: req.Messages}
	if err := r.graph.Run(ctx, st); err != nil {
		return Result{}, err
	}
	if st.Category == categoryError {
		return Result{}, ErrNotConfigured
	}

	if st.ShouldReroute {
		if err := r.reroute(ctx, st); err != nil {
			return Result{}, err
		}
	}

	r.logger.Debug("query routed",
		"category", st.Category,
		"agent", st.CurrentAgent,
		"trace", st.Trace,
		"query", truncateForLog(query, 40))

	return Result{
		Query:          req.Query,
		Response:       st.Response,
		CurrentAgent:   st.CurrentAgent,
		Category:       st.Category,
		ShouldContinue: true,
		Trace:          st.Trace,
	}, nil
}

// reroute hands a declined query to the general agent once and, failing
// that, asks the user to clarify.
func (r *Router) reroute(ctx context.Context, st *ConversationState) error {
	if st.CurrentAgent != AgentGeneral {
		dec, err := r.agents[AgentGeneral].Check(ctx, st.Query, st.Messages)
		if err != nil {
			return fmt.Errorf("reroute to general: %w", err)
		}
		r.logger.Debug("rerouted to general", "from", st.CurrentAgent, "handled", dec.ShouldHandle)
		if dec.ShouldHandle {
			st.CurrentAgent = AgentGeneral
			st.Response = dec.Response
			st.ShouldReroute = false
			return nil
		}
	}
	st.CurrentAgent = AgentGeneral
	st.Response = clarificationResponse
	st.ShouldReroute = false
	return nil
}
