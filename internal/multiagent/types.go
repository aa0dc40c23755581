// Package multiagent routes a user query to one of a fixed set of specialised
// interview-preparation agents.
//
// A conversation that already has an active agent first asks that agent
// whether it can continue. Otherwise a small state machine classifies the
// query into a category, optionally narrows it with a second classification,
// and runs the selected leaf agent.
package multiagent

import (
	"errors"
	"strings"
)

var (
	// ErrNotConfigured means no model credential is available for routing.
	ErrNotConfigured = errors.New("multi-agent system not configured")
	// ErrEmptyQuery is returned for a blank query.
	ErrEmptyQuery = errors.New("query is required")
)

// AgentName identifies a leaf agent.
type AgentName string

const (
	AgentGeneral              AgentName = "general"
	AgentLearningResource     AgentName = "learning_resource"
	AgentTutorial             AgentName = "tutorial"
	AgentInterviewPreparation AgentName = "interview_preparation"
	AgentResumeMaking         AgentName = "resume_making"
	AgentJobSearch            AgentName = "job_search"
)

// AgentNames lists every leaf agent in a stable order.
var AgentNames = []AgentName{
	AgentGeneral,
	AgentLearningResource,
	AgentTutorial,
	AgentInterviewPreparation,
	AgentResumeMaking,
	AgentJobSearch,
}

// ParseAgentName resolves a client-supplied agent name. Unknown or empty
// names report false so callers treat the conversation as having no active
// agent.
func ParseAgentName(s string) (AgentName, bool) {
	s = strings.TrimSpace(s)
	for _, n := range AgentNames {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

// Message is one turn of client-held conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IsAssistant reports whether the turn was produced by the assistant. The
// web client labels these turns "model", older clients "assistant".
func (m Message) IsAssistant() bool {
	switch strings.ToLower(strings.TrimSpace(m.Role)) {
	case "assistant", "model", "ai", "bot":
		return true
	default:
		return false
	}
}

// ConversationState is built fresh for every request and threaded through
// the workflow graph. Nothing here outlives the request; the client keeps
// Messages and CurrentAgent and sends them back.
type ConversationState struct {
	Query         string
	Category      string
	Response      string
	Messages      []Message
	CurrentAgent  AgentName
	ShouldReroute bool

	// Trace records the graph nodes visited, in order.
	Trace []Node
}

// AgentDecision is the parsed answer of a continuity check.
// Response is empty when the agent declined.
type AgentDecision struct {
	ShouldHandle bool   `json:"should_handle"`
	Response     string `json:"response,omitempty"`
	Reason       string `json:"reason"`
}

func decline(reason string) AgentDecision {
	return AgentDecision{ShouldHandle: false, Reason: reason}
}

// trimHistory keeps the trailing window of the conversation.
func trimHistory(history []Message, window int) []Message {
	if window <= 0 || len(history) <= window {
		return history
	}
	return history[len(history)-window:]
}

func truncateForLog(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
