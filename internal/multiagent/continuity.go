package multiagent

import (
	"context"
	"fmt"
	"strings"

	"github.com/prepai/server/internal/llm"
)

// DefaultHistoryWindow is the number of trailing messages given to an agent.
const DefaultHistoryWindow = 20

// Agent decides whether it should handle a query and, if so, answers it.
type Agent interface {
	Name() AgentName
	Check(ctx context.Context, query string, history []Message) (AgentDecision, error)
}

// continuityAgent answers in the same model call that makes the decision.
type continuityAgent struct {
	desc   Descriptor
	model  llm.Model
	window int
	mode   string
}

func newContinuityAgent(desc Descriptor, model llm.Model, window int) *continuityAgent {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &continuityAgent{desc: desc, model: model, window: window}
}

// withMode returns a copy that adds an instruction for a specialised leaf,
// such as running a mock interview.
func (a *continuityAgent) withMode(mode string) *continuityAgent {
	cp := *a
	cp.mode = mode
	return &cp
}

func (a *continuityAgent) Name() AgentName { return a.desc.Name }

// Check implements Agent with exactly one model call. Upstream errors are
// returned unchanged.
func (a *continuityAgent) Check(ctx context.Context, query string, history []Message) (AgentDecision, error) {
	prompt := buildContinuityPrompt(a.desc, query, trimHistory(history, a.window), a.mode, true)
	raw, err := a.model.Generate(ctx, llm.Request{
		System:      a.desc.SystemInstruction,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Model:       a.desc.Binding.Model,
		Temperature: a.desc.Binding.Temperature,
	})
	if err != nil {
		return AgentDecision{}, fmt.Errorf("%s continuity check: %w", a.desc.Name, err)
	}
	return ParseDecision(raw), nil
}

func buildContinuityPrompt(d Descriptor, query string, history []Message, mode string, withAnswer bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Agent: %s (%s)\n", d.Name, d.Title)
	fmt.Fprintf(&b, "Your domain: %s.\n", d.Domain)
	if mode != "" {
		fmt.Fprintf(&b, "Current mode: %s\n", mode)
	}

	b.WriteString("\nConversation so far:\n")
	if len(history) == 0 {
		b.WriteString("(no previous messages)\n")
	}
	for _, m := range history {
		speaker := "User"
		if m.IsAssistant() {
			speaker = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, strings.TrimSpace(m.Content))
	}

	fmt.Fprintf(&b, "\nLatest user message: %s\n", query)

	b.WriteString("\nDecide whether the latest message belongs to your domain, taking the conversation into account.\n")
	b.WriteString("Handle messages like:\n")
	for _, q := range d.Accepts {
		fmt.Fprintf(&b, "- %q\n", q)
	}
	b.WriteString("Do NOT handle messages like:\n")
	for _, q := range d.Rejects {
		fmt.Fprintf(&b, "- %q\n", q)
	}

	b.WriteString("\nStart your reply with exactly one JSON object on its own line:\n")
	b.WriteString(`{"should_handle": true or false, "reason": "<short reason>"}` + "\n")
	if withAnswer {
		b.WriteString("If should_handle is true, write your complete answer to the user after the JSON object.\n")
		b.WriteString("If should_handle is false, write nothing after the JSON object.\n")
	} else {
		b.WriteString("Write nothing after the JSON object.\n")
	}
	return b.String()
}
