package multiagent

import (
	"context"
	"fmt"
	"log/slog"
)

// Node is a state of the workflow graph.
type Node string

const (
	NodeCategorize         Node = "categorize"
	NodeGeneral            Node = "general_agent"
	NodeLearning           Node = "handle_learning_resource"
	NodeResume             Node = "handle_resume_making"
	NodeInterview          Node = "handle_interview_preparation"
	NodeJobSearch          Node = "job_search"
	NodeAskQuery           Node = "ask_query_bot"
	NodeTutorial           Node = "tutorial_agent"
	NodeInterviewQuestions Node = "interview_question_bot"
	NodeMockInterview      Node = "mock_interview_bot"
	NodeEnd                Node = "end"
)

const mockInterviewMode = "mock interview. Act as the interviewer: ask one question at a time, " +
	"wait for the candidate's answer, then give brief feedback before the next question."

// Graph is the fixed routing state machine:
//
//	categorize -> general_agent | handle_learning_resource | handle_resume_making |
//	              handle_interview_preparation | job_search
//	handle_learning_resource     -> ask_query_bot | tutorial_agent
//	handle_interview_preparation -> interview_question_bot | mock_interview_bot
//	every leaf                   -> end
//
// There are no cycles; a leaf that declines sets ShouldReroute and the graph
// still ends.
type Graph struct {
	classifier *Classifier
	leaves     map[Node]Agent
	logger     *slog.Logger
}

// Run drives state from categorize to end.
func (g *Graph) Run(ctx context.Context, st *ConversationState) error {
	node := NodeCategorize
	for node != NodeEnd {
		st.Trace = append(st.Trace, node)
		next, err := g.step(ctx, node, st)
		if err != nil {
			return fmt.Errorf("graph node %s: %w", node, err)
		}
		node = next
	}
	return nil
}

func (g *Graph) step(ctx context.Context, node Node, st *ConversationState) (Node, error) {
	if st.Category == categoryError {
		return NodeEnd, nil
	}

	switch node {
	case NodeCategorize:
		if !g.classifier.Configured() {
			st.Category = categoryError
			return NodeEnd, nil
		}
		cat, err := g.classifier.Category(ctx, st.Query)
		if err != nil {
			return NodeEnd, err
		}
		st.Category = cat.Label()
		g.logger.Debug("query categorized", "query", truncateForLog(st.Query, 40), "category", cat.String())
		return routeCategory(st), nil

	case NodeLearning:
		route, err := g.classifier.Learning(ctx, st.Query)
		if err != nil {
			return NodeEnd, err
		}
		return routeLearning(route), nil

	case NodeInterview:
		route, err := g.classifier.Interview(ctx, st.Query)
		if err != nil {
			return NodeEnd, err
		}
		return routeInterview(route), nil

	default:
		return g.runLeaf(ctx, node, st)
	}
}

func (g *Graph) runLeaf(ctx context.Context, node Node, st *ConversationState) (Node, error) {
	agent, ok := g.leaves[node]
	if !ok {
		return NodeEnd, fmt.Errorf("no agent bound to node %s", node)
	}

	dec, err := agent.Check(ctx, st.Query, st.Messages)
	if err != nil {
		return NodeEnd, err
	}

	st.CurrentAgent = agent.Name()
	st.ShouldReroute = !dec.ShouldHandle
	st.Response = dec.Response
	g.logger.Debug("leaf agent finished",
		"node", node,
		"agent", agent.Name(),
		"handled", dec.ShouldHandle,
		"reason", dec.Reason)
	return NodeEnd, nil
}

// routeCategory depends only on st.Category.
func routeCategory(st *ConversationState) Node {
	switch st.Category {
	case CategoryLearning.Label():
		return NodeLearning
	case CategoryResume.Label():
		return NodeResume
	case CategoryInterview.Label():
		return NodeInterview
	case CategoryJobSearch.Label():
		return NodeJobSearch
	case categoryError:
		return NodeEnd
	default:
		return NodeGeneral
	}
}

func routeLearning(r LearningRoute) Node {
	if r == LearningTutorial {
		return NodeTutorial
	}
	return NodeAskQuery
}

func routeInterview(r InterviewRoute) Node {
	if r == InterviewMock {
		return NodeMockInterview
	}
	return NodeInterviewQuestions
}
