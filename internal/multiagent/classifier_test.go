package multiagent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchCategoryUsesContainment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		reply string
		want  Category
		node  Node
	}{
		{"2", CategoryResume, NodeResume},
		{"Category: 2 (resume)", CategoryResume, NodeResume},
		{" 1\n", CategoryLearning, NodeLearning},
		{"The answer is 3.", CategoryInterview, NodeInterview},
		{"4 - job search", CategoryJobSearch, NodeJobSearch},
		{"0", CategoryGeneral, NodeGeneral},
		{"I am not sure", CategoryGeneral, NodeGeneral},
		{"", CategoryGeneral, NodeGeneral},
		{"Category 3, example 1", CategoryInterview, NodeInterview},
		{"4 (not 1 or 2)", CategoryJobSearch, NodeJobSearch},
		{"0, though 2 is close", CategoryResume, NodeResume},
	}
	for _, tt := range tests {
		got := MatchCategory(tt.reply)
		assert.Equal(t, tt.want, got, tt.reply)
		st := &ConversationState{Category: got.Label()}
		assert.Equal(t, tt.node, routeCategory(st), tt.reply)
	}
}

func TestRouteCategoryError(t *testing.T) {
	t.Parallel()
	assert.Equal(t, NodeEnd, routeCategory(&ConversationState{Category: categoryError}))
}

func TestSubRoutersDefaultToFirstOption(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NodeAskQuery, routeLearning(MatchLearningRoute("not sure")))
	assert.Equal(t, NodeAskQuery, routeLearning(MatchLearningRoute("Question")))
	assert.Equal(t, NodeTutorial, routeLearning(MatchLearningRoute("TUTORIAL please")))

	assert.Equal(t, NodeInterviewQuestions, routeInterview(MatchInterviewRoute("hmm")))
	assert.Equal(t, NodeInterviewQuestions, routeInterview(MatchInterviewRoute("question")))
	assert.Equal(t, NodeMockInterview, routeInterview(MatchInterviewRoute("Mock")))
}

func TestClassifierUnconfigured(t *testing.T) {
	t.Parallel()

	c := NewClassifier(nil, "")
	assert.False(t, c.Configured())
	_, err := c.Category(context.Background(), "hi")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestClassifierUsesZeroTemperature(t *testing.T) {
	t.Parallel()

	m := newScriptedModel().on(markerCategory, "Category: 4")
	c := NewClassifier(m, "classifier-model")

	got, err := c.Category(context.Background(), "Find AI jobs in San Francisco")
	require.NoError(t, err)
	assert.Equal(t, CategoryJobSearch, got)

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "classifier-model", calls[0].Model)
	assert.Zero(t, calls[0].Temperature)
	assert.Contains(t, calls[0].Messages[0].Content, "Query: Find AI jobs in San Francisco")
}
