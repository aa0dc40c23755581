package agent

import (
	"context"

	"github.com/prepai/server/internal/multiagent"
)

// Processor routes a query to an agent and returns its answer.
// This interface is implemented by multiagent.Router.
type Processor interface {
	// Route answers one query.
	Route(ctx context.Context, req multiagent.Request) (multiagent.Result, error)

	// Configured reports whether a model credential is available.
	Configured() bool
}

// Ensure Router implements Processor.
var _ Processor = (*multiagent.Router)(nil)
