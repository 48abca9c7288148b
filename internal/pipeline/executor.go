package pipeline

import (
	"context"

	"github.com/supportql/supportql/internal/observability"
)

// executeSQL runs the validated statement. When the validator marked the
// statement unsafe, the state passes through untouched. A datastore failure
// becomes an error marker that flows as data, not a returned error.
func (p *Pipeline) executeSQL(ctx context.Context, state State) (State, error) {
	if !state.Safe {
		return state, nil
	}

	next := state
	rows, err := p.querier.Query(ctx, state.SQL)
	if err != nil {
		p.logger.WarnContext(ctx, "sql execution failed",
			"intent", state.Intent,
			"error", err,
		)
		observability.IncrementExecutionFailure()
		next.ResultError = "Error: " + err.Error()
		return next, nil
	}
	next.Results = rows
	return next, nil
}
