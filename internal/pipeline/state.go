// Package pipeline implements the five-stage question-to-answer flow:
// intent classification, SQL generation, SQL validation, SQL execution and
// response synthesis. Each stage takes a state value and returns a new one.
package pipeline

import (
	"context"

	"github.com/supportql/supportql/internal/datastore"
)

// State carries a single request through the stages. Stages never mutate
// their input; each returns a derived copy.
type State struct {
	Question  string
	SessionID string
	Intent    string
	SQL       string

	// Safe is set by the validator. The executor refuses to run when false.
	Safe bool

	// Results and ResultError are mutually exclusive: a stage either produced
	// rows or an error marker that flows to the synthesizer as data.
	Results     []datastore.Row
	ResultError string

	FinalAnswer string
}

type Stage struct {
	Name string
	Run  func(ctx context.Context, state State) (State, error)
}
