package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/supportql/supportql/internal/conversation"
	"github.com/supportql/supportql/internal/datastore"
	"github.com/supportql/supportql/internal/llm"
	"github.com/supportql/supportql/internal/observability"
)

type Request struct {
	Question  string
	SessionID string
}

type Response struct {
	SessionID   string
	Intent      string
	SQL         string
	Safe        bool
	FinalAnswer string
}

// Pipeline wires the five stages over their external collaborators.
type Pipeline struct {
	llm        llm.Client
	querier    datastore.Querier
	transcript conversation.Store
	logger     *slog.Logger

	clock        func() time.Time
	newSessionID func() string

	stages []Stage
}

type Option func(*Pipeline)

// WithClock overrides the transcript timestamp source. Used in tests.
func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) { p.clock = clock }
}

// WithSessionIDFunc overrides session-id minting. Used in tests.
func WithSessionIDFunc(mint func() string) Option {
	return func(p *Pipeline) { p.newSessionID = mint }
}

func New(client llm.Client, querier datastore.Querier, transcript conversation.Store, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		llm:          client,
		querier:      querier,
		transcript:   transcript,
		logger:       logger,
		clock:        time.Now,
		newSessionID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.stages = []Stage{
		{Name: "classify_intent", Run: p.classifyIntent},
		{Name: "generate_sql", Run: p.generateSQL},
		{Name: "validate_sql", Run: p.validateSQL},
		{Name: "execute_sql", Run: p.executeSQL},
		{Name: "synthesize_response", Run: p.synthesizeResponse},
	}
	return p
}

// Run executes the fixed stage sequence. Stage errors abort the request;
// recoverable conditions (unsafe SQL, execution failure, empty results) flow
// through the state instead.
func (p *Pipeline) Run(ctx context.Context, req Request) (Response, error) {
	if req.Question == "" {
		return Response{}, fmt.Errorf("question is required")
	}

	state := State{
		Question:  req.Question,
		SessionID: req.SessionID,
	}

	for _, stage := range p.stages {
		started := time.Now()
		next, err := stage.Run(ctx, state)
		observability.ObservePipelineStage(stage.Name, time.Since(started))
		if err != nil {
			p.logger.ErrorContext(ctx, "pipeline stage failed",
				"stage", stage.Name,
				"intent", state.Intent,
				"error", err,
			)
			return Response{}, fmt.Errorf("stage %s: %w", stage.Name, err)
		}
		state = next
	}

	observability.ObservePipelineRun(state.Intent)
	p.logger.InfoContext(ctx, "pipeline run completed",
		"session_id", state.SessionID,
		"intent", state.Intent,
		"safe", state.Safe,
		"fallback", state.FinalAnswer == FallbackAnswer,
	)

	return Response{
		SessionID:   state.SessionID,
		Intent:      state.Intent,
		SQL:         state.SQL,
		Safe:        state.Safe,
		FinalAnswer: state.FinalAnswer,
	}, nil
}
