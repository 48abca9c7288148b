package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/supportql/supportql/internal/observability"
)

// FallbackAnswer is returned whenever execution failed or produced no rows.
// The two cases are indistinguishable to the customer.
const FallbackAnswer = "Sorry, I couldn't find any matching records for your request."

const responsePromptTemplate = `You are a friendly and helpful e-commerce customer support assistant.
A customer asked the following question:
"%s"

Your database query returned the following results:
%s

Based on these results, please provide a clear, conversational, and helpful answer to the customer's question.
- If the results are a list of items, format them nicely.
- If the results are a single number or status, state it clearly.
- Do not mention the database or SQL. Just answer the question directly.`

// synthesizeResponse produces the final answer and appends both turns to the
// transcript. Logging is on the critical path: a transcript failure aborts
// the request.
func (p *Pipeline) synthesizeResponse(ctx context.Context, state State) (State, error) {
	next := state
	if next.SessionID == "" {
		next.SessionID = p.newSessionID()
	}

	if next.ResultError != "" || len(next.Results) == 0 {
		observability.IncrementFallbackAnswer()
		next.FinalAnswer = FallbackAnswer
	} else {
		resultsJSON, err := json.Marshal(next.Results)
		if err != nil {
			return state, fmt.Errorf("marshal results for prompt: %w", err)
		}
		prompt := fmt.Sprintf(responsePromptTemplate, next.Question, string(resultsJSON))

		started := time.Now()
		reply, err := p.llm.Complete(ctx, prompt)
		observability.ObserveLLMRequest("response", time.Since(started))
		if err != nil {
			return state, fmt.Errorf("synthesize response: %w", err)
		}
		next.FinalAnswer = strings.TrimSpace(reply)
		if next.FinalAnswer == "" {
			observability.IncrementFallbackAnswer()
			next.FinalAnswer = FallbackAnswer
		}
	}

	if err := p.transcript.AppendExchange(ctx, next.SessionID, next.Question, next.FinalAnswer, p.clock()); err != nil {
		return state, fmt.Errorf("append transcript: %w", err)
	}
	return next, nil
}
