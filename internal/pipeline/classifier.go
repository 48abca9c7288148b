package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/supportql/supportql/internal/observability"
)

const (
	IntentOrderStatus    = "order_status"
	IntentReturns        = "returns"
	IntentProductDetails = "product_details"
	IntentGeneralInquiry = "general_inquiry"
)

var knownIntents = map[string]bool{
	IntentOrderStatus:    true,
	IntentReturns:        true,
	IntentProductDetails: true,
	IntentGeneralInquiry: true,
}

const intentPromptTemplate = `You are an assistant for an e-commerce customer support bot.
Classify the user request into one of these intents:
- order_status
- returns
- product_details
- general_inquiry

User request: %s
Answer with only the intent.`

// classifyIntent buckets the question into the fixed label set. A reply
// outside the set falls back to general_inquiry rather than failing the
// request; a transport error from the model aborts the pipeline.
func (p *Pipeline) classifyIntent(ctx context.Context, state State) (State, error) {
	started := time.Now()
	reply, err := p.llm.Complete(ctx, fmt.Sprintf(intentPromptTemplate, state.Question))
	observability.ObserveLLMRequest("intent", time.Since(started))
	if err != nil {
		return state, fmt.Errorf("classify intent: %w", err)
	}

	intent := strings.ToLower(strings.TrimSpace(reply))
	if !knownIntents[intent] {
		p.logger.DebugContext(ctx, "unrecognized intent label, falling back",
			"label", intent,
		)
		intent = IntentGeneralInquiry
	}

	next := state
	next.Intent = intent
	return next, nil
}
