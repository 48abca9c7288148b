package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/supportql/supportql/internal/observability"
)

const sqlPromptTemplate = `You are an SQL expert for an e-commerce support chatbot.

Database Schema:
%s

Rules:
- Only output a single SELECT statement.
- Do NOT include explanations or formatting.
- Only use tables/columns from the schema.
- The intent of the query is: %s

Extra rules by intent:
- For order_status: always select status, tracking_number, created_at
- For returns: always select status, reason, created_at
- For product_details: always select name, price, stock

User asked: %s
SQL Query:`

// generateSQL asks the model for a single SELECT statement against the
// introspected schema, then strips any markdown fencing from the reply.
func (p *Pipeline) generateSQL(ctx context.Context, state State) (State, error) {
	tables, err := p.querier.Schema(ctx)
	if err != nil {
		return state, fmt.Errorf("load schema for prompt: %w", err)
	}
	schemaJSON, err := json.Marshal(tables)
	if err != nil {
		return state, fmt.Errorf("marshal schema context: %w", err)
	}

	prompt := fmt.Sprintf(sqlPromptTemplate, string(schemaJSON), state.Intent, state.Question)

	started := time.Now()
	reply, err := p.llm.Complete(ctx, prompt)
	observability.ObserveLLMRequest("sql", time.Since(started))
	if err != nil {
		return state, fmt.Errorf("generate sql: %w", err)
	}

	next := state
	next.SQL = CleanSQL(reply)
	return next, nil
}

// CleanSQL removes a leading "```sql" fence and a trailing "```" fence, plus
// surrounding whitespace, leaving the inner statement unchanged.
func CleanSQL(sql string) string {
	sql = strings.TrimSpace(sql)
	if strings.HasPrefix(strings.ToLower(sql), "```sql") {
		sql = sql[6:]
	}
	if strings.HasSuffix(sql, "```") {
		sql = sql[:len(sql)-3]
	}
	return strings.TrimSpace(sql)
}
