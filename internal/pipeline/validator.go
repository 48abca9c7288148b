package pipeline

import (
	"context"
	"strings"

	"github.com/supportql/supportql/internal/observability"
)

// UnsafeSQLMessage is the fixed denial marker placed in the result slot when
// the safety gate rejects a statement.
const UnsafeSQLMessage = "Error: Unsafe SQL detected. Only SELECT queries are allowed."

// forbiddenKeywords is a substring denylist, matched case-insensitively.
// This is deliberately coarse: column names such as updated_at trip it, and
// it does not parse the statement. A real SQL parser would be the hardened
// replacement.
var forbiddenKeywords = []string{"INSERT", "UPDATE", "DELETE", "DROP", "ALTER"}

// validateSQL gates execution. Rejection is recovered locally: the pipeline
// continues to the synthesizer with the denial marker as its result.
func (p *Pipeline) validateSQL(ctx context.Context, state State) (State, error) {
	next := state
	upper := strings.ToUpper(state.SQL)
	for _, keyword := range forbiddenKeywords {
		if strings.Contains(upper, keyword) {
			p.logger.WarnContext(ctx, "unsafe sql rejected",
				"keyword", keyword,
				"intent", state.Intent,
			)
			observability.IncrementUnsafeSQL()
			next.Safe = false
			next.ResultError = UnsafeSQLMessage
			return next, nil
		}
	}
	next.Safe = true
	return next, nil
}
