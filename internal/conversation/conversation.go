// Package conversation persists the customer/agent transcript. Every chat
// exchange appends exactly two records: the customer question and the agent
// answer, committed together.
package conversation

import (
	"context"
	"time"
)

const (
	RoleCustomer = "customer"
	RoleAgent    = "agent"
)

// TimestampLayout is how transcript timestamps are rendered and stored.
const TimestampLayout = "2006-01-02 15:04:05"

type Record struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// Store is the transcript persistence surface. AppendExchange is atomic: if
// either record cannot be written, neither is.
type Store interface {
	AppendExchange(ctx context.Context, sessionID, question, answer string, at time.Time) error
	ListBySession(ctx context.Context, sessionID string) ([]Record, error)
	ListAfter(ctx context.Context, afterID int64, limit int) ([]Record, error)
	ArchiveCheckpoint(ctx context.Context) (int64, error)
	SetArchiveCheckpoint(ctx context.Context, lastArchivedID int64) error
}
