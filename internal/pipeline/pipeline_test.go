package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/supportql/supportql/internal/conversation"
	"github.com/supportql/supportql/internal/datastore"
)

type scriptedLLM struct {
	replies []string
	errs    []error
	prompts []string
	calls   int
}

func (s *scriptedLLM) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	call := s.calls
	s.calls++
	if call < len(s.errs) && s.errs[call] != nil {
		return "", s.errs[call]
	}
	if call >= len(s.replies) {
		return "", errors.New("scripted llm: no reply configured")
	}
	return s.replies[call], nil
}

type fakeQuerier struct {
	schema   []datastore.TableSchema
	rows     []datastore.Row
	queryErr error
	queries  []string
}

func (f *fakeQuerier) Query(_ context.Context, sqlText string) ([]datastore.Row, error) {
	f.queries = append(f.queries, sqlText)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func (f *fakeQuerier) Schema(_ context.Context) ([]datastore.TableSchema, error) {
	return f.schema, nil
}

type loggedExchange struct {
	sessionID string
	question  string
	answer    string
	at        time.Time
}

type fakeTranscript struct {
	exchanges []loggedExchange
	appendErr error
}

func (f *fakeTranscript) AppendExchange(_ context.Context, sessionID, question, answer string, at time.Time) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.exchanges = append(f.exchanges, loggedExchange{sessionID: sessionID, question: question, answer: answer, at: at})
	return nil
}

func (f *fakeTranscript) ListBySession(context.Context, string) ([]conversation.Record, error) {
	return nil, nil
}

func (f *fakeTranscript) ListAfter(context.Context, int64, int) ([]conversation.Record, error) {
	return nil, nil
}

func (f *fakeTranscript) ArchiveCheckpoint(context.Context) (int64, error) { return 0, nil }

func (f *fakeTranscript) SetArchiveCheckpoint(context.Context, int64) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testSchema() []datastore.TableSchema {
	return []datastore.TableSchema{
		{Name: "orders", Columns: []string{"order_id", "customer_name", "status", "tracking_number", "created_at"}},
		{Name: "products", Columns: []string{"product_id", "name", "price", "stock"}},
		{Name: "returns", Columns: []string{"return_id", "order_id", "status", "reason", "created_at"}},
	}
}

func newTestPipeline(client *scriptedLLM, querier *fakeQuerier, transcript *fakeTranscript) *Pipeline {
	return New(client, querier, transcript, testLogger(),
		WithClock(func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }),
		WithSessionIDFunc(func() string { return "minted-session" }),
	)
}

func TestCleanSQL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare statement", in: "SELECT 1", want: "SELECT 1"},
		{name: "leading and trailing fences", in: "```sql\nSELECT 1\n```", want: "SELECT 1"},
		{name: "uppercase fence tag", in: "```SQL\nSELECT 1\n```", want: "SELECT 1"},
		{name: "trailing fence only", in: "SELECT 1\n```", want: "SELECT 1"},
		{name: "surrounding whitespace", in: "   SELECT 1   ", want: "SELECT 1"},
		{name: "inner statement untouched", in: "```sql\nSELECT name FROM products WHERE product_id = 'P002'\n```", want: "SELECT name FROM products WHERE product_id = 'P002'"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanSQL(tc.in); got != tc.want {
				t.Fatalf("CleanSQL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestValidateSQLRejectsMutationKeywords(t *testing.T) {
	p := newTestPipeline(&scriptedLLM{}, &fakeQuerier{}, &fakeTranscript{})

	cases := []string{
		"DELETE FROM orders",
		"delete from orders",
		"SELECT 1; DROP TABLE orders",
		"INSERT INTO products VALUES (1)",
		"SELECT * FROM orders WHERE updated_at > '2026-01-01'", // substring match is the contract
		"ALTER TABLE orders ADD COLUMN x INT",
	}
	for _, sqlText := range cases {
		state, err := p.validateSQL(context.Background(), State{SQL: sqlText})
		if err != nil {
			t.Fatalf("validateSQL(%q) error = %v", sqlText, err)
		}
		if state.Safe {
			t.Fatalf("validateSQL(%q): expected unsafe", sqlText)
		}
		if state.ResultError != UnsafeSQLMessage {
			t.Fatalf("validateSQL(%q): ResultError = %q", sqlText, state.ResultError)
		}
	}
}

func TestValidateSQLPassesThroughSafeStatements(t *testing.T) {
	p := newTestPipeline(&scriptedLLM{}, &fakeQuerier{}, &fakeTranscript{})

	prior := State{
		SQL:     "SELECT name, price FROM products",
		Results: []datastore.Row{{"name": "Laptop"}},
	}
	state, err := p.validateSQL(context.Background(), prior)
	if err != nil {
		t.Fatalf("validateSQL() error = %v", err)
	}
	if !state.Safe {
		t.Fatal("expected safe")
	}
	if state.ResultError != "" {
		t.Fatalf("ResultError = %q", state.ResultError)
	}
	if len(state.Results) != 1 || state.Results[0]["name"] != "Laptop" {
		t.Fatalf("results were touched: %+v", state.Results)
	}
}

func TestExecuteSQLSkipsUnsafeStatements(t *testing.T) {
	querier := &fakeQuerier{rows: []datastore.Row{{"x": 1}}}
	p := newTestPipeline(&scriptedLLM{}, querier, &fakeTranscript{})

	prior := State{SQL: "DELETE FROM orders", Safe: false, ResultError: UnsafeSQLMessage}
	state, err := p.executeSQL(context.Background(), prior)
	if err != nil {
		t.Fatalf("executeSQL() error = %v", err)
	}
	if len(querier.queries) != 0 {
		t.Fatalf("datastore was queried: %v", querier.queries)
	}
	if state.ResultError != UnsafeSQLMessage || state.Results != nil {
		t.Fatalf("state changed: %+v", state)
	}
}

func TestExecuteSQLConvertsFailureToErrorMarker(t *testing.T) {
	querier := &fakeQuerier{queryErr: errors.New("no such table: ordrs")}
	p := newTestPipeline(&scriptedLLM{}, querier, &fakeTranscript{})

	state, err := p.executeSQL(context.Background(), State{SQL: "SELECT * FROM ordrs", Safe: true})
	if err != nil {
		t.Fatalf("executeSQL() error = %v", err)
	}
	if !strings.HasPrefix(state.ResultError, "Error: ") {
		t.Fatalf("ResultError = %q", state.ResultError)
	}
	if !strings.Contains(state.ResultError, "no such table") {
		t.Fatalf("ResultError = %q", state.ResultError)
	}
}

func TestClassifyIntentFallsBackOnUnknownLabel(t *testing.T) {
	client := &scriptedLLM{replies: []string{"  Refund-Policy \n"}}
	p := newTestPipeline(client, &fakeQuerier{}, &fakeTranscript{})

	state, err := p.classifyIntent(context.Background(), State{Question: "what is your refund policy?"})
	if err != nil {
		t.Fatalf("classifyIntent() error = %v", err)
	}
	if state.Intent != IntentGeneralInquiry {
		t.Fatalf("Intent = %q", state.Intent)
	}
}

func TestClassifyIntentNormalizesReply(t *testing.T) {
	client := &scriptedLLM{replies: []string{" Order_Status \n"}}
	p := newTestPipeline(client, &fakeQuerier{}, &fakeTranscript{})

	state, err := p.classifyIntent(context.Background(), State{Question: "where is O007?"})
	if err != nil {
		t.Fatalf("classifyIntent() error = %v", err)
	}
	if state.Intent != IntentOrderStatus {
		t.Fatalf("Intent = %q", state.Intent)
	}
}

func TestClassifyIntentPropagatesModelFailure(t *testing.T) {
	client := &scriptedLLM{errs: []error{errors.New("connection refused")}}
	p := newTestPipeline(client, &fakeQuerier{}, &fakeTranscript{})

	if _, err := p.classifyIntent(context.Background(), State{Question: "hi"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSynthesizeFallbackOnEmptyResults(t *testing.T) {
	transcript := &fakeTranscript{}
	p := newTestPipeline(&scriptedLLM{}, &fakeQuerier{}, transcript)

	state, err := p.synthesizeResponse(context.Background(), State{
		Question: "where is order O999?",
		Safe:     true,
		Results:  []datastore.Row{},
	})
	if err != nil {
		t.Fatalf("synthesizeResponse() error = %v", err)
	}
	if state.FinalAnswer != FallbackAnswer {
		t.Fatalf("FinalAnswer = %q", state.FinalAnswer)
	}
	if state.SessionID != "minted-session" {
		t.Fatalf("SessionID = %q", state.SessionID)
	}
	if len(transcript.exchanges) != 1 {
		t.Fatalf("len(exchanges) = %d", len(transcript.exchanges))
	}
	exchange := transcript.exchanges[0]
	if exchange.question != "where is order O999?" || exchange.answer != FallbackAnswer {
		t.Fatalf("exchange = %+v", exchange)
	}
}

func TestSynthesizeFallbackOnErrorMarker(t *testing.T) {
	transcript := &fakeTranscript{}
	client := &scriptedLLM{replies: []string{"should not be called"}}
	p := newTestPipeline(client, &fakeQuerier{}, transcript)

	state, err := p.synthesizeResponse(context.Background(), State{
		Question:    "delete my account",
		SessionID:   "sess-7",
		ResultError: UnsafeSQLMessage,
	})
	if err != nil {
		t.Fatalf("synthesizeResponse() error = %v", err)
	}
	if state.FinalAnswer != FallbackAnswer {
		t.Fatalf("FinalAnswer = %q", state.FinalAnswer)
	}
	if client.calls != 0 {
		t.Fatalf("model was called %d times", client.calls)
	}
	if state.SessionID != "sess-7" {
		t.Fatalf("SessionID = %q", state.SessionID)
	}
}

func TestSynthesizeAbortsOnTranscriptFailure(t *testing.T) {
	transcript := &fakeTranscript{appendErr: errors.New("disk full")}
	p := newTestPipeline(&scriptedLLM{}, &fakeQuerier{}, transcript)

	_, err := p.synthesizeResponse(context.Background(), State{Question: "q"})
	if err == nil {
		t.Fatal("expected error when transcript append fails")
	}
}

func TestRunProductPriceScenario(t *testing.T) {
	client := &scriptedLLM{replies: []string{
		"product_details",
		"```sql\nSELECT name, price, stock FROM products WHERE product_id = 'P002'\n```",
		"The Wireless Mouse costs $24.99 and we have 12 in stock.",
	}}
	querier := &fakeQuerier{
		schema: testSchema(),
		rows:   []datastore.Row{{"name": "Wireless Mouse", "price": 24.99, "stock": 12}},
	}
	transcript := &fakeTranscript{}
	p := newTestPipeline(client, querier, transcript)

	resp, err := p.Run(context.Background(), Request{Question: "What is the price of P002?"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.Intent != IntentProductDetails {
		t.Fatalf("Intent = %q", resp.Intent)
	}
	if resp.SQL != "SELECT name, price, stock FROM products WHERE product_id = 'P002'" {
		t.Fatalf("SQL = %q", resp.SQL)
	}
	if !resp.Safe {
		t.Fatal("expected safe")
	}
	if !strings.Contains(resp.FinalAnswer, "24.99") {
		t.Fatalf("FinalAnswer = %q", resp.FinalAnswer)
	}
	if len(querier.queries) != 1 {
		t.Fatalf("queries = %v", querier.queries)
	}
	if len(transcript.exchanges) != 1 {
		t.Fatalf("len(exchanges) = %d", len(transcript.exchanges))
	}
}

func TestRunBlocksMutationBeforeDatastore(t *testing.T) {
	client := &scriptedLLM{replies: []string{
		"general_inquiry",
		"DELETE FROM customers WHERE id = 1",
	}}
	querier := &fakeQuerier{schema: testSchema()}
	transcript := &fakeTranscript{}
	p := newTestPipeline(client, querier, transcript)

	resp, err := p.Run(context.Background(), Request{Question: "Delete my account"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.Safe {
		t.Fatal("expected unsafe")
	}
	if resp.FinalAnswer != FallbackAnswer {
		t.Fatalf("FinalAnswer = %q", resp.FinalAnswer)
	}
	if len(querier.queries) != 0 {
		t.Fatalf("mutation reached datastore: %v", querier.queries)
	}
	if len(transcript.exchanges) != 1 {
		t.Fatalf("len(exchanges) = %d", len(transcript.exchanges))
	}
}

func TestRunUnknownOrderFallsBackToApology(t *testing.T) {
	client := &scriptedLLM{replies: []string{
		"order_status",
		"SELECT status, tracking_number, created_at FROM orders WHERE order_id = 'O999'",
	}}
	querier := &fakeQuerier{schema: testSchema(), rows: []datastore.Row{}}
	transcript := &fakeTranscript{}
	p := newTestPipeline(client, querier, transcript)

	resp, err := p.Run(context.Background(), Request{Question: "Where is my order O999?"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.FinalAnswer != FallbackAnswer {
		t.Fatalf("FinalAnswer = %q", resp.FinalAnswer)
	}
	if resp.SessionID != "minted-session" {
		t.Fatalf("SessionID = %q", resp.SessionID)
	}
}

func TestRunPreservesProvidedSessionID(t *testing.T) {
	client := &scriptedLLM{replies: []string{
		"returns",
		"SELECT status, reason, created_at FROM returns WHERE order_id = 'O005'",
		"Your return for O005 is being processed.",
	}}
	querier := &fakeQuerier{
		schema: testSchema(),
		rows:   []datastore.Row{{"status": "processing", "reason": "defective", "created_at": "2026-03-01 10:00:00"}},
	}
	transcript := &fakeTranscript{}
	p := newTestPipeline(client, querier, transcript)

	resp, err := p.Run(context.Background(), Request{Question: "I want to return my product O005.", SessionID: "sess-42"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.SessionID != "sess-42" {
		t.Fatalf("SessionID = %q", resp.SessionID)
	}
	if transcript.exchanges[0].sessionID != "sess-42" {
		t.Fatalf("logged session = %q", transcript.exchanges[0].sessionID)
	}
}

func TestRunRequiresQuestion(t *testing.T) {
	p := newTestPipeline(&scriptedLLM{}, &fakeQuerier{}, &fakeTranscript{})
	if _, err := p.Run(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for empty question")
	}
}
