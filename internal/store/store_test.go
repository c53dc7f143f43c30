package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mixingo/mixingo/internal/curriculum"
	"github.com/mixingo/mixingo/internal/session"
	"github.com/mixingo/mixingo/internal/signals"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil database handle")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range []string{"sessions", "llm_request_events", "global_sequence"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("query sqlite_master for %s: %v", table, err)
		}
		if name != table {
			t.Errorf("table name = %q, want %q", name, table)
		}
	}
}

func TestTablesFromSchema(t *testing.T) {
	tables := Tables()
	if len(tables) != 3 {
		t.Fatalf("expected 3 tables, got %d", len(tables))
	}
	if !tables[0].HasColumn("updated_at") {
		t.Error("sessions should carry updated_at from the Touched mixin")
	}
	events := tables[1]
	for _, col := range []string{"id", "sequence", "timestamp", "request_id", "purpose", "stop_reason", "request_body"} {
		if !events.HasColumn(col) {
			t.Errorf("llm_request_events missing column %q", col)
		}
	}
	c, _ := events.Column("sequence")
	if !c.Unique {
		t.Error("sequence column should be unique")
	}
	ctm, _ := tables[0].Column("ctm")
	if !ctm.Nullable {
		t.Error("ctm column should be nullable")
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()
	ctx := context.Background()

	sc, err := newSequenceCounter(ctx, db)
	if err != nil {
		t.Fatalf("new sequence counter: %v", err)
	}

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := sc.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	// Should be monotonically increasing starting from 1.
	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}

	// Re-seeding, as a second process opening the file would, keeps the count.
	again, err := newSequenceCounter(ctx, db)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if seq, err := again.Next(ctx); err != nil || seq != 6 {
		t.Errorf("after reseed Next() = %d, %v; want 6", seq, err)
	}
}

func TestLLMEvents_AppendQueryGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	inputs := []LLMRequestEventData{
		{RequestID: "req-a", Provider: "openai", Model: "gpt-4o-mini", Purpose: "ctm-analyze", InputTokens: 400, OutputTokens: 900, LatencyMs: 1200, StopReason: "end", Success: true, RequestBody: "[system]\n...", ResponseBody: `{"heatmap":[]}`},
		{RequestID: "req-b", Provider: "openai", Model: "gpt-4o-mini", Purpose: "exercise-gen", InputTokens: 200, OutputTokens: 300, LatencyMs: 800, Success: true},
		{RequestID: "req-a", Provider: "openai", Model: "gpt-4o-mini", Purpose: "ctm-analyze", LatencyMs: 50, Success: false, ErrorMessage: "rate limited"},
	}
	for i, in := range inputs {
		if err := repo.AppendLLMRequest(ctx, in); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Sequence <= events[1].Sequence {
		t.Errorf("events not newest first: %d then %d", events[0].Sequence, events[1].Sequence)
	}
	if events[0].ErrorMessage != "rate limited" || events[0].Success {
		t.Errorf("unexpected newest event: %+v", events[0])
	}

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1, Purpose: "exercise-gen"})
	if err != nil {
		t.Fatalf("query limited: %v", err)
	}
	if len(limited) != 1 || limited[0].Purpose != "exercise-gen" {
		t.Fatalf("unexpected filtered events: %+v", limited)
	}

	byRequest, err := repo.QueryLLMEvents(ctx, QueryOpts{RequestID: "req-a"})
	if err != nil {
		t.Fatalf("query by request: %v", err)
	}
	if len(byRequest) != 2 {
		t.Errorf("expected 2 events for req-a, got %d", len(byRequest))
	}

	after, err := repo.QueryLLMEvents(ctx, QueryOpts{After: events[1].Sequence})
	if err != nil {
		t.Fatalf("query after: %v", err)
	}
	if len(after) != 1 {
		t.Errorf("expected 1 event after seq %d, got %d", events[1].Sequence, len(after))
	}

	first := events[2]
	got, err := repo.GetLLMEvent(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ResponseBody != `{"heatmap":[]}` || got.StopReason != "end" || got.RequestID != "req-a" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if time.Since(got.Timestamp) > time.Minute {
		t.Errorf("timestamp not recent: %v", got.Timestamp)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for missing event")
	}
}

func TestLLMUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, in := range []LLMRequestEventData{
		{Model: "gpt-4o-mini", Purpose: "ctm-analyze", InputTokens: 100, OutputTokens: 10, LatencyMs: 100, Success: true},
		{Model: "gpt-4o-mini", Purpose: "ctm-analyze", InputTokens: 300, OutputTokens: 30, LatencyMs: 300, Success: true},
		{Model: "gemini-2.0-flash", Purpose: "exercise-gen", InputTokens: 50, OutputTokens: 5, LatencyMs: 40, Success: true},
		{Model: "gemini-2.0-flash", Purpose: "exercise-gen", LatencyMs: 10, Success: false},
	} {
		if err := repo.AppendLLMRequest(ctx, in); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("expected 2 purposes, got %d", len(byPurpose))
	}
	ctm := byPurpose[0]
	if ctm.Purpose != "ctm-analyze" || ctm.Calls != 2 || ctm.InputTokens != 400 || ctm.OutputTokens != 40 || ctm.AvgLatencyMs != 200 {
		t.Errorf("unexpected ctm usage: %+v", ctm)
	}
	if byPurpose[1].Calls != 2 {
		t.Errorf("exercise-gen calls = %d, want 2", byPurpose[1].Calls)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 {
		t.Fatalf("expected 2 models, got %d", len(byModel))
	}
	// Failed calls are excluded from cost.
	if byModel[0].Model != "gemini-2.0-flash" || byModel[0].Calls != 1 {
		t.Errorf("unexpected gemini usage: %+v", byModel[0])
	}
}

func TestSessionRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	if _, err := repo.Get(ctx, "nobody"); err != session.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	answers := []signals.Answer{
		{QuestionID: "q1", Answer: "la", TimeTaken: 3, Correct: false, Category: "grammar"},
		{QuestionID: "q2", Answer: "bon", TimeTaken: 5, Correct: true, Category: "pronunciation"},
	}
	in := &session.Session{
		UserID:  "u1",
		Profile: curriculum.DefaultProfile(),
		Signals: signals.Compute(answers),
		Answers: answers,
	}
	if err := repo.Put(ctx, in); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Profile.TargetLanguage != "French" || len(got.Answers) != 2 {
		t.Errorf("unexpected session: %+v", got)
	}
	if got.Signals.ErrorDistribution["grammar"] != 1 {
		t.Errorf("grammar errors = %d, want 1", got.Signals.ErrorDistribution["grammar"])
	}
	if got.CTM != nil {
		t.Errorf("expected no CTM yet, got %s", got.CTM)
	}

	got.CTM = json.RawMessage(`{"modules_to_skip":["M02_Cognates"]}`)
	if err := repo.Put(ctx, got); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	again, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get after upsert: %v", err)
	}
	if string(again.CTM) != `{"modules_to_skip":["M02_Cognates"]}` {
		t.Errorf("ctm = %s", again.CTM)
	}

	var count int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("sessions rows = %d, want 1", count)
	}

	if err := repo.Put(ctx, &session.Session{}); err == nil {
		t.Error("expected error for blank user id")
	}
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("MIXINGO_DB", "")

	got, err := ResolvePath("")
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if want := filepath.Join(dir, "mixingo", "mixingo.db"); got != want {
		t.Errorf("default path = %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Errorf("parent dir not created: %v", err)
	}

	env := filepath.Join(dir, "env", "x.db")
	t.Setenv("MIXINGO_DB", env)
	if got, _ := ResolvePath(""); got != env {
		t.Errorf("MIXINGO_DB path = %q, want %q", got, env)
	}

	explicit := filepath.Join(dir, "flag", "y.db")
	if got, _ := ResolvePath(explicit); got != explicit {
		t.Errorf("explicit path = %q, want %q", got, explicit)
	}

	if got, _ := ResolvePath("file::memory:?cache=shared"); got != "file::memory:?cache=shared" {
		t.Errorf("sqlite URI rewritten to %q", got)
	}
}
