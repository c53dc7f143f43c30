package llm

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixingo/mixingo/internal/store"
)

func TestLoggingProvider_RecordsEvents(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"ok":true}`), Usage: Usage{InputTokens: 120, OutputTokens: 30}},
		MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`{"oops"`)}},
	)
	p := WithLogging(mock, "openai", st.EventRepo())

	ctx := WithRequestID(WithPurpose(context.Background(), PurposeCTMAnalyze), "req-1")
	_, err = p.Generate(ctx, Request{System: "advisor", Messages: []Message{{Role: RoleUser, Content: "plan"}}, Schema: itemSchema()})
	require.NoError(t, err)

	ctx = WithPurpose(context.Background(), PurposeExerciseGen)
	_, err = p.Generate(ctx, Request{Messages: []Message{{Role: RoleUser, Content: "drill"}}})
	require.Error(t, err)

	events, err := st.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 2)

	byPurpose := map[string]store.LLMEvent{}
	for _, ev := range events {
		byPurpose[ev.Purpose] = ev
	}

	ok := byPurpose[PurposeCTMAnalyze]
	assert.True(t, ok.Success)
	assert.Equal(t, "openai", ok.Provider)
	assert.Equal(t, "mock", ok.Model)
	assert.Equal(t, 120, ok.InputTokens)
	assert.Equal(t, "req-1", ok.RequestID)
	assert.Equal(t, StopEnd, ok.StopReason)
	assert.Contains(t, ok.RequestBody, "[system]\nadvisor")
	assert.Contains(t, ok.RequestBody, "[schema: quiz-item]")

	failed := byPurpose[PurposeExerciseGen]
	assert.False(t, failed.Success)
	assert.Contains(t, failed.ErrorMessage, "invalid LLM response")
	assert.Equal(t, `{"oops"`, failed.ResponseBody)
	assert.Empty(t, failed.RequestID)
}

func TestLoggingProvider_NilRepo(t *testing.T) {
	p := WithLogging(NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)}), "mock", nil)
	_, err := p.Generate(context.Background(), Request{})
	assert.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}
