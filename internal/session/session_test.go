package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mixingo/mixingo/internal/curriculum"
	"github.com/mixingo/mixingo/internal/signals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession(userID string) *Session {
	answers := []signals.Answer{
		{QuestionID: "q1", Answer: "la", TimeTaken: 2.5, Correct: true, Category: "grammar"},
		{QuestionID: "q2", Answer: "le", TimeTaken: 4, Correct: false, Category: "grammar"},
	}
	return &Session{
		UserID:  userID,
		Profile: curriculum.DefaultProfile(),
		Signals: signals.Compute(answers),
		Answers: answers,
	}
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	_, err := st.Get(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Put(ctx, sampleSession("u1")))

	got, err := st.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "French", got.Profile.TargetLanguage)
	assert.Equal(t, map[string]int{"grammar": 1}, got.Signals.ErrorDistribution)
	assert.Len(t, got.Answers, 2)
	assert.False(t, got.UpdatedAt.IsZero())
	assert.Empty(t, got.CTM)

	got.CTM = json.RawMessage(`{"recommended_order":["M05_Gender"]}`)
	require.NoError(t, st.Put(ctx, got))

	again, err := st.Get(ctx, "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"recommended_order":["M05_Gender"]}`, string(again.CTM))

	assert.Error(t, st.Put(ctx, &Session{}))
}

func TestMemoryStore(t *testing.T) {
	st, err := NewMemoryStore(8, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	exerciseStore(t, st)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	st, err := NewMemoryStore(8, 0)
	require.NoError(t, err)
	ctx := context.Background()

	s := sampleSession("u1")
	require.NoError(t, st.Put(ctx, s))
	s.Signals.ErrorDistribution["grammar"] = 99

	got, err := st.Get(ctx, "u1")
	require.NoError(t, err)
	got.Answers[0].Category = "script"

	again, err := st.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Signals.ErrorDistribution["grammar"])
	assert.Equal(t, "grammar", again.Answers[0].Category)
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	st, err := NewMemoryStore(2, 0)
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, st.Put(ctx, sampleSession(id)))
	}
	assert.Equal(t, 2, st.Len())

	_, err = st.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestMemoryStore_Expires(t *testing.T) {
	st, err := NewMemoryStore(4, 20*time.Millisecond)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, sampleSession("u1")))
	require.Eventually(t, func() bool {
		_, err := st.Get(ctx, "u1")
		return err == ErrNotFound
	}, time.Second, 10*time.Millisecond)
}

func TestNewMemoryStore_RejectsZeroCapacity(t *testing.T) {
	_, err := NewMemoryStore(0, time.Minute)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, DefaultConfig())
	require.NoError(t, err)
	_, ok := st.(*MemoryStore)
	assert.True(t, ok)
	require.NoError(t, st.Close())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"redis without addr", Config{Backend: BackendRedis}},
		{"postgres without dsn", Config{Backend: BackendPostgres}},
		{"sqlite", Config{Backend: BackendSQLite}},
		{"unknown", Config{Backend: "dynamo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(ctx, tt.cfg)
			assert.Error(t, err)
		})
	}
}
