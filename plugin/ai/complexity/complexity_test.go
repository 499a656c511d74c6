package complexity

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/peakstate/plugin/ai/intent"
	"github.com/hrygo/peakstate/plugin/ai/provider"
)

func TestScoreGreetingStaysLow(t *testing.T) {
	s := NewScorer(nil)
	f := s.Score(context.Background(), intent.IntentGreeting, "你好", nil, nil)
	require.Equal(t, 1, f.Base)
	require.Equal(t, 1, f.Total)
}

func TestScoreBasePerIntent(t *testing.T) {
	s := NewScorer(nil)
	cases := map[intent.Intent]int{
		intent.IntentGreeting:         1,
		intent.IntentConfirmation:     1,
		intent.IntentDataQuery:        3,
		intent.IntentAdviceRequest:    5,
		intent.IntentEmotionalSupport: 6,
		intent.IntentComplexAnalysis:  8,
		intent.IntentHealthDiagnosis:  9,
	}
	for it, want := range cases {
		f := s.Score(context.Background(), it, "short", nil, nil)
		require.Equal(t, want, f.Base, "intent %s", it)
	}
}

func TestScoreContextFactor(t *testing.T) {
	s := NewScorer(nil)

	long := strings.Repeat("sleep data details ", 12) // > 200 runes
	f := s.Score(context.Background(), intent.IntentDataQuery, long, nil, nil)
	require.Equal(t, 2, f.Context)

	multi := "Why am I tired? Is it my sleep? Should I change my schedule?"
	f = s.Score(context.Background(), intent.IntentAdviceRequest, multi, nil, nil)
	require.GreaterOrEqual(t, f.Context, 2)

	history := make([]provider.Message, 12)
	for i := range history {
		history[i] = provider.Message{Role: "user", Content: "turn"}
	}
	f = s.Score(context.Background(), intent.IntentDataQuery, "short", history, nil)
	require.GreaterOrEqual(t, f.Context, 2)
}

func TestScoreContextClamped(t *testing.T) {
	s := NewScorer(nil)
	long := strings.Repeat("if this then that whether depending ? ？ ", 20)
	history := make([]provider.Message, 20)
	for i := range history {
		history[i] = provider.Message{Role: "user", Content: strings.Repeat("x", 200)}
	}
	f := s.Score(context.Background(), intent.IntentHealthDiagnosis, long, history, nil)
	require.LessOrEqual(t, f.Context, 6)
	require.LessOrEqual(t, f.Total, 10)
}

func TestScoreUserPattern(t *testing.T) {
	s := NewScorer(nil)
	ctx := context.Background()

	beginner := &UserProfile{DaysActive: 100, Expertise: ExpertiseBeginner}
	f := s.Score(ctx, intent.IntentAdviceRequest, "short", nil, beginner)
	require.Equal(t, -1, f.UserPattern)

	advanced := &UserProfile{DaysActive: 3, Expertise: ExpertiseAdvanced, PowerUser: true}
	f = s.Score(ctx, intent.IntentAdviceRequest, "short", nil, advanced)
	require.Equal(t, 3, f.UserPattern)
}

func TestScoreTechnicalFactor(t *testing.T) {
	s := NewScorer(nil)
	f := s.Score(context.Background(), intent.IntentDataQuery,
		"my hrv dropped and my deep sleep was 42 minutes at 55bpm", nil, nil)
	require.GreaterOrEqual(t, f.Technical, 2)
}

func TestScoreDepthBackwardReference(t *testing.T) {
	s := NewScorer(nil)
	history := []provider.Message{
		{Role: "user", Content: "how did I sleep last night"},
		{Role: "assistant", Content: "seven hours with good deep sleep"},
	}
	f := s.Score(context.Background(), intent.IntentAdviceRequest,
		"and like you said earlier, how do I keep that deep sleep going", history, nil)
	require.GreaterOrEqual(t, f.Depth, 1)
}

func TestScoreTotalBounds(t *testing.T) {
	s := NewScorer(nil)
	beginner := &UserProfile{DaysActive: 100, Expertise: ExpertiseBeginner}
	f := s.Score(context.Background(), intent.IntentGreeting, "hi", nil, beginner)
	require.GreaterOrEqual(t, f.Total, 1)
}

func TestProfileCacheLoadsOnce(t *testing.T) {
	var loads int64
	cache := NewProfileCache(func(_ context.Context, userID string) (*UserProfile, error) {
		atomic.AddInt64(&loads, 1)
		return &UserProfile{UserID: userID, DaysActive: 10}, nil
	}, 8)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := cache.Get(context.Background(), "user-1")
			require.NoError(t, err)
			require.Equal(t, "user-1", p.UserID)
		}()
	}
	wg.Wait()
	require.Equal(t, int64(1), atomic.LoadInt64(&loads))
}

func TestProfileCacheEvicts(t *testing.T) {
	cache := NewProfileCache(func(_ context.Context, userID string) (*UserProfile, error) {
		return &UserProfile{UserID: userID}, nil
	}, 2)

	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_, err := cache.Get(ctx, id)
		require.NoError(t, err)
	}
	require.Equal(t, 2, cache.Len())
}

func TestDecisionRecorderWrapsAround(t *testing.T) {
	r := NewDecisionRecorder(3)
	for i := 0; i < 5; i++ {
		r.Append(DecisionRecord{Complexity: i})
	}
	require.Equal(t, 3, r.Len())

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	require.Equal(t, 2, snap[0].Complexity)
	require.Equal(t, 4, snap[2].Complexity)
}

func TestDecisionRecorderConcurrentAppend(t *testing.T) {
	r := NewDecisionRecorder(100)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Append(DecisionRecord{Backend: "gpt-5-nano"})
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 100, r.Len())
}
