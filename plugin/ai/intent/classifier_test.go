package intent_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	ai "github.com/hrygo/peakstate/plugin/ai"
	"github.com/hrygo/peakstate/plugin/ai/intent"
)

func newClassifier(t *testing.T) (*intent.Classifier, *ai.MockEmbeddingService) {
	t.Helper()
	embedder := ai.NewMockEmbeddingService(384)
	return intent.NewClassifier(embedder, nil), embedder
}

func TestClassifyGreetingByRule(t *testing.T) {
	c, embedder := newClassifier(t)
	// Rules must not touch the embedder at all.
	embedder.SetFail(true)

	for _, msg := range []string{"你好", "Hello!", "hi", "早上好", "  hey  "} {
		result := c.Classify(context.Background(), msg, nil)
		require.Equal(t, intent.IntentGreeting, result.Intent, "message %q", msg)
		require.Equal(t, intent.MethodRule, result.Method)
		require.GreaterOrEqual(t, result.Confidence, 0.90)
	}
}

func TestClassifyConfirmationByRule(t *testing.T) {
	c, _ := newClassifier(t)

	for _, msg := range []string{"好的", "ok", "thanks!", "是的。", "没问题"} {
		result := c.Classify(context.Background(), msg, nil)
		require.Equal(t, intent.IntentConfirmation, result.Intent, "message %q", msg)
		require.Equal(t, intent.MethodRule, result.Method)
	}
}

func TestClassifySemantic(t *testing.T) {
	c, _ := newClassifier(t)
	ctx := context.Background()

	cases := []struct {
		message string
		want    intent.Intent
	}{
		{"how can I improve my sleep quality this month", intent.IntentAdviceRequest},
		{"analyze the relationship between my sleep and energy over the past month", intent.IntentComplexAnalysis},
		{"I feel so stressed lately and overwhelmed", intent.IntentEmotionalSupport},
		{"how long did I sleep last night exactly", intent.IntentDataQuery},
	}
	for _, tc := range cases {
		result := c.Classify(ctx, tc.message, nil)
		require.Equal(t, tc.want, result.Intent, "message %q", tc.message)
		require.Equal(t, intent.MethodSemantic, result.Method)
		require.GreaterOrEqual(t, result.Confidence, 0.5)
		require.LessOrEqual(t, result.Confidence, 0.99)
	}
}

func TestClassifyFallbackOnEmbedderFailure(t *testing.T) {
	c, embedder := newClassifier(t)
	embedder.SetFail(true)

	result := c.Classify(context.Background(), "what does my resting heart rate trend mean", nil)
	require.Equal(t, intent.IntentAdviceRequest, result.Intent)
	require.Equal(t, intent.MethodFallback, result.Method)
	require.Equal(t, 0.6, result.Confidence)
}

func TestClassifyFlags(t *testing.T) {
	c, _ := newClassifier(t)
	ctx := context.Background()

	empathy := c.Classify(ctx, "I feel burned out and miserable", nil)
	require.Equal(t, intent.IntentEmotionalSupport, empathy.Intent)
	require.True(t, empathy.RequiresEmpathy)
	require.False(t, empathy.RequiresToolAccess)

	query := c.Classify(ctx, "show me my sleep data for this week", nil)
	require.Equal(t, intent.IntentDataQuery, query.Intent)
	require.True(t, query.RequiresToolAccess)
	require.False(t, query.RequiresContextAugmentation)

	analysis := c.Classify(ctx, "compare my recovery on workout days versus rest days", nil)
	require.Equal(t, intent.IntentComplexAnalysis, analysis.Intent)
	require.True(t, analysis.RequiresToolAccess)
	require.True(t, analysis.RequiresContextAugmentation)
}

func TestClassifyConcurrentFirstUse(t *testing.T) {
	c, _ := newClassifier(t)

	var wg sync.WaitGroup
	results := make([]intent.Classification, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Classify(context.Background(), "how can I improve my sleep quality", nil)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.Equal(t, intent.IntentAdviceRequest, r.Intent)
	}
}

func TestStats(t *testing.T) {
	c, _ := newClassifier(t)
	ctx := context.Background()

	c.Classify(ctx, "你好", nil)
	c.Classify(ctx, "how can I improve my sleep quality", nil)

	s := c.Stats()
	require.Equal(t, int64(2), s.Total)
	require.Equal(t, int64(1), s.RuleHits)
	require.Equal(t, int64(1), s.SemanticHits)
	require.Equal(t, int64(0), s.Fallbacks)
}
