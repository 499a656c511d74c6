// Package intent classifies user messages into routing intents. A fast
// rule stage catches greetings and confirmations without an embedding
// call; everything else goes through semantic similarity against a set
// of example phrases per intent.
package intent

import "time"

// Intent is the category a user message is classified into.
type Intent string

const (
	IntentGreeting         Intent = "greeting"
	IntentConfirmation     Intent = "confirmation"
	IntentDataQuery        Intent = "data-query"
	IntentAdviceRequest    Intent = "advice-request"
	IntentEmotionalSupport Intent = "emotional-support"
	IntentComplexAnalysis  Intent = "complex-analysis"
	IntentHealthDiagnosis  Intent = "health-diagnosis"
)

// Method records which stage produced the classification.
type Method string

const (
	MethodRule     Method = "rule"
	MethodSemantic Method = "semantic"
	MethodFallback Method = "fallback"
)

// Classification is the result of classifying a single message.
type Classification struct {
	Intent     Intent
	Confidence float64
	Method     Method
	Elapsed    time.Duration

	// Downstream requirements derived from the intent.
	RequiresEmpathy             bool
	RequiresToolAccess          bool
	RequiresContextAugmentation bool
}

// withFlags fills the requirement flags from the intent.
func (c Classification) withFlags() Classification {
	switch c.Intent {
	case IntentEmotionalSupport:
		c.RequiresEmpathy = true
	case IntentDataQuery:
		c.RequiresToolAccess = true
	case IntentAdviceRequest:
		c.RequiresContextAugmentation = true
	case IntentComplexAnalysis, IntentHealthDiagnosis:
		c.RequiresToolAccess = true
		c.RequiresContextAugmentation = true
	}
	return c
}

// All lists every known intent in a stable order.
func All() []Intent {
	return []Intent{
		IntentGreeting,
		IntentConfirmation,
		IntentDataQuery,
		IntentAdviceRequest,
		IntentEmotionalSupport,
		IntentComplexAnalysis,
		IntentHealthDiagnosis,
	}
}
