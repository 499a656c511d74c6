// Package complexity estimates how hard a message is to answer well.
// The score feeds the routing engine: low scores stay on the local
// model, high scores escalate to the flagship backend.
package complexity

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/hrygo/peakstate/plugin/ai/intent"
	"github.com/hrygo/peakstate/plugin/ai/provider"
)

// Factors breaks a complexity score into its components. Each component
// is clamped to its documented range before summation.
type Factors struct {
	Base        int `json:"base"`
	Context     int `json:"context"`      // [0, 6]
	UserPattern int `json:"user_pattern"` // [-1, 3]
	Depth       int `json:"depth"`        // [0, 4]
	Technical   int `json:"technical"`    // [0, 3]
	Total       int `json:"total"`        // [1, 10]
}

var baseScores = map[intent.Intent]int{
	intent.IntentGreeting:         1,
	intent.IntentConfirmation:     1,
	intent.IntentDataQuery:        3,
	intent.IntentAdviceRequest:    5,
	intent.IntentEmotionalSupport: 6,
	intent.IntentComplexAnalysis:  8,
	intent.IntentHealthDiagnosis:  9,
}

// Scorer computes complexity factors for a message.
type Scorer struct {
	logger *slog.Logger
}

// NewScorer creates a complexity scorer.
func NewScorer(logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{logger: logger}
}

// Score computes the complexity factors for a message. The profile may
// be nil when no behavior history exists for the user yet.
func (s *Scorer) Score(_ context.Context, it intent.Intent, message string, history []provider.Message, userProfile *UserProfile) Factors {
	f := Factors{
		Base:        baseScore(it),
		Context:     clamp(contextScore(message, history), 0, 6),
		UserPattern: clamp(userPatternScore(userProfile), -1, 3),
		Depth:       clamp(depthScore(message, history), 0, 4),
		Technical:   clamp(technicalScore(message), 0, 3),
	}
	f.Total = clamp(f.Base+f.Context+f.UserPattern+f.Depth+f.Technical, 1, 10)
	return f
}

func baseScore(it intent.Intent) int {
	if base, ok := baseScores[it]; ok {
		return base
	}
	return baseScores[intent.IntentAdviceRequest]
}

var conditionalKeywords = []string{
	"if", "unless", "depending", "whether", "in case",
	"如果", "假如", "要是", "除非", "取决", "看情况",
}

func contextScore(message string, history []provider.Message) int {
	score := 0

	length := len([]rune(message))
	if length > 100 {
		score++
	}
	if length > 200 {
		score++
	}

	questions := strings.Count(message, "?") + strings.Count(message, "？")
	if questions >= 2 {
		score++
	}
	if questions >= 3 {
		score++
	}

	lower := strings.ToLower(message)
	conditionals := 0
	for _, kw := range conditionalKeywords {
		conditionals += strings.Count(lower, kw)
	}
	if conditionals >= 2 {
		score++
	}

	if len(history) > 5 {
		score++
	}
	if len(history) > 10 {
		score++
	}
	historyChars := 0
	for _, turn := range history {
		historyChars += len([]rune(turn.Content))
	}
	if historyChars > 2000 {
		score++
	}

	return score
}

func userPatternScore(p *UserProfile) int {
	if p == nil {
		return 0
	}
	score := 0
	// New users get slightly more careful handling.
	if p.DaysActive < 7 {
		score++
	}
	switch p.Expertise {
	case ExpertiseAdvanced:
		score++
	case ExpertiseBeginner:
		score--
	}
	if p.PowerUser {
		score++
	}
	return score
}

var backRefs = []string{
	"之前", "刚才", "上次", "你说过", "前面",
	"earlier", "before", "you said", "last time", "previously",
}

func depthScore(message string, history []provider.Message) int {
	score := 0
	if len(history) > 3 {
		score++
	}
	if len(history) > 6 {
		score++
	}

	// Topic switch: low token overlap with the previous user turn.
	if prev, ok := lastUserTurn(history); ok {
		if tokenOverlap(message, prev) < 0.3 {
			score++
		}
	}

	lower := strings.ToLower(message)
	for _, ref := range backRefs {
		if strings.Contains(lower, ref) {
			score++
			break
		}
	}

	return score
}

var technicalTerms = []string{
	"hrv", "rem", "深睡", "浅睡", "rem睡眠", "心率变异", "皮质醇", "褪黑素",
	"血氧", "基础代谢", "vo2", "摄氧量", "乳酸", "糖原", "胰岛素",
	"cortisol", "melatonin", "deep sleep", "sleep latency", "resting heart rate",
	"blood oxygen", "glycogen", "metabolic", "circadian", "recovery score",
}

var unitSuffixes = []string{
	"bpm", "ms", "kg", "km", "小时", "分钟", "毫秒", "公斤", "公里",
	"hours", "minutes", "steps", "步", "%", "°",
}

func technicalScore(message string) int {
	lower := strings.ToLower(message)

	terms := 0
	for _, term := range technicalTerms {
		terms += strings.Count(lower, term)
	}
	score := 0
	if terms >= 1 {
		score++
	}
	if terms >= 3 {
		score++
	}

	if numericUnitRefs(lower) >= 2 {
		score++
	}
	return score
}

// numericUnitRefs counts numbers immediately followed by a known unit.
func numericUnitRefs(lower string) int {
	count := 0
	runes := []rune(lower)
	for i := 0; i < len(runes); i++ {
		if !unicode.IsDigit(runes[i]) {
			continue
		}
		j := i
		for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
			j++
		}
		rest := strings.TrimLeft(string(runes[j:]), " ")
		for _, unit := range unitSuffixes {
			if strings.HasPrefix(rest, unit) {
				count++
				break
			}
		}
		i = j
	}
	return count
}

func lastUserTurn(history []provider.Message) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return history[i].Content, true
		}
	}
	return "", false
}

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "i": {},
	"my": {}, "me": {}, "to": {}, "of": {}, "in": {}, "on": {}, "for": {},
	"and": {}, "or": {}, "do": {}, "does": {}, "how": {}, "what": {},
	"的": {}, "了": {}, "我": {}, "是": {}, "吗": {}, "呢": {}, "一个": {},
}

func tokenize(text string) map[string]struct{} {
	tokens := map[string]struct{}{}
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if _, skip := stopwords[tok]; skip {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

// tokenOverlap returns the Jaccard similarity of the two token sets.
func tokenOverlap(a, b string) float64 {
	ta, tb := tokenize(a), tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	common := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			common++
		}
	}
	union := len(ta) + len(tb) - common
	return float64(common) / float64(union)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
