package intent

import (
	"regexp"
	"strings"
)

// The rule stage only fires on short, unambiguous messages. Anything it
// misses falls through to the semantic stage, so the patterns are
// anchored and kept narrow on purpose.

const ruleConfidence = 0.95

var (
	greetingPattern = regexp.MustCompile(
		`^(hi|hello|hey|yo|good (morning|afternoon|evening)|你好|您好|嗨|哈喽|早上好|中午好|下午好|晚上好|早安|晚安)$`)
	confirmationPattern = regexp.MustCompile(
		`^(yes|yeah|yep|no|nope|ok|okay|sure|got it|thanks|thank you|thx|好|好的|好滴|是|是的|不是|不|行|可以|没问题|嗯|嗯嗯|谢谢|多谢|收到|明白|明白了)$`)
	trailingPunct = regexp.MustCompile(`[!！。.~～?？\s]+$`)
)

// matchRule returns the rule-stage intent for a message, if any.
func matchRule(message string) (Intent, bool) {
	normalized := strings.ToLower(strings.TrimSpace(message))
	normalized = trailingPunct.ReplaceAllString(normalized, "")
	if normalized == "" {
		return "", false
	}
	if greetingPattern.MatchString(normalized) {
		return IntentGreeting, true
	}
	if confirmationPattern.MatchString(normalized) {
		return IntentConfirmation, true
	}
	return "", false
}
