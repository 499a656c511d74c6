package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hrygo/peakstate/plugin/ai/provider"
)

const keyPrefix = "response"

// normalizeQuery canonicalizes a query for exact-match keying: lowered,
// trimmed, inner whitespace collapsed. Semantically equal phrasings that
// differ beyond whitespace are Tier 2's job, not Tier 1's.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// userKeyPrefix is the Redis prefix owning every Tier-1 key of a user.
func userKeyPrefix(userID string) string {
	return fmt.Sprintf("%s:%s:", keyPrefix, userID)
}

// exactKey builds the Tier-1 Redis key. The context hash component is
// present only when there is conversation history, so the same question
// asked inside different conversations caches separately.
func exactKey(userID, query string, history []provider.Message) string {
	queryHash := md5sum(normalizeQuery(query))[:16]
	key := userKeyPrefix(userID) + queryHash
	if len(history) > 0 {
		key += ":" + contextHash(history)
	}
	return key
}

// contextHash digests the last three turns of history.
func contextHash(history []provider.Message) string {
	start := len(history) - 3
	if start < 0 {
		start = 0
	}
	var b strings.Builder
	for _, turn := range history[start:] {
		b.WriteString(turn.Role)
		b.WriteString(":")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return md5sum(b.String())[:8]
}

func md5sum(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
