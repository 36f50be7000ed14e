package escalation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/match"
)

// AnswerCache reuses escalation answers across passes. The same
// question ("Are you authorized to work in the US?" with the same
// option set) appears on thousands of postings; answering it once per
// TTL window instead of once per pass keeps escalation traffic flat.
//
// A nil AnswerCache is valid and caches nothing.
type AnswerCache struct {
	client *redis.Client
	ttl    time.Duration
}

const answerKeyPrefix = "answer:"

// DefaultAnswerTTL bounds staleness; profile edits take effect within
// this window without explicit invalidation.
const DefaultAnswerTTL = 24 * time.Hour

// NewAnswerCache creates an answer cache over an existing Redis client.
// A nil client yields a nil cache, which is safe to use.
func NewAnswerCache(client *redis.Client, ttl time.Duration) *AnswerCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultAnswerTTL
	}
	return &AnswerCache{client: client, ttl: ttl}
}

// Key derives the cache identity of a question: the normalized label
// plus a digest of the option set. The same wording with different
// options is a different question.
func (c *AnswerCache) Key(q domain.AIQuestion) string {
	h := sha256.New()
	h.Write([]byte(string(q.Type)))
	for _, opt := range q.Options {
		h.Write([]byte{0})
		h.Write([]byte(match.Normalize(opt)))
	}
	digest := hex.EncodeToString(h.Sum(nil))[:16]
	return answerKeyPrefix + match.Normalize(q.Label) + ":" + digest
}

// Get returns the cached answer for a question, or nil on miss.
func (c *AnswerCache) Get(ctx context.Context, q domain.AIQuestion) (*domain.AIAnswer, error) {
	if c == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, c.Key(q)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var answer domain.AIAnswer
	if err := json.Unmarshal(data, &answer); err != nil {
		return nil, err
	}
	// The cached answer joins to whatever field asked this time.
	answer.QuestionID = q.ID
	return &answer, nil
}

// Set stores an answer under its question's identity.
func (c *AnswerCache) Set(ctx context.Context, q domain.AIQuestion, answer domain.AIAnswer) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.Key(q), data, c.ttl).Err()
}

// Invalidate drops all cached answers. Called when the applicant
// profile changes in a way that affects answers.
func (c *AnswerCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, answerKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}

// Health checks Redis connectivity.
func (c *AnswerCache) Health(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying connection.
func (c *AnswerCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
