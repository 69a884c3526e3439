package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"surveyeditor/internal/questionnaire"
)

// DraftCache journals the operations applied to a questionnaire since its last save
// in a Redis list per questionnaire.
type DraftCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftCache(client *redis.Client, ttl time.Duration) *DraftCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DraftCache{client: client, ttl: ttl}
}

func draftKey(projectID, id int64) string {
	return fmt.Sprintf("draft:%d:%d", projectID, id)
}

func (c *DraftCache) Append(ctx context.Context, projectID, id int64, op questionnaire.Operation) error {
	data, err := questionnaire.EncodeOperation(op)
	if err != nil {
		return fmt.Errorf("encode %s: %w", op.OpType(), err)
	}
	key := draftKey(projectID, id)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	return err
}

// Load returns the journaled operations in the order they were applied. A missing
// journal is empty.
func (c *DraftCache) Load(ctx context.Context, projectID, id int64) ([]questionnaire.Operation, error) {
	entries, err := c.client.LRange(ctx, draftKey(projectID, id), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	ops := make([]questionnaire.Operation, 0, len(entries))
	for i, entry := range entries {
		op, err := questionnaire.DecodeOperation([]byte(entry))
		if err != nil {
			return nil, fmt.Errorf("decode draft entry %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Trim drops the n oldest operations, which the store already holds.
func (c *DraftCache) Trim(ctx context.Context, projectID, id int64, n int) error {
	if n <= 0 {
		return nil
	}
	return c.client.LTrim(ctx, draftKey(projectID, id), int64(n), -1).Err()
}
