package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultDraftTTL is how long an untouched wizard draft survives.
	DefaultDraftTTL = 24 * time.Hour

	draftKeyPrefix = "campaigner:draft:"
)

// RedisDrafts keeps wizard drafts in Redis so several serve processes can
// share one conversation state. Drafts expire after TTL of inactivity.
type RedisDrafts struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisDrafts connects to the Redis instance at rawURL
// (redis://[:password@]host:port/db).
func NewRedisDrafts(rawURL string) (*RedisDrafts, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisDrafts{rdb: redis.NewClient(opt), ttl: DefaultDraftTTL}, nil
}

func draftKey(chatID string) string {
	return draftKeyPrefix + chatID
}

func (r *RedisDrafts) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisDrafts) SaveDraft(ctx context.Context, d Draft) error {
	d.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, draftKey(d.ChatID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save draft %s: %w", d.ChatID, err)
	}
	return nil
}

// GetDraft returns ErrNotFound when chatID has no live draft.
func (r *RedisDrafts) GetDraft(ctx context.Context, chatID string) (Draft, error) {
	data, err := r.rdb.Get(ctx, draftKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Draft{}, ErrNotFound
	}
	if err != nil {
		return Draft{}, fmt.Errorf("get draft %s: %w", chatID, err)
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return Draft{}, fmt.Errorf("draft %s: %w", chatID, err)
	}
	return d, nil
}

func (r *RedisDrafts) ClearDraft(ctx context.Context, chatID string) error {
	return r.rdb.Del(ctx, draftKey(chatID)).Err()
}

func (r *RedisDrafts) Close() error {
	return r.rdb.Close()
}
