// Package draft keeps in-progress invoices in Redis between panel requests.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/stockdesk/internal/invoice"
)

const keyPrefix = "stockdesk:draft"

// Store is a Redis backed invoice.DraftStore. Every save refreshes the TTL so
// abandoned drafts expire on their own.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore builds a draft store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

var _ invoice.DraftStore = (*Store)(nil)

// Load fetches a draft of the owner.
func (s *Store) Load(ctx context.Context, owner, id string) (invoice.Draft, error) {
	key, err := buildKey(owner, id)
	if err != nil {
		return invoice.Draft{}, err
	}
	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return invoice.Draft{}, invoice.ErrDraftNotFound
	}
	if err != nil {
		return invoice.Draft{}, fmt.Errorf("draft: load: %w", err)
	}
	var d invoice.Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return invoice.Draft{}, fmt.Errorf("draft: decode %s: %w", id, err)
	}
	return d, nil
}

// Save stores a draft of the owner.
func (s *Store) Save(ctx context.Context, owner string, d invoice.Draft) error {
	key, err := buildKey(owner, d.ID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("draft: encode %s: %w", d.ID, err)
	}
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("draft: save: %w", err)
	}
	return nil
}

// Delete removes a draft of the owner.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	key, err := buildKey(owner, id)
	if err != nil {
		return err
	}
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("draft: delete: %w", err)
	}
	if n == 0 {
		return invoice.ErrDraftNotFound
	}
	return nil
}

func buildKey(owner, id string) (string, error) {
	if owner == "" || id == "" || strings.Contains(owner, ":") || strings.Contains(id, ":") {
		return "", invoice.ErrDraftNotFound
	}
	return strings.Join([]string{keyPrefix, owner, id}, ":"), nil
}
