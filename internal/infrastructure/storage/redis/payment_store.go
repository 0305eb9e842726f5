// Package redis provides the Redis-backed payment status store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	goredis "github.com/redis/go-redis/v9"

	"billing/internal/domain/payment"
	"billing/pkg/logger"
)

const (
	keyPrefix       = "billing:payment:"
	maxWatchRetries = 10
)

// PaymentStore implements payment.Store with one JSON value per batch key.
// Update uses WATCH/MULTI so concurrent writers of one batch never interleave.
type PaymentStore struct {
	client goredis.UniversalClient
}

var _ payment.Store = (*PaymentStore)(nil)

func NewPaymentStore(client goredis.UniversalClient) *PaymentStore {
	return &PaymentStore{client: client}
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, rawURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// StorageKey returns the Redis key of a batch. Both parts are escaped so a
// supplier containing the separator cannot collide with another batch.
func StorageKey(k payment.Key) string {
	return keyPrefix + url.PathEscape(k.Supplier) + "/" + url.PathEscape(k.Batch)
}

func (s *PaymentStore) Get(ctx context.Context, k payment.Key) (*payment.Status, error) {
	return read(ctx, s.client, StorageKey(k))
}

func (s *PaymentStore) Update(ctx context.Context, k payment.Key, fn payment.UpdateFunc) error {
	key := StorageKey(k)

	txf := func(tx *goredis.Tx) error {
		current, err := read(ctx, tx, key)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil || next == nil {
			return err
		}

		body, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode payment status: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, body, 0)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= maxWatchRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}
		logger.Debug(ctx, "payment status changed concurrently, retrying", "batch_key", k.String(), "attempt", attempt)
	}
	return fmt.Errorf("update payment status %s: too much contention", k.String())
}

func (s *PaymentStore) Delete(ctx context.Context, k payment.Key) error {
	if err := s.client.Del(ctx, StorageKey(k)).Err(); err != nil {
		return fmt.Errorf("delete payment status: %w", err)
	}
	return nil
}

// getter is satisfied by both the client and a WATCH transaction.
type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func read(ctx context.Context, c getter, key string) (*payment.Status, error) {
	body, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment status: %w", err)
	}

	var st payment.Status
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("decode payment status: %w", err)
	}
	if st.Payments == nil {
		st.Payments = []payment.Record{}
	}
	return &st, nil
}
