package store

import (
	"context"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/XiaoConstantine/mimic-go/pkg/errors"
)

// DefaultRedisPrefix namespaces persona keys so the store can share a
// database with other services.
const DefaultRedisPrefix = "mimic:persona:"

// RedisStore persists records in Redis, one key per persona. Suited to
// deployments where several engine processes share persona state.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the key namespace.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore wraps an existing client. The caller owns connection
// settings; Close closes the client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Save implements Store, keeping the stored CreatedAt when the persona
// already has a key.
func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New(errors.InvalidInput, "cannot save nil record")
	}
	rec = rec.Clone()
	rec.Normalize()

	if prior, err := s.Load(ctx, rec.ID); err == nil {
		rec.CreatedAt = prior.CreatedAt
	}

	data, err := Encode(rec)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(rec.ID), data, 0).Err(); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to write record to redis"),
			errors.Fields{"persona_id": rec.ID})
	}
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, errors.WithFields(
			errors.New(errors.UnknownPersona, "no stored record for persona"),
			errors.Fields{"persona_id": id})
	}
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to read record from redis"),
			errors.Fields{"persona_id": id})
	}
	return Decode(data)
}

// Delete implements Store. Removing an id that was never saved is a no-op.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to delete record from redis"),
			errors.Fields{"persona_id": id})
	}
	return nil
}

// List implements Store. Ids are returned sorted.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 256).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to scan persona keys")
	}
	sort.Strings(ids)
	return ids, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
