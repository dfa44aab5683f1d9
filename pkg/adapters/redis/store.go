package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hificopy/formflow/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "formflow:"

// Option configures the Store.
type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL expires respondent progress after ttl without updates. Flows never expire.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// Store implements ports.FlowStore using Redis. Flow documents are JSON
// strings and a sorted set indexes the form ids by last update.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// New connects to the Redis server at addr.
func New(addr string, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{Addr: addr}), opts...)
}

// NewFromClient creates a store on an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying client, e.g. to build a Locker on it.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) flowKey(id string) string {
	return s.prefix + "flow:" + id
}

func (s *Store) flowIndex() string {
	return s.prefix + "flows"
}

// Save stores the flow and indexes its id.
func (s *Store) Save(ctx context.Context, flow *domain.Flow) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.flowKey(flow.ID), data, 0)
	pipe.ZAdd(ctx, s.flowIndex(), backend.Z{Score: float64(time.Now().UnixMilli()), Member: flow.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save flow to redis: %w", err)
	}
	return nil
}

// Load retrieves a flow.
func (s *Store) Load(ctx context.Context, id string) (*domain.Flow, error) {
	data, err := s.client.Get(ctx, s.flowKey(id)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, domain.ErrFlowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load flow from redis: %w", err)
	}

	var flow domain.Flow
	if err := json.Unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow: %w", err)
	}
	return &flow, nil
}

// Delete removes a flow and its index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.flowKey(id))
	pipe.ZRem(ctx, s.flowIndex(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete flow from redis: %w", err)
	}
	return nil
}

// List returns the stored form ids, oldest update first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.ZRange(ctx, s.flowIndex(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	return ids, nil
}

// Progress returns the ProgressStore sharing this store's client, prefix and TTL.
func (s *Store) Progress() *ProgressStore {
	return &ProgressStore{store: s}
}
