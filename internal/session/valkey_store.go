package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

const (
	keyPrefix = "overyonder:session:"
	// DefaultTTL expires sessions nobody touched for a day.
	DefaultTTL = 24 * time.Hour
)

// ValkeyStore keeps sessions as JSON documents in Valkey, refreshing the TTL on
// every write.
type ValkeyStore struct {
	client valkey.Client
	ttl    time.Duration
}

// NewValkeyStore connects to the Valkey server at addr.
func NewValkeyStore(addr string, ttl time.Duration) (*ValkeyStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return newValkeyStore(client, ttl), nil
}

func newValkeyStore(client valkey.Client, ttl time.Duration) *ValkeyStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ValkeyStore{client: client, ttl: ttl}
}

func (v *ValkeyStore) Get(ctx context.Context, id string) (*Session, error) {
	b, err := v.client.Do(ctx, v.client.B().Get().Key(keyPrefix+id).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("valkey get session %s: %w", id, err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (v *ValkeyStore) Put(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	cmd := v.client.Do(ctx,
		v.client.B().Set().Key(keyPrefix+s.ID).Value(string(data)).Ex(v.ttl).Build(),
	)
	if err := cmd.Error(); err != nil {
		return fmt.Errorf("valkey put session %s: %w", s.ID, err)
	}
	return nil
}

func (v *ValkeyStore) Delete(ctx context.Context, id string) error {
	n, err := v.client.Do(ctx, v.client.B().Del().Key(keyPrefix+id).Build()).AsInt64()
	if err != nil {
		return fmt.Errorf("valkey delete session %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the client.
func (v *ValkeyStore) Close() {
	v.client.Close()
}
