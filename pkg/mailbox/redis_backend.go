// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend persists queued envelopes to a Redis hash keyed per actor
// id, one field per envelope id. It exists for recovery after a process
// restart; the in-memory lanes remain authoritative for live delivery
// order.
type RedisBackend struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// RedisBackendConfig configures a RedisBackend.
type RedisBackendConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL bounds how long a persisted envelope survives without being
	// delivered; zero disables expiry.
	TTL time.Duration
}

// NewRedisBackend dials addr and verifies connectivity with a Ping.
func NewRedisBackend(ctx context.Context, cfg RedisBackendConfig) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("mailbox redis backend ping: %w", err)
	}
	return &RedisBackend{client: client, ttl: cfg.TTL}, nil
}

func (b *RedisBackend) hashKey(actorID string) string {
	return "mailbox:" + actorID
}

// Persist stores e as a JSON-encoded hash field.
func (b *RedisBackend) Persist(ctx context.Context, actorID string, e *Envelope) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	key := b.hashKey(actorID)
	if err := b.client.HSet(ctx, key, e.ID, data).Err(); err != nil {
		return fmt.Errorf("hset envelope: %w", err)
	}
	if b.ttl > 0 {
		if err := b.client.Expire(ctx, key, b.ttl).Err(); err != nil {
			return fmt.Errorf("expire mailbox hash: %w", err)
		}
	}
	return nil
}

// Load returns every envelope still recorded for actorID.
func (b *RedisBackend) Load(ctx context.Context, actorID string) ([]*Envelope, error) {
	raw, err := b.client.HGetAll(ctx, b.hashKey(actorID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall: %w", err)
	}
	out := make([]*Envelope, 0, len(raw))
	for id, data := range raw {
		var e Envelope
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("unmarshal envelope %s: %w", id, err)
		}
		out = append(out, &e)
	}
	return out, nil
}

// Delete removes envelopeID's field once it has been delivered.
func (b *RedisBackend) Delete(ctx context.Context, actorID, envelopeID string) error {
	if err := b.client.HDel(ctx, b.hashKey(actorID), envelopeID).Err(); err != nil {
		return fmt.Errorf("hdel: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
