// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package storage is the durable key-value storage the client persists its state to.
package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/food-lucky-box/lucky-box/luckybox/config"
)

// Store holds opaque blobs under string keys.
type Store interface {
	// Get returns ok=false, and no error, when the key does not exist.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

var (
	redisOnce   sync.Once
	redisClient *redis.Client
)

// GetRedis returns the process-wide Redis client configured by REDIS_URL, or nil if none is configured.
func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		u := config.GetConfig().RedisURL
		if u == "" {
			return
		}
		opts, err := redis.ParseURL(u)
		if err != nil {
			zap.S().Errorf("Invalid REDIS_URL, falling back to in-memory storage: %v", err)
			return
		}
		redisClient = redis.NewClient(opts)
	})
	return redisClient
}

// namespaceKey holds the generated client id shared by every process using the same Redis.
const namespaceKey = "luckybox:client-id"

// Namespace returns clientID if set. Otherwise it returns the id stored in Redis, generating and storing
// one the first time, so restarts find the state written before them.
func Namespace(ctx context.Context, client *redis.Client, clientID string) (string, error) {
	if clientID != "" {
		return clientID, nil
	}
	if err := client.SetNX(ctx, namespaceKey, uuid.NewString(), 0).Err(); err != nil {
		return "", err
	}
	return client.Get(ctx, namespaceKey).Result()
}

// Redis stores every key under a per-client namespace.
type Redis struct {
	client    *redis.Client
	namespace string
}

func NewRedis(client *redis.Client, namespace string) *Redis {
	return &Redis{client: client, namespace: namespace}
}

func (r *Redis) key(key string) string {
	return "luckybox:" + r.namespace + ":" + key
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Memory is a Store that lives as long as the process.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
