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

package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte(`{"a":1}`)))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(v))

	require.NoError(t, s.Set(ctx, "k", []byte(`{}`)))
	v, _, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(v))
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Set(context.Background(), "k", buf))
	buf[0] = 'x'
	v, _, _ := m.Get(context.Background(), "k")
	assert.Equal(t, "abc", string(v))
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := NewRedis(client, "client-1")
	defer r.Close()

	testStore(t, r)
	assert.True(t, mr.Exists("luckybox:client-1:k"))
}

func TestRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	r := NewRedis(client, "client-1")
	defer r.Close()
	mr.Close()

	_, _, err := r.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, r.Set(context.Background(), "k", []byte("v")))
}

func TestNamespace(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	ctx := context.Background()

	id, err := Namespace(ctx, client, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "client-1", id)
	assert.False(t, mr.Exists(namespaceKey))

	first, err := Namespace(ctx, client, "")
	require.NoError(t, err)
	assert.NotEmpty(t, first)
	second, err := Namespace(ctx, client, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	mr.Close()
	_, err = Namespace(ctx, client, "")
	assert.Error(t, err)
}
