package cache

import (
	"context"
	"encoding/hex"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"vgw/internal/constants"
)

// RedisStore keeps resumption blobs in Redis so a pool of gateway instances
// can resume each other's sessions. Blobs expire by TTL; Deinit deletes
// whatever is left. Local copies handed to Redis are scrubbed once written,
// the remote copy is bounded by the TTL instead of a scrub.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
	cancel func()
	ttl    time.Duration
}

func NewRedisStore(host, port, username, password string, ttl time.Duration) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:     host + ":" + port,
		Username: username,
		Password: password,
		DB:       0,
	}

	ctx, cancel := context.WithCancel(context.Background())

	store := &RedisStore{
		client: redis.NewClient(opts),
		ctx:    ctx,
		cancel: cancel,
		ttl:    ttl,
	}

	if err := store.client.Ping(ctx).Err(); err != nil {
		cancel()
		return nil, err
	}

	return store, nil
}

func redisKey(id []byte) string {
	return constants.RedisKeyPrefix + hex.EncodeToString(id)
}

func (st *RedisStore) Store(id, data []byte) {
	// Redis owns its copy; scrub ours as soon as the write is issued.
	buf := append([]byte(nil), data...)
	err := st.client.Set(st.ctx, redisKey(id), buf, st.ttl).Err()
	scrub(buf)
	if err != nil {
		log.Printf("Failed to store resumption data in Redis: %v", err)
	}
}

func (st *RedisStore) Lookup(id []byte) ([]byte, bool) {
	data, err := st.client.Get(st.ctx, redisKey(id)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("Failed to read resumption data from Redis: %v", err)
		return nil, false
	}
	return data, true
}

func (st *RedisStore) Evict(id []byte) {
	if err := st.client.Del(st.ctx, redisKey(id)).Err(); err != nil {
		log.Printf("Failed to evict resumption data from Redis: %v", err)
	}
}

// Deinit removes every blob this prefix owns and releases the client.
func (st *RedisStore) Deinit() {
	iter := st.client.Scan(st.ctx, 0, constants.RedisKeyPrefix+"*", 100).Iterator()
	for iter.Next(st.ctx) {
		if err := st.client.Del(st.ctx, iter.Val()).Err(); err != nil {
			log.Printf("Failed to delete resumption key: %v", err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("Redis scan error: %v", err)
	}

	st.cancel()
	if err := st.client.Close(); err != nil {
		log.Printf("Failed to close Redis client: %v", err)
	}
}
