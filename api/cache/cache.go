package cache

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// FeedTTL bounds how stale a cached feed page may be. Feed caches are never
// invalidated eagerly on writes; they simply expire.
const FeedTTL = 20 * time.Second

var Client *redis.Client

var memory = struct {
	sync.Mutex
	entries map[string]memoryEntry
}{entries: make(map[string]memoryEntry)}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// InitFromEnv initializes Redis from REDIS_URL, or REDIS_ADDR as a local
// fallback. When neither is reachable the in-process store takes over, so a
// missing Redis never disables caching outright.
func InitFromEnv() error {
	redisURL := os.Getenv("REDIS_URL")

	if redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		Client = redis.NewClient(opt)
	} else {
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			addr = "localhost:6379"
		}
		Client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			Username: os.Getenv("REDIS_USERNAME"),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := Client.Ping(ctx).Err(); err != nil {
		Client = nil
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

// UseMemory switches to the in-process store. Used when Redis is unavailable
// and by tests.
func UseMemory() {
	Client = nil
	memory.Lock()
	memory.entries = make(map[string]memoryEntry)
	memory.Unlock()
}

func Get(ctx context.Context, key string) (string, error) {
	if Client == nil {
		memory.Lock()
		defer memory.Unlock()
		entry, ok := memory.entries[key]
		if !ok || time.Now().After(entry.expiresAt) {
			delete(memory.entries, key)
			return "", nil
		}
		return string(entry.payload), nil
	}

	val, err := Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if Client == nil {
		memory.Lock()
		memory.entries[key] = memoryEntry{payload: value, expiresAt: time.Now().Add(ttl)}
		memory.Unlock()
		return nil
	}
	return Client.Set(ctx, key, value, ttl).Err()
}

func Delete(ctx context.Context, key string) error {
	if Client == nil {
		memory.Lock()
		delete(memory.entries, key)
		memory.Unlock()
		return nil
	}
	return Client.Del(ctx, key).Err()
}

// DeleteByPrefix removes every key under the given prefix. It is the
// administrative escape hatch for clearing feed pages before their TTL.
func DeleteByPrefix(ctx context.Context, prefix string) error {
	if Client == nil {
		memory.Lock()
		for key := range memory.entries {
			if strings.HasPrefix(key, prefix) {
				delete(memory.entries, key)
			}
		}
		memory.Unlock()
		return nil
	}

	var cursor uint64
	for {
		keys, next, err := Client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := Client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}
