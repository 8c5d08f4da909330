package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/Tiliavir/architrack/internal/offline"
)

const (
	cacheSetKey      = "offline:caches" // Set of bucket names
	cacheEntryPrefix = "offline:cache:" // Hash per bucket: offline:cache:{name} field=request key
)

// RedisStorage keeps cache buckets in Redis so several processes can share them.
type RedisStorage struct {
	client *redis.Client
}

var _ offline.CacheStorage = (*RedisStorage)(nil)

// NewRedisStorage wraps an existing client.
func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

// DialRedis parses a redis:// URL and checks the connection.
func DialRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func bucketKey(name string) string {
	return cacheEntryPrefix + name
}

func (s *RedisStorage) Open(ctx context.Context, name string) (offline.Bucket, error) {
	if err := s.client.SAdd(ctx, cacheSetKey, name).Err(); err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", name, err)
	}
	return &redisBucket{client: s.client, name: name}, nil
}

func (s *RedisStorage) Has(ctx context.Context, name string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, cacheSetKey, name).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cache %s: %w", name, err)
	}
	return ok, nil
}

func (s *RedisStorage) Keys(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, cacheSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list caches: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStorage) Delete(ctx context.Context, name string) (bool, error) {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.SRem(ctx, cacheSetKey, name)
		pipe.Del(ctx, bucketKey(name))
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete cache %s: %w", name, err)
	}
	return removed.Val() > 0, nil
}

type redisBucket struct {
	client *redis.Client
	name   string
}

func (b *redisBucket) Name() string { return b.name }

func (b *redisBucket) Match(ctx context.Context, key string) (offline.Entry, error) {
	data, err := b.client.HGet(ctx, bucketKey(b.name), key).Result()
	if errors.Is(err, redis.Nil) {
		return offline.Entry{}, offline.ErrNotCached
	}
	if err != nil {
		return offline.Entry{}, fmt.Errorf("failed to read cache entry: %w", err)
	}
	var e offline.Entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return offline.Entry{}, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return e, nil
}

func (b *redisBucket) Put(ctx context.Context, e offline.Entry) error {
	return b.PutAll(ctx, []offline.Entry{e})
}

// putScript writes the entries only while the bucket is still listed in the
// set, so a write racing a Delete cannot resurrect the bucket.
// KEYS[1] = set of bucket names, KEYS[2] = bucket hash,
// ARGV[1] = bucket name, ARGV[2..] = field/value pairs.
var putScript = redis.NewScript(`
if redis.call("SISMEMBER", KEYS[1], ARGV[1]) == 0 then
	return 0
end
if #ARGV > 1 then
	redis.call("HSET", KEYS[2], unpack(ARGV, 2))
end
return 1
`)

// PutAll writes in one script call so the bucket never holds half a batch.
func (b *redisBucket) PutAll(ctx context.Context, entries []offline.Entry) error {
	args := make([]any, 0, 1+2*len(entries))
	args = append(args, b.name)
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal cache entry: %w", err)
		}
		args = append(args, e.Key, data)
	}
	ok, err := putScript.Run(ctx, b.client, []string{cacheSetKey, bucketKey(b.name)}, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to store cache entries: %w", err)
	}
	if ok == 0 {
		return fmt.Errorf("cache %s: %w", b.name, offline.ErrBucketDeleted)
	}
	return nil
}

func (b *redisBucket) Keys(ctx context.Context) ([]string, error) {
	keys, err := b.client.HKeys(ctx, bucketKey(b.name)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}
