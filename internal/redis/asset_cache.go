package redis

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"golang.org/x/crypto/blake2b"
)

const assetKeyPrefix = "asset:"

// AssetCache stores raw image payloads keyed by a digest of their URL.
type AssetCache struct {
	client rueidis.Client
	ttl    time.Duration
}

// NewAssetCache wraps client. A zero ttl stores entries without expiry.
func NewAssetCache(client rueidis.Client, ttl time.Duration) *AssetCache {
	return &AssetCache{
		client: client,
		ttl:    ttl,
	}
}

// AssetKey returns the Redis key used for url.
func AssetKey(url string) string {
	sum := blake2b.Sum256([]byte(url))
	return assetKeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached payload for url and whether it was present.
func (c *AssetCache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(AssetKey(url)).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("failed to read cached asset: %w", err)
	}

	return data, true, nil
}

// Set stores the payload for url.
func (c *AssetCache) Set(ctx context.Context, url string, data []byte) error {
	var cmd rueidis.Completed
	if c.ttl > 0 {
		cmd = c.client.B().Set().Key(AssetKey(url)).Value(rueidis.BinaryString(data)).Ex(c.ttl).Build()
	} else {
		cmd = c.client.B().Set().Key(AssetKey(url)).Value(rueidis.BinaryString(data)).Build()
	}

	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to cache asset: %w", err)
	}

	return nil
}
