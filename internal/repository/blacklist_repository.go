package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// BlacklistRepo tracks revoked access-token IDs (jti claims) in Redis.
// Entries expire with the token itself, so the set never needs
// sweeping.  With a nil client revocation is disabled and Contains
// always reports false; logout still revokes the refresh token.
type BlacklistRepo struct {
	rdb    *redis.Client
	prefix string
}

func NewBlacklistRepo(rdb *redis.Client) *BlacklistRepo {
	return &BlacklistRepo{rdb: rdb, prefix: "jwt:blacklist:"}
}

// Add marks a token id as revoked until the token would have expired
// anyway.
func (r *BlacklistRepo) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if r.rdb == nil || ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, r.prefix+jti, "1", ttl).Err()
}

// Contains reports whether a token id has been revoked.  Redis errors
// are swallowed: an unreachable blacklist must not lock everyone out.
func (r *BlacklistRepo) Contains(ctx context.Context, jti string) bool {
	if r.rdb == nil || jti == "" {
		return false
	}
	n, err := r.rdb.Exists(ctx, r.prefix+jti).Result()
	if err != nil {
		return false
	}
	return n > 0
}
