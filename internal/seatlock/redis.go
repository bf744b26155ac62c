package seatlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTable keeps seat claims in redis so multiple app instances share
// one lock space. SetNX gives the atomic acquire; the value is the owning
// booking code for debuggability.
type RedisTable struct {
	client *redis.Client
}

func NewRedisTable(client *redis.Client) *RedisTable {
	return &RedisTable{client: client}
}

func (t *RedisTable) Acquire(ctx context.Context, flightID int64, seat string, bookingCode string, ttl time.Duration) (bool, error) {
	return t.client.SetNX(ctx, seatClaimKey(flightID, seat), bookingCode, ttl).Result()
}

func (t *RedisTable) Release(ctx context.Context, flightID int64, seat string) error {
	return t.client.Del(ctx, seatClaimKey(flightID, seat)).Err()
}

func (t *RedisTable) Persist(ctx context.Context, flightID int64, seat string) error {
	return t.client.Persist(ctx, seatClaimKey(flightID, seat)).Err()
}

func seatClaimKey(flightID int64, seat string) string {
	return fmt.Sprintf("claim:flight:%d:seat:%s", flightID, seat)
}

var _ Table = (*RedisTable)(nil)
