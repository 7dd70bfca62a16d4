package cache

import (
	"cinema-seat-booking/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	SeatMapKey           = "seats:map"
	SeatMapGenerationKey = "seats:map:gen"
)

// SeatMapCache caches the full ordered seat list. Every invalidation bumps a
// generation counter; a Store is only accepted for the generation observed by
// the Load that preceded the database read, so a list read before a booking
// commit can never overwrite the invalidation that commit caused.
type SeatMapCache interface {
	Load(ctx context.Context) (seats []*model.Seat, generation int64, hit bool, err error)
	Store(ctx context.Context, generation int64, seats []*model.Seat) (bool, error)
	Invalidate(ctx context.Context) error
}

type RedisSeatMapCacheImpl struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSeatMapCache(client *redis.Client, ttl time.Duration) SeatMapCache {
	return &RedisSeatMapCacheImpl{
		client: client,
		ttl:    ttl,
	}
}

var storeScript = redis.NewScript(`
	local map_key = KEYS[1]
	local gen_key = KEYS[2]

	-- only write if nobody invalidated since the caller's Load
	local current = redis.call('GET', gen_key) or '0'
	if current ~= ARGV[1] then
		return 0
	end

	redis.call('SET', map_key, ARGV[2], 'PX', ARGV[3])
	return 1
`)

func (c *RedisSeatMapCacheImpl) Load(ctx context.Context) ([]*model.Seat, int64, bool, error) {
	values, err := c.client.MGet(ctx, SeatMapKey, SeatMapGenerationKey).Result()
	if err != nil {
		return nil, 0, false, err
	}

	var generation int64
	if raw, ok := values[1].(string); ok {
		generation, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, 0, false, fmt.Errorf("invalid seat map generation: %v", err)
		}
	}

	raw, ok := values[0].(string)
	if !ok {
		return nil, generation, false, nil
	}

	var seats []*model.Seat
	if err := json.Unmarshal([]byte(raw), &seats); err != nil {
		return nil, generation, false, fmt.Errorf("invalid cached seat map: %v", err)
	}
	return seats, generation, true, nil
}

func (c *RedisSeatMapCacheImpl) Store(ctx context.Context, generation int64, seats []*model.Seat) (bool, error) {
	if c.ttl <= 0 {
		return false, nil
	}

	data, err := json.Marshal(seats)
	if err != nil {
		return false, fmt.Errorf("marshal seat map: %w", err)
	}

	stored, err := storeScript.Run(ctx, c.client,
		[]string{SeatMapKey, SeatMapGenerationKey},
		strconv.FormatInt(generation, 10), string(data), c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

func (c *RedisSeatMapCacheImpl) Invalidate(ctx context.Context) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, SeatMapGenerationKey)
	pipe.Del(ctx, SeatMapKey)
	_, err := pipe.Exec(ctx)
	return err
}
