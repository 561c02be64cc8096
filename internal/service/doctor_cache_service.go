package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"healthsync-aggregator/internal/domain/entity"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// RedisDoctorKeyPrefix prefixes cached doctor directory entries
	RedisDoctorKeyPrefix = "doctor:profile:"

	// Timeout for individual Redis operations
	redisCacheTimeout = 2 * time.Second

	defaultDoctorCacheTTL = time.Hour
)

// DoctorCache stores doctor directory entries between runs. A miss is
// reported as (nil, nil).
type DoctorCache interface {
	Get(ctx context.Context, doctorID string) (*entity.Doctor, error)
	Set(ctx context.Context, doctor *entity.Doctor) error
}

// RedisDoctorCache is a DoctorCache backed by Redis string keys with a TTL
type RedisDoctorCache struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

func NewRedisDoctorCache(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) *RedisDoctorCache {
	if ttl <= 0 {
		ttl = defaultDoctorCacheTTL
	}
	return &RedisDoctorCache{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
	}
}

func (c *RedisDoctorCache) Get(ctx context.Context, doctorID string) (*entity.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	raw, err := c.redisClient.Get(ctx, doctorKey(doctorID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached doctor %s: %w", doctorID, err)
	}

	var doctor entity.Doctor
	if err := json.Unmarshal(raw, &doctor); err != nil {
		return nil, fmt.Errorf("decode cached doctor %s: %w", doctorID, err)
	}
	return &doctor, nil
}

func (c *RedisDoctorCache) Set(ctx context.Context, doctor *entity.Doctor) error {
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	raw, err := json.Marshal(doctor)
	if err != nil {
		return fmt.Errorf("encode doctor %s: %w", doctor.ID, err)
	}

	if err := c.redisClient.Set(ctx, doctorKey(doctor.ID.String()), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache doctor %s: %w", doctor.ID, err)
	}

	c.log.Debugf("Cached doctor %s with TTL=%v", doctor.ID, c.ttl)
	return nil
}

func doctorKey(doctorID string) string {
	return RedisDoctorKeyPrefix + doctorID
}
