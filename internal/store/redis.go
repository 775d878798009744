package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"dubapi/internal/models"
)

// RedisStore implements Store on Redis. Records are stored as JSON
// blobs; partial updates read, apply and write back under the same key.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (r *RedisStore) conversionKey(id string) string { return "conversion:" + id }
func (r *RedisStore) dubbingKey(id string) string    { return "dubbing:" + id }
func (r *RedisStore) userKey(userID string) string   { return "user:" + userID + ":conversions" }

func dayKey(t time.Time) string {
	return "stats:conversions:" + t.UTC().Format("2006-01-02")
}

func (r *RedisStore) CreateConversion(ctx context.Context, c *models.VideoConversion) error {
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.conversionKey(c.ID), b, 0).Err(); err != nil {
		return err
	}
	if c.UserID != "" {
		_ = r.rdb.RPush(ctx, r.userKey(c.UserID), c.ID).Err()
	}
	pipe := r.rdb.Pipeline()
	pipe.Incr(ctx, "stats:conversions:total")
	pipe.Incr(ctx, dayKey(c.CreatedAt))
	pipe.Expire(ctx, dayKey(c.CreatedAt), 48*time.Hour)
	_, _ = pipe.Exec(ctx)
	return nil
}

func (r *RedisStore) GetConversion(ctx context.Context, id string) (*models.VideoConversion, error) {
	b, err := r.rdb.Get(ctx, r.conversionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var c models.VideoConversion
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *RedisStore) ConversionsByUser(ctx context.Context, userID string) ([]models.VideoConversion, error) {
	ids, err := r.rdb.LRange(ctx, r.userKey(userID), 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var res []models.VideoConversion
	for _, id := range ids {
		c, err := r.GetConversion(ctx, id)
		if err != nil {
			continue
		}
		res = append(res, *c)
	}
	return res, nil
}

func (r *RedisStore) UpdateConversion(ctx context.Context, id string, u ConversionUpdate) (*models.VideoConversion, error) {
	c, err := r.GetConversion(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.check(c); err != nil {
		return nil, err
	}
	u.apply(c)
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	if err := r.rdb.Set(ctx, r.conversionKey(id), b, 0).Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteConversion removes the record and compensates the bookkeeping
// CreateConversion did, so Stats and user listings count live records
// the same way the memory store does. Deleting a missing id is a no-op.
func (r *RedisStore) DeleteConversion(ctx context.Context, id string) error {
	c, err := r.GetConversion(ctx, id)
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := r.rdb.Pipeline()
	pipe.Del(ctx, r.conversionKey(id))
	if c.UserID != "" {
		pipe.LRem(ctx, r.userKey(c.UserID), 0, id)
	}
	pipe.Decr(ctx, "stats:conversions:total")
	if dayKey(c.CreatedAt) == dayKey(time.Now()) {
		pipe.Decr(ctx, dayKey(c.CreatedAt))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) CreateDubbing(ctx context.Context, d *models.VoiceDubbing) error {
	d.CreatedAt = time.Now().UTC()
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.dubbingKey(d.ID), b, 0).Err()
}

func (r *RedisStore) GetDubbing(ctx context.Context, id string) (*models.VoiceDubbing, error) {
	b, err := r.rdb.Get(ctx, r.dubbingKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var d models.VoiceDubbing
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *RedisStore) UpdateDubbing(ctx context.Context, id string, u DubbingUpdate) (*models.VoiceDubbing, error) {
	d, err := r.GetDubbing(ctx, id)
	if err != nil {
		return nil, err
	}
	u.apply(d)
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	if err := r.rdb.Set(ctx, r.dubbingKey(id), b, 0).Err(); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *RedisStore) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	total, err := r.rdb.Get(ctx, "stats:conversions:total").Int()
	if err != nil && err != redis.Nil {
		return s, err
	}
	today, err := r.rdb.Get(ctx, dayKey(time.Now())).Int()
	if err != nil && err != redis.Nil {
		return s, err
	}
	s.TotalConversions = total
	s.TodayConversions = today
	return s, nil
}
