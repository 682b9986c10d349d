package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/use-agent/shopsnap/models"
)

const (
	jobKeyPrefix  = "job:"
	createdSetKey = "jobs:created"

	maxUpdateRetries = 5
)

var _ Store = (*RedisStore)(nil)

// record is the stored form of a job. models.Job hides CreatedAt from
// JSON, so it is carried explicitly here.
type record struct {
	ID        string                `json:"job_id"`
	Status    models.JobStatus      `json:"status"`
	Progress  *string               `json:"progress"`
	Result    *models.ProductResult `json:"result"`
	Error     *string               `json:"error"`
	CreatedAt time.Time             `json:"created_at"`
}

func toRecord(j *models.Job) record {
	return record{
		ID:        j.ID,
		Status:    j.Status,
		Progress:  j.Progress,
		Result:    j.Result,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
	}
}

func (r record) job() *models.Job {
	return &models.Job{
		ID:        r.ID,
		Status:    r.Status,
		Progress:  r.Progress,
		Result:    r.Result,
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
	}
}

// RedisStore keeps the ledger in Redis so several API replicas can share
// it. Each job lives under job:<id> with a TTL of the retention period;
// the jobs:created sorted set indexes creation times for sweeps.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed ledger.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}

func (s *RedisStore) Create(ctx context.Context, id string) (*models.Job, error) {
	job := newJob(id, time.Now())
	data, err := json.Marshal(toRecord(job))
	if err != nil {
		return nil, fmt.Errorf("jobs: marshal %s: %w", id, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, jobKey(id), data, s.ttl)
		pipe.ZAdd(ctx, createdSetKey, redis.Z{
			Score:  float64(job.CreatedAt.UnixMilli()),
			Member: id,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("jobs: create %s: %w", id, err)
	}
	return job, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Job, error) {
	return s.get(ctx, s.client, id)
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) get(ctx context.Context, c getter, id string) (*models.Job, error) {
	data, err := c.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("jobs: get %s: %w", id, err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("jobs: decode %s: %w", id, err)
	}
	return rec.job(), nil
}

// Update applies fn under WATCH so concurrent writers cannot interleave.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*models.Job)) error {
	key := jobKey(id)
	txf := func(tx *redis.Tx) error {
		job, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if job.Status.Terminal() {
			return nil
		}
		fn(job)
		job.ID = id
		data, err := json.Marshal(toRecord(job))
		if err != nil {
			return fmt.Errorf("jobs: marshal %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, data, redis.SetArgs{KeepTTL: true})
			return nil
		})
		return err
	}

	for range maxUpdateRetries {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("jobs: update %s: too much contention", id)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, jobKey(id))
		pipe.ZRem(ctx, createdSetKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("jobs: delete %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) ListExpired(ctx context.Context, cutoff time.Time) ([]string, error) {
	ids, err := s.client.ZRangeByScore(ctx, createdSetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("jobs: list expired: %w", err)
	}
	return ids, nil
}
