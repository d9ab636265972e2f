// Package redisstore keeps server progress records in Redis, one JSON value
// per learner and course.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/verte-zerg/katalyst/internal/logger"
	"github.com/verte-zerg/katalyst/internal/model"
)

const (
	keyPrefix     = "katalyst:progress:"
	maxTxAttempts = 16
)

// ProgressRepository stores progress records in Redis.
type ProgressRepository struct {
	rdb *goredis.Client
	log *logger.Logger
}

// Dial connects to addr and verifies the server answers.
func Dial(ctx context.Context, addr string, log *logger.Logger) (*ProgressRepository, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, log), nil
}

// New wraps an existing client.
func New(rdb *goredis.Client, log *logger.Logger) *ProgressRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressRepository{rdb: rdb, log: log.With("service", "RedisProgress")}
}

// Close releases the client.
func (r *ProgressRepository) Close() error {
	return r.rdb.Close()
}

// recordKey length-prefixes the course id so ids containing ':' cannot
// collide.
func recordKey(userID, courseID string) string {
	return fmt.Sprintf("%s%d:%s:%s", keyPrefix, len(courseID), courseID, userID)
}

// GetProgress loads the record for a learner and course.
func (r *ProgressRepository) GetProgress(ctx context.Context, userID, courseID string) (model.ProgressRecord, bool, error) {
	raw, err := r.rdb.Get(ctx, recordKey(userID, courseID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return model.ProgressRecord{}, false, nil
	}
	if err != nil {
		return model.ProgressRecord{}, false, err
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return model.ProgressRecord{}, false, err
	}
	return rec, true, nil
}

// UpdateProgress applies fn under an optimistic WATCH transaction, retrying
// when another writer touched the same record.
func (r *ProgressRepository) UpdateProgress(ctx context.Context, userID, courseID string, fn func(*model.ProgressRecord)) (model.ProgressRecord, error) {
	key := recordKey(userID, courseID)
	var out model.ProgressRecord

	txf := func(tx *goredis.Tx) error {
		rec := model.NewProgressRecord()
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, goredis.Nil):
		case err != nil:
			return err
		default:
			rec, err = decodeRecord(raw)
			if err != nil {
				return err
			}
		}
		fn(&rec)
		encoded, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		if err == nil {
			out = rec
		}
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, goredis.TxFailedErr) {
			r.log.Debug("progress update contended, retrying", "key", key, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return model.ProgressRecord{}, err
		}
		return out, nil
	}
	return model.ProgressRecord{}, fmt.Errorf("progress update for %s: too much contention", key)
}

func decodeRecord(raw []byte) (model.ProgressRecord, error) {
	rec := model.NewProgressRecord()
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.ProgressRecord{}, fmt.Errorf("failed to decode progress record: %w", err)
	}
	if rec.CompletedLessons == nil {
		rec.CompletedLessons = []string{}
	}
	if rec.QuizScores == nil {
		rec.QuizScores = map[string]int{}
	}
	return rec, nil
}
