// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jason-s-yu/solitaire/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for move records.
const DefaultQueueName = "solitaire_moves"

// ConnectRedis returns a client for addr and verifies it with a ping.
func ConnectRedis(addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisJournal pushes move records onto a Redis list for the historian service.
type RedisJournal struct {
	Client *redis.Client
	Queue  string
}

// NewRedisJournal returns a journal writing to queue, or DefaultQueueName if empty.
func NewRedisJournal(client *redis.Client, queue string) *RedisJournal {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &RedisJournal{Client: client, Queue: queue}
}

// Record serializes the record to JSON and pushes it to the queue.
func (j *RedisJournal) Record(ctx context.Context, rec models.MoveRecord) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	if err := j.Client.RPush(ctx, j.Queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", j.Queue, err)
	}
	return nil
}

// Pop blocks up to timeout for the next record. It returns redis.Nil when the queue
// stayed empty.
func (j *RedisJournal) Pop(ctx context.Context, timeout time.Duration) (models.MoveRecord, error) {
	res, err := j.Client.BLPop(ctx, timeout, j.Queue).Result()
	if err != nil {
		return models.MoveRecord{}, err
	}
	if len(res) < 2 {
		return models.MoveRecord{}, redis.Nil
	}
	// res[0] is the queue name and res[1] the payload.
	return DecodeRecord([]byte(res[1]))
}

func EncodeRecord(rec models.MoveRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal MoveRecord: %w", err)
	}
	return data, nil
}

func DecodeRecord(data []byte) (models.MoveRecord, error) {
	var rec models.MoveRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("invalid move record: %w", err)
	}
	return rec, nil
}
