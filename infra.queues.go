package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Predefinied Queue IDs. Each one also names the kind of event it carries.
const (
	CreateQueue = "creation"
	UpdateQueue = "updating"
	DeleteQueue = "deletion"
)

// PopTimeout bounds each blocking pop so consumers notice cancellation.
const PopTimeout = 2 * time.Second

// ErrEmptyQueue is returned by Pop when nothing arrived before the timeout.
var ErrEmptyQueue = errors.New("queue: no event available")

var (
	_ Queuer = (*redisQueue)(nil) // ensure redisQueue implements Queuer.
	_ Queuer = (*nopQueue)(nil)   // ensure nopQueue implements Queuer.
)

// Queuer describes a queue of catalog events.
type Queuer interface {
	Push(ctx context.Context, qid string, event BookEvent) error
	Pop(ctx context.Context, qids ...string) (string, BookEvent, error)
}

// redisQueue represents a queue backed by redis lists.
type redisQueue struct {
	client *redis.Client
	prefix string
}

// NewRedisQueue provides a redis based queue. All list keys are namespaced with prefix.
func NewRedisQueue(client *redis.Client, prefix string) Queuer {
	return &redisQueue{client: client, prefix: prefix}
}

func (q *redisQueue) key(qid string) string {
	if q.prefix == "" {
		return qid
	}
	return q.prefix + ":" + qid
}

// Push enqueues an event onto the queue identified by qid.
func (q *redisQueue) Push(ctx context.Context, qid string, event BookEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.key(qid), eventBytes).Err()
}

// Pop blocks until an event is available on one of the queues and returns it
// with the id of the queue it was taken from.
func (q *redisQueue) Pop(ctx context.Context, qids ...string) (string, BookEvent, error) {
	var event BookEvent
	keys := make([]string, len(qids))
	byKey := make(map[string]string, len(qids))
	for i, qid := range qids {
		keys[i] = q.key(qid)
		byKey[keys[i]] = qid
	}

	infos, err := q.client.BLPop(ctx, PopTimeout, keys...).Result()
	if errors.Is(err, redis.Nil) {
		return "", event, ErrEmptyQueue
	}
	if err != nil {
		return "", event, err
	}
	if len(infos) != 2 {
		return "", event, fmt.Errorf("queue: unexpected pop result length %d", len(infos))
	}

	if err = json.Unmarshal([]byte(infos[1]), &event); err != nil {
		return "", event, err
	}
	return byKey[infos[0]], event, nil
}

// nopQueue drops pushed events. It is used when events are disabled.
type nopQueue struct{}

// NewNopQueue provides a queue that discards everything.
func NewNopQueue() Queuer {
	return nopQueue{}
}

func (nopQueue) Push(context.Context, string, BookEvent) error {
	return nil
}

// Pop waits for the context to be done since nothing is ever queued.
func (nopQueue) Pop(ctx context.Context, _ ...string) (string, BookEvent, error) {
	<-ctx.Done()
	return "", BookEvent{}, ctx.Err()
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}
