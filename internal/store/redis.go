package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/scrawlparty/scrawlparty-backend/internal"
)

const transactMaxRetries = 16

// RedisRoomStore keeps each room record as a JSON blob under a single key and
// publishes the committed record on a per-room channel after every write.
// Transact is implemented with WATCH/MULTI so two independent writers cannot
// corrupt each other's updates.
type RedisRoomStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisRoomStore(client *redis.Client, keyPrefix string) *RedisRoomStore {
	if keyPrefix == "" {
		keyPrefix = "sp:"
	}
	return &RedisRoomStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisRoomStore) roomKey(code string) string {
	return fmt.Sprintf("%sroom:%s", s.keyPrefix, code)
}

func (s *RedisRoomStore) roomChannel(code string) string {
	return fmt.Sprintf("%sroom:%s:events", s.keyPrefix, code)
}

func (s *RedisRoomStore) Create(ctx context.Context, room *internal.Room) error {
	raw, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("redis: marshal room %s: %w", room.Code, err)
	}
	ok, err := s.client.SetNX(ctx, s.roomKey(room.Code), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("redis: create room %s: %w", room.Code, err)
	}
	if !ok {
		return ErrRoomExists
	}
	return nil
}

func (s *RedisRoomStore) Get(ctx context.Context, code string) (*internal.Room, error) {
	raw, err := s.client.Get(ctx, s.roomKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis: get room %s: %w", code, err)
	}
	var room internal.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, fmt.Errorf("redis: unmarshal room %s: %w", code, err)
	}
	return &room, nil
}

func (s *RedisRoomStore) Save(ctx context.Context, room *internal.Room) error {
	raw, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("redis: marshal room %s: %w", room.Code, err)
	}
	if err := s.client.Set(ctx, s.roomKey(room.Code), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis: save room %s: %w", room.Code, err)
	}
	s.publish(ctx, room.Code, raw)
	return nil
}

func (s *RedisRoomStore) Transact(ctx context.Context, code string, mutate func(*internal.Room) error) (*internal.Room, error) {
	key := s.roomKey(code)
	var committed *internal.Room
	var committedRaw []byte

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return fmt.Errorf("redis: read room %s in txn: %w", code, err)
		}
		var room internal.Room
		if err := json.Unmarshal(raw, &room); err != nil {
			return fmt.Errorf("redis: unmarshal room %s in txn: %w", code, err)
		}
		if err := mutate(&room); err != nil {
			return err
		}
		room.Version++
		updated, err := json.Marshal(&room)
		if err != nil {
			return fmt.Errorf("redis: marshal room %s in txn: %w", code, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		if err != nil {
			return err
		}
		committed = &room
		committedRaw = updated
		return nil
	}

	for attempt := 0; attempt < transactMaxRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			// Someone else wrote between our read and our commit. Re-read
			// and retry: the mutate func re-verifies its precondition
			// against the fresh record.
			logrus.Debugf("[Transact] room=%s: optimistic conflict, retrying (attempt %d)", code, attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}
		s.publish(ctx, code, committedRaw)
		return committed, nil
	}
	return nil, fmt.Errorf("redis: transaction on room %s gave up after %d conflicts", code, transactMaxRetries)
}

func (s *RedisRoomStore) Subscribe(ctx context.Context, code string) (<-chan *internal.Room, func(), error) {
	pubsub := s.client.Subscribe(ctx, s.roomChannel(code))
	// Force the subscription onto the wire before we hand the channel out.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("redis: subscribe room %s: %w", code, err)
	}

	out := make(chan *internal.Room, 32)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var room internal.Room
			if err := json.Unmarshal([]byte(msg.Payload), &room); err != nil {
				logrus.Warnf("[Subscribe] room=%s: dropping malformed change event: %v", code, err)
				continue
			}
			select {
			case out <- &room:
			default:
				logrus.Warnf("[Subscribe] room=%s: subscriber buffer full, dropping update", code)
			}
		}
	}()
	cancel := func() { _ = pubsub.Close() }
	return out, cancel, nil
}

func (s *RedisRoomStore) List(ctx context.Context) ([]string, error) {
	pattern := s.keyPrefix + "room:*"
	var codes []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	prefixLen := len(s.keyPrefix + "room:")
	for iter.Next(ctx) {
		key := iter.Val()
		// The events channel namespace does not appear in SCAN (channels are
		// not keys), so every match is a room record.
		codes = append(codes, key[prefixLen:])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis: list rooms: %w", err)
	}
	return codes, nil
}

func (s *RedisRoomStore) Delete(ctx context.Context, code string) error {
	if err := s.client.Del(ctx, s.roomKey(code)).Err(); err != nil {
		return fmt.Errorf("redis: delete room %s: %w", code, err)
	}
	return nil
}

func (s *RedisRoomStore) Close() error { return s.client.Close() }

func (s *RedisRoomStore) publish(ctx context.Context, code string, raw []byte) {
	if err := s.client.Publish(ctx, s.roomChannel(code), raw).Err(); err != nil {
		logrus.WithFields(logrus.Fields{
			"room":         code,
			"payload_size": len(raw),
		}).WithError(err).Warn("redis publish failed")
	}
}
