package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-ticket-engine/internal/inventory"
	"github.com/iliyamo/cinema-ticket-engine/internal/model"
)

// ErrContention is returned when a Redis transition kept losing its WATCH
// race and gave up.
var ErrContention = errors.New("seat inventory contention")

const redisTxRetries = 8

// RedisSeatStore keeps one hash per showtime (field = seat ID, value = JSON
// seat record).  Transitions read the hash under WATCH and write it back in
// MULTI/EXEC, so a concurrent change to the same showtime aborts and
// retries the transition.
type RedisSeatStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisSeatStore returns a store using keys under prefix (default
// "seats").
func NewRedisSeatStore(rdb *redis.Client, prefix string) *RedisSeatStore {
	if prefix == "" {
		prefix = "seats"
	}
	return &RedisSeatStore{rdb: rdb, prefix: prefix}
}

var _ inventory.Store = (*RedisSeatStore)(nil)

func (s *RedisSeatStore) hashKey(key model.ShowtimeKey) string {
	return s.prefix + ":" + key.String()
}

// indexKey is a set of every showtime hash, walked by Sweep.
func (s *RedisSeatStore) indexKey() string { return s.prefix + ":index" }

func (s *RedisSeatStore) Seats(ctx context.Context, key model.ShowtimeKey) (map[string]model.SeatRecord, error) {
	raw, err := s.rdb.HGetAll(ctx, s.hashKey(key)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.SeatRecord, len(raw))
	for id, v := range raw {
		rec, err := decodeSeat(v)
		if err != nil {
			return nil, fmt.Errorf("seat %s of %s: %w", id, key, err)
		}
		out[id] = rec
	}
	return out, nil
}

func (s *RedisSeatStore) Apply(ctx context.Context, key model.ShowtimeKey, seatIDs []string, op inventory.Op, now time.Time) error {
	hkey := s.hashKey(key)
	txf := func(tx *redis.Tx) error {
		vals, err := tx.HMGet(ctx, hkey, seatIDs...).Result()
		if err != nil {
			return err
		}
		current := make(map[string]model.SeatRecord, len(seatIDs))
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				continue
			}
			rec, err := decodeSeat(str)
			if err != nil {
				return fmt.Errorf("seat %s of %s: %w", seatIDs[i], key, err)
			}
			current[seatIDs[i]] = rec
		}
		writes, err := inventory.Plan(current, seatIDs, op, now)
		if err != nil {
			return err
		}
		if len(writes) == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			for id, rec := range writes {
				if rec.State == model.SeatFree {
					p.HDel(ctx, hkey, id)
					continue
				}
				b, err := json.Marshal(rec)
				if err != nil {
					return err
				}
				p.HSet(ctx, hkey, id, b)
			}
			p.SAdd(ctx, s.indexKey(), hkey)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < redisTxRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, hkey)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("%s %s: %w", op.Kind, key, ErrContention)
}

// Sweep removes expired holds from every showtime hash.  Each hash is
// cleaned under WATCH so a hold renewed mid-sweep is left alone.
func (s *RedisSeatStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	hashes, err := s.rdb.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, hkey := range hashes {
		n, err := s.sweepHash(ctx, hkey, now)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

func (s *RedisSeatStore) sweepHash(ctx context.Context, hkey string, now time.Time) (int, error) {
	removed := 0
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGetAll(ctx, hkey).Result()
		if err != nil {
			return err
		}
		var expired []string
		for id, v := range raw {
			rec, err := decodeSeat(v)
			if err != nil {
				continue
			}
			if rec.Expired(now) {
				expired = append(expired, id)
			}
		}
		empty := len(raw) == len(expired)
		if len(expired) == 0 && !empty {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			if len(expired) > 0 {
				p.HDel(ctx, hkey, expired...)
			}
			if empty {
				p.SRem(ctx, s.indexKey(), hkey)
			}
			return nil
		})
		if err == nil {
			removed = len(expired)
		}
		return err
	}
	err := s.rdb.Watch(ctx, txf, hkey)
	if errors.Is(err, redis.TxFailedErr) {
		// the showtime changed under us; the next sweep picks it up
		return 0, nil
	}
	return removed, err
}

func decodeSeat(v string) (model.SeatRecord, error) {
	var rec model.SeatRecord
	err := json.Unmarshal([]byte(v), &rec)
	return rec, err
}
