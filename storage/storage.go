package storage

import (
	"time"

	"github.com/go-redis/redis/v7"
)

// Storage keeps the few counters that survive restarts. Room state is
// deliberately not here: rooms live and die with their members.
type Storage interface {
	IncrVisits() (int64, error)
	GetVisitsByDate(date time.Time) (int64, error)
}

type storage struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) Storage {
	return &storage{rdb: rdb}
}

func (s *storage) IncrVisits() (int64, error) {
	return s.rdb.Incr("visits:" + time.Now().Format("02.01.06")).Result()
}

func (s *storage) GetVisitsByDate(date time.Time) (int64, error) {
	n, err := s.rdb.Get("visits:" + date.Format("02.01.06")).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
