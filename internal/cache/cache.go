package cache

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store is a thin pass-through over redis used for short-lived
// counters (send-code throttling). The rest of the system never
// depends on it being present: Connect returns nil when redis is not
// configured or unreachable, and callers fall back to the database.
type Store struct {
	client *redis.Client
}

func Connect(addr, password string, db int) *Store {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("[cache] redis connection failed, falling back to database counters: %v", err)
		return nil
	}

	log.Printf("[cache] connected to redis at %s", addr)
	return &Store{client: client}
}

// IncrWindow increments key and returns the new value. The expiry is
// set on the first increment only, so the counter covers a rolling
// window of the given length.
func (s *Store) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		s.client.Expire(ctx, key, window)
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
