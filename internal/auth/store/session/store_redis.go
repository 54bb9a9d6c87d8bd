package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"juntas/internal/auth/models"
	"juntas/pkg/domain"
)

var findDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "juntas_session_lookup_duration_ms",
	Help:    "Latency of Redis session lookups in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const (
	sessionKeyPrefix = "juntas:sesion:"
	usuarioKeyPrefix = "juntas:usuario:"
)

func sessionKey(id domain.SessionID) string { return sessionKeyPrefix + id.String() }

func usuarioKey(id domain.UsuarioID) string { return usuarioKeyPrefix + id.String() + ":sesiones" }

// Redis stores sessions as JSON values with a TTL, plus a per-user set of
// session ids so a password reset can revoke every open session.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Create(ctx context.Context, sess *models.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	value, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	idx := usuarioKey(sess.UsuarioID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sess.ID), value, ttl)
		pipe.SAdd(ctx, idx, sess.ID.String())
		// The index outlives its newest member only briefly; stale members
		// are skipped on revocation.
		pipe.Expire(ctx, idx, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *Redis) Find(ctx context.Context, id domain.SessionID) (*models.Session, error) {
	start := time.Now()
	defer func() {
		findDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *Redis) Delete(ctx context.Context, id domain.SessionID) error {
	sess, err := s.Find(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, usuarioKey(sess.UsuarioID), id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Redis) DeleteByUsuario(ctx context.Context, usuarioID domain.UsuarioID) (int, error) {
	idx := usuarioKey(usuarioID)
	members, err := s.client.SMembers(ctx, idx).Result()
	if err != nil {
		return 0, fmt.Errorf("list user sessions: %w", err)
	}
	if len(members) == 0 {
		return 0, nil
	}
	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, sessionKeyPrefix+m)
	}
	keys = append(keys, idx)
	// The index key itself is counted by Del, hence the minus one.
	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	return int(n) - 1, nil
}
