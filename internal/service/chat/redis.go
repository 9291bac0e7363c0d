package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	applog "github.com/janisto/portfolio-builder/internal/platform/logging"
	"github.com/janisto/portfolio-builder/internal/profile"
)

const (
	redisKeyPrefix  = "chat:session:"
	redisMaxRetries = 10
)

// Hash fields of a session.
const (
	fieldUserID    = "user_id"
	fieldProfile   = "profile"
	fieldStep      = "current_step"
	fieldCompleted = "completed"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

// redisTurn is the JSON element stored in the turns list.
type redisTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisStore implements Store on Redis. Session state lives in a hash and
// turns in a list appended with RPUSH. Turns WATCH both keys and write in a
// MULTI block, so concurrent writers on one session retry instead of
// interleaving. A positive TTL is refreshed on every write.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed store. ttl <= 0 keeps sessions until
// cleared.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func sessionKey(id string) string { return redisKeyPrefix + id }
func turnsKey(id string) string   { return redisKeyPrefix + id + ":turns" }

// Create stores an empty session under a generated id.
func (s *RedisStore) Create(ctx context.Context, userID string) (*Session, error) {
	id := uuid.NewString()
	now := s.now()
	emptyProfile, err := json.Marshal(profile.Profile{})
	if err != nil {
		return nil, err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(id), map[string]any{
			fieldUserID:    userID,
			fieldProfile:   string(emptyProfile),
			fieldStep:      initialStep,
			fieldCompleted: false,
			fieldCreatedAt: now.Format(time.RFC3339Nano),
			fieldUpdatedAt: now.Format(time.RFC3339Nano),
		})
		s.expire(ctx, pipe, id)
		return nil
	})
	applog.LogAudit(ctx, applog.Audit{
		Action: "create", UserID: userID, Resource: auditResource, ResourceID: id,
		Failure: categorizeError(err),
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:          id,
		UserID:      userID,
		CurrentStep: initialStep,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Load reads the session hash and its turns in one round trip.
func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	var (
		hash  *redis.MapStringStringCmd
		turns *redis.StringSliceCmd
	)
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		hash = pipe.HGetAll(ctx, sessionKey(id))
		turns = pipe.LRange(ctx, turnsKey(id), 0, -1)
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := hash.Val()
	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}
	return decodeSession(id, fields, turns.Val())
}

// RecordTurn reads the session under WATCH and writes the folded state in a
// MULTI block, retrying when another writer touched the session first.
func (s *RedisStore) RecordTurn(ctx context.Context, id string, rec TurnRecord) (*Session, error) {
	values := make([]any, 0, len(rec.Turns))
	for _, t := range rec.Turns {
		b, err := json.Marshal(redisTurn(t))
		if err != nil {
			return nil, err
		}
		values = append(values, string(b))
	}

	key := sessionKey(id)
	var out *Session
	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return ErrSessionNotFound
		}
		rawTurns, err := tx.LRange(ctx, turnsKey(id), 0, -1).Result()
		if err != nil {
			return err
		}
		sess, err := decodeSession(id, fields, rawTurns)
		if err != nil {
			return err
		}
		sess.apply(rec)
		sess.UpdatedAt = s.now()
		profileJSON, err := json.Marshal(sess.Profile)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(values) > 0 {
				pipe.RPush(ctx, turnsKey(id), values...)
			}
			pipe.HSet(ctx, key, map[string]any{
				fieldProfile:   string(profileJSON),
				fieldStep:      sess.CurrentStep,
				fieldCompleted: sess.Completed,
				fieldUpdatedAt: sess.UpdatedAt.Format(time.RFC3339Nano),
			})
			s.expire(ctx, pipe, id)
			return nil
		})
		if err != nil {
			return err
		}
		out = sess
		return nil
	}

	for range redisMaxRetries {
		err := s.client.Watch(ctx, txf, key, turnsKey(id))
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("record turn on session %s: %w", id, redis.TxFailedErr)
}

func (s *RedisStore) expire(ctx context.Context, pipe redis.Pipeliner, id string) {
	if s.ttl <= 0 {
		return
	}
	pipe.Expire(ctx, sessionKey(id), s.ttl)
	pipe.Expire(ctx, turnsKey(id), s.ttl)
}

// Clear deletes the session hash and its turns.
func (s *RedisStore) Clear(ctx context.Context, id string) error {
	userID, _ := s.client.HGet(ctx, sessionKey(id), fieldUserID).Result()

	n, err := s.client.Del(ctx, sessionKey(id), turnsKey(id)).Result()
	if err == nil && n == 0 {
		err = ErrSessionNotFound
	}
	applog.LogAudit(ctx, applog.Audit{
		Action: "delete", UserID: userID, Resource: auditResource, ResourceID: id,
		Failure: categorizeError(err),
	})
	return err
}

func decodeSession(id string, fields map[string]string, rawTurns []string) (*Session, error) {
	sess := &Session{ID: id, UserID: fields[fieldUserID]}

	if raw := fields[fieldProfile]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &sess.Profile); err != nil {
			return nil, fmt.Errorf("decode session profile: %w", err)
		}
	}
	if raw := fields[fieldStep]; raw != "" {
		step, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("decode session step: %w", err)
		}
		sess.CurrentStep = step
	}
	// go-redis writes bools as "1"/"0".
	sess.Completed = fields[fieldCompleted] == "1" || fields[fieldCompleted] == "true"
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	sess.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt])

	sess.Turns = make([]Turn, 0, len(rawTurns))
	for _, raw := range rawTurns {
		var t redisTurn
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("decode session turn: %w", err)
		}
		sess.Turns = append(sess.Turns, Turn(t))
	}
	return sess, nil
}

// Compile-time interface check
var _ Store = (*RedisStore)(nil)
