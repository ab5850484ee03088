package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"course-quiz-service/internal/app"
	"course-quiz-service/internal/domain"
)

// maxUpdateAttempts bounds optimistic retries when two requests race on one session.
const maxUpdateAttempts = 3

// SessionStore is a Redis implementation of app.SessionRepository.
// Each session is a JSON value under quiz:session:{id} whose TTL is refreshed on every write,
// so any instance behind the load balancer can serve any session.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, session app.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrapf(err, "marshal session %s", session.ID)
	}
	return errors.Wrapf(s.client.Set(ctx, s.key(session.ID), data, s.ttl).Err(), "store session %s", session.ID)
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (app.Session, error) {
	return s.load(ctx, s.client, sessionID)
}

// Update runs fn inside WATCH/MULTI so a concurrent write to the same session aborts and retries.
func (s *SessionStore) Update(ctx context.Context, sessionID string, fn func(*app.Session) error) (app.Session, error) {
	key := s.key(sessionID)
	var (
		result   app.Session
		rejected error
	)
	txf := func(tx *redis.Tx) error {
		session, err := s.load(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		original := session
		original.Answers = append([]string(nil), session.Answers...)
		if err := fn(&session); err != nil {
			result, rejected = original, err
			return nil
		}
		data, err := json.Marshal(session)
		if err != nil {
			return errors.Wrapf(err, "marshal session %s", sessionID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err == nil {
			result = session
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return app.Session{}, err
		}
		return result, rejected
	}
	return app.Session{}, errors.Errorf("session %s: too many concurrent updates", sessionID)
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *SessionStore) load(ctx context.Context, cmd getter, sessionID string) (app.Session, error) {
	data, err := cmd.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return app.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return app.Session{}, errors.Wrapf(err, "load session %s", sessionID)
	}
	var session app.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return app.Session{}, errors.Wrapf(err, "decode session %s", sessionID)
	}
	return session, nil
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
