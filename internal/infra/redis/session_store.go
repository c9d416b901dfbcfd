package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"vehicle-registration-bot/internal/domain"
	"vehicle-registration-bot/internal/flow"
)

var _ flow.SessionStore = (*SessionStore)(nil)

// SessionStore keeps per-conversation flow state in Redis. Records carry no
// TTL: an abandoned flow stays resumable until the user cancels or restarts.
type SessionStore struct {
	client RedisClient
}

func NewSessionStore(client RedisClient) *SessionStore {
	return &SessionStore{client: client}
}

type sessionRecord struct {
	State   flow.State    `json:"state"`
	Session *flow.Session `json:"session"`
}

func sessionKey(conversationID int64) string {
	return fmt.Sprintf("flow_session:%d", conversationID)
}

func (s *SessionStore) Get(ctx context.Context, conversationID int64) (flow.State, *flow.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(conversationID))
	if err == redis.Nil {
		return flow.StateIdle, &flow.Session{}, nil
	}
	if err != nil {
		return "", nil, domain.Persistence("session.get", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		// A corrupt record is unrecoverable; start the conversation over.
		return flow.StateIdle, &flow.Session{}, nil
	}
	if rec.Session == nil {
		rec.Session = &flow.Session{}
	}
	return rec.State, rec.Session, nil
}

func (s *SessionStore) Put(ctx context.Context, conversationID int64, state flow.State, sess *flow.Session) error {
	data, err := json.Marshal(sessionRecord{State: state, Session: sess})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKey(conversationID), data, 0); err != nil {
		return domain.Persistence("session.put", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context, conversationID int64) error {
	if err := s.client.Del(ctx, sessionKey(conversationID)); err != nil {
		return domain.Persistence("session.clear", err)
	}
	return nil
}
