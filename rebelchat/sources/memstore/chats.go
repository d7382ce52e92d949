package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"rebelchat/rebelchat/sources"
	"rebelchat/rebelchat/sources/psql/models"

	"github.com/google/uuid"
)

type ChatStore struct {
	mu   sync.RWMutex
	msgs []models.ChatMessage
}

func NewChatStore() *ChatStore {
	return &ChatStore{}
}

func (s *ChatStore) SaveMessage(_ context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.mu.Lock()
	s.msgs = append(s.msgs, *msg)
	s.mu.Unlock()
	return nil
}

func (s *ChatStore) filter(match func(models.ChatMessage) bool) []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ChatMessage
	for _, m := range s.msgs {
		if match(m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (s *ChatStore) GetMessagesBySession(_ context.Context, sessionID string) ([]models.ChatMessage, error) {
	return s.filter(func(m models.ChatMessage) bool { return m.SessionID == sessionID }), nil
}

func (s *ChatStore) GetMessagesForUserSession(_ context.Context, userID, sessionID string) ([]models.ChatMessage, error) {
	out := s.filter(func(m models.ChatMessage) bool {
		return m.SessionID == sessionID && m.UserID != nil && *m.UserID == userID
	})
	if len(out) == 0 {
		return nil, sources.ErrSessionNotFound
	}
	return out, nil
}

func (s *ChatStore) ListSessions(_ context.Context, userID string) ([]models.ChatSessionSummary, error) {
	return sources.Summarize(s.filter(func(m models.ChatMessage) bool {
		return m.UserID != nil && *m.UserID == userID
	})), nil
}

func (s *ChatStore) DeleteSession(_ context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.msgs[:0]
	removed := 0
	for _, m := range s.msgs {
		if m.SessionID == sessionID && m.UserID != nil && *m.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	s.msgs = kept
	if removed == 0 {
		return sources.ErrSessionNotFound
	}
	return nil
}
