// Package sources declares the storage contracts the controllers depend on.
// psql/dao provides the gorm-backed implementations, memstore the in-process
// ones.
package sources

import (
	"context"
	"errors"
	"sort"

	"rebelchat/rebelchat/sources/psql/models"
)

var ErrSessionNotFound = errors.New("session not found or forbidden")

// UserStore keeps one row per Cognito identity. Lookups return (nil, nil)
// when nothing matches.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByCognitoSub(ctx context.Context, sub string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, in models.InsertUser) (*models.User, error)
	UpsertUser(ctx context.Context, in models.InsertUser) (*models.User, error)
	UpdateUserLastLogin(ctx context.Context, sub string) error
}

// ChatStore keeps conversation transcripts keyed by session id.
type ChatStore interface {
	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
	GetMessagesBySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	GetMessagesForUserSession(ctx context.Context, userID, sessionID string) ([]models.ChatMessage, error)
	ListSessions(ctx context.Context, userID string) ([]models.ChatSessionSummary, error)
	DeleteSession(ctx context.Context, userID, sessionID string) error
}

// Summarize folds time-ordered messages into one summary per session,
// newest activity first.
func Summarize(msgs []models.ChatMessage) []models.ChatSessionSummary {
	idx := map[string]int{}
	var out []models.ChatSessionSummary
	for _, m := range msgs {
		i, ok := idx[m.SessionID]
		if !ok {
			idx[m.SessionID] = len(out)
			out = append(out, models.ChatSessionSummary{SessionID: m.SessionID})
			i = len(out) - 1
		}
		s := &out[i]
		s.MessageCount++
		if !m.Timestamp.Before(s.LastActivity) {
			s.LastActivity = m.Timestamp
			s.LastMessage = m.Text
			s.LastIsBot = m.IsBot
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}
