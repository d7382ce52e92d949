package controllers

import (
	"context"
	"time"

	"rebelchat/rebelchat/services/tokens"
	"rebelchat/rebelchat/sources"
	"rebelchat/rebelchat/sources/psql/models"
	"rebelchat/rebelchat/utils/logging"

	"go.uber.org/zap"
)

// transcripts saves chat turns when a chat store is wired. Failures are
// logged and never reach the caller.
type transcripts struct {
	chats sources.ChatStore
	users sources.UserStore
}

// userID resolves the signed-in user's row id, "" when anonymous or unknown.
func (t transcripts) userID(ctx context.Context, id *tokens.Identity) (string, error) {
	if id == nil || t.users == nil {
		return "", nil
	}
	u, err := t.users.GetUserByCognitoSub(ctx, id.Sub)
	if err != nil || u == nil {
		return "", err
	}
	return u.ID, nil
}

// save stores one turn. userAt is when the user's message arrived, so it
// sorts ahead of the reply.
func (t transcripts) save(ctx context.Context, id *tokens.Identity, sessionID, userText string, userAt time.Time, botText string) {
	if t.chats == nil {
		return
	}
	uid, err := t.userID(ctx, id)
	if err != nil {
		logging.ErrorLogger.Error("resolve user for transcript", zap.Error(err))
	}
	var owner *string
	if uid != "" {
		owner = &uid
	}
	for _, m := range []models.ChatMessage{
		{Text: userText, IsBot: false, Timestamp: userAt, SessionID: sessionID, UserID: owner},
		{Text: botText, IsBot: true, Timestamp: time.Now(), SessionID: sessionID, UserID: owner},
	} {
		if m.Text == "" {
			continue
		}
		if err := t.chats.SaveMessage(ctx, &m); err != nil {
			logging.ErrorLogger.Error("save chat message",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			return
		}
	}
}
