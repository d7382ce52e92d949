package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"rebelchat/rebelchat/metrics"
	"rebelchat/rebelchat/services/lambda"
	"rebelchat/rebelchat/services/tokens"
	"rebelchat/rebelchat/sources"
	"rebelchat/rebelchat/sources/psql/models"
	"rebelchat/rebelchat/types"
	httputils "rebelchat/rebelchat/utils/http"
)

const MsgInternal = "Internal server error. Please try again later."

// Forwarder sends one message to the chat backend.
type Forwarder interface {
	Forward(ctx context.Context, message, sessionID string) (*lambda.Reply, error)
}

type ChatController struct {
	proxy   Forwarder
	history transcripts
	metrics metrics.Recorder
}

func NewChatController(proxy Forwarder, chats sources.ChatStore, users sources.UserStore, rec metrics.Recorder) *ChatController {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &ChatController{
		proxy:   proxy,
		history: transcripts{chats: chats, users: users},
		metrics: rec,
	}
}

// Chat forwards one message and stores the turn. id is nil for anonymous
// callers.
func (c *ChatController) Chat(ctx context.Context, id *tokens.Identity, req types.ChatRequest) (*types.ChatResponse, error) {
	start := time.Now()
	reply, err := c.proxy.Forward(ctx, req.Message, req.SessionID)
	c.metrics.RecordUpstream("lambda", metrics.Outcome(err), time.Since(start))
	if err != nil {
		var se *httputils.StatusError
		switch {
		case errors.Is(err, lambda.ErrNotConfigured):
			return nil, internalError(err.Error(), err)
		case errors.As(err, &se):
			return nil, newError(se.StatusCode, lambda.ErrorMessage(se), err)
		default:
			return nil, internalError(MsgInternal, err)
		}
	}

	c.history.save(ctx, id, reply.SessionID, req.Message, start, reply.Response)
	return &types.ChatResponse{Response: reply.Response, SessionID: reply.SessionID}, nil
}

func (c *ChatController) owner(ctx context.Context, id *tokens.Identity) (string, error) {
	if c.history.chats == nil {
		return "", newError(http.StatusNotFound, "Chat history is not enabled", nil)
	}
	uid, err := c.history.userID(ctx, id)
	if err != nil {
		return "", internalError(MsgInternal, err)
	}
	return uid, nil
}

func (c *ChatController) ListSessions(ctx context.Context, id *tokens.Identity) ([]models.ChatSessionSummary, error) {
	uid, err := c.owner(ctx, id)
	if err != nil {
		return nil, err
	}
	if uid == "" {
		return []models.ChatSessionSummary{}, nil
	}
	sessions, err := c.history.chats.ListSessions(ctx, uid)
	if err != nil {
		return nil, internalError(MsgInternal, err)
	}
	if sessions == nil {
		sessions = []models.ChatSessionSummary{}
	}
	return sessions, nil
}

func (c *ChatController) GetSessionMessages(ctx context.Context, id *tokens.Identity, sessionID string) ([]models.ChatMessage, error) {
	uid, err := c.owner(ctx, id)
	if err != nil {
		return nil, err
	}
	if uid == "" {
		return nil, newError(http.StatusNotFound, sources.ErrSessionNotFound.Error(), sources.ErrSessionNotFound)
	}
	msgs, err := c.history.chats.GetMessagesForUserSession(ctx, uid, sessionID)
	if errors.Is(err, sources.ErrSessionNotFound) {
		return nil, newError(http.StatusNotFound, err.Error(), err)
	}
	if err != nil {
		return nil, internalError(MsgInternal, err)
	}
	return msgs, nil
}

func (c *ChatController) DeleteSession(ctx context.Context, id *tokens.Identity, sessionID string) error {
	uid, err := c.owner(ctx, id)
	if err != nil {
		return err
	}
	if uid == "" {
		return newError(http.StatusNotFound, sources.ErrSessionNotFound.Error(), sources.ErrSessionNotFound)
	}
	err = c.history.chats.DeleteSession(ctx, uid, sessionID)
	if errors.Is(err, sources.ErrSessionNotFound) {
		return newError(http.StatusNotFound, err.Error(), err)
	}
	if err != nil {
		return internalError(MsgInternal, err)
	}
	return nil
}
