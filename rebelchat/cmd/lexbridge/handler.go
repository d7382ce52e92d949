package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"rebelchat/rebelchat/services/lex"
	"rebelchat/rebelchat/types"
	"rebelchat/rebelchat/utils/logging"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

const (
	msgInvalidBody  = "Invalid request body"
	msgEmptyMessage = "Message cannot be empty"
	msgForbidden    = "Forbidden"
)

// TextBot is the part of the Lex service the bridge needs.
type TextBot interface {
	Text(ctx context.Context, message, sessionID string) (*lex.TextResult, error)
}

type request struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
}

type Handler struct {
	Bot TextBot
	// APIKey, when set, must match the x-api-key header.
	APIKey string
}

func (h *Handler) Handle(ctx context.Context, ev events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if h.APIKey != "" && header(ev.Headers, "x-api-key") != h.APIKey {
		return respond(http.StatusForbidden, types.ErrorResponse{Error: msgForbidden}), nil
	}

	body := []byte(ev.Body)
	if ev.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(ev.Body)
		if err != nil {
			return respond(http.StatusBadRequest, types.ErrorResponse{Error: msgInvalidBody}), nil
		}
		body = raw
	}
	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		return respond(http.StatusBadRequest, types.ErrorResponse{Error: msgInvalidBody}), nil
	}
	if strings.TrimSpace(req.Message) == "" {
		return respond(http.StatusBadRequest, types.ErrorResponse{Error: msgEmptyMessage}), nil
	}

	res, err := h.Bot.Text(ctx, req.Message, req.SessionID)
	if err != nil {
		logging.ErrorLogger.Error("lex bridge turn failed", zap.String("session_id", req.SessionID), zap.Error(err))
		msg := lex.MsgTextFailed
		if errors.Is(err, lex.ErrNotConfigured) {
			msg = err.Error()
		}
		return respond(http.StatusBadGateway, types.ErrorResponse{Error: msg}), nil
	}
	return respond(http.StatusOK, types.ChatResponse{Response: res.AgentResponse, SessionID: res.SessionID}), nil
}

func header(h map[string]string, name string) string {
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func respond(status int, v any) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}
