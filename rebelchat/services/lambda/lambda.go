// Package lambda forwards chat messages to the configured Lambda endpoint.
package lambda

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rebelchat/rebelchat/types"
	httputils "rebelchat/rebelchat/utils/http"
	"rebelchat/rebelchat/utils/logging"

	"go.uber.org/zap"
)

const DefaultReply = "I received your message."

var ErrNotConfigured = errors.New("Lambda endpoint not configured. Please set LAMBDA_ENDPOINT environment variable.")

// Request is the body posted to the endpoint.
type Request struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
}

type response struct {
	Response  string `json:"response"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type Reply struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

type Proxy struct {
	Endpoint    string
	APIKey      string
	AccessKeyID string
	Client      *http.Client

	now func() time.Time
}

func NewProxy(endpoint, apiKey, accessKeyID string) *Proxy {
	return &Proxy{
		Endpoint:    endpoint,
		APIKey:      apiKey,
		AccessKeyID: accessKeyID,
		Client:      httputils.DefaultClient,
		now:         time.Now,
	}
}

func (p *Proxy) headers() map[string]string {
	h := map[string]string{}
	if p.APIKey != "" {
		h["x-api-key"] = p.APIKey
	}
	if p.AccessKeyID != "" {
		h["Authorization"] = "AWS4-HMAC-SHA256 Credential=" + p.AccessKeyID
	}
	return h
}

// Forward makes exactly one call to the endpoint. A non-2xx answer comes
// back as *httputils.StatusError.
func (p *Proxy) Forward(ctx context.Context, message, sessionID string) (*Reply, error) {
	if p.Endpoint == "" {
		return nil, ErrNotConfigured
	}
	defer logging.LogDuration(ctx, "lambda_forward")()

	now := p.now()
	if sessionID == "" {
		sessionID = types.NewSessionID(now)
	}
	body := Request{
		Message:   message,
		SessionID: sessionID,
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}

	var out response
	if err := httputils.PostJSON(ctx, p.Client, p.Endpoint, p.headers(), body, &out); err != nil {
		logging.ErrorLogger.Error("lambda call failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, err
	}

	reply := &Reply{Response: out.Response, SessionID: out.SessionID}
	if reply.Response == "" {
		reply.Response = out.Message
	}
	if reply.Response == "" {
		reply.Response = DefaultReply
	}
	if reply.SessionID == "" {
		reply.SessionID = sessionID
	}
	return reply, nil
}

// ErrorMessage renders an upstream status failure the way clients see it.
func ErrorMessage(se *httputils.StatusError) string {
	text := se.Body
	if text == "" {
		text = "Unknown error"
	}
	return fmt.Sprintf("Lambda function error: %s", text)
}
