package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	httputils "rebelchat/rebelchat/utils/http"
)

var ErrVoiceUnsupported = errors.New("voice messages need the lex transport")

// ServerError is a non-2xx answer with the server's {"error": ...} text.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string { return e.Message }

func serverError(err error) error {
	var se *httputils.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(se.Body)
	if json.Unmarshal([]byte(se.Body), &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &ServerError{StatusCode: se.StatusCode, Message: msg}
}

// HTTPTransport sends text turns through the server's /api/chat proxy.
type HTTPTransport struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func (t *HTTPTransport) headers() map[string]string {
	if t.Token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + t.Token}
}

func (t *HTTPTransport) SendText(ctx context.Context, message, sessionID string) (*Reply, error) {
	body := map[string]string{"message": message, "sessionId": sessionID}
	var out Reply
	if err := httputils.PostJSON(ctx, t.Client, strings.TrimRight(t.BaseURL, "/")+"/api/chat", t.headers(), body, &out); err != nil {
		return nil, serverError(err)
	}
	return &out, nil
}

func (t *HTTPTransport) SendVoice(context.Context, []byte, string) (*VoiceReply, error) {
	return nil, ErrVoiceUnsupported
}

// LexTransport talks to the server's direct Lex routes and supports voice.
type LexTransport struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func (t *LexTransport) SendText(ctx context.Context, message, sessionID string) (*Reply, error) {
	body := map[string]string{"message": message, "sessionId": sessionID}
	var out struct {
		AgentResponse string `json:"agentResponse"`
		SessionID     string `json:"sessionId"`
	}
	h := (&HTTPTransport{Token: t.Token}).headers()
	if err := httputils.PostJSON(ctx, t.Client, strings.TrimRight(t.BaseURL, "/")+"/api/lex/text", h, body, &out); err != nil {
		return nil, serverError(err)
	}
	return &Reply{Response: out.AgentResponse, SessionID: out.SessionID}, nil
}

func (t *LexTransport) SendVoice(ctx context.Context, wav []byte, sessionID string) (*VoiceReply, error) {
	u := strings.TrimRight(t.BaseURL, "/") + "/api/lex/voice?sessionId=" + url.QueryEscape(sessionID)
	var out VoiceReply
	if err := httputils.PostRaw(ctx, t.Client, u, "audio/wav", (&HTTPTransport{Token: t.Token}).headers(), wav, &out); err != nil {
		return nil, serverError(err)
	}
	return &out, nil
}
