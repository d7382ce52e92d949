package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type blockingTransport struct {
	calls   atomic.Int32
	release chan struct{}
	started chan struct{}
	reply   *Reply
	voice   *VoiceReply
	err     error
}

func (b *blockingTransport) SendText(ctx context.Context, message, sessionID string) (*Reply, error) {
	b.calls.Add(1)
	if b.started != nil {
		close(b.started)
	}
	if b.release != nil {
		<-b.release
	}
	return b.reply, b.err
}

func (b *blockingTransport) SendVoice(ctx context.Context, wav []byte, sessionID string) (*VoiceReply, error) {
	b.calls.Add(1)
	return b.voice, b.err
}

func TestNewSessionStartsWithWelcome(t *testing.T) {
	s := NewSession(&blockingTransport{}, "")
	msgs := s.Messages()
	if len(msgs) != 1 || !msgs[0].IsBot || msgs[0].Text != DefaultWelcome {
		t.Fatalf("unexpected transcript %+v", msgs)
	}
}

func TestSendEmptyMessage(t *testing.T) {
	tr := &blockingTransport{}
	s := NewSession(tr, "")
	if _, err := s.Send(context.Background(), "   \n\t"); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if tr.calls.Load() != 0 || len(s.Messages()) != 1 {
		t.Fatal("empty message must not change anything")
	}
}

func TestSendWhilePendingMakesNoSecondCall(t *testing.T) {
	tr := &blockingTransport{
		release: make(chan struct{}),
		started: make(chan struct{}),
		reply:   &Reply{Response: "Happy to help.", SessionID: "session_1"},
	}
	s := NewSession(tr, "")

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "first")
		done <- err
	}()
	<-tr.started

	if !s.Pending() {
		t.Fatal("expected pending while first request is in flight")
	}
	if _, err := s.Send(context.Background(), "second"); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	if _, err := s.SendVoice(context.Background(), []byte("RIFF")); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending for voice, got %v", err)
	}

	close(tr.release)
	if err := <-done; err != nil {
		t.Fatalf("first send: %v", err)
	}
	if n := tr.calls.Load(); n != 1 {
		t.Fatalf("expected one transport call, got %d", n)
	}
	msgs := s.Messages()
	if len(msgs) != 3 || msgs[1].Text != "first" || msgs[2].Text != "Happy to help." {
		t.Fatalf("unexpected transcript %+v", msgs)
	}
	if s.Pending() {
		t.Fatal("pending flag not cleared")
	}
}

func TestSendErrorAppendsBotMessage(t *testing.T) {
	tr := &blockingTransport{err: &ServerError{StatusCode: 502, Message: "Lambda function error: boom"}}
	s := NewSession(tr, "")
	if _, err := s.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
	msgs := s.Messages()
	last := msgs[len(msgs)-1]
	if !last.IsBot || last.Text != "Lambda function error: boom" {
		t.Fatalf("unexpected last message %+v", last)
	}

	tr.err = errors.New("dial tcp: refused")
	_, _ = s.Send(context.Background(), "again")
	msgs = s.Messages()
	if msgs[len(msgs)-1].Text != MsgTextFailed {
		t.Fatalf("expected generic failure text, got %q", msgs[len(msgs)-1].Text)
	}
}

func TestSendVoiceAddsTranscript(t *testing.T) {
	tr := &blockingTransport{voice: &VoiceReply{Response: "Sure.", Transcript: "pay my bill", SessionID: "session_9"}}
	s := NewSession(tr, "")
	if _, err := s.SendVoice(context.Background(), []byte("RIFF")); err != nil {
		t.Fatal(err)
	}
	msgs := s.Messages()
	if len(msgs) != 3 || msgs[1].IsBot || msgs[1].Text != "pay my bill" || msgs[2].Text != "Sure." {
		t.Fatalf("unexpected transcript %+v", msgs)
	}
	if s.SessionID() != "session_9" {
		t.Errorf("session = %q", s.SessionID())
	}
}

func TestClearDropsLateReply(t *testing.T) {
	tr := &blockingTransport{
		release: make(chan struct{}),
		started: make(chan struct{}),
		reply:   &Reply{Response: "Your tariff is fixed.", SessionID: "session_1000"},
	}
	s := NewSession(tr, "Welcome!")
	s.now = func() time.Time { return time.UnixMilli(1000) }
	s.Clear()

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "what tariff am I on?")
		done <- err
	}()
	<-tr.started

	s.now = func() time.Time { return time.UnixMilli(2000) }
	s.Clear()
	close(tr.release)

	if err := <-done; !errors.Is(err, ErrCleared) {
		t.Fatalf("expected ErrCleared, got %v", err)
	}
	if s.SessionID() != "session_2000" {
		t.Errorf("late reply overwrote the session id: %q", s.SessionID())
	}
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Text != "Welcome!" {
		t.Errorf("late reply leaked into the cleared transcript: %+v", msgs)
	}
	if s.Pending() {
		t.Error("pending flag not cleared")
	}
}

func TestClearResetsTranscriptAndSession(t *testing.T) {
	tr := &blockingTransport{reply: &Reply{Response: "ok"}}
	s := NewSession(tr, "Welcome!")
	s.now = func() time.Time { return time.UnixMilli(1000) }
	s.Clear()
	first := s.SessionID()
	_, _ = s.Send(context.Background(), "hi")

	s.now = func() time.Time { return time.UnixMilli(2000) }
	s.Clear()
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Text != "Welcome!" {
		t.Fatalf("unexpected transcript %+v", msgs)
	}
	if first != "session_1000" || s.SessionID() != "session_2000" {
		t.Errorf("sessions = %q, %q", first, s.SessionID())
	}
}

func TestHTTPTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["message"] == "fail" {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"Lambda function error: down"}`))
			return
		}
		_, _ = w.Write([]byte(`{"response":"echo ` + body["message"] + `","sessionId":"` + body["sessionId"] + `"}`))
	}))
	defer srv.Close()

	tr := &HTTPTransport{BaseURL: srv.URL + "/", Token: "tok"}
	reply, err := tr.SendText(context.Background(), "hi", "session_5")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Response != "echo hi" || reply.SessionID != "session_5" {
		t.Errorf("reply = %+v", reply)
	}

	_, err = tr.SendText(context.Background(), "fail", "session_5")
	var se *ServerError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway || se.Message != "Lambda function error: down" {
		t.Fatalf("unexpected error %v", err)
	}

	if _, err := tr.SendVoice(context.Background(), nil, ""); !errors.Is(err, ErrVoiceUnsupported) {
		t.Errorf("expected ErrVoiceUnsupported, got %v", err)
	}
}

func TestLexTransportVoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/lex/voice" || r.URL.Query().Get("sessionId") != "session_3" {
			t.Errorf("url = %s", r.URL)
		}
		if r.Header.Get("Content-Type") != "audio/wav" {
			t.Errorf("content type = %s", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		b, _ := io.ReadAll(r.Body)
		if string(b) != "RIFF" {
			t.Errorf("body = %q", b)
		}
		_, _ = w.Write([]byte(`{"agentResponse":"Done.","inputTranscript":"top up","sessionId":"session_3"}`))
	}))
	defer srv.Close()

	tr := &LexTransport{BaseURL: srv.URL, Token: "tok"}
	reply, err := tr.SendVoice(context.Background(), []byte("RIFF"), "session_3")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Response != "Done." || reply.Transcript != "top up" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestSignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Incorrect username or password."}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"app-token","user":{"sub":"s1","email":"a@b.co","name":"Ann"}}`))
	}))
	defer srv.Close()

	out, err := SignIn(context.Background(), nil, srv.URL, "a@b.co", "secret123")
	if err != nil {
		t.Fatal(err)
	}
	if out.Token != "app-token" || out.User.Name != "Ann" {
		t.Fatalf("unexpected sign-in response: %+v", out)
	}

	_, err = SignIn(context.Background(), nil, srv.URL, "a@b.co", "wrong")
	var se *ServerError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized || se.Message != "Incorrect username or password." {
		t.Fatalf("err = %v", err)
	}
}
