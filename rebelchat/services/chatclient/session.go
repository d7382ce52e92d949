// Package chatclient is the client half of the chat: a transcript with a
// pending guard, and transports that reach the server over HTTP.
package chatclient

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"rebelchat/rebelchat/types"
)

const (
	DefaultWelcome = "Hello! I'm your Rebel Energy customer support assistant. How can I help you today?"
	MsgTextFailed  = "Sorry, I'm having trouble connecting right now. Please try again later."
	MsgVoiceFailed = "Failed to process voice message. Please try again."
)

var (
	ErrEmptyMessage = errors.New("please enter a message before sending")
	ErrPending      = errors.New("a request is already in flight")
	ErrCleared      = errors.New("the conversation was cleared before the reply arrived")
)

type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsBot     bool      `json:"isBot"`
	Timestamp time.Time `json:"timestamp"`
}

type Reply struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

type VoiceReply struct {
	Response   string `json:"agentResponse"`
	Transcript string `json:"inputTranscript"`
	SessionID  string `json:"sessionId"`
}

// Transport carries one turn to the server.
type Transport interface {
	SendText(ctx context.Context, message, sessionID string) (*Reply, error)
	SendVoice(ctx context.Context, wav []byte, sessionID string) (*VoiceReply, error)
}

// Session is safe for concurrent use. At most one request is in flight at a
// time; a send while another is pending fails with ErrPending and never
// reaches the transport.
type Session struct {
	transport Transport
	welcome   string
	now       func() time.Time

	mu           sync.Mutex
	messages     []Message
	sessionID    string
	pendingText  bool
	pendingVoice bool
	seq          int

	// generation changes on every Clear; replies from an older one are dropped
	generation int
}

func NewSession(t Transport, welcome string) *Session {
	if welcome == "" {
		welcome = DefaultWelcome
	}
	s := &Session{transport: t, welcome: welcome, now: time.Now}
	s.Clear()
	return s
}

// Clear resets the transcript to the welcome message and starts a new
// session id.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.generation++
	s.sessionID = types.NewSessionID(now)
	s.messages = nil
	s.appendLocked(s.welcome, true)
}

func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Pending reports whether a text or voice request is in flight.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingText || s.pendingVoice
}

func (s *Session) appendLocked(text string, isBot bool) {
	s.seq++
	prefix := "user_"
	if isBot {
		prefix = "bot_"
	}
	s.messages = append(s.messages, Message{
		ID:        prefix + strconv.Itoa(s.seq),
		Text:      text,
		IsBot:     isBot,
		Timestamp: s.now(),
	})
}

// begin checks and sets the pending flag under one lock and returns the
// session id and generation the request belongs to.
func (s *Session) begin(voice bool) (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingText || s.pendingVoice {
		return "", 0, ErrPending
	}
	if voice {
		s.pendingVoice = true
	} else {
		s.pendingText = true
	}
	return s.sessionID, s.generation, nil
}

// finish clears the pending flag and runs fn unless the transcript was
// cleared since begin. It reports whether fn ran.
func (s *Session) finish(voice bool, generation int, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if voice {
		s.pendingVoice = false
	} else {
		s.pendingText = false
	}
	if generation != s.generation {
		return false
	}
	fn()
	return true
}

// Send posts one text message and returns the bot reply. On transport
// failure the error text is added to the transcript as a bot message.
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	sessionID, gen, err := s.begin(false)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	if s.generation == gen {
		s.appendLocked(text, false)
	}
	s.mu.Unlock()

	reply, err := s.transport.SendText(ctx, text, sessionID)
	var answer string
	applied := s.finish(false, gen, func() {
		if err != nil {
			s.appendLocked(errorText(err, MsgTextFailed), true)
			return
		}
		answer = reply.Response
		if reply.SessionID != "" {
			s.sessionID = reply.SessionID
		}
		s.appendLocked(answer, true)
	})
	if !applied {
		return "", ErrCleared
	}
	return answer, err
}

// SendVoice posts one recorded utterance. The transcript, when the server
// returns one, is added as the user's message.
func (s *Session) SendVoice(ctx context.Context, wav []byte) (*VoiceReply, error) {
	if len(wav) == 0 {
		return nil, ErrEmptyMessage
	}
	sessionID, gen, err := s.begin(true)
	if err != nil {
		return nil, err
	}

	reply, err := s.transport.SendVoice(ctx, wav, sessionID)
	applied := s.finish(true, gen, func() {
		if err != nil {
			s.appendLocked(errorText(err, MsgVoiceFailed), true)
			return
		}
		if reply.Transcript != "" {
			s.appendLocked(reply.Transcript, false)
		}
		if reply.SessionID != "" {
			s.sessionID = reply.SessionID
		}
		s.appendLocked(reply.Response, true)
	})
	if !applied {
		return nil, ErrCleared
	}
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func errorText(err error, fallback string) string {
	var se *ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
