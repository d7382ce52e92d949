package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"rebelchat/rebelchat/metrics"
	"rebelchat/rebelchat/services/lex"
	"rebelchat/rebelchat/services/tokens"
	"rebelchat/rebelchat/sources"
	"rebelchat/rebelchat/types"
	"rebelchat/rebelchat/utils/audio"
	"rebelchat/rebelchat/utils/logging"

	"go.uber.org/zap"
)

// Bot is the Lex runtime as the direct routes use it.
type Bot interface {
	Configured() bool
	Text(ctx context.Context, message, sessionID string) (*lex.TextResult, error)
	Voice(ctx context.Context, wav []byte, sessionID string) (*lex.VoiceResult, error)
}

// UtteranceArchive keeps a copy of every voice request.
type UtteranceArchive interface {
	PutUtterance(ctx context.Context, sessionID string, wav []byte) (string, error)
}

// VoiceInput is one uploaded recording.
type VoiceInput struct {
	ContentType string
	Body        []byte
	SessionID   string
	SampleRate  int
	Channels    int
}

type LexController struct {
	bot     Bot
	archive UtteranceArchive
	history transcripts
	metrics metrics.Recorder
	now     func() time.Time
}

func NewLexController(bot Bot, archive UtteranceArchive, chats sources.ChatStore, users sources.UserStore, rec metrics.Recorder) *LexController {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &LexController{
		bot:     bot,
		archive: archive,
		history: transcripts{chats: chats, users: users},
		metrics: rec,
		now:     time.Now,
	}
}

func (c *LexController) configured() error {
	if c.bot == nil || !c.bot.Configured() {
		return internalError(lex.ErrNotConfigured.Error(), lex.ErrNotConfigured)
	}
	return nil
}

func (c *LexController) Text(ctx context.Context, id *tokens.Identity, req types.ChatRequest) (*lex.TextResult, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}
	start := c.now()
	res, err := c.bot.Text(ctx, req.Message, req.SessionID)
	c.metrics.RecordUpstream("lex_text", metrics.Outcome(err), time.Since(start))
	if err != nil {
		return nil, newError(http.StatusBadGateway, lex.MsgTextFailed, err)
	}
	c.history.save(ctx, id, res.SessionID, req.Message, start, res.AgentResponse)
	return res, nil
}

// Voice converts the upload to 16 kHz mono PCM, archives it and sends it to
// Lex.
func (c *LexController) Voice(ctx context.Context, id *tokens.Identity, in VoiceInput) (*lex.VoiceResult, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}
	wav, err := audio.ToLexPCM(in.ContentType, in.Body, in.SampleRate, in.Channels)
	if err != nil {
		msg := "Could not read the recording. Please try again."
		if errors.Is(err, audio.ErrUnsupportedAudio) {
			msg = "Unsupported audio format. Send audio/wav or audio/x-float32le."
		}
		return nil, newError(http.StatusBadRequest, msg, err)
	}

	start := c.now()
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = types.NewSessionID(start)
	}
	if c.archive != nil {
		if key, err := c.archive.PutUtterance(ctx, sessionID, wav); err != nil {
			logging.ErrorLogger.Error("archive utterance", zap.String("session_id", sessionID), zap.Error(err))
		} else {
			logging.AppLogger.Info("utterance archived", zap.String("key", key))
		}
	}

	res, err := c.bot.Voice(ctx, wav, sessionID)
	c.metrics.RecordUpstream("lex_voice", metrics.Outcome(err), time.Since(start))
	if err != nil {
		return nil, newError(http.StatusBadGateway, lex.MsgVoiceFailed, err)
	}
	c.history.save(ctx, id, res.SessionID, res.InputTranscript, start, res.AgentResponse)
	return res, nil
}
