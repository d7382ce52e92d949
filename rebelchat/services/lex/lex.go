// Package lex talks to the Lex V2 runtime for text and voice turns.
package lex

import (
	"bytes"
	"context"
	"errors"
	"time"

	"rebelchat/rebelchat/types"
	"rebelchat/rebelchat/utils/lexcodec"
	"rebelchat/rebelchat/utils/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lexruntimev2"
	"go.uber.org/zap"
)

const (
	Fallback            = "I'm sorry, I didn't understand that."
	MsgTextFailed       = "Failed to communicate with the chatbot. Please try again."
	MsgVoiceFailed      = "Failed to process voice message. Please try again."
	RequestContentType  = "audio/l16; rate=16000; channels=1"
	ResponseContentType = "text/plain; charset=utf-8"
)

var ErrNotConfigured = errors.New("Lex bot not configured. Please set LEX_BOT_ID environment variable.")

// Runtime is the subset of the Lex runtime client used here.
type Runtime interface {
	RecognizeText(ctx context.Context, params *lexruntimev2.RecognizeTextInput, optFns ...func(*lexruntimev2.Options)) (*lexruntimev2.RecognizeTextOutput, error)
	RecognizeUtterance(ctx context.Context, params *lexruntimev2.RecognizeUtteranceInput, optFns ...func(*lexruntimev2.Options)) (*lexruntimev2.RecognizeUtteranceOutput, error)
}

type Bot struct {
	BotID    string
	AliasID  string
	LocaleID string
}

type TextResult struct {
	AgentResponse string `json:"agentResponse"`
	SessionID     string `json:"sessionId"`
	Intent        string `json:"intent,omitempty"`
	DialogState   string `json:"dialogState,omitempty"`
}

type VoiceResult struct {
	AgentResponse   string `json:"agentResponse"`
	InputTranscript string `json:"inputTranscript"`
	SessionID       string `json:"sessionId"`
}

type Service struct {
	client Runtime
	bot    Bot
	now    func() time.Time
}

func NewService(client Runtime, bot Bot) *Service {
	return &Service{client: client, bot: bot, now: time.Now}
}

func NewServiceFromConfig(cfg aws.Config, bot Bot) *Service {
	return NewService(lexruntimev2.NewFromConfig(cfg), bot)
}

func (s *Service) Configured() bool {
	return s != nil && s.bot.BotID != ""
}

func (s *Service) session(id string) string {
	if id == "" {
		return types.NewSessionID(s.now())
	}
	return id
}

// Text sends one text turn.
func (s *Service) Text(ctx context.Context, message, sessionID string) (*TextResult, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	defer logging.LogDuration(ctx, "lex_recognize_text")()
	sessionID = s.session(sessionID)

	out, err := s.client.RecognizeText(ctx, &lexruntimev2.RecognizeTextInput{
		BotId:      aws.String(s.bot.BotID),
		BotAliasId: aws.String(s.bot.AliasID),
		LocaleId:   aws.String(s.bot.LocaleID),
		SessionId:  aws.String(sessionID),
		Text:       aws.String(message),
	})
	if err != nil {
		logging.ErrorLogger.Error("lex RecognizeText failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	res := &TextResult{AgentResponse: Fallback, SessionID: sessionID}
	if len(out.Messages) > 0 && aws.ToString(out.Messages[0].Content) != "" {
		res.AgentResponse = aws.ToString(out.Messages[0].Content)
	}
	if out.SessionId != nil {
		res.SessionID = aws.ToString(out.SessionId)
	}
	if st := out.SessionState; st != nil {
		if st.Intent != nil {
			res.Intent = aws.ToString(st.Intent.Name)
		}
		if st.DialogAction != nil {
			res.DialogState = string(st.DialogAction.Type)
		}
	}
	return res, nil
}

// Voice sends one 16 kHz mono PCM WAV utterance and decodes the compressed
// messages and transcript Lex sends back.
func (s *Service) Voice(ctx context.Context, wav []byte, sessionID string) (*VoiceResult, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	defer logging.LogDuration(ctx, "lex_recognize_utterance")()
	sessionID = s.session(sessionID)

	out, err := s.client.RecognizeUtterance(ctx, &lexruntimev2.RecognizeUtteranceInput{
		BotId:               aws.String(s.bot.BotID),
		BotAliasId:          aws.String(s.bot.AliasID),
		LocaleId:            aws.String(s.bot.LocaleID),
		SessionId:           aws.String(sessionID),
		RequestContentType:  aws.String(RequestContentType),
		ResponseContentType: aws.String(ResponseContentType),
		InputStream:         bytes.NewReader(wav),
	})
	if err != nil {
		logging.ErrorLogger.Error("lex RecognizeUtterance failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	if out.AudioStream != nil {
		out.AudioStream.Close()
	}

	reply, err := lexcodec.FirstMessageContent(aws.ToString(out.Messages), Fallback)
	if err != nil {
		return nil, err
	}
	transcript, err := lexcodec.DecodeTranscript(aws.ToString(out.InputTranscript))
	if err != nil {
		return nil, err
	}
	res := &VoiceResult{AgentResponse: reply, InputTranscript: transcript, SessionID: sessionID}
	if out.SessionId != nil {
		res.SessionID = aws.ToString(out.SessionId)
	}
	return res, nil
}
