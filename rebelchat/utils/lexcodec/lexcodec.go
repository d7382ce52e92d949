// Package lexcodec decodes the compressed fields Lex returns for voice
// requests: base64 text wrapping a gzip stream wrapping JSON.
package lexcodec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
)

var ErrDecode = errors.New("lexcodec: failed to decode compressed field")

// LexMessage mirrors one entry of the Lex "messages" array.
type LexMessage struct {
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
}

// DecodeCompressed base64-decodes s, inflates it and checks the result is
// UTF-8 text.
func DecodeCompressed(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrDecode, err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %v", ErrDecode, err)
	}
	defer zr.Close()
	text, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %v", ErrDecode, err)
	}
	if !utf8.Valid(text) {
		return nil, fmt.Errorf("%w: payload is not utf-8", ErrDecode)
	}
	return text, nil
}

// DecodeMessages decodes the compressed "messages" field.
func DecodeMessages(s string) ([]LexMessage, error) {
	text, err := DecodeCompressed(s)
	if err != nil {
		return nil, err
	}
	var msgs []LexMessage
	if err := json.Unmarshal(text, &msgs); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrDecode, err)
	}
	return msgs, nil
}

// FirstMessageContent returns the content of the first decoded message, or
// fallback when s is empty or holds no messages.
func FirstMessageContent(s, fallback string) (string, error) {
	if s == "" {
		return fallback, nil
	}
	msgs, err := DecodeMessages(s)
	if err != nil {
		return "", err
	}
	if len(msgs) == 0 || msgs[0].Content == "" {
		return fallback, nil
	}
	return msgs[0].Content, nil
}

// DecodeTranscript decodes the compressed "inputTranscript" field, which is a
// JSON string once inflated.
func DecodeTranscript(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	text, err := DecodeCompressed(s)
	if err != nil {
		return "", err
	}
	var out string
	if err := json.Unmarshal(text, &out); err != nil {
		return "", fmt.Errorf("%w: json: %v", ErrDecode, err)
	}
	return out, nil
}

// Encode is the inverse of DecodeCompressed. The Lambda bridge and tests use
// it to produce fields in the same shape Lex does.
func Encode(v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
