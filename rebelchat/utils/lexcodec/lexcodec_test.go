package lexcodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func compress(t *testing.T, plain string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte(plain))
	zw.Close()
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeCompressedReproducesJSON(t *testing.T) {
	plain := `[{"content":"Your balance is £42.10","contentType":"PlainText"}]`
	got, err := DecodeCompressed(compress(t, plain))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != plain {
		t.Errorf("expected %q, got %q", plain, got)
	}
}

func TestFirstMessageContent(t *testing.T) {
	enc := compress(t, `[{"content":"first","contentType":"PlainText"},{"content":"second"}]`)
	got, err := FirstMessageContent(enc, "fallback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "first" {
		t.Errorf("expected first, got %q", got)
	}

	got, _ = FirstMessageContent(compress(t, `[]`), "fallback")
	if got != "fallback" {
		t.Errorf("expected fallback for empty array, got %q", got)
	}
	got, _ = FirstMessageContent("", "fallback")
	if got != "fallback" {
		t.Errorf("expected fallback for empty field, got %q", got)
	}
}

func TestDecodeTranscript(t *testing.T) {
	got, err := DecodeTranscript(compress(t, `"report a power outage"`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "report a power outage" {
		t.Errorf("unexpected transcript %q", got)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	enc, err := Encode([]LexMessage{{Content: "hi", ContentType: "PlainText"}})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	msgs, err := DecodeMessages(enc)
	if err != nil || len(msgs) != 1 || msgs[0].Content != "hi" {
		t.Fatalf("unexpected decode %+v, %v", msgs, err)
	}
}

func TestDecodeFailuresAbort(t *testing.T) {
	cases := map[string]string{
		"bad base64": "!!!not base64!!!",
		"not gzip":   base64.StdEncoding.EncodeToString([]byte("plain text")),
		"bad json":   compress(t, "{oops"),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeMessages(in); !errors.Is(err, ErrDecode) {
				t.Errorf("expected ErrDecode, got %v", err)
			}
		})
	}
}
