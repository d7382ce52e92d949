package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"rebelchat/rebelchat/services/lex"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lexruntimev2"
	lextypes "github.com/aws/aws-sdk-go-v2/service/lexruntimev2/types"
)

type fakeRuntime struct {
	lex.Runtime
	in  *lexruntimev2.RecognizeTextInput
	out *lexruntimev2.RecognizeTextOutput
	err error
}

func (f *fakeRuntime) RecognizeText(_ context.Context, in *lexruntimev2.RecognizeTextInput, _ ...func(*lexruntimev2.Options)) (*lexruntimev2.RecognizeTextOutput, error) {
	f.in = in
	return f.out, f.err
}

func newHandler(fr *fakeRuntime, apiKey string) *Handler {
	bot := lex.NewService(fr, lex.Bot{BotID: "BOT1", AliasID: "ALIAS1", LocaleID: "en_US"})
	return &Handler{Bot: bot, APIKey: apiKey}
}

func decodeBody(t *testing.T, res events.APIGatewayV2HTTPResponse) map[string]string {
	t.Helper()
	var out map[string]string
	if err := json.Unmarshal([]byte(res.Body), &out); err != nil {
		t.Fatalf("body %q: %v", res.Body, err)
	}
	return out
}

func TestHandleForwardsToLex(t *testing.T) {
	fr := &fakeRuntime{out: &lexruntimev2.RecognizeTextOutput{
		Messages:  []lextypes.Message{{Content: aws.String("Your next bill is due on the 3rd.")}},
		SessionId: aws.String("session_42"),
	}}
	h := newHandler(fr, "")

	res, err := h.Handle(context.Background(), events.APIGatewayV2HTTPRequest{
		Body: `{"message":"When is my bill due?","sessionId":"session_42","timestamp":"2024-01-01T00:00:00.000Z"}`,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	body := decodeBody(t, res)
	if body["response"] != "Your next bill is due on the 3rd." || body["sessionId"] != "session_42" {
		t.Fatalf("body = %v", body)
	}
	if aws.ToString(fr.in.Text) != "When is my bill due?" || aws.ToString(fr.in.SessionId) != "session_42" {
		t.Fatalf("lex input = %+v", fr.in)
	}
}

func TestHandleBase64Body(t *testing.T) {
	fr := &fakeRuntime{out: &lexruntimev2.RecognizeTextOutput{}}
	h := newHandler(fr, "")

	res, _ := h.Handle(context.Background(), events.APIGatewayV2HTTPRequest{
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"message":"hi"}`)),
		IsBase64Encoded: true,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	body := decodeBody(t, res)
	if body["response"] != lex.Fallback || body["sessionId"] == "" {
		t.Fatalf("body = %v", body)
	}
}

func TestHandleRejectsBadInput(t *testing.T) {
	h := newHandler(&fakeRuntime{}, "")
	cases := map[string]string{
		"empty message": `{"message":"   "}`,
		"bad json":      `{"message":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			res, _ := h.Handle(context.Background(), events.APIGatewayV2HTTPRequest{Body: body})
			if res.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d", res.StatusCode)
			}
		})
	}
}

func TestHandleChecksAPIKey(t *testing.T) {
	fr := &fakeRuntime{out: &lexruntimev2.RecognizeTextOutput{}}
	h := newHandler(fr, "k1")

	res, _ := h.Handle(context.Background(), events.APIGatewayV2HTTPRequest{Body: `{"message":"hi"}`})
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d", res.StatusCode)
	}
	res, _ = h.Handle(context.Background(), events.APIGatewayV2HTTPRequest{
		Headers: map[string]string{"X-Api-Key": "k1"},
		Body:    `{"message":"hi"}`,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
}

func TestHandleLexFailure(t *testing.T) {
	h := newHandler(&fakeRuntime{err: errors.New("throttled")}, "")
	res, _ := h.Handle(context.Background(), events.APIGatewayV2HTTPRequest{Body: `{"message":"hi"}`})
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if decodeBody(t, res)["error"] != lex.MsgTextFailed {
		t.Fatalf("body = %s", res.Body)
	}
}
