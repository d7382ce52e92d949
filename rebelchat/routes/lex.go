package routes

import (
	"io"
	"net/http"
	"strconv"

	"rebelchat/rebelchat/controllers"
	"rebelchat/rebelchat/middlewares"
	"rebelchat/rebelchat/services/tokens"
	"rebelchat/rebelchat/types"
	"rebelchat/rebelchat/utils/validation"

	"github.com/go-chi/chi/v5"
)

const maxVoiceBytes = 10 << 20

func LexRoutes(ctrl *controllers.LexController, tm *tokens.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.OptionalAuth(tm))

	r.Post("/text", handleJSON(func(r *http.Request) (any, int, error) {
		req, err := decode[types.ChatRequest](r)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		res, err := ctrl.Text(r.Context(), identity(r), req)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return res, http.StatusOK, nil
	}))

	// POST /voice?sessionId=..&sampleRate=..&channels=.. with the recording
	// as the body.
	r.Post("/voice", handleJSON(func(r *http.Request) (any, int, error) {
		body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxVoiceBytes))
		if err != nil {
			return nil, http.StatusBadRequest, &validation.Error{Issues: []validation.Issue{{Field: "body", Message: "Recording is too large or unreadable"}}}
		}
		if len(body) == 0 {
			return nil, http.StatusBadRequest, &validation.Error{Issues: []validation.Issue{{Field: "body", Message: "Recording is empty"}}}
		}
		q := r.URL.Query()
		rate, _ := strconv.Atoi(q.Get("sampleRate"))
		channels, _ := strconv.Atoi(q.Get("channels"))
		res, err := ctrl.Voice(r.Context(), identity(r), controllers.VoiceInput{
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
			SessionID:   q.Get("sessionId"),
			SampleRate:  rate,
			Channels:    channels,
		})
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return res, http.StatusOK, nil
	}))

	return r
}
