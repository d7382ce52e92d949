package routes

import (
	"errors"
	"net/http"

	"rebelchat/rebelchat/controllers"
	"rebelchat/rebelchat/middlewares"
	"rebelchat/rebelchat/services/tokens"
	"rebelchat/rebelchat/types"
	httputils "rebelchat/rebelchat/utils/http"
	"rebelchat/rebelchat/utils/logging"
	"rebelchat/rebelchat/utils/validation"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const msgInvalidRequest = "Invalid request data"

// generic wrapper to reduce boilerplate
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			writeError(w, r, status, err)
			return
		}
		httputils.WriteJSON(w, status, res)
	}
}

// writeError renders validation failures with their details, controller
// errors with their own status, and anything else with a message that
// matches status.
func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		httputils.WriteJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: msgInvalidRequest, Details: verr.Issues})
		return
	}
	var cerr *controllers.Error
	if errors.As(err, &cerr) {
		if cerr.Status >= 500 {
			logging.ErrorLogger.Error("request failed",
				zap.String("path", r.URL.Path),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Error(errors.Unwrap(err)),
			)
		}
		if cerr.Body != nil {
			httputils.WriteJSON(w, cerr.Status, cerr.Body)
			return
		}
		httputils.WriteError(w, cerr.Status, cerr.Message)
		return
	}
	logging.ErrorLogger.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	switch {
	case status == http.StatusBadRequest:
		httputils.WriteError(w, status, msgInvalidRequest)
	case status >= 400 && status < 500:
		httputils.WriteError(w, status, http.StatusText(status))
	default:
		httputils.WriteError(w, http.StatusInternalServerError, controllers.MsgInternal)
	}
}

// decode reads and validates the JSON body into dst.
func decode[T any](r *http.Request) (T, error) {
	var dst T
	err := validation.Decode(r.Body, &dst)
	return dst, err
}

// identity is the signed-in user, nil for anonymous requests.
func identity(r *http.Request) *tokens.Identity {
	id, _ := middlewares.IdentityFromContext(r.Context())
	return id
}
