package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"rebelchat/rebelchat/controllers"
	"rebelchat/rebelchat/middlewares"
	"rebelchat/rebelchat/services/tokens"
	"rebelchat/rebelchat/types"
	"rebelchat/rebelchat/utils/logging"
	"rebelchat/rebelchat/utils/validation"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ChatRoutes serves the Lambda proxy, the transcript history and the chat
// websocket. originPatterns restricts websocket origins; empty allows any.
func ChatRoutes(ctrl *controllers.ChatController, tm *tokens.Manager, originPatterns []string) chi.Router {
	r := chi.NewRouter()

	r.With(middlewares.OptionalAuth(tm)).Post("/", handleJSON(func(r *http.Request) (any, int, error) {
		req, err := decode[types.ChatRequest](r)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		res, err := ctrl.Chat(r.Context(), identity(r), req)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return res, http.StatusOK, nil
	}))

	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(tm))

		gr.Get("/sessions", handleJSON(func(r *http.Request) (any, int, error) {
			sessions, err := ctrl.ListSessions(r.Context(), identity(r))
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return sessions, http.StatusOK, nil
		}))

		gr.Get("/sessions/{sessionId}/messages", handleJSON(func(r *http.Request) (any, int, error) {
			msgs, err := ctrl.GetSessionMessages(r.Context(), identity(r), chi.URLParam(r, "sessionId"))
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return msgs, http.StatusOK, nil
		}))

		gr.Delete("/sessions/{sessionId}", func(w http.ResponseWriter, r *http.Request) {
			if err := ctrl.DeleteSession(r.Context(), identity(r), chi.URLParam(r, "sessionId")); err != nil {
				writeError(w, r, http.StatusInternalServerError, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	r.With(middlewares.OptionalAuth(tm)).HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		opts := &websocket.AcceptOptions{OriginPatterns: originPatterns}
		if len(originPatterns) == 0 {
			opts.InsecureSkipVerify = true
		}
		conn, err := websocket.Accept(w, r, opts)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")
		conn.SetReadLimit(64 << 10)

		serveChatSocket(r.Context(), conn, ctrl, tm, identity(r))
	})

	return r
}

type socketReply struct {
	Response  string `json:"response,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// serveChatSocket handles frames one at a time: the next frame is not read
// until the reply to the current one has been written, so a socket never
// has more than one call to the backend in flight.
func serveChatSocket(ctx context.Context, conn *websocket.Conn, ctrl *controllers.ChatController, tm *tokens.Manager, upgradeID *tokens.Identity) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && !errors.Is(err, context.Canceled) {
				logging.AppLogger.Info("chat socket closed", zap.Error(err))
			}
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}

		reply := handleFrame(ctx, data, ctrl, tm, upgradeID)
		if err := wsjson.Write(ctx, conn, reply); err != nil {
			return
		}
	}
}

func handleFrame(ctx context.Context, data []byte, ctrl *controllers.ChatController, tm *tokens.Manager, id *tokens.Identity) socketReply {
	var req types.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return socketReply{Error: msgInvalidRequest}
	}
	if err := validation.Struct(&req); err != nil {
		return socketReply{Error: msgInvalidRequest}
	}
	if req.Token != "" {
		v, err := tm.Verify(req.Token)
		if err != nil {
			return socketReply{Error: middlewares.MsgTokenInvalid}
		}
		id = v
	}
	res, err := ctrl.Chat(ctx, id, req)
	if err != nil {
		var cerr *controllers.Error
		if errors.As(err, &cerr) {
			return socketReply{Error: cerr.Message}
		}
		return socketReply{Error: controllers.MsgInternal}
	}
	return socketReply{Response: res.Response, SessionID: res.SessionID}
}
