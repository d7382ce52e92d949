package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"rebelchat/rebelchat/controllers"
)

func TestWriteErrorMessageMatchesStatus(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		wantStatus int
		wantMsg    string
	}{
		{"bad request", http.StatusBadRequest, http.StatusBadRequest, msgInvalidRequest},
		{"not found", http.StatusNotFound, http.StatusNotFound, "Not Found"},
		{"server error", http.StatusInternalServerError, http.StatusInternalServerError, controllers.MsgInternal},
		{"no status", 0, http.StatusInternalServerError, controllers.MsgInternal},
		{"ok status", http.StatusOK, http.StatusInternalServerError, controllers.MsgInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
			writeError(rr, req, tc.status, errors.New("unexpected EOF"))

			if rr.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("body %q: %v", rr.Body.String(), err)
			}
			if body["error"] != tc.wantMsg {
				t.Errorf("error = %q, want %q", body["error"], tc.wantMsg)
			}
		})
	}
}
