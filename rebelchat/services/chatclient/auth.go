package chatclient

import (
	"context"
	"net/http"
	"strings"

	"rebelchat/rebelchat/types"
	httputils "rebelchat/rebelchat/utils/http"
)

// SignIn exchanges credentials for the app token the chat routes accept.
func SignIn(ctx context.Context, client *http.Client, baseURL, email, password string) (*types.SignInResponse, error) {
	body := types.SignInRequest{Email: email, Password: password}
	var out types.SignInResponse
	if err := httputils.PostJSON(ctx, client, strings.TrimRight(baseURL, "/")+"/api/auth/signin", nil, body, &out); err != nil {
		return nil, serverError(err)
	}
	return &out, nil
}
