package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"rebelchat/rebelchat/metrics"
	"rebelchat/rebelchat/services/cognito"
	"rebelchat/rebelchat/services/tokens"
	"rebelchat/rebelchat/sources"
	"rebelchat/rebelchat/sources/psql/models"
	"rebelchat/rebelchat/types"
	"rebelchat/rebelchat/utils/logging"

	"go.uber.org/zap"
)

const MsgSignedOut = "Signed out successfully"

// IdentityProvider is the part of the Cognito service the auth routes use.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, name string) (string, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	ResendConfirmationCode(ctx context.Context, email string) error
	SignIn(ctx context.Context, email, password string) (*cognito.SignInResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error
}

type AuthController struct {
	idp     IdentityProvider
	users   sources.UserStore
	tokens  *tokens.Manager
	metrics metrics.Recorder
}

func NewAuthController(idp IdentityProvider, users sources.UserStore, tm *tokens.Manager, rec metrics.Recorder) *AuthController {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AuthController{idp: idp, users: users, tokens: tm, metrics: rec}
}

// cognitoCall times one Cognito round trip and records its outcome.
func (c *AuthController) cognitoCall(event string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.metrics.RecordUpstream("cognito", metrics.Outcome(err), time.Since(start))
	c.metrics.RecordAuth(event, metrics.Outcome(err))
	return err
}

func (c *AuthController) SignUp(ctx context.Context, req types.SignUpRequest) (*types.SignUpResponse, error) {
	var sub string
	err := c.cognitoCall("signup", func() (err error) {
		sub, err = c.idp.SignUp(ctx, req.Email, req.Password, req.Name)
		return err
	})
	if err != nil {
		return nil, newError(http.StatusBadRequest, err.Error(), err)
	}
	return &types.SignUpResponse{Message: cognito.MsgSignedUp, UserSub: sub}, nil
}

func (c *AuthController) ConfirmSignUp(ctx context.Context, req types.ConfirmSignUpRequest) (*types.MessageResponse, error) {
	err := c.cognitoCall("confirm_signup", func() error {
		return c.idp.ConfirmSignUp(ctx, req.Email, req.ConfirmationCode)
	})
	if err != nil {
		return nil, newError(http.StatusBadRequest, err.Error(), err)
	}
	return &types.MessageResponse{Message: cognito.MsgConfirmed}, nil
}

func (c *AuthController) ResendCode(ctx context.Context, req types.ResendCodeRequest) (*types.MessageResponse, error) {
	err := c.cognitoCall("resend_code", func() error {
		return c.idp.ResendConfirmationCode(ctx, req.Email)
	})
	if err != nil {
		return nil, newError(http.StatusBadRequest, err.Error(), err)
	}
	return &types.MessageResponse{Message: cognito.MsgCodeResent}, nil
}

// SignIn authenticates against Cognito, records the user locally and issues
// the app token.
func (c *AuthController) SignIn(ctx context.Context, req types.SignInRequest) (*types.SignInResponse, error) {
	var res *cognito.SignInResult
	err := c.cognitoCall("signin", func() (err error) {
		res, err = c.idp.SignIn(ctx, req.Email, req.Password)
		return err
	})
	if err != nil {
		var ch *cognito.ChallengeError
		if errors.As(err, &ch) {
			return nil, &Error{
				Status:  http.StatusUnauthorized,
				Message: ch.Error(),
				Body:    types.ChallengeResponse{Error: ch.Error(), Challenge: ch.Challenge, Session: ch.Session},
				Err:     err,
			}
		}
		return nil, newError(http.StatusUnauthorized, err.Error(), err)
	}

	in := models.InsertUser{CognitoSub: res.User.Sub, Email: res.User.Email}
	if res.User.Name != "" {
		name := res.User.Name
		in.Name = &name
	}
	if _, err := c.users.UpsertUser(ctx, in); err != nil {
		logging.ErrorLogger.Error("upsert user on sign in", zap.String("sub", res.User.Sub), zap.Error(err))
		return nil, internalError("Sign in failed", err)
	}

	appToken, err := c.tokens.Generate(res.User)
	if err != nil {
		return nil, internalError("Sign in failed", err)
	}
	logging.AppLogger.Info("user signed in", zap.String("sub", res.User.Sub))

	return &types.SignInResponse{
		Token: appToken,
		User:  types.UserInfo{Sub: res.User.Sub, Email: res.User.Email, Name: res.User.Name},
		CognitoTokens: types.CognitoTokens{
			AccessToken:  res.Tokens.AccessToken,
			IDToken:      res.Tokens.IDToken,
			RefreshToken: res.Tokens.RefreshToken,
		},
	}, nil
}

func (c *AuthController) ForgotPassword(ctx context.Context, req types.ForgotPasswordRequest) (*types.MessageResponse, error) {
	err := c.cognitoCall("forgot_password", func() error {
		return c.idp.ForgotPassword(ctx, req.Email)
	})
	if err != nil {
		return nil, newError(http.StatusBadRequest, err.Error(), err)
	}
	return &types.MessageResponse{Message: cognito.MsgResetCodeSent}, nil
}

func (c *AuthController) ResetPassword(ctx context.Context, req types.ResetPasswordRequest) (*types.MessageResponse, error) {
	err := c.cognitoCall("reset_password", func() error {
		return c.idp.ConfirmForgotPassword(ctx, req.Email, req.ConfirmationCode, req.NewPassword)
	})
	if err != nil {
		return nil, newError(http.StatusBadRequest, err.Error(), err)
	}
	return &types.MessageResponse{Message: cognito.MsgPasswordReset}, nil
}

func (c *AuthController) Me(ctx context.Context, id *tokens.Identity) (*types.MeResponse, error) {
	u, err := c.users.GetUserByCognitoSub(ctx, id.Sub)
	if err != nil {
		return nil, internalError("Failed to get user information", err)
	}
	if u == nil {
		return nil, newError(http.StatusNotFound, "User not found", nil)
	}
	return &types.MeResponse{User: types.MeUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		LastLogin: u.LastLogin.UTC().Format(time.RFC3339Nano),
	}}, nil
}

// SignOut only refreshes the last login time; the client drops the token.
func (c *AuthController) SignOut(ctx context.Context, id *tokens.Identity) (*types.MessageResponse, error) {
	if err := c.users.UpdateUserLastLogin(ctx, id.Sub); err != nil {
		return nil, internalError("Sign out failed", err)
	}
	c.metrics.RecordAuth("signout", "ok")
	return &types.MessageResponse{Message: MsgSignedOut}, nil
}
