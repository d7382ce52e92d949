// Package cognito wraps the Cognito user pool calls the auth routes need.
package cognito

import (
	"context"
	"errors"
	"fmt"

	"rebelchat/rebelchat/services/tokens"
	"rebelchat/rebelchat/utils/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// IdentityProvider is the subset of the Cognito client used here.
type IdentityProvider interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, params *cip.ResendConfirmationCodeInput, optFns ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	ForgotPassword(ctx context.Context, params *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, params *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
	GetUser(ctx context.Context, params *cip.GetUserInput, optFns ...func(*cip.Options)) (*cip.GetUserOutput, error)
}

const (
	MsgSignedUp      = "User registered successfully. Please check your email for verification code."
	MsgConfirmed     = "Email verified successfully. You can now sign in."
	MsgCodeResent    = "A new verification code has been sent to your email."
	MsgResetCodeSent = "Password reset code sent to your email."
	MsgPasswordReset = "Password reset successfully."
	ChallengeNewPass = "NEW_PASSWORD_REQUIRED"
	msgNewPassNeeded = "New password required"
	msgAuthFailed    = "Authentication failed"
	fallbackSignUp   = "Registration failed"
	fallbackConfirm  = "Email verification failed"
	fallbackResend   = "Resending verification code failed"
	fallbackSignIn   = "Sign in failed"
	fallbackForgot   = "Password reset request failed"
	fallbackReset    = "Password reset failed"
	fallbackGetUser  = "Failed to get user info"
)

// Error carries the message shown to the user and the underlying cause.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// ChallengeError is returned by SignIn when Cognito wants another step
// before it hands out tokens.
type ChallengeError struct {
	Challenge string
	Session   string
}

func (e *ChallengeError) Error() string { return msgNewPassNeeded }

// Tokens are the raw Cognito tokens from a successful sign in.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

type SignInResult struct {
	Tokens Tokens
	User   tokens.Identity
}

type Service struct {
	client   IdentityProvider
	clientID string

	// issuer is the user pool URL ID tokens must carry; empty skips the check.
	issuer string
}

func NewService(client IdentityProvider, clientID string) *Service {
	return &Service{client: client, clientID: clientID}
}

// NewServiceFromConfig builds the service on a real Cognito client.
func NewServiceFromConfig(cfg aws.Config, clientID string) *Service {
	return NewService(cip.NewFromConfig(cfg), clientID)
}

// UserPoolIssuer is the iss claim Cognito puts in tokens of the given pool.
func UserPoolIssuer(region, poolID string) string {
	return "https://cognito-idp." + region + ".amazonaws.com/" + poolID
}

// WithUserPool makes SignIn reject ID tokens issued by any other pool.
func (s *Service) WithUserPool(region, poolID string) *Service {
	if poolID != "" {
		s.issuer = UserPoolIssuer(region, poolID)
	}
	return s
}

// wrap maps an SDK failure onto the message Cognito gave, or fallback.
func wrap(op string, err error, fallback string) error {
	msg := fallback
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorMessage() != "" {
		msg = apiErr.ErrorMessage()
	}
	logging.ErrorLogger.Error("cognito call failed", zap.String("op", op), zap.Error(err))
	return &Error{Message: msg, Err: err}
}

// SignUp registers a user and returns the new user's sub.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (string, error) {
	defer logging.LogDuration(ctx, "cognito_sign_up")()
	out, err := s.client.SignUp(ctx, &cip.SignUpInput{
		ClientId: aws.String(s.clientID),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("name"), Value: aws.String(name)},
		},
	})
	if err != nil {
		return "", wrap("SignUp", err, fallbackSignUp)
	}
	return aws.ToString(out.UserSub), nil
}

func (s *Service) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := s.client.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(s.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	if err != nil {
		return wrap("ConfirmSignUp", err, fallbackConfirm)
	}
	return nil
}

func (s *Service) ResendConfirmationCode(ctx context.Context, email string) error {
	_, err := s.client.ResendConfirmationCode(ctx, &cip.ResendConfirmationCodeInput{
		ClientId: aws.String(s.clientID),
		Username: aws.String(email),
	})
	if err != nil {
		return wrap("ResendConfirmationCode", err, fallbackResend)
	}
	return nil
}

// SignIn runs the USER_PASSWORD_AUTH flow and reads the user out of the ID
// token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	defer logging.LogDuration(ctx, "cognito_sign_in")()
	out, err := s.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId: aws.String(s.clientID),
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, wrap("InitiateAuth", err, fallbackSignIn)
	}
	if out.ChallengeName == types.ChallengeNameTypeNewPasswordRequired {
		return nil, &ChallengeError{Challenge: ChallengeNewPass, Session: aws.ToString(out.Session)}
	}
	if out.AuthenticationResult == nil {
		return nil, &Error{Message: msgAuthFailed}
	}
	res := out.AuthenticationResult
	idTok := aws.ToString(res.IdToken)
	user, err := tokens.UnverifiedIdentity(idTok)
	if err != nil {
		return nil, &Error{Message: fallbackSignIn, Err: err}
	}
	if s.issuer != "" && user.Issuer != s.issuer {
		err := fmt.Errorf("id token issuer %q does not match user pool", user.Issuer)
		logging.ErrorLogger.Error("cognito sign in rejected", zap.Error(err))
		return nil, &Error{Message: fallbackSignIn, Err: err}
	}
	return &SignInResult{
		Tokens: Tokens{
			AccessToken:  aws.ToString(res.AccessToken),
			IDToken:      idTok,
			RefreshToken: aws.ToString(res.RefreshToken),
		},
		User: *user,
	}, nil
}

func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	_, err := s.client.ForgotPassword(ctx, &cip.ForgotPasswordInput{
		ClientId: aws.String(s.clientID),
		Username: aws.String(email),
	})
	if err != nil {
		return wrap("ForgotPassword", err, fallbackForgot)
	}
	return nil
}

func (s *Service) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	_, err := s.client.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
		ClientId:         aws.String(s.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
	})
	if err != nil {
		return wrap("ConfirmForgotPassword", err, fallbackReset)
	}
	return nil
}

// GetUserInfo resolves a Cognito access token to the user it belongs to.
func (s *Service) GetUserInfo(ctx context.Context, accessToken string) (*tokens.Identity, error) {
	out, err := s.client.GetUser(ctx, &cip.GetUserInput{AccessToken: aws.String(accessToken)})
	if err != nil {
		return nil, wrap("GetUser", err, fallbackGetUser)
	}
	id := &tokens.Identity{Sub: aws.ToString(out.Username)}
	for _, attr := range out.UserAttributes {
		switch aws.ToString(attr.Name) {
		case "sub":
			id.Sub = aws.ToString(attr.Value)
		case "email":
			id.Email = aws.ToString(attr.Value)
		case "name":
			id.Name = aws.ToString(attr.Value)
		}
	}
	return id, nil
}
