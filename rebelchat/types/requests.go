package types

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Invalid email address"`
	Password string `json:"password" validate:"min=8" msg:"Password must be at least 8 characters"`
	Name     string `json:"name" validate:"min=1" msg:"Name is required"`
}

type ConfirmSignUpRequest struct {
	Email            string `json:"email" validate:"required,email" msg:"Invalid email address"`
	ConfirmationCode string `json:"confirmationCode" validate:"len=6" msg:"Confirmation code must be 6 digits"`
}

type ResendCodeRequest struct {
	Email string `json:"email" validate:"required,email" msg:"Invalid email address"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Invalid email address"`
	Password string `json:"password" validate:"min=1" msg:"Password is required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" msg:"Invalid email address"`
}

type ResetPasswordRequest struct {
	Email            string `json:"email" validate:"required,email" msg:"Invalid email address"`
	ConfirmationCode string `json:"confirmationCode" validate:"len=6" msg:"Confirmation code must be 6 digits"`
	NewPassword      string `json:"newPassword" validate:"min=8" msg:"Password must be at least 8 characters"`
}

// ChatRequest is the body of POST /api/chat and /api/lex/text, and one
// websocket frame (which may also carry the app token).
type ChatRequest struct {
	Message   string `json:"message" validate:"min=1" msg:"Message cannot be empty"`
	SessionID string `json:"sessionId,omitempty"`
	Token     string `json:"token,omitempty"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SignUpResponse struct {
	Message string `json:"message"`
	UserSub string `json:"userSub"`
}

type UserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type CognitoTokens struct {
	AccessToken  string `json:"accessToken"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

type SignInResponse struct {
	Token         string        `json:"token"`
	User          UserInfo      `json:"user"`
	CognitoTokens CognitoTokens `json:"cognitoTokens"`
}

// ChallengeResponse is sent with 401 when Cognito wants another step.
type ChallengeResponse struct {
	Error     string `json:"error"`
	Challenge string `json:"challenge"`
	Session   string `json:"session"`
}

type MeUser struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"name"`
	LastLogin string  `json:"lastLogin"`
}

type MeResponse struct {
	User MeUser `json:"user"`
}
