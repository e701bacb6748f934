package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rewearapp/rewear-server/internal/domain"
	"github.com/rewearapp/rewear-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "signup",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signup",
		Summary:     "Register new member",
		Description: "Creates a member account, credits the signup bonus, and returns tokens.",
		Tags:        []string{"Authentication"},
	}, s.handleSignup)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Member login",
		Description: "Authenticates a member and returns access and refresh tokens",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for new tokens. The presented token is spent.",
		Tags:        []string{"Authentication"},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the session holding the given refresh token",
		Tags:        []string{"Authentication"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "logoutAll",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout-all",
		Summary:     "Logout everywhere",
		Description: "Revokes every session of the authenticated member",
		Tags:        []string{"Authentication"},
	}, s.handleLogoutAll)
}

// === DTOs ===

// SignupRequest is the request body for member registration.
type SignupRequest struct {
	Email       string `json:"email" validate:"required,email,max=254" doc:"Member email address"`
	Password    string `json:"password" validate:"required,min=8,max=1024" doc:"Member password"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100" doc:"Public display name"`
	FirstName   string `json:"first_name" validate:"omitempty,max=100" required:"false" doc:"First name"`
	LastName    string `json:"last_name" validate:"omitempty,max=100" required:"false" doc:"Last name"`
}

// SignupInput wraps the signup request with headers for Huma.
type SignupInput struct {
	Body          SignupRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// LoginRequest is the request body for member login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" doc:"Member email"`
	Password string `json:"password" validate:"required,max=1024" doc:"Member password"`
}

// LoginInput wraps the login request with headers for Huma.
type LoginInput struct {
	Body          LoginRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" doc:"Refresh token"`
}

// RefreshInput wraps the refresh request with headers for Huma.
type RefreshInput struct {
	Body          RefreshRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// LogoutRequest is the request body for logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" doc:"Refresh token of the session to revoke"`
}

// LogoutInput wraps the logout request for Huma.
type LogoutInput struct {
	Body LogoutRequest
}

// MemberResponse contains member information in API responses.
type MemberResponse struct {
	ID          string    `json:"id" doc:"Member ID"`
	Email       string    `json:"email" doc:"Member email"`
	DisplayName string    `json:"display_name" doc:"Display name"`
	FirstName   string    `json:"first_name,omitempty" doc:"First name"`
	LastName    string    `json:"last_name,omitempty" doc:"Last name"`
	Role        string    `json:"role" doc:"Member role"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation timestamp"`
	LastLoginAt time.Time `json:"last_login_at" doc:"Last login timestamp"`
	Banned      bool      `json:"banned,omitempty" doc:"Whether the member is banned"`
	BanReason   string    `json:"ban_reason,omitempty" doc:"Why the member was banned"`
}

// AuthResponse contains authentication tokens and member info.
type AuthResponse struct {
	AccessToken  string         `json:"access_token" doc:"PASETO access token"`
	RefreshToken string         `json:"refresh_token" doc:"Refresh token"`
	TokenType    string         `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresIn    int64          `json:"expires_in" doc:"Access token expiry in seconds"`
	Member       MemberResponse `json:"member" doc:"Authenticated member"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// TokenOutput wraps a bare token pair for Huma.
type TokenOutput struct {
	Body struct {
		AccessToken  string `json:"access_token" doc:"PASETO access token"`
		RefreshToken string `json:"refresh_token" doc:"Refresh token"`
		TokenType    string `json:"token_type" doc:"Token type (Bearer)"`
		ExpiresIn    int64  `json:"expires_in" doc:"Access token expiry in seconds"`
	}
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleSignup(ctx context.Context, input *SignupInput) (*AuthOutput, error) {
	if err := s.checkAuthRate(input.XForwardedFor, input.XRealIP); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	member, pair, err := s.services.Auth.Signup(ctx, service.SignupInput{
		Email:       input.Body.Email,
		Password:    input.Body.Password,
		DisplayName: input.Body.DisplayName,
		FirstName:   input.Body.FirstName,
		LastName:    input.Body.LastName,
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResponse(member, pair)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	if err := s.checkAuthRate(input.XForwardedFor, input.XRealIP); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	member, pair, err := s.services.Auth.Login(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResponse(member, pair)}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*TokenOutput, error) {
	if err := s.checkAuthRate(input.XForwardedFor, input.XRealIP); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	pair, err := s.services.Auth.Refresh(ctx, input.Body.RefreshToken)
	if err != nil {
		return nil, err
	}

	out := &TokenOutput{}
	out.Body.AccessToken = pair.AccessToken
	out.Body.RefreshToken = pair.RefreshToken
	out.Body.TokenType = "Bearer"
	out.Body.ExpiresIn = pair.ExpiresIn
	return out, nil
}

func (s *Server) handleLogout(ctx context.Context, input *LogoutInput) (*MessageOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	if err := s.services.Auth.Logout(ctx, input.Body.RefreshToken); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Logged out successfully"}}, nil
}

func (s *Server) handleLogoutAll(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	memberID, err := GetMemberID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Auth.LogoutAll(ctx, memberID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "All sessions revoked"}}, nil
}

// === Helpers ===

// checkAuthRate limits credential-guessing on the auth endpoints by client IP.
func (s *Server) checkAuthRate(xForwardedFor, xRealIP string) error {
	ip := clientIP(xForwardedFor, xRealIP, "")
	if ip == "" {
		// No forwarding headers; fall back to a shared bucket.
		ip = "direct"
	}
	if !s.authRateLimiter.Allow(ip) {
		s.logger.Warn("Auth rate limit exceeded", "ip", ip)
		return huma.Error429TooManyRequests("Too many requests. Please try again later.")
	}
	return nil
}

func mapAuthResponse(member *domain.Member, pair *service.TokenPair) AuthResponse {
	return AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn,
		Member:       mapMemberResponse(member),
	}
}

func mapMemberResponse(member *domain.Member) MemberResponse {
	return MemberResponse{
		ID:          member.ID,
		Email:       member.Email,
		DisplayName: member.DisplayName,
		FirstName:   member.FirstName,
		LastName:    member.LastName,
		Role:        string(member.Role),
		CreatedAt:   member.CreatedAt,
		LastLoginAt: member.LastLoginAt,
		Banned:      member.Banned,
		BanReason:   member.BanReason,
	}
}
