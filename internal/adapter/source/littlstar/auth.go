package littlstar

import (
	"context"
	"net/http"

	"github.com/littlstar/lstar/internal/domain"
)

// Login exchanges a username or email and password for an API token
func (c *Client) Login(ctx context.Context, login, password string) (*domain.AuthResult, error) {
	dto, _, err := call[UserDTO](ctx, c, request{
		op:     "login",
		method: http.MethodPost,
		path:   "/login",
		body:   loginRequest{Login: login, Password: password},
	})
	if err != nil {
		// The service answers bad credentials with 422
		if domain.IsKind(err, domain.KindValidation) {
			return nil, domain.AuthError("login", domain.ErrAuthFailed)
		}
		return nil, err
	}
	return authResult(&dto, "login")
}

// Register creates an account and returns its API token
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	dto, _, err := call[UserDTO](ctx, c, request{
		op:     "register",
		method: http.MethodPost,
		path:   "/register",
		body: registerRequest{
			Username:             reg.Username,
			Email:                reg.Email,
			Password:             reg.Password,
			PasswordConfirmation: reg.PasswordConfirmation,
		},
	})
	if err != nil {
		return nil, err
	}
	return authResult(&dto, "register")
}

// Me returns the user a token belongs to
func (c *Client) Me(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.AuthError("me", domain.ErrNotLoggedIn)
	}
	dto, _, err := call[UserDTO](ctx, c, request{op: "me", method: http.MethodGet, path: "/me", token: token})
	if err != nil {
		return nil, err
	}
	return mapUser(&dto), nil
}

func authResult(dto *UserDTO, op string) (*domain.AuthResult, error) {
	if dto.APIKey == "" {
		return nil, domain.NetworkError(op, domain.ErrMalformedResponse)
	}
	return &domain.AuthResult{Token: dto.APIKey, User: mapUser(dto)}, nil
}
