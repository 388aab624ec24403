// Package api is the thin typed client for the coaching backend's session
// endpoints, built on the authenticated request gateway.
package api

import (
	"context"
	"fmt"

	"github.com/stillwaterhq/stillwater/internal/session/domain"
	"github.com/stillwaterhq/stillwater/internal/session/gateway"
	"github.com/stillwaterhq/stillwater/internal/session/store"
)

type Client struct {
	gw     *gateway.Gateway
	tokens store.TokenStore
}

// New returns a client. The token store is the same one the gateway uses;
// the login flows below are the only writers of fresh pairs.
func New(gw *gateway.Gateway, tokens store.TokenStore) *Client {
	return &Client{gw: gw, tokens: tokens}
}

// CurrentUser fetches the principal the stored token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (domain.User, error) {
	var u domain.User
	if err := c.gw.Get(ctx, "/users/me", &u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// RegisterDayOneReminder issues the one-time day-one reminder registration.
func (c *Client) RegisterDayOneReminder(ctx context.Context) error {
	return c.gw.Post(ctx, "/notifications/day-one-reminder", nil, nil)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest carries the sign-up form fields.
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	ReferralSource string `json:"referralSource,omitempty"`
}

type socialRequest struct {
	Provider string `json:"provider"`
	IDToken  string `json:"idToken"`
}

// Login authenticates with email and password and persists the returned
// pair wholesale.
func (c *Client) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	return c.authenticate(ctx, "/auth/login", credentialsRequest{Email: email, Password: password})
}

// Register creates an account and persists the returned pair wholesale.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (domain.TokenPair, error) {
	return c.authenticate(ctx, "/auth/register", req)
}

// LoginWithProvider exchanges a social identity token (apple, google) for a
// session and persists the returned pair wholesale.
func (c *Client) LoginWithProvider(ctx context.Context, provider, idToken string) (domain.TokenPair, error) {
	return c.authenticate(ctx, "/auth/social", socialRequest{Provider: provider, IDToken: idToken})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (domain.TokenPair, error) {
	var pair domain.TokenPair
	if err := c.gw.Post(ctx, path, body, &pair); err != nil {
		return domain.TokenPair{}, err
	}
	if pair.IsZero() {
		return domain.TokenPair{}, fmt.Errorf("api: %s returned no tokens", path)
	}
	if err := c.tokens.SetPair(ctx, pair); err != nil {
		return domain.TokenPair{}, fmt.Errorf("api: persist tokens: %w", err)
	}
	return pair, nil
}
