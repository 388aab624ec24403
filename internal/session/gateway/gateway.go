// Package gateway is the authenticated request gateway every data-fetching
// call goes through. It attaches the stored bearer token, recovers from 401s
// with a single shared refresh-and-replay, and normalizes error payloads
// into a stable shape for callers.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/stillwaterhq/stillwater/internal/session/store"
	"github.com/stillwaterhq/stillwater/pkg/idx"
	"github.com/stillwaterhq/stillwater/pkg/slogx"
)

const (
	// defaultTimeout applies per physical attempt: the original request and
	// the replay each get their own budget.
	defaultTimeout = 15 * time.Second

	// refreshLimitInterval / refreshLimitBurst cap refresh exchanges so a
	// dead refresh endpoint cannot be hammered by serial 401 storms.
	refreshLimitInterval = 30 * time.Second
	refreshLimitBurst    = 5
)

type Config struct {
	BaseURL string
	Tokens  store.TokenStore

	// HTTPClient's timeout bounds each physical attempt. Defaults to 15s.
	HTTPClient *http.Client

	Logger *slog.Logger

	// OnAuthFailure is invoked once per token-clearing failure, after the
	// stored pair has been deleted. The session coordinator hooks its logout
	// cascade here.
	OnAuthFailure func()
}

type Gateway struct {
	baseURL       string
	tokens        store.TokenStore
	httpClient    *http.Client
	logger        *slog.Logger
	onAuthFailure func()

	// All concurrent 401s share one refresh exchange through this group;
	// callers queue behind the in-flight call instead of racing their own.
	refreshGroup   singleflight.Group
	refreshLimiter *rate.Limiter
}

func New(cfg Config) *Gateway {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Gateway{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		tokens:         cfg.Tokens,
		httpClient:     httpClient,
		logger:         slogx.Component(cfg.Logger, "gateway"),
		onAuthFailure:  cfg.OnAuthFailure,
		refreshLimiter: rate.NewLimiter(rate.Every(refreshLimitInterval), refreshLimitBurst),
	}
}

// SetOnAuthFailure installs the auth-failure hook after construction. The
// coordinator is built on top of the gateway's API client, so the hook can
// only be wired once both exist. Must be called before serving requests.
func (g *Gateway) SetOnAuthFailure(fn func()) {
	g.onAuthFailure = fn
}

// Do sends a JSON request and decodes the JSON response into out (skipped
// when out is nil). The body, when non-nil, is marshaled once so the request
// can be replayed after a token refresh.
//
// Callers see: nil on 2xx, *NetworkError on transport failure, ErrAuthFailed
// when credentials are unrecoverable, *APIError for any other non-2xx.
// A recovered 401 is invisible; the replayed response is returned as if it
// were the first.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: marshal request: %w", err)
		}
	}

	pair, err := g.tokens.Pair(ctx)
	if err != nil {
		return fmt.Errorf("gateway: read tokens: %w", err)
	}

	token := pair.AccessToken
	if token != "" && pair.RefreshToken != "" && accessTokenExpired(token) {
		// The access token is already dead by its own exp claim; refresh up
		// front instead of burning an attempt on a guaranteed 401.
		fresh, err := g.refresh(ctx, token)
		if err != nil {
			return err
		}
		token = fresh.AccessToken
	}

	resp, err := g.attempt(ctx, method, path, payload, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)

		// refresh reads the stored refresh token itself: it may already have
		// been rotated by another caller's in-flight exchange.
		fresh, err := g.refresh(ctx, token)
		if err != nil {
			return err
		}

		resp, err = g.attempt(ctx, method, path, payload, fresh.AccessToken)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			// The freshly issued token was rejected too. Surface the auth
			// failure rather than looping.
			drain(resp)
			g.clearAuth(ctx)
			return ErrAuthFailed
		}
	}

	return decodeJSON(resp, out)
}

// Get issues an authenticated GET.
func (g *Gateway) Get(ctx context.Context, path string, out any) error {
	return g.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues an authenticated POST with a JSON body.
func (g *Gateway) Post(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, http.MethodPost, path, body, out)
}

// attempt performs one physical request. Each attempt gets its own request
// id and the full client timeout budget.
func (g *Gateway) attempt(ctx context.Context, method, path string, payload []byte, token string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	reqID := idx.New().String()
	ctx = slogx.WithRequestID(ctx, reqID)

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("gateway: create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		slogx.FromContext(ctx).Debug("request failed", "method", method, "path", path, "error", err)
		return nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	return resp, nil
}

// clearAuth deletes the stored pair and fires the auth-failure hook.
func (g *Gateway) clearAuth(ctx context.Context) {
	if err := g.tokens.Clear(ctx); err != nil {
		g.logger.Error("failed to clear tokens", "error", err)
	}
	if g.onAuthFailure != nil {
		g.onAuthFailure()
	}
}

// decodeJSON reads the body once, normalizes error responses, and decodes a
// success into out.
func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gateway: read response: %w", err)
	}

	if err := parseErrorResponse(resp, bodyBytes); err != nil {
		return err
	}

	if out == nil || len(bodyBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
