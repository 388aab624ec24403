package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stillwaterhq/stillwater/internal/session/domain"
)

// expiryLeeway refreshes slightly before the access token's actual expiry so
// a request issued at the boundary does not race the clock.
const expiryLeeway = 30 * time.Second

// refreshRequest / refreshResponse are the wire shapes of the token-refresh
// endpoint. Any non-2xx from it is unrecoverable.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// refresh exchanges the stored refresh token for a new pair. Concurrent
// callers share one in-flight exchange; everyone gets the single resulting
// pair. staleAccess is the access token that just failed, so a caller
// arriving after someone else already refreshed reuses the stored pair
// instead of burning another exchange. On any failure the stored pair is
// cleared and ErrAuthFailed is returned.
func (g *Gateway) refresh(ctx context.Context, staleAccess string) (domain.TokenPair, error) {
	v, err, _ := g.refreshGroup.Do("refresh", func() (any, error) {
		return g.doRefresh(ctx, staleAccess)
	})
	if err != nil {
		return domain.TokenPair{}, err
	}
	return v.(domain.TokenPair), nil
}

func (g *Gateway) doRefresh(ctx context.Context, staleAccess string) (domain.TokenPair, error) {
	pair, err := g.tokens.Pair(ctx)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("gateway: read tokens: %w", err)
	}
	if pair.AccessToken != staleAccess && pair.AccessToken != "" {
		// Another caller already rotated the pair.
		return pair, nil
	}
	if pair.RefreshToken == "" {
		g.clearAuth(ctx)
		return domain.TokenPair{}, ErrAuthFailed
	}

	if !g.refreshLimiter.Allow() {
		g.logger.Warn("token refresh rate limit exhausted")
		g.clearAuth(ctx)
		return domain.TokenPair{}, ErrAuthFailed
	}

	fresh, err := g.exchange(ctx, pair.RefreshToken)
	if err != nil {
		g.logger.Info("refresh exchange failed", "error", err)
		g.clearAuth(ctx)
		return domain.TokenPair{}, ErrAuthFailed
	}

	// If the session was logged out (or another writer replaced the pair)
	// while the exchange was in flight, discard the result rather than
	// resurrecting a cleared session.
	current, err := g.tokens.Pair(ctx)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("gateway: read tokens: %w", err)
	}
	if current.RefreshToken != pair.RefreshToken {
		return domain.TokenPair{}, ErrAuthFailed
	}

	if err := g.tokens.SetPair(ctx, fresh); err != nil {
		return domain.TokenPair{}, fmt.Errorf("gateway: persist refreshed tokens: %w", err)
	}

	g.logger.Debug("access token refreshed")
	return fresh, nil
}

// exchange performs the actual POST /auth/refresh call.
func (g *Gateway) exchange(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	resp, err := g.attempt(ctx, "POST", "/auth/refresh", mustMarshal(refreshRequest{RefreshToken: refreshToken}), "")
	if err != nil {
		return domain.TokenPair{}, err
	}

	var wire refreshResponse
	if err := decodeJSON(resp, &wire); err != nil {
		return domain.TokenPair{}, err
	}
	if wire.AccessToken == "" || wire.RefreshToken == "" {
		return domain.TokenPair{}, fmt.Errorf("gateway: refresh response missing tokens")
	}
	return domain.TokenPair{AccessToken: wire.AccessToken, RefreshToken: wire.RefreshToken}, nil
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err) // static wire shapes cannot fail to marshal
	}
	return b
}

// accessTokenExpired peeks at the token's exp claim without verifying the
// signature; verification is the server's job. Opaque or claimless tokens
// report false and get settled by the 401 path instead.
func accessTokenExpired(token string) bool {
	claims := jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return time.Until(claims.ExpiresAt.Time) < expiryLeeway
}
