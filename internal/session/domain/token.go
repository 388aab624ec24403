package domain

// TokenPair holds the opaque bearer credentials for the current session: the
// short-lived access token presented on API requests and the longer-lived
// refresh token exchanged for a new pair when the access token dies.
//
// A pair is always written wholesale. Partial updates are not representable;
// stores persist or clear both fields together.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// IsZero reports whether no credentials are stored.
func (p TokenPair) IsZero() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}
