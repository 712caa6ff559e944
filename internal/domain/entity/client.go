package entity

import "time"

// Grant types supported by the token issuer.
const (
	GrantPassword     = "password"
	GrantRefreshToken = "refresh_token"
)

// Client is an application registration allowed to ask the issuer for
// tokens. Clients are immutable reference data: they are seeded from
// configuration and only ever looked up by ClientID.
type Client struct {
	ClientID     string    // Public identifier presented on every grant request.
	ClientSecret string    // Shared secret; validated with an exact match at issuance time.
	Grants       []string  // Grant types this client may use, e.g. {"password", "refresh_token"}.
	RedirectURIs []string  // Registered redirect URIs; unused by the password flow but part of the registration record.
	CreatedAt    time.Time // Timestamp of when this registration was created.
}

// AllowsGrant reports whether the client is registered for the given grant type.
func (c *Client) AllowsGrant(grantType string) bool {
	for _, g := range c.Grants {
		if g == grantType {
			return true
		}
	}

	return false
}
