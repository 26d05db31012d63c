package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Credential is the access/refresh token pair held for the signed in user.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry,omitempty"` // Access token expiry, zero when unknown
}

// NewCredential builds a credential, taking the expiry from the access
// token's exp claim when it is a JWT.
func NewCredential(access, refresh string) Credential {
	expiry, _ := ParseExpiry(access)
	return Credential{
		AccessToken:  access,
		RefreshToken: refresh,
		Expiry:       expiry,
	}
}

// IsZero reports whether the credential carries no tokens at all.
func (c Credential) IsZero() bool {
	return strings.TrimSpace(c.AccessToken) == "" && strings.TrimSpace(c.RefreshToken) == ""
}

// Expired reports whether the access token expires within leeway of now.
// Credentials with unknown expiry never expire locally; the server decides.
func (c Credential) Expired(now time.Time, leeway time.Duration) bool {
	if c.Expiry.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(c.Expiry)
}

func (c Credential) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       c.Expiry,
	}
}

// CredentialFromOAuth2 converts a token endpoint response into a credential.
// A response without a refresh token keeps previousRefresh.
func CredentialFromOAuth2(t *oauth2.Token, previousRefresh string) Credential {
	c := Credential{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
	if c.RefreshToken == "" {
		c.RefreshToken = previousRefresh
	}
	if exp, err := ParseExpiry(t.AccessToken); err == nil && !exp.IsZero() {
		c.Expiry = exp
	}
	return c
}

// ParseExpiry reads the exp claim of a JWT access token without verifying
// its signature. Opaque tokens yield a zero time and an error.
func ParseExpiry(accessToken string) (time.Time, error) {
	claims, err := parseUnverified(accessToken)
	if err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, err
	}
	return exp.Time, nil
}

// ParseSubject reads the sub claim of a JWT without verifying it.
func ParseSubject(rawToken string) (string, error) {
	claims, err := parseUnverified(rawToken)
	if err != nil {
		return "", err
	}
	return claims.GetSubject()
}

func parseUnverified(rawToken string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
