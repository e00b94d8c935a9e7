package services

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// Identity is what the OAuth provider tells us about the signed-in account.
type Identity struct {
	Subject string
	Email   string
}

type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

type googleProvider struct {
	conf *oauth2.Config
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) IdentityProvider {
	return &googleProvider{conf: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email"},
		Endpoint:     google.Endpoint,
	}}
}

func (g *googleProvider) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *googleProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("troca de código: %w", err)
	}

	resp, err := g.conf.Client(ctx, tok).Get(googleUserInfoURL)
	if err != nil {
		return Identity{}, fmt.Errorf("userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return Identity{}, fmt.Errorf("userinfo: status %d", resp.StatusCode)
	}

	var info struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Identity{}, fmt.Errorf("userinfo: %w", err)
	}
	if info.Sub == "" {
		return Identity{}, fmt.Errorf("userinfo sem sub")
	}
	return Identity{Subject: info.Sub, Email: info.Email}, nil
}
