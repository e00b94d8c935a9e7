package models

import "time"

type User struct {
	ID        string    `json:"id"`
	GoogleSub string    `json:"-"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresIn    int     `json:"expires_in"`
	User         User    `json:"user"`
	Profile      Profile `json:"perfil"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type Session struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	UserAgent string    `json:"user_agent"`
	IP        string    `json:"ip"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Session event names delivered on the auth.session channel.
const (
	EventInitialSession = "INITIAL_SESSION"
	EventSignedIn       = "SIGNED_IN"
	EventSignedOut      = "SIGNED_OUT"
	EventTokenRefreshed = "TOKEN_REFRESHED"
	EventUserUpdated    = "USER_UPDATED"
)

// SessionEvent is what a client sees when its authentication state changes.
// UserID is empty when there is no session.
type SessionEvent struct {
	Event  string `json:"event"`
	UserID string `json:"user_id,omitempty"`
}

func (e SessionEvent) SignedOut() bool {
	return e.Event == EventSignedOut || e.UserID == ""
}
