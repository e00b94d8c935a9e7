package models

import (
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	HandleMinLen = 3
	HandleMaxLen = 30
	// HandleChangeCooldown applies to free plans after each handle change.
	HandleChangeCooldown = 30 * 24 * time.Hour
)

type Profile struct {
	ID                  string    `json:"id"`
	Apelido             string    `json:"apelido"`
	Email               string    `json:"email,omitempty"`
	Plano               Plan      `json:"plano"`
	AvatarURL           string    `json:"avatar_url"`
	MostrarApelido      bool      `json:"mostrar_apelido"`
	CreatedAt           time.Time `json:"created_at"`
	ProximaTrocaApelido time.Time `json:"proxima_troca_apelido"`
	Limites             Limits    `json:"limites"`
}

// PublicProfile is what other users may see.
type PublicProfile struct {
	Apelido   string    `json:"apelido"`
	AvatarURL string    `json:"avatar_url"`
	Plano     Plan      `json:"plano"`
	CreatedAt time.Time `json:"created_at"`
}

func (p Profile) Public() PublicProfile {
	return PublicProfile{Apelido: p.Apelido, AvatarURL: p.AvatarURL, Plano: p.Plano, CreatedAt: p.CreatedAt}
}

type ProfileUpdate struct {
	Apelido        *string `json:"apelido,omitempty"`
	MostrarApelido *bool   `json:"mostrar_apelido,omitempty"`
}

// DefaultHandle is the handle given to a profile created on first sign-in.
func DefaultHandle(userID string) string {
	id := strings.ReplaceAll(userID, "-", "")
	if len(id) > 6 {
		id = id[:6]
	}
	return "anonimo_" + id
}

// AvatarPlaceholder builds the generated avatar for a handle's initial.
func AvatarPlaceholder(handle string) string {
	initial := "?"
	if r, _ := utf8.DecodeRuneInString(handle); r != utf8.RuneError {
		initial = strings.ToUpper(string(r))
	}
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(initial) +
		"&background=0891b2&color=fff&size=128"
}

// ValidHandle checks length and charset. It returns a Portuguese reason when
// the handle is rejected.
func ValidHandle(handle string) (bool, string) {
	n := utf8.RuneCountInString(handle)
	if n < HandleMinLen {
		return false, "Apelido deve ter pelo menos 3 caracteres"
	}
	if n > HandleMaxLen {
		return false, "Apelido deve ter no máximo 30 caracteres"
	}
	for _, r := range handle {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			return false, "Apelido deve conter apenas letras, números, _ ou -"
		}
	}
	return true, ""
}
