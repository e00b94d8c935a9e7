package handlers

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"desabafa/pkg/middleware"
	"desabafa/pkg/models"
	"desabafa/pkg/services"

	"github.com/gofiber/fiber/v2"
)

const refreshCookie = "refresh_token"

type AuthHandler struct {
	auth        services.AuthService
	frontendURL string
	refreshTTL  time.Duration
}

// NewAuth builds the auth routes. With a frontendURL the OAuth callback
// redirects there carrying the tokens in the fragment; without one it
// answers with JSON.
func NewAuth(auth services.AuthService, frontendURL string, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, frontendURL: frontendURL, refreshTTL: refreshTTL}
}

func (h *AuthHandler) Register(r fiber.Router, g Guards) {
	a := r.Group("/auth")
	a.Get("/google", h.Google)
	a.Get("/google/callback", h.Callback)
	a.Post("/refresh", h.Refresh)
	a.Get("/session", h.Session)
	a.Post("/logout", g.Optional, h.Logout)
	a.Post("/logout-all", g.Auth, h.LogoutAll)
	a.Get("/sessions", g.Auth, h.Sessions)
}

func (h *AuthHandler) Google(c *fiber.Ctx) error {
	target, err := h.auth.LoginURL(c.UserContext())
	if err != nil {
		return err
	}
	return c.Redirect(target, fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	if c.Query("error") != "" {
		return c.Status(401).JSON(fiber.Map{"erro": "Login cancelado", "codigo": "UNAUTHORIZED"})
	}

	resp, err := h.auth.Callback(c.UserContext(), c.Query("state"), c.Query("code"), c.Get("User-Agent"), c.IP())
	if err != nil {
		return err
	}
	h.setRefreshCookie(c, resp.RefreshToken)

	if h.frontendURL == "" {
		return c.JSON(resp)
	}
	frag := url.Values{}
	frag.Set("access_token", resp.AccessToken)
	frag.Set("refresh_token", resp.RefreshToken)
	frag.Set("expires_in", strconv.Itoa(resp.ExpiresIn))
	return c.Redirect(strings.TrimRight(h.frontendURL, "/")+"/auth/callback#"+frag.Encode(), fiber.StatusFound)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	resp, err := h.auth.Refresh(c.UserContext(), h.refreshToken(c))
	if err != nil {
		h.clearRefreshCookie(c)
		return err
	}
	h.setRefreshCookie(c, resp.RefreshToken)
	return c.JSON(resp)
}

func (h *AuthHandler) Session(c *fiber.Ctx) error {
	access := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	resp, err := h.auth.Session(c.UserContext(), access, h.refreshToken(c))
	if err != nil {
		return err
	}
	if resp.RefreshToken != "" {
		h.setRefreshCookie(c, resp.RefreshToken)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), h.refreshToken(c), middleware.UserID(c)); err != nil {
		return err
	}
	h.clearRefreshCookie(c)
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	if err := h.auth.LogoutAll(c.UserContext(), middleware.UserID(c)); err != nil {
		return err
	}
	h.clearRefreshCookie(c)
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *AuthHandler) Sessions(c *fiber.Ctx) error {
	list, err := h.auth.Sessions(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// refreshToken accepts the body or the cookie.
func (h *AuthHandler) refreshToken(c *fiber.Ctx) string {
	var req models.RefreshRequest
	_ = c.BodyParser(&req)
	if req.RefreshToken == "" {
		req.RefreshToken = c.Cookies(refreshCookie)
	}
	return req.RefreshToken
}

func (h *AuthHandler) secure() bool {
	return strings.HasPrefix(h.frontendURL, "https://")
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, token string) {
	sameSite := "Lax"
	if h.secure() {
		sameSite = "None"
	}
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    token,
		Expires:  time.Now().Add(h.refreshTTL),
		HTTPOnly: true,
		Secure:   h.secure(),
		SameSite: sameSite,
		Path:     "/auth",
	})
}

func (h *AuthHandler) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		HTTPOnly: true,
		Secure:   h.secure(),
		Path:     "/auth",
	})
}
