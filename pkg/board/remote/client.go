// Package remote talks to the desabafa HTTP API and its WebSocket. Client
// implements board.Backend; Events implements board.EventSource.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"desabafa/pkg/apperr"
	"desabafa/pkg/board"
	"desabafa/pkg/logger"
	"desabafa/pkg/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const userAgent = "desabafa-cli/1.0"

// Tokens is the credential pair held by a client.
type Tokens struct {
	Access    string    `json:"access_token" mapstructure:"access_token"`
	Refresh   string    `json:"refresh_token" mapstructure:"refresh_token"`
	ExpiresAt time.Time `json:"expires_at" mapstructure:"expires_at"`
}

func (t Tokens) Empty() bool { return t.Access == "" && t.Refresh == "" }

type Client struct {
	baseURL string
	http    *resty.Client
	log     *zap.Logger

	mu       sync.Mutex
	tokens   Tokens
	onTokens func(Tokens)
}

var _ board.Backend = (*Client)(nil)

func New(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &Client{baseURL: baseURL, log: logger.Named("remote")}

	c.http = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(2).
		SetRetryWaitTime(300 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// only reads are replayed; a write may already have landed
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() == http.StatusServiceUnavailable
		})

	c.http.OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
		c.log.Debug("http", zap.String("method", r.Request.Method),
			zap.String("url", r.Request.URL), zap.Int("status", r.StatusCode()))
		return nil
	})
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) SetTokens(t Tokens) {
	c.mu.Lock()
	c.tokens = t
	c.mu.Unlock()
}

func (c *Client) Tokens() Tokens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

// OnTokens is called every time the pair changes, including on logout.
func (c *Client) OnTokens(fn func(Tokens)) {
	c.mu.Lock()
	c.onTokens = fn
	c.mu.Unlock()
}

func (c *Client) storeTokens(t Tokens) {
	c.mu.Lock()
	c.tokens = t
	fn := c.onTokens
	c.mu.Unlock()
	if fn != nil {
		fn(t)
	}
}

// Adopt takes the tokens of a login or refresh response.
func (c *Client) Adopt(resp models.AuthResponse) {
	c.storeTokens(Tokens{
		Access:    resp.AccessToken,
		Refresh:   resp.RefreshToken,
		ExpiresAt: time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	})
}

// AdoptFragment reads the tokens from the fragment of the OAuth callback
// redirect, e.g. "access_token=...&refresh_token=...&expires_in=3600".
func (c *Client) AdoptFragment(fragment string) error {
	v, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return apperr.Validation("token", "Fragmento inválido")
	}
	if v.Get("access_token") == "" || v.Get("refresh_token") == "" {
		return apperr.Validation("token", "Fragmento sem tokens")
	}
	secs, _ := strconv.Atoi(v.Get("expires_in"))
	c.Adopt(models.AuthResponse{
		AccessToken:  v.Get("access_token"),
		RefreshToken: v.Get("refresh_token"),
		ExpiresIn:    secs,
	})
	return nil
}

// LoginURL is the page a browser opens to start the Google sign-in.
func (c *Client) LoginURL() string {
	return c.baseURL + "/auth/google"
}

type call struct {
	method string
	path   string
	query  url.Values
	body   any
	out    any
	// noRefresh marks calls that must not trigger a token refresh on 401
	noRefresh bool
}

func (c *Client) do(ctx context.Context, cl call) error {
	resp, err := c.send(ctx, cl)
	if err == nil && resp.StatusCode() == http.StatusUnauthorized && !cl.noRefresh && c.Tokens().Refresh != "" {
		if _, rerr := c.Refresh(ctx); rerr == nil {
			resp, err = c.send(ctx, cl)
		}
	}
	if err != nil {
		return apperr.Unavailable("Serviço indisponível").Wrap(err)
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}

func (c *Client) send(ctx context.Context, cl call) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx).SetError(&apperr.Error{})
	if tok := c.Tokens().Access; tok != "" {
		req.SetAuthToken(tok)
	}
	if cl.query != nil {
		req.SetQueryParamsFromValues(cl.query)
	}
	if cl.body != nil {
		req.SetBody(cl.body)
	}
	if cl.out != nil {
		req.SetResult(cl.out)
	}
	return req.Execute(cl.method, cl.path)
}

// decodeError turns the {"erro","codigo","campo"} body back into an
// *apperr.Error so callers can match it with errors.Is.
func decodeError(resp *resty.Response) error {
	if e, ok := resp.Error().(*apperr.Error); ok && e.Code != "" {
		e.Status = resp.StatusCode()
		return e
	}

	msg := strings.TrimSpace(string(resp.Body()))
	switch s := resp.StatusCode(); {
	case s == http.StatusUnauthorized:
		return apperr.Unauthorized(msg)
	case s == http.StatusForbidden:
		return apperr.Forbidden(msg)
	case s == http.StatusNotFound:
		return apperr.NotFound("Recurso")
	case s == http.StatusTooManyRequests:
		return apperr.RateLimited()
	case s >= 500:
		return apperr.Unavailable(fmt.Sprintf("Serviço respondeu %d", s))
	default:
		return apperr.Validation("", msg)
	}
}

func esc(id string) string { return url.PathEscape(id) }

// Auth

func (c *Client) Refresh(ctx context.Context) (models.AuthResponse, error) {
	var resp models.AuthResponse
	err := c.do(ctx, call{
		method:    http.MethodPost,
		path:      "/auth/refresh",
		body:      models.RefreshRequest{RefreshToken: c.Tokens().Refresh},
		out:       &resp,
		noRefresh: true,
	})
	if err != nil {
		if apperr.HasCode(err, apperr.CodeUnauthorized) {
			c.storeTokens(Tokens{})
		}
		return models.AuthResponse{}, err
	}
	c.Adopt(resp)
	return resp, nil
}

// Session restores the session from whatever tokens the client holds.
func (c *Client) Session(ctx context.Context) (models.AuthResponse, error) {
	tok := c.Tokens()
	req := c.http.R().SetContext(ctx).SetError(&apperr.Error{}).SetResult(&models.AuthResponse{})
	if tok.Access != "" {
		req.SetAuthToken(tok.Access)
	}
	if tok.Refresh != "" {
		req.SetCookie(&http.Cookie{Name: "refresh_token", Value: tok.Refresh})
	}
	resp, err := req.Get("/auth/session")
	if err != nil {
		return models.AuthResponse{}, apperr.Unavailable("Serviço indisponível").Wrap(err)
	}
	if resp.IsError() {
		return models.AuthResponse{}, decodeError(resp)
	}
	out := *resp.Result().(*models.AuthResponse)
	if out.RefreshToken != "" {
		c.Adopt(out)
	}
	return out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, call{
		method:    http.MethodPost,
		path:      "/auth/logout",
		body:      models.RefreshRequest{RefreshToken: c.Tokens().Refresh},
		noRefresh: true,
	})
	c.storeTokens(Tokens{})
	return err
}

func (c *Client) LogoutAll(ctx context.Context) error {
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/logout-all"}); err != nil {
		return err
	}
	c.storeTokens(Tokens{})
	return nil
}

func (c *Client) Sessions(ctx context.Context) ([]models.Session, error) {
	var out []models.Session
	err := c.do(ctx, call{method: http.MethodGet, path: "/auth/sessions", out: &out})
	return out, err
}

// Profile

func (c *Client) Me(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	err := c.do(ctx, call{method: http.MethodGet, path: "/perfil/me", out: &p})
	return p, err
}

func (c *Client) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.Profile, error) {
	var p models.Profile
	err := c.do(ctx, call{method: http.MethodPatch, path: "/perfil/me", body: upd, out: &p})
	return p, err
}

func (c *Client) Upgrade(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	err := c.do(ctx, call{method: http.MethodPost, path: "/perfil/me/premium", out: &p})
	return p, err
}

func (c *Client) PublicProfile(ctx context.Context, handle string) (models.PublicProfile, error) {
	var p models.PublicProfile
	err := c.do(ctx, call{method: http.MethodGet, path: "/perfil/" + esc(handle), out: &p})
	return p, err
}

// Posts

func (c *Client) Feed(ctx context.Context, f models.FeedFilter) ([]models.Post, error) {
	q := url.Values{}
	if f.Tipo != "" {
		q.Set("tipo", string(f.Tipo))
	}
	if f.Ordem != "" {
		q.Set("ordem", string(f.Ordem))
	}
	if f.Last24 {
		q.Set("janela", "24h")
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	var out []models.Post
	err := c.do(ctx, call{method: http.MethodGet, path: "/posts", query: q, out: &out})
	return out, err
}

func (c *Client) Post(ctx context.Context, id string) (models.Post, error) {
	var p models.Post
	err := c.do(ctx, call{method: http.MethodGet, path: "/posts/" + esc(id), out: &p})
	return p, err
}

func (c *Client) CreatePost(ctx context.Context, np models.NewPost) (models.Post, error) {
	var p models.Post
	err := c.do(ctx, call{method: http.MethodPost, path: "/posts", body: np, out: &p})
	return p, err
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: "/posts/" + esc(id)})
}

// Comments

func (c *Client) Comments(ctx context.Context, postID string, offset, limit int, order models.CommentOrder) (models.CommentPage, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	if order != "" {
		q.Set("ordem", string(order))
	}
	var page models.CommentPage
	err := c.do(ctx, call{method: http.MethodGet, path: "/posts/" + esc(postID) + "/comentarios", query: q, out: &page})
	return page, err
}

func (c *Client) CreateComment(ctx context.Context, postID string, nc models.NewComment) (models.Comment, error) {
	var out models.Comment
	err := c.do(ctx, call{method: http.MethodPost, path: "/posts/" + esc(postID) + "/comentarios", body: nc, out: &out})
	return out, err
}

func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: "/comentarios/" + esc(id)})
}

// Reactions

func (c *Client) ToggleReaction(ctx context.Context, kind board.TargetKind, id string) (models.ReactionResult, error) {
	var path string
	switch kind {
	case board.TargetPost:
		path = "/posts/" + esc(id) + "/reacao"
	case board.TargetComment:
		path = "/comentarios/" + esc(id) + "/reacao"
	default:
		return models.ReactionResult{}, apperr.Validation("tipo", "Alvo de reação inválido")
	}
	var res models.ReactionResult
	err := c.do(ctx, call{method: http.MethodPost, path: path, out: &res})
	return res, err
}

// Notifications

func (c *Client) Notifications(ctx context.Context, onlyUnread bool) ([]models.Notification, error) {
	q := url.Values{}
	if onlyUnread {
		q.Set("nao_lidas", "true")
	}
	var out []models.Notification
	err := c.do(ctx, call{method: http.MethodGet, path: "/notificacoes", query: q, out: &out})
	return out, err
}

func (c *Client) MarkRead(ctx context.Context, id int64) error {
	return c.do(ctx, call{method: http.MethodPost, path: "/notificacoes/" + strconv.FormatInt(id, 10) + "/lida"})
}

func (c *Client) MarkAllRead(ctx context.Context) (int, error) {
	var out struct {
		Marcadas int `json:"marcadas"`
	}
	err := c.do(ctx, call{method: http.MethodPost, path: "/notificacoes/lidas", out: &out})
	return out.Marcadas, err
}
