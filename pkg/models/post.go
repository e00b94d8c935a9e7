package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"desabafa/pkg/apperr"
)

type Category string

const (
	CategoryDesabafo  Category = "desabafo"
	CategoryConfissao Category = "confissao"
	CategoryFofoca    Category = "fofoca"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryDesabafo, CategoryConfissao, CategoryFofoca:
		return true
	}
	return false
}

const (
	PostStatusActive  = "ativo"
	PostStatusRemoved = "removido"

	PostMinLen    = 10
	PostMaxLen    = 50000
	CommentMinLen = 5
	CommentMaxLen = 1000
)

type Post struct {
	ID               string    `json:"id"`
	AutorID          *string   `json:"autor_id"`
	AutorApelido     string    `json:"autor_apelido,omitempty"`
	Tipo             Category  `json:"tipo"`
	Conteudo         string    `json:"conteudo"`
	CreatedAt        time.Time `json:"created_at"`
	TotalComentarios int       `json:"total_comentarios"`
	TotalReacoes     int       `json:"total_reacoes"`
	EmAlta           bool      `json:"em_alta"`
	Anonimo          bool      `json:"anonimo"`
	JaCurtiu         bool      `json:"ja_curtiu"`
	Status           string    `json:"status"`
}

// NewPost is the create request. A nil Anonimo falls back to the author's
// visibility preference.
type NewPost struct {
	Tipo     Category `json:"tipo"`
	Conteudo string   `json:"conteudo"`
	Anonimo  *bool    `json:"anonimo,omitempty"`
}

func (p *NewPost) Normalize() {
	p.Conteudo = strings.TrimSpace(p.Conteudo)
}

func (p NewPost) Validate() error {
	if !p.Tipo.Valid() {
		return apperr.Validation("tipo", "Tipo deve ser desabafo, confissao ou fofoca")
	}
	return checkLength("conteudo", p.Conteudo, PostMinLen, PostMaxLen, "O post")
}

type FeedOrder string

const (
	FeedRecent   FeedOrder = "recentes"
	FeedTrending FeedOrder = "em_alta"
)

type FeedFilter struct {
	Tipo   Category
	Ordem  FeedOrder
	Last24 bool
	Limit  int
}

type Comment struct {
	ID           string    `json:"id"`
	PostID       string    `json:"post_id"`
	AutorID      *string   `json:"autor_id"`
	AutorApelido string    `json:"autor_apelido,omitempty"`
	ParentID     *string   `json:"parent_id"`
	Conteudo     string    `json:"conteudo"`
	CreatedAt    time.Time `json:"created_at"`
	Deleted      bool      `json:"deleted,omitempty"`
	TotalReacoes int       `json:"total_reacoes"`
	JaCurtiu     bool      `json:"ja_curtiu"`
}

// IsRoot is true for top-level comments, the only ones that accept replies.
func (c Comment) IsRoot() bool {
	return c.ParentID == nil
}

type NewComment struct {
	Conteudo string  `json:"conteudo"`
	ParentID *string `json:"parent_id,omitempty"`
	Anonimo  *bool   `json:"anonimo,omitempty"`
}

func (c *NewComment) Normalize() {
	c.Conteudo = strings.TrimSpace(c.Conteudo)
	if c.ParentID != nil && *c.ParentID == "" {
		c.ParentID = nil
	}
}

func (c NewComment) Validate() error {
	return checkLength("conteudo", c.Conteudo, CommentMinLen, CommentMaxLen, "O comentário")
}

type CommentOrder string

const (
	OrderAsc  CommentOrder = "asc"
	OrderDesc CommentOrder = "desc"
)

func ParseCommentOrder(s string) CommentOrder {
	if CommentOrder(s) == OrderDesc {
		return OrderDesc
	}
	return OrderAsc
}

type CommentPage struct {
	Comentarios []Comment `json:"comentarios"`
	Total       int       `json:"total"`
}

type ReactionResult struct {
	Liked bool `json:"liked"`
	Total int  `json:"total"`
}

// Anonymous resolves an optional anonymity flag against the author's
// preference to show their handle.
func Anonymous(flag *bool, showHandle bool) bool {
	if flag != nil {
		return *flag
	}
	return !showHandle
}

func checkLength(field, s string, minLen, maxLen int, label string) error {
	n := utf8.RuneCountInString(s)
	if n < minLen {
		return apperr.Validation(field, label+" é muito curto")
	}
	if n > maxLen {
		return apperr.Validation(field, label+" é muito longo")
	}
	return nil
}
