package models

import "time"

type NotificationKind string

const (
	NotifyReply    NotificationKind = "resposta"
	NotifyReaction NotificationKind = "reacao"
	NotifyAlert    NotificationKind = "alerta"
)

type Notification struct {
	ID        int64            `json:"id"`
	UserID    string           `json:"-"`
	Tipo      NotificationKind `json:"tipo"`
	Mensagem  string           `json:"mensagem"`
	Link      string           `json:"link,omitempty"`
	Lida      bool             `json:"lida"`
	CreatedAt time.Time        `json:"created_at"`
}
