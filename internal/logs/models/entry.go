package models

import (
	"time"

	audit "juntas/pkg/platform/audit"
)

// Entry is one row of the Logs page.
type Entry struct {
	ID        string    `json:"id"`
	Categoria string    `json:"categoria"`
	Fecha     time.Time `json:"fecha"`
	UsuarioID int64     `json:"usuarioId,omitempty"`
	Accion    string    `json:"accion"`
	Recurso   string    `json:"recurso,omitempty"`
	Detalle   string    `json:"detalle,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Motivo    string    `json:"motivo,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
}

func FromEvent(e audit.Event) Entry {
	return Entry{
		ID:        e.ID.String(),
		Categoria: string(e.Category),
		Fecha:     e.Timestamp,
		UsuarioID: int64(e.UsuarioID),
		Accion:    e.Action,
		Recurso:   e.Subject,
		Detalle:   e.Detail,
		Decision:  e.Decision,
		Motivo:    e.Reason,
		IP:        e.IP,
		UserAgent: e.UserAgent,
		RequestID: e.RequestID,
	}
}

func FromEvents(events []audit.Event) []Entry {
	out := make([]Entry, len(events))
	for i, e := range events {
		out[i] = FromEvent(e)
	}
	return out
}

// ListResponse wraps a page of entries.
type ListResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// Frame is one websocket message. Type is "event" for a live entry,
// "backlog" for entries sent on connect and "dropped" when the client fell
// behind and missed Dropped events.
type Frame struct {
	Type    string `json:"type"`
	Entry   *Entry `json:"entry,omitempty"`
	Dropped int64  `json:"dropped,omitempty"`
}
