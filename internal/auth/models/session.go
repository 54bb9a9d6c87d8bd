package models

import (
	"time"

	"juntas/pkg/domain"
)

// Session is a server-side login session referenced by the session cookie.
type Session struct {
	ID          domain.SessionID `json:"id"`
	UsuarioID   domain.UsuarioID `json:"usuarioId"`
	Rol         domain.Rol       `json:"rol"`
	Nombre      string           `json:"nombre"`
	Email       string           `json:"email"`
	Dispositivo string           `json:"dispositivo,omitempty"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	IP          string           `json:"ip,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	ExpiresAt   time.Time        `json:"expiresAt"`
}

// IsExpired reports whether the session is no longer valid at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TTL returns the remaining lifetime at now, never negative.
func (s *Session) TTL(now time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// SessionView is returned by login and verify.
type SessionView struct {
	Autenticado bool             `json:"autenticado"`
	UsuarioID   domain.UsuarioID `json:"usuarioId,omitempty"`
	Nombre      string           `json:"nombre,omitempty"`
	Email       string           `json:"email,omitempty"`
	Rol         domain.Rol       `json:"rol,omitempty"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty"`
}

func (s *Session) View() SessionView {
	exp := s.ExpiresAt
	return SessionView{
		Autenticado: true,
		UsuarioID:   s.UsuarioID,
		Nombre:      s.Nombre,
		Email:       s.Email,
		Rol:         s.Rol,
		ExpiresAt:   &exp,
	}
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// PasswordReset is a row of the single-use reset token ledger.
type PasswordReset struct {
	JTI       string
	UsuarioID domain.UsuarioID
	ExpiresAt time.Time
	UsedAt    *time.Time
}
