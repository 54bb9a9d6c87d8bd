package models

import (
	"net/http"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
)

const (
	MinPasswordLength = 8
	MaxFirmaBytes     = 512 << 10
)

// Usuario is a login identity. The password hash and signature bytes never
// leave the service layer in JSON.
type Usuario struct {
	ID           domain.UsuarioID `json:"id"`
	Nombre       string           `json:"nombre"`
	Email        string           `json:"email"`
	Documento    string           `json:"documento"`
	Rol          domain.Rol       `json:"rol"`
	PasswordHash string           `json:"-"`
	Firma        *Firma           `json:"-"`
	Activo       bool             `json:"activo"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func (u *Usuario) TieneFirma() bool { return u.Firma != nil && len(u.Firma.Data) > 0 }

// View is the JSON shape returned by the API.
type View struct {
	*Usuario
	TieneFirma bool `json:"tieneFirma"`
}

func (u *Usuario) View() View { return View{Usuario: u, TieneFirma: u.TieneFirma()} }

// Firma is a PNG or JPEG signature image embedded in issued certificates.
type Firma struct {
	Data []byte
	Mime string
}

// NewFirma sniffs the content type and rejects anything but PNG or JPEG.
func NewFirma(data []byte) (*Firma, error) {
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "la firma está vacía")
	}
	if len(data) > MaxFirmaBytes {
		return nil, dErrors.New(dErrors.CodeValidation, "la firma supera el tamaño máximo de 512 KB")
	}
	mime := http.DetectContentType(data)
	switch mime {
	case "image/png", "image/jpeg":
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "la firma debe ser una imagen PNG o JPEG")
	}
	return &Firma{Data: data, Mime: mime}, nil
}

// UsuarioRequest carries create and update input. Password is optional on
// update; Firma is set by the handler from the multipart upload.
type UsuarioRequest struct {
	Nombre    string `json:"nombre"`
	Email     string `json:"email"`
	Documento string `json:"documento"`
	Password  string `json:"password"`
	Rol       string `json:"rol"`
	Activo    *bool  `json:"activo"`
	Firma     *Firma `json:"-"`
}

func (r *UsuarioRequest) Normalize() {
	r.Nombre = strings.Join(strings.Fields(r.Nombre), " ")
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Documento = strings.TrimSpace(r.Documento)
	r.Rol = strings.TrimSpace(r.Rol)
}

// Validate checks field shape. requirePassword is true on create.
func (r *UsuarioRequest) Validate(requirePassword bool) (domain.Rol, error) {
	if r.Nombre == "" {
		return "", dErrors.New(dErrors.CodeValidation, "el nombre es requerido")
	}
	if err := ValidateEmail(r.Email); err != nil {
		return "", err
	}
	if err := ValidateDocumento(r.Documento); err != nil {
		return "", err
	}
	rol, err := domain.ParseRol(r.Rol)
	if err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "rol inválido")
	}
	if requirePassword || r.Password != "" {
		if err := ValidatePassword(r.Password); err != nil {
			return "", err
		}
	}
	return rol, nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return dErrors.New(dErrors.CodeValidation, "el correo es requerido")
	}
	if !govalidator.IsEmail(email) {
		return dErrors.New(dErrors.CodeValidation, "el correo no es válido")
	}
	return nil
}

func ValidateDocumento(documento string) error {
	if documento == "" {
		return dErrors.New(dErrors.CodeValidation, "el documento es requerido")
	}
	if len(documento) < 5 || len(documento) > 15 || !govalidator.IsNumeric(documento) {
		return dErrors.New(dErrors.CodeValidation, "el documento debe tener entre 5 y 15 dígitos")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "la contraseña debe tener al menos 8 caracteres")
	}
	if len(password) > 72 {
		return dErrors.New(dErrors.CodeValidation, "la contraseña no puede superar 72 caracteres")
	}
	return nil
}

type Filter struct {
	Rol    domain.Rol
	Activo *bool
}
