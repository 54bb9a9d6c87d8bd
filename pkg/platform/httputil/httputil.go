// Package httputil holds the JSON response helpers shared by all handlers.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "juntas/pkg/domain-errors"
	"juntas/pkg/requestcontext"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the envelope returned on every non-2xx JSON response.
// The SPA reads Message and falls back to the status text when it is absent.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into a status code and JSON envelope. Internal
// errors never expose their cause.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{
		Error:   string(dErrors.CodeInternal),
		Message: "Error interno del servidor",
	}
	if de, ok := dErrors.As(err); ok {
		status = dErrors.ToHTTPStatus(de.Code)
		body.Error = string(de.Code)
		if status != http.StatusInternalServerError {
			body.Message = de.Message
		}
	}
	WriteJSON(w, status, body)
}

// Fail logs err and writes it. Client errors log at warn, everything that
// maps to a 5xx logs at error.
func Fail(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error, msg string) {
	status := http.StatusInternalServerError
	if de, ok := dErrors.As(err); ok {
		status = dErrors.ToHTTPStatus(de.Code)
	}
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "error", err}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, msg, attrs...)
	} else {
		logger.WarnContext(ctx, msg, attrs...)
	}
	WriteError(w, err)
}

// DecodeJSON reads a bounded JSON body into v and rejects unknown trailing data.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "el cuerpo de la solicitud está vacío")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "cuerpo de la solicitud inválido")
	}
	return nil
}

// WriteAttachment streams a binary body as a download.
func WriteAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
