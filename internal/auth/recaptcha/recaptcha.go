// Package recaptcha verifies reCAPTCHA v3 tokens sent with the login form.
package recaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	dErrors "juntas/pkg/domain-errors"
)

// Verifier checks a client token for the given remote IP.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Disabled accepts every token. Used when no secret is configured.
type Disabled struct{}

func (Disabled) Verify(context.Context, string, string) error { return nil }

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// HTTPVerifier posts tokens to the siteverify endpoint.
type HTTPVerifier struct {
	url      string
	secret   string
	action   string
	minScore float64
	client   *http.Client
}

func NewHTTPVerifier(verifyURL, secret, action string, minScore float64, client *http.Client) *HTTPVerifier {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPVerifier{
		url:      verifyURL,
		secret:   secret,
		action:   action,
		minScore: minScore,
		client:   client,
	}
}

// Verify fails with unauthorized when Google rejects the token, the action
// differs or the score is below the threshold. Transport problems are
// unavailable so the login page can tell the user to retry.
func (v *HTTPVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "falta la verificación reCAPTCHA")
	}
	form := url.Values{"secret": {v.secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "no se pudo verificar reCAPTCHA")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return dErrors.New(dErrors.CodeUnavailable, "no se pudo verificar reCAPTCHA")
	}

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "respuesta de reCAPTCHA inválida")
	}
	switch {
	case !result.Success:
		return dErrors.New(dErrors.CodeUnauthorized, "verificación reCAPTCHA fallida")
	case v.action != "" && result.Action != v.action:
		return dErrors.New(dErrors.CodeUnauthorized, "verificación reCAPTCHA fallida")
	case result.Score < v.minScore:
		return dErrors.New(dErrors.CodeUnauthorized, "verificación reCAPTCHA fallida")
	}
	return nil
}
