package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	GetLastResponseStatus() int
	GetAdminCredentials() (string, string)
}

// RegisterSteps registers authentication-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	ctx.Step(`^I am logged in as the administrator$`, steps.loginAsAdmin)
	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, steps.login)
	ctx.Step(`^I fail to log in as "([^"]*)" (\d+) times$`, steps.failLogin)
	ctx.Step(`^I verify my session$`, steps.verify)
	ctx.Step(`^I log out$`, steps.logout)
}

type authSteps struct {
	tc TestContext
}

func (s *authSteps) login(ctx context.Context, email, password string) error {
	return s.tc.POST("/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (s *authSteps) loginAsAdmin(ctx context.Context) error {
	email, password := s.tc.GetAdminCredentials()
	if email == "" {
		return godog.ErrPending
	}
	if err := s.login(ctx, email, password); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != http.StatusOK {
		return fmt.Errorf("administrator login failed with status %d", status)
	}
	return nil
}

func (s *authSteps) failLogin(ctx context.Context, email string, times int) error {
	for i := 0; i < times; i++ {
		if err := s.login(ctx, email, "contraseña-equivocada"); err != nil {
			return err
		}
		if status := s.tc.GetLastResponseStatus(); status != http.StatusUnauthorized {
			return fmt.Errorf("attempt %d: expected 401, got %d", i+1, status)
		}
	}
	return nil
}

func (s *authSteps) verify(ctx context.Context) error {
	return s.tc.GET("/auth/verify", nil)
}

func (s *authSteps) logout(ctx context.Context) error {
	return s.tc.POST("/auth/logout", nil)
}
