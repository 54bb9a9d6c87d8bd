package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs the Gherkin scenarios against a running API, for
// example JUNTAS_E2E_URL=http://localhost:8080/api after `juntas seed`.
func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("JUNTAS_E2E_URL")
	if baseURL == "" {
		t.Skip("JUNTAS_E2E_URL not set")
	}
	tc := NewTestContext(baseURL, os.Getenv("JUNTAS_E2E_ADMIN_EMAIL"), os.Getenv("JUNTAS_E2E_ADMIN_PASSWORD"))

	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return ctx, nil
			})
			RegisterSteps(sc, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
