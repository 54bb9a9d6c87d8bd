package e2e

import (
	"github.com/cucumber/godog"

	"juntas/e2e/steps/auth"
	"juntas/e2e/steps/common"
	"juntas/e2e/steps/juntas"
)

// RegisterSteps wires every step package against the shared context. Each
// package declares the slice of TestContext it needs.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	auth.RegisterSteps(ctx, tc)
	juntas.RegisterSteps(ctx, tc)
}
