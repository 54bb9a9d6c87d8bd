package kafka

import (
	"math/rand/v2"

	audit "juntas/pkg/platform/audit"
)

// sampler thins out operations events before they reach Kafka. Compliance
// and security events are always kept.
type sampler struct {
	opsRate float64
	rand    func() float64
}

func newSampler(opsRate float64) *sampler {
	if opsRate < 0 {
		opsRate = 0
	}
	if opsRate > 1 {
		opsRate = 1
	}
	return &sampler{opsRate: opsRate, rand: rand.Float64}
}

func (s *sampler) keep(event audit.Event) bool {
	if event.Category != audit.CategoryOperations {
		return true
	}
	return s.rand() < s.opsRate //nolint:gosec // sampling doesn't need crypto rand
}
