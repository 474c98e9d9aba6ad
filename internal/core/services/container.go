package services

import (
	portsrepo "github.com/finpulse/fin_health_app/internal/core/ports/repositories"
	portssvc "github.com/finpulse/fin_health_app/internal/core/ports/services"
	"github.com/finpulse/fin_health_app/internal/platform/config"
)

// NewServiceContainer wires the full service graph over the repository provider
// and the loaded scoring policy.
func NewServiceContainer(repos portsrepo.RepositoryProvider, policy config.ScoringPolicy) *portssvc.ServiceContainer {
	normalizer := NewNormalizerService()
	ratios := NewRatioService()
	detector := NewAnomalyService(policy)
	scorer := NewScorerService(policy)
	narrative := NewNarrativeService(policy)

	return &portssvc.ServiceContainer{
		Company: NewCompanyService(repos.Company),
		Scoring: NewScoringService(
			repos.Company,
			repos.HealthScore,
			repos.Anomaly,
			normalizer,
			ratios,
			detector,
			scorer,
			narrative,
		),
	}
}
