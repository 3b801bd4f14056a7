// Package risk classifies questionnaire submissions into a risk level and
// stamps the result on the user profile.
package risk

import (
	"context"

	"github.com/wealthdesk/wealthdesk/internal/domain"
)

// LocalScorer classifies questionnaires with a deterministic rule, no
// external model service involved. Tolerance dominates; a long horizon
// can push a borderline score up one band because drawdowns have more
// time to recover.
type LocalScorer struct{}

var _ domain.RiskScorer = (*LocalScorer)(nil)

// NewLocalScorer creates a new local scorer
func NewLocalScorer() *LocalScorer {
	return &LocalScorer{}
}

// Score maps tolerance (1-10) and duration (years) to low/medium/high.
func (s *LocalScorer) Score(ctx context.Context, input domain.RiskInput) (domain.RiskLevel, error) {
	// Weighted score on a 0-100 scale: tolerance contributes up to 70,
	// duration up to 30 (capped at 20 years).
	duration := input.InvestmentDuration
	if duration > 20 {
		duration = 20
	}

	score := float64(input.RiskTolerance) / 10 * 70
	score += float64(duration) / 20 * 30

	switch {
	case score < 40:
		return domain.RiskLow, nil
	case score < 70:
		return domain.RiskMedium, nil
	default:
		return domain.RiskHigh, nil
	}
}
