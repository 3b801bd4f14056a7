package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthdesk/wealthdesk/internal/domain"
	"github.com/wealthdesk/wealthdesk/internal/events"
	"github.com/wealthdesk/wealthdesk/internal/modules/auth"
)

// Service runs risk questionnaires through the scorer and records results
type Service struct {
	assessments *AssessmentRepository
	users       *auth.UserRepository
	scorer      domain.RiskScorer
	eventBus    *events.Bus
	log         zerolog.Logger
}

// NewService creates a new risk service
func NewService(
	assessments *AssessmentRepository,
	users *auth.UserRepository,
	scorer domain.RiskScorer,
	eventBus *events.Bus,
	log zerolog.Logger,
) *Service {
	return &Service{
		assessments: assessments,
		users:       users,
		scorer:      scorer,
		eventBus:    eventBus,
		log:         log.With().Str("service", "risk").Logger(),
	}
}

// SubmitAssessment scores a questionnaire, stores the assessment and stamps
// the resulting level on the user's profile.
func (s *Service) SubmitAssessment(ctx context.Context, userID int64, input domain.RiskInput) (*domain.RiskAssessment, error) {
	if input.RiskTolerance < 1 || input.RiskTolerance > 10 {
		return nil, fmt.Errorf("%w: risk tolerance must be between 1 and 10", domain.ErrInvalidInput)
	}
	if input.InvestmentDuration < 1 {
		return nil, fmt.Errorf("%w: investment duration must be at least 1 year", domain.ErrInvalidInput)
	}

	level, err := s.scorer.Score(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to score assessment: %w", err)
	}

	goals, err := encodeGoals(input.FinancialGoals)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	assessment := &domain.RiskAssessment{
		UserID:             userID,
		RiskLevel:          level,
		InvestmentDuration: input.InvestmentDuration,
		RiskTolerance:      input.RiskTolerance,
		FinancialGoals:     goals,
		CreatedAt:          now,
	}
	if err := s.assessments.Create(assessment); err != nil {
		return nil, err
	}

	if err := s.users.UpdateRiskProfile(userID, level, now); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("user_id", userID).
		Str("risk_level", string(level)).
		Msg("Risk assessment recorded")

	s.eventBus.Publish(events.RiskProfileChanged, &events.RiskProfileChangedData{
		UserID:    userID,
		RiskLevel: string(level),
	})

	return assessment, nil
}

// GetHistory returns the user's past assessments, newest first
func (s *Service) GetHistory(ctx context.Context, userID int64) ([]domain.RiskAssessment, error) {
	return s.assessments.ListByUser(userID)
}

// Profile is the user's current risk classification together with the
// assessment that produced it.
type Profile struct {
	RiskProfile      string                 `json:"risk_profile"`
	LatestAssessment *domain.RiskAssessment `json:"latest_assessment,omitempty"`
}

// GetProfile returns the level stamped on the user record and their most
// recent assessment. A user who never submitted an assessment gets an empty
// profile, not an error.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	assessments, err := s.assessments.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assessments: %w", err)
	}

	profile := &Profile{RiskProfile: user.RiskProfile}
	if len(assessments) > 0 {
		profile.LatestAssessment = &assessments[0]
	}
	return profile, nil
}
