package risk

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthdesk/wealthdesk/internal/database"
	"github.com/wealthdesk/wealthdesk/internal/domain"
	"github.com/wealthdesk/wealthdesk/internal/events"
	"github.com/wealthdesk/wealthdesk/internal/modules/auth"
)

func setupService(t *testing.T) (*Service, *auth.UserRepository, int64) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "main.db"),
		Profile: database.ProfileLedger,
		Name:    "main",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := zerolog.Nop()
	users := auth.NewUserRepository(db.Conn(), log)

	now := time.Now().UTC()
	user := &domain.User{
		Email:        "alice@example.com",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, users.Create(user))

	svc := NewService(
		NewAssessmentRepository(db.Conn(), log),
		users,
		NewLocalScorer(),
		events.NewBus(log),
		log,
	)
	return svc, users, user.ID
}

func TestLocalScorer_Bands(t *testing.T) {
	scorer := NewLocalScorer()
	ctx := context.Background()

	cases := []struct {
		name      string
		tolerance int
		duration  int
		want      domain.RiskLevel
	}{
		{"cautious short horizon", 2, 3, domain.RiskLow},
		{"cautious even with long horizon", 3, 5, domain.RiskLow},
		{"moderate", 5, 10, domain.RiskMedium},
		{"aggressive", 9, 15, domain.RiskHigh},
		{"max everything", 10, 30, domain.RiskHigh},
		{"high tolerance but very short horizon", 8, 1, domain.RiskMedium},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			level, err := scorer.Score(ctx, domain.RiskInput{
				RiskTolerance:      tc.tolerance,
				InvestmentDuration: tc.duration,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, level)
		})
	}
}

func TestSubmitAssessment_StampsUserProfile(t *testing.T) {
	svc, users, userID := setupService(t)
	ctx := context.Background()

	assessment, err := svc.SubmitAssessment(ctx, userID, domain.RiskInput{
		RiskTolerance:      9,
		InvestmentDuration: 15,
		FinancialGoals:     []string{"retirement", "growth"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, assessment.RiskLevel)
	assert.NotZero(t, assessment.ID)
	assert.JSONEq(t, `["retirement","growth"]`, assessment.FinancialGoals)

	user, err := users.GetByID(userID)
	require.NoError(t, err)
	assert.Equal(t, "high", user.RiskProfile)
}

func TestSubmitAssessment_Validation(t *testing.T) {
	svc, _, userID := setupService(t)
	ctx := context.Background()

	_, err := svc.SubmitAssessment(ctx, userID, domain.RiskInput{RiskTolerance: 0, InvestmentDuration: 5})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.SubmitAssessment(ctx, userID, domain.RiskInput{RiskTolerance: 11, InvestmentDuration: 5})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.SubmitAssessment(ctx, userID, domain.RiskInput{RiskTolerance: 5, InvestmentDuration: 0})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetHistory_NewestFirst(t *testing.T) {
	svc, _, userID := setupService(t)
	ctx := context.Background()

	for _, tolerance := range []int{2, 5, 9} {
		_, err := svc.SubmitAssessment(ctx, userID, domain.RiskInput{
			RiskTolerance:      tolerance,
			InvestmentDuration: 10,
		})
		require.NoError(t, err)
	}

	history, err := svc.GetHistory(ctx, userID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 9, history[0].RiskTolerance)
	assert.Equal(t, 2, history[2].RiskTolerance)
}

func TestGetProfile(t *testing.T) {
	svc, _, userID := setupService(t)
	ctx := context.Background()

	profile, err := svc.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, profile.RiskProfile)
	assert.Nil(t, profile.LatestAssessment)

	_, err = svc.SubmitAssessment(ctx, userID, domain.RiskInput{
		RiskTolerance:      9,
		InvestmentDuration: 15,
	})
	require.NoError(t, err)

	profile, err = svc.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "high", profile.RiskProfile)
	require.NotNil(t, profile.LatestAssessment)
	assert.Equal(t, 9, profile.LatestAssessment.RiskTolerance)
}
