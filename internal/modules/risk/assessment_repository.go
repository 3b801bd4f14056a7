package risk

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthdesk/wealthdesk/internal/database"
	"github.com/wealthdesk/wealthdesk/internal/domain"
)

// AssessmentRepository handles database operations for risk assessments
type AssessmentRepository struct {
	db  database.Queryer
	log zerolog.Logger
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(q database.Queryer, log zerolog.Logger) *AssessmentRepository {
	return &AssessmentRepository{
		db:  q,
		log: log.With().Str("repo", "risk_assessments").Logger(),
	}
}

// Create inserts a new assessment and fills in the generated ID.
// FinancialGoals is stored as a JSON array.
func (r *AssessmentRepository) Create(a *domain.RiskAssessment) error {
	result, err := r.db.Exec(
		`INSERT INTO risk_assessments
		 (user_id, risk_level, investment_duration, risk_tolerance, financial_goals, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.UserID, string(a.RiskLevel), a.InvestmentDuration, a.RiskTolerance,
		a.FinancialGoals, a.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert risk assessment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read assessment id: %w", err)
	}
	a.ID = id
	return nil
}

// ListByUser returns all assessments for a user, newest first
func (r *AssessmentRepository) ListByUser(userID int64) ([]domain.RiskAssessment, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, risk_level, investment_duration, risk_tolerance, financial_goals, created_at
		 FROM risk_assessments WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk assessments: %w", err)
	}
	defer rows.Close()

	assessments := make([]domain.RiskAssessment, 0)
	for rows.Next() {
		var (
			a         domain.RiskAssessment
			level     string
			goals     sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &a.UserID, &level, &a.InvestmentDuration,
			&a.RiskTolerance, &goals, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan risk assessment: %w", err)
		}
		a.RiskLevel = domain.RiskLevel(level)
		a.FinancialGoals = goals.String
		a.CreatedAt = time.Unix(createdAt, 0).UTC()
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

// encodeGoals serializes goal tags for storage
func encodeGoals(goals []string) (string, error) {
	if len(goals) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal(goals)
	if err != nil {
		return "", fmt.Errorf("failed to encode financial goals: %w", err)
	}
	return string(encoded), nil
}
