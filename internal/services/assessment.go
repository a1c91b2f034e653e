package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velebitsec/compliance-backend/internal/logger"
	"github.com/velebitsec/compliance-backend/internal/repos"
	"github.com/velebitsec/compliance-backend/internal/types"
)

type AssessmentService interface {
	CreateAssessment(ctx context.Context, orgID, questionnaireVersionID uuid.UUID, level types.SecurityLevel, name string) (*types.Assessment, error)
	// GetOwned returns the assessment only when it belongs to the
	// organization; anything else is ErrNotFound so callers cannot probe for
	// other organizations' assessments.
	GetOwned(ctx context.Context, orgID, assessmentID uuid.UUID) (*types.Assessment, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*types.Assessment, error)
}

type assessmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	assessmentRepo repos.AssessmentRepo
}

func NewAssessmentService(db *gorm.DB, log *logger.Logger, assessmentRepo repos.AssessmentRepo) AssessmentService {
	serviceLog := log.With("service", "AssessmentService")
	return &assessmentService{db: db, log: serviceLog, assessmentRepo: assessmentRepo}
}

func (s *assessmentService) CreateAssessment(ctx context.Context, orgID, questionnaireVersionID uuid.UUID, level types.SecurityLevel, name string) (*types.Assessment, error) {
	if orgID == uuid.Nil || questionnaireVersionID == uuid.Nil {
		return nil, fmt.Errorf("organization and questionnaire version required")
	}
	if !level.Valid() {
		return nil, fmt.Errorf("invalid security level %q", level)
	}
	rows, err := s.assessmentRepo.Create(ctx, nil, []*types.Assessment{{
		OrganizationID:         orgID,
		QuestionnaireVersionID: questionnaireVersionID,
		SecurityLevel:          level,
		Name:                   name,
	}})
	if err != nil {
		return nil, fmt.Errorf("create assessment: %w", err)
	}
	return rows[0], nil
}

func (s *assessmentService) GetOwned(ctx context.Context, orgID, assessmentID uuid.UUID) (*types.Assessment, error) {
	rows, err := s.assessmentRepo.GetByIDs(ctx, nil, []uuid.UUID{assessmentID})
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if len(rows) == 0 || rows[0] == nil || rows[0].OrganizationID != orgID {
		return nil, types.ErrNotFound
	}
	return rows[0], nil
}

func (s *assessmentService) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*types.Assessment, error) {
	return s.assessmentRepo.GetByOrganizationID(ctx, nil, orgID)
}
