package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/velebitsec/compliance-backend/internal/logger"
	"github.com/velebitsec/compliance-backend/internal/repos"
	"github.com/velebitsec/compliance-backend/internal/types"
)

type SaveAnswerInput struct {
	AssessmentID        uuid.UUID      `json:"assessment_id"`
	ControlID           uuid.UUID      `json:"control_id"`
	SubmeasureID        uuid.UUID      `json:"submeasure_id"`
	DocumentationScore  *int           `json:"documentation_score"`
	ImplementationScore *int           `json:"implementation_score"`
	Comment             string         `json:"comment"`
	EvidenceRefs        datatypes.JSON `json:"evidence_refs"`
	AnsweredBy          uuid.UUID      `json:"answered_by"`
}

type AnswerService interface {
	SaveAnswer(ctx context.Context, input SaveAnswerInput) (*types.AssessmentAnswer, error)
	GetAnswers(ctx context.Context, assessmentID uuid.UUID) ([]*types.AssessmentAnswer, error)
}

type answerService struct {
	db             *gorm.DB
	log            *logger.Logger
	assessmentRepo repos.AssessmentRepo
	catalogRepo    repos.CatalogRepo
	answerRepo     repos.AnswerRepo
	cache          CompletionCache
}

func NewAnswerService(db *gorm.DB, log *logger.Logger, assessmentRepo repos.AssessmentRepo, catalogRepo repos.CatalogRepo, answerRepo repos.AnswerRepo, cache CompletionCache) AnswerService {
	serviceLog := log.With("service", "AnswerService")
	return &answerService{
		db:             db,
		log:            serviceLog,
		assessmentRepo: assessmentRepo,
		catalogRepo:    catalogRepo,
		answerRepo:     answerRepo,
		cache:          cache,
	}
}

// SaveAnswer upserts the answer row for one (assessment, control, submeasure)
// obligation. The pair must have an applicable requirement at the
// assessment's security level; otherwise the write is rejected instead of
// creating a row scoring would have to skip.
func (s *answerService) SaveAnswer(ctx context.Context, input SaveAnswerInput) (*types.AssessmentAnswer, error) {
	if err := validScore(input.DocumentationScore); err != nil {
		return nil, fmt.Errorf("documentation_score: %w", err)
	}
	if err := validScore(input.ImplementationScore); err != nil {
		return nil, fmt.Errorf("implementation_score: %w", err)
	}

	assessments, err := s.assessmentRepo.GetByIDs(ctx, nil, []uuid.UUID{input.AssessmentID})
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if len(assessments) == 0 || assessments[0] == nil {
		return nil, types.ErrNotFound
	}
	assessment := assessments[0]

	tuples, err := s.catalogRepo.GetRequirementTuples(ctx, nil, assessment.QuestionnaireVersionID, assessment.SecurityLevel)
	if err != nil {
		return nil, fmt.Errorf("load requirement tuples: %w", err)
	}
	applicable := false
	for _, tuple := range tuples {
		if tuple.ControlID == input.ControlID && tuple.SubmeasureID == input.SubmeasureID {
			applicable = true
			break
		}
	}
	if !applicable {
		return nil, types.ErrInconsistentReference
	}

	row := &types.AssessmentAnswer{
		AssessmentID:        input.AssessmentID,
		ControlID:           input.ControlID,
		SubmeasureID:        input.SubmeasureID,
		DocumentationScore:  input.DocumentationScore,
		ImplementationScore: input.ImplementationScore,
		Comment:             input.Comment,
		EvidenceRefs:        input.EvidenceRefs,
		AnsweredBy:          input.AnsweredBy,
	}
	saved, err := s.answerRepo.Upsert(ctx, nil, row)
	if err != nil {
		return nil, fmt.Errorf("upsert answer: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, input.AssessmentID)
	}
	return saved, nil
}

func (s *answerService) GetAnswers(ctx context.Context, assessmentID uuid.UUID) ([]*types.AssessmentAnswer, error) {
	return s.answerRepo.GetByAssessmentID(ctx, nil, assessmentID)
}

func validScore(score *int) error {
	if score == nil {
		return nil
	}
	if *score < 1 || *score > 5 {
		return fmt.Errorf("score %d outside 1..5", *score)
	}
	return nil
}
