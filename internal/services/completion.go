package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velebitsec/compliance-backend/internal/logger"
	"github.com/velebitsec/compliance-backend/internal/repos"
)

// CompletionResult is the progress tuple the questionnaire UI polls while an
// assessment is being filled out.
type CompletionResult struct {
	TotalControls          int     `json:"total_controls"`
	AnsweredControls       int     `json:"answered_controls"`
	MandatoryControls      int     `json:"mandatory_controls"`
	MandatoryAnswered      int     `json:"mandatory_answered"`
	CompletionPct          float64 `json:"completion_pct"`
	MandatoryCompletionPct float64 `json:"mandatory_completion_pct"`
}

// CompletionCache is a best-effort read-through cache for completion results.
// Implementations must be safe to call concurrently; a nil cache disables
// caching.
type CompletionCache interface {
	Get(ctx context.Context, assessmentID uuid.UUID) (*CompletionResult, bool)
	Set(ctx context.Context, assessmentID uuid.UUID, result *CompletionResult)
	Invalidate(ctx context.Context, assessmentID uuid.UUID)
}

type CompletionService interface {
	ComputeCompletion(ctx context.Context, assessmentID uuid.UUID) (*CompletionResult, error)
}

type completionService struct {
	db             *gorm.DB
	log            *logger.Logger
	assessmentRepo repos.AssessmentRepo
	catalogRepo    repos.CatalogRepo
	answerRepo     repos.AnswerRepo
	cache          CompletionCache
}

func NewCompletionService(db *gorm.DB, log *logger.Logger, assessmentRepo repos.AssessmentRepo, catalogRepo repos.CatalogRepo, answerRepo repos.AnswerRepo, cache CompletionCache) CompletionService {
	serviceLog := log.With("service", "CompletionService")
	return &completionService{
		db:             db,
		log:            serviceLog,
		assessmentRepo: assessmentRepo,
		catalogRepo:    catalogRepo,
		answerRepo:     answerRepo,
		cache:          cache,
	}
}

// ComputeCompletion counts obligations, not controls: a control mapped into
// three submeasures contributes three to the total. An answer counts only when
// both scores are set and its (control, submeasure) pair has an applicable
// requirement at the assessment's level. This is a progress indicator, not a
// gate, so every failure degrades to the all-zero result instead of an error.
func (cs *completionService) ComputeCompletion(ctx context.Context, assessmentID uuid.UUID) (*CompletionResult, error) {
	if cs.cache != nil {
		if cached, ok := cs.cache.Get(ctx, assessmentID); ok {
			return cached, nil
		}
	}

	result := &CompletionResult{}
	if assessmentID == uuid.Nil {
		return result, nil
	}

	assessments, err := cs.assessmentRepo.GetByIDs(ctx, nil, []uuid.UUID{assessmentID})
	if err != nil {
		cs.log.Warn("Completion degraded to zero result: assessment lookup failed", "assessment_id", assessmentID, "error", err)
		return result, nil
	}
	if len(assessments) == 0 || assessments[0] == nil {
		cs.log.Debug("Completion requested for unknown assessment", "assessment_id", assessmentID)
		return result, nil
	}
	assessment := assessments[0]

	tuples, err := cs.catalogRepo.GetRequirementTuples(ctx, nil, assessment.QuestionnaireVersionID, assessment.SecurityLevel)
	if err != nil {
		cs.log.Warn("Completion degraded to zero result: requirement tuples failed", "assessment_id", assessmentID, "error", err)
		return result, nil
	}
	answers, err := cs.answerRepo.GetByAssessmentID(ctx, nil, assessmentID)
	if err != nil {
		cs.log.Warn("Completion degraded to zero result: answers failed", "assessment_id", assessmentID, "error", err)
		return result, nil
	}

	answeredPairs := map[[2]uuid.UUID]bool{}
	for _, answer := range answers {
		if answer.Answered() {
			answeredPairs[[2]uuid.UUID{answer.ControlID, answer.SubmeasureID}] = true
		}
	}

	for _, tuple := range tuples {
		result.TotalControls++
		answered := answeredPairs[[2]uuid.UUID{tuple.ControlID, tuple.SubmeasureID}]
		if answered {
			result.AnsweredControls++
		}
		if tuple.IsMandatory {
			result.MandatoryControls++
			if answered {
				result.MandatoryAnswered++
			}
		}
	}

	if result.TotalControls > 0 {
		result.CompletionPct = round1(float64(result.AnsweredControls) / float64(result.TotalControls) * 100)
	}
	if result.MandatoryControls > 0 {
		result.MandatoryCompletionPct = round1(float64(result.MandatoryAnswered) / float64(result.MandatoryControls) * 100)
	}

	if cs.cache != nil {
		cs.cache.Set(ctx, assessmentID, result)
	}
	return result, nil
}
