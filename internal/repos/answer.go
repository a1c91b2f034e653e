package repos

import (
  "context"
  "errors"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/velebitsec/compliance-backend/internal/logger"
  "github.com/velebitsec/compliance-backend/internal/types"
)

type AnswerRepo interface {
  GetByAssessmentID(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID) ([]*types.AssessmentAnswer, error)
  GetByTriple(ctx context.Context, tx *gorm.DB, assessmentID, controlID, submeasureID uuid.UUID) (*types.AssessmentAnswer, error)
  Upsert(ctx context.Context, tx *gorm.DB, row *types.AssessmentAnswer) (*types.AssessmentAnswer, error)
}

type answerRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAnswerRepo(db *gorm.DB, baseLog *logger.Logger) AnswerRepo {
  repoLog := baseLog.With("repo", "AnswerRepo")
  return &answerRepo{db: db, log: repoLog}
}

func (r *answerRepo) GetByAssessmentID(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID) ([]*types.AssessmentAnswer, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.AssessmentAnswer
  if assessmentID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("assessment_id = ?", assessmentID).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *answerRepo) GetByTriple(ctx context.Context, tx *gorm.DB, assessmentID, controlID, submeasureID uuid.UUID) (*types.AssessmentAnswer, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var row types.AssessmentAnswer
  err := transaction.WithContext(ctx).
    Where("assessment_id = ? AND control_id = ? AND submeasure_id = ?", assessmentID, controlID, submeasureID).
    First(&row).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &row, nil
}

// Upsert keys on the unique (assessment, control, submeasure) triple. Updates
// go through a column map so a score can be set back to null.
func (r *answerRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.AssessmentAnswer) (*types.AssessmentAnswer, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil, nil
  }

  existing, err := r.GetByTriple(ctx, transaction, row.AssessmentID, row.ControlID, row.SubmeasureID)
  if err != nil {
    return nil, err
  }

  if existing == nil {
    if row.ID == uuid.Nil {
      row.ID = uuid.New()
    }
    if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
      return nil, err
    }
    return row, nil
  }

  updates := map[string]interface{}{
    "documentation_score":  row.DocumentationScore,
    "implementation_score": row.ImplementationScore,
    "comment":              row.Comment,
    "evidence_refs":        row.EvidenceRefs,
    "answered_by":          row.AnsweredBy,
  }
  if err := transaction.WithContext(ctx).
    Model(&types.AssessmentAnswer{}).
    Where("id = ?", existing.ID).
    Updates(updates).Error; err != nil {
    return nil, err
  }
  return r.GetByTriple(ctx, transaction, row.AssessmentID, row.ControlID, row.SubmeasureID)
}
