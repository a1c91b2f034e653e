package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/velebitsec/compliance-backend/internal/logger"
  "github.com/velebitsec/compliance-backend/internal/types"
)

type AssessmentRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.Assessment) ([]*types.Assessment, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Assessment, error)
  GetByOrganizationID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.Assessment, error)
  ListIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
}

type assessmentRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
  repoLog := baseLog.With("repo", "AssessmentRepo")
  return &assessmentRepo{db: db, log: repoLog}
}

func (r *assessmentRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Assessment) ([]*types.Assessment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.Assessment{}, nil
  }

  for _, row := range rows {
    if row.ID == uuid.Nil {
      row.ID = uuid.New()
    }
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *assessmentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Assessment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Assessment
  if len(ids) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", ids).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *assessmentRepo) GetByOrganizationID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.Assessment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Assessment
  if orgID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("organization_id = ?", orgID).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *assessmentRepo) ListIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var ids []uuid.UUID
  if err := transaction.WithContext(ctx).
    Model(&types.Assessment{}).
    Pluck("id", &ids).Error; err != nil {
    return nil, err
  }
  return ids, nil
}
