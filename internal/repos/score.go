package repos

import (
  "context"
  "database/sql"
  "errors"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/velebitsec/compliance-backend/internal/logger"
  "github.com/velebitsec/compliance-backend/internal/types"
)

// ScoreRepo owns the append-only snapshot tables. Rows are inserted by the
// aggregation engine and never mutated, except for the is_current flag flip
// that happens in the same transaction as the sibling insert.
type ScoreRepo interface {
  CurrentVersion(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID) (int, error)
  ClearCurrent(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID) error
  InsertSnapshot(ctx context.Context, tx *gorm.DB, controls []*types.ControlScoreHistory, submeasures []*types.SubmeasureScore, measures []*types.MeasureScore, compliance *types.ComplianceScore) error
  GetCompliance(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID, version *int) (*types.ComplianceScore, error)
  GetMeasureScores(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID, version *int) ([]*types.MeasureScore, error)
  GetSubmeasureScores(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID, version *int) ([]*types.SubmeasureScore, error)
  GetControlScores(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID, version *int) ([]*types.ControlScoreHistory, error)
}

type scoreRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewScoreRepo(db *gorm.DB, baseLog *logger.Logger) ScoreRepo {
  repoLog := baseLog.With("repo", "ScoreRepo")
  return &scoreRepo{db: db, log: repoLog}
}

func (r *scoreRepo) CurrentVersion(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID) (int, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var maxVersion sql.NullInt64
  if err := transaction.WithContext(ctx).
    Model(&types.ComplianceScore{}).
    Where("assessment_id = ?", assessmentID).
    Select("MAX(version)").
    Scan(&maxVersion).Error; err != nil {
    return 0, err
  }
  if !maxVersion.Valid {
    return 0, nil
  }
  return int(maxVersion.Int64), nil
}

func (r *scoreRepo) ClearCurrent(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  for _, model := range []interface{}{
    &types.ControlScoreHistory{},
    &types.SubmeasureScore{},
    &types.MeasureScore{},
    &types.ComplianceScore{},
  } {
    if err := transaction.WithContext(ctx).
      Model(model).
      Where("assessment_id = ? AND is_current = ?", assessmentID, true).
      Update("is_current", false).Error; err != nil {
      return err
    }
  }
  return nil
}

func (r *scoreRepo) InsertSnapshot(ctx context.Context, tx *gorm.DB, controls []*types.ControlScoreHistory, submeasures []*types.SubmeasureScore, measures []*types.MeasureScore, compliance *types.ComplianceScore) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(controls) > 0 {
    if err := transaction.WithContext(ctx).Create(&controls).Error; err != nil {
      return err
    }
  }
  if len(submeasures) > 0 {
    if err := transaction.WithContext(ctx).Create(&submeasures).Error; err != nil {
      return err
    }
  }
  if len(measures) > 0 {
    if err := transaction.WithContext(ctx).Create(&measures).Error; err != nil {
      return err
    }
  }
  if compliance != nil {
    if err := transaction.WithContext(ctx).Create(compliance).Error; err != nil {
      return err
    }
  }
  return nil
}

func (r *scoreRepo) GetCompliance(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID, version *int) (*types.ComplianceScore, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var row types.ComplianceScore
  query := transaction.WithContext(ctx).Where("assessment_id = ?", assessmentID)
  if version != nil {
    query = query.Where("version = ?", *version)
  } else {
    query = query.Where("is_current = ?", true)
  }
  if err := query.First(&row).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, types.ErrNotFound
    }
    return nil, err
  }
  return &row, nil
}

func (r *scoreRepo) GetMeasureScores(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID, version *int) ([]*types.MeasureScore, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.MeasureScore
  query := transaction.WithContext(ctx).Where("assessment_id = ?", assessmentID)
  if version != nil {
    query = query.Where("version = ?", *version)
  } else {
    query = query.Where("is_current = ?", true)
  }
  if err := query.Order("measure_code").Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *scoreRepo) GetSubmeasureScores(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID, version *int) ([]*types.SubmeasureScore, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.SubmeasureScore
  query := transaction.WithContext(ctx).Where("assessment_id = ?", assessmentID)
  if version != nil {
    query = query.Where("version = ?", *version)
  } else {
    query = query.Where("is_current = ?", true)
  }
  if err := query.Order("submeasure_code").Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *scoreRepo) GetControlScores(ctx context.Context, tx *gorm.DB, assessmentID uuid.UUID, version *int) ([]*types.ControlScoreHistory, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.ControlScoreHistory
  query := transaction.WithContext(ctx).Where("assessment_id = ?", assessmentID)
  if version != nil {
    query = query.Where("version = ?", *version)
  } else {
    query = query.Where("is_current = ?", true)
  }
  if err := query.Order("control_code").Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
