package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/velebitsec/compliance-backend/internal/logger"
  "github.com/velebitsec/compliance-backend/internal/types"
)

// RequirementTuple is one applicable (control, submeasure) obligation at a
// given questionnaire version and security level. A control mapped into k
// submeasures yields k tuples.
type RequirementTuple struct {
  ControlID      uuid.UUID           `json:"control_id"`
  ControlCode    string              `json:"control_code"`
  ControlName    string              `json:"control_name"`
  SubmeasureID   uuid.UUID           `json:"submeasure_id"`
  SubmeasureCode string              `json:"submeasure_code"`
  MeasureID      uuid.UUID           `json:"measure_id"`
  MeasureCode    string              `json:"measure_code"`
  Level          types.SecurityLevel `json:"level"`
  IsMandatory    bool                `json:"is_mandatory"`
  MinimumScore   *float64            `json:"minimum_score,omitempty"`
  OrderIndex     int                 `json:"order_index"`
}

type CatalogRepo interface {
  GetRequirementTuples(ctx context.Context, tx *gorm.DB, versionID uuid.UUID, level types.SecurityLevel) ([]*RequirementTuple, error)
  GetMeasures(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) ([]*types.Measure, error)
  GetSubmeasures(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) ([]*types.Submeasure, error)
}

type catalogRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewCatalogRepo(db *gorm.DB, baseLog *logger.Logger) CatalogRepo {
  repoLog := baseLog.With("repo", "CatalogRepo")
  return &catalogRepo{db: db, log: repoLog}
}

func (r *catalogRepo) GetRequirementTuples(ctx context.Context, tx *gorm.DB, versionID uuid.UUID, level types.SecurityLevel) ([]*RequirementTuple, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*RequirementTuple
  if versionID == uuid.Nil || !level.Valid() {
    return results, nil
  }

  if err := transaction.WithContext(ctx).Raw(`
    SELECT cr.control_id,
           c.code AS control_code,
           c.name AS control_name,
           cr.submeasure_id,
           s.code AS submeasure_code,
           s.measure_id,
           m.code AS measure_code,
           cr.level,
           cr.is_mandatory,
           cr.minimum_score,
           csm.order_index
    FROM control_requirement cr
    JOIN control c ON c.id = cr.control_id
    JOIN submeasure s ON s.id = cr.submeasure_id
    JOIN measure m ON m.id = s.measure_id
    JOIN control_submeasure_mapping csm
      ON csm.control_id = cr.control_id AND csm.submeasure_id = cr.submeasure_id
    WHERE m.questionnaire_version_id = ?
      AND cr.level = ?
      AND cr.is_applicable = ?
    ORDER BY m.order_index, s.order_index, csm.order_index
  `, versionID, level, true).Scan(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *catalogRepo) GetMeasures(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) ([]*types.Measure, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Measure
  if versionID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("questionnaire_version_id = ?", versionID).
    Order("order_index").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *catalogRepo) GetSubmeasures(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) ([]*types.Submeasure, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Submeasure
  if versionID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Joins("JOIN measure m ON m.id = submeasure.measure_id").
    Where("m.questionnaire_version_id = ?", versionID).
    Order("submeasure.order_index").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
