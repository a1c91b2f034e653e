package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velebitsec/compliance-backend/internal/logger"
	"github.com/velebitsec/compliance-backend/internal/repos"
	"github.com/velebitsec/compliance-backend/internal/types"
)

// ScoreSnapshot is what downstream consumers (report rendering, gap analysis)
// read: the full score tree at one version.
type ScoreSnapshot struct {
	Compliance  *types.ComplianceScore       `json:"compliance"`
	Measures    []*types.MeasureScore        `json:"measures"`
	Submeasures []*types.SubmeasureScore     `json:"submeasures"`
	Controls    []*types.ControlScoreHistory `json:"controls"`
}

type SnapshotService interface {
	// GetScoreSnapshot returns the current snapshot when version is nil, or
	// the pinned version otherwise. Pinned reads stay stable even while the
	// user keeps editing answers.
	GetScoreSnapshot(ctx context.Context, assessmentID uuid.UUID, version *int) (*ScoreSnapshot, error)
}

type snapshotService struct {
	db        *gorm.DB
	log       *logger.Logger
	scoreRepo repos.ScoreRepo
}

func NewSnapshotService(db *gorm.DB, log *logger.Logger, scoreRepo repos.ScoreRepo) SnapshotService {
	serviceLog := log.With("service", "SnapshotService")
	return &snapshotService{db: db, log: serviceLog, scoreRepo: scoreRepo}
}

func (ss *snapshotService) GetScoreSnapshot(ctx context.Context, assessmentID uuid.UUID, version *int) (*ScoreSnapshot, error) {
	if assessmentID == uuid.Nil {
		return nil, types.ErrNotFound
	}

	var snapshot ScoreSnapshot
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		compliance, err := ss.scoreRepo.GetCompliance(ctx, tx, assessmentID, version)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				return err
			}
			return fmt.Errorf("load compliance score: %w", err)
		}
		snapshot.Compliance = compliance

		// Pin the rest of the tree to the compliance row's version so the
		// snapshot is internally consistent even if a recompute lands between
		// the reads.
		pinned := compliance.Version
		if snapshot.Measures, err = ss.scoreRepo.GetMeasureScores(ctx, tx, assessmentID, &pinned); err != nil {
			return fmt.Errorf("load measure scores: %w", err)
		}
		if snapshot.Submeasures, err = ss.scoreRepo.GetSubmeasureScores(ctx, tx, assessmentID, &pinned); err != nil {
			return fmt.Errorf("load submeasure scores: %w", err)
		}
		if snapshot.Controls, err = ss.scoreRepo.GetControlScores(ctx, tx, assessmentID, &pinned); err != nil {
			return fmt.Errorf("load control scores: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
