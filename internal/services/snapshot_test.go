package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/velebitsec/compliance-backend/internal/repos"
	"github.com/velebitsec/compliance-backend/internal/types"
)

func TestGetScoreSnapshotPinsVersion(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	ctx := context.Background()

	versionID := uuid.New()
	measure := createMeasure(t, db, versionID, "M1", 1)
	s1 := createSubmeasure(t, db, measure.ID, "S1", 1)
	control := createControl(t, db, "C1")
	mapControl(t, db, control.ID, s1.ID, 1)
	requireControl(t, db, control.ID, s1.ID, types.LevelOsnovna, true, true, nil)

	assessment := createAssessment(t, db, versionID, types.LevelOsnovna)
	answerControl(t, db, assessment.ID, control.ID, s1.ID, intPtr(5), intPtr(5))

	aggregation, scoreRepo := newAggregation(db, log, nil)
	snapshots := NewSnapshotService(db, log, scoreRepo)

	if _, err := snapshots.GetScoreSnapshot(ctx, assessment.ID, nil); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound before any recompute", err)
	}

	if _, err := aggregation.RecomputeScores(ctx, assessment.ID); err != nil {
		t.Fatalf("RecomputeScores: %v", err)
	}

	first, err := snapshots.GetScoreSnapshot(ctx, assessment.ID, nil)
	if err != nil {
		t.Fatalf("GetScoreSnapshot: %v", err)
	}
	if first.Compliance.Version != 1 {
		t.Fatalf("version=%d, want 1", first.Compliance.Version)
	}
	// every row in the tree carries the compliance row's version
	for _, row := range first.Measures {
		if row.Version != 1 {
			t.Fatalf("measure row at version %d inside version 1 snapshot", row.Version)
		}
	}
	for _, row := range first.Submeasures {
		if row.Version != 1 {
			t.Fatalf("submeasure row at version %d inside version 1 snapshot", row.Version)
		}
	}
	for _, row := range first.Controls {
		if row.Version != 1 {
			t.Fatalf("control row at version %d inside version 1 snapshot", row.Version)
		}
	}
	if *first.Compliance.OverallScore != 5.0 {
		t.Fatalf("overall=%v, want 5.0", *first.Compliance.OverallScore)
	}

	// edit the answer and recompute; the pinned read must not move
	if err := db.Model(&types.AssessmentAnswer{}).
		Where("assessment_id = ?", assessment.ID).
		Updates(map[string]interface{}{"documentation_score": 1, "implementation_score": 1}).Error; err != nil {
		t.Fatalf("update answer: %v", err)
	}
	if _, err := aggregation.RecomputeScores(ctx, assessment.ID); err != nil {
		t.Fatalf("RecomputeScores: %v", err)
	}

	pinned := 1
	old, err := snapshots.GetScoreSnapshot(ctx, assessment.ID, &pinned)
	if err != nil {
		t.Fatalf("pinned GetScoreSnapshot: %v", err)
	}
	if *old.Compliance.OverallScore != 5.0 {
		t.Fatalf("pinned snapshot moved: overall=%v", *old.Compliance.OverallScore)
	}

	current, err := snapshots.GetScoreSnapshot(ctx, assessment.ID, nil)
	if err != nil {
		t.Fatalf("current GetScoreSnapshot: %v", err)
	}
	if current.Compliance.Version != 2 || *current.Compliance.OverallScore != 1.0 {
		t.Fatalf("current snapshot=%d/%v, want version 2 overall 1.0",
			current.Compliance.Version, *current.Compliance.OverallScore)
	}
}

func TestGetScoreSnapshotUnknownAssessment(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)

	snapshots := NewSnapshotService(db, log, repos.NewScoreRepo(db, log))
	if _, err := snapshots.GetScoreSnapshot(context.Background(), uuid.New(), nil); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}
