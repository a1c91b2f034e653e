package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velebitsec/compliance-backend/internal/logger"
	"github.com/velebitsec/compliance-backend/internal/repos"
	"github.com/velebitsec/compliance-backend/internal/types"
)

func newAggregation(db *gorm.DB, log *logger.Logger, cfg *ScoringConfig) (AggregationService, repos.ScoreRepo) {
	scoreRepo := repos.NewScoreRepo(db, log)
	service := NewAggregationService(db, log,
		repos.NewAssessmentRepo(db, log),
		repos.NewCatalogRepo(db, log),
		repos.NewAnswerRepo(db, log),
		scoreRepo,
		cfg,
	)
	return service, scoreRepo
}

func submeasureRowByCode(t *testing.T, rows []*types.SubmeasureScore, code string) *types.SubmeasureScore {
	t.Helper()
	for _, row := range rows {
		if row.SubmeasureCode == code {
			return row
		}
	}
	t.Fatalf("no submeasure score for %q", code)
	return nil
}

// Scenario: one control obligated in two submeasures, mandatory with a
// minimum in the first, optional in the second, answered only in the first.
func TestRecomputeSharedControlAcrossSubmeasures(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	ctx := context.Background()

	versionID := uuid.New()
	measure := createMeasure(t, db, versionID, "M1", 1)
	s1 := createSubmeasure(t, db, measure.ID, "S1", 1)
	s2 := createSubmeasure(t, db, measure.ID, "S2", 2)

	c1 := createControl(t, db, "C1")
	mapControl(t, db, c1.ID, s1.ID, 1)
	mapControl(t, db, c1.ID, s2.ID, 1)
	requireControl(t, db, c1.ID, s1.ID, types.LevelSrednja, true, true, floatPtr(3.0))
	requireControl(t, db, c1.ID, s2.ID, types.LevelSrednja, false, true, nil)

	assessment := createAssessment(t, db, versionID, types.LevelSrednja)
	answerControl(t, db, assessment.ID, c1.ID, s1.ID, intPtr(4), intPtr(2))

	service, scoreRepo := newAggregation(db, log, nil)
	compliance, err := service.RecomputeScores(ctx, assessment.ID)
	if err != nil {
		t.Fatalf("RecomputeScores: %v", err)
	}

	controls, err := scoreRepo.GetControlScores(ctx, nil, assessment.ID, nil)
	if err != nil {
		t.Fatalf("GetControlScores: %v", err)
	}
	if len(controls) != 2 {
		t.Fatalf("control history rows=%d, want 2 (one per mapping)", len(controls))
	}

	submeasures, err := scoreRepo.GetSubmeasureScores(ctx, nil, assessment.ID, nil)
	if err != nil {
		t.Fatalf("GetSubmeasureScores: %v", err)
	}

	s1Row := submeasureRowByCode(t, submeasures, "S1")
	if s1Row.OverallScore == nil || *s1Row.OverallScore != 3.0 {
		t.Fatalf("S1 overall=%v, want 3.0", s1Row.OverallScore)
	}
	if !s1Row.PassesIndividualThreshold || !s1Row.PassesOverall {
		t.Fatalf("S1 should pass: %+v", s1Row)
	}
	if len(s1Row.FailedControls) != 0 {
		t.Fatalf("S1 failedControls=%v, want none", s1Row.FailedControls)
	}

	s2Row := submeasureRowByCode(t, submeasures, "S2")
	if s2Row.AnsweredControls != 0 || s2Row.TotalControls != 1 {
		t.Fatalf("S2 counts=%d/%d, want 0/1", s2Row.AnsweredControls, s2Row.TotalControls)
	}
	if s2Row.OverallScore != nil {
		t.Fatalf("S2 overall=%v, want nil (nothing answered)", *s2Row.OverallScore)
	}
	if !s2Row.PassesOverall {
		t.Fatalf("S2 must not be blocked by an unanswered optional control: %+v", s2Row)
	}

	if !compliance.IsCompliant {
		t.Fatalf("assessment should be compliant: %+v", compliance)
	}
	if compliance.CompliancePercentage != 60.0 || compliance.ComplianceGrade != "C" {
		t.Fatalf("percentage=%v grade=%q, want 60.0 C", compliance.CompliancePercentage, compliance.ComplianceGrade)
	}
}

// Scenario: two mandatory controls, one scored below minimum, one unanswered.
// Both block the individual gate and both are listed.
func TestRecomputeMandatoryFailures(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	ctx := context.Background()

	versionID := uuid.New()
	measure := createMeasure(t, db, versionID, "M1", 1)
	s3 := createSubmeasure(t, db, measure.ID, "S3", 1)

	low := createControl(t, db, "C10")
	unanswered := createControl(t, db, "C11")
	for i, control := range []*types.Control{low, unanswered} {
		mapControl(t, db, control.ID, s3.ID, i+1)
		requireControl(t, db, control.ID, s3.ID, types.LevelOsnovna, true, true, floatPtr(3.0))
	}

	assessment := createAssessment(t, db, versionID, types.LevelOsnovna)
	answerControl(t, db, assessment.ID, low.ID, s3.ID, intPtr(2), intPtr(2))

	service, scoreRepo := newAggregation(db, log, nil)
	compliance, err := service.RecomputeScores(ctx, assessment.ID)
	if err != nil {
		t.Fatalf("RecomputeScores: %v", err)
	}

	submeasures, err := scoreRepo.GetSubmeasureScores(ctx, nil, assessment.ID, nil)
	if err != nil {
		t.Fatalf("GetSubmeasureScores: %v", err)
	}
	s3Row := submeasureRowByCode(t, submeasures, "S3")
	if s3Row.PassesIndividualThreshold {
		t.Fatalf("individual gate must fail: %+v", s3Row)
	}
	if len(s3Row.FailedControls) != 2 || s3Row.FailedControls[0] != "C10" || s3Row.FailedControls[1] != "C11" {
		t.Fatalf("failedControls=%v, want [C10 C11]", s3Row.FailedControls)
	}
	if s3Row.PassesOverall {
		t.Fatalf("submeasure must fail overall")
	}

	measures, err := scoreRepo.GetMeasureScores(ctx, nil, assessment.ID, nil)
	if err != nil {
		t.Fatalf("GetMeasureScores: %v", err)
	}
	if len(measures) != 1 || measures[0].PassesCompliance {
		t.Fatalf("measure must fail compliance: %+v", measures[0])
	}
	if len(measures[0].CriticalFailures) != 1 || measures[0].CriticalFailures[0] != "S3" {
		t.Fatalf("criticalFailures=%v, want [S3]", measures[0].CriticalFailures)
	}

	if compliance.IsCompliant {
		t.Fatalf("assessment must not be compliant")
	}
	if len(compliance.HighRiskAreas) != 1 || compliance.HighRiskAreas[0] != "M1" {
		t.Fatalf("highRiskAreas=%v, want [M1]", compliance.HighRiskAreas)
	}
}

// Scenario: three submeasures under one measure, one failing.
func TestMeasureFailsWhenAnySubmeasureFails(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	ctx := context.Background()

	versionID := uuid.New()
	measure := createMeasure(t, db, versionID, "M1", 1)

	codes := []string{"S1", "S2", "S3"}
	assessment := createAssessment(t, db, versionID, types.LevelNapredna)
	for i, code := range codes {
		submeasure := createSubmeasure(t, db, measure.ID, code, i+1)
		control := createControl(t, db, "C"+code)
		mapControl(t, db, control.ID, submeasure.ID, 1)
		requireControl(t, db, control.ID, submeasure.ID, types.LevelNapredna, true, true, floatPtr(3.0))
		if code == "S3" {
			answerControl(t, db, assessment.ID, control.ID, submeasure.ID, intPtr(2), intPtr(2))
		} else {
			answerControl(t, db, assessment.ID, control.ID, submeasure.ID, intPtr(4), intPtr(4))
		}
	}

	service, scoreRepo := newAggregation(db, log, nil)
	if _, err := service.RecomputeScores(ctx, assessment.ID); err != nil {
		t.Fatalf("RecomputeScores: %v", err)
	}

	measures, err := scoreRepo.GetMeasureScores(ctx, nil, assessment.ID, nil)
	if err != nil {
		t.Fatalf("GetMeasureScores: %v", err)
	}
	row := measures[0]
	if row.PassesCompliance {
		t.Fatalf("measure must fail when a child submeasure fails")
	}
	if row.TotalSubmeasures != 3 || row.PassedSubmeasures != 2 {
		t.Fatalf("submeasure counts=%d/%d, want 2/3 passing", row.PassedSubmeasures, row.TotalSubmeasures)
	}
	if len(row.CriticalFailures) != 1 || row.CriticalFailures[0] != "S3" {
		t.Fatalf("criticalFailures=%v, want [S3]", row.CriticalFailures)
	}
}

func TestRecomputeIdempotentWithMonotonicVersions(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	ctx := context.Background()

	versionID := uuid.New()
	measure := createMeasure(t, db, versionID, "M1", 1)
	s1 := createSubmeasure(t, db, measure.ID, "S1", 1)
	control := createControl(t, db, "C1")
	mapControl(t, db, control.ID, s1.ID, 1)
	requireControl(t, db, control.ID, s1.ID, types.LevelOsnovna, true, true, floatPtr(2.0))

	assessment := createAssessment(t, db, versionID, types.LevelOsnovna)
	answerControl(t, db, assessment.ID, control.ID, s1.ID, intPtr(3), intPtr(4))

	service, scoreRepo := newAggregation(db, log, nil)

	first, err := service.RecomputeScores(ctx, assessment.ID)
	if err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	second, err := service.RecomputeScores(ctx, assessment.ID)
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}

	if first.Version != 1 || second.Version != 2 {
		t.Fatalf("versions=%d,%d, want 1,2", first.Version, second.Version)
	}
	if *first.OverallScore != *second.OverallScore ||
		first.CompliancePercentage != second.CompliancePercentage ||
		first.ComplianceGrade != second.ComplianceGrade ||
		first.IsCompliant != second.IsCompliant {
		t.Fatalf("recomputation not idempotent: %+v vs %+v", first, second)
	}

	// exactly one current row per scope, and it is the newest version
	var currentCount int64
	if err := db.Model(&types.ComplianceScore{}).
		Where("assessment_id = ? AND is_current = ?", assessment.ID, true).
		Count(&currentCount).Error; err != nil {
		t.Fatalf("count current: %v", err)
	}
	if currentCount != 1 {
		t.Fatalf("current compliance rows=%d, want 1", currentCount)
	}
	current, err := scoreRepo.GetCompliance(ctx, nil, assessment.ID, nil)
	if err != nil {
		t.Fatalf("GetCompliance: %v", err)
	}
	if current.Version != 2 {
		t.Fatalf("current version=%d, want 2", current.Version)
	}

	// the superseded version stays readable
	pinned := 1
	old, err := scoreRepo.GetCompliance(ctx, nil, assessment.ID, &pinned)
	if err != nil {
		t.Fatalf("GetCompliance pinned: %v", err)
	}
	if old.IsCurrent {
		t.Fatalf("version 1 must no longer be current")
	}
	if *old.OverallScore != *current.OverallScore {
		t.Fatalf("pinned content diverged: %v vs %v", *old.OverallScore, *current.OverallScore)
	}
}

// A requirement written with IsApplicable=false must land as false in the
// database; a column default would make gorm skip the zero value on insert.
func TestInapplicableRequirementPersists(t *testing.T) {
	db := newTestDB(t)

	versionID := uuid.New()
	measure := createMeasure(t, db, versionID, "M1", 1)
	submeasure := createSubmeasure(t, db, measure.ID, "S1", 1)
	control := createControl(t, db, "C1")
	mapControl(t, db, control.ID, submeasure.ID, 1)
	requireControl(t, db, control.ID, submeasure.ID, types.LevelOsnovna, true, false, nil)

	var row types.ControlRequirement
	if err := db.Where("control_id = ? AND submeasure_id = ?", control.ID, submeasure.ID).
		First(&row).Error; err != nil {
		t.Fatalf("load requirement: %v", err)
	}
	if row.IsApplicable {
		t.Fatalf("IsApplicable=true after inserting false")
	}

	tuples, err := repos.NewCatalogRepo(db, newTestLogger(t)).
		GetRequirementTuples(context.Background(), nil, versionID, types.LevelOsnovna)
	if err != nil {
		t.Fatalf("GetRequirementTuples: %v", err)
	}
	if len(tuples) != 0 {
		t.Fatalf("tuples=%d, want 0: inapplicable requirement leaked", len(tuples))
	}
}

func TestVacuousSubmeasurePasses(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	ctx := context.Background()

	versionID := uuid.New()
	measure := createMeasure(t, db, versionID, "M1", 1)
	empty := createSubmeasure(t, db, measure.ID, "S9", 1)
	// a control exists but is not applicable at this level
	control := createControl(t, db, "C1")
	mapControl(t, db, control.ID, empty.ID, 1)
	requireControl(t, db, control.ID, empty.ID, types.LevelOsnovna, true, false, floatPtr(3.0))

	assessment := createAssessment(t, db, versionID, types.LevelOsnovna)

	service, scoreRepo := newAggregation(db, log, nil)
	compliance, err := service.RecomputeScores(ctx, assessment.ID)
	if err != nil {
		t.Fatalf("RecomputeScores: %v", err)
	}

	submeasures, err := scoreRepo.GetSubmeasureScores(ctx, nil, assessment.ID, nil)
	if err != nil {
		t.Fatalf("GetSubmeasureScores: %v", err)
	}
	row := submeasureRowByCode(t, submeasures, "S9")
	if row.TotalControls != 0 {
		t.Fatalf("totalControls=%d, want 0 marker", row.TotalControls)
	}
	if !row.PassesOverall {
		t.Fatalf("empty submeasure must pass vacuously")
	}
	if compliance.TotalMeasures != 1 || !compliance.IsCompliant {
		t.Fatalf("vacuous pass should propagate: %+v", compliance)
	}
}

// A control answered in one submeasure context never alters its resolution in
// another context.
func TestContextIndependence(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	ctx := context.Background()

	versionID := uuid.New()
	measure := createMeasure(t, db, versionID, "M1", 1)
	s1 := createSubmeasure(t, db, measure.ID, "S1", 1)
	s2 := createSubmeasure(t, db, measure.ID, "S2", 2)

	c1 := createControl(t, db, "C1")
	mapControl(t, db, c1.ID, s1.ID, 1)
	mapControl(t, db, c1.ID, s2.ID, 1)
	requireControl(t, db, c1.ID, s1.ID, types.LevelSrednja, false, true, nil)
	requireControl(t, db, c1.ID, s2.ID, types.LevelSrednja, false, true, nil)

	assessment := createAssessment(t, db, versionID, types.LevelSrednja)
	answerControl(t, db, assessment.ID, c1.ID, s1.ID, intPtr(4), intPtr(4))
	answerControl(t, db, assessment.ID, c1.ID, s2.ID, intPtr(2), intPtr(2))

	service, scoreRepo := newAggregation(db, log, nil)
	if _, err := service.RecomputeScores(ctx, assessment.ID); err != nil {
		t.Fatalf("RecomputeScores: %v", err)
	}

	readScore := func(submeasureID uuid.UUID) float64 {
		controls, err := scoreRepo.GetControlScores(ctx, nil, assessment.ID, nil)
		if err != nil {
			t.Fatalf("GetControlScores: %v", err)
		}
		for _, row := range controls {
			if row.SubmeasureID == submeasureID {
				if row.Score == nil {
					t.Fatalf("score missing for submeasure %s", submeasureID)
				}
				return *row.Score
			}
		}
		t.Fatalf("no control score for submeasure %s", submeasureID)
		return 0
	}

	if got := readScore(s1.ID); got != 4.0 {
		t.Fatalf("S1 context score=%v, want 4.0", got)
	}
	if got := readScore(s2.ID); got != 2.0 {
		t.Fatalf("S2 context score=%v, want 2.0", got)
	}

	// changing the S1 answer must not move the S2 resolution
	if err := db.Model(&types.AssessmentAnswer{}).
		Where("assessment_id = ? AND control_id = ? AND submeasure_id = ?", assessment.ID, c1.ID, s1.ID).
		Updates(map[string]interface{}{"documentation_score": 1, "implementation_score": 1}).Error; err != nil {
		t.Fatalf("update answer: %v", err)
	}
	if _, err := service.RecomputeScores(ctx, assessment.ID); err != nil {
		t.Fatalf("RecomputeScores: %v", err)
	}
	if got := readScore(s1.ID); got != 1.0 {
		t.Fatalf("S1 context score=%v, want 1.0 after edit", got)
	}
	if got := readScore(s2.ID); got != 2.0 {
		t.Fatalf("S2 context score=%v, want unchanged 2.0", got)
	}
}

// A second recomputation racing the same assessment observes
// ErrConcurrentModification and succeeds on retry with the next version.
func TestConcurrentRecomputeConflicts(t *testing.T) {
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
	answerControl(t, db, assessment.ID, control.ID, s1.ID, intPtr(3), intPtr(3))

	service, _ := newAggregation(db, log, nil)
	impl, ok := service.(*aggregationService)
	if !ok {
		t.Fatalf("unexpected service implementation")
	}

	// simulate an in-flight run holding the per-assessment lock
	if !impl.inflight.TryAcquire(assessment.ID) {
		t.Fatalf("could not acquire test lock")
	}
	if _, err := service.RecomputeScores(ctx, assessment.ID); !errors.Is(err, types.ErrConcurrentModification) {
		t.Fatalf("err=%v, want ErrConcurrentModification", err)
	}
	impl.inflight.Release(assessment.ID)

	// retry after the conflict produces the next version with the same content
	first, err := service.RecomputeScores(ctx, assessment.ID)
	if err != nil {
		t.Fatalf("retry recompute: %v", err)
	}
	if first.Version != 1 {
		t.Fatalf("version=%d, want 1", first.Version)
	}
	second, err := service.RecomputeScores(ctx, assessment.ID)
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	if second.Version != 2 || *second.OverallScore != *first.OverallScore {
		t.Fatalf("retry content diverged: %+v vs %+v", first, second)
	}
}

func TestRecomputeUnknownAssessment(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)

	service, _ := newAggregation(db, log, nil)
	if _, err := service.RecomputeScores(context.Background(), uuid.New()); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

// An answer with no applicable requirement at the assessment's level is
// skipped, not fatal.
func TestRecomputeSkipsInconsistentAnswers(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	ctx := context.Background()

	versionID := uuid.New()
	measure := createMeasure(t, db, versionID, "M1", 1)
	s1 := createSubmeasure(t, db, measure.ID, "S1", 1)
	control := createControl(t, db, "C1")
	mapControl(t, db, control.ID, s1.ID, 1)
	requireControl(t, db, control.ID, s1.ID, types.LevelOsnovna, false, true, nil)

	assessment := createAssessment(t, db, versionID, types.LevelOsnovna)
	answerControl(t, db, assessment.ID, control.ID, s1.ID, intPtr(4), intPtr(4))
	// stray answer for a control that is not part of the catalog
	answerControl(t, db, assessment.ID, uuid.New(), s1.ID, intPtr(5), intPtr(5))

	service, scoreRepo := newAggregation(db, log, nil)
	if _, err := service.RecomputeScores(ctx, assessment.ID); err != nil {
		t.Fatalf("RecomputeScores: %v", err)
	}

	submeasures, err := scoreRepo.GetSubmeasureScores(ctx, nil, assessment.ID, nil)
	if err != nil {
		t.Fatalf("GetSubmeasureScores: %v", err)
	}
	row := submeasureRowByCode(t, submeasures, "S1")
	if row.TotalControls != 1 || row.AnsweredControls != 1 {
		t.Fatalf("stray answer leaked into counts: %+v", row)
	}
	if row.OverallScore == nil || *row.OverallScore != 4.0 {
		t.Fatalf("overall=%v, want 4.0 (stray answer excluded)", row.OverallScore)
	}
}

func TestRecomputeAppliesAverageThreshold(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	ctx := context.Background()

	versionID := uuid.New()
	measure := createMeasure(t, db, versionID, "M1", 1)
	s1 := createSubmeasure(t, db, measure.ID, "S1", 1)
	control := createControl(t, db, "C1")
	mapControl(t, db, control.ID, s1.ID, 1)
	// no per-control minimum: only the average gate can fail here
	requireControl(t, db, control.ID, s1.ID, types.LevelSrednja, true, true, nil)

	assessment := createAssessment(t, db, versionID, types.LevelSrednja)
	answerControl(t, db, assessment.ID, control.ID, s1.ID, intPtr(3), intPtr(3))

	cfg := DefaultScoringConfig()
	cfg.SubmeasureThresholds = map[string]map[types.SecurityLevel]float64{
		"S1": {types.LevelSrednja: 3.5},
	}

	service, scoreRepo := newAggregation(db, log, cfg)
	if _, err := service.RecomputeScores(ctx, assessment.ID); err != nil {
		t.Fatalf("RecomputeScores: %v", err)
	}

	submeasures, err := scoreRepo.GetSubmeasureScores(ctx, nil, assessment.ID, nil)
	if err != nil {
		t.Fatalf("GetSubmeasureScores: %v", err)
	}
	row := submeasureRowByCode(t, submeasures, "S1")
	if !row.PassesIndividualThreshold {
		t.Fatalf("individual gate should pass (no minimum, answered)")
	}
	if row.PassesAverageThreshold {
		t.Fatalf("average gate must fail: overall 3.0 < threshold 3.5")
	}
	if row.PassesOverall {
		t.Fatalf("both gates must be required")
	}
}

func TestRecomputeAllAssessmentsCoversEveryAssessment(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	ctx := context.Background()

	versionID := uuid.New()
	measure := createMeasure(t, db, versionID, "M1", 1)
	s1 := createSubmeasure(t, db, measure.ID, "S1", 1)
	control := createControl(t, db, "C1")
	mapControl(t, db, control.ID, s1.ID, 1)
	requireControl(t, db, control.ID, s1.ID, types.LevelOsnovna, false, true, nil)

	first := createAssessment(t, db, versionID, types.LevelOsnovna)
	second := createAssessment(t, db, versionID, types.LevelOsnovna)
	answerControl(t, db, first.ID, control.ID, s1.ID, intPtr(4), intPtr(4))

	service, scoreRepo := newAggregation(db, log, nil)
	if err := service.RecomputeAllAssessments(ctx, 2); err != nil {
		t.Fatalf("RecomputeAllAssessments: %v", err)
	}

	for _, assessment := range []*types.Assessment{first, second} {
		compliance, err := scoreRepo.GetCompliance(ctx, nil, assessment.ID, nil)
		if err != nil {
			t.Fatalf("assessment %s missing snapshot: %v", assessment.ID, err)
		}
		if compliance.Version != 1 {
			t.Fatalf("version=%d, want 1", compliance.Version)
		}
	}
}

func TestRecomputeAllCollectsFailures(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	ctx := context.Background()

	versionID := uuid.New()
	measure := createMeasure(t, db, versionID, "M1", 1)
	s1 := createSubmeasure(t, db, measure.ID, "S1", 1)
	control := createControl(t, db, "C1")
	mapControl(t, db, control.ID, s1.ID, 1)
	requireControl(t, db, control.ID, s1.ID, types.LevelOsnovna, false, true, nil)

	good := createAssessment(t, db, versionID, types.LevelOsnovna)
	missing := uuid.New()

	service, scoreRepo := newAggregation(db, log, nil)
	err := service.RecomputeAll(ctx, []uuid.UUID{good.ID, missing}, 2)
	if err == nil {
		t.Fatalf("expected joined failure for the unknown assessment")
	}
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("err=%v, want wrapped ErrNotFound", err)
	}

	// the good assessment still got its snapshot
	if _, err := scoreRepo.GetCompliance(ctx, nil, good.ID, nil); err != nil {
		t.Fatalf("good assessment snapshot missing: %v", err)
	}
}
