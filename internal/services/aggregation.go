package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/velebitsec/compliance-backend/internal/logger"
	"github.com/velebitsec/compliance-backend/internal/repos"
	"github.com/velebitsec/compliance-backend/internal/types"
)

// AggregationService folds per-control resolutions bottom-up into submeasure,
// measure and assessment-wide scores and writes them as one immutable,
// versioned snapshot. The service keeps no state between calls; recomputation
// triggers are the caller's concern.
type AggregationService interface {
	RecomputeScores(ctx context.Context, assessmentID uuid.UUID) (*types.ComplianceScore, error)
	RecomputeAll(ctx context.Context, assessmentIDs []uuid.UUID, parallelism int) error
	// RecomputeAllAssessments is the externally scheduled batch trigger: every
	// known assessment, at most parallelism at a time.
	RecomputeAllAssessments(ctx context.Context, parallelism int) error
}

type aggregationService struct {
	db             *gorm.DB
	log            *logger.Logger
	assessmentRepo repos.AssessmentRepo
	catalogRepo    repos.CatalogRepo
	answerRepo     repos.AnswerRepo
	scoreRepo      repos.ScoreRepo
	config         *ScoringConfig
	inflight       keyedLock
}

func NewAggregationService(db *gorm.DB, log *logger.Logger, assessmentRepo repos.AssessmentRepo, catalogRepo repos.CatalogRepo, answerRepo repos.AnswerRepo, scoreRepo repos.ScoreRepo, config *ScoringConfig) AggregationService {
	serviceLog := log.With("service", "AggregationService")
	if config == nil {
		config = DefaultScoringConfig()
	}
	return &aggregationService{
		db:             db,
		log:            serviceLog,
		assessmentRepo: assessmentRepo,
		catalogRepo:    catalogRepo,
		answerRepo:     answerRepo,
		scoreRepo:      scoreRepo,
		config:         config,
	}
}

// keyedLock serializes recomputation per assessment within this process. The
// Postgres advisory lock inside the transaction covers other processes.
type keyedLock struct {
	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

func (k *keyedLock) TryAcquire(id uuid.UUID) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.held == nil {
		k.held = map[uuid.UUID]struct{}{}
	}
	if _, busy := k.held[id]; busy {
		return false
	}
	k.held[id] = struct{}{}
	return true
}

func (k *keyedLock) Release(id uuid.UUID) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.held, id)
}

func advisoryTryXactLock(tx *gorm.DB, namespace string, id uuid.UUID) (bool, error) {
	if tx == nil || tx.Dialector.Name() != "postgres" {
		return true, nil
	}
	key := advisoryKey64(namespace, id)
	var acquired bool
	if err := tx.Raw("SELECT pg_try_advisory_xact_lock(?)", key).Scan(&acquired).Error; err != nil {
		return false, err
	}
	return acquired, nil
}

func advisoryKey64(namespace string, id uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(namespace))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(id.String()))
	return int64(h.Sum64())
}

// RecomputeScores runs one full bottom-up aggregation for the assessment.
// Reads and writes happen inside a single transaction guarded by a
// per-assessment lock, so a run either lands completely as version N+1 or not
// at all; the previous current snapshot stays authoritative on any failure.
func (as *aggregationService) RecomputeScores(ctx context.Context, assessmentID uuid.UUID) (*types.ComplianceScore, error) {
	if assessmentID == uuid.Nil {
		return nil, types.ErrNotFound
	}
	if !as.inflight.TryAcquire(assessmentID) {
		return nil, types.ErrConcurrentModification
	}
	defer as.inflight.Release(assessmentID)

	var compliance *types.ComplianceScore
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acquired, err := advisoryTryXactLock(tx, "score_recompute", assessmentID)
		if err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
		if !acquired {
			return types.ErrConcurrentModification
		}

		assessments, err := as.assessmentRepo.GetByIDs(ctx, tx, []uuid.UUID{assessmentID})
		if err != nil {
			return fmt.Errorf("load assessment: %w", err)
		}
		if len(assessments) == 0 || assessments[0] == nil {
			return types.ErrNotFound
		}
		assessment := assessments[0]

		tuples, err := as.catalogRepo.GetRequirementTuples(ctx, tx, assessment.QuestionnaireVersionID, assessment.SecurityLevel)
		if err != nil {
			return fmt.Errorf("load requirement tuples: %w", err)
		}
		measures, err := as.catalogRepo.GetMeasures(ctx, tx, assessment.QuestionnaireVersionID)
		if err != nil {
			return fmt.Errorf("load measures: %w", err)
		}
		submeasures, err := as.catalogRepo.GetSubmeasures(ctx, tx, assessment.QuestionnaireVersionID)
		if err != nil {
			return fmt.Errorf("load submeasures: %w", err)
		}
		answers, err := as.answerRepo.GetByAssessmentID(ctx, tx, assessmentID)
		if err != nil {
			return fmt.Errorf("load answers: %w", err)
		}

		tupleIndex := map[[2]uuid.UUID]*repos.RequirementTuple{}
		for _, tuple := range tuples {
			tupleIndex[[2]uuid.UUID{tuple.ControlID, tuple.SubmeasureID}] = tuple
		}
		answerIndex := map[[2]uuid.UUID]*types.AssessmentAnswer{}
		for _, answer := range answers {
			key := [2]uuid.UUID{answer.ControlID, answer.SubmeasureID}
			if _, ok := tupleIndex[key]; !ok {
				// Inconsistent reference: the answer has no applicable
				// requirement at this level. Skipped, never fatal.
				as.log.Warn("Skipping answer with no applicable requirement",
					"assessment_id", assessmentID,
					"control_id", answer.ControlID,
					"submeasure_id", answer.SubmeasureID,
					"level", assessment.SecurityLevel)
				continue
			}
			answerIndex[key] = answer
		}

		previousVersion, err := as.scoreRepo.CurrentVersion(ctx, tx, assessmentID)
		if err != nil {
			return fmt.Errorf("current version: %w", err)
		}
		version := previousVersion + 1

		resolutionsBySubmeasure := map[uuid.UUID][]ControlResolution{}
		controlRows := make([]*types.ControlScoreHistory, 0, len(tuples))
		for _, tuple := range tuples {
			key := [2]uuid.UUID{tuple.ControlID, tuple.SubmeasureID}
			res := ResolveControlScore(answerIndex[key], tuple)
			resolutionsBySubmeasure[tuple.SubmeasureID] = append(resolutionsBySubmeasure[tuple.SubmeasureID], res)
			controlRows = append(controlRows, &types.ControlScoreHistory{
				ID:                  uuid.New(),
				AssessmentID:        assessmentID,
				ControlID:           res.ControlID,
				SubmeasureID:        res.SubmeasureID,
				ControlCode:         res.ControlCode,
				DocumentationScore:  res.DocumentationScore,
				ImplementationScore: res.ImplementationScore,
				Score:               res.Score,
				MeetsRequirement:    res.MeetsRequirement,
				IsMandatory:         res.IsMandatory,
				MinimumRequired:     res.MinimumRequired,
				Version:             version,
				IsCurrent:           true,
			})
		}

		submeasureRows := make([]*types.SubmeasureScore, 0, len(submeasures))
		submeasureRowByID := map[uuid.UUID]*types.SubmeasureScore{}
		for _, submeasure := range submeasures {
			row := as.rollupSubmeasure(assessment, submeasure, resolutionsBySubmeasure[submeasure.ID], version)
			submeasureRows = append(submeasureRows, row)
			submeasureRowByID[submeasure.ID] = row
		}

		measureRows := make([]*types.MeasureScore, 0, len(measures))
		for _, measure := range measures {
			var children []*types.SubmeasureScore
			for _, submeasure := range submeasures {
				if submeasure.MeasureID == measure.ID {
					children = append(children, submeasureRowByID[submeasure.ID])
				}
			}
			measureRows = append(measureRows, rollupMeasure(assessmentID, measure, children, version))
		}

		compliance = rollupCompliance(assessmentID, measureRows, as.config, version)

		if err := as.scoreRepo.ClearCurrent(ctx, tx, assessmentID); err != nil {
			return fmt.Errorf("clear current snapshot: %w", err)
		}
		if err := as.scoreRepo.InsertSnapshot(ctx, tx, controlRows, submeasureRows, measureRows, compliance); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}

		as.log.Info("Scores recomputed",
			"assessment_id", assessmentID,
			"version", version,
			"controls", len(controlRows),
			"submeasures", len(submeasureRows),
			"measures", len(measureRows),
			"is_compliant", compliance.IsCompliant)
		return nil
	})
	if err != nil {
		as.log.Warn("Recompute failed, previous snapshot remains current", "assessment_id", assessmentID, "error", err)
		return nil, err
	}
	return compliance, nil
}

// rollupSubmeasure applies both gates to one submeasure. Averages run over
// answered controls only; an unanswered mandatory control still fails the
// individual gate. A submeasure with zero applicable controls passes
// vacuously and is marked by TotalControls == 0.
func (as *aggregationService) rollupSubmeasure(assessment *types.Assessment, submeasure *types.Submeasure, resolutions []ControlResolution, version int) *types.SubmeasureScore {
	row := &types.SubmeasureScore{
		ID:             uuid.New(),
		AssessmentID:   assessment.ID,
		SubmeasureID:   submeasure.ID,
		SubmeasureCode: submeasure.Code,
		TotalControls:  len(resolutions),
		FailedControls: []string{},
		Version:        version,
		IsCurrent:      true,
	}

	var docSum, implSum float64
	failed := map[string]struct{}{}
	passesIndividual := true
	for _, res := range resolutions {
		if res.Answered {
			row.AnsweredControls++
			docSum += float64(*res.DocumentationScore)
			implSum += float64(*res.ImplementationScore)
			if !res.MeetsRequirement {
				failed[res.ControlCode] = struct{}{}
			}
		}
		if res.IsMandatory && !res.MeetsRequirement {
			passesIndividual = false
			failed[res.ControlCode] = struct{}{}
		}
	}

	if row.AnsweredControls > 0 {
		docAvg := round2(docSum / float64(row.AnsweredControls))
		implAvg := round2(implSum / float64(row.AnsweredControls))
		overall := round2((docAvg + implAvg) / 2.0)
		row.DocumentationAvg = &docAvg
		row.ImplementationAvg = &implAvg
		row.OverallScore = &overall
	}

	threshold := as.config.SubmeasureThreshold(submeasure.Code, assessment.SecurityLevel)
	passesAverage := true
	if threshold != nil {
		passesAverage = row.OverallScore != nil && *row.OverallScore >= *threshold
	}

	if row.TotalControls == 0 {
		passesIndividual = true
		passesAverage = true
	}

	row.PassesIndividualThreshold = passesIndividual
	row.PassesAverageThreshold = passesAverage
	row.PassesOverall = passesIndividual && passesAverage
	row.FailedControls = sortedCodes(failed)
	return row
}

func rollupMeasure(assessmentID uuid.UUID, measure *types.Measure, children []*types.SubmeasureScore, version int) *types.MeasureScore {
	row := &types.MeasureScore{
		ID:               uuid.New(),
		AssessmentID:     assessmentID,
		MeasureID:        measure.ID,
		MeasureCode:      measure.Code,
		TotalSubmeasures: len(children),
		PassesCompliance: true,
		CriticalFailures: []string{},
		Version:          version,
		IsCurrent:        true,
	}

	var sum float64
	var scored int
	failed := map[string]struct{}{}
	for _, child := range children {
		if child.OverallScore != nil {
			sum += *child.OverallScore
			scored++
		}
		if child.PassesOverall {
			row.PassedSubmeasures++
		} else {
			row.PassesCompliance = false
			failed[child.SubmeasureCode] = struct{}{}
		}
	}
	if scored > 0 {
		overall := round2(sum / float64(scored))
		row.OverallScore = &overall
	}
	row.CriticalFailures = sortedCodes(failed)
	return row
}

func rollupCompliance(assessmentID uuid.UUID, measureRows []*types.MeasureScore, config *ScoringConfig, version int) *types.ComplianceScore {
	row := &types.ComplianceScore{
		ID:            uuid.New(),
		AssessmentID:  assessmentID,
		TotalMeasures: len(measureRows),
		IsCompliant:   true,
		HighRiskAreas: []string{},
		Version:       version,
		IsCurrent:     true,
	}

	var sum float64
	var scored int
	failed := map[string]struct{}{}
	for _, measure := range measureRows {
		if measure.OverallScore != nil {
			sum += *measure.OverallScore
			scored++
		}
		if measure.PassesCompliance {
			row.PassedMeasures++
		} else {
			row.IsCompliant = false
			failed[measure.MeasureCode] = struct{}{}
		}
	}
	if scored > 0 {
		overall := round2(sum / float64(scored))
		row.OverallScore = &overall
		row.CompliancePercentage = round1(overall / 5.0 * 100)
	}
	row.ComplianceGrade = config.GradeFor(row.CompliancePercentage)
	row.HighRiskAreas = sortedCodes(failed)
	return row
}

func sortedCodes(set map[string]struct{}) []string {
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// RecomputeAll recomputes a batch of assessments, at most parallelism at a
// time. Assessments are independent, so one failure never cancels the others;
// all failures are reported joined.
func (as *aggregationService) RecomputeAll(ctx context.Context, assessmentIDs []uuid.UUID, parallelism int) error {
	if parallelism < 1 {
		parallelism = 1
	}
	var group errgroup.Group
	group.SetLimit(parallelism)

	var mu sync.Mutex
	var failures []error
	for _, id := range assessmentIDs {
		assessmentID := id
		group.Go(func() error {
			if _, err := as.RecomputeScores(ctx, assessmentID); err != nil {
				mu.Lock()
				failures = append(failures, fmt.Errorf("assessment %s: %w", assessmentID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = group.Wait()
	return errors.Join(failures...)
}

func (as *aggregationService) RecomputeAllAssessments(ctx context.Context, parallelism int) error {
	ids, err := as.assessmentRepo.ListIDs(ctx, nil)
	if err != nil {
		return fmt.Errorf("list assessments: %w", err)
	}
	as.log.Info("Batch recompute starting", "assessments", len(ids), "parallelism", parallelism)
	return as.RecomputeAll(ctx, ids, parallelism)
}
