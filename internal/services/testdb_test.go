package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/velebitsec/compliance-backend/internal/logger"
	"github.com/velebitsec/compliance-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one shared in-memory database for the whole test
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&types.Measure{},
		&types.Submeasure{},
		&types.Control{},
		&types.ControlSubmeasureMapping{},
		&types.ControlRequirement{},
		&types.Assessment{},
		&types.AssessmentAnswer{},
		&types.ControlScoreHistory{},
		&types.SubmeasureScore{},
		&types.MeasureScore{},
		&types.ComplianceScore{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func createMeasure(t *testing.T, db *gorm.DB, versionID uuid.UUID, code string, orderIndex int) *types.Measure {
	t.Helper()
	row := &types.Measure{
		ID:                     uuid.New(),
		QuestionnaireVersionID: versionID,
		Code:                   code,
		Name:                   "Measure " + code,
		OrderIndex:             orderIndex,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create measure %s: %v", code, err)
	}
	return row
}

func createSubmeasure(t *testing.T, db *gorm.DB, measureID uuid.UUID, code string, orderIndex int) *types.Submeasure {
	t.Helper()
	row := &types.Submeasure{
		ID:         uuid.New(),
		MeasureID:  measureID,
		Code:       code,
		Name:       "Submeasure " + code,
		OrderIndex: orderIndex,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create submeasure %s: %v", code, err)
	}
	return row
}

func createControl(t *testing.T, db *gorm.DB, code string) *types.Control {
	t.Helper()
	row := &types.Control{
		ID:   uuid.New(),
		Code: code,
		Name: "Control " + code,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create control %s: %v", code, err)
	}
	return row
}

func mapControl(t *testing.T, db *gorm.DB, controlID, submeasureID uuid.UUID, orderIndex int) {
	t.Helper()
	row := &types.ControlSubmeasureMapping{
		ID:           uuid.New(),
		ControlID:    controlID,
		SubmeasureID: submeasureID,
		OrderIndex:   orderIndex,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("map control: %v", err)
	}
}

func requireControl(t *testing.T, db *gorm.DB, controlID, submeasureID uuid.UUID, level types.SecurityLevel, mandatory, applicable bool, minimum *float64) {
	t.Helper()
	row := &types.ControlRequirement{
		ID:           uuid.New(),
		ControlID:    controlID,
		SubmeasureID: submeasureID,
		Level:        level,
		IsMandatory:  mandatory,
		IsApplicable: applicable,
		MinimumScore: minimum,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create requirement: %v", err)
	}
}

func createAssessment(t *testing.T, db *gorm.DB, versionID uuid.UUID, level types.SecurityLevel) *types.Assessment {
	t.Helper()
	row := &types.Assessment{
		ID:                     uuid.New(),
		OrganizationID:         uuid.New(),
		QuestionnaireVersionID: versionID,
		SecurityLevel:          level,
		Name:                   "test assessment",
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create assessment: %v", err)
	}
	return row
}

func answerControl(t *testing.T, db *gorm.DB, assessmentID, controlID, submeasureID uuid.UUID, doc, impl *int) {
	t.Helper()
	row := &types.AssessmentAnswer{
		ID:                  uuid.New(),
		AssessmentID:        assessmentID,
		ControlID:           controlID,
		SubmeasureID:        submeasureID,
		DocumentationScore:  doc,
		ImplementationScore: impl,
		AnsweredBy:          uuid.New(),
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// memoryCache is a CompletionCache for tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*CompletionResult
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[uuid.UUID]*CompletionResult{}}
}

func (m *memoryCache) Get(_ context.Context, assessmentID uuid.UUID) (*CompletionResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.entries[assessmentID]
	return result, ok
}

func (m *memoryCache) Set(_ context.Context, assessmentID uuid.UUID, result *CompletionResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[assessmentID] = result
}

func (m *memoryCache) Invalidate(_ context.Context, assessmentID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, assessmentID)
}
