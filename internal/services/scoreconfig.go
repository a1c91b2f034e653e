package services

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/velebitsec/compliance-backend/internal/logger"
	"github.com/velebitsec/compliance-backend/internal/types"
)

// GradeBand maps a minimum compliance percentage to a letter grade.
type GradeBand struct {
	MinPercentage float64 `yaml:"min_percentage"`
	Grade         string  `yaml:"grade"`
}

// ScoringConfig carries the externally supplied scoring policy: grade-band
// boundaries and per-submeasure average thresholds. The engine treats these as
// data, never as constants.
type ScoringConfig struct {
	GradeBands           []GradeBand                                `yaml:"grade_bands"`
	FallbackGrade        string                                     `yaml:"fallback_grade"`
	SubmeasureThresholds map[string]map[types.SecurityLevel]float64 `yaml:"submeasure_thresholds"`
}

func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		GradeBands: []GradeBand{
			{MinPercentage: 90, Grade: "A"},
			{MinPercentage: 75, Grade: "B"},
			{MinPercentage: 60, Grade: "C"},
			{MinPercentage: 40, Grade: "D"},
		},
		FallbackGrade:        "F",
		SubmeasureThresholds: map[string]map[types.SecurityLevel]float64{},
	}
}

// LoadScoringConfig reads the YAML policy file at path. Missing path means
// the compiled-in defaults; a malformed file is an error rather than a silent
// fallback.
func LoadScoringConfig(path string, log *logger.Logger) (*ScoringConfig, error) {
	if path == "" {
		return DefaultScoringConfig(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring config: %w", err)
	}
	cfg := DefaultScoringConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse scoring config: %w", err)
	}
	if len(cfg.GradeBands) == 0 {
		cfg.GradeBands = DefaultScoringConfig().GradeBands
	}
	if cfg.FallbackGrade == "" {
		cfg.FallbackGrade = "F"
	}
	if cfg.SubmeasureThresholds == nil {
		cfg.SubmeasureThresholds = map[string]map[types.SecurityLevel]float64{}
	}
	if log != nil {
		log.Info("Scoring config loaded", "path", path, "grade_bands", len(cfg.GradeBands), "submeasure_thresholds", len(cfg.SubmeasureThresholds))
	}
	return cfg, nil
}

// GradeFor maps a compliance percentage onto the configured bands.
func (c *ScoringConfig) GradeFor(percentage float64) string {
	bands := make([]GradeBand, len(c.GradeBands))
	copy(bands, c.GradeBands)
	sort.Slice(bands, func(i, j int) bool { return bands[i].MinPercentage > bands[j].MinPercentage })
	for _, band := range bands {
		if percentage >= band.MinPercentage {
			return band.Grade
		}
	}
	if c.FallbackGrade != "" {
		return c.FallbackGrade
	}
	return "F"
}

// SubmeasureThreshold returns the average-score gate for a submeasure at the
// given level, or nil when none is configured (the gate then auto-passes).
func (c *ScoringConfig) SubmeasureThreshold(submeasureCode string, level types.SecurityLevel) *float64 {
	byLevel, ok := c.SubmeasureThresholds[submeasureCode]
	if !ok {
		return nil
	}
	threshold, ok := byLevel[level]
	if !ok {
		return nil
	}
	return &threshold
}
