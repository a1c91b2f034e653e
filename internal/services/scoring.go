package services

import (
	"math"

	"github.com/google/uuid"

	"github.com/velebitsec/compliance-backend/internal/repos"
	"github.com/velebitsec/compliance-backend/internal/types"
)

// ControlResolution is the outcome of scoring one (control, submeasure)
// obligation. The same control mapped into several submeasures is resolved
// once per mapping; the resolutions are independent.
type ControlResolution struct {
	ControlID           uuid.UUID
	SubmeasureID        uuid.UUID
	ControlCode         string
	DocumentationScore  *int
	ImplementationScore *int
	Score               *float64
	Answered            bool
	MeetsRequirement    bool
	IsMandatory         bool
	MinimumRequired     *float64
}

// ResolveControlScore combines an answer's documentation and implementation
// scores into one control score and checks it against the requirement's
// minimum. Pure and idempotent; unchanged inputs always yield identical
// output. Answers missing either score resolve to a nil score that never
// meets the requirement. Non-applicable requirements are filtered upstream
// and must not be passed in.
func ResolveControlScore(answer *types.AssessmentAnswer, req *repos.RequirementTuple) ControlResolution {
	res := ControlResolution{
		ControlID:       req.ControlID,
		SubmeasureID:    req.SubmeasureID,
		ControlCode:     req.ControlCode,
		IsMandatory:     req.IsMandatory,
		MinimumRequired: req.MinimumScore,
	}
	if answer == nil || !answer.Answered() {
		return res
	}

	score := round2((float64(*answer.DocumentationScore) + float64(*answer.ImplementationScore)) / 2.0)
	res.DocumentationScore = answer.DocumentationScore
	res.ImplementationScore = answer.ImplementationScore
	res.Score = &score
	res.Answered = true
	res.MeetsRequirement = req.MinimumScore == nil || score >= *req.MinimumScore
	return res
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
