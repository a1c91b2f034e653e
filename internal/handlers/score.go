package handlers

import (
  "errors"
  "net/http"
  "strconv"
  "github.com/gin-gonic/gin"
  "github.com/velebitsec/compliance-backend/internal/services"
  "github.com/velebitsec/compliance-backend/internal/types"
)

type ScoreHandler struct {
  aggregationService services.AggregationService
  snapshotService    services.SnapshotService
  completionService  services.CompletionService
  assessmentService  services.AssessmentService
  batchParallelism   int
}

func NewScoreHandler(aggregationService services.AggregationService, snapshotService services.SnapshotService, completionService services.CompletionService, assessmentService services.AssessmentService, batchParallelism int) *ScoreHandler {
  if batchParallelism < 1 {
    batchParallelism = 1
  }
  return &ScoreHandler{
    aggregationService: aggregationService,
    snapshotService:    snapshotService,
    completionService:  completionService,
    assessmentService:  assessmentService,
    batchParallelism:   batchParallelism,
  }
}

func (h *ScoreHandler) Recompute(c *gin.Context) {
  assessmentID, ok := ownedAssessmentID(c, h.assessmentService)
  if !ok {
    return
  }
  compliance, err := h.aggregationService.RecomputeScores(c.Request.Context(), assessmentID)
  if err != nil {
    switch {
    case errors.Is(err, types.ErrNotFound):
      RespondError(c, http.StatusNotFound, "not_found", err)
    case errors.Is(err, types.ErrConcurrentModification):
      RespondError(c, http.StatusConflict, "concurrent_modification", err)
    default:
      RespondError(c, http.StatusInternalServerError, "internal", err)
    }
    return
  }
  RespondOK(c, gin.H{"compliance_score": compliance})
}

// RecomputeAll is the batch trigger external schedulers call. Per-assessment
// failures are joined into the response; assessments that succeeded keep
// their new snapshots either way.
func (h *ScoreHandler) RecomputeAll(c *gin.Context) {
  if err := h.aggregationService.RecomputeAllAssessments(c.Request.Context(), h.batchParallelism); err != nil {
    RespondError(c, http.StatusInternalServerError, "partial_failure", err)
    return
  }
  RespondOK(c, gin.H{"status": "recomputed"})
}

func (h *ScoreHandler) GetSnapshot(c *gin.Context) {
  assessmentID, ok := ownedAssessmentID(c, h.assessmentService)
  if !ok {
    return
  }
  var version *int
  if raw := c.Query("version"); raw != "" {
    v, err := strconv.Atoi(raw)
    if err != nil || v < 1 {
      RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid version"))
      return
    }
    version = &v
  }
  snapshot, err := h.snapshotService.GetScoreSnapshot(c.Request.Context(), assessmentID, version)
  if err != nil {
    if errors.Is(err, types.ErrNotFound) {
      RespondError(c, http.StatusNotFound, "not_found", err)
    } else {
      RespondError(c, http.StatusInternalServerError, "internal", err)
    }
    return
  }
  RespondOK(c, snapshot)
}

func (h *ScoreHandler) GetCompletion(c *gin.Context) {
  assessmentID, ok := ownedAssessmentID(c, h.assessmentService)
  if !ok {
    return
  }
  result, err := h.completionService.ComputeCompletion(c.Request.Context(), assessmentID)
  if err != nil {
    // Completion degrades internally; an error here is unexpected.
    RespondError(c, http.StatusInternalServerError, "internal", err)
    return
  }
  RespondOK(c, gin.H{"completion": result})
}
