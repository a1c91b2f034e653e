package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "github.com/velebitsec/compliance-backend/internal/requestdata"
  "github.com/velebitsec/compliance-backend/internal/services"
  "github.com/velebitsec/compliance-backend/internal/types"
)

type AnswerHandler struct {
  answerService     services.AnswerService
  assessmentService services.AssessmentService
}

func NewAnswerHandler(answerService services.AnswerService, assessmentService services.AssessmentService) *AnswerHandler {
  return &AnswerHandler{answerService: answerService, assessmentService: assessmentService}
}

type saveAnswerRequest struct {
  ControlID           uuid.UUID      `json:"control_id" binding:"required"`
  SubmeasureID        uuid.UUID      `json:"submeasure_id" binding:"required"`
  DocumentationScore  *int           `json:"documentation_score"`
  ImplementationScore *int           `json:"implementation_score"`
  Comment             string         `json:"comment"`
  EvidenceRefs        datatypes.JSON `json:"evidence_refs"`
}

func (h *AnswerHandler) Save(c *gin.Context) {
  assessmentID, ok := ownedAssessmentID(c, h.assessmentService)
  if !ok {
    return
  }
  var req saveAnswerRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }
  rd := requestdata.GetRequestData(c.Request.Context())

  answer, err := h.answerService.SaveAnswer(c.Request.Context(), services.SaveAnswerInput{
    AssessmentID:        assessmentID,
    ControlID:           req.ControlID,
    SubmeasureID:        req.SubmeasureID,
    DocumentationScore:  req.DocumentationScore,
    ImplementationScore: req.ImplementationScore,
    Comment:             req.Comment,
    EvidenceRefs:        req.EvidenceRefs,
    AnsweredBy:          rd.UserID,
  })
  if err != nil {
    switch {
    case errors.Is(err, types.ErrNotFound):
      RespondError(c, http.StatusNotFound, "not_found", err)
    case errors.Is(err, types.ErrInconsistentReference):
      RespondError(c, http.StatusUnprocessableEntity, "inconsistent_reference", err)
    default:
      RespondError(c, http.StatusBadRequest, "bad_request", err)
    }
    return
  }
  RespondOK(c, gin.H{"answer": answer})
}

func (h *AnswerHandler) List(c *gin.Context) {
  assessmentID, ok := ownedAssessmentID(c, h.assessmentService)
  if !ok {
    return
  }
  answers, err := h.answerService.GetAnswers(c.Request.Context(), assessmentID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "internal", err)
    return
  }
  RespondOK(c, gin.H{"answers": answers})
}
