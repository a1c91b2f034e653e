package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/velebitsec/compliance-backend/internal/requestdata"
  "github.com/velebitsec/compliance-backend/internal/services"
  "github.com/velebitsec/compliance-backend/internal/types"
)

type AssessmentHandler struct {
  assessmentService services.AssessmentService
}

func NewAssessmentHandler(assessmentService services.AssessmentService) *AssessmentHandler {
  return &AssessmentHandler{assessmentService: assessmentService}
}

type createAssessmentRequest struct {
  QuestionnaireVersionID uuid.UUID           `json:"questionnaire_version_id" binding:"required"`
  SecurityLevel          types.SecurityLevel `json:"security_level" binding:"required"`
  Name                   string              `json:"name" binding:"required"`
}

func (h *AssessmentHandler) Create(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing request context"))
    return
  }
  var req createAssessmentRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }
  assessment, err := h.assessmentService.CreateAssessment(c.Request.Context(), rd.OrganizationID, req.QuestionnaireVersionID, req.SecurityLevel, req.Name)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }
  c.JSON(http.StatusCreated, gin.H{"assessment": assessment})
}

func (h *AssessmentHandler) List(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing request context"))
    return
  }
  assessments, err := h.assessmentService.ListByOrganization(c.Request.Context(), rd.OrganizationID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "internal", err)
    return
  }
  RespondOK(c, gin.H{"assessments": assessments})
}

// ownedAssessmentID resolves the :id path param and checks the assessment
// belongs to the caller's organization. Shared by the answer, completion and
// score handlers.
func ownedAssessmentID(c *gin.Context, assessmentService services.AssessmentService) (uuid.UUID, bool) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing request context"))
    return uuid.Nil, false
  }
  assessmentID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid assessment id"))
    return uuid.Nil, false
  }
  if _, err := assessmentService.GetOwned(c.Request.Context(), rd.OrganizationID, assessmentID); err != nil {
    if errors.Is(err, types.ErrNotFound) {
      RespondError(c, http.StatusNotFound, "not_found", err)
    } else {
      RespondError(c, http.StatusInternalServerError, "internal", err)
    }
    return uuid.Nil, false
  }
  return assessmentID, true
}
