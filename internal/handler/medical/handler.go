package medical

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/patientpal-api/internal/model"
	"github.com/jwalitptl/patientpal-api/internal/service/medical"
	apperrors "github.com/jwalitptl/patientpal-api/pkg/errors"
	"github.com/jwalitptl/patientpal-api/pkg/httputil"
)

type Handler struct {
	service *medical.Service
}

func NewHandler(service *medical.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/patients/:id/records")
	{
		records.POST("", h.CreateRecord)
		records.GET("", h.ListRecords)
		records.GET("/:recordId", h.GetRecord)
		records.PUT("/:recordId", h.UpdateRecord)
		records.DELETE("/:recordId", h.DeleteRecord)
	}
}

func (h *Handler) CreateRecord(c *gin.Context) {
	patientID, ok := parseID(c, "id", "invalid patient ID")
	if !ok {
		return
	}

	var req model.CreateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	record, err := h.service.CreateRecord(c.Request.Context(), patientID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, record)
}

func (h *Handler) ListRecords(c *gin.Context) {
	patientID, ok := parseID(c, "id", "invalid patient ID")
	if !ok {
		return
	}

	records, err := h.service.ListRecords(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, records)
}

func (h *Handler) GetRecord(c *gin.Context) {
	patientID, recordID, ok := ids(c)
	if !ok {
		return
	}

	record, err := h.service.GetRecord(c.Request.Context(), patientID, recordID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, record)
}

func (h *Handler) UpdateRecord(c *gin.Context) {
	patientID, recordID, ok := ids(c)
	if !ok {
		return
	}

	var req model.UpdateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	record, err := h.service.UpdateRecord(c.Request.Context(), patientID, recordID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, record)
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	patientID, recordID, ok := ids(c)
	if !ok {
		return
	}

	if err := h.service.DeleteRecord(c.Request.Context(), patientID, recordID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func ids(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	patientID, ok := parseID(c, "id", "invalid patient ID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	recordID, ok := parseID(c, "recordId", "invalid record ID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return patientID, recordID, true
}

func parseID(c *gin.Context, param, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(message, err))
		return uuid.Nil, false
	}
	return id, true
}
