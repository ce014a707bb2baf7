package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/atu_queue/kiosk/internal/db"
	"github.com/atu_queue/kiosk/internal/export"
	"github.com/atu_queue/kiosk/internal/models"
	"github.com/atu_queue/kiosk/internal/routing"
	"github.com/atu_queue/kiosk/internal/sequence"
	"github.com/atu_queue/kiosk/internal/service"
	"github.com/atu_queue/kiosk/internal/ticketapi"
	"github.com/atu_queue/kiosk/internal/tickets"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	KV        db.KV
	Service   *service.IssuingService
	Validator *validator.Validate
	Logger    zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.KV.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Storage unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Effective routing config
// @Description Bundled desks and flags with remote flag overrides applied
// @Tags config
// @Produce json
// @Success 200 {object} models.RoutingConfig
// @Router /api/config [get]
func (h *Handler) ConfigGet(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Config.Load(c.Request.Context()))
}

type ConsultationRequest struct {
	Category  string `json:"category" validate:"max=64"`
	Direction string `json:"direction" validate:"max=64"`
	Forward   bool   `json:"forward"`
}

type AdmissionRequest struct {
	PayType  string `json:"payType" validate:"max=64"`
	Category string `json:"category" validate:"max=64"`
	Profile  string `json:"profile" validate:"max=64"`
	Forward  bool   `json:"forward"`
}

type IssueRequest struct {
	Service   string `json:"service" validate:"required,max=32"`
	Category  string `json:"category" validate:"max=64"`
	Direction string `json:"direction" validate:"max=64"`
	PayType   string `json:"payType" validate:"max=64"`
	Profile   string `json:"profile" validate:"max=64"`
	Forward   bool   `json:"forward"`
}

// @Summary Issue consultation ticket
// @Tags tickets
// @Accept json
// @Produce json
// @Param body body ConsultationRequest true "Consultation attributes"
// @Success 201 {object} models.TicketRecord
// @Failure 409 {object} map[string]any
// @Router /api/tickets/consultation [post]
func (h *Handler) IssueConsultation(c *gin.Context) {
	var req ConsultationRequest
	if !h.bind(c, &req) {
		return
	}
	rec, err := h.Service.IssueConsultation(c.Request.Context(), req.Category, req.Direction, req.Forward)
	h.issued(c, rec, err)
}

// @Summary Issue admission ticket
// @Tags tickets
// @Accept json
// @Produce json
// @Param body body AdmissionRequest true "Admission attributes"
// @Success 201 {object} models.TicketRecord
// @Failure 409 {object} map[string]any
// @Router /api/tickets/admission [post]
func (h *Handler) IssueAdmission(c *gin.Context) {
	var req AdmissionRequest
	if !h.bind(c, &req) {
		return
	}
	rec, err := h.Service.IssueAdmission(c.Request.Context(), req.PayType, req.Category, req.Profile, req.Forward)
	h.issued(c, rec, err)
}

func (h *Handler) Issue(c *gin.Context) {
	var req IssueRequest
	if !h.bind(c, &req) {
		return
	}
	rec, err := h.Service.Issue(c.Request.Context(), service.Request{
		Service:   req.Service,
		Category:  req.Category,
		Direction: req.Direction,
		PayType:   req.PayType,
		Profile:   req.Profile,
		Forward:   req.Forward,
	})
	h.issued(c, rec, err)
}

func (h *Handler) issued(c *gin.Context, rec models.TicketRecord, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, rec)
	case errors.Is(err, routing.ErrNoDeskAvailable):
		writeError(c, http.StatusConflict, "NO_DESK_AVAILABLE", "No desk available for this request", err.Error())
	case errors.Is(err, service.ErrServiceDisabled):
		writeError(c, http.StatusForbidden, "SERVICE_DISABLED", "Service is disabled", err.Error())
	default:
		h.Logger.Error().Err(err).Msg("failed to issue ticket")
		writeError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to issue ticket", err.Error())
	}
}

// @Summary Ticket history
// @Tags tickets
// @Produce json
// @Success 200 {array} models.TicketRecord
// @Router /api/tickets [get]
func (h *Handler) TicketsList(c *gin.Context) {
	list, err := h.Service.Store.List(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load tickets", err.Error())
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) TicketLast(c *gin.Context) {
	last, err := h.Service.Store.GetLast(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load last ticket", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": last})
}

func (h *Handler) TicketDetails(c *gin.Context) {
	rec, err := h.Service.Store.Find(c.Request.Context(), c.Param("number"))
	if errors.Is(err, tickets.ErrTicketNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load ticket", err.Error())
		return
	}
	c.JSON(http.StatusOK, rec)
}

// @Summary Forward ticket to the remote API
// @Tags tickets
// @Produce json
// @Param number path string true "Ticket number"
// @Success 200 {object} models.TicketRecord
// @Failure 502 {object} map[string]any
// @Router /api/tickets/{number}/forward [post]
func (h *Handler) TicketForward(c *gin.Context) {
	remote, err := h.Service.Forward(c.Request.Context(), c.Param("number"))
	if err == nil {
		c.JSON(http.StatusOK, remote)
		return
	}
	if errors.Is(err, tickets.ErrTicketNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
		return
	}
	var se *ticketapi.SubmitError
	if errors.As(err, &se) {
		writeError(c, http.StatusBadGateway, "REMOTE_ERROR", se.Error(), gin.H{"status": se.Status, "body": se.Body})
		return
	}
	writeError(c, http.StatusBadGateway, "REMOTE_ERROR", "Ticket API unavailable", err.Error())
}

// @Summary Export ticket history
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /api/tickets/export [get]
func (h *Handler) TicketsExport(c *gin.Context) {
	list, err := h.Service.Store.List(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load tickets", err.Error())
		return
	}
	var buf bytes.Buffer
	if err := export.TicketsXLSX(&buf, list); err != nil {
		writeError(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to build export", err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="tickets.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handler) SequencePeek(c *gin.Context) {
	prefix := sequence.NormalizePrefix(c.Param("prefix"))
	last, err := h.Service.Sequence.Peek(c.Request.Context(), prefix)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to read counter", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"prefix": prefix, "last": last})
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return false
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return false
	}
	return true
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
