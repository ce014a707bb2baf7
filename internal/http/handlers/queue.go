package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/atu_queue/kiosk/internal/models"
	"github.com/atu_queue/kiosk/internal/tickets"
)

const (
	flagCallNext  = "operator.call_next"
	flagSetStatus = "operator.set_status"
)

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING ACCEPTED DONE CANCELLED"`
}

type CallNextRequest struct {
	Desk int `json:"desk" validate:"required,min=1"`
}

func (h *Handler) TicketStatus(c *gin.Context) {
	var req StatusRequest
	if !h.bind(c, &req) {
		return
	}
	h.changeStatus(c, req.Status)
}

func (h *Handler) TicketDone(c *gin.Context) {
	h.changeStatus(c, models.StatusDone)
}

func (h *Handler) TicketCancel(c *gin.Context) {
	h.changeStatus(c, models.StatusCancelled)
}

func (h *Handler) changeStatus(c *gin.Context, status string) {
	if !h.operatorAllowed(c, flagSetStatus) {
		return
	}
	rec, err := h.Service.Store.SetStatus(c.Request.Context(), c.Param("number"), status)
	if errors.Is(err, tickets.ErrTicketNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
		return
	}
	if errors.Is(err, tickets.ErrDeskBusy) {
		writeError(c, http.StatusConflict, "DESK_BUSY", "Finish or cancel the called ticket first", nil)
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to update ticket", err.Error())
		return
	}
	h.Logger.Info().Str("number", rec.Number).Str("status", rec.Status).Msg("ticket status changed")
	c.JSON(http.StatusOK, rec)
}

// @Summary Pending tickets
// @Description PENDING tickets for one desk, oldest first. Without desk every desk is listed.
// @Tags queue
// @Produce json
// @Param desk query int false "Desk number"
// @Success 200 {array} models.TicketRecord
// @Router /api/queue/pending [get]
func (h *Handler) QueuePending(c *gin.Context) {
	desk := 0
	if raw := c.Query("desk"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "desk must be a positive number", raw)
			return
		}
		desk = n
	}
	list, err := h.Service.Store.PendingForDesk(c.Request.Context(), desk)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load queue", err.Error())
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Call next ticket
// @Tags queue
// @Accept json
// @Produce json
// @Param body body CallNextRequest true "Desk"
// @Success 200 {object} models.TicketRecord
// @Failure 404 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/queue/next [post]
func (h *Handler) QueueCallNext(c *gin.Context) {
	var req CallNextRequest
	if !h.bind(c, &req) {
		return
	}
	if !h.operatorAllowed(c, flagCallNext) {
		return
	}
	rec, err := h.Service.Store.CallNext(c.Request.Context(), req.Desk)
	switch {
	case errors.Is(err, tickets.ErrQueueEmpty):
		writeError(c, http.StatusNotFound, "QUEUE_EMPTY", "No pending tickets for this desk", nil)
	case errors.Is(err, tickets.ErrDeskBusy):
		writeError(c, http.StatusConflict, "DESK_BUSY", "Finish or cancel the called ticket first", nil)
	case err != nil:
		writeError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to call next ticket", err.Error())
	default:
		h.Logger.Info().Int("desk", req.Desk).Str("number", rec.Number).Msg("ticket called")
		c.JSON(http.StatusOK, rec)
	}
}

// QueueBoard serves the hall display: the called ticket of every desk.
func (h *Handler) QueueBoard(c *gin.Context) {
	board, err := h.Service.Store.Board(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load board", err.Error())
		return
	}
	c.JSON(http.StatusOK, board)
}

func (h *Handler) operatorAllowed(c *gin.Context, flag string) bool {
	cfg := h.Service.Config.Load(c.Request.Context())
	if cfg.Flag(flag, true) {
		return true
	}
	writeError(c, http.StatusForbidden, "OPERATOR_ACTION_DISABLED", "Disabled by the administrator", flag)
	return false
}
