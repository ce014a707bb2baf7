package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atu_queue/kiosk/internal/models"
)

// SessionPatch carries the fields the kiosk screens fill in step by step.
// Absent fields are left unchanged.
type SessionPatch struct {
	Lang     *string `json:"lang" validate:"omitempty,oneof=kz ru en"`
	Verified *bool   `json:"verified"`
	FIO      *string `json:"fio" validate:"omitempty,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Category *string `json:"category" validate:"omitempty,max=64"`
	Service  *string `json:"service" validate:"omitempty,max=32"`
}

func (p SessionPatch) apply(st *models.SessionState) {
	if p.Lang != nil {
		st.Lang = *p.Lang
	}
	if p.Verified != nil {
		st.Verified = *p.Verified
	}
	if p.FIO != nil {
		st.FIO = *p.FIO
	}
	if p.Phone != nil {
		st.Phone = *p.Phone
	}
	if p.Category != nil {
		st.Category = *p.Category
	}
	if p.Service != nil {
		st.Service = *p.Service
	}
}

// @Summary Current kiosk session
// @Tags session
// @Produce json
// @Success 200 {object} models.SessionState
// @Router /api/session [get]
func (h *Handler) SessionGet(c *gin.Context) {
	st, err := h.Service.Store.LoadSession(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load session", err.Error())
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) SessionPatch(c *gin.Context) {
	var req SessionPatch
	if !h.bind(c, &req) {
		return
	}
	st, err := h.Service.Store.UpdateSession(c.Request.Context(), req.apply)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to save session", err.Error())
		return
	}
	c.JSON(http.StatusOK, st)
}

// SessionClear ends the visit. Ticket history and counters are kept.
func (h *Handler) SessionClear(c *gin.Context) {
	if err := h.Service.Store.Clear(c.Request.Context()); err != nil {
		writeError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to clear session", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
