package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/sparhub/backend/internal/db"
	"github.com/sparhub/backend/internal/service"
)

// DraftDrawGenerate kicks off a background allocation and answers 202 with
// the draft id. Clients poll DraftDrawGet until data shows up.
func (h *Handler) DraftDrawGenerate(c *gin.Context) {
	spar, ok := h.getSpar(c)
	if !ok {
		return
	}
	draft, err := h.Draws.Generate(c.Request.Context(), spar)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"draft_id": draft.PublicID, "version": draft.Version})
}

func (h *Handler) DraftDrawGet(c *gin.Context) {
	draft, err := h.Store.GetDraftDraw(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Draft draw not found", nil)
		} else {
			h.Logger.Error().Err(err).Msg("draft lookup failed")
			writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		}
		return
	}
	status := "pending"
	if draft.Ready() {
		status = "ready"
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      draft.PublicID,
		"version": draft.Version,
		"status":  status,
		"data":    draft.Data,
	})
}

type confirmDrawRequest struct {
	DraftID string `json:"draft_id" binding:"required,uuid"`
}

func (h *Handler) DrawConfirm(c *gin.Context) {
	spar, ok := h.getSpar(c)
	if !ok {
		return
	}
	var req confirmDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "draft_id is required", err.Error())
		return
	}
	draft, err := h.Store.GetDraftDraw(c.Request.Context(), req.DraftID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Draft draw not found", nil)
		} else {
			h.Logger.Error().Err(err).Msg("draft lookup failed")
			writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		}
		return
	}
	links, err := h.Draws.Confirm(c.Request.Context(), spar, draft)
	if err != nil {
		if errors.Is(err, service.ErrDraftPending) {
			writeServiceError(c, err)
			return
		}
		h.Logger.Error().Err(err).Msg("draw confirm failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"confirmed": true, "ballot_links_issued": len(links)})
}

// DrawGet is the participant view: empty until the draw is released.
func (h *Handler) DrawGet(c *gin.Context) {
	spar, ok := h.getSpar(c)
	if !ok {
		return
	}
	if !spar.ReleaseDraw {
		writeError(c, http.StatusNotFound, "NOT_RELEASED", "The draw has not been released", nil)
		return
	}
	rooms, err := h.Store.GetDraw(c.Request.Context(), spar.ID)
	if err != nil {
		h.Logger.Error().Err(err).Msg("draw fetch failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		return
	}
	if rooms == nil {
		rooms = []db.DrawRoom{}
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}
