package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/sparhub/backend/internal/db"
	"github.com/sparhub/backend/internal/models"
	"github.com/sparhub/backend/internal/service"
)

type Handler struct {
	Store     *db.Store
	Draws     *service.DrawService
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
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

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	var capErr *service.CapacityError
	var ballotErr *service.BallotError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	case errors.As(err, &capErr):
		writeError(c, http.StatusUnprocessableEntity, "CAPACITY_ERROR", capErr.Reason, nil)
	case errors.As(err, &ballotErr):
		writeError(c, http.StatusUnprocessableEntity, "INVALID_BALLOT", ballotErr.Reason, nil)
	case errors.Is(err, service.ErrLinkNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ballot link not found", nil)
	case errors.Is(err, service.ErrLinkExpired):
		writeError(c, http.StatusGone, "LINK_EXPIRED", "Ballot link has expired", nil)
	case errors.Is(err, service.ErrAlreadySubmitted):
		writeError(c, http.StatusConflict, "ALREADY_SUBMITTED", "A ballot was already submitted through this link", nil)
	case errors.Is(err, service.ErrDraftPending):
		writeError(c, http.StatusConflict, "DRAFT_PENDING", "Draft draw is not ready yet", nil)
	case errors.Is(err, service.ErrQueueFull):
		writeError(c, http.StatusServiceUnavailable, "BUSY", "Too many draws in flight, try again shortly", nil)
	default:
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
	}
}

func (h *Handler) getSpar(c *gin.Context) (models.Spar, bool) {
	spar, err := h.Store.GetSpar(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Spar not found", nil)
		} else {
			h.Logger.Error().Err(err).Msg("spar lookup failed")
			writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		}
		return models.Spar{}, false
	}
	return spar, true
}

func (h *Handler) getSeries(c *gin.Context) (models.Series, bool) {
	series, err := h.Store.GetSeries(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Series not found", nil)
		} else {
			h.Logger.Error().Err(err).Msg("series lookup failed")
			writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
		}
		return models.Series{}, false
	}
	return series, true
}
